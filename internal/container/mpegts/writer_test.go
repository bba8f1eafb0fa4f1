package mpegts

import (
	"testing"

	"github.com/bluenviron/mediacommon/v2/pkg/formats/mpegts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoCodec_SelectsByName(t *testing.T) {
	assert.IsType(t, &mpegts.CodecH265{}, videoCodec("h265"))
	assert.IsType(t, &mpegts.CodecH265{}, videoCodec("hevc"))
	assert.IsType(t, &mpegts.CodecH264{}, videoCodec("h264"))
	assert.IsType(t, &mpegts.CodecH264{}, videoCodec(""))
}

func TestAudioCodec_SelectsByName(t *testing.T) {
	assert.IsType(t, &mpegts.CodecAC3{}, audioCodec("ac3"))

	aac := audioCodec("aac")
	require.IsType(t, &mpegts.CodecMPEG4Audio{}, aac)
	cfg := aac.(*mpegts.CodecMPEG4Audio).Config
	assert.Equal(t, 48000, cfg.SampleRate)
	assert.Equal(t, 2, cfg.ChannelCount)
}

func TestDataToAccessUnit_SplitsAnnexB(t *testing.T) {
	nal1 := []byte{0x67, 0x01, 0x02}
	nal2 := []byte{0x68, 0x03}
	annexB := append(append([]byte{0, 0, 0, 1}, nal1...), append([]byte{0, 0, 0, 1}, nal2...)...)

	au, err := dataToAccessUnit(annexB)
	require.NoError(t, err)
	require.Len(t, au, 2)
	assert.Equal(t, nal1, au[0])
	assert.Equal(t, nal2, au[1])
}

func TestDataToAccessUnit_FallsBackToSingleNALWithoutStartCodes(t *testing.T) {
	raw := []byte{0x67, 0xAA, 0xBB}
	au, err := dataToAccessUnit(raw)
	require.NoError(t, err)
	require.Len(t, au, 1)
	assert.Equal(t, raw, au[0])
}
