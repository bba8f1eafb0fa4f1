package reencode

import (
	"testing"
	"time"

	"github.com/finnhorvath/cutterd/internal/cutengine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFFmpegReencoder_DefaultsTimeout(t *testing.T) {
	r := NewFFmpegReencoder("", 0)
	assert.Equal(t, 5*time.Minute, r.Timeout)

	r2 := NewFFmpegReencoder("", 30*time.Second)
	assert.Equal(t, 30*time.Second, r2.Timeout)
}

func TestFFmpegReencoder_BinaryOverrideSkipsPathLookup(t *testing.T) {
	r := NewFFmpegReencoder("/opt/custom/ffmpeg", time.Second)
	bin, err := r.binary()
	require.NoError(t, err)
	assert.Equal(t, "/opt/custom/ffmpeg", bin)
}

func TestFFmpegReencoder_Reencode_WrapsRunFailure(t *testing.T) {
	r := NewFFmpegReencoder("/nonexistent/ffmpeg-binary-does-not-exist", time.Second)
	packets := []*cutengine.Packet{
		cutengine.NewPacket(0, 0, 0, 33, cutengine.FlagDiscard, []byte{1, 2, 3}),
	}

	_, err := r.Reencode(packets, 23)
	require.Error(t, err)

	var werr *cutengine.WorkerError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, cutengine.ErrEncodeFailed, werr.Kind)
}

var _ cutengine.KeyframeReencoder = (*FFmpegReencoder)(nil)
