package cutengine_test

import (
	"testing"

	"github.com/finnhorvath/cutterd/internal/cutengine"
	"github.com/finnhorvath/cutterd/internal/cutengine/cuttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixtureSpec = cuttest.StreamSpec{PacketDurationMS: 33, KeyframeEveryMS: 300}
var audioSpec = cuttest.StreamSpec{PacketDurationMS: 40}

func dtsSequence(packets []*cutengine.Packet) []int64 {
	out := make([]int64, len(packets))
	for i, p := range packets {
		out[i] = p.DTS
	}
	return out
}

// S1 — pass-through: a cut list spanning the whole fixture duration leaves
// every packet's timestamps untouched.
func TestScenario_S1_PassThrough(t *testing.T) {
	video := cuttest.BuildVideo(1000, fixtureSpec)
	audio := cuttest.BuildAudio(1000, audioSpec)

	in := &cuttest.Input{Packets: append(append([]*cutengine.Packet{}, video...), audio...), Meta: cuttest.DefaultMeta()}
	out := &cuttest.Output{}

	result, err := cutengine.Render(in, out, cutengine.RenderOptions{
		InputPath:  "fixture",
		OutputPath: "fixture-out",
		CutList:    cutengine.CutList{Cuts: []cutengine.Cut{{Start: 0, End: 100}}},
	})
	require.NoError(t, err)
	assert.True(t, result.WroteTrailer)
	require.True(t, out.Created)

	require.Len(t, out.Video, len(video))
	require.Len(t, out.Audio, len(audio))
	assert.Equal(t, dtsSequence(video), dtsSequence(out.Video))
	assert.Equal(t, dtsSequence(audio), dtsSequence(out.Audio))
}

// S6 — empty cut list: the output container is still created and closed,
// but zero media packets are emitted.
func TestScenario_S6_EmptyCutList(t *testing.T) {
	video := cuttest.BuildVideo(1000, fixtureSpec)
	audio := cuttest.BuildAudio(1000, audioSpec)

	in := &cuttest.Input{Packets: append(append([]*cutengine.Packet{}, video...), audio...), Meta: cuttest.DefaultMeta()}
	out := &cuttest.Output{}

	result, err := cutengine.Render(in, out, cutengine.RenderOptions{
		InputPath:  "fixture",
		OutputPath: "fixture-out",
		CutList:    cutengine.CutList{},
	})
	require.NoError(t, err)
	assert.True(t, result.WroteTrailer)
	assert.True(t, out.Created)
	assert.True(t, out.Closed)
	assert.Empty(t, out.Video)
	assert.Empty(t, out.Audio)
}

// A cut list rejected by Validate (overlapping cuts) must fail Render before
// any worker runs, leaving the output container untouched.
func TestRender_InvalidCutListFailsFast(t *testing.T) {
	in := &cuttest.Input{Meta: cuttest.DefaultMeta()}
	out := &cuttest.Output{}

	_, err := cutengine.Render(in, out, cutengine.RenderOptions{
		InputPath:  "fixture",
		OutputPath: "fixture-out",
		CutList:    cutengine.CutList{Cuts: []cutengine.Cut{{Start: 0, End: 50}, {Start: 25, End: 75}}},
	})
	require.Error(t, err)
	assert.False(t, out.Created)
}
