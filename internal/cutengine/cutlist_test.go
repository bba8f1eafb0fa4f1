package cutengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCutList_Validate_AcceptsOrderedNonOverlapping(t *testing.T) {
	cl := CutList{Cuts: []Cut{{Start: 0, End: 100}, {Start: 200, End: 300}}}
	require.NoError(t, cl.Validate())
	assert.Len(t, cl.Cuts, 2)
}

func TestCutList_Validate_RejectsOverlap(t *testing.T) {
	cl := CutList{Cuts: []Cut{{Start: 0, End: 150}, {Start: 100, End: 300}}}
	assert.Error(t, cl.Validate())
}

func TestCutList_Validate_RejectsEmptyOrInvertedCut(t *testing.T) {
	assert.Error(t, (&CutList{Cuts: []Cut{{Start: 10, End: 10}}}).Validate())
	assert.Error(t, (&CutList{Cuts: []Cut{{Start: 10, End: 5}}}).Validate())
}

func TestCutList_Validate_MergesAdjacentCuts(t *testing.T) {
	cl := &CutList{Cuts: []Cut{{Start: 0, End: 100}, {Start: 100, End: 200}}}
	require.NoError(t, cl.Validate())
	require.Len(t, cl.Cuts, 1)
	assert.Equal(t, Cut{Start: 0, End: 200}, cl.Cuts[0])
}

func TestLocalize_RescalesIntoNativeBaseWithOffset(t *testing.T) {
	cl := CutList{Cuts: []Cut{{Start: 100, End: 200}}} // 1s-2s in centiseconds
	base := Rational{Num: 1, Den: 90000}
	out := localize(cl, base, 1000) // 1000-tick start offset

	require.Len(t, out, 1)
	assert.Equal(t, int64(90000+1000), out[0].Start)
	assert.Equal(t, int64(180000+1000), out[0].End)
}
