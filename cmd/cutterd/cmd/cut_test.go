package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/finnhorvath/cutterd/internal/cutengine"
	"github.com/finnhorvath/cutterd/pkg/cutlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsJSONCutList(t *testing.T) {
	assert.True(t, isJSONCutList("cuts.json"))
	assert.True(t, isJSONCutList("/tmp/some/path/cuts.json"))
	assert.False(t, isJSONCutList("cuts.bin"))
	assert.False(t, isJSONCutList("cuts"))
	assert.False(t, isJSONCutList("/tmp/no.ext/cuts"))
}

func TestLoadCutList_DispatchesByExtension(t *testing.T) {
	dir := t.TempDir()
	cl := cutengine.CutList{Cuts: []cutengine.Cut{{Start: 0, End: 100}}}

	jsonPath := filepath.Join(dir, "cuts.json")
	jf, err := os.Create(jsonPath)
	require.NoError(t, err)
	require.NoError(t, cutlist.EncodeJSON(jf, cl))
	require.NoError(t, jf.Close())

	got, err := loadCutList(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, cl, got)

	binPath := filepath.Join(dir, "cuts.bin")
	bf, err := os.Create(binPath)
	require.NoError(t, err)
	require.NoError(t, cutlist.EncodeBinary(bf, cl))
	require.NoError(t, bf.Close())

	got, err = loadCutList(binPath)
	require.NoError(t, err)
	assert.Equal(t, cl, got)
}

func TestLoadCutList_MissingFile(t *testing.T) {
	_, err := loadCutList(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
