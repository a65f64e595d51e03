package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSyntheticDeterministic(t *testing.T) {
	a := Synthetic(50, 0)
	b := Synthetic(50, 0)

	assert.Equal(t, 50, a.Rows())
	assert.Equal(t, 13, a.Features())
	assert.Equal(t, a.Y, b.Y, "same seed must give the same targets")
	assert.True(t, mat.Equal(a.X, b.X), "same seed must give the same features")

	c := Synthetic(50, 1)
	assert.NotEqual(t, a.Y, c.Y, "different seeds should differ")
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	content := "a,b,target\n1,2,3\n4,5,6\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, err := LoadCSV(path)
	require.NoError(t, err)

	assert.Equal(t, 2, table.Rows())
	assert.Equal(t, 2, table.Features())
	assert.Equal(t, []string{"a", "b"}, table.Names)
	assert.Equal(t, []float64{3, 6}, table.Y)
	assert.Equal(t, 5.0, table.X.At(1, 1))
}

func TestLoadCSVErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadCSV(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("a,target\nnot-a-number,1\n"), 0o644))
	_, err = LoadCSV(bad)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, []byte("a,target\n"), 0o644))
	_, err = LoadCSV(empty)
	assert.Error(t, err)
}
