package helpers

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniqueScanRoots(t *testing.T) {
	roots := UniqueScanRoots([]string{"b", "a/", "./a", "b/../b"})
	assert.Equal(t, []string{"a", "b"}, roots)
}

func TestFindContainingRoot(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "course")
	other := filepath.Join(dir, "other")

	got, rel, err := FindContainingRoot(filepath.Join(root, "week1", "nb.ipynb"), []string{other, root})
	require.NoError(t, err)
	assert.Equal(t, root, got)
	assert.Equal(t, "week1/nb.ipynb", rel)

	_, _, err = FindContainingRoot(filepath.Join(dir, "elsewhere.ipynb"), []string{root})
	assert.Error(t, err)
}

func TestCompileGlobs(t *testing.T) {
	globs, err := CompileGlobs([]string{".git", "*_checkpoints"}, "exclude dir")
	require.NoError(t, err)
	assert.True(t, MatchAny(globs, ".ipynb_checkpoints"))
	assert.False(t, MatchAny(globs, "src"))

	_, err = CompileGlobs([]string{"["}, "exclude dir")
	assert.Error(t, err)
}
