package locality

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files ...string) string {
	t.Helper()
	base := t.TempDir()
	for _, f := range files {
		path := filepath.Join(base, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644))
	}
	return base
}

func TestOracle_IsLocal(t *testing.T) {
	base := writeTree(t, "pkg/sub.py", "pkg/deep/mod.py", "single.py")
	o := New(base, nil)

	tests := []struct {
		module string
		want   bool
	}{
		{".anything", true},
		{"..parent.mod", true},
		{"pkg", true},
		{"pkg.sub", true},
		{"pkg.deep.mod", true},
		{"single", true},
		{"pkg.missing", false},
		{"numpy", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			assert.Equal(t, tt.want, o.IsLocal(tt.module))
		})
	}
}

func TestOracle_LocalityScore(t *testing.T) {
	tests := []struct {
		name   string
		files  []string
		module string
		want   int
	}{
		{"exact package", []string{"pkg/sub.py"}, "pkg.sub", 4},
		{"relative", nil, ".sibling", 4},
		{"vendored tail", []string{"vendor/sub.py"}, "other.sub", 2},
		{"full path under another root", []string{"lib/pkg/sub.py"}, "pkg.sub", 3},
		{"last segment only", []string{"other/c.py"}, "a.b.c", 1},
		{"single segment matches any file", []string{"other/sub.py"}, "sub", 3},
		{"partial segment does not match", []string{"vendor/mysub.py"}, "pkg.sub", 0},
		{"absent", []string{"notes.txt"}, "numpy", 0},
		{"best over all files", []string{"z/c.py", "y/b/c.py"}, "a.b.c", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := writeTree(t, tt.files...)
			o := New(base, nil)
			assert.Equal(t, tt.want, o.LocalityScore(tt.module))
		})
	}
}

type countingLister struct {
	calls int
	inner Lister
}

func (c *countingLister) List(base string) []string {
	c.calls++
	return c.inner.List(base)
}

func TestCachedLister(t *testing.T) {
	base := writeTree(t, "a/x.py", "b.py")
	counter := &countingLister{inner: WalkLister{}}
	cached := NewCachedLister(counter, 4)

	first := cached.List(base)
	second := cached.List(base)
	assert.Equal(t, 1, counter.calls)
	assert.Equal(t, first, second)

	files := append([]string(nil), first...)
	sort.Strings(files)
	assert.Equal(t, []string{"a/x.py", "b.py"}, files)

	uncached := New(base, nil)
	withCache := New(base, cached)
	for _, module := range []string{"a.x", "x", "q.a.x", "b", "c"} {
		assert.Equal(t, uncached.LocalityScore(module), withCache.LocalityScore(module), module)
	}

	assert.Equal(t, 1, cached.Invalidate(filepath.Join(base, "a")))
	assert.Equal(t, 0, cached.Len())
	cached.List(base)
	assert.Equal(t, 2, counter.calls)

	assert.Equal(t, 0, cached.Invalidate(filepath.Dir(base)))
	assert.Equal(t, 1, cached.Len())
}
