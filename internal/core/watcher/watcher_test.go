package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, nil, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrInvalid))
	assert.Nil(t, w)
}

func TestNewWatcher_InvalidPattern(t *testing.T) {
	_, err := NewWatcher(time.Millisecond, []string{"["}, nil, func([]string) {})
	assert.Error(t, err)
}

func waitFor(t *testing.T, ch <-chan []string, want string) {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case paths := <-ch:
			if slices.Contains(paths, want) {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestWatcher_Notebooks(t *testing.T) {
	tmpDir := t.TempDir()

	changed := make(chan []string, 8)
	var (
		mu      sync.Mutex
		touched []string
	)
	w, err := NewWatcher(50*time.Millisecond, []string{".ipynb_checkpoints"}, []string{"*.exclude.ipynb"}, func(paths []string) {
		changed <- paths
	})
	require.NoError(t, err)
	defer w.Close()
	w.OnTouch(func(dir string) {
		mu.Lock()
		defer mu.Unlock()
		touched = append(touched, dir)
	})
	require.NoError(t, w.Watch([]string{tmpDir}))

	nb := filepath.Join(tmpDir, "analysis.ipynb")
	require.NoError(t, os.WriteFile(nb, []byte("{}"), 0o644))
	waitFor(t, changed, nb)

	// Non-notebook files only touch their directory.
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "helper.py"), []byte("x = 1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "skip.exclude.ipynb"), []byte("{}"), 0o644))
	select {
	case paths := <-changed:
		for _, p := range paths {
			assert.Equal(t, ".ipynb", filepath.Ext(p))
			assert.NotEqual(t, "skip.exclude.ipynb", filepath.Base(p))
		}
	case <-time.After(300 * time.Millisecond):
	}

	sub := filepath.Join(tmpDir, "week2")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	nested := filepath.Join(sub, "nested.ipynb")
	require.NoError(t, os.WriteFile(nested, []byte("{}"), 0o644))
	waitFor(t, changed, nested)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, touched, tmpDir)
}

func TestWatcher_RenameTriggersChange(t *testing.T) {
	tmpDir := t.TempDir()
	changed := make(chan []string, 8)
	w, err := NewWatcher(50*time.Millisecond, nil, nil, func(paths []string) {
		changed <- paths
	})
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch([]string{tmpDir}))

	oldPath := filepath.Join(tmpDir, "old.ipynb")
	newPath := filepath.Join(tmpDir, "new.ipynb")
	require.NoError(t, os.WriteFile(oldPath, []byte("{}"), 0o644))
	require.NoError(t, os.Rename(oldPath, newPath))
	waitFor(t, changed, newPath)
}

func TestWatcher_Exclusion(t *testing.T) {
	w, err := NewWatcher(time.Millisecond, []string{".ipynb_checkpoints"}, []string{"*-checkpoint.ipynb"}, func([]string) {})
	require.NoError(t, err)
	defer w.Close()

	tests := []struct {
		path string
		want bool
	}{
		{"nb.ipynb", false},
		{"nb-checkpoint.ipynb", true},
		{filepath.Join("a", ".ipynb_checkpoints", "nb.ipynb"), true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, w.isExcluded(tt.path))
		})
	}
	assert.True(t, isNotebook("A.IPYNB"))
	assert.False(t, isNotebook("a.py"))
}
