package locality

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"juparc/internal/shared/observability"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// WalkLister lists a directory tree on every call.
type WalkLister struct{}

func (WalkLister) List(base string) []string {
	var files []string
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable entries are skipped, the rest of the tree still counts
			if d != nil && d.IsDir() && path != base {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		slog.Debug("locality listing incomplete", "path", base, "error", err)
	}
	return files
}

// CachedLister keeps recent listings in a bounded LRU keyed by base
// directory. Concurrent misses on the same base share one walk.
type CachedLister struct {
	inner Lister
	cache *lru.Cache[string, []string]
	group singleflight.Group
}

const defaultCacheSize = 256

func NewCachedLister(inner Lister, size int) *CachedLister {
	if inner == nil {
		inner = WalkLister{}
	}
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, _ := lru.New[string, []string](size)
	return &CachedLister{inner: inner, cache: cache}
}

func (c *CachedLister) List(base string) []string {
	base = filepath.Clean(base)
	if files, ok := c.cache.Get(base); ok {
		observability.LocalityListingCache.WithLabelValues("hit").Inc()
		return files
	}
	observability.LocalityListingCache.WithLabelValues("miss").Inc()
	v, _, _ := c.group.Do(base, func() (any, error) {
		files := c.inner.List(base)
		c.cache.Add(base, files)
		return files, nil
	})
	return v.([]string)
}

// Invalidate drops the cached listings that contain dir: the directory
// itself and every cached ancestor.
func (c *CachedLister) Invalidate(dir string) int {
	dir = filepath.Clean(dir)
	removed := 0
	for _, base := range c.cache.Keys() {
		if base == dir || within(dir, base) {
			if c.cache.Remove(base) {
				removed++
			}
		}
	}
	return removed
}

// Len reports the number of cached listings.
func (c *CachedLister) Len() int {
	return c.cache.Len()
}

func within(path, base string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
