// Package locality decides whether an imported module is vendored next to
// the notebook that imports it.
package locality

import (
	"os"
	"path/filepath"
	"strings"
)

// MaxScore is the score of a module that resolves under the base directory.
const MaxScore = 4

// Lister returns the files below base as slash-separated paths relative to
// base.
type Lister interface {
	List(base string) []string
}

// Oracle answers locality questions for one base directory. It never fails:
// a missing path is the ordinary negative answer.
type Oracle struct {
	base   string
	lister Lister
}

// New binds an oracle to base. A nil lister walks the tree on every score.
func New(base string, lister Lister) *Oracle {
	if lister == nil {
		lister = WalkLister{}
	}
	return &Oracle{base: base, lister: lister}
}

func (o *Oracle) Base() string {
	return o.base
}

// IsLocal reports whether module is relative or every prefix of its dotted
// path exists under the base as a directory or a .py file.
func (o *Oracle) IsLocal(module string) bool {
	if strings.HasPrefix(module, ".") {
		return true
	}
	if module == "" {
		return false
	}
	path := o.base
	for _, part := range strings.Split(module, ".") {
		path = filepath.Join(path, part)
		if !exists(path) && !exists(path+".py") {
			return false
		}
	}
	return true
}

type suffixMode struct {
	suffix string
	score  int
}

// LocalityScore rates how likely module is local, from 0 to MaxScore. The
// best suffix match over all files of the base wins.
func (o *Oracle) LocalityScore(module string) int {
	if o.IsLocal(module) {
		return MaxScore
	}
	converted := strings.ReplaceAll(module, ".", "/")
	if converted == "" {
		return 0
	}

	segments := strings.Split(converted, "/")
	modes := []suffixMode{{converted, 3}}
	if len(segments) > 1 {
		modes = append(modes, suffixMode{strings.Join(segments[1:], "/"), 2})
	}
	if len(segments) > 2 {
		modes = append(modes, suffixMode{segments[len(segments)-1], 1})
	}

	best := 0
	for _, path := range o.lister.List(o.base) {
		for _, candidate := range candidates(path) {
			for _, m := range modes {
				if m.score > best && suffixMatch(candidate, m.suffix) {
					best = m.score
				}
			}
		}
		if best == modes[0].score {
			break
		}
	}
	return best
}

func candidates(path string) []string {
	if trimmed, ok := strings.CutSuffix(path, ".py"); ok {
		return []string{path, trimmed}
	}
	return []string{path}
}

// suffixMatch requires the suffix to cover whole path segments.
func suffixMatch(path, suffix string) bool {
	if suffix == "" || !strings.HasSuffix(path, suffix) {
		return false
	}
	if len(path) == len(suffix) {
		return true
	}
	return path[len(path)-len(suffix)-1] == '/'
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
