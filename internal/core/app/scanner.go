package app

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"juparc/internal/core/app/helpers"
	"juparc/internal/shared/util"
)

// Discover lists the notebooks below roots that match the include patterns
// and are not excluded. Paths are sorted and unique.
func (a *App) Discover(roots []string) ([]string, error) {
	include, err := util.CompilePathMatcher(a.Config.Scan.Include...)
	if err != nil {
		return nil, fmt.Errorf("invalid include pattern: %w", err)
	}
	excludeDirs, err := helpers.CompileGlobs(a.Config.Scan.ExcludeDirs, "exclude dir")
	if err != nil {
		return nil, err
	}
	excludeFiles, err := helpers.CompileGlobs(a.Config.Scan.ExcludeFiles, "exclude file")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var files []string
	for _, root := range helpers.UniqueScanRoots(roots) {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			base := filepath.Base(path)
			if d.IsDir() {
				if path != root && helpers.MatchAny(excludeDirs, base) {
					return filepath.SkipDir
				}
				return nil
			}
			if helpers.MatchAny(excludeFiles, base) {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return nil
			}
			if !include.Match(filepath.ToSlash(rel)) || seen[path] {
				return nil
			}
			seen[path] = true
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	slices.Sort(files)
	return files, nil
}

// Glob expands a recursive shell pattern such as "**/*.ipynb". Hidden
// entries are skipped unless the pattern names them. A pattern without
// wildcards yields itself when the path exists.
func Glob(pattern string) ([]string, error) {
	root, rest := splitStatic(filepath.ToSlash(pattern))
	if rest == "" {
		if _, err := os.Stat(filepath.FromSlash(root)); err != nil {
			return []string{}, nil
		}
		return []string{filepath.FromSlash(root)}, nil
	}
	matcher, err := util.CompilePathMatcher(rest)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	explicitHidden := strings.Contains(rest, "/.") || strings.HasPrefix(rest, ".")

	walkRoot := filepath.FromSlash(root)
	if walkRoot == "" {
		walkRoot = "."
	}
	out := []string{}
	err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == walkRoot {
				return fs.SkipAll
			}
			return nil
		}
		if path == walkRoot {
			return nil
		}
		if !explicitHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(walkRoot, path)
		if err != nil {
			return nil
		}
		if matcher.Match(filepath.ToSlash(rel)) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(out)
	return out, nil
}

// splitStatic separates the leading wildcard-free directories of pattern.
func splitStatic(pattern string) (root, rest string) {
	parts := strings.Split(pattern, "/")
	i := 0
	for ; i < len(parts); i++ {
		if strings.ContainsAny(parts[i], "*?[{") {
			break
		}
	}
	if i == len(parts) {
		return pattern, ""
	}
	root = strings.Join(parts[:i], "/")
	if root == "" && i > 0 {
		root = "/"
	}
	return root, strings.Join(parts[i:], "/")
}

// Requirement files reported by listreq, with their default patterns.
var RequirementPatterns = []struct {
	Name    string
	Pattern string
}{
	{"setup.py", "**/setup.py"},
	{"requirements.txt", "**/requirements.txt"},
	{"Pipfile", "**/Pipfile"},
	{"Pipfile.lock", "**/Pipfile.lock"},
}

// ListRequirements expands one pattern per requirement file name.
func ListRequirements(patterns map[string]string) (util.Record, error) {
	out := util.Record{}
	for _, req := range RequirementPatterns {
		pattern := req.Pattern
		if p, ok := patterns[req.Name]; ok && p != "" {
			pattern = p
		}
		paths, err := Glob(pattern)
		if err != nil {
			return nil, err
		}
		out.Set(req.Name, paths)
	}
	return out, nil
}
