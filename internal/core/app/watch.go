package app

import (
	"context"
	"log/slog"

	"juparc/internal/core/app/helpers"
	"juparc/internal/core/watcher"
	"juparc/internal/engine/aggregate"
	"juparc/internal/shared/util"
)

// Watch re-processes notebooks below roots whenever they change, calling
// onBatch with each debounced batch. It blocks until ctx is done.
func (a *App) Watch(ctx context.Context, roots []string, sections aggregate.Sections, onBatch func(*BatchResult)) error {
	if len(roots) == 0 {
		roots = a.Config.Scan.Roots
	}
	roots = helpers.UniqueScanRoots(roots)
	include, err := util.CompilePathMatcher(a.Config.Scan.Include...)
	if err != nil {
		return err
	}

	w, err := watcher.NewWatcher(
		a.Config.Watch.Debounce,
		a.Config.Scan.ExcludeDirs,
		a.Config.Scan.ExcludeFiles,
		func(paths []string) {
			a.HandleChanges(ctx, roots, include, paths, sections, onBatch)
		},
	)
	if err != nil {
		return err
	}
	w.OnTouch(func(dir string) {
		if n := a.Lister.Invalidate(dir); n > 0 {
			slog.Debug("invalidated locality listings", "path", dir, "entries", n)
		}
	})
	a.activeWatcher = w
	if err := w.Watch(roots); err != nil {
		return err
	}
	slog.Info("watching notebooks", "roots", roots)
	<-ctx.Done()
	return nil
}

// HandleChanges processes the changed notebooks that match the include
// patterns of their root.
func (a *App) HandleChanges(ctx context.Context, roots []string, include *util.PathMatcher, paths []string, sections aggregate.Sections, onBatch func(*BatchResult)) {
	selected := make([]string, 0, len(paths))
	for _, path := range paths {
		_, rel, err := helpers.FindContainingRoot(path, roots)
		if err != nil || !include.Match(rel) {
			continue
		}
		selected = append(selected, path)
	}
	if len(selected) == 0 {
		return
	}
	res, err := a.ProcessBatch(ctx, selected, roots, sections)
	if err != nil {
		slog.Warn("failed to process changed notebooks", "error", err)
		return
	}
	if onBatch != nil {
		onBatch(res)
	}
}
