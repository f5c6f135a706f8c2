// Package app wires the loader, the feature extractor, the locality cache
// and the result store into the operations exposed by the CLI.
package app

import (
	"context"
	"path/filepath"
	"sync"

	"juparc/internal/core/config"
	"juparc/internal/core/watcher"
	"juparc/internal/data/store"
	"juparc/internal/engine/features"
	"juparc/internal/engine/locality"
	"juparc/internal/notebook"
)

type App struct {
	Config    *config.Config
	Loader    *notebook.Loader
	Extractor *features.Extractor
	Lister    *locality.CachedLister

	storeMu sync.Mutex
	store   *store.Store

	activeWatcher *watcher.Watcher
}

func New(cfg *config.Config) *App {
	if cfg == nil {
		cfg = config.Default()
	}
	return &App{
		Config: cfg,
		Loader: notebook.NewLoader(notebook.Options{
			TransformMagics: cfg.TransformMagics(),
			CountWords:      cfg.Extract.CountWords,
		}),
		Extractor: features.NewExtractor(nil),
		Lister:    locality.NewCachedLister(locality.WalkLister{}, cfg.Locality.CacheSize),
	}
}

// Oracle returns the locality oracle of a notebook: modules are looked up
// next to the notebook file.
func (a *App) Oracle(notebookName string) *locality.Oracle {
	return locality.New(filepath.Dir(notebookName), a.Lister)
}

// Store opens the configured database on first use. It returns nil when
// persistence is disabled.
func (a *App) Store() (*store.Store, error) {
	if !a.Config.DB.Enabled {
		return nil, nil
	}
	a.storeMu.Lock()
	defer a.storeMu.Unlock()
	if a.store != nil {
		return a.store, nil
	}
	s, err := store.Open(a.Config.DB.Path, a.Config.DB.BusyTimeout)
	if err != nil {
		return nil, err
	}
	a.store = s
	return s, nil
}

func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var firstErr error
	if a.activeWatcher != nil {
		firstErr = a.activeWatcher.Close()
		a.activeWatcher = nil
	}
	a.storeMu.Lock()
	defer a.storeMu.Unlock()
	if a.store != nil {
		if err := a.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		a.store = nil
	}
	return firstErr
}
