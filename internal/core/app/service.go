package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"runtime"
	"time"

	"juparc/internal/core/errors"
	"juparc/internal/data/store"
	"juparc/internal/engine/aggregate"
	"juparc/internal/notebook"
	"juparc/internal/shared/observability"
	"juparc/internal/shared/util"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// NotebookResult is the outcome of processing one notebook file.
type NotebookResult struct {
	Notebook *notebook.Notebook
	// Record is the enriched notebook record.
	Record  util.Record
	Summary *aggregate.Summary
}

// Failed reports whether the notebook did not load cleanly.
func (r *NotebookResult) Failed() bool {
	return r.Notebook.Status != notebook.StatusOK
}

// LoadRecords loads notebook files and renders them through mask.
func (a *App) LoadRecords(ctx context.Context, paths []string, mask notebook.Mask) ([]util.Record, error) {
	out := make([]util.Record, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		nb := a.Loader.Load(path)
		r, err := notebook.Normalize(nb.Record(mask))
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "render notebook"), errors.CtxPath, path)
		}
		out = append(out, r)
	}
	return out, nil
}

// Process loads, enriches and summarizes one notebook. Failures are
// reported through the notebook status.
func (a *App) Process(ctx context.Context, path string, sections aggregate.Sections) (*NotebookResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Process", trace.WithAttributes(attribute.String("path", path)))
	defer span.End()
	start := time.Now()

	nb := a.Loader.Load(path)
	span.SetAttributes(attribute.String("status", nb.Status))
	observability.NotebooksProcessed.WithLabelValues(nb.Status).Inc()

	r, err := notebook.Normalize(nb.Record(notebook.Mask{}))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "render notebook"), errors.CtxPath, path)
	}
	if err := a.enrichRecord(&r, EnrichOptions{Sections: sections}); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	summary, err := summarizeRecord(r, sections)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	observability.NotebookDuration.Observe(time.Since(start).Seconds())
	slog.Debug("processed notebook", "path", path, "status", nb.Status)
	return &NotebookResult{Notebook: nb, Record: r, Summary: summary}, ctx.Err()
}

// BatchResult is the outcome of a batch over many notebooks.
type BatchResult struct {
	RunID   string
	Results []*NotebookResult
	Corpus  *aggregate.Summary
	Failed  int
}

// Summaries returns the notebook summaries in path order.
func (b *BatchResult) Summaries() []*aggregate.Summary {
	out := make([]*aggregate.Summary, 0, len(b.Results))
	for _, r := range b.Results {
		out = append(out, r.Summary)
	}
	return out
}

// ProcessBatch processes paths on a bounded worker pool. Per-notebook
// failures never stop the batch; cancellation of ctx does. When persistence
// is enabled the batch is recorded as a run.
func (a *App) ProcessBatch(ctx context.Context, paths []string, roots []string, sections aggregate.Sections) (*BatchResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.ProcessBatch", trace.WithAttributes(attribute.Int("notebooks", len(paths))))
	defer span.End()

	st, err := a.Store()
	if err != nil {
		return nil, err
	}
	result := &BatchResult{}
	var run store.Run
	if st != nil {
		if run, err = st.BeginRun(roots); err != nil {
			return nil, err
		}
		result.RunID = run.ID
	}

	workers := a.Config.Scan.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	limiter := util.NewLimiter(a.Config.Scan.MaxPerSecond, 1)
	results := make([]*NotebookResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		if err := limiter.Wait(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			observability.BatchInFlight.Inc()
			defer observability.BatchInFlight.Dec()

			res, err := a.Process(gctx, path, sections)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				slog.Warn("failed to process notebook", "path", path, "error", err)
				return nil
			}
			results[i] = res
			if st != nil {
				a.persist(st, run.ID, res)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, res := range results {
		if res == nil {
			result.Failed++
			continue
		}
		if res.Failed() {
			result.Failed++
		}
		result.Results = append(result.Results, res)
	}
	result.Corpus = Corpus(result.Summaries(), sections)

	if st != nil {
		corpus, err := json.Marshal(result.Corpus)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "render corpus summary")
		}
		if err := st.FinishRun(run.ID, len(result.Results), result.Failed, corpus); err != nil {
			return nil, err
		}
	}
	span.SetAttributes(attribute.Int("failed", result.Failed))
	return result, nil
}

func (a *App) persist(st *store.Store, runID string, res *NotebookResult) {
	summary, err := json.Marshal(res.Summary)
	if err == nil {
		sha := ""
		if res.Notebook.SHA1File != nil {
			sha = *res.Notebook.SHA1File
		}
		err = st.SaveNotebook(store.NotebookRow{
			RunID:    runID,
			Name:     res.Notebook.Name,
			Status:   res.Notebook.Status,
			Language: res.Notebook.Language,
			SHA1File: sha,
			Summary:  summary,
		})
	}
	if err != nil {
		slog.Warn("failed to persist notebook summary", "path", res.Notebook.Name, "error", err)
	}
}

// Scan discovers the notebooks below roots and processes them as a batch.
func (a *App) Scan(ctx context.Context, roots []string, sections aggregate.Sections) (*BatchResult, error) {
	if len(roots) == 0 {
		roots = a.Config.Scan.Roots
	}
	paths, err := a.Discover(roots)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxOperation, "discover")
	}
	slog.Info("scanning notebooks", "roots", roots, "notebooks", len(paths))
	return a.ProcessBatch(ctx, paths, roots, sections)
}

// StoredRun is a persisted run with its notebook summaries.
type StoredRun struct {
	Run       store.Run
	Summaries []*aggregate.Summary
}

// Runs lists persisted runs, newest first.
func (a *App) Runs(limit int) ([]store.Run, error) {
	st, err := a.requireStore()
	if err != nil {
		return nil, err
	}
	return st.ListRuns(limit)
}

// LoadRun reads a persisted run back into summaries.
func (a *App) LoadRun(id string) (*StoredRun, error) {
	st, err := a.requireStore()
	if err != nil {
		return nil, err
	}
	run, err := st.GetRun(id)
	if err != nil {
		return nil, err
	}
	rows, err := st.Notebooks(id)
	if err != nil {
		return nil, err
	}
	out := &StoredRun{Run: run}
	for _, row := range rows {
		s := &aggregate.Summary{}
		if err := json.Unmarshal(row.Summary, s); err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeStorage, "decode stored summary"), errors.CtxPath, row.Name)
		}
		out.Summaries = append(out.Summaries, s)
	}
	return out, nil
}

func (a *App) requireStore() (*store.Store, error) {
	st, err := a.Store()
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, errors.New(errors.CodeValidationError, "persistence is disabled; set [db] enabled = true")
	}
	return st, nil
}
