package app

import (
	"context"
	"log/slog"
	"slices"

	"juparc/internal/core/errors"
	"juparc/internal/engine/aggregate"
	"juparc/internal/engine/features"
	"juparc/internal/notebook"
	"juparc/internal/shared/util"
)

// EnrichOptions controls which features are attached to code cells.
type EnrichOptions struct {
	Sections aggregate.Sections
	// IgnoreOthers names cell fields to drop.
	IgnoreOthers []string
	// Keep, when non-empty, drops every standard cell field not listed.
	// Feature fields are always kept.
	Keep []string
}

// Enrich attaches cell features to every code cell of each notebook record.
// Records are modified in place.
func (a *App) Enrich(ctx context.Context, records []util.Record, opts EnrichOptions) error {
	for i := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.enrichRecord(&records[i], opts); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) enrichRecord(r *util.Record, opts EnrichOptions) error {
	name := notebook.String(*r, "name", ".")
	oracle := a.Oracle(name)
	cells, err := notebook.Cells(*r)
	if err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeFormat, "decode cells"), errors.CtxPath, name)
	}
	if cells == nil {
		return nil
	}

	keep := slices.Clone(opts.Keep)
	cellFields := notebook.CellFields()
	for i, cell := range cells {
		if notebook.String(cell, "cell_type", "") == "code" {
			res := a.Extractor.Extract(notebook.String(cell, "source", ""), oracle)
			if res.Unparseable {
				slog.Debug("cell does not parse", "path", name, "cell", i)
			}
			keep = append(keep, setFeatures(&cell, res, opts.Sections)...)
		}
		if len(opts.IgnoreOthers) > 0 {
			cell = cell.Filter(func(key string) bool { return !slices.Contains(opts.IgnoreOthers, key) })
		}
		if len(opts.Keep) > 0 {
			cell = cell.Filter(func(key string) bool {
				return !slices.Contains(cellFields, key) || slices.Contains(keep, key)
			})
		}
		cells[i] = cell
	}
	r.Set("cells", cells)
	return nil
}

// setFeatures stores the enabled feature groups on cell and returns their
// field names. An unparseable cell gets the sentinel in every field.
func setFeatures(cell *util.Record, res *features.Result, sections aggregate.Sections) []string {
	var fields []string
	set := func(key string, value any) {
		if res.Unparseable {
			value = features.UnparseableSentinel
		}
		cell.Set(key, value)
		fields = append(fields, key)
	}
	if sections.AST {
		set("ast", res.AST)
	}
	if sections.Modules {
		set("modules", res.Modules)
	}
	if sections.Names {
		set("names", res.Names)
	}
	if sections.IPython {
		set("ipython", res.IPython)
	}
	return fields
}

// Summarize aggregates enriched notebook records into notebook summaries.
func Summarize(records []util.Record, sections aggregate.Sections) ([]*aggregate.Summary, error) {
	out := make([]*aggregate.Summary, 0, len(records))
	for _, r := range records {
		s, err := summarizeRecord(r, sections)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func summarizeRecord(r util.Record, sections aggregate.Sections) (*aggregate.Summary, error) {
	name := notebook.String(r, "name", "")
	cells, err := notebook.Cells(r)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeFormat, "decode cells"), errors.CtxPath, name)
	}
	var results []*features.Result
	for i, cell := range cells {
		if notebook.String(cell, "cell_type", "") != "code" {
			continue
		}
		res, err := notebook.CellFeatures(cell)
		if err != nil {
			err = errors.AddContext(errors.Wrap(err, errors.CodeFormat, "decode cell features"), errors.CtxPath, name)
			return nil, errors.AddContext(err, errors.CtxCell, i)
		}
		results = append(results, res)
	}
	return aggregate.Notebook(name, notebook.String(r, "language", "unknown"), results, sections), nil
}

// CorpusName names the group summary of a whole corpus.
const CorpusName = "corpus"

func Corpus(summaries []*aggregate.Summary, sections aggregate.Sections) *aggregate.Summary {
	return aggregate.Corpus(CorpusName, summaries, sections)
}
