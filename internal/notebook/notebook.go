// Package notebook loads Jupyter notebooks into flat records: notebook
// metadata, cell metadata and the execution-marker sequence.
package notebook

import (
	"encoding/json"

	"juparc/internal/engine/execution"
	"juparc/internal/shared/util"
)

// Notebook status codes.
const (
	StatusOK          = "ok"
	StatusLoadError   = "load-error"
	StatusFormatError = "load-format-error"
	StatusSyntaxError = "load-syntax-error"
)

// Cell status codes.
const (
	CellUnknownVersion = "unknown-version"
	CellSyntaxError    = "syntax-error"
)

// Notebook is the extracted record of one notebook file.
type Notebook struct {
	Name                string
	NBFormat            string
	Kernel              string
	Language            string
	LanguageVersion     string
	MaxExecutionCount   int
	TotalCells          int
	CodeCells           int
	CodeCellsWithOutput int
	MarkdownCells       int
	RawCells            int
	UnknownCellFormats  int
	EmptyCells          int
	Size                *int64
	SHA1File            *string
	Cells               []*Cell
	Status              string
	Exception           *string
	SHA1Source          string
	WordCounter         util.Record
	Markers             []execution.Marker
	Execution           *execution.Stats
}

// Cell is the record of one notebook cell.
type Cell struct {
	Index               int
	CellType            string
	ExecutionCount      json.RawMessage
	Lines               int
	OutputFormats       []string
	LegacyOutputFormats string
	Source              string
	RawSource           string
	Python              bool
	Status              []string
	Exception           *string
}

func newNotebook(name string) *Notebook {
	return &Notebook{
		Name:            name,
		NBFormat:        "0",
		Kernel:          "no-kernel",
		Language:        "unknown",
		LanguageVersion: "unknown",
		Status:          StatusOK,
		WordCounter:     util.Record{},
	}
}

// IsPython reports whether code cells are Python source.
func (n *Notebook) IsPython() bool {
	return n.Language == "python"
}

// CodeSources returns the analysis source of each code cell in order.
func (n *Notebook) CodeSources() []string {
	var out []string
	for _, c := range n.Cells {
		if c.CellType == "code" {
			out = append(out, c.Source)
		}
	}
	return out
}

// Fields lists the top-level fields of a notebook record in order.
func Fields() []string {
	return newNotebook("").Record(Mask{}).Keys()
}

// CellFields lists the fields of a cell record in order.
func CellFields() []string {
	return (&Cell{}).Record().Keys()
}

func (c *Cell) Record() util.Record {
	count := c.ExecutionCount
	if len(count) == 0 {
		count = json.RawMessage("null")
	}
	status := c.Status
	if status == nil {
		status = []string{}
	}
	return util.Record{
		{Key: "index", Value: c.Index},
		{Key: "cell_type", Value: c.CellType},
		{Key: "execution_count", Value: count},
		{Key: "lines", Value: c.Lines},
		{Key: "output_formats", Value: c.OutputFormats},
		{Key: "legacy_output_formats", Value: c.LegacyOutputFormats},
		{Key: "source", Value: c.Source},
		{Key: "raw_source", Value: c.RawSource},
		{Key: "python", Value: c.Python},
		{Key: "status", Value: status},
		{Key: "exception", Value: c.Exception},
	}
}

// Record renders the notebook with mask applied to notebook fields and
// to each cell.
func (n *Notebook) Record(mask Mask) util.Record {
	cellMask := mask.Sub("cells")
	cells := make([]util.Record, 0, len(n.Cells))
	for _, c := range n.Cells {
		cells = append(cells, cellMask.Apply(c.Record()))
	}
	r := util.Record{
		{Key: "name", Value: n.Name},
		{Key: "nbformat", Value: n.NBFormat},
		{Key: "kernel", Value: n.Kernel},
		{Key: "language", Value: n.Language},
		{Key: "language_version", Value: n.LanguageVersion},
		{Key: "max_execution_count", Value: n.MaxExecutionCount},
		{Key: "total_cells", Value: n.TotalCells},
		{Key: "code_cells", Value: n.CodeCells},
		{Key: "code_cells_with_output", Value: n.CodeCellsWithOutput},
		{Key: "markdown_cells", Value: n.MarkdownCells},
		{Key: "raw_cells", Value: n.RawCells},
		{Key: "unknown_cell_formats", Value: n.UnknownCellFormats},
		{Key: "empty_cells", Value: n.EmptyCells},
		{Key: "size", Value: n.Size},
		{Key: "sha1_file", Value: n.SHA1File},
		{Key: "cells", Value: cells},
		{Key: "status", Value: n.Status},
		{Key: "exception", Value: n.Exception},
		{Key: "sha1_source", Value: n.SHA1Source},
		{Key: "word_counter", Value: n.WordCounter},
	}
	if n.Execution != nil {
		r = append(r, n.Execution.Record()...)
	} else {
		r = append(r, unloadedStats()...)
	}
	return mask.Apply(r)
}

// unloadedStats are the execution fields of a notebook whose cells were
// never read.
func unloadedStats() util.Record {
	r := execution.Stats{ActualEmptyCells: -1}.Record()
	r.Set("unambiguous", nil)
	r.Set("unordered", nil)
	return r
}
