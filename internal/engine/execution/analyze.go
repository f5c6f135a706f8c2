// Package execution derives ordering statistics from the execution markers
// of a notebook's code cells.
package execution

import (
	"slices"

	"juparc/internal/shared/util"
)

type Stats struct {
	Unambiguous        bool `json:"unambiguous"`
	ActualEmptyCells   int  `json:"actual_empty_cells"`
	NonExecutedCells   int  `json:"non_executed_cells"`
	EmptyCellsMiddle   int  `json:"empty_cells_middle"`
	EmptyCellsEnd      int  `json:"empty_cells_end"`
	NumericCountsTotal int  `json:"numeric_counts_total"`
	NumericSetTotal    int  `json:"numeric_set_total"`
	ProcessingCells    int  `json:"processing_cells"`
	Unordered          bool `json:"unordered"`
	SkipsTotal         int  `json:"execution_skips_total"`
	SkipsSize          int  `json:"execution_skips_size"`
	SkipsMiddleTotal   int  `json:"execution_skips_middle_total"`
	SkipsMiddleSize    int  `json:"execution_skips_middle_size"`
}

// Ambiguous reports duplicated execution counts.
func (s Stats) Ambiguous() bool {
	return !s.Unambiguous
}

// Record returns the statistics as ordered notebook fields.
func (s Stats) Record() util.Record {
	return util.Record{
		{Key: "unambiguous", Value: s.Unambiguous},
		{Key: "actual_empty_cells", Value: s.ActualEmptyCells},
		{Key: "non_executed_cells", Value: s.NonExecutedCells},
		{Key: "empty_cells_middle", Value: s.EmptyCellsMiddle},
		{Key: "empty_cells_end", Value: s.EmptyCellsEnd},
		{Key: "numeric_counts_total", Value: s.NumericCountsTotal},
		{Key: "numeric_set_total", Value: s.NumericSetTotal},
		{Key: "processing_cells", Value: s.ProcessingCells},
		{Key: "unordered", Value: s.Unordered},
		{Key: "execution_skips_total", Value: s.SkipsTotal},
		{Key: "execution_skips_size", Value: s.SkipsSize},
		{Key: "execution_skips_middle_total", Value: s.SkipsMiddleTotal},
		{Key: "execution_skips_middle_size", Value: s.SkipsMiddleSize},
	}
}

// Analyze computes the statistics of a marker sequence. It is pure and
// accepts any sequence, including an empty one.
func Analyze(markers []Marker) Stats {
	var s Stats
	var numbers []int
	for _, m := range markers {
		switch m.Kind {
		case Numeric:
			numbers = append(numbers, m.Count)
		case Empty:
			s.ActualEmptyCells++
		case Processing:
			s.ProcessingCells++
		default:
			s.NonExecutedCells++
		}
	}

	trailing := 0
	for i := len(markers) - 1; i >= 0 && markers[i].Kind == Empty; i-- {
		trailing++
	}
	s.EmptyCellsEnd = trailing
	s.EmptyCellsMiddle = s.ActualEmptyCells - trailing

	distinct := make(map[int]struct{}, len(numbers))
	for _, n := range numbers {
		distinct[n] = struct{}{}
	}
	s.NumericCountsTotal = len(numbers)
	s.NumericSetTotal = len(distinct)
	s.Unambiguous = len(distinct) == len(numbers)

	sorted := slices.Clone(numbers)
	slices.Sort(sorted)
	s.Unordered = !slices.Equal(numbers, sorted)

	s.SkipsTotal, s.SkipsSize = skips(sorted, false)
	s.SkipsMiddleTotal, s.SkipsMiddleSize = skips(sorted, true)
	return s
}

// skips counts the gaps of a sorted sequence and the number of missing
// values. The full variant measures the first element against zero; the
// middle variant only measures between elements.
func skips(sorted []int, middle bool) (count, size int) {
	for i, cur := range sorted {
		var last int
		switch {
		case i > 0:
			last = sorted[i-1]
		case middle:
			continue
		}
		if cur-last > 1 {
			count++
		}
		if cur != last {
			size += cur - last - 1
		}
	}
	return count, size
}
