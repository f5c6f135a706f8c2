// Package report renders command output.
package report

import (
	"io"
	"strings"

	"juparc/internal/core/errors"
	"juparc/internal/engine/aggregate"
	"juparc/internal/shared/util"
	"juparc/internal/ui/report/formats"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatTSV  Format = "tsv"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatTSV:
		return f, nil
	case "":
		return FormatJSON, nil
	}
	return "", errors.Newf(errors.CodeValidationError, "unknown output format %q (want json or tsv)", s)
}

// WriteRecords writes records as a JSON array or a TSV table.
func WriteRecords(w io.Writer, format Format, records []util.Record) error {
	if records == nil {
		records = []util.Record{}
	}
	var err error
	switch format {
	case FormatTSV:
		_, err = formats.NewTSVGenerator(records).WriteTo(w)
	default:
		_, err = formats.NewJSONGenerator(records).WriteTo(w)
	}
	return err
}

// WriteJSON writes any value as indented JSON.
func WriteJSON(w io.Writer, value any) error {
	_, err := formats.NewJSONGenerator(value).WriteTo(w)
	return err
}

// SummaryRecords renders summaries in order.
func SummaryRecords(summaries []*aggregate.Summary) []util.Record {
	out := make([]util.Record, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, s.Record())
	}
	return out
}
