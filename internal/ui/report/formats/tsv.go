package formats

import (
	"io"
	"strings"

	"juparc/internal/shared/util"
)

// TSVGenerator writes records as a tab-separated table. The header is the
// union of all columns in first-seen order; missing cells are empty.
type TSVGenerator struct {
	records []util.Record
}

func NewTSVGenerator(records []util.Record) *TSVGenerator {
	return &TSVGenerator{records: records}
}

func (t *TSVGenerator) Generate() (string, error) {
	var header []string
	index := make(map[string]int)
	rows := make([]map[string]string, 0, len(t.records))
	for _, r := range t.records {
		cols, vals, err := flatten(r)
		if err != nil {
			return "", err
		}
		row := make(map[string]string, len(cols))
		for i, col := range cols {
			if _, ok := index[col]; !ok {
				index[col] = len(header)
				header = append(header, col)
			}
			row[col] = cellText(vals[i])
		}
		rows = append(rows, row)
	}

	var buf strings.Builder
	buf.WriteString(strings.Join(header, "\t"))
	buf.WriteByte('\n')
	line := make([]string, len(header))
	for _, row := range rows {
		for i, col := range header {
			line[i] = row[col]
		}
		buf.WriteString(strings.Join(line, "\t"))
		buf.WriteByte('\n')
	}
	return buf.String(), nil
}

func (t *TSVGenerator) WriteTo(w io.Writer) (int64, error) {
	out, err := t.Generate()
	if err != nil {
		return 0, err
	}
	n, err := io.WriteString(w, out)
	return int64(n), err
}
