package formats

import (
	"bytes"
	"encoding/json"
	"strings"

	"juparc/internal/shared/util"
)

// flatten renders a record as ordered (column, raw value) pairs. Nested
// objects become "parent.key" columns.
func flatten(r util.Record) ([]string, []json.RawMessage, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, nil, err
	}
	var cols []string
	var vals []json.RawMessage
	var walk func(prefix string, raw json.RawMessage) error
	walk = func(prefix string, raw json.RawMessage) error {
		return util.DecodeObject(raw, func(key string, value json.RawMessage) error {
			col := key
			if prefix != "" {
				col = prefix + "." + key
			}
			if trimmed := bytes.TrimSpace(value); len(trimmed) > 0 && trimmed[0] == '{' {
				return walk(col, trimmed)
			}
			cols = append(cols, col)
			vals = append(vals, value)
			return nil
		})
	}
	if err := walk("", data); err != nil {
		return nil, nil, err
	}
	return cols, vals, nil
}

var cellEscaper = strings.NewReplacer("\\", "\\\\", "\t", "\\t", "\n", "\\n", "\r", "\\r")

// cellText renders a scalar as plain text and anything else as compact
// JSON, escaped for a TSV cell.
func cellText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return cellEscaper.Replace(s)
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return cellEscaper.Replace(string(raw))
	}
	return cellEscaper.Replace(buf.String())
}
