package query

import (
	"encoding/json"
	"testing"

	"juparc/internal/shared/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(t *testing.T, data string) util.Record {
	t.Helper()
	var r util.Record
	require.NoError(t, json.Unmarshal([]byte(data), &r))
	return r
}

func TestParseWhere(t *testing.T) {
	conds, err := ParseWhere(`SELECT notebooks WHERE total_cells > 0 AND name CONTAINS "hw/"`)
	require.NoError(t, err)
	require.Len(t, conds, 2)
	assert.Equal(t, "total_cells", conds[0].Field)
	assert.Equal(t, OpGT, conds[0].Op)
	assert.Equal(t, OpContains, conds[1].Op)

	conds, err = ParseWhere(`language = 'python'`)
	require.NoError(t, err)
	require.Len(t, conds, 1)
	assert.Equal(t, OpEQ, conds[0].Op)

	conds, err = ParseWhere(`SELECT notebooks`)
	require.NoError(t, err)
	assert.Empty(t, conds)
}

func TestParseWhere_Invalid(t *testing.T) {
	for _, raw := range []string{"DELETE FROM notebooks", "SELECT cells", "total_cells ~ 3"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseWhere(raw)
			assert.Error(t, err)
		})
	}
}

func TestWhere_Filter(t *testing.T) {
	records := []util.Record{
		record(t, `{"name": "a/hw1.ipynb", "language": "python", "language_version": "3.6.5", "total_cells": 4, "exception": null}`),
		record(t, `{"name": "b.ipynb", "language": "julia", "language_version": "1.0", "total_cells": 2, "exception": "boom"}`),
		record(t, `{"name": "c/hw2.ipynb", "language": "python", "language_version": "2.7.12", "total_cells": 10, "exception": null}`),
	}

	tests := []struct {
		where string
		want  []string
	}{
		{`SELECT notebooks WHERE language = "python" AND total_cells >= 5`, []string{"c/hw2.ipynb"}},
		{`name CONTAINS "hw"`, []string{"a/hw1.ipynb", "c/hw2.ipynb"}},
		{`language_version >= 3.0.0`, []string{"a/hw1.ipynb"}},
		{`exception IS NULL`, []string{"a/hw1.ipynb", "c/hw2.ipynb"}},
		{`exception IS NOT NULL`, []string{"b.ipynb"}},
		{`name MATCHES "[ab]"`, []string{"a/hw1.ipynb", "b.ipynb"}},
		{`total_cells != 4`, []string{"b.ipynb", "c/hw2.ipynb"}},
	}
	for _, tt := range tests {
		t.Run(tt.where, func(t *testing.T) {
			conds, err := ParseWhere(tt.where)
			require.NoError(t, err)
			var names []string
			for _, r := range Filter(records, conds) {
				names = append(names, string(mustRaw(t, r, "name")))
			}
			want := make([]string, len(tt.want))
			for i, w := range tt.want {
				want[i] = `"` + w + `"`
			}
			assert.Equal(t, want, names)
		})
	}
}

func mustRaw(t *testing.T, r util.Record, key string) json.RawMessage {
	t.Helper()
	v, ok := r.Get(key)
	require.True(t, ok)
	return v.(json.RawMessage)
}
