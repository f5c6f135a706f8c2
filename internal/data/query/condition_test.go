package query

import (
	"testing"

	"juparc/internal/shared/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		in   string
		kind kind
	}{
		{"3", kindNumber},
		{" 3", kindNumber},
		{"3.5", kindNumber},
		{"3.6.5", kindTuple},
		{"python", kindString},
		{"3.x", kindString},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.kind, Coerce(tt.in).kind)
		})
	}
}

func TestCompare(t *testing.T) {
	cmp, ok := Compare(Coerce("3.6.5"), Coerce("3.10.0"))
	require.True(t, ok)
	assert.Negative(t, cmp, "tuples compare numerically per segment")

	cmp, ok = Compare(Coerce("3.6.0"), Coerce("3.6.0.1"))
	require.True(t, ok)
	assert.Negative(t, cmp)

	_, ok = Compare(Coerce("3"), Coerce("python"))
	assert.False(t, ok)

	_, ok = Compare(Coerce("3.6"), Coerce("3.6.0"))
	assert.False(t, ok, "a float never compares with a version")
}

func TestParseAttr_Match(t *testing.T) {
	r := record(t, `{
		"name": "nb.ipynb",
		"language": "python",
		"language_version": "3.6.5",
		"max_execution_count": 12,
		"unambiguous": true,
		"size": null,
		"output_formats": ["stream/stdout", "error"]
	}`)

	tests := []struct {
		field string
		expr  string
		want  bool
	}{
		{"size", "null", true},
		{"language", "null", false},
		{"missing", "null", true},
		{"missing", ">0", false},
		{"max_execution_count", ">10", true},
		{"max_execution_count", ">= 12", true},
		{"max_execution_count", "<12", false},
		{"max_execution_count", "<=12", true},
		{"max_execution_count", "== 12", true},
		{"max_execution_count", "!=12", false},
		{"max_execution_count", "1", true},
		{"language_version", ">=3.6.0", true},
		{"language_version", ">=3.6", false},
		{"language_version", "<3.10.0", true},
		{"language_version", "== 3.6.5", true},
		{"language", "== python", true},
		{"language", "!= python", false},
		{"language", "py", true},
		{"language", "thon", false},
		{"language", ">3", false},
		{"language", "!=3", true},
		{"unambiguous", "==1", true},
		{"unambiguous", "True", true},
		{"output_formats", `\["stream`, true},
		{"output_formats", `.*", "error`, true},
	}
	for _, tt := range tests {
		t.Run(tt.field+" "+tt.expr, func(t *testing.T) {
			c, err := ParseAttr(tt.field, tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Match(r))
		})
	}
}

func TestParseAttr_InvalidPattern(t *testing.T) {
	_, err := ParseAttr("name", "(")
	assert.Error(t, err)
}

func TestMatch_GoValues(t *testing.T) {
	r := util.Record{{Key: "total_cells", Value: 3}, {Key: "exception", Value: (*string)(nil)}}
	c, err := ParseAttr("total_cells", ">2")
	require.NoError(t, err)
	assert.True(t, c.Match(r))

	c, err = ParseAttr("exception", "null")
	require.NoError(t, err)
	assert.True(t, c.Match(r))
}
