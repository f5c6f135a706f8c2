package features

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys_Schema(t *testing.T) {
	keys := Keys()
	assert.Equal(t, numCategories+1, len(keys))
	assert.Equal(t, "import_star", keys[0])
	assert.Equal(t, OthersKey, keys[len(keys)-1])

	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		assert.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
	}
	for _, key := range []string{"class_importfrom", "total_classdef", "ast_functiondef", "ast_withitem"} {
		assert.True(t, seen[key], key)
	}
}

func TestCounters_JSON(t *testing.T) {
	c := NewCounters()
	c.inc(ImportStar)
	c.inc(scopedCategory(ConstructAssign, slotLocal))
	c.overflow("ast_namedexpr")
	c.Others = strings.TrimSpace(c.Others)

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(data), `{"import_star":1,`)
	assert.Contains(t, string(data), `"local_assign":1`)
	assert.Contains(t, string(data), `"ast_others":"ast_namedexpr"}`)

	var back Counters
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, c.Equal(&back))

	assert.Error(t, json.Unmarshal([]byte(`{"not_a_counter":1}`), &back))
}

func TestCounters_Add(t *testing.T) {
	a := NewCounters()
	a.inc(IPython)
	a.Others = "ast_match"
	b := NewCounters()
	b.inc(IPython)
	b.Others = "ast_namedexpr"

	sum := a.Clone()
	sum.Add(b)
	assert.Equal(t, 2, sum.Get(IPython))
	assert.Equal(t, "ast_match ast_namedexpr", sum.Others)
	assert.Equal(t, 1, a.Get(IPython))

	empty := NewCounters()
	empty.Add(b)
	assert.Equal(t, "ast_namedexpr", empty.Others)
}

func TestNameTable_JSON(t *testing.T) {
	table := NewNameTable()
	table.Add(ScopeMain, UsageStore, "x", 2)
	table.Add(ScopeLocal, UsageParameter, "a", 1)
	table.Add(ScopeMain, UsageLoad, "x", 1)

	data, err := json.Marshal(table)
	require.NoError(t, err)
	assert.JSONEq(t, `{"main":{"store":{"x":2},"load":{"x":1}},"local":{"parameter":{"a":1}}}`, string(data))

	var back NameTable
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, 2, back.Get(ScopeMain, UsageStore).Count("x"))
	assert.Equal(t, []NameKey{
		{ScopeMain, UsageStore}, {ScopeMain, UsageLoad}, {ScopeLocal, UsageParameter},
	}, back.Keys())
}

func TestShellFeature_JSON(t *testing.T) {
	f := ShellFeature{Line: 2, Column: 4, Name: "system", Value: "ls"}
	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Equal(t, `[2,4,"system","ls"]`, string(data))

	var back ShellFeature
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, f, back)
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &back))
}

func TestParseLiteral(t *testing.T) {
	tests := []struct {
		in    string
		kind  literalKind
		value string
		ok    bool
	}{
		{`'abc'`, literalStr, "abc", true},
		{`"a\tb"`, literalStr, "a\tb", true},
		{`r"a\tb"`, literalStr, `a\tb`, true},
		{`'''x'y'''`, literalStr, "x'y", true},
		{`b'\x41'`, literalBytes, "A", true},
		{`f'{x}'`, literalFormat, "", true},
		{`u'é'`, literalStr, "é", true},
		{`abc`, literalStr, "", false},
	}
	for _, tt := range tests {
		kind, value, ok := parseLiteral(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.kind, kind, tt.in)
			assert.Equal(t, tt.value, value, tt.in)
		}
	}
}
