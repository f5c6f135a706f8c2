package notebook

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"juparc/internal/engine/execution"
	"juparc/internal/engine/features"
	"juparc/internal/shared/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const v4Notebook = `{
 "nbformat": 4,
 "nbformat_minor": 2,
 "metadata": {
  "kernelspec": {"name": "python3"},
  "language_info": {"name": "python", "version": "3.6.5"}
 },
 "cells": [
  {"cell_type": "markdown", "source": ["# Homework 1\n", "solve the exercise"]},
  {"cell_type": "code", "execution_count": 1, "source": ["import os\n", "%matplotlib inline"],
   "outputs": [
    {"output_type": "stream", "name": "stdout", "text": "hi"},
    {"output_type": "execute_result", "data": {"text/plain": "1", "text/html": "<b>1</b>"}}
   ]},
  {"cell_type": "code", "execution_count": 3, "source": "!ls", "outputs": []},
  {"cell_type": "code", "execution_count": null, "source": "", "outputs": []},
  {"cell_type": "raw", "source": "raw text"}
 ]
}`

const v3Notebook = `{
 "nbformat": 3,
 "nbformat_minor": 0,
 "metadata": {"name": "old"},
 "worksheets": [{"cells": [
  {"cell_type": "heading", "level": 2, "source": "Title"},
  {"cell_type": "code", "language": "python", "prompt_number": 2, "input": "x = 1",
   "outputs": [
    {"output_type": "pyout", "text": "1", "png": "abc"},
    {"output_type": "stream", "stream": "stderr", "text": "warn"},
    {"output_type": "pyerr", "ename": "E"}
   ]}
 ]}]
}`

func writeNotebook(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_V4(t *testing.T) {
	path := writeNotebook(t, "homework.ipynb", v4Notebook)
	nb := NewLoader(Options{TransformMagics: true}).Load(path)

	assert.Equal(t, StatusOK, nb.Status)
	assert.Nil(t, nb.Exception)
	assert.Equal(t, "4.2", nb.NBFormat)
	assert.Equal(t, "python3", nb.Kernel)
	assert.Equal(t, "python", nb.Language)
	assert.Equal(t, "3.6.5", nb.LanguageVersion)
	assert.Equal(t, 3, nb.MaxExecutionCount)
	assert.Equal(t, 5, nb.TotalCells)
	assert.Equal(t, 3, nb.CodeCells)
	assert.Equal(t, 1, nb.CodeCellsWithOutput)
	assert.Equal(t, 1, nb.MarkdownCells)
	assert.Equal(t, 1, nb.RawCells)
	assert.Equal(t, 1, nb.EmptyCells)
	require.NotNil(t, nb.Size)
	assert.Equal(t, int64(len(v4Notebook)), *nb.Size)
	require.NotNil(t, nb.SHA1File)
	assert.Len(t, *nb.SHA1File, 40)
	assert.Len(t, nb.SHA1Source, 40)

	code := nb.Cells[1]
	assert.Equal(t, []string{"stream/stdout", "execute_result/text/plain", "execute_result/text/html"}, code.OutputFormats)
	assert.Equal(t, "stream/stdout;text/html;text/plain", code.LegacyOutputFormats)
	assert.Equal(t, "import os\nget_ipython().run_line_magic('matplotlib', 'inline')\n", code.Source)
	assert.Equal(t, "import os\n%matplotlib inline", code.RawSource)
	assert.Equal(t, 2, code.Lines)
	assert.True(t, code.Python)
	assert.Empty(t, code.Status)

	assert.Equal(t, "get_ipython().system('ls')\n", nb.Cells[2].Source)
	assert.Equal(t, []execution.Marker{execution.Number(1), execution.Number(3), execution.EmptyMarker}, nb.Markers)
	require.NotNil(t, nb.Execution)
	assert.Equal(t, 1, nb.Execution.EmptyCellsEnd)
	assert.Equal(t, 1, nb.Execution.SkipsTotal)

	homework, _ := nb.WordCounter.Get("homework")
	exercise, _ := nb.WordCounter.Get("exercise")
	assert.Equal(t, -2, homework)
	assert.Equal(t, 1, exercise)
	assert.Equal(t, []string{"homework", "exercise"}, nb.WordCounter.Keys())
}

func TestLoader_NoTransform(t *testing.T) {
	nb := NewLoader(Options{}).LoadBytes("a.ipynb", []byte(v4Notebook))
	assert.Equal(t, "!ls", nb.Cells[2].Source)
}

func TestLoader_V3(t *testing.T) {
	nb := NewLoader(Options{TransformMagics: true}).LoadBytes("old.ipynb", []byte(v3Notebook))

	assert.Equal(t, StatusOK, nb.Status)
	assert.Equal(t, "3.0", nb.NBFormat)
	assert.Equal(t, "no-kernel", nb.Kernel)
	assert.Equal(t, "unknown", nb.Language)
	assert.Equal(t, 1, nb.MarkdownCells)
	assert.Equal(t, 1, nb.CodeCells)
	assert.Equal(t, "## Title", nb.Cells[0].RawSource)
	assert.Equal(t, []string{CellUnknownVersion}, nb.Cells[0].Status)

	code := nb.Cells[1]
	assert.Equal(t, "x = 1", code.Source)
	assert.False(t, code.Python)
	assert.Equal(t, []string{"execute_result/text/plain", "execute_result/image/png", "stream/stderr", "error"}, code.OutputFormats)
	assert.Equal(t, 2, nb.MaxExecutionCount)
	assert.Equal(t, []execution.Marker{execution.Number(2)}, nb.Markers)
}

func TestLoader_Failures(t *testing.T) {
	loader := NewLoader(Options{TransformMagics: true})

	missing := loader.Load(filepath.Join(t.TempDir(), "missing.ipynb"))
	assert.Equal(t, StatusLoadError, missing.Status)
	require.NotNil(t, missing.Exception)
	assert.Nil(t, missing.Execution)

	tests := []struct {
		name    string
		content string
		status  string
	}{
		{"not json", "{", StatusFormatError},
		{"not a notebook", `{"foo": 1}`, StatusFormatError},
		{"zero cells", `{"nbformat": 4, "nbformat_minor": 0, "metadata": {}, "cells": []}`, StatusFormatError},
		{
			"bad cell magic",
			`{"nbformat": 4, "metadata": {"language_info": {"name": "python"}}, "cells": [{"cell_type": "code", "source": "%%\nx"}]}`,
			StatusSyntaxError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nb := loader.LoadBytes("x.ipynb", []byte(tt.content))
			assert.Equal(t, tt.status, nb.Status)
		})
	}

	bad := loader.LoadBytes("x.ipynb", []byte(tests[3].content))
	assert.Equal(t, []string{CellUnknownVersion, CellSyntaxError}, bad.Cells[0].Status)
	assert.Equal(t, "", bad.Cells[0].Source)
}

func TestNotebook_Record(t *testing.T) {
	nb := NewLoader(Options{TransformMagics: true}).LoadBytes("a.ipynb", []byte(v4Notebook))

	rec := nb.Record(Mask{})
	keys := rec.Keys()
	assert.Equal(t, "name", keys[0])
	assert.Equal(t, "execution_skips_middle_size", keys[len(keys)-1])

	masked := nb.Record(Mask{Include: []string{"name", "cells", "cells.source"}})
	assert.Equal(t, []string{"name", "cells"}, masked.Keys())
	cells, err := Cells(masked)
	require.NoError(t, err)
	require.Len(t, cells, 5)
	assert.Equal(t, []string{"source"}, cells[0].Keys())

	excluded := nb.Record(Mask{Exclude: []string{"cells", "sha1_file"}})
	_, hasCells := excluded.Get("cells")
	_, hasSHA := excluded.Get("sha1_file")
	assert.False(t, hasCells)
	assert.False(t, hasSHA)

	failed := NewLoader(Options{}).LoadBytes("x.ipynb", []byte("{"))
	data, err := json.Marshal(failed.Record(Mask{}))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"unambiguous":null`))
	assert.True(t, strings.Contains(string(data), `"actual_empty_cells":-1`))
}

func TestRecords_CellFeatures(t *testing.T) {
	res, err := features.NewExtractor(nil).ExtractStrict("import os\nprint(_)\n", nil)
	require.NoError(t, err)

	cell := util.Record{{Key: "cell_type", Value: "code"}}
	cell.Set("ast", res.AST)
	cell.Set("modules", res.Modules)
	cell.Set("names", res.Names)
	cell.Set("ipython", res.IPython)

	normalized, err := Normalize(cell)
	require.NoError(t, err)
	back, err := CellFeatures(normalized)
	require.NoError(t, err)
	assert.False(t, back.Unparseable)
	assert.True(t, res.AST.Equal(back.AST))
	assert.ElementsMatch(t, res.Modules, back.Modules)
	assert.ElementsMatch(t, res.IPython, back.IPython)
	assert.Equal(t, res.Names.Keys(), back.Names.Keys())

	broken := util.Record{{Key: "ast", Value: features.UnparseableSentinel}}
	back, err = CellFeatures(broken)
	require.NoError(t, err)
	assert.True(t, back.Unparseable)

	withoutAST := util.Record{
		{Key: "cell_type", Value: "code"},
		{Key: "modules", Value: features.UnparseableSentinel},
		{Key: "ipython", Value: features.UnparseableSentinel},
	}
	back, err = CellFeatures(withoutAST)
	require.NoError(t, err)
	assert.True(t, back.Unparseable)

	assert.Equal(t, "code", String(normalized, "cell_type", "?"))
	assert.Equal(t, "?", String(normalized, "missing", "?"))
}

func TestReadRecords(t *testing.T) {
	records, err := ReadRecords(strings.NewReader(`[{"name": "a", "size": 3}, {"name": "b"}]`))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b", String(records[1], "name", ""))

	_, err = ReadRecords(strings.NewReader(`{"name": "a"}`))
	assert.Error(t, err)
}
