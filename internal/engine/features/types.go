package features

import (
	"encoding/json"
	"fmt"
)

// Import kinds of a ModuleReference.
const (
	ImportKindImport     = "import"
	ImportKindImportFrom = "import_from"
	ImportKindLoadExt    = "load_ext"
)

// Shell feature names produced by the sentinel patterns.
const (
	FeatureInputRef  = "input_ref"
	FeatureOutputRef = "output_ref"
	// FeatureShadowRef keeps the spelling used by existing datasets.
	FeatureShadowRef = "shadown_ref"
)

// UnparseableSentinel replaces every feature field of a cell whose source
// does not parse.
const UnparseableSentinel = "<SyntaxError>"

type ModuleReference struct {
	Line             int    `json:"line"`
	ImportType       string `json:"import_type"`
	Name             string `json:"name"`
	Local            bool   `json:"local"`
	LocalPossibility int    `json:"local_possibility"`
}

// ShellFeature is a reference to a notebook-shell construct. It encodes as
// a [line, column, name, value] tuple.
type ShellFeature struct {
	Line   int
	Column int
	Name   string
	Value  string
}

func (f ShellFeature) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{f.Line, f.Column, f.Name, f.Value})
}

func (f *ShellFeature) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 4 {
		return fmt.Errorf("shell feature: expected 4 elements, got %d", len(parts))
	}
	targets := []any{&f.Line, &f.Column, &f.Name, &f.Value}
	for i, part := range parts {
		if err := json.Unmarshal(part, targets[i]); err != nil {
			return fmt.Errorf("shell feature element %d: %w", i, err)
		}
	}
	return nil
}

// Result holds everything extracted from one code cell.
type Result struct {
	Unparseable bool
	AST         *Counters
	Modules     []ModuleReference
	Names       *NameTable
	IPython     []ShellFeature
}

// Unparseable returns the sentinel result of a cell that failed to parse.
func Unparseable() *Result {
	return &Result{Unparseable: true}
}

// LocalityChecker answers import-locality questions for one notebook.
type LocalityChecker interface {
	IsLocal(module string) bool
	LocalityScore(module string) int
}
