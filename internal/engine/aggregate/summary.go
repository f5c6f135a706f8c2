// Package aggregate folds per-cell features into notebook and corpus
// summaries with a flat, bucketed schema.
package aggregate

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"juparc/internal/engine/features"
	"juparc/internal/shared/util"
)

// Sections selects which feature groups a summary carries.
type Sections struct {
	AST     bool
	Modules bool
	Names   bool
	IPython bool
}

func AllSections() Sections {
	return Sections{AST: true, Modules: true, Names: true, IPython: true}
}

// Summary is the aggregated view of one notebook or of a group of them.
// Disabled sections are nil.
type Summary struct {
	Name      string
	Notebooks int
	Languages *features.Multiset
	AST       *features.Counters
	Modules   *Buckets
	Names     *Buckets
	IPython   *Buckets
}

func newSummary(name string, sections Sections) *Summary {
	s := &Summary{Name: name, Languages: features.NewMultiset()}
	if sections.AST {
		s.AST = features.NewCounters()
	}
	if sections.Modules {
		s.Modules = NewModuleBuckets()
	}
	if sections.Names {
		s.Names = NewNameBuckets()
	}
	if sections.IPython {
		s.IPython = NewIPythonBuckets()
	}
	return s
}

// Sections reports which groups s carries.
func (s *Summary) Sections() Sections {
	return Sections{AST: s.AST != nil, Modules: s.Modules != nil, Names: s.Names != nil, IPython: s.IPython != nil}
}

// Notebook folds the code-cell results of one notebook. Unparseable cells
// contribute nothing.
func Notebook(name, language string, cells []*features.Result, sections Sections) *Summary {
	s := newSummary(name, sections)
	s.Notebooks = 1
	s.Languages.Add(language, 1)
	for _, cell := range cells {
		if cell == nil || cell.Unparseable {
			continue
		}
		s.addCell(cell)
	}
	return s
}

func (s *Summary) addCell(cell *features.Result) {
	if s.AST != nil && cell.AST != nil {
		s.AST.Add(cell.AST)
	}
	if s.Modules != nil {
		for _, m := range cell.Modules {
			locality := "external"
			if m.Local {
				locality = "local"
			}
			s.Modules.Add(locality, m.ImportType, m.Name, 1)
		}
	}
	if s.Names != nil && cell.Names != nil {
		for _, key := range cell.Names.Keys() {
			set := cell.Names.Get(key.Scope, key.Context)
			for _, name := range set.Values() {
				s.Names.Add(key.Scope, key.Context, name, set.Count(name))
			}
		}
	}
	if s.IPython != nil {
		for _, f := range cell.IPython {
			s.IPython.Add(anyKey, f.Name, f.Value, 1)
		}
	}
}

// Merge folds o into s. Sections missing from s are ignored.
func (s *Summary) Merge(o *Summary) {
	s.Notebooks += o.Notebooks
	for _, lang := range o.Languages.Values() {
		s.Languages.Add(lang, o.Languages.Count(lang))
	}
	if s.AST != nil && o.AST != nil {
		s.AST.Add(o.AST)
	}
	if s.Modules != nil && o.Modules != nil {
		s.Modules.Merge(o.Modules)
	}
	if s.Names != nil && o.Names != nil {
		s.Names.Merge(o.Names)
	}
	if s.IPython != nil && o.IPython != nil {
		s.IPython.Merge(o.IPython)
	}
}

// Corpus folds notebook summaries into one group summary.
func Corpus(name string, summaries []*Summary, sections Sections) *Summary {
	s := newSummary(name, sections)
	for _, nb := range summaries {
		s.Merge(nb)
	}
	return s
}

// MainLanguage is the most common language, "none" for an empty group.
func (s *Summary) MainLanguage() string {
	langs := ranked(s.Languages)
	if len(langs) == 0 {
		return "none"
	}
	return langs[0]
}

// Record renders the summary. Group summaries (more than one notebook, or
// none) also carry notebooks, languages and languages_counts.
func (s *Summary) Record() util.Record {
	r := util.Record{
		{Key: "name", Value: s.Name},
		{Key: "main_language", Value: s.MainLanguage()},
	}
	if s.Notebooks != 1 {
		langs := ranked(s.Languages)
		counts := make([]string, len(langs))
		for i, lang := range langs {
			counts[i] = strconv.Itoa(s.Languages.Count(lang))
		}
		r = append(r,
			util.Field{Key: "notebooks", Value: s.Notebooks},
			util.Field{Key: "languages", Value: joinList(langs)},
			util.Field{Key: "languages_counts", Value: strings.Join(counts, ",")},
		)
	}
	if s.AST != nil {
		r = append(r, util.Field{Key: "ast", Value: s.AST})
	}
	if s.Modules != nil {
		r = append(r, util.Field{Key: "modules", Value: s.Modules})
	}
	if s.Names != nil {
		r = append(r, util.Field{Key: "names", Value: s.Names})
	}
	if s.IPython != nil {
		r = append(r, util.Field{Key: "ipython", Value: s.IPython})
	}
	return r
}

func (s *Summary) MarshalJSON() ([]byte, error) {
	return s.Record().MarshalJSON()
}

// UnmarshalJSON reads back a rendered summary so that stored notebook
// summaries can be folded again.
func (s *Summary) UnmarshalJSON(data []byte) error {
	out := &Summary{Notebooks: 1, Languages: features.NewMultiset()}
	var mainLanguage, languages, languageCounts string
	err := util.DecodeObject(data, func(key string, raw json.RawMessage) error {
		switch key {
		case "name":
			return json.Unmarshal(raw, &out.Name)
		case "main_language":
			return json.Unmarshal(raw, &mainLanguage)
		case "notebooks":
			return json.Unmarshal(raw, &out.Notebooks)
		case "languages":
			return json.Unmarshal(raw, &languages)
		case "languages_counts":
			return json.Unmarshal(raw, &languageCounts)
		case "ast":
			out.AST = features.NewCounters()
			return json.Unmarshal(raw, out.AST)
		case "modules":
			out.Modules = NewModuleBuckets()
			return json.Unmarshal(raw, out.Modules)
		case "names":
			out.Names = NewNameBuckets()
			return json.Unmarshal(raw, out.Names)
		case "ipython":
			out.IPython = NewIPythonBuckets()
			return json.Unmarshal(raw, out.IPython)
		}
		return nil
	})
	if err != nil {
		return err
	}

	langs, counts := splitList(languages), splitList(languageCounts)
	switch {
	case len(langs) > 0:
		if len(langs) != len(counts) {
			return fmt.Errorf("summary %q: %d languages but %d counts", out.Name, len(langs), len(counts))
		}
		for i, lang := range langs {
			n, err := strconv.Atoi(counts[i])
			if err != nil {
				return fmt.Errorf("summary %q: %w", out.Name, err)
			}
			out.Languages.Add(lang, n)
		}
	case mainLanguage != "" && out.Notebooks > 0:
		out.Languages.Add(mainLanguage, out.Notebooks)
	}
	*s = *out
	return nil
}
