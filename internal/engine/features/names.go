package features

import (
	"encoding/json"

	"juparc/internal/shared/util"
)

// Usage contexts of the name table.
const (
	UsageClass      = "class"
	UsageImport     = "import"
	UsageImportFrom = "importfrom"
	UsageFunction   = "function"
	UsageParameter  = "parameter"
	UsageDelete     = "delete"
	UsageLoad       = "load"
	UsageStore      = "store"
)

// Scope tags. ScopeMain is the implicit notebook-level scope.
const (
	ScopeMain     = "main"
	ScopeLocal    = "local"
	ScopeClass    = "class"
	ScopeGlobal   = "global"
	ScopeNonlocal = "nonlocal"
)

type NameKey struct {
	Scope   string
	Context string
}

// Multiset counts values and remembers their first-seen order.
type Multiset struct {
	order  []string
	counts map[string]int
}

func NewMultiset() *Multiset {
	return &Multiset{counts: make(map[string]int)}
}

func (m *Multiset) Add(value string, n int) {
	if _, ok := m.counts[value]; !ok {
		m.order = append(m.order, value)
	}
	m.counts[value] += n
}

func (m *Multiset) Count(value string) int {
	return m.counts[value]
}

// Values returns distinct values in first-seen order.
func (m *Multiset) Values() []string {
	return append([]string(nil), m.order...)
}

func (m *Multiset) Len() int {
	return len(m.order)
}

func (m *Multiset) Total() int {
	total := 0
	for _, n := range m.counts {
		total += n
	}
	return total
}

// NameTable maps (scope, usage context) to identifier multisets.
type NameTable struct {
	keys    []NameKey
	entries map[NameKey]*Multiset
}

func NewNameTable() *NameTable {
	return &NameTable{entries: make(map[NameKey]*Multiset)}
}

func (t *NameTable) Add(scope, context, name string, n int) {
	key := NameKey{Scope: scope, Context: context}
	set, ok := t.entries[key]
	if !ok {
		set = NewMultiset()
		t.entries[key] = set
		t.keys = append(t.keys, key)
	}
	set.Add(name, n)
}

// Get returns the multiset for a key, or nil.
func (t *NameTable) Get(scope, context string) *Multiset {
	return t.entries[NameKey{Scope: scope, Context: context}]
}

// Keys returns the populated keys in first-seen order.
func (t *NameTable) Keys() []NameKey {
	return append([]NameKey(nil), t.keys...)
}

// MarshalJSON renders {scope: {context: {name: count}}} keeping first-seen order.
func (t *NameTable) MarshalJSON() ([]byte, error) {
	scopes := util.Record{}
	for _, key := range t.keys {
		set := t.entries[key]
		names := make(util.Record, 0, set.Len())
		for _, name := range set.order {
			names = append(names, util.Field{Key: name, Value: set.counts[name]})
		}
		raw, _ := scopes.Get(key.Scope)
		contexts, _ := raw.(util.Record)
		contexts = append(contexts, util.Field{Key: key.Context, Value: names})
		scopes.Set(key.Scope, contexts)
	}
	return scopes.MarshalJSON()
}

func (t *NameTable) UnmarshalJSON(data []byte) error {
	out := NewNameTable()
	err := util.DecodeObject(data, func(scope string, raw json.RawMessage) error {
		return util.DecodeObject(raw, func(context string, raw json.RawMessage) error {
			return util.DecodeObject(raw, func(name string, raw json.RawMessage) error {
				var n int
				if err := json.Unmarshal(raw, &n); err != nil {
					return err
				}
				out.Add(scope, context, name, n)
				return nil
			})
		})
	})
	if err != nil {
		return err
	}
	*t = *out
	return nil
}
