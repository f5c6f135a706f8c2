package aggregate

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"juparc/internal/engine/features"
	"juparc/internal/shared/util"
)

const (
	anyKey    = "any"
	othersKey = "others"
)

var (
	moduleQualifiers = []string{anyKey, "local", "external"}
	moduleCategories = []string{anyKey, features.ImportKindImport, features.ImportKindImportFrom, features.ImportKindLoadExt}

	nameQualifiers = []string{
		anyKey, features.ScopeMain, features.ScopeLocal, features.ScopeClass,
		features.ScopeGlobal, features.ScopeNonlocal,
	}
	nameCategories = []string{
		anyKey, features.UsageClass, features.UsageImport, features.UsageImportFrom,
		features.UsageFunction, features.UsageParameter, features.UsageDelete,
		features.UsageLoad, features.UsageStore,
	}

	ipythonQualifiers = []string{anyKey}
	ipythonCategories = []string{
		anyKey, features.FeatureInputRef, features.FeatureOutputRef, features.FeatureShadowRef,
		"run_line_magic", "run_cell_magic", "magic", "system", "getoutput",
	}
)

// Buckets groups values by {qualifier}_{category}. Values whose qualifier or
// category is outside the vocabulary land in the others bucket.
type Buckets struct {
	qualifiers map[string]bool
	categories map[string]bool
	order      []string
	sets       map[string]*features.Multiset
}

func newBuckets(qualifiers, categories []string) *Buckets {
	b := &Buckets{
		qualifiers: make(map[string]bool, len(qualifiers)),
		categories: make(map[string]bool, len(categories)),
		sets:       make(map[string]*features.Multiset),
	}
	for _, q := range qualifiers {
		b.qualifiers[q] = true
		for _, c := range categories {
			b.categories[c] = true
			b.order = append(b.order, q+"_"+c)
		}
	}
	b.order = append(b.order, othersKey)
	for _, name := range b.order {
		b.sets[name] = features.NewMultiset()
	}
	return b
}

func NewModuleBuckets() *Buckets  { return newBuckets(moduleQualifiers, moduleCategories) }
func NewNameBuckets() *Buckets    { return newBuckets(nameQualifiers, nameCategories) }
func NewIPythonBuckets() *Buckets { return newBuckets(ipythonQualifiers, ipythonCategories) }

// Add records n occurrences of value under qualifier and category, and
// under the "any" rollups of both.
func (b *Buckets) Add(qualifier, category, value string, n int) {
	targets := []string{anyKey + "_" + anyKey}
	if b.qualifiers[qualifier] && b.categories[category] {
		for _, name := range []string{anyKey + "_" + category, qualifier + "_" + anyKey, qualifier + "_" + category} {
			if !slices.Contains(targets, name) {
				targets = append(targets, name)
			}
		}
	} else {
		targets = append(targets, othersKey)
	}
	for _, name := range targets {
		b.sets[name].Add(value, n)
	}
}

// Get returns a bucket by name, or nil.
func (b *Buckets) Get(name string) *features.Multiset {
	return b.sets[name]
}

// Names returns the bucket names in output order.
func (b *Buckets) Names() []string {
	return slices.Clone(b.order)
}

// Merge folds the per-value counts of o into b.
func (b *Buckets) Merge(o *Buckets) {
	for _, name := range o.order {
		dst, ok := b.sets[name]
		if !ok {
			dst = b.sets[othersKey]
		}
		src := o.sets[name]
		for _, value := range src.Values() {
			dst.Add(value, src.Count(value))
		}
	}
}

// ranked orders values by count, most frequent first, keeping first-seen
// order among ties.
func ranked(set *features.Multiset) []string {
	values := set.Values()
	slices.SortStableFunc(values, func(a, b string) int {
		return set.Count(b) - set.Count(a)
	})
	return values
}

// Record flattens every bucket into {b}, {b}_counts and {b}_count fields.
func (b *Buckets) Record() util.Record {
	r := make(util.Record, 0, 3*len(b.order))
	for _, name := range b.order {
		set := b.sets[name]
		values := ranked(set)
		counts := make([]string, len(values))
		for i, v := range values {
			counts[i] = strconv.Itoa(set.Count(v))
		}
		r = append(r,
			util.Field{Key: name, Value: joinList(values)},
			util.Field{Key: name + "_counts", Value: strings.Join(counts, ",")},
			util.Field{Key: name + "_count", Value: set.Total()},
		)
	}
	return r
}

func (b *Buckets) MarshalJSON() ([]byte, error) {
	return b.Record().MarshalJSON()
}

// UnmarshalJSON rebuilds the buckets of a flattened record. The receiver
// must have been created by one of the New*Buckets constructors.
func (b *Buckets) UnmarshalJSON(data []byte) error {
	if b.sets == nil {
		return fmt.Errorf("buckets: decoding into an uninitialized value")
	}
	values := make(map[string]string)
	counts := make(map[string]string)
	err := util.DecodeObject(data, func(key string, raw json.RawMessage) error {
		var target map[string]string
		name := key
		switch {
		case b.sets[key] != nil:
			target = values
		case strings.HasSuffix(key, "_counts") && b.sets[strings.TrimSuffix(key, "_counts")] != nil:
			target = counts
			name = strings.TrimSuffix(key, "_counts")
		case strings.HasSuffix(key, "_count"):
			return nil
		default:
			return fmt.Errorf("unknown bucket field %q", key)
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("bucket field %q: %w", key, err)
		}
		target[name] = s
		return nil
	})
	if err != nil {
		return err
	}

	for _, name := range b.order {
		set := features.NewMultiset()
		vs, cs := splitList(values[name]), splitList(counts[name])
		if len(vs) == 0 && len(cs) == 1 {
			vs = []string{""}
		}
		if len(vs) != len(cs) {
			return fmt.Errorf("bucket %q: %d values but %d counts", name, len(vs), len(cs))
		}
		for i, v := range vs {
			n, err := strconv.Atoi(cs[i])
			if err != nil {
				return fmt.Errorf("bucket %q: %w", name, err)
			}
			set.Add(v, n)
		}
		b.sets[name] = set
	}
	return nil
}

var listEscaper = strings.NewReplacer(`\`, `\\`, ",", `\,`)

// joinList joins values with commas, escaping commas and backslashes
// inside a value with a backslash.
func joinList(values []string) string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = listEscaper.Replace(v)
	}
	return strings.Join(escaped, ",")
}

// splitList reverses joinList.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var (
		out     []string
		current strings.Builder
	)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\' && i+1 < len(s):
			i++
			current.WriteByte(s[i])
		case c == ',':
			out = append(out, current.String())
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	return append(out, current.String())
}
