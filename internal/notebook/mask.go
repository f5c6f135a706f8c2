package notebook

import (
	"slices"
	"strings"

	"juparc/internal/shared/util"
)

// Mask selects record fields. A non-empty Include keeps only the listed
// fields; Exclude drops fields. Cell fields are addressed as "cells.<field>".
type Mask struct {
	Include []string
	Exclude []string
}

// Sub returns the mask of a nested record.
func (m Mask) Sub(prefix string) Mask {
	return Mask{Include: subfilter(m.Include, prefix), Exclude: subfilter(m.Exclude, prefix)}
}

func subfilter(list []string, prefix string) []string {
	if list == nil {
		return nil
	}
	out := []string{}
	for _, key := range list {
		if rest, ok := strings.CutPrefix(key, prefix+"."); ok {
			out = append(out, rest)
		}
	}
	return out
}

// Drops reports whether key is filtered out.
func (m Mask) Drops(key string) bool {
	if len(m.Include) > 0 && !slices.Contains(m.Include, key) {
		return true
	}
	return slices.Contains(m.Exclude, key)
}

func (m Mask) Apply(r util.Record) util.Record {
	if len(m.Include) == 0 && len(m.Exclude) == 0 {
		return r
	}
	return r.Filter(func(key string) bool { return !m.Drops(key) })
}
