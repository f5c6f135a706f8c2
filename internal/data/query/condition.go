package query

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"juparc/internal/core/errors"
	"juparc/internal/shared/util"
)

// Operators of attribute conditions.
const (
	OpNull     = "null"
	OpGT       = ">"
	OpGE       = ">="
	OpLT       = "<"
	OpLE       = "<="
	OpEQ       = "=="
	OpNE       = "!="
	OpMatch    = "match"
	OpContains = "contains"
)

// Condition is a predicate over one record field.
type Condition struct {
	Field   string
	Op      string
	Operand Value
	pattern *regexp.Regexp
}

// ParseAttr parses an attribute condition such as ">=3", "null", "== 3.6"
// or a regular expression matched at the start of the value.
func ParseAttr(field, expr string) (Condition, error) {
	expr = strings.TrimSpace(expr)
	c := Condition{Field: field}
	switch {
	case expr == "null":
		c.Op = OpNull
	case strings.HasPrefix(expr, ">="):
		c.Op, c.Operand = OpGE, Coerce(expr[2:])
	case strings.HasPrefix(expr, ">"):
		c.Op, c.Operand = OpGT, Coerce(expr[1:])
	case strings.HasPrefix(expr, "<="):
		c.Op, c.Operand = OpLE, Coerce(expr[2:])
	case strings.HasPrefix(expr, "<"):
		c.Op, c.Operand = OpLT, Coerce(expr[1:])
	case strings.HasPrefix(expr, "=="):
		c.Op, c.Operand = OpEQ, Coerce(strings.TrimLeft(expr[2:], " \t"))
	case strings.HasPrefix(expr, "!="):
		c.Op, c.Operand = OpNE, Coerce(strings.TrimLeft(expr[2:], " \t"))
	default:
		re, err := regexp.Compile(`^(?:` + expr + `)`)
		if err != nil {
			return Condition{}, errors.AddContext(
				errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("invalid pattern %q", expr)),
				"field", field)
		}
		c.Op, c.Operand, c.pattern = OpMatch, Coerce(expr), re
	}
	return c, nil
}

// Match evaluates the condition on r. A missing field reads as null.
func (c Condition) Match(r util.Record) bool {
	v, ok := r.Get(c.Field)
	if !ok || v == nil {
		return c.Op == OpNull
	}
	raw, isRaw := v.(json.RawMessage)
	if !isRaw {
		data, err := json.Marshal(v)
		if err != nil {
			return false
		}
		raw = data
	}
	if string(raw) == "null" {
		return c.Op == OpNull
	}
	if c.Op == OpNull {
		return false
	}

	value := FromJSON(raw)
	switch c.Op {
	case OpMatch:
		return c.pattern.MatchString(value.String())
	case OpContains:
		return strings.Contains(value.String(), c.Operand.String())
	}
	cmp, comparable := Compare(value, c.Operand)
	switch c.Op {
	case OpEQ:
		return comparable && cmp == 0
	case OpNE:
		return !comparable || cmp != 0
	case OpGT:
		return comparable && cmp > 0
	case OpGE:
		return comparable && cmp >= 0
	case OpLT:
		return comparable && cmp < 0
	case OpLE:
		return comparable && cmp <= 0
	}
	return false
}

// MatchAll reports whether every condition holds on r.
func MatchAll(r util.Record, conds []Condition) bool {
	for _, c := range conds {
		if !c.Match(r) {
			return false
		}
	}
	return true
}

// Filter returns the records that satisfy every condition, in order.
func Filter(records []util.Record, conds []Condition) []util.Record {
	out := make([]util.Record, 0, len(records))
	for _, r := range records {
		if MatchAll(r, conds) {
			out = append(out, r)
		}
	}
	return out
}
