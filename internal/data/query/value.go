package query

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"juparc/internal/shared/util"
)

type kind int

const (
	kindNull kind = iota
	kindNumber
	kindTuple
	kindString
)

// Value is a coerced attribute value. Numbers compare with numbers,
// version tuples with tuples and strings with strings.
type Value struct {
	kind  kind
	num   float64
	tuple []int
	str   string
	// text is the rendering matched by regular expressions.
	text string
}

// Coerce converts s to an int, then a float, then a dotted version tuple,
// falling back to the string itself.
func Coerce(s string) Value {
	trimmed := strings.TrimSpace(s)
	if n, err := strconv.Atoi(trimmed); err == nil {
		return Value{kind: kindNumber, num: float64(n), text: s}
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return Value{kind: kindNumber, num: f, text: s}
	}
	if strings.Contains(trimmed, ".") {
		if tuple, ok := parseTuple(trimmed); ok {
			return Value{kind: kindTuple, tuple: tuple, text: s}
		}
	}
	return Value{kind: kindString, str: s, text: s}
}

func parseTuple(s string) ([]int, bool) {
	parts := strings.Split(s, ".")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

// FromJSON coerces a record field. Strings go through Coerce, numbers and
// booleans stay numeric, and any other value is compared as its JSON text.
func FromJSON(raw json.RawMessage) Value {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0:
		return Value{kind: kindNull, text: "null"}
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return Coerce(s)
		}
	case string(raw) == "true":
		return Value{kind: kindNumber, num: 1, text: "True"}
	case string(raw) == "false":
		return Value{kind: kindNumber, num: 0, text: "False"}
	case raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9'):
		if f, err := strconv.ParseFloat(string(raw), 64); err == nil {
			return Value{kind: kindNumber, num: f, text: formatNumber(f, raw)}
		}
	}
	text := dumps(raw)
	return Value{kind: kindString, str: text, text: text}
}

func formatNumber(f float64, raw json.RawMessage) string {
	if f == math.Trunc(f) && !bytes.ContainsAny(raw, ".eE") {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// dumps renders raw JSON with ", " and ": " separators, the notation
// conditions are written against.
func dumps(raw json.RawMessage) string {
	var buf strings.Builder
	writeDumps(&buf, raw)
	return buf.String()
}

func writeDumps(buf *strings.Builder, raw json.RawMessage) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		buf.WriteString("null")
		return
	}
	switch raw[0] {
	case '{':
		buf.WriteByte('{')
		first := true
		err := util.DecodeObject(raw, func(key string, value json.RawMessage) error {
			if !first {
				buf.WriteString(", ")
			}
			first = false
			k, _ := json.Marshal(key)
			buf.Write(k)
			buf.WriteString(": ")
			writeDumps(buf, value)
			return nil
		})
		if err != nil {
			buf.Reset()
			buf.Write(raw)
			return
		}
		buf.WriteByte('}')
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			buf.Write(raw)
			return
		}
		buf.WriteByte('[')
		for i, item := range items {
			if i > 0 {
				buf.WriteString(", ")
			}
			writeDumps(buf, item)
		}
		buf.WriteByte(']')
	default:
		buf.Write(raw)
	}
}

// Compare orders a against b. ok is false when the values are of
// different kinds.
func Compare(a, b Value) (cmp int, ok bool) {
	if a.kind != b.kind {
		return 0, false
	}
	switch a.kind {
	case kindNull:
		return 0, true
	case kindNumber:
		switch {
		case a.num < b.num:
			return -1, true
		case a.num > b.num:
			return 1, true
		}
		return 0, true
	case kindTuple:
		for i := 0; i < len(a.tuple) && i < len(b.tuple); i++ {
			if a.tuple[i] != b.tuple[i] {
				if a.tuple[i] < b.tuple[i] {
					return -1, true
				}
				return 1, true
			}
		}
		return len(a.tuple) - len(b.tuple), true
	default:
		return strings.Compare(a.str, b.str), true
	}
}

func (v Value) String() string {
	return v.text
}
