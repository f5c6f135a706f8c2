package execution

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind distinguishes the four execution markers a code cell can carry.
type Kind int

const (
	Null Kind = iota
	Numeric
	Empty
	Processing
)

// Marker is the execution state of one code cell.
type Marker struct {
	Kind  Kind
	Count int
}

func Number(n int) Marker { return Marker{Kind: Numeric, Count: n} }

var (
	EmptyMarker      = Marker{Kind: Empty}
	ProcessingMarker = Marker{Kind: Processing}
	NullMarker       = Marker{Kind: Null}
)

func (m Marker) String() string {
	switch m.Kind {
	case Numeric:
		return strconv.Itoa(m.Count)
	case Empty:
		return "empty"
	case Processing:
		return "*"
	}
	return "null"
}

// MarshalJSON encodes numbers as numbers, null as null and the other
// markers as "empty" and "*".
func (m Marker) MarshalJSON() ([]byte, error) {
	switch m.Kind {
	case Numeric:
		return []byte(strconv.Itoa(m.Count)), nil
	case Empty, Processing:
		return json.Marshal(m.String())
	}
	return []byte("null"), nil
}

func (m *Marker) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = NullMarker
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		switch s {
		case "empty":
			*m = EmptyMarker
		case "*":
			*m = ProcessingMarker
		default:
			return fmt.Errorf("unknown execution marker %q", s)
		}
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("execution marker: %w", err)
	}
	*m = Number(n)
	return nil
}
