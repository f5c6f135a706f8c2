package notebook

import (
	"encoding/json"
	"fmt"
	"io"

	"juparc/internal/engine/features"
	"juparc/internal/shared/util"
)

// Records exchanged between commands are ordered JSON objects. Decoded
// values are raw JSON; values set by this process are Go values.

// ReadRecords decodes a JSON array of objects.
func ReadRecords(r io.Reader) ([]util.Record, error) {
	var records []util.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

// Normalize turns a rendered record into its raw-JSON form.
func Normalize(r util.Record) (util.Record, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var out util.Record
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Decode reads field key of r into target. It reports false when the field
// is absent.
func Decode(r util.Record, key string, target any) (bool, error) {
	v, ok := r.Get(key)
	if !ok {
		return false, nil
	}
	raw, isRaw := v.(json.RawMessage)
	if !isRaw {
		var err error
		if raw, err = json.Marshal(v); err != nil {
			return true, err
		}
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return true, fmt.Errorf("field %q: %w", key, err)
	}
	return true, nil
}

// String returns a string field, or fallback when it is absent or not a
// string.
func String(r util.Record, key, fallback string) string {
	var s string
	if ok, err := Decode(r, key, &s); !ok || err != nil {
		return fallback
	}
	return s
}

// Cells returns the cell records of a notebook record.
func Cells(r util.Record) ([]util.Record, error) {
	var cells []util.Record
	if _, err := Decode(r, "cells", &cells); err != nil {
		return nil, err
	}
	return cells, nil
}

// CellFeatures rebuilds the features stored on an enriched code cell.
// Fields that were not stored stay empty. A cell that failed to parse
// yields the unparseable result.
func CellFeatures(cell util.Record) (*features.Result, error) {
	for _, key := range []string{"ast", "modules", "names", "ipython"} {
		var stored any
		if ok, _ := Decode(cell, key, &stored); ok {
			if s, isString := stored.(string); isString && s == features.UnparseableSentinel {
				return features.Unparseable(), nil
			}
		}
	}

	res := &features.Result{}
	if _, ok := cell.Get("ast"); ok {
		res.AST = features.NewCounters()
		if _, err := Decode(cell, "ast", res.AST); err != nil {
			return nil, err
		}
	}
	if _, err := Decode(cell, "modules", &res.Modules); err != nil {
		return nil, err
	}
	if _, ok := cell.Get("names"); ok {
		res.Names = features.NewNameTable()
		if _, err := Decode(cell, "names", res.Names); err != nil {
			return nil, err
		}
	}
	if _, err := Decode(cell, "ipython", &res.IPython); err != nil {
		return nil, err
	}
	return res, nil
}
