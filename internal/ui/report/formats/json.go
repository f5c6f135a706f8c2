package formats

import (
	"encoding/json"
	"io"
)

// JSONGenerator writes any value as indented JSON followed by a newline.
type JSONGenerator struct {
	value any
}

func NewJSONGenerator(value any) *JSONGenerator {
	return &JSONGenerator{value: value}
}

func (j *JSONGenerator) Generate() (string, error) {
	data, err := json.MarshalIndent(j.value, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

func (j *JSONGenerator) WriteTo(w io.Writer) (int64, error) {
	out, err := j.Generate()
	if err != nil {
		return 0, err
	}
	n, err := io.WriteString(w, out)
	return int64(n), err
}
