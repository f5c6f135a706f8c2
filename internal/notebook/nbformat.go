package notebook

import (
	"encoding/json"
	"fmt"
	"strings"

	"juparc/internal/shared/util"
)

// multiline is a notebook text field, stored either as a string or as a
// list of lines.
type multiline string

func (m *multiline) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = multiline(s)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return fmt.Errorf("text field: %w", err)
	}
	*m = multiline(strings.Join(lines, ""))
	return nil
}

type document struct {
	NBFormat      json.RawMessage `json:"nbformat"`
	NBFormatMinor json.RawMessage `json:"nbformat_minor"`
	Metadata      metadata        `json:"metadata"`
	Cells         []rawCell       `json:"cells"`
	Worksheets    []struct {
		Cells []rawCell `json:"cells"`
	} `json:"worksheets"`
}

type metadata struct {
	KernelSpec *struct {
		Name *string `json:"name"`
	} `json:"kernelspec"`
	LanguageInfo *struct {
		Name    *string         `json:"name"`
		Version json.RawMessage `json:"version"`
	} `json:"language_info"`
}

type rawCell struct {
	CellType       string          `json:"cell_type"`
	Source         *multiline      `json:"source"`
	Input          *multiline      `json:"input"`
	Level          int             `json:"level"`
	ExecutionCount json.RawMessage `json:"execution_count"`
	PromptNumber   json.RawMessage `json:"prompt_number"`
	Outputs        []rawOutput     `json:"outputs"`
}

// rawOutput keeps the member order of an output so that mime types are
// reported in document order.
type rawOutput struct {
	OutputType string
	Name       string
	Stream     string
	DataKeys   []string
	TopKeys    []string
}

func (o *rawOutput) UnmarshalJSON(data []byte) error {
	var out rawOutput
	err := util.DecodeObject(data, func(key string, raw json.RawMessage) error {
		out.TopKeys = append(out.TopKeys, key)
		switch key {
		case "output_type":
			return json.Unmarshal(raw, &out.OutputType)
		case "name":
			_ = json.Unmarshal(raw, &out.Name)
		case "stream":
			_ = json.Unmarshal(raw, &out.Stream)
		case "data":
			if string(raw) == "null" {
				return nil
			}
			return util.DecodeObject(raw, func(mime string, _ json.RawMessage) error {
				out.DataKeys = append(out.DataKeys, mime)
				return nil
			})
		}
		return nil
	})
	if err != nil {
		return err
	}
	*o = out
	return nil
}

// Mime keys of version 3 outputs.
var v3Mime = map[string]string{
	"text":       "text/plain",
	"html":       "text/html",
	"svg":        "image/svg+xml",
	"png":        "image/png",
	"jpeg":       "image/jpeg",
	"latex":      "text/latex",
	"javascript": "application/javascript",
	"json":       "application/json",
	"pdf":        "application/pdf",
}

// upgrade converts version 3 worksheets into version 4 cells in place.
func (d *document) upgrade() {
	if len(d.Worksheets) == 0 {
		return
	}
	var cells []rawCell
	for _, ws := range d.Worksheets {
		for _, cell := range ws.Cells {
			cells = append(cells, upgradeCell(cell))
		}
	}
	d.Cells = cells
	d.Worksheets = nil
}

func upgradeCell(cell rawCell) rawCell {
	switch cell.CellType {
	case "code":
		cell.Source = cell.Input
		cell.ExecutionCount = cell.PromptNumber
		for i, out := range cell.Outputs {
			cell.Outputs[i] = upgradeOutput(out)
		}
	case "heading":
		level := cell.Level
		if level < 1 {
			level = 1
		}
		src := ""
		if cell.Source != nil {
			src = string(*cell.Source)
		}
		text := multiline(strings.Repeat("#", level) + " " + src)
		cell.CellType = "markdown"
		cell.Source = &text
	}
	return cell
}

func upgradeOutput(out rawOutput) rawOutput {
	switch out.OutputType {
	case "pyout":
		out.OutputType = "execute_result"
	case "pyerr":
		out.OutputType = "error"
	case "stream":
		out.Name = out.Stream
		return out
	}
	if out.OutputType == "execute_result" || out.OutputType == "display_data" {
		out.DataKeys = nil
		for _, key := range out.TopKeys {
			if mime, ok := v3Mime[key]; ok {
				out.DataKeys = append(out.DataKeys, mime)
			}
		}
	}
	return out
}

// outputFormats lists the output formats of a code cell.
func outputFormats(cell rawCell) []string {
	if cell.CellType != "code" {
		return []string{}
	}
	formats := []string{}
	for _, out := range cell.Outputs {
		switch out.OutputType {
		case "display_data", "execute_result":
			for _, mime := range out.DataKeys {
				formats = append(formats, out.OutputType+"/"+mime)
			}
		case "error":
			formats = append(formats, "error")
		case "stream":
			name := out.Name
			if name == "" {
				name = "other"
			}
			formats = append(formats, "stream/"+name)
		}
	}
	return formats
}

// legacyFormat strips the output type prefix of rich formats.
func legacyFormat(format string) string {
	if rest, ok := strings.CutPrefix(format, "display_data/"); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(format, "execute_result/"); ok {
		return rest
	}
	return format
}
