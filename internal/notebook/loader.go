package notebook

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"juparc/internal/core/errors"
	"juparc/internal/engine/execution"
	"juparc/internal/engine/ipython"
)

// defaultCountWords are counted when Options leaves CountWords empty.
var defaultCountWords = []string{"homework", "assignment", "course", "exercise", "lesson"}

const sourceSeparator = "<#<cell>#>\n"

var newlinesRE = regexp.MustCompile(`[\n\r]+`)

type Options struct {
	// TransformMagics rewrites shell syntax of Python code cells.
	TransformMagics bool
	CountWords      []string
}

// Loader reads notebook files. It never fails: problems are reported
// through the notebook status.
type Loader struct {
	opts Options
}

func NewLoader(opts Options) *Loader {
	if len(opts.CountWords) == 0 {
		opts.CountWords = defaultCountWords
	}
	return &Loader{opts: opts}
}

// Load reads and extracts the notebook at path. The notebook name is the
// path as given.
func (l *Loader) Load(path string) *Notebook {
	nb := newNotebook(path)
	data, err := os.ReadFile(path)
	if err != nil {
		err = errors.AddContext(errors.Wrap(err, errors.CodeLoad, "read notebook"), errors.CtxPath, path)
		slog.Debug("failed to open notebook", "path", path, "error", err)
		nb.fail(StatusLoadError, err)
		return nb
	}
	size := int64(len(data))
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	sum := sha1.Sum(data)
	digest := hex.EncodeToString(sum[:])
	nb.Size = &size
	nb.SHA1File = &digest
	l.decode(nb, data)
	return nb
}

// LoadBytes extracts a notebook held in memory.
func (l *Loader) LoadBytes(name string, data []byte) *Notebook {
	nb := newNotebook(name)
	size := int64(len(data))
	sum := sha1.Sum(data)
	digest := hex.EncodeToString(sum[:])
	nb.Size = &size
	nb.SHA1File = &digest
	l.decode(nb, data)
	return nb
}

func (n *Notebook) fail(status string, err error) {
	msg := err.Error()
	n.Status = status
	n.Exception = &msg
}

func (l *Loader) decode(nb *Notebook, data []byte) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		nb.fail(StatusFormatError, errors.Wrap(err, errors.CodeFormat, "decode notebook"))
		return
	}
	if len(doc.NBFormat) == 0 || (doc.Cells == nil && doc.Worksheets == nil) {
		nb.fail(StatusFormatError, errors.New(errors.CodeFormat, "not a notebook: missing nbformat or cells"))
		return
	}
	nb.NBFormat = scalarText(doc.NBFormat)
	if len(doc.NBFormatMinor) > 0 {
		nb.NBFormat += "." + scalarText(doc.NBFormatMinor)
	}
	doc.upgrade()

	if ks := doc.Metadata.KernelSpec; ks != nil && ks.Name != nil {
		nb.Kernel = *ks.Name
	}
	if li := doc.Metadata.LanguageInfo; li != nil {
		if li.Name != nil {
			nb.Language = *li.Name
		}
		if len(li.Version) > 0 && string(li.Version) != "null" {
			nb.LanguageVersion = scalarText(li.Version)
		}
	}
	l.loadCells(nb, doc.Cells)
}

// scalarText renders a JSON scalar the way it would be printed: strings
// unquoted, numbers verbatim.
func scalarText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

func (l *Loader) loadCells(nb *Notebook, cells []rawCell) {
	status := StatusOK
	unknownVersion := nb.LanguageVersion == "unknown"
	python := nb.IsPython()
	maxCount := -1

	var concat []string
	words := make(map[string]int)
	var wordOrder []string
	var markers []execution.Marker

	for index, raw := range cells {
		slog.Debug("loading cell", "path", nb.Name, "cell", index)

		count, isInt := intOrNone(raw.ExecutionCount)
		if isInt {
			maxCount = max(maxCount, count)
		}
		formats := outputFormats(raw)

		cell := &Cell{
			Index:          index,
			CellType:       raw.CellType,
			ExecutionCount: raw.ExecutionCount,
			OutputFormats:  formats,
			Python:         python,
			Status:         []string{},
		}
		if cell.CellType == "" {
			cell.CellType = "<unknown>"
		}
		if unknownVersion {
			cell.Status = append(cell.Status, CellUnknownVersion)
		}

		rawSource := ""
		if raw.Source != nil {
			rawSource = string(*raw.Source)
		}
		source := rawSource
		concat = append(concat, rawSource)
		lower := strings.ToLower(rawSource)
		for _, word := range l.opts.CountWords {
			if strings.Contains(lower, word) {
				if _, seen := words[word]; !seen {
					wordOrder = append(wordOrder, word)
				}
				words[word]++
			}
		}

		if python && raw.CellType == "code" {
			if l.opts.TransformMagics {
				transformed, err := ipython.Transform(rawSource)
				if err != nil {
					slog.Debug("cell transformation failed", "path", nb.Name, "cell", index, "error", err)
					transformed = ""
					status = StatusSyntaxError
					cell.Status = append(cell.Status, CellSyntaxError)
				}
				source = transformed
			}
			source = strings.ReplaceAll(source, "\x00", "\n")
		}

		cell.Lines = strings.Count(rawSource, "\n") + 1
		cell.LegacyOutputFormats = legacyFormats(formats)
		concat = append(concat, cell.LegacyOutputFormats)
		cell.Source = source
		cell.RawSource = rawSource
		nb.Cells = append(nb.Cells, cell)

		nb.TotalCells++
		switch raw.CellType {
		case "code":
			markers = append(markers, marker(source, raw.ExecutionCount, count, isInt))
			nb.CodeCells++
			if len(formats) > 0 {
				nb.CodeCellsWithOutput++
			}
		case "markdown":
			nb.MarkdownCells++
		case "raw":
			nb.RawCells++
		default:
			nb.UnknownCellFormats++
		}
		if strings.TrimSpace(rawSource) == "" {
			nb.EmptyCells++
		}
	}

	lowerName := strings.ToLower(nb.Name)
	for _, word := range l.opts.CountWords {
		if strings.Contains(lowerName, word) {
			if _, seen := words[word]; !seen {
				wordOrder = append(wordOrder, word)
			}
			words[word] = -words[word] - 1
		}
	}
	for _, word := range wordOrder {
		nb.WordCounter.Set(word, words[word])
	}

	sum := sha1.Sum([]byte(strings.Join(concat, sourceSeparator)))
	nb.SHA1Source = hex.EncodeToString(sum[:])

	if nb.TotalCells == 0 {
		status = StatusFormatError
	}
	nb.MaxExecutionCount = maxCount
	nb.Status = status
	nb.Markers = markers
	stats := execution.Analyze(markers)
	nb.Execution = &stats
}

// marker classifies a code cell: cells with no content are empty whatever
// their execution count.
func marker(source string, raw json.RawMessage, count int, isInt bool) execution.Marker {
	if strings.TrimSpace(newlinesRE.ReplaceAllString(source, " ")) == "" {
		return execution.EmptyMarker
	}
	if isInt {
		return execution.Number(count)
	}
	if scalarText(raw) == "*" {
		return execution.ProcessingMarker
	}
	return execution.NullMarker
}

// intOrNone converts an execution count that is a number or a numeric
// string.
func intOrNone(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n, true
		}
	}
	return 0, false
}

// legacyFormats joins the distinct legacy formats, sorted.
func legacyFormats(formats []string) string {
	seen := make(map[string]struct{}, len(formats))
	var out []string
	for _, f := range formats {
		f = legacyFormat(f)
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	slices.Sort(out)
	return strings.Join(out, ";")
}
