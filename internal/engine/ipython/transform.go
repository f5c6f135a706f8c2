// Package ipython rewrites notebook-shell syntax (magics, shell escapes and
// help requests) into plain Python calls on get_ipython().
package ipython

import (
	"regexp"
	"strings"

	"juparc/internal/core/errors"
)

var (
	helpEndRE = regexp.MustCompile(`^([A-Za-z_][\w.]*(?:\[[^\]]*\])?)\s*(\?\??)$`)
	assignRE  = regexp.MustCompile(`^([A-Za-z_][\w.]*(?:\s*,\s*[A-Za-z_][\w.]*)*)\s*=\s*([!%])(.*)$`)
)

// Transform returns the Python equivalent of a code cell. The result always
// ends with a newline and never contains null bytes.
func Transform(source string) (string, error) {
	lines := splitLines(source)
	lines = dropLeadingEmpty(lines)
	lines = dedentFirst(lines)
	if len(lines) == 0 {
		return "\n", nil
	}

	var out string
	if strings.HasPrefix(lines[0], "%%") {
		cell, err := cellMagic(lines)
		if err != nil {
			return "", err
		}
		out = cell
	} else {
		out = transformLines(lines)
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return strings.ReplaceAll(out, "\x00", "\n"), nil
}

// splitLines splits keeping line terminators.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func dropLeadingEmpty(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	return lines
}

// dedentFirst removes the first line's indentation from every line that
// carries it.
func dedentFirst(lines []string) []string {
	if len(lines) == 0 {
		return lines
	}
	first := lines[0]
	indent := first[:len(first)-len(strings.TrimLeft(first, " \t"))]
	if indent == "" {
		return lines
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = strings.TrimPrefix(line, indent)
	}
	return out
}

func cellMagic(lines []string) (string, error) {
	header := strings.TrimRight(lines[0][2:], " \t\r\n")
	name, args, _ := strings.Cut(header, " ")
	if name == "" {
		return "", errors.New(errors.CodeParse, "cell magic without a name")
	}
	body := strings.Join(lines[1:], "")
	return "get_ipython().run_cell_magic(" + Repr(name) + ", " + Repr(args) + ", " + Repr(body) + ")\n", nil
}

func transformLines(lines []string) string {
	var b strings.Builder
	var state lineState
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if !state.logicalStart() {
			b.WriteString(line)
			state.scan(line)
			continue
		}

		// escaped commands absorb backslash continuations
		joined := line
		consumed := i
		for strings.HasSuffix(strings.TrimRight(joined, "\r\n"), `\`) && consumed+1 < len(lines) && isEscaped(line) {
			joined = strings.TrimSuffix(strings.TrimRight(joined, "\r\n"), `\`) + lines[consumed+1]
			consumed++
		}
		if rewritten, ok := rewriteLine(joined); ok {
			b.WriteString(rewritten)
			i = consumed
			continue
		}
		b.WriteString(line)
		state.scan(line)
	}
	return b.String()
}

func isEscaped(line string) bool {
	content := strings.TrimLeft(line, " \t")
	return strings.HasPrefix(content, "!") || strings.HasPrefix(content, "%") || strings.HasPrefix(content, "?")
}

// rewriteLine transforms one logical line. It reports false when the line
// is plain Python.
func rewriteLine(line string) (string, bool) {
	body := strings.TrimRight(line, "\r\n")
	newline := line[len(body):]
	content := strings.TrimLeft(body, " \t")
	indent := body[:len(body)-len(content)]
	content = strings.TrimRight(content, " \t")

	if call, ok := escapedCall(content); ok {
		return indent + call + newline, true
	}
	if m := assignRE.FindStringSubmatch(content); m != nil {
		var call string
		if m[2] == "!" {
			call = "get_ipython().getoutput(" + Repr(strings.TrimSpace(m[3])) + ")"
		} else {
			call = lineMagic(m[3])
		}
		return indent + m[1] + " = " + call + newline, true
	}
	if m := helpEndRE.FindStringSubmatch(content); m != nil {
		return indent + helpCall(m[1], m[2]) + newline, true
	}
	return "", false
}

func escapedCall(content string) (string, bool) {
	switch {
	case strings.HasPrefix(content, "!!"):
		return "get_ipython().getoutput(" + Repr(content[2:]) + ")", true
	case strings.HasPrefix(content, "!"):
		return "get_ipython().system(" + Repr(content[1:]) + ")", true
	case strings.HasPrefix(content, "??"):
		return helpCall(strings.TrimSpace(content[2:]), "??"), true
	case strings.HasPrefix(content, "?"):
		return helpCall(strings.TrimSpace(content[1:]), "?"), true
	case strings.HasPrefix(content, "%"):
		magic := strings.TrimLeft(content, "%")
		if m := helpEndRE.FindStringSubmatch(magic); m != nil && strings.HasSuffix(content, "?") {
			return helpCall("%"+m[1], m[2]), true
		}
		return lineMagic(magic), true
	}
	return "", false
}

func lineMagic(content string) string {
	name, args, _ := strings.Cut(content, " ")
	return "get_ipython().run_line_magic(" + Repr(name) + ", " + Repr(args) + ")"
}

func helpCall(target, marks string) string {
	magic := "pinfo"
	if marks == "??" {
		magic = "pinfo2"
	}
	return "get_ipython().run_line_magic(" + Repr(magic) + ", " + Repr(target) + ")"
}
