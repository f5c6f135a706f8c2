package features

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

type literalKind int

const (
	literalStr literalKind = iota
	literalBytes
	literalFormat
)

// parseLiteral splits a Python string token into its kind and decoded value.
// Formatted strings report literalFormat and no value.
func parseLiteral(text string) (literalKind, string, bool) {
	i := 0
	for i < len(text) && text[i] != '\'' && text[i] != '"' {
		i++
	}
	if i == len(text) {
		return literalStr, "", false
	}
	prefix := strings.ToLower(text[:i])
	body := text[i:]

	quote := body[:1]
	if strings.HasPrefix(body, strings.Repeat(quote, 3)) && len(body) >= 6 {
		quote = strings.Repeat(quote, 3)
	}
	if len(body) < 2*len(quote) || !strings.HasSuffix(body, quote) {
		return literalStr, "", false
	}
	body = body[len(quote) : len(body)-len(quote)]

	kind := literalStr
	switch {
	case strings.Contains(prefix, "f"):
		return literalFormat, "", true
	case strings.Contains(prefix, "b"):
		kind = literalBytes
	}
	if strings.Contains(prefix, "r") {
		return kind, body, true
	}
	return kind, unescapePython(body, kind == literalBytes), true
}

// unescapePython decodes backslash escapes the way the Python tokenizer does.
// Unknown escapes are kept verbatim.
func unescapePython(s string, bytesLiteral bool) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch e := s[i]; e {
		case '\n':
		case '\\', '\'', '"':
			b.WriteByte(e)
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			n, _ := strconv.ParseUint(s[i:j], 8, 32)
			writeCode(&b, rune(n), bytesLiteral)
			i = j - 1
		case 'x':
			if n, ok := hexAt(s, i+1, 2); ok {
				writeCode(&b, rune(n), bytesLiteral)
				i += 2
			} else {
				b.WriteString(`\x`)
			}
		case 'u', 'U':
			width := 4
			if e == 'U' {
				width = 8
			}
			if n, ok := hexAt(s, i+1, width); ok && !bytesLiteral {
				b.WriteRune(rune(n))
				i += width
			} else {
				b.WriteByte('\\')
				b.WriteByte(e)
			}
		case 'N':
			if end := strings.IndexByte(s[i:], '}'); !bytesLiteral && i+1 < len(s) && s[i+1] == '{' && end > 0 {
				// Character names are not resolved; keep a placeholder rune.
				b.WriteRune(utf8.RuneError)
				i += end
			} else {
				b.WriteString(`\N`)
			}
		default:
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}
	return b.String()
}

func hexAt(s string, start, width int) (uint64, bool) {
	if start+width > len(s) {
		return 0, false
	}
	n, err := strconv.ParseUint(s[start:start+width], 16, 32)
	return n, err == nil
}

func writeCode(b *strings.Builder, r rune, bytesLiteral bool) {
	if bytesLiteral {
		b.WriteByte(byte(r))
		return
	}
	b.WriteRune(r)
}
