package ipython

// lineState tracks just enough of the Python lexical structure to tell
// whether the next physical line starts a logical line.
type lineState struct {
	depth     int
	quote     byte
	triple    bool
	continued bool
}

func (s *lineState) logicalStart() bool {
	return s.depth == 0 && s.quote == 0 && !s.continued
}

func (s *lineState) scan(line string) {
	s.continued = false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if s.quote != 0 {
			switch {
			case c == '\\':
				i++
			case c == s.quote && !s.triple:
				s.quote = 0
			case c == s.quote && s.triple && i+2 < len(line) && line[i+1] == c && line[i+2] == c:
				s.quote = 0
				s.triple = false
				i += 2
			case c == '\n' && !s.triple:
				// unterminated single-quoted string ends at the line break
				s.quote = 0
			}
			continue
		}
		switch c {
		case '#':
			return
		case '\'', '"':
			s.quote = c
			if i+2 < len(line) && line[i+1] == c && line[i+2] == c {
				s.triple = true
				i += 2
			}
		case '(', '[', '{':
			s.depth++
		case ')', ']', '}':
			if s.depth > 0 {
				s.depth--
			}
		case '\\':
			if i+1 < len(line) && (line[i+1] == '\n' || line[i+1] == '\r') {
				s.continued = true
				return
			}
			if i+1 == len(line) {
				s.continued = true
			}
		}
	}
}
