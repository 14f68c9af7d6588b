package utils

// Span is a half-open byte range [Start, End) within a line.
type Span struct {
	Start int
	End   int
}

// SimpleDoubleQuoted returns the double-quoted JavaScript string literals on line that can be
// requoted with single quotes: they start outside any other string or comment and contain no
// quote, backtick or backslash. Spans include the quotes. ok is false when the line's string
// state cannot be decided from the line alone, such as an unterminated literal, a block
// comment or a template literal with substitutions; callers must then leave the line alone.
func SimpleDoubleQuoted(line string) (spans []Span, ok bool) {
	for i := 0; i < len(line); i++ {
		switch c := line[i]; c {
		case '/':
			if i+1 < len(line) && line[i+1] == '/' {
				return spans, true
			}
			if i+1 < len(line) && line[i+1] == '*' {
				return nil, false
			}
		case '\'', '`':
			end, closed := closingQuote(line, i)
			if !closed {
				return nil, false
			}
			if c == '`' && containsSubstitution(line[i+1:end]) {
				return nil, false
			}
			i = end
		case '"':
			end, closed := closingQuote(line, i)
			if !closed {
				return nil, false
			}
			if isSimpleLiteral(line[i+1 : end]) {
				spans = append(spans, Span{Start: i, End: end + 1})
			}
			i = end
		}
	}
	return spans, true
}

// closingQuote finds the quote closing the literal opened at line[start], honoring escapes.
func closingQuote(line string, start int) (int, bool) {
	quote := line[start]
	for j := start + 1; j < len(line); j++ {
		switch line[j] {
		case '\\':
			j++
		case quote:
			return j, true
		}
	}
	return 0, false
}

func containsSubstitution(body string) bool {
	for i := 0; i+1 < len(body); i++ {
		if body[i] == '\\' {
			i++
			continue
		}
		if body[i] == '$' && body[i+1] == '{' {
			return true
		}
	}
	return false
}

func isSimpleLiteral(body string) bool {
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '\'', '"', '`', '\\':
			return false
		}
	}
	return true
}
