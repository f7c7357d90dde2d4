package markup

import "doxyscan/internal/spans"

// logical is a comment span with line continuations removed and comment
// decoration replaced by spaces. Byte i of text came from source offset
// pos[i].
type logical struct {
	text      []byte
	pos       []int
	lineStart []bool // lineStart[i]: a new physical line or a splice begins at i
	bodyEnd   int    // end of the text before a block closer
	srcStart  int
	srcEnd    int
}

func newLogical(src string, span spans.Span) *logical {
	lt := &logical{
		text:     make([]byte, 0, span.Len()),
		pos:      make([]int, 0, span.Len()),
		srcStart: span.Start,
		srcEnd:   span.End,
	}
	starts := []int{0}

	for i := span.Start; i < span.End; i++ {
		c := src[i]
		if c == '\\' {
			switch {
			case i+1 < span.End && src[i+1] == '\n':
				i++
				starts = append(starts, len(lt.text))
				continue
			case i+2 < span.End && src[i+1] == '\r' && src[i+2] == '\n':
				i += 2
				starts = append(starts, len(lt.text))
				continue
			}
		}
		lt.text = append(lt.text, c)
		lt.pos = append(lt.pos, i)
		if c == '\n' {
			starts = append(starts, len(lt.text))
		}
	}

	lt.lineStart = make([]bool, len(lt.text)+1)
	for _, s := range starts {
		lt.lineStart[s] = true
	}
	lt.undecorate(span.Kind)
	return lt
}

// undecorate blanks comment openers, the block closer and leading star
// runs so that they are never taken for markup.
func (lt *logical) undecorate(kind spans.Kind) {
	t := lt.text
	n := len(t)
	lt.bodyEnd = n
	block := kind == spans.BlockComment || kind == spans.DocBlockComment

	if block {
		// Opener is "/*", "/**" or "/*!".
		open := 2
		if n > 2 && (t[2] == '*' || t[2] == '!') && kind == spans.DocBlockComment {
			open = 3
		}
		if n >= 4 && t[n-2] == '*' && t[n-1] == '/' {
			lt.blank(n-2, n)
			lt.bodyEnd = n - 2
		}
		lt.blank(0, min(open, n))
	}

	for i := 0; i <= n; i++ {
		if !lt.lineStart[i] {
			continue
		}
		j := i
		for j < n && (t[j] == ' ' || t[j] == '\t') {
			j++
		}
		if block {
			if i == 0 {
				continue
			}
			k := j
			for k < n && t[k] == '*' {
				k++
			}
			lt.blank(j, k)
			continue
		}
		// Line comments: "//", "///" or "//!" at the start of each line.
		if j+1 < n && t[j] == '/' && t[j+1] == '/' {
			k := j + 2
			for k < n && t[k] == '/' {
				k++
			}
			if k < n && t[k] == '!' {
				k++
			}
			lt.blank(j, k)
		}
	}
}

func (lt *logical) blank(from, to int) {
	for i := from; i < to && i < len(lt.text); i++ {
		lt.text[i] = ' '
	}
}

// atLineStart reports whether only whitespace precedes i on its line.
func (lt *logical) atLineStart(i int) bool {
	for i > 0 && !lt.lineStart[i] && isBlank(lt.text[i-1]) {
		i--
	}
	return lt.lineStart[i]
}

// lineEnd returns the index of the newline ending the logical line that
// contains i, or len(text).
func (lt *logical) lineEnd(i int) int {
	for i < len(lt.text) && lt.text[i] != '\n' {
		i++
	}
	return i
}

// skipBlank returns the first index at or after i, before limit, that is
// not horizontal whitespace.
func (lt *logical) skipBlank(i, limit int) int {
	for i < limit && isBlank(lt.text[i]) {
		i++
	}
	return i
}

// src maps a logical start offset to the source.
func (lt *logical) src(i int) int {
	if i >= len(lt.pos) {
		return lt.srcEnd
	}
	return lt.pos[i]
}

// srcEndOf maps an exclusive logical end offset to the source.
func (lt *logical) srcEndOf(i int) int {
	if i <= 0 {
		return lt.srcStart
	}
	if i >= len(lt.pos) {
		if len(lt.pos) == 0 {
			return lt.srcEnd
		}
		// Trailing splices belong to the span but not to the text.
		return lt.pos[len(lt.pos)-1] + 1
	}
	return lt.pos[i-1] + 1
}

func (lt *logical) str(from, to int) string {
	return string(lt.text[from:to])
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f'
}

func isSpace(c byte) bool { return isBlank(c) || c == '\n' }

func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isWordChar(c byte) bool { return c == '_' || isLetter(c) || isDigit(c) }

func isAlnum(c byte) bool { return isLetter(c) || isDigit(c) || c >= 0x80 }
