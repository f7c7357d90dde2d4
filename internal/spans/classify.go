package spans

import (
	"context"
	"strings"
)

// maxRawDelimiter is the longest raw string delimiter the language allows.
const maxRawDelimiter = 16

// cancelCheckInterval is how many emitted spans pass between context checks.
const cancelCheckInterval = 512

// Classify partitions text into spans. It never fails: unterminated
// comments and raw strings run to the end of the input.
func Classify(text string) []Span {
	s := newScanner(text)
	_, _ = s.run(context.Background(), 0)
	return s.out
}

// ClassifyContext is Classify for bulk callers that need cancellation.
// A cancelled context yields ctx.Err() and no spans.
func ClassifyContext(ctx context.Context, text string) ([]Span, error) {
	s := newScanner(text)
	if _, err := s.run(ctx, 0); err != nil {
		return nil, err
	}
	return s.out, nil
}

// ClassifyFrom classifies text[from:], treating from as a known span
// boundary. Characters before from are only consulted as look-behind.
// The returned offsets are absolute.
func ClassifyFrom(text string, from int) []Span {
	if from < 0 {
		from = 0
	}
	if from > len(text) {
		from = len(text)
	}
	s := newScanner(text)
	_, _ = s.run(context.Background(), from)
	return s.out
}

type scanner struct {
	text string
	out  []Span

	// stop, when set, is consulted before each non-code span is emitted.
	// Returning true ends the scan at that span's start.
	stop func(start int) bool
}

func newScanner(text string) *scanner {
	return &scanner{text: text}
}

func (s *scanner) emit(start, end int, kind Kind, style Style) {
	if end <= start {
		return
	}
	if kind == Code && len(s.out) > 0 {
		last := &s.out[len(s.out)-1]
		if last.Kind == Code && last.End == start {
			last.End = end
			return
		}
	}
	s.out = append(s.out, Span{Start: start, End: end, Kind: kind, Style: style})
}

// region emits the code before a non-code span and then the span itself.
// It returns false when the stop hook asked to end the scan.
func (s *scanner) region(codeStart, start, end int, kind Kind, style Style) bool {
	s.emit(codeStart, start, Code, StyleNone)
	if s.stop != nil && s.stop(start) {
		return false
	}
	s.emit(start, end, kind, style)
	return true
}

// run scans from the given offset to the end of input. It returns the
// offset at which the stop hook ended the scan, or len(text).
func (s *scanner) run(ctx context.Context, from int) (int, error) {
	text := s.text
	n := len(text)
	i, codeStart := from, from
	emitted := 0

	for i < n {
		if len(s.out)-emitted >= cancelCheckInterval {
			emitted = len(s.out)
			if err := ctx.Err(); err != nil {
				return i, err
			}
		}

		c := text[i]
		switch {
		case c == '/' && i+1 < n && text[i+1] == '/':
			end, style := lineCommentEnd(text, i)
			kind := LineComment
			if style.IsDoc() {
				kind = DocLineComment
			}
			if !s.region(codeStart, i, end, kind, style) {
				return i, nil
			}
			i, codeStart = end, end

		case c == '/' && i+1 < n && text[i+1] == '*':
			end := blockCommentEnd(text, i)
			style := blockCommentStyle(text, i)
			kind := BlockComment
			if style.IsDoc() {
				kind = DocBlockComment
			}
			if !s.region(codeStart, i, end, kind, style) {
				return i, nil
			}
			i, codeStart = end, end

		case c == '"':
			start, end, raw := i, 0, false
			if p, ok := rawPrefix(text, i, codeStart); ok {
				if e, ok := rawStringEnd(text, i); ok {
					start, end, raw = p, e, true
				}
			}
			kind := StringLiteral
			if raw {
				kind = RawString
			} else {
				end = quotedEnd(text, i, '"')
			}
			if !s.region(codeStart, start, end, kind, StyleNone) {
				return start, nil
			}
			i, codeStart = end, end

		case c == '\'' && !digitSeparator(text, i, codeStart):
			end := quotedEnd(text, i, '\'')
			if !s.region(codeStart, i, end, StringLiteral, StyleNone) {
				return i, nil
			}
			i, codeStart = end, end

		default:
			i++
		}
	}
	s.emit(codeStart, n, Code, StyleNone)
	return n, nil
}

// lineCommentEnd returns the end of the line comment starting at i and its
// style. A backslash at the end of a physical line continues the comment.
// The terminating line break is not included.
func lineCommentEnd(text string, i int) (int, Style) {
	n := len(text)
	style := StyleSlashSlash
	if i+2 < n {
		switch text[i+2] {
		case '/':
			if i+3 >= n || text[i+3] != '/' {
				style = StyleTripleSlash
			}
		case '!':
			style = StyleSlashBang
		}
	}

	for j := i + 2; j < n; j++ {
		if text[j] != '\n' {
			continue
		}
		k := j - 1
		if k >= i+2 && text[k] == '\r' {
			k--
		}
		if k >= i+2 && text[k] == '\\' {
			continue
		}
		if text[j-1] == '\r' && j-1 >= i+2 {
			return j - 1, style
		}
		return j, style
	}
	return n, style
}

// blockCommentEnd returns the offset just past the "*/" closing the block
// comment that starts at i, or len(text) when it is unterminated.
func blockCommentEnd(text string, i int) int {
	if k := strings.Index(text[i+2:], "*/"); k >= 0 {
		return i + 2 + k + 2
	}
	return len(text)
}

// blockCommentStyle decides the documentation status of a block comment
// from the characters after its "/*".
func blockCommentStyle(text string, i int) Style {
	at := func(k int) byte {
		if k < len(text) {
			return text[k]
		}
		return 0
	}
	switch at(i + 2) {
	case '!':
		return StyleSlashStarBang
	case '*':
		switch at(i + 3) {
		case '/':
			// "/**/" is an empty documentation comment.
			return StyleSlashStarStar
		case '*':
			// "/***/" is an empty documentation comment; longer runs are
			// banner decoration.
			if at(i+4) == '/' {
				return StyleSlashStarStar
			}
			return StyleSlashStar
		}
		return StyleSlashStarStar
	}
	return StyleSlashStar
}

// quotedEnd returns the end of a quoted literal opened at i. Escapes are
// honoured, including escaped line breaks; an unescaped line break ends an
// unterminated literal before the break.
func quotedEnd(text string, i int, quote byte) int {
	n := len(text)
	for j := i + 1; j < n; j++ {
		switch text[j] {
		case '\\':
			if j+2 < n && text[j+1] == '\r' && text[j+2] == '\n' {
				j += 2
			} else {
				j++
			}
		case quote:
			return j + 1
		case '\n':
			if text[j-1] == '\r' && j-1 > i {
				return j - 1
			}
			return j
		}
	}
	return n
}

var rawPrefixes = []string{"u8R", "uR", "UR", "LR", "R"}

// rawPrefix reports whether the quote at i is preceded by a raw string
// prefix that starts a new token, returning the prefix offset.
func rawPrefix(text string, i, lowest int) (int, bool) {
	for _, p := range rawPrefixes {
		start := i - len(p)
		if start < lowest || text[start:i] != p {
			continue
		}
		if start > 0 && isIdent(text[start-1]) {
			continue
		}
		return start, true
	}
	return 0, false
}

// rawStringEnd returns the end of the raw string whose quote is at i.
// It fails when the delimiter is malformed, in which case the caller
// treats the quote as an ordinary string.
func rawStringEnd(text string, i int) (int, bool) {
	n := len(text)
	j := i + 1
	for j < n && j-(i+1) <= maxRawDelimiter {
		c := text[j]
		if c == '(' {
			break
		}
		if c == ' ' || c == ')' || c == '\\' || c < 0x20 || c == 0x7f {
			return 0, false
		}
		j++
	}
	if j >= n || text[j] != '(' || j-(i+1) > maxRawDelimiter {
		return 0, false
	}
	closing := ")" + text[i+1:j] + `"`
	if k := strings.Index(text[j+1:], closing); k >= 0 {
		return j + 1 + k + len(closing), true
	}
	return n, true
}

// digitSeparator reports whether the apostrophe at i continues a numeric
// literal, as in 1'000'000 or 0xFF'FF. Only text before i, back to lowest,
// is consulted, so a code span classifies the same on its own.
func digitSeparator(text string, i, lowest int) bool {
	j := i
	for j > lowest {
		c := text[j-1]
		if isIdent(c) || c == '\'' || c == '.' {
			j--
			continue
		}
		break
	}
	return j < i && isDigit(text[j])
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdent(c byte) bool {
	return c == '_' || isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}
