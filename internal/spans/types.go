// Package spans splits C-family source text into code, string and comment
// regions. Every byte of the input belongs to exactly one span, and
// documentation comments are told apart from ordinary ones by their opener.
package spans

// Kind is the category of a span.
type Kind string

const (
	Code            Kind = "code"
	StringLiteral   Kind = "string"
	RawString       Kind = "raw_string"
	LineComment     Kind = "line_comment"
	DocLineComment  Kind = "doc_line_comment"
	BlockComment    Kind = "block_comment"
	DocBlockComment Kind = "doc_block_comment"
)

// IsComment reports whether the kind is any of the four comment kinds.
func (k Kind) IsComment() bool {
	switch k {
	case LineComment, DocLineComment, BlockComment, DocBlockComment:
		return true
	}
	return false
}

// IsDoc reports whether the kind is a documentation comment.
func (k Kind) IsDoc() bool {
	return k == DocLineComment || k == DocBlockComment
}

// Style records the comment opener a span was introduced with.
type Style string

const (
	StyleNone          Style = ""
	StyleSlashSlash    Style = "//"
	StyleTripleSlash   Style = "///"
	StyleSlashBang     Style = "//!"
	StyleSlashStar     Style = "/*"
	StyleSlashStarStar Style = "/**"
	StyleSlashStarBang Style = "/*!"
)

// IsDoc reports whether comments opened with this style are documentation.
func (s Style) IsDoc() bool {
	switch s {
	case StyleTripleSlash, StyleSlashBang, StyleSlashStarStar, StyleSlashStarBang:
		return true
	}
	return false
}

// Span is a half-open byte range [Start, End) of the input.
type Span struct {
	Start int   `json:"start"`
	End   int   `json:"end"`
	Kind  Kind  `json:"kind"`
	Style Style `json:"style,omitempty"` // Comment opener, empty for code and strings
}

// Len returns the span length in bytes.
func (s Span) Len() int { return s.End - s.Start }

// Contains reports whether off lies inside the span.
func (s Span) Contains(off int) bool { return off >= s.Start && off < s.End }

// Text returns the span's slice of src.
func (s Span) Text(src string) string { return src[s.Start:s.End] }

// Edit describes a single replacement: OldLen bytes at Offset were replaced
// by NewLen bytes.
type Edit struct {
	Offset int `json:"offset"`
	OldLen int `json:"old_len"`
	NewLen int `json:"new_len"`
}

// Find returns the index of the span containing off, using binary search.
// The second result is false when off is outside every span.
func Find(list []Span, off int) (int, bool) {
	lo, hi := 0, len(list)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case off < list[mid].Start:
			hi = mid
		case off >= list[mid].End:
			lo = mid + 1
		default:
			return mid, true
		}
	}
	return lo, false
}

// Docs returns only the documentation comment spans of list.
func Docs(list []Span) []Span {
	var out []Span
	for _, s := range list {
		if s.Kind.IsDoc() {
			out = append(out, s)
		}
	}
	return out
}
