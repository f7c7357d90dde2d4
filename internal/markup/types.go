// Package markup recognises Doxygen commands and markdown emphasis inside
// documentation comments.
//
// Recognition runs on the comment's logical text: backslash-newline
// continuations are joined and comment decoration is ignored. All offsets
// in the results are byte offsets into the original source.
package markup

import "doxyscan/internal/spans"

// Shape classifies the argument grammar of a command.
type Shape string

const (
	ShapeNone      Shape = "none"
	ShapeText      Shape = "text"
	ShapeBracket   Shape = "bracket"
	ShapeBrace     Shape = "brace"
	ShapeQuoted    Shape = "quoted"
	ShapeReference Shape = "reference"
	ShapeRegion    Shape = "region"
	ShapeComposite Shape = "composite"
)

// Role names what an argument field holds.
type Role string

const (
	RoleOptions     Role = "options"
	RoleWord        Role = "word"
	RoleParameter   Role = "parameter"
	RoleReference   Role = "reference"
	RoleQuoted      Role = "quoted"
	RoleHeader      Role = "header"
	RoleFile        Role = "file"
	RoleTitle       Role = "title"
	RoleSize        Role = "size"
	RoleFormat      Role = "format"
	RoleLanguage    Role = "language"
	RoleEmoji       Role = "emoji"
	RoleEnvironment Role = "environment"
)

// Field is one parsed argument piece.
type Field struct {
	Role    Role   `json:"role"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Text    string `json:"text"`
	Valid   bool   `json:"valid"`
	Missing bool   `json:"missing,omitempty"` // required argument absent; Start == End marks the slot
}

// Option is one entry of a bracket or brace option list.
type Option struct {
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Valid bool   `json:"valid"`
}

// Region is the verbatim or formula text opened by a command.
type Region struct {
	Start      int    `json:"start"`
	End        int    `json:"end"`
	EndCommand string `json:"end_command"`
	Terminated bool   `json:"terminated"` // false when the region ran to the end of the comment
	Formula    bool   `json:"formula,omitempty"`
}

// Argument holds everything after a command name that belongs to it.
type Argument struct {
	Shape   Shape    `json:"shape"`
	Start   int      `json:"start"`
	End     int      `json:"end"`
	Fields  []Field  `json:"fields,omitempty"`
	Options []Option `json:"options,omitempty"`
	Region  *Region  `json:"region,omitempty"`
}

// Token is a recognised command.
type Token struct {
	Name    string   `json:"name"`
	Prefix  string   `json:"prefix"` // "\\" or "@"
	Group   string   `json:"group"`
	Start   int      `json:"start"`
	NameEnd int      `json:"name_end"`
	End     int      `json:"end"`
	Arg     Argument `json:"arg"`
	Valid   bool     `json:"valid"`
	Problem string   `json:"problem,omitempty"`
}

// Fields returns the argument fields with the given role.
func (t Token) Fields(role Role) []Field {
	var out []Field
	for _, f := range t.Arg.Fields {
		if f.Role == role {
			out = append(out, f)
		}
	}
	return out
}

// EmphasisKind is the markdown style of an emphasis run.
type EmphasisKind string

const (
	EmphasisItalic EmphasisKind = "italic"
	EmphasisBold   EmphasisKind = "bold"
	EmphasisStrike EmphasisKind = "strike"
	EmphasisCode   EmphasisKind = "code"
)

// Emphasis is a markdown emphasis run including its delimiters.
type Emphasis struct {
	Kind         EmphasisKind `json:"kind"`
	Start        int          `json:"start"`
	End          int          `json:"end"`
	ContentStart int          `json:"content_start"`
	ContentEnd   int          `json:"content_end"`
}

// Result is the recognition output for one comment span.
type Result struct {
	Span     spans.Span `json:"span"`
	Tokens   []Token    `json:"tokens,omitempty"`
	Emphasis []Emphasis `json:"emphasis,omitempty"`
}

// Invalid returns the tokens that were recognised but malformed.
func (r Result) Invalid() []Token {
	var out []Token
	for _, t := range r.Tokens {
		if !t.Valid {
			out = append(out, t)
		}
	}
	return out
}
