// Package commands holds the closed vocabulary of Doxygen documentation
// commands: their names, where they may appear, the grammar of their
// arguments and the option sets those arguments are checked against.
//
// The vocabulary is data. It ships as an embedded TOML file and is decoded
// once into an immutable Table.
package commands

import "strings"

// Position says where in a comment line a command is recognised.
type Position string

const (
	// PositionLineStart commands must be the first content on their line.
	PositionLineStart Position = "linestart"
	// PositionAnywhere commands may appear in running text.
	PositionAnywhere Position = "anywhere"
)

// PieceKind is one element of a command's argument grammar.
type PieceKind string

const (
	PieceBracket    PieceKind = "bracket"     // [opt,...] option list
	PieceBrace      PieceKind = "brace"       // {opt,...} option list
	PieceWord       PieceKind = "word"        // non-whitespace run
	PieceWordQuoted PieceKind = "wq"          // word or "quoted"
	PieceHeader     PieceKind = "header"      // word, "quoted" or <angled>
	PieceQuoted     PieceKind = "quoted"      // "quoted"
	PieceIDs        PieceKind = "ids"         // a,b,c parameter names
	PieceRef        PieceKind = "ref"         // scoped reference with call args
	PieceFile       PieceKind = "file"        // "quoted" or rest of line
	PieceTitle      PieceKind = "title"       // rest of line
	PieceSizes      PieceKind = "sizes"       // width=.. height=..
	PieceEnum       PieceKind = "enum"        // one word from an enum set
	PieceAttached   PieceKind = "attached"    // word touching the name
	PieceEmoji      PieceKind = "emoji"       // :name: or name
	PieceRegion     PieceKind = "region"      // verbatim text up to an end command
	PieceFormula    PieceKind = "formula"     // formula text up to an end command
	PieceFormulaEnv PieceKind = "formula-env" // {env}{ formula \f}
)

// Piece is a parsed argument grammar element.
type Piece struct {
	Kind     PieceKind
	Ref      string // option set, enum set or end command name
	Optional bool
}

// String returns the piece in table notation, e.g. "bracket:paramdir".
func (p Piece) String() string {
	s := string(p.Kind)
	if p.Ref != "" {
		s += ":" + p.Ref
	}
	if p.Optional && !p.Kind.alwaysOptional() {
		s += "?"
	}
	return s
}

// alwaysOptional reports kinds that may be absent without invalidating
// the command.
func (k PieceKind) alwaysOptional() bool {
	switch k {
	case PieceBracket, PieceBrace, PieceSizes, PieceAttached:
		return true
	}
	return false
}

// needsRef reports kinds that must name an option set, enum set or end
// command.
func (k PieceKind) needsRef() bool {
	switch k {
	case PieceBracket, PieceBrace, PieceEnum, PieceRegion, PieceFormula, PieceFormulaEnv:
		return true
	}
	return false
}

// Command describes one command and its aliases.
type Command struct {
	Names     []string `toml:"names"`
	Group     string   `toml:"group"`
	Position  Position `toml:"position"`
	Args      []string `toml:"args,omitempty"`
	Signature string   `toml:"signature,omitempty"`
	Help      string   `toml:"help,omitempty"`

	pieces []Piece
}

// Pieces returns the parsed argument grammar.
func (c *Command) Pieces() []Piece { return c.pieces }

// Region returns the piece that opens a verbatim or formula region, if any.
func (c *Command) Region() (Piece, bool) {
	for _, p := range c.pieces {
		switch p.Kind {
		case PieceRegion, PieceFormula, PieceFormulaEnv:
			return p, true
		}
	}
	return Piece{}, false
}

// OptionSet is the vocabulary of a bracket or brace option list.
type OptionSet struct {
	Open          string               `toml:"open"`
	CaseSensitive bool                 `toml:"case_sensitive"`
	SpaceBefore   bool                 `toml:"space_before,omitempty"` // whitespace allowed between name and opener
	SpaceAfter    bool                 `toml:"space_after,omitempty"`  // whitespace required after the closer
	Max           int                  `toml:"max,omitempty"`          // maximum number of entries, 0 for no limit
	Separator     string               `toml:"separator,omitempty"`    // key/value separator, "=" when empty
	Mode          string               `toml:"mode,omitempty"`         // "", "free" or "lang"
	Keys          []string             `toml:"keys,omitempty"`
	Values        map[string]ValueSpec `toml:"values,omitempty"`
	Combos        []string             `toml:"combos,omitempty"` // allowed comma-joined key sequences
}

// Close returns the closing delimiter of the set.
func (o *OptionSet) Close() byte {
	if o.Open == "[" {
		return ']'
	}
	return '}'
}

// Sep returns the key/value separator.
func (o *OptionSet) Sep() string {
	if o.Separator == "" {
		return "="
	}
	return o.Separator
}

// ValueSpec constrains the value of a key=value option.
type ValueSpec struct {
	Kind     string `toml:"kind"` // "int" or "text"
	Min      int    `toml:"min,omitempty"`
	Max      int    `toml:"max,omitempty"`
	Optional bool   `toml:"optional,omitempty"` // key may appear without a value
}

// EnumSet is a closed set of words accepted by an enum piece.
type EnumSet struct {
	CaseSensitive bool     `toml:"case_sensitive"`
	Values        []string `toml:"values"`
}

// Contains reports whether word is a member of the set.
func (e *EnumSet) Contains(word string) bool {
	for _, v := range e.Values {
		if v == word || (!e.CaseSensitive && strings.EqualFold(v, word)) {
			return true
		}
	}
	return false
}
