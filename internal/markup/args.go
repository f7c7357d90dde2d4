package markup

import (
	"bytes"
	"strings"

	"doxyscan/internal/commands"
)

// parser consumes the arguments of one command according to its pieces.
// All offsets are logical.
type parser struct {
	sc       *scan
	tok      *Token
	cmd      *commands.Command
	pos      int  // end of the last consumed argument
	lineEnd  int  // end of the logical line holding the command name
	consumed bool // at least one piece consumed text
	stopped  bool // a piece failed; only regions are still opened
}

func (p *parser) parse() *Token {
	pieces := p.cmd.Pieces()
	p.tok.Arg.Shape = shapeOf(pieces)

	var endTok *Token
	for _, piece := range pieces {
		switch piece.Kind {
		case commands.PieceRegion, commands.PieceFormula, commands.PieceFormulaEnv:
			endTok = p.region(piece)
			continue
		}
		if p.stopped {
			continue
		}
		p.piece(piece)
	}

	arg := &p.tok.Arg
	switch {
	case len(arg.Fields) > 0:
		arg.Start = arg.Fields[0].Start
	case arg.Region != nil:
		arg.Start = arg.Region.Start
	default:
		arg.Start = p.tok.NameEnd
	}
	if p.pos < p.tok.NameEnd {
		p.pos = p.tok.NameEnd
	}
	arg.End = p.pos
	p.tok.End = p.pos
	return endTok
}

func (p *parser) piece(piece commands.Piece) {
	t := p.sc.lt.text
	switch piece.Kind {
	case commands.PieceBracket, commands.PieceBrace:
		p.options(piece)
	case commands.PieceWord:
		p.word(piece, RoleWord, true)
	case commands.PieceWordQuoted:
		if q, _ := p.next(); q < p.lineEnd && t[q] == '"' {
			p.quoted(piece, RoleQuoted)
			return
		}
		p.word(piece, RoleWord, true)
	case commands.PieceHeader:
		q, _ := p.next()
		switch {
		case q < p.lineEnd && t[q] == '<':
			p.angled(piece)
		case q < p.lineEnd && t[q] == '"':
			p.quoted(piece, RoleHeader)
		default:
			p.word(piece, RoleHeader, false)
		}
	case commands.PieceQuoted:
		p.quoted(piece, RoleQuoted)
	case commands.PieceIDs:
		p.ids()
	case commands.PieceRef:
		p.reference(piece)
	case commands.PieceFile:
		if q, _ := p.next(); q < p.lineEnd && t[q] == '"' {
			p.quoted(piece, RoleFile)
			return
		}
		p.rest(piece, RoleFile)
	case commands.PieceTitle:
		p.rest(piece, RoleTitle)
	case commands.PieceSizes:
		p.sizes()
	case commands.PieceEnum:
		p.enum(piece)
	case commands.PieceAttached:
		p.attached()
	case commands.PieceEmoji:
		p.word(piece, RoleEmoji, false)
	}
}

// next returns where the next argument starts and whether it is properly
// separated from what came before.
func (p *parser) next() (int, bool) {
	q := p.sc.lt.skipBlank(p.pos, p.lineEnd)
	return q, q > p.pos || !p.consumed
}

func (p *parser) add(f Field) {
	p.tok.Arg.Fields = append(p.tok.Arg.Fields, f)
}

func (p *parser) accept(role Role, from, to int) {
	p.add(Field{Role: role, Start: from, End: to, Valid: true})
	p.pos = to
	p.consumed = true
}

func (p *parser) fail(problem string) {
	p.tok.Valid = false
	if p.tok.Problem == "" {
		p.tok.Problem = problem
	}
	p.stopped = true
}

func (p *parser) missing(role Role, at int, problem string) {
	p.add(Field{Role: role, Start: at, End: at, Missing: true})
	p.fail(problem)
}

func (p *parser) invalid(role Role, from, to int, problem string) {
	p.add(Field{Role: role, Start: from, End: to})
	if to > p.pos {
		p.pos = to
	}
	p.fail(problem)
}

// runEnd returns the end of the non-whitespace run starting at q.
func (p *parser) runEnd(q int) int {
	t := p.sc.lt.text
	k := q
	for k < p.lineEnd && !isBlank(t[k]) {
		k++
	}
	return k
}

func (p *parser) word(piece commands.Piece, role Role, strip bool) {
	q, sep := p.next()
	if q >= p.lineEnd {
		if !piece.Optional {
			p.missing(role, q, "missing "+string(role))
		}
		return
	}
	k := p.runEnd(q)
	if strip {
		t := p.sc.lt.text
		for k > q+1 && strings.IndexByte(".,;:!?", t[k-1]) >= 0 {
			k--
		}
	}
	if !sep {
		if !piece.Optional {
			p.invalid(role, q, k, "argument must be separated by whitespace")
		}
		return
	}
	p.accept(role, q, k)
}

func (p *parser) quoted(piece commands.Piece, role Role) {
	t := p.sc.lt.text
	q, sep := p.next()
	if q >= p.lineEnd || t[q] != '"' {
		if !piece.Optional {
			p.missing(role, q, "expected a quoted string")
		}
		return
	}
	if !sep {
		if !piece.Optional {
			p.invalid(role, q, p.runEnd(q), "argument must be separated by whitespace")
		}
		return
	}
	rel := bytes.IndexByte(t[q+1:p.lineEnd], '"')
	if rel < 0 {
		p.invalid(role, q, p.lineEnd, "unterminated quoted string")
		return
	}
	p.accept(role, q, q+1+rel+1)
}

func (p *parser) angled(piece commands.Piece) {
	t := p.sc.lt.text
	q, sep := p.next()
	if !sep {
		if !piece.Optional {
			p.invalid(RoleHeader, q, p.runEnd(q), "argument must be separated by whitespace")
		}
		return
	}
	rel := bytes.IndexByte(t[q+1:p.lineEnd], '>')
	if rel < 0 {
		p.invalid(RoleHeader, q, p.lineEnd, "unterminated header name")
		return
	}
	p.accept(RoleHeader, q, q+1+rel+1)
}

// rest takes the remainder of the logical line. An optional empty
// remainder still records an empty slot.
func (p *parser) rest(piece commands.Piece, role Role) {
	t := p.sc.lt.text
	q := p.sc.lt.skipBlank(p.pos, p.lineEnd)
	e := p.lineEnd
	for e > q && isBlank(t[e-1]) {
		e--
	}
	if e == q {
		if !piece.Optional {
			p.missing(role, q, "missing "+string(role))
			return
		}
		p.add(Field{Role: role, Start: q, End: q, Valid: true})
		return
	}
	p.accept(role, q, e)
}

// ids reads parameter names: "x", "x,y,z", "args..." or "...".
func (p *parser) ids() {
	t := p.sc.lt.text
	q, sep := p.next()
	if q >= p.lineEnd {
		p.missing(RoleParameter, q, "missing parameter name")
		return
	}
	if !sep {
		p.invalid(RoleParameter, q, p.runEnd(q), "argument must be separated by whitespace")
		return
	}

	var names [][2]int
	k := q
	for {
		start := k
		switch {
		case bytes.HasPrefix(t[k:p.lineEnd], []byte("...")):
			k += 3
		case isLetter(t[k]) || t[k] == '_':
			for k < p.lineEnd && isWordChar(t[k]) {
				k++
			}
			if bytes.HasPrefix(t[k:p.lineEnd], []byte("...")) {
				k += 3
			}
		default:
			p.invalid(RoleParameter, q, p.runEnd(q), "malformed parameter name")
			return
		}
		names = append(names, [2]int{start, k})
		if k+1 < p.lineEnd && t[k] == ',' {
			k++
			continue
		}
		break
	}
	if k < p.lineEnd && !isBlank(t[k]) {
		p.invalid(RoleParameter, q, p.runEnd(q), "malformed parameter name")
		return
	}
	for _, n := range names {
		p.accept(RoleParameter, n[0], n[1])
	}
}

func (p *parser) reference(piece commands.Piece) {
	t := p.sc.lt.text
	q, sep := p.next()
	if q >= p.lineEnd {
		if !piece.Optional {
			p.missing(RoleReference, q, "missing reference")
		}
		return
	}
	end, found, balanced := scanReference(t, q, p.lineEnd)
	if !found {
		if !piece.Optional {
			p.missing(RoleReference, q, "expected a reference")
		}
		return
	}
	if !sep {
		if !piece.Optional {
			p.invalid(RoleReference, q, end, "argument must be separated by whitespace")
		}
		return
	}
	if !balanced {
		p.invalid(RoleReference, q, p.lineEnd, "unbalanced parenthesis in reference")
		return
	}
	p.accept(RoleReference, q, end)
}

var sizeKeys = [][]byte{[]byte("width="), []byte("height=")}

// sizes reads any number of width=/height= indications.
func (p *parser) sizes() {
	t := p.sc.lt.text
	for {
		q, sep := p.next()
		if !sep || q >= p.lineEnd {
			return
		}
		k := p.runEnd(q)
		matched := false
		for _, key := range sizeKeys {
			if bytes.HasPrefix(t[q:k], key) && k-q > len(key) {
				matched = true
			}
		}
		if !matched {
			return
		}
		p.accept(RoleSize, q, k)
	}
}

func (p *parser) enum(piece commands.Piece) {
	set, _ := p.sc.table.EnumSet(piece.Ref)
	q, sep := p.next()
	if q >= p.lineEnd {
		if !piece.Optional {
			p.missing(RoleFormat, q, "missing "+piece.Ref)
		}
		return
	}
	k := p.runEnd(q)
	if !sep || !set.Contains(string(p.sc.lt.text[q:k])) {
		p.invalid(RoleFormat, q, k, "unknown "+piece.Ref)
		return
	}
	p.accept(RoleFormat, q, k)
}

// attached reads a word that touches the command name, as in \~english.
func (p *parser) attached() {
	t := p.sc.lt.text
	k := p.pos
	for k < p.lineEnd && isWordChar(t[k]) {
		k++
	}
	if k > p.pos {
		p.accept(RoleLanguage, p.pos, k)
	}
}

func (p *parser) options(piece commands.Piece) {
	set, _ := p.sc.table.OptionSet(piece.Ref)
	t := p.sc.lt.text
	q := p.pos
	if set.SpaceBefore {
		q = p.sc.lt.skipBlank(p.pos, p.lineEnd)
	}
	if q >= p.lineEnd || t[q] != set.Open[0] {
		// A detached list is not an argument of any later piece either.
		if b := p.sc.lt.skipBlank(p.pos, p.lineEnd); b > q && b < p.lineEnd && t[b] == set.Open[0] {
			p.fail("option list must touch the command")
		}
		return
	}

	closer := set.Close()
	rel := bytes.IndexByte(t[q+1:p.lineEnd], closer)
	if rel < 0 {
		p.invalid(RoleOptions, q, p.lineEnd, "unterminated option list")
		return
	}
	c := q + 1 + rel
	e := c + 1
	if e < p.lineEnd && t[e] == closer {
		p.invalid(RoleOptions, q, e+1, "unbalanced option list")
		return
	}
	if set.SpaceAfter && e < p.lineEnd && !isBlank(t[e]) {
		p.invalid(RoleOptions, q, e, "option list must be followed by whitespace")
		return
	}

	opts, ok := parseOptions(set, t, q+1, c)
	p.tok.Arg.Options = append(p.tok.Arg.Options, opts...)
	p.add(Field{Role: RoleOptions, Start: q, End: e, Valid: ok})
	p.pos = e
	p.consumed = true
	if !ok {
		p.fail("invalid option")
	}
}

// region opens a verbatim or formula region that runs to the matching end
// command, or to the end of the comment. It returns the end command token.
func (p *parser) region(piece commands.Piece) *Token {
	lt := p.sc.lt
	t := lt.text
	start := p.pos

	if piece.Kind == commands.PieceFormulaEnv && !p.stopped {
		rel := bytes.IndexByte(t[start:p.lineEnd], '}')
		switch {
		case rel < 0:
			p.invalid(RoleEnvironment, start, p.lineEnd, "unterminated formula environment")
		case rel == 0:
			p.invalid(RoleEnvironment, start, start+1, "empty formula environment")
		default:
			p.accept(RoleEnvironment, start, start+rel)
			p.pos = start + rel + 1
			if p.pos < len(t) && t[p.pos] == '{' {
				p.pos++
			}
		}
		start = p.pos
	}

	reg := &Region{
		Start:      start,
		EndCommand: piece.Ref,
		Formula:    piece.Kind != commands.PieceRegion,
	}
	p.tok.Arg.Region = reg

	j, nameEnd, found := p.sc.findEnd(start, piece.Ref)
	if !found {
		reg.End = max(lt.bodyEnd, start)
		p.pos = reg.End
		return nil
	}
	reg.End = j
	reg.Terminated = true
	p.pos = j

	group := ""
	if cmd, ok := p.sc.table.Lookup(piece.Ref); ok {
		group = cmd.Group
	}
	return &Token{
		Name:    piece.Ref,
		Prefix:  string(t[j]),
		Group:   group,
		Start:   j,
		NameEnd: nameEnd,
		End:     nameEnd,
		Arg:     Argument{Shape: ShapeNone, Start: nameEnd, End: nameEnd},
		Valid:   true,
	}
}

func shapeOf(pieces []commands.Piece) Shape {
	if len(pieces) == 0 {
		return ShapeNone
	}
	for _, pc := range pieces {
		switch pc.Kind {
		case commands.PieceRegion, commands.PieceFormula, commands.PieceFormulaEnv:
			return ShapeRegion
		}
	}
	single := len(pieces) == 1
	switch pieces[0].Kind {
	case commands.PieceBracket:
		if single {
			return ShapeBracket
		}
	case commands.PieceBrace:
		if single {
			return ShapeBrace
		}
	case commands.PieceQuoted:
		if single {
			return ShapeQuoted
		}
	case commands.PieceRef:
		if single || (len(pieces) == 2 && pieces[1].Kind == commands.PieceQuoted) {
			return ShapeReference
		}
	case commands.PieceTitle, commands.PieceFile:
		if single {
			return ShapeText
		}
	}
	return ShapeComposite
}
