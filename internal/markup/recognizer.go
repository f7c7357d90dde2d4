package markup

import (
	"strings"

	"doxyscan/internal/commands"
	"doxyscan/internal/spans"
)

// Recognizer finds commands of a command table in comment spans. It holds
// no mutable state and may be shared between goroutines.
type Recognizer struct {
	table *commands.Table
}

// New creates a Recognizer for the given table. A nil table selects the
// built-in vocabulary.
func New(table *commands.Table) *Recognizer {
	if table == nil {
		table = commands.Default()
	}
	return &Recognizer{table: table}
}

// Table returns the vocabulary the recognizer matches against.
func (r *Recognizer) Table() *commands.Table { return r.table }

// Recognize scans one comment span of text with the built-in vocabulary.
func Recognize(text string, span spans.Span) Result {
	return New(nil).Recognize(text, span)
}

// Recognize returns the commands and emphasis runs of a documentation
// comment span. Spans of any other kind yield an empty result.
func (r *Recognizer) Recognize(text string, span spans.Span) Result {
	res := Result{Span: span}
	if !span.Kind.IsDoc() || span.End > len(text) {
		return res
	}
	lt := newLogical(text, span)
	sc := &scan{table: r.table, lt: lt}
	sc.run()
	res.Tokens = sc.export()
	res.Emphasis = exportEmphasis(lt, findEmphasis(lt, sc.covered))
	return res
}

// Emphasize returns only the emphasis runs of a comment span. It accepts
// plain comments as well as documentation comments and never recognises
// commands.
func (r *Recognizer) Emphasize(text string, span spans.Span) Result {
	res := Result{Span: span}
	if !span.Kind.IsComment() || span.End > len(text) {
		return res
	}
	lt := newLogical(text, span)
	res.Emphasis = exportEmphasis(lt, findEmphasis(lt, nil))
	return res
}

// RecognizeAll runs Recognize over every documentation span of list.
func (r *Recognizer) RecognizeAll(text string, list []spans.Span) []Result {
	var out []Result
	for _, s := range list {
		if s.Kind.IsDoc() {
			out = append(out, r.Recognize(text, s))
		}
	}
	return out
}

// scan is the state of one recognition pass, in logical coordinates.
type scan struct {
	table   *commands.Table
	lt      *logical
	tokens  []Token
	covered [][2]int
}

func (sc *scan) run() {
	t := sc.lt.text
	for i := 0; i < len(t); {
		if t[i] != '\\' && t[i] != '@' {
			i++
			continue
		}
		next, ok := sc.command(i)
		if !ok {
			i++
			continue
		}
		i = next
	}
}

// command tries to recognise a command whose prefix is at i and returns
// the offset where scanning continues.
func (sc *scan) command(i int) (int, bool) {
	name, nameEnd, ok := sc.matchName(i + 1)
	if !ok {
		return 0, false
	}
	cmd, ok := sc.table.Lookup(name)
	if !ok {
		return 0, false
	}
	if cmd.Position == commands.PositionLineStart && !sc.lt.atLineStart(i) {
		return 0, false
	}

	tok := Token{
		Name:    name,
		Prefix:  string(sc.lt.text[i]),
		Group:   cmd.Group,
		Start:   i,
		NameEnd: nameEnd,
		End:     nameEnd,
		Valid:   true,
	}
	p := &parser{sc: sc, tok: &tok, cmd: cmd, pos: nameEnd, lineEnd: sc.lt.lineEnd(nameEnd)}
	endTok := p.parse()

	sc.tokens = append(sc.tokens, tok)
	sc.covered = append(sc.covered, [2]int{tok.Start, tok.End})
	next := tok.End
	if endTok != nil {
		sc.tokens = append(sc.tokens, *endTok)
		sc.covered = append(sc.covered, [2]int{endTok.Start, endTok.End})
		next = endTok.End
	}
	return next, true
}

// symbolNames are the non-word command names, longest first.
var symbolNames = []string{"---", "--", "::", `\`, "@", "&", "$", "#", "<", ">", "%", `"`, ".", "?", "=", "|", "{", "}", "~"}

// matchName reads a command name starting at j. Word names need a
// boundary after them: neither a word character nor another command
// prefix followed by a letter.
func (sc *scan) matchName(j int) (string, int, bool) {
	t := sc.lt.text
	n := len(t)
	if j >= n {
		return "", 0, false
	}
	if isWordChar(t[j]) {
		k := j
		for k < n && isWordChar(t[k]) {
			k++
		}
		name := string(t[j:k])
		if name == "f" && k < n && strings.IndexByte("$[](){}", t[k]) >= 0 {
			return "f" + string(t[k]), k + 1, true
		}
		if k+1 < n && (t[k] == '\\' || t[k] == '@') && isLetter(t[k+1]) {
			return "", 0, false
		}
		return name, k, true
	}
	for _, sym := range symbolNames {
		if strings.HasPrefix(string(t[j:min(n, j+len(sym))]), sym) {
			return sym, j + len(sym), true
		}
	}
	return "", 0, false
}

// findEnd locates the next occurrence of the named end command at or
// after from, returning the prefix offset and the end of its name.
func (sc *scan) findEnd(from int, name string) (int, int, bool) {
	t := sc.lt.text
	for j := from; j < len(t); j++ {
		if t[j] != '\\' && t[j] != '@' {
			continue
		}
		got, end, ok := sc.matchName(j + 1)
		if ok && got == name {
			return j, end, true
		}
		// An escaped prefix such as "\\" cannot start the end command.
		if ok && (got == `\` || got == "@") {
			j = end - 1
		}
	}
	return 0, 0, false
}

// export converts tokens to source offsets.
func (sc *scan) export() []Token {
	lt := sc.lt
	out := make([]Token, len(sc.tokens))
	for i, tok := range sc.tokens {
		tok.Start = lt.src(tok.Start)
		tok.NameEnd = lt.srcEndOf(tok.NameEnd)
		tok.End = lt.srcEndOf(tok.End)
		tok.Arg.Start = lt.src(tok.Arg.Start)
		tok.Arg.End = lt.srcEndOf(tok.Arg.End)
		if tok.Arg.End < tok.Arg.Start {
			tok.Arg.End = tok.Arg.Start
		}
		if len(tok.Arg.Fields) > 0 {
			fields := make([]Field, len(tok.Arg.Fields))
			for j, f := range tok.Arg.Fields {
				f.Text = lt.str(f.Start, f.End)
				f.Start, f.End = exportRange(lt, f.Start, f.End)
				fields[j] = f
			}
			tok.Arg.Fields = fields
		}
		if len(tok.Arg.Options) > 0 {
			opts := make([]Option, len(tok.Arg.Options))
			for j, o := range tok.Arg.Options {
				o.Start, o.End = exportRange(lt, o.Start, o.End)
				opts[j] = o
			}
			tok.Arg.Options = opts
		}
		if r := tok.Arg.Region; r != nil {
			reg := *r
			reg.Start, reg.End = exportRange(lt, reg.Start, reg.End)
			tok.Arg.Region = &reg
		}
		out[i] = tok
	}
	return out
}

func exportRange(lt *logical, start, end int) (int, int) {
	s := lt.src(start)
	if end <= start {
		return s, s
	}
	return s, lt.srcEndOf(end)
}
