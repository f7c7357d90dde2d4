// Package complete offers parameter names for the argument slot of
// @param and @tparam commands, taken from the declaration that follows the
// documentation comment.
package complete

import (
	"context"
	"sort"
	"strings"

	"doxyscan/internal/decl"
	"doxyscan/internal/markup"
	"doxyscan/internal/spans"
)

// CompletionSource produces the declaration that starts at offset.
type CompletionSource interface {
	Declaration(ctx context.Context, text string, offset int) (decl.Declaration, error)
}

// HeuristicSource uses the lexical extractor.
type HeuristicSource struct{}

// Declaration implements CompletionSource.
func (HeuristicSource) Declaration(ctx context.Context, text string, offset int) (decl.Declaration, error) {
	return decl.Heuristic{}.Extract(ctx, text[offset:])
}

// TreeSitterSource uses a tree-sitter parse. It is unavailable without
// cgo; Provider then falls back to the heuristic.
type TreeSitterSource struct {
	Extractor *decl.TreeSitterExtractor
}

// NewTreeSitterSource returns a source backed by a fresh parser.
func NewTreeSitterSource() *TreeSitterSource {
	return &TreeSitterSource{Extractor: decl.NewTreeSitterExtractor()}
}

// Declaration implements CompletionSource.
func (s *TreeSitterSource) Declaration(ctx context.Context, text string, offset int) (decl.Declaration, error) {
	return s.Extractor.Extract(ctx, text[offset:])
}

// Item is one offered parameter name.
type Item struct {
	Name       string `json:"name"`
	Variadic   bool   `json:"variadic,omitempty"`
	Documented bool   `json:"documented"` // already described in the same comment block
}

// Completion describes where the name goes and what can be inserted.
type Completion struct {
	Command     string           `json:"command"` // "param" or "tparam"
	Start       int              `json:"start"`   // replacement range
	End         int              `json:"end"`
	Prefix      string           `json:"prefix"`
	Separator   string           `json:"separator,omitempty"` // inserted before the name when the cursor touches the command
	DeclStart   int              `json:"decl_start"`
	Declaration decl.Declaration `json:"declaration"`
	Items       []Item           `json:"items"`
}

// Provider answers completion requests.
type Provider struct {
	recognizer *markup.Recognizer
	source     CompletionSource
}

// NewProvider creates a provider. A nil recognizer selects the built-in
// vocabulary and a nil source the heuristic extractor.
func NewProvider(r *markup.Recognizer, source CompletionSource) *Provider {
	if r == nil {
		r = markup.New(nil)
	}
	if source == nil {
		source = HeuristicSource{}
	}
	return &Provider{recognizer: r, source: source}
}

// Complete returns the completion for the cursor at offset. It reports
// false when the cursor is not in the name slot of a @param or @tparam
// command, or when ctx is done.
func (p *Provider) Complete(ctx context.Context, text string, offset int) (Completion, bool) {
	if offset < 0 || offset > len(text) || ctx.Err() != nil {
		return Completion{}, false
	}
	list := spans.Classify(text)
	idx, ok := docSpanAt(list, offset)
	if !ok {
		return Completion{}, false
	}

	res := p.recognizer.Recognize(text, list[idx])
	c, tok, ok := slot(text, res, offset)
	if !ok {
		return Completion{}, false
	}

	first, last := docRun(text, list, idx)
	c.DeclStart = list[last].End
	d, err := p.source.Declaration(ctx, text, c.DeclStart)
	if err != nil {
		if ctx.Err() != nil {
			return Completion{}, false
		}
		d = decl.Extract(text[c.DeclStart:])
	}
	c.Declaration = d

	documented := p.documented(text, list[first:last+1], c.Command, tok)
	params := d.FunctionParams()
	if c.Command == "tparam" {
		params = d.TemplateParams()
	}
	for _, prm := range params {
		if !prm.Named || !strings.HasPrefix(prm.Name, c.Prefix) {
			continue
		}
		c.Items = append(c.Items, Item{Name: prm.Name, Variadic: prm.Variadic, Documented: documented[prm.Name]})
	}
	return c, true
}

// docSpanAt finds the documentation span holding the cursor. A cursor at
// the end of a line comment belongs to it.
func docSpanAt(list []spans.Span, offset int) (int, bool) {
	if i, ok := spans.Find(list, offset); ok && list[i].Kind.IsDoc() {
		return i, true
	}
	if offset > 0 {
		if i, ok := spans.Find(list, offset-1); ok && list[i].Kind.IsDoc() && list[i].End == offset {
			return i, true
		}
	}
	return 0, false
}

// docRun widens the span at idx to the run of documentation comments that
// are separated by whitespace only.
func docRun(text string, list []spans.Span, idx int) (int, int) {
	joinable := func(s spans.Span) bool {
		return s.Kind == spans.Code && strings.TrimSpace(s.Text(text)) == ""
	}
	first := idx
	for first >= 2 && joinable(list[first-1]) && list[first-2].Kind.IsDoc() {
		first -= 2
	}
	last := idx
	for last+2 < len(list) && joinable(list[last+1]) && list[last+2].Kind.IsDoc() {
		last += 2
	}
	return first, last
}

// Block is a run of documentation comments separated only by
// whitespace, as indices into a span list.
type Block struct {
	First int
	Last  int
}

// DocBlocks returns the documentation blocks of list in source order.
func DocBlocks(text string, list []spans.Span) []Block {
	var out []Block
	for i := 0; i < len(list); i++ {
		if !list[i].Kind.IsDoc() {
			continue
		}
		_, last := docRun(text, list, i)
		out = append(out, Block{First: i, Last: last})
		i = last
	}
	return out
}

// slot locates the name slot under the cursor.
func slot(text string, res markup.Result, offset int) (Completion, *markup.Token, bool) {
	for i := range res.Tokens {
		tok := &res.Tokens[i]
		if tok.Name != "param" && tok.Name != "tparam" {
			continue
		}
		if offset < tok.NameEnd {
			continue
		}
		argStart := tok.NameEnd
		var missing *markup.Field
		for j := range tok.Arg.Fields {
			f := &tok.Arg.Fields[j]
			switch {
			case f.Role == markup.RoleOptions:
				argStart = f.End
			case f.Role == markup.RoleParameter && f.Missing:
				missing = f
			case f.Role == markup.RoleParameter && offset >= f.Start && offset <= f.End:
				return Completion{
					Command: tok.Name,
					Start:   f.Start,
					End:     f.End,
					Prefix:  text[f.Start:offset],
				}, tok, true
			}
		}
		if missing == nil || offset < argStart || offset > missing.Start {
			continue
		}
		if strings.TrimSpace(text[argStart:offset]) != "" {
			continue
		}
		c := Completion{Command: tok.Name, Start: offset, End: offset}
		if offset == argStart {
			c.Separator = " "
		}
		return c, tok, true
	}
	return Completion{}, nil, false
}

// documented collects the names already given to the same command in the
// comment run, except the one being edited.
func (p *Provider) documented(text string, run []spans.Span, command string, editing *markup.Token) map[string]bool {
	out := map[string]bool{}
	for _, s := range run {
		if !s.Kind.IsDoc() {
			continue
		}
		for _, tok := range p.recognizer.Recognize(text, s).Tokens {
			if tok.Name != command || tok.Start == editing.Start {
				continue
			}
			for _, f := range tok.Fields(markup.RoleParameter) {
				if f.Valid {
					out[f.Text] = true
				}
			}
		}
	}
	return out
}

// Stubs returns one "@tparam name" or "@param name" line per named
// parameter of d, template parameters first. prefix is "@" or "\\".
func Stubs(d decl.Declaration, prefix string) []string {
	var out []string
	for _, p := range d.TemplateParams() {
		if p.Named {
			out = append(out, prefix+"tparam "+p.Name)
		}
	}
	for _, p := range d.FunctionParams() {
		if p.Named {
			out = append(out, prefix+"param "+p.Name)
		}
	}
	return out
}

// Undocumented returns the named parameters of d that have no @param or
// @tparam in result, sorted by kind then declaration order.
func Undocumented(d decl.Declaration, results []markup.Result) []decl.Parameter {
	seen := map[string]bool{}
	for _, res := range results {
		for _, tok := range res.Tokens {
			if tok.Name != "param" && tok.Name != "tparam" {
				continue
			}
			for _, f := range tok.Fields(markup.RoleParameter) {
				if f.Valid {
					seen[tok.Name+":"+f.Text] = true
				}
			}
		}
	}
	var out []decl.Parameter
	for _, p := range d.Params {
		cmd := "param"
		if p.Template {
			cmd = "tparam"
		}
		if p.Named && !seen[cmd+":"+p.Name] {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Template && !out[j].Template })
	return out
}
