// Package highlight turns classified spans and recognised commands into a
// flat list of styled ranges for editors and terminals.
package highlight

import (
	"context"
	"sort"

	"doxyscan/internal/markup"
	"doxyscan/internal/spans"
)

// Class names the style of a range.
type Class string

const (
	ClassLineComment     Class = "line_comment"
	ClassDocLineComment  Class = "doc_line_comment"
	ClassBlockComment    Class = "block_comment"
	ClassDocBlockComment Class = "doc_block_comment"
	ClassString          Class = "string"

	ClassCommand    Class = "command"
	ClassEscape     Class = "escape"
	ClassParameter  Class = "parameter"
	ClassTitle      Class = "title"
	ClassOption     Class = "option"
	ClassReference  Class = "reference"
	ClassQuoted     Class = "quoted"
	ClassRegion     Class = "region"
	ClassFormula    Class = "formula"
	ClassBold       Class = "bold"
	ClassItalic     Class = "italic"
	ClassStrike     Class = "strike"
	ClassInlineCode Class = "inline_code"
)

// Range is a styled byte range [Start, End) of the input.
type Range struct {
	Start int   `json:"start"`
	End   int   `json:"end"`
	Class Class `json:"class"`
}

// HighlightSink receives ranges. A comment range is delivered before the
// ranges nested in it.
type HighlightSink interface {
	Highlight(r Range)
}

// Options selects what gets highlighted.
type Options struct {
	DocLineComments  bool `json:"doc_line_comments" mapstructure:"doc_line_comments"`
	DocBlockComments bool `json:"doc_block_comments" mapstructure:"doc_block_comments"`
	Emphasis         bool `json:"emphasis" mapstructure:"emphasis"`
	PlainEmphasis    bool `json:"plain_emphasis" mapstructure:"plain_emphasis"` // emphasis inside ordinary comments
}

// DefaultOptions highlights both documentation styles with emphasis, and
// leaves ordinary comments plain.
func DefaultOptions() Options {
	return Options{
		DocLineComments:  true,
		DocBlockComments: true,
		Emphasis:         true,
	}
}

// Highlighter produces ranges for a whole text.
type Highlighter struct {
	recognizer *markup.Recognizer
	opts       Options
}

// New creates a Highlighter. A nil recognizer selects the built-in
// vocabulary.
func New(r *markup.Recognizer, opts Options) *Highlighter {
	if r == nil {
		r = markup.New(nil)
	}
	return &Highlighter{recognizer: r, opts: opts}
}

// Run classifies text and sends its ranges to sink in source order.
func (h *Highlighter) Run(ctx context.Context, text string, sink HighlightSink) error {
	list, err := spans.ClassifyContext(ctx, text)
	if err != nil {
		return err
	}
	for _, s := range list {
		if err := ctx.Err(); err != nil {
			return err
		}
		h.span(text, s, sink)
	}
	return nil
}

func (h *Highlighter) span(text string, s spans.Span, sink HighlightSink) {
	switch s.Kind {
	case spans.Code:
		return
	case spans.StringLiteral, spans.RawString:
		sink.Highlight(Range{Start: s.Start, End: s.End, Class: ClassString})
		return
	}

	sink.Highlight(Range{Start: s.Start, End: s.End, Class: commentClass(s.Kind)})

	var inner []Range
	switch {
	case h.enabled(s.Kind):
		res := h.recognizer.Recognize(text, s)
		for _, tok := range res.Tokens {
			inner = append(inner, tokenRanges(tok)...)
		}
		if h.opts.Emphasis {
			inner = append(inner, emphasisRanges(res.Emphasis)...)
		}
	case h.opts.PlainEmphasis:
		inner = emphasisRanges(h.recognizer.Emphasize(text, s).Emphasis)
	}

	sort.SliceStable(inner, func(i, j int) bool {
		if inner[i].Start != inner[j].Start {
			return inner[i].Start < inner[j].Start
		}
		return inner[i].End > inner[j].End
	})
	for _, r := range inner {
		sink.Highlight(r)
	}
}

func (h *Highlighter) enabled(k spans.Kind) bool {
	switch k {
	case spans.DocLineComment:
		return h.opts.DocLineComments
	case spans.DocBlockComment:
		return h.opts.DocBlockComments
	}
	return false
}

func commentClass(k spans.Kind) Class {
	switch k {
	case spans.DocLineComment:
		return ClassDocLineComment
	case spans.BlockComment:
		return ClassBlockComment
	case spans.DocBlockComment:
		return ClassDocBlockComment
	}
	return ClassLineComment
}

// tokenRanges styles a command. Malformed commands keep their name and the
// option entries that were acceptable on their own.
func tokenRanges(tok markup.Token) []Range {
	nameClass := ClassCommand
	if tok.Group == "escape" {
		nameClass = ClassEscape
	}
	out := []Range{{Start: tok.Start, End: tok.NameEnd, Class: nameClass}}

	if !tok.Valid {
		for _, o := range tok.Arg.Options {
			if o.Valid && o.End > o.Start {
				out = append(out, Range{Start: o.Start, End: o.End, Class: ClassOption})
			}
		}
		return out
	}

	for _, f := range tok.Arg.Fields {
		if !f.Valid || f.End <= f.Start {
			continue
		}
		out = append(out, Range{Start: f.Start, End: f.End, Class: fieldClass(f.Role)})
	}
	if reg := tok.Arg.Region; reg != nil && reg.End > reg.Start {
		c := ClassRegion
		if reg.Formula {
			c = ClassFormula
		}
		out = append(out, Range{Start: reg.Start, End: reg.End, Class: c})
	}
	return out
}

func fieldClass(role markup.Role) Class {
	switch role {
	case markup.RoleOptions:
		return ClassOption
	case markup.RoleParameter:
		return ClassParameter
	case markup.RoleReference:
		return ClassReference
	case markup.RoleQuoted, markup.RoleHeader:
		return ClassQuoted
	}
	return ClassTitle
}

func emphasisRanges(list []markup.Emphasis) []Range {
	out := make([]Range, 0, len(list))
	for _, e := range list {
		var c Class
		switch e.Kind {
		case markup.EmphasisBold:
			c = ClassBold
		case markup.EmphasisStrike:
			c = ClassStrike
		case markup.EmphasisCode:
			c = ClassInlineCode
		default:
			c = ClassItalic
		}
		out = append(out, Range{Start: e.Start, End: e.End, Class: c})
	}
	return out
}
