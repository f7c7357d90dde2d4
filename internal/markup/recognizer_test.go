package markup

import (
	"reflect"
	"testing"

	"doxyscan/internal/spans"
	"doxyscan/internal/testutil"
)

// recognizeLine runs the recognizer over a single "///" comment.
func recognizeLine(t *testing.T, line string) (string, Result) {
	t.Helper()
	text := "/// " + line
	list := spans.Classify(text)
	if len(list) != 1 || list[0].Kind != spans.DocLineComment {
		t.Fatalf("unexpected spans for %q: %v", text, list)
	}
	return text, Recognize(text, list[0])
}

func tokenNames(res Result) []string {
	var out []string
	for _, tok := range res.Tokens {
		out = append(out, tok.Name)
	}
	return out
}

func fieldTexts(tok Token, role Role) []string {
	var out []string
	for _, f := range tok.Fields(role) {
		out = append(out, f.Text)
	}
	return out
}

func TestRecognizeValidity(t *testing.T) {
	tests := []struct {
		line  string
		name  string
		valid bool
	}{
		{`\param[in] src description`, "param", true},
		{`\param[in,out] p In and out param`, "param", true},
		{`\param[ out 	 ]  test Description`, "param", true},
		{`\param[out,in] test`, "param", false},
		{`\param[in,in] x`, "param", false},
		{`\param[OUT] param`, "param", false},
		{`\param[ out Nothing`, "param", false},
		{`\param > The`, "param", false},
		{`\param [in] x`, "param", false},
		{`\param`, "param", false},
		{`\inheritancegraph{  YES  }`, "inheritancegraph", true},
		{`\inheritancegraph{unknown}`, "inheritancegraph", false},
		{`\fileinfo{FULL} text`, "fileinfo", true},
		{`\fileinfo{full,name} text`, "fileinfo", false},
		{`\tableofcontents{xml , html : 2 , latex,docbook:3} x`, "tableofcontents", true},
		{`\tableofcontents{XML: 6}some text`, "tableofcontents", true},
		{`\tableofcontents{xml:7} x`, "tableofcontents", false},
		{`\tableofcontents{xml:unknownLevel} x`, "tableofcontents", false},
		{`\include{raise = 1 } include_test.cpp`, "include", true},
		{`\include{doc}} x`, "include", false},
		{`\include{local,STRIP} x`, "include", false},
		{`\includedoc{local} x`, "includedoc", false},
		{`\snippet{prefix = some prefix , doc} example.cpp resource`, "snippet", true},
		{`\snippet{local,} example.cpp  resource`, "snippet", true},
		{`\htmlinclude[block]   html.cpp allowed`, "htmlinclude", true},
		{`\htmlinclude[block]] not allowed`, "htmlinclude", false},
		{`\htmlinclude[   block   ]Missing space`, "htmlinclude", false},
		{`\class Test1 class.h "inc dir/class.h"`, "class", true},
		{`\qualifier "SOMEQUALI text" quote`, "qualifier", true},
		{`\image latex application.eps "My application" width=10cm`, "image", true},
		{`\image latexs is not allowed`, "image", false},
		{`\emoji :smile: more`, "emoji", true},
		{`\include {local}  Only partial highlight because whitespace after include not allowed`, "include", false},
		{`\snippet {local} example.cpp Only partial highlight because whitespace after snippet not allowed`, "snippet", false},
		{`\htmlonly  [block] The block is not highlighted because space before [ is not allowed.`, "htmlonly", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, res := recognizeLine(t, tt.line)
			if len(res.Tokens) == 0 {
				t.Fatalf("no tokens")
			}
			tok := res.Tokens[0]
			if tok.Name != tt.name {
				t.Fatalf("Name = %q, want %q", tok.Name, tt.name)
			}
			if tok.Valid != tt.valid {
				t.Errorf("Valid = %v, want %v (problem %q)", tok.Valid, tt.valid, tok.Problem)
			}
			if !tok.Valid && tok.Problem == "" {
				t.Error("invalid token without a problem")
			}
		})
	}
}

func TestRecognizeParamDirection(t *testing.T) {
	text, res := recognizeLine(t, `\param[in] src description`)
	if len(res.Tokens) != 1 {
		t.Fatalf("tokens = %v", tokenNames(res))
	}
	tok := res.Tokens[0]
	if tok.Arg.Shape != ShapeComposite {
		t.Errorf("Shape = %q", tok.Arg.Shape)
	}
	if len(tok.Arg.Options) != 1 || tok.Arg.Options[0].Key != "in" || !tok.Arg.Options[0].Valid {
		t.Errorf("Options = %+v", tok.Arg.Options)
	}
	if got := fieldTexts(tok, RoleParameter); !reflect.DeepEqual(got, []string{"src"}) {
		t.Errorf("parameters = %v", got)
	}
	if got := text[tok.Start:tok.NameEnd]; got != `\param` {
		t.Errorf("name text = %q", got)
	}
	if got := text[tok.Start:tok.End]; got != `\param[in] src` {
		t.Errorf("token text = %q", got)
	}
}

func TestRecognizeParamNames(t *testing.T) {
	_, res := recognizeLine(t, `\param x,y,z Coordinates of the position.`)
	tok := res.Tokens[0]
	if got := fieldTexts(tok, RoleParameter); !reflect.DeepEqual(got, []string{"x", "y", "z"}) {
		t.Errorf("parameters = %v", got)
	}

	_, res = recognizeLine(t, `\param`)
	tok = res.Tokens[0]
	fields := tok.Fields(RoleParameter)
	if len(fields) != 1 || !fields[0].Missing || fields[0].Start != fields[0].End {
		t.Errorf("expected a missing parameter slot, got %+v", fields)
	}
}

func TestRecognizeOptionEntries(t *testing.T) {
	tests := []struct {
		line  string
		keys  []string
		valid []bool
	}{
		{`\include{doc,raise=6} x`, []string{"doc", "raise"}, []bool{true, false}},
		{`\include{local,unknownlocal} x`, []string{"local", "unknownlocal"}, []bool{true, false}},
		{`\snippet{doc, prefix=some prefix, unknownlocal} x`, []string{"doc", "prefix", "unknownlocal"}, []bool{true, true, false}},
		{`\tableofcontents{ XML } x`, []string{"xml"}, []bool{true}},
		{`\param[out,in] test`, []string{"out", "in"}, []bool{false, false}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, res := recognizeLine(t, tt.line)
			opts := res.Tokens[0].Arg.Options
			var keys []string
			var valid []bool
			for _, o := range opts {
				keys = append(keys, o.Key)
				valid = append(valid, o.Valid)
			}
			if !reflect.DeepEqual(keys, tt.keys) || !reflect.DeepEqual(valid, tt.valid) {
				t.Errorf("options = %v %v, want %v %v", keys, valid, tt.keys, tt.valid)
			}
		})
	}
}

func TestRecognizeReferences(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{`\ref Class::Func(int, double, cls::f)) bla`, "Class::Func(int, double, cls::f)"},
		{`\ref func()() the second`, "func()"},
		{`See \ref Class.Func(). The last point`, "Class.Func()"},
		{`See \ref Class::Func(double,int), the last comma`, "Class::Func(double,int)"},
		{`\ref Class1.:Func Here`, "Class1"},
		{`\ref Class2:.Func Here`, "Class2"},
		{`Some \ref Class::cls::func() text`, "Class::cls::func()"},
		{`This page contains \ref subsection1 and`, "subsection1"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, res := recognizeLine(t, tt.line)
			if len(res.Tokens) != 1 || res.Tokens[0].Name != "ref" {
				t.Fatalf("tokens = %v", tokenNames(res))
			}
			tok := res.Tokens[0]
			if tok.Arg.Shape != ShapeReference {
				t.Errorf("Shape = %q", tok.Arg.Shape)
			}
			if got := fieldTexts(tok, RoleReference); !reflect.DeepEqual(got, []string{tt.want}) {
				t.Errorf("reference = %v, want %q", got, tt.want)
			}
		})
	}

	_, res := recognizeLine(t, `See \ref link_text "some text" and more.`)
	if got := fieldTexts(res.Tokens[0], RoleQuoted); !reflect.DeepEqual(got, []string{`"some text"`}) {
		t.Errorf("quoted = %v", got)
	}
}

func TestRecognizeNames(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{`\paramX nothing`, nil},
		{`Nothing\showenumvaluesshould be highlighted.`, nil},
		{`This\showenumvalues command`, []string{"showenumvalues"}},
		{`This \brief is not at line start`, nil},
		{`@brief prefix at`, []string{"brief"}},
		{`\\cite label`, []string{`\`}},
		{`\\\cite label`, []string{`\`, "cite"}},
		{`@\\cite label`, []string{`\`, "cite"}},
		{`Some\----word`, []string{"---"}},
		{`Foo @{ text @} foo`, []string{"{", "}"}},
		{`New line\n`, []string{"n"}},
		{`bla \~english This \~ output`, []string{"~", "~"}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, res := recognizeLine(t, tt.line)
			if got := tokenNames(res); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("tokens = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecognizeAttachedLanguage(t *testing.T) {
	_, res := recognizeLine(t, `\~english text`)
	if got := fieldTexts(res.Tokens[0], RoleLanguage); !reflect.DeepEqual(got, []string{"english"}) {
		t.Errorf("language = %v", got)
	}
	_, res = recognizeLine(t, `\~ english`)
	if len(res.Tokens[0].Arg.Fields) != 0 || !res.Tokens[0].Valid {
		t.Errorf("unexpected token %+v", res.Tokens[0])
	}
}

func TestRecognizeRegions(t *testing.T) {
	text, res := recognizeLine(t, `Text \code{.c} someCode \endcode more`)
	if got := tokenNames(res); !reflect.DeepEqual(got, []string{"code", "endcode"}) {
		t.Fatalf("tokens = %v", got)
	}
	reg := res.Tokens[0].Arg.Region
	if reg == nil || !reg.Terminated || reg.EndCommand != "endcode" {
		t.Fatalf("region = %+v", reg)
	}
	if got := text[reg.Start:reg.End]; got != " someCode " {
		t.Errorf("region text = %q", got)
	}
	if res.Tokens[0].Arg.Options[0].Key != ".c" {
		t.Errorf("language = %+v", res.Tokens[0].Arg.Options)
	}

	text, res = recognizeLine(t, `between \f$(x_1,y_1)\f$ and`)
	if got := tokenNames(res); !reflect.DeepEqual(got, []string{"f$", "f$"}) {
		t.Fatalf("tokens = %v", got)
	}
	reg = res.Tokens[0].Arg.Region
	if !reg.Formula || text[reg.Start:reg.End] != "(x_1,y_1)" {
		t.Errorf("formula region = %+v", reg)
	}

	_, res = recognizeLine(t, `\code{.py } no whitespace \endcode`)
	if res.Tokens[0].Valid {
		t.Error("language with trailing blank should be invalid")
	}
	if len(res.Tokens) != 2 {
		t.Errorf("region should still be closed, tokens = %v", tokenNames(res))
	}

	_, res = recognizeLine(t, `\verbatim never closed`)
	reg = res.Tokens[0].Arg.Region
	if reg == nil || reg.Terminated {
		t.Errorf("unterminated region = %+v", reg)
	}
}

func TestRecognizeFormulaEnvironment(t *testing.T) {
	text := "/**\n   \\f{eqnarray*}{\n        g &=& 1\n   \\f}\n*/"
	list := spans.Classify(text)
	res := Recognize(text, list[0])
	if got := tokenNames(res); !reflect.DeepEqual(got, []string{"f{", "f}"}) {
		t.Fatalf("tokens = %v", got)
	}
	if got := fieldTexts(res.Tokens[0], RoleEnvironment); !reflect.DeepEqual(got, []string{"eqnarray*"}) {
		t.Errorf("environment = %v", got)
	}
}

func TestRecognizeContinuedLineComment(t *testing.T) {
	text := "/// goes \\\n\t**continues** on \\\n\t@details and \\\n\t/* @p TEST */ even"
	list := spans.Classify(text)
	if len(list) != 1 {
		t.Fatalf("expected one span, got %v", list)
	}
	res := Recognize(text, list[0])
	if got := tokenNames(res); !reflect.DeepEqual(got, []string{"details", "p"}) {
		t.Fatalf("tokens = %v", got)
	}
	if got := fieldTexts(res.Tokens[1], RoleWord); !reflect.DeepEqual(got, []string{"TEST"}) {
		t.Errorf("word = %v", got)
	}
	if len(res.Emphasis) != 1 || res.Emphasis[0].Kind != EmphasisBold {
		t.Fatalf("emphasis = %+v", res.Emphasis)
	}
	e := res.Emphasis[0]
	if text[e.Start:e.End] != "**continues**" || text[e.ContentStart:e.ContentEnd] != "continues" {
		t.Errorf("emphasis covers %q", text[e.Start:e.End])
	}
}

func TestEmphasis(t *testing.T) {
	tests := []struct {
		line string
		want []EmphasisKind
	}{
		{"some *italic* and **bold** text", []EmphasisKind{EmphasisItalic, EmphasisBold}},
		{"a ~~gone~~ b", []EmphasisKind{EmphasisStrike}},
		{"use `x*y*z` here", []EmphasisKind{EmphasisCode}},
		{"double var = 5 *2", nil},
		{"foo* foo", nil},
		{"char *Fn_Test", nil},
		{"snake_case_name", nil},
		{"_under_ score", []EmphasisKind{EmphasisItalic}},
		{`the \p *x* value`, nil},
		{"***three*** stars", nil},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, res := recognizeLine(t, tt.line)
			var got []EmphasisKind
			for _, e := range res.Emphasis {
				got = append(got, e.Kind)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("emphasis = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEmphasizePlainComment(t *testing.T) {
	text := "std::pair<double /*var1*/, int /* *var2* */> p1;"
	r := New(nil)
	var found []string
	for _, s := range spans.Classify(text) {
		if !s.Kind.IsComment() {
			continue
		}
		if len(r.Recognize(text, s).Tokens) != 0 {
			t.Error("plain comments must not yield commands")
		}
		for _, e := range r.Emphasize(text, s).Emphasis {
			found = append(found, text[e.ContentStart:e.ContentEnd])
		}
	}
	if !reflect.DeepEqual(found, []string{"var2"}) {
		t.Errorf("emphasis = %v, want [var2]", found)
	}
}

func TestRecognizeBlockDecoration(t *testing.T) {
	text := "/** \\ingroup foo  */"
	list := spans.Classify(text)
	res := Recognize(text, list[0])
	if len(res.Tokens) != 1 {
		t.Fatalf("tokens = %v", tokenNames(res))
	}
	tok := res.Tokens[0]
	if got := text[tok.Start:tok.End]; got != `\ingroup foo` {
		t.Errorf("token text = %q", got)
	}
}

func TestRecognizeFixtureIsDeterministic(t *testing.T) {
	r := New(nil)
	for _, f := range testutil.LoadFixtures(t) {
		t.Run(f.Name, func(t *testing.T) {
			list := spans.Classify(f.Text)
			first := r.RecognizeAll(f.Text, list)
			second := r.RecognizeAll(f.Text, list)
			if !reflect.DeepEqual(first, second) {
				t.Fatal("recognition is not deterministic")
			}
			for _, res := range first {
				for _, tok := range res.Tokens {
					if tok.Start < res.Span.Start || tok.End > res.Span.End || tok.Start >= tok.NameEnd || tok.NameEnd > tok.End {
						t.Errorf("token %s has bad offsets %d %d %d in span %v", tok.Name, tok.Start, tok.NameEnd, tok.End, res.Span)
					}
				}
			}
		})
	}
}

func TestRecognizeVariousKeywords(t *testing.T) {
	f := testutil.LoadFixture(t, "VariousKeywords.cpp")
	var invalid, total int
	for _, res := range New(nil).RecognizeAll(f.Text, spans.Classify(f.Text)) {
		total += len(res.Tokens)
		invalid += len(res.Invalid())
	}
	if total < 250 {
		t.Errorf("only %d commands recognised", total)
	}
	if invalid == 0 || invalid*3 > total {
		t.Errorf("%d of %d commands invalid", invalid, total)
	}
}

func TestRecognizeDetachedOptionList(t *testing.T) {
	text, res := recognizeLine(t, `\include {local}  Only partial highlight`)
	tok := res.Tokens[0]
	if tok.Valid || tok.Problem != "option list must touch the command" {
		t.Errorf("Valid = %v, Problem = %q", tok.Valid, tok.Problem)
	}
	if len(tok.Arg.Fields) != 0 || len(tok.Arg.Options) != 0 {
		t.Errorf("detached list was consumed: %+v", tok.Arg)
	}
	if got := text[tok.Start:tok.End]; got != `\include` {
		t.Errorf("token text = %q", got)
	}
}

func TestRecognizeRegionOpeners(t *testing.T) {
	tests := []struct {
		line    string
		name    string
		valid   bool
		options []string
		quoted  []string
		sizes   []string
	}{
		{`\htmlonly[block]`, "htmlonly", true, []string{"block"}, nil, nil},
		{`\htmlonly[ block ]`, "htmlonly", true, []string{"block"}, nil, nil},
		{`\htmlonly[block] Should not get confused because of the following [block].`, "htmlonly", true, []string{"block"}, nil, nil},
		{`\htmlonly[BLOCK] The block is not highlighted because the option is case sensitive.`, "htmlonly", false, []string{"BLOCK"}, nil, nil},
		{`\htmlonly[unknown] The unknown should not be highlighted.`, "htmlonly", false, []string{"unknown"}, nil, nil},
		{`\htmlonly  [block] The block is not highlighted.`, "htmlonly", false, nil, nil, nil},
		{`\dot "foo test" width=200cm height=1cm`, "dot", true, nil, []string{`"foo test"`}, []string{"width=200cm", "height=1cm"}},
		{`\dot  "foo"  width=200cm`, "dot", true, nil, []string{`"foo"`}, []string{"width=200cm"}},
		{`\dot "foo test" height=\textwidth shouldNotMatch`, "dot", true, nil, []string{`"foo test"`}, []string{`height=\textwidth`}},
		{`\dot shouldNotMatch width=200cm height=1cm`, "dot", true, nil, nil, nil},
		{`@startuml{myimage.png} "Image Caption" width=200cm height=1cm`, "startuml", true, []string{"myimage.png"}, []string{`"Image Caption"`}, []string{"width=200cm", "height=1cm"}},
		{`@startuml{json, myimage.png} "Image Caption"`, "startuml", true, []string{"json", "myimage.png"}, []string{`"Image Caption"`}, nil},
		{`@startuml{json}`, "startuml", true, []string{"json"}, nil, nil},
		{`\code   {.unparsed} space before { is ignored.`, "code", true, []string{".unparsed"}, nil, nil},
		{`\code{ .py} no whitespace allowed in braces`, "code", false, []string{" .py"}, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, res := recognizeLine(t, tt.line)
			if len(res.Tokens) == 0 {
				t.Fatal("no tokens")
			}
			tok := res.Tokens[0]
			if tok.Name != tt.name {
				t.Fatalf("Name = %q, want %q", tok.Name, tt.name)
			}
			if tok.Valid != tt.valid {
				t.Errorf("Valid = %v, want %v (problem %q)", tok.Valid, tt.valid, tok.Problem)
			}
			if tok.Arg.Region == nil {
				t.Error("no region opened")
			}
			var keys []string
			for _, o := range tok.Arg.Options {
				keys = append(keys, o.Key)
			}
			if !reflect.DeepEqual(keys, tt.options) {
				t.Errorf("options = %q, want %q", keys, tt.options)
			}
			if got := fieldTexts(tok, RoleQuoted); !reflect.DeepEqual(got, tt.quoted) {
				t.Errorf("quoted = %q, want %q", got, tt.quoted)
			}
			if got := fieldTexts(tok, RoleSize); !reflect.DeepEqual(got, tt.sizes) {
				t.Errorf("sizes = %q, want %q", got, tt.sizes)
			}
		})
	}
}

func TestRecognizeCommandSplitAcrossLines(t *testing.T) {
	text := "/// \\pa\\\nram x desc"
	list := spans.Classify(text)
	if len(list) != 1 || list[0].Kind != spans.DocLineComment {
		t.Fatalf("spans = %v", list)
	}
	res := Recognize(text, list[0])
	if got := tokenNames(res); !reflect.DeepEqual(got, []string{"param"}) {
		t.Fatalf("tokens = %v", got)
	}
	tok := res.Tokens[0]
	if !tok.Valid {
		t.Errorf("token invalid: %s", tok.Problem)
	}
	if got := text[tok.Start:tok.End]; got != "\\pa\\\nram x" {
		t.Errorf("token text = %q", got)
	}
	if got := fieldTexts(tok, RoleParameter); !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("parameters = %v", got)
	}
}

func TestRecognizeUnterminatedRegionStopsAtCloser(t *testing.T) {
	text := "/** \\code foo */"
	list := spans.Classify(text)
	res := Recognize(text, list[0])
	if len(res.Tokens) != 1 {
		t.Fatalf("tokens = %v", tokenNames(res))
	}
	tok := res.Tokens[0]
	reg := tok.Arg.Region
	if reg == nil || reg.Terminated {
		t.Fatalf("region = %+v", reg)
	}
	if got := text[tok.Start:tok.End]; got != "\\code foo " {
		t.Errorf("token text = %q", got)
	}
	if got := text[reg.Start:reg.End]; got != " foo " {
		t.Errorf("region text = %q", got)
	}
}
