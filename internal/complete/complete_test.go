package complete

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"doxyscan/internal/decl"
	"doxyscan/internal/markup"
	"doxyscan/internal/spans"
	"doxyscan/internal/testutil"
)

func itemNames(c Completion) []string {
	var out []string
	for _, it := range c.Items {
		out = append(out, it.Name)
	}
	return out
}

// at returns text with the cursor marker "|" removed and its offset.
func at(marked string) (string, int) {
	i := strings.Index(marked, "|")
	return marked[:i] + marked[i+1:], i
}

func TestComplete(t *testing.T) {
	tests := []struct {
		name      string
		marked    string
		command   string
		prefix    string
		separator string
		items     []string
	}{
		{
			name:      "empty slot after command",
			marked:    "/// @param|\nvoid funcDeclarationWithParam(int foo);",
			command:   "param",
			separator: " ",
			items:     []string{"foo"},
		},
		{
			name:    "empty slot after blank",
			marked:  "/// @param |\nvoid f(int a, double b);",
			command: "param",
			items:   []string{"a", "b"},
		},
		{
			name:    "typed prefix",
			marked:  "/// \\param pa|\nvoid f(int param1, int other, int param2);",
			command: "param",
			prefix:  "pa",
			items:   []string{"param1", "param2"},
		},
		{
			name:    "after direction",
			marked:  "/// @param[in] |\nvoid f(int src);",
			command: "param",
			items:   []string{"src"},
		},
		{
			name:      "template parameters",
			marked:    "/// @tparam|\n/// @param\ntemplate <class T, int N>\nvoid f(T t);",
			command:   "tparam",
			separator: " ",
			items:     []string{"T", "N"},
		},
		{
			name:    "nameless parameters omitted",
			marked:  "/// @param |\nvoid f(int * & p1, int (*fp)(double, short), ...);",
			command: "param",
			items:   []string{"p1"},
		},
		{
			name:      "macro parameters",
			marked:    "/// @param x\n/// @param|\n#define SOME_MACRO(x, y, zzzzz) x\nvoid after(int funcParam1);",
			command:   "param",
			separator: " ",
			items:     []string{"x", "y", "zzzzz"},
		},
		{
			name:      "block comment",
			marked:    "/**\n * @brief\n * @tparam|\n * @param\n */\ntemplate <class templClsArg, unsigned someInt>\nclass TemplateClass\n{\n};",
			command:   "tparam",
			separator: " ",
			items:     []string{"templClsArg", "someInt"},
		},
	}

	p := NewProvider(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, off := at(tt.marked)
			c, ok := p.Complete(context.Background(), text, off)
			if !ok {
				t.Fatal("no completion")
			}
			if c.Command != tt.command || c.Prefix != tt.prefix || c.Separator != tt.separator {
				t.Errorf("got command %q prefix %q separator %q", c.Command, c.Prefix, c.Separator)
			}
			if got := itemNames(c); !reflect.DeepEqual(got, tt.items) {
				t.Errorf("items = %v, want %v", got, tt.items)
			}
		})
	}
}

func TestCompleteMarksDocumented(t *testing.T) {
	text, off := at("/// @param a first\n/// @param |\nvoid f(int a, int b);")
	c, ok := NewProvider(nil, nil).Complete(context.Background(), text, off)
	if !ok {
		t.Fatal("no completion")
	}
	want := []Item{{Name: "a", Documented: true}, {Name: "b"}}
	if !reflect.DeepEqual(c.Items, want) {
		t.Errorf("items = %+v, want %+v", c.Items, want)
	}
}

func TestCompleteOutsideSlot(t *testing.T) {
	tests := []struct {
		name   string
		marked string
	}{
		{"in code", "void f(int |a);"},
		{"in plain comment", "// @param |\nvoid f(int a);"},
		{"other command", "/// @brief |\nvoid f(int a);"},
		{"inside command name", "/// @par|am\nvoid f(int a);"},
		{"in description", "/// @param a some |text\nvoid f(int a);"},
		{"in string", `const char* s = "/// @param |";`},
	}
	p := NewProvider(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, off := at(tt.marked)
			if c, ok := p.Complete(context.Background(), text, off); ok {
				t.Errorf("unexpected completion %+v", c)
			}
		})
	}
}

func TestCompleteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	text, off := at("/// @param |\nvoid f(int a);")
	if _, ok := NewProvider(nil, nil).Complete(ctx, text, off); ok {
		t.Error("expected no completion after cancellation")
	}
}

func TestCompleteFixture(t *testing.T) {
	f := testutil.LoadFixture(t, "ManualTests_ParameterCompletion.cpp")
	tests := []struct {
		anchor string // text following the "/// @param" line
		items  []string
	}{
		{"void funcDeclarationWithParam(int foo);", []string{"foo"}},
		{"void funcDeclWithDefaultArgs(const int i = 42, double d = 43.0);", []string{"i", "d"}},
		{"void OnlyEllipsisDecl(...);", nil},
		{"#define VARIADIC_MACRO(param1, ...)", []string{"param1"}},
	}
	p := NewProvider(nil, nil)
	for _, tt := range tests {
		t.Run(tt.anchor, func(t *testing.T) {
			i := strings.Index(f.Text, "/// @param\n"+tt.anchor)
			if i < 0 {
				t.Fatalf("anchor not found")
			}
			off := i + len("/// @param")
			c, ok := p.Complete(context.Background(), f.Text, off)
			if !ok {
				t.Fatal("no completion")
			}
			if got := itemNames(c); !reflect.DeepEqual(got, tt.items) {
				t.Errorf("items = %v, want %v", got, tt.items)
			}
		})
	}
}

func TestStubs(t *testing.T) {
	d := decl.Extract("template <class T, int N>\nvoid f(T value, int (*cb)(int), int count);")
	got := Stubs(d, "@")
	want := []string{"@tparam T", "@tparam N", "@param value", "@param count"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Stubs = %v, want %v", got, want)
	}
}

func TestUndocumented(t *testing.T) {
	text := "/// @tparam T type\n/// @param a first\ntemplate <class T, class U>\nvoid f(T a, U b);"
	results := markup.New(nil).RecognizeAll(text, spans.Classify(text))
	d := decl.Extract(text[strings.Index(text, "template"):])

	var names []string
	for _, prm := range Undocumented(d, results) {
		names = append(names, prm.Name)
	}
	if !reflect.DeepEqual(names, []string{"U", "b"}) {
		t.Errorf("Undocumented = %v, want [U b]", names)
	}
}

func TestDocBlocks(t *testing.T) {
	text := "/// a\n/// b\nint x;\n/** c */\n// plain\n//! d\n"
	list := spans.Classify(text)
	blocks := DocBlocks(text, list)
	if len(blocks) != 3 {
		t.Fatalf("blocks = %+v", blocks)
	}
	if got := list[blocks[0].Last].Text(text); got != "/// b" {
		t.Errorf("first block ends at %q", got)
	}
	for i, want := range []string{"/// a", "/** c */", "//! d"} {
		if got := list[blocks[i].First].Text(text); got != want {
			t.Errorf("block %d starts at %q, want %q", i, got, want)
		}
	}
}
