package highlight

import (
	"bytes"
	"context"
	"reflect"
	"testing"

	"doxyscan/internal/testutil"
)

func run(t *testing.T, text string, opts Options) []Range {
	t.Helper()
	var c Collector
	if err := New(nil, opts).Run(context.Background(), text, &c); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return c.Ranges
}

func TestRun(t *testing.T) {
	text := "/// @param[in] src desc *it*\nint x; // plain **b**\n"
	withPlain := DefaultOptions()
	withPlain.PlainEmphasis = true
	noDocLines := DefaultOptions()
	noDocLines.DocLineComments = false

	tests := []struct {
		name string
		opts Options
		want []Range
	}{
		{
			name: "defaults",
			opts: DefaultOptions(),
			want: []Range{
				{0, 28, ClassDocLineComment},
				{4, 10, ClassCommand},
				{10, 14, ClassOption},
				{15, 18, ClassParameter},
				{24, 28, ClassItalic},
				{36, 50, ClassLineComment},
			},
		},
		{
			name: "emphasis in plain comments",
			opts: withPlain,
			want: []Range{
				{0, 28, ClassDocLineComment},
				{4, 10, ClassCommand},
				{10, 14, ClassOption},
				{15, 18, ClassParameter},
				{24, 28, ClassItalic},
				{36, 50, ClassLineComment},
				{45, 50, ClassBold},
			},
		},
		{
			name: "documentation line comments disabled",
			opts: noDocLines,
			want: []Range{
				{0, 28, ClassDocLineComment},
				{36, 50, ClassLineComment},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := run(t, text, tt.opts); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ranges = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunInvalidCommandKeepsValidOptions(t *testing.T) {
	got := run(t, "/// \\param[in,foo] x", DefaultOptions())
	want := []Range{
		{0, 20, ClassDocLineComment},
		{4, 10, ClassCommand},
		{11, 13, ClassOption},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ranges = %v, want %v", got, want)
	}
}

func TestRunStringsAndEscapes(t *testing.T) {
	got := run(t, "s = \"/// @param x\"; /// \\@", DefaultOptions())
	want := []Range{
		{4, 18, ClassString},
		{20, 26, ClassDocLineComment},
		{24, 26, ClassEscape},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ranges = %v, want %v", got, want)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var c Collector
	if err := New(nil, DefaultOptions()).Run(ctx, "/// @brief x\n", &c); err == nil {
		t.Error("expected cancellation error")
	}
}

func TestRangesNestInsideComments(t *testing.T) {
	f := testutil.LoadFixture(t, "VariousKeywords.cpp")
	ranges := run(t, f.Text, DefaultOptions())
	if len(ranges) == 0 {
		t.Fatal("no ranges")
	}

	var outer Range
	for _, r := range ranges {
		if r.Start >= r.End || r.End > len(f.Text) {
			t.Fatalf("bad range %v", r)
		}
		switch r.Class {
		case ClassLineComment, ClassDocLineComment, ClassBlockComment, ClassDocBlockComment, ClassString:
			if r.Start < outer.End {
				t.Fatalf("top-level range %v overlaps %v", r, outer)
			}
			outer = r
		default:
			if r.Start < outer.Start || r.End > outer.End {
				t.Fatalf("range %v escapes %v", r, outer)
			}
		}
	}
}

func TestTerminalSinkKeepsText(t *testing.T) {
	text := "/// @brief Title\nint x; // note\n"
	sink := NewTerminalSink(text, nil)
	if err := New(nil, DefaultOptions()).Run(context.Background(), text, sink); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := sink.Render(&buf); err != nil {
		t.Fatal(err)
	}
	// Tests do not write to a terminal, so styles render as plain text.
	if buf.String() != text {
		t.Errorf("Render = %q, want %q", buf.String(), text)
	}
}
