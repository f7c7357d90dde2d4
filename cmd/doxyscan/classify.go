package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"doxyscan/internal/spans"
)

var classifyDocOnly bool

var classifyCmd = &cobra.Command{
	Use:   "classify FILE",
	Short: "List the code, string and comment spans of a file",
	Long: `Split a C or C++ source file into code, string literal and comment spans.
Comments are reported with their opener style; documentation comments are
the ones opened by ///, //!, /** or /*!.

Use "-" to read from stdin.

Examples:
  doxyscan classify src/widget.h
  doxyscan classify --doc-only --format json src/widget.h`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyDocOnly, "doc-only", false, "Only list documentation comments")
	rootCmd.AddCommand(classifyCmd)
}

// ClassifyResponse lists the spans of one file.
type ClassifyResponse struct {
	File  string     `json:"file"`
	Spans []SpanView `json:"spans"`
}

// SpanView is a span with its position. Lines are 1-based, columns
// 1-based bytes.
type SpanView struct {
	spans.Span
	Line   int `json:"line"`
	Column int `json:"column"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	text, err := readSource(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()
	list, err := spans.ClassifyContext(ctx, text)
	if err != nil {
		return err
	}

	lines := spans.NewLineIndex(text)
	resp := &ClassifyResponse{File: args[0], Spans: []SpanView{}}
	for _, s := range list {
		if classifyDocOnly && !s.Kind.IsDoc() {
			continue
		}
		line, col := lines.Position(s.Start)
		resp.Spans = append(resp.Spans, SpanView{Span: s, Line: line, Column: col + 1})
	}
	e.logger.Debug("Classified file", "file", args[0], "spans", len(list))
	return e.print(resp)
}

func formatClassifyHuman(resp *ClassifyResponse) string {
	var b strings.Builder
	for _, s := range resp.Spans {
		style := ""
		if s.Style != spans.StyleNone {
			style = " " + string(s.Style)
		}
		fmt.Fprintf(&b, "%s:%d:%d  %-18s%s  (%d bytes)\n", resp.File, s.Line, s.Column, s.Kind, style, s.Len())
	}
	if len(resp.Spans) == 0 {
		b.WriteString("No spans.\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}
