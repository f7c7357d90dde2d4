package main

import (
	"github.com/spf13/cobra"

	"doxyscan/internal/highlight"
)

var (
	highlightPlain bool
	highlightNoDoc bool
)

var highlightCmd = &cobra.Command{
	Use:   "highlight FILE",
	Short: "Print a file with its comments and commands highlighted",
	Long: `Render a source file with styled comments, Doxygen commands, their
arguments and markdown emphasis. Colours are dropped when stdout is not
a terminal. With --format json the styled ranges are printed instead.

Examples:
  doxyscan highlight src/widget.h
  doxyscan highlight --plain-emphasis src/widget.h
  doxyscan highlight --format json src/widget.h`,
	Args: cobra.ExactArgs(1),
	RunE: runHighlight,
}

func init() {
	highlightCmd.Flags().BoolVar(&highlightPlain, "plain-emphasis", false, "Also style emphasis in ordinary comments")
	highlightCmd.Flags().BoolVar(&highlightNoDoc, "no-commands", false, "Do not style commands in documentation comments")
	rootCmd.AddCommand(highlightCmd)
}

// HighlightResponse lists the styled ranges of one file.
type HighlightResponse struct {
	File   string            `json:"file"`
	Ranges []highlight.Range `json:"ranges"`
}

func runHighlight(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	text, err := readSource(args[0])
	if err != nil {
		return err
	}
	opts := e.highlightOptions()
	if highlightPlain {
		opts.PlainEmphasis = true
	}
	if highlightNoDoc {
		opts.DocLineComments, opts.DocBlockComments = false, false
	}
	h := highlight.New(e.recognizer, opts)

	ctx, cancel := newContext()
	defer cancel()

	if e.format != FormatHuman {
		c := &highlight.Collector{}
		if err := h.Run(ctx, text, c); err != nil {
			return err
		}
		resp := &HighlightResponse{File: args[0], Ranges: c.Ranges}
		if resp.Ranges == nil {
			resp.Ranges = []highlight.Range{}
		}
		return e.print(resp)
	}

	sink := highlight.NewTerminalSink(text, nil)
	if err := h.Run(ctx, text, sink); err != nil {
		return err
	}
	return sink.Render(e.out)
}
