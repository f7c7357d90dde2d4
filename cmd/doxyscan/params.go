package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"doxyscan/internal/complete"
	"doxyscan/internal/errors"
	"doxyscan/internal/spans"
)

var (
	paramsOffset int
	paramsLine   int
	paramsColumn int
	paramsPrefix string
)

var paramsCmd = &cobra.Command{
	Use:   "params FILE",
	Short: "Complete the name slot of a @param or @tparam command",
	Long: `Offer parameter names for the @param or @tparam command under the cursor.
Names come from the declaration that follows the documentation comment;
names already documented in the same comment block are flagged.

The cursor is given as a byte offset or as a 1-based line and column.

Examples:
  doxyscan params --line 12 --col 12 src/widget.h
  doxyscan params --offset 340 --format json src/widget.h`,
	Args: cobra.ExactArgs(1),
	RunE: runParams,
}

func init() {
	paramsCmd.Flags().IntVar(&paramsOffset, "offset", -1, "Cursor byte offset")
	paramsCmd.Flags().IntVar(&paramsLine, "line", 0, "Cursor line (1-based)")
	paramsCmd.Flags().IntVar(&paramsColumn, "col", 1, "Cursor column (1-based bytes)")
	paramsCmd.Flags().StringVar(&paramsPrefix, "stub-prefix", "@", `Command prefix for stub lines: "@" or "\"`)
	rootCmd.AddCommand(paramsCmd)
}

// ParamsResponse is the response format for params
type ParamsResponse struct {
	File       string               `json:"file"`
	Offset     int                  `json:"offset"`
	Found      bool                 `json:"found"`
	Completion *complete.Completion `json:"completion,omitempty"`
	Stubs      []string             `json:"stubs,omitempty"`
}

func runParams(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	text, err := readSource(args[0])
	if err != nil {
		return err
	}
	offset, err := cursorOffset(text, paramsOffset, paramsLine, paramsColumn)
	if err != nil {
		return err
	}

	ctx, cancel := newContext()
	defer cancel()
	p := complete.NewProvider(e.recognizer, e.completionSource())
	resp := &ParamsResponse{File: args[0], Offset: offset}
	if c, ok := p.Complete(ctx, text, offset); ok {
		resp.Found = true
		resp.Completion = &c
		resp.Stubs = complete.Stubs(c.Declaration, paramsPrefix)
	}
	e.logger.Debug("Completed parameters", "file", args[0], "offset", offset, "found", resp.Found)
	return e.print(resp)
}

// cursorOffset resolves the cursor flags. An explicit offset wins over a
// line and column.
func cursorOffset(text string, offset, line, col int) (int, error) {
	switch {
	case offset >= 0:
		if offset > len(text) {
			return 0, errors.New(errors.InternalError, fmt.Sprintf("offset %d is past the end of the file", offset), nil)
		}
		return offset, nil
	case line > 0:
		if col < 1 {
			col = 1
		}
		return spans.NewLineIndex(text).Offset(line, col-1), nil
	}
	return 0, errors.New(errors.InternalError, "give the cursor with --offset or --line", nil)
}

func formatParamsHuman(resp *ParamsResponse) string {
	if !resp.Found {
		return "No @param or @tparam name slot at the cursor."
	}
	c := resp.Completion
	var b strings.Builder
	d := c.Declaration
	fmt.Fprintf(&b, "%s for %s %s\n", c.Command, d.Kind, d.Name)
	if len(c.Items) == 0 {
		b.WriteString("  (no matching parameters)\n")
	}
	for _, it := range c.Items {
		mark := ""
		if it.Documented {
			mark = "  (documented)"
		}
		if it.Variadic {
			mark += "  (variadic)"
		}
		fmt.Fprintf(&b, "  %s%s\n", it.Name, mark)
	}
	if len(resp.Stubs) > 0 {
		b.WriteString("\nStubs:\n")
		for _, s := range resp.Stubs {
			fmt.Fprintf(&b, "  %s\n", s)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}
