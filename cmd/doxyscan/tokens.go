package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"doxyscan/internal/markup"
	"doxyscan/internal/spans"
)

var tokensInvalidOnly bool

var tokensCmd = &cobra.Command{
	Use:   "tokens FILE",
	Short: "List the Doxygen commands found in documentation comments",
	Long: `Recognise the commands of every documentation comment in a file and
report each with its argument fields, options and validity.

Examples:
  doxyscan tokens src/widget.h
  doxyscan tokens --invalid src/widget.h`,
	Args: cobra.ExactArgs(1),
	RunE: runTokens,
}

func init() {
	tokensCmd.Flags().BoolVar(&tokensInvalidOnly, "invalid", false, "Only list malformed commands")
	rootCmd.AddCommand(tokensCmd)
}

// TokensResponse lists the commands of one file.
type TokensResponse struct {
	File   string      `json:"file"`
	Tokens []TokenView `json:"tokens"`
}

// TokenView is a recognised command with its source text and position.
type TokenView struct {
	markup.Token
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Text   string `json:"text"`
}

func runTokens(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	text, err := readSource(args[0])
	if err != nil {
		return err
	}
	lines := spans.NewLineIndex(text)
	resp := &TokensResponse{File: args[0], Tokens: []TokenView{}}
	for _, res := range e.recognizer.RecognizeAll(text, spans.Classify(text)) {
		for _, tok := range res.Tokens {
			if tokensInvalidOnly && tok.Valid {
				continue
			}
			line, col := lines.Position(tok.Start)
			resp.Tokens = append(resp.Tokens, TokenView{
				Token:  tok,
				Line:   line,
				Column: col + 1,
				Text:   text[tok.Start:tok.End],
			})
		}
	}
	return e.print(resp)
}

func formatTokensHuman(resp *TokensResponse) string {
	var b strings.Builder
	for _, t := range resp.Tokens {
		status := "ok"
		if !t.Valid {
			status = "INVALID"
			if t.Problem != "" {
				status += ": " + t.Problem
			}
		}
		fmt.Fprintf(&b, "%s:%d:%d  %s%s  [%s]\n", resp.File, t.Line, t.Column, t.Prefix, t.Name, status)
		for _, f := range t.Arg.Fields {
			mark := ""
			if !f.Valid {
				mark = " (invalid)"
			}
			if f.Missing {
				mark = " (missing)"
			}
			fmt.Fprintf(&b, "    %-10s %q%s\n", f.Role, f.Text, mark)
		}
		for _, o := range t.Arg.Options {
			mark := ""
			if !o.Valid {
				mark = " (invalid)"
			}
			kv := o.Key
			if o.Value != "" {
				kv += "=" + o.Value
			}
			fmt.Fprintf(&b, "    option     %s%s\n", kv, mark)
		}
	}
	if len(resp.Tokens) == 0 {
		b.WriteString("No commands.\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}
