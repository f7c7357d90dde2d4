package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"doxyscan/internal/changes"
	"doxyscan/internal/errors"
	"doxyscan/internal/index"
	"doxyscan/internal/storage"
)

var (
	lintDiff     string
	lintKind     string
	lintNoUpdate bool
)

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Report malformed commands and undocumented parameters",
	Long: `Bring the index up to date and report its findings:

  invalid_command     a command whose arguments do not match its grammar
  undocumented_param  a parameter missing from a comment that documents
                      other parameters of the same declaration

With --diff only findings on lines added by the patch are reported, which
suits pre-commit hooks and review bots. The exit status is 1 when there
are findings.

Examples:
  doxyscan lint
  git diff -U0 | doxyscan lint --diff -
  doxyscan lint --kind invalid_command --format json`,
	Args: cobra.NoArgs,
	RunE: runLint,
}

func init() {
	lintCmd.Flags().StringVar(&lintDiff, "diff", "", `Unified diff restricting the report to added lines ("-" for stdin)`)
	lintCmd.Flags().StringVar(&lintKind, "kind", "", "Only report this finding kind")
	lintCmd.Flags().BoolVar(&lintNoUpdate, "no-update", false, "Report from the index as it is")
	rootCmd.AddCommand(lintCmd)
}

// LintResponse is the response format for lint
type LintResponse struct {
	Findings []storage.Finding `json:"findings"`
	Summary  index.Summary     `json:"summary"`
	DiffOnly bool              `json:"diffOnly"`
}

func runLint(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	kind := storage.FindingKind(lintKind)
	if kind != "" && kind != storage.FindingInvalidCommand && kind != storage.FindingUndocumentedParam {
		return errors.New(errors.UnsupportedFormat, fmt.Sprintf("unknown finding kind %q", lintKind), nil)
	}

	var patch *changes.Patch
	if lintDiff != "" {
		content, err := readSource(lintDiff)
		if err != nil {
			return err
		}
		if patch, err = changes.Parse(content); err != nil {
			return err
		}
	}

	if !lintNoUpdate {
		if _, err := updateIndex(e, false); err != nil {
			return err
		}
	}

	db, err := openIndex(e)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := newContext()
	defer cancel()
	findings, err := db.Findings(ctx, storage.FindingFilter{Kind: kind})
	if err != nil {
		return err
	}
	findings = index.OnlyChanged(findings, patch)
	if findings == nil {
		findings = []storage.Finding{}
	}

	resp := &LintResponse{Findings: findings, Summary: index.Summarize(findings), DiffOnly: patch != nil}
	if err := e.print(resp); err != nil {
		return err
	}
	e.logger.Info("Lint finished", "findings", len(findings), "diffOnly", patch != nil)
	if len(findings) > 0 {
		return &findingsError{count: len(findings)}
	}
	return nil
}

func formatLintHuman(resp *LintResponse) string {
	var b strings.Builder
	for _, f := range resp.Findings {
		fmt.Fprintf(&b, "%s:%d:%d: %s: %s\n", f.Path, f.Line, f.Column, f.Kind, f.Message)
	}
	if len(resp.Findings) == 0 {
		b.WriteString("No findings.")
		return b.String()
	}
	fmt.Fprintf(&b, "\n%d invalid commands, %d undocumented parameters", resp.Summary.Invalid, resp.Summary.Undocumented)
	return b.String()
}
