package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"doxyscan/internal/errors"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(os.Stderr, err))
	}
}

// exitCode reports err on w and picks the process exit status. Lint
// findings exit with 1 and no message; any other failure exits with 2.
func exitCode(w io.Writer, err error) int {
	var fe *findingsError
	if stderrors.As(err, &fe) {
		return 1
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	var de *errors.DoxyError
	if stderrors.As(err, &de) {
		for _, fix := range de.SuggestedFixes {
			if fix.Command != "" {
				fmt.Fprintf(w, "  try: %s\n", fix.Command)
			} else if fix.Description != "" {
				fmt.Fprintf(w, "  hint: %s\n", fix.Description)
			}
		}
	}
	return 2
}

// findingsError reports that lint found problems.
type findingsError struct {
	count int
}

func (e *findingsError) Error() string {
	return fmt.Sprintf("%d findings", e.count)
}
