package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"doxyscan/internal/storage"
)

var (
	searchLimit    int
	searchNoUpdate bool
)

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Full-text search over indexed documentation comments",
	Long: `Search the text and command names of every documentation comment in the
index. Whole-phrase matches rank first, then word-prefix matches, then
plain substring matches.

Examples:
  doxyscan search "thread safe"
  doxyscan search deprecated --limit 5
  doxyscan search retval --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "Maximum number of matches")
	searchCmd.Flags().BoolVar(&searchNoUpdate, "no-update", false, "Search the index as it is")
	rootCmd.AddCommand(searchCmd)
}

// SearchResponse is the response format for search
type SearchResponse struct {
	Query   string             `json:"query"`
	Matches []storage.DocMatch `json:"matches"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if !searchNoUpdate {
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
	query := strings.Join(args, " ")
	matches, err := db.SearchDocs(ctx, query, searchLimit)
	if err != nil {
		return err
	}
	if matches == nil {
		matches = []storage.DocMatch{}
	}
	e.logger.Debug("Search finished", "query", query, "matches", len(matches))
	return e.print(&SearchResponse{Query: query, Matches: matches})
}

func formatSearchHuman(resp *SearchResponse) string {
	if len(resp.Matches) == 0 {
		return fmt.Sprintf("No comments match %q.", resp.Query)
	}
	var b strings.Builder
	for i, m := range resp.Matches {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s:%d-%d (%s)\n", m.Path, m.Line, m.EndLine, m.MatchType)
		text := m.Snippet
		if text == "" {
			text = m.Text
		}
		for _, l := range strings.Split(strings.TrimSpace(text), "\n") {
			fmt.Fprintf(&b, "  %s\n", strings.TrimSpace(l))
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}
