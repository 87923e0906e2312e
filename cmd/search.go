package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	searchSources []string
	searchLimit   int
)

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search candidates once and print ranked matches",
	Long: `Load candidates from one or more sources and print the matches for QUERY,
best first.

Examples:
  # Search a local word list
  fuzmoi search -s ./words.txt bonjou

  # Combine sources; candidates keep source order
  fuzmoi search -s ./words.txt -s s3://bucket/more.txt bon

  # Read candidates from stdin and print JSON
  ls | fuzmoi search -s - -o json main

  # Only keep close Levenshtein matches
  fuzmoi search -s @words --ranker levenshtein -t -3 car`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringArrayVarP(&searchSources, "source", "s", nil, "Candidate source URI (repeatable; default: default_source)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "Maximum results to print (0 = all)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	app := GetApp(cmd)
	query := strings.Join(args, " ")

	formatter, err := app.Formatter()
	if err != nil {
		return err
	}

	app.Render.Status("Loading candidates...")
	candidates, err := app.LoadCandidates(cmd.Context(), searchSources, cmd.InOrStdin())
	if err != nil {
		return err
	}

	idx, err := app.NewIndex(candidates)
	if err != nil {
		return err
	}

	matches, err := idx.SearchMatches(query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	app.Debugf("%d of %d candidates matched %q", len(matches), len(candidates), query)

	if err := AddToHistory(HistoryEntry{
		Query:       query,
		Sources:     searchSources,
		Ranker:      app.Config.Ranker,
		ResultCount: len(matches),
	}); err != nil {
		app.Debugf("Failed to save history: %v", err)
	}

	if searchLimit > 0 && len(matches) > searchLimit {
		matches = matches[:searchLimit]
	}

	return formatter.FormatResults(query, matches)
}
