package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/jmurray2011/fuzmoi/internal/ui"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	historyClear bool
	historyRun   int
)

// HistoryEntry represents a single search in history.
type HistoryEntry struct {
	Timestamp   time.Time `json:"timestamp"`
	Query       string    `json:"query"`
	Sources     []string  `json:"sources,omitempty"`
	Ranker      string    `json:"ranker,omitempty"`
	ResultCount int       `json:"result_count"`
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View search history",
	Long: `View and manage your search history.

Searches run with 'fuzmoi search' and inside 'fuzmoi shell' are recorded,
newest first. Repeating a search moves it back to the top.

Examples:
  # List recent searches
  fuzmoi history

  # Clear all history
  fuzmoi history --clear

  # Re-run search #3 from history
  fuzmoi history --run 3`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "Clear search history")
	historyCmd.Flags().IntVar(&historyRun, "run", 0, "Re-run search by number")
}

func runHistory(cmd *cobra.Command, args []string) error {
	app := GetApp(cmd)

	historyFile, err := getHistoryFilePath()
	if err != nil {
		return err
	}

	if historyClear {
		if err := os.Remove(historyFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		app.Render.Success("History cleared")
		return nil
	}

	entries, err := loadHistory()
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		app.Render.Info("No search history found.")
		return nil
	}

	// Re-run a specific search
	if historyRun > 0 {
		if historyRun > len(entries) {
			return fmt.Errorf("search #%d not found (history has %d entries)", historyRun, len(entries))
		}
		entry := entries[historyRun-1]
		app.Render.Status("Re-running search from %s...", entry.Timestamp.Format("2006-01-02 15:04:05"))

		searchSources = entry.Sources
		if entry.Ranker != "" && !cmd.Flags().Changed("ranker") {
			app.Config.Ranker = entry.Ranker
		}
		return runSearch(cmd, []string{entry.Query})
	}

	// Display history
	for i, entry := range entries {
		num := ui.LabelStyle.Render(fmt.Sprintf("[%d]", i+1))
		ts := ui.MutedStyle.Render(entry.Timestamp.Format("2006-01-02 15:04:05"))
		sources := ui.SuccessStyle.Render(truncateString(strings.Join(entry.Sources, ", "), 40))
		results := ui.MutedStyle.Render(fmt.Sprintf("(%d results)", entry.ResultCount))

		app.Render.Info("%s %s  %q  %s  %s", num, ts, entry.Query, sources, results)
	}

	app.Render.Newline()
	app.Render.Info("Use 'fuzmoi history --run N' to re-run a search")
	return nil
}

func getHistoryFilePath() (string, error) {
	// Check config for custom history file path
	if historyFile := viper.GetString("history_file"); historyFile != "" {
		// Expand ~ if present
		if historyFile[0] == '~' {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			historyFile = filepath.Join(home, historyFile[1:])
		}
		return historyFile, nil
	}

	// Default location
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".fuzmoi_history.json"), nil
}

// getMaxHistoryEntries returns the configured max history size (default 50)
func getMaxHistoryEntries() int {
	max := viper.GetInt("history_max")
	if max <= 0 {
		return 50 // default
	}
	return max
}

func loadHistory() ([]HistoryEntry, error) {
	historyPath, err := getHistoryFilePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(historyPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	var entries []HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}

	return entries, nil
}

// AddToHistory records a search. An earlier entry with the same query and
// sources is replaced so the search appears once, at the top.
func AddToHistory(entry HistoryEntry) error {
	entries, err := loadHistory()
	if err != nil {
		entries = []HistoryEntry{}
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	entries = slices.DeleteFunc(entries, func(e HistoryEntry) bool {
		return e.Query == entry.Query && slices.Equal(e.Sources, entry.Sources)
	})

	// Prepend new entry
	entries = append([]HistoryEntry{entry}, entries...)

	// Trim to max size (oldest entries are dropped)
	maxEntries := getMaxHistoryEntries()
	if len(entries) > maxEntries {
		entries = entries[:maxEntries]
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	historyPath, err := getHistoryFilePath()
	if err != nil {
		return err
	}
	return os.WriteFile(historyPath, data, 0600)
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
