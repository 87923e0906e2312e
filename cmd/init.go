package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmurray2011/fuzmoi/internal/source"

	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize fuzmoi configuration",
	Long: `Create default configuration, source alias and history files.

Creates:
  ~/.fuzmoi.yaml              defaults for threshold, ranker, output, logging
  ~/.fuzmoi/config.yaml       source aliases
  ~/.fuzmoi_history.json      search history

Examples:
  # Create default config (won't overwrite existing)
  fuzmoi init

  # Force overwrite existing config
  fuzmoi init --force`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	app := GetApp(cmd)

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	configPath := filepath.Join(home, ".fuzmoi.yaml")
	sourcesPath := source.ConfigPath()
	historyPath, err := getHistoryFilePath()
	if err != nil {
		return err
	}

	files := []struct {
		path    string
		content string
	}{
		{configPath, generateDefaultConfig()},
		{sourcesPath, defaultSourcesConfig},
		{historyPath, "[]"},
	}
	for _, f := range files {
		created, err := createFileIfNotExists(f.path, f.content, initForce)
		if err != nil {
			return err
		}
		if created {
			app.Render.Info("  Created %s", f.path)
		} else {
			app.Render.Info("  %s already exists (use --force to overwrite)", f.path)
		}
	}

	app.Render.Newline()
	app.Render.Info("Initialized fuzmoi configuration:")
	app.Render.KeyValueIndent("Config", configPath, 1)
	app.Render.KeyValueIndent("Sources", sourcesPath, 1)
	app.Render.KeyValueIndent("History", historyPath, 1)
	return nil
}

func generateDefaultConfig() string {
	return fmt.Sprintf(`# fuzmoi configuration

# Ranker: %s, %s, %s
ranker: %s

# Drop matches scoring at or below this value (omit for no threshold)
# threshold: -3

# Default output format: text, json, csv
output: text

# Logging: debug, info, warn, error; text or json
log_level: warn
log_format: text

# AWS settings for s3:// and cloudwatch:// sources
# profile: my-aws-profile
# region: us-east-1

# History settings
history_max: 50
# history_file: ~/.fuzmoi_history.json
`, RankerSubsequence, RankerLevenshtein, RankerLevenshteinFold, RankerSubsequence)
}

const defaultSourcesConfig = `# fuzmoi source aliases; use as @name
sources: {}
#  words:
#    uri: ./words.txt
#    description: one candidate per line
#  lambdas:
#    uri: cloudwatch:///aws/lambda/?profile=prod

# default_source: words
`

func createFileIfNotExists(path, content string, force bool) (bool, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}

	// Create parent directory if needed
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}

	return true, nil
}
