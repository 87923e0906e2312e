package cmd

import (
	"fmt"

	"github.com/jmurray2011/fuzmoi/internal/output"
	"github.com/jmurray2011/fuzmoi/internal/source"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured source aliases",
	Long: `List source aliases defined in the configuration file.

Source aliases can be defined in ~/.fuzmoi/config.yaml:

  sources:
    words:
      uri: ./words.txt
      description: French greetings
    lambdas:
      uri: cloudwatch:///aws/lambda/?profile=prod&region=us-east-1
    buckets:
      uri: s3://my-bucket/lists/

  default_source: words

Use aliases with @ prefix in commands:
  fuzmoi search -s @words bonjou
  fuzmoi shell -s @lambdas`,
	RunE: runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	app := GetApp(cmd)

	cfg, err := source.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	formatter, err := app.Formatter()
	if err != nil {
		return err
	}

	if len(cfg.Sources) == 0 && formatter.Format() == output.FormatText {
		app.Render.Info("No source aliases configured.")
		app.Render.Newline()
		app.Render.Info("Create aliases in %s:", source.ConfigPath())
		app.Render.Newline()
		app.Render.Info("  sources:")
		app.Render.Info("    words:")
		app.Render.Info("      uri: ./words.txt")
		app.Render.Info("    lambdas:")
		app.Render.Info("      uri: cloudwatch:///aws/lambda/?profile=prod")
		app.Render.Newline()
		app.Render.Info("Registered schemes: %v", source.Schemes())
		return nil
	}

	return formatter.FormatSources(cfg)
}
