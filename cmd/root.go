package cmd

import (
	"fmt"
	"os"

	"github.com/jmurray2011/fuzmoi/internal/logging"
	"github.com/jmurray2011/fuzmoi/internal/ui"

	// Register candidate source schemes
	_ "github.com/jmurray2011/fuzmoi/internal/cloudwatch"
	_ "github.com/jmurray2011/fuzmoi/internal/local"
	_ "github.com/jmurray2011/fuzmoi/internal/s3"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	profile      string
	region       string
	outputFormat string
	threshold    string
	rankerName   string
	cfgFile      string
	verbose      bool
	noColor      bool
	quiet        bool
	showScores   bool

	// render is the global renderer for all output
	render *ui.Renderer
)

var rootCmd = &cobra.Command{
	Use:   "fuzmoi",
	Short: "Fuzzy search over candidate lists",
	Long: `fuzmoi - fuzzy search over lists of strings, with a query cache that is
patched in place as candidates are added and removed.

Candidate sources:
  ./words.txt                                   Local file, one candidate per line
  file:///path/words.json?format=json           Local JSON array of strings
  file:///path/to/dir                           File names under a directory
  s3://bucket/words.txt                         S3 object, one candidate per line
  s3://bucket/prefix/                           S3 keys under a prefix
  cloudwatch:///aws/lambda/                     CloudWatch log group names
  cloudwatch:///app/api?streams=true            Log stream names of a group
  @alias-name                                   Config alias
  -                                             Standard input

Configuration:
  ~/.fuzmoi.yaml holds defaults (threshold, ranker, output, ...).
  ~/.fuzmoi/config.yaml defines source aliases:

    sources:
      words:
        uri: ./words.txt
      lambdas:
        uri: cloudwatch:///aws/lambda/?profile=prod

    default_source: words

Examples:
  # One-off search
  fuzmoi search -s ./words.txt bonjou

  # Interactive shell, reloading the file when it changes
  fuzmoi shell -s ./words.txt --watch

  # Search log group names with the Levenshtein ranker
  fuzmoi search -s cloudwatch:///aws/ --ranker levenshtein lambda`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// SetVersion sets the version string for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

func init() {
	cobra.OnInitialize(initConfig, initRenderer, initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.fuzmoi.yaml)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "Default AWS profile (can be overridden in URI)")
	rootCmd.PersistentFlags().StringVarP(&region, "region", "r", "", "Default AWS region (can be overridden in URI)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "Output format: text, json, csv")
	rootCmd.PersistentFlags().StringVarP(&threshold, "threshold", "t", "", "Drop matches scoring at or below this value (default -inf)")
	rootCmd.PersistentFlags().StringVar(&rankerName, "ranker", "", "Ranker: subsequence, levenshtein, levenshtein-fold")
	rootCmd.PersistentFlags().BoolVar(&showScores, "scores", false, "Show match scores in text output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output for debugging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress status messages")

	// Bind flags to viper
	_ = viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))
	_ = viper.BindPFlag("region", rootCmd.PersistentFlags().Lookup("region"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("threshold", rootCmd.PersistentFlags().Lookup("threshold"))
	_ = viper.BindPFlag("ranker", rootCmd.PersistentFlags().Lookup("ranker"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initRenderer initializes the global renderer with current settings.
func initRenderer() {
	render = ui.NewRendererWithOptions(
		ui.WithNoColor(noColor || os.Getenv("NO_COLOR") != ""),
		ui.WithQuiet(quiet),
		ui.WithScores(showScores),
	)
}

// initLogging replaces the default logger with one configured from
// log_level and log_format. --verbose forces debug.
func initLogging() {
	level, err := logging.ParseLevel(viper.GetString("log_level"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if IsVerbose() {
		level = logging.LevelDebug
	}
	format := logging.FormatText
	if viper.GetString("log_format") == string(logging.FormatJSON) {
		format = logging.FormatJSON
	}
	logging.SetDefault(logging.NewWithOptions(os.Stderr, format, level))
}

// IsVerbose returns true if verbose mode is enabled
func IsVerbose() bool {
	return verbose || viper.GetBool("verbose")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			// Also check ~/.fuzmoi/ directory
			viper.AddConfigPath(home + "/.fuzmoi")
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".fuzmoi")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("FUZMOI")
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("output", "text")
	viper.SetDefault("ranker", "subsequence")
	viper.SetDefault("history_max", 50)
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("log_format", "text")
	// history_file defaults to ~/.fuzmoi_history.json (handled in history.go)

	// Read config file (ignore if not found, warn on other errors)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: error reading config file: %v\n", err)
		}
	}
}

// getProfile returns the AWS profile from flags or config.
func getProfile() string {
	if profile != "" {
		return profile
	}
	return viper.GetString("profile")
}

// getRegion returns the AWS region from flags or config.
func getRegion() string {
	if region != "" {
		return region
	}
	return viper.GetString("region")
}

// getOutputFormat returns the output format from flags or config.
func getOutputFormat() string {
	if outputFormat != "" {
		return outputFormat
	}
	return viper.GetString("output")
}

// getThreshold returns the threshold from flags or config; empty means unset.
func getThreshold() string {
	if threshold != "" {
		return threshold
	}
	return viper.GetString("threshold")
}

// getRanker returns the ranker name from flags or config.
func getRanker() string {
	if rankerName != "" {
		return rankerName
	}
	return viper.GetString("ranker")
}
