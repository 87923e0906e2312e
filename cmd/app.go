package cmd

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	fmerrors "github.com/jmurray2011/fuzmoi/internal/errors"
	"github.com/jmurray2011/fuzmoi/internal/local"
	"github.com/jmurray2011/fuzmoi/internal/logging"
	"github.com/jmurray2011/fuzmoi/internal/metrics"
	"github.com/jmurray2011/fuzmoi/internal/output"
	"github.com/jmurray2011/fuzmoi/internal/source"
	"github.com/jmurray2011/fuzmoi/internal/ui"
	"github.com/jmurray2011/fuzmoi/pkg/fuzzy"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// appContextKey is the context key for the App instance.
type appContextKey struct{}

// Ranker names accepted by --ranker.
const (
	RankerSubsequence     = "subsequence"
	RankerLevenshtein     = "levenshtein"
	RankerLevenshteinFold = "levenshtein-fold"
)

var rankerNames = []string{RankerSubsequence, RankerLevenshtein, RankerLevenshteinFold}

// Config holds all configuration values that were previously global.
type Config struct {
	Profile      string
	Region       string
	OutputFormat string
	Threshold    string
	Ranker       string
	Verbose      bool
	NoColor      bool
	Quiet        bool
}

// App holds the application dependencies that can be injected for testing.
type App struct {
	Config  Config
	Render  *ui.Renderer
	Logger  logging.Logger
	Metrics *metrics.Collector
}

// NewApp creates a new App with default configuration from viper.
func NewApp() *App {
	cfg := Config{
		Profile:      getProfile(),
		Region:       getRegion(),
		OutputFormat: getOutputFormat(),
		Threshold:    getThreshold(),
		Ranker:       getRanker(),
		Verbose:      IsVerbose(),
		NoColor:      noColor,
		Quiet:        quiet,
	}

	return &App{
		Config:  cfg,
		Render:  render,
		Logger:  logging.Default(),
		Metrics: metrics.New(),
	}
}

// NewAppWithConfig creates a new App with the given configuration.
// This is primarily used for testing.
func NewAppWithConfig(cfg Config, renderer *ui.Renderer, logger logging.Logger) *App {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &App{
		Config:  cfg,
		Render:  renderer,
		Logger:  logger,
		Metrics: metrics.New(),
	}
}

// GetApp retrieves the App from the command context.
// If no App is set, it creates a new default one.
func GetApp(cmd *cobra.Command) *App {
	if app, ok := cmd.Context().Value(appContextKey{}).(*App); ok {
		return app
	}
	return NewApp()
}

// SetApp stores the App in the context for a command.
func SetApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appContextKey{}, app)
}

// Debugf prints a debug message if verbose mode is enabled.
// This is a method on App to allow per-instance verbose control.
func (a *App) Debugf(format string, args ...interface{}) {
	if a.Config.Verbose || viper.GetBool("verbose") {
		a.Render.Debug(format, args...)
	}
}

// GetProfile returns the profile from Config or viper.
func (a *App) GetProfile() string {
	if a.Config.Profile != "" {
		return a.Config.Profile
	}
	return viper.GetString("profile")
}

// GetRegion returns the region from Config or viper.
func (a *App) GetRegion() string {
	if a.Config.Region != "" {
		return a.Config.Region
	}
	return viper.GetString("region")
}

// GetOutputFormat returns the output format from Config or viper.
func (a *App) GetOutputFormat() string {
	if a.Config.OutputFormat != "" {
		return a.Config.OutputFormat
	}
	return viper.GetString("output")
}

// Formatter returns a formatter for the configured output format.
func (a *App) Formatter() (*output.Formatter, error) {
	format, err := output.ParseFormat(a.GetOutputFormat())
	if err != nil {
		return nil, err
	}
	return output.NewFormatter(string(format), a.Render.Out()).WithRenderer(a.Render), nil
}

// NewRanker builds the configured ranker.
func (a *App) NewRanker() (fuzzy.Ranker, error) {
	switch strings.ToLower(a.Config.Ranker) {
	case "", RankerSubsequence:
		return fuzzy.SubsequenceRanker{}, nil
	case RankerLevenshtein:
		return fuzzy.LevenshteinRanker{}, nil
	case RankerLevenshteinFold:
		return fuzzy.LevenshteinRanker{Fold: true}, nil
	default:
		return nil, fmerrors.UnknownRankerError(a.Config.Ranker, rankerNames)
	}
}

// ParseThreshold parses a threshold flag value. Empty means no threshold.
func ParseThreshold(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.Inf(-1), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, fmerrors.InvalidThresholdError(s)
	}
	return v, nil
}

// NewIndex builds an index over candidates with the configured ranker,
// threshold, logger and metrics.
func (a *App) NewIndex(candidates []string) (*fuzzy.Index, error) {
	ranker, err := a.NewRanker()
	if err != nil {
		return nil, err
	}
	th, err := ParseThreshold(a.Config.Threshold)
	if err != nil {
		return nil, err
	}

	return fuzzy.New(candidates,
		fuzzy.WithRanker(ranker),
		fuzzy.WithThreshold(th),
		fuzzy.WithLogger(a.Logger.WithField("component", "index").Slog()),
		fuzzy.WithMetrics(a.Metrics),
	), nil
}

// ResolveSources returns uris, or the configured default source when
// none were given.
func (a *App) ResolveSources(uris []string) ([]string, error) {
	if len(uris) > 0 {
		return uris, nil
	}
	cfg, err := source.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.DefaultSource == "" {
		return nil, fmerrors.NoSourceError()
	}
	a.Debugf("Using default source @%s", cfg.DefaultSource)
	return []string{"@" + cfg.DefaultSource}, nil
}

// LoadCandidates loads and concatenates the candidates of every source.
// The URI "-" reads one candidate per line from stdin.
func (a *App) LoadCandidates(ctx context.Context, uris []string, stdin io.Reader) ([]string, error) {
	uris, err := a.ResolveSources(uris)
	if err != nil {
		return nil, err
	}

	opts := source.OpenOptions{Profile: a.GetProfile(), Region: a.GetRegion()}

	var candidates []string
	for _, uri := range uris {
		var items []string
		if uri == "-" {
			items, err = local.ReadLines(stdin, false)
		} else {
			items, err = source.LoadAll(ctx, []string{uri}, opts)
		}
		if err != nil {
			return nil, err
		}
		a.Debugf("Loaded %d candidates from %s", len(items), uri)
		candidates = append(candidates, items...)
	}
	return candidates, nil
}
