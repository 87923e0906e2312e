package fuzzy

import (
	"io"
	"log/slog"
	"math"
)

// Options is the option record handed to a Ranker.
type Options struct {
	// Threshold is the exclusive lower bound for a match score.
	// Matches scoring at or below it are discarded.
	Threshold float64
}

// DefaultOptions returns Options with no score filtering.
func DefaultOptions() Options {
	return Options{Threshold: math.Inf(-1)}
}

type config struct {
	options Options
	ranker  Ranker
	logger  *slog.Logger
	metrics MetricsCollector
}

// Option configures an Index.
type Option func(*config)

// WithThreshold sets the score threshold. The value is not validated here;
// rankers decide what to do with a malformed threshold.
func WithThreshold(threshold float64) Option {
	return func(c *config) {
		c.options.Threshold = threshold
	}
}

// WithRanker sets the ranker used for searches and cache repair.
// If nil is passed, SubsequenceRanker is used.
func WithRanker(r Ranker) Option {
	return func(c *config) {
		if r == nil {
			r = SubsequenceRanker{}
		}
		c.ranker = r
	}
}

// WithLogger sets the logger. Cache activity is logged at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m MetricsCollector) Option {
	return func(c *config) {
		if m == nil {
			m = NoopMetricsCollector{}
		}
		c.metrics = m
	}
}

func defaultConfig() config {
	return config{
		options: DefaultOptions(),
		ranker:  SubsequenceRanker{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: NoopMetricsCollector{},
	}
}
