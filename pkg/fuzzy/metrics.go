package fuzzy

import "time"

// SearchOutcome tells how a search was served.
type SearchOutcome string

const (
	SearchHit   SearchOutcome = "hit"
	SearchMiss  SearchOutcome = "miss"
	SearchError SearchOutcome = "error"
)

// MetricsCollector receives operational metrics from an Index.
type MetricsCollector interface {
	// RecordSearch is called after each search. results is the number of
	// candidates returned.
	RecordSearch(outcome SearchOutcome, results int, duration time.Duration)

	// RecordAdd is called after each add with the number of cached
	// entries the new candidate was spliced into.
	RecordAdd(spliced int)

	// RecordRemove is called after each remove. found reports whether the
	// candidate was in the list; spliced is the number of cached entries
	// it was removed from.
	RecordRemove(found bool, spliced int)

	// RecordReset is called after each reset with the number of cached
	// queries dropped.
	RecordReset(dropped int)
}

// NoopMetricsCollector discards all metrics.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSearch(SearchOutcome, int, time.Duration) {}
func (NoopMetricsCollector) RecordAdd(int)                                  {}
func (NoopMetricsCollector) RecordRemove(bool, int)                         {}
func (NoopMetricsCollector) RecordReset(int)                                {}
