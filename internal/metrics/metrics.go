// Package metrics exports fuzzy index activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/jmurray2011/fuzmoi/pkg/fuzzy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "fuzmoi"

// Collector implements fuzzy.MetricsCollector on its own Prometheus registry.
type Collector struct {
	registry *prometheus.Registry

	searches      *prometheus.CounterVec
	searchLatency *prometheus.HistogramVec
	resultCount   prometheus.Histogram
	mutations     *prometheus.CounterVec
	splices       *prometheus.CounterVec
	resets        prometheus.Counter
	dropped       prometheus.Counter
}

var _ fuzzy.MetricsCollector = (*Collector)(nil)

// New creates a Collector with a fresh registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Searches by cache outcome",
		}, []string{"outcome"}),
		searchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Search latency by cache outcome",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		}, []string{"outcome"}),
		resultCount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of candidates returned per search",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Add and remove calls; remove_missing counts removes of absent candidates",
		}, []string{"op"}),
		splices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_splices_total",
			Help:      "Cached result lists patched by add or remove",
		}, []string{"op"}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_resets_total",
			Help:      "Cache resets",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_dropped_queries_total",
			Help:      "Cached queries discarded by resets",
		}),
	}

	c.registry.MustRegister(
		c.searches,
		c.searchLatency,
		c.resultCount,
		c.mutations,
		c.splices,
		c.resets,
		c.dropped,
	)
	return c
}

// Registry returns the registry the collector's metrics live in.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) RecordSearch(outcome fuzzy.SearchOutcome, results int, duration time.Duration) {
	label := string(outcome)
	c.searches.WithLabelValues(label).Inc()
	c.searchLatency.WithLabelValues(label).Observe(duration.Seconds())
	if outcome != fuzzy.SearchError {
		c.resultCount.Observe(float64(results))
	}
}

func (c *Collector) RecordAdd(spliced int) {
	c.mutations.WithLabelValues("add").Inc()
	c.splices.WithLabelValues("add").Add(float64(spliced))
}

func (c *Collector) RecordRemove(found bool, spliced int) {
	if !found {
		c.mutations.WithLabelValues("remove_missing").Inc()
		return
	}
	c.mutations.WithLabelValues("remove").Inc()
	c.splices.WithLabelValues("remove").Add(float64(spliced))
}

func (c *Collector) RecordReset(dropped int) {
	c.resets.Inc()
	c.dropped.Add(float64(dropped))
}

// Snapshot is a point-in-time summary of the collected metrics.
type Snapshot struct {
	Hits           int64
	Misses         int64
	Errors         int64
	Adds           int64
	Removes        int64
	RemovesMissing int64
	AddSplices     int64
	RemoveSplices  int64
	Resets         int64
	DroppedQueries int64
	MeanLatency    time.Duration
}

// HitRatio returns hits / (hits + misses), or 0 before any search.
func (s Snapshot) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Snapshot reads the current metric values.
func (c *Collector) Snapshot() Snapshot {
	var s Snapshot
	s.Hits = counterValue(c.searches.WithLabelValues(string(fuzzy.SearchHit)))
	s.Misses = counterValue(c.searches.WithLabelValues(string(fuzzy.SearchMiss)))
	s.Errors = counterValue(c.searches.WithLabelValues(string(fuzzy.SearchError)))
	s.Adds = counterValue(c.mutations.WithLabelValues("add"))
	s.Removes = counterValue(c.mutations.WithLabelValues("remove"))
	s.RemovesMissing = counterValue(c.mutations.WithLabelValues("remove_missing"))
	s.AddSplices = counterValue(c.splices.WithLabelValues("add"))
	s.RemoveSplices = counterValue(c.splices.WithLabelValues("remove"))
	s.Resets = counterValue(c.resets)
	s.DroppedQueries = counterValue(c.dropped)

	var count uint64
	var sum float64
	for _, outcome := range []fuzzy.SearchOutcome{fuzzy.SearchHit, fuzzy.SearchMiss, fuzzy.SearchError} {
		obs, ok := c.searchLatency.WithLabelValues(string(outcome)).(prometheus.Metric)
		if !ok {
			continue
		}
		var m dto.Metric
		if err := obs.Write(&m); err != nil || m.Histogram == nil {
			continue
		}
		count += m.Histogram.GetSampleCount()
		sum += m.Histogram.GetSampleSum()
	}
	if count > 0 {
		s.MeanLatency = time.Duration(sum / float64(count) * float64(time.Second))
	}
	return s
}

func counterValue(c prometheus.Counter) int64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil || m.Counter == nil {
		return 0
	}
	return int64(m.Counter.GetValue())
}
