package fuzzy

import (
	"log/slog"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// cacheEntry holds the ranked matches for one query. results[i] is always
// fuzzy[i].Target.
type cacheEntry struct {
	fuzzy   []ScoredMatch
	results []string
}

func newCacheEntry(matches []ScoredMatch) *cacheEntry {
	e := &cacheEntry{
		fuzzy:   make([]ScoredMatch, len(matches)),
		results: make([]string, len(matches)),
	}
	for i, m := range matches {
		e.fuzzy[i] = m
		e.results[i] = m.Target
	}
	return e
}

// insert splices m in after every entry scoring at least as well.
func (e *cacheEntry) insert(m ScoredMatch) int {
	i := sort.Search(len(e.fuzzy), func(i int) bool {
		return e.fuzzy[i].Score < m.Score
	})
	e.fuzzy = slices.Insert(e.fuzzy, i, m)
	e.results = slices.Insert(e.results, i, m.Target)
	return i
}

// remove deletes the first result equal to target. It reports false when
// target is not cached for this query.
func (e *cacheEntry) remove(target string) (int, bool) {
	i := slices.Index(e.results, target)
	if i < 0 {
		return -1, false
	}
	e.fuzzy = slices.Delete(e.fuzzy, i, i+1)
	e.results = slices.Delete(e.results, i, i+1)
	return i, true
}

// Stats is a point-in-time summary of index activity.
type Stats struct {
	Candidates    int
	CachedQueries int
	Hits          int64
	Misses        int64
	Inserted      int64
	Removed       int64
	Resets        int64
}

// Index is a fuzzy search index with an incrementally maintained query
// cache. The zero value is not usable; create one with New.
//
// An Index is safe for concurrent use. Mutations hold exclusive access
// for their whole duration; cache hits only take a read lock.
type Index struct {
	mu      sync.RWMutex
	list    []string
	cache   map[string]*cacheEntry
	options Options
	ranker  Ranker
	logger  *slog.Logger
	metrics MetricsCollector

	hits, misses      atomic.Int64
	inserted, removed atomic.Int64
	resets            atomic.Int64
}

// New creates an Index over a copy of candidates.
func New(candidates []string, opts ...Option) *Index {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Index{
		list:    slices.Clone(candidates),
		cache:   make(map[string]*cacheEntry),
		options: cfg.options,
		ranker:  cfg.ranker,
		logger:  cfg.logger,
		metrics: cfg.metrics,
	}
}

// Search returns the candidates matching query, best match first.
// Results for a query are computed once and then served from the cache,
// which Add and Remove keep up to date. An empty index or a query with no
// match yields an empty slice. Errors from the ranker are returned as is
// and leave the cache unchanged.
func (x *Index) Search(query string) ([]string, error) {
	var results []string
	err := x.lookup(query, func(e *cacheEntry) {
		results = slices.Clone(e.results)
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// SearchMatches is like Search but returns the scored matches.
func (x *Index) SearchMatches(query string) ([]ScoredMatch, error) {
	var matches []ScoredMatch
	err := x.lookup(query, func(e *cacheEntry) {
		matches = make([]ScoredMatch, len(e.fuzzy))
		for i, m := range e.fuzzy {
			m.MatchedIndexes = slices.Clone(m.MatchedIndexes)
			matches[i] = m
		}
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// lookup finds or creates the cache entry for query and passes it to read
// while the lock is still held.
func (x *Index) lookup(query string, read func(*cacheEntry)) error {
	start := time.Now()

	x.mu.RLock()
	if e, ok := x.cache[query]; ok {
		read(e)
		n := len(e.results)
		x.mu.RUnlock()
		x.recordHit(query, n, start)
		return nil
	}
	x.mu.RUnlock()

	x.mu.Lock()
	defer x.mu.Unlock()

	// Another search may have filled the entry while we waited.
	if e, ok := x.cache[query]; ok {
		read(e)
		x.recordHit(query, len(e.results), start)
		return nil
	}

	matches, err := x.ranker.RankAll(query, x.list, x.options)
	if err != nil {
		x.metrics.RecordSearch(SearchError, 0, time.Since(start))
		x.logger.Debug("search failed", "query", query, "error", err)
		return err
	}

	e := newCacheEntry(matches)
	x.cache[query] = e
	read(e)
	x.misses.Add(1)
	x.metrics.RecordSearch(SearchMiss, len(e.results), time.Since(start))
	x.logger.Debug("search cached", "query", query, "results", len(e.results), "candidates", len(x.list))
	return nil
}

func (x *Index) recordHit(query string, results int, start time.Time) {
	x.hits.Add(1)
	x.metrics.RecordSearch(SearchHit, results, time.Since(start))
	x.logger.Debug("search cache hit", "query", query, "results", results)
}

// Add appends target to the list and splices it into every cached result
// list it matches above the threshold. Cached queries it does not match
// are left untouched, even if a fresh search would now include it.
func (x *Index) Add(target string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.list = append(x.list, target)

	spliced := 0
	for query, e := range x.cache {
		m, ok := x.ranker.RankOne(query, target)
		if !ok || !(m.Score > x.options.Threshold) {
			continue
		}
		m.Target = target
		pos := e.insert(m)
		spliced++
		x.logger.Debug("cache entry spliced", "op", "add", "query", query, "target", target, "position", pos)
	}

	x.inserted.Add(int64(spliced))
	x.metrics.RecordAdd(spliced)
}

// Remove deletes the first occurrence of target from the list and from
// every cached result list containing it. Removing a candidate that is
// not in the list is a no-op.
func (x *Index) Remove(target string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	i := slices.Index(x.list, target)
	if i < 0 {
		x.metrics.RecordRemove(false, 0)
		return
	}
	x.list = slices.Delete(x.list, i, i+1)

	spliced := 0
	for query, e := range x.cache {
		pos, ok := e.remove(target)
		if !ok {
			continue
		}
		spliced++
		x.logger.Debug("cache entry spliced", "op", "remove", "query", query, "target", target, "position", pos)
	}

	x.removed.Add(int64(spliced))
	x.metrics.RecordRemove(true, spliced)
}

// Reset drops every cached query. The candidate list and options are kept.
func (x *Index) Reset() {
	x.mu.Lock()
	defer x.mu.Unlock()

	dropped := len(x.cache)
	x.cache = make(map[string]*cacheEntry)
	x.resets.Add(1)
	x.metrics.RecordReset(dropped)
	x.logger.Debug("cache reset", "dropped", dropped)
}

// Len returns the number of candidates.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.list)
}

// Candidates returns a copy of the candidate list in insertion order.
func (x *Index) Candidates() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return slices.Clone(x.list)
}

// Options returns the options the index was built with.
func (x *Index) Options() Options {
	return x.options
}

// CacheLen returns the number of cached queries.
func (x *Index) CacheLen() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.cache)
}

// CachedQueries returns the cached queries in sorted order.
func (x *Index) CachedQueries() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	queries := make([]string, 0, len(x.cache))
	for q := range x.cache {
		queries = append(queries, q)
	}
	sort.Strings(queries)
	return queries
}

// Stats returns a summary of index activity.
func (x *Index) Stats() Stats {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return Stats{
		Candidates:    len(x.list),
		CachedQueries: len(x.cache),
		Hits:          x.hits.Load(),
		Misses:        x.misses.Load(),
		Inserted:      x.inserted.Load(),
		Removed:       x.removed.Load(),
		Resets:        x.resets.Load(),
	}
}
