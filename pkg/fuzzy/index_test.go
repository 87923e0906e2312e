package fuzzy

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tableRanker scores candidates from a fixed table and counts full ranks.
type tableRanker struct {
	mu      sync.Mutex
	scores  map[string]map[string]float64
	rankAll map[string]int
}

func newTableRanker(scores map[string]map[string]float64) *tableRanker {
	return &tableRanker{scores: scores, rankAll: make(map[string]int)}
}

func (r *tableRanker) RankAll(query string, candidates []string, opts Options) ([]ScoredMatch, error) {
	r.mu.Lock()
	r.rankAll[query]++
	r.mu.Unlock()

	var matches []ScoredMatch
	for _, c := range candidates {
		if m, ok := r.RankOne(query, c); ok && m.Score > opts.Threshold {
			matches = append(matches, m)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches, nil
}

func (r *tableRanker) RankOne(query, candidate string) (ScoredMatch, bool) {
	score, ok := r.scores[query][candidate]
	if !ok {
		return ScoredMatch{}, false
	}
	return ScoredMatch{Target: candidate, Score: score}, true
}

func (r *tableRanker) calls(query string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rankAll[query]
}

type failingRanker struct{ err error }

func (f failingRanker) RankAll(string, []string, Options) ([]ScoredMatch, error) {
	return nil, f.err
}

func (f failingRanker) RankOne(string, string) (ScoredMatch, bool) {
	return ScoredMatch{}, false
}

// requireLockstep checks that every cached entry keeps fuzzy and results
// aligned.
func requireLockstep(t *testing.T, x *Index) {
	t.Helper()
	x.mu.RLock()
	defer x.mu.RUnlock()
	for q, e := range x.cache {
		require.Len(t, e.results, len(e.fuzzy), "query %q", q)
		for i := range e.fuzzy {
			require.Equal(t, e.fuzzy[i].Target, e.results[i], "query %q index %d", q, i)
		}
	}
}

func TestIndex_SearchEmptyList(t *testing.T) {
	x := New(nil)

	res, err := x.Search("")
	require.NoError(t, err)
	assert.Empty(t, res)

	res, err = x.Search("anything")
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestIndex_SearchSubsequence(t *testing.T) {
	x := New([]string{"bonjour", "bonsoir"})

	res, err := x.Search("bonjou")
	require.NoError(t, err)
	assert.Equal(t, []string{"bonjour"}, res)
}

func TestIndex_CopiesInitialList(t *testing.T) {
	list := []string{"alpha", "beta"}
	x := New(list)
	list[0] = "mutated"

	assert.Equal(t, []string{"alpha", "beta"}, x.Candidates())
}

func TestIndex_CacheHit(t *testing.T) {
	r := newTableRanker(map[string]map[string]float64{
		"q": {"a": 10, "b": 5},
	})
	x := New([]string{"a", "b", "c"}, WithRanker(r))

	first, err := x.Search("q")
	require.NoError(t, err)
	second, err := x.Search("q")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, r.calls("q"))
}

func TestIndex_EmptyResultIsCached(t *testing.T) {
	r := newTableRanker(nil)
	x := New([]string{"a"}, WithRanker(r))

	for i := 0; i < 3; i++ {
		res, err := x.Search("nothing")
		require.NoError(t, err)
		assert.Empty(t, res)
	}
	assert.Equal(t, 1, r.calls("nothing"))
	assert.Equal(t, 1, x.CacheLen())
}

func TestIndex_ReturnedSliceIsACopy(t *testing.T) {
	r := newTableRanker(map[string]map[string]float64{"q": {"a": 1}})
	x := New([]string{"a"}, WithRanker(r))

	res, err := x.Search("q")
	require.NoError(t, err)
	res[0] = "changed"

	again, err := x.Search("q")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, again)
}

func TestIndex_Add(t *testing.T) {
	scores := map[string]map[string]float64{
		"q": {"a": 10, "b": 5, "c": 7, "d": 5, "e": 12, "f": 1},
		"r": {"b": 3},
	}

	tests := []struct {
		name   string
		adds   []string
		wantQ  []string
		wantR  []string
		thresh float64
	}{
		{
			name:   "insert in the middle",
			adds:   []string{"c"},
			wantQ:  []string{"a", "c", "b"},
			wantR:  []string{"b"},
			thresh: math.Inf(-1),
		},
		{
			name:   "equal score goes after existing entries",
			adds:   []string{"d"},
			wantQ:  []string{"a", "b", "d"},
			wantR:  []string{"b"},
			thresh: math.Inf(-1),
		},
		{
			name:   "best score goes first",
			adds:   []string{"e"},
			wantQ:  []string{"e", "a", "b"},
			wantR:  []string{"b"},
			thresh: math.Inf(-1),
		},
		{
			name:   "no match leaves entry untouched",
			adds:   []string{"zzz"},
			wantQ:  []string{"a", "b"},
			wantR:  []string{"b"},
			thresh: math.Inf(-1),
		},
		{
			name:   "score at threshold is not inserted",
			adds:   []string{"f"},
			wantQ:  []string{"a", "b"},
			wantR:  []string{"b"},
			thresh: 1,
		},
		{
			name:   "several adds",
			adds:   []string{"c", "f", "e", "d"},
			wantQ:  []string{"e", "a", "c", "b", "d", "f"},
			wantR:  []string{"b"},
			thresh: math.Inf(-1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTableRanker(scores)
			x := New([]string{"a", "b"}, WithRanker(r), WithThreshold(tt.thresh))

			_, err := x.Search("q")
			require.NoError(t, err)
			_, err = x.Search("r")
			require.NoError(t, err)

			for _, a := range tt.adds {
				x.Add(a)
				requireLockstep(t, x)
			}

			gotQ, err := x.Search("q")
			require.NoError(t, err)
			gotR, err := x.Search("r")
			require.NoError(t, err)

			assert.Equal(t, tt.wantQ, gotQ)
			assert.Equal(t, tt.wantR, gotR)
			assert.Equal(t, 1, r.calls("q"), "cached query must not be re-ranked")
			assert.Equal(t, append([]string{"a", "b"}, tt.adds...), x.Candidates())
		})
	}
}

func TestIndex_AddMatchesFreshSearch(t *testing.T) {
	scores := map[string]map[string]float64{
		"x": {"k1": 4, "k2": 9, "k3": 4, "k4": 1, "k5": 9, "k6": 6},
		"y": {"k1": 2, "k3": 8, "k6": 8},
	}
	initial := []string{"k1", "k2"}
	added := []string{"k3", "k4", "k5", "k6"}

	r := newTableRanker(scores)
	x := New(initial, WithRanker(r))
	for _, q := range []string{"x", "y"} {
		_, err := x.Search(q)
		require.NoError(t, err)
	}
	for _, a := range added {
		x.Add(a)
	}

	fresh := New(append(append([]string{}, initial...), added...), WithRanker(newTableRanker(scores)))
	for _, q := range []string{"x", "y"} {
		got, err := x.Search(q)
		require.NoError(t, err)
		want, err := fresh.Search(q)
		require.NoError(t, err)
		assert.Equal(t, want, got, "query %q", q)
	}
}

func TestIndex_AddBonjourno(t *testing.T) {
	x := New([]string{"bonjour", "bonsoir"})

	_, err := x.Search("bonjou")
	require.NoError(t, err)

	x.Add("bonjourno")
	requireLockstep(t, x)

	got, err := x.Search("bonjou")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bonjour", "bonjourno"}, got)

	want, err := New(x.Candidates()).Search("bonjou")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, int64(1), x.Stats().Misses)
}

func TestIndex_AddTieMatchesFreshSearch(t *testing.T) {
	x := New([]string{"ab1", "ab2"})

	_, err := x.Search("ab")
	require.NoError(t, err)

	x.Add("ab3")
	x.Add("ab0")
	requireLockstep(t, x)

	got, err := x.SearchMatches("ab")
	require.NoError(t, err)
	require.Len(t, got, 4)
	for _, m := range got[1:] {
		require.Equal(t, got[0].Score, m.Score, "candidates should tie")
	}

	want, err := New([]string{"ab1", "ab2", "ab3", "ab0"}).SearchMatches("ab")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "ab1", got[0].Target)
	assert.Equal(t, "ab0", got[3].Target)
}

func TestIndex_Remove(t *testing.T) {
	scores := map[string]map[string]float64{
		"q": {"a": 10, "b": 5, "c": 7},
		"r": {"c": 1},
	}

	t.Run("removes from list and cached entries", func(t *testing.T) {
		x := New([]string{"a", "b", "c"}, WithRanker(newTableRanker(scores)))
		_, err := x.Search("q")
		require.NoError(t, err)
		_, err = x.Search("r")
		require.NoError(t, err)

		x.Remove("c")
		requireLockstep(t, x)

		q, err := x.Search("q")
		require.NoError(t, err)
		r, err := x.Search("r")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, q)
		assert.Empty(t, r)
		assert.Equal(t, []string{"a", "b"}, x.Candidates())
	})

	t.Run("entry without target is untouched", func(t *testing.T) {
		x := New([]string{"a", "b", "c"}, WithRanker(newTableRanker(scores)))
		_, err := x.Search("r")
		require.NoError(t, err)

		x.Remove("a")

		r, err := x.Search("r")
		require.NoError(t, err)
		assert.Equal(t, []string{"c"}, r)
		assert.Equal(t, []string{"b", "c"}, x.Candidates())
	})

	t.Run("absent target is a no-op", func(t *testing.T) {
		x := New([]string{"a", "b"}, WithRanker(newTableRanker(scores)))
		_, err := x.Search("q")
		require.NoError(t, err)

		x.Remove("missing")

		q, err := x.Search("q")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, q)
		assert.Equal(t, []string{"a", "b"}, x.Candidates())
		assert.Equal(t, int64(0), x.Stats().Removed)
	})

	t.Run("duplicates lose one occurrence", func(t *testing.T) {
		x := New([]string{"a", "b", "a"}, WithRanker(newTableRanker(scores)))
		q, err := x.Search("q")
		require.NoError(t, err)
		require.Equal(t, []string{"a", "a", "b"}, q)

		x.Remove("a")
		requireLockstep(t, x)

		q, err = x.Search("q")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, q)
		assert.Equal(t, []string{"b", "a"}, x.Candidates())
	})
}

func TestIndex_RemoveBonjour(t *testing.T) {
	x := New([]string{"bonjour", "bonsoir"})
	_, err := x.Search("bonjou")
	require.NoError(t, err)
	_, err = x.Search("bon")
	require.NoError(t, err)

	x.Remove("bonjour")
	requireLockstep(t, x)

	got, err := x.Search("bonjou")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = x.Search("bon")
	require.NoError(t, err)
	assert.Equal(t, []string{"bonsoir"}, got)
}

func TestIndex_Reset(t *testing.T) {
	r := newTableRanker(map[string]map[string]float64{"q": {"a": 1}})
	x := New([]string{"a"}, WithRanker(r))

	_, err := x.Search("q")
	require.NoError(t, err)
	x.Reset()
	assert.Equal(t, 0, x.CacheLen())
	assert.Equal(t, []string{"a"}, x.Candidates())

	_, err = x.Search("q")
	require.NoError(t, err)
	assert.Equal(t, 2, r.calls("q"))
}

func TestIndex_RankerErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	x := New([]string{"a"}, WithRanker(failingRanker{err: boom}))

	res, err := x.Search("q")
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, res)
	assert.Equal(t, 0, x.CacheLen())

	_, err = x.SearchMatches("q")
	assert.ErrorIs(t, err, boom)
}

func TestIndex_InvalidThreshold(t *testing.T) {
	for _, r := range []Ranker{SubsequenceRanker{}, LevenshteinRanker{}} {
		t.Run(fmt.Sprintf("%T", r), func(t *testing.T) {
			x := New([]string{"abc"}, WithRanker(r), WithThreshold(math.NaN()))

			_, err := x.Search("a")
			assert.ErrorIs(t, err, ErrInvalidThreshold)
		})
	}
}

func TestIndex_SearchMatches(t *testing.T) {
	r := newTableRanker(map[string]map[string]float64{"q": {"a": 3, "b": 8}})
	x := New([]string{"a", "b"}, WithRanker(r))

	matches, err := x.SearchMatches("q")
	require.NoError(t, err)
	assert.Equal(t, []ScoredMatch{{Target: "b", Score: 8}, {Target: "a", Score: 3}}, matches)

	res, err := x.Search("q")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, res)
	assert.Equal(t, 1, r.calls("q"))
}

func TestIndex_Accessors(t *testing.T) {
	r := newTableRanker(nil)
	x := New([]string{"a", "b"}, WithRanker(r), WithThreshold(2))

	_, err := x.Search("zeta")
	require.NoError(t, err)
	_, err = x.Search("alpha")
	require.NoError(t, err)
	_, err = x.Search("alpha")
	require.NoError(t, err)

	assert.Equal(t, 2, x.Len())
	assert.Equal(t, []string{"alpha", "zeta"}, x.CachedQueries())
	assert.Equal(t, Options{Threshold: 2}, x.Options())

	x.Reset()
	stats := x.Stats()
	assert.Equal(t, Stats{Candidates: 2, CachedQueries: 0, Hits: 1, Misses: 2, Resets: 1}, stats)
}

func TestIndex_DefaultThreshold(t *testing.T) {
	x := New(nil)
	assert.True(t, math.IsInf(x.Options().Threshold, -1))
}

type recordingCollector struct {
	mu       sync.Mutex
	outcomes []SearchOutcome
	adds     []int
	removes  []bool
	resets   []int
}

func (c *recordingCollector) RecordSearch(o SearchOutcome, _ int, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, o)
}

func (c *recordingCollector) RecordAdd(spliced int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.adds = append(c.adds, spliced)
}

func (c *recordingCollector) RecordRemove(found bool, _ int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removes = append(c.removes, found)
}

func (c *recordingCollector) RecordReset(dropped int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resets = append(c.resets, dropped)
}

func TestIndex_Metrics(t *testing.T) {
	c := &recordingCollector{}
	r := newTableRanker(map[string]map[string]float64{"q": {"a": 1, "b": 2}})
	x := New([]string{"a"}, WithRanker(r), WithMetrics(c))

	_, err := x.Search("q")
	require.NoError(t, err)
	_, err = x.Search("q")
	require.NoError(t, err)
	x.Add("b")
	x.Remove("b")
	x.Remove("nope")
	x.Reset()

	assert.Equal(t, []SearchOutcome{SearchMiss, SearchHit}, c.outcomes)
	assert.Equal(t, []int{1}, c.adds)
	assert.Equal(t, []bool{true, false}, c.removes)
	assert.Equal(t, []int{1}, c.resets)
}

func TestIndex_Concurrent(t *testing.T) {
	scores := map[string]map[string]float64{"q": {}}
	for i := 0; i < 100; i++ {
		scores["q"][fmt.Sprintf("c%d", i)] = float64(i % 7)
	}
	x := New(nil, WithRanker(newTableRanker(scores)))

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := g; i < 100; i += 4 {
				x.Add(fmt.Sprintf("c%d", i))
				_, err := x.Search("q")
				assert.NoError(t, err)
			}
		}(g)
	}
	wg.Wait()

	requireLockstep(t, x)
	got, err := x.Search("q")
	require.NoError(t, err)
	assert.Len(t, got, 100)

	x.mu.RLock()
	defer x.mu.RUnlock()
	f := x.cache["q"].fuzzy
	assert.True(t, sort.SliceIsSorted(f, func(i, j int) bool { return f[i].Score > f[j].Score }))
}
