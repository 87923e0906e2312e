package fuzzy

import (
	"cmp"
	"errors"
	"math"
	"slices"

	sahilm "github.com/sahilm/fuzzy"
)

// ErrInvalidThreshold is returned by the provided rankers when the
// threshold is not a number.
var ErrInvalidThreshold = errors.New("fuzzy: threshold must be a number")

// ScoredMatch is a candidate paired with its score against a query.
type ScoredMatch struct {
	Target string
	// Score is ranker-defined; higher is better.
	Score float64
	// MatchedIndexes holds the byte offsets of matched characters in
	// Target, when the ranker reports them.
	MatchedIndexes []int
}

// Ranker scores queries against candidates.
//
// RankAll must return matches in descending score order and exclude
// every match whose score is <= opts.Threshold. Equal scores keep
// candidate list order, the same order Add produces when it splices a
// new candidate after existing matches of equal score.
//
// RankOne scores a single candidate and reports false when it does not
// match at all. It must agree with the score RankAll would give the same
// candidate.
type Ranker interface {
	RankAll(query string, candidates []string, opts Options) ([]ScoredMatch, error)
	RankOne(query, candidate string) (ScoredMatch, bool)
}

// SubsequenceRanker ranks candidates that contain the query characters in
// order, favoring first-character, adjacent, camel case and
// after-separator matches. It is backed by github.com/sahilm/fuzzy.
type SubsequenceRanker struct{}

// RankAll implements Ranker. An empty query matches nothing. Candidates
// with equal scores keep their list order.
func (SubsequenceRanker) RankAll(query string, candidates []string, opts Options) ([]ScoredMatch, error) {
	if math.IsNaN(opts.Threshold) {
		return nil, ErrInvalidThreshold
	}

	found := sahilm.Find(query, candidates)
	// sahilm lists later candidates first among ties.
	slices.SortStableFunc(found, func(a, b sahilm.Match) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})
	matches := make([]ScoredMatch, 0, len(found))
	for _, m := range found {
		score := float64(m.Score)
		if score <= opts.Threshold {
			continue
		}
		matches = append(matches, ScoredMatch{
			Target:         m.Str,
			Score:          score,
			MatchedIndexes: m.MatchedIndexes,
		})
	}
	return matches, nil
}

// RankOne implements Ranker.
func (SubsequenceRanker) RankOne(query, candidate string) (ScoredMatch, bool) {
	found := sahilm.Find(query, []string{candidate})
	if len(found) == 0 {
		return ScoredMatch{}, false
	}
	return ScoredMatch{
		Target:         candidate,
		Score:          float64(found[0].Score),
		MatchedIndexes: found[0].MatchedIndexes,
	}, true
}
