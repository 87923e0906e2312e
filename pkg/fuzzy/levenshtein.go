package fuzzy

import (
	"math"
	"sort"

	fuzzysearch "github.com/lithammer/fuzzysearch/fuzzy"
)

// LevenshteinRanker keeps candidates that contain the query characters in
// order and ranks them by Levenshtein distance to the query. The score is
// the negated distance, so closer candidates score higher. It is backed by
// github.com/lithammer/fuzzysearch.
type LevenshteinRanker struct {
	// Fold enables Unicode case folding when matching.
	Fold bool
}

// RankAll implements Ranker. Candidates at equal distance keep their list
// order.
func (r LevenshteinRanker) RankAll(query string, candidates []string, opts Options) ([]ScoredMatch, error) {
	if math.IsNaN(opts.Threshold) {
		return nil, ErrInvalidThreshold
	}

	var ranks fuzzysearch.Ranks
	if r.Fold {
		ranks = fuzzysearch.RankFindFold(query, candidates)
	} else {
		ranks = fuzzysearch.RankFind(query, candidates)
	}

	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})

	matches := make([]ScoredMatch, 0, len(ranks))
	for _, rank := range ranks {
		score := -float64(rank.Distance)
		if score <= opts.Threshold {
			continue
		}
		matches = append(matches, ScoredMatch{Target: rank.Target, Score: score})
	}
	return matches, nil
}

// RankOne implements Ranker.
func (r LevenshteinRanker) RankOne(query, candidate string) (ScoredMatch, bool) {
	var distance int
	if r.Fold {
		distance = fuzzysearch.RankMatchFold(query, candidate)
	} else {
		distance = fuzzysearch.RankMatch(query, candidate)
	}
	if distance < 0 {
		return ScoredMatch{}, false
	}
	return ScoredMatch{Target: candidate, Score: -float64(distance)}, true
}
