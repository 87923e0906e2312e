// Package fuzzy provides an in-memory fuzzy search index over a mutable
// list of strings.
//
// Search results are cached per query. When the list changes through Add
// or Remove, every cached result list is patched in place at the right
// rank position using single-candidate scoring, so a cached query never
// needs a full re-rank:
//
//	idx := fuzzy.New([]string{"bonjour", "bonsoir"})
//	res, _ := idx.Search("bonjou") // [bonjour]
//	idx.Add("bonjourno")           // spliced into the "bonjou" entry
//	idx.Remove("bonjour")          // dropped from every cached entry
//
// Scoring is delegated to a Ranker. SubsequenceRanker is the default;
// LevenshteinRanker ranks by edit distance instead.
//
// A match is only kept when its score is strictly greater than the
// configured threshold. A candidate added while it scores at or below the
// threshold for a cached query is never inserted into that query's
// results later on; call Reset to force fresh searches.
package fuzzy
