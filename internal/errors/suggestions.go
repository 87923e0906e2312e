// Package errors provides enhanced error messages with suggestions.
package errors

import (
	"fmt"
	"sort"
	"strings"

	fuzzysearch "github.com/lithammer/fuzzysearch/fuzzy"
)

// SuggestiveError is an error that includes suggestions for fixing the problem.
type SuggestiveError struct {
	Message     string
	Suggestions []string
	HelpCommand string
}

func (e *SuggestiveError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nDid you mean one of these?\n")
		for _, s := range e.Suggestions {
			b.WriteString("  ")
			b.WriteString(s)
			b.WriteString("\n")
		}
	}

	if e.HelpCommand != "" {
		b.WriteString("\nRun '")
		b.WriteString(e.HelpCommand)
		b.WriteString("' for more information.")
	}

	return b.String()
}

// SourceNotFoundError creates an error for when a source alias isn't found.
func SourceNotFoundError(alias string, available []string) error {
	return &SuggestiveError{
		Message:     fmt.Sprintf("source %q not found", alias),
		Suggestions: findSimilar(alias, available, 3),
		HelpCommand: "fuzmoi sources",
	}
}

// NoSourceError creates an error for when no candidate source was given.
func NoSourceError() error {
	return &SuggestiveError{
		Message: "no candidate source",
		Suggestions: []string{
			"fuzmoi search -s ./words.txt \"query\"          - Local file, one candidate per line",
			"fuzmoi search -s s3://bucket/list.txt \"query\" - S3 object",
			"fuzmoi search -s cloudwatch:///app \"query\"    - CloudWatch log groups",
			"default_source: <alias> in ~/.fuzmoi/config.yaml",
		},
	}
}

// UnknownRankerError creates an error for an unsupported ranker name.
func UnknownRankerError(name string, available []string) error {
	return &SuggestiveError{
		Message:     fmt.Sprintf("unknown ranker %q", name),
		Suggestions: findSimilar(name, available, 4),
	}
}

// InvalidThresholdError creates an error for a threshold that is not a number.
func InvalidThresholdError(input string) error {
	return &SuggestiveError{
		Message: fmt.Sprintf("invalid threshold %q", input),
		Suggestions: []string{
			"A number: 0, -10, 2.5",
			"-inf to disable filtering",
		},
	}
}

// UnknownCommandError creates an error for an unknown shell command.
func UnknownCommandError(name string, available []string) error {
	return &SuggestiveError{
		Message:     fmt.Sprintf("unknown command %q", name),
		Suggestions: findSimilar(name, available, 2),
		HelpCommand: "help",
	}
}

// CandidateNotFoundError creates an error for a candidate that is not in
// the index. similar is usually Similar applied to the index candidates.
func CandidateNotFoundError(candidate string, similar []string) error {
	if len(similar) > 3 {
		similar = similar[:3]
	}
	return &SuggestiveError{
		Message:     fmt.Sprintf("candidate %q not found", candidate),
		Suggestions: similar,
	}
}

// Similar returns up to three candidates within maxDistance edits of
// target, closest first. Comparison ignores case.
func Similar(target string, candidates []string, maxDistance int) []string {
	return findSimilar(target, candidates, maxDistance)
}

// findSimilar finds strings similar to target using Levenshtein distance.
func findSimilar(target string, candidates []string, maxDistance int) []string {
	type match struct {
		value    string
		distance int
	}

	var matches []match
	targetLower := strings.ToLower(target)

	for _, c := range candidates {
		d := fuzzysearch.LevenshteinDistance(targetLower, strings.ToLower(c))
		if d <= maxDistance {
			matches = append(matches, match{value: c, distance: d})
		}
	}

	// Closest first; equal distances keep input order
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	var result []string
	for i := 0; i < len(matches) && i < 3; i++ {
		result = append(result, matches[i].value)
	}

	return result
}
