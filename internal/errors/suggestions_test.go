package errors

import (
	"strings"
	"testing"
)

func TestFindSimilar(t *testing.T) {
	candidates := []string{"prod-api", "prod-web", "staging-api", "dev-api"}

	tests := []struct {
		target      string
		maxDistance int
		wantAny     []string
	}{
		{"prod-apis", 2, []string{"prod-api"}},
		{"prod", 5, []string{"prod-api", "prod-web"}},
		{"api", 5, []string{"prod-api", "dev-api"}}, // staging-api has distance 8, too far
		{"PROD-API", 0, []string{"prod-api"}},
	}

	for _, tc := range tests {
		got := findSimilar(tc.target, candidates, tc.maxDistance)
		for _, want := range tc.wantAny {
			found := false
			for _, g := range got {
				if g == want {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("findSimilar(%q, maxDist=%d) = %v, expected to contain %q",
					tc.target, tc.maxDistance, got, want)
			}
		}
	}
}

func TestFindSimilarOrderAndLimit(t *testing.T) {
	got := findSimilar("add", []string{"reset", "adds", "add", "and", "ad", "a"}, 2)
	want := []string{"add", "adds", "and"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("findSimilar() = %v, want %v", got, want)
	}
}

func TestSourceNotFoundError(t *testing.T) {
	available := []string{"prod-api", "prod-web", "staging"}
	err := SourceNotFoundError("prod-apis", available)

	errStr := err.Error()
	if !strings.Contains(errStr, "prod-apis") {
		t.Errorf("error should contain the bad alias: %s", errStr)
	}
	if !strings.Contains(errStr, "prod-api") {
		t.Errorf("error should suggest similar alias: %s", errStr)
	}
	if !strings.Contains(errStr, "fuzmoi sources") {
		t.Errorf("error should suggest help command: %s", errStr)
	}
}

func TestNoSourceError(t *testing.T) {
	errStr := NoSourceError().Error()

	if !strings.HasPrefix(errStr, "no candidate source") {
		t.Errorf("error should start with 'no candidate source': %s", errStr)
	}
	if !strings.Contains(errStr, "default_source") {
		t.Errorf("error should mention default_source: %s", errStr)
	}
}

func TestUnknownRankerError(t *testing.T) {
	errStr := UnknownRankerError("levenstein", []string{"subsequence", "levenshtein"}).Error()

	if !strings.Contains(errStr, `"levenstein"`) {
		t.Errorf("error should contain the bad name: %s", errStr)
	}
	if !strings.Contains(errStr, "  levenshtein\n") {
		t.Errorf("error should suggest levenshtein: %s", errStr)
	}
}

func TestInvalidThresholdError(t *testing.T) {
	errStr := InvalidThresholdError("high").Error()

	if !strings.Contains(errStr, "high") {
		t.Errorf("error should contain the bad input: %s", errStr)
	}
	if !strings.Contains(errStr, "-inf") {
		t.Errorf("error should mention -inf: %s", errStr)
	}
}

func TestUnknownCommandError(t *testing.T) {
	errStr := UnknownCommandError("serch", []string{"search", "add", "remove", "reset"}).Error()

	if !strings.Contains(errStr, "search") {
		t.Errorf("error should suggest search: %s", errStr)
	}
	if !strings.Contains(errStr, "Run 'help'") {
		t.Errorf("error should point at help: %s", errStr)
	}
}

func TestCandidateNotFoundError(t *testing.T) {
	err := CandidateNotFoundError("bonjor", []string{"bonjour", "bonjourno", "bonsoir", "bon"})
	se, ok := err.(*SuggestiveError)
	if !ok {
		t.Fatalf("expected *SuggestiveError, got %T", err)
	}
	if len(se.Suggestions) != 3 {
		t.Errorf("suggestions = %v, want 3 entries", se.Suggestions)
	}

	noHints := CandidateNotFoundError("x", nil).Error()
	if strings.Contains(noHints, "Did you mean") {
		t.Errorf("error without suggestions should not ask: %s", noHints)
	}
}

func TestSimilar(t *testing.T) {
	got := Similar("Bonjor", []string{"bonsoir", "bonjour", "hello"}, 2)
	if strings.Join(got, ",") != "bonjour,bonsoir" {
		t.Errorf("Similar() = %v, want [bonjour bonsoir]", got)
	}
	if len(Similar("zzz", []string{"bonjour"}, 1)) != 0 {
		t.Error("expected no suggestions for a distant target")
	}
}
