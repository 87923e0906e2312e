package output

import (
	"encoding/csv"
	"encoding/json"
	"strconv"

	"github.com/jmurray2011/fuzmoi/internal/source"
	"github.com/jmurray2011/fuzmoi/pkg/fuzzy"
)

// FormatResults outputs the ranked matches for query in the configured format.
func (f *Formatter) FormatResults(query string, matches []fuzzy.ScoredMatch) error {
	switch f.format {
	case FormatJSON:
		return f.formatResultsJSON(query, matches)
	case FormatCSV:
		return f.formatResultsCSV(matches)
	default:
		f.renderer.Results(matches)
		return nil
	}
}

func (f *Formatter) formatResultsJSON(query string, matches []fuzzy.ScoredMatch) error {
	type jsonResult struct {
		Rank      int     `json:"rank"`
		Candidate string  `json:"candidate"`
		Score     float64 `json:"score"`
		Matched   []int   `json:"matched,omitempty"`
	}
	type jsonResults struct {
		Query   string       `json:"query"`
		Results []jsonResult `json:"results"`
	}

	out := jsonResults{Query: query, Results: make([]jsonResult, len(matches))}
	for i, m := range matches {
		out.Results[i] = jsonResult{
			Rank:      i + 1,
			Candidate: m.Target,
			Score:     m.Score,
			Matched:   m.MatchedIndexes,
		}
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func (f *Formatter) formatResultsCSV(matches []fuzzy.ScoredMatch) error {
	writer := csv.NewWriter(f.writer)

	if err := writer.Write([]string{"rank", "candidate", "score"}); err != nil {
		return err
	}
	for i, m := range matches {
		record := []string{
			strconv.Itoa(i + 1),
			m.Target,
			strconv.FormatFloat(m.Score, 'g', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// FormatSources outputs the configured source aliases.
func (f *Formatter) FormatSources(cfg *source.Config) error {
	names := cfg.Names()

	switch f.format {
	case FormatJSON:
		type jsonSource struct {
			Name        string `json:"name"`
			URI         string `json:"uri"`
			Description string `json:"description,omitempty"`
			Default     bool   `json:"default,omitempty"`
		}
		out := make([]jsonSource, 0, len(names))
		for _, name := range names {
			a := cfg.Sources[name]
			out = append(out, jsonSource{name, a.URI, a.Description, name == cfg.DefaultSource})
		}
		encoder := json.NewEncoder(f.writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(out)

	case FormatCSV:
		writer := csv.NewWriter(f.writer)
		if err := writer.Write([]string{"name", "uri", "description", "default"}); err != nil {
			return err
		}
		for _, name := range names {
			a := cfg.Sources[name]
			record := []string{name, a.URI, a.Description, strconv.FormatBool(name == cfg.DefaultSource)}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
		writer.Flush()
		return writer.Error()

	default:
		if len(names) == 0 {
			f.renderer.Info("No sources configured.")
			return nil
		}
		rows := make([][]string, 0, len(names))
		for _, name := range names {
			a := cfg.Sources[name]
			display := "@" + name
			if name == cfg.DefaultSource {
				display += " (default)"
			}
			rows = append(rows, []string{display, a.URI, a.Description})
		}
		f.renderer.Table([]string{"NAME", "URI", "DESCRIPTION"}, rows)
		return nil
	}
}
