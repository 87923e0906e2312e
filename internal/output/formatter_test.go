package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/jmurray2011/fuzmoi/internal/source"
	"github.com/jmurray2011/fuzmoi/internal/ui"
	"github.com/jmurray2011/fuzmoi/pkg/fuzzy"
)

func TestNewFormatter(t *testing.T) {
	var buf bytes.Buffer

	tests := []struct {
		format string
		want   Format
	}{
		{"text", FormatText},
		{"json", FormatJSON},
		{"csv", FormatCSV},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			f := NewFormatter(tt.format, &buf)
			if f.Format() != tt.want {
				t.Errorf("NewFormatter(%q).Format() = %v, want %v", tt.format, f.Format(), tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for _, in := range []string{"", "text", "JSON", "csv"} {
		if _, err := ParseFormat(in); err != nil {
			t.Errorf("ParseFormat(%q) error = %v", in, err)
		}
	}
	if _, err := ParseFormat("yaml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

var sampleMatches = []fuzzy.ScoredMatch{
	{Target: "bonjour", Score: 12, MatchedIndexes: []int{0, 1, 2, 3, 4, 5}},
	{Target: "bon, jour", Score: 4.5},
}

func TestFormatResults_Text(t *testing.T) {
	var buf bytes.Buffer
	r := ui.NewRendererWithOptions(ui.WithOutput(&buf), ui.WithNoColor(true))
	f := NewFormatter("text", nil).WithRenderer(r)

	if err := f.FormatResults("bonjou", sampleMatches); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "1. bonjour\n2. bon, jour\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestFormatResults_JSON(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter("json", &buf)

	if err := f.FormatResults("bonjou", sampleMatches); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got struct {
		Query   string `json:"query"`
		Results []struct {
			Rank      int     `json:"rank"`
			Candidate string  `json:"candidate"`
			Score     float64 `json:"score"`
			Matched   []int   `json:"matched"`
		} `json:"results"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if got.Query != "bonjou" || len(got.Results) != 2 {
		t.Fatalf("unexpected output: %+v", got)
	}
	if got.Results[1].Rank != 2 || got.Results[1].Candidate != "bon, jour" || got.Results[1].Score != 4.5 {
		t.Errorf("second result = %+v", got.Results[1])
	}
	if len(got.Results[0].Matched) != 6 {
		t.Errorf("matched indexes = %v", got.Results[0].Matched)
	}
}

func TestFormatResults_JSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter("json", &buf)

	if err := f.FormatResults("zzz", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), `"results": []`) {
		t.Errorf("empty results should encode as [], got %s", buf.String())
	}
}

func TestFormatResults_CSV(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter("csv", &buf)

	if err := f.FormatResults("bonjou", sampleMatches); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "rank,candidate,score\n1,bonjour,12\n2,\"bon, jour\",4.5\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestFormatSources(t *testing.T) {
	cfg := &source.Config{
		Sources: map[string]source.SourceAlias{
			"words":  {URI: "file:///tmp/words.txt", Description: "French words"},
			"groups": {URI: "cloudwatch:///aws/"},
		},
		DefaultSource: "words",
	}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		r := ui.NewRendererWithOptions(ui.WithOutput(&buf), ui.WithNoColor(true))
		if err := NewFormatter("text", nil).WithRenderer(r).FormatSources(cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "@groups") || !strings.Contains(out, "@words (default)") {
			t.Errorf("unexpected output:\n%s", out)
		}
		if strings.Index(out, "@groups") > strings.Index(out, "@words") {
			t.Error("aliases should be sorted by name")
		}
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		if err := NewFormatter("csv", &buf).FormatSources(cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 3 || lines[2] != "words,file:///tmp/words.txt,French words,true" {
			t.Errorf("unexpected output: %q", lines)
		}
	})

	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		r := ui.NewRendererWithOptions(ui.WithOutput(&buf), ui.WithNoColor(true))
		empty := &source.Config{Sources: map[string]source.SourceAlias{}}
		if err := NewFormatter("text", nil).WithRenderer(r).FormatSources(empty); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No sources configured.") {
			t.Errorf("unexpected output: %q", buf.String())
		}
	})
}
