package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/jmurray2011/fuzmoi/pkg/fuzzy"
)

// Renderer handles all terminal output with consistent styling.
type Renderer struct {
	out        io.Writer
	err        io.Writer
	noColor    bool
	quiet      bool
	showScores bool
}

// NewRenderer creates a new Renderer with default settings.
func NewRenderer() *Renderer {
	return &Renderer{
		out: os.Stdout,
		err: os.Stderr,
	}
}

// Option is a functional option for configuring the Renderer.
type Option func(*Renderer)

// WithOutput sets the output writer.
func WithOutput(w io.Writer) Option {
	return func(r *Renderer) {
		r.out = w
	}
}

// WithError sets the error writer.
func WithError(w io.Writer) Option {
	return func(r *Renderer) {
		r.err = w
	}
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) Option {
	return func(r *Renderer) {
		r.noColor = noColor
	}
}

// WithQuiet enables quiet mode (suppresses status messages).
func WithQuiet(quiet bool) Option {
	return func(r *Renderer) {
		r.quiet = quiet
	}
}

// WithScores prints each match's score next to it.
func WithScores(show bool) Option {
	return func(r *Renderer) {
		r.showScores = show
	}
}

// NewRendererWithOptions creates a new Renderer with the given options.
func NewRendererWithOptions(opts ...Option) *Renderer {
	r := NewRenderer()
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Out returns the writer results are printed to.
func (r *Renderer) Out() io.Writer {
	return r.out
}

// render applies styling if color is enabled.
func (r *Renderer) render(style lipgloss.Style, text string) string {
	if r.noColor {
		return text
	}
	return style.Render(text)
}

// --- Status and Messages ---

// Status prints a status message (suppressed in quiet mode).
func (r *Renderer) Status(format string, args ...any) {
	if r.quiet {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(r.err, r.render(StatusStyle, msg))
}

// Info prints an informational message.
func (r *Renderer) Info(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(r.out, msg)
}

// Success prints a success message.
func (r *Renderer) Success(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(r.out, r.render(SuccessStyle, msg))
}

// Warning prints a warning message.
func (r *Renderer) Warning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(r.err, r.render(WarningStyle, "Warning: "+msg))
}

// Error prints an error message.
func (r *Renderer) Error(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(r.err, r.render(ErrorStyle, "Error: "+msg))
}

// Debug prints a debug message (only when verbose).
func (r *Renderer) Debug(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(r.err, r.render(MutedStyle, "[DEBUG] "+msg))
}

// Prompt prints the shell prompt without a trailing newline.
func (r *Renderer) Prompt(prompt string) {
	fmt.Fprint(r.out, r.render(PromptStyle, prompt))
}

// --- Formatted Output ---

// KeyValue prints a key-value pair.
func (r *Renderer) KeyValue(key, value string) {
	label := r.render(LabelStyle, key+":")
	fmt.Fprintf(r.out, "%s %s\n", label, value)
}

// KeyValueIndent prints an indented key-value pair.
func (r *Renderer) KeyValueIndent(key, value string, indent int) {
	prefix := strings.Repeat("  ", indent)
	label := r.render(LabelStyle, key+":")
	fmt.Fprintf(r.out, "%s%s %s\n", prefix, label, value)
}

// Section prints a section title.
func (r *Renderer) Section(title string) {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.render(SectionTitleStyle, title))
}

// Box prints text inside a bordered box.
func (r *Renderer) Box(text string) {
	if r.noColor {
		fmt.Fprintln(r.out, text)
		return
	}
	fmt.Fprintln(r.out, InfoBoxStyle.Render(text))
}

// Newline prints a blank line.
func (r *Renderer) Newline() {
	fmt.Fprintln(r.out)
}

// --- Results ---

// Results renders ranked matches, one per line, with the matched
// characters highlighted.
func (r *Renderer) Results(matches []fuzzy.ScoredMatch) {
	if len(matches) == 0 {
		r.NoResults()
		return
	}

	width := len(fmt.Sprint(len(matches)))
	for i, m := range matches {
		rank := r.render(RankStyle, fmt.Sprintf("%*d.", width, i+1))
		line := fmt.Sprintf("%s %s", rank, r.Highlight(m.Target, m.MatchedIndexes))
		if r.showScores {
			line += " " + r.render(ScoreStyle, fmt.Sprintf("(%g)", m.Score))
		}
		fmt.Fprintln(r.out, line)
	}
}

// Highlight styles the bytes of text at the given offsets. Offsets that
// fall inside a multi-byte rune highlight the whole rune.
func (r *Renderer) Highlight(text string, offsets []int) string {
	if r.noColor || len(offsets) == 0 {
		return text
	}

	marked := make(map[int]bool, len(offsets))
	for _, o := range offsets {
		marked[o] = true
	}

	var b strings.Builder
	var run strings.Builder
	inRun := false
	flush := func() {
		if run.Len() == 0 {
			return
		}
		if inRun {
			b.WriteString(HighlightStyle.Render(run.String()))
		} else {
			b.WriteString(run.String())
		}
		run.Reset()
	}

	for i := 0; i < len(text); {
		_, size := utf8.DecodeRuneInString(text[i:])
		hit := false
		for j := i; j < i+size; j++ {
			if marked[j] {
				hit = true
				break
			}
		}
		if hit != inRun {
			flush()
			inRun = hit
		}
		run.WriteString(text[i : i+size])
		i += size
	}
	flush()
	return b.String()
}

// --- Table Rendering ---

// Table renders a simple table.
func (r *Renderer) Table(headers []string, rows [][]string) {
	if len(headers) == 0 {
		return
	}

	// Calculate column widths
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	// Print header
	headerParts := make([]string, len(headers))
	for i, h := range headers {
		headerParts[i] = r.render(LabelStyle, fmt.Sprintf("%-*s", widths[i], h))
	}
	fmt.Fprintln(r.out, strings.Join(headerParts, "  "))

	// Print separator
	sepParts := make([]string, len(headers))
	for i, w := range widths {
		sepParts[i] = strings.Repeat("-", w)
	}
	fmt.Fprintln(r.out, r.render(MutedStyle, strings.Join(sepParts, "  ")))

	// Print rows
	for _, row := range rows {
		rowParts := make([]string, len(headers))
		for i := range headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			rowParts[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
		fmt.Fprintln(r.out, strings.Join(rowParts, "  "))
	}
}

// NoResults prints a "no results" message.
func (r *Renderer) NoResults() {
	fmt.Fprintln(r.out, r.render(MutedStyle, "No results found."))
}
