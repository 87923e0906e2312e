package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/jmurray2011/fuzmoi/internal/ui"
)

// Format specifies the output format type.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat validates an output format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatCSV:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use text, json or csv)", s)
	}
}

// Formatter handles output formatting for different formats.
type Formatter struct {
	format   Format
	writer   io.Writer
	renderer *ui.Renderer
}

// NewFormatter creates a new formatter with the specified format.
func NewFormatter(format string, writer io.Writer) *Formatter {
	return &Formatter{
		format:   Format(format),
		writer:   writer,
		renderer: ui.NewRendererWithOptions(ui.WithOutput(writer)),
	}
}

// WithRenderer sets the renderer used for text output. The formatter
// writes to the renderer's output from then on.
func (f *Formatter) WithRenderer(r *ui.Renderer) *Formatter {
	f.renderer = r
	f.writer = r.Out()
	return f
}

// Format returns the configured output format.
func (f *Formatter) Format() Format {
	return f.format
}
