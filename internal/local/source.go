package local

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmurray2011/fuzmoi/internal/source"
)

// MaxScanTokenSize is the maximum line size when scanning candidate files (1MB)
const MaxScanTokenSize = 1024 * 1024

func init() {
	source.Register("file", openSource)
}

// Format describes how a candidate file is encoded.
type Format int

const (
	// FormatLines is one candidate per line.
	FormatLines Format = iota
	// FormatJSON is a JSON array of strings.
	FormatJSON
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	default:
		return "lines"
	}
}

// ParseFormat parses a ?format= value.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "lines", "txt", "text":
		return FormatLines, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatLines, fmt.Errorf("unknown file format %q (use lines or json)", s)
	}
}

// Source implements source.Source for local candidate files.
//
// A file yields one candidate per non-blank line; lines starting with '#'
// are skipped unless comments are kept. A directory yields the relative
// paths of the regular files below it.
type Source struct {
	pattern      string
	files        []string
	dir          string
	format       Format
	keepComments bool
	uri          string
}

// openSource opens a local file source from a parsed URL.
func openSource(u *url.URL, _ source.OpenOptions) (source.Source, error) {
	pattern := u.Path
	if pattern == "" {
		return nil, fmt.Errorf("file:// URI requires a path")
	}

	if strings.HasPrefix(pattern, "/~/") {
		if home, err := os.UserHomeDir(); err == nil {
			pattern = filepath.Join(home, pattern[3:])
		}
	}

	format, err := ParseFormat(u.Query().Get("format"))
	if err != nil {
		return nil, err
	}
	keep := u.Query().Get("comments") == "keep"

	return NewSource(pattern, format, keep)
}

// NewSource creates a new local source.
// The pattern can be a file path, a glob pattern or a directory.
func NewSource(pattern string, format Format, keepComments bool) (*Source, error) {
	if info, err := os.Stat(pattern); err == nil && info.IsDir() {
		return &Source{
			pattern: pattern,
			dir:     pattern,
			format:  format,
			uri:     "file://" + pattern,
		}, nil
	}

	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid file pattern %q: %w", pattern, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files match pattern %q", pattern)
	}

	// Sort files for consistent ordering
	sort.Strings(files)

	return &Source{
		pattern:      pattern,
		files:        files,
		format:       format,
		keepComments: keepComments,
		uri:          "file://" + pattern,
	}, nil
}

// Load implements source.Source.
func (s *Source) Load(ctx context.Context) ([]string, error) {
	if s.dir != "" {
		return listDir(ctx, s.dir)
	}

	var candidates []string
	for _, path := range s.files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		items, err := s.loadFile(path)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, items...)
	}
	return candidates, nil
}

func (s *Source) loadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	switch s.format {
	case FormatJSON:
		return ReadJSON(f)
	default:
		return ReadLines(f, s.keepComments)
	}
}

// ReadLines returns the non-blank lines of r. Trailing '\r' and
// surrounding whitespace are trimmed.
func ReadLines(r io.Reader, keepComments bool) ([]string, error) {
	var lines []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), MaxScanTokenSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !keepComments && strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read lines: %w", err)
	}
	return lines, nil
}

// ReadJSON decodes a JSON array of strings.
func ReadJSON(r io.Reader) ([]string, error) {
	var items []string
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("expected a JSON array of strings: %w", err)
	}
	return items, nil
}

func listDir(ctx context.Context, root string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root, err)
	}
	return names, nil
}

// Type implements source.Source.
func (s *Source) Type() string {
	return "local"
}

// URI implements source.Source.
func (s *Source) URI() string {
	return s.uri
}

// Close implements source.Source.
func (s *Source) Close() error {
	return nil
}

// Files returns the files backing this source. It is empty for a
// directory source.
func (s *Source) Files() []string {
	return s.files
}
