package source

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	fmerrors "github.com/jmurray2011/fuzmoi/internal/errors"
	"github.com/jmurray2011/fuzmoi/internal/logging"
)

// SourceOpener is a function that opens a source from a parsed URL.
type SourceOpener func(u *url.URL, opts OpenOptions) (Source, error)

// OpenOptions provides default values for source configuration.
// These can be overridden by URI query parameters.
type OpenOptions struct {
	Profile string // Default AWS profile
	Region  string // Default AWS region
}

// registry holds registered source openers by scheme.
var registry = make(map[string]SourceOpener)

// Register adds a source opener for the given URI scheme.
// This should be called during init() by each source implementation.
func Register(scheme string, opener SourceOpener) {
	registry[scheme] = opener
}

// Open parses a URI and returns the appropriate Source.
func Open(uri string) (Source, error) {
	return OpenWithOptions(uri, OpenOptions{})
}

// OpenWithOptions parses a URI and returns the appropriate Source with default options.
// Supports:
//   - file:///path/to/file (or bare paths like ./words.txt)
//   - s3://bucket/key or s3://bucket/prefix/
//   - cloudwatch:///log-group-prefix
//   - @alias (resolved from config)
func OpenWithOptions(uri string, opts OpenOptions) (Source, error) {
	// Handle bare paths as file://
	if strings.HasPrefix(uri, "/") || strings.HasPrefix(uri, "./") || strings.HasPrefix(uri, "../") || strings.HasPrefix(uri, "~") {
		uri = "file://" + expandPath(uri)
	}

	if strings.HasPrefix(uri, "@") {
		return OpenAliasWithOptions(uri[1:], opts)
	}

	if err := validateURISyntax(uri); err != nil {
		return nil, err
	}

	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid source URI %q: %w", uri, err)
	}

	opener, ok := registry[parsed.Scheme]
	if !ok {
		return nil, fmt.Errorf("unknown source scheme: %s (available: %s)", parsed.Scheme, availableSchemes())
	}

	return opener(parsed, opts)
}

// validateURISyntax checks for common URI mistakes and returns helpful errors.
func validateURISyntax(uri string) error {
	if strings.HasPrefix(uri, "///") {
		return fmt.Errorf("invalid URI %q: missing scheme (e.g., cloudwatch:///log-group)", uri)
	}

	// Pattern: scheme:///path@key=value (should be scheme:///path?key=value)
	if idx := strings.Index(uri, "://"); idx > 0 {
		rest := uri[idx+3:]
		if atIdx := strings.Index(rest, "@"); atIdx > 0 {
			afterAt := rest[atIdx+1:]
			if strings.Contains(afterAt, "=") && !strings.Contains(rest[:atIdx], "?") {
				return fmt.Errorf("invalid URI %q: use '?' for query parameters, not '@'", uri)
			}
		}
	} else if !strings.Contains(uri, ":") {
		return fmt.Errorf("invalid URI %q: missing scheme (use ./%s for a local file)", uri, uri)
	}

	return nil
}

// OpenAlias resolves a config alias to a Source.
func OpenAlias(name string) (Source, error) {
	return OpenAliasWithOptions(name, OpenOptions{})
}

// OpenAliasWithOptions resolves a config alias to a Source with default options.
func OpenAliasWithOptions(name string, opts OpenOptions) (Source, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	alias, ok := cfg.Sources[name]
	if !ok {
		return nil, fmerrors.SourceNotFoundError("@"+name, cfg.Names())
	}

	if strings.HasPrefix(alias.URI, "@") {
		return nil, fmt.Errorf("alias @%s points at another alias (%s)", name, alias.URI)
	}

	return OpenWithOptions(alias.URI, opts)
}

// LoadAll opens every URI in order and concatenates their candidates.
// Each source is closed before the next one is opened.
func LoadAll(ctx context.Context, uris []string, opts OpenOptions) ([]string, error) {
	var candidates []string
	for _, uri := range uris {
		src, err := OpenWithOptions(uri, opts)
		if err != nil {
			return nil, err
		}

		items, err := src.Load(ctx)
		_ = src.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", uri, err)
		}

		logging.Default().WithFields(map[string]interface{}{
			"source": src.Type(),
			"uri":    src.URI(),
		}).Debug("loaded %d candidates", len(items))

		candidates = append(candidates, items...)
	}
	return candidates, nil
}

// Schemes returns the registered URI schemes in sorted order.
func Schemes() []string {
	schemes := make([]string, 0, len(registry))
	for s := range registry {
		schemes = append(schemes, s)
	}
	sort.Strings(schemes)
	return schemes
}

func availableSchemes() string {
	schemes := Schemes()
	if len(schemes) == 0 {
		return "(none registered)"
	}
	return strings.Join(schemes, ", ")
}

// expandPath resolves ~ to home directory and converts relative paths to absolute.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}
