// Package source loads candidate lists from pluggable backends.
//
// Backends register themselves by URI scheme from an init function:
//
//	file:///path/to/words.txt      one candidate per line (internal/local)
//	s3://bucket/key                object lines, or keys under a prefix (internal/s3)
//	cloudwatch:///prefix           log group names (internal/cloudwatch)
//	@alias                         resolved from ~/.fuzmoi/config.yaml
package source

import "context"

// Source is the interface that all candidate backends must implement.
type Source interface {
	// Load returns the candidates held by this source, in source order.
	Load(ctx context.Context) ([]string, error)

	// Type returns the source type identifier (e.g., "local", "s3", "cloudwatch").
	Type() string

	// URI returns the URI the source was opened from.
	URI() string

	// Close releases any resources held by the source.
	Close() error
}
