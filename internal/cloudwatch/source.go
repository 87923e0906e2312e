package cloudwatch

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jmurray2011/fuzmoi/internal/logging"
	"github.com/jmurray2011/fuzmoi/internal/source"
)

func init() {
	// Register the cloudwatch scheme with the source registry
	source.Register("cloudwatch", openSource)
}

// Target selects what a CloudWatch source lists.
type Target int

const (
	// TargetGroups lists log group names.
	TargetGroups Target = iota
	// TargetStreams lists the stream names of one log group.
	TargetStreams
)

// Settings describes a parsed cloudwatch:// URI.
//
//	cloudwatch:///aws/lambda/             log groups named /aws/lambda/*
//	cloudwatch:///app/api?streams=true    streams of log group /app/api
type Settings struct {
	Target   Target
	LogGroup string // group name for TargetStreams
	Prefix   string // group prefix, or stream prefix with TargetStreams
	Limit    int
	Profile  string
	Region   string
}

// ParseURI extracts Settings from a cloudwatch URI, falling back to opts
// for the AWS profile and region.
func ParseURI(u *url.URL, opts source.OpenOptions) (Settings, error) {
	q := u.Query()
	s := Settings{
		Profile: opts.Profile,
		Region:  opts.Region,
		Limit:   DefaultLimit,
	}
	if p := q.Get("profile"); p != "" {
		s.Profile = p
	}
	if r := q.Get("region"); r != "" {
		s.Region = r
	}
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			return Settings{}, fmt.Errorf("invalid limit %q: must be a positive integer", l)
		}
		s.Limit = n
	}

	path := u.Host + u.Path
	if streams, _ := strconv.ParseBool(q.Get("streams")); streams {
		if path == "" || path == "/" {
			return Settings{}, fmt.Errorf("cloudwatch URI with streams=true requires a log group path")
		}
		s.Target = TargetStreams
		s.LogGroup = path
		s.Prefix = q.Get("prefix")
		return s, nil
	}

	if path != "/" {
		s.Prefix = path
	}
	return s, nil
}

// Source implements source.Source for names listed from CloudWatch Logs.
type Source struct {
	settings Settings
	client   *Client
	uri      string
}

// NewSource creates a CloudWatch source. The SDK client is created on the
// first Load.
func NewSource(settings Settings, uri string) *Source {
	return &Source{settings: settings, uri: uri}
}

// NewSourceWithClient creates a CloudWatch source backed by the given client.
func NewSourceWithClient(client *Client, settings Settings, uri string) *Source {
	return &Source{settings: settings, client: client, uri: uri}
}

// openSource is the SourceOpener for the cloudwatch scheme.
func openSource(u *url.URL, opts source.OpenOptions) (source.Source, error) {
	settings, err := ParseURI(u, opts)
	if err != nil {
		return nil, err
	}
	return NewSource(settings, u.String()), nil
}

// Load lists log group or stream names.
func (s *Source) Load(ctx context.Context) ([]string, error) {
	if s.client == nil {
		api, err := NewLogsClient(ctx, s.settings.Profile, s.settings.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to create CloudWatch Logs client: %w", err)
		}
		s.client = NewClient(api)
	}

	log := logging.Default().WithFields(map[string]interface{}{
		"source": "cloudwatch",
		"prefix": s.settings.Prefix,
	})

	var names []string
	switch s.settings.Target {
	case TargetStreams:
		streams, err := s.client.ListStreams(ctx, s.settings.LogGroup, s.settings.Prefix, s.settings.Limit)
		if err != nil {
			return nil, err
		}
		for _, st := range streams {
			names = append(names, st.Name)
		}
		log.Debug("listed %d streams in %s", len(names), s.settings.LogGroup)
	default:
		groups, err := s.client.ListLogGroups(ctx, s.settings.Prefix, s.settings.Limit)
		if err != nil {
			return nil, err
		}
		for _, g := range groups {
			names = append(names, g.Name)
		}
		log.Debug("listed %d log groups", len(names))
	}

	return names, nil
}

// Type returns the source type identifier.
func (s *Source) Type() string {
	return "cloudwatch"
}

// URI returns the URI the source was opened from.
func (s *Source) URI() string {
	return s.uri
}

// Settings returns the parsed source settings.
func (s *Source) Settings() Settings {
	return s.settings
}

// Close releases any resources held by the source.
func (s *Source) Close() error {
	return nil
}

// String describes the listing for status output.
func (s Settings) String() string {
	var b strings.Builder
	if s.Target == TargetStreams {
		fmt.Fprintf(&b, "streams of %s", s.LogGroup)
		if s.Prefix != "" {
			fmt.Fprintf(&b, " starting with %q", s.Prefix)
		}
		return b.String()
	}
	b.WriteString("log groups")
	if s.Prefix != "" {
		fmt.Fprintf(&b, " starting with %q", s.Prefix)
	}
	return b.String()
}
