// Package s3 loads candidates from Amazon S3.
//
//	s3://bucket/words.txt              one candidate per line of the object
//	s3://bucket/words.json?format=json a JSON array of strings
//	s3://bucket/reports/               every key under the prefix
package s3

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/jmurray2011/fuzmoi/internal/awscfg"
	"github.com/jmurray2011/fuzmoi/internal/local"
	"github.com/jmurray2011/fuzmoi/internal/logging"
	"github.com/jmurray2011/fuzmoi/internal/source"
)

// ErrObjectNotFound is returned when the object named by the URI does not exist.
var ErrObjectNotFound = errors.New("s3 object not found")

// DefaultListLimit caps how many keys a prefix listing returns.
const DefaultListLimit = 10000

// Client is the subset of the S3 API used by Source.
// *s3.Client satisfies it.
type Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

func init() {
	source.Register("s3", openSource)
}

// Settings describes a parsed s3:// URI.
type Settings struct {
	Bucket       string
	Key          string // object key, or key prefix when List is set
	List         bool
	Format       local.Format
	KeepComments bool
	Limit        int
	Profile      string
	Region       string
}

// ParseURI extracts Settings from an s3 URI, falling back to opts for the
// AWS profile and region.
func ParseURI(u *url.URL, opts source.OpenOptions) (Settings, error) {
	if u.Host == "" {
		return Settings{}, fmt.Errorf("s3 URI %q requires a bucket (s3://bucket/key)", u.String())
	}

	q := u.Query()
	format, err := local.ParseFormat(q.Get("format"))
	if err != nil {
		return Settings{}, err
	}

	key := strings.TrimPrefix(u.Path, "/")
	s := Settings{
		Bucket:       u.Host,
		Key:          key,
		List:         key == "" || strings.HasSuffix(key, "/"),
		Format:       format,
		KeepComments: q.Get("comments") == "keep",
		Limit:        DefaultListLimit,
		Profile:      opts.Profile,
		Region:       opts.Region,
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
	return s, nil
}

// Source implements source.Source for S3 objects and key listings.
type Source struct {
	settings Settings
	client   Client
	uri      string
}

// NewSource creates an S3 source. The SDK client is created on the first Load.
func NewSource(settings Settings, uri string) *Source {
	return &Source{settings: settings, uri: uri}
}

// NewSourceWithClient creates an S3 source backed by the given client.
func NewSourceWithClient(client Client, settings Settings, uri string) *Source {
	return &Source{settings: settings, client: client, uri: uri}
}

func openSource(u *url.URL, opts source.OpenOptions) (source.Source, error) {
	settings, err := ParseURI(u, opts)
	if err != nil {
		return nil, err
	}
	return NewSource(settings, u.String()), nil
}

// Load reads the object's candidates, or lists keys under the prefix.
func (s *Source) Load(ctx context.Context) ([]string, error) {
	if s.client == nil {
		cfg, err := awscfg.Load(ctx, s.settings.Profile, s.settings.Region)
		if err != nil {
			return nil, err
		}
		s.client = s3.NewFromConfig(cfg)
	}

	log := logging.Default().WithFields(map[string]interface{}{
		"source": "s3",
		"bucket": s.settings.Bucket,
		"key":    s.settings.Key,
	})

	if s.settings.List {
		keys, err := s.listKeys(ctx)
		if err != nil {
			return nil, err
		}
		log.Debug("listed %d keys", len(keys))
		return keys, nil
	}

	items, err := s.readObject(ctx)
	if err != nil {
		return nil, err
	}
	log.Debug("read %d candidates", len(items))
	return items, nil
}

func (s *Source) readObject(ctx context.Context) ([]string, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.settings.Bucket),
		Key:    aws.String(s.settings.Key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrObjectNotFound, s.settings.Bucket, s.settings.Key)
		}
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", s.settings.Bucket, s.settings.Key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if s.settings.Format == local.FormatJSON {
		return local.ReadJSON(resp.Body)
	}
	return local.ReadLines(resp.Body, s.settings.KeepComments)
}

func (s *Source) listKeys(ctx context.Context) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.settings.Bucket),
	}
	if s.settings.Key != "" {
		input.Prefix = aws.String(s.settings.Key)
	}

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() && len(keys) < s.settings.Limit {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list s3://%s/%s: %w", s.settings.Bucket, s.settings.Key, err)
		}
		for _, obj := range page.Contents {
			if len(keys) >= s.settings.Limit {
				break
			}
			key := aws.ToString(obj.Key)
			// Skip folder placeholder objects
			if strings.HasSuffix(key, "/") {
				continue
			}
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Type returns the source type identifier.
func (s *Source) Type() string {
	return "s3"
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
