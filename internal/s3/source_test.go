package s3

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/jmurray2011/fuzmoi/internal/local"
	"github.com/jmurray2011/fuzmoi/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.GetObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.ListObjectsV2Output), args.Error(1)
	}
	return nil, args.Error(1)
}

func body(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}

func parse(t *testing.T, raw string) Settings {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	s, err := ParseURI(u, source.OpenOptions{Profile: "dev"})
	require.NoError(t, err)
	return s
}

func TestParseURI(t *testing.T) {
	s := parse(t, "s3://words/greetings.txt")
	assert.Equal(t, "words", s.Bucket)
	assert.Equal(t, "greetings.txt", s.Key)
	assert.False(t, s.List)
	assert.Equal(t, local.FormatLines, s.Format)
	assert.Equal(t, "dev", s.Profile)

	s = parse(t, "s3://words/lists/?limit=20&region=eu-west-1")
	assert.True(t, s.List)
	assert.Equal(t, "lists/", s.Key)
	assert.Equal(t, 20, s.Limit)
	assert.Equal(t, "eu-west-1", s.Region)

	s = parse(t, "s3://words")
	assert.True(t, s.List)
	assert.Empty(t, s.Key)

	s = parse(t, "s3://words/a.json?format=json&comments=keep&profile=prod")
	assert.Equal(t, local.FormatJSON, s.Format)
	assert.True(t, s.KeepComments)
	assert.Equal(t, "prod", s.Profile)

	for _, bad := range []string{"s3:///key", "s3://b/k?format=xml", "s3://b/?limit=0"} {
		u, err := url.Parse(bad)
		require.NoError(t, err)
		_, err = ParseURI(u, source.OpenOptions{})
		assert.Error(t, err, bad)
	}
}

func TestSource_LoadObject(t *testing.T) {
	mockClient := new(MockClient)
	mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
		return *input.Bucket == "words" && *input.Key == "greetings.txt"
	})).Return(&s3.GetObjectOutput{
		Body: body("# french\nbonjour\r\nbonsoir\n\n"),
	}, nil).Once()

	src := NewSourceWithClient(mockClient, Settings{Bucket: "words", Key: "greetings.txt"}, "s3://words/greetings.txt")
	got, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"bonjour", "bonsoir"}, got)
	assert.Equal(t, "s3", src.Type())
	mockClient.AssertExpectations(t)
}

func TestSource_LoadJSONObject(t *testing.T) {
	mockClient := new(MockClient)
	mockClient.On("GetObject", mock.Anything, mock.Anything).Return(&s3.GetObjectOutput{
		Body: body(`["# not a comment", "hola"]`),
	}, nil).Once()

	settings := Settings{Bucket: "words", Key: "a.json", Format: local.FormatJSON}
	got, err := NewSourceWithClient(mockClient, settings, "").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"# not a comment", "hola"}, got)
}

func TestSource_LoadObjectNotFound(t *testing.T) {
	mockClient := new(MockClient)
	mockClient.On("GetObject", mock.Anything, mock.Anything).Return(nil, &types.NoSuchKey{}).Once()

	_, err := NewSourceWithClient(mockClient, Settings{Bucket: "b", Key: "missing"}, "").Load(context.Background())
	assert.True(t, errors.Is(err, ErrObjectNotFound))
	assert.Contains(t, err.Error(), "s3://b/missing")
}

func TestSource_LoadObjectError(t *testing.T) {
	mockClient := new(MockClient)
	apiErr := errors.New("AccessDenied")
	mockClient.On("GetObject", mock.Anything, mock.Anything).Return(nil, apiErr).Once()

	_, err := NewSourceWithClient(mockClient, Settings{Bucket: "b", Key: "k"}, "").Load(context.Background())
	assert.ErrorIs(t, err, apiErr)
}

func TestSource_ListKeys(t *testing.T) {
	mockClient := new(MockClient)

	// Page 1
	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *s3.ListObjectsV2Input) bool {
		return input.ContinuationToken == nil && *input.Bucket == "docs" && *input.Prefix == "guides/"
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("token"),
		Contents: []types.Object{
			{Key: aws.String("guides/")},
			{Key: aws.String("guides/install.md")},
		},
	}, nil).Once()

	// Page 2
	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *s3.ListObjectsV2Input) bool {
		return input.ContinuationToken != nil && *input.ContinuationToken == "token"
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated: aws.Bool(false),
		Contents:    []types.Object{{Key: aws.String("guides/usage.md")}},
	}, nil).Once()

	settings := Settings{Bucket: "docs", Key: "guides/", List: true, Limit: DefaultListLimit}
	got, err := NewSourceWithClient(mockClient, settings, "s3://docs/guides/").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"guides/install.md", "guides/usage.md"}, got)
	mockClient.AssertExpectations(t)
}

func TestSource_ListKeysLimit(t *testing.T) {
	mockClient := new(MockClient)
	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *s3.ListObjectsV2Input) bool {
		return input.Prefix == nil
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("more"),
		Contents: []types.Object{
			{Key: aws.String("a")},
			{Key: aws.String("b")},
			{Key: aws.String("c")},
		},
	}, nil).Once()

	settings := Settings{Bucket: "docs", List: true, Limit: 2}
	got, err := NewSourceWithClient(mockClient, settings, "").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
	mockClient.AssertExpectations(t)
}

func TestOpenViaRegistry(t *testing.T) {
	src, err := source.OpenWithOptions("s3://words/greetings.txt", source.OpenOptions{Region: "us-east-2"})
	require.NoError(t, err)

	s3src, ok := src.(*Source)
	require.True(t, ok, "expected *s3.Source, got %T", src)
	assert.Equal(t, "us-east-2", s3src.Settings().Region)
	assert.Equal(t, "s3://words/greetings.txt", s3src.URI())
	assert.NoError(t, s3src.Close())
}
