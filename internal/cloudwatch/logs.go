package cloudwatch

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

// DefaultLimit caps how many names a single listing returns.
const DefaultLimit = 1000

// maxPageSize is the largest page DescribeLogGroups and DescribeLogStreams accept.
const maxPageSize = 50

// LogsAPI is the subset of the CloudWatch Logs API used to list names.
// *cloudwatchlogs.Client satisfies it.
type LogsAPI interface {
	DescribeLogGroups(ctx context.Context, params *cloudwatchlogs.DescribeLogGroupsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogGroupsOutput, error)
	DescribeLogStreams(ctx context.Context, params *cloudwatchlogs.DescribeLogStreamsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogStreamsOutput, error)
}

// Client wraps the CloudWatch Logs client with convenience methods.
type Client struct {
	api LogsAPI
}

// NewClient creates a new Client wrapper from an SDK client.
func NewClient(api LogsAPI) *Client {
	return &Client{api: api}
}

// LogGroupInfo contains metadata about a log group.
type LogGroupInfo struct {
	Name          string
	StoredBytes   int64
	CreationTime  time.Time
	RetentionDays int
}

// StreamInfo contains metadata about a log stream.
type StreamInfo struct {
	Name           string
	FirstEventTime time.Time
	LastEventTime  time.Time
}

func pageSize(limit int) int32 {
	if limit <= 0 || limit > maxPageSize {
		return maxPageSize
	}
	return int32(limit)
}

// ListLogGroups returns log groups whose name starts with prefix, up to limit.
func (c *Client) ListLogGroups(ctx context.Context, prefix string, limit int) ([]LogGroupInfo, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	input := &cloudwatchlogs.DescribeLogGroupsInput{
		Limit: aws.Int32(pageSize(limit)),
	}
	if prefix != "" {
		input.LogGroupNamePrefix = &prefix
	}

	var groups []LogGroupInfo

	paginator := cloudwatchlogs.NewDescribeLogGroupsPaginator(c.api, input)
	for paginator.HasMorePages() && len(groups) < limit {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe log groups: %w", err)
		}

		for _, g := range page.LogGroups {
			if len(groups) >= limit {
				break
			}

			group := LogGroupInfo{
				Name: aws.ToString(g.LogGroupName),
			}
			if g.StoredBytes != nil {
				group.StoredBytes = *g.StoredBytes
			}
			if g.CreationTime != nil {
				group.CreationTime = time.UnixMilli(*g.CreationTime)
			}
			if g.RetentionInDays != nil {
				group.RetentionDays = int(*g.RetentionInDays)
			}

			groups = append(groups, group)
		}
	}

	return groups, nil
}

// ListStreams returns the streams of a log group, up to limit. With a
// prefix the streams are ordered by name (the API rejects a prefix
// combined with event-time ordering); otherwise the most recently
// active streams come first.
func (c *Client) ListStreams(ctx context.Context, logGroup, prefix string, limit int) ([]StreamInfo, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	input := &cloudwatchlogs.DescribeLogStreamsInput{
		LogGroupName: &logGroup,
		Limit:        aws.Int32(pageSize(limit)),
	}
	if prefix != "" {
		input.LogStreamNamePrefix = &prefix
		input.OrderBy = types.OrderByLogStreamName
	} else {
		input.OrderBy = types.OrderByLastEventTime
		input.Descending = aws.Bool(true)
	}

	var streams []StreamInfo

	paginator := cloudwatchlogs.NewDescribeLogStreamsPaginator(c.api, input)
	for paginator.HasMorePages() && len(streams) < limit {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe log streams: %w", err)
		}

		for _, s := range page.LogStreams {
			if len(streams) >= limit {
				break
			}

			stream := StreamInfo{
				Name: aws.ToString(s.LogStreamName),
			}
			if s.LastEventTimestamp != nil {
				stream.LastEventTime = time.UnixMilli(*s.LastEventTimestamp)
			}
			if s.FirstEventTimestamp != nil {
				stream.FirstEventTime = time.UnixMilli(*s.FirstEventTimestamp)
			}

			streams = append(streams, stream)
		}
	}

	return streams, nil
}
