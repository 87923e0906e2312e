package cloudwatch

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/jmurray2011/fuzmoi/internal/awscfg"
)

// NewLogsClient creates a new CloudWatch Logs client with the specified profile and region.
func NewLogsClient(ctx context.Context, profile, region string) (*cloudwatchlogs.Client, error) {
	cfg, err := awscfg.Load(ctx, profile, region)
	if err != nil {
		return nil, err
	}
	return cloudwatchlogs.NewFromConfig(cfg), nil
}
