package aws

import (
	"context"
	"fmt"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// SessionConfig selects region, profile and credentials.
// Empty fields fall back to the SDK's default resolution chain.
type SessionConfig struct {
	Region  string
	Profile string

	// Static credentials, used only when AccessKey is set.
	AccessKey    string
	SecretKey    string
	SessionToken string
}

// LoadConfig resolves an SDK configuration.
func LoadConfig(ctx context.Context, sc SessionConfig) (awsv2.Config, error) {
	var opts []func(*config.LoadOptions) error
	if sc.Region != "" {
		opts = append(opts, config.WithRegion(sc.Region))
	}
	if sc.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(sc.Profile))
	}
	if sc.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(sc.AccessKey, sc.SecretKey, sc.SessionToken)))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return awsv2.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}
