package aws

import (
	"context"
	"fmt"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// STSClient defines the STS operations used here.
type STSClient interface {
	GetSessionToken(ctx context.Context, params *sts.GetSessionTokenInput, optFns ...func(*sts.Options)) (*sts.GetSessionTokenOutput, error)
}

// TemporaryCredentials is a set of session credentials.
type TemporaryCredentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Expiration      time.Time
}

// SessionToken returns temporary credentials for the calling identity.
func SessionToken(ctx context.Context, api STSClient) (*TemporaryCredentials, error) {
	out, err := api.GetSessionToken(ctx, &sts.GetSessionTokenInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to get session token: %w", err)
	}
	if out.Credentials == nil {
		return nil, fmt.Errorf("session token response has no credentials")
	}
	return &TemporaryCredentials{
		AccessKeyID:     awsv2.ToString(out.Credentials.AccessKeyId),
		SecretAccessKey: awsv2.ToString(out.Credentials.SecretAccessKey),
		SessionToken:    awsv2.ToString(out.Credentials.SessionToken),
		Expiration:      awsv2.ToTime(out.Credentials.Expiration),
	}, nil
}
