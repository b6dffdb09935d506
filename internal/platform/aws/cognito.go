package aws

import (
	"context"
	"fmt"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	cogtypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

// CognitoClient defines the user pool operations used here.
type CognitoClient interface {
	DescribeUserPoolDomain(ctx context.Context, params *cognitoidentityprovider.DescribeUserPoolDomainInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.DescribeUserPoolDomainOutput, error)
}

// UserPoolDomain describes a user pool domain, given either the prefix or the
// fully qualified custom domain. The result includes the CloudFront distribution
// that DNS records must point at.
func UserPoolDomain(ctx context.Context, api CognitoClient, domain string) (*cogtypes.DomainDescriptionType, error) {
	out, err := api.DescribeUserPoolDomain(ctx, &cognitoidentityprovider.DescribeUserPoolDomainInput{
		Domain: awsv2.String(domain),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe user pool domain %s: %w", domain, err)
	}
	if out.DomainDescription == nil || out.DomainDescription.Domain == nil {
		return nil, fmt.Errorf("user pool domain %s not found", domain)
	}
	return out.DomainDescription, nil
}
