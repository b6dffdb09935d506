package ecr

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecrpublic"
)

// PublicRegistryHost is the hostname of the public image registry.
const PublicRegistryHost = "public.ecr.aws"

// PublicAPI is the subset of the public ECR client used here.
type PublicAPI interface {
	GetAuthorizationToken(ctx context.Context, params *ecrpublic.GetAuthorizationTokenInput, optFns ...func(*ecrpublic.Options)) (*ecrpublic.GetAuthorizationTokenOutput, error)
}

// Login holds the credentials for a docker login.
type Login struct {
	Username  string
	Password  string
	Hostname  string
	ExpiresAt time.Time
}

// LoginToken returns credentials for the account's private registry.
func (c *Client) LoginToken(ctx context.Context) (*Login, error) {
	out, err := c.api.GetAuthorizationToken(ctx, &ecr.GetAuthorizationTokenInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to get registry token: %w", err)
	}
	if len(out.AuthorizationData) == 0 {
		return nil, fmt.Errorf("registry token response has no authorization data")
	}
	data := out.AuthorizationData[0]

	login, err := decodeToken(aws.ToString(data.AuthorizationToken))
	if err != nil {
		return nil, err
	}

	endpoint, err := url.Parse(aws.ToString(data.ProxyEndpoint))
	if err != nil {
		return nil, fmt.Errorf("invalid registry endpoint %q: %w", aws.ToString(data.ProxyEndpoint), err)
	}
	login.Hostname = endpoint.Host
	login.ExpiresAt = aws.ToTime(data.ExpiresAt)
	return login, nil
}

// PublicLoginToken returns credentials for the public registry.
func PublicLoginToken(ctx context.Context, api PublicAPI) (*Login, error) {
	out, err := api.GetAuthorizationToken(ctx, &ecrpublic.GetAuthorizationTokenInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to get public registry token: %w", err)
	}
	if out.AuthorizationData == nil {
		return nil, fmt.Errorf("public registry token response has no authorization data")
	}

	login, err := decodeToken(aws.ToString(out.AuthorizationData.AuthorizationToken))
	if err != nil {
		return nil, err
	}
	login.Hostname = PublicRegistryHost
	login.ExpiresAt = aws.ToTime(out.AuthorizationData.ExpiresAt)
	return login, nil
}

// decodeToken splits a base64 "user:password" token.
func decodeToken(token string) (*Login, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("failed to decode registry token: %w", err)
	}
	user, password, ok := strings.Cut(string(raw), ":")
	if !ok {
		return nil, fmt.Errorf("registry token is not of the form user:password")
	}
	return &Login{Username: user, Password: password}, nil
}
