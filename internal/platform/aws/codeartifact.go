package aws

import (
	"context"
	"fmt"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codeartifact"
	catypes "github.com/aws/aws-sdk-go-v2/service/codeartifact/types"
)

// codeArtifactTokenSeconds is the lifetime requested for repository tokens (12h).
const codeArtifactTokenSeconds = 43200

// CodeArtifactClient defines the CodeArtifact operations used here.
type CodeArtifactClient interface {
	GetAuthorizationToken(ctx context.Context, params *codeartifact.GetAuthorizationTokenInput, optFns ...func(*codeartifact.Options)) (*codeartifact.GetAuthorizationTokenOutput, error)
	GetRepositoryEndpoint(ctx context.Context, params *codeartifact.GetRepositoryEndpointInput, optFns ...func(*codeartifact.Options)) (*codeartifact.GetRepositoryEndpointOutput, error)
}

// RepositoryAccess is what a package manager needs to reach a repository.
type RepositoryAccess struct {
	AuthorizationToken string
	RepositoryEndpoint string
}

// PyPIAccess returns a token and the PyPI endpoint of a CodeArtifact repository.
func PyPIAccess(ctx context.Context, api CodeArtifactClient, domain, owner, repository string) (*RepositoryAccess, error) {
	token, err := api.GetAuthorizationToken(ctx, &codeartifact.GetAuthorizationTokenInput{
		Domain:          awsv2.String(domain),
		DomainOwner:     awsv2.String(owner),
		DurationSeconds: awsv2.Int64(codeArtifactTokenSeconds),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get CodeArtifact token for %s: %w", domain, err)
	}

	endpoint, err := api.GetRepositoryEndpoint(ctx, &codeartifact.GetRepositoryEndpointInput{
		Domain:      awsv2.String(domain),
		DomainOwner: awsv2.String(owner),
		Repository:  awsv2.String(repository),
		Format:      catypes.PackageFormatPypi,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get endpoint of repository %s: %w", repository, err)
	}

	return &RepositoryAccess{
		AuthorizationToken: awsv2.ToString(token.AuthorizationToken),
		RepositoryEndpoint: awsv2.ToString(endpoint.RepositoryEndpoint),
	}, nil
}
