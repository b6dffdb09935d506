package ecr

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/aws/smithy-go"
)

// deleteBatchSize is the most image ids a single BatchDeleteImage request accepts.
const deleteBatchSize = 100

// API is the subset of the ECR client used here.
type API interface {
	ecr.ListImagesAPIClient
	BatchDeleteImage(ctx context.Context, params *ecr.BatchDeleteImageInput, optFns ...func(*ecr.Options)) (*ecr.BatchDeleteImageOutput, error)
	GetAuthorizationToken(ctx context.Context, params *ecr.GetAuthorizationTokenInput, optFns ...func(*ecr.Options)) (*ecr.GetAuthorizationTokenOutput, error)
}

// Client wraps the ECR client.
type Client struct {
	api API
}

// ImageFailure is a per-image failure reported by BatchDeleteImage.
type ImageFailure struct {
	Digest string
	Code   string
	Reason string
}

func (f ImageFailure) String() string {
	return fmt.Sprintf("%s: %s %s", f.Digest, f.Code, f.Reason)
}

// NewClient creates an ECR client.
func NewClient(api API) *Client {
	return &Client{api: api}
}

// ListImageDigests returns the distinct digests of every image in a repository,
// following all pages. A repository that no longer exists is empty.
func (c *Client) ListImageDigests(ctx context.Context, repositoryName string) ([]string, error) {
	var (
		digests []string
		seen    = make(map[string]bool)
	)

	paginator := ecr.NewListImagesPaginator(c.api, &ecr.ListImagesInput{
		RepositoryName: aws.String(repositoryName),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			if isRepositoryNotFound(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to list images in repository %s: %w", repositoryName, err)
		}
		for _, id := range page.ImageIds {
			// Several tags may point at one digest.
			digest := aws.ToString(id.ImageDigest)
			if digest == "" || seen[digest] {
				continue
			}
			seen[digest] = true
			digests = append(digests, digest)
		}
	}

	return digests, nil
}

// DeleteImages deletes images by digest in batches and returns the per-image
// failures the service reported. An empty digest list makes no request.
func (c *Client) DeleteImages(ctx context.Context, repositoryName string, digests []string) ([]ImageFailure, error) {
	var failures []ImageFailure

	for start := 0; start < len(digests); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(digests))

		ids := make([]types.ImageIdentifier, 0, end-start)
		for _, d := range digests[start:end] {
			ids = append(ids, types.ImageIdentifier{ImageDigest: aws.String(d)})
		}

		result, err := c.api.BatchDeleteImage(ctx, &ecr.BatchDeleteImageInput{
			RepositoryName: aws.String(repositoryName),
			ImageIds:       ids,
		})
		if err != nil {
			return failures, fmt.Errorf("failed to delete images in repository %s: %w", repositoryName, err)
		}

		for _, f := range result.Failures {
			failure := ImageFailure{Code: string(f.FailureCode), Reason: aws.ToString(f.FailureReason)}
			if f.ImageId != nil {
				failure.Digest = aws.ToString(f.ImageId.ImageDigest)
			}
			failures = append(failures, failure)
		}
	}

	return failures, nil
}

func isRepositoryNotFound(err error) bool {
	var rnf *types.RepositoryNotFoundException
	if errors.As(err, &rnf) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "RepositoryNotFoundException"
	}
	return false
}
