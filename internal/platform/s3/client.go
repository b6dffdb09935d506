package s3

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// deleteBatchSize is the most keys a single DeleteObjects request accepts.
const deleteBatchSize = 1000

// Client wraps the S3 client for purging buckets.
type Client struct {
	s3 *s3.Client
}

// ObjectVersion identifies one object version or delete marker.
type ObjectVersion struct {
	Key       string
	VersionID string
}

// DeleteError is a per-key failure reported by DeleteObjects.
type DeleteError struct {
	Key       string
	VersionID string
	Code      string
	Message   string
}

func (e DeleteError) String() string {
	return fmt.Sprintf("%s (%s): %s %s", e.Key, e.VersionID, e.Code, e.Message)
}

// NewClient creates an S3 client from a loaded AWS config.
// A non-empty endpoint targets an S3-compatible service with path-style addressing.
func NewClient(cfg aws.Config, endpoint string) *Client {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &Client{s3: client}
}

// ListObjectVersions returns every object version and delete marker in a bucket,
// following all pages. A bucket that no longer exists is empty.
func (c *Client) ListObjectVersions(ctx context.Context, bucketName string) ([]ObjectVersion, error) {
	var (
		versions        []ObjectVersion
		keyMarker       *string
		versionIDMarker *string
	)

	for {
		result, err := c.s3.ListObjectVersions(ctx, &s3.ListObjectVersionsInput{
			Bucket:          aws.String(bucketName),
			KeyMarker:       keyMarker,
			VersionIdMarker: versionIDMarker,
		})
		if err != nil {
			if isNotFoundError(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to list object versions in bucket %s: %w", bucketName, err)
		}

		for _, v := range result.Versions {
			versions = append(versions, ObjectVersion{Key: aws.ToString(v.Key), VersionID: aws.ToString(v.VersionId)})
		}
		for _, m := range result.DeleteMarkers {
			versions = append(versions, ObjectVersion{Key: aws.ToString(m.Key), VersionID: aws.ToString(m.VersionId)})
		}

		if !aws.ToBool(result.IsTruncated) {
			return versions, nil
		}
		keyMarker = result.NextKeyMarker
		versionIDMarker = result.NextVersionIdMarker
	}
}

// DeleteObjectVersions deletes the given versions in batches and returns the
// per-key failures the service reported. A request-level error stops the purge.
func (c *Client) DeleteObjectVersions(ctx context.Context, bucketName string, versions []ObjectVersion) ([]DeleteError, error) {
	var failures []DeleteError

	for start := 0; start < len(versions); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(versions))

		objects := make([]types.ObjectIdentifier, 0, end-start)
		for _, v := range versions[start:end] {
			id := types.ObjectIdentifier{Key: aws.String(v.Key)}
			if v.VersionID != "" {
				id.VersionId = aws.String(v.VersionID)
			}
			objects = append(objects, id)
		}

		result, err := c.s3.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(bucketName),
			Delete: &types.Delete{
				Objects: objects,
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			return failures, fmt.Errorf("failed to delete objects in bucket %s: %w", bucketName, err)
		}

		for _, e := range result.Errors {
			failures = append(failures, DeleteError{
				Key:       aws.ToString(e.Key),
				VersionID: aws.ToString(e.VersionId),
				Code:      aws.ToString(e.Code),
				Message:   aws.ToString(e.Message),
			})
		}
	}

	return failures, nil
}

// isNotFoundError checks if the error is a not found error.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	// Check for typed S3 errors first
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}

	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	// Fall back to API error code checking for S3-compatible services
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchBucket" || code == "404"
	}

	return false
}
