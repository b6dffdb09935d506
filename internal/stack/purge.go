package stack

import (
	"context"
	"fmt"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"

	"github.com/imamik/infrabuilder/internal/operation"
	"github.com/imamik/infrabuilder/internal/platform/ecr"
	"github.com/imamik/infrabuilder/internal/platform/s3"
	"github.com/imamik/infrabuilder/internal/provisioning"
)

// Stack resource types the Purger knows how to empty.
const (
	ResourceTypeBucket     = "AWS::S3::Bucket"
	ResourceTypeRepository = "AWS::ECR::Repository"
)

// ObjectStore lists and deletes object versions.
type ObjectStore interface {
	ListObjectVersions(ctx context.Context, bucketName string) ([]s3.ObjectVersion, error)
	DeleteObjectVersions(ctx context.Context, bucketName string, versions []s3.ObjectVersion) ([]s3.DeleteError, error)
}

// ImageStore lists and deletes repository images.
type ImageStore interface {
	ListImageDigests(ctx context.Context, repositoryName string) ([]string, error)
	DeleteImages(ctx context.Context, repositoryName string, digests []string) ([]ecr.ImageFailure, error)
}

// Purger empties the stateful resources of a stack.
type Purger struct {
	resources cloudformation.ListStackResourcesAPIClient
	objects   ObjectStore
	images    ImageStore
	observer  provisioning.Observer
	metrics   *provisioning.Metrics
}

// NewPurger creates a purger. metrics may be nil.
func NewPurger(resources cloudformation.ListStackResourcesAPIClient, objects ObjectStore, images ImageStore, observer provisioning.Observer, metrics *provisioning.Metrics) *Purger {
	return &Purger{
		resources: resources,
		objects:   objects,
		images:    images,
		observer:  observer,
		metrics:   metrics,
	}
}

// Purge deletes every object version in the stack's buckets and every image in
// its repositories. Other resource types are left untouched. The first resource
// that reports deletion failures stops the purge with *operation.PurgeFailedError;
// nothing is retried.
func (p *Purger) Purge(ctx context.Context, stackName string) error {
	paginator := cloudformation.NewListStackResourcesPaginator(p.resources, &cloudformation.ListStackResourcesInput{
		StackName: awsv2.String(stackName),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list resources of stack %s: %w", stackName, err)
		}

		for _, summary := range page.StackResourceSummaries {
			resourceType := awsv2.ToString(summary.ResourceType)
			resourceID := awsv2.ToString(summary.PhysicalResourceId)
			if resourceType != ResourceTypeBucket && resourceType != ResourceTypeRepository {
				provisioning.LogResourceSkipped(p.observer, "purge", resourceType, resourceID, "holds no purgeable content")
				continue
			}
			if resourceID == "" {
				provisioning.LogResourceSkipped(p.observer, "purge", resourceType, awsv2.ToString(summary.LogicalResourceId), "resource was never created")
				continue
			}

			switch resourceType {
			case ResourceTypeBucket:
				err = p.emptyBucket(ctx, resourceID)
			case ResourceTypeRepository:
				err = p.emptyRepository(ctx, resourceID)
			}
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func (p *Purger) emptyBucket(ctx context.Context, bucket string) error {
	provisioning.LogResourcePurging(p.observer, ResourceTypeBucket, bucket)

	versions, err := p.objects.ListObjectVersions(ctx, bucket)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		provisioning.LogResourcePurged(p.observer, ResourceTypeBucket, bucket, 0)
		return nil
	}

	failures, err := p.objects.DeleteObjectVersions(ctx, bucket, versions)
	if err != nil {
		return err
	}
	p.metrics.ObservePurged("object_version", len(versions)-len(failures))

	if len(failures) > 0 {
		errs := make([]string, len(failures))
		for i, f := range failures {
			errs[i] = f.String()
		}
		return &operation.PurgeFailedError{ResourceID: bucket, Errors: errs}
	}

	provisioning.LogResourcePurged(p.observer, ResourceTypeBucket, bucket, len(versions))
	return nil
}

func (p *Purger) emptyRepository(ctx context.Context, repository string) error {
	provisioning.LogResourcePurging(p.observer, ResourceTypeRepository, repository)

	digests, err := p.images.ListImageDigests(ctx, repository)
	if err != nil {
		return err
	}
	if len(digests) == 0 {
		provisioning.LogResourcePurged(p.observer, ResourceTypeRepository, repository, 0)
		return nil
	}

	failures, err := p.images.DeleteImages(ctx, repository, digests)
	if err != nil {
		return err
	}
	p.metrics.ObservePurged("image", len(digests)-len(failures))

	if len(failures) > 0 {
		errs := make([]string, len(failures))
		for i, f := range failures {
			errs[i] = f.String()
		}
		return &operation.PurgeFailedError{ResourceID: repository, Errors: errs}
	}

	provisioning.LogResourcePurged(p.observer, ResourceTypeRepository, repository, len(digests))
	return nil
}
