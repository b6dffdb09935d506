package rollout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"github.com/imamik/infrabuilder/internal/operation"
	"github.com/imamik/infrabuilder/internal/provisioning"
)

const phase = string(operation.FamilyRollout)

// latestVersion is the unpublished version every function has.
const latestVersion = "$LATEST"

// lastModifiedLayout is the timestamp format of FunctionConfiguration.LastModified.
const lastModifiedLayout = "2006-01-02T15:04:05.000-0700"

// LambdaAPI is the subset of the Lambda client used by Deployer.
type LambdaAPI interface {
	lambda.ListVersionsByFunctionAPIClient
	UpdateFunctionCode(ctx context.Context, params *lambda.UpdateFunctionCodeInput, optFns ...func(*lambda.Options)) (*lambda.UpdateFunctionCodeOutput, error)
	UpdateAlias(ctx context.Context, params *lambda.UpdateAliasInput, optFns ...func(*lambda.Options)) (*lambda.UpdateAliasOutput, error)
	CreateAlias(ctx context.Context, params *lambda.CreateAliasInput, optFns ...func(*lambda.Options)) (*lambda.CreateAliasOutput, error)
	GetAlias(ctx context.Context, params *lambda.GetAliasInput, optFns ...func(*lambda.Options)) (*lambda.GetAliasOutput, error)
	PutProvisionedConcurrencyConfig(ctx context.Context, params *lambda.PutProvisionedConcurrencyConfigInput, optFns ...func(*lambda.Options)) (*lambda.PutProvisionedConcurrencyConfigOutput, error)
	DeleteFunction(ctx context.Context, params *lambda.DeleteFunctionInput, optFns ...func(*lambda.Options)) (*lambda.DeleteFunctionOutput, error)
}

// FunctionUpdate describes a new image for a function.
type FunctionUpdate struct {
	Function string
	ImageURI string
	// Alias is moved to the published version when set.
	Alias string
	// Provision sets provisioned concurrency on the alias when greater than zero.
	Provision int32
}

// Deployer updates function code and aliases.
type Deployer struct {
	api      LambdaAPI
	waiter   *operation.Waiter
	observer provisioning.Observer
}

// NewDeployer creates a deployer.
func NewDeployer(api LambdaAPI, waiter *operation.Waiter, observer provisioning.Observer) *Deployer {
	return &Deployer{api: api, waiter: waiter, observer: observer}
}

// UpdateFunctionCode publishes a new version from update.ImageURI and returns
// it. With an alias set, the alias is moved to the new version, created if
// missing, and the call waits up to timeout for traffic to converge.
func (d *Deployer) UpdateFunctionCode(ctx context.Context, update FunctionUpdate, timeout time.Duration) (string, error) {
	out, err := d.api.UpdateFunctionCode(ctx, &lambda.UpdateFunctionCodeInput{
		FunctionName: awsv2.String(update.Function),
		ImageUri:     awsv2.String(update.ImageURI),
		Publish:      true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to update code of function %s: %w", update.Function, err)
	}
	version := awsv2.ToString(out.Version)
	provisioning.LogOperationSubmitted(d.observer, phase, update.Function, "version "+version)

	if update.Alias == "" {
		return version, nil
	}

	if err := d.pointAlias(ctx, update.Function, update.Alias, version); err != nil {
		return "", err
	}

	if update.Provision > 0 {
		_, err := d.api.PutProvisionedConcurrencyConfig(ctx, &lambda.PutProvisionedConcurrencyConfigInput{
			FunctionName:                    awsv2.String(update.Function),
			Qualifier:                       awsv2.String(update.Alias),
			ProvisionedConcurrentExecutions: awsv2.Int32(update.Provision),
		})
		if err != nil {
			return "", fmt.Errorf("failed to provision %d executions for %s:%s: %w", update.Provision, update.Function, update.Alias, err)
		}
	}

	if err := d.WaitForConvergence(ctx, update.Function, update.Alias, version, timeout); err != nil {
		return "", err
	}
	return version, nil
}

func (d *Deployer) pointAlias(ctx context.Context, function, alias, version string) error {
	_, err := d.api.UpdateAlias(ctx, &lambda.UpdateAliasInput{
		FunctionName:    awsv2.String(function),
		Name:            awsv2.String(alias),
		FunctionVersion: awsv2.String(version),
	})
	if err == nil {
		return nil
	}

	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("failed to update alias %s of %s: %w", alias, function, err)
	}

	_, err = d.api.CreateAlias(ctx, &lambda.CreateAliasInput{
		FunctionName:    awsv2.String(function),
		Name:            awsv2.String(alias),
		FunctionVersion: awsv2.String(version),
	})
	if err != nil {
		return fmt.Errorf("failed to create alias %s of %s: %w", alias, function, err)
	}
	return nil
}

// WaitForConvergence polls the alias until its routing configuration carries
// no additional version weights. An alias without routing configuration has
// converged.
func (d *Deployer) WaitForConvergence(ctx context.Context, function, alias, targetVersion string, timeout time.Duration) error {
	resource := function + ":" + alias
	window := d.waiter.NewWindow(timeout)
	started := d.waiter.Now()

	snap, err := d.waiter.Wait(ctx, operation.Poll{
		Family:   operation.FamilyRollout,
		Resource: resource,
		Fetch: func(ctx context.Context) (operation.Snapshot, error) {
			out, err := d.api.GetAlias(ctx, &lambda.GetAliasInput{
				FunctionName: awsv2.String(function),
				Name:         awsv2.String(alias),
			})
			if err != nil {
				return operation.Snapshot{}, fmt.Errorf("failed to get alias %s: %w", resource, err)
			}
			return rolloutSnapshot(out, targetVersion), nil
		},
	}, window)
	if err != nil {
		provisioning.LogOperationFailed(d.observer, phase, resource, err)
		return err
	}

	if snap.Class != operation.Completed {
		err := &operation.UnknownStatusError{Family: operation.FamilyRollout, Source: resource, Status: snap.Status}
		provisioning.LogOperationFailed(d.observer, phase, resource, err)
		return err
	}
	provisioning.LogOperationCompleted(d.observer, phase, resource, d.waiter.Now().Sub(started))
	return nil
}

func rolloutSnapshot(out *lambda.GetAliasOutput, targetVersion string) operation.Snapshot {
	snap := operation.Snapshot{
		Status: operation.RolloutConverged,
		Source: awsv2.ToString(out.AliasArn),
		Reason: fmt.Sprintf("alias points at version %s", awsv2.ToString(out.FunctionVersion)),
		Detail: out,
	}
	if out.RoutingConfig == nil || len(out.RoutingConfig.AdditionalVersionWeights) == 0 {
		return snap
	}

	snap.Status = operation.RolloutShifting
	for v, w := range out.RoutingConfig.AdditionalVersionWeights {
		snap.Reason = fmt.Sprintf("%.0f%% of traffic still on version %s, target %s", w*100, v, targetVersion)
	}
	return snap
}

// DeleteOldVersions deletes all published versions except the keep most
// recently modified ones and returns the deleted version numbers.
func (d *Deployer) DeleteOldVersions(ctx context.Context, function string, keep int) ([]string, error) {
	if keep < 1 {
		return nil, fmt.Errorf("keep must be 1 or greater, got %d", keep)
	}

	var versions []types.FunctionConfiguration
	paginator := lambda.NewListVersionsByFunctionPaginator(d.api, &lambda.ListVersionsByFunctionInput{
		FunctionName: awsv2.String(function),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list versions of %s: %w", function, err)
		}
		for _, v := range page.Versions {
			if awsv2.ToString(v.Version) != latestVersion {
				versions = append(versions, v)
			}
		}
	}

	sort.SliceStable(versions, func(i, j int) bool {
		ti, tj := lastModified(versions[i]), lastModified(versions[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return versionNumber(versions[i]) > versionNumber(versions[j])
	})
	if len(versions) <= keep {
		return nil, nil
	}

	var deleted []string
	for _, v := range versions[keep:] {
		version := awsv2.ToString(v.Version)
		_, err := d.api.DeleteFunction(ctx, &lambda.DeleteFunctionInput{
			FunctionName: awsv2.String(function),
			Qualifier:    awsv2.String(version),
		})
		if err != nil {
			return deleted, fmt.Errorf("failed to delete version %s of %s: %w", version, function, err)
		}
		d.observer.Printf("[%s] deleted version %s of %s", phase, version, function)
		deleted = append(deleted, version)
	}
	return deleted, nil
}

func lastModified(v types.FunctionConfiguration) time.Time {
	t, err := time.Parse(lastModifiedLayout, awsv2.ToString(v.LastModified))
	if err != nil {
		return time.Time{}
	}
	return t
}

func versionNumber(v types.FunctionConfiguration) int {
	n, _ := strconv.Atoi(awsv2.ToString(v.Version))
	return n
}
