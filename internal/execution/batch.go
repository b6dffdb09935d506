package execution

import (
	"context"
	"fmt"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/batch"
	"github.com/aws/aws-sdk-go-v2/service/batch/types"

	"github.com/imamik/infrabuilder/internal/operation"
	"github.com/imamik/infrabuilder/internal/provisioning"
)

// BatchAPI is the subset of the Batch client used by JobRunner.
type BatchAPI interface {
	SubmitJob(ctx context.Context, params *batch.SubmitJobInput, optFns ...func(*batch.Options)) (*batch.SubmitJobOutput, error)
	DescribeJobs(ctx context.Context, params *batch.DescribeJobsInput, optFns ...func(*batch.Options)) (*batch.DescribeJobsOutput, error)
}

// JobSpec describes a job to submit.
type JobSpec struct {
	Name       string
	Queue      string
	Definition string
}

// JobRunner submits Batch jobs.
type JobRunner struct {
	api      BatchAPI
	waiter   *operation.Waiter
	observer provisioning.Observer
}

// NewJobRunner creates a job runner.
func NewJobRunner(api BatchAPI, waiter *operation.Waiter, observer provisioning.Observer) *JobRunner {
	return &JobRunner{api: api, waiter: waiter, observer: observer}
}

// Submit submits a new job. With wait set it polls the job until it succeeds,
// fails or timeout passes; a timed out job keeps running.
func (r *JobRunner) Submit(ctx context.Context, spec JobSpec, timeout time.Duration, wait bool) (*Execution, error) {
	window := r.waiter.NewWindow(timeout)

	out, err := r.api.SubmitJob(ctx, &batch.SubmitJobInput{
		JobName:       awsv2.String(spec.Name),
		JobQueue:      awsv2.String(spec.Queue),
		JobDefinition: awsv2.String(spec.Definition),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit job %s: %w", spec.Name, err)
	}

	jobID := awsv2.ToString(out.JobId)
	exec := &Execution{ID: jobID, Name: spec.Name, Class: operation.InProgress}
	if region := arnRegion(awsv2.ToString(out.JobArn), "batch"); region != "" {
		exec.ConsoleURL = jobConsoleURL(region, jobID)
	}

	provisioning.LogOperationSubmitted(r.observer, string(operation.FamilyJob), spec.Name, jobID)
	if !wait {
		return exec, nil
	}

	submitted := r.waiter.Now()
	snap, err := r.waiter.Wait(ctx, operation.Poll{
		Family:   operation.FamilyJob,
		Resource: spec.Name,
		Fetch: func(ctx context.Context) (operation.Snapshot, error) {
			return r.describe(ctx, jobID)
		},
	}, window)
	if err != nil {
		provisioning.LogOperationFailed(r.observer, string(operation.FamilyJob), spec.Name, err)
		return stillRunning(exec, err)
	}

	job := snap.Detail.(*types.JobDetail)
	exec.Status = snap.Status
	exec.Class = snap.Class
	exec.Reason = snap.Reason
	// The queue ARN is authoritative for the console region.
	if region := arnRegion(awsv2.ToString(job.JobQueue), "batch"); region != "" {
		exec.ConsoleURL = jobConsoleURL(region, jobID)
	}

	return finish(r.observer, operation.FamilyJob, spec.Name, exec, r.waiter.Now().Sub(submitted))
}

func (r *JobRunner) describe(ctx context.Context, jobID string) (operation.Snapshot, error) {
	out, err := r.api.DescribeJobs(ctx, &batch.DescribeJobsInput{Jobs: []string{jobID}})
	if err != nil {
		return operation.Snapshot{}, fmt.Errorf("failed to describe job %s: %w", jobID, err)
	}
	if len(out.Jobs) == 0 {
		return operation.Snapshot{}, fmt.Errorf("job %s not found", jobID)
	}
	job := out.Jobs[0]
	return operation.Snapshot{
		Status: string(job.Status),
		Reason: awsv2.ToString(job.StatusReason),
		Source: jobID,
		Detail: &job,
	}, nil
}

func jobConsoleURL(region, jobID string) string {
	return fmt.Sprintf("https://%s.console.aws.amazon.com/batch/v2/home?region=%s#jobs/detail/%s", region, region, jobID)
}

// finish logs the outcome of a waited execution. Failed executions are
// returned without an error; Unknown statuses are errors.
func finish(observer provisioning.Observer, family operation.Family, resource string, exec *Execution, took time.Duration) (*Execution, error) {
	phase := string(family)

	switch exec.Class {
	case operation.Completed:
		provisioning.LogOperationCompleted(observer, phase, resource, took)
	case operation.Failed:
		if exec.Reason != "" {
			observer.Printf("[%s] %s reason: %s", phase, resource, exec.Reason)
		}
		if exec.Cause != "" {
			observer.Printf("[%s] %s cause: %s", phase, resource, exec.Cause)
		}
		provisioning.LogOperationFailed(observer, phase, resource, exec.Err())
	default:
		err := &operation.UnknownStatusError{Family: family, Source: exec.ID, Status: exec.Status}
		provisioning.LogOperationFailed(observer, phase, resource, err)
		return nil, err
	}

	if exec.ConsoleURL != "" {
		observer.Printf("[%s] %s details in AWS console: %s", phase, resource, exec.ConsoleURL)
	}
	return exec, nil
}
