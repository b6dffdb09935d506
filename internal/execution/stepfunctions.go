package execution

import (
	"context"
	"fmt"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/google/uuid"

	"github.com/imamik/infrabuilder/internal/operation"
	"github.com/imamik/infrabuilder/internal/provisioning"
)

// StepFunctionsAPI is the subset of the Step Functions client used by WorkflowRunner.
type StepFunctionsAPI interface {
	StartExecution(ctx context.Context, params *sfn.StartExecutionInput, optFns ...func(*sfn.Options)) (*sfn.StartExecutionOutput, error)
	DescribeExecution(ctx context.Context, params *sfn.DescribeExecutionInput, optFns ...func(*sfn.Options)) (*sfn.DescribeExecutionOutput, error)
}

// WorkflowSpec describes a state machine execution to start.
type WorkflowSpec struct {
	StateMachineARN string
	// Input is the JSON input document; empty means none.
	Input string
	// Name of the execution; a random one is used when empty.
	Name string
}

// WorkflowRunner starts state machine executions.
type WorkflowRunner struct {
	api      StepFunctionsAPI
	waiter   *operation.Waiter
	observer provisioning.Observer
	newName  func() string
}

// NewWorkflowRunner creates a workflow runner.
func NewWorkflowRunner(api StepFunctionsAPI, waiter *operation.Waiter, observer provisioning.Observer) *WorkflowRunner {
	return &WorkflowRunner{api: api, waiter: waiter, observer: observer, newName: uuid.NewString}
}

// Start starts a new execution. With wait set it polls the execution until it
// leaves RUNNING or timeout passes; a timed out execution keeps running.
func (r *WorkflowRunner) Start(ctx context.Context, spec WorkflowSpec, timeout time.Duration, wait bool) (*Execution, error) {
	window := r.waiter.NewWindow(timeout)

	name := spec.Name
	if name == "" {
		name = r.newName()
	}
	input := &sfn.StartExecutionInput{
		StateMachineArn: awsv2.String(spec.StateMachineARN),
		Name:            awsv2.String(name),
	}
	if spec.Input != "" {
		input.Input = awsv2.String(spec.Input)
	}

	out, err := r.api.StartExecution(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to start execution of %s: %w", spec.StateMachineARN, err)
	}

	executionARN := awsv2.ToString(out.ExecutionArn)
	exec := &Execution{ID: executionARN, Name: name, Class: operation.InProgress}
	if region := arnRegion(executionARN, "states"); region != "" {
		exec.ConsoleURL = workflowConsoleURL(region, executionARN)
	}

	provisioning.LogOperationSubmitted(r.observer, string(operation.FamilyWorkflow), name, executionARN)
	if !wait {
		return exec, nil
	}

	submitted := r.waiter.Now()
	snap, err := r.waiter.Wait(ctx, operation.Poll{
		Family:   operation.FamilyWorkflow,
		Resource: name,
		Fetch: func(ctx context.Context) (operation.Snapshot, error) {
			return r.describe(ctx, executionARN)
		},
	}, window)
	if err != nil {
		provisioning.LogOperationFailed(r.observer, string(operation.FamilyWorkflow), name, err)
		return stillRunning(exec, err)
	}

	desc := snap.Detail.(*sfn.DescribeExecutionOutput)
	exec.Status = snap.Status
	exec.Class = snap.Class
	exec.Reason = snap.Reason
	exec.Cause = awsv2.ToString(desc.Cause)

	return finish(r.observer, operation.FamilyWorkflow, name, exec, r.waiter.Now().Sub(submitted))
}

func (r *WorkflowRunner) describe(ctx context.Context, executionARN string) (operation.Snapshot, error) {
	out, err := r.api.DescribeExecution(ctx, &sfn.DescribeExecutionInput{ExecutionArn: awsv2.String(executionARN)})
	if err != nil {
		return operation.Snapshot{}, fmt.Errorf("failed to describe execution %s: %w", executionARN, err)
	}
	return operation.Snapshot{
		Status: string(out.Status),
		Reason: awsv2.ToString(out.Error),
		Source: executionARN,
		Detail: out,
	}, nil
}

func workflowConsoleURL(region, executionARN string) string {
	return fmt.Sprintf("https://%s.console.aws.amazon.com/states/home?region=%s#/v2/executions/details/%s", region, region, executionARN)
}
