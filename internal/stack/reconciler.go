package stack

import (
	"context"
	"fmt"
	"strings"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/google/uuid"

	"github.com/imamik/infrabuilder/internal/operation"
	awsplatform "github.com/imamik/infrabuilder/internal/platform/aws"
	"github.com/imamik/infrabuilder/internal/provisioning"
)

const phase = string(operation.FamilyStack)

// noUpdatesMessage is how UpdateStack reports that the stack already matches.
const noUpdatesMessage = "No updates are to be performed."

// API is the subset of the CloudFormation client used by the Reconciler.
type API interface {
	cloudformation.DescribeStacksAPIClient
	cloudformation.DescribeStackEventsAPIClient
	cloudformation.ListStackResourcesAPIClient
	CreateStack(ctx context.Context, params *cloudformation.CreateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error)
	UpdateStack(ctx context.Context, params *cloudformation.UpdateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error)
	DeleteStack(ctx context.Context, params *cloudformation.DeleteStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error)
}

// Stack is the described state of a stack.
type Stack struct {
	Name    string
	ID      string
	Status  string
	Outputs map[string]string
}

// Reconciler creates, updates and deletes stacks and waits for each operation.
// Calls for the same stack name must not run concurrently; the provider
// rejects conflicting operations and that error is returned as is.
type Reconciler struct {
	api      API
	waiter   *operation.Waiter
	observer provisioning.Observer
	purger   *Purger
	roleARN  string
	timeout  time.Duration
	newToken func() string
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithRoleARN passes a service role for CloudFormation to assume.
func WithRoleARN(arn string) Option {
	return func(r *Reconciler) {
		r.roleARN = arn
	}
}

// WithPurger enables emptying buckets and repositories on Delete.
func WithPurger(p *Purger) Option {
	return func(r *Reconciler) {
		r.purger = p
	}
}

// WithTokenFunc replaces the idempotency token generator.
func WithTokenFunc(f func() string) Option {
	return func(r *Reconciler) {
		r.newToken = f
	}
}

// NewReconciler creates a reconciler whose operations each wait at most timeout.
func NewReconciler(api API, waiter *operation.Waiter, observer provisioning.Observer, timeout time.Duration, opts ...Option) *Reconciler {
	r := &Reconciler{
		api:      api,
		waiter:   waiter,
		observer: observer,
		timeout:  timeout,
		newToken: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithTimeout returns a copy of r whose operations wait at most d.
// A non-positive d returns r unchanged.
func (r *Reconciler) WithTimeout(d time.Duration) *Reconciler {
	if d <= 0 {
		return r
	}
	c := *r
	c.timeout = d
	return &c
}

// Reconcile brings the stack to the state described by plan:
//
//	absent                 -> create
//	DELETE_COMPLETE        -> delete remnants, then create
//	any other status       -> update
//
// One window covers the whole call, including the delete-then-create path.
func (r *Reconciler) Reconcile(ctx context.Context, plan Plan) (*Stack, error) {
	window := r.waiter.NewWindow(r.timeout)

	current, err := r.describe(ctx, plan.Name)
	if err != nil {
		return nil, err
	}

	switch {
	case current == nil:
		return r.create(ctx, plan, window)
	case current.StackStatus == types.StackStatusDeleteComplete:
		r.observer.Printf("[%s] %s was deleted, removing remnants before creating it again", phase, plan.Name)
		if err := r.deleteAndWait(ctx, plan.Name, awsv2.ToString(current.StackId), window); err != nil {
			return nil, err
		}
		return r.create(ctx, plan, window)
	default:
		return r.update(ctx, current, plan, window)
	}
}

// Delete deletes a stack, emptying its buckets and repositories first when
// purgeContent is set. Without purging, a stack holding data fails to delete
// and that failure is returned.
func (r *Reconciler) Delete(ctx context.Context, name string, purgeContent bool) error {
	current, err := r.describe(ctx, name)
	if err != nil {
		return err
	}
	if current == nil {
		return &operation.NotFoundError{Name: name}
	}

	if purgeContent {
		if r.purger == nil {
			return fmt.Errorf("content purge requested for %s but no purger is configured", name)
		}
		if err := r.purger.Purge(ctx, name); err != nil {
			return err
		}
	}

	return r.deleteAndWait(ctx, name, awsv2.ToString(current.StackId), r.waiter.NewWindow(r.timeout))
}

// Describe returns the current state of a stack, or nil if it does not exist.
func (r *Reconciler) Describe(ctx context.Context, name string) (*Stack, error) {
	current, err := r.describe(ctx, name)
	if err != nil || current == nil {
		return nil, err
	}
	return toStack(current), nil
}

func (r *Reconciler) create(ctx context.Context, plan Plan, window operation.Window) (*Stack, error) {
	out, err := r.api.CreateStack(ctx, &cloudformation.CreateStackInput{
		StackName:          awsv2.String(plan.Name),
		TemplateBody:       awsv2.String(plan.Template),
		Parameters:         toParameters(plan.Parameters),
		Tags:               toTags(plan.Tags),
		Capabilities:       toCapabilities(plan.Capabilities),
		RoleARN:            r.role(),
		ClientRequestToken: awsv2.String(r.newToken()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create stack %s: %w", plan.Name, err)
	}

	stackID := awsv2.ToString(out.StackId)
	provisioning.LogOperationSubmitted(r.observer, phase, plan.Name, stackID)
	return r.wait(ctx, plan.Name, stackID, window)
}

func (r *Reconciler) update(ctx context.Context, current *types.Stack, plan Plan, window operation.Window) (*Stack, error) {
	out, err := r.api.UpdateStack(ctx, &cloudformation.UpdateStackInput{
		StackName:          awsv2.String(plan.Name),
		TemplateBody:       awsv2.String(plan.Template),
		Parameters:         toParameters(plan.Parameters),
		Tags:               toTags(plan.Tags),
		Capabilities:       toCapabilities(plan.Capabilities),
		RoleARN:            r.role(),
		ClientRequestToken: awsv2.String(r.newToken()),
	})
	if err != nil {
		if isNoUpdates(err) {
			r.observer.Printf("[%s] %s is up to date", phase, plan.Name)
			return toStack(current), nil
		}
		return nil, fmt.Errorf("failed to update stack %s: %w", plan.Name, err)
	}

	stackID := awsv2.ToString(out.StackId)
	provisioning.LogOperationSubmitted(r.observer, phase, plan.Name, stackID)
	return r.wait(ctx, plan.Name, stackID, window)
}

func (r *Reconciler) deleteAndWait(ctx context.Context, name, stackID string, window operation.Window) error {
	_, err := r.api.DeleteStack(ctx, &cloudformation.DeleteStackInput{
		StackName:          awsv2.String(name),
		RoleARN:            r.role(),
		ClientRequestToken: awsv2.String(r.newToken()),
	})
	if err != nil {
		return fmt.Errorf("failed to delete stack %s: %w", name, err)
	}

	provisioning.LogOperationSubmitted(r.observer, phase, name, stackID)
	_, err = r.wait(ctx, name, stackID, window)
	return err
}

// wait polls by stack ID, since deleted stacks cannot be described by name.
func (r *Reconciler) wait(ctx context.Context, name, stackID string, window operation.Window) (*Stack, error) {
	submitted := r.waiter.Now()

	snap, err := r.waiter.Wait(ctx, operation.Poll{
		Family:   operation.FamilyStack,
		Resource: name,
		Fetch: func(ctx context.Context) (operation.Snapshot, error) {
			s, err := r.describe(ctx, stackID)
			if err != nil {
				return operation.Snapshot{}, err
			}
			if s == nil {
				return operation.Snapshot{}, &operation.NotFoundError{Name: name}
			}
			return operation.Snapshot{
				Status: string(s.StackStatus),
				Reason: awsv2.ToString(s.StackStatusReason),
				Source: stackID,
				Detail: s,
			}, nil
		},
		Events: func(ctx context.Context, since time.Time) ([]operation.ProviderEvent, error) {
			return r.events(ctx, stackID, since)
		},
	}, window)
	if err != nil {
		provisioning.LogOperationFailed(r.observer, phase, name, err)
		return nil, err
	}

	switch snap.Class {
	case operation.Completed:
		provisioning.LogOperationCompleted(r.observer, phase, name, r.waiter.Now().Sub(submitted))
		return toStack(snap.Detail.(*types.Stack)), nil
	case operation.Failed:
		err = &operation.ReconciliationFailedError{Name: name, Status: snap.Status, Reason: snap.Reason}
	default:
		err = &operation.UnknownStatusError{Family: operation.FamilyStack, Source: name, Status: snap.Status}
	}
	provisioning.LogOperationFailed(r.observer, phase, name, err)
	return nil, err
}

// describe returns nil for a stack that does not exist.
func (r *Reconciler) describe(ctx context.Context, nameOrID string) (*types.Stack, error) {
	out, err := r.api.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{StackName: awsv2.String(nameOrID)})
	if err != nil {
		if isStackNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to describe stack %s: %w", nameOrID, err)
	}
	if len(out.Stacks) == 0 {
		return nil, nil
	}
	return &out.Stacks[0], nil
}

// events lists stack events newest first, reading pages until one reaches back past since.
func (r *Reconciler) events(ctx context.Context, stackID string, since time.Time) ([]operation.ProviderEvent, error) {
	var events []operation.ProviderEvent

	paginator := cloudformation.NewDescribeStackEventsPaginator(r.api, &cloudformation.DescribeStackEventsInput{
		StackName: awsv2.String(stackID),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list events of stack %s: %w", stackID, err)
		}

		covered := false
		for _, e := range page.StackEvents {
			ts := awsv2.ToTime(e.Timestamp)
			events = append(events, operation.ProviderEvent{
				ID:        awsv2.ToString(e.EventId),
				Timestamp: ts,
				Status:    string(e.ResourceStatus),
				Category:  awsv2.ToString(e.ResourceType),
				Subject:   awsv2.ToString(e.LogicalResourceId),
				Reason:    awsv2.ToString(e.ResourceStatusReason),
			})
			if ts.Before(since) {
				covered = true
			}
		}
		if covered {
			break
		}
	}

	return events, nil
}

func (r *Reconciler) role() *string {
	if r.roleARN == "" {
		return nil
	}
	return awsv2.String(r.roleARN)
}

func isStackNotFound(err error) bool {
	return awsplatform.IsErrorCode(err, "ValidationError") &&
		strings.Contains(awsplatform.ErrorMessage(err), "does not exist")
}

func isNoUpdates(err error) bool {
	return awsplatform.IsErrorCode(err, "ValidationError") &&
		strings.Contains(awsplatform.ErrorMessage(err), noUpdatesMessage)
}

func toStack(s *types.Stack) *Stack {
	outputs := make(map[string]string, len(s.Outputs))
	for _, o := range s.Outputs {
		outputs[awsv2.ToString(o.OutputKey)] = awsv2.ToString(o.OutputValue)
	}
	return &Stack{
		Name:    awsv2.ToString(s.StackName),
		ID:      awsv2.ToString(s.StackId),
		Status:  string(s.StackStatus),
		Outputs: outputs,
	}
}

func toParameters(params []Parameter) []types.Parameter {
	out := make([]types.Parameter, 0, len(params))
	for _, p := range params {
		out = append(out, types.Parameter{ParameterKey: awsv2.String(p.Key), ParameterValue: awsv2.String(p.Value)})
	}
	return out
}

func toTags(tags []Tag) []types.Tag {
	out := make([]types.Tag, 0, len(tags))
	for _, t := range tags {
		out = append(out, types.Tag{Key: awsv2.String(t.Key), Value: awsv2.String(t.Value)})
	}
	return out
}

func toCapabilities(caps []string) []types.Capability {
	out := make([]types.Capability, 0, len(caps))
	for _, c := range caps {
		out = append(out, types.Capability(c))
	}
	return out
}
