package stack

import (
	"context"
	"errors"
	"testing"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/infrabuilder/internal/operation"
	"github.com/imamik/infrabuilder/internal/platform/s3"
	"github.com/imamik/infrabuilder/internal/provisioning"
)

func TestReconcile_CreatesMissingStack(t *testing.T) {
	t.Parallel()

	api := &fakeCloudFormation{
		statuses: []string{"CREATE_IN_PROGRESS", "CREATE_IN_PROGRESS", "CREATE_COMPLETE"},
		outputs:  []types.Output{{OutputKey: awsv2.String("BucketName"), OutputValue: awsv2.String("bucket-1")}},
	}
	obs := provisioning.NewRecordingObserver()
	r, _ := newTestReconciler(api, obs)

	plan := NewPlan("my-stack", "templateX", map[string]any{"Env": "prod"}, nil, nil)
	stack, err := r.Reconcile(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, "my-stack", stack.Name)
	assert.Equal(t, map[string]string{"BucketName": "bucket-1"}, stack.Outputs)
	assert.Equal(t, []string{"create"}, api.calls)

	require.Len(t, api.createIn, 1)
	in := api.createIn[0]
	assert.Equal(t, "templateX", awsv2.ToString(in.TemplateBody))
	require.Len(t, in.Parameters, 1)
	assert.Equal(t, "Env", awsv2.ToString(in.Parameters[0].ParameterKey))
	assert.Equal(t, "prod", awsv2.ToString(in.Parameters[0].ParameterValue))
	assert.Equal(t, "token-1", awsv2.ToString(in.ClientRequestToken))
	assert.Nil(t, in.RoleARN)

	transitions := obs.EventsOfType(provisioning.EventStatusChanged)
	require.Len(t, transitions, 2)
	assert.Equal(t, "CREATE_IN_PROGRESS", transitions[0].Fields["status"])
	assert.Equal(t, "CREATE_COMPLETE", transitions[1].Fields["status"])
	assert.Len(t, obs.EventsOfType(provisioning.EventOperationCompleted), 1)
}

func TestReconcile_NoUpdatesIsSuccess(t *testing.T) {
	t.Parallel()

	api := &fakeCloudFormation{
		stacks:    map[string]*types.Stack{"my-stack": existing("my-stack", types.StackStatusUpdateComplete, map[string]string{"Url": "https://example.com"})},
		updateErr: &smithy.GenericAPIError{Code: "ValidationError", Message: "No updates are to be performed."},
	}
	r, _ := newTestReconciler(api, provisioning.NewRecordingObserver())

	stack, err := r.Reconcile(context.Background(), NewPlan("my-stack", "templateX", nil, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Url": "https://example.com"}, stack.Outputs)
	assert.Equal(t, []string{"update"}, api.calls)
	assert.Zero(t, api.polled)
}

func TestReconcile_UpdateWaitsForCompletion(t *testing.T) {
	t.Parallel()

	api := &fakeCloudFormation{
		stacks:   map[string]*types.Stack{"my-stack": existing("my-stack", types.StackStatusCreateComplete, nil)},
		statuses: []string{"UPDATE_IN_PROGRESS", "UPDATE_COMPLETE_CLEANUP_IN_PROGRESS", "UPDATE_COMPLETE"},
		outputs:  []types.Output{{OutputKey: awsv2.String("Version"), OutputValue: awsv2.String("2")}},
	}
	r, _ := newTestReconciler(api, provisioning.NewRecordingObserver(), WithRoleARN("arn:aws:iam::123456789012:role/cfn"))

	plan := NewPlan("my-stack", "templateY", nil, map[string]string{"team": "infra"}, []string{"CAPABILITY_IAM"})
	stack, err := r.Reconcile(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, "2", stack.Outputs["Version"])
	assert.Equal(t, 3, api.polled)

	in := api.updateIn[0]
	assert.Equal(t, "arn:aws:iam::123456789012:role/cfn", awsv2.ToString(in.RoleARN))
	assert.Equal(t, []types.Capability{types.CapabilityCapabilityIam}, in.Capabilities)
	require.Len(t, in.Tags, 1)
	assert.Equal(t, "team", awsv2.ToString(in.Tags[0].Key))
}

func TestReconcile_ProviderErrorPropagates(t *testing.T) {
	t.Parallel()

	denied := &smithy.GenericAPIError{Code: "AccessDenied", Message: "not allowed"}
	api := &fakeCloudFormation{
		stacks:    map[string]*types.Stack{"my-stack": existing("my-stack", types.StackStatusCreateComplete, nil)},
		updateErr: denied,
	}
	r, _ := newTestReconciler(api, provisioning.NewRecordingObserver())

	_, err := r.Reconcile(context.Background(), NewPlan("my-stack", "t", nil, nil, nil))
	require.Error(t, err)

	var apiErr smithy.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "AccessDenied", apiErr.ErrorCode())
}

func TestReconcile_FailedStatus(t *testing.T) {
	t.Parallel()

	api := &fakeCloudFormation{
		stacks:   map[string]*types.Stack{"my-stack": existing("my-stack", types.StackStatusCreateComplete, nil)},
		statuses: []string{"UPDATE_IN_PROGRESS", "UPDATE_ROLLBACK_IN_PROGRESS", "UPDATE_ROLLBACK_COMPLETE"},
	}
	obs := provisioning.NewRecordingObserver()
	r, _ := newTestReconciler(api, obs)

	_, err := r.Reconcile(context.Background(), NewPlan("my-stack", "t", nil, nil, nil))
	require.ErrorIs(t, err, operation.ErrReconciliationFailed)

	var failed *operation.ReconciliationFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "my-stack", failed.Name)
	assert.Equal(t, "UPDATE_ROLLBACK_COMPLETE", failed.Status)

	// Both classes were reported before the error.
	assert.Len(t, obs.EventsOfType(provisioning.EventStatusChanged), 2)
	assert.Len(t, obs.EventsOfType(provisioning.EventOperationFailed), 1)
}

func TestReconcile_UnknownStatus(t *testing.T) {
	t.Parallel()

	api := &fakeCloudFormation{statuses: []string{"IMPORT_IN_PROGRESS"}}
	r, _ := newTestReconciler(api, provisioning.NewRecordingObserver())

	_, err := r.Reconcile(context.Background(), NewPlan("my-stack", "t", nil, nil, nil))
	assert.ErrorIs(t, err, operation.ErrUnknownStatus)
	assert.Equal(t, 1, api.polled)
}

func TestReconcile_Timeout(t *testing.T) {
	t.Parallel()

	api := &fakeCloudFormation{statuses: []string{"CREATE_IN_PROGRESS"}}
	r, clock := newTestReconciler(api, provisioning.NewRecordingObserver())

	_, err := r.Reconcile(context.Background(), NewPlan("my-stack", "t", nil, nil, nil))
	require.ErrorIs(t, err, operation.ErrTimeout)
	assert.True(t, clock.now.After(t0.Add(30*time.Second)))
	assert.Empty(t, api.deleteIn)
}

func TestReconcile_DeleteCompleteIsRecreated(t *testing.T) {
	t.Parallel()

	api := &fakeCloudFormation{
		stacks:   map[string]*types.Stack{"my-stack": existing("my-stack", types.StackStatusDeleteComplete, nil)},
		statuses: []string{"DELETE_COMPLETE", "CREATE_IN_PROGRESS", "CREATE_COMPLETE"},
	}
	r, _ := newTestReconciler(api, provisioning.NewRecordingObserver())

	stack, err := r.Reconcile(context.Background(), NewPlan("my-stack", "t", nil, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, "CREATE_COMPLETE", stack.Status)
	assert.Equal(t, []string{"delete", "create"}, api.calls)
	assert.Equal(t, "token-1", awsv2.ToString(api.deleteIn[0].ClientRequestToken))
	assert.Equal(t, "token-2", awsv2.ToString(api.createIn[0].ClientRequestToken))
}

func TestReconcile_RelaysStackEvents(t *testing.T) {
	t.Parallel()

	api := &fakeCloudFormation{
		statuses: []string{"CREATE_IN_PROGRESS", "CREATE_COMPLETE"},
		events: []types.StackEvent{
			{EventId: awsv2.String("e3"), Timestamp: awsv2.Time(t0.Add(2 * time.Second)), ResourceStatus: types.ResourceStatusCreateComplete, ResourceType: awsv2.String("AWS::S3::Bucket"), LogicalResourceId: awsv2.String("Bucket")},
			{EventId: awsv2.String("e2"), Timestamp: awsv2.Time(t0.Add(time.Second)), ResourceStatus: types.ResourceStatusCreateInProgress, ResourceType: awsv2.String("AWS::S3::Bucket"), LogicalResourceId: awsv2.String("Bucket")},
			{EventId: awsv2.String("e1"), Timestamp: awsv2.Time(t0.Add(-time.Hour)), ResourceStatus: types.ResourceStatusDeleteComplete, ResourceType: awsv2.String("AWS::S3::Bucket"), LogicalResourceId: awsv2.String("Bucket")},
		},
	}
	obs := provisioning.NewRecordingObserver()
	r, _ := newTestReconciler(api, obs)

	_, err := r.Reconcile(context.Background(), NewPlan("my-stack", "t", nil, nil, nil))
	require.NoError(t, err)

	relayed := obs.EventsOfType(provisioning.EventProviderEvent)
	require.Len(t, relayed, 2)
	assert.Equal(t, t0.Add(time.Second), relayed[0].Timestamp)
	assert.Equal(t, t0.Add(2*time.Second), relayed[1].Timestamp)
}

func TestReconcile_ReadsEventPagesUntilWindowStart(t *testing.T) {
	t.Parallel()

	event := func(id string, at time.Time) types.StackEvent {
		return types.StackEvent{EventId: awsv2.String(id), Timestamp: awsv2.Time(at), ResourceStatus: types.ResourceStatusCreateInProgress, ResourceType: awsv2.String("AWS::SQS::Queue"), LogicalResourceId: awsv2.String("Queue")}
	}
	api := &fakeCloudFormation{
		statuses: []string{"CREATE_IN_PROGRESS", "CREATE_COMPLETE"},
		eventPages: [][]types.StackEvent{
			{event("e4", t0.Add(3*time.Second)), event("e3", t0.Add(2*time.Second))},
			{event("e2", t0.Add(time.Second)), event("e1", t0.Add(-time.Hour))},
		},
	}
	obs := provisioning.NewRecordingObserver()
	r, _ := newTestReconciler(api, obs)

	_, err := r.Reconcile(context.Background(), NewPlan("my-stack", "t", nil, nil, nil))
	require.NoError(t, err)

	// Each poll reads the first page and the one reaching back past the window
	// start, never the page after it.
	assert.Equal(t, []string{"", "events-1", "", "events-1"}, api.eventTokens)

	relayed := obs.EventsOfType(provisioning.EventProviderEvent)
	require.Len(t, relayed, 3)
	assert.Equal(t, t0.Add(time.Second), relayed[0].Timestamp)
	assert.Equal(t, t0.Add(2*time.Second), relayed[1].Timestamp)
	assert.Equal(t, t0.Add(3*time.Second), relayed[2].Timestamp)
}

func TestDelete_MissingStack(t *testing.T) {
	t.Parallel()

	r, _ := newTestReconciler(&fakeCloudFormation{}, provisioning.NewRecordingObserver())

	err := r.Delete(context.Background(), "nope", false)
	require.ErrorIs(t, err, operation.ErrNotFound)
	assert.EqualError(t, err, "stack nope does not exist")
}

func TestDelete_WaitsForDeleteComplete(t *testing.T) {
	t.Parallel()

	api := &fakeCloudFormation{
		stacks:   map[string]*types.Stack{"my-stack": existing("my-stack", types.StackStatusCreateComplete, nil)},
		statuses: []string{"DELETE_IN_PROGRESS", "DELETE_COMPLETE"},
	}
	r, _ := newTestReconciler(api, provisioning.NewRecordingObserver())

	require.NoError(t, r.Delete(context.Background(), "my-stack", false))
	assert.Equal(t, []string{"delete"}, api.calls)
	assert.Equal(t, 2, api.polled)
}

func TestDelete_ProviderRejectsNonEmptyBucket(t *testing.T) {
	t.Parallel()

	api := &fakeCloudFormation{
		stacks:   map[string]*types.Stack{"my-stack": existing("my-stack", types.StackStatusCreateComplete, nil)},
		statuses: []string{"DELETE_IN_PROGRESS", "DELETE_FAILED"},
	}
	r, _ := newTestReconciler(api, provisioning.NewRecordingObserver())

	err := r.Delete(context.Background(), "my-stack", false)
	assert.ErrorIs(t, err, operation.ErrReconciliationFailed)
}

func TestDelete_PurgesFirst(t *testing.T) {
	t.Parallel()

	api := &fakeCloudFormation{
		stacks:   map[string]*types.Stack{"my-stack": existing("my-stack", types.StackStatusCreateComplete, nil)},
		statuses: []string{"DELETE_COMPLETE"},
		pages:    [][]types.StackResourceSummary{{resource(ResourceTypeBucket, "bucket-1")}},
	}
	obs := provisioning.NewRecordingObserver()
	objects := &fakeObjects{versions: map[string][]s3.ObjectVersion{"bucket-1": {{Key: "a", VersionID: "1"}}}}
	purger := NewPurger(api, objects, &fakeImages{}, obs, nil)
	r, _ := newTestReconciler(api, obs, WithPurger(purger))

	require.NoError(t, r.Delete(context.Background(), "my-stack", true))
	assert.Equal(t, []string{"list-resources", "delete"}, api.calls)
	assert.Equal(t, 1, objects.deleted["bucket-1"])
}

func TestDelete_PurgeFailureStopsDelete(t *testing.T) {
	t.Parallel()

	api := &fakeCloudFormation{
		stacks: map[string]*types.Stack{"my-stack": existing("my-stack", types.StackStatusCreateComplete, nil)},
		pages:  [][]types.StackResourceSummary{{resource(ResourceTypeBucket, "bucket-1")}},
	}
	objects := &fakeObjects{
		versions: map[string][]s3.ObjectVersion{"bucket-1": {{Key: "a", VersionID: "1"}}},
		failKeys: map[string]bool{"a": true},
	}
	obs := provisioning.NewRecordingObserver()
	r, _ := newTestReconciler(api, obs, WithPurger(NewPurger(api, objects, &fakeImages{}, obs, nil)))

	err := r.Delete(context.Background(), "my-stack", true)
	assert.ErrorIs(t, err, operation.ErrPurgeFailed)
	assert.Empty(t, api.deleteIn)
}

func TestDelete_PurgeWithoutPurger(t *testing.T) {
	t.Parallel()

	api := &fakeCloudFormation{
		stacks: map[string]*types.Stack{"my-stack": existing("my-stack", types.StackStatusCreateComplete, nil)},
	}
	r, _ := newTestReconciler(api, provisioning.NewRecordingObserver())

	err := r.Delete(context.Background(), "my-stack", true)
	require.Error(t, err)
	assert.Empty(t, api.deleteIn)
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	api := &fakeCloudFormation{
		stacks: map[string]*types.Stack{"my-stack": existing("my-stack", types.StackStatusUpdateComplete, map[string]string{"A": "1"})},
	}
	r, _ := newTestReconciler(api, provisioning.NewRecordingObserver())

	stack, err := r.Describe(context.Background(), "my-stack")
	require.NoError(t, err)
	assert.Equal(t, &Stack{Name: "my-stack", ID: stackID("my-stack"), Status: "UPDATE_COMPLETE", Outputs: map[string]string{"A": "1"}}, stack)

	stack, err = r.Describe(context.Background(), "other")
	require.NoError(t, err)
	assert.Nil(t, stack)
}

func TestDescribe_OtherValidationErrorIsNotAbsence(t *testing.T) {
	t.Parallel()

	api := &failingDescribe{err: &smithy.GenericAPIError{Code: "ValidationError", Message: "1 validation error detected"}}
	r, _ := newTestReconciler(api, provisioning.NewRecordingObserver())

	_, err := r.Describe(context.Background(), "my-stack")
	require.Error(t, err)
	assert.False(t, errors.Is(err, operation.ErrNotFound))
}

type failingDescribe struct {
	fakeCloudFormation
	err error
}

func (f *failingDescribe) DescribeStacks(context.Context, *cloudformation.DescribeStacksInput, ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error) {
	return nil, f.err
}

func TestReconciler_WithTimeout(t *testing.T) {
	t.Parallel()

	r, _ := newTestReconciler(&fakeCloudFormation{}, provisioning.NewRecordingObserver())
	longer := r.WithTimeout(time.Hour)

	assert.NotSame(t, r, longer)
	assert.Equal(t, time.Hour, longer.timeout)
	assert.NotEqual(t, time.Hour, r.timeout)
	assert.Same(t, r, r.WithTimeout(0))
}
