package stack

import (
	"context"
	"fmt"
	"strings"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"

	"github.com/imamik/infrabuilder/internal/operation"
	"github.com/imamik/infrabuilder/internal/platform/ecr"
	"github.com/imamik/infrabuilder/internal/platform/s3"
	"github.com/imamik/infrabuilder/internal/provisioning"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.now = c.now.Add(d)
	return nil
}

func stackID(name string) string {
	return "arn:aws:cloudformation:eu-west-1:123456789012:stack/" + name + "/1"
}

// fakeCloudFormation answers describe-by-name from stacks and describe-by-ID
// from the scripted statuses, repeating the last one.
type fakeCloudFormation struct {
	stacks   map[string]*types.Stack
	statuses []string
	outputs  []types.Output
	events   []types.StackEvent
	pages    [][]types.StackResourceSummary
	// eventPages, when set, replaces events with a paged listing. Reading past
	// the last page fails.
	eventPages  [][]types.StackEvent
	eventTokens []string

	polled    int
	calls     []string
	createIn  []*cloudformation.CreateStackInput
	updateIn  []*cloudformation.UpdateStackInput
	deleteIn  []*cloudformation.DeleteStackInput
	updateErr error
	createErr error
	deleteErr error
}

func notExist(name string) error {
	return &smithy.GenericAPIError{Code: "ValidationError", Message: fmt.Sprintf("Stack with id %s does not exist", name)}
}

func (f *fakeCloudFormation) DescribeStacks(_ context.Context, in *cloudformation.DescribeStacksInput, _ ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error) {
	name := awsv2.ToString(in.StackName)
	if !strings.HasPrefix(name, "arn:") {
		s, ok := f.stacks[name]
		if !ok {
			return nil, notExist(name)
		}
		return &cloudformation.DescribeStacksOutput{Stacks: []types.Stack{*s}}, nil
	}

	i := min(f.polled, len(f.statuses)-1)
	f.polled++
	stackName := strings.Split(name, "/")[1]
	return &cloudformation.DescribeStacksOutput{Stacks: []types.Stack{{
		StackId:     awsv2.String(name),
		StackName:   awsv2.String(stackName),
		StackStatus: types.StackStatus(f.statuses[i]),
		Outputs:     f.outputs,
	}}}, nil
}

func (f *fakeCloudFormation) DescribeStackEvents(_ context.Context, in *cloudformation.DescribeStackEventsInput, _ ...func(*cloudformation.Options)) (*cloudformation.DescribeStackEventsOutput, error) {
	if f.eventPages == nil {
		return &cloudformation.DescribeStackEventsOutput{StackEvents: f.events}, nil
	}

	token := awsv2.ToString(in.NextToken)
	f.eventTokens = append(f.eventTokens, token)
	page := 0
	if token != "" {
		_, _ = fmt.Sscanf(token, "events-%d", &page)
	}
	if page >= len(f.eventPages) {
		return nil, fmt.Errorf("no event page %d", page)
	}
	// Every page carries a next token, so only the since cutoff stops a reader.
	return &cloudformation.DescribeStackEventsOutput{
		StackEvents: f.eventPages[page],
		NextToken:   awsv2.String(fmt.Sprintf("events-%d", page+1)),
	}, nil
}

func (f *fakeCloudFormation) ListStackResources(_ context.Context, in *cloudformation.ListStackResourcesInput, _ ...func(*cloudformation.Options)) (*cloudformation.ListStackResourcesOutput, error) {
	f.calls = append(f.calls, "list-resources")
	page := 0
	if in.NextToken != nil {
		_, _ = fmt.Sscanf(*in.NextToken, "page-%d", &page)
	}
	out := &cloudformation.ListStackResourcesOutput{}
	if page < len(f.pages) {
		out.StackResourceSummaries = f.pages[page]
	}
	if page+1 < len(f.pages) {
		out.NextToken = awsv2.String(fmt.Sprintf("page-%d", page+1))
	}
	return out, nil
}

func (f *fakeCloudFormation) CreateStack(_ context.Context, in *cloudformation.CreateStackInput, _ ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error) {
	f.calls = append(f.calls, "create")
	f.createIn = append(f.createIn, in)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &cloudformation.CreateStackOutput{StackId: awsv2.String(stackID(awsv2.ToString(in.StackName)))}, nil
}

func (f *fakeCloudFormation) UpdateStack(_ context.Context, in *cloudformation.UpdateStackInput, _ ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error) {
	f.calls = append(f.calls, "update")
	f.updateIn = append(f.updateIn, in)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &cloudformation.UpdateStackOutput{StackId: awsv2.String(stackID(awsv2.ToString(in.StackName)))}, nil
}

func (f *fakeCloudFormation) DeleteStack(_ context.Context, in *cloudformation.DeleteStackInput, _ ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error) {
	f.calls = append(f.calls, "delete")
	f.deleteIn = append(f.deleteIn, in)
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	return &cloudformation.DeleteStackOutput{}, nil
}

func existing(name string, status types.StackStatus, outputs map[string]string) *types.Stack {
	s := &types.Stack{
		StackId:     awsv2.String(stackID(name)),
		StackName:   awsv2.String(name),
		StackStatus: status,
	}
	for k, v := range outputs {
		s.Outputs = append(s.Outputs, types.Output{OutputKey: awsv2.String(k), OutputValue: awsv2.String(v)})
	}
	return s
}

type fakeObjects struct {
	versions map[string][]s3.ObjectVersion
	failKeys map[string]bool
	deleted  map[string]int
}

func (f *fakeObjects) ListObjectVersions(_ context.Context, bucket string) ([]s3.ObjectVersion, error) {
	return f.versions[bucket], nil
}

func (f *fakeObjects) DeleteObjectVersions(_ context.Context, bucket string, versions []s3.ObjectVersion) ([]s3.DeleteError, error) {
	if f.deleted == nil {
		f.deleted = map[string]int{}
	}
	var failures []s3.DeleteError
	for _, v := range versions {
		if f.failKeys[v.Key] {
			failures = append(failures, s3.DeleteError{Key: v.Key, VersionID: v.VersionID, Code: "AccessDenied", Message: "Access Denied"})
			continue
		}
		f.deleted[bucket]++
	}
	return failures, nil
}

type fakeImages struct {
	digests     map[string][]string
	failDigests map[string]bool
	deleted     map[string][]string
}

func (f *fakeImages) ListImageDigests(_ context.Context, repo string) ([]string, error) {
	return f.digests[repo], nil
}

func (f *fakeImages) DeleteImages(_ context.Context, repo string, digests []string) ([]ecr.ImageFailure, error) {
	if f.deleted == nil {
		f.deleted = map[string][]string{}
	}
	var failures []ecr.ImageFailure
	for _, d := range digests {
		if f.failDigests[d] {
			failures = append(failures, ecr.ImageFailure{Digest: d, Code: "ImageNotFound", Reason: "gone"})
			continue
		}
		f.deleted[repo] = append(f.deleted[repo], d)
	}
	return failures, nil
}

func resource(typ, physicalID string) types.StackResourceSummary {
	return types.StackResourceSummary{
		ResourceType:       awsv2.String(typ),
		PhysicalResourceId: awsv2.String(physicalID),
		LogicalResourceId:  awsv2.String("Logical" + physicalID),
	}
}

func newTestReconciler(api API, obs provisioning.Observer, opts ...Option) (*Reconciler, *fakeClock) {
	clock := &fakeClock{now: t0}
	waiter := operation.NewWaiter(obs, 5*time.Second, operation.WithClock(clock.Now, clock.Sleep))
	tokens := 0
	opts = append([]Option{WithTokenFunc(func() string {
		tokens++
		return fmt.Sprintf("token-%d", tokens)
	})}, opts...)
	return NewReconciler(api, waiter, obs, time.Minute, opts...), clock
}
