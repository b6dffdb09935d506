package aws

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codeartifact"
	catypes "github.com/aws/aws-sdk-go-v2/service/codeartifact/types"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	cogtypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	ststypes "github.com/aws/aws-sdk-go-v2/service/sts/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_StaticCredentials(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(context.Background(), SessionConfig{
		Region:    "eu-west-1",
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.Region)

	creds, err := cfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIDEXAMPLE", creds.AccessKeyID)
}

func TestNewClients(t *testing.T) {
	t.Parallel()

	c := NewClients(awsv2.Config{Region: "eu-west-1"})
	assert.NotNil(t, c.CloudFormation)
	assert.NotNil(t, c.ECRPublic)
	assert.NotNil(t, c.Route53)
	assert.Equal(t, "eu-west-1", c.Config.Region)
}

func TestErrorCode(t *testing.T) {
	t.Parallel()

	apiErr := &smithy.GenericAPIError{Code: "ValidationError", Message: "Stack with id x does not exist"}
	wrapped := fmt.Errorf("describe: %w", apiErr)

	assert.Equal(t, "ValidationError", ErrorCode(wrapped))
	assert.Equal(t, "Stack with id x does not exist", ErrorMessage(wrapped))
	assert.True(t, IsErrorCode(wrapped, "Throttling", "ValidationError"))
	assert.False(t, IsErrorCode(wrapped, "Throttling"))
	assert.Empty(t, ErrorCode(errors.New("plain")))
	assert.False(t, IsErrorCode(nil, "ValidationError"))
}

type fakeSSM struct {
	values  map[string]string
	puts    []*ssm.PutParameterInput
	putErr  error
	deleted []string
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	if !awsv2.ToBool(in.WithDecryption) {
		return nil, errors.New("expected decryption")
	}
	v, ok := f.values[awsv2.ToString(in.Name)]
	if !ok {
		return nil, &ssmtypes.ParameterNotFound{}
	}
	return &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Value: awsv2.String(v)}}, nil
}

func (f *fakeSSM) PutParameter(_ context.Context, in *ssm.PutParameterInput, _ ...func(*ssm.Options)) (*ssm.PutParameterOutput, error) {
	f.puts = append(f.puts, in)
	if f.putErr != nil {
		return nil, f.putErr
	}
	return &ssm.PutParameterOutput{}, nil
}

func (f *fakeSSM) DeleteParameter(_ context.Context, in *ssm.DeleteParameterInput, _ ...func(*ssm.Options)) (*ssm.DeleteParameterOutput, error) {
	f.deleted = append(f.deleted, awsv2.ToString(in.Name))
	return &ssm.DeleteParameterOutput{}, nil
}

func TestParameters_GetSecureString(t *testing.T) {
	t.Parallel()

	p := NewParameters(&fakeSSM{values: map[string]string{"/app/db": "s3cret"}})

	v, err := p.GetSecureString(context.Background(), "/app/db")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)

	_, err = p.GetSecureString(context.Background(), "/app/missing")
	require.Error(t, err)
	var nf *ssmtypes.ParameterNotFound
	assert.ErrorAs(t, err, &nf)
}

func TestParameters_PutSecureString(t *testing.T) {
	t.Parallel()

	api := &fakeSSM{}
	p := NewParameters(api)

	err := p.PutSecureString(context.Background(), SecureString{
		Name:  "/app/db",
		Value: "s3cret",
		KeyID: "alias/app",
		Tags:  map[string]string{"team": "infra", "env": "prod"},
	})
	require.NoError(t, err)
	require.Len(t, api.puts, 1)

	in := api.puts[0]
	assert.Equal(t, ssmtypes.ParameterTypeSecureString, in.Type)
	assert.False(t, awsv2.ToBool(in.Overwrite))
	assert.Equal(t, "alias/app", awsv2.ToString(in.KeyId))
	require.Len(t, in.Tags, 2)
	assert.Equal(t, "env", awsv2.ToString(in.Tags[0].Key))
	assert.Equal(t, "team", awsv2.ToString(in.Tags[1].Key))
}

func TestParameters_PutSecureString_OverwriteDropsTags(t *testing.T) {
	t.Parallel()

	api := &fakeSSM{}
	err := NewParameters(api).PutSecureString(context.Background(), SecureString{
		Name: "/app/db", Value: "v2", Overwrite: true, Tags: map[string]string{"team": "infra"},
	})
	require.NoError(t, err)
	assert.True(t, awsv2.ToBool(api.puts[0].Overwrite))
	assert.Empty(t, api.puts[0].Tags)
	assert.Nil(t, api.puts[0].KeyId)
}

func TestParameters_PutSecureString_AlreadyExists(t *testing.T) {
	t.Parallel()

	api := &fakeSSM{putErr: fmt.Errorf("put: %w", &ssmtypes.ParameterAlreadyExists{})}
	require.NoError(t, NewParameters(api).PutSecureString(context.Background(), SecureString{Name: "/app/db", Value: "v"}))

	api = &fakeSSM{putErr: errors.New("access denied")}
	err := NewParameters(api).PutSecureString(context.Background(), SecureString{Name: "/app/db", Value: "v"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to put parameter /app/db")
}

func TestParameters_DeleteParameter(t *testing.T) {
	t.Parallel()

	api := &fakeSSM{}
	require.NoError(t, NewParameters(api).DeleteParameter(context.Background(), "/app/db"))
	assert.Equal(t, []string{"/app/db"}, api.deleted)
}

type fakeSTS struct {
	out *sts.GetSessionTokenOutput
	err error
}

func (f *fakeSTS) GetSessionToken(context.Context, *sts.GetSessionTokenInput, ...func(*sts.Options)) (*sts.GetSessionTokenOutput, error) {
	return f.out, f.err
}

func TestSessionToken(t *testing.T) {
	t.Parallel()

	exp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	creds, err := SessionToken(context.Background(), &fakeSTS{out: &sts.GetSessionTokenOutput{
		Credentials: &ststypes.Credentials{
			AccessKeyId:     awsv2.String("ASIA"),
			SecretAccessKey: awsv2.String("secret"),
			SessionToken:    awsv2.String("token"),
			Expiration:      awsv2.Time(exp),
		},
	}})
	require.NoError(t, err)
	assert.Equal(t, &TemporaryCredentials{AccessKeyID: "ASIA", SecretAccessKey: "secret", SessionToken: "token", Expiration: exp}, creds)

	_, err = SessionToken(context.Background(), &fakeSTS{out: &sts.GetSessionTokenOutput{}})
	assert.Error(t, err)
	_, err = SessionToken(context.Background(), &fakeSTS{err: errors.New("expired")})
	assert.ErrorContains(t, err, "failed to get session token")
}

type fakeRoute53 struct {
	pages   [][]r53types.HostedZone
	markers []string
}

func (f *fakeRoute53) ListHostedZones(_ context.Context, in *route53.ListHostedZonesInput, _ ...func(*route53.Options)) (*route53.ListHostedZonesOutput, error) {
	marker := awsv2.ToString(in.Marker)
	f.markers = append(f.markers, marker)
	page := 0
	if marker != "" {
		_, _ = fmt.Sscanf(marker, "page-%d", &page)
	}
	out := &route53.ListHostedZonesOutput{HostedZones: f.pages[page]}
	if page+1 < len(f.pages) {
		out.NextMarker = awsv2.String(fmt.Sprintf("page-%d", page+1))
	}
	return out, nil
}

func zone(name string) r53types.HostedZone {
	return r53types.HostedZone{Id: awsv2.String("/hostedzone/" + name), Name: awsv2.String(name + ".")}
}

func TestHostedZones_AllPages(t *testing.T) {
	t.Parallel()

	api := &fakeRoute53{pages: [][]r53types.HostedZone{
		{zone("a.example"), zone("b.example")},
		{zone("c.example")},
	}}

	zones, err := HostedZones(context.Background(), api)
	require.NoError(t, err)
	require.Len(t, zones, 3)
	assert.Equal(t, "c.example.", awsv2.ToString(zones[2].Name))
	assert.Equal(t, []string{"", "page-1"}, api.markers)
}

type fakeCognito struct {
	out *cognitoidentityprovider.DescribeUserPoolDomainOutput
}

func (f *fakeCognito) DescribeUserPoolDomain(context.Context, *cognitoidentityprovider.DescribeUserPoolDomainInput, ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.DescribeUserPoolDomainOutput, error) {
	return f.out, nil
}

func TestUserPoolDomain(t *testing.T) {
	t.Parallel()

	found := &fakeCognito{out: &cognitoidentityprovider.DescribeUserPoolDomainOutput{
		DomainDescription: &cogtypes.DomainDescriptionType{
			Domain:                 awsv2.String("auth.example.com"),
			CloudFrontDistribution: awsv2.String("d111.cloudfront.net"),
		},
	}}
	d, err := UserPoolDomain(context.Background(), found, "auth.example.com")
	require.NoError(t, err)
	assert.Equal(t, "d111.cloudfront.net", awsv2.ToString(d.CloudFrontDistribution))

	// An unknown domain is answered with an empty description, not an error.
	empty := &fakeCognito{out: &cognitoidentityprovider.DescribeUserPoolDomainOutput{DomainDescription: &cogtypes.DomainDescriptionType{}}}
	_, err = UserPoolDomain(context.Background(), empty, "nope")
	assert.ErrorContains(t, err, "user pool domain nope not found")
}

type fakeCodeArtifact struct {
	tokenIn    *codeartifact.GetAuthorizationTokenInput
	endpointIn *codeartifact.GetRepositoryEndpointInput
}

func (f *fakeCodeArtifact) GetAuthorizationToken(_ context.Context, in *codeartifact.GetAuthorizationTokenInput, _ ...func(*codeartifact.Options)) (*codeartifact.GetAuthorizationTokenOutput, error) {
	f.tokenIn = in
	return &codeartifact.GetAuthorizationTokenOutput{AuthorizationToken: awsv2.String("tok")}, nil
}

func (f *fakeCodeArtifact) GetRepositoryEndpoint(_ context.Context, in *codeartifact.GetRepositoryEndpointInput, _ ...func(*codeartifact.Options)) (*codeartifact.GetRepositoryEndpointOutput, error) {
	f.endpointIn = in
	return &codeartifact.GetRepositoryEndpointOutput{RepositoryEndpoint: awsv2.String("https://d-123.d.codeartifact.eu-west-1.amazonaws.com/pypi/repo/")}, nil
}

func TestPyPIAccess(t *testing.T) {
	t.Parallel()

	api := &fakeCodeArtifact{}
	access, err := PyPIAccess(context.Background(), api, "d", "123456789012", "repo")
	require.NoError(t, err)
	assert.Equal(t, "tok", access.AuthorizationToken)
	assert.Contains(t, access.RepositoryEndpoint, "/pypi/repo/")
	assert.Equal(t, int64(43200), awsv2.ToInt64(api.tokenIn.DurationSeconds))
	assert.Equal(t, catypes.PackageFormatPypi, api.endpointIn.Format)
}
