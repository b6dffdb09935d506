package aws

import (
	"context"
	"errors"
	"fmt"
	"sort"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// SSMClient defines the parameter store operations used by Parameters.
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
	DeleteParameter(ctx context.Context, params *ssm.DeleteParameterInput, optFns ...func(*ssm.Options)) (*ssm.DeleteParameterOutput, error)
}

// Parameters reads and writes secure string parameters.
type Parameters struct {
	api SSMClient
}

// NewParameters creates a parameter store helper.
func NewParameters(api SSMClient) *Parameters {
	return &Parameters{api: api}
}

// SecureString describes a parameter to write.
type SecureString struct {
	Name  string
	Value string
	// Overwrite replaces an existing value. Without it an existing parameter is left as is.
	Overwrite bool
	// KeyID is the KMS key used for encryption; empty uses the account default.
	KeyID string
	Tags  map[string]string
}

// GetSecureString returns the decrypted value of a parameter.
func (p *Parameters) GetSecureString(ctx context.Context, name string) (string, error) {
	out, err := p.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           awsv2.String(name),
		WithDecryption: awsv2.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get parameter %s: %w", name, err)
	}
	if out.Parameter == nil {
		return "", fmt.Errorf("parameter %s has no value", name)
	}
	return awsv2.ToString(out.Parameter.Value), nil
}

// PutSecureString stores a parameter as a secure string.
// An already existing parameter is not an error: the parameter exists afterwards,
// which is what the caller asked for.
func (p *Parameters) PutSecureString(ctx context.Context, param SecureString) error {
	input := &ssm.PutParameterInput{
		Name:      awsv2.String(param.Name),
		Value:     awsv2.String(param.Value),
		Type:      ssmtypes.ParameterTypeSecureString,
		Overwrite: awsv2.Bool(param.Overwrite),
	}
	if param.KeyID != "" {
		input.KeyId = awsv2.String(param.KeyID)
	}
	// Tags cannot be combined with Overwrite.
	if !param.Overwrite {
		input.Tags = parameterTags(param.Tags)
	}

	_, err := p.api.PutParameter(ctx, input)
	if err != nil {
		var exists *ssmtypes.ParameterAlreadyExists
		if errors.As(err, &exists) {
			return nil
		}
		return fmt.Errorf("failed to put parameter %s: %w", param.Name, err)
	}
	return nil
}

// DeleteParameter removes a parameter.
func (p *Parameters) DeleteParameter(ctx context.Context, name string) error {
	if _, err := p.api.DeleteParameter(ctx, &ssm.DeleteParameterInput{Name: awsv2.String(name)}); err != nil {
		return fmt.Errorf("failed to delete parameter %s: %w", name, err)
	}
	return nil
}

func parameterTags(tags map[string]string) []ssmtypes.Tag {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]ssmtypes.Tag, 0, len(keys))
	for _, k := range keys {
		out = append(out, ssmtypes.Tag{Key: awsv2.String(k), Value: awsv2.String(tags[k])})
	}
	return out
}
