package handlers

import (
	"context"
	"fmt"

	awsplatform "github.com/imamik/infrabuilder/internal/platform/aws"
)

// ParamGet prints the decrypted value of a parameter.
func ParamGet(ctx context.Context, opts Options, name string) error {
	return withEnv(ctx, opts, false, func(env *Env) error {
		value, err := newParameterStore(env).GetSecureString(ctx, name)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, value)
		return nil
	})
}

// ParamPut writes a secure string parameter.
func ParamPut(ctx context.Context, opts Options, param awsplatform.SecureString) error {
	return withEnv(ctx, opts, false, func(env *Env) error {
		return newParameterStore(env).PutSecureString(ctx, param)
	})
}

// ParamDelete deletes a parameter.
func ParamDelete(ctx context.Context, opts Options, name string) error {
	return withEnv(ctx, opts, false, func(env *Env) error {
		return newParameterStore(env).DeleteParameter(ctx, name)
	})
}
