package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/imamik/infrabuilder/internal/config"
	"github.com/imamik/infrabuilder/internal/rollout"
)

// FunctionDeploy publishes a new image version and moves the alias to it.
func FunctionDeploy(ctx context.Context, opts Options, update rollout.FunctionUpdate, timeout time.Duration) error {
	return withEnv(ctx, opts, false, func(env *Env) error {
		version, err := newFunctionService(env).UpdateFunctionCode(ctx, update, config.Or(timeout, env.Timeouts.Rollout))
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s version %s\n", update.Function, version)
		return nil
	})
}

// FunctionPrune deletes all but the keep newest versions of a function.
func FunctionPrune(ctx context.Context, opts Options, function string, keep int) error {
	return withEnv(ctx, opts, false, func(env *Env) error {
		deleted, err := newFunctionService(env).DeleteOldVersions(ctx, function, keep)
		for _, v := range deleted {
			fmt.Fprintf(stdout, "deleted %s:%s\n", function, v)
		}
		return err
	})
}
