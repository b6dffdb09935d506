package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/imamik/infrabuilder/internal/config"
	"github.com/imamik/infrabuilder/internal/execution"
)

// JobSubmit submits a batch job and, unless opts.NoWait is set, waits for it.
func JobSubmit(ctx context.Context, opts Options, spec execution.JobSpec, timeout time.Duration) error {
	return withEnv(ctx, opts, false, func(env *Env) error {
		exec, err := newJobService(env).Submit(ctx, spec, config.Or(timeout, env.Timeouts.Job), !opts.NoWait)
		if err != nil {
			return err
		}
		printExecution(exec)
		return exec.Err()
	})
}

// WorkflowStart starts a state machine execution and, unless opts.NoWait is set, waits for it.
func WorkflowStart(ctx context.Context, opts Options, spec execution.WorkflowSpec, timeout time.Duration) error {
	return withEnv(ctx, opts, false, func(env *Env) error {
		exec, err := newWorkflowService(env).Start(ctx, spec, config.Or(timeout, env.Timeouts.Workflow), !opts.NoWait)
		if err != nil {
			return err
		}
		printExecution(exec)
		return exec.Err()
	})
}

func printExecution(e *execution.Execution) {
	fmt.Fprintf(stdout, "%s %s\n", e.ID, e.Status)
	if e.ConsoleURL != "" {
		fmt.Fprintf(stdout, "  %s\n", e.ConsoleURL)
	}
}
