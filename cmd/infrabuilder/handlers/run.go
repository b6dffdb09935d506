package handlers

import (
	"context"

	"github.com/imamik/infrabuilder/internal/task"
)

// Run handles the run command.
//
// It builds the task registry from the task file and runs the named tasks,
// one after another or, with parallel set, all at once.
func Run(ctx context.Context, opts Options, names []string, parallel bool) error {
	return withEnv(ctx, opts, true, func(env *Env) error {
		registry, err := task.Build(env.Config, env.TaskDeps())
		if err != nil {
			return err
		}
		if parallel {
			return registry.RunParallel(ctx, names)
		}
		return registry.Run(ctx, names)
	})
}

// Tasks handles the tasks command by listing all tasks of the task file.
func Tasks(ctx context.Context, opts Options) error {
	return withEnv(ctx, opts, true, func(env *Env) error {
		registry, err := task.Build(env.Config, env.TaskDeps())
		if err != nil {
			return err
		}
		return registry.Describe(stdout)
	})
}
