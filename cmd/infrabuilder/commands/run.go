package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/infrabuilder/cmd/infrabuilder/handlers"
)

// Run returns the run command.
func Run(opts *handlers.Options) *cobra.Command {
	var parallel bool

	cmd := &cobra.Command{
		Use:   "run TASK...",
		Short: "Run tasks from the task file",
		Long: `Run executes the named tasks from the task file in the given order and
stops at the first failure. Task names are matched ignoring case. If any name
is unknown, nothing runs and the valid names are listed.

With --parallel all named tasks start at once. Tasks that operate on the same
stack are rejected.

Example:
  infrabuilder run deploy-network migrate
  infrabuilder run --parallel deploy-api deploy-worker`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Run(cmd.Context(), *opts, args, parallel)
		},
	}

	cmd.Flags().BoolVar(&parallel, "parallel", false, "Run the tasks concurrently")

	return cmd
}

// Tasks returns the tasks command.
func Tasks(opts *handlers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List the tasks of the task file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Tasks(cmd.Context(), *opts)
		},
	}
}
