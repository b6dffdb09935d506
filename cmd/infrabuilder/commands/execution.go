package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/imamik/infrabuilder/cmd/infrabuilder/handlers"
	"github.com/imamik/infrabuilder/internal/execution"
)

// Job returns the job command group.
func Job(opts *handlers.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Run batch jobs",
	}
	cmd.AddCommand(jobSubmit(opts))
	return cmd
}

func jobSubmit(opts *handlers.Options) *cobra.Command {
	var (
		spec    execution.JobSpec
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "submit NAME",
		Short: "Submit a batch job and wait for it",
		Long: `Submit queues a job and waits until it succeeds or fails, printing status
changes on the way. A failed job prints its status reason and a link to the
job in the AWS console. With --no-wait the job ID is printed right after
submission.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec.Name = args[0]
			return handlers.JobSubmit(cmd.Context(), *opts, spec, timeout)
		},
	}

	cmd.Flags().StringVarP(&spec.Queue, "queue", "q", "", "Job queue name or ARN (required)")
	cmd.Flags().StringVarP(&spec.Definition, "definition", "d", "", "Job definition name:revision or ARN (required)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Wait at most this long (default from INFRABUILDER_TIMEOUT_JOB)")
	_ = cmd.MarkFlagRequired("queue")
	_ = cmd.MarkFlagRequired("definition")

	return cmd
}

// Workflow returns the workflow command group.
func Workflow(opts *handlers.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Run state machines",
	}
	cmd.AddCommand(workflowStart(opts))
	return cmd
}

func workflowStart(opts *handlers.Options) *cobra.Command {
	var (
		spec    execution.WorkflowSpec
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "start STATE_MACHINE_ARN",
		Short: "Start a state machine execution and wait for it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec.StateMachineARN = args[0]
			return handlers.WorkflowStart(cmd.Context(), *opts, spec, timeout)
		},
	}

	cmd.Flags().StringVarP(&spec.Input, "input", "i", "", "JSON input of the execution")
	cmd.Flags().StringVar(&spec.Name, "name", "", "Execution name (default random)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Wait at most this long (default from INFRABUILDER_TIMEOUT_WORKFLOW)")

	return cmd
}
