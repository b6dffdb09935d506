package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/imamik/infrabuilder/cmd/infrabuilder/handlers"
)

// Stack returns the stack command group.
func Stack(opts *handlers.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stack",
		Short: "Create, update, delete and describe stacks",
	}

	cmd.AddCommand(stackDeploy(opts))
	cmd.AddCommand(stackDelete(opts))
	cmd.AddCommand(stackDescribe(opts))

	return cmd
}

func stackDeploy(opts *handlers.Options) *cobra.Command {
	args := handlers.StackDeployArgs{}

	cmd := &cobra.Command{
		Use:   "deploy NAME",
		Short: "Create or update a stack and wait until it settles",
		Long: `Deploy creates the stack if it does not exist and updates it otherwise.
A stack left in DELETE_COMPLETE is removed and created again. Stack events are
printed while waiting. An update without changes succeeds immediately.

Example:
  infrabuilder stack deploy network -t network.yaml -p Env=prod --capability CAPABILITY_IAM`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, pos []string) error {
			args.Name = pos[0]
			return handlers.StackDeploy(cmd.Context(), *opts, args)
		},
	}

	cmd.Flags().StringVarP(&args.TemplatePath, "template", "t", "", "Path to the template file (required)")
	cmd.Flags().StringToStringVarP(&args.Parameters, "parameter", "p", nil, "Template parameter as KEY=VALUE (repeatable)")
	cmd.Flags().StringToStringVar(&args.Tags, "tag", nil, "Stack tag as KEY=VALUE (repeatable)")
	cmd.Flags().StringSliceVar(&args.Capabilities, "capability", nil, "Acknowledged capability (repeatable)")
	cmd.Flags().DurationVar(&args.Timeout, "timeout", 0, "Wait at most this long (default from INFRABUILDER_TIMEOUT_STACK)")
	_ = cmd.MarkFlagRequired("template")

	return cmd
}

func stackDelete(opts *handlers.Options) *cobra.Command {
	var (
		purge   bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a stack and wait until it is gone",
		Long: `Delete removes the stack. With --purge all object versions in its buckets
and all images in its repositories are deleted first, so the stack can delete
them.

WARNING: --purge deletes data irreversibly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.StackDelete(cmd.Context(), *opts, args[0], purge, timeout)
		},
	}

	cmd.Flags().BoolVar(&purge, "purge", false, "Empty buckets and repositories before deleting")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Wait at most this long (default from INFRABUILDER_TIMEOUT_STACK)")

	return cmd
}

func stackDescribe(opts *handlers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "describe NAME",
		Short: "Print the status and outputs of a stack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.StackDescribe(cmd.Context(), *opts, args[0])
		},
	}
}
