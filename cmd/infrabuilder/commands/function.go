package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/imamik/infrabuilder/cmd/infrabuilder/handlers"
	"github.com/imamik/infrabuilder/internal/rollout"
)

// Function returns the function command group.
func Function(opts *handlers.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "function",
		Short: "Deploy Lambda images and prune versions",
	}
	cmd.AddCommand(functionDeploy(opts))
	cmd.AddCommand(functionPrune(opts))
	return cmd
}

func functionDeploy(opts *handlers.Options) *cobra.Command {
	var (
		update  rollout.FunctionUpdate
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "deploy FUNCTION",
		Short: "Publish a new image version and shift an alias to it",
		Long: `Deploy updates the function code to the given image and publishes a version.
With --alias the alias is moved to that version, created if missing, and the
command waits until no traffic is routed to other versions.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update.Function = args[0]
			return handlers.FunctionDeploy(cmd.Context(), *opts, update, timeout)
		},
	}

	cmd.Flags().StringVar(&update.ImageURI, "image", "", "Image URI (required)")
	cmd.Flags().StringVar(&update.Alias, "alias", "", "Alias to move to the new version")
	cmd.Flags().Int32Var(&update.Provision, "provision", 0, "Provisioned concurrency for the alias")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Wait at most this long (default from INFRABUILDER_TIMEOUT_ROLLOUT)")
	_ = cmd.MarkFlagRequired("image")

	return cmd
}

func functionPrune(opts *handlers.Options) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune FUNCTION",
		Short: "Delete all but the newest versions of a function",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.FunctionPrune(cmd.Context(), *opts, args[0], keep)
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 3, "Number of versions to keep")

	return cmd
}
