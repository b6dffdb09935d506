package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/infrabuilder/cmd/infrabuilder/handlers"
	awsplatform "github.com/imamik/infrabuilder/internal/platform/aws"
)

// Param returns the param command group.
func Param(opts *handlers.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "param",
		Short: "Read, write and delete secure string parameters",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get NAME",
		Short: "Print the decrypted value of a parameter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.ParamGet(cmd.Context(), *opts, args[0])
		},
	})
	cmd.AddCommand(paramPut(opts))
	cmd.AddCommand(&cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a parameter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.ParamDelete(cmd.Context(), *opts, args[0])
		},
	})

	return cmd
}

func paramPut(opts *handlers.Options) *cobra.Command {
	var param awsplatform.SecureString

	cmd := &cobra.Command{
		Use:   "put NAME VALUE",
		Short: "Write a secure string parameter",
		Long: `Put writes an encrypted parameter. Without --overwrite an existing parameter
is left unchanged and the command succeeds.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			param.Name = args[0]
			param.Value = args[1]
			return handlers.ParamPut(cmd.Context(), *opts, param)
		},
	}

	cmd.Flags().BoolVar(&param.Overwrite, "overwrite", false, "Replace an existing value")
	cmd.Flags().StringVar(&param.KeyID, "key-id", "", "KMS key used for encryption (default the account key)")
	cmd.Flags().StringToStringVar(&param.Tags, "tag", nil, "Tag as KEY=VALUE, only applied to new parameters")

	return cmd
}
