package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/infrabuilder/cmd/infrabuilder/handlers"
)

// Registry returns the registry command group.
func Registry(opts *handlers.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Issue image registry credentials",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "login",
		Short: "Print docker login credentials for the account registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.RegistryLogin(cmd.Context(), *opts)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "public-login",
		Short: "Print docker login credentials for the public registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.PublicRegistryLogin(cmd.Context(), *opts)
		},
	})

	return cmd
}

// SessionToken returns the session-token command.
func SessionToken(opts *handlers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "session-token",
		Short: "Print temporary credentials as shell exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.SessionToken(cmd.Context(), *opts)
		},
	}
}

// HostedZones returns the hosted-zones command.
func HostedZones(opts *handlers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "hosted-zones",
		Short: "List all hosted zones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.HostedZones(cmd.Context(), *opts)
		},
	}
}

// UserPoolDomain returns the user-pool-domain command.
func UserPoolDomain(opts *handlers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "user-pool-domain DOMAIN",
		Short: "Describe a user pool domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.UserPoolDomain(cmd.Context(), *opts, args[0])
		},
	}
}

// CodeArtifactToken returns the codeartifact-token command.
func CodeArtifactToken(opts *handlers.Options) *cobra.Command {
	var domain, owner, repository string

	cmd := &cobra.Command{
		Use:   "codeartifact-token",
		Short: "Print a PyPI repository endpoint and token as shell exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.CodeArtifactToken(cmd.Context(), *opts, domain, owner, repository)
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "", "Domain name (required)")
	cmd.Flags().StringVar(&owner, "owner", "", "Account ID owning the domain (required)")
	cmd.Flags().StringVar(&repository, "repository", "", "Repository name (required)")
	_ = cmd.MarkFlagRequired("domain")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("repository")

	return cmd
}
