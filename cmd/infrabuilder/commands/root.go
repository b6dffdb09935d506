// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/infrabuilder/cmd/infrabuilder/handlers"
)

// Root returns the root command for the infrabuilder CLI.
//
// Global flags are bound once here and shared by every subcommand.
func Root() *cobra.Command {
	opts := &handlers.Options{}

	cmd := &cobra.Command{
		Use:           "infrabuilder",
		Short:         "Run infrastructure tasks against AWS and wait for them to finish",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "Path to the task file (default infrabuilder.yaml)")
	flags.StringVar(&opts.Region, "region", "", "AWS region, overrides the task file")
	flags.StringVar(&opts.Profile, "profile", "", "AWS shared config profile, overrides the task file")
	flags.StringVar(&opts.LogFormat, "log-format", "auto", "Log format: auto, console or json")
	flags.StringVar(&opts.LogLevel, "log-level", "info", "Log level: debug, info, warn or error")
	flags.StringVar(&opts.MetricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file on exit")
	flags.StringVar(&opts.S3Endpoint, "s3-endpoint", "", "Custom S3 endpoint used when purging buckets")
	flags.BoolVar(&opts.NoWait, "no-wait", false, "Return right after submitting jobs and workflows")

	// Task commands
	cmd.AddCommand(Init())
	cmd.AddCommand(Run(opts))
	cmd.AddCommand(Tasks(opts))

	// Direct operations
	cmd.AddCommand(Stack(opts))
	cmd.AddCommand(Job(opts))
	cmd.AddCommand(Workflow(opts))
	cmd.AddCommand(Function(opts))
	cmd.AddCommand(Param(opts))

	// Lookups
	cmd.AddCommand(Registry(opts))
	cmd.AddCommand(SessionToken(opts))
	cmd.AddCommand(HostedZones(opts))
	cmd.AddCommand(UserPoolDomain(opts))
	cmd.AddCommand(CodeArtifactToken(opts))

	cmd.AddCommand(Version())

	return cmd
}
