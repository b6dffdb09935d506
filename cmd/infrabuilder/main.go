// Package main is the entry point for the infrabuilder CLI.
//
// infrabuilder runs named infrastructure tasks against AWS: it reconciles
// CloudFormation stacks, runs Batch jobs and Step Functions executions, rolls
// out Lambda images, and waits for each operation to finish while relaying
// the provider's events.
//
// For detailed usage information, run:
//
//	infrabuilder --help
package main

import (
	"fmt"
	"os"

	"github.com/imamik/infrabuilder/cmd/infrabuilder/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
