package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/infrabuilder/cmd/infrabuilder/handlers"
)

// Init returns the command for interactively creating a task file.
//
// Flags:
//
//	--output, -o: Path to output file (default "infrabuilder.yaml")
//	--force, -f: Overwrite an existing file
func Init() *cobra.Command {
	var (
		outputPath string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively create a task file",
		Long: `Interactively create a task file.

The wizard asks for the region, a stack and its template, and optionally a
batch job and a state machine. It writes deploy and destroy tasks for the
stack and, when a job or workflow was added, a release sequence.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), outputPath, force)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "infrabuilder.yaml", "Output file path")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}
