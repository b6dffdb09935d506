package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/infrabuilder/internal/config"
	"github.com/imamik/infrabuilder/internal/config/wizard"
)

// Factory function variables for init - can be replaced in tests.
var (
	wizardFileExists  = wizard.FileExists
	wizardRunWizard   = wizard.RunWizard
	wizardWriteConfig = wizard.WriteConfig
)

// Init runs the interactive wizard and writes a starter task file.
func Init(ctx context.Context, outputPath string, force bool) error {
	if outputPath == "" {
		outputPath = config.DefaultFile
	}
	if wizardFileExists(outputPath) && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite it", outputPath)
	}

	printWelcome()

	result, err := wizardRunWizard(ctx)
	if err != nil {
		return fmt.Errorf("wizard canceled: %w", err)
	}

	cfg := wizard.BuildConfig(result)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("generated task file is invalid: %w", err)
	}
	if err := wizardWriteConfig(cfg, outputPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	printInitSuccess(outputPath, cfg)
	return nil
}

func printWelcome() {
	fmt.Fprintln(stdout, "infrabuilder - AWS task runner")
	fmt.Fprintln(stdout, "This wizard creates a task file for one stack.")
	fmt.Fprintln(stdout)
}

func printInitSuccess(outputPath string, cfg *config.Config) {
	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "Task file saved: %s\n", outputPath)
	fmt.Fprintf(stdout, "  Region: %s\n", cfg.Region)
	for _, t := range cfg.Tasks {
		fmt.Fprintf(stdout, "  Task:   %s\n", t.Name)
	}
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Next Steps")
	fmt.Fprintf(stdout, "  infrabuilder run -c %s deploy\n", outputPath)
}
