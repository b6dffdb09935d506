package wizard

import (
	"context"
	"fmt"
)

// WizardResult holds all the answers from the interactive wizard.
type WizardResult struct {
	Region  string
	Profile string

	// Stack
	StackName    string
	Template     string
	Capabilities []string
	PurgeContent bool

	// Batch job (optional)
	AddJob        bool
	JobQueue      string
	JobDefinition string

	// Step Functions workflow (optional)
	AddWorkflow     bool
	StateMachineARN string
}

// RunWizard runs the interactive wizard.
// The context is used for cancellation support (e.g., Ctrl+C).
func RunWizard(ctx context.Context) (*WizardResult, error) {
	result := &WizardResult{}

	if err := runAccountGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("account: %w", err)
	}

	if err := runStackGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("stack: %w", err)
	}

	if err := runJobGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("job: %w", err)
	}

	if err := runWorkflowGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("workflow: %w", err)
	}

	return result, nil
}
