package wizard

import (
	"context"
	"regexp"
	"strings"

	"github.com/charmbracelet/huh"
)

// stackNameRegex matches CloudFormation stack names.
var stackNameRegex = regexp.MustCompile(`^[a-zA-Z][-a-zA-Z0-9]{0,127}$`)

// runAccountGroup prompts for region and profile.
func runAccountGroup(ctx context.Context, result *WizardResult) error {
	result.Region = Regions[0].Value

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Region").
				Description("AWS region the tasks run in").
				Options(RegionsToOptions()...).
				Value(&result.Region),
			huh.NewInput().
				Title("Profile (Optional)").
				Description("Shared config profile. Leave empty to use the default credential chain.").
				Value(&result.Profile),
		).Title("Account"),
	).RunWithContext(ctx)
}

// runStackGroup prompts for the stack to deploy.
func runStackGroup(ctx context.Context, result *WizardResult) error {
	result.Template = "template.yaml"

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Stack Name").
				Placeholder("my-app").
				Value(&result.StackName).
				Validate(validateStackName),
			huh.NewInput().
				Title("Template").
				Description("Path to the template, relative to the task file").
				Value(&result.Template).
				Validate(validateTemplate),
			huh.NewMultiSelect[string]().
				Title("Capabilities").
				Description("Acknowledge what the template creates").
				Options(CapabilityOptions...).
				Value(&result.Capabilities),
			huh.NewConfirm().
				Title("Empty Buckets and Repositories on Delete?").
				Description("The destroy task deletes all objects and images before deleting the stack").
				Value(&result.PurgeContent),
		).Title("Stack"),
	).RunWithContext(ctx)
}

// runJobGroup prompts for an optional batch job.
func runJobGroup(ctx context.Context, result *WizardResult) error {
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Add a Batch Job?").
				Value(&result.AddJob),
		).Title("Batch"),
	).RunWithContext(ctx)
	if err != nil || !result.AddJob {
		return err
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Job Queue").
				Value(&result.JobQueue).
				Validate(validateRequired),
			huh.NewInput().
				Title("Job Definition").
				Description("Name, name:revision or ARN").
				Value(&result.JobDefinition).
				Validate(validateRequired),
		).Title("Batch Job"),
	).RunWithContext(ctx)
}

// runWorkflowGroup prompts for an optional state machine.
func runWorkflowGroup(ctx context.Context, result *WizardResult) error {
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Add a Step Functions Workflow?").
				Value(&result.AddWorkflow),
		).Title("Workflow"),
	).RunWithContext(ctx)
	if err != nil || !result.AddWorkflow {
		return err
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("State Machine ARN").
				Value(&result.StateMachineARN).
				Validate(validateARN),
		).Title("Workflow"),
	).RunWithContext(ctx)
}

func validateStackName(s string) error {
	if s == "" {
		return errStackNameRequired
	}
	if !stackNameRegex.MatchString(s) {
		return errStackNameInvalid
	}
	return nil
}

func validateTemplate(s string) error {
	if strings.TrimSpace(s) == "" {
		return errTemplateRequired
	}
	return nil
}

func validateRequired(s string) error {
	if strings.TrimSpace(s) == "" {
		return errValueRequired
	}
	return nil
}

func validateARN(s string) error {
	if !strings.HasPrefix(strings.TrimSpace(s), "arn:") {
		return errARNInvalid
	}
	return nil
}
