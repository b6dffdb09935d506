package wizard

import (
	"strings"

	"github.com/imamik/infrabuilder/internal/config"
)

// Task names written by BuildConfig.
const (
	TaskDeploy   = "deploy"
	TaskDestroy  = "destroy"
	TaskJob      = "job"
	TaskWorkflow = "workflow"
	TaskRelease  = "release"
)

// BuildConfig converts wizard answers into a task file.
//
// It always defines deploy and destroy tasks for the stack. A job or workflow
// answer adds the matching task and a release sequence that deploys first.
func BuildConfig(r *WizardResult) *config.Config {
	cfg := &config.Config{
		Region:  r.Region,
		Profile: strings.TrimSpace(r.Profile),
	}

	cfg.Tasks = append(cfg.Tasks,
		config.Task{
			Name: TaskDeploy,
			Stack: &config.StackTask{
				Name:         r.StackName,
				Template:     strings.TrimSpace(r.Template),
				Capabilities: r.Capabilities,
			},
		},
		config.Task{
			Name: TaskDestroy,
			DeleteStack: &config.DeleteTask{
				Name:         r.StackName,
				PurgeContent: r.PurgeContent,
			},
		},
	)

	release := []string{TaskDeploy}
	if r.AddJob {
		cfg.Tasks = append(cfg.Tasks, config.Task{
			Name: TaskJob,
			Job: &config.JobTask{
				Name:       r.StackName + "-job",
				Queue:      strings.TrimSpace(r.JobQueue),
				Definition: strings.TrimSpace(r.JobDefinition),
			},
		})
		release = append(release, TaskJob)
	}
	if r.AddWorkflow {
		cfg.Tasks = append(cfg.Tasks, config.Task{
			Name:     TaskWorkflow,
			Workflow: &config.WorkflowTask{StateMachineARN: strings.TrimSpace(r.StateMachineARN)},
		})
		release = append(release, TaskWorkflow)
	}
	if len(release) > 1 {
		cfg.Tasks = append(cfg.Tasks, config.Task{
			Name:        TaskRelease,
			Description: "Deploy the stack, then run " + strings.Join(release[1:], " and "),
			Sequence:    release,
		})
	}

	return cfg
}
