package task

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/imamik/infrabuilder/internal/config"
	"github.com/imamik/infrabuilder/internal/execution"
	awsplatform "github.com/imamik/infrabuilder/internal/platform/aws"
	"github.com/imamik/infrabuilder/internal/provisioning"
	"github.com/imamik/infrabuilder/internal/rollout"
	"github.com/imamik/infrabuilder/internal/stack"
	"github.com/imamik/infrabuilder/internal/util/shell"
)

// StackService reconciles and deletes stacks.
type StackService interface {
	Reconcile(ctx context.Context, plan stack.Plan) (*stack.Stack, error)
	Delete(ctx context.Context, name string, purgeContent bool) error
}

// JobService submits batch jobs.
type JobService interface {
	Submit(ctx context.Context, spec execution.JobSpec, timeout time.Duration, wait bool) (*execution.Execution, error)
}

// WorkflowService starts state machine executions.
type WorkflowService interface {
	Start(ctx context.Context, spec execution.WorkflowSpec, timeout time.Duration, wait bool) (*execution.Execution, error)
}

// FunctionService rolls out Lambda images and prunes versions.
type FunctionService interface {
	UpdateFunctionCode(ctx context.Context, update rollout.FunctionUpdate, timeout time.Duration) (string, error)
	DeleteOldVersions(ctx context.Context, function string, keep int) ([]string, error)
}

// ParameterService writes and deletes parameters.
type ParameterService interface {
	PutSecureString(ctx context.Context, param awsplatform.SecureString) error
	DeleteParameter(ctx context.Context, name string) error
}

// Deps are the services tasks run against. Services a task file does not
// use may be nil.
type Deps struct {
	// Stacks returns a stack service whose operations wait at most timeout.
	Stacks     func(timeout time.Duration) StackService
	Jobs       JobService
	Workflows  WorkflowService
	Functions  FunctionService
	Parameters ParameterService

	Timeouts *config.Timeouts
	Observer provisioning.Observer
	// Output receives live command output. Defaults to stdout.
	Output io.Writer
	// NoWait returns from jobs and workflows right after submission.
	NoWait bool
}

// Build registers every task of cfg.
func Build(cfg *config.Config, deps Deps) (*Registry, error) {
	if deps.Timeouts == nil {
		deps.Timeouts = config.LoadTimeouts()
	}
	if deps.Output == nil {
		deps.Output = os.Stdout
	}

	r := NewRegistry(deps.Observer)
	b := &builder{cfg: cfg, deps: deps, registry: r}
	for i := range cfg.Tasks {
		t, err := b.task(&cfg.Tasks[i])
		if err != nil {
			return nil, err
		}
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

type builder struct {
	cfg      *config.Config
	deps     Deps
	registry *Registry
}

func (b *builder) task(t *config.Task) (Task, error) {
	out := Task{Name: t.Name, Description: t.Description, Stacks: b.stacks(t, nil)}

	var (
		run  Func
		need string
		ok   = true
	)
	switch {
	case t.Stack != nil:
		run, need, ok = b.stack(t.Stack), "stack", b.deps.Stacks != nil
	case t.DeleteStack != nil:
		run, need, ok = b.deleteStack(t.DeleteStack), "stack", b.deps.Stacks != nil
	case t.Job != nil:
		run, need, ok = b.job(t.Job), "job", b.deps.Jobs != nil
	case t.Workflow != nil:
		run, need, ok = b.workflow(t.Workflow), "workflow", b.deps.Workflows != nil
	case t.Function != nil:
		run, need, ok = b.function(t.Function), "function", b.deps.Functions != nil
	case t.PruneVersions != nil:
		run, need, ok = b.prune(t.PruneVersions), "function", b.deps.Functions != nil
	case t.PutParameter != nil:
		run, need, ok = b.putParameter(t.PutParameter), "parameter", b.deps.Parameters != nil
	case t.DeleteParameter != nil:
		run, need, ok = b.deleteParameter(t.DeleteParameter), "parameter", b.deps.Parameters != nil
	case t.Command != nil:
		run = b.command(t.Command)
	case len(t.Sequence) > 0:
		run = b.sequence(t.Sequence)
	default:
		return Task{}, fmt.Errorf("task %s has no action", t.Name)
	}
	if !ok {
		return Task{}, fmt.Errorf("task %s needs a %s service", t.Name, need)
	}

	if out.Description == "" {
		out.Description = describe(t)
	}
	out.Run = run
	return out, nil
}

func (b *builder) stack(s *config.StackTask) Func {
	return func(ctx context.Context) error {
		path := s.TemplatePath(b.cfg.BaseDir)
		// #nosec G304 - template paths come from the task file
		template, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", path, err)
		}

		plan := stack.NewPlan(s.Name, string(template), s.Parameters, s.Tags, s.Capabilities)
		result, err := b.deps.Stacks(config.Or(s.Timeout, b.deps.Timeouts.Stack)).Reconcile(ctx, plan)
		if err != nil {
			return err
		}
		for _, key := range sortedKeys(result.Outputs) {
			b.deps.Observer.Printf("[stack] %s output %s = %s", s.Name, key, result.Outputs[key])
		}
		return nil
	}
}

func (b *builder) deleteStack(s *config.DeleteTask) Func {
	return func(ctx context.Context) error {
		return b.deps.Stacks(config.Or(s.Timeout, b.deps.Timeouts.Stack)).Delete(ctx, s.Name, s.PurgeContent)
	}
}

func (b *builder) job(j *config.JobTask) Func {
	return func(ctx context.Context) error {
		spec := execution.JobSpec{Name: j.Name, Queue: j.Queue, Definition: j.Definition}
		exec, err := b.deps.Jobs.Submit(ctx, spec, config.Or(j.Timeout, b.deps.Timeouts.Job), !(j.NoWait || b.deps.NoWait))
		if err != nil {
			return err
		}
		return exec.Err()
	}
}

func (b *builder) workflow(w *config.WorkflowTask) Func {
	return func(ctx context.Context) error {
		spec := execution.WorkflowSpec{StateMachineARN: w.StateMachineARN, Input: w.Input}
		exec, err := b.deps.Workflows.Start(ctx, spec, config.Or(w.Timeout, b.deps.Timeouts.Workflow), !(w.NoWait || b.deps.NoWait))
		if err != nil {
			return err
		}
		return exec.Err()
	}
}

func (b *builder) function(f *config.FunctionTask) Func {
	return func(ctx context.Context) error {
		update := rollout.FunctionUpdate{Function: f.Name, ImageURI: f.ImageURI, Alias: f.Alias, Provision: f.Provision}
		version, err := b.deps.Functions.UpdateFunctionCode(ctx, update, config.Or(f.Timeout, b.deps.Timeouts.Rollout))
		if err != nil {
			return err
		}
		b.deps.Observer.Printf("[rollout] %s is at version %s", f.Name, version)
		return nil
	}
}

func (b *builder) prune(p *config.PruneTask) Func {
	return func(ctx context.Context) error {
		deleted, err := b.deps.Functions.DeleteOldVersions(ctx, p.Function, p.Keep)
		if err != nil {
			return err
		}
		b.deps.Observer.Printf("[rollout] %s: %d old versions deleted", p.Function, len(deleted))
		return nil
	}
}

func (b *builder) putParameter(p *config.ParameterTask) Func {
	return func(ctx context.Context) error {
		return b.deps.Parameters.PutSecureString(ctx, awsplatform.SecureString{
			Name:      p.Name,
			Value:     p.Value,
			Overwrite: p.Overwrite,
			KeyID:     p.KeyID,
			Tags:      p.Tags,
		})
	}
}

func (b *builder) deleteParameter(p *config.ParameterTask) Func {
	return func(ctx context.Context) error {
		return b.deps.Parameters.DeleteParameter(ctx, p.Name)
	}
}

func (b *builder) command(c *config.CommandTask) Func {
	return func(ctx context.Context) error {
		cmd := shell.Command{Args: c.Args, Dir: c.Dir, Env: c.Env, Stdin: c.Stdin}
		if cmd.Dir == "" {
			cmd.Dir = b.cfg.BaseDir
		}
		if c.Live {
			return shell.Stream(ctx, cmd, b.deps.Output)
		}
		res, err := shell.Run(ctx, cmd)
		if err != nil {
			return err
		}
		if c.OutputFile != "" {
			path := c.OutputPath(b.cfg.BaseDir)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("failed to create directory for %s: %w", path, err)
			}
			// #nosec G306 - command output is not secret
			if err := os.WriteFile(path, []byte(res.Stdout), 0o644); err != nil {
				return fmt.Errorf("failed to write command output: %w", err)
			}
			b.deps.Observer.Printf("[command] output written to %s", path)
			return nil
		}
		if out := strings.TrimSpace(res.Stdout); out != "" {
			b.deps.Observer.Printf("[command] %s", out)
		}
		return nil
	}
}

func (b *builder) sequence(names []string) Func {
	return func(ctx context.Context) error {
		return b.registry.Run(ctx, names)
	}
}

// stacks collects the stack names t touches, following sequences.
// The task file is validated to be acyclic.
func (b *builder) stacks(t *config.Task, into []string) []string {
	switch {
	case t.Stack != nil:
		return appendUnique(into, t.Stack.Name)
	case t.DeleteStack != nil:
		return appendUnique(into, t.DeleteStack.Name)
	}
	for _, name := range t.Sequence {
		for i := range b.cfg.Tasks {
			if strings.EqualFold(b.cfg.Tasks[i].Name, name) {
				into = b.stacks(&b.cfg.Tasks[i], into)
			}
		}
	}
	return into
}

func describe(t *config.Task) string {
	switch {
	case t.Stack != nil:
		return "Create or update stack " + t.Stack.Name
	case t.DeleteStack != nil:
		return "Delete stack " + t.DeleteStack.Name
	case t.Job != nil:
		return "Run batch job " + t.Job.Name
	case t.Workflow != nil:
		return "Start state machine " + t.Workflow.StateMachineARN
	case t.Function != nil:
		return "Deploy " + t.Function.ImageURI + " to " + t.Function.Name
	case t.PruneVersions != nil:
		return "Delete old versions of " + t.PruneVersions.Function
	case t.PutParameter != nil:
		return "Write parameter " + t.PutParameter.Name
	case t.DeleteParameter != nil:
		return "Delete parameter " + t.DeleteParameter.Name
	case t.Command != nil:
		return "Run " + strings.Join(t.Command.Args, " ")
	default:
		return "Run " + strings.Join(t.Sequence, ", ")
	}
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
