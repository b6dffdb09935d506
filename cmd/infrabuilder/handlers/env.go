// Package handlers implements the business logic for CLI commands.
//
// Each handler resolves its dependencies through package-level factory
// variables so tests can replace AWS-backed services with fakes.
package handlers

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/imamik/infrabuilder/internal/config"
	"github.com/imamik/infrabuilder/internal/execution"
	"github.com/imamik/infrabuilder/internal/operation"
	awsplatform "github.com/imamik/infrabuilder/internal/platform/aws"
	"github.com/imamik/infrabuilder/internal/platform/ecr"
	"github.com/imamik/infrabuilder/internal/platform/s3"
	"github.com/imamik/infrabuilder/internal/provisioning"
	"github.com/imamik/infrabuilder/internal/rollout"
	"github.com/imamik/infrabuilder/internal/stack"
	"github.com/imamik/infrabuilder/internal/task"
)

// Options carries the global flags.
type Options struct {
	ConfigPath      string
	Region          string
	Profile         string
	LogFormat       string
	LogLevel        string
	MetricsTextfile string
	// S3Endpoint overrides the object store endpoint, e.g. for a local emulator.
	S3Endpoint string
	NoWait     bool
}

// Env wraps all dependencies a command needs.
type Env struct {
	Options  Options
	Config   *config.Config
	Clients  *awsplatform.Clients
	Observer provisioning.Observer
	Metrics  *provisioning.Metrics
	Timeouts *config.Timeouts
}

// Factory function variables - can be replaced in tests.
var (
	loadTaskFile  = config.LoadFile
	loadAWSConfig = awsplatform.LoadConfig

	newObserver = func(opts Options) provisioning.Observer {
		return provisioning.NewConsoleObserver(provisioning.LogConfig{Format: opts.LogFormat, Level: opts.LogLevel})
	}

	// newEnv creates the command environment. The task file is read only when withFile is set.
	newEnv = newEnvironment

	// stdout receives command results.
	stdout io.Writer = os.Stdout
)

func newEnvironment(ctx context.Context, opts Options, withFile bool) (*Env, error) {
	env := &Env{
		Options:  opts,
		Observer: newObserver(opts),
		Metrics:  provisioning.NewMetrics(),
		Timeouts: config.LoadTimeouts(),
	}

	session := awsplatform.SessionConfig{Region: opts.Region, Profile: opts.Profile}
	if withFile {
		path := opts.ConfigPath
		if path == "" {
			path = config.DefaultFile
		}
		cfg, err := loadTaskFile(path)
		if err != nil {
			return nil, err
		}
		env.Config = cfg
		if session.Region == "" {
			session.Region = cfg.Region
		}
		if session.Profile == "" {
			session.Profile = cfg.Profile
		}
	}

	awsCfg, err := loadAWSConfig(ctx, session)
	if err != nil {
		return nil, err
	}
	env.Clients = awsplatform.NewClients(awsCfg)
	return env, nil
}

// Close writes the metrics textfile when one was requested.
func (e *Env) Close() error {
	return e.Metrics.WriteTextfile(e.Options.MetricsTextfile)
}

func (e *Env) waiter(interval time.Duration) *operation.Waiter {
	return operation.NewWaiter(e.Observer, interval,
		operation.WithGracePeriod(e.Timeouts.GracePeriod),
		operation.WithMetrics(e.Metrics),
	)
}

// Reconciler returns a stack reconciler that can purge buckets and repositories.
func (e *Env) Reconciler(timeout time.Duration) *stack.Reconciler {
	purger := stack.NewPurger(
		e.Clients.CloudFormation,
		s3.NewClient(e.Clients.Config, e.Options.S3Endpoint),
		ecr.NewClient(e.Clients.ECR),
		e.Observer,
		e.Metrics,
	)
	opts := []stack.Option{stack.WithPurger(purger)}
	if e.Config != nil && e.Config.RoleARN != "" {
		opts = append(opts, stack.WithRoleARN(e.Config.RoleARN))
	}
	return stack.NewReconciler(e.Clients.CloudFormation, e.waiter(e.Timeouts.StackPoll), e.Observer, config.Or(timeout, e.Timeouts.Stack), opts...)
}

// JobRunner returns a batch job runner.
func (e *Env) JobRunner() *execution.JobRunner {
	return execution.NewJobRunner(e.Clients.Batch, e.waiter(e.Timeouts.JobPoll), e.Observer)
}

// WorkflowRunner returns a state machine runner.
func (e *Env) WorkflowRunner() *execution.WorkflowRunner {
	return execution.NewWorkflowRunner(e.Clients.SFN, e.waiter(e.Timeouts.WorkflowPoll), e.Observer)
}

// Deployer returns a Lambda deployer.
func (e *Env) Deployer() *rollout.Deployer {
	return rollout.NewDeployer(e.Clients.Lambda, e.waiter(e.Timeouts.RolloutPoll), e.Observer)
}

// TaskDeps wires the task builder to the services of this environment.
func (e *Env) TaskDeps() task.Deps {
	return task.Deps{
		Stacks:     func(timeout time.Duration) task.StackService { return newStackService(e, timeout) },
		Jobs:       newJobService(e),
		Workflows:  newWorkflowService(e),
		Functions:  newFunctionService(e),
		Parameters: newParameterStore(e),
		Timeouts:   e.Timeouts,
		Observer:   e.Observer,
		Output:     stdout,
		NoWait:     e.Options.NoWait,
	}
}

// withEnv creates an environment, runs fn and closes the environment.
func withEnv(ctx context.Context, opts Options, withFile bool, fn func(env *Env) error) (err error) {
	env, err := newEnv(ctx, opts, withFile)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := env.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("task finished but metrics were not written: %w", cerr)
		}
	}()
	return fn(env)
}
