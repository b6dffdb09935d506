package handlers

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/imamik/infrabuilder/internal/stack"
)

// StackDeployArgs are the inputs of stack deploy.
type StackDeployArgs struct {
	Name         string
	TemplatePath string
	Parameters   map[string]string
	Tags         map[string]string
	Capabilities []string
	Timeout      time.Duration
}

// StackDeploy creates or updates a stack from a template file and prints its outputs.
func StackDeploy(ctx context.Context, opts Options, args StackDeployArgs) error {
	// #nosec G304 - template path is given by the operator
	template, err := os.ReadFile(args.TemplatePath)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	params := make(map[string]any, len(args.Parameters))
	for k, v := range args.Parameters {
		params[k] = v
	}
	plan := stack.NewPlan(args.Name, string(template), params, args.Tags, args.Capabilities)

	return withEnv(ctx, opts, false, func(env *Env) error {
		result, err := newStackService(env, args.Timeout).Reconcile(ctx, plan)
		if err != nil {
			return err
		}
		printStack(result)
		return nil
	})
}

// StackDelete deletes a stack, optionally emptying its buckets and repositories first.
func StackDelete(ctx context.Context, opts Options, name string, purge bool, timeout time.Duration) error {
	return withEnv(ctx, opts, false, func(env *Env) error {
		return newStackService(env, timeout).Delete(ctx, name, purge)
	})
}

// StackDescribe prints the status and outputs of a stack.
func StackDescribe(ctx context.Context, opts Options, name string) error {
	return withEnv(ctx, opts, false, func(env *Env) error {
		result, err := newStackService(env, 0).Describe(ctx, name)
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("stack %s does not exist", name)
		}
		printStack(result)
		return nil
	})
}

func printStack(s *stack.Stack) {
	fmt.Fprintf(stdout, "%s %s\n", s.Name, s.Status)
	keys := make([]string, 0, len(s.Outputs))
	for k := range s.Outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(stdout, "  %s = %s\n", k, s.Outputs[k])
	}
}
