package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// Command is one local process invocation.
type Command struct {
	Args []string
	Dir  string
	// Env is added to the current environment.
	Env   map[string]string
	Stdin string
}

// Result holds the captured output of a finished command.
// ExitCode is -1 when the process could not be started.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// ExitError is returned when a command exits with a non-zero status.
type ExitError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("command %q exited with status %d", strings.Join(e.Args, " "), e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Run executes c and captures stdout and stderr.
func Run(ctx context.Context, c Command) (*Result, error) {
	cmd, err := c.build(ctx)
	if err != nil {
		return nil, err
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		err = c.wrap(err, res.Stderr)
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode
		} else {
			res.ExitCode = -1
		}
		return res, err
	}
	return res, nil
}

// Stream executes c and writes combined stdout and stderr to w as it arrives.
func Stream(ctx context.Context, c Command, w io.Writer) error {
	cmd, err := c.build(ctx)
	if err != nil {
		return err
	}
	cmd.Stdout = w
	cmd.Stderr = w
	if err := cmd.Run(); err != nil {
		return c.wrap(err, "")
	}
	return nil
}

func (c Command) build(ctx context.Context) (*exec.Cmd, error) {
	if len(c.Args) == 0 {
		return nil, errors.New("command has no arguments")
	}
	// #nosec G204 - commands come from the task file the operator wrote
	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		keys := make([]string, 0, len(c.Env))
		for k := range c.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		cmd.Env = os.Environ()
		for _, k := range keys {
			cmd.Env = append(cmd.Env, k+"="+c.Env[k])
		}
	}
	if c.Stdin != "" {
		cmd.Stdin = strings.NewReader(c.Stdin)
	}
	return cmd, nil
}

func (c Command) wrap(err error, stderr string) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Args: c.Args, ExitCode: exitErr.ExitCode(), Stderr: stderr}
	}
	return fmt.Errorf("failed to run %s: %w", c.Args[0], err)
}
