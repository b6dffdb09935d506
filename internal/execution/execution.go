package execution

import (
	"errors"
	"strings"

	"github.com/imamik/infrabuilder/internal/operation"
)

// Execution is one submitted job or workflow execution.
type Execution struct {
	// ID is the job ID or the execution ARN.
	ID     string
	Name   string
	Status string
	Class  operation.StatusClass
	// Reason is the job status reason or the workflow error name.
	Reason string
	Cause  string
	// ConsoleURL links to the execution in the AWS console, if the region is known.
	ConsoleURL string
}

// Err returns *operation.ExecutionFailedError when the execution ended
// unsuccessfully, and nil otherwise, including when nobody waited for it.
func (e *Execution) Err() error {
	if e == nil || e.Class != operation.Failed {
		return nil
	}
	return &operation.ExecutionFailedError{Handle: e.ID, Status: e.Status, Reason: e.Reason, Cause: e.Cause}
}

// Done reports whether the execution reached a terminal status.
func (e *Execution) Done() bool {
	return e.Class == operation.Completed || e.Class == operation.Failed
}

// stillRunning attaches a timed out wait to its execution: the timeout names
// the job ID or execution ARN and the execution keeps its last status.
// Other errors drop the execution.
func stillRunning(exec *Execution, err error) (*Execution, error) {
	var timeout *operation.TimeoutError
	if !errors.As(err, &timeout) {
		return nil, err
	}
	timeout.Source = exec.ID
	exec.Status = timeout.LastStatus
	exec.Class = operation.InProgress
	return exec, err
}

// arnRegion returns the region of an ARN of the given service, or "".
func arnRegion(arn, service string) string {
	parts := strings.SplitN(arn, ":", 5)
	if len(parts) < 5 || parts[0] != "arn" || parts[2] != service {
		return ""
	}
	return parts[3]
}
