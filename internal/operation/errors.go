package operation

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for errors.Is checks. The typed errors below match them.
var (
	ErrTimeout              = errors.New("timeout")
	ErrNotFound             = errors.New("not found")
	ErrUnknownStatus        = errors.New("unknown status")
	ErrReconciliationFailed = errors.New("reconciliation failed")
	ErrExecutionFailed      = errors.New("execution failed")
	ErrPurgeFailed          = errors.New("purge failed")
)

// TimeoutError is returned when a wait window closes before a terminal status.
// The provider-side operation is still running.
type TimeoutError struct {
	Source     string
	LastStatus string
	Deadline   time.Time
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("timeout waiting for %s (deadline %s", e.Source, e.Deadline.Format(time.RFC3339))
	if e.LastStatus != "" {
		msg += ", last status " + e.LastStatus
	}
	return msg + "); the operation continues to run"
}

// Is reports whether target is ErrTimeout.
func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// NotFoundError is returned for operations on a stack that does not exist.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("stack %s does not exist", e.Name)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// UnknownStatusError is returned when a status is in none of the family's tables.
type UnknownStatusError struct {
	Family Family
	Source string
	Status string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("%s %s entered unknown state: %s", e.Family, e.Source, e.Status)
}

// Is reports whether target is ErrUnknownStatus.
func (e *UnknownStatusError) Is(target error) bool { return target == ErrUnknownStatus }

// ReconciliationFailedError is returned when a stack ends in a failed status.
type ReconciliationFailedError struct {
	Name   string
	Status string
	Reason string
}

func (e *ReconciliationFailedError) Error() string {
	msg := fmt.Sprintf("stack %s failed: %s", e.Name, e.Status)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

// Is reports whether target is ErrReconciliationFailed.
func (e *ReconciliationFailedError) Is(target error) bool { return target == ErrReconciliationFailed }

// ExecutionFailedError describes a job or workflow that ended unsuccessfully.
// Runners return it through Execution.Err rather than as a call error.
type ExecutionFailedError struct {
	Handle string
	Status string
	Reason string
	Cause  string
}

func (e *ExecutionFailedError) Error() string {
	msg := fmt.Sprintf("execution %s ended with %s", e.Handle, e.Status)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Cause != "" {
		msg += " (" + e.Cause + ")"
	}
	return msg
}

// Is reports whether target is ErrExecutionFailed.
func (e *ExecutionFailedError) Is(target error) bool { return target == ErrExecutionFailed }

// PurgeFailedError is returned when emptying a stateful resource reports per-item failures.
// A partial purge is not retried.
type PurgeFailedError struct {
	ResourceID string
	Errors     []string
}

func (e *PurgeFailedError) Error() string {
	return fmt.Sprintf("cannot empty %s (%s)", e.ResourceID, strings.Join(e.Errors, "; "))
}

// Is reports whether target is ErrPurgeFailed.
func (e *PurgeFailedError) Is(target error) bool { return target == ErrPurgeFailed }
