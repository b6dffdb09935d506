package operation

import "slices"

// Family identifies the status vocabulary of one kind of provider operation.
type Family string

const (
	// FamilyStack covers the stack (resource group) lifecycle.
	FamilyStack Family = "stack"
	// FamilyJob covers batch job execution.
	FamilyJob Family = "job"
	// FamilyWorkflow covers state machine execution.
	FamilyWorkflow Family = "workflow"
	// FamilyRollout covers alias traffic-shift convergence.
	FamilyRollout Family = "rollout"
)

// StatusClass is the coarse classification of a raw provider status.
type StatusClass int

const (
	// Unknown is a status absent from the family's tables. It is terminal.
	Unknown StatusClass = iota
	// InProgress means the operation has not finished yet.
	InProgress
	// Completed means the operation finished successfully.
	Completed
	// Failed means the operation finished unsuccessfully.
	Failed
)

// String returns the lower-case name of the class.
func (c StatusClass) String() string {
	switch c {
	case InProgress:
		return "in_progress"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether polling stops at this class.
func (c StatusClass) Terminal() bool {
	return c != InProgress
}

// Rollout statuses are synthesized locally; the provider has no status field for
// alias routing.
const (
	RolloutShifting  = "SHIFTING"
	RolloutConverged = "CONVERGED"
)

type statusTable struct {
	inProgress []string
	completed  []string
	failed     []string
}

var statusTables = map[Family]statusTable{
	FamilyStack: {
		completed: []string{
			"CREATE_COMPLETE",
			"DELETE_COMPLETE",
			"UPDATE_COMPLETE",
		},
		inProgress: []string{
			"CREATE_IN_PROGRESS",
			"DELETE_IN_PROGRESS",
			"REVIEW_IN_PROGRESS",
			"ROLLBACK_IN_PROGRESS",
			"UPDATE_COMPLETE_CLEANUP_IN_PROGRESS",
			"UPDATE_IN_PROGRESS",
			"UPDATE_ROLLBACK_COMPLETE_CLEANUP_IN_PROGRESS",
			"UPDATE_ROLLBACK_IN_PROGRESS",
		},
		failed: []string{
			"ROLLBACK_COMPLETE",
			"UPDATE_ROLLBACK_COMPLETE",
			"CREATE_FAILED",
			"DELETE_FAILED",
			"ROLLBACK_FAILED",
			"UPDATE_ROLLBACK_FAILED",
		},
	},
	FamilyJob: {
		inProgress: []string{"SUBMITTED", "PENDING", "RUNNABLE", "STARTING", "RUNNING"},
		completed:  []string{"SUCCEEDED"},
		failed:     []string{"FAILED"},
	},
	FamilyWorkflow: {
		inProgress: []string{"RUNNING"},
		completed:  []string{"SUCCEEDED"},
		// PENDING_REDRIVE only moves again after a manual redrive.
		failed: []string{"FAILED", "TIMED_OUT", "ABORTED", "PENDING_REDRIVE"},
	},
	FamilyRollout: {
		inProgress: []string{RolloutShifting},
		completed:  []string{RolloutConverged},
	},
}

// Classify maps a raw provider status to its class within family.
// It never fails: anything not listed, including any status of an unregistered
// family, is Unknown.
func Classify(family Family, raw string) StatusClass {
	table, ok := statusTables[family]
	if !ok {
		return Unknown
	}
	switch {
	case slices.Contains(table.completed, raw):
		return Completed
	case slices.Contains(table.failed, raw):
		return Failed
	case slices.Contains(table.inProgress, raw):
		return InProgress
	default:
		return Unknown
	}
}

// Statuses returns the raw statuses registered for family under class.
// Unknown has no registered statuses.
func Statuses(family Family, class StatusClass) []string {
	table := statusTables[family]
	var list []string
	switch class {
	case InProgress:
		list = table.inProgress
	case Completed:
		list = table.completed
	case Failed:
		list = table.failed
	}
	return append([]string(nil), list...)
}
