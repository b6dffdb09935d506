package operation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_RegisteredStatuses(t *testing.T) {
	t.Parallel()

	families := []Family{FamilyStack, FamilyJob, FamilyWorkflow, FamilyRollout}
	classes := []StatusClass{InProgress, Completed, Failed}

	for _, family := range families {
		for _, class := range classes {
			for _, status := range Statuses(family, class) {
				assert.Equal(t, class, Classify(family, status), "%s/%s", family, status)
			}
		}
	}
}

func TestClassify_Stack(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status string
		want   StatusClass
	}{
		{"CREATE_IN_PROGRESS", InProgress},
		{"UPDATE_COMPLETE_CLEANUP_IN_PROGRESS", InProgress},
		{"CREATE_COMPLETE", Completed},
		{"DELETE_COMPLETE", Completed},
		{"ROLLBACK_COMPLETE", Failed},
		{"UPDATE_ROLLBACK_COMPLETE", Failed},
		{"IMPORT_IN_PROGRESS", Unknown},
		{"", Unknown},
		{"create_complete", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(FamilyStack, tt.status))
		})
	}
}

func TestClassify_FamiliesAreIndependent(t *testing.T) {
	t.Parallel()

	// Job vocabulary is not stack vocabulary.
	assert.Equal(t, Completed, Classify(FamilyJob, "SUCCEEDED"))
	assert.Equal(t, Unknown, Classify(FamilyStack, "SUCCEEDED"))

	assert.Equal(t, InProgress, Classify(FamilyJob, "RUNNABLE"))
	assert.Equal(t, Unknown, Classify(FamilyWorkflow, "RUNNABLE"))

	assert.Equal(t, Failed, Classify(FamilyWorkflow, "TIMED_OUT"))
	assert.Equal(t, Unknown, Classify(FamilyJob, "TIMED_OUT"))

	assert.Equal(t, Unknown, Classify(Family("queue"), "RUNNING"))
}

func TestStatusClass_Terminal(t *testing.T) {
	t.Parallel()

	assert.False(t, InProgress.Terminal())
	assert.True(t, Completed.Terminal())
	assert.True(t, Failed.Terminal())
	assert.True(t, Unknown.Terminal())
	assert.Equal(t, "unknown", Unknown.String())
}

func TestStatuses_ReturnsCopy(t *testing.T) {
	t.Parallel()

	list := Statuses(FamilyJob, Completed)
	list[0] = "MUTATED"
	assert.Equal(t, Completed, Classify(FamilyJob, "SUCCEEDED"))
	assert.Empty(t, Statuses(FamilyJob, Unknown))
}
