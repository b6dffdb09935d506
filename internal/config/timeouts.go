package config

import (
	"os"
	"time"
)

// Timeouts holds all configurable wait timeouts and poll intervals.
// These values can be customized via environment variables.
type Timeouts struct {
	Stack    time.Duration // Wait for a stack create, update or delete
	Job      time.Duration // Wait for a batch job
	Workflow time.Duration // Wait for a state machine execution
	Rollout  time.Duration // Wait for alias traffic to converge

	StackPoll    time.Duration
	JobPoll      time.Duration
	WorkflowPoll time.Duration
	RolloutPoll  time.Duration

	// GracePeriod is subtracted from the submission time to cover clock skew.
	GracePeriod time.Duration
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - INFRABUILDER_TIMEOUT_STACK (default: 15m)
//   - INFRABUILDER_TIMEOUT_JOB (default: 15m)
//   - INFRABUILDER_TIMEOUT_WORKFLOW (default: 15m)
//   - INFRABUILDER_TIMEOUT_ROLLOUT (default: 10m)
//   - INFRABUILDER_POLL_STACK (default: 5s)
//   - INFRABUILDER_POLL_JOB (default: 5s)
//   - INFRABUILDER_POLL_WORKFLOW (default: 5s)
//   - INFRABUILDER_POLL_ROLLOUT (default: 3s)
//   - INFRABUILDER_GRACE_PERIOD (default: 30s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		Stack:        parseDuration("INFRABUILDER_TIMEOUT_STACK", 15*time.Minute),
		Job:          parseDuration("INFRABUILDER_TIMEOUT_JOB", 15*time.Minute),
		Workflow:     parseDuration("INFRABUILDER_TIMEOUT_WORKFLOW", 15*time.Minute),
		Rollout:      parseDuration("INFRABUILDER_TIMEOUT_ROLLOUT", 10*time.Minute),
		StackPoll:    parseDuration("INFRABUILDER_POLL_STACK", 5*time.Second),
		JobPoll:      parseDuration("INFRABUILDER_POLL_JOB", 5*time.Second),
		WorkflowPoll: parseDuration("INFRABUILDER_POLL_WORKFLOW", 5*time.Second),
		RolloutPoll:  parseDuration("INFRABUILDER_POLL_ROLLOUT", 3*time.Second),
		GracePeriod:  parseDuration("INFRABUILDER_GRACE_PERIOD", 30*time.Second),
	}
}

// TestTimeouts returns short timeouts for unit tests.
func TestTimeouts() *Timeouts {
	return &Timeouts{
		Stack:        time.Minute,
		Job:          time.Minute,
		Workflow:     time.Minute,
		Rollout:      time.Minute,
		StackPoll:    time.Millisecond,
		JobPoll:      time.Millisecond,
		WorkflowPoll: time.Millisecond,
		RolloutPoll:  time.Millisecond,
		GracePeriod:  0,
	}
}

// Or returns override when it is positive, otherwise def.
func Or(override, def time.Duration) time.Duration {
	if override > 0 {
		return override
	}
	return def
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil || d < 0 {
		return defaultVal
	}

	return d
}
