// Package config loads the task file and the timeout settings.
//
// A task file (infrabuilder.yaml by default) names the AWS region, an optional
// service role for stack operations, and a list of named tasks. Each task performs
// exactly one action: reconcile a stack, delete a stack, run a batch job, start a
// state machine, roll out a Lambda image, prune Lambda versions, write or delete a
// parameter, run a command, or run a sequence of other tasks.
//
// Timeouts and poll intervals come from INFRABUILDER_* environment variables, see
// [LoadTimeouts].
package config
