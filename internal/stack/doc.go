// Package stack reconciles CloudFormation stacks.
//
// A Reconciler decides between create, update and delete-then-create for a
// named stack, issues one provider request and waits for the stack to reach a
// terminal status, relaying stack events as they appear. A stack whose template
// and parameters already match is a successful no-op.
//
// Before a stack is deleted, the Purger can empty the buckets and image
// repositories it owns, since the provider refuses to delete them otherwise.
package stack
