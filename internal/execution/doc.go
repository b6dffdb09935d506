// Package execution submits batch jobs and starts workflow executions, then
// waits for them to finish.
//
// Every call creates a new execution. An execution that ends unsuccessfully is
// not an error of the call: the submission worked, so the *Execution is
// returned and Execution.Err describes the failure.
package execution
