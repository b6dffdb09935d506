// Package task holds the named tasks an operator can run.
//
// A [Registry] is built from the task file by [Build]. Names are matched
// without regard to case. Tasks run in the order given; an unknown name
// stops the run before any task starts.
package task
