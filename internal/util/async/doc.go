// Package async runs independent tasks concurrently and collects their errors.
//
// [RunParallel] backs "run --parallel", where each top-level task runs in its
// own goroutine.
package async
