// Package shell runs local commands for command tasks.
//
// Run captures output and reports stderr on failure. Stream copies combined
// output to a writer as it is produced.
package shell
