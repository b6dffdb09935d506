// Package s3 lists and deletes object versions in versioned buckets.
//
// Stacks cannot delete a bucket that still holds objects, so buckets owned by a
// stack are emptied here before the stack itself is deleted. Every version and
// every delete marker is removed, across all listing pages.
package s3
