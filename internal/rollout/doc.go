// Package rollout publishes Lambda function versions, moves aliases to them and
// waits until traffic has fully shifted.
package rollout
