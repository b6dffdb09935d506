// Package operation drives long-running provider operations to a terminal state.
//
// A provider call (stack create, job submit, alias update) returns a handle. The
// [Waiter] then polls that handle at a fixed interval until its status classifies as
// terminal under the operation's [Family], or until the [Window] deadline passes.
// Status transitions and newly observed provider events are reported through a
// provisioning.Observer in the order they are seen.
//
// Timing out never cancels the provider-side operation; it keeps running.
package operation
