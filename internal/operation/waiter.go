package operation

import (
	"context"
	"time"

	"github.com/imamik/infrabuilder/internal/provisioning"
)

// DefaultGracePeriod is subtracted from the submission time when opening a window.
// It covers clock skew between this host and the provider, and event propagation delay.
const DefaultGracePeriod = 30 * time.Second

// Window bounds one orchestration call. Its deadline is fixed at creation.
type Window struct {
	Start    time.Time
	Deadline time.Time
}

// NewWindow opens a window at now with the default grace period.
func NewWindow(now time.Time, timeout time.Duration) Window {
	return newWindow(now, DefaultGracePeriod, timeout)
}

func newWindow(now time.Time, grace, timeout time.Duration) Window {
	start := now.Add(-grace)
	return Window{Start: start, Deadline: start.Add(timeout)}
}

// Expired reports whether t is past the deadline.
func (w Window) Expired(t time.Time) bool {
	return t.After(w.Deadline)
}

// Snapshot is the result of one status fetch. It is never persisted.
type Snapshot struct {
	Status string
	Reason string
	// Source is the provider-native identifier the status belongs to.
	Source string
	// Class is set by the Waiter.
	Class StatusClass
	// Detail carries the provider description the status was read from.
	Detail any
}

// FetchFunc fetches the current status of one operation.
type FetchFunc func(ctx context.Context) (Snapshot, error)

// EventsFunc lists the operation's events newest first, covering at least since.
type EventsFunc func(ctx context.Context, since time.Time) ([]ProviderEvent, error)

// Poll describes what to wait for.
type Poll struct {
	Family Family
	// Resource names the operation in log output.
	Resource string
	Fetch    FetchFunc
	// Events is optional; rollouts have no event log.
	Events EventsFunc
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Waiter polls operations at a fixed interval. No jitter, no backoff.
type Waiter struct {
	interval time.Duration
	grace    time.Duration
	observer provisioning.Observer
	metrics  *provisioning.Metrics
	now      func() time.Time
	sleep    SleepFunc
}

// WaiterOption configures a Waiter.
type WaiterOption func(*Waiter)

// WithClock replaces the wall clock and the sleeper, mainly for tests.
func WithClock(now func() time.Time, sleep SleepFunc) WaiterOption {
	return func(w *Waiter) {
		w.now = now
		w.sleep = sleep
	}
}

// WithGracePeriod overrides DefaultGracePeriod for windows opened by the Waiter.
func WithGracePeriod(d time.Duration) WaiterOption {
	return func(w *Waiter) {
		w.grace = d
	}
}

// WithMetrics records polls and wait durations.
func WithMetrics(m *provisioning.Metrics) WaiterOption {
	return func(w *Waiter) {
		w.metrics = m
	}
}

// NewWaiter creates a waiter that sleeps interval between polls.
func NewWaiter(observer provisioning.Observer, interval time.Duration, opts ...WaiterOption) *Waiter {
	w := &Waiter{
		interval: interval,
		grace:    DefaultGracePeriod,
		observer: observer,
		now:      time.Now,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Now returns the waiter's current time.
func (w *Waiter) Now() time.Time {
	return w.now()
}

// NewWindow opens a window at the current time.
func (w *Waiter) NewWindow(timeout time.Duration) Window {
	return newWindow(w.now(), w.grace, timeout)
}

// Wait polls until the operation reaches a terminal class or the window closes.
//
// Completed, Failed and Unknown snapshots are returned with a nil error; the caller
// decides what each means. A closed window yields *TimeoutError and the provider
// operation keeps running. Fetch and event errors are returned unmodified.
// Every status transition and every new event is reported before Wait returns.
func (w *Waiter) Wait(ctx context.Context, poll Poll, window Window) (Snapshot, error) {
	family := string(poll.Family)
	started := w.now()
	tailer := NewTailer()

	var (
		lastClass  StatusClass
		lastStatus string
		polled     bool
	)

	for {
		if window.Expired(w.now()) {
			w.metrics.ObserveWait(family, "timeout", w.now().Sub(started))
			return Snapshot{}, &TimeoutError{Source: poll.Resource, LastStatus: lastStatus, Deadline: window.Deadline}
		}

		snap, err := poll.Fetch(ctx)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Class = Classify(poll.Family, snap.Status)
		w.metrics.ObservePoll(family, snap.Class.String())

		switch {
		case !polled || snap.Class != lastClass:
			provisioning.LogStatusChanged(w.observer, family, poll.Resource, snap.Status, snap.Class.String())
		case snap.Status != lastStatus:
			w.observer.Printf("[%s] %s status: %s", family, poll.Resource, snap.Status)
		}
		polled = true
		lastClass = snap.Class
		lastStatus = snap.Status

		if poll.Events != nil {
			events, err := poll.Events(ctx, window.Start)
			if err != nil {
				return Snapshot{}, err
			}
			fresh := tailer.Tail(events, window.Start)
			for _, e := range fresh {
				provisioning.LogProviderEvent(w.observer, family, poll.Resource, e.Timestamp, e.Status, e.Category, e.Subject, e.Reason)
			}
			w.metrics.ObserveProviderEvents(family, len(fresh))
		}

		if snap.Class.Terminal() {
			w.metrics.ObserveWait(family, snap.Class.String(), w.now().Sub(started))
			return snap, nil
		}

		if err := w.sleep(ctx, w.interval); err != nil {
			return Snapshot{}, err
		}
	}
}

// sleepContext waits for d, returning early with ctx.Err() on cancellation.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
