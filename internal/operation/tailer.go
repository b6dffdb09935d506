package operation

import (
	"sort"
	"time"
)

// ProviderEvent is one entry of a provider's append-only event log.
type ProviderEvent struct {
	ID        string
	Timestamp time.Time
	Status    string
	Category  string // resource type
	Subject   string // logical resource name
	Reason    string
}

// Tailer presents only the part of an event log that has not been reported yet.
// Event IDs are unique within one operation's log, so a seen set is enough; no
// cursor is kept. A Tailer is not safe for concurrent use.
type Tailer struct {
	seen map[string]struct{}
}

// NewTailer creates a tailer with an empty seen set.
func NewTailer() *Tailer {
	return &Tailer{seen: make(map[string]struct{})}
}

// Tail filters events (as returned by the provider, newest first) to those at or
// after since that were never returned before, and returns them oldest first.
// Events with equal timestamps keep the provider's relative order.
func (t *Tailer) Tail(events []ProviderEvent, since time.Time) []ProviderEvent {
	var fresh []ProviderEvent
	for _, e := range events {
		if e.Timestamp.Before(since) {
			continue
		}
		if _, ok := t.seen[e.ID]; ok {
			continue
		}
		t.seen[e.ID] = struct{}{}
		fresh = append(fresh, e)
	}

	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].Timestamp.Before(fresh[j].Timestamp)
	})
	return fresh
}

// Seen reports whether the event with id has been returned by Tail.
func (t *Tailer) Seen(id string) bool {
	_, ok := t.seen[id]
	return ok
}

// Len returns the number of events returned so far.
func (t *Tailer) Len() int {
	return len(t.seen)
}
