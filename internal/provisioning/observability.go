package provisioning

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Logger is the minimal printf-style logging surface.
type Logger interface {
	Printf(format string, v ...any)
}

// Observer defines the interface for structured observability during provisioning.
type Observer interface {
	Logger

	// Event emits a structured event
	Event(event Event)

	// WithFields returns a new Observer with additional context fields
	WithFields(fields map[string]string) Observer
}

// Event represents a structured provisioning event.
type Event struct {
	Type      EventType         // Type of event
	Phase     string            // Operation family (e.g., "stack", "job")
	Message   string            // Human-readable message
	Resource  string            // Stack name, execution ARN or function name
	Timestamp time.Time         // When the event occurred
	Fields    map[string]string // Additional contextual fields
}

// EventType represents the type of provisioning event.
type EventType string

const (
	// EventOperationSubmitted indicates a provider call returned an operation handle.
	EventOperationSubmitted EventType = "operation.submitted"
	// EventStatusChanged indicates a poll observed a new status class.
	EventStatusChanged EventType = "status.changed"
	// EventProviderEvent relays one entry of the provider's event log.
	EventProviderEvent EventType = "provider.event"
	// EventOperationCompleted indicates an operation reached a successful terminal status.
	EventOperationCompleted EventType = "operation.completed"
	// EventOperationFailed indicates an operation ended unsuccessfully.
	EventOperationFailed EventType = "operation.failed"

	// EventResourcePurging indicates a stateful resource is being emptied.
	EventResourcePurging EventType = "resource.purging"
	// EventResourcePurged indicates a stateful resource was emptied.
	EventResourcePurged EventType = "resource.purged"
	// EventResourceSkipped indicates a resource was left untouched.
	EventResourceSkipped EventType = "resource.skipped"
)

// LogConfig configures the console observer.
type LogConfig struct {
	// Format is "console", "json" or "auto" (console on a terminal).
	Format string
	// Level is a zerolog level name; empty means info.
	Level string
	// Output defaults to stderr.
	Output io.Writer
}

// ConsoleObserver implements Observer on top of zerolog.
type ConsoleObserver struct {
	log           zerolog.Logger
	contextFields map[string]string
}

// NewConsoleObserver creates a new console-based observer.
func NewConsoleObserver(cfg LogConfig) *ConsoleObserver {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	if useConsoleFormat(cfg.Format, out) {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	return &ConsoleObserver{
		log:           zerolog.New(out).Level(level).With().Timestamp().Logger(),
		contextFields: make(map[string]string),
	}
}

func useConsoleFormat(format string, out io.Writer) bool {
	switch format {
	case "console":
		return true
	case "json":
		return false
	}
	f, ok := out.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// Printf implements Logger.
func (o *ConsoleObserver) Printf(format string, v ...any) {
	e := o.log.Info()
	for k, val := range o.contextFields {
		e = e.Str(k, val)
	}
	e.Msgf(format, v...)
}

// Event implements Observer interface.
func (o *ConsoleObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	e := o.log.Info()
	if event.Type == EventOperationFailed {
		e = o.log.Error()
	}
	e = e.Str("event", string(event.Type))
	if event.Phase != "" {
		e = e.Str("phase", event.Phase)
	}
	if event.Resource != "" {
		e = e.Str("resource", event.Resource)
	}
	for k, v := range mergeFields(o.contextFields, event.Fields) {
		e = e.Str(k, v)
	}
	e.Msg(event.Message)
}

// WithFields implements Observer interface.
func (o *ConsoleObserver) WithFields(fields map[string]string) Observer {
	return &ConsoleObserver{
		log:           o.log,
		contextFields: mergeFields(o.contextFields, fields),
	}
}

func mergeFields(base, extra map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

// RecordingObserver keeps every message and event in memory.
// It is safe for concurrent use.
type RecordingObserver struct {
	mu       *sync.Mutex
	events   *[]Event
	messages *[]string
	fields   map[string]string
}

// NewRecordingObserver creates an empty recording observer.
func NewRecordingObserver() *RecordingObserver {
	return &RecordingObserver{
		mu:       &sync.Mutex{},
		events:   &[]Event{},
		messages: &[]string{},
		fields:   map[string]string{},
	}
}

// Printf implements Logger.
func (r *RecordingObserver) Printf(format string, v ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.messages = append(*r.messages, fmt.Sprintf(format, v...))
}

// Event implements Observer.
func (r *RecordingObserver) Event(event Event) {
	event.Fields = mergeFields(r.fields, event.Fields)
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.events = append(*r.events, event)
}

// WithFields implements Observer. The child shares the parent's recording.
func (r *RecordingObserver) WithFields(fields map[string]string) Observer {
	return &RecordingObserver{
		mu:       r.mu,
		events:   r.events,
		messages: r.messages,
		fields:   mergeFields(r.fields, fields),
	}
}

// Events returns a copy of the recorded events.
func (r *RecordingObserver) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), *r.events...)
}

// EventsOfType returns the recorded events of type t in order.
func (r *RecordingObserver) EventsOfType(t EventType) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Messages returns a copy of the recorded Printf messages.
func (r *RecordingObserver) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), *r.messages...)
}

// Helper functions for common events

// LogOperationSubmitted logs that a provider call returned a handle.
func LogOperationSubmitted(observer Observer, phase, resource, handle string) {
	observer.Event(Event{
		Type:     EventOperationSubmitted,
		Phase:    phase,
		Resource: resource,
		Message:  fmt.Sprintf("%s submitted, waiting until completed", handle),
		Fields:   map[string]string{"handle": handle},
	})
}

// LogStatusChanged logs a status transition observed by polling.
func LogStatusChanged(observer Observer, phase, resource, status, class string) {
	observer.Event(Event{
		Type:     EventStatusChanged,
		Phase:    phase,
		Resource: resource,
		Message:  fmt.Sprintf("status: %s", status),
		Fields: map[string]string{
			"status": status,
			"class":  class,
		},
	})
}

// LogProviderEvent relays one provider event log entry.
func LogProviderEvent(observer Observer, phase, resource string, at time.Time, status, category, subject, reason string) {
	msg := fmt.Sprintf("%s %s %s: %s", at.Format(time.RFC3339), status, category, subject)
	if reason != "" {
		msg += " " + reason
	}
	observer.Event(Event{
		Type:      EventProviderEvent,
		Phase:     phase,
		Resource:  resource,
		Timestamp: at,
		Message:   msg,
	})
}

// LogOperationCompleted logs a successful terminal status.
func LogOperationCompleted(observer Observer, phase, resource string, duration time.Duration) {
	observer.Event(Event{
		Type:     EventOperationCompleted,
		Phase:    phase,
		Resource: resource,
		Message:  fmt.Sprintf("completed in %v", duration.Round(time.Millisecond)),
	})
}

// LogOperationFailed logs an unsuccessful outcome.
func LogOperationFailed(observer Observer, phase, resource string, err error) {
	observer.Event(Event{
		Type:     EventOperationFailed,
		Phase:    phase,
		Resource: resource,
		Message:  fmt.Sprintf("failed: %v", err),
	})
}

// LogResourcePurging logs the start of emptying a stateful resource.
func LogResourcePurging(observer Observer, resourceType, resourceID string) {
	observer.Event(Event{
		Type:     EventResourcePurging,
		Phase:    "purge",
		Resource: resourceID,
		Message:  fmt.Sprintf("deleting all content in %s", resourceID),
		Fields:   map[string]string{"type": resourceType},
	})
}

// LogResourcePurged logs how many items were removed from a stateful resource.
func LogResourcePurged(observer Observer, resourceType, resourceID string, count int) {
	observer.Event(Event{
		Type:     EventResourcePurged,
		Phase:    "purge",
		Resource: resourceID,
		Message:  fmt.Sprintf("%d items deleted", count),
		Fields:   map[string]string{"type": resourceType},
	})
}

// LogResourceSkipped logs a resource left untouched.
func LogResourceSkipped(observer Observer, phase, resourceType, resourceID, why string) {
	observer.Event(Event{
		Type:     EventResourceSkipped,
		Phase:    phase,
		Resource: resourceID,
		Message:  why,
		Fields:   map[string]string{"type": resourceType},
	})
}
