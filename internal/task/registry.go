package task

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/infrabuilder/internal/provisioning"
	"github.com/imamik/infrabuilder/internal/util/async"
)

// Func performs a task.
type Func func(ctx context.Context) error

// Task is a named, described unit of work.
type Task struct {
	Name        string
	Description string
	Run         Func
	// Stacks lists the stack names the task creates, updates or deletes.
	Stacks []string
}

// UnknownTaskError is returned when a requested name matches no task.
type UnknownTaskError struct {
	Name  string
	Valid []string
}

func (e *UnknownTaskError) Error() string {
	if len(e.Valid) == 0 {
		return fmt.Sprintf("unknown task %q, no tasks are defined", e.Name)
	}
	return fmt.Sprintf("unknown task %q, valid tasks: %s", e.Name, strings.Join(e.Valid, ", "))
}

// Registry keeps tasks in registration order.
type Registry struct {
	tasks    []Task
	index    map[string]int
	observer provisioning.Observer
}

// NewRegistry creates an empty registry that reports progress to observer.
func NewRegistry(observer provisioning.Observer) *Registry {
	return &Registry{
		index:    make(map[string]int),
		observer: observer,
	}
}

// Register adds a task. Names must be unique ignoring case.
func (r *Registry) Register(t Task) error {
	if t.Name == "" {
		return fmt.Errorf("task name is required")
	}
	if t.Run == nil {
		return fmt.Errorf("task %s has nothing to run", t.Name)
	}
	key := strings.ToLower(t.Name)
	if i, ok := r.index[key]; ok {
		return fmt.Errorf("task %q is already registered as %q", t.Name, r.tasks[i].Name)
	}
	r.index[key] = len(r.tasks)
	r.tasks = append(r.tasks, t)
	return nil
}

// Lookup finds a task by name, ignoring case.
func (r *Registry) Lookup(name string) (Task, bool) {
	i, ok := r.index[strings.ToLower(name)]
	if !ok {
		return Task{}, false
	}
	return r.tasks[i], true
}

// Tasks returns all tasks in registration order.
func (r *Registry) Tasks() []Task {
	return append([]Task(nil), r.tasks...)
}

// Names returns all task names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.tasks))
	for i, t := range r.tasks {
		names[i] = t.Name
	}
	return names
}

// Describe writes one line per task with the descriptions aligned in a column.
func (r *Registry) Describe(w io.Writer) error {
	if len(r.tasks) == 0 {
		_, err := fmt.Fprintln(w, "no tasks defined")
		return err
	}

	width := 0
	for _, t := range r.tasks {
		width = max(width, lipgloss.Width(t.Name))
	}

	renderer := lipgloss.NewRenderer(w)
	nameStyle := renderer.NewStyle().Bold(true).Width(width).MarginRight(2)
	descStyle := renderer.NewStyle().Faint(true)

	for _, t := range r.tasks {
		line := lipgloss.JoinHorizontal(lipgloss.Top, nameStyle.Render(t.Name), descStyle.Render(t.Description))
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

// Run runs the named tasks one after another and stops at the first error.
// All names are resolved before the first task starts.
func (r *Registry) Run(ctx context.Context, names []string) error {
	tasks, err := r.resolve(names)
	if err != nil {
		return err
	}

	start := time.Now()
	for i, t := range tasks {
		if err := r.run(ctx, t, fmt.Sprintf("%s (%d/%d)", t.Name, i+1, len(tasks))); err != nil {
			return fmt.Errorf("task %s failed: %w", t.Name, err)
		}
	}
	if len(tasks) > 1 {
		r.observer.Printf("All %d tasks completed in %v", len(tasks), time.Since(start).Round(time.Millisecond))
	}
	return nil
}

// RunParallel runs the named tasks concurrently and waits for all of them.
// Tasks touching the same stack are rejected before anything starts.
func (r *Registry) RunParallel(ctx context.Context, names []string) error {
	tasks, err := r.resolve(names)
	if err != nil {
		return err
	}

	owner := make(map[string]string)
	for _, t := range tasks {
		for _, s := range t.Stacks {
			if prev, ok := owner[s]; ok && prev != t.Name {
				return fmt.Errorf("tasks %s and %s both operate on stack %s and cannot run in parallel", prev, t.Name, s)
			}
			owner[s] = t.Name
		}
	}

	jobs := make([]async.Task, len(tasks))
	for i, t := range tasks {
		jobs[i] = async.Task{
			Name: t.Name,
			Func: func(ctx context.Context) error { return r.run(ctx, t, t.Name) },
		}
	}
	return async.RunParallel(ctx, jobs)
}

func (r *Registry) resolve(names []string) ([]Task, error) {
	seen := make(map[string]bool, len(names))
	tasks := make([]Task, 0, len(names))
	for _, name := range names {
		t, ok := r.Lookup(name)
		if !ok {
			return nil, &UnknownTaskError{Name: name, Valid: r.Names()}
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("task %s is listed more than once", t.Name)
		}
		seen[t.Name] = true
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (r *Registry) run(ctx context.Context, t Task, label string) error {
	started := time.Now()
	r.observer.Printf("[%s] starting", label)
	if err := t.Run(ctx); err != nil {
		r.observer.Printf("[%s] failed: %v", label, err)
		return err
	}
	r.observer.Printf("[%s] completed in %v", label, time.Since(started).Round(time.Millisecond))
	return nil
}
