package async

import (
	"context"
	"errors"
	"fmt"
)

// Task represents an asynchronous operation with a name and function.
type Task struct {
	Name string
	Func func(context.Context) error
}

// RunParallel executes all tasks concurrently and waits for every one of them.
// A failing task does not cancel the others. The returned error joins all
// task errors in task order, each prefixed with the task name.
//
// Example:
//
//	tasks := []Task{
//	    {Name: "network", Func: deployNetwork},
//	    {Name: "registry", Func: deployRegistry},
//	}
//	if err := RunParallel(ctx, tasks); err != nil {
//	    return err
//	}
func RunParallel(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}

	type result struct {
		index int
		err   error
	}

	resultChan := make(chan result, len(tasks))

	for i, task := range tasks {
		go func() {
			resultChan <- result{index: i, err: task.Func(ctx)}
		}()
	}

	errs := make([]error, len(tasks))
	for range len(tasks) {
		res := <-resultChan
		if res.err != nil {
			errs[res.index] = fmt.Errorf("task %s failed: %w", tasks[res.index].Name, res.err)
		}
	}

	return errors.Join(errs...)
}
