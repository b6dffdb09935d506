package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints, that every task has exactly one action, that
// task names are unique ignoring case, and that task sequences reference existing
// tasks without cycles.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return describeValidationError(err)
	}

	byName := make(map[string]*Task, len(c.Tasks))
	for i := range c.Tasks {
		task := &c.Tasks[i]
		if n := task.Actions(); n != 1 {
			return fmt.Errorf("task %q must define exactly one action, found %d", task.Name, n)
		}
		key := strings.ToLower(task.Name)
		if prev, ok := byName[key]; ok {
			return fmt.Errorf("task %q conflicts with task %q (names are case-insensitive)", task.Name, prev.Name)
		}
		byName[key] = task
	}

	for i := range c.Tasks {
		if err := checkSequence(byName, &c.Tasks[i], nil); err != nil {
			return err
		}
	}
	return nil
}

func checkSequence(byName map[string]*Task, task *Task, path []string) error {
	for _, name := range path {
		if strings.EqualFold(name, task.Name) {
			return fmt.Errorf("task sequence cycle: %s -> %s", strings.Join(path, " -> "), task.Name)
		}
	}
	path = append(path, task.Name)

	for _, ref := range task.Sequence {
		next, ok := byName[strings.ToLower(ref)]
		if !ok {
			return fmt.Errorf("task %q references unknown task %q", task.Name, ref)
		}
		if err := checkSequence(byName, next, path); err != nil {
			return err
		}
	}
	return nil
}

func describeValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag())
		if fe.Param() != "" {
			msg += " (" + fe.Param() + ")"
		}
		msgs = append(msgs, msg)
	}
	return errors.New(strings.Join(msgs, "; "))
}
