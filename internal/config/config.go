package config

import (
	"path/filepath"
	"time"
)

// Config holds the task file contents.
type Config struct {
	Region  string `mapstructure:"region" yaml:"region,omitempty"`
	Profile string `mapstructure:"profile" yaml:"profile,omitempty"`
	// RoleARN is the service role stack operations run under (optional).
	RoleARN string `mapstructure:"roleArn" yaml:"roleArn,omitempty" validate:"omitempty,startswith=arn:"`
	Tasks   []Task `mapstructure:"tasks" yaml:"tasks,omitempty" validate:"dive"`

	// BaseDir is the directory of the loaded file. Relative paths resolve against it.
	BaseDir string `mapstructure:"-" yaml:"-"`
}

// Task is one named entry of the task file.
type Task struct {
	Name        string `mapstructure:"name" yaml:"name,omitempty" validate:"required"`
	Description string `mapstructure:"description" yaml:"description,omitempty"`

	Stack           *StackTask     `mapstructure:"stack" yaml:"stack,omitempty"`
	DeleteStack     *DeleteTask    `mapstructure:"deleteStack" yaml:"deleteStack,omitempty"`
	Job             *JobTask       `mapstructure:"job" yaml:"job,omitempty"`
	Workflow        *WorkflowTask  `mapstructure:"workflow" yaml:"workflow,omitempty"`
	Function        *FunctionTask  `mapstructure:"function" yaml:"function,omitempty"`
	PruneVersions   *PruneTask     `mapstructure:"pruneVersions" yaml:"pruneVersions,omitempty"`
	PutParameter    *ParameterTask `mapstructure:"putParameter" yaml:"putParameter,omitempty"`
	DeleteParameter *ParameterTask `mapstructure:"deleteParameter" yaml:"deleteParameter,omitempty"`
	Command         *CommandTask   `mapstructure:"command" yaml:"command,omitempty"`
	Sequence        []string       `mapstructure:"tasks" yaml:"tasks,omitempty"`
}

// StackTask reconciles one stack.
type StackTask struct {
	Name         string            `mapstructure:"name" yaml:"name,omitempty" validate:"required"`
	Template     string            `mapstructure:"template" yaml:"template,omitempty" validate:"required"`
	Parameters   map[string]any    `mapstructure:"parameters" yaml:"parameters,omitempty"`
	Tags         map[string]string `mapstructure:"tags" yaml:"tags,omitempty"`
	Capabilities []string          `mapstructure:"capabilities" yaml:"capabilities,omitempty" validate:"dive,oneof=CAPABILITY_IAM CAPABILITY_NAMED_IAM CAPABILITY_AUTO_EXPAND"`
	Timeout      time.Duration     `mapstructure:"timeout" yaml:"timeout,omitempty" validate:"gte=0"`
}

// TemplatePath resolves the template file against baseDir.
func (s *StackTask) TemplatePath(baseDir string) string {
	if filepath.IsAbs(s.Template) || baseDir == "" {
		return s.Template
	}
	return filepath.Join(baseDir, s.Template)
}

// DeleteTask deletes one stack.
type DeleteTask struct {
	Name         string        `mapstructure:"name" yaml:"name,omitempty" validate:"required"`
	PurgeContent bool          `mapstructure:"purgeContent" yaml:"purgeContent,omitempty"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty" validate:"gte=0"`
}

// JobTask submits one batch job.
type JobTask struct {
	Name       string        `mapstructure:"name" yaml:"name,omitempty" validate:"required"`
	Queue      string        `mapstructure:"queue" yaml:"queue,omitempty" validate:"required"`
	Definition string        `mapstructure:"definition" yaml:"definition,omitempty" validate:"required"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty" validate:"gte=0"`
	NoWait     bool          `mapstructure:"noWait" yaml:"noWait,omitempty"`
}

// WorkflowTask starts one state machine execution.
type WorkflowTask struct {
	StateMachineARN string        `mapstructure:"stateMachineArn" yaml:"stateMachineArn,omitempty" validate:"required,startswith=arn:"`
	Input           string        `mapstructure:"input" yaml:"input,omitempty" validate:"omitempty,json"`
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty" validate:"gte=0"`
	NoWait          bool          `mapstructure:"noWait" yaml:"noWait,omitempty"`
}

// FunctionTask publishes a new Lambda image version and shifts an alias to it.
type FunctionTask struct {
	Name      string        `mapstructure:"name" yaml:"name,omitempty" validate:"required"`
	ImageURI  string        `mapstructure:"imageUri" yaml:"imageUri,omitempty" validate:"required"`
	Alias     string        `mapstructure:"alias" yaml:"alias,omitempty"`
	Provision int32         `mapstructure:"provision" yaml:"provision,omitempty" validate:"gte=0"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty" validate:"gte=0"`
}

// PruneTask deletes all but the newest Keep versions of a function.
type PruneTask struct {
	Function string `mapstructure:"function" yaml:"function,omitempty" validate:"required"`
	Keep     int    `mapstructure:"keep" yaml:"keep,omitempty" validate:"min=1"`
}

// ParameterTask writes or deletes a secure string parameter.
type ParameterTask struct {
	Name      string            `mapstructure:"name" yaml:"name,omitempty" validate:"required"`
	Value     string            `mapstructure:"value" yaml:"value,omitempty"`
	Overwrite bool              `mapstructure:"overwrite" yaml:"overwrite,omitempty"`
	KeyID     string            `mapstructure:"keyId" yaml:"keyId,omitempty"`
	Tags      map[string]string `mapstructure:"tags" yaml:"tags,omitempty"`
}

// CommandTask runs a local command.
type CommandTask struct {
	Args []string          `mapstructure:"args" yaml:"args,omitempty" validate:"min=1"`
	Dir  string            `mapstructure:"dir" yaml:"dir,omitempty"`
	Env  map[string]string `mapstructure:"env" yaml:"env,omitempty"`
	// Stdin is written to the command's standard input.
	Stdin string `mapstructure:"stdin" yaml:"stdin,omitempty"`
	// OutputFile receives the captured stdout. It cannot be combined with Live.
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty" validate:"excluded_with=Live"`
	// Live streams output instead of capturing it.
	Live bool `mapstructure:"live" yaml:"live,omitempty"`
}

// OutputPath resolves the output file against baseDir.
func (c *CommandTask) OutputPath(baseDir string) string {
	if filepath.IsAbs(c.OutputFile) || baseDir == "" {
		return c.OutputFile
	}
	return filepath.Join(baseDir, c.OutputFile)
}

// Actions returns the number of actions configured on the task.
func (t *Task) Actions() int {
	n := 0
	for _, set := range []bool{
		t.Stack != nil,
		t.DeleteStack != nil,
		t.Job != nil,
		t.Workflow != nil,
		t.Function != nil,
		t.PruneVersions != nil,
		t.PutParameter != nil,
		t.DeleteParameter != nil,
		t.Command != nil,
		len(t.Sequence) > 0,
	} {
		if set {
			n++
		}
	}
	return n
}
