package wizard

import "errors"

// Validation errors for the interactive wizard.
var (
	errStackNameRequired = errors.New("stack name is required")
	errStackNameInvalid  = errors.New("stack name must start with a letter and contain only letters, digits and hyphens (max 128)")
	errTemplateRequired  = errors.New("template path is required")
	errValueRequired     = errors.New("a value is required")
	errARNInvalid        = errors.New("must be an ARN (arn:...)")
)
