package domain

import "errors"

// Business-rule violations. These are returned directly to the caller and are
// never retried: they indicate an invalid call, not a transient fault.
var (
	ErrInvalidDefinition       = errors.New("workflow definition is invalid")
	ErrDuplicateActiveWorkflow = errors.New("an active workflow already exists for this request")
	ErrStageNotActive          = errors.New("stage is not the current active stage")
	ErrInstanceTerminal        = errors.New("workflow instance is already finished")
	ErrInstanceNotFound        = errors.New("workflow instance not found")
	ErrStageNotFound           = errors.New("stage not found")
)
