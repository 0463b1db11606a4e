package pipeline

import "github.com/pkg/errors"

var (
	// ErrNilAction is reported for a step registered without an action.
	ErrNilAction = errors.New("step has no action")
	// ErrStepPanicked wraps the value recovered from a panicking step.
	ErrStepPanicked = errors.New("step panicked")
)
