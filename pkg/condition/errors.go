package condition

import "errors"

// Domain errors for condition evaluation. All of them mean "deny this
// candidate" to the caller; they exist so faults can be logged with a
// stable cause.
var (
	// ErrCompile is returned when an expression does not compile.
	ErrCompile = errors.New("condition.compile_failed")

	// ErrRun is returned when a compiled expression faults at runtime.
	ErrRun = errors.New("condition.run_failed")

	// ErrNotBoolean is returned when an expression yields a non-boolean value.
	ErrNotBoolean = errors.New("condition.not_boolean")

	// ErrTimeout is returned when evaluation exceeds the configured budget.
	ErrTimeout = errors.New("condition.timeout")
)
