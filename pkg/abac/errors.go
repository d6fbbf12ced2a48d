package abac

import "errors"

// Domain errors for constraint handling.
var (
	// ErrMalformedDocument is returned when a constraint document does not parse.
	ErrMalformedDocument = errors.New("abac.malformed_document")

	// ErrBadPattern is returned when an employee number pattern is not a valid regexp.
	ErrBadPattern = errors.New("abac.bad_pattern")

	// ErrBadTimeRange is returned when an environment time range does not parse.
	ErrBadTimeRange = errors.New("abac.bad_time_range")

	// ErrBadDay is returned when an allowed day does not name a weekday.
	ErrBadDay = errors.New("abac.bad_day")
)
