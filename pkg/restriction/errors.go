package restriction

import "errors"

// Domain errors for restriction parsing.
var (
	// ErrInvalidTimeOfDay is returned when a time-of-day string is not in HH:MM form.
	ErrInvalidTimeOfDay = errors.New("restriction.invalid_time_of_day")

	// ErrInvalidWeekday is returned when a string does not name a weekday.
	ErrInvalidWeekday = errors.New("restriction.invalid_weekday")
)
