package restriction

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Business hours applied when a Time restriction sets BusinessHoursOnly.
var (
	businessStart = TimeOfDay{Hour: 9}
	businessEnd   = TimeOfDay{Hour: 17}
)

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int `json:"hour" yaml:"hour"`
	Minute int `json:"minute" yaml:"minute"`
}

// ParseTimeOfDay parses "HH:MM" into a TimeOfDay.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var tod TimeOfDay
	if _, err := fmt.Sscanf(s, "%d:%d", &tod.Hour, &tod.Minute); err != nil {
		return TimeOfDay{}, errors.Join(ErrInvalidTimeOfDay, fmt.Errorf("parse %q: %w", s, err))
	}
	if tod.Hour < 0 || tod.Hour > 23 || tod.Minute < 0 || tod.Minute > 59 {
		return TimeOfDay{}, errors.Join(ErrInvalidTimeOfDay, fmt.Errorf("out of range: %q", s))
	}
	return tod, nil
}

// String returns the HH:MM form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns the offset from midnight in minutes.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// ParseWeekday converts a day name ("MONDAY", "monday", "Mon") into a time.Weekday.
func ParseWeekday(s string) (time.Weekday, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SUNDAY", "SUN":
		return time.Sunday, nil
	case "MONDAY", "MON":
		return time.Monday, nil
	case "TUESDAY", "TUE":
		return time.Tuesday, nil
	case "WEDNESDAY", "WED":
		return time.Wednesday, nil
	case "THURSDAY", "THU":
		return time.Thursday, nil
	case "FRIDAY", "FRI":
		return time.Friday, nil
	case "SATURDAY", "SAT":
		return time.Saturday, nil
	}
	return 0, errors.Join(ErrInvalidWeekday, fmt.Errorf("unknown weekday %q", s))
}

// Time restricts access to a window of wall-clock time and a set of
// weekdays, interpreted in a configurable timezone.
//
// Start/End may describe an overnight window (e.g. 22:00-06:00), in
// which case the window wraps past midnight. Nil Start and End means
// no time-of-day bound. An empty AllowedDays set means every day is
// allowed.
type Time struct {
	Start             *TimeOfDay     `json:"start,omitempty" yaml:"start,omitempty"`
	End               *TimeOfDay     `json:"end,omitempty" yaml:"end,omitempty"`
	AllowedDays       []time.Weekday `json:"allowed_days,omitempty" yaml:"allowed_days,omitempty"`
	Timezone          string         `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	BusinessHoursOnly bool           `json:"business_hours_only,omitempty" yaml:"business_hours_only,omitempty"`
}

// Allows reports whether the restriction permits access at the given
// instant. An unknown timezone denies rather than silently falling
// back to UTC.
func (r *Time) Allows(now time.Time) bool {
	local := now
	if r.Timezone != "" {
		loc, err := time.LoadLocation(r.Timezone)
		if err != nil {
			return false
		}
		local = now.In(loc)
	}

	if len(r.AllowedDays) > 0 {
		allowed := false
		for _, day := range r.AllowedDays {
			if local.Weekday() == day {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	if r.Start != nil && r.End != nil && !withinWindow(local, *r.Start, *r.End) {
		return false
	}

	if r.BusinessHoursOnly {
		if local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
			return false
		}
		if !withinWindow(local, businessStart, businessEnd) {
			return false
		}
	}

	return true
}

func withinWindow(t time.Time, start, end TimeOfDay) bool {
	minute := t.Hour()*60 + t.Minute()
	s, e := start.Minutes(), end.Minutes()
	if s <= e {
		return minute >= s && minute <= e
	}
	// Overnight window, e.g. 22:00-06:00.
	return minute >= s || minute <= e
}
