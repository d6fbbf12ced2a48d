package restriction_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authzkit/pkg/restriction"
)

// at builds a UTC instant on a given weekday of a known week.
// 2024-01-01 is a Monday.
func at(day time.Weekday, hour, minute int) time.Time {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(day) - int(time.Monday) + 7) % 7
	return base.AddDate(0, 0, offset).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func TestTime_Allows(t *testing.T) {
	nineToFive := &restriction.Time{
		Start:       &restriction.TimeOfDay{Hour: 9},
		End:         &restriction.TimeOfDay{Hour: 17},
		AllowedDays: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
	}

	tests := []struct {
		name string
		r    *restriction.Time
		now  time.Time
		want bool
	}{
		{
			name: "wednesday morning inside window",
			r:    nineToFive,
			now:  at(time.Wednesday, 10, 0),
			want: true,
		},
		{
			name: "saturday denied by weekday set",
			r:    nineToFive,
			now:  at(time.Saturday, 10, 0),
			want: false,
		},
		{
			name: "monday before window",
			r:    nineToFive,
			now:  at(time.Monday, 8, 59),
			want: false,
		},
		{
			name: "window boundary inclusive",
			r:    nineToFive,
			now:  at(time.Friday, 17, 0),
			want: true,
		},
		{
			name: "overnight window late evening",
			r: &restriction.Time{
				Start: &restriction.TimeOfDay{Hour: 22},
				End:   &restriction.TimeOfDay{Hour: 6},
			},
			now:  at(time.Tuesday, 23, 30),
			want: true,
		},
		{
			name: "overnight window early morning",
			r: &restriction.Time{
				Start: &restriction.TimeOfDay{Hour: 22},
				End:   &restriction.TimeOfDay{Hour: 6},
			},
			now:  at(time.Tuesday, 5, 0),
			want: true,
		},
		{
			name: "overnight window midday denied",
			r: &restriction.Time{
				Start: &restriction.TimeOfDay{Hour: 22},
				End:   &restriction.TimeOfDay{Hour: 6},
			},
			now:  at(time.Tuesday, 12, 0),
			want: false,
		},
		{
			name: "empty restriction allows everything",
			r:    &restriction.Time{},
			now:  at(time.Sunday, 3, 0),
			want: true,
		},
		{
			name: "business hours only denies weekend",
			r:    &restriction.Time{BusinessHoursOnly: true},
			now:  at(time.Saturday, 10, 0),
			want: false,
		},
		{
			name: "business hours only allows weekday morning",
			r:    &restriction.Time{BusinessHoursOnly: true},
			now:  at(time.Thursday, 10, 0),
			want: true,
		},
		{
			name: "business hours only denies weekday evening",
			r:    &restriction.Time{BusinessHoursOnly: true},
			now:  at(time.Thursday, 20, 0),
			want: false,
		},
		{
			name: "unknown timezone fails closed",
			r: &restriction.Time{
				Timezone: "Not/AZone",
				Start:    &restriction.TimeOfDay{Hour: 0},
				End:      &restriction.TimeOfDay{Hour: 23, Minute: 59},
			},
			now:  at(time.Monday, 12, 0),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.Allows(tt.now))
		})
	}
}

func TestTime_Allows_Timezone(t *testing.T) {
	// 14:00 UTC is 09:00 in New York (EST, January).
	r := &restriction.Time{
		Start:    &restriction.TimeOfDay{Hour: 9},
		End:      &restriction.TimeOfDay{Hour: 17},
		Timezone: "America/New_York",
	}
	assert.True(t, r.Allows(at(time.Monday, 14, 0)))
	assert.False(t, r.Allows(at(time.Monday, 13, 0)))
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := restriction.ParseTimeOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, restriction.TimeOfDay{Hour: 9, Minute: 30}, tod)
	assert.Equal(t, "09:30", tod.String())

	_, err = restriction.ParseTimeOfDay("25:00")
	require.Error(t, err)
	assert.True(t, errors.Is(err, restriction.ErrInvalidTimeOfDay))

	_, err = restriction.ParseTimeOfDay("noon")
	assert.True(t, errors.Is(err, restriction.ErrInvalidTimeOfDay))
}

func TestParseWeekday(t *testing.T) {
	day, err := restriction.ParseWeekday("MONDAY")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, day)

	day, err = restriction.ParseWeekday("fri")
	require.NoError(t, err)
	assert.Equal(t, time.Friday, day)

	_, err = restriction.ParseWeekday("someday")
	assert.True(t, errors.Is(err, restriction.ErrInvalidWeekday))
}
