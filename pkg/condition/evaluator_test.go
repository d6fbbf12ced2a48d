package condition_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authzkit/pkg/condition"
	"github.com/dmitrymomot/authzkit/pkg/restriction"
)

// wednesdayMorning is 2024-01-03 10:30 UTC.
var wednesdayMorning = time.Date(2024, 1, 3, 10, 30, 0, 0, time.UTC)

func newEvaluator(t *testing.T, now time.Time) *condition.Evaluator {
	t.Helper()
	return condition.New(
		condition.WithClock(restriction.FixedClock{T: now}),
		condition.WithEnvironmentTag("test"),
	)
}

func testEnv() condition.Env {
	return condition.Env{
		User: &condition.User{
			ID:         "u1",
			Roles:      []string{"editor", "viewer"},
			Department: "finance",
			Clearance:  "SECRET",
			Tenant:     "t1",
			Active:     true,
		},
		Resource: &condition.Resource{
			ID:             "r1",
			Type:           "document",
			Owner:          "u1",
			Department:     "finance",
			Classification: "INTERNAL",
			Region:         "eu-west",
			Project:        "p1",
			Active:         true,
			Attributes:     map[string]string{"team": "blue"},
		},
		Request: &condition.Request{
			Action:      "edit",
			ClientIP:    "10.0.0.1",
			UserAgent:   "test-agent",
			SessionID:   "s1",
			Tenant:      "t1",
			CountryCode: "US",
			Context:     map[string]any{"channel": "api"},
			Attributes:  map[string]string{"origin": "gateway"},
		},
	}
}

func TestEvaluator_Evaluate(t *testing.T) {
	eval := newEvaluator(t, wednesdayMorning)
	env := testEnv()

	tests := []struct {
		name       string
		expression string
		want       bool
	}{
		{"empty expression passes", "", true},
		{"user field equality", `user.department == "finance"`, true},
		{"user hasRole method", `user.hasRole("editor")`, true},
		{"user hasRole negative", `user.hasRole("admin")`, false},
		{"resource ownership", `resource.owner == user.id`, true},
		{"resource attribute lookup", `resource.getAttribute("team") == "blue"`, true},
		{"resource hasAttribute", `resource.hasAttribute("team") && !resource.hasAttribute("color")`, true},
		{"request fields", `request.action == "edit" && request.countryCode in ["US", "CA"]`, true},
		{"request context lookup", `request.context("channel") == "api"`, true},
		{"request attribute lookup", `request.attribute("origin") == "gateway"`, true},
		{"time helpers weekday", `time.isWeekday() && !time.isWeekend()`, true},
		{"time hour", `time.hour() == 10`, true},
		{"time day of week", `time.dayOfWeek() == "WEDNESDAY"`, true},
		{"top level isWeekday", `isWeekday()`, true},
		{"top level business hours", `isBusinessHours()`, true},
		{"time range helper", `isWithinTimeRange("09:00", "17:00")`, true},
		{"time range helper outside", `isWithinTimeRange("11:00", "12:00")`, false},
		{"hasRole helper", `hasRole(user, "viewer")`, true},
		{"inDepartment helper", `inDepartment(user, "finance")`, true},
		{"inDepartment helper negative", `inDepartment(user, "hr")`, false},
		{"env tag", `env.environment == "test"`, true},
		{"combined policy", `user.department == "finance" && resource.owner == user.id && !time.isWeekend()`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.Evaluate(context.Background(), tt.expression, env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluator_Evaluate_Faults(t *testing.T) {
	eval := newEvaluator(t, wednesdayMorning)
	env := testEnv()

	t.Run("malformed expression denies with compile error", func(t *testing.T) {
		got, err := eval.Evaluate(context.Background(), `user.department ==`, env)
		assert.False(t, got)
		assert.ErrorIs(t, err, condition.ErrCompile)
	})

	t.Run("unknown variable denies", func(t *testing.T) {
		got, err := eval.Evaluate(context.Background(), `nonexistent.field == 1`, env)
		assert.False(t, got)
		assert.Error(t, err)
	})

	t.Run("referencing absent resource denies", func(t *testing.T) {
		noResource := env
		noResource.Resource = nil
		got, err := eval.Evaluate(context.Background(), `resource.owner == user.id`, noResource)
		assert.False(t, got)
		assert.Error(t, err)
	})

	t.Run("weekend denies business hours", func(t *testing.T) {
		saturday := time.Date(2024, 1, 6, 10, 0, 0, 0, time.UTC)
		weekendEval := newEvaluator(t, saturday)
		got, err := weekendEval.Evaluate(context.Background(), `isBusinessHours()`, env)
		require.NoError(t, err)
		assert.False(t, got)
	})

	t.Run("timeout denies", func(t *testing.T) {
		tight := condition.New(
			condition.WithClock(restriction.FixedClock{T: wednesdayMorning}),
			condition.WithTimeout(time.Nanosecond),
		)
		got, err := tight.Evaluate(context.Background(), `sum(map(1..100000, # * 2)) > 0`, env)
		assert.False(t, got)
		assert.ErrorIs(t, err, condition.ErrTimeout)
	})

	t.Run("cancelled context denies", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		// A cancelled context may still lose the race against a fast
		// expression; only assert the deny on error.
		got, err := eval.Evaluate(ctx, `sum(map(1..100000, # * 2)) > 0`, env)
		if err != nil {
			assert.False(t, got)
		}
	})
}

func TestEvaluator_ProgramCacheReuse(t *testing.T) {
	eval := newEvaluator(t, wednesdayMorning)
	env := testEnv()

	// Same expression twice: second run hits the compiled-program cache
	// and must produce the same result.
	for range 2 {
		got, err := eval.Evaluate(context.Background(), `user.hasRole("editor")`, env)
		require.NoError(t, err)
		assert.True(t, got)
	}
}
