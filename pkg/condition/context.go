package condition

import (
	"slices"
	"strings"
	"time"

	"github.com/dmitrymomot/authzkit/pkg/restriction"
)

// User is the principal snapshot exposed to expressions as `user`.
type User struct {
	ID         string
	Roles      []string
	Department string
	Clearance  string
	Tenant     string
	Active     bool
}

// Resource is the resource snapshot exposed to expressions as `resource`.
type Resource struct {
	ID             string
	Type           string
	Owner          string
	Department     string
	Classification string
	Region         string
	Project        string
	Active         bool
	Attributes     map[string]string
}

// Request is the request snapshot exposed to expressions as `request`.
type Request struct {
	Action      string
	ClientIP    string
	UserAgent   string
	SessionID   string
	Tenant      string
	CountryCode string
	Emergency   bool
	Context     map[string]any
	Attributes  map[string]string
}

// Env bundles the snapshots for one evaluation. Nil members are
// omitted from the expression scope, so an expression referencing an
// absent snapshot faults and therefore denies.
type Env struct {
	User     *User
	Resource *Resource
	Request  *Request
}

// scope assembles the variable map handed to the expression VM.
func (e *Evaluator) scope(env Env) map[string]any {
	now := e.clock.Now()

	vars := map[string]any{
		"env": map[string]any{
			"serverTime":  now,
			"hostname":    e.hostname,
			"environment": e.envTag,
		},
		"time": timeScope(now),
	}

	if u := env.User; u != nil {
		vars["user"] = userScope(u)
	}
	if r := env.Resource; r != nil {
		vars["resource"] = resourceScope(r)
	}
	if q := env.Request; q != nil {
		vars["request"] = requestScope(q)
	}

	// Named predicate helpers available at the top level.
	vars["isWeekday"] = func() bool { return isWeekday(now) }
	vars["isBusinessHours"] = func() bool { return isBusinessHours(now) }
	vars["isWithinTimeRange"] = func(start, end string) bool { return isWithinTimeRange(now, start, end) }
	vars["hasRole"] = func(user map[string]any, role string) bool { return scopedHasRole(user, role) }
	vars["inDepartment"] = func(user map[string]any, department string) bool {
		dept, _ := user["department"].(string)
		return dept == department
	}

	return vars
}

func userScope(u *User) map[string]any {
	roles := slices.Clone(u.Roles)
	return map[string]any{
		"id":         u.ID,
		"roles":      roles,
		"department": u.Department,
		"clearance":  u.Clearance,
		"tenant":     u.Tenant,
		"active":     u.Active,
		"hasRole":    func(name string) bool { return slices.Contains(roles, name) },
	}
}

func resourceScope(r *Resource) map[string]any {
	attrs := r.Attributes
	return map[string]any{
		"id":             r.ID,
		"type":           r.Type,
		"owner":          r.Owner,
		"department":     r.Department,
		"classification": r.Classification,
		"region":         r.Region,
		"project":        r.Project,
		"active":         r.Active,
		"hasAttribute": func(name string) bool {
			_, ok := attrs[name]
			return ok
		},
		"getAttribute": func(name string) string { return attrs[name] },
	}
}

func requestScope(q *Request) map[string]any {
	return map[string]any{
		"action":      q.Action,
		"ip":          q.ClientIP,
		"userAgent":   q.UserAgent,
		"sessionId":   q.SessionID,
		"tenant":      q.Tenant,
		"countryCode": q.CountryCode,
		"emergency":   q.Emergency,
		"context":     func(key string) any { return q.Context[key] },
		"attribute":   func(key string) string { return q.Attributes[key] },
	}
}

func timeScope(now time.Time) map[string]any {
	return map[string]any{
		"now":       func() time.Time { return now },
		"dayOfWeek": func() string { return strings.ToUpper(now.Weekday().String()) },
		"hour":      func() int { return now.Hour() },
		"minute":    func() int { return now.Minute() },
		"isWeekend": func() bool { return !isWeekday(now) },
		"isWeekday": func() bool { return isWeekday(now) },
	}
}

func scopedHasRole(user map[string]any, role string) bool {
	roles, _ := user["roles"].([]string)
	return slices.Contains(roles, role)
}

func isWeekday(now time.Time) bool {
	day := now.Weekday()
	return day != time.Saturday && day != time.Sunday
}

func isBusinessHours(now time.Time) bool {
	if !isWeekday(now) {
		return false
	}
	return isWithinTimeRange(now, "09:00", "17:00")
}

func isWithinTimeRange(now time.Time, start, end string) bool {
	s, err := restriction.ParseTimeOfDay(start)
	if err != nil {
		return false
	}
	e, err := restriction.ParseTimeOfDay(end)
	if err != nil {
		return false
	}
	window := restriction.Time{Start: &s, End: &e}
	return window.Allows(now)
}
