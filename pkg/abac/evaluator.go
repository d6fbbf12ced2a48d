package abac

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/dmitrymomot/authzkit/pkg/condition"
	"github.com/dmitrymomot/authzkit/pkg/restriction"
)

// User is the principal attribute snapshot evaluated by the user and
// relationship categories.
type User struct {
	ID             string
	TenantID       string
	Department     string
	JobTitle       string
	Location       string
	CostCenter     string
	ManagerID      string
	EmployeeNumber string
	Clearance      string
	Roles          []string
	Active         bool
}

// Resource is the resource attribute snapshot. A nil *Resource means
// the request targets no specific instance.
type Resource struct {
	ID             string
	Type           string
	TenantID       string
	OwnerID        string
	DepartmentID   string
	Classification string
	Region         string
	ProjectID      string
	Attributes     map[string]string
	Active         bool
}

// Meta carries the request metadata the environment category needs.
type Meta struct {
	ClientIP string
}

// HierarchyResolver answers whether the principal sits within the
// resource's organizational hierarchy. The default resolver reports
// false, so an inHierarchy requirement denies until a real resolver is
// wired.
type HierarchyResolver func(ctx context.Context, user *User, resource *Resource) (bool, error)

// Evaluator evaluates constraint documents. Safe for concurrent use.
type Evaluator struct {
	clock      restriction.Clock
	conditions *condition.Evaluator
	hierarchy  HierarchyResolver
	patterns   *patternCache
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithClock injects the time source for the environment category.
func WithClock(clock restriction.Clock) Option {
	return func(e *Evaluator) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithConditionEvaluator sets the evaluator used for the expression
// category. Sharing one instance with the engine keeps a single
// compiled-program cache.
func WithConditionEvaluator(ce *condition.Evaluator) Option {
	return func(e *Evaluator) {
		if ce != nil {
			e.conditions = ce
		}
	}
}

// WithHierarchyResolver wires an organizational hierarchy lookup.
func WithHierarchyResolver(resolver HierarchyResolver) Option {
	return func(e *Evaluator) {
		if resolver != nil {
			e.hierarchy = resolver
		}
	}
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		clock:     restriction.SystemClock{},
		hierarchy: func(context.Context, *User, *Resource) (bool, error) { return false, nil },
		patterns:  newPatternCache(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.conditions == nil {
		e.conditions = condition.New(condition.WithClock(e.clock))
	}
	return e
}

// Evaluate checks the document against the snapshots. It returns
// (false, err) on a fault (malformed pattern, bad time range,
// expression fault) and (false, nil) on a plain mismatch; both mean
// the candidate is denied, the error exists for logging.
func (e *Evaluator) Evaluate(ctx context.Context, doc *Document, user *User, resource *Resource, meta Meta) (bool, error) {
	if doc.Empty() {
		return true, nil
	}
	if user == nil {
		return false, fmt.Errorf("abac: nil user snapshot")
	}

	if doc.User != nil {
		ok, err := e.evaluateUser(doc.User, user)
		if err != nil || !ok {
			return false, err
		}
	}

	if doc.Resource != nil && resource != nil {
		if !evaluateResource(doc.Resource, resource) {
			return false, nil
		}
	}

	if doc.Environment != nil {
		ok, err := e.evaluateEnvironment(doc.Environment, meta)
		if err != nil || !ok {
			return false, err
		}
	}

	if doc.Relationship != nil && resource != nil {
		ok, err := e.evaluateRelationship(ctx, doc.Relationship, user, resource)
		if err != nil || !ok {
			return false, err
		}
	}

	if doc.Expression != "" {
		ok, err := e.conditions.Evaluate(ctx, doc.Expression, condition.Env{
			User:     conditionUser(user),
			Resource: conditionResource(resource),
		})
		if err != nil || !ok {
			return false, err
		}
	}

	return true, nil
}

func (e *Evaluator) evaluateUser(c *UserConstraint, user *User) (bool, error) {
	if c.Department != nil && *c.Department != user.Department {
		return false, nil
	}
	if c.JobTitle != nil && *c.JobTitle != user.JobTitle {
		return false, nil
	}
	if c.Location != nil && *c.Location != user.Location {
		return false, nil
	}
	if c.CostCenter != nil && *c.CostCenter != user.CostCenter {
		return false, nil
	}
	if c.ManagerID != nil && *c.ManagerID != user.ManagerID {
		return false, nil
	}
	if c.EmployeeNumberPattern != nil {
		re, err := e.patterns.get(*c.EmployeeNumberPattern)
		if err != nil {
			return false, errors.Join(ErrBadPattern, err)
		}
		if user.EmployeeNumber == "" || !re.MatchString(user.EmployeeNumber) {
			return false, nil
		}
	}
	return true, nil
}

func evaluateResource(c *ResourceConstraint, resource *Resource) bool {
	if c.OwnerID != nil && *c.OwnerID != resource.OwnerID {
		return false
	}
	if c.DepartmentID != nil && *c.DepartmentID != resource.DepartmentID {
		return false
	}
	if c.Classification != nil && *c.Classification != resource.Classification {
		return false
	}
	if c.Region != nil && *c.Region != resource.Region {
		return false
	}
	if c.ProjectID != nil && *c.ProjectID != resource.ProjectID {
		return false
	}
	for name, want := range c.Attributes {
		if resource.Attributes[name] != want {
			return false
		}
	}
	return true
}

func (e *Evaluator) evaluateEnvironment(c *EnvironmentConstraint, meta Meta) (bool, error) {
	now := e.clock.Now()

	if c.TimeRange != nil {
		start, err := restriction.ParseTimeOfDay(c.TimeRange.Start)
		if err != nil {
			return false, errors.Join(ErrBadTimeRange, err)
		}
		end, err := restriction.ParseTimeOfDay(c.TimeRange.End)
		if err != nil {
			return false, errors.Join(ErrBadTimeRange, err)
		}
		window := restriction.Time{Start: &start, End: &end}
		if !window.Allows(now) {
			return false, nil
		}
	}

	if len(c.AllowedDays) > 0 {
		allowed := false
		for _, name := range c.AllowedDays {
			day, err := restriction.ParseWeekday(name)
			if err != nil {
				return false, errors.Join(ErrBadDay, err)
			}
			if now.Weekday() == day {
				allowed = true
			}
		}
		if !allowed {
			return false, nil
		}
	}

	if len(c.IPRanges) > 0 {
		if meta.ClientIP == "" {
			// A network constraint cannot be proven without a client IP.
			return false, nil
		}
		geo := restriction.Geo{AllowedNetworks: c.IPRanges}
		if !geo.AllowsIP(meta.ClientIP) {
			return false, nil
		}
	}

	return true, nil
}

func (e *Evaluator) evaluateRelationship(ctx context.Context, c *RelationshipConstraint, user *User, resource *Resource) (bool, error) {
	if c.IsOwner != nil && *c.IsOwner && user.ID != resource.OwnerID {
		return false, nil
	}
	if c.SameDepartment != nil && *c.SameDepartment && user.Department != resource.DepartmentID {
		return false, nil
	}
	if c.SameTenant != nil && *c.SameTenant && user.TenantID != resource.TenantID {
		return false, nil
	}
	if c.InHierarchy != nil && *c.InHierarchy {
		within, err := e.hierarchy(ctx, user, resource)
		if err != nil {
			return false, fmt.Errorf("abac: hierarchy resolver: %w", err)
		}
		if !within {
			return false, nil
		}
	}
	return true, nil
}

func conditionUser(u *User) *condition.User {
	return &condition.User{
		ID:         u.ID,
		Roles:      u.Roles,
		Department: u.Department,
		Clearance:  u.Clearance,
		Tenant:     u.TenantID,
		Active:     u.Active,
	}
}

func conditionResource(r *Resource) *condition.Resource {
	if r == nil {
		return nil
	}
	return &condition.Resource{
		ID:             r.ID,
		Type:           r.Type,
		Owner:          r.OwnerID,
		Department:     r.DepartmentID,
		Classification: r.Classification,
		Region:         r.Region,
		Project:        r.ProjectID,
		Active:         r.Active,
		Attributes:     r.Attributes,
	}
}

// patternCache memoizes compiled employee number patterns. Policies
// reuse a handful of patterns, so an unbounded map keyed by source is
// fine here.
type patternCache struct {
	mu       sync.RWMutex
	compiled map[string]*regexp.Regexp
}

func newPatternCache() *patternCache {
	return &patternCache{compiled: make(map[string]*regexp.Regexp)}
}

func (c *patternCache) get(pattern string) (*regexp.Regexp, error) {
	c.mu.RLock()
	re, ok := c.compiled[pattern]
	c.mu.RUnlock()
	if ok {
		return re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.compiled[pattern] = re
	c.mu.Unlock()
	return re, nil
}
