package authz

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/authzkit/pkg/abac"
	"github.com/dmitrymomot/authzkit/pkg/condition"
	"github.com/dmitrymomot/authzkit/pkg/permcache"
	"github.com/dmitrymomot/authzkit/pkg/restriction"
)

// Decision reasons reported in Result.Reason. Grant reasons carry the
// matched entity name appended after the prefix; denial reasons are
// returned verbatim. Callers and log pipelines match on these, so they
// are part of the API.
const (
	ReasonDirectPrefix    = "Direct permission: "
	ReasonRolePrefix      = "Role permission: "
	ReasonDelegatedFrom   = "Delegated from: "
	ReasonDelegatedPerm   = "Delegated permission: "
	ReasonEmergencyAccess = "emergency access granted"

	ReasonPrincipalNotAccessible = "principal not accessible"
	ReasonResourceNotAccessible  = "resource not accessible"
	ReasonNoMatch                = "no matching permissions found"
	ReasonEvaluationFailed       = "authorization evaluation failed"
)

const (
	// DefaultMaxDelegationDepth caps transitive full-delegation chains.
	DefaultMaxDelegationDepth = 8

	// maxParallelDecisions bounds fan-out in AuthorizeMultiple.
	maxParallelDecisions = 8
)

// Engine is the policy decision point. Safe for concurrent use; all
// mutable state lives in the injected cache and evaluators, which are
// themselves concurrency-safe.
type Engine struct {
	principals PrincipalDirectory
	resources  ResourceDirectory
	cache      permcache.Cache
	clock      restriction.Clock
	attributes *abac.Evaluator
	conditions *condition.Evaluator
	audit      AuditSink
	emergency  EmergencyPolicy
	log        *slog.Logger
	maxDepth   int
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache sets the membership result cache. Defaults to no caching.
func WithCache(c permcache.Cache) Option {
	return func(e *Engine) {
		if c != nil {
			e.cache = c
		}
	}
}

// WithClock injects the time source used for validity windows, time
// restrictions, and expression helpers.
func WithClock(clock restriction.Clock) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithLogger sets the logger for decisions and evaluation faults.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithAuditSink wires a sink receiving every decision.
func WithAuditSink(sink AuditSink) Option {
	return func(e *Engine) {
		if sink != nil {
			e.audit = sink
		}
	}
}

// WithEmergencyPolicy enables break-glass handling.
func WithEmergencyPolicy(policy EmergencyPolicy) Option {
	return func(e *Engine) { e.emergency = policy }
}

// WithMaxDelegationDepth overrides the transitive delegation cap.
func WithMaxDelegationDepth(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

// WithConditionEvaluator replaces the expression evaluator, e.g. to
// tune its timeout or program cache.
func WithConditionEvaluator(ce *condition.Evaluator) Option {
	return func(e *Engine) {
		if ce != nil {
			e.conditions = ce
		}
	}
}

// WithAttributeEvaluator replaces the constraint document evaluator,
// e.g. to wire a hierarchy resolver.
func WithAttributeEvaluator(ae *abac.Evaluator) Option {
	return func(e *Engine) {
		if ae != nil {
			e.attributes = ae
		}
	}
}

// New creates an Engine over the given directories.
func New(principals PrincipalDirectory, resources ResourceDirectory, opts ...Option) *Engine {
	e := &Engine{
		principals: principals,
		resources:  resources,
		cache:      permcache.Noop{},
		clock:      restriction.SystemClock{},
		audit:      noopAudit{},
		log:        slog.Default(),
		maxDepth:   DefaultMaxDelegationDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.conditions == nil {
		e.conditions = condition.New(condition.WithClock(e.clock))
	}
	if e.attributes == nil {
		e.attributes = abac.New(
			abac.WithClock(e.clock),
			abac.WithConditionEvaluator(e.conditions),
		)
	}
	return e
}

// Authorize answers a single authorization question. It never returns
// an error; every internal fault is logged and collapses to a denial
// with ReasonEvaluationFailed.
func (e *Engine) Authorize(ctx context.Context, req Request) Result {
	result := e.decide(ctx, req)

	e.audit.Record(ctx, req, result)
	e.log.InfoContext(ctx, "authorization decision",
		slog.String("principal_id", req.PrincipalID),
		slog.String("action", req.Action),
		slog.String("resource_id", req.ResourceID),
		slog.Bool("granted", result.Granted),
		slog.String("reason", result.Reason))

	return result
}

// AuthorizeMultiple evaluates one action against many resources
// concurrently and returns a result per resource ID. Each decision is
// independently audited.
func (e *Engine) AuthorizeMultiple(ctx context.Context, principalID, action string, resourceIDs []string) map[string]Result {
	results := make(map[string]Result, len(resourceIDs))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelDecisions)
	for _, id := range resourceIDs {
		g.Go(func() error {
			res := e.Authorize(ctx, Request{
				PrincipalID: principalID,
				Action:      action,
				ResourceID:  id,
			})
			mu.Lock()
			results[id] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (e *Engine) decide(ctx context.Context, req Request) Result {
	principal, err := e.principals.Principal(ctx, req.PrincipalID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Denied(ReasonPrincipalNotAccessible)
		}
		e.log.ErrorContext(ctx, "principal lookup failed",
			slog.String("principal_id", req.PrincipalID), slog.Any("error", err))
		return Denied(ReasonEvaluationFailed)
	}
	if !principal.Accessible() {
		return Denied(ReasonPrincipalNotAccessible)
	}

	var resource *Resource
	if req.ResourceID != "" {
		resource, err = e.resources.Resource(ctx, req.ResourceID)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				e.log.ErrorContext(ctx, "resource lookup failed",
					slog.String("resource_id", req.ResourceID), slog.Any("error", err))
				return Denied(ReasonEvaluationFailed)
			}
			// Unknown resource: evaluate against the request alone.
			resource = nil
		}
		if resource != nil && !resource.Active {
			return Denied(ReasonResourceNotAccessible)
		}
	}

	return e.evaluate(ctx, principal, req, resource, 0)
}

// evaluate tries the authority sources in order for one principal.
// depth tracks transitive full delegations; the top-level call passes
// zero.
func (e *Engine) evaluate(ctx context.Context, principal *Principal, req Request, resource *Resource, depth int) Result {
	if res, ok := e.checkDirect(ctx, principal, req, resource); ok {
		return res
	}
	if res, ok := e.checkRoles(ctx, principal, req, resource); ok {
		return res
	}
	if res, ok := e.checkDelegations(ctx, principal, req, resource, depth); ok {
		return res
	}

	if depth == 0 && req.EmergencyAccess && e.emergency != nil {
		if e.emergency(ctx, principal, req) {
			e.log.WarnContext(ctx, "emergency access granted",
				slog.String("principal_id", principal.ID),
				slog.String("action", req.Action),
				slog.String("resource_id", req.ResourceID))
			return Granted(ReasonEmergencyAccess)
		}
	}

	return Denied(ReasonNoMatch)
}

func (e *Engine) checkDirect(ctx context.Context, principal *Principal, req Request, resource *Resource) (Result, bool) {
	now := e.clock.Now()
	for _, grant := range principal.Grants {
		if !grant.EffectiveAt(now) {
			continue
		}
		if grant.ResourceID != "" && (resource == nil || resource.ID != grant.ResourceID) {
			continue
		}
		perm := grant.Permission
		if !perm.Matches(req, resource) {
			continue
		}
		if e.constraintsPass(ctx, principal, perm, grant.Constraints, req, resource) {
			return Granted(ReasonDirectPrefix + perm.Name), true
		}
	}
	return Result{}, false
}

func (e *Engine) checkRoles(ctx context.Context, principal *Principal, req Request, resource *Resource) (Result, bool) {
	now := e.clock.Now()
	for _, assignment := range principal.RoleAssignments {
		if !assignment.EffectiveAt(now) {
			continue
		}
		role := assignment.Role
		for _, perm := range role.AllPermissions() {
			if !perm.Enabled() || !perm.Matches(req, resource) {
				continue
			}
			if e.constraintsPass(ctx, principal, perm, nil, req, resource) {
				return Granted(ReasonRolePrefix + role.Name + "." + perm.Name), true
			}
		}
	}
	return Result{}, false
}

func (e *Engine) checkDelegations(ctx context.Context, principal *Principal, req Request, resource *Resource, depth int) (Result, bool) {
	now := e.clock.Now()
	for _, d := range principal.Delegations {
		if !d.EffectiveAt(now) {
			continue
		}

		if d.Full {
			if depth >= e.maxDepth {
				e.log.WarnContext(ctx, "delegation depth limit reached",
					slog.String("principal_id", principal.ID),
					slog.String("delegator_id", d.DelegatorID))
				continue
			}
			delegator, err := e.principals.Principal(ctx, d.DelegatorID)
			if err != nil {
				if !errors.Is(err, ErrNotFound) {
					e.log.WarnContext(ctx, "delegator lookup failed",
						slog.String("delegator_id", d.DelegatorID), slog.Any("error", err))
				}
				continue
			}
			if !delegator.Accessible() {
				continue
			}
			if res := e.evaluate(ctx, delegator, req, resource, depth+1); res.Granted {
				return Granted(ReasonDelegatedFrom + d.DelegatorID), true
			}
			continue
		}

		for _, perm := range d.Permissions {
			if !perm.Enabled() || !perm.Matches(req, resource) {
				continue
			}
			if e.constraintsPass(ctx, principal, perm, d.Constraints, req, resource) {
				return Granted(ReasonDelegatedPerm + perm.Name), true
			}
		}
	}
	return Result{}, false
}
