// Package authz implements the policy decision engine: a role-based,
// attribute-based, delegation-aware authorization core.
//
// The engine answers "may this principal perform this action on this
// resource" by combining three independent authority sources, tried in
// order:
//
//   - direct permission grants
//   - role-derived permissions (with role inheritance)
//   - delegations received from other principals (full or partial)
//
// The first candidate permission that matches the request and passes
// the full constraint chain wins. The chain is evaluated in a fixed
// order: clearance level, resource data classification, time
// restriction, geographic restriction, attribute constraints, dynamic
// condition expression.
//
// The ordering determines which reason is reported, not whether access
// is ultimately granted; the decision is a logical OR across sources.
//
// The engine is fail-closed throughout. A fault evaluating one
// candidate (malformed constraint document, broken expression,
// unreachable delegator) eliminates only that candidate; a fault
// fetching the principal or resource denies the whole request. No
// fault ever results in a grant, and Authorize never returns an error
// to the caller: faults are logged and surface as denials.
//
// Each call evaluates an immutable snapshot fetched from the
// directories, so arbitrarily many calls can run concurrently. Only
// the membership queries (HasPermission, HasRole, UserPermissions) are
// cached; full decisions depend on request context and are never
// reused.
//
// Basic usage:
//
//	engine := authz.New(principals, resources,
//	    authz.WithCache(permcache.NewMemory()),
//	    authz.WithAuditSink(recorder),
//	)
//
//	result := engine.Authorize(ctx, authz.Request{
//	    PrincipalID: "u1",
//	    Action:      "edit",
//	    ResourceID:  "doc-42",
//	    ClientIP:    "10.0.0.1",
//	})
//	if result.Granted {
//	    // proceed; result.Reason names the authority source
//	}
package authz
