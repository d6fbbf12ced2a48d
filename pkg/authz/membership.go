package authz

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/dmitrymomot/authzkit/pkg/permcache"
)

// Cache key layout for membership queries. Invalidation is per
// principal, so the key only needs to distinguish query kinds.
const (
	permKeyPrefix = "perm:"
	roleKeyPrefix = "role:"
	namesKey      = "names"
)

// HasPermission reports whether the principal currently holds the
// named permission through any source: direct grants, roles, or
// delegations. Constraint chains are not evaluated; this answers
// "holds", not "may use right now". Results are cached per principal.
func (e *Engine) HasPermission(ctx context.Context, principalID, name string) bool {
	key := permKeyPrefix + name
	if v, ok := e.cache.Get(ctx, principalID, key); ok {
		return v.Bool
	}

	names, ok := e.permissionNames(ctx, principalID, 0)
	if !ok {
		return false
	}

	has := holdsName(names, name)
	e.cache.Put(ctx, principalID, key, permcache.Value{Bool: has})
	return has
}

// HasRole reports whether the principal has an effective assignment of
// the named role. Results are cached per principal.
func (e *Engine) HasRole(ctx context.Context, principalID, roleName string) bool {
	key := roleKeyPrefix + roleName
	if v, ok := e.cache.Get(ctx, principalID, key); ok {
		return v.Bool
	}

	principal, err := e.principals.Principal(ctx, principalID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			e.log.ErrorContext(ctx, "principal lookup failed",
				slog.String("principal_id", principalID), slog.Any("error", err))
			return false
		}
		principal = nil
	}
	if !principal.Accessible() {
		return false
	}

	has := slices.Contains(principal.ActiveRoleNames(e.clock.Now()), roleName)
	e.cache.Put(ctx, principalID, key, permcache.Value{Bool: has})
	return has
}

// UserPermissions returns the sorted, deduplicated names of every
// permission the principal currently holds across all sources. An
// unknown or inaccessible principal yields an empty set. Results are
// cached per principal.
func (e *Engine) UserPermissions(ctx context.Context, principalID string) []string {
	if v, ok := e.cache.Get(ctx, principalID, namesKey); ok {
		return v.Names
	}

	names, ok := e.permissionNames(ctx, principalID, 0)
	if !ok {
		return nil
	}

	e.cache.Put(ctx, principalID, namesKey, permcache.Value{Names: names})
	return names
}

// InvalidatePrincipal drops every cached membership result for the
// principal. Call it after any role, grant, or delegation change.
func (e *Engine) InvalidatePrincipal(ctx context.Context, principalID string) error {
	return e.cache.Invalidate(ctx, principalID)
}

// permissionNames collects the principal's held permission names. The
// second return is false only on a directory fault, in which case
// nothing may be cached; a clean "unknown principal" answer is an
// empty set with ok true.
func (e *Engine) permissionNames(ctx context.Context, principalID string, depth int) ([]string, bool) {
	principal, err := e.principals.Principal(ctx, principalID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, true
		}
		e.log.ErrorContext(ctx, "principal lookup failed",
			slog.String("principal_id", principalID), slog.Any("error", err))
		return nil, false
	}
	if !principal.Accessible() {
		return nil, true
	}

	now := e.clock.Now()
	set := make(map[string]struct{})

	for _, grant := range principal.Grants {
		if grant.EffectiveAt(now) {
			set[grant.Permission.Name] = struct{}{}
		}
	}

	for _, assignment := range principal.RoleAssignments {
		if !assignment.EffectiveAt(now) {
			continue
		}
		for _, perm := range assignment.Role.AllPermissions() {
			if perm.Enabled() {
				set[perm.Name] = struct{}{}
			}
		}
	}

	for _, d := range principal.Delegations {
		if !d.EffectiveAt(now) {
			continue
		}
		if d.Full {
			if depth >= e.maxDepth {
				continue
			}
			delegated, ok := e.permissionNames(ctx, d.DelegatorID, depth+1)
			if !ok {
				// Candidate-scoped fault: skip this delegation, keep
				// the rest of the answer usable.
				continue
			}
			for _, name := range delegated {
				set[name] = struct{}{}
			}
			continue
		}
		for _, perm := range d.Permissions {
			if perm.Enabled() {
				set[perm.Name] = struct{}{}
			}
		}
	}

	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, true
}

// holdsName matches a queried permission name against the held set,
// honoring wildcard names the principal may hold (e.g. "document.*").
func holdsName(held []string, name string) bool {
	for _, h := range held {
		if MatchPattern(h, name) {
			return true
		}
	}
	return false
}
