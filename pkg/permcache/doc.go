// Package permcache caches membership-query results keyed by
// principal: "does principal P hold permission X", "does P hold role
// R", and "which permission names does P hold".
//
// Only membership results belong here. Full authorization decisions
// depend on request context (client IP, target resource, time of day)
// and are never cached.
//
// Caches are safe for concurrent use. Population races are benign:
// concurrent first reads may compute the same value redundantly, and
// duplicate puts of the same key are idempotent. Invalidation drops
// every entry belonging to a principal and is expected to be called
// synchronously after any grant, role assignment, or delegation
// change affecting that principal.
package permcache
