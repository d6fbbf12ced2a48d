package permcache

import "context"

// Value is a cached membership result: either a boolean answer or a
// list of permission names, depending on the query kind.
type Value struct {
	Bool  bool     `json:"bool,omitempty"`
	Names []string `json:"names,omitempty"`
}

// Cache stores membership-query results per principal.
type Cache interface {
	// Get returns the cached value for a principal-scoped key.
	Get(ctx context.Context, principalID, key string) (Value, bool)

	// Put stores a value for a principal-scoped key. Duplicate writes
	// of the same key must be idempotent.
	Put(ctx context.Context, principalID, key string, v Value)

	// Invalidate drops all entries for the principal. It must be
	// called after any assignment change so stale authority is never
	// served.
	Invalidate(ctx context.Context, principalID string) error
}

// Noop is a Cache that stores nothing. Useful when caching is
// disabled or handled elsewhere.
type Noop struct{}

// Get always misses.
func (Noop) Get(context.Context, string, string) (Value, bool) { return Value{}, false }

// Put discards the value.
func (Noop) Put(context.Context, string, string, Value) {}

// Invalidate does nothing.
func (Noop) Invalidate(context.Context, string) error { return nil }
