package permcache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "authz:membership"

// DefaultTTL bounds staleness for deployments where an invalidation
// event might be missed; explicit Invalidate remains the primary
// coherence mechanism.
const DefaultTTL = 5 * time.Minute

// Redis is a Cache backed by a shared Redis instance, letting several
// engine replicas share membership results and invalidations.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

// RedisOption configures a Redis cache.
type RedisOption func(*Redis)

// WithTTL overrides the entry TTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithLogger sets the logger for cache I/O faults.
func WithLogger(log *slog.Logger) RedisOption {
	return func(r *Redis) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRedis creates a Redis-backed cache around an established client.
func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		ttl:    DefaultTTL,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func redisKey(principalID, key string) string {
	return fmt.Sprintf("%s:%s:%s", redisKeyPrefix, principalID, key)
}

// Get fetches and decodes the cached value. Any Redis or decode fault
// is treated as a miss so the caller recomputes; a cache can never be
// the reason a decision fails.
func (r *Redis) Get(ctx context.Context, principalID, key string) (Value, bool) {
	raw, err := r.client.Get(ctx, redisKey(principalID, key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.log.WarnContext(ctx, "permcache: redis get failed",
				slog.String("principal_id", principalID), slog.Any("error", err))
		}
		return Value{}, false
	}

	var v Value
	if err := json.Unmarshal(raw, &v); err != nil {
		r.log.WarnContext(ctx, "permcache: corrupt cache entry",
			slog.String("principal_id", principalID), slog.Any("error", err))
		return Value{}, false
	}
	return v, true
}

// Put stores the value with the configured TTL. Write faults are
// logged and swallowed; the next read just misses.
func (r *Redis) Put(ctx context.Context, principalID, key string, v Value) {
	raw, err := json.Marshal(v)
	if err != nil {
		r.log.WarnContext(ctx, "permcache: marshal failed", slog.Any("error", err))
		return
	}
	if err := r.client.Set(ctx, redisKey(principalID, key), raw, r.ttl).Err(); err != nil {
		r.log.WarnContext(ctx, "permcache: redis set failed",
			slog.String("principal_id", principalID), slog.Any("error", err))
	}
}

// Invalidate deletes every key for the principal via SCAN so the
// operation stays incremental on large keyspaces.
func (r *Redis) Invalidate(ctx context.Context, principalID string) error {
	pattern := fmt.Sprintf("%s:%s:*", redisKeyPrefix, principalID)

	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("permcache: scan %q: %w", pattern, err)
	}

	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("permcache: delete for principal %s: %w", principalID, err)
	}
	return nil
}
