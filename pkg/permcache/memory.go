package permcache

import (
	"context"
	"hash/fnv"
	"sync"
)

const memoryShards = 16

// Memory is a sharded in-process Cache. Sharding by principal keeps
// invalidation a single-lock operation and spreads read contention
// across independent RWMutexes.
type Memory struct {
	shards [memoryShards]memoryShard
}

type memoryShard struct {
	mu         sync.RWMutex
	principals map[string]map[string]Value
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	m := &Memory{}
	for i := range m.shards {
		m.shards[i].principals = make(map[string]map[string]Value)
	}
	return m
}

func (m *Memory) shard(principalID string) *memoryShard {
	h := fnv.New32a()
	h.Write([]byte(principalID))
	return &m.shards[h.Sum32()%memoryShards]
}

// Get returns the cached value for the principal-scoped key.
func (m *Memory) Get(_ context.Context, principalID, key string) (Value, bool) {
	s := m.shard(principalID)
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.principals[principalID]
	if !ok {
		return Value{}, false
	}
	v, ok := entries[key]
	return v, ok
}

// Put stores the value. Writing the same key twice overwrites in place.
func (m *Memory) Put(_ context.Context, principalID, key string, v Value) {
	s := m.shard(principalID)
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.principals[principalID]
	if !ok {
		entries = make(map[string]Value)
		s.principals[principalID] = entries
	}
	entries[key] = v
}

// Invalidate drops every entry for the principal.
func (m *Memory) Invalidate(_ context.Context, principalID string) error {
	s := m.shard(principalID)
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.principals, principalID)
	return nil
}
