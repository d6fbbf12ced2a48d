package directory

import (
	"context"
	"sync"

	"github.com/dmitrymomot/authzkit/pkg/authz"
)

// Memory is an in-process policy store. Stored snapshots are treated
// as immutable: replace an entry with PutPrincipal rather than
// mutating one the engine may be reading.
type Memory struct {
	mu         sync.RWMutex
	principals map[string]*authz.Principal
	resources  map[string]*authz.Resource
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		principals: make(map[string]*authz.Principal),
		resources:  make(map[string]*authz.Resource),
	}
}

// Principal implements authz.PrincipalDirectory.
func (m *Memory) Principal(_ context.Context, id string) (*authz.Principal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.principals[id]
	if !ok {
		return nil, authz.ErrNotFound
	}
	return p, nil
}

// Resource implements authz.ResourceDirectory.
func (m *Memory) Resource(_ context.Context, id string) (*authz.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.resources[id]
	if !ok {
		return nil, authz.ErrNotFound
	}
	return r, nil
}

// PutPrincipal stores or replaces a principal snapshot.
func (m *Memory) PutPrincipal(p *authz.Principal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.principals[p.ID] = p
}

// PutResource stores or replaces a resource snapshot.
func (m *Memory) PutResource(r *authz.Resource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources[r.ID] = r
}

// DeletePrincipal removes a principal.
func (m *Memory) DeletePrincipal(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.principals, id)
}

// DeleteResource removes a resource.
func (m *Memory) DeleteResource(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.resources, id)
}
