package registry

import (
	"context"
	"sync"

	"github.com/rvellem/namewrap/node"
)

type entry struct {
	owner    string
	resolver string
	ttl      uint64
}

// InMemory is a process-local name registry: the authoritative
// {owner, resolver, ttl} map the wrapping engine synchronizes against.
// Intended for tests, examples, and embedded deployments; a production
// deployment points the engine at a real registry client instead.
type InMemory struct {
	mu        sync.RWMutex
	entries   map[node.ID]entry
	approvals map[string]map[string]bool
}

// NewInMemory returns an empty registry. The root node has no owner until
// one is assigned with SetOwner.
func NewInMemory() *InMemory {
	return &InMemory{
		entries:   make(map[node.ID]entry),
		approvals: make(map[string]map[string]bool),
	}
}

func (m *InMemory) Owner(_ context.Context, id node.ID) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[id].owner, nil
}

func (m *InMemory) SetOwner(_ context.Context, id node.ID, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entries[id]
	e.owner = owner
	m.entries[id] = e
	return nil
}

func (m *InMemory) Resolver(_ context.Context, id node.ID) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[id].resolver, nil
}

func (m *InMemory) SetResolver(_ context.Context, id node.ID, resolver string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entries[id]
	e.resolver = resolver
	m.entries[id] = e
	return nil
}

func (m *InMemory) TTL(_ context.Context, id node.ID) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[id].ttl, nil
}

func (m *InMemory) SetTTL(_ context.Context, id node.ID, ttl uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entries[id]
	e.ttl = ttl
	m.entries[id] = e
	return nil
}

func (m *InMemory) SetSubnodeOwner(_ context.Context, parent node.ID, label node.LabelHash, owner string) (node.ID, error) {
	child := node.SubnodeFromHash(parent, label)
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entries[child]
	e.owner = owner
	m.entries[child] = e
	return child, nil
}

func (m *InMemory) IsApprovedForAll(_ context.Context, owner, operator string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.approvals[owner][operator], nil
}

// SetApprovalForAll grants or revokes registry-level blanket approval.
func (m *InMemory) SetApprovalForAll(_ context.Context, owner, operator string, approved bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ops := m.approvals[owner]
	if ops == nil {
		if !approved {
			return nil
		}
		ops = make(map[string]bool)
		m.approvals[owner] = ops
	}
	if approved {
		ops[operator] = true
	} else {
		delete(ops, operator)
	}
	return nil
}
