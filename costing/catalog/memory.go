// Package catalog provides Catalog implementations.
package catalog

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/warp/costing-engine/costing"
)

// =============================================================================
// MEMORY CATALOG - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	resources map[key]costing.Resource
}

type key struct {
	Kind costing.ResourceKind
	ID   costing.ResourceID
}

func NewMemory() *Memory {
	return &Memory{resources: make(map[key]costing.Resource)}
}

// Put adds or replaces a resource. Rows already materialized keep their
// price snapshot; only future materializations see the new price.
func (m *Memory) Put(r costing.Resource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources[key{Kind: r.Kind, ID: r.ID}] = r
}

// UnitPrice implements costing.Catalog.
func (m *Memory) UnitPrice(_ context.Context, kind costing.ResourceKind, id costing.ResourceID) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.resources[key{Kind: kind, ID: id}]
	if !ok {
		return decimal.Zero, &costing.NotFoundError{Kind: string(kind), ID: string(id)}
	}
	return r.UnitPrice, nil
}

// Resources returns all catalog entries (for scenario listings).
func (m *Memory) Resources() []costing.Resource {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]costing.Resource, 0, len(m.resources))
	for _, r := range m.resources {
		out = append(out, r)
	}
	return out
}
