package store

import (
	"context"
	"sort"
	"sync"

	"github.com/flarepay/paylink/types"
)

// MemoryStore keeps records in a mutex-guarded map. Records are deep-copied on
// the way in and out, so a reader can never observe a partially applied merge.
// It backs tests and single-process embedders; durable deployments use BunStore.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*types.PaymentRequest
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*types.PaymentRequest),
	}
}

func (m *MemoryStore) Put(_ context.Context, rec *types.PaymentRequest) error {
	if rec == nil || rec.ID == "" {
		return types.NewError(types.ErrInvalidInput, "record id cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec.Clone()
	return nil
}

func (m *MemoryStore) Merge(_ context.Context, id string, patch types.PaymentPatch) (*types.PaymentRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, notFound(id)
	}

	merged := rec.Clone()
	patch.Apply(merged)
	m.records[id] = merged
	return merged.Clone(), nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*types.PaymentRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, notFound(id)
	}
	return rec.Clone(), nil
}

func (m *MemoryStore) List(_ context.Context, filter types.ListFilter) ([]*types.PaymentRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*types.PaymentRequest, 0, len(m.records))
	for _, rec := range m.records {
		if filter.Matches(rec) {
			out = append(out, rec.Clone())
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
