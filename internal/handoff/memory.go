package handoff

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]Pending
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]Pending),
	}
}

// Put stores the pending draft for a policy, replacing any prior value.
func (s *MemoryStore) Put(ctx context.Context, policyID string, pending Pending) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[policyID] = pending
	return nil
}

// TakeIfPresent returns and removes the pending draft for a policy.
func (s *MemoryStore) TakeIfPresent(ctx context.Context, policyID string) (Pending, bool, error) {
	if err := ctx.Err(); err != nil {
		return Pending{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pending, ok := s.data[policyID]
	if !ok {
		return Pending{}, false, nil
	}
	delete(s.data, policyID)
	return pending, true, nil
}

// Drop discards any pending draft for a policy.
func (s *MemoryStore) Drop(ctx context.Context, policyID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, policyID)
	return nil
}

var _ Store = (*MemoryStore)(nil)
