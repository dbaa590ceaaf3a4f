package policies

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu       sync.RWMutex
	policies map[string]Policy    // policyID -> policy
	contacts map[string][]Contact // policyID -> contacts
	items    map[string][]CoverageItem
	details  map[string][]PolicyDetail
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		policies: make(map[string]Policy),
		contacts: make(map[string][]Contact),
		items:    make(map[string][]CoverageItem),
		details:  make(map[string][]PolicyDetail),
	}
}

// Create stores a new policy.
func (r *MemoryRepo) Create(ctx context.Context, policy Policy) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[policy.ID] = policy
	return nil
}

// GetByID returns a policy owned by the user.
func (r *MemoryRepo) GetByID(ctx context.Context, userId, policyID string) (Policy, error) {
	if err := ctx.Err(); err != nil {
		return Policy{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	policy, ok := r.policies[policyID]
	if !ok || policy.UserID != userId {
		return Policy{}, ErrNotFound
	}
	return policy, nil
}

// ListByUser returns policies for a user, newest first.
func (r *MemoryRepo) ListByUser(ctx context.Context, userId string, limit, offset int) ([]Policy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	var out []Policy
	for _, policy := range r.policies {
		if policy.UserID == userId {
			out = append(out, policy)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if offset >= len(out) {
		return []Policy{}, nil
	}
	end := len(out)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}

// Update replaces a stored policy.
func (r *MemoryRepo) Update(ctx context.Context, policy Policy) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.policies[policy.ID]; !ok {
		return ErrNotFound
	}
	r.policies[policy.ID] = policy
	return nil
}

// AddContact appends a contact to a policy.
func (r *MemoryRepo) AddContact(ctx context.Context, contact Contact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contacts[contact.PolicyID] = append(r.contacts[contact.PolicyID], contact)
	return nil
}

// ListContacts returns the contacts attached to a policy.
func (r *MemoryRepo) ListContacts(ctx context.Context, policyID string) ([]Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Contact, len(r.contacts[policyID]))
	copy(out, r.contacts[policyID])
	return out, nil
}

// AddCoverageItem appends a coverage item to a policy.
func (r *MemoryRepo) AddCoverageItem(ctx context.Context, item CoverageItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.PolicyID] = append(r.items[item.PolicyID], item)
	return nil
}

// ListCoverageItems returns the coverage items attached to a policy.
func (r *MemoryRepo) ListCoverageItems(ctx context.Context, policyID string) ([]CoverageItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]CoverageItem, len(r.items[policyID]))
	copy(out, r.items[policyID])
	return out, nil
}

// AddDetail appends a detail field to a policy.
func (r *MemoryRepo) AddDetail(ctx context.Context, detail PolicyDetail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.details[detail.PolicyID] = append(r.details[detail.PolicyID], detail)
	return nil
}

// ListDetails returns the detail fields attached to a policy.
func (r *MemoryRepo) ListDetails(ctx context.Context, policyID string) ([]PolicyDetail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]PolicyDetail, len(r.details[policyID]))
	copy(out, r.details[policyID])
	return out, nil
}

// ApplyExtraction updates the policy and creates every child record.
func (r *MemoryRepo) ApplyExtraction(ctx context.Context, apply ExtractionApply) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.policies[apply.Policy.ID]; !ok {
		return ErrNotFound
	}
	r.policies[apply.Policy.ID] = apply.Policy
	id := apply.Policy.ID
	r.contacts[id] = append(r.contacts[id], apply.Contacts...)
	r.items[id] = append(r.items[id], apply.CoverageItems...)
	r.details[id] = append(r.details[id], apply.Details...)
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
