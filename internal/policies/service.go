package policies

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"policyvault-backend/internal/suggestions"
)

// Service contains business logic for policies and their children.
type Service struct {
	Repo Repo
}

// CreateInput carries the fields accepted when creating a policy.
type CreateInput struct {
	Scope          string
	PolicyType     string
	Carrier        string
	PolicyNumber   string
	Nickname       string
	CoverageAmount *int64
	Deductible     *int64
	PremiumAmount  *int64
	RenewalDate    *time.Time
}

// UpdateInput carries a partial update; nil means leave unchanged.
type UpdateInput struct {
	Scope          *string
	PolicyType     *string
	Carrier        *string
	PolicyNumber   *string
	Nickname       *string
	Status         *string
	CoverageAmount *int64
	Deductible     *int64
	PremiumAmount  *int64
	RenewalDate    *time.Time
}

// Create validates and stores a new policy for a user.
func (s *Service) Create(ctx context.Context, userId string, input CreateInput) (Policy, error) {
	if userId == "" {
		return Policy{}, ErrInvalidInput
	}
	scope := strings.ToLower(strings.TrimSpace(input.Scope))
	if scope == "" {
		scope = ScopePersonal
	}
	if scope != ScopePersonal && scope != ScopeBusiness {
		return Policy{}, ErrInvalidInput
	}
	policyType := strings.ToLower(strings.TrimSpace(input.PolicyType))
	if policyType == "" {
		return Policy{}, ErrInvalidInput
	}

	policy := Policy{
		ID:             uuid.NewString(),
		UserID:         userId,
		Scope:          scope,
		PolicyType:     policyType,
		Carrier:        strings.TrimSpace(input.Carrier),
		PolicyNumber:   strings.TrimSpace(input.PolicyNumber),
		Nickname:       strings.TrimSpace(input.Nickname),
		Status:         "active",
		CoverageAmount: input.CoverageAmount,
		Deductible:     input.Deductible,
		PremiumAmount:  input.PremiumAmount,
		RenewalDate:    input.RenewalDate,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, policy); err != nil {
		return Policy{}, err
	}
	return policy, nil
}

// Get returns a policy owned by the user.
func (s *Service) Get(ctx context.Context, userId, policyID string) (Policy, error) {
	if userId == "" || policyID == "" {
		return Policy{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, userId, policyID)
}

// List returns the user's policies, newest first.
func (s *Service) List(ctx context.Context, userId string, limit, offset int) ([]Policy, error) {
	if userId == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByUser(ctx, userId, limit, offset)
}

// Update applies a partial update; nil input fields leave the stored value unchanged.
func (s *Service) Update(ctx context.Context, userId, policyID string, input UpdateInput) (Policy, error) {
	policy, err := s.Repo.GetByID(ctx, userId, policyID)
	if err != nil {
		return Policy{}, err
	}

	if input.Scope != nil {
		scope := strings.ToLower(strings.TrimSpace(*input.Scope))
		if scope != ScopePersonal && scope != ScopeBusiness {
			return Policy{}, ErrInvalidInput
		}
		policy.Scope = scope
	}
	if input.PolicyType != nil {
		policy.PolicyType = strings.ToLower(strings.TrimSpace(*input.PolicyType))
	}
	if input.Carrier != nil {
		policy.Carrier = strings.TrimSpace(*input.Carrier)
	}
	if input.PolicyNumber != nil {
		policy.PolicyNumber = strings.TrimSpace(*input.PolicyNumber)
	}
	if input.Nickname != nil {
		policy.Nickname = strings.TrimSpace(*input.Nickname)
	}
	if input.Status != nil {
		policy.Status = strings.TrimSpace(*input.Status)
	}
	if input.CoverageAmount != nil {
		policy.CoverageAmount = input.CoverageAmount
	}
	if input.Deductible != nil {
		policy.Deductible = input.Deductible
	}
	if input.PremiumAmount != nil {
		policy.PremiumAmount = input.PremiumAmount
	}
	if input.RenewalDate != nil {
		policy.RenewalDate = input.RenewalDate
	}

	if err := s.Repo.Update(ctx, policy); err != nil {
		return Policy{}, err
	}
	return policy, nil
}

// AddContact attaches a contact to a policy owned by the user.
func (s *Service) AddContact(ctx context.Context, userId, policyID string, contact Contact) (Contact, error) {
	if strings.TrimSpace(contact.Role) == "" {
		return Contact{}, ErrInvalidInput
	}
	if _, err := s.Repo.GetByID(ctx, userId, policyID); err != nil {
		return Contact{}, err
	}
	contact.ID = uuid.NewString()
	contact.PolicyID = policyID
	if err := s.Repo.AddContact(ctx, contact); err != nil {
		return Contact{}, err
	}
	return contact, nil
}

// Contacts lists a policy's contacts.
func (s *Service) Contacts(ctx context.Context, userId, policyID string) ([]Contact, error) {
	if _, err := s.Repo.GetByID(ctx, userId, policyID); err != nil {
		return nil, err
	}
	return s.Repo.ListContacts(ctx, policyID)
}

// AddCoverageItem attaches an inclusion or exclusion to a policy owned by the user.
func (s *Service) AddCoverageItem(ctx context.Context, userId, policyID string, item CoverageItem) (CoverageItem, error) {
	itemType := strings.ToLower(strings.TrimSpace(item.ItemType))
	if itemType != "inclusion" && itemType != "exclusion" {
		return CoverageItem{}, ErrInvalidInput
	}
	if strings.TrimSpace(item.Description) == "" {
		return CoverageItem{}, ErrInvalidInput
	}
	if _, err := s.Repo.GetByID(ctx, userId, policyID); err != nil {
		return CoverageItem{}, err
	}
	item.ID = uuid.NewString()
	item.PolicyID = policyID
	item.ItemType = itemType
	if err := s.Repo.AddCoverageItem(ctx, item); err != nil {
		return CoverageItem{}, err
	}
	return item, nil
}

// CoverageItems lists a policy's coverage items.
func (s *Service) CoverageItems(ctx context.Context, userId, policyID string) ([]CoverageItem, error) {
	if _, err := s.Repo.GetByID(ctx, userId, policyID); err != nil {
		return nil, err
	}
	return s.Repo.ListCoverageItems(ctx, policyID)
}

// AddDetail attaches a detail field to a policy owned by the user.
func (s *Service) AddDetail(ctx context.Context, userId, policyID string, detail PolicyDetail) (PolicyDetail, error) {
	if strings.TrimSpace(detail.FieldName) == "" || strings.TrimSpace(detail.FieldValue) == "" {
		return PolicyDetail{}, ErrInvalidInput
	}
	if _, err := s.Repo.GetByID(ctx, userId, policyID); err != nil {
		return PolicyDetail{}, err
	}
	detail.ID = uuid.NewString()
	detail.PolicyID = policyID
	if err := s.Repo.AddDetail(ctx, detail); err != nil {
		return PolicyDetail{}, err
	}
	return detail, nil
}

// Details lists a policy's detail fields.
func (s *Service) Details(ctx context.Context, userId, policyID string) ([]PolicyDetail, error) {
	if _, err := s.Repo.GetByID(ctx, userId, policyID); err != nil {
		return nil, err
	}
	return s.Repo.ListDetails(ctx, policyID)
}

// AvailableSuggestions returns the suggested detail field names for the policy's
// type that the policy does not already carry.
func (s *Service) AvailableSuggestions(ctx context.Context, userId, policyID string) ([]string, error) {
	policy, err := s.Repo.GetByID(ctx, userId, policyID)
	if err != nil {
		return nil, err
	}
	details, err := s.Repo.ListDetails(ctx, policyID)
	if err != nil {
		return nil, err
	}
	existing := make([]string, 0, len(details))
	for _, detail := range details {
		existing = append(existing, detail.FieldName)
	}
	return suggestions.Available(policy.PolicyType, existing), nil
}
