package policies

import "context"

// ExtractionApply bundles the durable writes of one confirmed extraction draft.
// The policy row is updated and every child record is created as one unit.
type ExtractionApply struct {
	Policy        Policy
	Contacts      []Contact
	CoverageItems []CoverageItem
	Details       []PolicyDetail
}

// Repo defines persistence operations for policies and their children.
type Repo interface {
	Create(ctx context.Context, policy Policy) error
	GetByID(ctx context.Context, userId, policyID string) (Policy, error)
	ListByUser(ctx context.Context, userId string, limit, offset int) ([]Policy, error)
	Update(ctx context.Context, policy Policy) error

	AddContact(ctx context.Context, contact Contact) error
	ListContacts(ctx context.Context, policyID string) ([]Contact, error)
	AddCoverageItem(ctx context.Context, item CoverageItem) error
	ListCoverageItems(ctx context.Context, policyID string) ([]CoverageItem, error)
	AddDetail(ctx context.Context, detail PolicyDetail) error
	ListDetails(ctx context.Context, policyID string) ([]PolicyDetail, error)

	ApplyExtraction(ctx context.Context, apply ExtractionApply) error
}
