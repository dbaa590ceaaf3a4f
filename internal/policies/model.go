package policies

import "time"

const (
	ScopePersonal = "personal"
	ScopeBusiness = "business"
)

// Policy is the aggregate root for one insurance policy.
type Policy struct {
	ID             string
	UserID         string
	Scope          string
	PolicyType     string
	Carrier        string
	PolicyNumber   string
	Nickname       string
	Status         string
	CoverageAmount *int64
	Deductible     *int64
	PremiumAmount  *int64
	RenewalDate    *time.Time
	CreatedAt      time.Time
}

// Contact is a person or company attached to a policy (agent, broker, claims line).
type Contact struct {
	ID       string
	PolicyID string
	Role     string
	Name     string
	Company  string
	Phone    string
	Email    string
}

// CoverageItem is one inclusion or exclusion line on a policy.
type CoverageItem struct {
	ID          string
	PolicyID    string
	ItemType    string // "inclusion" or "exclusion"
	Description string
	Limit       string
}

// PolicyDetail is a free-form name/value pair attached to a policy.
type PolicyDetail struct {
	ID         string
	PolicyID   string
	FieldName  string
	FieldValue string
}
