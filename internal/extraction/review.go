package extraction

import "fmt"

// ReviewSession holds a user's working copy of a draft during review. Edits
// never touch the draft the session was opened from.
type ReviewSession struct {
	draft Draft
}

// NewReviewSession deep-copies the draft so the caller keeps an untouched
// original to fall back on.
func NewReviewSession(draft Draft) *ReviewSession {
	return &ReviewSession{draft: cloneDraft(draft)}
}

// SetField overwrites one scalar field of the working copy. The field name
// matches the draft's JSON name. Unknown names panic: the caller resolves
// names from the draft shape, so a miss is a programming error.
func (rs *ReviewSession) SetField(name string, value any) {
	switch name {
	case "carrier":
		rs.draft.Carrier = toStringPtr(name, value)
	case "policyNumber":
		rs.draft.PolicyNumber = toStringPtr(name, value)
	case "policyType":
		rs.draft.PolicyType = toStringPtr(name, value)
	case "scope":
		rs.draft.Scope = toStringPtr(name, value)
	case "coverageAmount":
		rs.draft.CoverageAmount = toInt64Ptr(name, value)
	case "deductible":
		rs.draft.Deductible = toInt64Ptr(name, value)
	case "premiumAmount":
		rs.draft.PremiumAmount = toInt64Ptr(name, value)
	case "renewalDate":
		rs.draft.RenewalDate = toStringPtr(name, value)
	default:
		panic(fmt.Sprintf("review: unknown draft field %q", name))
	}
}

// EditContact overwrites one field of the i-th contact.
func (rs *ReviewSession) EditContact(i int, field, value string) {
	c := &rs.draft.Contacts[i]
	switch field {
	case "role":
		c.Role = value
	case "name":
		c.Name = value
	case "company":
		c.Company = value
	case "phone":
		c.Phone = value
	case "email":
		c.Email = value
	default:
		panic(fmt.Sprintf("review: unknown contact field %q", field))
	}
}

// RemoveContact drops the i-th contact from the working copy.
func (rs *ReviewSession) RemoveContact(i int) {
	rs.draft.Contacts = append(rs.draft.Contacts[:i], rs.draft.Contacts[i+1:]...)
}

// RemoveCoverageItem drops the i-th coverage item from the working copy.
func (rs *ReviewSession) RemoveCoverageItem(i int) {
	rs.draft.CoverageItems = append(rs.draft.CoverageItems[:i], rs.draft.CoverageItems[i+1:]...)
}

// RemoveDetail drops the i-th detail from the working copy.
func (rs *ReviewSession) RemoveDetail(i int) {
	rs.draft.Details = append(rs.draft.Details[:i], rs.draft.Details[i+1:]...)
}

// Snapshot returns a deep copy of the working draft, typically the payload
// for a confirm call.
func (rs *ReviewSession) Snapshot() Draft {
	return cloneDraft(rs.draft)
}

func toStringPtr(name string, value any) *string {
	if value == nil {
		return nil
	}
	s, ok := value.(string)
	if !ok {
		panic(fmt.Sprintf("review: field %q wants a string, got %T", name, value))
	}
	return &s
}

func toInt64Ptr(name string, value any) *int64 {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case int64:
		return &v
	case int:
		n := int64(v)
		return &n
	default:
		panic(fmt.Sprintf("review: field %q wants an integer, got %T", name, value))
	}
}
