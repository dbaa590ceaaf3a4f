package extraction

// Draft is a proposed, unvalidated set of policy field values plus proposed
// child records. Nil scalars mean "extraction found nothing", never "clear
// this field". Ephemeral: a draft is either reconciled into durable records
// or dropped.
type Draft struct {
	Carrier        *string             `json:"carrier"`
	PolicyNumber   *string             `json:"policyNumber"`
	PolicyType     *string             `json:"policyType"`
	Scope          *string             `json:"scope"`
	CoverageAmount *int64              `json:"coverageAmount"`
	Deductible     *int64              `json:"deductible"`
	PremiumAmount  *int64              `json:"premiumAmount"`
	RenewalDate    *string             `json:"renewalDate"`
	Contacts       []DraftContact      `json:"contacts"`
	CoverageItems  []DraftCoverageItem `json:"coverageItems"`
	Details        []DraftDetail       `json:"details"`
}

// DraftContact is one proposed contact.
type DraftContact struct {
	Role    string `json:"role"`
	Name    string `json:"name,omitempty"`
	Company string `json:"company,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

// DraftCoverageItem is one proposed inclusion or exclusion.
type DraftCoverageItem struct {
	ItemType    string `json:"itemType"`
	Description string `json:"description"`
	Limit       string `json:"limit,omitempty"`
}

// DraftDetail is one proposed detail field.
type DraftDetail struct {
	FieldName  string `json:"fieldName"`
	FieldValue string `json:"fieldValue"`
}

func cloneDraft(draft Draft) Draft {
	out := draft
	out.Carrier = cloneString(draft.Carrier)
	out.PolicyNumber = cloneString(draft.PolicyNumber)
	out.PolicyType = cloneString(draft.PolicyType)
	out.Scope = cloneString(draft.Scope)
	out.CoverageAmount = cloneInt64(draft.CoverageAmount)
	out.Deductible = cloneInt64(draft.Deductible)
	out.PremiumAmount = cloneInt64(draft.PremiumAmount)
	out.RenewalDate = cloneString(draft.RenewalDate)
	out.Contacts = append([]DraftContact(nil), draft.Contacts...)
	out.CoverageItems = append([]DraftCoverageItem(nil), draft.CoverageItems...)
	out.Details = append([]DraftDetail(nil), draft.Details...)
	return out
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	copied := *v
	return &copied
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	copied := *v
	return &copied
}
