package policies

import "time"

// PolicyResponse is the outward-facing representation of a policy.
type PolicyResponse struct {
	PolicyID       string    `json:"policyId"`
	Scope          string    `json:"scope"`
	PolicyType     string    `json:"policyType"`
	Carrier        string    `json:"carrier"`
	PolicyNumber   string    `json:"policyNumber"`
	Nickname       string    `json:"nickname,omitempty"`
	Status         string    `json:"status"`
	CoverageAmount *int64    `json:"coverageAmount"`
	Deductible     *int64    `json:"deductible"`
	PremiumAmount  *int64    `json:"premiumAmount"`
	RenewalDate    *string   `json:"renewalDate"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ContactResponse is the outward-facing representation of a contact.
type ContactResponse struct {
	ContactID string `json:"contactId"`
	Role      string `json:"role"`
	Name      string `json:"name,omitempty"`
	Company   string `json:"company,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
}

// CoverageItemResponse is the outward-facing representation of a coverage item.
type CoverageItemResponse struct {
	ItemID      string `json:"itemId"`
	ItemType    string `json:"itemType"`
	Description string `json:"description"`
	Limit       string `json:"limit,omitempty"`
}

// DetailResponse is the outward-facing representation of a detail field.
type DetailResponse struct {
	DetailID   string `json:"detailId"`
	FieldName  string `json:"fieldName"`
	FieldValue string `json:"fieldValue"`
}

func toResponse(policy Policy) PolicyResponse {
	var renewal *string
	if policy.RenewalDate != nil {
		formatted := policy.RenewalDate.Format("2006-01-02")
		renewal = &formatted
	}
	return PolicyResponse{
		PolicyID:       policy.ID,
		Scope:          policy.Scope,
		PolicyType:     policy.PolicyType,
		Carrier:        policy.Carrier,
		PolicyNumber:   policy.PolicyNumber,
		Nickname:       policy.Nickname,
		Status:         policy.Status,
		CoverageAmount: policy.CoverageAmount,
		Deductible:     policy.Deductible,
		PremiumAmount:  policy.PremiumAmount,
		RenewalDate:    renewal,
		CreatedAt:      policy.CreatedAt,
	}
}

func toContactResponse(contact Contact) ContactResponse {
	return ContactResponse{
		ContactID: contact.ID,
		Role:      contact.Role,
		Name:      contact.Name,
		Company:   contact.Company,
		Phone:     contact.Phone,
		Email:     contact.Email,
	}
}

func toCoverageItemResponse(item CoverageItem) CoverageItemResponse {
	return CoverageItemResponse{
		ItemID:      item.ID,
		ItemType:    item.ItemType,
		Description: item.Description,
		Limit:       item.Limit,
	}
}

func toDetailResponse(detail PolicyDetail) DetailResponse {
	return DetailResponse{
		DetailID:   detail.ID,
		FieldName:  detail.FieldName,
		FieldValue: detail.FieldValue,
	}
}
