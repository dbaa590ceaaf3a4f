package extraction_test

import (
	"testing"

	"policyvault-backend/internal/extraction"
)

func TestParseDraftStripsFencesAndMapsScalars(t *testing.T) {
	raw := []byte("```json\n" + `{
		"carrier": "Acme Mutual",
		"policy_number": "AP-1234",
		"policy_type": "auto",
		"scope": "personal",
		"coverage_amount": "300,000",
		"deductible": 500,
		"premium_amount": null,
		"renewal_date": "2027-03-01"
	}` + "\n```")

	draft, err := extraction.ParseDraft(raw)
	if err != nil {
		t.Fatalf("parse draft: %v", err)
	}
	if draft.Carrier == nil || *draft.Carrier != "Acme Mutual" {
		t.Fatalf("carrier = %v", draft.Carrier)
	}
	if draft.PolicyNumber == nil || *draft.PolicyNumber != "AP-1234" {
		t.Fatalf("policyNumber = %v", draft.PolicyNumber)
	}
	if draft.CoverageAmount == nil || *draft.CoverageAmount != 300000 {
		t.Fatalf("coverageAmount = %v", draft.CoverageAmount)
	}
	if draft.Deductible == nil || *draft.Deductible != 500 {
		t.Fatalf("deductible = %v", draft.Deductible)
	}
	if draft.PremiumAmount != nil {
		t.Fatalf("premiumAmount should be nil, got %d", *draft.PremiumAmount)
	}
	if draft.RenewalDate == nil || *draft.RenewalDate != "2027-03-01" {
		t.Fatalf("renewalDate = %v", draft.RenewalDate)
	}
}

func TestParseDraftUnparseableAmountDegradesToAbsent(t *testing.T) {
	draft, err := extraction.ParseDraft([]byte(`{"coverage_amount": "full replacement"}`))
	if err != nil {
		t.Fatalf("parse draft: %v", err)
	}
	if draft.CoverageAmount != nil {
		t.Fatalf("expected nil coverageAmount, got %d", *draft.CoverageAmount)
	}
}

func TestParseDraftRejectsNonJSON(t *testing.T) {
	if _, err := extraction.ParseDraft([]byte("I could not read the document")); err == nil {
		t.Fatalf("expected error for non-JSON response")
	}
}

func TestParseDraftContactsAndCoverageItems(t *testing.T) {
	raw := []byte(`{
		"contacts": [
			{"name": "Jordan Reyes", "phone": "555-0100"},
			{"role": "agent", "name": "Sam Okafor", "company": "Acme"}
		],
		"inclusions": [
			{"description": "Bodily injury liability", "limit": "$300,000"}
		],
		"exclusions": [
			{"description": "Intentional damage"}
		]
	}`)

	draft, err := extraction.ParseDraft(raw)
	if err != nil {
		t.Fatalf("parse draft: %v", err)
	}
	if len(draft.Contacts) != 2 {
		t.Fatalf("expected 2 contacts, got %d", len(draft.Contacts))
	}
	if draft.Contacts[0].Role != "other" {
		t.Fatalf("missing role should default to other, got %q", draft.Contacts[0].Role)
	}
	if draft.Contacts[1].Role != "agent" {
		t.Fatalf("role = %q", draft.Contacts[1].Role)
	}
	if len(draft.CoverageItems) != 2 {
		t.Fatalf("expected 2 coverage items, got %d", len(draft.CoverageItems))
	}
	if draft.CoverageItems[0].ItemType != "inclusion" || draft.CoverageItems[0].Limit != "$300,000" {
		t.Fatalf("inclusion = %+v", draft.CoverageItems[0])
	}
	if draft.CoverageItems[1].ItemType != "exclusion" {
		t.Fatalf("exclusion = %+v", draft.CoverageItems[1])
	}
}

func TestParseDraftPromotesTopLevelFieldsFirst(t *testing.T) {
	raw := []byte(`{
		"effective_date": "2026-03-01",
		"named_insured": "Jordan Reyes",
		"payment_schedule": "monthly",
		"details": [
			{"field_name": "underwriter", "field_value": "Acme Re"}
		]
	}`)

	draft, err := extraction.ParseDraft(raw)
	if err != nil {
		t.Fatalf("parse draft: %v", err)
	}
	want := []string{"effective_date", "named_insured", "payment_schedule", "underwriter"}
	if len(draft.Details) != len(want) {
		t.Fatalf("expected %d details, got %+v", len(want), draft.Details)
	}
	for i, name := range want {
		if draft.Details[i].FieldName != name {
			t.Fatalf("detail %d = %q, want %q", i, draft.Details[i].FieldName, name)
		}
	}
}

func TestParseDraftGroupsRepeatedVehicleFields(t *testing.T) {
	raw := []byte(`{
		"details": [
			{"field_name": "year", "field_value": "2021"},
			{"field_name": "make", "field_value": "Toyota"},
			{"field_name": "model", "field_value": "Camry"},
			{"field_name": "VIN", "field_value": "4T1BF1FK5MU000001"},
			{"field_name": "year", "field_value": "2019"},
			{"field_name": "make", "field_value": "Honda"},
			{"field_name": "model", "field_value": "CR-V"},
			{"field_name": "VIN", "field_value": "2HKRW2H59KH000002"}
		]
	}`)

	draft, err := extraction.ParseDraft(raw)
	if err != nil {
		t.Fatalf("parse draft: %v", err)
	}
	got := map[string]string{}
	for _, d := range draft.Details {
		got[d.FieldName] = d.FieldValue
	}
	if got["vehicle_1_description"] != "2021 Toyota Camry" {
		t.Fatalf("vehicle_1_description = %q", got["vehicle_1_description"])
	}
	if got["vehicle_1_VIN"] != "4T1BF1FK5MU000001" {
		t.Fatalf("vehicle_1_VIN = %q", got["vehicle_1_VIN"])
	}
	if got["vehicle_2_description"] != "2019 Honda CR-V" {
		t.Fatalf("vehicle_2_description = %q", got["vehicle_2_description"])
	}
	if got["vehicle_2_VIN"] != "2HKRW2H59KH000002" {
		t.Fatalf("vehicle_2_VIN = %q", got["vehicle_2_VIN"])
	}
}

func TestParseDraftPrefersExplicitVehicleDescription(t *testing.T) {
	raw := []byte(`{
		"details": [
			{"field_name": "vehicle_description", "field_value": "2021 Toyota Camry LE"},
			{"field_name": "year", "field_value": "2021"}
		]
	}`)

	draft, err := extraction.ParseDraft(raw)
	if err != nil {
		t.Fatalf("parse draft: %v", err)
	}
	if len(draft.Details) != 1 || draft.Details[0].FieldValue != "2021 Toyota Camry LE" {
		t.Fatalf("details = %+v", draft.Details)
	}
}

func TestParseDraftNumberedVehicleFieldsPassThrough(t *testing.T) {
	raw := []byte(`{
		"details": [
			{"field_name": "vehicle_1_description", "field_value": "2021 Toyota Camry"},
			{"field_name": "vehicle_1_VIN", "field_value": "4T1BF1FK5MU000001"}
		]
	}`)

	draft, err := extraction.ParseDraft(raw)
	if err != nil {
		t.Fatalf("parse draft: %v", err)
	}
	if len(draft.Details) != 2 {
		t.Fatalf("details = %+v", draft.Details)
	}
	if draft.Details[0].FieldName != "vehicle_1_description" || draft.Details[1].FieldName != "vehicle_1_VIN" {
		t.Fatalf("details = %+v", draft.Details)
	}
}

func TestParseDraftConsolidatesDrivers(t *testing.T) {
	raw := []byte(`{
		"details": [
			{"field_name": "listed_drivers", "field_value": "Jordan Reyes, Sam Okafor"},
			{"field_name": "driver_name", "field_value": "Riley Chen"},
			{"field_name": "", "field_value": "ignored"},
			{"field_name": "empty", "field_value": ""}
		]
	}`)

	draft, err := extraction.ParseDraft(raw)
	if err != nil {
		t.Fatalf("parse draft: %v", err)
	}
	if len(draft.Details) != 1 {
		t.Fatalf("details = %+v", draft.Details)
	}
	if draft.Details[0].FieldName != "listed_drivers" {
		t.Fatalf("fieldName = %q", draft.Details[0].FieldName)
	}
	if draft.Details[0].FieldValue != "Jordan Reyes, Sam Okafor, Riley Chen" {
		t.Fatalf("fieldValue = %q", draft.Details[0].FieldValue)
	}
}
