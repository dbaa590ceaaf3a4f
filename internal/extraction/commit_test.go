package extraction_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"policyvault-backend/internal/documents"
	"policyvault-backend/internal/extraction"
	"policyvault-backend/internal/handoff"
	"policyvault-backend/internal/policies"
)

type commitFixture struct {
	committer *extraction.Committer
	policies  *policies.MemoryRepo
	docs      *documents.MemoryRepo
	handoff   *handoff.MemoryStore
	userID    string
	policyID  string
	docID     string
}

func newCommitFixture(t *testing.T, seed policies.Policy) *commitFixture {
	t.Helper()
	ctx := context.Background()

	policyRepo := policies.NewMemoryRepo()
	docRepo := documents.NewMemoryRepo()
	handoffStore := handoff.NewMemoryStore()

	userID := "guest:test"
	policyID := "pol-1"
	docID := "doc-1"

	seed.ID = policyID
	seed.UserID = userID
	if seed.Status == "" {
		seed.Status = "active"
	}
	if err := policyRepo.Create(ctx, seed); err != nil {
		t.Fatalf("create policy: %v", err)
	}
	if err := docRepo.Create(ctx, documents.Document{
		ID:               docID,
		PolicyID:         policyID,
		FileName:         "dec.pdf",
		MimeType:         "application/pdf",
		StorageKey:       "k/doc-1",
		Category:         documents.CategoryDecPage,
		ExtractionStatus: documents.ExtractionDone,
		CreatedAt:        time.Now().UTC(),
	}); err != nil {
		t.Fatalf("create document: %v", err)
	}

	return &commitFixture{
		committer: &extraction.Committer{Policies: policyRepo, Docs: docRepo, Handoff: handoffStore},
		policies:  policyRepo,
		docs:      docRepo,
		handoff:   handoffStore,
		userID:    userID,
		policyID:  policyID,
		docID:     docID,
	}
}

func strPtr(s string) *string { return &s }
func intPtr(n int64) *int64   { return &n }

func TestCommitAppliesPopulatedScalarsOnly(t *testing.T) {
	existing := int64(250000)
	f := newCommitFixture(t, policies.Policy{
		Scope:          policies.ScopePersonal,
		PolicyType:     "auto",
		Carrier:        "Old Carrier",
		PolicyNumber:   "OLD-1",
		CoverageAmount: &existing,
	})
	ctx := context.Background()

	draft := extraction.Draft{
		Carrier:       strPtr("Acme Mutual"),
		Deductible:    intPtr(500),
		PremiumAmount: intPtr(1200),
		RenewalDate:   strPtr("2027-03-01"),
	}
	if err := f.committer.Commit(ctx, f.userID, f.docID, draft); err != nil {
		t.Fatalf("commit: %v", err)
	}

	policy, err := f.policies.GetByID(ctx, f.userID, f.policyID)
	if err != nil {
		t.Fatalf("get policy: %v", err)
	}
	if policy.Carrier != "Acme Mutual" {
		t.Fatalf("carrier = %s", policy.Carrier)
	}
	// Fields the draft left nil keep their existing values.
	if policy.PolicyNumber != "OLD-1" {
		t.Fatalf("policyNumber = %s", policy.PolicyNumber)
	}
	if policy.CoverageAmount == nil || *policy.CoverageAmount != 250000 {
		t.Fatalf("coverageAmount = %v", policy.CoverageAmount)
	}
	if policy.Deductible == nil || *policy.Deductible != 500 {
		t.Fatalf("deductible = %v", policy.Deductible)
	}
	if policy.RenewalDate == nil || policy.RenewalDate.Format("2006-01-02") != "2027-03-01" {
		t.Fatalf("renewalDate = %v", policy.RenewalDate)
	}
}

func TestCommitSkipsMalformedRenewalDate(t *testing.T) {
	f := newCommitFixture(t, policies.Policy{Scope: policies.ScopePersonal, PolicyType: "auto"})
	ctx := context.Background()

	draft := extraction.Draft{
		Carrier:     strPtr("Acme Mutual"),
		RenewalDate: strPtr("March 1st, 2027"),
	}
	if err := f.committer.Commit(ctx, f.userID, f.docID, draft); err != nil {
		t.Fatalf("commit: %v", err)
	}

	policy, err := f.policies.GetByID(ctx, f.userID, f.policyID)
	if err != nil {
		t.Fatalf("get policy: %v", err)
	}
	if policy.RenewalDate != nil {
		t.Fatalf("renewalDate should be unset, got %v", policy.RenewalDate)
	}
	// The rest of the draft still applied.
	if policy.Carrier != "Acme Mutual" {
		t.Fatalf("carrier = %s", policy.Carrier)
	}
}

func TestCommitCreatesChildRecords(t *testing.T) {
	f := newCommitFixture(t, policies.Policy{Scope: policies.ScopePersonal, PolicyType: "auto"})
	ctx := context.Background()

	draft := extraction.Draft{
		Contacts: []extraction.DraftContact{
			{Role: "agent", Name: "Sam Okafor", Phone: "555-0100"},
		},
		CoverageItems: []extraction.DraftCoverageItem{
			{ItemType: "inclusion", Description: "Bodily injury", Limit: "$300,000"},
			{ItemType: "exclusion", Description: "Intentional damage"},
		},
		Details: []extraction.DraftDetail{
			{FieldName: "vehicle_1_description", FieldValue: "2021 Toyota Camry"},
			{FieldName: "listed_drivers", FieldValue: "Jordan Reyes, Sam Okafor"},
		},
	}
	if err := f.committer.Commit(ctx, f.userID, f.docID, draft); err != nil {
		t.Fatalf("commit: %v", err)
	}

	contacts, _ := f.policies.ListContacts(ctx, f.policyID)
	if len(contacts) != 1 || contacts[0].Name != "Sam Okafor" || contacts[0].ID == "" {
		t.Fatalf("contacts = %+v", contacts)
	}
	items, _ := f.policies.ListCoverageItems(ctx, f.policyID)
	if len(items) != 2 {
		t.Fatalf("coverage items = %+v", items)
	}
	details, _ := f.policies.ListDetails(ctx, f.policyID)
	if len(details) != 2 {
		t.Fatalf("details = %+v", details)
	}
}

func TestCommitIgnoresInvalidScope(t *testing.T) {
	f := newCommitFixture(t, policies.Policy{Scope: policies.ScopePersonal, PolicyType: "auto"})
	ctx := context.Background()

	draft := extraction.Draft{Scope: strPtr("enterprise")}
	if err := f.committer.Commit(ctx, f.userID, f.docID, draft); err != nil {
		t.Fatalf("commit: %v", err)
	}

	policy, _ := f.policies.GetByID(ctx, f.userID, f.policyID)
	if policy.Scope != policies.ScopePersonal {
		t.Fatalf("scope = %s", policy.Scope)
	}
}

func TestCommitOwnership(t *testing.T) {
	f := newCommitFixture(t, policies.Policy{Scope: policies.ScopePersonal, PolicyType: "auto"})

	err := f.committer.Commit(context.Background(), "guest:intruder", f.docID, extraction.Draft{})
	if !errors.Is(err, documents.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDiscardDropsHandoffOnly(t *testing.T) {
	f := newCommitFixture(t, policies.Policy{Scope: policies.ScopePersonal, PolicyType: "auto", Carrier: "Old Carrier"})
	ctx := context.Background()

	if err := f.handoff.Put(ctx, f.policyID, handoff.Pending{DocumentID: f.docID, Draft: []byte(`{}`)}); err != nil {
		t.Fatalf("put pending: %v", err)
	}

	if err := f.committer.Discard(ctx, f.userID, f.docID); err != nil {
		t.Fatalf("discard: %v", err)
	}

	if _, ok, _ := f.handoff.TakeIfPresent(ctx, f.policyID); ok {
		t.Fatalf("handoff slot should be dropped")
	}
	policy, _ := f.policies.GetByID(ctx, f.userID, f.policyID)
	if policy.Carrier != "Old Carrier" {
		t.Fatalf("discard must not touch the policy, carrier = %s", policy.Carrier)
	}
	contacts, _ := f.policies.ListContacts(ctx, f.policyID)
	if len(contacts) != 0 {
		t.Fatalf("discard must not create children, got %+v", contacts)
	}
}
