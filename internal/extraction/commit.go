package extraction

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"policyvault-backend/internal/documents"
	"policyvault-backend/internal/handoff"
	"policyvault-backend/internal/policies"
	"policyvault-backend/internal/shared/metrics"
	"policyvault-backend/internal/shared/telemetry"
)

// Committer applies a reviewed draft onto the durable policy record.
type Committer struct {
	Policies policies.Repo
	Docs     documents.Repo
	Handoff  handoff.Store
}

// Commit writes a confirmed draft onto the document's policy. Scalars apply
// only when populated, so a null from the model never clears a value the
// user already had. Children are always appended. A malformed renewal date
// is skipped rather than failing the whole commit.
func (c *Committer) Commit(ctx context.Context, userId, documentID string, draft Draft) error {
	doc, err := c.Docs.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	policy, err := c.Policies.GetByID(ctx, userId, doc.PolicyID)
	if err != nil {
		if errors.Is(err, policies.ErrNotFound) {
			return documents.ErrNotFound
		}
		return err
	}

	applyScalars(&policy, draft)

	apply := policies.ExtractionApply{Policy: policy}
	for _, dc := range draft.Contacts {
		apply.Contacts = append(apply.Contacts, policies.Contact{
			ID:       uuid.NewString(),
			PolicyID: policy.ID,
			Role:     dc.Role,
			Name:     dc.Name,
			Company:  dc.Company,
			Phone:    dc.Phone,
			Email:    dc.Email,
		})
	}
	for _, di := range draft.CoverageItems {
		apply.CoverageItems = append(apply.CoverageItems, policies.CoverageItem{
			ID:          uuid.NewString(),
			PolicyID:    policy.ID,
			ItemType:    di.ItemType,
			Description: di.Description,
			Limit:       di.Limit,
		})
	}
	for _, dd := range draft.Details {
		apply.Details = append(apply.Details, policies.PolicyDetail{
			ID:         uuid.NewString(),
			PolicyID:   policy.ID,
			FieldName:  dd.FieldName,
			FieldValue: dd.FieldValue,
		})
	}

	if err := c.Policies.ApplyExtraction(ctx, apply); err != nil {
		metrics.IncCommitFailed()
		return err
	}
	if err := c.Docs.UpdateExtractionStatus(ctx, documentID, documents.ExtractionDone); err != nil {
		telemetry.Error("extraction.commit", map[string]any{
			"document_id": documentID,
			"error":       "status after commit: " + sanitizeError(err),
		})
	}
	metrics.IncCommit()
	telemetry.Info("extraction.commit", map[string]any{
		"user_id":        userId,
		"document_id":    documentID,
		"policy_id":      policy.ID,
		"contacts":       len(apply.Contacts),
		"coverage_items": len(apply.CoverageItems),
		"details":        len(apply.Details),
	})
	return nil
}

// Discard drops the pending handoff slot for the document's policy without
// writing anything durable.
func (c *Committer) Discard(ctx context.Context, userId, documentID string) error {
	doc, err := c.Docs.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if _, err := c.Policies.GetByID(ctx, userId, doc.PolicyID); err != nil {
		if errors.Is(err, policies.ErrNotFound) {
			return documents.ErrNotFound
		}
		return err
	}
	if c.Handoff == nil {
		return nil
	}
	return c.Handoff.Drop(ctx, doc.PolicyID)
}

func applyScalars(policy *policies.Policy, draft Draft) {
	if v := strVal(draft.Carrier); v != "" {
		policy.Carrier = v
	}
	if v := strVal(draft.PolicyNumber); v != "" {
		policy.PolicyNumber = v
	}
	if v := strVal(draft.PolicyType); v != "" {
		policy.PolicyType = v
	}
	if v := strVal(draft.Scope); v == policies.ScopePersonal || v == policies.ScopeBusiness {
		policy.Scope = v
	}
	if draft.CoverageAmount != nil {
		policy.CoverageAmount = cloneInt64(draft.CoverageAmount)
	}
	if draft.Deductible != nil {
		policy.Deductible = cloneInt64(draft.Deductible)
	}
	if draft.PremiumAmount != nil {
		policy.PremiumAmount = cloneInt64(draft.PremiumAmount)
	}
	if v := strVal(draft.RenewalDate); v != "" {
		if parsed, err := time.Parse("2006-01-02", v); err == nil {
			policy.RenewalDate = &parsed
		}
	}
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
