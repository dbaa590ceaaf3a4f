package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"policyvault-backend/internal/doctext"
	"policyvault-backend/internal/documents"
	"policyvault-backend/internal/handoff"
	"policyvault-backend/internal/llm"
	"policyvault-backend/internal/policies"
	"policyvault-backend/internal/shared/metrics"
	"policyvault-backend/internal/shared/storage/object"
	"policyvault-backend/internal/shared/telemetry"
)

// Service runs AI extraction over stored documents and produces drafts.
type Service struct {
	Docs     documents.Repo
	Policies policies.Repo
	Store    object.ObjectStore
	LLM      llm.Client
	Handoff  handoff.Store
}

// Extract runs the full extraction round trip for one document and returns
// the normalized draft. The caller-facing rules: a document already pending
// is rejected with ErrExtractionPending; done and failed may re-extract.
// Missing provider credentials surface as the soft ErrUnavailable; anything
// else as ExtractionFailedError. Both leave the document failed.
func (s *Service) Extract(ctx context.Context, userId, documentID string) (Draft, error) {
	if userId == "" || documentID == "" {
		return Draft{}, documents.ErrInvalidInput
	}

	doc, err := s.Docs.GetByID(ctx, documentID)
	if err != nil {
		return Draft{}, err
	}
	policy, err := s.Policies.GetByID(ctx, userId, doc.PolicyID)
	if err != nil {
		if errors.Is(err, policies.ErrNotFound) {
			return Draft{}, documents.ErrNotFound
		}
		return Draft{}, err
	}

	if doc.ExtractionStatus == documents.ExtractionPending {
		return Draft{}, ErrExtractionPending
	}

	startedAt := time.Now().UTC()
	if err := s.Docs.UpdateExtractionStatus(ctx, doc.ID, documents.ExtractionPending); err != nil {
		return Draft{}, fmt.Errorf("set pending failed: %w", err)
	}
	metrics.IncExtractionStarted()
	s.logStatus(ctx, userId, doc.ID, policy.ID, string(doc.ExtractionStatus)+"->pending", nil)

	raw, err := s.modelResponse(ctx, doc)
	if err != nil {
		if errors.Is(err, llm.ErrNoCredentials) {
			return Draft{}, s.unavailable(ctx, userId, doc.ID, policy.ID, startedAt, err)
		}
		return Draft{}, s.fail(ctx, userId, doc.ID, policy.ID, startedAt, err)
	}

	draft, err := ParseDraft(raw)
	if err != nil {
		return Draft{}, s.fail(ctx, userId, doc.ID, policy.ID, startedAt, err)
	}

	completedAt := time.Now().UTC()
	if err := s.Docs.UpdateExtractionStatus(ctx, doc.ID, documents.ExtractionDone); err != nil {
		return Draft{}, s.fail(ctx, userId, doc.ID, policy.ID, startedAt, fmt.Errorf("set done failed: %w", err))
	}
	metrics.IncExtractionCompleted()
	metrics.ObserveExtractionDuration(durationMs(startedAt, completedAt))
	s.logStatus(ctx, userId, doc.ID, policy.ID, "pending->done", map[string]any{
		"duration_ms": durationMs(startedAt, completedAt),
	})

	return draft, nil
}

// StartAsync runs extraction in the background and, on success, parks the
// draft in the handoff store keyed by the document's policy so the next
// navigation to that policy picks it up. Failures only log: the soft path is
// invisible by design, and the hard path leaves the document failed for a
// manual re-extract.
func (s *Service) StartAsync(ctx context.Context, userId, documentID string) {
	bgCtx := backgroundWithRequestID(ctx)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				telemetry.Error("extraction.panic", map[string]any{
					"request_id":  requestIDFromContext(bgCtx),
					"user_id":     userId,
					"document_id": documentID,
					"error":       fmt.Sprint(r),
				})
			}
		}()
		s.runAsync(bgCtx, userId, documentID)
	}()
}

func (s *Service) runAsync(ctx context.Context, userId, documentID string) {
	draft, err := s.Extract(ctx, userId, documentID)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return
		}
		telemetry.Error("extraction.async", map[string]any{
			"request_id":  requestIDFromContext(ctx),
			"user_id":     userId,
			"document_id": documentID,
			"error":       sanitizeError(err),
		})
		return
	}

	doc, err := s.Docs.GetByID(ctx, documentID)
	if err != nil {
		telemetry.Error("extraction.async", map[string]any{
			"request_id":  requestIDFromContext(ctx),
			"user_id":     userId,
			"document_id": documentID,
			"error":       "document lookup after extract: " + sanitizeError(err),
		})
		return
	}

	payload, err := json.Marshal(draft)
	if err != nil {
		telemetry.Error("extraction.async", map[string]any{
			"request_id":  requestIDFromContext(ctx),
			"user_id":     userId,
			"document_id": documentID,
			"error":       "draft marshal: " + sanitizeError(err),
		})
		return
	}
	if err := s.Handoff.Put(ctx, doc.PolicyID, handoff.Pending{DocumentID: documentID, Draft: payload}); err != nil {
		telemetry.Error("extraction.async", map[string]any{
			"request_id":  requestIDFromContext(ctx),
			"user_id":     userId,
			"document_id": documentID,
			"policy_id":   doc.PolicyID,
			"error":       "handoff put: " + sanitizeError(err),
		})
		return
	}
	telemetry.Info("extraction.handoff", map[string]any{
		"request_id":  requestIDFromContext(ctx),
		"user_id":     userId,
		"document_id": documentID,
		"policy_id":   doc.PolicyID,
	})
}

// PendingDraft consumes the handoff slot for a policy. The second call
// without a new extraction reports absent.
func (s *Service) PendingDraft(ctx context.Context, userId, policyID string) (handoff.Pending, bool, error) {
	if _, err := s.Policies.GetByID(ctx, userId, policyID); err != nil {
		if errors.Is(err, policies.ErrNotFound) {
			return handoff.Pending{}, false, documents.ErrNotFound
		}
		return handoff.Pending{}, false, err
	}
	return s.Handoff.TakeIfPresent(ctx, policyID)
}

// modelResponse picks the model call for the document's media type. Image
// uploads go through the vision path with the stored bytes as a single page;
// everything else extracts text first. A document whose text layer comes back
// empty (a scan saved as PDF) is a hard failure rather than a blank prompt.
func (s *Service) modelResponse(ctx context.Context, doc documents.Document) (json.RawMessage, error) {
	if strings.HasPrefix(mediaType(doc.MimeType), "image/") {
		data, err := loadBytes(ctx, s.Store, doc.StorageKey)
		if err != nil {
			return nil, fmt.Errorf("load document image: %w", err)
		}
		raw, err := s.LLM.ExtractPolicyImages(ctx, []llm.Image{{MediaType: mediaType(doc.MimeType), Data: data}})
		if err != nil && !errors.Is(err, llm.ErrNoCredentials) {
			return nil, fmt.Errorf("llm extract images: %w", err)
		}
		return raw, err
	}

	text, err := s.documentText(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("document text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, errNoDocumentText
	}
	raw, err := s.LLM.ExtractPolicy(ctx, text)
	if err != nil && !errors.Is(err, llm.ErrNoCredentials) {
		return nil, fmt.Errorf("llm extract: %w", err)
	}
	return raw, err
}

func (s *Service) documentText(ctx context.Context, doc documents.Document) (string, error) {
	if doc.ExtractedTextKey != "" {
		return loadText(ctx, s.Store, doc.ExtractedTextKey)
	}
	text, err := doctext.ExtractText(ctx, s.Store, doc.StorageKey, doc.MimeType)
	if err != nil {
		return "", err
	}
	if err := s.Docs.UpdateExtractedText(ctx, doc.ID, doctext.ExtractedKey(doc.StorageKey), time.Now().UTC()); err != nil {
		return "", fmt.Errorf("update extracted text: %w", err)
	}
	return text, nil
}

func (s *Service) unavailable(ctx context.Context, userId, documentID, policyID string, startedAt time.Time, err error) error {
	s.markFailed(ctx, documentID)
	metrics.IncExtractionUnavailable()
	s.logStatus(ctx, userId, documentID, policyID, "pending->failed", map[string]any{
		"soft":        true,
		"error":       sanitizeError(err),
		"duration_ms": durationMs(startedAt, time.Now().UTC()),
	})
	return ErrUnavailable
}

func (s *Service) fail(ctx context.Context, userId, documentID, policyID string, startedAt time.Time, err error) error {
	s.markFailed(ctx, documentID)
	metrics.IncExtractionFailed()
	s.logStatus(ctx, userId, documentID, policyID, "pending->failed", map[string]any{
		"error":       sanitizeError(err),
		"duration_ms": durationMs(startedAt, time.Now().UTC()),
	})
	return &ExtractionFailedError{Reason: sanitizeError(err), Err: err}
}

func (s *Service) markFailed(ctx context.Context, documentID string) {
	if err := s.Docs.UpdateExtractionStatus(context.Background(), documentID, documents.ExtractionFailed); err != nil {
		telemetry.Error("extraction.status", map[string]any{
			"request_id":  requestIDFromContext(ctx),
			"document_id": documentID,
			"error":       "set failed status: " + sanitizeError(err),
		})
	}
}

func (s *Service) logStatus(ctx context.Context, userId, documentID, policyID, transition string, extra map[string]any) {
	fields := map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           userId,
		"document_id":       documentID,
		"policy_id":         policyID,
		"status_transition": transition,
	}
	for k, v := range extra {
		fields[k] = v
	}
	telemetry.Info("extraction.status", fields)
}

func durationMs(startedAt, completedAt time.Time) float64 {
	return float64(completedAt.Sub(startedAt).Microseconds()) / 1000.0
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}

func loadText(ctx context.Context, store object.ObjectStore, key string) (string, error) {
	data, err := loadBytes(ctx, store, key)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func loadBytes(ctx context.Context, store object.ObjectStore, key string) ([]byte, error) {
	body, err := store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

// mediaType strips parameters and normalizes case so image/* routing ignores
// charset suffixes.
func mediaType(mimeType string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
}
