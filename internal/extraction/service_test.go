package extraction_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"policyvault-backend/internal/documents"
	"policyvault-backend/internal/extraction"
	"policyvault-backend/internal/handoff"
	"policyvault-backend/internal/llm"
	"policyvault-backend/internal/policies"
	localstore "policyvault-backend/internal/shared/storage/object/local"
)

type stubLLM struct {
	response   []byte
	err        error
	calls      int
	imageCalls [][]llm.Image
}

func (s *stubLLM) ExtractPolicy(ctx context.Context, documentText string) (json.RawMessage, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

func (s *stubLLM) ExtractPolicyImages(ctx context.Context, images []llm.Image) (json.RawMessage, error) {
	s.imageCalls = append(s.imageCalls, images)
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

type fixture struct {
	svc      *extraction.Service
	docs     *documents.MemoryRepo
	policies *policies.MemoryRepo
	handoff  *handoff.MemoryStore
	llm      *stubLLM
	userID   string
	policyID string
	docID    string
}

func newFixture(t *testing.T, client *stubLLM) *fixture {
	t.Helper()
	ctx := context.Background()

	policyRepo := policies.NewMemoryRepo()
	docRepo := documents.NewMemoryRepo()
	store := localstore.New(t.TempDir())
	handoffStore := handoff.NewMemoryStore()

	userID := "guest:test"
	policyID := "pol-1"
	docID := "doc-1"
	if err := policyRepo.Create(ctx, policies.Policy{
		ID:         policyID,
		UserID:     userID,
		Scope:      policies.ScopePersonal,
		PolicyType: "auto",
		Status:     "active",
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		t.Fatalf("create policy: %v", err)
	}

	// The stored object holds pre-extracted text so the test exercises the
	// cached-text path rather than PDF parsing.
	textKey := "k/doc-1.extracted.txt"
	saver, ok := store.(interface {
		SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
	})
	if !ok {
		t.Fatalf("store does not support SaveWithKey")
	}
	if _, err := saver.SaveWithKey(ctx, textKey, "text/plain", strings.NewReader("policy declarations text")); err != nil {
		t.Fatalf("save text: %v", err)
	}

	if err := docRepo.Create(ctx, documents.Document{
		ID:               docID,
		PolicyID:         policyID,
		FileName:         "dec.pdf",
		MimeType:         "application/pdf",
		StorageKey:       "k/doc-1",
		Category:         documents.CategoryDecPage,
		ExtractionStatus: documents.ExtractionNone,
		ExtractedTextKey: textKey,
		CreatedAt:        time.Now().UTC(),
	}); err != nil {
		t.Fatalf("create document: %v", err)
	}

	return &fixture{
		svc: &extraction.Service{
			Docs:     docRepo,
			Policies: policyRepo,
			Store:    store,
			LLM:      client,
			Handoff:  handoffStore,
		},
		docs:     docRepo,
		policies: policyRepo,
		handoff:  handoffStore,
		llm:      client,
		userID:   userID,
		policyID: policyID,
		docID:    docID,
	}
}

func (f *fixture) status(t *testing.T) documents.ExtractionStatus {
	t.Helper()
	doc, err := f.docs.GetByID(context.Background(), f.docID)
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	return doc.ExtractionStatus
}

func TestExtractSuccess(t *testing.T) {
	client := &stubLLM{response: []byte(`{"carrier": "Acme Mutual", "policy_number": "AP-1"}`)}
	f := newFixture(t, client)

	draft, err := f.svc.Extract(context.Background(), f.userID, f.docID)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if draft.Carrier == nil || *draft.Carrier != "Acme Mutual" {
		t.Fatalf("carrier = %v", draft.Carrier)
	}
	if got := f.status(t); got != documents.ExtractionDone {
		t.Fatalf("status = %s, want done", got)
	}
	if client.calls != 1 {
		t.Fatalf("llm calls = %d", client.calls)
	}
}

func TestExtractRejectsWhilePending(t *testing.T) {
	client := &stubLLM{response: []byte(`{}`)}
	f := newFixture(t, client)

	if err := f.docs.UpdateExtractionStatus(context.Background(), f.docID, documents.ExtractionPending); err != nil {
		t.Fatalf("set pending: %v", err)
	}
	_, err := f.svc.Extract(context.Background(), f.userID, f.docID)
	if !errors.Is(err, extraction.ErrExtractionPending) {
		t.Fatalf("expected ErrExtractionPending, got %v", err)
	}
	if client.calls != 0 {
		t.Fatalf("llm should not be called, got %d calls", client.calls)
	}
}

func TestExtractAllowsRetryAfterFailure(t *testing.T) {
	client := &stubLLM{err: errors.New("model timeout")}
	f := newFixture(t, client)
	ctx := context.Background()

	_, err := f.svc.Extract(ctx, f.userID, f.docID)
	var failErr *extraction.ExtractionFailedError
	if !errors.As(err, &failErr) {
		t.Fatalf("expected ExtractionFailedError, got %v", err)
	}
	if got := f.status(t); got != documents.ExtractionFailed {
		t.Fatalf("status = %s, want failed", got)
	}

	client.err = nil
	client.response = []byte(`{"carrier": "Acme Mutual"}`)
	if _, err := f.svc.Extract(ctx, f.userID, f.docID); err != nil {
		t.Fatalf("retry extract: %v", err)
	}
	if got := f.status(t); got != documents.ExtractionDone {
		t.Fatalf("status after retry = %s, want done", got)
	}
}

func TestExtractCredentialFailureIsSoft(t *testing.T) {
	client := &stubLLM{err: fmt.Errorf("provider: %w", llm.ErrNoCredentials)}
	f := newFixture(t, client)

	_, err := f.svc.Extract(context.Background(), f.userID, f.docID)
	if !errors.Is(err, extraction.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if got := f.status(t); got != documents.ExtractionFailed {
		t.Fatalf("status = %s, want failed", got)
	}
}

func TestExtractMalformedResponseIsHardFailure(t *testing.T) {
	client := &stubLLM{response: []byte("sorry, no JSON here")}
	f := newFixture(t, client)

	_, err := f.svc.Extract(context.Background(), f.userID, f.docID)
	var failErr *extraction.ExtractionFailedError
	if !errors.As(err, &failErr) {
		t.Fatalf("expected ExtractionFailedError, got %v", err)
	}
	if got := f.status(t); got != documents.ExtractionFailed {
		t.Fatalf("status = %s, want failed", got)
	}
}

func TestExtractOwnership(t *testing.T) {
	client := &stubLLM{response: []byte(`{}`)}
	f := newFixture(t, client)

	_, err := f.svc.Extract(context.Background(), "guest:intruder", f.docID)
	if !errors.Is(err, documents.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign user, got %v", err)
	}
	if got := f.status(t); got != documents.ExtractionNone {
		t.Fatalf("status = %s, want none", got)
	}
}

func TestStartAsyncParksDraftInHandoff(t *testing.T) {
	client := &stubLLM{response: []byte(`{"carrier": "Acme Mutual"}`)}
	f := newFixture(t, client)
	ctx := context.Background()

	f.svc.StartAsync(ctx, f.userID, f.docID)

	deadline := time.Now().Add(2 * time.Second)
	for {
		pending, ok, err := f.handoff.TakeIfPresent(ctx, f.policyID)
		if err != nil {
			t.Fatalf("take pending: %v", err)
		}
		if ok {
			if pending.DocumentID != f.docID {
				t.Fatalf("pending documentId = %s", pending.DocumentID)
			}
			var draft extraction.Draft
			if err := json.Unmarshal(pending.Draft, &draft); err != nil {
				t.Fatalf("decode pending draft: %v", err)
			}
			if draft.Carrier == nil || *draft.Carrier != "Acme Mutual" {
				t.Fatalf("pending carrier = %v", draft.Carrier)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for handoff draft")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// The slot was consumed above; a second fetch sees nothing.
	if _, ok, _ := f.handoff.TakeIfPresent(ctx, f.policyID); ok {
		t.Fatalf("expected handoff slot to be consumed")
	}
}

func TestPendingDraftChecksOwnership(t *testing.T) {
	client := &stubLLM{response: []byte(`{}`)}
	f := newFixture(t, client)
	ctx := context.Background()

	if err := f.handoff.Put(ctx, f.policyID, handoff.Pending{DocumentID: f.docID, Draft: []byte(`{}`)}); err != nil {
		t.Fatalf("put pending: %v", err)
	}

	if _, _, err := f.svc.PendingDraft(ctx, "guest:intruder", f.policyID); !errors.Is(err, documents.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign user, got %v", err)
	}

	pending, ok, err := f.svc.PendingDraft(ctx, f.userID, f.policyID)
	if err != nil || !ok {
		t.Fatalf("pending draft: ok=%v err=%v", ok, err)
	}
	if pending.DocumentID != f.docID {
		t.Fatalf("pending documentId = %s", pending.DocumentID)
	}
}

func TestExtractImageDocumentUsesVision(t *testing.T) {
	client := &stubLLM{response: []byte(`{"carrier": "Acme Mutual"}`)}
	f := newFixture(t, client)
	ctx := context.Background()

	imgBytes := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}
	saver, ok := f.svc.Store.(interface {
		SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
	})
	if !ok {
		t.Fatalf("store does not support SaveWithKey")
	}
	if _, err := saver.SaveWithKey(ctx, "k/scan-1", "image/png", bytes.NewReader(imgBytes)); err != nil {
		t.Fatalf("save image: %v", err)
	}
	if err := f.docs.Create(ctx, documents.Document{
		ID:               "doc-img",
		PolicyID:         f.policyID,
		FileName:         "scan.png",
		MimeType:         "image/png",
		StorageKey:       "k/scan-1",
		Category:         documents.CategoryDecPage,
		ExtractionStatus: documents.ExtractionNone,
		CreatedAt:        time.Now().UTC(),
	}); err != nil {
		t.Fatalf("create document: %v", err)
	}

	draft, err := f.svc.Extract(ctx, f.userID, "doc-img")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if draft.Carrier == nil || *draft.Carrier != "Acme Mutual" {
		t.Fatalf("carrier = %v", draft.Carrier)
	}
	if client.calls != 0 {
		t.Fatalf("text calls = %d, want 0", client.calls)
	}
	if len(client.imageCalls) != 1 || len(client.imageCalls[0]) != 1 {
		t.Fatalf("image calls = %v", client.imageCalls)
	}
	img := client.imageCalls[0][0]
	if img.MediaType != "image/png" {
		t.Fatalf("media type = %s", img.MediaType)
	}
	if !bytes.Equal(img.Data, imgBytes) {
		t.Fatalf("image payload does not match stored bytes")
	}
	doc, err := f.docs.GetByID(ctx, "doc-img")
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if doc.ExtractionStatus != documents.ExtractionDone {
		t.Fatalf("status = %s, want done", doc.ExtractionStatus)
	}
}

func TestExtractFailsOnEmptyDocumentText(t *testing.T) {
	client := &stubLLM{response: []byte(`{}`)}
	f := newFixture(t, client)
	ctx := context.Background()

	saver, ok := f.svc.Store.(interface {
		SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
	})
	if !ok {
		t.Fatalf("store does not support SaveWithKey")
	}
	if _, err := saver.SaveWithKey(ctx, "k/doc-1.extracted.txt", "text/plain", strings.NewReader("  \n\t ")); err != nil {
		t.Fatalf("save text: %v", err)
	}

	_, err := f.svc.Extract(ctx, f.userID, f.docID)
	var failErr *extraction.ExtractionFailedError
	if !errors.As(err, &failErr) {
		t.Fatalf("expected ExtractionFailedError, got %v", err)
	}
	if !strings.Contains(failErr.Reason, "no extractable text") {
		t.Fatalf("reason = %q", failErr.Reason)
	}
	if client.calls != 0 || len(client.imageCalls) != 0 {
		t.Fatalf("model called on empty document: text=%d image=%d", client.calls, len(client.imageCalls))
	}
	if got := f.status(t); got != documents.ExtractionFailed {
		t.Fatalf("status = %s, want failed", got)
	}
}
