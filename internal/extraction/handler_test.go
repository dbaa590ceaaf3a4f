package extraction_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"policyvault-backend/internal/bootstrap"
	"policyvault-backend/internal/documents"
	"policyvault-backend/internal/handoff"
	"policyvault-backend/internal/llm"
	"policyvault-backend/internal/shared/config"
)

func newHTTPApp(t *testing.T) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:3000"},
		LocalStoreDir:   t.TempDir(),
		Env:             "dev",
		ObjectStoreType: "local",
	}
	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Guest-Id", "test-guest")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func setupPolicyWithDocument(t *testing.T, app *bootstrap.App) (policyID, documentID string) {
	t.Helper()
	router := app.Router

	resp := doJSON(t, router, http.MethodPost, "/api/v1/policies", map[string]any{
		"scope":      "personal",
		"policyType": "auto",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("create policy: %d %s", resp.Code, resp.Body.String())
	}
	var policy struct {
		PolicyID string `json:"policyId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&policy); err != nil {
		t.Fatalf("decode policy: %v", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fileWriter, err := writer.CreateFormFile("file", "dec.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fileWriter.Write([]byte("Carrier: Acme Mutual. Policy AP-1234. Coverage $300,000.")); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/policies/"+policy.PolicyID+"/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Guest-Id", "test-guest")
	uploadResp := httptest.NewRecorder()
	router.ServeHTTP(uploadResp, req)
	if uploadResp.Code != http.StatusCreated {
		t.Fatalf("upload: %d %s", uploadResp.Code, uploadResp.Body.String())
	}
	var doc struct {
		DocumentID string `json:"documentId"`
	}
	if err := json.NewDecoder(uploadResp.Body).Decode(&doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	return policy.PolicyID, doc.DocumentID
}

func TestExtractEndpointReturnsDraft(t *testing.T) {
	app := newHTTPApp(t)
	_, documentID := setupPolicyWithDocument(t, app)

	app.ExtractionService.LLM = &stubLLM{response: []byte(`{"carrier": "Acme Mutual", "policy_number": "AP-1234"}`)}

	resp := doJSON(t, app.Router, http.MethodPost, "/api/v1/documents/"+documentID+"/extract", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("extract: %d %s", resp.Code, resp.Body.String())
	}
	var out struct {
		Available  bool   `json:"available"`
		DocumentID string `json:"documentId"`
		Draft      struct {
			Carrier      *string `json:"carrier"`
			PolicyNumber *string `json:"policyNumber"`
		} `json:"draft"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Available || out.DocumentID != documentID {
		t.Fatalf("response = %+v", out)
	}
	if out.Draft.Carrier == nil || *out.Draft.Carrier != "Acme Mutual" {
		t.Fatalf("draft carrier = %v", out.Draft.Carrier)
	}
}

func TestExtractEndpointSoftUnavailable(t *testing.T) {
	app := newHTTPApp(t)
	_, documentID := setupPolicyWithDocument(t, app)

	app.ExtractionService.LLM = llm.UnconfiguredClient{}

	resp := doJSON(t, app.Router, http.MethodPost, "/api/v1/documents/"+documentID+"/extract", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("extract: %d %s", resp.Code, resp.Body.String())
	}
	var out struct {
		Available bool `json:"available"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Available {
		t.Fatalf("expected available=false")
	}
}

func TestExtractEndpointConflictWhilePending(t *testing.T) {
	app := newHTTPApp(t)
	_, documentID := setupPolicyWithDocument(t, app)

	if err := app.DocumentsRepo.UpdateExtractionStatus(context.Background(), documentID, documents.ExtractionPending); err != nil {
		t.Fatalf("set pending: %v", err)
	}

	resp := doJSON(t, app.Router, http.MethodPost, "/api/v1/documents/"+documentID+"/extract", nil)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
}

func TestExtractEndpointUnknownDocument(t *testing.T) {
	app := newHTTPApp(t)

	resp := doJSON(t, app.Router, http.MethodPost, "/api/v1/documents/nope/extract", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestPendingEndpointConsumesSlot(t *testing.T) {
	app := newHTTPApp(t)
	policyID, documentID := setupPolicyWithDocument(t, app)

	ctx := context.Background()
	if err := app.Handoff.Put(ctx, policyID, handoff.Pending{DocumentID: documentID, Draft: []byte(`{"carrier":"Acme Mutual"}`)}); err != nil {
		t.Fatalf("put pending: %v", err)
	}

	resp := doJSON(t, app.Router, http.MethodGet, "/api/v1/policies/"+policyID+"/extraction/pending", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("pending: %d %s", resp.Code, resp.Body.String())
	}
	var out struct {
		DocumentID string          `json:"documentId"`
		Draft      json.RawMessage `json:"draft"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.DocumentID != documentID {
		t.Fatalf("documentId = %s", out.DocumentID)
	}

	// The slot is consumed by the read.
	second := doJSON(t, app.Router, http.MethodGet, "/api/v1/policies/"+policyID+"/extraction/pending", nil)
	if second.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on second read, got %d", second.Code)
	}
}

func TestConfirmEndpointAppliesDraft(t *testing.T) {
	app := newHTTPApp(t)
	policyID, documentID := setupPolicyWithDocument(t, app)

	draft := map[string]any{
		"carrier":        "Acme Mutual",
		"policyNumber":   "AP-1234",
		"coverageAmount": 300000,
		"contacts": []map[string]any{
			{"role": "agent", "name": "Sam Okafor"},
		},
		"details": []map[string]any{
			{"fieldName": "named_insured", "fieldValue": "Jordan Reyes"},
		},
	}
	resp := doJSON(t, app.Router, http.MethodPost, "/api/v1/documents/"+documentID+"/extract/confirm", draft)
	if resp.Code != http.StatusOK {
		t.Fatalf("confirm: %d %s", resp.Code, resp.Body.String())
	}

	policyResp := doJSON(t, app.Router, http.MethodGet, "/api/v1/policies/"+policyID, nil)
	if policyResp.Code != http.StatusOK {
		t.Fatalf("get policy: %d", policyResp.Code)
	}
	var policy struct {
		Carrier        string `json:"carrier"`
		PolicyNumber   string `json:"policyNumber"`
		CoverageAmount *int64 `json:"coverageAmount"`
	}
	if err := json.NewDecoder(policyResp.Body).Decode(&policy); err != nil {
		t.Fatalf("decode policy: %v", err)
	}
	if policy.Carrier != "Acme Mutual" || policy.PolicyNumber != "AP-1234" {
		t.Fatalf("policy = %+v", policy)
	}
	if policy.CoverageAmount == nil || *policy.CoverageAmount != 300000 {
		t.Fatalf("coverageAmount = %v", policy.CoverageAmount)
	}

	contactsResp := doJSON(t, app.Router, http.MethodGet, "/api/v1/policies/"+policyID+"/contacts", nil)
	var contacts []struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(contactsResp.Body).Decode(&contacts); err != nil {
		t.Fatalf("decode contacts: %v", err)
	}
	if len(contacts) != 1 || contacts[0].Name != "Sam Okafor" {
		t.Fatalf("contacts = %+v", contacts)
	}
}

func TestDiscardEndpointDropsPending(t *testing.T) {
	app := newHTTPApp(t)
	policyID, documentID := setupPolicyWithDocument(t, app)

	ctx := context.Background()
	if err := app.Handoff.Put(ctx, policyID, handoff.Pending{DocumentID: documentID, Draft: []byte(`{}`)}); err != nil {
		t.Fatalf("put pending: %v", err)
	}

	resp := doJSON(t, app.Router, http.MethodPost, "/api/v1/documents/"+documentID+"/extract/discard", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("discard: %d %s", resp.Code, resp.Body.String())
	}

	pendingResp := doJSON(t, app.Router, http.MethodGet, "/api/v1/policies/"+policyID+"/extraction/pending", nil)
	if pendingResp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 after discard, got %d", pendingResp.Code)
	}
}
