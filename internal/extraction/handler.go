package extraction

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"policyvault-backend/internal/documents"
	"policyvault-backend/internal/shared/server/middleware"
	"policyvault-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the extraction service and committer.
type Handler struct {
	Svc       *Service
	Committer *Committer
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, committer *Committer) *Handler {
	return &Handler{Svc: svc, Committer: committer}
}

// RegisterRoutes attaches extraction routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/:id/extract", h.extract)
	rg.GET("/policies/:id/extraction/pending", h.pending)
	rg.POST("/documents/:id/extract/confirm", h.confirm)
	rg.POST("/documents/:id/extract/discard", h.discard)
}

func (h *Handler) extract(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")

	draft, err := h.Svc.Extract(c.Request.Context(), userID, documentID)
	if err != nil {
		var failErr *ExtractionFailedError
		switch {
		case errors.Is(err, ErrUnavailable):
			respond.OK(c, gin.H{"available": false})
		case errors.Is(err, ErrExtractionPending):
			respond.Error(c, http.StatusConflict, "extraction_pending", "extraction already in progress for this document", nil)
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, documents.ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "document id is required", nil)
		case errors.As(err, &failErr):
			respond.Error(c, http.StatusBadGateway, "extraction_failed", failErr.Reason, nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "extraction failed", nil)
		}
		return
	}

	respond.OK(c, gin.H{
		"available":  true,
		"documentId": documentID,
		"draft":      draft,
	})
}

func (h *Handler) pending(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	policyID := c.Param("id")

	pending, ok, err := h.Svc.PendingDraft(c.Request.Context(), userID, policyID)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "policy not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "pending draft lookup failed", nil)
		return
	}
	if !ok {
		respond.NoContent(c)
		return
	}
	respond.OK(c, gin.H{
		"documentId": pending.DocumentID,
		"draft":      pending.Draft,
	})
}

func (h *Handler) confirm(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")

	var draft Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid draft payload", nil)
		return
	}

	if err := h.Committer.Commit(c.Request.Context(), userID, documentID, draft); err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
			return
		}
		// The draft stays with the caller so the commit can be retried.
		respond.Error(c, http.StatusInternalServerError, "commit_failed", "could not apply the extracted draft", nil)
		return
	}
	respond.OK(c, gin.H{"ok": true})
}

func (h *Handler) discard(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")

	if err := h.Committer.Discard(c.Request.Context(), userID, documentID); err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "discard failed", nil)
		return
	}
	respond.OK(c, gin.H{"ok": true})
}
