package documents

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"policyvault-backend/internal/policies"
	"policyvault-backend/internal/shared/server/middleware"
	"policyvault-backend/internal/shared/server/respond"
	"policyvault-backend/internal/shared/telemetry"
)

const maxUploadSize = 25 << 20 // 25MB

// ExtractStarter kicks off asynchronous extraction after an upload.
type ExtractStarter interface {
	StartAsync(ctx context.Context, userId, documentID string)
}

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc       *Service
	Extractor ExtractStarter
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, extractor ExtractStarter) *Handler {
	return &Handler{Svc: svc, Extractor: extractor}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/policies/:id/documents", h.upload)
	rg.GET("/policies/:id/documents", h.list)
	rg.GET("/documents/:id/file", h.file)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	policyID := c.Param("id")
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	category := c.PostForm("category")

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	requestID := middleware.RequestIDFromContext(c)
	progress := func(pct int) {
		telemetry.Debug("upload.progress", map[string]any{
			"request_id": requestID,
			"policy_id":  policyID,
			"pct":        pct,
		})
	}

	doc, err := h.Svc.Upload(c.Request.Context(), userID, policyID, category, fileHeader.Filename, fileHeader.Size, file, progress)
	if err != nil {
		var uploadErr *UploadFailedError
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "file must be non-empty with a recognizable content type and a valid category", nil)
		case errors.Is(err, ErrNotFound), errors.Is(err, policies.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "policy not found", nil)
		case errors.As(err, &uploadErr):
			respond.Error(c, uploadErr.Status, "upload_failed", uploadErr.Message, nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to upload document", nil)
		}
		return
	}

	if wantsExtract(c.Query("extract")) && h.Extractor != nil {
		h.Extractor.StartAsync(c.Request.Context(), userID, doc.ID)
	}

	respond.JSON(c, http.StatusCreated, toResponse(doc))
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	docs, err := h.Svc.List(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "policy not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		}
		return
	}

	resp := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, toResponse(doc))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) file(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	doc, body, err := h.Svc.OpenFile(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to open document", nil)
		}
		return
	}
	defer body.Close()

	c.Header("Content-Disposition", `inline; filename="`+doc.FileName+`"`)
	c.DataFromReader(http.StatusOK, doc.SizeBytes, doc.MimeType, body, nil)
}

func wantsExtract(raw string) bool {
	if raw == "" {
		return false
	}
	parsed, err := strconv.ParseBool(raw)
	return err == nil && parsed
}
