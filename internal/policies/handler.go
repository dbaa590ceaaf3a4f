package policies

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"policyvault-backend/internal/shared/server/middleware"
	"policyvault-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches policy routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/policies", h.create)
	rg.GET("/policies", h.list)
	rg.GET("/policies/:id", h.get)
	rg.PATCH("/policies/:id", h.update)
	rg.GET("/policies/:id/contacts", h.listContacts)
	rg.POST("/policies/:id/contacts", h.addContact)
	rg.GET("/policies/:id/coverage-items", h.listCoverageItems)
	rg.POST("/policies/:id/coverage-items", h.addCoverageItem)
	rg.GET("/policies/:id/details", h.listDetails)
	rg.POST("/policies/:id/details", h.addDetail)
	rg.GET("/policies/:id/suggested-fields", h.suggestedFields)
}

type createRequest struct {
	Scope          string  `json:"scope"`
	PolicyType     string  `json:"policyType"`
	Carrier        string  `json:"carrier"`
	PolicyNumber   string  `json:"policyNumber"`
	Nickname       string  `json:"nickname"`
	CoverageAmount *int64  `json:"coverageAmount"`
	Deductible     *int64  `json:"deductible"`
	PremiumAmount  *int64  `json:"premiumAmount"`
	RenewalDate    *string `json:"renewalDate"`
}

func (h *Handler) create(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	renewal, ok := parseDate(req.RenewalDate)
	if !ok {
		respond.Error(c, http.StatusBadRequest, "validation_error", "renewalDate must be YYYY-MM-DD", nil)
		return
	}

	policy, err := h.Svc.Create(c.Request.Context(), userID, CreateInput{
		Scope:          req.Scope,
		PolicyType:     req.PolicyType,
		Carrier:        req.Carrier,
		PolicyNumber:   req.PolicyNumber,
		Nickname:       req.Nickname,
		CoverageAmount: req.CoverageAmount,
		Deductible:     req.Deductible,
		PremiumAmount:  req.PremiumAmount,
		RenewalDate:    renewal,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "scope and policyType are required", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create policy", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, toResponse(policy))
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	policies, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list policies", nil)
		return
	}

	resp := make([]PolicyResponse, 0, len(policies))
	for _, policy := range policies {
		resp = append(resp, toResponse(policy))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	policy, err := h.Svc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.respondErr(c, err, "failed to fetch policy")
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(policy))
}

type updateRequest struct {
	Scope          *string `json:"scope"`
	PolicyType     *string `json:"policyType"`
	Carrier        *string `json:"carrier"`
	PolicyNumber   *string `json:"policyNumber"`
	Nickname       *string `json:"nickname"`
	Status         *string `json:"status"`
	CoverageAmount *int64  `json:"coverageAmount"`
	Deductible     *int64  `json:"deductible"`
	PremiumAmount  *int64  `json:"premiumAmount"`
	RenewalDate    *string `json:"renewalDate"`
}

func (h *Handler) update(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	renewal, ok := parseDate(req.RenewalDate)
	if !ok {
		respond.Error(c, http.StatusBadRequest, "validation_error", "renewalDate must be YYYY-MM-DD", nil)
		return
	}

	policy, err := h.Svc.Update(c.Request.Context(), userID, c.Param("id"), UpdateInput{
		Scope:          req.Scope,
		PolicyType:     req.PolicyType,
		Carrier:        req.Carrier,
		PolicyNumber:   req.PolicyNumber,
		Nickname:       req.Nickname,
		Status:         req.Status,
		CoverageAmount: req.CoverageAmount,
		Deductible:     req.Deductible,
		PremiumAmount:  req.PremiumAmount,
		RenewalDate:    renewal,
	})
	if err != nil {
		h.respondErr(c, err, "failed to update policy")
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(policy))
}

type contactRequest struct {
	Role    string `json:"role"`
	Name    string `json:"name"`
	Company string `json:"company"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

func (h *Handler) addContact(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	contact, err := h.Svc.AddContact(c.Request.Context(), userID, c.Param("id"), Contact{
		Role:    req.Role,
		Name:    req.Name,
		Company: req.Company,
		Phone:   req.Phone,
		Email:   req.Email,
	})
	if err != nil {
		h.respondErr(c, err, "failed to add contact")
		return
	}
	respond.JSON(c, http.StatusCreated, toContactResponse(contact))
}

func (h *Handler) listContacts(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	contacts, err := h.Svc.Contacts(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.respondErr(c, err, "failed to list contacts")
		return
	}
	resp := make([]ContactResponse, 0, len(contacts))
	for _, contact := range contacts {
		resp = append(resp, toContactResponse(contact))
	}
	respond.JSON(c, http.StatusOK, resp)
}

type coverageItemRequest struct {
	ItemType    string `json:"itemType"`
	Description string `json:"description"`
	Limit       string `json:"limit"`
}

func (h *Handler) addCoverageItem(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req coverageItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	item, err := h.Svc.AddCoverageItem(c.Request.Context(), userID, c.Param("id"), CoverageItem{
		ItemType:    req.ItemType,
		Description: req.Description,
		Limit:       req.Limit,
	})
	if err != nil {
		h.respondErr(c, err, "failed to add coverage item")
		return
	}
	respond.JSON(c, http.StatusCreated, toCoverageItemResponse(item))
}

func (h *Handler) listCoverageItems(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	items, err := h.Svc.CoverageItems(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.respondErr(c, err, "failed to list coverage items")
		return
	}
	resp := make([]CoverageItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toCoverageItemResponse(item))
	}
	respond.JSON(c, http.StatusOK, resp)
}

type detailRequest struct {
	FieldName  string `json:"fieldName"`
	FieldValue string `json:"fieldValue"`
}

func (h *Handler) addDetail(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req detailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	detail, err := h.Svc.AddDetail(c.Request.Context(), userID, c.Param("id"), PolicyDetail{
		FieldName:  req.FieldName,
		FieldValue: req.FieldValue,
	})
	if err != nil {
		h.respondErr(c, err, "failed to add detail")
		return
	}
	respond.JSON(c, http.StatusCreated, toDetailResponse(detail))
}

func (h *Handler) listDetails(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	details, err := h.Svc.Details(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.respondErr(c, err, "failed to list details")
		return
	}
	resp := make([]DetailResponse, 0, len(details))
	for _, detail := range details {
		resp = append(resp, toDetailResponse(detail))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) suggestedFields(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	available, err := h.Svc.AvailableSuggestions(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.respondErr(c, err, "failed to compute suggested fields")
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"suggestedFields": available})
}

func (h *Handler) respondErr(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "policy not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}

func parseDate(raw *string) (*time.Time, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}
	parsed, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, false
	}
	return &parsed, true
}
