package handler

import (
	"context"
	"errors"
	"io"

	"leadflow_backend/internal/matching"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/httpkit"
	"leadflow_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Matcher ranks the tenant inventory for a stored lead.
type Matcher interface {
	MatchLead(ctx context.Context, tenantID, leadID uuid.UUID, maxResults int) (matching.Result, error)
}

type FindMatchesRequest struct {
	MaxResults int `json:"maxResults" validate:"omitempty,min=1,max=20"`
}

type Handler struct {
	matcher Matcher
	val     *validator.Validator
}

func New(matcher Matcher, val *validator.Validator) *Handler {
	return &Handler{matcher: matcher, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/:id/matches", h.FindMatches)
}

// FindMatches accepts an empty body, which means the default result size.
func (h *Handler) FindMatches(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	leadID, ok := httpkit.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req FindMatchesRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindBadRequest, "invalid request", err))
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation("validation failed").WithDetails(validator.InvalidFields(err)))
		return
	}

	result, err := h.matcher.MatchLead(c.Request.Context(), tenantID, leadID, req.MaxResults)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}
