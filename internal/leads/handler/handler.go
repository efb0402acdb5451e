package handler

import (
	"context"

	"leadflow_backend/internal/leads/analysis"
	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/transport"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/httpkit"
	"leadflow_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// MessageProcessor runs inbound lead messages through analysis.
type MessageProcessor interface {
	ProcessMessage(ctx context.Context, tenantID, leadID uuid.UUID, text string) (analysis.Outcome, error)
}

// TransitionReader lists a lead's temperature history.
type TransitionReader interface {
	ListLeadTransitions(ctx context.Context, tenantID, leadID uuid.UUID) ([]domain.TemperatureTransition, error)
}

type Handler struct {
	messages    MessageProcessor
	transitions TransitionReader
	val         *validator.Validator
}

func New(messages MessageProcessor, transitions TransitionReader, val *validator.Validator) *Handler {
	return &Handler{messages: messages, transitions: transitions, val: val}
}

// RegisterRoutes mounts the lead routes. Message ingestion goes through limit
// when one is given.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, limit gin.HandlerFunc) {
	ingest := []gin.HandlerFunc{h.ProcessMessage}
	if limit != nil {
		ingest = append([]gin.HandlerFunc{limit}, ingest...)
	}
	rg.POST("/:id/messages", ingest...)
	rg.GET("/:id/temperature-transitions", h.ListTransitions)
}

func (h *Handler) ProcessMessage(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	leadID, ok := httpkit.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req transport.ProcessMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindBadRequest, msgInvalidRequest, err))
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation(msgValidationFailed).WithDetails(validator.InvalidFields(err)))
		return
	}

	outcome, err := h.messages.ProcessMessage(c.Request.Context(), tenantID, leadID, req.Text)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, outcome)
}

func (h *Handler) ListTransitions(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	leadID, ok := httpkit.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	items, err := h.transitions.ListLeadTransitions(c.Request.Context(), tenantID, leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.TemperatureTransitionsResponse{Items: make([]transport.TemperatureTransitionResponse, 0, len(items))}
	for _, t := range items {
		resp.Items = append(resp.Items, transport.TemperatureTransitionResponse{
			ID:          t.ID,
			From:        string(t.From),
			To:          string(t.To),
			ElapsedDays: t.ElapsedDays,
			Trigger:     t.Trigger,
			OccurredAt:  t.OccurredAt,
		})
	}
	httpkit.OK(c, resp)
}
