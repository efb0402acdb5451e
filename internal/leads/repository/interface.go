package repository

import (
	"context"

	"leadflow_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// LeadReader provides tenant-scoped read access to leads.
type LeadReader interface {
	GetLead(ctx context.Context, tenantID, leadID uuid.UUID) (domain.Lead, error)
}

// MessageStore manages the append-only conversation log.
type MessageStore interface {
	CreateMessage(ctx context.Context, params CreateMessageParams) (domain.Message, error)
	ListRecentMessages(ctx context.Context, tenantID, leadID uuid.UUID, limit int) ([]domain.Message, error)
	AttachAnalysis(ctx context.Context, tenantID, messageID uuid.UUID, analysis domain.AnalysisResult, scoreImpact int) error
	UpdateDeliveryStatus(ctx context.Context, tenantID, messageID uuid.UUID, status domain.DeliveryStatus) error
}

// LeadWriter updates the fields owned by the analysis pipeline.
type LeadWriter interface {
	UpdateAfterMessage(ctx context.Context, params UpdateAfterMessageParams) (domain.Lead, error)
}

// DecayStore is what the temperature decay runner needs.
type DecayStore interface {
	ListDecayCandidates(ctx context.Context, tenantID uuid.UUID) ([]domain.Lead, error)
	ApplyTemperatureTransition(ctx context.Context, rec domain.TemperatureTransition) (domain.TemperatureTransition, bool, error)
}

// LeadsRepository defines the complete interface for leads data operations.
type LeadsRepository interface {
	LeadReader
	LeadWriter
	MessageStore
	DecayStore
	ListTransitions(ctx context.Context, tenantID, leadID uuid.UUID) ([]domain.TemperatureTransition, error)
}

var _ LeadsRepository = (*Repository)(nil)
