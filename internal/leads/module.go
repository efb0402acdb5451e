// Package leads wires the lead bounded context: conversation ingestion,
// analysis and temperature history.
package leads

import (
	"context"
	"errors"

	"leadflow_backend/internal/events"
	apphttp "leadflow_backend/internal/http"
	"leadflow_backend/internal/leads/analysis"
	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/handler"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/clock"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler  *handler.Handler
	pipeline *analysis.Pipeline
	repo     *repository.Repository
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, gateway analysis.Inference, clk clock.Clock, val *validator.Validator, cfg config.AnalysisConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)
	pipeline := analysis.New(repo, gateway, eventBus, clk, val, cfg, log)
	h := handler.New(pipeline, &transitionHistory{repo: repo}, val)

	return &Module{handler: h, pipeline: pipeline, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Repository returns the leads repository for cross-module adapters.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// SetDispatcher enables outbound delivery of generated replies.
func (m *Module) SetDispatcher(d analysis.Dispatcher) {
	m.pipeline.WithDispatcher(d)
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	var limit gin.HandlerFunc
	if ctx.MessageRateLimiter != nil {
		limit = ctx.MessageRateLimiter.RateLimit()
	}
	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"), limit)
}

type leadTransitionStore interface {
	GetLead(ctx context.Context, tenantID, leadID uuid.UUID) (domain.Lead, error)
	ListTransitions(ctx context.Context, tenantID, leadID uuid.UUID) ([]domain.TemperatureTransition, error)
}

// transitionHistory resolves the lead first so a foreign lead id yields NotFound
// instead of an empty list.
type transitionHistory struct {
	repo leadTransitionStore
}

func (t *transitionHistory) ListLeadTransitions(ctx context.Context, tenantID, leadID uuid.UUID) ([]domain.TemperatureTransition, error) {
	if _, err := t.repo.GetLead(ctx, tenantID, leadID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("lead not found")
		}
		return nil, err
	}
	return t.repo.ListTransitions(ctx, tenantID, leadID)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
