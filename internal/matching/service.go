package matching

import (
	"context"
	"errors"
	"fmt"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/config"

	"github.com/google/uuid"
)

const defaultCandidateLimit = 200

// LeadReader loads the lead whose stored preferences form the profile.
type LeadReader interface {
	GetLead(ctx context.Context, tenantID, leadID uuid.UUID) (domain.Lead, error)
}

// CandidateReader lists the tenant's available inventory, newest first.
type CandidateReader interface {
	ListCandidates(ctx context.Context, tenantID uuid.UUID, limit int) ([]Candidate, error)
}

// Service matches a stored lead against the tenant's inventory.
type Service struct {
	leads      LeadReader
	candidates CandidateReader
	engine     *Engine
	limit      int
}

func NewService(leads LeadReader, candidates CandidateReader, engine *Engine, cfg config.MatchingConfig) *Service {
	limit := cfg.GetMatchingCandidateLimit()
	if limit <= 0 {
		limit = defaultCandidateLimit
	}
	return &Service{leads: leads, candidates: candidates, engine: engine, limit: limit}
}

func (s *Service) MatchLead(ctx context.Context, tenantID, leadID uuid.UUID, maxResults int) (Result, error) {
	lead, err := s.leads.GetLead(ctx, tenantID, leadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Result{}, apperr.NotFound("lead not found")
		}
		return Result{}, err
	}

	candidates, err := s.candidates.ListCandidates(ctx, tenantID, s.limit)
	if err != nil {
		return Result{}, fmt.Errorf("list candidates: %w", err)
	}

	return s.engine.FindMatches(ctx, tenantID, lead.Preferences, candidates, maxResults)
}
