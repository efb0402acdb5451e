package matching

import (
	"context"
	"testing"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/platform/apperr"

	"github.com/google/uuid"
)

type leadStub struct{ lead domain.Lead }

func (l leadStub) GetLead(_ context.Context, tenant, id uuid.UUID) (domain.Lead, error) {
	if l.lead.ID != id || l.lead.TenantID != tenant {
		return domain.Lead{}, repository.ErrNotFound
	}
	return l.lead, nil
}

type candidateStub struct {
	items []Candidate
	limit int
}

func (c *candidateStub) ListCandidates(_ context.Context, _ uuid.UUID, limit int) ([]Candidate, error) {
	c.limit = limit
	return c.items, nil
}

func TestMatchLeadUsesStoredPreferences(t *testing.T) {
	lead := domain.Lead{ID: uuid.New(), TenantID: tenantID, Preferences: profile()}
	stub := &candidateStub{items: inventory()}
	svc := NewService(leadStub{lead: lead}, stub, newEngine(&fakeGateway{answer: "nope"}), matchingConfig{})

	res, err := svc.MatchLead(context.Background(), tenantID, lead.ID, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.limit != 200 {
		t.Fatalf("expected candidate limit 200, got %d", stub.limit)
	}
	if len(res.Matches) != 2 || res.Matches[0].LocalScore != 60 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestMatchLeadNotFound(t *testing.T) {
	svc := NewService(leadStub{}, &candidateStub{}, newEngine(&fakeGateway{}), matchingConfig{})

	_, err := svc.MatchLead(context.Background(), tenantID, uuid.New(), 5)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
