package adapters

import (
	"context"
	"fmt"

	inventoryrepo "leadflow_backend/internal/inventory/repository"
	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/matching"

	"github.com/google/uuid"
)

// InventoryCandidateReader implements matching.CandidateReader using the inventory repository.
type InventoryCandidateReader struct {
	repo *inventoryrepo.Repository
}

func NewInventoryCandidateReader(repo *inventoryrepo.Repository) *InventoryCandidateReader {
	return &InventoryCandidateReader{repo: repo}
}

func (a *InventoryCandidateReader) ListCandidates(ctx context.Context, tenantID uuid.UUID, limit int) ([]matching.Candidate, error) {
	if a == nil || a.repo == nil {
		return nil, fmt.Errorf("inventory reader not configured")
	}
	items, err := a.repo.ListAvailable(ctx, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}

	out := make([]matching.Candidate, 0, len(items))
	for _, item := range items {
		out = append(out, toCandidate(item))
	}
	return out, nil
}

func toCandidate(item inventoryrepo.Item) matching.Candidate {
	return matching.Candidate{
		ID:       item.ID,
		TenantID: item.TenantID,
		Title:    item.Title,
		Category: item.Category,
		Price:    item.Price,
		Location: domain.Location{State: item.State, City: item.City, District: item.District},
		Features: matching.Features{
			Bedrooms:    item.Bedrooms,
			Parking:     item.Parking,
			AreaSqm:     item.AreaSqm,
			Furnished:   item.Furnished,
			PetFriendly: item.PetFriendly,
		},
		MediaKeys:  item.MediaKeys,
		Highlights: item.Highlights,
		CreatedAt:  item.CreatedAt,
	}
}

// Compile-time check that InventoryCandidateReader implements matching.CandidateReader.
var _ matching.CandidateReader = (*InventoryCandidateReader)(nil)
