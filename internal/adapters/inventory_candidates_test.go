package adapters

import (
	"testing"
	"time"

	inventoryrepo "leadflow_backend/internal/inventory/repository"

	"github.com/google/uuid"
)

func TestToCandidateMapsAllFields(t *testing.T) {
	pets := false
	item := inventoryrepo.Item{
		ID: uuid.New(), TenantID: uuid.New(), Title: "Canal house", Category: "house", Price: 750000,
		State: "NH", City: "Amsterdam", District: "Jordaan", Bedrooms: 3, Parking: 1, AreaSqm: 120,
		Furnished: true, PetFriendly: &pets, MediaKeys: []string{"k1"}, Highlights: []string{"Canal view"},
		CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	c := toCandidate(item)
	if c.ID != item.ID || c.TenantID != item.TenantID || c.Price != item.Price || c.Category != "house" {
		t.Fatalf("identity fields not mapped: %+v", c)
	}
	if c.Location.District != "Jordaan" || c.Location.City != "Amsterdam" || c.Location.State != "NH" {
		t.Fatalf("location not mapped: %+v", c.Location)
	}
	if c.Features.Bedrooms != 3 || c.Features.PetFriendly == nil || *c.Features.PetFriendly || !c.Features.Furnished {
		t.Fatalf("features not mapped: %+v", c.Features)
	}
	if len(c.MediaKeys) != 1 || c.Highlights[0] != "Canal view" || !c.CreatedAt.Equal(item.CreatedAt) {
		t.Fatalf("media or highlights not mapped: %+v", c)
	}
}
