package matching

import (
	"slices"
	"testing"

	"leadflow_backend/internal/leads/domain"
)

func ptr[T any](v T) *T { return &v }

func TestLocalScorePrice(t *testing.T) {
	cases := []struct {
		name     string
		min, max *float64
		price    float64
		want     int
		wantCode ReasonCode
	}{
		{"within range", ptr(800_000.0), ptr(1_000_000.0), 900_000, 25, ReasonPriceInRange},
		{"range edge", ptr(800_000.0), ptr(1_000_000.0), 1_000_000, 25, ReasonPriceInRange},
		{"10 percent over", ptr(800_000.0), ptr(1_000_000.0), 1_080_000, 15, ReasonPriceNear},
		{"10 percent under", ptr(800_000.0), ptr(1_000_000.0), 730_000, 15, ReasonPriceNear},
		{"far over", ptr(800_000.0), ptr(1_000_000.0), 1_200_000, 0, ""},
		{"max only", nil, ptr(500_000.0), 120_000, 25, ReasonPriceInRange},
		{"no budget", nil, nil, 120_000, 0, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			score, codes := LocalScore(domain.Preferences{BudgetMin: tc.min, BudgetMax: tc.max}, Candidate{Price: tc.price})
			if score != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, score)
			}
			if tc.wantCode != "" && !slices.Contains(codes, tc.wantCode) {
				t.Fatalf("expected reason %s in %v", tc.wantCode, codes)
			}
		})
	}
}

func TestLocalScorePetsForbiddenClampsAtZero(t *testing.T) {
	score, codes := LocalScore(domain.Preferences{PetsRequired: true}, Candidate{Features: Features{PetFriendly: ptr(false)}})
	if score != 0 {
		t.Fatalf("expected 0, got %d", score)
	}
	if !slices.Equal(codes, []ReasonCode{ReasonPetsForbidden}) {
		t.Fatalf("expected pets_forbidden, got %v", codes)
	}
}

func TestLocalScorePetsPenaltySubtracts(t *testing.T) {
	profile := domain.Preferences{Category: ptr("house"), PetsRequired: true}
	forbidden, _ := LocalScore(profile, Candidate{Category: "House", Features: Features{PetFriendly: ptr(false)}})
	allowed, _ := LocalScore(profile, Candidate{Category: "house", Features: Features{PetFriendly: ptr(true)}})
	unknown, _ := LocalScore(profile, Candidate{Category: "house"})
	if forbidden != 15 || allowed != 30 || unknown != 25 {
		t.Fatalf("unexpected pet scores forbidden=%d allowed=%d unknown=%d", forbidden, allowed, unknown)
	}
}

func TestLocalScoreLocationGates(t *testing.T) {
	have := domain.Location{State: "UT", City: "Utrecht", District: "Oost"}
	cases := []struct {
		name string
		want domain.Location
		pts  int
	}{
		{"all levels", domain.Location{State: "ut", City: "utrecht", District: "oost"}, 30},
		{"state mismatch closes gate", domain.Location{State: "NH", City: "Utrecht", District: "Oost"}, 0},
		{"city mismatch stops district", domain.Location{State: "UT", City: "Amersfoort", District: "Oost"}, 10},
		{"unstated state closes gate", domain.Location{City: "Utrecht"}, 0},
		{"unstated state blocks city and district", domain.Location{City: "Utrecht", District: "Oost"}, 0},
		{"unstated city blocks district", domain.Location{State: "UT", District: "Oost"}, 10},
		{"nothing stated", domain.Location{}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			score, _ := LocalScore(domain.Preferences{Location: tc.want}, Candidate{Location: have})
			if score != tc.pts {
				t.Fatalf("expected %d, got %d", tc.pts, score)
			}
		})
	}
}

func TestLocalScoreFeatures(t *testing.T) {
	profile := domain.Preferences{BedroomsMin: ptr(2), BedroomsMax: ptr(3), ParkingMin: ptr(1), AreaMin: ptr(70.0)}
	cases := []struct {
		name     string
		features Features
		want     int
	}{
		{"all met", Features{Bedrooms: 3, Parking: 1, AreaSqm: 85}, 25},
		{"too many bedrooms loses bonus", Features{Bedrooms: 4, Parking: 1, AreaSqm: 85}, 20},
		{"too few bedrooms", Features{Bedrooms: 1, Parking: 2, AreaSqm: 85}, 10},
		{"nothing met", Features{}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got, _ := LocalScore(profile, Candidate{Features: tc.features}); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestLocalScoreNeverExceedsHundred(t *testing.T) {
	profile := domain.Preferences{
		Category: ptr("apartment"), BudgetMax: ptr(300_000.0),
		Location:    domain.Location{State: "UT", City: "Utrecht", District: "Oost"},
		BedroomsMin: ptr(1), BedroomsMax: ptr(4), ParkingMin: ptr(0), AreaMin: ptr(10.0), PetsRequired: true,
	}
	c := Candidate{
		Category: "apartment", Price: 250_000,
		Location: domain.Location{State: "UT", City: "Utrecht", District: "Oost"},
		Features: Features{Bedrooms: 2, Parking: 1, AreaSqm: 60, PetFriendly: ptr(true)},
	}
	if score, _ := LocalScore(profile, c); score != 100 {
		t.Fatalf("expected clamp at 100, got %d", score)
	}
}

func TestTemplatedReasonsStrongestFirst(t *testing.T) {
	reasons := templatedReasons([]ReasonCode{ReasonState, ReasonCategory, ReasonParking, ReasonPriceInRange, ReasonPetsForbidden}, Candidate{Category: "loft"})
	want := []string{"Matches the requested property type (loft)", "Price is within budget", "In the requested region"}
	if !slices.Equal(reasons, want) {
		t.Fatalf("expected %v, got %v", want, reasons)
	}
}
