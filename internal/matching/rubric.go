package matching

import (
	"sort"
	"strings"

	"leadflow_backend/internal/leads/domain"
)

// ReasonCode names a rubric criterion a candidate satisfied (or failed, for pets).
type ReasonCode string

const (
	ReasonCategory      ReasonCode = "category"
	ReasonPriceInRange  ReasonCode = "price_in_range"
	ReasonPriceNear     ReasonCode = "price_near_budget"
	ReasonState         ReasonCode = "state"
	ReasonCity          ReasonCode = "city"
	ReasonDistrict      ReasonCode = "district"
	ReasonBedrooms      ReasonCode = "bedrooms"
	ReasonBedroomsMax   ReasonCode = "bedrooms_within_max"
	ReasonParking       ReasonCode = "parking"
	ReasonArea          ReasonCode = "area"
	ReasonPetsAllowed   ReasonCode = "pets_allowed"
	ReasonPetsForbidden ReasonCode = "pets_forbidden"
)

const priceTolerance = 0.10

var rubricPoints = map[ReasonCode]int{
	ReasonCategory:      25,
	ReasonPriceInRange:  25,
	ReasonPriceNear:     15,
	ReasonState:         10,
	ReasonCity:          10,
	ReasonDistrict:      10,
	ReasonBedrooms:      10,
	ReasonBedroomsMax:   5,
	ReasonParking:       5,
	ReasonArea:          5,
	ReasonPetsAllowed:   5,
	ReasonPetsForbidden: -10,
}

// LocalScore computes the deterministic rubric score in [0, 100] together
// with the criteria that contributed, in rubric order.
func LocalScore(profile domain.Preferences, c Candidate) (int, []ReasonCode) {
	codes := make([]ReasonCode, 0, 8)

	if profile.Category != nil && sameText(*profile.Category, c.Category) {
		codes = append(codes, ReasonCategory)
	}

	if code, ok := priceReason(profile.BudgetMin, profile.BudgetMax, c.Price); ok {
		codes = append(codes, code)
	}

	codes = append(codes, locationReasons(profile.Location, c.Location)...)

	if profile.BedroomsMin != nil && c.Features.Bedrooms >= *profile.BedroomsMin {
		codes = append(codes, ReasonBedrooms)
		if profile.BedroomsMax != nil && c.Features.Bedrooms <= *profile.BedroomsMax {
			codes = append(codes, ReasonBedroomsMax)
		}
	}
	if profile.ParkingMin != nil && c.Features.Parking >= *profile.ParkingMin {
		codes = append(codes, ReasonParking)
	}
	if profile.AreaMin != nil && c.Features.AreaSqm >= *profile.AreaMin {
		codes = append(codes, ReasonArea)
	}

	if profile.PetsRequired && c.Features.PetFriendly != nil {
		if *c.Features.PetFriendly {
			codes = append(codes, ReasonPetsAllowed)
		} else {
			codes = append(codes, ReasonPetsForbidden)
		}
	}

	score := 0
	for _, code := range codes {
		score += rubricPoints[code]
	}
	return clamp(score, 0, 100), codes
}

// priceReason checks the budget range first, then the range widened by 10%.
// A stated maximum without minimum means [0, max].
func priceReason(budgetMin, budgetMax *float64, price float64) (ReasonCode, bool) {
	if budgetMin == nil && budgetMax == nil {
		return "", false
	}
	within := func(tolerance float64) bool {
		if budgetMin != nil && price < *budgetMin*(1-tolerance) {
			return false
		}
		if budgetMax != nil && price > *budgetMax*(1+tolerance) {
			return false
		}
		return true
	}
	switch {
	case within(0):
		return ReasonPriceInRange, true
	case within(priceTolerance):
		return ReasonPriceNear, true
	}
	return "", false
}

// locationReasons applies the state > city > district gates. Each level needs
// the previous one to match; an unstated or differing level closes the gate.
func locationReasons(want, have domain.Location) []ReasonCode {
	codes := make([]ReasonCode, 0, 3)
	levels := []struct {
		want, have string
		code       ReasonCode
	}{
		{want.State, have.State, ReasonState},
		{want.City, have.City, ReasonCity},
		{want.District, have.District, ReasonDistrict},
	}
	for _, level := range levels {
		if !sameText(level.want, level.have) {
			break
		}
		codes = append(codes, level.code)
	}
	return codes
}

func sameText(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// reasonMessage renders a templated, human-readable reason.
func reasonMessage(code ReasonCode, c Candidate) string {
	switch code {
	case ReasonCategory:
		return "Matches the requested property type (" + c.Category + ")"
	case ReasonPriceInRange:
		return "Price is within budget"
	case ReasonPriceNear:
		return "Price is close to budget"
	case ReasonState:
		return "In the requested region"
	case ReasonCity:
		return "In the requested city"
	case ReasonDistrict:
		return "In the requested district"
	case ReasonBedrooms:
		return "Enough bedrooms"
	case ReasonBedroomsMax:
		return "Bedroom count fits the requested range"
	case ReasonParking:
		return "Enough parking"
	case ReasonArea:
		return "Enough living area"
	case ReasonPetsAllowed:
		return "Pet friendly"
	case ReasonPetsForbidden:
		return "Pets not allowed"
	default:
		return string(code)
	}
}

// templatedReasons renders up to three positive criteria, strongest first.
func templatedReasons(codes []ReasonCode, c Candidate) []string {
	positive := make([]ReasonCode, 0, len(codes))
	for _, code := range codes {
		if rubricPoints[code] > 0 {
			positive = append(positive, code)
		}
	}
	// Stable so rubric order breaks ties.
	sort.SliceStable(positive, func(i, j int) bool { return rubricPoints[positive[i]] > rubricPoints[positive[j]] })

	out := make([]string, 0, maxReasons)
	for _, code := range positive {
		if len(out) == maxReasons {
			break
		}
		out = append(out, reasonMessage(code, c))
	}
	return out
}
