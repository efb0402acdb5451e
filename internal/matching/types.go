package matching

import (
	"time"

	"leadflow_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// Features are the comparable attributes of an inventory item.
type Features struct {
	Bedrooms    int     `json:"bedrooms"`
	Parking     int     `json:"parking"`
	AreaSqm     float64 `json:"areaSqm"`
	Furnished   bool    `json:"furnished"`
	PetFriendly *bool   `json:"petFriendly,omitempty"`
}

// Candidate is a read-only inventory item offered to a lead.
type Candidate struct {
	ID         uuid.UUID       `json:"id"`
	TenantID   uuid.UUID       `json:"tenantId"`
	Title      string          `json:"title"`
	Category   string          `json:"category"`
	Price      float64         `json:"price"`
	Location   domain.Location `json:"location"`
	Features   Features        `json:"features"`
	MediaKeys  []string        `json:"-"`
	Highlights []string        `json:"highlights"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type MatchResult struct {
	Candidate  Candidate `json:"candidate"`
	MatchScore int       `json:"matchScore"`
	LocalScore int       `json:"localScore"`
	Reasons    []string  `json:"reasons"`
	Highlight  string    `json:"highlight"`
	MediaURLs  []string  `json:"mediaUrls,omitempty"`
}

type Result struct {
	Matches         []MatchResult `json:"matches"`
	TotalCandidates int           `json:"totalCandidates"`
	FallbackUsed    bool          `json:"fallbackUsed"`
	Summary         string        `json:"summary"`
}
