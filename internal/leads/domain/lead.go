// Package domain provides core business types and rules for the leads bounded context.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Temperature string

const (
	TemperatureCold Temperature = "COLD"
	TemperatureWarm Temperature = "WARM"
	TemperatureHot  Temperature = "HOT"
)

// Valid reports whether t is one of the three temperatures.
func (t Temperature) Valid() bool {
	switch t {
	case TemperatureCold, TemperatureWarm, TemperatureHot:
		return true
	}
	return false
}

type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
)

type DeliveryStatus string

const (
	DeliveryReceived DeliveryStatus = "received"
	DeliveryPending  DeliveryStatus = "pending"
	DeliverySent     DeliveryStatus = "sent"
	DeliveryFailed   DeliveryStatus = "failed"
)

const (
	MinScore = 0
	MaxScore = 100
)

// Location is a three-level place; each level is empty when unknown.
type Location struct {
	State    string `json:"state,omitempty"`
	City     string `json:"city,omitempty"`
	District string `json:"district,omitempty"`
}

// Preferences are the free-form search wishes of a lead. Nil means "not stated".
type Preferences struct {
	Category     *string  `json:"category,omitempty"`
	Location     Location `json:"location"`
	BudgetMin    *float64 `json:"budgetMin,omitempty"`
	BudgetMax    *float64 `json:"budgetMax,omitempty"`
	BedroomsMin  *int     `json:"bedroomsMin,omitempty"`
	BedroomsMax  *int     `json:"bedroomsMax,omitempty"`
	ParkingMin   *int     `json:"parkingMin,omitempty"`
	AreaMin      *float64 `json:"areaMin,omitempty"`
	PetsRequired bool     `json:"petsRequired"`
}

// Merge applies every non-nil extracted value. Stored values are never
// overwritten by a missing extraction.
func (p Preferences) Merge(extracted ExtractedPreferences) Preferences {
	if extracted.Category != nil && *extracted.Category != "" {
		category := *extracted.Category
		p.Category = &category
	}
	// Extraction yields a city only; the stored state is kept so the location
	// gates still apply, and a district of a different city is dropped.
	if extracted.Location != nil && *extracted.Location != "" {
		if !strings.EqualFold(strings.TrimSpace(p.Location.City), strings.TrimSpace(*extracted.Location)) {
			p.Location.District = ""
		}
		p.Location.City = *extracted.Location
	}
	if extracted.Bedrooms != nil {
		bedrooms := *extracted.Bedrooms
		p.BedroomsMin = &bedrooms
	}
	if extracted.BudgetMax != nil {
		budget := *extracted.BudgetMax
		p.BudgetMax = &budget
	}
	return p
}

type Lead struct {
	ID                   uuid.UUID
	TenantID             uuid.UUID
	Name                 string
	Phone                string
	Email                *string
	Channel              Channel
	Score                int
	Temperature          Temperature
	Urgency              *Urgency
	Preferences          Preferences
	LastContactAt        *time.Time
	TemperatureChangedAt *time.Time
	AIEnabled            bool
	Escalated            bool
	EscalationReason     *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Message is one entry of a lead's append-only conversation log.
type Message struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	LeadID         uuid.UUID
	Content        string
	FromLead       bool
	Channel        Channel
	DeliveryStatus DeliveryStatus
	Analysis       *AnalysisResult
	ScoreImpact    int
	CreatedAt      time.Time
}

// TemperatureTransition is an immutable record of one temperature change.
type TemperatureTransition struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	LeadID      uuid.UUID
	From        Temperature
	To          Temperature
	ElapsedDays int
	Trigger     string
	OccurredAt  time.Time
}

const TransitionTriggerDecay = "decay"
