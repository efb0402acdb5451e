// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadflow_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewBaseEventAt = events.NewBaseEventAt
)

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadAlertRaised is published when a processed message needs human attention.
type LeadAlertRaised struct {
	BaseEvent
	TenantID   uuid.UUID `json:"tenantId"`
	LeadID     uuid.UUID `json:"leadId"`
	MessageID  uuid.UUID `json:"messageId"`
	Reasons    []string  `json:"reasons"`
	Score      int       `json:"score"`
	Urgency    string    `json:"urgency"`
	Intent     string    `json:"intent"`
	NextAction string    `json:"nextAction"`
}

func (e LeadAlertRaised) EventName() string { return "leads.alert.raised" }

// LeadTemperatureDecayed is published after the decay rule moved a lead down one step.
type LeadTemperatureDecayed struct {
	BaseEvent
	TenantID     uuid.UUID `json:"tenantId"`
	LeadID       uuid.UUID `json:"leadId"`
	TransitionID uuid.UUID `json:"transitionId"`
	From         string    `json:"from"`
	To           string    `json:"to"`
	ElapsedDays  int       `json:"elapsedDays"`
}

func (e LeadTemperatureDecayed) EventName() string { return "leads.temperature.decayed" }
