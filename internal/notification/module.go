// Package notification delivers outbound messages to leads and reacts to lead
// domain events (alerts and temperature decay) on behalf of staff.
package notification

import (
	"context"
	"fmt"

	"leadflow_backend/internal/email"
	"leadflow_backend/internal/events"
	"leadflow_backend/platform/logger"
)

// Module subscribes to lead events.
type Module struct {
	leads        LeadReader
	sender       email.Sender
	alertAddress string
	log          *logger.Logger
}

func New(leads LeadReader, sender email.Sender, alertAddress string, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Module{leads: leads, sender: sender, alertAddress: alertAddress, log: log}
}

func (m *Module) Name() string { return "notification" }

// RegisterHandlers subscribes the module to all relevant domain events.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadAlertRaised{}.EventName(), m)
	bus.Subscribe(events.LeadTemperatureDecayed{}.EventName(), m)
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadAlertRaised:
		return m.handleLeadAlert(ctx, e)
	case events.LeadTemperatureDecayed:
		return m.handleTemperatureDecayed(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleLeadAlert(ctx context.Context, e events.LeadAlertRaised) error {
	m.log.Info("lead alert raised",
		"tenant_id", e.TenantID.String(),
		"lead_id", e.LeadID.String(),
		"score", e.Score,
		"urgency", e.Urgency,
		"intent", e.Intent,
		"next_action", e.NextAction,
		"reasons", e.Reasons,
	)

	if m.alertAddress == "" {
		return nil
	}

	leadName := e.LeadID.String()
	if m.leads != nil {
		if lead, err := m.leads.GetLead(ctx, e.TenantID, e.LeadID); err == nil && lead.Name != "" {
			leadName = lead.Name
		}
	}

	err := m.sender.SendLeadAlertEmail(ctx, m.alertAddress, email.LeadAlert{
		LeadName:   leadName,
		LeadID:     e.LeadID.String(),
		Score:      e.Score,
		Urgency:    e.Urgency,
		Intent:     e.Intent,
		NextAction: e.NextAction,
		Reasons:    e.Reasons,
	})
	if err != nil {
		return fmt.Errorf("send lead alert email: %w", err)
	}
	return nil
}

func (m *Module) handleTemperatureDecayed(_ context.Context, e events.LeadTemperatureDecayed) error {
	m.log.Info("lead temperature decayed",
		"tenant_id", e.TenantID.String(),
		"lead_id", e.LeadID.String(),
		"transition_id", e.TransitionID.String(),
		"from", e.From,
		"to", e.To,
		"elapsed_days", e.ElapsedDays,
	)
	return nil
}
