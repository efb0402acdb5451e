package scoring

import (
	"time"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/platform/config"
)

const (
	defaultHotToWarmDays  = 5
	defaultWarmToColdDays = 10
)

// Policy holds the decay thresholds in whole days.
type Policy struct {
	HotToWarmDays  int
	WarmToColdDays int
}

func DefaultPolicy() Policy {
	return Policy{HotToWarmDays: defaultHotToWarmDays, WarmToColdDays: defaultWarmToColdDays}
}

// PolicyFromConfig falls back to the defaults for non-positive values.
func PolicyFromConfig(cfg config.AutomationConfig) Policy {
	p := DefaultPolicy()
	if cfg.GetHotToWarmDays() > 0 {
		p.HotToWarmDays = cfg.GetHotToWarmDays()
	}
	if cfg.GetWarmToColdDays() > 0 {
		p.WarmToColdDays = cfg.GetWarmToColdDays()
	}
	return p
}

// Decision is the outcome of evaluating one lead against the decay rule.
type Decision struct {
	From        domain.Temperature
	To          domain.Temperature
	ElapsedDays int
	Transition  bool
}

// Evaluate applies at most one decay step. HOT never reaches COLD in a single
// evaluation, and COLD is terminal.
func (p Policy) Evaluate(lead domain.Lead, now time.Time) Decision {
	elapsed := ElapsedDays(DecayReference(lead), now)
	d := Decision{From: lead.Temperature, To: lead.Temperature, ElapsedDays: elapsed}

	switch lead.Temperature {
	case domain.TemperatureHot:
		if elapsed >= p.HotToWarmDays {
			d.To = domain.TemperatureWarm
		}
	case domain.TemperatureWarm:
		if elapsed >= p.WarmToColdDays {
			d.To = domain.TemperatureCold
		}
	}

	d.Transition = d.To != d.From
	return d
}

// DecayReference is the instant elapsed days are counted from: the last
// contact (creation when never contacted), or the last temperature change
// when that happened later.
func DecayReference(lead domain.Lead) time.Time {
	ref := lead.CreatedAt
	if lead.LastContactAt != nil {
		ref = *lead.LastContactAt
	}
	if lead.TemperatureChangedAt != nil && lead.TemperatureChangedAt.After(ref) {
		ref = *lead.TemperatureChangedAt
	}
	return ref
}

// ElapsedDays counts whole 24h periods between from and now. Clock skew
// (from in the future) yields zero.
func ElapsedDays(from, now time.Time) int {
	if !now.After(from) {
		return 0
	}
	return int(now.Sub(from) / (24 * time.Hour))
}

// Record builds the event log entry for an applied decision.
func (d Decision) Record(lead domain.Lead, at time.Time) domain.TemperatureTransition {
	return domain.TemperatureTransition{
		TenantID:    lead.TenantID,
		LeadID:      lead.ID,
		From:        d.From,
		To:          d.To,
		ElapsedDays: d.ElapsedDays,
		Trigger:     domain.TransitionTriggerDecay,
		OccurredAt:  at,
	}
}
