// Package scoring holds the deterministic rules that are the system of record
// for lead interest: the message-driven score transition and the time-driven
// temperature decay.
package scoring

import "leadflow_backend/internal/leads/domain"

// ApplyScoreImpact returns clamp(current+impact, 0, 100). It never changes temperature.
func ApplyScoreImpact(current, impact int) int {
	return clamp(current+impact, domain.MinScore, domain.MaxScore)
}

// ClampScoreImpact bounds a model-proposed impact to [-10, 10].
func ClampScoreImpact(impact int) int {
	return clamp(impact, domain.MinScoreImpact, domain.MaxScoreImpact)
}

// UrgencyFromScore derives an urgency when none has been analyzed yet.
func UrgencyFromScore(score int) domain.Urgency {
	switch {
	case score >= 80:
		return domain.UrgencyHigh
	case score >= 50:
		return domain.UrgencyMedium
	default:
		return domain.UrgencyLow
	}
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
