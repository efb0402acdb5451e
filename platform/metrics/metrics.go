// Package metrics declares the Prometheus collectors exported by the service.
// This is part of the platform layer and contains no business logic.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Inference gateway metrics
	InferenceRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_inference_requests_total",
			Help: "Total calls to the generative-text service",
		},
		[]string{"outcome"}, // "ok", "rate_limited", "error", "timeout"
	)

	InferenceTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_inference_tokens_total",
			Help: "Tokens sent to and received from the generative-text service",
		},
		[]string{"direction"}, // "input" or "output"
	)

	InferenceCostUSD = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadflow_inference_estimated_cost_usd_total",
			Help: "Estimated spend on the generative-text service",
		},
	)

	InferenceRateLimitRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadflow_inference_rate_limit_retries_total",
			Help: "Rate-limited calls retried after backoff",
		},
	)

	// Business metrics
	AnalysisDefaults = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadflow_analysis_defaults_total",
			Help: "Message analyses replaced by the default analysis",
		},
	)

	LeadAlerts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadflow_lead_alerts_total",
			Help: "Processed messages that raised a human alert",
		},
	)

	MatchingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_matching_requests_total",
			Help: "Matching requests by ranking source",
		},
		[]string{"source"}, // "model", "fallback", "empty"
	)

	DecayTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_decay_transitions_total",
			Help: "Temperature transitions applied by the decay rule",
		},
		[]string{"from", "to"},
	)

	AutomationErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadflow_automation_lead_errors_total",
			Help: "Per-lead errors recorded by the batch automation runner",
		},
	)
)
