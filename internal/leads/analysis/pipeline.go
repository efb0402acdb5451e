// Package analysis processes inbound lead messages: it records them, asks the
// generative-text service for a classification and a reply, applies the
// deterministic scoring rules and decides whether a human should be alerted.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/inference"
	"leadflow_backend/internal/leads/conversation"
	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/scoring"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/clock"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/metrics"
	"leadflow_backend/platform/validator"

	"github.com/google/uuid"
)

const (
	analysisHistoryLimit   = 10
	alertScoreThreshold    = 70
	defaultAnalysisTimeout = 30 * time.Second
	defaultBudgetThreshold = 1_000_000
	escalationReason       = "escalation requested by message analysis"
)

// Store is the persistence the pipeline needs.
type Store interface {
	conversation.Store
	CreateMessage(ctx context.Context, params repository.CreateMessageParams) (domain.Message, error)
	AttachAnalysis(ctx context.Context, tenantID, messageID uuid.UUID, analysis domain.AnalysisResult, scoreImpact int) error
	UpdateDeliveryStatus(ctx context.Context, tenantID, messageID uuid.UUID, status domain.DeliveryStatus) error
	UpdateAfterMessage(ctx context.Context, params repository.UpdateAfterMessageParams) (domain.Lead, error)
}

// Inference is the subset of the gateway the pipeline calls.
type Inference interface {
	Infer(ctx context.Context, prompt string, opts inference.Options) (string, error)
	InferStructured(ctx context.Context, prompt string, opts inference.Options) (inference.Structured, error)
}

// Dispatcher delivers an outbound reply on the lead's channel.
type Dispatcher interface {
	Send(ctx context.Context, tenantID, leadID uuid.UUID, channel domain.Channel, text string) (domain.DeliveryStatus, error)
}

// Outcome is the result of processing one inbound message.
type Outcome struct {
	Analysis          domain.AnalysisResult `json:"analysis"`
	ResponseText      string                `json:"responseText"`
	ShouldAlert       bool                  `json:"shouldAlert"`
	AlertReasons      []string              `json:"alertReasons"`
	NewScore          int                   `json:"newScore"`
	AnalysisDefaulted bool                  `json:"analysisDefaulted"`
	InboundMessageID  uuid.UUID             `json:"inboundMessageId"`
	OutboundMessageID *uuid.UUID            `json:"outboundMessageId,omitempty"`
}

type Pipeline struct {
	store           Store
	gateway         Inference
	assembler       *conversation.Assembler
	dispatcher      Dispatcher
	bus             events.Bus
	clock           clock.Clock
	val             *validator.Validator
	log             *logger.Logger
	timeout         time.Duration
	budgetThreshold float64
}

func New(store Store, gateway Inference, bus events.Bus, clk clock.Clock, val *validator.Validator, cfg config.AnalysisConfig, log *logger.Logger) *Pipeline {
	timeout := cfg.GetAnalysisTimeout()
	if timeout <= 0 {
		timeout = defaultAnalysisTimeout
	}
	threshold := cfg.GetHighValueBudgetThreshold()
	if threshold <= 0 {
		threshold = defaultBudgetThreshold
	}
	return &Pipeline{
		store:           store,
		gateway:         gateway,
		assembler:       conversation.NewAssembler(store, clk),
		bus:             bus,
		clock:           clk,
		val:             val,
		log:             log,
		timeout:         timeout,
		budgetThreshold: threshold,
	}
}

// WithDispatcher enables delivery of generated replies. Without it replies stay pending.
func (p *Pipeline) WithDispatcher(d Dispatcher) *Pipeline {
	p.dispatcher = d
	return p
}

// ProcessMessage runs the full inbound message flow. The inbound message is
// persisted before any inference so it survives analysis failures; inference
// failures never abort processing.
func (p *Pipeline) ProcessMessage(ctx context.Context, tenantID, leadID uuid.UUID, text string) (Outcome, error) {
	if strings.TrimSpace(text) == "" {
		return Outcome{}, apperr.Validation("message text is required")
	}

	lead, err := p.store.GetLead(ctx, tenantID, leadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Outcome{}, apperr.NotFound("lead not found")
		}
		return Outcome{}, err
	}
	history, err := p.store.ListRecentMessages(ctx, tenantID, leadID, conversation.MaxHistoryMessages)
	if err != nil {
		return Outcome{}, fmt.Errorf("load message history: %w", err)
	}

	inbound, err := p.store.CreateMessage(ctx, repository.CreateMessageParams{
		TenantID:       tenantID,
		LeadID:         leadID,
		Content:        text,
		FromLead:       true,
		Channel:        lead.Channel,
		DeliveryStatus: domain.DeliveryReceived,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("persist inbound message: %w", err)
	}

	result, defaulted := p.analyze(ctx, lead, lastMessages(history, analysisHistoryLimit), text)
	outcome := Outcome{Analysis: result, AnalysisDefaulted: defaulted, InboundMessageID: inbound.ID}

	if lead.AIEnabled {
		convCtx := p.assembler.BuildContextFrom(lead, append(history, inbound)).WithAnalysis(result)
		outcome.ResponseText = p.reply(ctx, lead, convCtx, result, text)

		outbound, err := p.store.CreateMessage(ctx, repository.CreateMessageParams{
			TenantID:       tenantID,
			LeadID:         leadID,
			Content:        outcome.ResponseText,
			FromLead:       false,
			Channel:        lead.Channel,
			DeliveryStatus: domain.DeliveryPending,
		})
		if err != nil {
			return Outcome{}, fmt.Errorf("persist outbound message: %w", err)
		}
		outcome.OutboundMessageID = &outbound.ID
		p.deliver(ctx, lead, outbound)
	}

	now := p.clock.Now()
	urgency := result.Urgency
	params := repository.UpdateAfterMessageParams{
		TenantID:      tenantID,
		LeadID:        leadID,
		Score:         scoring.ApplyScoreImpact(lead.Score, result.ScoreImpact),
		Preferences:   lead.Preferences.Merge(result.Preferences),
		Urgency:       urgency,
		LastContactAt: now,
	}
	if result.NextAction == domain.NextActionEscalate {
		reason := escalationReason
		params.Escalated = true
		params.EscalationReason = &reason
	}
	updated, err := p.store.UpdateAfterMessage(ctx, params)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Outcome{}, apperr.NotFound("lead not found")
		}
		return Outcome{}, fmt.Errorf("update lead: %w", err)
	}
	outcome.NewScore = updated.Score

	// The lead update is already committed; only the message annotation is lost.
	if err := p.store.AttachAnalysis(ctx, tenantID, inbound.ID, result, result.ScoreImpact); err != nil {
		p.log.WithContext(ctx).Error("attach analysis to message failed", "lead_id", leadID.String(), "message_id", inbound.ID.String(), "error", err.Error())
	}

	outcome.AlertReasons = AlertReasons(result, outcome.NewScore, p.budgetThreshold)
	outcome.ShouldAlert = len(outcome.AlertReasons) > 0
	if outcome.ShouldAlert {
		metrics.LeadAlerts.Inc()
		p.bus.Publish(ctx, events.LeadAlertRaised{
			BaseEvent:  events.NewBaseEventAt(now),
			TenantID:   tenantID,
			LeadID:     leadID,
			MessageID:  inbound.ID,
			Reasons:    outcome.AlertReasons,
			Score:      outcome.NewScore,
			Urgency:    string(result.Urgency),
			Intent:     string(result.Intent),
			NextAction: string(result.NextAction),
		})
	}

	return outcome, nil
}

// lastMessages returns the newest n entries of a chronological slice.
func lastMessages(messages []domain.Message, n int) []domain.Message {
	if len(messages) > n {
		return messages[len(messages)-n:]
	}
	return messages
}

func (p *Pipeline) analyze(ctx context.Context, lead domain.Lead, history []domain.Message, text string) (domain.AnalysisResult, bool) {
	answer, err := p.gateway.InferStructured(ctx, buildAnalysisPrompt(lead, history, text), inference.Options{
		Context:   analysisSystemPrompt,
		MaxTokens: analysisMaxTokens,
		Purpose:   "message_analysis",
		Timeout:   p.timeout,
	})
	if err != nil {
		metrics.AnalysisDefaults.Inc()
		p.log.WithContext(ctx).Warn("message analysis failed, using default", "lead_id", lead.ID.String(), "error", err.Error())
		return domain.DefaultAnalysis(), true
	}

	result, invalid := normalizeAnalysis(p.val, answer)
	if len(invalid) > 0 {
		metrics.AnalysisDefaults.Inc()
		p.log.WithContext(ctx).Warn("message analysis fields defaulted", "lead_id", lead.ID.String(), "fields", strings.Join(invalid, ","))
	}
	return result, len(invalid) > 0
}

func (p *Pipeline) reply(ctx context.Context, lead domain.Lead, convCtx conversation.Context, result domain.AnalysisResult, text string) string {
	answer, err := p.gateway.Infer(ctx, buildReplyPrompt(convCtx, text), inference.Options{
		Context:     replySystemPrompt,
		MaxTokens:   replyMaxTokens,
		Temperature: inference.Float(replyTemperature),
		Purpose:     "reply",
		Timeout:     p.timeout,
	})
	answer = strings.TrimSpace(answer)
	if err != nil || answer == "" {
		if err != nil {
			p.log.WithContext(ctx).Warn("reply generation failed, using template", "lead_id", lead.ID.String(), "error", err.Error())
		}
		return fallbackReply(lead, result)
	}
	return answer
}

func (p *Pipeline) deliver(ctx context.Context, lead domain.Lead, outbound domain.Message) {
	if p.dispatcher == nil {
		return
	}
	status, err := p.dispatcher.Send(ctx, lead.TenantID, lead.ID, lead.Channel, outbound.Content)
	if err != nil {
		p.log.WithContext(ctx).Warn("reply delivery failed", "lead_id", lead.ID.String(), "channel", string(lead.Channel), "error", err.Error())
		status = domain.DeliveryFailed
	}
	if status == "" || status == domain.DeliveryPending {
		return
	}
	if err := p.store.UpdateDeliveryStatus(ctx, lead.TenantID, outbound.ID, status); err != nil {
		p.log.WithContext(ctx).DatabaseError("update_delivery_status", err)
	}
}

// AlertReasons lists why a processed message needs a human. Empty means no alert.
func AlertReasons(result domain.AnalysisResult, newScore int, budgetThreshold float64) []string {
	reasons := make([]string, 0, 5)
	if result.Urgency == domain.UrgencyHigh {
		reasons = append(reasons, "high_urgency")
	}
	if result.Intent == domain.IntentSchedule {
		reasons = append(reasons, "wants_to_schedule")
	}
	if result.NextAction == domain.NextActionEscalate {
		reasons = append(reasons, "escalation")
	}
	if newScore >= alertScoreThreshold {
		reasons = append(reasons, "high_score")
	}
	if result.Preferences.BudgetMax != nil && *result.Preferences.BudgetMax > budgetThreshold {
		reasons = append(reasons, "high_value_budget")
	}
	return reasons
}
