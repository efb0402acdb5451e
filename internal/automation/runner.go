// Package automation runs the periodic lead maintenance rules across all tenants.
package automation

import (
	"context"
	"fmt"
	"time"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/scoring"
	"leadflow_backend/platform/clock"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// TenantSource lists the tenants a run iterates over.
type TenantSource interface {
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Store is the lead persistence the decay rule needs.
type Store interface {
	ListDecayCandidates(ctx context.Context, tenantID uuid.UUID) ([]domain.Lead, error)
	ApplyTemperatureTransition(ctx context.Context, rec domain.TemperatureTransition) (domain.TemperatureTransition, bool, error)
}

// Notifier is invoked after a transition was applied. It reports whether a
// message was actually sent to the lead.
type Notifier interface {
	NotifyDecay(ctx context.Context, lead domain.Lead, transition domain.TemperatureTransition) (bool, error)
}

// TransitionRecord describes one applied (or, in preview, planned) transition.
type TransitionRecord struct {
	LeadID       uuid.UUID          `json:"leadId"`
	TransitionID *uuid.UUID         `json:"transitionId,omitempty"`
	From         domain.Temperature `json:"from"`
	To           domain.Temperature `json:"to"`
	ElapsedDays  int                `json:"elapsedDays"`
}

// TenantOutcome summarizes one tenant of a run.
type TenantOutcome struct {
	TenantID     uuid.UUID          `json:"tenantId"`
	Analyzed     int                `json:"analyzed"`
	Transitioned int                `json:"transitioned"`
	Notified     int                `json:"notified"`
	Errors       []string           `json:"errors"`
	Transitions  []TransitionRecord `json:"transitions"`
}

// leadResult is the outcome of one unit of work in the pool.
type leadResult struct {
	transition *TransitionRecord
	notified   bool
	err        error
}

type Runner struct {
	tenants     TenantSource
	store       Store
	notifier    Notifier
	eventBus    events.Bus
	clock       clock.Clock
	policy      scoring.Policy
	concurrency int
	log         *logger.Logger
}

func NewRunner(tenants TenantSource, store Store, eventBus events.Bus, clk clock.Clock, cfg config.AutomationConfig, log *logger.Logger) *Runner {
	concurrency := cfg.GetAutomationConcurrency()
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Runner{
		tenants:     tenants,
		store:       store,
		eventBus:    eventBus,
		clock:       clk,
		policy:      scoring.PolicyFromConfig(cfg),
		concurrency: concurrency,
		log:         log,
	}
}

// WithNotifier sets the outbound hook invoked after each applied transition.
func (r *Runner) WithNotifier(n Notifier) *Runner {
	r.notifier = n
	return r
}

// RunForAllTenants applies the decay rule to every lead of every active tenant.
// Only a failure to list tenants aborts the run; everything else is collected
// in the per-tenant outcome.
func (r *Runner) RunForAllTenants(ctx context.Context) ([]TenantOutcome, error) {
	return r.run(ctx, false)
}

// Preview computes the same decisions as RunForAllTenants without writing
// state or notifying anyone.
func (r *Runner) Preview(ctx context.Context) ([]TenantOutcome, error) {
	return r.run(ctx, true)
}

// PreviewTenant is Preview restricted to one tenant.
func (r *Runner) PreviewTenant(ctx context.Context, tenantID uuid.UUID) TenantOutcome {
	return r.runTenant(ctx, tenantID, r.clock.Now(), true)
}

func (r *Runner) run(ctx context.Context, preview bool) ([]TenantOutcome, error) {
	tenantIDs, err := r.tenants.ListActiveIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}

	now := r.clock.Now()
	outcomes := make([]TenantOutcome, 0, len(tenantIDs))
	for _, tenantID := range tenantIDs {
		if ctx.Err() != nil {
			outcomes = append(outcomes, TenantOutcome{TenantID: tenantID, Errors: []string{ctx.Err().Error()}, Transitions: []TransitionRecord{}})
			continue
		}
		outcomes = append(outcomes, r.runTenant(ctx, tenantID, now, preview))
	}

	r.log.Info("decay run finished", "tenants", len(outcomes), "preview", preview)
	return outcomes, nil
}

func (r *Runner) runTenant(ctx context.Context, tenantID uuid.UUID, now time.Time, preview bool) TenantOutcome {
	outcome := TenantOutcome{TenantID: tenantID, Errors: []string{}, Transitions: []TransitionRecord{}}

	leads, err := r.store.ListDecayCandidates(ctx, tenantID)
	if err != nil {
		r.log.Error("failed to list decay candidates", "tenantId", tenantID, "error", err)
		metrics.AutomationErrors.Inc()
		outcome.Errors = append(outcome.Errors, fmt.Sprintf("list leads: %v", err))
		return outcome
	}

	results := make([]leadResult, len(leads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, lead := range leads {
		g.Go(func() error {
			results[i] = r.processLead(gctx, lead, now, preview)
			return nil
		})
	}
	_ = g.Wait()

	outcome.Analyzed = len(leads)
	for i, res := range results {
		if res.err != nil {
			metrics.AutomationErrors.Inc()
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("lead %s: %v", leads[i].ID, res.err))
		}
		if res.transition != nil {
			outcome.Transitioned++
			outcome.Transitions = append(outcome.Transitions, *res.transition)
		}
		if res.notified {
			outcome.Notified++
		}
	}
	return outcome
}

func (r *Runner) processLead(ctx context.Context, lead domain.Lead, now time.Time, preview bool) leadResult {
	decision := r.policy.Evaluate(lead, now)
	if !decision.Transition {
		return leadResult{}
	}

	if preview {
		r.log.DecayTransition(lead.TenantID.String(), lead.ID.String(), string(decision.From), string(decision.To), decision.ElapsedDays, true)
		return leadResult{transition: &TransitionRecord{
			LeadID:      lead.ID,
			From:        decision.From,
			To:          decision.To,
			ElapsedDays: decision.ElapsedDays,
		}}
	}

	applied, ok, err := r.store.ApplyTemperatureTransition(ctx, decision.Record(lead, now))
	if err != nil {
		return leadResult{err: fmt.Errorf("apply transition: %w", err)}
	}
	if !ok {
		// Another run moved the lead first.
		return leadResult{}
	}

	metrics.DecayTransitions.WithLabelValues(string(applied.From), string(applied.To)).Inc()
	r.log.DecayTransition(lead.TenantID.String(), lead.ID.String(), string(applied.From), string(applied.To), applied.ElapsedDays, false)

	if r.eventBus != nil {
		r.eventBus.Publish(ctx, events.LeadTemperatureDecayed{
			BaseEvent:    events.NewBaseEventAt(now),
			TenantID:     applied.TenantID,
			LeadID:       applied.LeadID,
			TransitionID: applied.ID,
			From:         string(applied.From),
			To:           string(applied.To),
			ElapsedDays:  applied.ElapsedDays,
		})
	}

	transitionID := applied.ID
	res := leadResult{transition: &TransitionRecord{
		LeadID:       lead.ID,
		TransitionID: &transitionID,
		From:         applied.From,
		To:           applied.To,
		ElapsedDays:  applied.ElapsedDays,
	}}

	if r.notifier == nil {
		return res
	}
	lead.Temperature = applied.To
	lead.TemperatureChangedAt = &now
	sent, err := r.notifier.NotifyDecay(ctx, lead, applied)
	if err != nil {
		res.err = fmt.Errorf("notify: %w", err)
		return res
	}
	res.notified = sent
	return res
}
