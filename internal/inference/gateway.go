package inference

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
	"unicode/utf8"

	"leadflow_backend/platform/ai/moonshot"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/metrics"
)

const (
	defaultRateLimitBackoff = 60 * time.Second
	charsPerToken           = 4
)

// Options tune a single call. Purpose only labels logs. Timeout bounds each
// provider attempt separately, so the rate-limit backoff does not eat into it.
type Options struct {
	Context     string
	MaxTokens   int
	Temperature *float64
	Purpose     string
	Timeout     time.Duration
}

// Float returns a pointer for Options.Temperature.
func Float(v float64) *float64 { return &v }

// Stats is the accumulated usage of one Gateway. Requests counts every
// provider attempt, including failures and the rate-limit retry.
type Stats struct {
	Requests         int64   `json:"requests"`
	InputTokens      int64   `json:"inputTokens"`
	OutputTokens     int64   `json:"outputTokens"`
	EstimatedCostUSD float64 `json:"estimatedCostUsd"`
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func contextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type Gateway struct {
	completer  Completer
	log        *logger.Logger
	backoff    time.Duration
	inputRate  float64
	outputRate float64
	sleep      Sleeper

	mu    sync.Mutex
	stats Stats
}

func New(completer Completer, cfg config.InferenceConfig, log *logger.Logger) *Gateway {
	backoff := cfg.GetRateLimitBackoff()
	if backoff <= 0 {
		backoff = defaultRateLimitBackoff
	}
	return &Gateway{
		completer:  completer,
		log:        log,
		backoff:    backoff,
		inputRate:  cfg.GetInputCostPerMillion(),
		outputRate: cfg.GetOutputCostPerMillion(),
		sleep:      contextSleep,
	}
}

// WithSleeper replaces the rate-limit wait. Tests use it to avoid real sleeps.
func (g *Gateway) WithSleeper(sleep Sleeper) *Gateway {
	g.sleep = sleep
	return g
}

// NewCompleterFromConfig builds the provider selected by INFERENCE_PROVIDER.
func NewCompleterFromConfig(cfg config.InferenceConfig) (Completer, error) {
	switch cfg.GetInferenceProvider() {
	case "", "moonshot":
		return NewModelCompleter(moonshot.NewModel(moonshot.Config{
			APIKey:  cfg.GetInferenceAPIKey(),
			BaseURL: cfg.GetInferenceBaseURL(),
			Model:   cfg.GetInferenceModel(),
		})), nil
	case "openai":
		return NewOpenAICompleter(cfg.GetInferenceAPIKey(), cfg.GetInferenceBaseURL(), cfg.GetInferenceModel()), nil
	default:
		return nil, fmt.Errorf("unknown inference provider %q", cfg.GetInferenceProvider())
	}
}

// Infer sends prompt to the provider and returns the generated text.
// A rate-limited call is retried exactly once after the configured backoff.
func (g *Gateway) Infer(ctx context.Context, prompt string, opts Options) (string, error) {
	req := CompletionRequest{
		Prompt:      prompt,
		System:      opts.Context,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}

	start := time.Now()
	completion, err := g.attempt(ctx, req, opts.Timeout)
	if err != nil && errors.Is(err, ErrRateLimited) && ctx.Err() == nil {
		metrics.InferenceRateLimitRetries.Inc()
		g.log.Warn("inference rate limited, backing off", "purpose", opts.Purpose, "backoff", g.backoff.String())
		if sleepErr := g.sleep(ctx, g.backoff); sleepErr != nil {
			err = sleepErr
		} else {
			completion, err = g.attempt(ctx, req, opts.Timeout)
		}
	}
	latency := float64(time.Since(start).Microseconds()) / 1000

	if err != nil {
		appErr := classify(ctx, err)
		metrics.InferenceRequests.WithLabelValues(outcomeLabel(appErr)).Inc()
		g.log.InferenceCall(opts.Purpose, 0, 0, latency, err)
		return "", appErr
	}

	in, out := completion.InputTokens, completion.OutputTokens
	if in == 0 {
		in = estimateTokens(opts.Context) + estimateTokens(prompt)
	}
	if out == 0 {
		out = estimateTokens(completion.Text)
	}
	g.record(in, out)
	metrics.InferenceRequests.WithLabelValues("ok").Inc()
	g.log.InferenceCall(opts.Purpose, in, out, latency, nil)

	return completion.Text, nil
}

// attempt makes one provider call. Every attempt counts as a request,
// successful or not.
func (g *Gateway) attempt(ctx context.Context, req CompletionRequest, timeout time.Duration) (Completion, error) {
	g.mu.Lock()
	g.stats.Requests++
	g.mu.Unlock()

	if timeout <= 0 {
		return g.completer.Complete(ctx, req)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	completion, err := g.completer.Complete(attemptCtx, req)
	if err != nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	}
	return completion, err
}

func (g *Gateway) record(inputTokens, outputTokens int) {
	cost := float64(inputTokens)*g.inputRate/1_000_000 + float64(outputTokens)*g.outputRate/1_000_000

	g.mu.Lock()
	g.stats.InputTokens += int64(inputTokens)
	g.stats.OutputTokens += int64(outputTokens)
	g.stats.EstimatedCostUSD += cost
	g.mu.Unlock()

	metrics.InferenceTokens.WithLabelValues("input").Add(float64(inputTokens))
	metrics.InferenceTokens.WithLabelValues("output").Add(float64(outputTokens))
	metrics.InferenceCostUSD.Add(cost)
}

// Stats returns a snapshot of the accumulated usage.
func (g *Gateway) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats
}

// ResetStats clears the accumulated usage. Prometheus counters are not reset.
func (g *Gateway) ResetStats() {
	g.mu.Lock()
	g.stats = Stats{}
	g.mu.Unlock()
}

func estimateTokens(s string) int {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return 0
	}
	return int(math.Ceil(float64(n) / charsPerToken))
}

func classify(ctx context.Context, err error) *apperr.Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return apperr.Wrap(apperr.KindTimeout, "generative-text call timed out", err).WithOp("inference.Infer")
	case errors.Is(err, ErrRateLimited):
		return apperr.Wrap(apperr.KindUpstreamUnavailable, "generative-text service rate limited after retry", err).WithOp("inference.Infer")
	default:
		return apperr.Wrap(apperr.KindUpstreamUnavailable, "generative-text service unavailable", err).WithOp("inference.Infer")
	}
}

func outcomeLabel(err *apperr.Error) string {
	switch {
	case apperr.Is(err, apperr.KindTimeout):
		return "timeout"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	default:
		return "error"
	}
}
