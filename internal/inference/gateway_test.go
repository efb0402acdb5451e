package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"
)

type stubConfig struct{}

func (stubConfig) GetInferenceProvider() string       { return "moonshot" }
func (stubConfig) GetInferenceAPIKey() string         { return "test" }
func (stubConfig) GetInferenceBaseURL() string        { return "" }
func (stubConfig) GetInferenceModel() string          { return "" }
func (stubConfig) GetRateLimitBackoff() time.Duration { return time.Minute }
func (stubConfig) GetInputCostPerMillion() float64    { return 1.0 }
func (stubConfig) GetOutputCostPerMillion() float64   { return 2.0 }

type scriptedCompleter struct {
	answers []Completion
	errs    []error
	calls   int
	reqs    []CompletionRequest
}

func (s *scriptedCompleter) Complete(_ context.Context, req CompletionRequest) (Completion, error) {
	i := s.calls
	s.calls++
	s.reqs = append(s.reqs, req)
	if i < len(s.errs) && s.errs[i] != nil {
		return Completion{}, s.errs[i]
	}
	if i < len(s.answers) {
		return s.answers[i], nil
	}
	return Completion{}, errors.New("unexpected call")
}

func newTestGateway(c Completer) (*Gateway, *[]time.Duration) {
	var slept []time.Duration
	g := New(c, stubConfig{}, logger.Nop()).WithSleeper(func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	})
	return g, &slept
}

func TestInferRecordsProviderUsage(t *testing.T) {
	c := &scriptedCompleter{answers: []Completion{{Text: "hello", InputTokens: 1000, OutputTokens: 500}}}
	g, _ := newTestGateway(c)

	text, err := g.Infer(context.Background(), "prompt", Options{Context: "system", MaxTokens: 150, Temperature: Float(0.8)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello" {
		t.Fatalf("expected hello, got %q", text)
	}
	if c.reqs[0].System != "system" || c.reqs[0].MaxTokens != 150 || *c.reqs[0].Temperature != 0.8 {
		t.Fatalf("options not forwarded: %+v", c.reqs[0])
	}

	stats := g.Stats()
	if stats.Requests != 1 || stats.InputTokens != 1000 || stats.OutputTokens != 500 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	want := 1000*1.0/1_000_000 + 500*2.0/1_000_000
	if diff := stats.EstimatedCostUSD - want; diff > 1e-12 || diff < -1e-12 {
		t.Fatalf("expected cost %f, got %f", want, stats.EstimatedCostUSD)
	}
}

func TestInferEstimatesTokensWhenUsageMissing(t *testing.T) {
	c := &scriptedCompleter{answers: []Completion{{Text: "abcde"}}}
	g, _ := newTestGateway(c)

	if _, err := g.Infer(context.Background(), "12345678", Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stats := g.Stats()
	if stats.InputTokens != 2 || stats.OutputTokens != 2 {
		t.Fatalf("expected ceil(chars/4) estimates 2/2, got %d/%d", stats.InputTokens, stats.OutputTokens)
	}
}

func TestInferRetriesRateLimitOnce(t *testing.T) {
	c := &scriptedCompleter{
		errs:    []error{fmt.Errorf("kimi: %w", ErrRateLimited), nil},
		answers: []Completion{{}, {Text: "ok", InputTokens: 1, OutputTokens: 1}},
	}
	g, slept := newTestGateway(c)

	text, err := g.Infer(context.Background(), "p", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "ok" {
		t.Fatalf("expected ok, got %q", text)
	}
	if c.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", c.calls)
	}
	if len(*slept) != 1 || (*slept)[0] != time.Minute {
		t.Fatalf("expected one backoff of 1m, got %v", *slept)
	}
	if g.Stats().Requests != 2 {
		t.Fatalf("expected the retry to count as a request, got %d", g.Stats().Requests)
	}
}

func TestInferSurfacesSecondRateLimitAsUpstreamUnavailable(t *testing.T) {
	c := &scriptedCompleter{errs: []error{ErrRateLimited, ErrRateLimited, nil}}
	g, _ := newTestGateway(c)

	_, err := g.Infer(context.Background(), "p", Options{})
	if !apperr.Is(err, apperr.KindUpstreamUnavailable) {
		t.Fatalf("expected upstream unavailable, got %v", err)
	}
	if c.calls != 2 {
		t.Fatalf("expected exactly one retry, got %d calls", c.calls)
	}
	if stats := g.Stats(); stats.Requests != 2 || stats.InputTokens != 0 || stats.EstimatedCostUSD != 0 {
		t.Fatalf("expected both attempts counted and no usage, got %+v", stats)
	}
}

func TestInferDoesNotRetryOtherErrors(t *testing.T) {
	c := &scriptedCompleter{errs: []error{errors.New("boom")}}
	g, slept := newTestGateway(c)

	_, err := g.Infer(context.Background(), "p", Options{})
	if !apperr.Is(err, apperr.KindUpstreamUnavailable) {
		t.Fatalf("expected upstream unavailable, got %v", err)
	}
	if c.calls != 1 || len(*slept) != 0 {
		t.Fatalf("expected no retry, calls=%d slept=%v", c.calls, *slept)
	}
}

func TestInferMapsDeadlineToTimeout(t *testing.T) {
	c := &scriptedCompleter{errs: []error{context.DeadlineExceeded}}
	g, _ := newTestGateway(c)

	_, err := g.Infer(context.Background(), "p", Options{})
	if !apperr.Is(err, apperr.KindTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

type deadlineCompleter struct {
	calls     int
	deadlines []bool
	block     bool
}

func (d *deadlineCompleter) Complete(ctx context.Context, _ CompletionRequest) (Completion, error) {
	d.calls++
	_, ok := ctx.Deadline()
	d.deadlines = append(d.deadlines, ok)
	if d.block {
		<-ctx.Done()
		return Completion{}, errors.New("request canceled")
	}
	if d.calls == 1 {
		return Completion{}, ErrRateLimited
	}
	return Completion{Text: "ok"}, nil
}

func TestInferTimeoutAppliesPerAttempt(t *testing.T) {
	c := &deadlineCompleter{}
	g, slept := newTestGateway(c)

	text, err := g.Infer(context.Background(), "p", Options{Timeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "ok" || c.calls != 2 || len(*slept) != 1 {
		t.Fatalf("expected retry after backoff, text=%q calls=%d slept=%v", text, c.calls, *slept)
	}
	for i, ok := range c.deadlines {
		if !ok {
			t.Fatalf("attempt %d ran without its own deadline", i+1)
		}
	}
}

func TestInferAttemptTimeoutIsTimeoutKind(t *testing.T) {
	c := &deadlineCompleter{block: true}
	g, _ := newTestGateway(c)

	_, err := g.Infer(context.Background(), "p", Options{Timeout: 10 * time.Millisecond})
	if !apperr.Is(err, apperr.KindTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if c.calls != 1 {
		t.Fatalf("timeouts are not retried, got %d calls", c.calls)
	}
}

func TestResetStats(t *testing.T) {
	c := &scriptedCompleter{answers: []Completion{{Text: "x", InputTokens: 3, OutputTokens: 4}}}
	g, _ := newTestGateway(c)
	if _, err := g.Infer(context.Background(), "p", Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g.ResetStats()
	if stats := g.Stats(); stats != (Stats{}) {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
}

func TestInferStructured(t *testing.T) {
	cases := []struct {
		name      string
		answer    string
		wantJSON  bool
		wantValue string
	}{
		{name: "plain", answer: `{"value":"a"}`, wantJSON: true, wantValue: "a"},
		{name: "fenced", answer: "```json\n{\"value\":\"b\"}\n```", wantJSON: true, wantValue: "b"},
		{name: "prose around", answer: "Sure! {\"value\":\"c\"} hope it helps", wantJSON: true, wantValue: "c"},
		{name: "not json", answer: "I cannot help with that", wantJSON: false},
		{name: "broken json", answer: `{"value":`, wantJSON: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := &scriptedCompleter{answers: []Completion{{Text: tc.answer}}}
			g, _ := newTestGateway(c)

			got, err := g.InferStructured(context.Background(), "p", Options{})
			if err != nil {
				t.Fatalf("parse failures must not be errors: %v", err)
			}
			if got.Parsed() != tc.wantJSON {
				t.Fatalf("expected parsed=%v, got %v (%q)", tc.wantJSON, got.Parsed(), got.RawText)
			}
			if !tc.wantJSON {
				if got.RawText != tc.answer {
					t.Fatalf("expected raw text preserved, got %q", got.RawText)
				}
				var target map[string]any
				if err := got.Decode(&target); !errors.Is(err, ErrNotJSON) {
					t.Fatalf("expected ErrNotJSON, got %v", err)
				}
				return
			}
			var target struct {
				Value string `json:"value"`
			}
			if err := got.Decode(&target); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if target.Value != tc.wantValue {
				t.Fatalf("expected %q, got %q", tc.wantValue, target.Value)
			}
		})
	}
}

func TestSchemaForDescribesFields(t *testing.T) {
	type sample struct {
		Urgency string `json:"urgency" jsonschema:"enum=LOW,enum=HIGH"`
	}
	schema := SchemaFor(&sample{})
	if !strings.Contains(schema, `"urgency"`) || !strings.Contains(schema, `"LOW"`) {
		t.Fatalf("schema missing field or enum: %s", schema)
	}
}
