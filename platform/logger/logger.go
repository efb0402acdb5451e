// Package logger wraps slog with the event helpers the lead services emit:
// request logs, inference calls, decay transitions and database failures.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

type contextKey string

const (
	// RequestIDKey carries the X-Request-ID of the inbound request.
	RequestIDKey contextKey = "request_id"
	// TenantIDKey carries the tenant resolved from the access token.
	TenantIDKey contextKey = "tenant_id"
	// UserIDKey carries the authenticated user.
	UserIDKey contextKey = "user_id"
)

// ContextWithRequestID stores the request id for WithContext.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// ContextWithCaller stores the tenant and user for WithContext.
func ContextWithCaller(ctx context.Context, tenantID, userID string) context.Context {
	ctx = context.WithValue(ctx, TenantIDKey, tenantID)
	return context.WithValue(ctx, UserIDKey, userID)
}

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter is New with an explicit destination. The CLI logs to stderr
// so stdout stays machine-readable.
func NewWithWriter(env string, w io.Writer) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger carrying the request_id, tenant_id and user_id
// stored in ctx. Missing values are skipped.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	var attrs []any
	for _, key := range []contextKey{RequestIDKey, TenantIDKey, UserIDKey} {
		if value, ok := ctx.Value(key).(string); ok && value != "" {
			attrs = append(attrs, slog.String(string(key), value))
		}
	}
	if len(attrs) == 0 {
		return l
	}
	return &Logger{Logger: l.With(attrs...)}
}

// RequestRecord describes one served HTTP request.
type RequestRecord struct {
	Method   string
	Path     string
	Status   int
	Latency  time.Duration
	ClientIP string
	Err      error
}

// HTTPRequest logs a served request. 5xx responses log at error level with
// the attached cause, 4xx at warn, everything else at info.
func (l *Logger) HTTPRequest(rec RequestRecord) {
	attrs := []any{
		slog.String("method", rec.Method),
		slog.String("path", rec.Path),
		slog.Int("status", rec.Status),
		slog.Float64("latency_ms", float64(rec.Latency.Microseconds())/1000),
		slog.String("client_ip", rec.ClientIP),
	}

	switch {
	case rec.Status >= 500:
		if rec.Err != nil {
			attrs = append(attrs, slog.String("error", rec.Err.Error()))
		}
		l.Error("http_request", attrs...)
	case rec.Status >= 400:
		l.Warn("http_request", attrs...)
	default:
		l.Info("http_request", attrs...)
	}
}

// InferenceCall logs a completed call to the generative-text service
func (l *Logger) InferenceCall(purpose string, inputTokens, outputTokens int, latencyMs float64, err error) {
	if err != nil {
		l.Warn("inference_call",
			slog.String("purpose", purpose),
			slog.Float64("latency_ms", latencyMs),
			slog.String("error", err.Error()),
		)
		return
	}
	l.Debug("inference_call",
		slog.String("purpose", purpose),
		slog.Int("input_tokens", inputTokens),
		slog.Int("output_tokens", outputTokens),
		slog.Float64("latency_ms", latencyMs),
	)
}

// DecayTransition logs a temperature change applied by the decay rule
func (l *Logger) DecayTransition(tenantID, leadID, from, to string, elapsedDays int, preview bool) {
	l.Info("decay_transition",
		slog.String("tenant_id", tenantID),
		slog.String("lead_id", leadID),
		slog.String("from", from),
		slog.String("to", to),
		slog.Int("elapsed_days", elapsedDays),
		slog.Bool("preview", preview),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs a request rejected by a keyed limiter. key is the
// limiter bucket, a tenant id or "ip:<addr>".
func (l *Logger) RateLimitExceeded(key, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("key", key),
		slog.String("path", path),
	)
}

// Nop returns a logger that discards everything. Intended for tests.
func Nop() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}
