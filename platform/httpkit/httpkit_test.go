package httpkit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const testSecret = "test-secret"

type jwtConfig struct{}

func (jwtConfig) GetJWTAccessSecret() string { return testSecret }

func tokenFor(t *testing.T, tenantID uuid.UUID) string {
	t.Helper()
	return "Bearer " + signToken(t, jwt.MapClaims{
		"sub":       uuid.NewString(),
		"tenant_id": tenantID.String(),
		"type":      "access",
		"exp":       time.Now().Add(time.Hour).Unix(),
	})
}

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestAuthRequired(t *testing.T) {
	userID, tenantID := uuid.New(), uuid.New()
	valid := jwt.MapClaims{"sub": userID.String(), "tenant_id": tenantID.String(), "type": "access", "exp": time.Now().Add(time.Hour).Unix()}
	noTenant := jwt.MapClaims{"sub": userID.String(), "type": "access", "exp": time.Now().Add(time.Hour).Unix()}
	refresh := jwt.MapClaims{"sub": userID.String(), "tenant_id": tenantID.String(), "type": "refresh", "exp": time.Now().Add(time.Hour).Unix()}
	noExpiry := jwt.MapClaims{"sub": userID.String(), "tenant_id": tenantID.String(), "type": "access"}
	expired := jwt.MapClaims{"sub": userID.String(), "tenant_id": tenantID.String(), "type": "access", "exp": time.Now().Add(-time.Minute).Unix()}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, valid).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign unsigned token: %v", err)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"missing tenant", "Bearer " + signToken(t, noTenant), http.StatusUnauthorized},
		{"refresh token", "Bearer " + signToken(t, refresh), http.StatusUnauthorized},
		{"no expiry", "Bearer " + signToken(t, noExpiry), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, expired), http.StatusUnauthorized},
		{"alg none", "Bearer " + unsigned, http.StatusUnauthorized},
		{"basic scheme", "Basic " + signToken(t, valid), http.StatusUnauthorized},
		{"valid", "Bearer " + signToken(t, valid), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", AuthRequired(jwtConfig{}), func(c *gin.Context) {
				tid, ok := MustGetTenantID(c)
				if !ok {
					return
				}
				if tid != tenantID {
					t.Errorf("unexpected tenant %s", tid)
				}
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		want     int
		message  string
		attached bool
	}{
		{"not found", apperr.NotFound("lead not found"), http.StatusNotFound, "lead not found", false},
		{"wrapped not found", fmt.Errorf("load: %w", apperr.NotFound("lead not found")), http.StatusNotFound, "lead not found", false},
		{"bad request", apperr.BadRequest("invalid id"), http.StatusBadRequest, "invalid id", false},
		{"rate limited", apperr.RateLimited("slow down"), http.StatusTooManyRequests, "slow down", false},
		{"upstream", apperr.New(apperr.KindUpstreamUnavailable, "model down"), http.StatusBadGateway, "model down", true},
		{"timeout", apperr.New(apperr.KindTimeout, "model slow"), http.StatusGatewayTimeout, "model slow", true},
		{"untyped", errors.New("pq: connection reset"), http.StatusInternalServerError, "internal server error", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			if !HandleError(c, tt.err) {
				t.Fatal("expected error to be handled")
			}
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
			var body ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error != tt.message {
				t.Fatalf("expected message %q, got %q", tt.message, body.Error)
			}
			if got := len(c.Errors) > 0; got != tt.attached {
				t.Fatalf("expected attached=%v, got %v", tt.attached, got)
			}
			if !c.IsAborted() {
				t.Fatal("expected chain to be aborted")
			}
		})
	}

	if HandleError(nil, nil) {
		t.Fatal("nil error must not be handled")
	}
}

func TestHandleErrorValidationDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	details := map[string]string{"text": "required"}
	HandleError(c, apperr.Validation("validation failed").WithDetails(details))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"details":{"text":"required"}`) {
		t.Fatalf("expected details in body, got %s", rec.Body.String())
	}
}

func TestRequireRole(t *testing.T) {
	tenantID := uuid.New()
	admin := jwt.MapClaims{"sub": uuid.NewString(), "tenant_id": tenantID.String(), "type": "access", "roles": []string{"admin"}, "exp": time.Now().Add(time.Hour).Unix()}
	agent := jwt.MapClaims{"sub": uuid.NewString(), "tenant_id": tenantID.String(), "type": "access", "roles": []string{"agent"}, "exp": time.Now().Add(time.Hour).Unix()}

	r := gin.New()
	r.GET("/admin", AuthRequired(jwtConfig{}), RequireRole("admin"), func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, tt := range []struct {
		name   string
		claims jwt.MapClaims
		want   int
	}{
		{"admin", admin, http.StatusOK},
		{"agent", agent, http.StatusForbidden},
	} {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set("Authorization", "Bearer "+signToken(t, tt.claims))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	limiter := NewKeyedRateLimiter(rate.Limit(0.001), 2, TenantKey, nil)
	r := gin.New()
	r.POST("/", limiter.RateLimit(), func(c *gin.Context) { c.Status(http.StatusAccepted) })

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for range 3 {
		last = httptest.NewRecorder()
		r.ServeHTTP(last, httptest.NewRequest(http.MethodPost, "/", nil))
		codes = append(codes, last.Code)
	}
	if codes[0] != http.StatusAccepted || codes[1] != http.StatusAccepted || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence: %v", codes)
	}
	if got := last.Header().Get("Retry-After"); got != "1000" {
		t.Fatalf("expected Retry-After 1000, got %q", got)
	}
}

func TestMessageRateLimitIsPerTenant(t *testing.T) {
	limiter := NewKeyedRateLimiter(rate.Limit(0.001), 1, TenantKey, logger.Nop())
	r := gin.New()
	r.POST("/leads/:id/messages", AuthRequired(jwtConfig{}), limiter.RateLimit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	tenantA, tenantB := tokenFor(t, uuid.New()), tokenFor(t, uuid.New())
	send := func(token string) int {
		req := httptest.NewRequest(http.MethodPost, "/leads/"+uuid.NewString()+"/messages", nil)
		req.Header.Set("Authorization", token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	// Both tenants share the test client address.
	if got := send(tenantA); got != http.StatusOK {
		t.Fatalf("tenant A first message: expected 200, got %d", got)
	}
	if got := send(tenantA); got != http.StatusTooManyRequests {
		t.Fatalf("tenant A second message: expected 429, got %d", got)
	}
	if got := send(tenantB); got != http.StatusOK {
		t.Fatalf("tenant B must have its own bucket, got %d", got)
	}
}

func TestKeyedRateLimiterDropsIdleBuckets(t *testing.T) {
	limiter := NewKeyedRateLimiter(rate.Limit(1), 1, TenantKey, nil)
	clock := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }

	limiter.allow("tenant:a")
	limiter.allow("tenant:b")
	if len(limiter.buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(limiter.buckets))
	}

	clock = clock.Add(minIdleTTL)
	if !limiter.allow("tenant:c") {
		t.Fatal("fresh key must be allowed")
	}
	if len(limiter.buckets) != 1 {
		t.Fatalf("expected idle buckets to be dropped, got %d", len(limiter.buckets))
	}
}

func TestRequestLoggerCarriesTenantAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter("production", &buf)
	tenantID := uuid.New()

	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/fail", AuthRequired(jwtConfig{}), func(c *gin.Context) {
		HandleError(c, errors.New("pool exhausted"))
	})

	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	req.Header.Set("Authorization", tokenFor(t, tenantID))
	req.Header.Set(HeaderRequestID, "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get(HeaderRequestID); got != "req-123" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["level"] != "ERROR" || entry["msg"] != "http_request" {
		t.Fatalf("unexpected log entry: %v", entry)
	}
	if entry["tenant_id"] != tenantID.String() || entry["request_id"] != "req-123" {
		t.Fatalf("expected tenant and request id, got %v", entry)
	}
	if entry["error"] != "pool exhausted" {
		t.Fatalf("expected attached cause, got %v", entry["error"])
	}
}

func TestRequestLoggerGeneratesRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(logger.Nop()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if _, err := uuid.Parse(rec.Header().Get(HeaderRequestID)); err != nil {
		t.Fatalf("expected generated uuid request id, got %q", rec.Header().Get(HeaderRequestID))
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Fatal("expected no-store")
	}
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Fatal("expected HSTS behind a TLS proxy")
	}
}

func TestParseUUIDParam(t *testing.T) {
	r := gin.New()
	r.GET("/leads/:id", func(c *gin.Context) {
		if _, ok := ParseUUIDParam(c, "id"); !ok {
			return
		}
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leads/not-a-uuid", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
