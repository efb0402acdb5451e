package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apphttp "leadflow_backend/internal/http"
	"leadflow_backend/internal/inference"

	"github.com/gin-gonic/gin"
)

type stubStats struct {
	stats inference.Stats
	reset int
}

func (s *stubStats) Stats() inference.Stats { return s.stats }
func (s *stubStats) ResetStats()            { s.reset++; s.stats = inference.Stats{} }

func newEngine(m *Module) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	v1 := engine.Group("/api/v1")
	m.RegisterRoutes(&apphttp.RouterContext{Engine: engine, V1: v1, Protected: v1, Admin: v1.Group("/admin")})
	return engine
}

func TestStatsAndReset(t *testing.T) {
	src := &stubStats{stats: inference.Stats{Requests: 4, InputTokens: 1200, OutputTokens: 300, EstimatedCostUSD: 0.0021}}
	engine := newEngine(NewModule(src))

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/inference/stats", nil))
	var got inference.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil || got.Requests != 4 || got.InputTokens != 1200 {
		t.Fatalf("unexpected stats %s (err=%v)", rec.Body.String(), err)
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/inference/stats/reset", nil))
	if rec.Code != http.StatusNoContent || src.reset != 1 {
		t.Fatalf("reset not applied: code=%d resets=%d", rec.Code, src.reset)
	}
}
