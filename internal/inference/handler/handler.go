// Package handler exposes the inference gateway cost counters over HTTP.
package handler

import (
	"net/http"

	apphttp "leadflow_backend/internal/http"
	"leadflow_backend/internal/inference"
	"leadflow_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// StatsSource is the gateway's cost counter surface.
type StatsSource interface {
	Stats() inference.Stats
	ResetStats()
}

type Module struct {
	stats StatsSource
}

func NewModule(stats StatsSource) *Module {
	return &Module{stats: stats}
}

func (m *Module) Name() string { return "inference" }

// RegisterRoutes mounts the read endpoint for every tenant user and the reset
// endpoint for admins only; the counters are process-wide.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/inference/stats", m.GetStats)
	ctx.Admin.POST("/inference/stats/reset", m.ResetStats)
}

func (m *Module) GetStats(c *gin.Context) {
	httpkit.OK(c, m.stats.Stats())
}

func (m *Module) ResetStats(c *gin.Context) {
	m.stats.ResetStats()
	c.Status(http.StatusNoContent)
}

var _ apphttp.Module = (*Module)(nil)
