// Package handler exposes the decay dry run over HTTP.
package handler

import (
	"context"

	"leadflow_backend/internal/automation"
	apphttp "leadflow_backend/internal/http"
	"leadflow_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Previewer computes decay decisions for one tenant without writing.
type Previewer interface {
	PreviewTenant(ctx context.Context, tenantID uuid.UUID) automation.TenantOutcome
}

type Module struct {
	runner Previewer
}

func NewModule(runner Previewer) *Module {
	return &Module{runner: runner}
}

func (m *Module) Name() string { return "automation" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/automation/decay/preview", m.PreviewDecay)
}

func (m *Module) PreviewDecay(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	httpkit.OK(c, m.runner.PreviewTenant(c.Request.Context(), tenantID))
}

var _ apphttp.Module = (*Module)(nil)
