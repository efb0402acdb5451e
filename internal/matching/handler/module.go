package handler

import (
	apphttp "leadflow_backend/internal/http"
	"leadflow_backend/platform/validator"
)

// Module exposes lead matching over HTTP.
type Module struct {
	handler *Handler
}

func NewModule(matcher Matcher, val *validator.Validator) *Module {
	return &Module{handler: New(matcher, val)}
}

func (m *Module) Name() string { return "matching" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"))
}

var _ apphttp.Module = (*Module)(nil)
