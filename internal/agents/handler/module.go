package handler

import (
	"crm_dashboard_backend/internal/agents"
	apphttp "crm_dashboard_backend/internal/http"
	"crm_dashboard_backend/platform/validator"
)

// Module exposes the agent registry over HTTP.
type Module struct {
	handler *Handler
}

func NewModule(registry *agents.Registry, val *validator.Validator) *Module {
	return &Module{handler: New(registry, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "agents" }

// RegisterRoutes registers the agent administration routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Admin.Group("/agents")
	group.GET("", m.handler.List)
	group.POST("", m.handler.Create)
	group.PUT("/:id", m.handler.Update)
	group.PATCH("/:id/status", m.handler.SetStatus)
	group.DELETE("/:id", m.handler.Delete)

	ctx.Protected.GET("/agents/stats", m.handler.Stats)
}
