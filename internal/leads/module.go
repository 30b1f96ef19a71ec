// Package leads is the lead bounded context: source ingestion,
// overlay state, reconciliation and the leads API.
package leads

import (
	"context"

	"crm_dashboard_backend/internal/agents"
	"crm_dashboard_backend/internal/events"
	apphttp "crm_dashboard_backend/internal/http"
	"crm_dashboard_backend/internal/leads/domain"
	leadhandler "crm_dashboard_backend/internal/leads/handler"
	"crm_dashboard_backend/internal/leads/overlay"
	"crm_dashboard_backend/internal/leads/service"
	"crm_dashboard_backend/internal/leads/source"
	"crm_dashboard_backend/internal/leads/watch"
	"crm_dashboard_backend/internal/notification/sse"
	"crm_dashboard_backend/platform/config"
	"crm_dashboard_backend/platform/kvstore"
	"crm_dashboard_backend/platform/logger"
	"crm_dashboard_backend/platform/validator"
)

// Module wires the lead components together.
type Module struct {
	svc        *service.Service
	sseService *sse.Service
	handler    *leadhandler.Handler
	log        *logger.Logger
}

// NewModule builds the leads module on the durable store.
func NewModule(ctx context.Context, kv kvstore.Store, registry *agents.Registry, bus events.Bus, val *validator.Validator, cfg config.SourceConfig, log *logger.Logger) *Module {
	overlays := overlay.NewStore(ctx, kv, log)
	notifier := watch.NewNotifier(log)
	client := source.NewClient(source.Config{
		BaseURL: cfg.GetSourceBaseURL(),
		Timeout: cfg.GetSourceFetchTimeout(),
	}, log)
	svc := service.NewService(overlays, registry, client, notifier, bus, log)

	sseService := sse.New(log)

	m := &Module{
		svc:        svc,
		sseService: sseService,
		handler:    leadhandler.New(svc, val),
		log:        log,
	}

	// Dashboards learn about every reconciliation through one SSE
	// signal and refetch what they need.
	svc.Subscribe(func(leads []domain.Lead) {
		sseService.Broadcast(sse.Event{
			Type: sse.EventLeadsUpdated,
			Data: map[string]int{"total": len(leads)},
		})
	})

	return m
}

// Service exposes the engine facade to other modules.
func (m *Module) Service() *service.Service { return m.svc }

// SSE exposes the dashboard SSE service for sharing with the
// notification module.
func (m *Module) SSE() *sse.Service { return m.sseService }

// Name returns the module identifier.
func (m *Module) Name() string { return "leads" }

// RegisterRoutes registers the leads API routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	leads := ctx.Protected.Group("/leads")
	leads.GET("", m.handler.List)
	leads.GET("/stats", m.handler.Stats)
	leads.GET("/watch", m.sseService.Handler())
	leads.GET("/source/:source", m.handler.ListBySource)
	leads.PATCH("/:id/status", m.handler.UpdateStatus)
	leads.PUT("/:id/meeting", m.handler.SetMeeting)
	leads.POST("/:id/notes", m.handler.AddNote)

	ctx.Admin.POST("/refresh", m.handler.Refresh)
}

// Close shuts down SSE connections.
func (m *Module) Close() {
	m.sseService.Close()
}
