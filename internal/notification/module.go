// Package notification wires the notification feed, SSE push and
// assignment emails to domain events. Domain modules publish events;
// this module decides who hears about them.
package notification

import (
	"context"

	"crm_dashboard_backend/internal/email"
	"crm_dashboard_backend/internal/events"
	apphttp "crm_dashboard_backend/internal/http"
	"crm_dashboard_backend/internal/leads/domain"
	notifhandler "crm_dashboard_backend/internal/notification/handler"
	"crm_dashboard_backend/internal/notification/inapp"
	"crm_dashboard_backend/internal/notification/sse"
	"crm_dashboard_backend/platform/logger"
)

// LeadReader resolves canonical leads for notification enrichment.
type LeadReader interface {
	GetLead(id string) (domain.Lead, bool)
}

// Module handles all notification-related event subscriptions.
type Module struct {
	center     *inapp.Center
	sseService *sse.Service
	sender     email.Sender
	leadReader LeadReader
	log        *logger.Logger
	handler    *notifhandler.HTTPHandler
}

// New creates the notification module.
func New(sender email.Sender, log *logger.Logger) *Module {
	center := inapp.NewCenter(log)
	return &Module{
		center:  center,
		sender:  sender,
		log:     log,
		handler: notifhandler.NewHTTPHandler(center),
	}
}

// SetSSE shares the dashboard SSE service so accepted feed entries are
// pushed to connected clients in real time.
func (m *Module) SetSSE(service *sse.Service) {
	m.sseService = service
	m.center.OnEmit(func(n inapp.Notification) {
		service.Broadcast(sse.Event{
			Type:    sse.EventNotification,
			Message: n.Message,
			Data:    n,
		})
	})
}

// SetLeadReader injects the canonical-lead lookup used to enrich
// assignment notifications with the lead's name.
func (m *Module) SetLeadReader(reader LeadReader) {
	m.leadReader = reader
}

// Center returns the notification feed, which also serves as the
// distribution scheduler's notification sink.
func (m *Module) Center() *inapp.Center { return m.center }

// SSE returns the SSE broadcast service.
func (m *Module) SSE() *sse.Service { return m.sseService }

// RegisterHandlers subscribes the module to domain events.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadAssigned{}.EventName(), events.HandlerFunc(m.onLeadAssigned))
}

func (m *Module) onLeadAssigned(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadAssigned)
	if !ok {
		return nil
	}

	leadName := e.LeadID
	leadSource := ""
	if m.leadReader != nil {
		if lead, found := m.leadReader.GetLead(e.LeadID); found {
			if name := leadDisplayName(lead); name != "" {
				leadName = name
			}
			leadSource = string(lead.Source)
		}
	}

	m.center.Emit(ctx, inapp.TypeLeadAssigned,
		"Lead "+leadName+" assigned to "+e.AgentName,
		e.LeadID, e.AgentID.String())

	if err := m.sender.SendLeadAssignedEmail(ctx, e.AgentEmail, e.AgentName, leadName, leadSource); err != nil {
		m.log.Error("failed to send lead-assigned email", "agent", e.AgentEmail, "lead", e.LeadID, "error", err)
	}
	return nil
}

func leadDisplayName(lead domain.Lead) string {
	for _, key := range []string{"Name", "name", "FullName", "full_name"} {
		if v, ok := lead.Fields[key]; ok && v != "" {
			return v
		}
	}
	return ""
}

// Name returns the module identifier.
func (m *Module) Name() string { return "notification" }

// RegisterRoutes registers notification API routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	notifications := ctx.Protected.Group("/notifications")
	m.handler.RegisterRoutes(notifications)
}
