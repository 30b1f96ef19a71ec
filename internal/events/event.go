// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"crm_dashboard_backend/internal/leads/domain"
	"crm_dashboard_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Domain Events
// =============================================================================

// SourceRefreshed is published after an external-source refresh has been
// applied and canonical leads recomputed. The initial load carries
// InitialLoad=true, which arms the settle-delayed distribution sweep.
type SourceRefreshed struct {
	BaseEvent
	RecordCount int  `json:"recordCount"`
	InitialLoad bool `json:"initialLoad"`
}

func (e SourceRefreshed) EventName() string { return "leads.source.refreshed" }

// OverlayChanged is published after any overlay mutation (status, notes,
// meeting data, assignment). Triggers re-reconciliation fan-out.
type OverlayChanged struct {
	BaseEvent
	LeadID string `json:"leadId"`
	Field  string `json:"field"` // "status", "note", "meeting", "assignment"
}

func (e OverlayChanged) EventName() string { return "leads.overlay.changed" }

// LeadStatusChanged is published when a lead's status changes. A transition
// into a terminal status frees the owning agent's capacity and schedules a
// redistribution sweep.
type LeadStatusChanged struct {
	BaseEvent
	LeadID        string        `json:"leadId"`
	OldStatus     domain.Status `json:"oldStatus"`
	NewStatus     domain.Status `json:"newStatus"`
	AssignedAgent string        `json:"assignedAgent,omitempty"`
}

func (e LeadStatusChanged) EventName() string { return "leads.status.changed" }

// LeadAssigned is published when the distribution scheduler assigns a lead.
type LeadAssigned struct {
	BaseEvent
	LeadID     string    `json:"leadId"`
	AgentID    uuid.UUID `json:"agentId"`
	AgentEmail string    `json:"agentEmail"`
	AgentName  string    `json:"agentName"`
}

func (e LeadAssigned) EventName() string { return "leads.assigned" }

// =============================================================================
// Agent Domain Events
// =============================================================================

// AgentPoolChanged is published whenever the active-agent set changes size
// (agent added, removed, activated or deactivated). The distribution
// scheduler sweeps in response.
type AgentPoolChanged struct {
	BaseEvent
	ActiveAgents int `json:"activeAgents"`
}

func (e AgentPoolChanged) EventName() string { return "agents.pool.changed" }
