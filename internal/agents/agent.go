// Package agents provides the agent registry: CRUD and capacity bookkeeping
// for sales agents. The registry is the only component permitted to mutate
// agents. Agents are created and edited explicitly by an administrator,
// never implicitly by the engine.
package agents

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAgent = "AGENT"
	RoleAdmin = "ADMIN"

	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Agent is a sales agent with a daily lead capacity.
//
// CurrentLeadsCount is a cache, not ground truth: the authoritative count
// is the number of canonical leads assigned to the agent excluding
// terminal statuses, recomputed from the lead list. The cached value only
// avoids a full scan on the hot increment/decrement path; every stats
// snapshot and assignment decision reconciles it first.
type Agent struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Role              string    `json:"role"`
	Status            string    `json:"status"`
	MaxDailyLeads     int       `json:"maxDailyLeads"`
	CurrentLeadsCount int       `json:"currentLeadsCount"`
	CreatedAt         time.Time `json:"createdAt"`
}

// IsActive reports whether the agent participates in distribution.
func (a Agent) IsActive() bool {
	return a.Status == StatusActive
}

// HasCapacity reports whether the cached count leaves room for another lead.
func (a Agent) HasCapacity() bool {
	return a.MaxDailyLeads > 0 && a.CurrentLeadsCount < a.MaxDailyLeads
}

// Utilization returns the cached count / capacity ratio. Agents with zero
// capacity are treated as fully utilized.
func (a Agent) Utilization() float64 {
	if a.MaxDailyLeads <= 0 {
		return 1
	}
	return float64(a.CurrentLeadsCount) / float64(a.MaxDailyLeads)
}
