// Package stats computes aggregate views over canonical leads and the
// agent pool. All functions are pure: they read the slices they are
// given and never mutate engine state, so callers can invoke them on
// any snapshot without locking.
package stats

import (
	"math"
	"strings"

	"crm_dashboard_backend/internal/agents"
	"crm_dashboard_backend/internal/leads/domain"
)

// LeadStats is the status/source breakdown of a lead list. Every enum
// value appears as a key even when its count is zero.
type LeadStats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"byStatus"`
	BySource map[string]int `json:"bySource"`
}

// Compute tallies leads by status and by source category.
func Compute(leads []domain.Lead) LeadStats {
	s := LeadStats{
		Total:    len(leads),
		ByStatus: make(map[string]int, len(domain.AllStatuses())),
		BySource: make(map[string]int, len(domain.AllSources())),
	}
	for _, st := range domain.AllStatuses() {
		s.ByStatus[string(st)] = 0
	}
	for _, src := range domain.AllSources() {
		s.BySource[string(src)] = 0
	}
	for _, lead := range leads {
		s.ByStatus[string(lead.Status)]++
		s.BySource[string(lead.Source)]++
	}
	return s
}

// AssignedCountsByEmail recomputes the authoritative per-agent load
// from canonical leads: the number of leads assigned to each agent,
// excluding terminal statuses. Keys are lowercased agent emails.
// The registry's stored counters are only a cache of this value.
func AssignedCountsByEmail(leads []domain.Lead) map[string]int {
	counts := make(map[string]int)
	for _, lead := range leads {
		if lead.AssignedAgent == "" || lead.Status.IsTerminal() {
			continue
		}
		counts[strings.ToLower(lead.AssignedAgent)]++
	}
	return counts
}

// DistributionStats describes the current capacity picture of the
// active agent pool. UsedCapacity comes from the recomputed per-agent
// counts, never from the cached registry counters.
type DistributionStats struct {
	UnassignedLeads   int     `json:"unassignedLeads"`
	ActiveAgents      int     `json:"activeAgents"`
	TotalCapacity     int     `json:"totalCapacity"`
	UsedCapacity      int     `json:"usedCapacity"`
	AvailableCapacity int     `json:"availableCapacity"`
	UtilizationRate   float64 `json:"utilizationRate"`
	AgentsAtCapacity  int     `json:"agentsAtCapacity"`
	AgentsAvailable   int     `json:"agentsAvailable"`
}

// ComputeDistribution derives capacity statistics from canonical leads
// and the active agent pool.
func ComputeDistribution(leads []domain.Lead, activeAgents []agents.Agent) DistributionStats {
	counts := AssignedCountsByEmail(leads)

	d := DistributionStats{ActiveAgents: len(activeAgents)}
	for _, lead := range leads {
		if lead.IsEligibleForAssignment() {
			d.UnassignedLeads++
		}
	}
	for _, agent := range activeAgents {
		assigned := counts[strings.ToLower(agent.Email)]
		d.TotalCapacity += agent.MaxDailyLeads
		d.UsedCapacity += assigned
		if assigned >= agent.MaxDailyLeads {
			d.AgentsAtCapacity++
		} else {
			d.AgentsAvailable++
		}
	}
	if avail := d.TotalCapacity - d.UsedCapacity; avail > 0 {
		d.AvailableCapacity = avail
	}
	if d.TotalCapacity > 0 {
		d.UtilizationRate = math.Round(float64(d.UsedCapacity) / float64(d.TotalCapacity) * 100)
	}
	return d
}

// Viewer is the role context applied when filtering leads for a
// caller. Identifiers holds every string the caller may be known by on
// a lead's assignedAgent field (email, username, display name).
type Viewer struct {
	Admin       bool
	Identifiers []string
}

// FilterVisible returns the leads a viewer is allowed to see. Admins
// see everything; agents see unassigned leads plus their own.
func FilterVisible(leads []domain.Lead, v Viewer) []domain.Lead {
	if v.Admin {
		return leads
	}
	visible := make([]domain.Lead, 0, len(leads))
	for _, lead := range leads {
		if lead.AssignedAgent == "" || matchesViewer(lead.AssignedAgent, v.Identifiers) {
			visible = append(visible, lead)
		}
	}
	return visible
}

func matchesViewer(assignedAgent string, identifiers []string) bool {
	for _, id := range identifiers {
		if id != "" && strings.EqualFold(assignedAgent, id) {
			return true
		}
	}
	return false
}
