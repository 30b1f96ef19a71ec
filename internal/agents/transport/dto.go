// Package transport defines request DTOs for the agents API.
package transport

// CreateAgentRequest registers a new agent.
type CreateAgentRequest struct {
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Role          string `json:"role" validate:"omitempty,oneof=ADMIN AGENT"`
	MaxDailyLeads int    `json:"maxDailyLeads" validate:"omitempty,min=1"`
}

// UpdateAgentRequest edits an existing agent. Absent fields are left
// unchanged.
type UpdateAgentRequest struct {
	Name          *string `json:"name"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Role          *string `json:"role" validate:"omitempty,oneof=ADMIN AGENT"`
	MaxDailyLeads *int    `json:"maxDailyLeads" validate:"omitempty,min=1"`
}

// SetAgentStatusRequest activates or deactivates an agent.
type SetAgentStatusRequest struct {
	Active *bool `json:"active" validate:"required"`
}
