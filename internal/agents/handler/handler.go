// Package handler handles HTTP requests for agent administration.
package handler

import (
	"net/http"

	"crm_dashboard_backend/internal/agents"
	"crm_dashboard_backend/internal/agents/transport"
	"crm_dashboard_backend/platform/httpkit"
	"crm_dashboard_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid agent ID"
)

// Handler handles HTTP requests for agents.
type Handler struct {
	registry *agents.Registry
	val      *validator.Validator
}

func New(registry *agents.Registry, val *validator.Validator) *Handler {
	return &Handler{registry: registry, val: val}
}

// List retrieves all agents (admin only).
// GET /api/v1/admin/agents
func (h *Handler) List(c *gin.Context) {
	httpkit.OK(c, gin.H{"agents": h.registry.List()})
}

// Create registers a new agent.
// POST /api/v1/admin/agents
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	agent, err := h.registry.Add(c.Request.Context(), agents.AddParams{
		Name:          req.Name,
		Email:         req.Email,
		Role:          req.Role,
		MaxDailyLeads: req.MaxDailyLeads,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, agent)
}

// Update edits an existing agent.
// PUT /api/v1/admin/agents/:id
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.UpdateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	agent, err := h.registry.Update(c.Request.Context(), id, agents.UpdateParams{
		Name:          req.Name,
		Email:         req.Email,
		Role:          req.Role,
		MaxDailyLeads: req.MaxDailyLeads,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, agent)
}

// SetStatus activates or deactivates an agent.
// PATCH /api/v1/admin/agents/:id/status
func (h *Handler) SetStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.SetAgentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if httpkit.HandleError(c, h.registry.SetStatus(c.Request.Context(), id, *req.Active)) {
		return
	}
	agent, _ := h.registry.GetByID(id)
	httpkit.OK(c, agent)
}

// Delete removes an agent from the registry.
// DELETE /api/v1/admin/agents/:id
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	if httpkit.HandleError(c, h.registry.Delete(c.Request.Context(), id)) {
		return
	}
	httpkit.OK(c, gin.H{"deleted": true})
}

// Stats reports agent pool totals.
// GET /api/v1/agents/stats
func (h *Handler) Stats(c *gin.Context) {
	httpkit.OK(c, h.registry.GetStats())
}
