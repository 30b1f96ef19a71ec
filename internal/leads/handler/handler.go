// Package handler handles HTTP requests for the leads API.
package handler

import (
	"net/http"

	"crm_dashboard_backend/internal/leads/overlay"
	"crm_dashboard_backend/internal/leads/service"
	"crm_dashboard_backend/internal/leads/stats"
	"crm_dashboard_backend/internal/leads/transport"
	"crm_dashboard_backend/platform/httpkit"
	"crm_dashboard_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for leads.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// viewerFromIdentity maps the authenticated caller onto the lead
// visibility rules: admins see everything, agents see unassigned leads
// plus their own.
func viewerFromIdentity(identity httpkit.Identity) stats.Viewer {
	return stats.Viewer{
		Admin: identity.HasRole(httpkit.RoleAdmin),
		Identifiers: []string{
			identity.Email(),
			identity.Name(),
			identity.UserID().String(),
		},
	}
}

// List retrieves the leads visible to the caller.
// GET /api/v1/leads
func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	httpkit.OK(c, gin.H{"leads": h.svc.GetAllLeads(viewerFromIdentity(identity))})
}

// ListBySource retrieves leads of one source category.
// GET /api/v1/leads/source/:source
func (h *Handler) ListBySource(c *gin.Context) {
	httpkit.OK(c, gin.H{"leads": h.svc.GetLeadsBySource(c.Param("source"))})
}

// Stats returns the status/source breakdown of the caller's visible leads.
// GET /api/v1/leads/stats
func (h *Handler) Stats(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	httpkit.OK(c, h.svc.GetStats(viewerFromIdentity(identity)))
}

// UpdateStatus changes a lead's pipeline status.
// PATCH /api/v1/leads/:id/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

// SetMeeting stores meeting details on a lead.
// PUT /api/v1/leads/:id/meeting
func (h *Handler) SetMeeting(c *gin.Context) {
	var req transport.MeetingDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.SetMeetingDetails(c.Request.Context(), c.Param("id"), overlay.MeetingDetails{
		Date:             req.MeetingDate,
		Time:             req.MeetingTime,
		Result:           req.MeetingResult,
		PostMeetingNotes: req.PostMeetingNotes,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

// AddNote appends a note to a lead.
// POST /api/v1/leads/:id/notes
func (h *Handler) AddNote(c *gin.Context) {
	var req transport.AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.AddNote(c.Request.Context(), c.Param("id"), req.Text)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

// Refresh triggers an on-demand external-source refresh.
// POST /api/v1/admin/refresh
func (h *Handler) Refresh(c *gin.Context) {
	count := h.svc.RefreshFromSource(c.Request.Context())
	httpkit.OK(c, gin.H{"records": count})
}
