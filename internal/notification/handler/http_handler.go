// Package handler exposes the notification feed over HTTP.
package handler

import (
	"net/http"

	"crm_dashboard_backend/internal/notification/inapp"
	"crm_dashboard_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HTTPHandler serves the notification feed endpoints.
type HTTPHandler struct {
	center *inapp.Center
}

func NewHTTPHandler(center *inapp.Center) *HTTPHandler {
	return &HTTPHandler{center: center}
}

// RegisterRoutes mounts the notification routes on the given group.
func (h *HTTPHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", h.list)
	group.POST("/:id/read", h.markRead)
	group.POST("/read-all", h.markAllRead)
}

func (h *HTTPHandler) list(c *gin.Context) {
	httpkit.OK(c, gin.H{
		"notifications": h.center.List(),
		"unreadCount":   h.center.UnreadCount(),
	})
}

func (h *HTTPHandler) markRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid notification id", nil)
		return
	}
	if httpkit.HandleError(c, h.center.MarkRead(id)) {
		return
	}
	httpkit.OK(c, gin.H{"read": true})
}

func (h *HTTPHandler) markAllRead(c *gin.Context) {
	h.center.MarkAllRead()
	httpkit.OK(c, gin.H{"read": true})
}
