// Package inapp keeps an in-memory feed of engine
// notifications (assignments, capacity warnings) and pushes them to
// connected dashboards over SSE.
package inapp

import (
	"context"
	"sync"
	"time"

	"crm_dashboard_backend/platform/apperr"
	"crm_dashboard_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	TypeLeadAssigned    = "lead_assigned"
	TypeUnassignedLeads = "unassigned_leads"

	// maxEntries bounds the feed; the oldest entries are evicted.
	maxEntries = 100
	// dedupWindow suppresses identical notifications fired in a burst,
	// e.g. the same capacity warning from back-to-back sweeps.
	dedupWindow = 60 * time.Second
)

// Notification is one feed entry.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	LeadID    string    `json:"leadId,omitempty"`
	AgentID   string    `json:"agentId,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// Center is the bounded notification feed. Newest entries first.
type Center struct {
	mu      sync.Mutex
	entries []Notification
	now     func() time.Time
	onEmit  func(Notification)
	log     *logger.Logger
}

func NewCenter(log *logger.Logger) *Center {
	return &Center{
		now: time.Now,
		log: log,
	}
}

// OnEmit registers a hook called for every accepted notification.
// Used to push entries out over SSE.
func (c *Center) OnEmit(fn func(Notification)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEmit = fn
}

// Emit adds a notification to the feed. An identical notification
// (same type, message and agent) emitted within the dedup window is
// dropped.
func (c *Center) Emit(_ context.Context, notificationType, message, leadID, agentID string) {
	c.mu.Lock()
	now := c.now()
	for _, entry := range c.entries {
		if now.Sub(entry.CreatedAt) > dedupWindow {
			break
		}
		if entry.Type == notificationType && entry.Message == message && entry.AgentID == agentID {
			c.mu.Unlock()
			return
		}
	}

	entry := Notification{
		ID:        uuid.New(),
		Type:      notificationType,
		Message:   message,
		LeadID:    leadID,
		AgentID:   agentID,
		CreatedAt: now,
	}
	c.entries = append([]Notification{entry}, c.entries...)
	if len(c.entries) > maxEntries {
		c.entries = c.entries[:maxEntries]
	}
	hook := c.onEmit
	c.mu.Unlock()

	if hook != nil {
		hook(entry)
	}
}

// List returns the feed, newest first.
func (c *Center) List() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.entries))
	copy(out, c.entries)
	return out
}

// UnreadCount reports the number of unread entries.
func (c *Center) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, entry := range c.entries {
		if !entry.Read {
			n++
		}
	}
	return n
}

// MarkRead marks one entry as read.
func (c *Center) MarkRead(id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.entries {
		if c.entries[i].ID == id {
			c.entries[i].Read = true
			return nil
		}
	}
	return apperr.NotFound("notification not found: " + id.String())
}

// MarkAllRead marks every entry as read.
func (c *Center) MarkAllRead() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.entries {
		c.entries[i].Read = true
	}
}
