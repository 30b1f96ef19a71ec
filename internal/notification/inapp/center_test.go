package inapp

import (
	"context"
	"fmt"
	"testing"
	"time"

	"crm_dashboard_backend/platform/apperr"
	"crm_dashboard_backend/platform/logger"

	"github.com/google/uuid"
)

func newCenter(t *testing.T) (*Center, *time.Time) {
	t.Helper()
	now := time.Now()
	c := NewCenter(logger.New("development"))
	c.now = func() time.Time { return now }
	return c, &now
}

func TestEmitDeduplicatesWithinWindow(t *testing.T) {
	c, now := newCenter(t)
	ctx := context.Background()

	c.Emit(ctx, TypeUnassignedLeads, "2 leads could not be assigned", "", "")
	c.Emit(ctx, TypeUnassignedLeads, "2 leads could not be assigned", "", "")
	if len(c.List()) != 1 {
		t.Fatalf("expected duplicate suppressed, got %d entries", len(c.List()))
	}

	*now = now.Add(dedupWindow + time.Second)
	c.Emit(ctx, TypeUnassignedLeads, "2 leads could not be assigned", "", "")
	if len(c.List()) != 2 {
		t.Fatalf("expected re-emit after window, got %d entries", len(c.List()))
	}
}

func TestEmitDistinguishesAgents(t *testing.T) {
	c, _ := newCenter(t)
	ctx := context.Background()

	c.Emit(ctx, TypeLeadAssigned, "lead assigned", "lead-1", "agent-a")
	c.Emit(ctx, TypeLeadAssigned, "lead assigned", "lead-1", "agent-b")

	if len(c.List()) != 2 {
		t.Fatalf("expected per-agent notifications kept, got %d", len(c.List()))
	}
}

func TestFeedIsBoundedNewestFirst(t *testing.T) {
	c, _ := newCenter(t)
	ctx := context.Background()

	for i := 0; i < maxEntries+10; i++ {
		c.Emit(ctx, TypeLeadAssigned, fmt.Sprintf("message %d", i), "", "")
	}

	entries := c.List()
	if len(entries) != maxEntries {
		t.Fatalf("expected feed capped at %d, got %d", maxEntries, len(entries))
	}
	if entries[0].Message != fmt.Sprintf("message %d", maxEntries+9) {
		t.Fatalf("expected newest entry first, got %q", entries[0].Message)
	}
}

func TestMarkRead(t *testing.T) {
	c, _ := newCenter(t)
	ctx := context.Background()
	c.Emit(ctx, TypeLeadAssigned, "one", "", "")
	c.Emit(ctx, TypeLeadAssigned, "two", "", "")

	if c.UnreadCount() != 2 {
		t.Fatalf("expected 2 unread, got %d", c.UnreadCount())
	}

	if err := c.MarkRead(c.List()[0].ID); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}
	if c.UnreadCount() != 1 {
		t.Fatalf("expected 1 unread, got %d", c.UnreadCount())
	}

	if err := c.MarkRead(uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not-found for unknown id, got %v", err)
	}

	c.MarkAllRead()
	if c.UnreadCount() != 0 {
		t.Fatalf("expected 0 unread after mark all, got %d", c.UnreadCount())
	}
}

func TestOnEmitHookReceivesAcceptedEntries(t *testing.T) {
	c, _ := newCenter(t)
	ctx := context.Background()
	var received []Notification
	c.OnEmit(func(n Notification) { received = append(received, n) })

	c.Emit(ctx, TypeLeadAssigned, "one", "lead-1", "agent-a")
	c.Emit(ctx, TypeLeadAssigned, "one", "lead-1", "agent-a") // deduplicated

	if len(received) != 1 {
		t.Fatalf("expected hook called once, got %d", len(received))
	}
	if received[0].LeadID != "lead-1" {
		t.Fatalf("unexpected hook payload: %+v", received[0])
	}
}
