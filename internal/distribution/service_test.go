package distribution

import (
	"context"
	"sync"
	"testing"
	"time"

	"crm_dashboard_backend/internal/agents"
	"crm_dashboard_backend/internal/events"
	"crm_dashboard_backend/internal/leads/domain"
	"crm_dashboard_backend/internal/leads/overlay"
	leadsvc "crm_dashboard_backend/internal/leads/service"
	"crm_dashboard_backend/internal/leads/watch"
	"crm_dashboard_backend/platform/kvstore"
	"crm_dashboard_backend/platform/logger"
)

type noopBus struct{}

func (noopBus) Publish(context.Context, events.Event)          {}
func (noopBus) PublishSync(context.Context, events.Event) error { return nil }
func (noopBus) Subscribe(string, events.Handler)                {}

type sinkCall struct {
	Type    string
	Message string
	LeadID  string
	AgentID string
}

type recordingSink struct {
	mu    sync.Mutex
	calls []sinkCall
}

func (r *recordingSink) Emit(_ context.Context, notificationType, message, leadID, agentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, sinkCall{notificationType, message, leadID, agentID})
}

func (r *recordingSink) byType(name string) []sinkCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sinkCall
	for _, c := range r.calls {
		if c.Type == name {
			out = append(out, c)
		}
	}
	return out
}

type fixture struct {
	dist     *Service
	leads    *leadsvc.Service
	registry *agents.Registry
	sink     *recordingSink
}

func newFixture(t *testing.T, settleDelay time.Duration) *fixture {
	t.Helper()
	log := logger.New("development")
	bus := noopBus{}
	registry := agents.NewRegistry(context.Background(), kvstore.NewMemoryStore(), bus, log)
	overlays := overlay.NewStore(context.Background(), kvstore.NewMemoryStore(), log)
	leads := leadsvc.NewService(overlays, registry, nil, watch.NewNotifier(log), bus, log)
	sink := &recordingSink{}
	dist := NewService(leads, registry, sink, settleDelay, log)
	t.Cleanup(dist.Close)
	return &fixture{dist: dist, leads: leads, registry: registry, sink: sink}
}

func (f *fixture) load(t *testing.T, n int) {
	t.Helper()
	records := make([]domain.LeadRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, domain.LeadRecord{
			ID:     "website-" + string(rune('a'+i)),
			Source: domain.SourceWebsite,
			Fields: map[string]string{"Name": "Lead"},
		})
	}
	f.leads.ApplyRefresh(context.Background(), records)
}

func (f *fixture) addAgent(t *testing.T, email string, capacity int) agents.Agent {
	t.Helper()
	agent, err := f.registry.Add(context.Background(), agents.AddParams{Name: email, Email: email, MaxDailyLeads: capacity})
	if err != nil {
		t.Fatalf("add agent failed: %v", err)
	}
	return agent
}

func assignedCount(leads []domain.Lead, email string) int {
	n := 0
	for _, l := range leads {
		if l.AssignedAgent == email && !l.Status.IsTerminal() {
			n++
		}
	}
	return n
}

func TestSweepFillsLowestUtilizationFirst(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.addAgent(t, "a@x.com", 2)
	f.addAgent(t, "b@x.com", 1)
	f.load(t, 3)

	result := f.dist.DistributeUnassignedLeads(context.Background())

	if result.Distributed != 3 || result.Remaining != 0 {
		t.Fatalf("expected all 3 distributed, got %+v", result)
	}
	leads := f.leads.Leads()
	if got := assignedCount(leads, "a@x.com"); got != 2 {
		t.Fatalf("expected agent A filled to 2, got %d", got)
	}
	if got := assignedCount(leads, "b@x.com"); got != 1 {
		t.Fatalf("expected agent B filled to 1, got %d", got)
	}
	if len(f.sink.byType("unassigned_leads")) != 0 {
		t.Fatalf("no unassigned-leads notification expected when everything fits")
	}
}

func TestSweepReportsRemainingWhenPoolIsFull(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()
	agent := f.addAgent(t, "a@x.com", 1)
	f.load(t, 2)
	if err := f.leads.AssignLead(ctx, f.leads.Leads()[0].ID, agent); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	result := f.dist.DistributeUnassignedLeads(ctx)

	if result.Distributed != 0 || result.Remaining != 1 {
		t.Fatalf("expected {0 distributed, 1 remaining}, got %+v", result)
	}
	if len(f.sink.byType("unassigned_leads")) != 1 {
		t.Fatalf("expected one unassigned-leads notification")
	}
}

func TestTerminalStatusFreesCapacityForNextSweep(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()
	f.addAgent(t, "a@x.com", 1)
	f.load(t, 2)

	first := f.dist.DistributeUnassignedLeads(ctx)
	if first.Distributed != 1 || first.Remaining != 1 {
		t.Fatalf("unexpected first sweep: %+v", first)
	}

	var assignedID string
	for _, l := range f.leads.Leads() {
		if l.AssignedAgent != "" {
			assignedID = l.ID
		}
	}
	if _, err := f.leads.UpdateStatus(ctx, assignedID, "not interested"); err != nil {
		t.Fatalf("update status failed: %v", err)
	}

	second := f.dist.DistributeUnassignedLeads(ctx)
	if second.Distributed != 1 || second.Remaining != 0 {
		t.Fatalf("expected freed capacity to absorb the other lead, got %+v", second)
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.addAgent(t, "a@x.com", 5)
	f.load(t, 2)

	first := f.dist.DistributeUnassignedLeads(context.Background())
	second := f.dist.DistributeUnassignedLeads(context.Background())

	if first.Distributed != 2 {
		t.Fatalf("expected first sweep to distribute 2, got %+v", first)
	}
	if second.Distributed != 0 || second.Remaining != 0 {
		t.Fatalf("expected second sweep to be a no-op, got %+v", second)
	}
}

func TestSweepRespectsCapacityBound(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.addAgent(t, "a@x.com", 2)
	f.load(t, 10)

	f.dist.DistributeUnassignedLeads(context.Background())

	if got := assignedCount(f.leads.Leads(), "a@x.com"); got != 2 {
		t.Fatalf("expected assignments capped at capacity 2, got %d", got)
	}
}

func TestSweepReconcilesDriftedCountersFirst(t *testing.T) {
	f := newFixture(t, time.Hour)
	agent := f.addAgent(t, "a@x.com", 2)
	f.load(t, 2)

	// Drift the cache to look full; the sweep must recompute and
	// still assign.
	f.registry.IncrementLeadCount(context.Background(), agent.ID)
	f.registry.IncrementLeadCount(context.Background(), agent.ID)

	result := f.dist.DistributeUnassignedLeads(context.Background())
	if result.Distributed != 2 {
		t.Fatalf("expected drifted counters reconciled before sweeping, got %+v", result)
	}
}

func TestOnlyOneSweepInFlight(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.addAgent(t, "a@x.com", 5)
	f.load(t, 3)

	if !f.dist.markSweeping() {
		t.Fatalf("expected to acquire the sweep guard")
	}
	result := f.dist.DistributeUnassignedLeads(context.Background())
	if result.Distributed != 0 || result.Remaining != 3 {
		t.Fatalf("expected dropped call to report {0 distributed, 3 remaining}, got %+v", result)
	}
	f.dist.markComplete()

	result = f.dist.DistributeUnassignedLeads(context.Background())
	if result.Distributed != 3 {
		t.Fatalf("expected sweep to run after guard release, got %+v", result)
	}
}

func TestScheduledSweepFiresAfterSettleDelay(t *testing.T) {
	f := newFixture(t, 10*time.Millisecond)
	f.addAgent(t, "a@x.com", 5)
	f.load(t, 1)

	f.dist.ScheduleSweep()

	deadline := time.After(2 * time.Second)
	for {
		if assignedCount(f.leads.Leads(), "a@x.com") == 1 {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("scheduled sweep never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestCloseCancelsPendingSweep(t *testing.T) {
	f := newFixture(t, 20*time.Millisecond)
	f.addAgent(t, "a@x.com", 5)
	f.load(t, 1)

	f.dist.ScheduleSweep()
	f.dist.Close()

	time.Sleep(60 * time.Millisecond)
	if got := assignedCount(f.leads.Leads(), "a@x.com"); got != 0 {
		t.Fatalf("expected no assignment after Close, got %d", got)
	}
}
