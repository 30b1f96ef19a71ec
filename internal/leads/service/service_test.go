package service

import (
	"context"
	"sync"
	"testing"

	"crm_dashboard_backend/internal/agents"
	"crm_dashboard_backend/internal/events"
	"crm_dashboard_backend/internal/leads/domain"
	"crm_dashboard_backend/internal/leads/overlay"
	"crm_dashboard_backend/internal/leads/stats"
	"crm_dashboard_backend/internal/leads/watch"
	"crm_dashboard_backend/platform/apperr"
	"crm_dashboard_backend/platform/kvstore"
	"crm_dashboard_backend/platform/logger"
)

// recordingBus captures published events synchronously.
type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) byName(name string) []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []events.Event
	for _, e := range b.events {
		if e.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}

type stubFetcher struct {
	byCategory map[domain.SourceCategory][]domain.LeadRecord
}

func (f *stubFetcher) FetchAll(context.Context) map[domain.SourceCategory][]domain.LeadRecord {
	return f.byCategory
}

type fixture struct {
	svc      *Service
	registry *agents.Registry
	bus      *recordingBus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.New("development")
	bus := &recordingBus{}
	registry := agents.NewRegistry(context.Background(), kvstore.NewMemoryStore(), bus, log)
	overlays := overlay.NewStore(context.Background(), kvstore.NewMemoryStore(), log)
	notifier := watch.NewNotifier(log)
	svc := NewService(overlays, registry, &stubFetcher{}, notifier, bus, log)
	return &fixture{svc: svc, registry: registry, bus: bus}
}

func record(id string, fields map[string]string) domain.LeadRecord {
	if fields == nil {
		fields = map[string]string{"Name": "Lead " + id}
	}
	return domain.LeadRecord{ID: id, Source: domain.SourceWebsite, Fields: fields}
}

func (f *fixture) load(t *testing.T, ids ...string) {
	t.Helper()
	records := make([]domain.LeadRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, record(id, nil))
	}
	f.svc.ApplyRefresh(context.Background(), records)
}

func (f *fixture) addAgent(t *testing.T, email string, capacity int) agents.Agent {
	t.Helper()
	agent, err := f.registry.Add(context.Background(), agents.AddParams{Name: email, Email: email, MaxDailyLeads: capacity})
	if err != nil {
		t.Fatalf("add agent failed: %v", err)
	}
	return agent
}

func TestApplyRefreshMarksOnlyFirstLoadInitial(t *testing.T) {
	f := newFixture(t)

	f.load(t, "website-0")
	f.load(t, "website-0", "website-1")

	refreshes := f.bus.byName("leads.source.refreshed")
	if len(refreshes) != 2 {
		t.Fatalf("expected 2 refresh events, got %d", len(refreshes))
	}
	first := refreshes[0].(events.SourceRefreshed)
	second := refreshes[1].(events.SourceRefreshed)
	if !first.InitialLoad || second.InitialLoad {
		t.Fatalf("expected only the first refresh flagged initial: %v, %v", first.InitialLoad, second.InitialLoad)
	}
	if second.RecordCount != 2 {
		t.Fatalf("expected record count 2, got %d", second.RecordCount)
	}
}

func TestUpdateStatusTerminalFreesAgentCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	agent := f.addAgent(t, "a@x.com", 2)
	f.load(t, "website-0", "website-1")

	if err := f.svc.AssignLead(ctx, "website-0", agent); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	got, _ := f.registry.GetByID(agent.ID)
	if got.CurrentLeadsCount != 1 {
		t.Fatalf("expected count 1 after assignment, got %d", got.CurrentLeadsCount)
	}

	updated, err := f.svc.UpdateStatus(ctx, "website-0", "not interested")
	if err != nil {
		t.Fatalf("update status failed: %v", err)
	}
	if updated.Status != domain.StatusNotInterested {
		t.Fatalf("expected terminal status, got %s", updated.Status)
	}

	got, _ = f.registry.GetByID(agent.ID)
	if got.CurrentLeadsCount != 0 {
		t.Fatalf("expected capacity freed on terminal transition, got %d", got.CurrentLeadsCount)
	}

	if changes := f.bus.byName("leads.status.changed"); len(changes) != 1 {
		t.Fatalf("expected a status-changed event, got %d", len(changes))
	}
}

func TestUpdateStatusRejectsUnknownInput(t *testing.T) {
	f := newFixture(t)
	f.load(t, "website-0")

	if _, err := f.svc.UpdateStatus(context.Background(), "website-0", "bogus"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.svc.UpdateStatus(context.Background(), "missing", "new"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestAddNoteAppendsToCanonicalLead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.load(t, "website-0")

	if _, err := f.svc.AddNote(ctx, "website-0", "  "); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for blank note, got %v", err)
	}

	if _, err := f.svc.AddNote(ctx, "website-0", "called, no answer"); err != nil {
		t.Fatalf("add note failed: %v", err)
	}
	updated, err := f.svc.AddNote(ctx, "website-0", "follow up friday")
	if err != nil {
		t.Fatalf("add note failed: %v", err)
	}

	if len(updated.Notes) != 2 || updated.Notes[0] != "called, no answer" {
		t.Fatalf("expected append-only notes, got %v", updated.Notes)
	}
}

func TestSetMeetingDetailsCoercesDateAndTime(t *testing.T) {
	f := newFixture(t)
	f.load(t, "website-0")

	updated, err := f.svc.SetMeetingDetails(context.Background(), "website-0", overlay.MeetingDetails{
		Date: "2026-09-03T14:00:00Z",
		Time: "14:00:00",
	})
	if err != nil {
		t.Fatalf("set meeting failed: %v", err)
	}
	if updated.MeetingDate != "2026-09-03" || updated.MeetingTime != "14:00" {
		t.Fatalf("expected coerced meeting date/time, got %q %q", updated.MeetingDate, updated.MeetingTime)
	}
}

func TestGetLeadsBySourceClassifiesRawInput(t *testing.T) {
	f := newFixture(t)
	f.svc.ApplyRefresh(context.Background(), []domain.LeadRecord{
		{ID: "website-0", Source: domain.SourceWebsite, Fields: map[string]string{"Name": "W"}},
		{ID: "facebook-0", Source: domain.SourceFacebook, Fields: map[string]string{"Name": "F"}},
	})

	got := f.svc.GetLeadsBySource("FB Ads")
	if len(got) != 1 || got[0].ID != "facebook-0" {
		t.Fatalf("expected facebook lead, got %v", got)
	}
}

func TestGetAllLeadsAppliesRoleVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	agentA := f.addAgent(t, "a@x.com", 5)
	agentB := f.addAgent(t, "b@x.com", 5)
	f.load(t, "website-0", "website-1", "website-2")
	if err := f.svc.AssignLead(ctx, "website-0", agentA); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if err := f.svc.AssignLead(ctx, "website-1", agentB); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	admin := f.svc.GetAllLeads(stats.Viewer{Admin: true})
	if len(admin) != 3 {
		t.Fatalf("expected admin to see all 3 leads, got %d", len(admin))
	}

	agentView := f.svc.GetAllLeads(stats.Viewer{Identifiers: []string{"a@x.com"}})
	if len(agentView) != 2 {
		t.Fatalf("expected agent to see own + unassigned, got %d", len(agentView))
	}
}

func TestGetDistributionStatsReconcilesCachedCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	agent := f.addAgent(t, "a@x.com", 4)
	f.load(t, "website-0", "website-1")
	if err := f.svc.AssignLead(ctx, "website-0", agent); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	// Drift the cached counter out-of-band.
	f.registry.IncrementLeadCount(ctx, agent.ID)
	f.registry.IncrementLeadCount(ctx, agent.ID)

	d := f.svc.GetDistributionStats(ctx)
	if d.UsedCapacity != 1 {
		t.Fatalf("expected recomputed used capacity 1, got %d", d.UsedCapacity)
	}

	got, _ := f.registry.GetByID(agent.ID)
	if got.CurrentLeadsCount != 1 {
		t.Fatalf("expected cached counter reconciled to 1, got %d", got.CurrentLeadsCount)
	}
}

func TestSubscribeSeesEveryRecomputation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.load(t, "website-0")

	var mu sync.Mutex
	var lastStatus domain.Status
	calls := 0
	defer f.svc.Subscribe(func(leads []domain.Lead) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if len(leads) > 0 {
			lastStatus = leads[0].Status
		}
	})()

	if _, err := f.svc.UpdateStatus(ctx, "website-0", "qualified"); err != nil {
		t.Fatalf("update status failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Fatalf("expected replay + 1 notification, got %d", calls)
	}
	if lastStatus != domain.StatusQualified {
		t.Fatalf("expected listener to see the new status, got %s", lastStatus)
	}
}
