// Package service is the engine facade over the lead modules: it owns
// the current source records, recomputes canonical leads after every
// mutation, and fans changes out to watchers and the event bus.
package service

import (
	"context"
	"strings"
	"sync"

	"crm_dashboard_backend/internal/agents"
	"crm_dashboard_backend/internal/events"
	"crm_dashboard_backend/internal/leads/domain"
	"crm_dashboard_backend/internal/leads/overlay"
	"crm_dashboard_backend/internal/leads/reconcile"
	"crm_dashboard_backend/internal/leads/source"
	"crm_dashboard_backend/internal/leads/stats"
	"crm_dashboard_backend/internal/leads/watch"
	"crm_dashboard_backend/platform/apperr"
	"crm_dashboard_backend/platform/logger"
)

// Fetcher is the slice of the source client the service depends on.
type Fetcher interface {
	FetchAll(ctx context.Context) map[domain.SourceCategory][]domain.LeadRecord
}

// Service coordinates source records, overlays and the agent registry
// into canonical leads.
type Service struct {
	mu        sync.RWMutex
	records   []domain.LeadRecord
	canonical []domain.Lead
	loaded    bool

	overlays *overlay.Store
	registry *agents.Registry
	fetcher  Fetcher
	notifier *watch.Notifier
	bus      events.Bus
	log      *logger.Logger
}

func NewService(overlays *overlay.Store, registry *agents.Registry, fetcher Fetcher, notifier *watch.Notifier, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		overlays: overlays,
		registry: registry,
		fetcher:  fetcher,
		notifier: notifier,
		bus:      bus,
		log:      log,
	}
}

// RefreshFromSource pulls every source category and applies the result.
// Per-category failures have already been contained to empty lists by
// the fetcher, so a refresh never fails outright.
func (s *Service) RefreshFromSource(ctx context.Context) int {
	records := source.Flatten(s.fetcher.FetchAll(ctx))
	s.ApplyRefresh(ctx, records)
	return len(records)
}

// ApplyRefresh replaces the current source records, recomputes the
// canonical lead list and announces the refresh.
func (s *Service) ApplyRefresh(ctx context.Context, records []domain.LeadRecord) {
	s.mu.Lock()
	initial := !s.loaded
	s.loaded = true
	s.records = records
	s.mu.Unlock()

	s.recompute()

	s.bus.Publish(ctx, events.SourceRefreshed{
		BaseEvent:   events.NewBaseEvent(),
		RecordCount: len(records),
		InitialLoad: initial,
	})
}

// recompute merges records with the overlay snapshot and notifies
// watchers of the new canonical list.
func (s *Service) recompute() {
	s.mu.Lock()
	s.canonical = reconcile.Merge(s.records, s.overlays.Snapshot())
	leads := s.canonical
	s.mu.Unlock()

	s.notifier.Notify(leads)
}

// Leads returns a copy of the current canonical lead list.
func (s *Service) Leads() []domain.Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Lead, len(s.canonical))
	copy(out, s.canonical)
	return out
}

// GetAllLeads returns the canonical leads visible to the caller.
func (s *Service) GetAllLeads(viewer stats.Viewer) []domain.Lead {
	return stats.FilterVisible(s.Leads(), viewer)
}

// GetLeadsBySource returns the leads of one source category. The raw
// source string is classified the same way source records are, so
// "FB Ads" and "facebook" land on the same category.
func (s *Service) GetLeadsBySource(rawSource string) []domain.Lead {
	category := domain.ClassifySource(rawSource)
	all := s.Leads()
	matched := make([]domain.Lead, 0, len(all))
	for _, lead := range all {
		if lead.Source == category {
			matched = append(matched, lead)
		}
	}
	return matched
}

// GetLead returns one canonical lead by id.
func (s *Service) GetLead(id string) (domain.Lead, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, lead := range s.canonical {
		if lead.ID == id {
			return lead, true
		}
	}
	return domain.Lead{}, false
}

// UpdateStatus sets a lead's status. A transition into a terminal
// status frees the owning agent's capacity immediately.
func (s *Service) UpdateStatus(ctx context.Context, leadID, rawStatus string) (domain.Lead, error) {
	status, ok := domain.ParseStatus(rawStatus)
	if !ok {
		return domain.Lead{}, apperr.Validation("unknown lead status: " + rawStatus)
	}

	lead, ok := s.GetLead(leadID)
	if !ok {
		return domain.Lead{}, apperr.NotFound("lead not found: " + leadID)
	}

	if err := s.fatal(s.overlays.SetStatus(ctx, leadID, status)); err != nil {
		return domain.Lead{}, err
	}

	if status.IsTerminal() && !lead.Status.IsTerminal() && lead.AssignedAgent != "" {
		if agent, found := s.registry.GetByEmail(lead.AssignedAgent); found {
			s.registry.DecrementLeadCount(ctx, agent.ID)
		}
	}

	s.recompute()

	s.bus.Publish(ctx, events.LeadStatusChanged{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        leadID,
		OldStatus:     lead.Status,
		NewStatus:     status,
		AssignedAgent: lead.AssignedAgent,
	})

	updated, _ := s.GetLead(leadID)
	return updated, nil
}

// SetMeetingDetails stores meeting data on a lead's overlay. Date and
// time are coerced to canonical formats, never rejected.
func (s *Service) SetMeetingDetails(ctx context.Context, leadID string, details overlay.MeetingDetails) (domain.Lead, error) {
	if _, ok := s.GetLead(leadID); !ok {
		return domain.Lead{}, apperr.NotFound("lead not found: " + leadID)
	}

	if err := s.fatal(s.overlays.SetMeetingDetails(ctx, leadID, details)); err != nil {
		return domain.Lead{}, err
	}

	s.recompute()
	s.publishOverlayChanged(ctx, leadID, "meeting")

	updated, _ := s.GetLead(leadID)
	return updated, nil
}

// AddNote appends a note to a lead's overlay. Notes are append-only.
func (s *Service) AddNote(ctx context.Context, leadID, text string) (domain.Lead, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Lead{}, apperr.Validation("note text is required")
	}
	if _, ok := s.GetLead(leadID); !ok {
		return domain.Lead{}, apperr.NotFound("lead not found: " + leadID)
	}

	if err := s.fatal(s.overlays.AppendNote(ctx, leadID, strings.TrimSpace(text))); err != nil {
		return domain.Lead{}, err
	}

	s.recompute()
	s.publishOverlayChanged(ctx, leadID, "note")

	updated, _ := s.GetLead(leadID)
	return updated, nil
}

// AssignLead writes an assignment into the overlay and bumps the
// agent's cached counter. Used by the distribution scheduler.
func (s *Service) AssignLead(ctx context.Context, leadID string, agent agents.Agent) error {
	if _, ok := s.GetLead(leadID); !ok {
		return apperr.NotFound("lead not found: " + leadID)
	}

	if err := s.fatal(s.overlays.SetAssignedAgent(ctx, leadID, agent.Email)); err != nil {
		return err
	}
	s.registry.IncrementLeadCount(ctx, agent.ID)

	s.recompute()

	s.bus.Publish(ctx, events.LeadAssigned{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     leadID,
		AgentID:    agent.ID,
		AgentEmail: agent.Email,
		AgentName:  agent.Name,
	})
	return nil
}

// GetStats computes the status/source breakdown over the leads visible
// to the caller.
func (s *Service) GetStats(viewer stats.Viewer) stats.LeadStats {
	return stats.Compute(s.GetAllLeads(viewer))
}

// GetDistributionStats computes the capacity picture from recomputed
// assignment counts, reconciling the registry's cached counters along
// the way.
func (s *Service) GetDistributionStats(ctx context.Context) stats.DistributionStats {
	leads := s.Leads()
	s.registry.SyncAssignedCounts(ctx, stats.AssignedCountsByEmail(leads))
	return stats.ComputeDistribution(leads, s.registry.GetActiveAgents())
}

// SyncAgentCounts reconciles the registry's cached per-agent counters
// against the canonical lead list.
func (s *Service) SyncAgentCounts(ctx context.Context) {
	s.registry.SyncAssignedCounts(ctx, stats.AssignedCountsByEmail(s.Leads()))
}

// Subscribe registers a canonical-lead listener. The listener fires
// immediately with the current list, then on every recomputation.
func (s *Service) Subscribe(listener watch.Listener) func() {
	return s.notifier.Subscribe(listener)
}

func (s *Service) publishOverlayChanged(ctx context.Context, leadID, field string) {
	s.bus.Publish(ctx, events.OverlayChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		Field:     field,
	})
}

// fatal filters mutation errors: persistence failures are already
// logged by the overlay store and the write sticks in memory, so the
// operation proceeds. Anything else stops it.
func (s *Service) fatal(err error) error {
	if err == nil || apperr.Is(err, apperr.KindPersistence) {
		return nil
	}
	return err
}
