// Package distribution assigns unassigned eligible leads to active
// agents with free capacity, lowest utilization first.
package distribution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"crm_dashboard_backend/internal/agents"
	"crm_dashboard_backend/internal/events"
	"crm_dashboard_backend/internal/leads/domain"
	leadsvc "crm_dashboard_backend/internal/leads/service"
	"crm_dashboard_backend/platform/logger"
)

// Emitter is the notification sink the scheduler reports to.
type Emitter interface {
	Emit(ctx context.Context, notificationType, message, leadID, agentID string)
}

// Result is the outcome of one sweep.
type Result struct {
	Distributed int `json:"distributed"`
	Remaining   int `json:"remaining"`
}

// Service runs distribution sweeps. At most one sweep is in flight at
// any time; a sweep requested while one is running is dropped, not
// queued.
type Service struct {
	leads    *leadsvc.Service
	registry *agents.Registry
	emitter  Emitter
	log      *logger.Logger

	settleDelay time.Duration

	mu       sync.Mutex
	sweeping bool
	pending  *time.Timer
	closed   bool
}

func NewService(leads *leadsvc.Service, registry *agents.Registry, emitter Emitter, settleDelay time.Duration, log *logger.Logger) *Service {
	if settleDelay <= 0 {
		settleDelay = 1500 * time.Millisecond
	}
	return &Service{
		leads:       leads,
		registry:    registry,
		emitter:     emitter,
		settleDelay: settleDelay,
		log:         log,
	}
}

// Start subscribes the scheduler to the events that warrant a sweep:
// the initial source load, agent pool changes, and capacity freed by a
// terminal status transition. Each schedules a settle-delayed sweep so
// rapid bursts coalesce into one.
func (s *Service) Start(bus events.Bus) {
	bus.Subscribe(events.SourceRefreshed{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		if e, ok := event.(events.SourceRefreshed); ok && e.InitialLoad {
			s.ScheduleSweep()
		}
		return nil
	}))
	bus.Subscribe(events.AgentPoolChanged{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		s.ScheduleSweep()
		return nil
	}))
	bus.Subscribe(events.LeadStatusChanged{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		if e, ok := event.(events.LeadStatusChanged); ok {
			if e.NewStatus.IsTerminal() && !e.OldStatus.IsTerminal() && e.AssignedAgent != "" {
				s.ScheduleSweep()
			}
		}
		return nil
	}))
}

// ScheduleSweep arms a sweep to run after the settle delay. A pending
// sweep is rescheduled rather than doubled, and Close cancels it.
func (s *Service) ScheduleSweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.pending != nil {
		s.pending.Stop()
	}
	s.pending = time.AfterFunc(s.settleDelay, func() {
		s.mu.Lock()
		closed := s.closed
		s.pending = nil
		s.mu.Unlock()
		if closed {
			return
		}
		s.DistributeUnassignedLeads(context.Background())
	})
}

// Close cancels any pending settle-delay timer. No sweep fires after
// Close returns.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

// DistributeUnassignedLeads runs one sweep and reports how many leads
// were assigned and how many eligible leads remain. If a sweep is
// already in flight the call is dropped and reports zero distributed
// with the current eligible count as remaining.
func (s *Service) DistributeUnassignedLeads(ctx context.Context) Result {
	if !s.markSweeping() {
		s.log.Debug("distribution sweep already in flight, skipping")
		return Result{Remaining: len(eligible(s.leads.Leads()))}
	}
	defer s.markComplete()

	// Reconcile cached counters before trusting any utilization ratio.
	s.leads.SyncAgentCounts(ctx)

	var result Result
	for _, lead := range eligible(s.leads.Leads()) {
		agent, ok := s.registry.GetAvailableAgentForAssignment()
		if !ok {
			break
		}
		if err := s.leads.AssignLead(ctx, lead.ID, agent); err != nil {
			// Contained per lead: it stays unassigned for a later sweep.
			s.log.AssignmentError(lead.ID, agent.ID.String(), err)
			continue
		}
		result.Distributed++
	}

	result.Remaining = len(eligible(s.leads.Leads()))
	if result.Remaining > 0 {
		s.emitter.Emit(ctx, "unassigned_leads",
			fmt.Sprintf("%d leads could not be assigned: all agents are at capacity", result.Remaining),
			"", "")
	}

	s.log.Info("distribution sweep complete",
		"distributed", result.Distributed,
		"remaining", result.Remaining,
	)
	return result
}

func (s *Service) markSweeping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sweeping || s.closed {
		return false
	}
	s.sweeping = true
	return true
}

func (s *Service) markComplete() {
	s.mu.Lock()
	s.sweeping = false
	s.mu.Unlock()
}

func eligible(leads []domain.Lead) []domain.Lead {
	out := make([]domain.Lead, 0, len(leads))
	for _, lead := range leads {
		if lead.IsEligibleForAssignment() {
			out = append(out, lead)
		}
	}
	return out
}
