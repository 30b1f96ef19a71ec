package agents

import (
	"context"
	"strings"
	"sync"
	"time"

	"crm_dashboard_backend/internal/events"
	"crm_dashboard_backend/platform/apperr"
	"crm_dashboard_backend/platform/kvstore"
	"crm_dashboard_backend/platform/logger"

	"github.com/google/uuid"
)

const registryKey = "agents:registry"

const (
	opAdd         = "agents.registry.add"
	opUpdate      = "agents.registry.update"
	opDelete      = "agents.registry.delete"
	opSetStatus   = "agents.registry.set_status"
	opSetCapacity = "agents.registry.set_capacity"
	opSave        = "agents.registry.save"
)

// Registry keeps agents in registration order (first registered first);
// availability ties are broken by that order. The full list is mirrored
// into the durable key-value store after every mutation.
type Registry struct {
	mu     sync.RWMutex
	kv     kvstore.Store
	bus    events.Bus
	log    *logger.Logger
	agents []Agent
}

// NewRegistry loads the registry from the durable store. A load failure
// falls back to an empty registry rather than erroring.
func NewRegistry(ctx context.Context, kv kvstore.Store, bus events.Bus, log *logger.Logger) *Registry {
	r := &Registry{kv: kv, bus: bus, log: log}

	var loaded []Agent
	ok, err := kvstore.LoadJSON(ctx, kv, registryKey, &loaded)
	if err != nil {
		log.PersistenceError("agents.registry.load", registryKey, err)
		return r
	}
	if ok {
		r.agents = loaded
	}
	return r
}

// AddParams carries the administrator-provided agent fields.
type AddParams struct {
	Name          string
	Email         string
	Role          string
	MaxDailyLeads int
}

// Add registers a new agent. Emails must be unique (case-insensitive).
func (r *Registry) Add(ctx context.Context, p AddParams) (Agent, error) {
	email := strings.TrimSpace(p.Email)
	if p.Name == "" || email == "" {
		return Agent{}, apperr.Validation("name and email are required").WithOp(opAdd)
	}

	role := p.Role
	if role != RoleAdmin {
		role = RoleAgent
	}
	capacity := p.MaxDailyLeads
	if capacity <= 0 {
		capacity = 10
	}

	r.mu.Lock()
	if r.findByEmailLocked(email) != nil {
		r.mu.Unlock()
		return Agent{}, apperr.Conflict("an agent with this email already exists").WithOp(opAdd)
	}

	agent := Agent{
		ID:            uuid.New(),
		Name:          p.Name,
		Email:         email,
		Role:          role,
		Status:        StatusActive,
		MaxDailyLeads: capacity,
		CreatedAt:     time.Now(),
	}
	r.agents = append(r.agents, agent)
	active := r.activeCountLocked()
	r.mu.Unlock()

	r.persist(ctx, opAdd)
	r.publishPoolChanged(ctx, active)
	return agent, nil
}

// UpdateParams carries optional agent field updates.
type UpdateParams struct {
	Name          *string
	Email         *string
	Role          *string
	MaxDailyLeads *int
}

// Update edits an existing agent. Updating an unknown id is a not-found
// error at the HTTP boundary but never a crash.
func (r *Registry) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (Agent, error) {
	r.mu.Lock()
	agent := r.findByIDLocked(id)
	if agent == nil {
		r.mu.Unlock()
		return Agent{}, apperr.NotFound("agent not found").WithOp(opUpdate)
	}

	if p.Email != nil {
		email := strings.TrimSpace(*p.Email)
		if existing := r.findByEmailLocked(email); existing != nil && existing.ID != id {
			r.mu.Unlock()
			return Agent{}, apperr.Conflict("an agent with this email already exists").WithOp(opUpdate)
		}
		agent.Email = email
	}
	if p.Name != nil {
		agent.Name = *p.Name
	}
	if p.Role != nil {
		if *p.Role == RoleAdmin {
			agent.Role = RoleAdmin
		} else {
			agent.Role = RoleAgent
		}
	}
	if p.MaxDailyLeads != nil && *p.MaxDailyLeads > 0 {
		agent.MaxDailyLeads = *p.MaxDailyLeads
	}
	updated := *agent
	r.mu.Unlock()

	r.persist(ctx, opUpdate)
	return updated, nil
}

// Delete removes an agent from the registry. Deleting an unknown id is a
// no-op reported as not found.
func (r *Registry) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	idx := -1
	for i := range r.agents {
		if r.agents[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		return apperr.NotFound("agent not found").WithOp(opDelete)
	}
	wasActive := r.agents[idx].IsActive()
	r.agents = append(r.agents[:idx], r.agents[idx+1:]...)
	active := r.activeCountLocked()
	r.mu.Unlock()

	r.persist(ctx, opDelete)
	if wasActive {
		r.publishPoolChanged(ctx, active)
	}
	return nil
}

// SetStatus activates or deactivates an agent.
func (r *Registry) SetStatus(ctx context.Context, id uuid.UUID, active bool) error {
	status := StatusInactive
	if active {
		status = StatusActive
	}

	r.mu.Lock()
	agent := r.findByIDLocked(id)
	if agent == nil {
		r.mu.Unlock()
		return apperr.NotFound("agent not found").WithOp(opSetStatus)
	}
	changed := agent.Status != status
	agent.Status = status
	activeCount := r.activeCountLocked()
	r.mu.Unlock()

	if !changed {
		return nil
	}
	r.persist(ctx, opSetStatus)
	r.publishPoolChanged(ctx, activeCount)
	return nil
}

// SetCapacity updates an agent's daily lead capacity.
func (r *Registry) SetCapacity(ctx context.Context, id uuid.UUID, maxDailyLeads int) error {
	if maxDailyLeads < 1 {
		return apperr.Validation("maxDailyLeads must be at least 1").WithOp(opSetCapacity)
	}

	r.mu.Lock()
	agent := r.findByIDLocked(id)
	if agent == nil {
		r.mu.Unlock()
		return apperr.NotFound("agent not found").WithOp(opSetCapacity)
	}
	agent.MaxDailyLeads = maxDailyLeads
	r.mu.Unlock()

	r.persist(ctx, opSetCapacity)
	return nil
}

// IncrementLeadCount bumps the cached assigned-lead counter.
// Incrementing an unknown id is a no-op.
func (r *Registry) IncrementLeadCount(ctx context.Context, id uuid.UUID) {
	r.adjustCount(ctx, id, +1)
}

// DecrementLeadCount lowers the cached counter, floored at zero.
// Decrementing an unknown id is a no-op.
func (r *Registry) DecrementLeadCount(ctx context.Context, id uuid.UUID) {
	r.adjustCount(ctx, id, -1)
}

func (r *Registry) adjustCount(ctx context.Context, id uuid.UUID, delta int) {
	r.mu.Lock()
	agent := r.findByIDLocked(id)
	if agent == nil {
		r.mu.Unlock()
		return
	}
	agent.CurrentLeadsCount += delta
	if agent.CurrentLeadsCount < 0 {
		agent.CurrentLeadsCount = 0
	}
	r.mu.Unlock()

	r.persist(ctx, opSave)
}

// SyncAssignedCounts replaces every cached counter with the authoritative
// count recomputed from the canonical lead list (keyed by lowercase agent
// email). Agents absent from the map are reset to zero. This is the
// capacity-drift reconciliation every sweep and stats snapshot runs first.
func (r *Registry) SyncAssignedCounts(ctx context.Context, byEmail map[string]int) {
	r.mu.Lock()
	changed := false
	for i := range r.agents {
		authoritative := byEmail[strings.ToLower(r.agents[i].Email)]
		if r.agents[i].CurrentLeadsCount != authoritative {
			r.agents[i].CurrentLeadsCount = authoritative
			changed = true
		}
	}
	r.mu.Unlock()

	if changed {
		r.persist(ctx, opSave)
	}
}

// List returns all agents in registration order.
func (r *Registry) List() []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Agent(nil), r.agents...)
}

// GetActiveAgents returns the active agents in registration order.
func (r *Registry) GetActiveAgents() []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Agent, 0, len(r.agents))
	for _, a := range r.agents {
		if a.IsActive() {
			out = append(out, a)
		}
	}
	return out
}

// GetByID returns an agent by id.
func (r *Registry) GetByID(id uuid.UUID) (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if a := r.findByIDLocked(id); a != nil {
		return *a, true
	}
	return Agent{}, false
}

// GetByEmail returns an agent by email, case-insensitively.
func (r *Registry) GetByEmail(email string) (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if a := r.findByEmailLocked(email); a != nil {
		return *a, true
	}
	return Agent{}, false
}

// Stats are the aggregate registry totals.
type Stats struct {
	TotalAgents   int `json:"totalAgents"`
	ActiveAgents  int `json:"activeAgents"`
	TotalCapacity int `json:"totalCapacity"`
	AssignedLeads int `json:"assignedLeads"`
}

// GetStats returns aggregate totals over the registry. Capacity totals
// cover active agents only.
func (r *Registry) GetStats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{TotalAgents: len(r.agents)}
	for _, a := range r.agents {
		if !a.IsActive() {
			continue
		}
		stats.ActiveAgents++
		stats.TotalCapacity += a.MaxDailyLeads
		stats.AssignedLeads += a.CurrentLeadsCount
	}
	return stats
}

// GetAvailableAgentForAssignment returns the active agent with spare
// capacity and the lowest utilization ratio, ties broken by registration
// order. Returns false when no agent qualifies.
func (r *Registry) GetAvailableAgentForAssignment() (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *Agent
	for i := range r.agents {
		a := &r.agents[i]
		if !a.IsActive() || !a.HasCapacity() {
			continue
		}
		if best == nil || a.Utilization() < best.Utilization() {
			best = a
		}
	}
	if best == nil {
		return Agent{}, false
	}
	return *best, true
}

func (r *Registry) findByIDLocked(id uuid.UUID) *Agent {
	for i := range r.agents {
		if r.agents[i].ID == id {
			return &r.agents[i]
		}
	}
	return nil
}

func (r *Registry) findByEmailLocked(email string) *Agent {
	for i := range r.agents {
		if strings.EqualFold(r.agents[i].Email, email) {
			return &r.agents[i]
		}
	}
	return nil
}

func (r *Registry) activeCountLocked() int {
	count := 0
	for _, a := range r.agents {
		if a.IsActive() {
			count++
		}
	}
	return count
}

func (r *Registry) persist(ctx context.Context, op string) {
	r.mu.RLock()
	snapshot := append([]Agent(nil), r.agents...)
	r.mu.RUnlock()

	if err := kvstore.SaveJSON(ctx, r.kv, registryKey, snapshot); err != nil {
		// In-memory state stays authoritative for this session.
		r.log.PersistenceError(op, registryKey, err)
	}
}

func (r *Registry) publishPoolChanged(ctx context.Context, activeAgents int) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(ctx, events.AgentPoolChanged{
		BaseEvent:    events.NewBaseEvent(),
		ActiveAgents: activeAgents,
	})
}
