// Package overlay persists the mutable, locally owned slice of each lead.
// The store is the only component permitted to mutate overlay entries.
// Entries are created lazily on first mutation, never deleted automatically,
// and survive source refreshes. Writes to the same lead id are last-writer-
// wins; the whole map is saved to the durable key-value store after every
// mutation.
package overlay

import (
	"context"
	"sync"

	"crm_dashboard_backend/internal/leads/domain"
	"crm_dashboard_backend/platform/apperr"
	"crm_dashboard_backend/platform/kvstore"
	"crm_dashboard_backend/platform/logger"
)

const storeKey = "leads:overlays"

const opSave = "overlay.store.save"

// MeetingDetails carries the meeting slice of an overlay. Date and time are
// normalized to canonical date-only / time-only strings before storage.
type MeetingDetails struct {
	Date             string
	Time             string
	Result           string
	PostMeetingNotes string
}

// Store holds the overlay map in memory and mirrors it into the durable
// key-value store after every mutation.
type Store struct {
	mu       sync.RWMutex
	kv       kvstore.Store
	log      *logger.Logger
	overlays map[string]domain.LeadOverlay
}

// NewStore loads the overlay map from the durable store. A load failure
// falls back to an empty map rather than erroring.
func NewStore(ctx context.Context, kv kvstore.Store, log *logger.Logger) *Store {
	s := &Store{
		kv:       kv,
		log:      log,
		overlays: make(map[string]domain.LeadOverlay),
	}

	loaded := make(map[string]domain.LeadOverlay)
	ok, err := kvstore.LoadJSON(ctx, kv, storeKey, &loaded)
	if err != nil {
		log.PersistenceError("overlay.store.load", storeKey, err)
		return s
	}
	if ok {
		s.overlays = loaded
	}
	return s
}

// Get returns the overlay for a lead id, if one exists.
func (s *Store) Get(id string) (domain.LeadOverlay, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.overlays[id]
	if !ok {
		return domain.LeadOverlay{}, false
	}
	return o.Clone(), true
}

// Snapshot returns a deep copy of the full overlay map for reconciliation.
func (s *Store) Snapshot() map[string]domain.LeadOverlay {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.LeadOverlay, len(s.overlays))
	for id, o := range s.overlays {
		out[id] = o.Clone()
	}
	return out
}

// SetStatus records a status on the lead's overlay.
func (s *Store) SetStatus(ctx context.Context, id string, status domain.Status) error {
	return s.mutate(ctx, id, func(o *domain.LeadOverlay) {
		o.Status = &status
	})
}

// SetAssignedAgent records the owning agent. An empty value clears the
// assignment.
func (s *Store) SetAssignedAgent(ctx context.Context, id, agent string) error {
	return s.mutate(ctx, id, func(o *domain.LeadOverlay) {
		o.AssignedAgent = agent
	})
}

// AppendNote appends to the lead's note list. Notes are append-only.
func (s *Store) AppendNote(ctx context.Context, id, note string) error {
	return s.mutate(ctx, id, func(o *domain.LeadOverlay) {
		o.Notes = append(o.Notes, note)
	})
}

// SetMeetingDetails records meeting data, coercing date and time into their
// canonical formats. Empty fields leave the stored values untouched.
func (s *Store) SetMeetingDetails(ctx context.Context, id string, details MeetingDetails) error {
	return s.mutate(ctx, id, func(o *domain.LeadOverlay) {
		if details.Date != "" {
			o.MeetingDate = domain.NormalizeMeetingDate(details.Date)
		}
		if details.Time != "" {
			o.MeetingTime = domain.NormalizeMeetingTime(details.Time)
		}
		if details.Result != "" {
			o.MeetingResult = details.Result
		}
		if details.PostMeetingNotes != "" {
			o.PostMeetingNotes = details.PostMeetingNotes
		}
	})
}

// mutate applies fn to the lead's overlay, creating it lazily, then saves
// the map. The in-memory mutation always sticks; a failed save is logged
// and surfaced as a persistence error so callers can flag data-loss risk.
func (s *Store) mutate(ctx context.Context, id string, fn func(*domain.LeadOverlay)) error {
	s.mu.Lock()
	o := s.overlays[id]
	fn(&o)
	s.overlays[id] = o

	snapshot := make(map[string]domain.LeadOverlay, len(s.overlays))
	for k, v := range s.overlays {
		snapshot[k] = v
	}
	s.mu.Unlock()

	if err := kvstore.SaveJSON(ctx, s.kv, storeKey, snapshot); err != nil {
		s.log.PersistenceError(opSave, storeKey, err)
		return apperr.Persistence("overlay save failed", err).WithOp(opSave)
	}
	return nil
}
