package domain

import "strings"

// LeadRecord is one externally sourced row. Records are immutable within a
// refresh cycle and replaced wholesale on every refresh, never mutated.
// Fields holds the scalar columns discovered dynamically from the source
// schema (name, email, phone, ...).
type LeadRecord struct {
	ID     string            `json:"id"`
	Source SourceCategory    `json:"source"`
	Fields map[string]string `json:"fields"`
}

// IsBlank reports whether the whole source row is empty. Blank rows are
// dropped before reconciliation.
func (r LeadRecord) IsBlank() bool {
	for _, v := range r.Fields {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// LeadOverlay is the locally owned, durable, mutable slice of a lead's
// state, keyed by lead id. Created lazily on first mutation, never deleted
// automatically, and survives source refreshes. Notes are append-only.
type LeadOverlay struct {
	Status           *Status  `json:"status,omitempty"`
	Notes            []string `json:"notes,omitempty"`
	AssignedAgent    string   `json:"assignedAgent,omitempty"`
	MeetingDate      string   `json:"meetingDate,omitempty"`
	MeetingTime      string   `json:"meetingTime,omitempty"`
	MeetingResult    string   `json:"meetingResult,omitempty"`
	PostMeetingNotes string   `json:"postMeetingNotes,omitempty"`
}

// Clone returns a deep copy; overlay maps handed across component
// boundaries must not alias the store's internal state.
func (o LeadOverlay) Clone() LeadOverlay {
	out := o
	if o.Status != nil {
		status := *o.Status
		out.Status = &status
	}
	if o.Notes != nil {
		out.Notes = make([]string, len(o.Notes))
		copy(out.Notes, o.Notes)
	}
	return out
}

// Lead is the canonical merged view of a source record and its overlay.
// This is the only representation assignment and statistics logic sees.
type Lead struct {
	ID               string            `json:"id"`
	Source           SourceCategory    `json:"source"`
	Status           Status            `json:"status"`
	AssignedAgent    string            `json:"assignedAgent,omitempty"`
	Notes            []string          `json:"notes,omitempty"`
	MeetingDate      string            `json:"meetingDate,omitempty"`
	MeetingTime      string            `json:"meetingTime,omitempty"`
	MeetingResult    string            `json:"meetingResult,omitempty"`
	PostMeetingNotes string            `json:"postMeetingNotes,omitempty"`
	Fields           map[string]string `json:"fields"`
}

// IsEligibleForAssignment reports whether a sweep may assign this lead:
// unassigned and not meeting-booked or terminal.
func (l Lead) IsEligibleForAssignment() bool {
	if l.AssignedAgent != "" {
		return false
	}
	return l.Status != StatusMeetingBooked && !l.Status.IsTerminal()
}
