// Package domain holds the canonical lead model shared by the engine:
// source records, overlays, merged leads and their closed enumerations.
package domain

import "strings"

// Status is the closed lead status enumeration. Exactly one status is set
// on every canonical lead.
type Status string

const (
	StatusNew           Status = "new"
	StatusContacted     Status = "contacted"
	StatusNoAnswer      Status = "no answer"
	StatusCallback      Status = "callback"
	StatusQualified     Status = "qualified"
	StatusFollowUp      Status = "follow up"
	StatusMeetingBooked Status = "meeting booked"
	StatusNotInterested Status = "not interested"
	StatusNotQualified  Status = "not qualified"
)

// AllStatuses returns every status in stable display order. Stats are
// zero-filled against this list.
func AllStatuses() []Status {
	return []Status{
		StatusNew,
		StatusContacted,
		StatusNoAnswer,
		StatusCallback,
		StatusQualified,
		StatusFollowUp,
		StatusMeetingBooked,
		StatusNotInterested,
		StatusNotQualified,
	}
}

// ParseStatus matches raw input against the enumeration, case-insensitively.
func ParseStatus(raw string) (Status, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	for _, s := range AllStatuses() {
		if string(s) == normalized {
			return s, true
		}
	}
	return "", false
}

// IsTerminal reports whether the status frees the owning agent's capacity.
func (s Status) IsTerminal() bool {
	return s == StatusNotInterested || s == StatusNotQualified
}
