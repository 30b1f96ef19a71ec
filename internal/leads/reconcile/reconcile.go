// Package reconcile merges externally sourced lead records with the locally
// owned overlay into canonical leads. The merge is pure and deterministic:
// no side effects, same inputs always produce the same output.
package reconcile

import "crm_dashboard_backend/internal/leads/domain"

// Merge produces one canonical lead per non-blank source record, in source
// order. All source fields are taken first; overlay values win field by
// field where defined, not wholesale. Overlay entries whose id has no
// matching source record are orphaned and simply absent from the output.
func Merge(records []domain.LeadRecord, overlays map[string]domain.LeadOverlay) []domain.Lead {
	leads := make([]domain.Lead, 0, len(records))

	for _, record := range records {
		if record.IsBlank() {
			continue
		}

		lead := domain.Lead{
			ID:     record.ID,
			Source: record.Source,
			Status: domain.StatusNew,
			Fields: copyFields(record.Fields),
		}

		// Source rows may carry their own status column.
		if raw, ok := record.Fields["status"]; ok {
			if status, ok := domain.ParseStatus(raw); ok {
				lead.Status = status
			}
		}

		if overlay, ok := overlays[record.ID]; ok {
			applyOverlay(&lead, overlay)
		}

		leads = append(leads, lead)
	}

	return leads
}

func applyOverlay(lead *domain.Lead, overlay domain.LeadOverlay) {
	if overlay.Status != nil {
		lead.Status = *overlay.Status
	}
	if len(overlay.Notes) > 0 {
		notes := make([]string, len(overlay.Notes))
		copy(notes, overlay.Notes)
		lead.Notes = notes
	}
	if overlay.AssignedAgent != "" {
		lead.AssignedAgent = overlay.AssignedAgent
	}
	if overlay.MeetingDate != "" {
		lead.MeetingDate = overlay.MeetingDate
	}
	if overlay.MeetingTime != "" {
		lead.MeetingTime = overlay.MeetingTime
	}
	if overlay.MeetingResult != "" {
		lead.MeetingResult = overlay.MeetingResult
	}
	if overlay.PostMeetingNotes != "" {
		lead.PostMeetingNotes = overlay.PostMeetingNotes
	}
}

func copyFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
