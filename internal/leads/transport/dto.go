// Package transport defines request/response DTOs for the leads API.
package transport

// UpdateStatusRequest changes a lead's pipeline status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// MeetingDetailsRequest stores meeting data on a lead. Date and time
// accept loose formats and are coerced server-side.
type MeetingDetailsRequest struct {
	MeetingDate      string `json:"meetingDate"`
	MeetingTime      string `json:"meetingTime"`
	MeetingResult    string `json:"meetingResult"`
	PostMeetingNotes string `json:"postMeetingNotes"`
}

// AddNoteRequest appends a note to a lead.
type AddNoteRequest struct {
	Text string `json:"text" validate:"required"`
}
