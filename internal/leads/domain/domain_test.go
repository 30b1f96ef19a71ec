package domain

import "testing"

func TestParseStatusCaseInsensitive(t *testing.T) {
	status, ok := ParseStatus("  Meeting Booked ")
	if !ok {
		t.Fatalf("expected parse to succeed")
	}
	if status != StatusMeetingBooked {
		t.Fatalf("expected %q, got %q", StatusMeetingBooked, status)
	}

	if _, ok := ParseStatus("archived"); ok {
		t.Fatalf("expected unknown status to fail parsing")
	}
}

func TestAllStatusesHasNineValues(t *testing.T) {
	if got := len(AllStatuses()); got != 9 {
		t.Fatalf("expected 9 statuses, got %d", got)
	}
}

func TestTerminalStatuses(t *testing.T) {
	if !StatusNotInterested.IsTerminal() || !StatusNotQualified.IsTerminal() {
		t.Fatalf("expected not interested / not qualified to be terminal")
	}
	if StatusMeetingBooked.IsTerminal() || StatusNew.IsTerminal() {
		t.Fatalf("expected meeting booked and new to be non-terminal")
	}
}

func TestClassifySourceSubstrings(t *testing.T) {
	cases := map[string]SourceCategory{
		"Facebook Ads":    SourceFacebook,
		"GOOGLE adwords":  SourceGoogle,
		"Partner-Referral": SourceReferral,
		"landing page":    SourceWebsite,
		"":                SourceWebsite,
	}
	for raw, want := range cases {
		if got := ClassifySource(raw); got != want {
			t.Fatalf("ClassifySource(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestIsEligibleForAssignment(t *testing.T) {
	eligible := Lead{ID: "x", Status: StatusNew}
	if !eligible.IsEligibleForAssignment() {
		t.Fatalf("expected unassigned new lead to be eligible")
	}

	assigned := Lead{ID: "x", Status: StatusNew, AssignedAgent: "a@x.com"}
	if assigned.IsEligibleForAssignment() {
		t.Fatalf("expected assigned lead to be ineligible")
	}

	for _, status := range []Status{StatusMeetingBooked, StatusNotInterested, StatusNotQualified} {
		lead := Lead{ID: "x", Status: status}
		if lead.IsEligibleForAssignment() {
			t.Fatalf("expected %q lead to be ineligible", status)
		}
	}
}

func TestLeadRecordIsBlank(t *testing.T) {
	blank := LeadRecord{ID: "website-3", Source: SourceWebsite, Fields: map[string]string{"Name": "  ", "Email": ""}}
	if !blank.IsBlank() {
		t.Fatalf("expected record with whitespace-only fields to be blank")
	}

	filled := LeadRecord{ID: "website-4", Source: SourceWebsite, Fields: map[string]string{"Name": "Bob"}}
	if filled.IsBlank() {
		t.Fatalf("expected record with a value to be non-blank")
	}
}

func TestNormalizeMeetingDate(t *testing.T) {
	cases := map[string]string{
		"2026-03-05":                "2026-03-05",
		"2026-03-05T14:30:00Z":      "2026-03-05",
		"2026/03/05":                "2026-03-05",
		"03/05/2026":                "2026-03-05",
		"2026-03-05 14:30:00":       "2026-03-05",
		"next tuesday":              "next tuesd",
		"sometime 14:00":            "sometime",
		"2026-03-05T99:00:00":       "2026-03-05",
		"  2026-03-05T09:00:00+02:00 ": "2026-03-05",
		"": "",
	}
	for raw, want := range cases {
		if got := NormalizeMeetingDate(raw); got != want {
			t.Fatalf("NormalizeMeetingDate(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestNormalizeMeetingTime(t *testing.T) {
	cases := map[string]string{
		"14:30":              "14:30",
		"14:30:59":           "14:30",
		"2:30 PM":            "14:30",
		"2026-01-02 14:30xx": "14:30",
		"soonish":            "soons",
		"":                   "",
	}
	for raw, want := range cases {
		if got := NormalizeMeetingTime(raw); got != want {
			t.Fatalf("NormalizeMeetingTime(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestOverlayCloneDoesNotAlias(t *testing.T) {
	status := StatusQualified
	original := LeadOverlay{Status: &status, Notes: []string{"first"}}

	clone := original.Clone()
	clone.Notes[0] = "changed"
	*clone.Status = StatusNew

	if original.Notes[0] != "first" {
		t.Fatalf("clone aliased the notes slice")
	}
	if *original.Status != StatusQualified {
		t.Fatalf("clone aliased the status pointer")
	}
}
