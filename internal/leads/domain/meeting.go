package domain

import (
	"strings"
	"time"
)

// Meeting date/time values are stored as canonical date-only and time-only
// strings, never timestamps. Malformed input is coerced, not rejected.

const (
	MeetingDateLayout = "2006-01-02"
	MeetingTimeLayout = "15:04"
)

var meetingDateLayouts = []string{
	MeetingDateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	"Jan 2, 2006",
}

var meetingTimeLayouts = []string{
	MeetingTimeLayout,
	"15:04:05",
	"3:04 PM",
	"3:04PM",
	time.RFC3339,
}

// NormalizeMeetingDate coerces raw input into a date-only string. Inputs
// that match no known layout lose any time portion and are capped at
// date width rather than rejected.
func NormalizeMeetingDate(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	for _, layout := range meetingDateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format(MeetingDateLayout)
		}
	}

	// Unparseable input is still forced into date-only shape: drop any
	// time-of-day portion and cap at the layout width.
	if i := strings.IndexAny(trimmed, "T "); i > 0 && strings.Contains(trimmed[i+1:], ":") {
		trimmed = trimmed[:i]
	}
	if len(trimmed) > len(MeetingDateLayout) {
		trimmed = trimmed[:len(MeetingDateLayout)]
	}
	return trimmed
}

// NormalizeMeetingTime coerces raw input into a time-only HH:MM string.
func NormalizeMeetingTime(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	for _, layout := range meetingTimeLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format(MeetingTimeLayout)
		}
	}

	// Unparseable input is still forced into time-only shape: keep the
	// first hour:minute run, else cap at the layout width.
	if hm, ok := firstClock(trimmed); ok {
		return hm
	}
	if len(trimmed) > len(MeetingTimeLayout) {
		trimmed = trimmed[:len(MeetingTimeLayout)]
	}
	return trimmed
}

// firstClock extracts the first H:MM or HH:MM run from raw input.
func firstClock(s string) (string, bool) {
	for i := 1; i < len(s)-2; i++ {
		if s[i] != ':' || !isDigit(s[i-1]) || !isDigit(s[i+1]) || !isDigit(s[i+2]) {
			continue
		}
		start := i - 1
		if start > 0 && isDigit(s[start-1]) {
			start--
		}
		return s[start:i] + ":" + s[i+1:i+3], true
	}
	return "", false
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
