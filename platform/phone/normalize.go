// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "US"

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// IsPhoneField reports whether a discovered source column looks like it
// holds a phone number, based on its header name.
func IsPhoneField(name string) bool {
	lowered := strings.ToLower(strings.TrimSpace(name))
	return strings.Contains(lowered, "phone") ||
		strings.Contains(lowered, "mobile") ||
		strings.Contains(lowered, "tel")
}
