package domain

import "strings"

// SourceCategory is the fixed enumeration of external lead sources.
type SourceCategory string

const (
	SourceWebsite  SourceCategory = "website"
	SourceFacebook SourceCategory = "facebook"
	SourceGoogle   SourceCategory = "google"
	SourceReferral SourceCategory = "referral"
)

// AllSources returns every source category in stable order. The external
// source is fetched once per category, each with its own timeout.
func AllSources() []SourceCategory {
	return []SourceCategory{
		SourceWebsite,
		SourceFacebook,
		SourceGoogle,
		SourceReferral,
	}
}

// ClassifySource maps a raw source label onto the fixed enumeration using
// case-insensitive substring matching. Labels that match nothing fall back
// to the website category.
func ClassifySource(raw string) SourceCategory {
	lowered := strings.ToLower(raw)
	switch {
	case strings.Contains(lowered, "facebook"), strings.Contains(lowered, "fb"):
		return SourceFacebook
	case strings.Contains(lowered, "google"), strings.Contains(lowered, "adwords"):
		return SourceGoogle
	case strings.Contains(lowered, "referral"), strings.Contains(lowered, "refer"):
		return SourceReferral
	default:
		return SourceWebsite
	}
}
