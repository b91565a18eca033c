package domain

import (
	"strconv"
	"strings"
)

// Preferences holds the per-recipient notification settings the dispatch core
// cares about: the quiet-hours window [From, To) in local-policy hours.
type Preferences struct {
	QuietFrom int
	QuietTo   int
}

// DefaultQuietFrom/To mirror the product default of 23:00-07:00.
const (
	DefaultQuietFrom = 23
	DefaultQuietTo   = 7
)

// DefaultPreferences returns the quiet-hours window applied when a profile
// carries no explicit settings.
func DefaultPreferences() Preferences {
	return Preferences{QuietFrom: DefaultQuietFrom, QuietTo: DefaultQuietTo}
}

// ParseHour extracts the hour from an "HH:MM" clock string as stored in
// profile preference documents. Malformed values fall back to fallback.
func ParseHour(clock string, fallback int) int {
	parts := strings.SplitN(strings.TrimSpace(clock), ":", 2)
	if parts[0] == "" {
		return fallback
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return fallback
	}
	return hour
}

// RecipientEndpoint pairs a deliverable chat ID with that recipient's
// notification preferences. It is the resolver's output, not persisted.
type RecipientEndpoint struct {
	ChatID      string
	Preferences Preferences
}
