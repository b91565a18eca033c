// Package quiet implements the quiet-hours deferral policy. Non-critical
// notifications are held back during a recipient's configured window and
// rescheduled to just past its end.
package quiet

import (
	"time"

	"github.com/stsphera/notify-engine/internal/domain"
)

// Policy decides whether a notification may be sent at a given instant. All
// window arithmetic happens in a fixed reference timezone matching the
// deployment's site locale, not each recipient's device timezone.
type Policy struct {
	location *time.Location
}

// NewPolicy builds a policy evaluating windows at the given UTC offset.
func NewPolicy(utcOffsetHours int) *Policy {
	return &Policy{
		location: time.FixedZone("site-local", utcOffsetHours*3600),
	}
}

// Decision is the outcome of a quiet-hours check. NextEligible is only
// meaningful when Allow is false.
type Decision struct {
	Allow        bool
	NextEligible time.Time
}

// Check applies the quiet-hours rule. Critical priority always sends
// immediately. The window [from, to) may wrap midnight: with from=23 and
// to=7, hours 23..6 are suppressed.
func (p *Policy) Check(prefs domain.Preferences, priority domain.Priority, now time.Time) Decision {
	if priority == domain.PriorityCritical {
		return Decision{Allow: true}
	}

	local := now.In(p.location)
	hour := local.Hour()

	from := prefs.QuietFrom
	to := prefs.QuietTo

	var suppressed bool
	if from > to {
		suppressed = hour >= from || hour < to
	} else {
		suppressed = hour >= from && hour < to
	}

	if !suppressed {
		return Decision{Allow: true}
	}

	return Decision{Allow: false, NextEligible: p.windowEnd(local, to)}
}

// windowEnd returns the next occurrence of to:01 local time. The one-minute
// buffer keeps a reschedule landing exactly on the boundary from being
// suppressed again.
func (p *Policy) windowEnd(local time.Time, to int) time.Time {
	end := time.Date(local.Year(), local.Month(), local.Day(), to, 1, 0, 0, p.location)
	if !end.After(local) {
		end = end.AddDate(0, 0, 1)
	}
	return end
}
