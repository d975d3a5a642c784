package memos

import (
	"fmt"
	"time"
)

type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

const day = 24 * time.Hour

// RemainingLabel renders the time left before deletion, coarsest unit first.
func (m Memo) RemainingLabel(now time.Time) string {
	left := m.Remaining(now)
	if left <= 0 {
		return "expired"
	}

	days := int(left / day)
	hours := int(left % day / time.Hour)
	minutes := int(left % time.Hour / time.Minute)

	switch {
	case days > 0:
		if hours > 0 {
			return fmt.Sprintf("in %dd %dh", days, hours)
		}
		return fmt.Sprintf("in %dd", days)
	case hours > 0:
		if minutes > 0 {
			return fmt.Sprintf("%dh %dm left", hours, minutes)
		}
		return fmt.Sprintf("%dh left", hours)
	case minutes > 0:
		return fmt.Sprintf("%dm left", minutes)
	default:
		return "deleting soon"
	}
}

// Urgency buckets the remaining time: a day or more, three hours, one hour, less.
func (m Memo) Urgency(now time.Time) Urgency {
	left := m.Remaining(now)
	switch {
	case left >= day:
		return UrgencyLow
	case left >= 3*time.Hour:
		return UrgencyMedium
	case left >= time.Hour:
		return UrgencyHigh
	default:
		return UrgencyCritical
	}
}
