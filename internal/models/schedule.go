package models

import "time"

// AllowedIntervals are the supported backup cadences, in minutes.
var AllowedIntervals = []int{5, 15, 30, 60, 360, 720, 1440}

// Retention bounds for the number of committed artifacts kept per user.
const (
	MinRetainedCount = 5
	MaxRetainedCount = 50
)

// Defaults mirrored from the remote settings store.
const (
	DefaultIntervalMinutes  = 15
	DefaultMaxRetainedCount = 20
)

// BackupSchedule is the persisted scheduler state for one user.
type BackupSchedule struct {
	Username         string     `json:"username"`
	Enabled          bool       `json:"enabled"`
	IntervalMinutes  int        `json:"intervalMinutes"`
	MaxRetainedCount int        `json:"maxRetainedCount"`
	NextDueAt        *time.Time `json:"nextDueAt"` // survives restarts so the countdown stays meaningful
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// ValidInterval reports whether the given cadence is one of the allowed values.
func ValidInterval(minutes int) bool {
	for _, m := range AllowedIntervals {
		if m == minutes {
			return true
		}
	}
	return false
}

// ClampRetention forces a retention count into the supported range.
func ClampRetention(count int) int {
	if count < MinRetainedCount {
		return MinRetainedCount
	}
	if count > MaxRetainedCount {
		return MaxRetainedCount
	}
	return count
}
