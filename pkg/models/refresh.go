package models

import (
	"time"

	"github.com/google/uuid"
)

// Cooldown clamp bounds, in days. Values outside the range are clamped, not
// rejected, so a bad settings row can never wedge the refresh pipeline.
const (
	MinCooldownDays = 0
	MaxCooldownDays = 3650
)

// ClampCooldownDays forces a cooldown value into the allowed range.
func ClampCooldownDays(days int) int {
	if days < MinCooldownDays {
		return MinCooldownDays
	}
	if days > MaxCooldownDays {
		return MaxCooldownDays
	}
	return days
}

// EngineSettings is the singleton settings row backing the admin console's
// engine configuration screen. Stored in engine_settings table.
type EngineSettings struct {
	RefreshCooldownDays int       `json:"refresh_cooldown_days"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// RefreshPolicy is the cooldown configuration injected into every refresh and
// presentation call, so tests can vary it without shared state.
type RefreshPolicy struct {
	CooldownDays int `json:"cooldown_days"`
}

// NewRefreshPolicy builds a policy with the cooldown clamped into range.
func NewRefreshPolicy(cooldownDays int) RefreshPolicy {
	return RefreshPolicy{CooldownDays: ClampCooldownDays(cooldownDays)}
}

// Eligible reports whether the keyword may be refreshed at the given instant:
// never attempted, or last attempted at least CooldownDays ago. Attempts
// count whether or not they succeeded.
func (p RefreshPolicy) Eligible(k *Keyword, now time.Time) bool {
	if k.LastAttemptedAt == nil {
		return true
	}
	cutoff := now.Add(-time.Duration(p.CooldownDays) * 24 * time.Hour)
	return !k.LastAttemptedAt.After(cutoff)
}

// RefreshSummary reports the outcome of one refresh call. It is returned even
// on partial failure so callers can tell "nothing needed refreshing" from
// "some keywords errored". Never persisted.
type RefreshSummary struct {
	BatchID   uuid.UUID `json:"batch_id"` // Correlation id, also present in refresh logs
	Requested int       `json:"requested"`
	Refreshed int       `json:"refreshed"`
	Skipped   int       `json:"skipped"` // Excluded by the cooldown in non-enforcing mode
	Errored   int       `json:"errored"`
}

// Add folds another summary into this one. Used by the cross-scope bulk
// refresh to merge per-scope results.
func (s *RefreshSummary) Add(other RefreshSummary) {
	s.Requested += other.Requested
	s.Refreshed += other.Refreshed
	s.Skipped += other.Skipped
	s.Errored += other.Errored
}
