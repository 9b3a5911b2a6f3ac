package models

import (
	"testing"
	"time"
)

func TestRefreshPolicyEligible(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	daysAgo := func(d int) *time.Time {
		at := now.AddDate(0, 0, -d)
		return &at
	}

	tests := []struct {
		name         string
		cooldownDays int
		attemptedAt  *time.Time
		want         bool
	}{
		{"never attempted", 30, nil, true},
		{"attempted inside cooldown", 30, daysAgo(10), false},
		{"attempted exactly at cooldown", 30, daysAgo(30), true},
		{"attempted past cooldown", 30, daysAgo(31), true},
		{"zero cooldown always eligible", 0, daysAgo(0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := NewRefreshPolicy(tt.cooldownDays)
			k := &Keyword{LastAttemptedAt: tt.attemptedAt}
			if got := policy.Eligible(k, now); got != tt.want {
				t.Errorf("Eligible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRefreshSummaryAdd(t *testing.T) {
	total := RefreshSummary{Requested: 3, Refreshed: 2, Skipped: 1}
	total.Add(RefreshSummary{Requested: 5, Refreshed: 1, Skipped: 2, Errored: 2})

	if total.Requested != 8 || total.Refreshed != 3 || total.Skipped != 3 || total.Errored != 2 {
		t.Errorf("unexpected merged summary: %+v", total)
	}
}
