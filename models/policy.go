package models

import (
	"github.com/google/uuid"
)

// PayoutPolicy captures the payout rules in force when a run is calculated.
// The orchestrator snapshots the policy onto the run row so historical runs
// can be validated against the policy that produced them, not the current one.
type PayoutPolicy struct {
	// DefaultThresholdCents is the minimum payable balance before a
	// statement is paid out rather than carried forward.
	DefaultThresholdCents int64 `json:"default_threshold_cents"`

	// CreatorThresholdOverrides maps creator IDs to per-creator thresholds.
	// An override of zero means the creator is always paid (VIP).
	CreatorThresholdOverrides map[uuid.UUID]int64 `json:"creator_threshold_overrides,omitempty"`

	// GracePeriodMonths bypasses the threshold once a creator's oldest
	// unpaid balance has aged past this many months.
	GracePeriodMonths int `json:"grace_period_months"`

	// PlatformFeeBps is the platform's cut of a statement's earnings,
	// in basis points.
	PlatformFeeBps int64 `json:"platform_fee_bps"`
}

// ThresholdFor returns the payout threshold applicable to a creator
func (p *PayoutPolicy) ThresholdFor(creatorID uuid.UUID) int64 {
	if override, ok := p.CreatorThresholdOverrides[creatorID]; ok {
		return override
	}
	return p.DefaultThresholdCents
}
