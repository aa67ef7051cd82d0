package models

import (
	"time"

	"github.com/google/uuid"
)

// LineType discriminates the kinds of royalty lines. All types share the
// same calculated amount field so totals are always the sum of one column
// regardless of type.
type LineType string

const (
	// LineTypeStandard is a calculated royalty for one (asset, license) pair.
	LineTypeStandard LineType = "standard"

	// LineTypeCarryover represents a prior unpaid balance consumed by a
	// now-payable statement.
	LineTypeCarryover LineType = "carryover"

	// LineTypeAdjustment is an admin correction added during dispute
	// resolution. Standard lines are never edited in place.
	LineTypeAdjustment LineType = "adjustment"

	// LineTypeThresholdNote documents a below-threshold policy decision.
	// Its amount is always zero; the deferred balance is tracked separately.
	LineTypeThresholdNote LineType = "threshold_note"
)

// RoyaltyLine is the atomic royalty record underlying a statement.
// For a standard line, CalculatedRoyaltyCents is the creator's allocated
// share of RevenueCents; RevenueCents is the (asset, license) pair's
// pre-split revenue and is repeated on every line of that pair for audit
// traceability.
type RoyaltyLine struct {
	ID                     int64      `db:"id"`
	StatementID            int64      `db:"statement_id"`
	Type                   LineType   `db:"line_type"`
	AssetID                *uuid.UUID `db:"asset_id"`
	LicenseID              *uuid.UUID `db:"license_id"`
	RevenueCents           int64      `db:"revenue_cents"`
	ShareBps               int64      `db:"share_bps"`
	CalculatedRoyaltyCents int64      `db:"calculated_royalty_cents"`
	FlatFeeCents           int64      `db:"flat_fee_cents"`
	UsageCents             int64      `db:"usage_cents"`
	Prorated               bool       `db:"prorated"`
	Description            string     `db:"description"`
	CreatedAt              time.Time  `db:"created_at"`
}

// IsStandard checks if the line is a calculated royalty line
func (l *RoyaltyLine) IsStandard() bool {
	return l.Type == LineTypeStandard
}

// IsAdjustment checks if the line is an admin adjustment
func (l *RoyaltyLine) IsAdjustment() bool {
	return l.Type == LineTypeAdjustment
}
