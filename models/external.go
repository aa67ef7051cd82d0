package models

import (
	"time"

	"github.com/google/uuid"
)

// License is supplied by the upstream license provider and is read-only to
// this engine. EndDate is nil for open-ended licenses, which are never
// pro-rated: any active overlap earns the full flat fee.
type License struct {
	ID          uuid.UUID
	AssetID     uuid.UUID
	LicenseeID  uuid.UUID
	FeeCents    int64
	RevShareBps int64
	StartDate   time.Time
	EndDate     *time.Time
}

// IsOpenEnded checks whether the license has no contracted end date
func (l *License) IsOpenEnded() bool {
	return l.EndDate == nil
}

// ContractedDays returns the length of the contracted interval in whole
// days, inclusive of both end dates. Zero for open-ended licenses.
func (l *License) ContractedDays() int {
	if l.EndDate == nil {
		return 0
	}
	return int(l.EndDate.Sub(l.StartDate).Hours()/24) + 1
}

// OwnershipShare is one creator's fractional ownership of an asset, supplied
// by the upstream ownership provider. Shares for an asset must sum to 10000
// basis points; the engine validates this rather than assuming it.
type OwnershipShare struct {
	AssetID   uuid.UUID
	CreatorID uuid.UUID
	ShareBps  int64
}

// TotalShareBps is the required ownership sum for every asset
const TotalShareBps int64 = 10000

// UsageEvent is one reported usage transaction for a license. AmountCents is
// the gross revenue for the licensed asset; the engine applies the license's
// revenue share exactly once during aggregation.
type UsageEvent struct {
	ID          uuid.UUID
	LicenseID   uuid.UUID
	AmountCents int64
	OccurredAt  time.Time
}
