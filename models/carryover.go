package models

import (
	"time"

	"github.com/google/uuid"
)

// CarryoverBalance is a creator's accumulated unpaid amount below the payout
// threshold. It is not a table of its own: the balance is carried on each
// statement (CarryoverOutCents / CarryoverOldestAt), so the current balance
// is always the one on the creator's most recent surviving statement and a
// run rollback restores it for free.
type CarryoverBalance struct {
	CreatorID      uuid.UUID
	BalanceCents   int64
	OldestUnpaidAt *time.Time
}

// GraceExpired checks whether the oldest unpaid balance has aged past the
// grace period as of the given time
func (c *CarryoverBalance) GraceExpired(asOf time.Time, graceMonths int) bool {
	if c == nil || c.OldestUnpaidAt == nil || graceMonths <= 0 {
		return false
	}
	return !c.OldestUnpaidAt.AddDate(0, graceMonths, 0).After(asOf)
}
