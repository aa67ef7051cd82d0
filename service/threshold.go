package service

import (
	"time"

	"github.com/google/uuid"

	"royaltyengine/models"
	"royaltyengine/money"
)

// ThresholdDecision is the outcome of applying the payout policy to one
// creator's earnings for one run. Every cent is accounted for: a payable
// statement consumes the prior carryover, a withheld one rolls the full
// eligible amount forward.
type ThresholdDecision struct {
	Payable           bool
	GraceBypass       bool
	ThresholdCents    int64
	EligibleCents     int64
	PlatformFeeCents  int64
	NetPayableCents   int64
	CarryoverInCents  int64
	CarryoverOutCents int64
	CarryoverOldestAt *time.Time
}

// ApplyThreshold applies the minimum-payout policy to a creator's run
// earnings plus prior carryover.
//
// The statement is payable when the eligible amount meets the creator's
// threshold, or when the oldest unpaid balance has aged past the grace
// period. The platform fee is charged only at payout, on the full eligible
// amount, so withheld earnings carry forward undiminished.
func ApplyThreshold(creatorID uuid.UUID, runEarningsCents int64, prior *models.CarryoverBalance, policy *models.PayoutPolicy, periodEnd time.Time) (*ThresholdDecision, error) {
	decision := &ThresholdDecision{
		ThresholdCents: policy.ThresholdFor(creatorID),
	}
	if prior != nil {
		decision.CarryoverInCents = prior.BalanceCents
	}
	decision.EligibleCents = runEarningsCents + decision.CarryoverInCents
	decision.GraceBypass = prior.GraceExpired(periodEnd, policy.GracePeriodMonths)

	if decision.EligibleCents >= decision.ThresholdCents || decision.GraceBypass {
		fee, err := money.RoundHalfEven(decision.EligibleCents*policy.PlatformFeeBps, models.TotalShareBps)
		if err != nil {
			return nil, err
		}
		decision.Payable = true
		decision.PlatformFeeCents = fee
		decision.NetPayableCents = decision.EligibleCents - fee
		decision.CarryoverOutCents = 0
		decision.CarryoverOldestAt = nil
		return decision, nil
	}

	// Below threshold: nothing is paid and nothing is lost. The oldest
	// unpaid anchor survives from the prior balance so the grace clock
	// keeps running across runs.
	decision.Payable = false
	decision.CarryoverOutCents = decision.EligibleCents
	if prior != nil && prior.OldestUnpaidAt != nil {
		oldest := *prior.OldestUnpaidAt
		decision.CarryoverOldestAt = &oldest
	} else if decision.EligibleCents > 0 {
		anchor := periodEnd
		decision.CarryoverOldestAt = &anchor
	}
	return decision, nil
}
