package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"royaltyengine/models"
)

func testPolicy() *models.PayoutPolicy {
	return &models.PayoutPolicy{
		DefaultThresholdCents: 2000,
		GracePeriodMonths:     12,
		PlatformFeeBps:        1500,
	}
}

func TestApplyThreshold_BelowThresholdCarriesForward(t *testing.T) {
	creatorID := uuid.New()
	periodEnd := date(2026, 1, 31)

	decision, err := ApplyThreshold(creatorID, 1500, nil, testPolicy(), periodEnd)
	require.NoError(t, err)

	assert.False(t, decision.Payable)
	assert.Equal(t, int64(0), decision.NetPayableCents)
	assert.Equal(t, int64(0), decision.PlatformFeeCents)
	assert.Equal(t, int64(1500), decision.CarryoverOutCents)
	require.NotNil(t, decision.CarryoverOldestAt)
	assert.Equal(t, periodEnd, *decision.CarryoverOldestAt)
}

func TestApplyThreshold_CarryoverPushesOverThreshold(t *testing.T) {
	// $15 withheld last run, $10 earned this run, $20 threshold: the
	// combined $25 pays out and the balance is consumed.
	creatorID := uuid.New()
	oldest := date(2026, 1, 31)
	prior := &models.CarryoverBalance{
		CreatorID:      creatorID,
		BalanceCents:   1500,
		OldestUnpaidAt: &oldest,
	}

	decision, err := ApplyThreshold(creatorID, 1000, prior, testPolicy(), date(2026, 2, 28))
	require.NoError(t, err)

	assert.True(t, decision.Payable)
	assert.Equal(t, int64(1500), decision.CarryoverInCents)
	assert.Equal(t, int64(2500), decision.EligibleCents)
	// 15% platform fee on the full eligible amount, charged only at payout.
	assert.Equal(t, int64(375), decision.PlatformFeeCents)
	assert.Equal(t, int64(2125), decision.NetPayableCents)
	assert.Equal(t, int64(0), decision.CarryoverOutCents)
	assert.Nil(t, decision.CarryoverOldestAt)
}

func TestApplyThreshold_BelowThresholdAccumulates(t *testing.T) {
	creatorID := uuid.New()
	oldest := date(2025, 11, 30)
	prior := &models.CarryoverBalance{
		CreatorID:      creatorID,
		BalanceCents:   500,
		OldestUnpaidAt: &oldest,
	}

	decision, err := ApplyThreshold(creatorID, 700, prior, testPolicy(), date(2026, 1, 31))
	require.NoError(t, err)

	assert.False(t, decision.Payable)
	assert.Equal(t, int64(1200), decision.CarryoverOutCents)
	// The grace clock anchor survives from the oldest unpaid balance.
	require.NotNil(t, decision.CarryoverOldestAt)
	assert.Equal(t, oldest, *decision.CarryoverOldestAt)
}

func TestApplyThreshold_GracePeriodForcesPayout(t *testing.T) {
	creatorID := uuid.New()
	oldest := date(2025, 1, 31)
	prior := &models.CarryoverBalance{
		CreatorID:      creatorID,
		BalanceCents:   800,
		OldestUnpaidAt: &oldest,
	}

	// 13 months after the oldest unpaid period: pay out even though the
	// eligible amount is below the threshold.
	decision, err := ApplyThreshold(creatorID, 100, prior, testPolicy(), date(2026, 2, 28))
	require.NoError(t, err)

	assert.True(t, decision.Payable)
	assert.True(t, decision.GraceBypass)
	assert.Equal(t, int64(900), decision.EligibleCents)
	assert.Equal(t, int64(135), decision.PlatformFeeCents)
	assert.Equal(t, int64(765), decision.NetPayableCents)
}

func TestApplyThreshold_GraceNotYetExpired(t *testing.T) {
	creatorID := uuid.New()
	oldest := date(2025, 6, 30)
	prior := &models.CarryoverBalance{
		CreatorID:      creatorID,
		BalanceCents:   800,
		OldestUnpaidAt: &oldest,
	}

	decision, err := ApplyThreshold(creatorID, 100, prior, testPolicy(), date(2026, 1, 31))
	require.NoError(t, err)

	assert.False(t, decision.Payable)
	assert.False(t, decision.GraceBypass)
}

func TestApplyThreshold_CreatorOverrideApplies(t *testing.T) {
	creatorID := uuid.New()
	policy := testPolicy()
	policy.CreatorThresholdOverrides = map[uuid.UUID]int64{creatorID: 500}

	decision, err := ApplyThreshold(creatorID, 600, nil, policy, date(2026, 1, 31))
	require.NoError(t, err)

	assert.True(t, decision.Payable)
	assert.Equal(t, int64(500), decision.ThresholdCents)
}

func TestApplyThreshold_FeeRoundsHalfToEven(t *testing.T) {
	// 2001 * 1500 / 10000 = 300.15 rounds to 300.
	decision, err := ApplyThreshold(uuid.New(), 2001, nil, testPolicy(), date(2026, 1, 31))
	require.NoError(t, err)
	require.True(t, decision.Payable)

	assert.Equal(t, int64(300), decision.PlatformFeeCents)
	assert.Equal(t, int64(1701), decision.NetPayableCents)
}

func TestApplyThreshold_ZeroEarningsNoAnchor(t *testing.T) {
	decision, err := ApplyThreshold(uuid.New(), 0, nil, testPolicy(), date(2026, 1, 31))
	require.NoError(t, err)

	assert.False(t, decision.Payable)
	assert.Equal(t, int64(0), decision.CarryoverOutCents)
	// Nothing owed means no grace clock starts.
	assert.Nil(t, decision.CarryoverOldestAt)
}

func TestApplyThreshold_ConservationAcrossDecision(t *testing.T) {
	// Whatever the outcome, every cent is either paid, kept as fee, or
	// carried forward.
	cases := []struct {
		earnings int64
		prior    int64
	}{
		{0, 0}, {1, 0}, {1999, 0}, {2000, 0}, {500, 1500}, {1500, 499}, {100000, 12345},
	}
	for _, tc := range cases {
		var prior *models.CarryoverBalance
		if tc.prior > 0 {
			oldest := date(2026, 1, 31)
			prior = &models.CarryoverBalance{BalanceCents: tc.prior, OldestUnpaidAt: &oldest}
		}
		decision, err := ApplyThreshold(uuid.New(), tc.earnings, prior, testPolicy(), date(2026, 2, 28))
		require.NoError(t, err)

		eligible := tc.earnings + tc.prior
		accounted := decision.NetPayableCents + decision.PlatformFeeCents + decision.CarryoverOutCents
		assert.Equal(t, eligible, accounted, "earnings=%d prior=%d", tc.earnings, tc.prior)
	}
}
