package testutil

import (
	"time"

	"github.com/google/uuid"

	"royaltyengine/models"
)

// Day builds a whole UTC day, the granularity run periods use
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CreateTestRun creates a draft run covering the given inclusive period
func CreateTestRun(periodStart, periodEnd time.Time) *models.RoyaltyRun {
	return &models.RoyaltyRun{
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Status:      models.RunStatusDraft,
		Notes:       "test run",
		CreatedBy:   "testutil",
		PolicySnapshot: &models.PayoutPolicy{
			DefaultThresholdCents: 2000,
			GracePeriodMonths:     12,
			PlatformFeeBps:        1500,
		},
	}
}

// CreateTestRunWithStatus creates a run in a specific status
func CreateTestRunWithStatus(periodStart, periodEnd time.Time, status models.RunStatus) *models.RoyaltyRun {
	run := CreateTestRun(periodStart, periodEnd)
	run.Status = status
	return run
}

// CreateTestStatement creates a pending payable statement with consistent
// earnings, fee and net amounts
func CreateTestStatement(runID int64, creatorID uuid.UUID, earningsCents int64) *models.RoyaltyStatement {
	fee := earningsCents * 1500 / 10000
	return &models.RoyaltyStatement{
		RunID:              runID,
		CreatorID:          creatorID,
		Status:             models.StatementStatusPending,
		TotalEarningsCents: earningsCents,
		PlatformFeeCents:   fee,
		NetPayableCents:    earningsCents - fee,
	}
}

// CreateTestWithheldStatement creates a pending statement whose full balance
// is carried forward instead of paid out
func CreateTestWithheldStatement(runID int64, creatorID uuid.UUID, earningsCents int64, oldestAt time.Time) *models.RoyaltyStatement {
	return &models.RoyaltyStatement{
		RunID:              runID,
		CreatorID:          creatorID,
		Status:             models.StatementStatusPending,
		TotalEarningsCents: earningsCents,
		CarryoverOutCents:  earningsCents,
		CarryoverOldestAt:  &oldestAt,
	}
}

// CreateTestLine creates a standard royalty line for a statement
func CreateTestLine(statementID int64, assetID, licenseID uuid.UUID, revenueCents, shareBps, royaltyCents int64) *models.RoyaltyLine {
	return &models.RoyaltyLine{
		StatementID:            statementID,
		Type:                   models.LineTypeStandard,
		AssetID:                &assetID,
		LicenseID:              &licenseID,
		RevenueCents:           revenueCents,
		ShareBps:               shareBps,
		CalculatedRoyaltyCents: royaltyCents,
		FlatFeeCents:           revenueCents,
		Description:            "test royalty",
	}
}

// CreateTestArchive creates a rollback archive with a minimal snapshot
func CreateTestArchive(run *models.RoyaltyRun, statements []*models.RoyaltyStatement, lines []*models.RoyaltyLine) *models.RollbackArchive {
	return &models.RollbackArchive{
		RunID:       run.ID,
		Reason:      "test rollback",
		RequestedBy: "testutil",
		Snapshot: &models.RunSnapshot{
			Run:        run,
			Statements: statements,
			Lines:      lines,
		},
		Extra: map[string]interface{}{
			"test": true,
		},
	}
}
