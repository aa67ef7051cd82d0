package repository

import (
	"context"
	"testing"
	"time"

	"royaltyengine/models"
	"royaltyengine/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoyaltyRunRepository_CreateAndGet(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRoyaltyRunRepository(testDB.DB)
	ctx := context.Background()

	t.Run("run not found", func(t *testing.T) {
		run, err := repo.GetByID(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, run)
	})

	t.Run("create populates id and timestamps", func(t *testing.T) {
		run := testutil.CreateTestRun(testutil.Day(2025, time.January, 1), testutil.Day(2025, time.January, 31))

		err := repo.Create(ctx, run)
		require.NoError(t, err)
		assert.NotZero(t, run.ID)
		assert.False(t, run.CreatedAt.IsZero())
		assert.False(t, run.UpdatedAt.IsZero())

		fetched, err := repo.GetByID(ctx, run.ID)
		require.NoError(t, err)
		require.NotNil(t, fetched)

		assert.Equal(t, models.RunStatusDraft, fetched.Status)
		assert.True(t, fetched.PeriodStart.Equal(testutil.Day(2025, time.January, 1)))
		assert.True(t, fetched.PeriodEnd.Equal(testutil.Day(2025, time.January, 31)))
		assert.Equal(t, "test run", fetched.Notes)
		assert.Equal(t, "testutil", fetched.CreatedBy)
		require.NotNil(t, fetched.PolicySnapshot)
		assert.Equal(t, int64(2000), fetched.PolicySnapshot.DefaultThresholdCents)
		assert.Equal(t, int64(1500), fetched.PolicySnapshot.PlatformFeeBps)
		assert.Nil(t, fetched.ProcessingStartedAt)
		assert.Nil(t, fetched.LockedAt)
	})
}

func TestRoyaltyRunRepository_Update(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRoyaltyRunRepository(testDB.DB)
	ctx := context.Background()

	run := testutil.CreateTestRun(testutil.Day(2025, time.February, 1), testutil.Day(2025, time.February, 28))
	require.NoError(t, repo.Create(ctx, run))

	started := time.Now().UTC().Truncate(time.Microsecond)
	run.Status = models.RunStatusCalculated
	run.TotalRevenueCents = 3000
	run.TotalRoyaltiesCents = 3000
	run.StatementCount = 2
	run.ProcessingStartedAt = &started
	run.ExecutionSummary = map[string]interface{}{
		"licenses_processed": float64(1),
	}

	require.NoError(t, repo.Update(ctx, run))

	fetched, err := repo.GetByID(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)

	assert.Equal(t, models.RunStatusCalculated, fetched.Status)
	assert.Equal(t, int64(3000), fetched.TotalRevenueCents)
	assert.Equal(t, int64(3000), fetched.TotalRoyaltiesCents)
	assert.Equal(t, 2, fetched.StatementCount)
	require.NotNil(t, fetched.ProcessingStartedAt)
	assert.True(t, fetched.ProcessingStartedAt.Equal(started))
	assert.Equal(t, float64(1), fetched.ExecutionSummary["licenses_processed"])
	assert.True(t, fetched.UpdatedAt.After(fetched.CreatedAt) || fetched.UpdatedAt.Equal(fetched.CreatedAt))
}

func TestRoyaltyRunRepository_List(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRoyaltyRunRepository(testDB.DB)
	ctx := context.Background()

	january := testutil.CreateTestRun(testutil.Day(2025, time.January, 1), testutil.Day(2025, time.January, 31))
	require.NoError(t, repo.Create(ctx, january))

	february := testutil.CreateTestRunWithStatus(
		testutil.Day(2025, time.February, 1), testutil.Day(2025, time.February, 28), models.RunStatusCalculated)
	require.NoError(t, repo.Create(ctx, february))

	march := testutil.CreateTestRun(testutil.Day(2025, time.March, 1), testutil.Day(2025, time.March, 31))
	require.NoError(t, repo.Create(ctx, march))

	t.Run("newest period first", func(t *testing.T) {
		runs, err := repo.List(ctx, models.RunFilter{})
		require.NoError(t, err)
		require.Len(t, runs, 3)
		assert.Equal(t, march.ID, runs[0].ID)
		assert.Equal(t, february.ID, runs[1].ID)
		assert.Equal(t, january.ID, runs[2].ID)
	})

	t.Run("filter by status", func(t *testing.T) {
		status := models.RunStatusCalculated
		runs, err := repo.List(ctx, models.RunFilter{Status: &status})
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, february.ID, runs[0].ID)
	})

	t.Run("filter by containing day", func(t *testing.T) {
		day := testutil.Day(2025, time.February, 14)
		runs, err := repo.List(ctx, models.RunFilter{ContainsDay: &day})
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, february.ID, runs[0].ID)
	})

	t.Run("limit and offset", func(t *testing.T) {
		runs, err := repo.List(ctx, models.RunFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, february.ID, runs[0].ID)
	})
}

func TestRoyaltyRunRepository_FindOverlapping(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRoyaltyRunRepository(testDB.DB)
	ctx := context.Background()

	january := testutil.CreateTestRun(testutil.Day(2025, time.January, 1), testutil.Day(2025, time.January, 31))
	require.NoError(t, repo.Create(ctx, january))

	t.Run("adjacent period does not overlap", func(t *testing.T) {
		runs, err := repo.FindOverlapping(ctx, testutil.Day(2025, time.February, 1), testutil.Day(2025, time.February, 28))
		require.NoError(t, err)
		assert.Empty(t, runs)
	})

	t.Run("single shared day overlaps", func(t *testing.T) {
		runs, err := repo.FindOverlapping(ctx, testutil.Day(2025, time.January, 31), testutil.Day(2025, time.February, 28))
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, january.ID, runs[0].ID)
	})

	t.Run("failed runs do not block the period", func(t *testing.T) {
		failed := testutil.CreateTestRunWithStatus(
			testutil.Day(2025, time.April, 1), testutil.Day(2025, time.April, 30), models.RunStatusFailed)
		require.NoError(t, repo.Create(ctx, failed))

		runs, err := repo.FindOverlapping(ctx, testutil.Day(2025, time.April, 1), testutil.Day(2025, time.April, 30))
		require.NoError(t, err)
		assert.Empty(t, runs)
	})
}

func TestRoyaltyRunRepository_OverlapConstraint(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRoyaltyRunRepository(testDB.DB)
	ctx := context.Background()

	run := testutil.CreateTestRun(testutil.Day(2025, time.June, 1), testutil.Day(2025, time.June, 30))
	require.NoError(t, repo.Create(ctx, run))

	// The exclusion constraint is the backstop behind the service-level
	// overlap check: even a racing insert cannot double-cover a day.
	overlapping := testutil.CreateTestRun(testutil.Day(2025, time.June, 30), testutil.Day(2025, time.July, 31))
	err := repo.Create(ctx, overlapping)
	assert.Error(t, err)

	// A failed run over the same days is allowed.
	failed := testutil.CreateTestRunWithStatus(
		testutil.Day(2025, time.June, 1), testutil.Day(2025, time.June, 30), models.RunStatusFailed)
	assert.NoError(t, repo.Create(ctx, failed))
}

func TestRoyaltyRunRepository_FindStuckProcessing(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRoyaltyRunRepository(testDB.DB)
	ctx := context.Background()

	stuck := testutil.CreateTestRunWithStatus(
		testutil.Day(2025, time.January, 1), testutil.Day(2025, time.January, 31), models.RunStatusProcessing)
	require.NoError(t, repo.Create(ctx, stuck))
	startedLongAgo := time.Now().UTC().Add(-2 * time.Hour)
	stuck.ProcessingStartedAt = &startedLongAgo
	require.NoError(t, repo.Update(ctx, stuck))

	fresh := testutil.CreateTestRunWithStatus(
		testutil.Day(2025, time.February, 1), testutil.Day(2025, time.February, 28), models.RunStatusProcessing)
	require.NoError(t, repo.Create(ctx, fresh))
	startedJustNow := time.Now().UTC()
	fresh.ProcessingStartedAt = &startedJustNow
	require.NoError(t, repo.Update(ctx, fresh))

	cutoff := time.Now().UTC().Add(-30 * time.Minute)
	runs, err := repo.FindStuckProcessing(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, stuck.ID, runs[0].ID)
}
