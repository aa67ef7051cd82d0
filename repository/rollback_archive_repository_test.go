package repository

import (
	"context"
	"testing"
	"time"

	"royaltyengine/models"
	"royaltyengine/repository/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollbackArchiveRepository_CreateAndGet(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	runRepo := NewRoyaltyRunRepository(testDB.DB)
	statementRepo := NewStatementRepository(testDB.DB)
	lineRepo := NewLineRepository(testDB.DB)
	repo := NewRollbackArchiveRepository(testDB.DB)
	ctx := context.Background()

	run := testutil.CreateTestRunWithStatus(
		testutil.Day(2025, time.January, 1), testutil.Day(2025, time.January, 31), models.RunStatusCalculated)
	require.NoError(t, runRepo.Create(ctx, run))

	statement := testutil.CreateTestStatement(run.ID, uuid.New(), 2000)
	require.NoError(t, statementRepo.Create(ctx, statement))
	line := testutil.CreateTestLine(statement.ID, uuid.New(), uuid.New(), 2000, 10000, 2000)
	require.NoError(t, lineRepo.CreateBatch(ctx, []*models.RoyaltyLine{line}))

	t.Run("archive not found", func(t *testing.T) {
		archive, err := repo.GetByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, archive)
	})

	t.Run("snapshot survives the round trip", func(t *testing.T) {
		archive := testutil.CreateTestArchive(run,
			[]*models.RoyaltyStatement{statement},
			[]*models.RoyaltyLine{line})

		err := repo.Create(ctx, archive)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, archive.ID)
		assert.False(t, archive.CreatedAt.IsZero())

		fetched, err := repo.GetByID(ctx, archive.ID)
		require.NoError(t, err)
		require.NotNil(t, fetched)

		assert.Equal(t, run.ID, fetched.RunID)
		assert.Equal(t, "test rollback", fetched.Reason)
		assert.False(t, fetched.Forced)
		assert.Equal(t, "testutil", fetched.RequestedBy)
		assert.Equal(t, true, fetched.Extra["test"])

		require.NotNil(t, fetched.Snapshot)
		require.NotNil(t, fetched.Snapshot.Run)
		assert.Equal(t, run.ID, fetched.Snapshot.Run.ID)
		require.Len(t, fetched.Snapshot.Statements, 1)
		assert.Equal(t, statement.TotalEarningsCents, fetched.Snapshot.Statements[0].TotalEarningsCents)
		require.Len(t, fetched.Snapshot.Lines, 1)
		assert.Equal(t, line.CalculatedRoyaltyCents, fetched.Snapshot.Lines[0].CalculatedRoyaltyCents)
	})
}

func TestRollbackArchiveRepository_GetByRun(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	runRepo := NewRoyaltyRunRepository(testDB.DB)
	repo := NewRollbackArchiveRepository(testDB.DB)
	ctx := context.Background()

	run := testutil.CreateTestRunWithStatus(
		testutil.Day(2025, time.January, 1), testutil.Day(2025, time.January, 31), models.RunStatusCalculated)
	require.NoError(t, runRepo.Create(ctx, run))

	first := testutil.CreateTestArchive(run, nil, nil)
	require.NoError(t, repo.Create(ctx, first))

	second := testutil.CreateTestArchive(run, nil, nil)
	second.Reason = "recalculated with corrected shares"
	second.Forced = true
	require.NoError(t, repo.Create(ctx, second))

	archives, err := repo.GetByRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, archives, 2)

	// Newest first
	assert.Equal(t, second.ID, archives[0].ID)
	assert.True(t, archives[0].Forced)
	assert.Equal(t, first.ID, archives[1].ID)
}
