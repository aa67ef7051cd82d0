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

func TestStatementRepository_CreateAndGet(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	runRepo := NewRoyaltyRunRepository(testDB.DB)
	repo := NewStatementRepository(testDB.DB)
	ctx := context.Background()

	run := testutil.CreateTestRunWithStatus(
		testutil.Day(2025, time.January, 1), testutil.Day(2025, time.January, 31), models.RunStatusCalculated)
	require.NoError(t, runRepo.Create(ctx, run))

	t.Run("statement not found", func(t *testing.T) {
		statement, err := repo.GetByID(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, statement)
	})

	t.Run("create and retrieve", func(t *testing.T) {
		creatorID := uuid.New()
		statement := testutil.CreateTestStatement(run.ID, creatorID, 2000)

		err := repo.Create(ctx, statement)
		require.NoError(t, err)
		assert.NotZero(t, statement.ID)

		fetched, err := repo.GetByID(ctx, statement.ID)
		require.NoError(t, err)
		require.NotNil(t, fetched)

		assert.Equal(t, run.ID, fetched.RunID)
		assert.Equal(t, creatorID, fetched.CreatorID)
		assert.Equal(t, models.StatementStatusPending, fetched.Status)
		assert.Equal(t, int64(2000), fetched.TotalEarningsCents)
		assert.Equal(t, int64(300), fetched.PlatformFeeCents)
		assert.Equal(t, int64(1700), fetched.NetPayableCents)
		assert.Nil(t, fetched.PaidAt)
	})

	t.Run("one statement per creator per run", func(t *testing.T) {
		creatorID := uuid.New()
		require.NoError(t, repo.Create(ctx, testutil.CreateTestStatement(run.ID, creatorID, 1000)))

		err := repo.Create(ctx, testutil.CreateTestStatement(run.ID, creatorID, 2000))
		assert.Error(t, err)
	})
}

func TestStatementRepository_Update(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	runRepo := NewRoyaltyRunRepository(testDB.DB)
	repo := NewStatementRepository(testDB.DB)
	ctx := context.Background()

	run := testutil.CreateTestRunWithStatus(
		testutil.Day(2025, time.January, 1), testutil.Day(2025, time.January, 31), models.RunStatusLocked)
	require.NoError(t, runRepo.Create(ctx, run))

	statement := testutil.CreateTestStatement(run.ID, uuid.New(), 2000)
	require.NoError(t, repo.Create(ctx, statement))

	disputedAt := time.Now().UTC().Truncate(time.Microsecond)
	statement.Status = models.StatementStatusDisputed
	statement.DisputeReason = "missing usage for asset X"
	statement.DisputedAt = &disputedAt
	require.NoError(t, repo.Update(ctx, statement))

	fetched, err := repo.GetByID(ctx, statement.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)

	assert.Equal(t, models.StatementStatusDisputed, fetched.Status)
	assert.Equal(t, "missing usage for asset X", fetched.DisputeReason)
	require.NotNil(t, fetched.DisputedAt)
	assert.True(t, fetched.DisputedAt.Equal(disputedAt))
}

func TestStatementRepository_ListAndGetByRun(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	runRepo := NewRoyaltyRunRepository(testDB.DB)
	repo := NewStatementRepository(testDB.DB)
	ctx := context.Background()

	run := testutil.CreateTestRunWithStatus(
		testutil.Day(2025, time.January, 1), testutil.Day(2025, time.January, 31), models.RunStatusCalculated)
	require.NoError(t, runRepo.Create(ctx, run))

	creatorA := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	creatorB := uuid.MustParse("00000000-0000-0000-0000-00000000000b")

	// Insert out of creator order to prove ordering is by creator, not insertion
	statementB := testutil.CreateTestStatement(run.ID, creatorB, 3000)
	require.NoError(t, repo.Create(ctx, statementB))
	statementA := testutil.CreateTestStatement(run.ID, creatorA, 2000)
	require.NoError(t, repo.Create(ctx, statementA))

	statementB.Status = models.StatementStatusReviewed
	require.NoError(t, repo.Update(ctx, statementB))

	t.Run("get by run orders by creator", func(t *testing.T) {
		statements, err := repo.GetByRun(ctx, run.ID)
		require.NoError(t, err)
		require.Len(t, statements, 2)
		assert.Equal(t, creatorA, statements[0].CreatorID)
		assert.Equal(t, creatorB, statements[1].CreatorID)
	})

	t.Run("filter by creator", func(t *testing.T) {
		statements, err := repo.List(ctx, models.StatementFilter{CreatorID: &creatorA})
		require.NoError(t, err)
		require.Len(t, statements, 1)
		assert.Equal(t, statementA.ID, statements[0].ID)
	})

	t.Run("filter by status", func(t *testing.T) {
		status := models.StatementStatusReviewed
		statements, err := repo.List(ctx, models.StatementFilter{RunID: &run.ID, Status: &status})
		require.NoError(t, err)
		require.Len(t, statements, 1)
		assert.Equal(t, statementB.ID, statements[0].ID)
	})
}

func TestStatementRepository_DeleteByRunCascadesLines(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	runRepo := NewRoyaltyRunRepository(testDB.DB)
	repo := NewStatementRepository(testDB.DB)
	lineRepo := NewLineRepository(testDB.DB)
	ctx := context.Background()

	run := testutil.CreateTestRunWithStatus(
		testutil.Day(2025, time.January, 1), testutil.Day(2025, time.January, 31), models.RunStatusCalculated)
	require.NoError(t, runRepo.Create(ctx, run))

	statement := testutil.CreateTestStatement(run.ID, uuid.New(), 2000)
	require.NoError(t, repo.Create(ctx, statement))

	line := testutil.CreateTestLine(statement.ID, uuid.New(), uuid.New(), 2000, 10000, 2000)
	require.NoError(t, lineRepo.CreateBatch(ctx, []*models.RoyaltyLine{line}))

	require.NoError(t, repo.DeleteByRun(ctx, run.ID))

	statements, err := repo.GetByRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, statements)

	lines, err := lineRepo.GetByStatement(ctx, statement.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestStatementRepository_CountPaidByRun(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	runRepo := NewRoyaltyRunRepository(testDB.DB)
	repo := NewStatementRepository(testDB.DB)
	ctx := context.Background()

	run := testutil.CreateTestRunWithStatus(
		testutil.Day(2025, time.January, 1), testutil.Day(2025, time.January, 31), models.RunStatusLocked)
	require.NoError(t, runRepo.Create(ctx, run))

	paid := testutil.CreateTestStatement(run.ID, uuid.New(), 2000)
	require.NoError(t, repo.Create(ctx, paid))
	paidAt := time.Now().UTC()
	reference := uuid.New()
	paid.Status = models.StatementStatusPaid
	paid.PaymentReference = &reference
	paid.PaidAt = &paidAt
	require.NoError(t, repo.Update(ctx, paid))

	require.NoError(t, repo.Create(ctx, testutil.CreateTestStatement(run.ID, uuid.New(), 3000)))

	count, err := repo.CountPaidByRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStatementRepository_GetPriorCarryover(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	runRepo := NewRoyaltyRunRepository(testDB.DB)
	repo := NewStatementRepository(testDB.DB)
	ctx := context.Background()

	creatorID := uuid.New()
	oldestJanuary := testutil.Day(2025, time.January, 31)
	oldestFebruary := testutil.Day(2025, time.February, 28)

	january := testutil.CreateTestRunWithStatus(
		testutil.Day(2025, time.January, 1), testutil.Day(2025, time.January, 31), models.RunStatusLocked)
	require.NoError(t, runRepo.Create(ctx, january))
	require.NoError(t, repo.Create(ctx,
		testutil.CreateTestWithheldStatement(january.ID, creatorID, 500, oldestJanuary)))

	february := testutil.CreateTestRunWithStatus(
		testutil.Day(2025, time.February, 1), testutil.Day(2025, time.February, 28), models.RunStatusCalculated)
	require.NoError(t, runRepo.Create(ctx, february))
	require.NoError(t, repo.Create(ctx,
		testutil.CreateTestWithheldStatement(february.ID, creatorID, 900, oldestFebruary)))

	t.Run("no prior statements", func(t *testing.T) {
		balance, err := repo.GetPriorCarryover(ctx, uuid.New(), testutil.Day(2025, time.March, 1))
		require.NoError(t, err)
		assert.Nil(t, balance)
	})

	t.Run("most recent prior statement wins", func(t *testing.T) {
		balance, err := repo.GetPriorCarryover(ctx, creatorID, testutil.Day(2025, time.March, 1))
		require.NoError(t, err)
		require.NotNil(t, balance)
		assert.Equal(t, int64(900), balance.BalanceCents)
		require.NotNil(t, balance.OldestUnpaidAt)
		assert.True(t, balance.OldestUnpaidAt.Equal(oldestFebruary))
	})

	t.Run("only runs ending before the period start count", func(t *testing.T) {
		balance, err := repo.GetPriorCarryover(ctx, creatorID, testutil.Day(2025, time.February, 1))
		require.NoError(t, err)
		require.NotNil(t, balance)
		assert.Equal(t, int64(500), balance.BalanceCents)
	})

	t.Run("deleting a run's statements restores the earlier balance", func(t *testing.T) {
		require.NoError(t, repo.DeleteByRun(ctx, february.ID))

		balance, err := repo.GetPriorCarryover(ctx, creatorID, testutil.Day(2025, time.March, 1))
		require.NoError(t, err)
		require.NotNil(t, balance)
		assert.Equal(t, int64(500), balance.BalanceCents)
		require.NotNil(t, balance.OldestUnpaidAt)
		assert.True(t, balance.OldestUnpaidAt.Equal(oldestJanuary))
	})

	t.Run("draft runs are invisible to carryover", func(t *testing.T) {
		march := testutil.CreateTestRun(testutil.Day(2025, time.March, 1), testutil.Day(2025, time.March, 31))
		require.NoError(t, runRepo.Create(ctx, march))
		require.NoError(t, repo.Create(ctx,
			testutil.CreateTestWithheldStatement(march.ID, creatorID, 9999, testutil.Day(2025, time.March, 31))))

		balance, err := repo.GetPriorCarryover(ctx, creatorID, testutil.Day(2025, time.April, 1))
		require.NoError(t, err)
		require.NotNil(t, balance)
		assert.Equal(t, int64(500), balance.BalanceCents)
	})
}

func TestStatementRepository_ListOutstandingCarryover(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	runRepo := NewRoyaltyRunRepository(testDB.DB)
	repo := NewStatementRepository(testDB.DB)
	ctx := context.Background()

	carried := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	settled := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	oldestJanuary := testutil.Day(2025, time.January, 31)
	oldestFebruary := testutil.Day(2025, time.February, 28)

	january := testutil.CreateTestRunWithStatus(
		testutil.Day(2025, time.January, 1), testutil.Day(2025, time.January, 31), models.RunStatusLocked)
	require.NoError(t, runRepo.Create(ctx, january))
	require.NoError(t, repo.Create(ctx,
		testutil.CreateTestWithheldStatement(january.ID, carried, 500, oldestJanuary)))
	require.NoError(t, repo.Create(ctx,
		testutil.CreateTestWithheldStatement(january.ID, settled, 800, oldestJanuary)))

	// February grows one creator's balance and pays the other out, so only
	// the latest statements count and a zero balance drops off the list.
	february := testutil.CreateTestRunWithStatus(
		testutil.Day(2025, time.February, 1), testutil.Day(2025, time.February, 28), models.RunStatusCalculated)
	require.NoError(t, runRepo.Create(ctx, february))
	require.NoError(t, repo.Create(ctx,
		testutil.CreateTestWithheldStatement(february.ID, carried, 900, oldestFebruary)))
	require.NoError(t, repo.Create(ctx,
		testutil.CreateTestStatement(february.ID, settled, 2400)))

	// A draft run's statements are invisible until the run is calculated.
	march := testutil.CreateTestRun(testutil.Day(2025, time.March, 1), testutil.Day(2025, time.March, 31))
	require.NoError(t, runRepo.Create(ctx, march))
	require.NoError(t, repo.Create(ctx,
		testutil.CreateTestWithheldStatement(march.ID, carried, 9999, testutil.Day(2025, time.March, 31))))

	t.Run("latest nonzero balances only", func(t *testing.T) {
		balances, err := repo.ListOutstandingCarryover(ctx, testutil.Day(2025, time.March, 1))
		require.NoError(t, err)
		require.Len(t, balances, 1)
		assert.Equal(t, carried, balances[0].CreatorID)
		assert.Equal(t, int64(900), balances[0].BalanceCents)
		require.NotNil(t, balances[0].OldestUnpaidAt)
		assert.True(t, balances[0].OldestUnpaidAt.Equal(oldestFebruary))
	})

	t.Run("only runs ending before the period start count", func(t *testing.T) {
		balances, err := repo.ListOutstandingCarryover(ctx, testutil.Day(2025, time.February, 1))
		require.NoError(t, err)
		require.Len(t, balances, 2)
		assert.Equal(t, carried, balances[0].CreatorID)
		assert.Equal(t, int64(500), balances[0].BalanceCents)
		assert.Equal(t, settled, balances[1].CreatorID)
		assert.Equal(t, int64(800), balances[1].BalanceCents)
	})
}
