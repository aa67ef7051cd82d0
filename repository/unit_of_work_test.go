package repository

import (
	"context"
	"testing"
	"time"

	"royaltyengine/events"
	"royaltyengine/models"
	"royaltyengine/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWork_CommitPersists(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	ctx := context.Background()

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))

	run := testutil.CreateTestRun(testutil.Day(2025, time.January, 1), testutil.Day(2025, time.January, 31))
	require.NoError(t, uow.RunRepository().Create(ctx, run))
	require.NoError(t, uow.Commit())

	fetched, err := NewRoyaltyRunRepository(testDB.DB).GetByID(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, models.RunStatusDraft, fetched.Status)
}

func TestUnitOfWork_RollbackDiscards(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	ctx := context.Background()

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))

	run := testutil.CreateTestRun(testutil.Day(2025, time.January, 1), testutil.Day(2025, time.January, 31))
	require.NoError(t, uow.RunRepository().Create(ctx, run))
	require.NoError(t, uow.Rollback())

	fetched, err := NewRoyaltyRunRepository(testDB.DB).GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched)
}

func TestUnitOfWork_RollbackAfterCommitIsNoop(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	ctx := context.Background()

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))

	run := testutil.CreateTestRun(testutil.Day(2025, time.January, 1), testutil.Day(2025, time.January, 31))
	require.NoError(t, uow.RunRepository().Create(ctx, run))
	require.NoError(t, uow.Commit())

	// The deferred rollback in service methods runs after commit; it must
	// neither error nor undo the committed work.
	require.NoError(t, uow.Rollback())

	fetched, err := NewRoyaltyRunRepository(testDB.DB).GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.NotNil(t, fetched)
}

func TestUnitOfWork_TransactionIsolation(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	ctx := context.Background()

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	defer uow.Rollback()

	run := testutil.CreateTestRun(testutil.Day(2025, time.January, 1), testutil.Day(2025, time.January, 31))
	require.NoError(t, uow.RunRepository().Create(ctx, run))

	// Uncommitted work is invisible outside the transaction
	fetched, err := NewRoyaltyRunRepository(testDB.DB).GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched)

	// But visible through the transaction's own repositories
	inTx, err := uow.RunRepository().GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.NotNil(t, inTx)
}
