package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"royaltyengine/database"
	"royaltyengine/events"
	"royaltyengine/service"
)

// unitOfWork implements the service.UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	runRepo          service.RoyaltyRunRepository
	statementRepo    service.StatementRepository
	lineRepo         service.LineRepository
	archiveRepo      service.RollbackArchiveRepository
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.runRepo = newRoyaltyRunRepositoryWithTx(tx)
	u.statementRepo = newStatementRepositoryWithTx(tx)
	u.lineRepo = newLineRepositoryWithTx(tx)
	u.archiveRepo = newRollbackArchiveRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction and flushes pending events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events only after a successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction and discards pending events
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// RunRepository returns the run repository for this unit of work
func (u *unitOfWork) RunRepository() service.RoyaltyRunRepository {
	if u.runRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.runRepo
}

// StatementRepository returns the statement repository for this unit of work
func (u *unitOfWork) StatementRepository() service.StatementRepository {
	if u.statementRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.statementRepo
}

// LineRepository returns the line repository for this unit of work
func (u *unitOfWork) LineRepository() service.LineRepository {
	if u.lineRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.lineRepo
}

// ArchiveRepository returns the rollback archive repository for this unit of work
func (u *unitOfWork) ArchiveRepository() service.RollbackArchiveRepository {
	if u.archiveRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.archiveRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
