package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"royaltyengine/events"
	"royaltyengine/models"
)

// RoyaltyRunRepository defines the interface for royalty run data access
type RoyaltyRunRepository interface {
	// Create creates a new run record in draft
	Create(ctx context.Context, run *models.RoyaltyRun) error

	// GetByID retrieves a run by its ID
	GetByID(ctx context.Context, id int64) (*models.RoyaltyRun, error)

	// GetByIDForUpdate retrieves a run and row-locks it for the duration of
	// the transaction. Every mutating operation goes through this so that
	// concurrent lock/rollback/recalculate calls serialize on the run row.
	GetByIDForUpdate(ctx context.Context, id int64) (*models.RoyaltyRun, error)

	// Update persists a run's mutable fields
	Update(ctx context.Context, run *models.RoyaltyRun) error

	// List returns runs matching the filter, newest period first
	List(ctx context.Context, filter models.RunFilter) ([]*models.RoyaltyRun, error)

	// FindOverlapping returns non-failed runs whose period overlaps the
	// given inclusive date range
	FindOverlapping(ctx context.Context, periodStart, periodEnd time.Time) ([]*models.RoyaltyRun, error)

	// FindStuckProcessing returns runs that entered processing before the cutoff
	FindStuckProcessing(ctx context.Context, cutoff time.Time) ([]*models.RoyaltyRun, error)
}

// StatementRepository defines the interface for royalty statement data access
type StatementRepository interface {
	// Create inserts a statement and populates its ID
	Create(ctx context.Context, statement *models.RoyaltyStatement) error

	// GetByID retrieves a statement by its ID
	GetByID(ctx context.Context, id int64) (*models.RoyaltyStatement, error)

	// GetByIDForUpdate retrieves a statement and row-locks it
	GetByIDForUpdate(ctx context.Context, id int64) (*models.RoyaltyStatement, error)

	// GetByRun returns all statements for a run, ordered by creator ID
	GetByRun(ctx context.Context, runID int64) ([]*models.RoyaltyStatement, error)

	// Update persists a statement's mutable fields
	Update(ctx context.Context, statement *models.RoyaltyStatement) error

	// List returns statements matching the filter
	List(ctx context.Context, filter models.StatementFilter) ([]*models.RoyaltyStatement, error)

	// DeleteByRun hard-deletes all statements (and, via cascade, lines) for
	// a run. Used only by recalculation and rollback.
	DeleteByRun(ctx context.Context, runID int64) error

	// CountPaidByRun returns how many statements in the run are paid
	CountPaidByRun(ctx context.Context, runID int64) (int, error)

	// GetPriorCarryover returns the carryover balance a creator brings into
	// a run starting at periodStart: the carryover-out recorded on their
	// most recent statement from an earlier, surviving run. Returns nil if
	// the creator has no prior statement.
	GetPriorCarryover(ctx context.Context, creatorID uuid.UUID, periodStart time.Time) (*models.CarryoverBalance, error)

	// ListOutstandingCarryover returns every creator's current nonzero
	// carryover balance entering a run that starts at periodStart, so the
	// calculation can surface aged balances even for creators with no
	// earnings this period.
	ListOutstandingCarryover(ctx context.Context, periodStart time.Time) ([]*models.CarryoverBalance, error)
}

// LineRepository defines the interface for royalty line data access
type LineRepository interface {
	// CreateBatch inserts lines and populates their IDs
	CreateBatch(ctx context.Context, lines []*models.RoyaltyLine) error

	// GetByStatement returns a statement's lines in insertion order
	GetByStatement(ctx context.Context, statementID int64) ([]*models.RoyaltyLine, error)

	// GetByRun returns all lines belonging to a run's statements
	GetByRun(ctx context.Context, runID int64) ([]*models.RoyaltyLine, error)
}

// RollbackArchiveRepository defines the interface for rollback archives.
// Archives are append-only; there is deliberately no update or delete.
type RollbackArchiveRepository interface {
	// Create writes an immutable archive record
	Create(ctx context.Context, archive *models.RollbackArchive) error

	// GetByID retrieves an archive by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.RollbackArchive, error)

	// GetByRun returns all archives for a run, newest first
	GetByRun(ctx context.Context, runID int64) ([]*models.RollbackArchive, error)
}

// LicenseProvider supplies licenses and ownership shares from the upstream
// licensing system. Read-only: the engine never mutates licenses.
type LicenseProvider interface {
	// ListActiveLicenses returns licenses active (even partially) during
	// the inclusive date range
	ListActiveLicenses(ctx context.Context, periodStart, periodEnd time.Time) ([]*models.License, error)

	// GetOwnershipShares returns the ownership shares for an asset
	GetOwnershipShares(ctx context.Context, assetID uuid.UUID) ([]*models.OwnershipShare, error)
}

// UsageEventSource supplies reported usage events for a license. Event
// amounts are gross revenue; the engine applies the license's revenue share.
type UsageEventSource interface {
	// ListUsageEvents returns events for the license whose timestamps fall
	// within the inclusive date range
	ListUsageEvents(ctx context.Context, licenseID uuid.UUID, periodStart, periodEnd time.Time) ([]*models.UsageEvent, error)
}

// NotificationSink delivers statement notifications. Fire-and-forget:
// failures are logged and never abort engine operations.
type NotificationSink interface {
	Notify(ctx context.Context, creatorID uuid.UUID, statementID int64, event string) error
}

// DocumentRenderer renders statement exports. Consumed on demand.
type DocumentRenderer interface {
	RenderStatementDocument(ctx context.Context, statementID int64, format string) ([]byte, error)
}

// CalculationQueue hands run calculations to a background executor so the
// processing phase never runs inline in a request handler
type CalculationQueue interface {
	Enqueue(runID int64)
}

// RunService defines the interface for royalty run operations
type RunService interface {
	// CreateRun creates a draft run for the period. With autoCalculate the
	// run is immediately claimed for processing and queued for execution.
	CreateRun(ctx context.Context, periodStart, periodEnd time.Time, notes, createdBy string, autoCalculate bool) (*models.RoyaltyRun, error)

	// Recalculate claims the run for processing and queues it. A calculated
	// run is only recalculated when force is set; prior output is fully
	// replaced, never merged.
	Recalculate(ctx context.Context, runID int64, force bool) (*models.RoyaltyRun, error)

	// ExecuteCalculation performs the processing phase for a claimed run:
	// aggregation, splitting, thresholding and the atomic statement write.
	// Called by the background executor.
	ExecuteCalculation(ctx context.Context, runID int64) (*models.RoyaltyRun, error)

	// ReviewRun approves or rejects a calculated run. Approval locks the
	// run, which requires an error-free validation report; overrideWarnings
	// permits locking with warnings, never with errors.
	ReviewRun(ctx context.Context, runID int64, approve bool, reviewNotes, reviewedBy string, overrideWarnings bool) (*models.RoyaltyRun, error)

	// RollbackRun archives and deletes a run's calculation output and
	// returns the run to draft. Refused while any statement is paid unless
	// force is set.
	RollbackRun(ctx context.Context, runID int64, reason, requestedBy string, extra map[string]interface{}, force bool) (*models.RoyaltyRun, error)

	// ResetFailedRun manually returns a failed run to draft
	ResetFailedRun(ctx context.Context, runID int64) (*models.RoyaltyRun, error)

	// GetRun retrieves a run by ID
	GetRun(ctx context.Context, runID int64) (*models.RoyaltyRun, error)

	// ListRuns returns runs matching the filter
	ListRuns(ctx context.Context, filter models.RunFilter) ([]*models.RoyaltyRun, error)

	// FailStuckRuns transitions processing runs older than the cutoff to
	// failed, for operator visibility after a crash. Returns the count.
	FailStuckRuns(ctx context.Context, cutoff time.Time) (int, error)
}

// ValidationService defines the interface for run validation
type ValidationService interface {
	// ValidateRun independently re-derives a calculated run's totals and
	// invariants and reports errors and warnings
	ValidateRun(ctx context.Context, runID int64) (*models.ValidationReport, error)
}

// StatementService defines the interface for statement lifecycle operations
type StatementService interface {
	// GetStatement retrieves a statement with its lines
	GetStatement(ctx context.Context, statementID int64) (*models.StatementDetail, error)

	// ListStatements returns statements matching the filter
	ListStatements(ctx context.Context, filter models.StatementFilter) ([]*models.RoyaltyStatement, error)

	// MarkReviewed transitions pending statements of a run to reviewed
	MarkReviewed(ctx context.Context, runID int64) (int, error)

	// DisputeStatement records a creator dispute with a reason
	DisputeStatement(ctx context.Context, statementID int64, creatorID uuid.UUID, reason string) (*models.RoyaltyStatement, error)

	// ResolveDispute resolves a disputed statement, optionally appending a
	// signed adjustment line. A nonzero adjustment requires a reason.
	ResolveDispute(ctx context.Context, statementID int64, resolution string, adjustmentCents int64, adjustmentReason, resolvedBy string) (*models.RoyaltyStatement, error)

	// MarkPaid records the external payout processor's reference and moves
	// the statement to the terminal paid state
	MarkPaid(ctx context.Context, statementID int64, paymentReference uuid.UUID) (*models.RoyaltyStatement, error)

	// RenderDocument exports a statement via the document renderer
	RenderDocument(ctx context.Context, statementID int64, format string) ([]byte, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction and discards pending events
	Rollback() error

	// Repository getters
	RunRepository() RoyaltyRunRepository
	StatementRepository() StatementRepository
	LineRepository() LineRepository
	ArchiveRepository() RollbackArchiveRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
