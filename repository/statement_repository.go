package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"royaltyengine/database"
	"royaltyengine/models"
)

const statementColumns = `
	id, run_id, creator_id, status, total_earnings_cents, platform_fee_cents,
	net_payable_cents, carryover_in_cents, carryover_out_cents,
	carryover_oldest_at, dispute_reason, resolution_notes, payment_reference,
	created_at, updated_at, disputed_at, resolved_at, paid_at
`

// StatementRepository implements the service.StatementRepository interface
type StatementRepository struct {
	q queryable
}

// NewStatementRepository creates a new statement repository
func NewStatementRepository(db *database.DB) *StatementRepository {
	return &StatementRepository{q: db.Pool}
}

// newStatementRepositoryWithTx creates a statement repository bound to a transaction
func newStatementRepositoryWithTx(tx queryable) *StatementRepository {
	return &StatementRepository{q: tx}
}

// Create inserts a statement and populates its ID
func (r *StatementRepository) Create(ctx context.Context, statement *models.RoyaltyStatement) error {
	query := `
		INSERT INTO royalty_statements
		(run_id, creator_id, status, total_earnings_cents, platform_fee_cents,
		 net_payable_cents, carryover_in_cents, carryover_out_cents, carryover_oldest_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		statement.RunID,
		statement.CreatorID,
		statement.Status,
		statement.TotalEarningsCents,
		statement.PlatformFeeCents,
		statement.NetPayableCents,
		statement.CarryoverInCents,
		statement.CarryoverOutCents,
		statement.CarryoverOldestAt,
	).Scan(&statement.ID, &statement.CreatedAt, &statement.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create statement for creator %s in run %d: %w",
			statement.CreatorID, statement.RunID, err)
	}

	return nil
}

// GetByID retrieves a statement by its ID
func (r *StatementRepository) GetByID(ctx context.Context, id int64) (*models.RoyaltyStatement, error) {
	query := `SELECT ` + statementColumns + ` FROM royalty_statements WHERE id = $1`
	return r.scanStatement(r.q.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves a statement and row-locks it
func (r *StatementRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.RoyaltyStatement, error) {
	query := `SELECT ` + statementColumns + ` FROM royalty_statements WHERE id = $1 FOR UPDATE`
	return r.scanStatement(r.q.QueryRow(ctx, query, id))
}

// GetByRun returns all statements for a run, ordered by creator ID so
// repeated calculations list identically
func (r *StatementRepository) GetByRun(ctx context.Context, runID int64) ([]*models.RoyaltyStatement, error) {
	query := `SELECT ` + statementColumns + ` FROM royalty_statements WHERE run_id = $1 ORDER BY creator_id`

	rows, err := r.q.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get statements for run %d: %w", runID, err)
	}
	defer rows.Close()

	return r.scanStatements(rows)
}

// Update persists a statement's mutable fields
func (r *StatementRepository) Update(ctx context.Context, statement *models.RoyaltyStatement) error {
	query := `
		UPDATE royalty_statements
		SET status = $2,
		    total_earnings_cents = $3,
		    platform_fee_cents = $4,
		    net_payable_cents = $5,
		    carryover_in_cents = $6,
		    carryover_out_cents = $7,
		    carryover_oldest_at = $8,
		    dispute_reason = $9,
		    resolution_notes = $10,
		    payment_reference = $11,
		    disputed_at = $12,
		    resolved_at = $13,
		    paid_at = $14,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		statement.ID,
		statement.Status,
		statement.TotalEarningsCents,
		statement.PlatformFeeCents,
		statement.NetPayableCents,
		statement.CarryoverInCents,
		statement.CarryoverOutCents,
		statement.CarryoverOldestAt,
		statement.DisputeReason,
		statement.ResolutionNotes,
		statement.PaymentReference,
		statement.DisputedAt,
		statement.ResolvedAt,
		statement.PaidAt,
	).Scan(&statement.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to update statement %d: %w", statement.ID, err)
	}

	return nil
}

// List returns statements matching the filter
func (r *StatementRepository) List(ctx context.Context, filter models.StatementFilter) ([]*models.RoyaltyStatement, error) {
	query := `SELECT ` + statementColumns + ` FROM royalty_statements WHERE TRUE`
	args := []any{}

	if filter.RunID != nil {
		args = append(args, *filter.RunID)
		query += fmt.Sprintf(" AND run_id = $%d", len(args))
	}
	if filter.CreatorID != nil {
		args = append(args, *filter.CreatorID)
		query += fmt.Sprintf(" AND creator_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	query += " ORDER BY id DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list statements: %w", err)
	}
	defer rows.Close()

	return r.scanStatements(rows)
}

// DeleteByRun hard-deletes all statements (lines cascade) for a run
func (r *StatementRepository) DeleteByRun(ctx context.Context, runID int64) error {
	_, err := r.q.Exec(ctx, `DELETE FROM royalty_statements WHERE run_id = $1`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete statements for run %d: %w", runID, err)
	}
	return nil
}

// CountPaidByRun returns how many statements in the run are paid
func (r *StatementRepository) CountPaidByRun(ctx context.Context, runID int64) (int, error) {
	var count int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM royalty_statements WHERE run_id = $1 AND status = 'paid'`,
		runID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count paid statements for run %d: %w", runID, err)
	}
	return count, nil
}

// GetPriorCarryover returns the carryover a creator brings into a run
// starting at periodStart. The balance lives on the creator's most recent
// statement from an earlier calculated or locked run; deleting a run's
// statements on rollback therefore restores the prior balance for free.
func (r *StatementRepository) GetPriorCarryover(ctx context.Context, creatorID uuid.UUID, periodStart time.Time) (*models.CarryoverBalance, error) {
	query := `
		SELECT s.carryover_out_cents, s.carryover_oldest_at
		FROM royalty_statements s
		JOIN royalty_runs r ON r.id = s.run_id
		WHERE s.creator_id = $1
		  AND r.period_end < $2
		  AND r.status IN ('calculated', 'locked')
		ORDER BY r.period_end DESC, s.id DESC
		LIMIT 1
	`

	balance := &models.CarryoverBalance{CreatorID: creatorID}
	err := r.q.QueryRow(ctx, query, creatorID, periodStart).Scan(
		&balance.BalanceCents,
		&balance.OldestUnpaidAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prior carryover for creator %s: %w", creatorID, err)
	}

	return balance, nil
}

// ListOutstandingCarryover returns the current nonzero carryover balance of
// every creator entering a run starting at periodStart. Like
// GetPriorCarryover, "current" means the creator's most recent statement
// from an earlier calculated or locked run.
func (r *StatementRepository) ListOutstandingCarryover(ctx context.Context, periodStart time.Time) ([]*models.CarryoverBalance, error) {
	query := `
		SELECT creator_id, carryover_out_cents, carryover_oldest_at
		FROM (
			SELECT DISTINCT ON (s.creator_id)
			       s.creator_id, s.carryover_out_cents, s.carryover_oldest_at
			FROM royalty_statements s
			JOIN royalty_runs r ON r.id = s.run_id
			WHERE r.period_end < $1
			  AND r.status IN ('calculated', 'locked')
			ORDER BY s.creator_id, r.period_end DESC, s.id DESC
		) latest
		WHERE carryover_out_cents > 0
		ORDER BY creator_id
	`

	rows, err := r.q.Query(ctx, query, periodStart)
	if err != nil {
		return nil, fmt.Errorf("failed to list outstanding carryover balances: %w", err)
	}
	defer rows.Close()

	var balances []*models.CarryoverBalance
	for rows.Next() {
		balance := &models.CarryoverBalance{}
		if err := rows.Scan(&balance.CreatorID, &balance.BalanceCents, &balance.OldestUnpaidAt); err != nil {
			return nil, fmt.Errorf("failed to scan carryover balance: %w", err)
		}
		balances = append(balances, balance)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read carryover balance rows: %w", err)
	}
	return balances, nil
}

func (r *StatementRepository) scanStatement(row pgx.Row) (*models.RoyaltyStatement, error) {
	var statement models.RoyaltyStatement

	err := row.Scan(
		&statement.ID,
		&statement.RunID,
		&statement.CreatorID,
		&statement.Status,
		&statement.TotalEarningsCents,
		&statement.PlatformFeeCents,
		&statement.NetPayableCents,
		&statement.CarryoverInCents,
		&statement.CarryoverOutCents,
		&statement.CarryoverOldestAt,
		&statement.DisputeReason,
		&statement.ResolutionNotes,
		&statement.PaymentReference,
		&statement.CreatedAt,
		&statement.UpdatedAt,
		&statement.DisputedAt,
		&statement.ResolvedAt,
		&statement.PaidAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan statement: %w", err)
	}

	return &statement, nil
}

func (r *StatementRepository) scanStatements(rows pgx.Rows) ([]*models.RoyaltyStatement, error) {
	var statements []*models.RoyaltyStatement
	for rows.Next() {
		statement, err := r.scanStatement(rows)
		if err != nil {
			return nil, err
		}
		statements = append(statements, statement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read statement rows: %w", err)
	}
	return statements, nil
}
