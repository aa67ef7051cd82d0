package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"royaltyengine/database"
	"royaltyengine/models"
)

const runColumns = `
	id, period_start, period_end, status, total_revenue_cents,
	total_royalties_cents, statement_count, notes, failure_reason,
	policy_snapshot, execution_summary, created_by, created_at, updated_at,
	processing_started_at, locked_at, rolled_back_at
`

// RoyaltyRunRepository implements the service.RoyaltyRunRepository interface
type RoyaltyRunRepository struct {
	q queryable
}

// NewRoyaltyRunRepository creates a new royalty run repository
func NewRoyaltyRunRepository(db *database.DB) *RoyaltyRunRepository {
	return &RoyaltyRunRepository{q: db.Pool}
}

// newRoyaltyRunRepositoryWithTx creates a run repository bound to a transaction
func newRoyaltyRunRepositoryWithTx(tx queryable) *RoyaltyRunRepository {
	return &RoyaltyRunRepository{q: tx}
}

// Create creates a new run record
func (r *RoyaltyRunRepository) Create(ctx context.Context, run *models.RoyaltyRun) error {
	policyJSON, err := json.Marshal(run.PolicySnapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal policy snapshot: %w", err)
	}
	summaryJSON, err := json.Marshal(run.ExecutionSummary)
	if err != nil {
		return fmt.Errorf("failed to marshal execution summary: %w", err)
	}

	query := `
		INSERT INTO royalty_runs
		(period_start, period_end, status, notes, failure_reason, policy_snapshot, execution_summary, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err = r.q.QueryRow(ctx, query,
		run.PeriodStart,
		run.PeriodEnd,
		run.Status,
		run.Notes,
		run.FailureReason,
		policyJSON,
		summaryJSON,
		run.CreatedBy,
	).Scan(&run.ID, &run.CreatedAt, &run.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create royalty run for period %s to %s: %w",
			run.PeriodStart.Format("2006-01-02"), run.PeriodEnd.Format("2006-01-02"), err)
	}

	return nil
}

// GetByID retrieves a run by its ID
func (r *RoyaltyRunRepository) GetByID(ctx context.Context, id int64) (*models.RoyaltyRun, error) {
	query := `SELECT ` + runColumns + ` FROM royalty_runs WHERE id = $1`
	return r.scanRun(r.q.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves a run and row-locks it until the enclosing
// transaction ends. The run row is the mutex for all mutating operations.
func (r *RoyaltyRunRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.RoyaltyRun, error) {
	query := `SELECT ` + runColumns + ` FROM royalty_runs WHERE id = $1 FOR UPDATE`
	return r.scanRun(r.q.QueryRow(ctx, query, id))
}

// Update persists a run's mutable fields
func (r *RoyaltyRunRepository) Update(ctx context.Context, run *models.RoyaltyRun) error {
	policyJSON, err := json.Marshal(run.PolicySnapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal policy snapshot: %w", err)
	}
	summaryJSON, err := json.Marshal(run.ExecutionSummary)
	if err != nil {
		return fmt.Errorf("failed to marshal execution summary: %w", err)
	}

	query := `
		UPDATE royalty_runs
		SET status = $2,
		    total_revenue_cents = $3,
		    total_royalties_cents = $4,
		    statement_count = $5,
		    notes = $6,
		    failure_reason = $7,
		    policy_snapshot = $8,
		    execution_summary = $9,
		    processing_started_at = $10,
		    locked_at = $11,
		    rolled_back_at = $12,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err = r.q.QueryRow(ctx, query,
		run.ID,
		run.Status,
		run.TotalRevenueCents,
		run.TotalRoyaltiesCents,
		run.StatementCount,
		run.Notes,
		run.FailureReason,
		policyJSON,
		summaryJSON,
		run.ProcessingStartedAt,
		run.LockedAt,
		run.RolledBackAt,
	).Scan(&run.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to update royalty run %d: %w", run.ID, err)
	}

	return nil
}

// List returns runs matching the filter, newest period first
func (r *RoyaltyRunRepository) List(ctx context.Context, filter models.RunFilter) ([]*models.RoyaltyRun, error) {
	query := `SELECT ` + runColumns + ` FROM royalty_runs WHERE TRUE`
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.ContainsDay != nil {
		args = append(args, *filter.ContainsDay)
		query += fmt.Sprintf(" AND period_start <= $%d AND period_end >= $%d", len(args), len(args))
	}

	query += " ORDER BY period_start DESC, id DESC"

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
		return nil, fmt.Errorf("failed to list royalty runs: %w", err)
	}
	defer rows.Close()

	return r.scanRuns(rows)
}

// FindOverlapping returns non-failed runs overlapping the inclusive range
func (r *RoyaltyRunRepository) FindOverlapping(ctx context.Context, periodStart, periodEnd time.Time) ([]*models.RoyaltyRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM royalty_runs
		WHERE status <> 'failed'
		  AND period_start <= $2
		  AND period_end >= $1
		ORDER BY period_start
	`

	rows, err := r.q.Query(ctx, query, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping runs: %w", err)
	}
	defer rows.Close()

	return r.scanRuns(rows)
}

// FindStuckProcessing returns runs that entered processing before the cutoff
func (r *RoyaltyRunRepository) FindStuckProcessing(ctx context.Context, cutoff time.Time) ([]*models.RoyaltyRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM royalty_runs
		WHERE status = 'processing'
		  AND processing_started_at IS NOT NULL
		  AND processing_started_at < $1
		ORDER BY processing_started_at
	`

	rows, err := r.q.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to find stuck processing runs: %w", err)
	}
	defer rows.Close()

	return r.scanRuns(rows)
}

func (r *RoyaltyRunRepository) scanRun(row pgx.Row) (*models.RoyaltyRun, error) {
	var run models.RoyaltyRun
	var policyJSON, summaryJSON []byte

	err := row.Scan(
		&run.ID,
		&run.PeriodStart,
		&run.PeriodEnd,
		&run.Status,
		&run.TotalRevenueCents,
		&run.TotalRoyaltiesCents,
		&run.StatementCount,
		&run.Notes,
		&run.FailureReason,
		&policyJSON,
		&summaryJSON,
		&run.CreatedBy,
		&run.CreatedAt,
		&run.UpdatedAt,
		&run.ProcessingStartedAt,
		&run.LockedAt,
		&run.RolledBackAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan royalty run: %w", err)
	}

	if len(policyJSON) > 0 {
		if err := json.Unmarshal(policyJSON, &run.PolicySnapshot); err != nil {
			return nil, fmt.Errorf("failed to unmarshal policy snapshot: %w", err)
		}
	}
	if len(summaryJSON) > 0 {
		if err := json.Unmarshal(summaryJSON, &run.ExecutionSummary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal execution summary: %w", err)
		}
	}

	return &run, nil
}

func (r *RoyaltyRunRepository) scanRuns(rows pgx.Rows) ([]*models.RoyaltyRun, error) {
	var runs []*models.RoyaltyRun
	for rows.Next() {
		run, err := r.scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read royalty run rows: %w", err)
	}
	return runs, nil
}
