package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"royaltyengine/database"
	"royaltyengine/models"
)

const lineColumns = `
	id, statement_id, line_type, asset_id, license_id, revenue_cents,
	share_bps, calculated_royalty_cents, flat_fee_cents, usage_cents,
	prorated, description, created_at
`

// LineRepository implements the service.LineRepository interface
type LineRepository struct {
	q queryable
}

// NewLineRepository creates a new royalty line repository
func NewLineRepository(db *database.DB) *LineRepository {
	return &LineRepository{q: db.Pool}
}

// newLineRepositoryWithTx creates a line repository bound to a transaction
func newLineRepositoryWithTx(tx queryable) *LineRepository {
	return &LineRepository{q: tx}
}

// CreateBatch inserts lines in order and populates their IDs
func (r *LineRepository) CreateBatch(ctx context.Context, lines []*models.RoyaltyLine) error {
	query := `
		INSERT INTO royalty_lines
		(statement_id, line_type, asset_id, license_id, revenue_cents, share_bps,
		 calculated_royalty_cents, flat_fee_cents, usage_cents, prorated, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`

	// Insert sequentially so line IDs follow insertion order within the
	// transaction; line order within a statement is insertion order.
	for _, line := range lines {
		err := r.q.QueryRow(ctx, query,
			line.StatementID,
			line.Type,
			line.AssetID,
			line.LicenseID,
			line.RevenueCents,
			line.ShareBps,
			line.CalculatedRoyaltyCents,
			line.FlatFeeCents,
			line.UsageCents,
			line.Prorated,
			line.Description,
		).Scan(&line.ID, &line.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create %s line for statement %d: %w",
				line.Type, line.StatementID, err)
		}
	}

	return nil
}

// GetByStatement returns a statement's lines in insertion order
func (r *LineRepository) GetByStatement(ctx context.Context, statementID int64) ([]*models.RoyaltyLine, error) {
	query := `SELECT ` + lineColumns + ` FROM royalty_lines WHERE statement_id = $1 ORDER BY id`

	rows, err := r.q.Query(ctx, query, statementID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lines for statement %d: %w", statementID, err)
	}
	defer rows.Close()

	return r.scanLines(rows)
}

// GetByRun returns all lines belonging to a run's statements
func (r *LineRepository) GetByRun(ctx context.Context, runID int64) ([]*models.RoyaltyLine, error) {
	query := `
		SELECT l.id, l.statement_id, l.line_type, l.asset_id, l.license_id,
		       l.revenue_cents, l.share_bps, l.calculated_royalty_cents,
		       l.flat_fee_cents, l.usage_cents, l.prorated, l.description, l.created_at
		FROM royalty_lines l
		JOIN royalty_statements s ON s.id = l.statement_id
		WHERE s.run_id = $1
		ORDER BY l.statement_id, l.id
	`

	rows, err := r.q.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lines for run %d: %w", runID, err)
	}
	defer rows.Close()

	return r.scanLines(rows)
}

func (r *LineRepository) scanLines(rows pgx.Rows) ([]*models.RoyaltyLine, error) {
	var lines []*models.RoyaltyLine
	for rows.Next() {
		var line models.RoyaltyLine
		err := rows.Scan(
			&line.ID,
			&line.StatementID,
			&line.Type,
			&line.AssetID,
			&line.LicenseID,
			&line.RevenueCents,
			&line.ShareBps,
			&line.CalculatedRoyaltyCents,
			&line.FlatFeeCents,
			&line.UsageCents,
			&line.Prorated,
			&line.Description,
			&line.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan royalty line: %w", err)
		}
		lines = append(lines, &line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read royalty line rows: %w", err)
	}
	return lines, nil
}
