package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"royaltyengine/database"
	"royaltyengine/models"
)

// RollbackArchiveRepository implements the service.RollbackArchiveRepository
// interface. Archives are append-only; there is no update or delete.
type RollbackArchiveRepository struct {
	q queryable
}

// NewRollbackArchiveRepository creates a new rollback archive repository
func NewRollbackArchiveRepository(db *database.DB) *RollbackArchiveRepository {
	return &RollbackArchiveRepository{q: db.Pool}
}

// newRollbackArchiveRepositoryWithTx creates an archive repository bound to a transaction
func newRollbackArchiveRepositoryWithTx(tx queryable) *RollbackArchiveRepository {
	return &RollbackArchiveRepository{q: tx}
}

// Create writes an immutable archive record
func (r *RollbackArchiveRepository) Create(ctx context.Context, archive *models.RollbackArchive) error {
	if archive.ID == uuid.Nil {
		archive.ID = uuid.New()
	}

	snapshotJSON, err := json.Marshal(archive.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal rollback snapshot: %w", err)
	}
	extraJSON, err := json.Marshal(archive.Extra)
	if err != nil {
		return fmt.Errorf("failed to marshal archive extra data: %w", err)
	}

	query := `
		INSERT INTO rollback_archives
		(id, run_id, reason, forced, requested_by, snapshot, extra)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err = r.q.QueryRow(ctx, query,
		archive.ID,
		archive.RunID,
		archive.Reason,
		archive.Forced,
		archive.RequestedBy,
		snapshotJSON,
		extraJSON,
	).Scan(&archive.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create rollback archive for run %d: %w", archive.RunID, err)
	}

	return nil
}

// GetByID retrieves an archive by its ID
func (r *RollbackArchiveRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.RollbackArchive, error) {
	query := `
		SELECT id, run_id, reason, forced, requested_by, snapshot, extra, created_at
		FROM rollback_archives
		WHERE id = $1
	`
	return r.scanArchive(r.q.QueryRow(ctx, query, id))
}

// GetByRun returns all archives for a run, newest first
func (r *RollbackArchiveRepository) GetByRun(ctx context.Context, runID int64) ([]*models.RollbackArchive, error) {
	query := `
		SELECT id, run_id, reason, forced, requested_by, snapshot, extra, created_at
		FROM rollback_archives
		WHERE run_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.q.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rollback archives for run %d: %w", runID, err)
	}
	defer rows.Close()

	var archives []*models.RollbackArchive
	for rows.Next() {
		archive, err := r.scanArchive(rows)
		if err != nil {
			return nil, err
		}
		archives = append(archives, archive)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rollback archive rows: %w", err)
	}
	return archives, nil
}

func (r *RollbackArchiveRepository) scanArchive(row pgx.Row) (*models.RollbackArchive, error) {
	var archive models.RollbackArchive
	var snapshotJSON, extraJSON []byte

	err := row.Scan(
		&archive.ID,
		&archive.RunID,
		&archive.Reason,
		&archive.Forced,
		&archive.RequestedBy,
		&snapshotJSON,
		&extraJSON,
		&archive.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan rollback archive: %w", err)
	}

	if len(snapshotJSON) > 0 {
		if err := json.Unmarshal(snapshotJSON, &archive.Snapshot); err != nil {
			return nil, fmt.Errorf("failed to unmarshal rollback snapshot: %w", err)
		}
	}
	if len(extraJSON) > 0 {
		if err := json.Unmarshal(extraJSON, &archive.Extra); err != nil {
			return nil, fmt.Errorf("failed to unmarshal archive extra data: %w", err)
		}
	}

	return &archive, nil
}
