package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"royaltyengine/database"
	"royaltyengine/models"
	"royaltyengine/service"
)

// postgresLicenseProvider reads licenses and ownership shares from the shared
// platform database. The engine never writes to these tables.
type postgresLicenseProvider struct {
	db *database.DB
}

// NewPostgresLicenseProvider creates a license provider over the platform's
// licensing tables
func NewPostgresLicenseProvider(db *database.DB) service.LicenseProvider {
	return &postgresLicenseProvider{db: db}
}

func (p *postgresLicenseProvider) ListActiveLicenses(ctx context.Context, periodStart, periodEnd time.Time) ([]*models.License, error) {
	// Open-ended licenses (end_date IS NULL) are active from their start
	// date onwards.
	query := `
		SELECT id, asset_id, licensee_id, fee_cents, rev_share_bps, start_date, end_date
		FROM licenses
		WHERE start_date <= $2 AND (end_date IS NULL OR end_date >= $1)
		ORDER BY id`

	rows, err := p.db.Query(ctx, query, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to list active licenses: %w", err)
	}
	defer rows.Close()

	var licenses []*models.License
	for rows.Next() {
		license := &models.License{}
		if err := rows.Scan(&license.ID, &license.AssetID, &license.LicenseeID,
			&license.FeeCents, &license.RevShareBps, &license.StartDate, &license.EndDate); err != nil {
			return nil, fmt.Errorf("failed to scan license: %w", err)
		}
		licenses = append(licenses, license)
	}
	return licenses, rows.Err()
}

func (p *postgresLicenseProvider) GetOwnershipShares(ctx context.Context, assetID uuid.UUID) ([]*models.OwnershipShare, error) {
	query := `
		SELECT asset_id, creator_id, share_bps
		FROM ownership_shares
		WHERE asset_id = $1
		ORDER BY creator_id`

	rows, err := p.db.Query(ctx, query, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ownership shares: %w", err)
	}
	defer rows.Close()

	var shares []*models.OwnershipShare
	for rows.Next() {
		share := &models.OwnershipShare{}
		if err := rows.Scan(&share.AssetID, &share.CreatorID, &share.ShareBps); err != nil {
			return nil, fmt.Errorf("failed to scan ownership share: %w", err)
		}
		shares = append(shares, share)
	}
	return shares, rows.Err()
}
