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

// postgresUsageEventSource reads reported usage events from the shared
// platform database
type postgresUsageEventSource struct {
	db *database.DB
}

// NewPostgresUsageEventSource creates a usage event source over the
// platform's usage_events table
func NewPostgresUsageEventSource(db *database.DB) service.UsageEventSource {
	return &postgresUsageEventSource{db: db}
}

func (p *postgresUsageEventSource) ListUsageEvents(ctx context.Context, licenseID uuid.UUID, periodStart, periodEnd time.Time) ([]*models.UsageEvent, error) {
	// periodEnd is an inclusive day, so include every event up to its last
	// nanosecond.
	endOfDay := periodEnd.UTC().Truncate(24 * time.Hour).Add(24*time.Hour - time.Nanosecond)

	query := `
		SELECT id, license_id, amount_cents, occurred_at
		FROM usage_events
		WHERE license_id = $1 AND occurred_at >= $2 AND occurred_at <= $3
		ORDER BY occurred_at, id`

	rows, err := p.db.Query(ctx, query, licenseID, periodStart, endOfDay)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage events: %w", err)
	}
	defer rows.Close()

	var usage []*models.UsageEvent
	for rows.Next() {
		event := &models.UsageEvent{}
		if err := rows.Scan(&event.ID, &event.LicenseID, &event.AmountCents, &event.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan usage event: %w", err)
		}
		usage = append(usage, event)
	}
	return usage, rows.Err()
}
