package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"royaltyengine/models"
)

func fixedTermLicense(start, end time.Time, feeCents, revShareBps int64) *models.License {
	return &models.License{
		ID:          uuid.New(),
		AssetID:     uuid.New(),
		LicenseeID:  uuid.New(),
		FeeCents:    feeCents,
		RevShareBps: revShareBps,
		StartDate:   start,
		EndDate:     &end,
	}
}

func TestAggregateLicenseRevenue_ProRatedFlatFee(t *testing.T) {
	// 30-day license, 10 of its days fall inside the run period:
	// 3000 * 10 / 30 = 1000.
	license := fixedTermLicense(date(2026, 1, 1), date(2026, 1, 30), 3000, 0)

	revenue, err := AggregateLicenseRevenue(license, date(2026, 1, 21), date(2026, 2, 19), nil)
	require.NoError(t, err)
	require.NotNil(t, revenue)

	assert.Equal(t, int64(1000), revenue.FlatFeeCents)
	assert.Equal(t, int64(1000), revenue.RevenueCents)
	assert.True(t, revenue.Prorated)
	assert.Equal(t, 10, revenue.OverlapDays)
}

func TestAggregateLicenseRevenue_FullFeeWhenFullyContained(t *testing.T) {
	license := fixedTermLicense(date(2026, 1, 5), date(2026, 1, 14), 3000, 0)

	revenue, err := AggregateLicenseRevenue(license, date(2026, 1, 1), date(2026, 1, 31), nil)
	require.NoError(t, err)
	require.NotNil(t, revenue)

	assert.Equal(t, int64(3000), revenue.FlatFeeCents)
	assert.False(t, revenue.Prorated)
}

func TestAggregateLicenseRevenue_OpenEndedNeverProRated(t *testing.T) {
	license := &models.License{
		ID:        uuid.New(),
		AssetID:   uuid.New(),
		FeeCents:  5000,
		StartDate: date(2026, 1, 28),
	}

	// Active only 4 days of the period, but open-ended: full fee.
	revenue, err := AggregateLicenseRevenue(license, date(2026, 1, 1), date(2026, 1, 31), nil)
	require.NoError(t, err)
	require.NotNil(t, revenue)

	assert.Equal(t, int64(5000), revenue.FlatFeeCents)
	assert.False(t, revenue.Prorated)
}

func TestAggregateLicenseRevenue_NoOverlapYieldsNothing(t *testing.T) {
	license := fixedTermLicense(date(2025, 11, 1), date(2025, 11, 30), 3000, 0)

	revenue, err := AggregateLicenseRevenue(license, date(2026, 1, 1), date(2026, 1, 31), nil)
	require.NoError(t, err)
	assert.Nil(t, revenue)
}

func TestAggregateLicenseRevenue_UsageRevenueShare(t *testing.T) {
	license := fixedTermLicense(date(2026, 1, 1), date(2026, 1, 31), 0, 2500)

	usage := []*models.UsageEvent{
		{LicenseID: license.ID, AmountCents: 6000, OccurredAt: date(2026, 1, 10)},
		{LicenseID: license.ID, AmountCents: 4000, OccurredAt: date(2026, 1, 20)},
		// Outside the period: ignored.
		{LicenseID: license.ID, AmountCents: 99999, OccurredAt: date(2026, 2, 5)},
	}

	revenue, err := AggregateLicenseRevenue(license, date(2026, 1, 1), date(2026, 1, 31), usage)
	require.NoError(t, err)
	require.NotNil(t, revenue)

	// 10000 gross * 2500 bps = 2500, applied once on the summed gross.
	assert.Equal(t, int64(2500), revenue.UsageCents)
	assert.Equal(t, int64(2500), revenue.RevenueCents)
}

func TestAggregateLicenseRevenue_UsageShareRoundsHalfToEven(t *testing.T) {
	license := fixedTermLicense(date(2026, 1, 1), date(2026, 1, 31), 0, 5000)

	usage := []*models.UsageEvent{
		{LicenseID: license.ID, AmountCents: 333, OccurredAt: date(2026, 1, 10)},
	}

	revenue, err := AggregateLicenseRevenue(license, date(2026, 1, 1), date(2026, 1, 31), usage)
	require.NoError(t, err)

	// 333 * 5000 / 10000 = 166.5, banker's rounding lands on 166.
	assert.Equal(t, int64(166), revenue.UsageCents)
}

func TestAggregateLicenseRevenue_UsageOnlyInsideLicenseOverlap(t *testing.T) {
	// License covers only the first half of the period; usage reported in
	// the second half does not count.
	license := fixedTermLicense(date(2026, 1, 1), date(2026, 1, 15), 0, 10000)

	usage := []*models.UsageEvent{
		{LicenseID: license.ID, AmountCents: 1000, OccurredAt: date(2026, 1, 10)},
		{LicenseID: license.ID, AmountCents: 2000, OccurredAt: date(2026, 1, 25)},
	}

	revenue, err := AggregateLicenseRevenue(license, date(2026, 1, 1), date(2026, 1, 31), usage)
	require.NoError(t, err)

	assert.Equal(t, int64(1000), revenue.UsageCents)
}
