package service

import (
	"time"

	"royaltyengine/models"
	"royaltyengine/money"
)

// LicenseRevenue is the aggregated revenue owed for one license over one
// run period: a pro-rated flat fee plus the platform's share of reported
// usage revenue.
type LicenseRevenue struct {
	License      *models.License
	FlatFeeCents int64
	UsageCents   int64
	RevenueCents int64
	Prorated     bool
	OverlapDays  int
}

// AggregateLicenseRevenue computes a license's revenue for the period.
//
// Flat fee pro-ration uses the contracted license interval as denominator:
// a license active 10 of its 30 contracted days inside this period earns
// 10/30 of its fee. Open-ended licenses are not pro-rated; any positive
// overlap earns the full fee.
//
// Usage events report gross revenue, so the license's revenue share is
// applied here, exactly once, with banker's rounding at the final division.
// Partial sums are never rounded.
func AggregateLicenseRevenue(license *models.License, periodStart, periodEnd time.Time, usage []*models.UsageEvent) (*LicenseRevenue, error) {
	licenseEnd := periodEnd
	if license.EndDate != nil {
		licenseEnd = *license.EndDate
	}

	overlap, overlapStart, overlapEnd := OverlapDays(periodStart, periodEnd, license.StartDate, licenseEnd)
	if overlap == 0 {
		// Not active at all: no line, not even a zero one.
		return nil, nil
	}

	result := &LicenseRevenue{
		License:     license,
		OverlapDays: overlap,
	}

	// Pro-rated flat fee.
	if license.IsOpenEnded() {
		result.FlatFeeCents = license.FeeCents
	} else {
		contracted := license.ContractedDays()
		if overlap < contracted {
			result.FlatFeeCents = license.FeeCents * int64(overlap) / int64(contracted)
			result.Prorated = true
		} else {
			result.FlatFeeCents = license.FeeCents
		}
	}

	// Usage-based revenue: sum gross amounts inside the overlap window,
	// then apply the revenue share in a single rounded division.
	var grossUsage int64
	for _, event := range usage {
		if event.OccurredAt.Before(DayStart(overlapStart)) || event.OccurredAt.After(DayEnd(overlapEnd)) {
			continue
		}
		grossUsage += event.AmountCents
	}
	if grossUsage > 0 && license.RevShareBps > 0 {
		share, err := money.RoundHalfEven(grossUsage*license.RevShareBps, models.TotalShareBps)
		if err != nil {
			return nil, err
		}
		result.UsageCents = share
	}

	result.RevenueCents = result.FlatFeeCents + result.UsageCents
	return result, nil
}
