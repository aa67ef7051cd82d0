package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"royaltyengine/models"
)

type validationService struct {
	uowFactory UnitOfWorkFactory
	licenses   LicenseProvider
}

// NewValidationService creates a validation service that re-derives a run's
// totals independently of the calculation path
func NewValidationService(uowFactory UnitOfWorkFactory, licenses LicenseProvider) ValidationService {
	return &validationService{
		uowFactory: uowFactory,
		licenses:   licenses,
	}
}

// ValidateRun checks a calculated or locked run against its own persisted
// output: line sums against statement totals, statement totals against run
// totals, ownership shares re-fetched from the provider, and a handful of
// outlier heuristics that surface as warnings.
func (s *validationService) ValidateRun(ctx context.Context, runID int64) (*models.ValidationReport, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	run, err := uow.RunRepository().GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, ErrNotFound
	}
	if run.Status != models.RunStatusCalculated && !run.IsLocked() {
		return nil, NewRunStateError("validate", run.Status, "calculated or locked")
	}

	statements, err := uow.StatementRepository().GetByRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	lines, err := uow.LineRepository().GetByRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	report := &models.ValidationReport{
		RunID:   runID,
		IsValid: true,
	}

	linesByStatement := make(map[int64][]*models.RoyaltyLine)
	for _, line := range lines {
		linesByStatement[line.StatementID] = append(linesByStatement[line.StatementID], line)
	}

	s.checkStatementTotals(report, statements, linesByStatement)
	s.checkRunTotals(report, run, statements, lines)
	s.checkRevenueConservation(report, lines)
	s.checkOwnership(ctx, report, lines)
	s.checkExcludedAssets(report, run)
	s.checkOutliers(report, run, statements, lines)

	if report.IsValid {
		report.Summary = fmt.Sprintf("run %d passed %d checks with %d warning(s)",
			runID, len(report.Checks), len(report.Warnings))
	} else {
		report.Summary = fmt.Sprintf("run %d failed validation: %d error(s), %d warning(s)",
			runID, len(report.Errors), len(report.Warnings))
	}
	report.Breakdown = map[string]interface{}{
		"statements": len(statements),
		"lines":      len(lines),
		"errors":     len(report.Errors),
		"warnings":   len(report.Warnings),
	}

	return report, nil
}

func (s *validationService) addCheck(report *models.ValidationReport, name string, passed bool, detail string) {
	report.Checks = append(report.Checks, models.ValidationCheck{Name: name, Passed: passed, Detail: detail})
}

// checkStatementTotals verifies each statement's stored totals against its
// own lines: total earnings must equal the line sum, and a payable statement
// must net out to earnings minus platform fee.
func (s *validationService) checkStatementTotals(report *models.ValidationReport, statements []*models.RoyaltyStatement, linesByStatement map[int64][]*models.RoyaltyLine) {
	passed := true
	for _, statement := range statements {
		var lineSum int64
		for _, line := range linesByStatement[statement.ID] {
			lineSum += line.CalculatedRoyaltyCents
		}

		id := statement.ID
		creator := statement.CreatorID

		if lineSum != statement.TotalEarningsCents {
			passed = false
			report.AddError(models.ValidationIssue{
				Code:        "statement_total_mismatch",
				Message:     fmt.Sprintf("statement %d total earnings %d do not match line sum %d", id, statement.TotalEarningsCents, lineSum),
				StatementID: &id,
				CreatorID:   &creator,
			})
		}

		if statement.CarryoverOutCents > 0 {
			// Withheld: nothing payable, everything carried forward.
			if statement.NetPayableCents != 0 || statement.PlatformFeeCents != 0 {
				passed = false
				report.AddError(models.ValidationIssue{
					Code:        "withheld_statement_payable",
					Message:     fmt.Sprintf("statement %d carries %d cents forward but records a payable amount", id, statement.CarryoverOutCents),
					StatementID: &id,
					CreatorID:   &creator,
				})
			}
			if statement.CarryoverOutCents != statement.TotalEarningsCents+statement.CarryoverInCents {
				passed = false
				report.AddError(models.ValidationIssue{
					Code:        "carryover_leak",
					Message:     fmt.Sprintf("statement %d carryover out %d does not equal earnings %d plus carryover in %d", id, statement.CarryoverOutCents, statement.TotalEarningsCents, statement.CarryoverInCents),
					StatementID: &id,
					CreatorID:   &creator,
				})
			}
		} else if statement.NetPayableCents+statement.PlatformFeeCents != statement.TotalEarningsCents {
			passed = false
			report.AddError(models.ValidationIssue{
				Code:        "net_payable_mismatch",
				Message:     fmt.Sprintf("statement %d net payable %d plus platform fee %d does not equal total earnings %d", id, statement.NetPayableCents, statement.PlatformFeeCents, statement.TotalEarningsCents),
				StatementID: &id,
				CreatorID:   &creator,
			})
		}
	}
	s.addCheck(report, "statement_totals", passed, fmt.Sprintf("%d statements checked", len(statements)))
}

// checkRunTotals verifies the run's stored aggregates against its statements
func (s *validationService) checkRunTotals(report *models.ValidationReport, run *models.RoyaltyRun, statements []*models.RoyaltyStatement, lines []*models.RoyaltyLine) {
	passed := true

	if run.StatementCount != len(statements) {
		passed = false
		report.AddError(models.ValidationIssue{
			Code:    "statement_count_mismatch",
			Message: fmt.Sprintf("run records %d statements but %d exist", run.StatementCount, len(statements)),
		})
	}

	var lineSum int64
	for _, line := range lines {
		lineSum += line.CalculatedRoyaltyCents
	}
	if lineSum != run.TotalRoyaltiesCents {
		passed = false
		report.AddError(models.ValidationIssue{
			Code:    "run_royalties_mismatch",
			Message: fmt.Sprintf("run records %d total royalty cents but lines sum to %d", run.TotalRoyaltiesCents, lineSum),
		})
	}

	// Revenue is recorded once per (asset, license) pair; every line of the
	// pair repeats the same revenue figure.
	type pairKey struct{ asset, license uuid.UUID }
	revenueByPair := make(map[pairKey]int64)
	for _, line := range lines {
		if line.Type != models.LineTypeStandard || line.AssetID == nil || line.LicenseID == nil {
			continue
		}
		revenueByPair[pairKey{*line.AssetID, *line.LicenseID}] = line.RevenueCents
	}
	var revenueSum int64
	for _, revenue := range revenueByPair {
		revenueSum += revenue
	}
	if revenueSum != run.TotalRevenueCents {
		passed = false
		report.AddError(models.ValidationIssue{
			Code:    "run_revenue_mismatch",
			Message: fmt.Sprintf("run records %d total revenue cents but line revenue sums to %d", run.TotalRevenueCents, revenueSum),
		})
	}

	s.addCheck(report, "run_totals", passed, "")
}

// checkRevenueConservation verifies that splitting lost or created no cents:
// for every (asset, license) pair, the royalty lines sum exactly to the
// pair's revenue.
func (s *validationService) checkRevenueConservation(report *models.ValidationReport, lines []*models.RoyaltyLine) {
	type pairKey struct{ asset, license uuid.UUID }
	type pairTotals struct {
		revenueCents int64
		royaltyCents int64
		shareBps     int64
	}

	totals := make(map[pairKey]*pairTotals)
	for _, line := range lines {
		if line.Type != models.LineTypeStandard || line.AssetID == nil || line.LicenseID == nil {
			continue
		}
		key := pairKey{*line.AssetID, *line.LicenseID}
		t := totals[key]
		if t == nil {
			t = &pairTotals{revenueCents: line.RevenueCents}
			totals[key] = t
		}
		t.royaltyCents += line.CalculatedRoyaltyCents
		t.shareBps += line.ShareBps
	}

	passed := true
	for key, t := range totals {
		asset := key.asset
		if t.royaltyCents != t.revenueCents {
			passed = false
			report.AddError(models.ValidationIssue{
				Code:    "conservation_violation",
				Message: fmt.Sprintf("asset %s license %s: royalty lines sum to %d cents but revenue is %d", key.asset, key.license, t.royaltyCents, t.revenueCents),
				AssetID: &asset,
			})
		}
		if t.shareBps != models.TotalShareBps {
			passed = false
			report.AddError(models.ValidationIssue{
				Code:    "share_sum_mismatch",
				Message: fmt.Sprintf("asset %s license %s: line shares sum to %d bps, want %d", key.asset, key.license, t.shareBps, models.TotalShareBps),
				AssetID: &asset,
			})
		}
	}
	s.addCheck(report, "revenue_conservation", passed, fmt.Sprintf("%d asset-license pairs checked", len(totals)))
}

// checkOwnership re-fetches ownership shares from the provider for every
// asset that earned revenue in the run. Shares that changed since
// calculation surface as a warning (the stored lines remain the record);
// shares that no longer sum to 100% are an error.
func (s *validationService) checkOwnership(ctx context.Context, report *models.ValidationReport, lines []*models.RoyaltyLine) {
	assets := make(map[uuid.UUID]bool)
	for _, line := range lines {
		if line.Type == models.LineTypeStandard && line.AssetID != nil && line.RevenueCents != 0 {
			assets[*line.AssetID] = true
		}
	}

	passed := true
	for assetID := range assets {
		asset := assetID
		shares, err := s.licenses.GetOwnershipShares(ctx, assetID)
		if err != nil {
			report.AddWarning(models.ValidationIssue{
				Code:    "ownership_unavailable",
				Message: fmt.Sprintf("could not re-fetch ownership shares for asset %s: %v", assetID, err),
				AssetID: &asset,
			})
			continue
		}
		if len(shares) == 0 {
			passed = false
			report.AddError(models.ValidationIssue{
				Code:    "ownership_missing",
				Message: fmt.Sprintf("asset %s earned revenue but now has no ownership shares", assetID),
				AssetID: &asset,
			})
			continue
		}
		if sum := SumShareBps(shares); sum != models.TotalShareBps {
			passed = false
			report.AddError(models.ValidationIssue{
				Code:    "ownership_sum_invalid",
				Message: fmt.Sprintf("asset %s ownership shares currently sum to %d bps, want %d", assetID, sum, models.TotalShareBps),
				AssetID: &asset,
			})
		}
	}
	s.addCheck(report, "ownership_shares", passed, fmt.Sprintf("%d revenue-earning assets checked", len(assets)))
}

// checkExcludedAssets turns calculation-time exclusions into blocking errors
func (s *validationService) checkExcludedAssets(report *models.ValidationReport, run *models.RoyaltyRun) {
	excluded, _ := run.ExecutionSummary["excluded_assets"].([]interface{})
	// Summaries round-trip through JSONB, so the slice may arrive either
	// typed or as []interface{}.
	if typed, ok := run.ExecutionSummary["excluded_assets"].([]string); ok {
		for _, id := range typed {
			excluded = append(excluded, id)
		}
	}

	passed := len(excluded) == 0
	for _, raw := range excluded {
		id, _ := raw.(string)
		report.AddError(models.ValidationIssue{
			Code:    "asset_excluded",
			Message: fmt.Sprintf("asset %s was excluded during calculation (unresolvable ownership); resolve ownership and recalculate", id),
		})
	}
	s.addCheck(report, "excluded_assets", passed, "")
}

// checkOutliers raises advisory warnings for distributions a reviewer
// should eyeball before locking
func (s *validationService) checkOutliers(report *models.ValidationReport, run *models.RoyaltyRun, statements []*models.RoyaltyStatement, lines []*models.RoyaltyLine) {
	before := len(report.Warnings)

	if len(statements) > 1 {
		var total int64
		for _, statement := range statements {
			total += statement.TotalEarningsCents
		}
		mean := total / int64(len(statements))
		if mean > 0 {
			for _, statement := range statements {
				if statement.TotalEarningsCents > 3*mean {
					id := statement.ID
					creator := statement.CreatorID
					report.AddWarning(models.ValidationIssue{
						Code:        "earnings_outlier",
						Message:     fmt.Sprintf("statement %d earnings %d cents exceed 3x the run mean of %d cents", id, statement.TotalEarningsCents, mean),
						StatementID: &id,
						CreatorID:   &creator,
					})
				}
			}
		}
	}

	for _, statement := range statements {
		if statement.TotalEarningsCents == 0 && statement.CarryoverInCents == 0 {
			id := statement.ID
			creator := statement.CreatorID
			report.AddWarning(models.ValidationIssue{
				Code:        "zero_earnings",
				Message:     fmt.Sprintf("statement %d has zero earnings despite active licenses", id),
				StatementID: &id,
				CreatorID:   &creator,
			})
		}
	}

	var standard, prorated int
	for _, line := range lines {
		if line.Type != models.LineTypeStandard {
			continue
		}
		standard++
		if line.Prorated {
			prorated++
		}
	}
	if standard > 0 && prorated*2 > standard {
		report.AddWarning(models.ValidationIssue{
			Code:    "high_proration",
			Message: fmt.Sprintf("%d of %d royalty lines are pro-rated; verify the run period boundaries", prorated, standard),
		})
	}

	s.addCheck(report, "outliers", len(report.Warnings) == before,
		fmt.Sprintf("%d warning(s) raised", len(report.Warnings)-before))
}
