package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"royaltyengine/events"
	"royaltyengine/models"
)

type runService struct {
	uowFactory UnitOfWorkFactory
	licenses   LicenseProvider
	usage      UsageEventSource
	validator  ValidationService
	queue      CalculationQueue
	policy     *models.PayoutPolicy
}

// NewRunService creates a new royalty run service. The policy is the
// currently active payout policy; it is snapshotted onto each run when the
// run is claimed for processing.
func NewRunService(uowFactory UnitOfWorkFactory, licenses LicenseProvider, usage UsageEventSource, validator ValidationService, queue CalculationQueue, policy *models.PayoutPolicy) RunService {
	return &runService{
		uowFactory: uowFactory,
		licenses:   licenses,
		usage:      usage,
		validator:  validator,
		queue:      queue,
		policy:     policy,
	}
}

// CreateRun creates a draft run for the period
func (s *runService) CreateRun(ctx context.Context, periodStart, periodEnd time.Time, notes, createdBy string, autoCalculate bool) (*models.RoyaltyRun, error) {
	periodStart, periodEnd = DayStart(periodStart), DayStart(periodEnd)
	if periodEnd.Before(periodStart) {
		return nil, NewInputError("periodEnd", "must not precede periodStart")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Non-failed runs must never cover the same day twice. The database
	// enforces this with an exclusion constraint; checking here first
	// yields a field-level error instead of a constraint violation.
	overlapping, err := uow.RunRepository().FindOverlapping(ctx, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to check period overlap: %w", err)
	}
	if len(overlapping) > 0 {
		return nil, NewInputError("periodStart", fmt.Sprintf(
			"period overlaps existing run %d (%s to %s)",
			overlapping[0].ID,
			overlapping[0].PeriodStart.Format("2006-01-02"),
			overlapping[0].PeriodEnd.Format("2006-01-02")))
	}

	run := &models.RoyaltyRun{
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,
		Status:         models.RunStatusDraft,
		Notes:          notes,
		CreatedBy:      createdBy,
		PolicySnapshot: s.policy,
	}

	if err := uow.RunRepository().Create(ctx, run); err != nil {
		return nil, err
	}

	if autoCalculate {
		if err := s.claimForProcessing(ctx, uow, run); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if autoCalculate {
		s.queue.Enqueue(run.ID)
	}

	return run, nil
}

// Recalculate claims the run for processing and queues it for execution
func (s *runService) Recalculate(ctx context.Context, runID int64, force bool) (*models.RoyaltyRun, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	run, err := uow.RunRepository().GetByIDForUpdate(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, ErrNotFound
	}

	switch {
	case run.Status == models.RunStatusProcessing:
		return nil, NewConflictError("run %d is already being calculated", runID)
	case run.Status == models.RunStatusCalculated && !force:
		return nil, NewInputError("forceRecalculation",
			"run is already calculated; set forceRecalculation to replace its output")
	case !run.CanCalculate():
		return nil, NewRunStateError("recalculate", run.Status, "draft or calculated")
	}

	// Recalculation deletes the run's statements outright. Paid statements
	// are money already out the door, so they must be archived through a
	// rollback first, never silently replaced.
	if run.Status == models.RunStatusCalculated {
		paid, err := uow.StatementRepository().CountPaidByRun(ctx, runID)
		if err != nil {
			return nil, err
		}
		if paid > 0 {
			return nil, NewConflictError(
				"run %d has %d paid statements; roll the run back before recalculating", runID, paid)
		}
	}

	if err := s.claimForProcessing(ctx, uow, run); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.queue.Enqueue(run.ID)
	return run, nil
}

// claimForProcessing transitions a claimable run to processing and refreshes
// its policy snapshot. Callers hold the run row lock.
func (s *runService) claimForProcessing(ctx context.Context, uow UnitOfWork, run *models.RoyaltyRun) error {
	if !run.CanCalculate() {
		return NewRunStateError("calculate", run.Status, "draft or calculated")
	}

	now := time.Now().UTC()
	run.Status = models.RunStatusProcessing
	run.ProcessingStartedAt = &now
	run.FailureReason = ""
	run.PolicySnapshot = s.policy

	if err := uow.RunRepository().Update(ctx, run); err != nil {
		return err
	}
	return nil
}

// ExecuteCalculation performs the processing phase for a claimed run. The
// entire write — deleting any previous output, inserting statements and
// lines, updating the run — happens in one transaction, so a failure can
// never leave a half-calculated run behind.
func (s *runService) ExecuteCalculation(ctx context.Context, runID int64) (*models.RoyaltyRun, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	run, err := uow.RunRepository().GetByIDForUpdate(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, ErrNotFound
	}
	if run.Status != models.RunStatusProcessing {
		return nil, NewRunStateError("execute calculation for", run.Status, "processing")
	}

	if err := s.calculate(ctx, uow, run); err != nil {
		// Abort the whole run: roll back every partial write, then record
		// the failure reason in a fresh transaction.
		uow.Rollback()
		log.WithFields(log.Fields{
			"runID": runID,
			"error": err,
		}).Error("Royalty calculation failed")
		if failErr := s.markFailed(ctx, runID, err); failErr != nil {
			return nil, failErr
		}
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit calculation: %w", err)
	}

	log.WithFields(log.Fields{
		"runID":               run.ID,
		"totalRevenueCents":   run.TotalRevenueCents,
		"totalRoyaltiesCents": run.TotalRoyaltiesCents,
		"statements":          run.StatementCount,
	}).Info("Royalty run calculated")

	return run, nil
}

// pendingLine couples an allocation-derived royalty line with its creator
// before statements exist to attach it to
type pendingLine struct {
	creatorID uuid.UUID
	line      *models.RoyaltyLine
}

func (s *runService) calculate(ctx context.Context, uow UnitOfWork, run *models.RoyaltyRun) error {
	policy := run.PolicySnapshot
	if policy == nil {
		policy = s.policy
	}

	// Recalculation replaces previous output entirely, never merges.
	if err := uow.StatementRepository().DeleteByRun(ctx, run.ID); err != nil {
		return err
	}

	licenses, err := s.licenses.ListActiveLicenses(ctx, run.PeriodStart, run.PeriodEnd)
	if err != nil {
		return NewCalculationError("license_provider_unavailable", "failed to list active licenses: %v", err)
	}

	// Deterministic order keeps recalculations byte-identical.
	sort.Slice(licenses, func(i, j int) bool {
		return licenses[i].ID.String() < licenses[j].ID.String()
	})

	// Aggregate per-license revenue, grouped by asset.
	revenuesByAsset := make(map[uuid.UUID][]*LicenseRevenue)
	var assetIDs []uuid.UUID
	for _, license := range licenses {
		usage, err := s.usage.ListUsageEvents(ctx, license.ID, run.PeriodStart, run.PeriodEnd)
		if err != nil {
			return NewCalculationError("usage_source_unavailable",
				"failed to list usage events for license %s: %v", license.ID, err)
		}

		revenue, err := AggregateLicenseRevenue(license, run.PeriodStart, run.PeriodEnd, usage)
		if err != nil {
			return NewCalculationError("aggregation_failed",
				"failed to aggregate revenue for license %s: %v", license.ID, err)
		}
		if revenue == nil {
			continue // no active overlap: no line at all
		}

		if _, seen := revenuesByAsset[license.AssetID]; !seen {
			assetIDs = append(assetIDs, license.AssetID)
		}
		revenuesByAsset[license.AssetID] = append(revenuesByAsset[license.AssetID], revenue)
	}
	sort.Slice(assetIDs, func(i, j int) bool {
		return assetIDs[i].String() < assetIDs[j].String()
	})

	// Split each asset's license revenues across its ownership shares.
	var totalRevenueCents int64
	var pending []pendingLine
	var excludedAssets []string
	var proratedLines, standardLines int

	for _, assetID := range assetIDs {
		shares, err := s.licenses.GetOwnershipShares(ctx, assetID)
		if err != nil {
			return NewCalculationError("ownership_provider_unavailable",
				"failed to get ownership shares for asset %s: %v", assetID, err)
		}

		var assetRevenueCents int64
		for _, revenue := range revenuesByAsset[assetID] {
			assetRevenueCents += revenue.RevenueCents
		}

		if len(shares) == 0 {
			// Revenue with no resolvable owners is excluded, never
			// silently dropped: it is recorded on the run and surfaces
			// as a validation error that blocks locking.
			log.WithFields(log.Fields{
				"runID":        run.ID,
				"assetID":      assetID,
				"revenueCents": assetRevenueCents,
			}).Error("Asset has no resolvable ownership shares; excluding from run")
			excludedAssets = append(excludedAssets, assetID.String())
			continue
		}

		if sum := SumShareBps(shares); sum != models.TotalShareBps {
			if assetRevenueCents != 0 {
				return NewCalculationError("ownership_sum_mismatch",
					"asset %s ownership shares sum to %d bps, want %d", assetID, sum, models.TotalShareBps)
			}
			excludedAssets = append(excludedAssets, assetID.String())
			continue
		}

		for _, revenue := range revenuesByAsset[assetID] {
			allocations, err := SplitRevenue(revenue.RevenueCents, shares, SplitTieBreak(assetID, revenue.License.ID))
			if err != nil {
				return NewCalculationError("split_failed",
					"failed to split revenue for asset %s: %v", assetID, err)
			}

			licenseID := revenue.License.ID
			asset := assetID
			for _, allocation := range allocations {
				pending = append(pending, pendingLine{
					creatorID: allocation.CreatorID,
					line: &models.RoyaltyLine{
						Type:                   models.LineTypeStandard,
						AssetID:                &asset,
						LicenseID:              &licenseID,
						RevenueCents:           revenue.RevenueCents,
						ShareBps:               allocation.ShareBps,
						CalculatedRoyaltyCents: allocation.RoyaltyCents,
						FlatFeeCents:           revenue.FlatFeeCents,
						UsageCents:             revenue.UsageCents,
						Prorated:               revenue.Prorated,
					},
				})
				standardLines++
				if revenue.Prorated {
					proratedLines++
				}
			}
			totalRevenueCents += revenue.RevenueCents
		}
	}

	// Group lines by creator and apply the payout threshold.
	linesByCreator := make(map[uuid.UUID][]*models.RoyaltyLine)
	var creatorIDs []uuid.UUID
	for _, p := range pending {
		if _, seen := linesByCreator[p.creatorID]; !seen {
			creatorIDs = append(creatorIDs, p.creatorID)
		}
		linesByCreator[p.creatorID] = append(linesByCreator[p.creatorID], p.line)
	}

	// Creators whose carried balance has aged past the grace period (or
	// newly clears their threshold) must be paid even if they earned
	// nothing this period, so their balance cannot strand. A still-withheld
	// balance needs no new statement: it keeps riding the statement that
	// already carries it.
	outstanding, err := uow.StatementRepository().ListOutstandingCarryover(ctx, run.PeriodStart)
	if err != nil {
		return err
	}
	for _, balance := range outstanding {
		if _, active := linesByCreator[balance.CreatorID]; active {
			continue
		}
		decision, err := ApplyThreshold(balance.CreatorID, 0, balance, policy, run.PeriodEnd)
		if err != nil {
			return NewCalculationError("threshold_failed",
				"failed to apply payout threshold for creator %s: %v", balance.CreatorID, err)
		}
		if !decision.Payable {
			continue
		}
		creatorIDs = append(creatorIDs, balance.CreatorID)
		linesByCreator[balance.CreatorID] = nil
	}

	sort.Slice(creatorIDs, func(i, j int) bool {
		return creatorIDs[i].String() < creatorIDs[j].String()
	})

	var totalRoyaltiesCents int64
	var graceBypasses, withheldStatements int

	for _, creatorID := range creatorIDs {
		lines := linesByCreator[creatorID]

		var runEarningsCents int64
		for _, line := range lines {
			runEarningsCents += line.CalculatedRoyaltyCents
		}

		prior, err := uow.StatementRepository().GetPriorCarryover(ctx, creatorID, run.PeriodStart)
		if err != nil {
			return err
		}

		decision, err := ApplyThreshold(creatorID, runEarningsCents, prior, policy, run.PeriodEnd)
		if err != nil {
			return NewCalculationError("threshold_failed",
				"failed to apply payout threshold for creator %s: %v", creatorID, err)
		}

		statement := &models.RoyaltyStatement{
			RunID:             run.ID,
			CreatorID:         creatorID,
			Status:            models.StatementStatusPending,
			PlatformFeeCents:  decision.PlatformFeeCents,
			NetPayableCents:   decision.NetPayableCents,
			CarryoverInCents:  decision.CarryoverInCents,
			CarryoverOutCents: decision.CarryoverOutCents,
			CarryoverOldestAt: decision.CarryoverOldestAt,
		}

		// Statement totals are always the sum of the amount column over
		// every line regardless of type, so a payable statement that
		// consumed carryover carries a visible carryover line.
		if decision.Payable && decision.CarryoverInCents > 0 {
			lines = append(lines, &models.RoyaltyLine{
				Type:                   models.LineTypeCarryover,
				CalculatedRoyaltyCents: decision.CarryoverInCents,
				Description: fmt.Sprintf("carryover balance of %d cents consumed (below-threshold earnings from prior runs)",
					decision.CarryoverInCents),
			})
			statement.TotalEarningsCents = decision.EligibleCents
		} else {
			statement.TotalEarningsCents = runEarningsCents
		}

		if !decision.Payable {
			withheldStatements++
			lines = append(lines, &models.RoyaltyLine{
				Type: models.LineTypeThresholdNote,
				Description: fmt.Sprintf("eligible earnings %d cents below payout threshold %d cents; %d cents carried forward",
					decision.EligibleCents, decision.ThresholdCents, decision.CarryoverOutCents),
			})
		}
		if decision.GraceBypass {
			graceBypasses++
		}

		if err := uow.StatementRepository().Create(ctx, statement); err != nil {
			return err
		}
		for _, line := range lines {
			line.StatementID = statement.ID
		}
		if err := uow.LineRepository().CreateBatch(ctx, lines); err != nil {
			return err
		}

		for _, line := range lines {
			totalRoyaltiesCents += line.CalculatedRoyaltyCents
		}

		if decision.Payable && decision.NetPayableCents > 0 {
			uow.EventBus().Publish(events.StatementPayableEvent{
				StatementID:     statement.ID,
				CreatorID:       creatorID,
				NetPayableCents: decision.NetPayableCents,
			})
		}
	}

	run.Status = models.RunStatusCalculated
	run.TotalRevenueCents = totalRevenueCents
	run.TotalRoyaltiesCents = totalRoyaltiesCents
	run.StatementCount = len(creatorIDs)
	run.ExecutionSummary = map[string]interface{}{
		"licenses_processed":  len(licenses),
		"assets_processed":    len(assetIDs),
		"standard_lines":      standardLines,
		"prorated_lines":      proratedLines,
		"withheld_statements": withheldStatements,
		"grace_bypasses":      graceBypasses,
	}
	if len(excludedAssets) > 0 {
		run.ExecutionSummary["excluded_assets"] = excludedAssets
	}

	if err := uow.RunRepository().Update(ctx, run); err != nil {
		return err
	}

	uow.EventBus().Publish(events.RunCalculatedEvent{
		RunID:               run.ID,
		TotalRevenueCents:   run.TotalRevenueCents,
		TotalRoyaltiesCents: run.TotalRoyaltiesCents,
		StatementCount:      run.StatementCount,
	})

	return nil
}

// markFailed records a calculation failure on the run in its own transaction
func (s *runService) markFailed(ctx context.Context, runID int64, cause error) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	run, err := uow.RunRepository().GetByIDForUpdate(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return ErrNotFound
	}

	run.Status = models.RunStatusFailed
	run.FailureReason = cause.Error()
	if err := uow.RunRepository().Update(ctx, run); err != nil {
		return err
	}

	uow.EventBus().Publish(events.RunFailedEvent{RunID: runID, Reason: cause.Error()})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit failure status: %w", err)
	}
	return nil
}

// ReviewRun approves or rejects a calculated run. Approval locks the run.
func (s *runService) ReviewRun(ctx context.Context, runID int64, approve bool, reviewNotes, reviewedBy string, overrideWarnings bool) (*models.RoyaltyRun, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	run, err := uow.RunRepository().GetByIDForUpdate(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, ErrNotFound
	}
	if !run.CanLock() {
		return nil, NewRunStateError("review", run.Status, "calculated")
	}

	if reviewNotes != "" {
		if run.Notes != "" {
			run.Notes += "\n"
		}
		run.Notes += fmt.Sprintf("[review by %s] %s", reviewedBy, reviewNotes)
	}

	if !approve {
		// Rejection records the notes and leaves the run calculated for
		// correction and recalculation.
		if err := uow.RunRepository().Update(ctx, run); err != nil {
			return nil, err
		}
		if err := uow.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return run, nil
	}

	report, err := s.validator.ValidateRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to validate run %d: %w", runID, err)
	}
	if !report.IsValid {
		return nil, NewInputError("runId", fmt.Sprintf(
			"run has %d validation error(s) and cannot be locked: %s",
			len(report.Errors), report.Errors[0].Message))
	}
	if len(report.Warnings) > 0 && !overrideWarnings {
		return nil, NewInputError("overrideWarnings", fmt.Sprintf(
			"run has %d validation warning(s); set overrideWarnings to lock anyway",
			len(report.Warnings)))
	}

	// Approval marks undisputed pending statements reviewed.
	statements, err := uow.StatementRepository().GetByRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	for _, statement := range statements {
		if statement.CanMarkReviewed() {
			statement.Status = models.StatementStatusReviewed
			if err := uow.StatementRepository().Update(ctx, statement); err != nil {
				return nil, err
			}
		}
	}

	now := time.Now().UTC()
	run.Status = models.RunStatusLocked
	run.LockedAt = &now
	if err := uow.RunRepository().Update(ctx, run); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.RunLockedEvent{RunID: runID, ReviewedBy: reviewedBy})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"runID":      runID,
		"reviewedBy": reviewedBy,
		"warnings":   len(report.Warnings),
	}).Info("Royalty run locked")

	return run, nil
}

// RollbackRun archives and deletes a run's calculation output and returns
// the run to draft
func (s *runService) RollbackRun(ctx context.Context, runID int64, reason, requestedBy string, extra map[string]interface{}, force bool) (*models.RoyaltyRun, error) {
	if reason == "" {
		return nil, NewInputError("reason", "rollback requires a justification")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	run, err := uow.RunRepository().GetByIDForUpdate(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, ErrNotFound
	}
	if !run.CanRollback() {
		return nil, NewRunStateError("rollback", run.Status, "calculated or locked")
	}

	statements, err := uow.StatementRepository().GetByRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	paid := 0
	for _, statement := range statements {
		if statement.IsPaid() {
			paid++
		}
	}
	if paid > 0 {
		if !force {
			return nil, NewStatementStateError("rollback run containing",
				models.StatementStatusPaid, "no paid statements (or forceRollback)")
		}
		// The escape hatch: money already moved and we are deleting the
		// records that justified it. Loud by design.
		log.WithFields(log.Fields{
			"runID":          runID,
			"paidStatements": paid,
			"requestedBy":    requestedBy,
		}).Warn("FORCED rollback of run with paid statements")
	}

	lines, err := uow.LineRepository().GetByRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	archive := &models.RollbackArchive{
		RunID:       runID,
		Reason:      reason,
		Forced:      force && paid > 0,
		RequestedBy: requestedBy,
		Extra:       extra,
		Snapshot: &models.RunSnapshot{
			Run:        run,
			Statements: statements,
			Lines:      lines,
		},
	}
	if err := uow.ArchiveRepository().Create(ctx, archive); err != nil {
		return nil, err
	}

	if err := uow.StatementRepository().DeleteByRun(ctx, runID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	run.Status = models.RunStatusDraft
	run.TotalRevenueCents = 0
	run.TotalRoyaltiesCents = 0
	run.StatementCount = 0
	run.LockedAt = nil
	run.RolledBackAt = &now
	run.ExecutionSummary = nil
	if err := uow.RunRepository().Update(ctx, run); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.RunRolledBackEvent{
		RunID:     runID,
		ArchiveID: archive.ID,
		Forced:    archive.Forced,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"runID":       runID,
		"archiveID":   archive.ID,
		"requestedBy": requestedBy,
	}).Info("Royalty run rolled back")

	return run, nil
}

// ResetFailedRun manually returns a failed run to draft
func (s *runService) ResetFailedRun(ctx context.Context, runID int64) (*models.RoyaltyRun, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	run, err := uow.RunRepository().GetByIDForUpdate(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, ErrNotFound
	}
	if run.Status != models.RunStatusFailed {
		return nil, NewRunStateError("reset", run.Status, "failed")
	}

	run.Status = models.RunStatusDraft
	run.FailureReason = ""
	run.ProcessingStartedAt = nil
	if err := uow.RunRepository().Update(ctx, run); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return run, nil
}

// GetRun retrieves a run by ID
func (s *runService) GetRun(ctx context.Context, runID int64) (*models.RoyaltyRun, error) {
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
	return run, nil
}

// ListRuns returns runs matching the filter
func (s *runService) ListRuns(ctx context.Context, filter models.RunFilter) ([]*models.RoyaltyRun, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.RunRepository().List(ctx, filter)
}

// FailStuckRuns transitions processing runs older than the cutoff to failed
func (s *runService) FailStuckRuns(ctx context.Context, cutoff time.Time) (int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	stuck, err := uow.RunRepository().FindStuckProcessing(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	for _, run := range stuck {
		run.Status = models.RunStatusFailed
		run.FailureReason = fmt.Sprintf("processing timed out (started %s)",
			run.ProcessingStartedAt.Format(time.RFC3339))
		if err := uow.RunRepository().Update(ctx, run); err != nil {
			return 0, err
		}
		uow.EventBus().Publish(events.RunFailedEvent{RunID: run.ID, Reason: run.FailureReason})
		log.WithFields(log.Fields{
			"runID":     run.ID,
			"startedAt": run.ProcessingStartedAt,
		}).Warn("Failing stuck processing run")
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return len(stuck), nil
}
