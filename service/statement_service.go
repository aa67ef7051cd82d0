package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"royaltyengine/events"
	"royaltyengine/models"
)

const minDisputeReasonLength = 10

type statementService struct {
	uowFactory UnitOfWorkFactory
	renderer   DocumentRenderer
}

// NewStatementService creates a new statement lifecycle service
func NewStatementService(uowFactory UnitOfWorkFactory, renderer DocumentRenderer) StatementService {
	return &statementService{
		uowFactory: uowFactory,
		renderer:   renderer,
	}
}

// GetStatement retrieves a statement with its lines
func (s *statementService) GetStatement(ctx context.Context, statementID int64) (*models.StatementDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	statement, err := uow.StatementRepository().GetByID(ctx, statementID)
	if err != nil {
		return nil, err
	}
	if statement == nil {
		return nil, ErrNotFound
	}

	lines, err := uow.LineRepository().GetByStatement(ctx, statementID)
	if err != nil {
		return nil, err
	}

	return &models.StatementDetail{Statement: statement, Lines: lines}, nil
}

// ListStatements returns statements matching the filter
func (s *statementService) ListStatements(ctx context.Context, filter models.StatementFilter) ([]*models.RoyaltyStatement, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.StatementRepository().List(ctx, filter)
}

// MarkReviewed transitions every pending statement of a run to reviewed and
// returns how many changed. Disputed statements are left alone.
func (s *statementService) MarkReviewed(ctx context.Context, runID int64) (int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	run, err := uow.RunRepository().GetByID(ctx, runID)
	if err != nil {
		return 0, err
	}
	if run == nil {
		return 0, ErrNotFound
	}

	statements, err := uow.StatementRepository().GetByRun(ctx, runID)
	if err != nil {
		return 0, err
	}

	reviewed := 0
	for _, statement := range statements {
		if !statement.CanMarkReviewed() {
			continue
		}
		statement.Status = models.StatementStatusReviewed
		if err := uow.StatementRepository().Update(ctx, statement); err != nil {
			return 0, err
		}
		reviewed++
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return reviewed, nil
}

// DisputeStatement records a creator dispute. Disputing does not unlock the
// run or change any amounts; it flags the statement for resolution.
func (s *statementService) DisputeStatement(ctx context.Context, statementID int64, creatorID uuid.UUID, reason string) (*models.RoyaltyStatement, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) < minDisputeReasonLength {
		return nil, NewInputError("reason", fmt.Sprintf("dispute reason must be at least %d characters", minDisputeReasonLength))
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	statement, err := uow.StatementRepository().GetByIDForUpdate(ctx, statementID)
	if err != nil {
		return nil, err
	}
	if statement == nil {
		return nil, ErrNotFound
	}
	if statement.CreatorID != creatorID {
		return nil, NewInputError("creatorId", "statement belongs to a different creator")
	}
	if !statement.CanDispute() {
		return nil, NewStatementStateError("dispute", statement.Status, "pending or reviewed")
	}

	now := time.Now().UTC()
	statement.Status = models.StatementStatusDisputed
	statement.DisputeReason = reason
	statement.DisputedAt = &now
	if err := uow.StatementRepository().Update(ctx, statement); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.StatementDisputedEvent{
		StatementID: statementID,
		CreatorID:   creatorID,
		Reason:      reason,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"statementID": statementID,
		"creatorID":   creatorID,
	}).Info("Statement disputed")

	return statement, nil
}

// ResolveDispute resolves a disputed statement. A nonzero adjustment is
// recorded as a signed adjustment line; the original standard lines are
// never altered, so the statement stays auditable.
func (s *statementService) ResolveDispute(ctx context.Context, statementID int64, resolution string, adjustmentCents int64, adjustmentReason, resolvedBy string) (*models.RoyaltyStatement, error) {
	resolution = strings.TrimSpace(resolution)
	if resolution == "" {
		return nil, NewInputError("resolution", "resolution notes are required")
	}
	if adjustmentCents != 0 && strings.TrimSpace(adjustmentReason) == "" {
		return nil, NewInputError("adjustmentReason", "a nonzero adjustment requires a reason")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	statement, err := uow.StatementRepository().GetByID(ctx, statementID)
	if err != nil {
		return nil, err
	}
	if statement == nil {
		return nil, ErrNotFound
	}

	// Lock the run row first: it is the mutex for everything that touches
	// the run's totals, and adjustments change them.
	run, err := uow.RunRepository().GetByIDForUpdate(ctx, statement.RunID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, ErrNotFound
	}

	statement, err = uow.StatementRepository().GetByIDForUpdate(ctx, statementID)
	if err != nil {
		return nil, err
	}
	if statement == nil {
		return nil, ErrNotFound
	}
	if !statement.CanResolve() {
		return nil, NewStatementStateError("resolve", statement.Status, "disputed")
	}

	if adjustmentCents != 0 {
		line := &models.RoyaltyLine{
			StatementID:            statementID,
			Type:                   models.LineTypeAdjustment,
			CalculatedRoyaltyCents: adjustmentCents,
			Description:            fmt.Sprintf("dispute adjustment by %s: %s", resolvedBy, strings.TrimSpace(adjustmentReason)),
		}
		if err := uow.LineRepository().CreateBatch(ctx, []*models.RoyaltyLine{line}); err != nil {
			return nil, err
		}

		statement.TotalEarningsCents += adjustmentCents
		if statement.CarryoverOutCents > 0 {
			// Withheld statement: the adjustment rides the carryover
			// forward instead of becoming immediately payable.
			statement.CarryoverOutCents += adjustmentCents
		} else {
			statement.NetPayableCents = statement.TotalEarningsCents - statement.PlatformFeeCents
		}

		// The run's stored royalty total must track its lines, adjustment
		// lines included, or the run would fail validation ever after.
		run.TotalRoyaltiesCents += adjustmentCents
		if err := uow.RunRepository().Update(ctx, run); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	statement.Status = models.StatementStatusResolved
	statement.ResolutionNotes = fmt.Sprintf("[%s] %s", resolvedBy, resolution)
	statement.ResolvedAt = &now
	if err := uow.StatementRepository().Update(ctx, statement); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.StatementResolvedEvent{
		StatementID:     statementID,
		CreatorID:       statement.CreatorID,
		AdjustmentCents: adjustmentCents,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"statementID":     statementID,
		"adjustmentCents": adjustmentCents,
		"resolvedBy":      resolvedBy,
	}).Info("Statement dispute resolved")

	return statement, nil
}

// MarkPaid records the external payout reference and moves the statement to
// the terminal paid state
func (s *statementService) MarkPaid(ctx context.Context, statementID int64, paymentReference uuid.UUID) (*models.RoyaltyStatement, error) {
	if paymentReference == uuid.Nil {
		return nil, NewInputError("paymentReference", "payment reference is required")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	statement, err := uow.StatementRepository().GetByIDForUpdate(ctx, statementID)
	if err != nil {
		return nil, err
	}
	if statement == nil {
		return nil, ErrNotFound
	}
	if !statement.CanMarkPaid() {
		return nil, NewStatementStateError("mark paid", statement.Status, "reviewed or resolved")
	}
	if statement.NetPayableCents <= 0 {
		return nil, NewInputError("statementId", "statement has no payable amount")
	}

	now := time.Now().UTC()
	statement.Status = models.StatementStatusPaid
	statement.PaymentReference = &paymentReference
	statement.PaidAt = &now
	if err := uow.StatementRepository().Update(ctx, statement); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.StatementPaidEvent{
		StatementID:      statementID,
		CreatorID:        statement.CreatorID,
		PaymentReference: paymentReference,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"statementID":      statementID,
		"paymentReference": paymentReference,
		"netPayableCents":  statement.NetPayableCents,
	}).Info("Statement marked paid")

	return statement, nil
}

// RenderDocument exports a statement via the configured renderer
func (s *statementService) RenderDocument(ctx context.Context, statementID int64, format string) ([]byte, error) {
	// Confirm the statement exists before invoking the renderer so callers
	// get a 404 instead of a renderer error.
	if _, err := s.GetStatement(ctx, statementID); err != nil {
		return nil, err
	}
	return s.renderer.RenderStatementDocument(ctx, statementID, format)
}
