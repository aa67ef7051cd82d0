package api

import (
	"time"

	"github.com/google/uuid"

	"royaltyengine/models"
)

const dateFormat = "2006-01-02"

type runResponse struct {
	ID                  int64                  `json:"id"`
	PeriodStart         string                 `json:"periodStart"`
	PeriodEnd           string                 `json:"periodEnd"`
	Status              models.RunStatus       `json:"status"`
	TotalRevenueCents   int64                  `json:"totalRevenueCents"`
	TotalRoyaltiesCents int64                  `json:"totalRoyaltiesCents"`
	StatementCount      int                    `json:"statementCount"`
	Notes               string                 `json:"notes,omitempty"`
	FailureReason       string                 `json:"failureReason,omitempty"`
	ExecutionSummary    map[string]interface{} `json:"executionSummary,omitempty"`
	CreatedBy           string                 `json:"createdBy,omitempty"`
	CreatedAt           time.Time              `json:"createdAt"`
	ProcessingStartedAt *time.Time             `json:"processingStartedAt,omitempty"`
	LockedAt            *time.Time             `json:"lockedAt,omitempty"`
	RolledBackAt        *time.Time             `json:"rolledBackAt,omitempty"`
}

func toRunResponse(run *models.RoyaltyRun) runResponse {
	return runResponse{
		ID:                  run.ID,
		PeriodStart:         run.PeriodStart.Format(dateFormat),
		PeriodEnd:           run.PeriodEnd.Format(dateFormat),
		Status:              run.Status,
		TotalRevenueCents:   run.TotalRevenueCents,
		TotalRoyaltiesCents: run.TotalRoyaltiesCents,
		StatementCount:      run.StatementCount,
		Notes:               run.Notes,
		FailureReason:       run.FailureReason,
		ExecutionSummary:    run.ExecutionSummary,
		CreatedBy:           run.CreatedBy,
		CreatedAt:           run.CreatedAt,
		ProcessingStartedAt: run.ProcessingStartedAt,
		LockedAt:            run.LockedAt,
		RolledBackAt:        run.RolledBackAt,
	}
}

func toRunResponses(runs []*models.RoyaltyRun) []runResponse {
	out := make([]runResponse, len(runs))
	for i, run := range runs {
		out[i] = toRunResponse(run)
	}
	return out
}

type statementResponse struct {
	ID                 int64                  `json:"id"`
	RunID              int64                  `json:"runId"`
	CreatorID          uuid.UUID              `json:"creatorId"`
	Status             models.StatementStatus `json:"status"`
	TotalEarningsCents int64                  `json:"totalEarningsCents"`
	PlatformFeeCents   int64                  `json:"platformFeeCents"`
	NetPayableCents    int64                  `json:"netPayableCents"`
	CarryoverInCents   int64                  `json:"carryoverInCents"`
	CarryoverOutCents  int64                  `json:"carryoverOutCents"`
	CarryoverOldestAt  *time.Time             `json:"carryoverOldestAt,omitempty"`
	DisputeReason      string                 `json:"disputeReason,omitempty"`
	ResolutionNotes    string                 `json:"resolutionNotes,omitempty"`
	PaymentReference   *uuid.UUID             `json:"paymentReference,omitempty"`
	DisputedAt         *time.Time             `json:"disputedAt,omitempty"`
	ResolvedAt         *time.Time             `json:"resolvedAt,omitempty"`
	PaidAt             *time.Time             `json:"paidAt,omitempty"`
}

func toStatementResponse(statement *models.RoyaltyStatement) statementResponse {
	return statementResponse{
		ID:                 statement.ID,
		RunID:              statement.RunID,
		CreatorID:          statement.CreatorID,
		Status:             statement.Status,
		TotalEarningsCents: statement.TotalEarningsCents,
		PlatformFeeCents:   statement.PlatformFeeCents,
		NetPayableCents:    statement.NetPayableCents,
		CarryoverInCents:   statement.CarryoverInCents,
		CarryoverOutCents:  statement.CarryoverOutCents,
		CarryoverOldestAt:  statement.CarryoverOldestAt,
		DisputeReason:      statement.DisputeReason,
		ResolutionNotes:    statement.ResolutionNotes,
		PaymentReference:   statement.PaymentReference,
		DisputedAt:         statement.DisputedAt,
		ResolvedAt:         statement.ResolvedAt,
		PaidAt:             statement.PaidAt,
	}
}

func toStatementResponses(statements []*models.RoyaltyStatement) []statementResponse {
	out := make([]statementResponse, len(statements))
	for i, statement := range statements {
		out[i] = toStatementResponse(statement)
	}
	return out
}

type lineResponse struct {
	ID           int64           `json:"id"`
	Type         models.LineType `json:"type"`
	AssetID      *uuid.UUID      `json:"assetId,omitempty"`
	LicenseID    *uuid.UUID      `json:"licenseId,omitempty"`
	RevenueCents int64           `json:"revenueCents"`
	ShareBps     int64           `json:"shareBps"`
	RoyaltyCents int64           `json:"royaltyCents"`
	FlatFeeCents int64           `json:"flatFeeCents"`
	UsageCents   int64           `json:"usageCents"`
	Prorated     bool            `json:"prorated"`
	Description  string          `json:"description,omitempty"`
}

type statementDetailResponse struct {
	statementResponse
	Lines []lineResponse `json:"lines"`
}

func toStatementDetailResponse(detail *models.StatementDetail) statementDetailResponse {
	out := statementDetailResponse{
		statementResponse: toStatementResponse(detail.Statement),
		Lines:             make([]lineResponse, len(detail.Lines)),
	}
	for i, line := range detail.Lines {
		out.Lines[i] = lineResponse{
			ID:           line.ID,
			Type:         line.Type,
			AssetID:      line.AssetID,
			LicenseID:    line.LicenseID,
			RevenueCents: line.RevenueCents,
			ShareBps:     line.ShareBps,
			RoyaltyCents: line.CalculatedRoyaltyCents,
			FlatFeeCents: line.FlatFeeCents,
			UsageCents:   line.UsageCents,
			Prorated:     line.Prorated,
			Description:  line.Description,
		}
	}
	return out
}
