package models

import (
	"time"

	"github.com/google/uuid"
)

// StatementStatus represents the review state of a royalty statement
type StatementStatus string

const (
	StatementStatusPending  StatementStatus = "pending"
	StatementStatusReviewed StatementStatus = "reviewed"
	StatementStatusDisputed StatementStatus = "disputed"
	StatementStatusResolved StatementStatus = "resolved"
	StatementStatusPaid     StatementStatus = "paid"
)

// RoyaltyStatement aggregates one creator's royalty lines for one run.
// Statements are created only by the run orchestrator; afterwards only their
// status and adjustment lines may change, never the standard lines.
type RoyaltyStatement struct {
	ID                 int64           `db:"id"`
	RunID              int64           `db:"run_id"`
	CreatorID          uuid.UUID       `db:"creator_id"`
	Status             StatementStatus `db:"status"`
	TotalEarningsCents int64           `db:"total_earnings_cents"`
	PlatformFeeCents   int64           `db:"platform_fee_cents"`
	NetPayableCents    int64           `db:"net_payable_cents"`
	CarryoverInCents   int64           `db:"carryover_in_cents"`
	CarryoverOutCents  int64           `db:"carryover_out_cents"`
	CarryoverOldestAt  *time.Time      `db:"carryover_oldest_at"`
	DisputeReason      string          `db:"dispute_reason"`
	ResolutionNotes    string          `db:"resolution_notes"`
	PaymentReference   *uuid.UUID      `db:"payment_reference"`
	CreatedAt          time.Time       `db:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at"`
	DisputedAt         *time.Time      `db:"disputed_at"`
	ResolvedAt         *time.Time      `db:"resolved_at"`
	PaidAt             *time.Time      `db:"paid_at"`
}

// CanDispute checks if the statement can be disputed by its creator.
// Paid statements can never be disputed.
func (s *RoyaltyStatement) CanDispute() bool {
	return s.Status == StatementStatusPending || s.Status == StatementStatusReviewed
}

// CanResolve checks if a disputed statement can be resolved
func (s *RoyaltyStatement) CanResolve() bool {
	return s.Status == StatementStatusDisputed
}

// CanMarkReviewed checks if the statement can be marked reviewed
func (s *RoyaltyStatement) CanMarkReviewed() bool {
	return s.Status == StatementStatusPending
}

// CanMarkPaid checks if the statement can be marked paid
func (s *RoyaltyStatement) CanMarkPaid() bool {
	return s.Status == StatementStatusReviewed || s.Status == StatementStatusResolved
}

// IsPaid checks if the statement reached the terminal paid state
func (s *RoyaltyStatement) IsPaid() bool {
	return s.Status == StatementStatusPaid
}

// StatementDetail combines a statement with its lines
type StatementDetail struct {
	Statement *RoyaltyStatement
	Lines     []*RoyaltyLine
}

// StatementFilter narrows statement list queries
type StatementFilter struct {
	RunID     *int64
	CreatorID *uuid.UUID
	Status    *StatementStatus
	Limit     int
	Offset    int
}

// RunFilter narrows run list queries
type RunFilter struct {
	Status      *RunStatus
	ContainsDay *time.Time
	Limit       int
	Offset      int
}
