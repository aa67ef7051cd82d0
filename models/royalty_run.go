package models

import (
	"time"
)

// RunStatus represents the lifecycle state of a royalty run
type RunStatus string

const (
	RunStatusDraft      RunStatus = "draft"
	RunStatusProcessing RunStatus = "processing"
	RunStatusCalculated RunStatus = "calculated"
	RunStatusLocked     RunStatus = "locked"
	RunStatusFailed     RunStatus = "failed"
)

// RoyaltyRun represents one royalty calculation pass over a period.
// PeriodStart and PeriodEnd are inclusive whole UTC days.
type RoyaltyRun struct {
	ID                  int64                  `db:"id"`
	PeriodStart         time.Time              `db:"period_start"`
	PeriodEnd           time.Time              `db:"period_end"`
	Status              RunStatus              `db:"status"`
	TotalRevenueCents   int64                  `db:"total_revenue_cents"`
	TotalRoyaltiesCents int64                  `db:"total_royalties_cents"`
	StatementCount      int                    `db:"statement_count"`
	Notes               string                 `db:"notes"`
	FailureReason       string                 `db:"failure_reason"`
	PolicySnapshot      *PayoutPolicy          `db:"policy_snapshot"`
	ExecutionSummary    map[string]interface{} `db:"execution_summary"`
	CreatedBy           string                 `db:"created_by"`
	CreatedAt           time.Time              `db:"created_at"`
	UpdatedAt           time.Time              `db:"updated_at"`
	ProcessingStartedAt *time.Time             `db:"processing_started_at"`
	LockedAt            *time.Time             `db:"locked_at"`
	RolledBackAt        *time.Time             `db:"rolled_back_at"`
}

// runTransitions enumerates the legal status transitions. Recalculation of a
// calculated run re-enters processing; a failed run must be manually reset to
// draft before it can be calculated again.
var runTransitions = map[RunStatus][]RunStatus{
	RunStatusDraft:      {RunStatusProcessing},
	RunStatusProcessing: {RunStatusCalculated, RunStatusFailed},
	RunStatusCalculated: {RunStatusProcessing, RunStatusLocked},
	RunStatusFailed:     {RunStatusDraft},
	RunStatusLocked:     {},
}

// CanTransitionTo checks whether a status transition is legal
func (r *RoyaltyRun) CanTransitionTo(target RunStatus) bool {
	for _, allowed := range runTransitions[r.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// CanCalculate checks if the run may enter the processing phase
func (r *RoyaltyRun) CanCalculate() bool {
	return r.Status == RunStatusDraft || r.Status == RunStatusCalculated
}

// CanLock checks if the run may be locked
func (r *RoyaltyRun) CanLock() bool {
	return r.Status == RunStatusCalculated
}

// CanRollback checks if the run's calculation output may be rolled back
func (r *RoyaltyRun) CanRollback() bool {
	return r.Status == RunStatusCalculated || r.Status == RunStatusLocked
}

// IsLocked checks if the run is terminally locked
func (r *RoyaltyRun) IsLocked() bool {
	return r.Status == RunStatusLocked
}

// PeriodDays returns the number of whole days covered by the run period,
// counting both the start and end day.
func (r *RoyaltyRun) PeriodDays() int {
	return int(r.PeriodEnd.Sub(r.PeriodStart).Hours()/24) + 1
}

// ContainsDay checks whether a day falls inside the run period
func (r *RoyaltyRun) ContainsDay(day time.Time) bool {
	return !day.Before(r.PeriodStart) && !day.After(r.PeriodEnd)
}
