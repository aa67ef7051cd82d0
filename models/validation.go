package models

import (
	"github.com/google/uuid"
)

// ValidationSeverity distinguishes blocking errors from advisory warnings
type ValidationSeverity string

const (
	ValidationSeverityError   ValidationSeverity = "error"
	ValidationSeverityWarning ValidationSeverity = "warning"
)

// ValidationIssue is one finding from the validation engine. Errors block
// locking; warnings may be overridden by an authorized reviewer.
type ValidationIssue struct {
	Severity    ValidationSeverity `json:"severity"`
	Code        string             `json:"code"`
	Message     string             `json:"message"`
	StatementID *int64             `json:"statement_id,omitempty"`
	AssetID     *uuid.UUID         `json:"asset_id,omitempty"`
	CreatorID   *uuid.UUID         `json:"creator_id,omitempty"`
}

// ValidationCheck records one check the validator performed, pass or fail
type ValidationCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// ValidationReport is the validator's independently re-derived view of a
// calculated run. IsValid is true exactly when there are no errors.
type ValidationReport struct {
	RunID     int64                  `json:"run_id"`
	IsValid   bool                   `json:"is_valid"`
	Errors    []ValidationIssue      `json:"errors"`
	Warnings  []ValidationIssue      `json:"warnings"`
	Checks    []ValidationCheck      `json:"validation_checks"`
	Summary   string                 `json:"summary"`
	Breakdown map[string]interface{} `json:"breakdown"`
}

// AddError appends a blocking issue and marks the report invalid
func (r *ValidationReport) AddError(issue ValidationIssue) {
	issue.Severity = ValidationSeverityError
	r.Errors = append(r.Errors, issue)
	r.IsValid = false
}

// AddWarning appends a non-blocking issue
func (r *ValidationReport) AddWarning(issue ValidationIssue) {
	issue.Severity = ValidationSeverityWarning
	r.Warnings = append(r.Warnings, issue)
}
