package service

import (
	"errors"
	"fmt"

	"royaltyengine/models"
)

// ErrNotFound indicates the requested run or statement does not exist
var ErrNotFound = errors.New("not found")

// InputError is a synchronous validation failure, reported with the
// offending field before any state change
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewInputError creates a field-level validation error
func NewInputError(field, message string) error {
	return &InputError{Field: field, Message: message}
}

// StateError is a rejected state transition, naming the current and
// required states explicitly
type StateError struct {
	Entity   string
	Current  string
	Required string
	Action   string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s %s in state %q (requires %s)", e.Action, e.Entity, e.Current, e.Required)
}

// NewRunStateError creates a state error for a run operation
func NewRunStateError(action string, current models.RunStatus, required string) error {
	return &StateError{Entity: "run", Current: string(current), Required: required, Action: action}
}

// NewStatementStateError creates a state error for a statement operation
func NewStatementStateError(action string, current models.StatementStatus, required string) error {
	return &StateError{Entity: "statement", Current: string(current), Required: required, Action: action}
}

// ConflictError is a concurrency conflict: a second writer lost the race
// for a run and is rejected rather than queued
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// NewConflictError creates a concurrency conflict error
func NewConflictError(format string, args ...interface{}) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// CalculationError aborts a whole run; it is stored on the run row as the
// machine-readable failure reason
type CalculationError struct {
	Code    string
	Message string
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewCalculationError creates a run-aborting calculation error
func NewCalculationError(code, format string, args ...interface{}) error {
	return &CalculationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsInputError checks whether err is a field validation error
func IsInputError(err error) bool {
	var target *InputError
	return errors.As(err, &target)
}

// IsStateError checks whether err is a rejected state transition
func IsStateError(err error) bool {
	var target *StateError
	return errors.As(err, &target)
}

// IsConflictError checks whether err is a concurrency conflict
func IsConflictError(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}
