package payroll

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrPayRunNotFound    = fmt.Errorf("pay run %w", ErrNotFound)
	ErrPayrollNotFound   = fmt.Errorf("payroll %w", ErrNotFound)
	ErrPeriodNotFound    = fmt.Errorf("payroll period %w", ErrNotFound)
	ErrComponentNotFound = fmt.Errorf("salary component %w", ErrNotFound)

	ErrPayrollSettingsNotFound = errors.New("payroll settings not found")
	ErrPayRunExists            = errors.New("a pay run already exists for this period")
	ErrComponentNameExists     = errors.New("salary component name already exists")
	ErrPayRunBusy              = errors.New("another operation is running on this pay run")
	ErrInvalidRule             = errors.New("invalid salary component rule")

	ErrLocked           = errors.New("payroll is locked after finalization")
	ErrStateTransition  = errors.New("invalid pay run state transition")
	ErrValidationFailed = errors.New("payroll validation failed")
)

// LockedError is returned for any write to a payroll row of a finalized run.
type LockedError struct {
	PayRunID string
}

func (e *LockedError) Error() string {
	return ErrLocked.Error()
}

func (e *LockedError) Is(target error) bool {
	return target == ErrLocked
}

// StateTransitionError is returned when the pay run's status does not allow
// the requested operation.
type StateTransitionError struct {
	PayRunID  string
	Operation Operation
	From      PayRunStatus
	Reason    string
}

func transitionError(op Operation, from PayRunStatus, reason string) *StateTransitionError {
	return &StateTransitionError{Operation: op, From: from, Reason: reason}
}

func (e *StateTransitionError) Error() string {
	return e.Reason
}

func (e *StateTransitionError) Is(target error) bool {
	return target == ErrStateTransition
}

// EmployeeIssues lists every validation problem found for one employee.
type EmployeeIssues struct {
	EmployeeID   string   `json:"employee_id"`
	EmployeeName string   `json:"employee_name,omitempty"`
	PayrollID    string   `json:"payroll_id"`
	Issues       []string `json:"issues"`
}

// ValidationError carries the complete issue list of a refused finalize.
type ValidationError struct {
	PayRunID string
	Issues   []EmployeeIssues
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s for %d employee(s)", ErrValidationFailed.Error(), len(e.Issues))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
