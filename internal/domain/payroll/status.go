package payroll

// PayRunStatus enum
type PayRunStatus string

const (
	PayRunStatusDraft      PayRunStatus = "draft"
	PayRunStatusInProgress PayRunStatus = "in_progress"
	PayRunStatusFinalized  PayRunStatus = "finalized"
)

// Operation is a request to move or mutate a pay run.
type Operation string

const (
	OpGenerate Operation = "generate"
	OpEdit     Operation = "edit"
	OpFinalize Operation = "finalize"
	OpRollback Operation = "rollback"
	OpDisburse Operation = "disburse"
)

const disburseReason = "disbursement is only available for finalized pay runs"

// Next returns the status a pay run in status s moves to when op succeeds.
// Edits on a finalized run fail with *LockedError; every other disallowed
// pair fails with *StateTransitionError.
func (s PayRunStatus) Next(op Operation) (PayRunStatus, error) {
	switch s {
	case PayRunStatusDraft:
		switch op {
		case OpGenerate:
			return PayRunStatusInProgress, nil
		case OpEdit:
			return s, transitionError(op, s, "payroll has not been generated yet")
		case OpFinalize:
			return s, transitionError(op, s, "pay run must be in progress to finalize")
		case OpRollback:
			return s, transitionError(op, s, "only finalized pay runs can be rolled back")
		case OpDisburse:
			return s, transitionError(op, s, disburseReason)
		}
	case PayRunStatusInProgress:
		switch op {
		case OpGenerate:
			return s, transitionError(op, s, "payroll already generated")
		case OpEdit:
			return s, nil
		case OpFinalize:
			return PayRunStatusFinalized, nil
		case OpRollback:
			return s, transitionError(op, s, "only finalized pay runs can be rolled back")
		case OpDisburse:
			return s, transitionError(op, s, disburseReason)
		}
	case PayRunStatusFinalized:
		switch op {
		case OpGenerate:
			return s, transitionError(op, s, "cannot regenerate after finalization")
		case OpEdit:
			return s, &LockedError{}
		case OpFinalize:
			return s, transitionError(op, s, "pay run is already finalized")
		case OpRollback:
			return PayRunStatusInProgress, nil
		case OpDisburse:
			return s, nil
		}
	default:
		return s, transitionError(op, s, "unknown pay run status")
	}
	return s, transitionError(op, s, "unknown operation")
}

// Transition is Next with the run's identity attached to any error.
func (r PayRun) Transition(op Operation) (PayRunStatus, error) {
	next, err := r.Status.Next(op)
	switch e := err.(type) {
	case *LockedError:
		e.PayRunID = r.ID
	case *StateTransitionError:
		e.PayRunID = r.ID
	}
	return next, err
}

// PeriodStatusAfter maps a pay run status onto the coarse period status.
func PeriodStatusAfter(s PayRunStatus) PeriodStatus {
	switch s {
	case PayRunStatusInProgress:
		return PeriodStatusProcessing
	case PayRunStatusFinalized:
		return PeriodStatusApproved
	default:
		return PeriodStatusDraft
	}
}
