package leave

import "time"

type RequestStatus string

const (
	RequestStatusWaitingApproval RequestStatus = "waiting_approval"
	RequestStatusApproved        RequestStatus = "approved"
	RequestStatusRejected        RequestStatus = "rejected"
	RequestStatusCancelled       RequestStatus = "cancelled"
)

// ApprovedLeave is an approved leave request joined with its leave type's
// paid flag.
type ApprovedLeave struct {
	ID         string
	EmployeeID string
	StartDate  time.Time
	EndDate    time.Time
	IsPaid     bool
}

// Covers reports whether day falls inside the leave, inclusive.
func (l ApprovedLeave) Covers(day time.Time) bool {
	return !day.Before(l.StartDate) && !day.After(l.EndDate)
}
