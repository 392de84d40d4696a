package leave

import (
	"context"
	"time"
)

type LeaveRequestRepository interface {
	// ListApprovedInRange returns approved leave overlapping [start, end].
	ListApprovedInRange(ctx context.Context, companyID string, start, end time.Time) ([]ApprovedLeave, error)
}
