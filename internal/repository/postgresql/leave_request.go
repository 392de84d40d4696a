package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
)

type leaveRequestRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRequestRepository {
	return &leaveRequestRepositoryImpl{db: db}
}

func (r *leaveRequestRepositoryImpl) ListApprovedInRange(ctx context.Context, companyID string, start, end time.Time) ([]leave.ApprovedLeave, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT lr.id, lr.employee_id, lr.start_date, lr.end_date, lt.is_paid
		FROM leave_requests lr
		JOIN leave_types lt ON lt.id = lr.leave_type_id
		WHERE lr.company_id = $1
			AND lr.status = $2
			AND lr.start_date <= $4
			AND lr.end_date >= $3
		ORDER BY lr.employee_id, lr.start_date
	`

	rows, err := q.Query(ctx, query, companyID, leave.RequestStatusApproved, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved leave: %w", err)
	}
	defer rows.Close()

	var leaves []leave.ApprovedLeave
	for rows.Next() {
		var l leave.ApprovedLeave
		if err := rows.Scan(&l.ID, &l.EmployeeID, &l.StartDate, &l.EndDate, &l.IsPaid); err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		leaves = append(leaves, l)
	}
	return leaves, rows.Err()
}
