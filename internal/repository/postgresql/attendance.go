package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
)

type attendanceRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{db: db}
}

func (r *attendanceRepositoryImpl) ListByCompanyAndRange(ctx context.Context, companyID string, start, end time.Time) ([]attendance.Attendance, error) {
	if end.Before(start) {
		return nil, attendance.ErrInvalidRange
	}

	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, employee_id, date, clock_in, clock_out
		FROM attendances
		WHERE company_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY employee_id, date
	`

	rows, err := q.Query(ctx, query, companyID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	var records []attendance.Attendance
	for rows.Next() {
		var a attendance.Attendance
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.EmployeeID, &a.Date, &a.ClockIn, &a.ClockOut); err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, a)
	}
	return records, rows.Err()
}
