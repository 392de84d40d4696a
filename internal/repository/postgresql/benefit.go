package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/benefit"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
)

type enrollmentRepositoryImpl struct {
	db *database.DB
}

func NewEnrollmentRepository(db *database.DB) benefit.EnrollmentRepository {
	return &enrollmentRepositoryImpl{db: db}
}

// ListByCompanyID returns every enrollment; callers filter with ActiveOn.
func (r *enrollmentRepositoryImpl) ListByCompanyID(ctx context.Context, companyID string) ([]benefit.Enrollment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, employee_id, plan_name,
			employee_monthly_cost, employer_monthly_cost,
			status, effective_date, end_date
		FROM benefit_enrollments
		WHERE company_id = $1
		ORDER BY employee_id, effective_date
	`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list benefit enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []benefit.Enrollment
	for rows.Next() {
		var e benefit.Enrollment
		if err := rows.Scan(
			&e.ID, &e.CompanyID, &e.EmployeeID, &e.PlanName,
			&e.EmployeeMonthlyCost, &e.EmployerMonthlyCost,
			&e.Status, &e.EffectiveDate, &e.EndDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan benefit enrollment: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}
