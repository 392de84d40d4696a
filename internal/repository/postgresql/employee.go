package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeColumns = `
	id, company_id, employee_code, full_name, employment_status,
	bank_name, bank_account_holder_name, bank_account_number, bank_routing_code,
	base_salary, created_at, updated_at, deleted_at`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var e employee.Employee
	err := row.Scan(
		&e.ID, &e.CompanyID, &e.EmployeeCode, &e.FullName, &e.EmploymentStatus,
		&e.BankName, &e.BankAccountHolderName, &e.BankAccountNumber, &e.BankRoutingCode,
		&e.BaseSalary, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt,
	)
	return e, err
}

func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `SELECT ` + employeeColumns + `
		FROM employees
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL`

	emp, err := scanEmployee(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return emp, nil
}

// GetActiveByCompanyID returns employees in active employment, ordered by code.
func (e *employeeRepositoryImpl) GetActiveByCompanyID(ctx context.Context, companyID string) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `SELECT ` + employeeColumns + `
		FROM employees
		WHERE company_id = $1 AND employment_status = $2 AND deleted_at IS NULL
		ORDER BY employee_code`

	rows, err := q.Query(ctx, query, companyID, employee.EmploymentStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// GetByIDs includes soft-deleted employees so finalized rows stay resolvable.
func (e *employeeRepositoryImpl) GetByIDs(ctx context.Context, companyID string, ids []string) (map[string]employee.Employee, error) {
	result := make(map[string]employee.Employee, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	q := GetQuerier(ctx, e.db)

	query := `SELECT ` + employeeColumns + `
		FROM employees
		WHERE company_id = $1 AND id = ANY($2::uuid[])`

	rows, err := q.Query(ctx, query, companyID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get employees by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		result[emp.ID] = emp
	}
	return result, rows.Err()
}
