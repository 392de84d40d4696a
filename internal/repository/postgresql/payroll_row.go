package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const payrollColumns = `
	p.id, p.pay_run_id, p.payroll_period_id, p.company_id, p.employee_id,
	p.basic_salary, p.housing_allowance, p.transport_allowance, p.other_allowances, p.bonus,
	p.component_earnings, p.overtime_hours, p.overtime_amount, p.earnings_breakdown,
	p.provident_fund, p.professional_tax, p.income_tax, p.benefit_deductions,
	p.component_deductions, p.deductions_breakdown,
	p.gross_salary, p.total_deductions, p.net_salary, p.payable_days, p.lop_days,
	p.status, p.approved_by, p.approved_at, p.created_at, p.updated_at,
	e.full_name, e.employee_code`

const payrollFrom = `
	FROM payrolls p
	LEFT JOIN employees e ON e.id = p.employee_id`

func scanPayroll(row pgx.Row) (payroll.Payroll, error) {
	var p payroll.Payroll
	err := row.Scan(
		&p.ID, &p.PayRunID, &p.PayrollPeriodID, &p.CompanyID, &p.EmployeeID,
		&p.BasicSalary, &p.HousingAllowance, &p.TransportAllowance, &p.OtherAllowances, &p.Bonus,
		&p.ComponentEarnings, &p.OvertimeHours, &p.OvertimeAmount, &p.EarningsBreakdown,
		&p.ProvidentFund, &p.ProfessionalTax, &p.IncomeTax, &p.BenefitDeductions,
		&p.ComponentDeductions, &p.DeductionsBreakdown,
		&p.GrossSalary, &p.TotalDeductions, &p.NetSalary, &p.PayableDays, &p.LOPDays,
		&p.Status, &p.ApprovedBy, &p.ApprovedAt, &p.CreatedAt, &p.UpdatedAt,
		&p.EmployeeName, &p.EmployeeCode,
	)
	return p, err
}

func figureArgs(f payroll.Figures) []interface{} {
	return []interface{}{
		f.BasicSalary, f.HousingAllowance, f.TransportAllowance, f.OtherAllowances, f.Bonus,
		f.ComponentEarnings, f.OvertimeHours, f.OvertimeAmount, breakdownOrEmpty(f.EarningsBreakdown),
		f.ProvidentFund, f.ProfessionalTax, f.IncomeTax, f.BenefitDeductions,
		f.ComponentDeductions, breakdownOrEmpty(f.DeductionsBreakdown),
		f.GrossSalary, f.TotalDeductions, f.NetSalary, f.PayableDays, f.LOPDays,
	}
}

// UpsertPayrolls writes all rows in one batch. The conflict target keeps a
// single row per employee and period; its id and created_at survive.
func (r *PayrollRepository) UpsertPayrolls(ctx context.Context, rows []payroll.Payroll) ([]payroll.Payroll, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payrolls (
			id, pay_run_id, payroll_period_id, company_id, employee_id, status, approved_by, approved_at,
			basic_salary, housing_allowance, transport_allowance, other_allowances, bonus,
			component_earnings, overtime_hours, overtime_amount, earnings_breakdown,
			provident_fund, professional_tax, income_tax, benefit_deductions,
			component_deductions, deductions_breakdown,
			gross_salary, total_deductions, net_salary, payable_days, lop_days
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13,
			$14, $15, $16, $17,
			$18, $19, $20, $21,
			$22, $23,
			$24, $25, $26, $27, $28
		)
		ON CONFLICT (employee_id, payroll_period_id) DO UPDATE SET
			pay_run_id = EXCLUDED.pay_run_id,
			status = EXCLUDED.status,
			approved_by = EXCLUDED.approved_by,
			approved_at = EXCLUDED.approved_at,
			basic_salary = EXCLUDED.basic_salary,
			housing_allowance = EXCLUDED.housing_allowance,
			transport_allowance = EXCLUDED.transport_allowance,
			other_allowances = EXCLUDED.other_allowances,
			bonus = EXCLUDED.bonus,
			component_earnings = EXCLUDED.component_earnings,
			overtime_hours = EXCLUDED.overtime_hours,
			overtime_amount = EXCLUDED.overtime_amount,
			earnings_breakdown = EXCLUDED.earnings_breakdown,
			provident_fund = EXCLUDED.provident_fund,
			professional_tax = EXCLUDED.professional_tax,
			income_tax = EXCLUDED.income_tax,
			benefit_deductions = EXCLUDED.benefit_deductions,
			component_deductions = EXCLUDED.component_deductions,
			deductions_breakdown = EXCLUDED.deductions_breakdown,
			gross_salary = EXCLUDED.gross_salary,
			total_deductions = EXCLUDED.total_deductions,
			net_salary = EXCLUDED.net_salary,
			payable_days = EXCLUDED.payable_days,
			lop_days = EXCLUDED.lop_days,
			updated_at = NOW()
		RETURNING id
	`

	batch := &pgx.Batch{}
	for _, row := range rows {
		id := row.ID
		if id == "" {
			id = newID()
		}
		args := []interface{}{
			id, row.PayRunID, row.PayrollPeriodID, row.CompanyID, row.EmployeeID,
			row.Status, row.ApprovedBy, row.ApprovedAt,
		}
		batch.Queue(query, append(args, figureArgs(row.Figures)...)...)
	}

	results := q.SendBatch(ctx, batch)
	saved := make([]payroll.Payroll, len(rows))
	for i, row := range rows {
		if err := results.QueryRow().Scan(&row.ID); err != nil {
			results.Close()
			return nil, fmt.Errorf("failed to upsert payroll for employee %s: %w", row.EmployeeID, err)
		}
		saved[i] = row
	}
	if err := results.Close(); err != nil {
		return nil, fmt.Errorf("failed to upsert payrolls: %w", err)
	}
	return saved, nil
}

func (r *PayrollRepository) GetPayrollByID(ctx context.Context, id string, companyID string) (payroll.Payroll, error) {
	q := GetQuerier(ctx, r.db)

	p, err := scanPayroll(q.QueryRow(ctx, `SELECT `+payrollColumns+payrollFrom+` WHERE p.id = $1 AND p.company_id = $2`, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Payroll{}, payroll.ErrPayrollNotFound
		}
		return payroll.Payroll{}, fmt.Errorf("failed to get payroll: %w", err)
	}
	return p, nil
}

func (r *PayrollRepository) ListPayrollsByPayRun(ctx context.Context, payRunID string, companyID string) ([]payroll.Payroll, error) {
	return r.listPayrolls(ctx, `SELECT `+payrollColumns+payrollFrom+`
		WHERE p.pay_run_id = $1 AND p.company_id = $2
		ORDER BY e.employee_code, p.id`, payRunID, companyID)
}

// ListFinalizedPayrollsByMonth returns the rows of every finalized pay run
// whose period ends in the given month.
func (r *PayrollRepository) ListFinalizedPayrollsByMonth(ctx context.Context, companyID string, year int, month time.Month) ([]payroll.Payroll, error) {
	return r.listPayrolls(ctx, `SELECT `+payrollColumns+payrollFrom+`
		JOIN pay_runs r ON r.id = p.pay_run_id
		JOIN payroll_periods pp ON pp.id = p.payroll_period_id
		WHERE p.company_id = $1
			AND r.status = 'finalized'
			AND EXTRACT(YEAR FROM pp.end_date)::int = $2
			AND EXTRACT(MONTH FROM pp.end_date)::int = $3
		ORDER BY pp.end_date, e.employee_code, p.id`, companyID, year, int(month))
}

func (r *PayrollRepository) listPayrolls(ctx context.Context, query string, args ...interface{}) ([]payroll.Payroll, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payrolls: %w", err)
	}
	defer rows.Close()

	var payrolls []payroll.Payroll
	for rows.Next() {
		p, err := scanPayroll(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll: %w", err)
		}
		payrolls = append(payrolls, p)
	}
	return payrolls, rows.Err()
}

func (r *PayrollRepository) UpdatePayroll(ctx context.Context, row payroll.Payroll) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payrolls SET
			basic_salary = $1, housing_allowance = $2, transport_allowance = $3, other_allowances = $4, bonus = $5,
			component_earnings = $6, overtime_hours = $7, overtime_amount = $8, earnings_breakdown = $9,
			provident_fund = $10, professional_tax = $11, income_tax = $12, benefit_deductions = $13,
			component_deductions = $14, deductions_breakdown = $15,
			gross_salary = $16, total_deductions = $17, net_salary = $18, payable_days = $19, lop_days = $20,
			status = $21, approved_by = $22, approved_at = $23, updated_at = NOW()
		WHERE id = $24 AND company_id = $25
	`

	args := append(figureArgs(row.Figures), row.Status, row.ApprovedBy, row.ApprovedAt, row.ID, row.CompanyID)
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update payroll: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrPayrollNotFound
	}
	return nil
}

func (r *PayrollRepository) SetPayrollStatusByPayRun(ctx context.Context, payRunID string, companyID string, status payroll.PayrollStatus) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `
		UPDATE payrolls
		SET status = $3, updated_at = NOW()
		WHERE pay_run_id = $1 AND company_id = $2
	`, payRunID, companyID, status)
	if err != nil {
		return fmt.Errorf("failed to set payroll status: %w", err)
	}
	return nil
}

// ========== AUDIT ==========

func (r *PayrollRepository) AppendAuditLogs(ctx context.Context, logs []payroll.AuditLog) error {
	if len(logs) == 0 {
		return nil
	}

	q := GetQuerier(ctx, r.db)

	batch := &pgx.Batch{}
	for _, l := range logs {
		batch.Queue(`
			INSERT INTO payroll_audit_logs (id, payroll_id, field, old_value, new_value, changed_by, changed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, newID(), l.PayrollID, l.Field, l.OldValue, l.NewValue, l.ChangedBy, l.ChangedAt)
	}
	if err := q.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to append payroll audit logs: %w", err)
	}
	return nil
}

func (r *PayrollRepository) ListAuditLogs(ctx context.Context, payrollID string) ([]payroll.AuditLog, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, payroll_id, field, COALESCE(old_value, ''), COALESCE(new_value, ''), changed_by, changed_at
		FROM payroll_audit_logs
		WHERE payroll_id = $1
		ORDER BY changed_at, id
	`, payrollID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll audit logs: %w", err)
	}
	defer rows.Close()

	var logs []payroll.AuditLog
	for rows.Next() {
		var l payroll.AuditLog
		if err := rows.Scan(&l.ID, &l.PayrollID, &l.Field, &l.OldValue, &l.NewValue, &l.ChangedBy, &l.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payroll audit log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func breakdownOrEmpty(m map[string]decimal.Decimal) map[string]decimal.Decimal {
	if m == nil {
		return map[string]decimal.Decimal{}
	}
	return m
}
