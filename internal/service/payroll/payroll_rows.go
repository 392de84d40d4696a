package payroll

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/jwt"
	"github.com/shopspring/decimal"
)

// ========== READS ==========

func (s *PayrollServiceImpl) GetPayroll(ctx context.Context, id string) (payroll.PayrollResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayrollResponse{}, err
	}

	row, err := s.repos.Payrolls.GetPayrollByID(ctx, id, claims.CompanyID)
	if err != nil {
		return payroll.PayrollResponse{}, err
	}
	return payroll.NewPayrollResponse(row), nil
}

func (s *PayrollServiceImpl) ListPayrolls(ctx context.Context, payRunID string) ([]payroll.PayrollResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.repos.PayRuns.GetPayRunByID(ctx, payRunID, claims.CompanyID); err != nil {
		return nil, err
	}

	rows, err := s.repos.Payrolls.ListPayrollsByPayRun(ctx, payRunID, claims.CompanyID)
	if err != nil {
		return nil, err
	}

	responses := make([]payroll.PayrollResponse, 0, len(rows))
	for _, r := range rows {
		responses = append(responses, payroll.NewPayrollResponse(r))
	}
	return responses, nil
}

func (s *PayrollServiceImpl) ListAuditLogs(ctx context.Context, payrollID string) ([]payroll.AuditLogResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	// Scopes the lookup to the caller's company.
	if _, err := s.repos.Payrolls.GetPayrollByID(ctx, payrollID, claims.CompanyID); err != nil {
		return nil, err
	}

	logs, err := s.repos.Audit.ListAuditLogs(ctx, payrollID)
	if err != nil {
		return nil, err
	}

	responses := make([]payroll.AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		responses = append(responses, payroll.NewAuditLogResponse(l))
	}
	return responses, nil
}

// ========== MUTATIONS ==========

// mutateRow runs fn against a payroll row while its pay run is held FOR
// SHARE, so a concurrent finalize cannot interleave. A finalized run fails
// with *payroll.LockedError before fn runs. The returned row is persisted
// and every changed field audited; an unchanged row writes nothing.
func (s *PayrollServiceImpl) mutateRow(ctx context.Context, id string, fn func(ctx context.Context, row payroll.Payroll) (payroll.Payroll, error)) (payroll.Payroll, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.Payroll{}, err
	}

	var result payroll.Payroll
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		row, err := s.repos.Payrolls.GetPayrollByID(ctx, id, claims.CompanyID)
		if err != nil {
			return err
		}

		run, err := s.repos.PayRuns.LockPayRun(ctx, row.PayRunID, claims.CompanyID, payroll.LockForShare)
		if err != nil {
			return err
		}
		if _, err := run.Transition(payroll.OpEdit); err != nil {
			return err
		}

		// Re-read under the run lock.
		row, err = s.repos.Payrolls.GetPayrollByID(ctx, id, claims.CompanyID)
		if err != nil {
			return err
		}

		next, err := fn(ctx, row)
		if err != nil {
			return err
		}

		changes := DiffPayroll(row, next)
		if len(changes) == 0 {
			result = row
			return nil
		}

		if err := s.repos.Payrolls.UpdatePayroll(ctx, next); err != nil {
			return err
		}
		if err := s.repos.Audit.AppendAuditLogs(ctx, auditLogs(row.ID, changes, actorOf(claims), s.now())); err != nil {
			return err
		}
		result = next
		return nil
	})
	if err != nil {
		return payroll.Payroll{}, err
	}
	return result, nil
}

// UpdatePayroll changes a row's other allowances or bonus. Deductions are
// held constant, so net salary moves by exactly the change.
func (s *PayrollServiceImpl) UpdatePayroll(ctx context.Context, id string, req payroll.UpdatePayrollRequest) (payroll.PayrollResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollResponse{}, err
	}

	row, err := s.mutateRow(ctx, id, func(_ context.Context, row payroll.Payroll) (payroll.Payroll, error) {
		return ApplyEditableInputs(row, req.OtherAllowances, req.Bonus), nil
	})
	if err != nil {
		return payroll.PayrollResponse{}, err
	}
	return payroll.NewPayrollResponse(row), nil
}

func (s *PayrollServiceImpl) ApprovePayroll(ctx context.Context, id string) (payroll.PayrollResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayrollResponse{}, err
	}

	row, err := s.mutateRow(ctx, id, func(_ context.Context, row payroll.Payroll) (payroll.Payroll, error) {
		if row.ApprovedAt != nil {
			return row, nil
		}
		now := s.now()
		row.ApprovedBy = actorOf(claims)
		row.ApprovedAt = &now
		return row, nil
	})
	if err != nil {
		return payroll.PayrollResponse{}, err
	}
	return payroll.NewPayrollResponse(row), nil
}

// RecalculatePayroll re-runs the calculator for one row with current
// attendance, components and tax configuration. Editable inputs are kept.
func (s *PayrollServiceImpl) RecalculatePayroll(ctx context.Context, id string) (payroll.PayrollResponse, error) {
	row, err := s.mutateRow(ctx, id, func(ctx context.Context, row payroll.Payroll) (payroll.Payroll, error) {
		period, err := s.repos.Periods.GetPeriodByID(ctx, row.PayrollPeriodID, row.CompanyID)
		if err != nil {
			return row, err
		}
		emp, err := s.repos.Employees.GetByID(ctx, row.EmployeeID, row.CompanyID)
		if err != nil {
			return row, err
		}
		calc, err := s.loadCalculationContext(ctx, row.CompanyID, period)
		if err != nil {
			return row, err
		}

		in := calc.input(emp, period)
		in.OtherAllowances = row.OtherAllowances
		in.Bonus = row.Bonus

		figures, err := Compute(in)
		if err != nil {
			return row, fmt.Errorf("failed to compute payroll for employee %s: %w", emp.EmployeeCode, err)
		}
		row.Figures = figures
		return row, nil
	})
	if err != nil {
		return payroll.PayrollResponse{}, err
	}
	return payroll.NewPayrollResponse(row), nil
}

// ========== DOWNSTREAM ==========

// GetDisbursements lists net salary and bank details of every row of a
// finalized run.
func (s *PayrollServiceImpl) GetDisbursements(ctx context.Context, payRunID string) (payroll.DisbursementResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.DisbursementResponse{}, err
	}

	run, err := s.repos.PayRuns.GetPayRunByID(ctx, payRunID, claims.CompanyID)
	if err != nil {
		return payroll.DisbursementResponse{}, err
	}
	if _, err := run.Transition(payroll.OpDisburse); err != nil {
		return payroll.DisbursementResponse{}, err
	}

	period, err := s.repos.Periods.GetPeriodByID(ctx, run.PayrollPeriodID, claims.CompanyID)
	if err != nil {
		return payroll.DisbursementResponse{}, err
	}

	rows, err := s.repos.Payrolls.ListPayrollsByPayRun(ctx, run.ID, claims.CompanyID)
	if err != nil {
		return payroll.DisbursementResponse{}, err
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.EmployeeID)
	}
	employees, err := s.repos.Employees.GetByIDs(ctx, claims.CompanyID, ids)
	if err != nil {
		return payroll.DisbursementResponse{}, err
	}

	resp := payroll.DisbursementResponse{
		PayRunID: run.ID,
		Period:   payroll.NewPeriodResponse(period),
		Items:    make([]payroll.DisbursementItem, 0, len(rows)),
		Total:    decimal.Zero,
	}
	for _, r := range rows {
		emp := employees[r.EmployeeID]
		resp.Items = append(resp.Items, payroll.DisbursementItem{
			PayrollID:         r.ID,
			EmployeeID:        r.EmployeeID,
			EmployeeCode:      emp.EmployeeCode,
			EmployeeName:      emp.FullName,
			BankName:          emp.BankName,
			AccountHolderName: emp.BankAccountHolderName,
			AccountNumber:     emp.BankAccountNumber,
			RoutingCode:       emp.BankRoutingCode,
			NetSalary:         r.NetSalary,
		})
		resp.Total = resp.Total.Add(r.NetSalary)
	}
	return resp, nil
}

func (s *PayrollServiceImpl) GetSummary(ctx context.Context, payRunID string) (payroll.RunSummaryResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.RunSummaryResponse{}, err
	}

	run, err := s.repos.PayRuns.GetPayRunByID(ctx, payRunID, claims.CompanyID)
	if err != nil {
		return payroll.RunSummaryResponse{}, err
	}

	rows, err := s.repos.Payrolls.ListPayrollsByPayRun(ctx, run.ID, claims.CompanyID)
	if err != nil {
		return payroll.RunSummaryResponse{}, err
	}

	summary := payroll.RunSummaryResponse{
		PayRunID:          run.ID,
		Status:            run.Status,
		TotalEmployees:    run.TotalEmployees,
		GrossSalary:       decimal.Zero,
		TotalDeductions:   decimal.Zero,
		NetSalary:         decimal.Zero,
		ProvidentFund:     decimal.Zero,
		ProfessionalTax:   decimal.Zero,
		IncomeTax:         decimal.Zero,
		BenefitDeductions: decimal.Zero,
	}
	for _, r := range rows {
		summary.GrossSalary = summary.GrossSalary.Add(r.GrossSalary)
		summary.TotalDeductions = summary.TotalDeductions.Add(r.TotalDeductions)
		summary.NetSalary = summary.NetSalary.Add(r.NetSalary)
		summary.ProvidentFund = summary.ProvidentFund.Add(r.ProvidentFund)
		summary.ProfessionalTax = summary.ProfessionalTax.Add(r.ProfessionalTax)
		summary.IncomeTax = summary.IncomeTax.Add(r.IncomeTax)
		summary.BenefitDeductions = summary.BenefitDeductions.Add(r.BenefitDeductions)
		if r.ApprovedAt != nil {
			summary.ApprovedRows++
		}
	}
	return summary, nil
}
