package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/benefit"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/challan"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/tax"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/lock"
	"golang.org/x/sync/errgroup"
)

// calculationContext is the company-wide input of one generate or
// recalculate, loaded once per call.
type calculationContext struct {
	settings    payroll.PayrollSettings
	components  []payroll.SalaryComponent
	engine      *tax.Engine
	attendance  map[string][]attendance.Attendance
	leaves      map[string][]leave.ApprovedLeave
	enrollments map[string][]benefit.Enrollment
}

func (c calculationContext) input(emp employee.Employee, period payroll.PayrollPeriod) CalculationInput {
	return CalculationInput{
		Employee:    emp,
		Period:      period,
		Settings:    c.settings,
		Components:  c.components,
		Attendance:  c.attendance[emp.ID],
		Leaves:      c.leaves[emp.ID],
		Enrollments: c.enrollments[emp.ID],
		Tax:         c.engine,
	}
}

func (s *PayrollServiceImpl) loadCalculationContext(ctx context.Context, companyID string, period payroll.PayrollPeriod) (calculationContext, error) {
	var c calculationContext
	var err error

	if c.settings, err = s.settingsFor(ctx, companyID); err != nil {
		return c, err
	}
	if c.components, err = s.repos.Components.ListComponents(ctx, companyID); err != nil {
		return c, err
	}
	// A missing configuration fails the whole batch; there is no zero-tax fallback.
	if c.engine, err = s.tax.ActiveEngine(ctx, companyID, c.settings.TaxJurisdiction); err != nil {
		return c, err
	}

	records, err := s.repos.Attendance.ListByCompanyAndRange(ctx, companyID, period.StartDate, period.EndDate)
	if err != nil {
		return c, err
	}
	c.attendance = make(map[string][]attendance.Attendance)
	for _, r := range records {
		c.attendance[r.EmployeeID] = append(c.attendance[r.EmployeeID], r)
	}

	leaves, err := s.repos.Leave.ListApprovedInRange(ctx, companyID, period.StartDate, period.EndDate)
	if err != nil {
		return c, err
	}
	c.leaves = make(map[string][]leave.ApprovedLeave)
	for _, l := range leaves {
		c.leaves[l.EmployeeID] = append(c.leaves[l.EmployeeID], l)
	}

	enrollments, err := s.repos.Benefits.ListByCompanyID(ctx, companyID)
	if err != nil {
		return c, err
	}
	c.enrollments = make(map[string][]benefit.Enrollment)
	for _, e := range enrollments {
		c.enrollments[e.EmployeeID] = append(c.enrollments[e.EmployeeID], e)
	}

	return c, nil
}

// runLock takes the cross-instance lock for a run's (company, period).
func (s *PayrollServiceImpl) runLock(ctx context.Context, run payroll.PayRun) (func(), error) {
	release, err := s.locker.Acquire(ctx, lock.PayRunKey(run.CompanyID, run.PayrollPeriodID))
	if err != nil {
		if errors.Is(err, lock.ErrLockHeld) {
			return nil, payroll.ErrPayRunBusy
		}
		return nil, err
	}
	return release, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, payroll.ErrStateTransition):
		return "invalid_state"
	case errors.Is(err, payroll.ErrValidationFailed):
		return "validation_failed"
	case errors.Is(err, tax.ErrConfiguration):
		return "configuration_error"
	case errors.Is(err, payroll.ErrPayRunBusy):
		return "busy"
	default:
		return "error"
	}
}

// ========== GENERATE ==========

// Generate computes a payroll row for every active employee of the company
// and moves the run from draft to in progress. It is all-or-nothing: any
// failure leaves the run and its rows as they were.
func (s *PayrollServiceImpl) Generate(ctx context.Context, payRunID string) (payroll.PayRunResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayRunResponse{}, err
	}

	run, err := s.repos.PayRuns.GetPayRunByID(ctx, payRunID, claims.CompanyID)
	if err != nil {
		return payroll.PayRunResponse{}, err
	}

	release, err := s.runLock(ctx, run)
	if err != nil {
		s.metrics.Transition(string(payroll.OpGenerate), outcomeOf(err))
		return payroll.PayRunResponse{}, err
	}
	defer release()

	start := time.Now()
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		run, err = s.repos.PayRuns.LockPayRun(ctx, payRunID, claims.CompanyID, payroll.LockForUpdate)
		if err != nil {
			return err
		}
		next, err := run.Transition(payroll.OpGenerate)
		if err != nil {
			return err
		}

		period, err := s.repos.Periods.GetPeriodByID(ctx, run.PayrollPeriodID, claims.CompanyID)
		if err != nil {
			return err
		}

		employees, err := s.repos.Employees.GetActiveByCompanyID(ctx, claims.CompanyID)
		if err != nil {
			return err
		}

		var rows []payroll.Payroll
		if len(employees) > 0 {
			calc, err := s.loadCalculationContext(ctx, claims.CompanyID, period)
			if err != nil {
				return err
			}
			existing, err := s.repos.Payrolls.ListPayrollsByPayRun(ctx, run.ID, claims.CompanyID)
			if err != nil {
				return err
			}
			rows, err = s.computeRows(run, period, employees, existing, calc)
			if err != nil {
				return err
			}
			if _, err := s.repos.Payrolls.UpsertPayrolls(ctx, rows); err != nil {
				return err
			}
		}

		run.Status = next
		run.TotalEmployees = len(rows)
		if err := s.repos.PayRuns.UpdatePayRun(ctx, run); err != nil {
			return err
		}
		return s.repos.Periods.UpdatePeriodStatus(ctx, period.ID, claims.CompanyID, payroll.PeriodStatusAfter(next))
	})
	s.metrics.Transition(string(payroll.OpGenerate), outcomeOf(err))
	if err != nil {
		return payroll.PayRunResponse{}, err
	}

	s.metrics.Generated(time.Since(start), run.TotalEmployees)
	slog.InfoContext(ctx, "payrun generated",
		"pay_run_id", run.ID,
		"company_id", run.CompanyID,
		"employees", run.TotalEmployees,
	)
	return payroll.NewPayRunResponse(run), nil
}

// computeRows runs the calculator for every employee with bounded
// parallelism. Computation is pure, so workers share nothing but the
// result slice. Editable inputs of existing rows are kept.
func (s *PayrollServiceImpl) computeRows(
	run payroll.PayRun,
	period payroll.PayrollPeriod,
	employees []employee.Employee,
	existing []payroll.Payroll,
	calc calculationContext,
) ([]payroll.Payroll, error) {
	byEmployee := make(map[string]payroll.Payroll, len(existing))
	for _, p := range existing {
		byEmployee[p.EmployeeID] = p
	}

	rows := make([]payroll.Payroll, len(employees))
	g := new(errgroup.Group)
	g.SetLimit(s.workers)

	for i, emp := range employees {
		g.Go(func() error {
			in := calc.input(emp, period)
			row := payroll.Payroll{
				PayRunID:        run.ID,
				PayrollPeriodID: period.ID,
				CompanyID:       run.CompanyID,
				EmployeeID:      emp.ID,
				Status:          payroll.PayrollStatusInProgress,
			}
			if prev, ok := byEmployee[emp.ID]; ok {
				row.ID = prev.ID
				in.OtherAllowances = prev.OtherAllowances
				in.Bonus = prev.Bonus
			}

			figures, err := Compute(in)
			if err != nil {
				return fmt.Errorf("failed to compute payroll for employee %s: %w", emp.EmployeeCode, err)
			}
			row.Figures = figures
			rows[i] = row
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

// ========== FINALIZE ==========

type runSnapshot struct {
	PayRun   payroll.PayRunResponse    `json:"pay_run"`
	Period   payroll.PeriodResponse    `json:"period"`
	Payrolls []payroll.PayrollResponse `json:"payrolls"`
}

// Finalize validates every row of an in-progress run and, only when no
// employee has an issue, locks the run, snapshots its rows and derives the
// statutory challans of the month its period ends in. A refused finalize
// writes nothing.
func (s *PayrollServiceImpl) Finalize(ctx context.Context, payRunID string) (payroll.FinalizeResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.FinalizeResponse{}, err
	}

	run, err := s.repos.PayRuns.GetPayRunByID(ctx, payRunID, claims.CompanyID)
	if err != nil {
		return payroll.FinalizeResponse{}, err
	}

	release, err := s.runLock(ctx, run)
	if err != nil {
		s.metrics.Transition(string(payroll.OpFinalize), outcomeOf(err))
		return payroll.FinalizeResponse{}, err
	}
	defer release()

	var challans []challan.StatutoryChallan
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		run, err = s.repos.PayRuns.LockPayRun(ctx, payRunID, claims.CompanyID, payroll.LockForUpdate)
		if err != nil {
			return err
		}
		next, err := run.Transition(payroll.OpFinalize)
		if err != nil {
			return err
		}

		rows, err := s.repos.Payrolls.ListPayrollsByPayRun(ctx, run.ID, claims.CompanyID)
		if err != nil {
			return err
		}

		ids := make([]string, 0, len(rows))
		for _, r := range rows {
			ids = append(ids, r.EmployeeID)
		}
		employees, err := s.repos.Employees.GetByIDs(ctx, claims.CompanyID, ids)
		if err != nil {
			return err
		}

		if issues := ValidateRun(rows, employees); len(issues) > 0 {
			return &payroll.ValidationError{PayRunID: run.ID, Issues: issues}
		}

		period, err := s.repos.Periods.GetPeriodByID(ctx, run.PayrollPeriodID, claims.CompanyID)
		if err != nil {
			return err
		}

		now := s.now()
		actor := actorOf(claims)

		if err := s.setRowStatus(ctx, run, rows, payroll.PayrollStatusFinalized, actor, now); err != nil {
			return err
		}

		run.Status = next
		run.FinalizedAt = &now
		run.FinalizedBy = actor
		if err := s.repos.PayRuns.UpdatePayRun(ctx, run); err != nil {
			return err
		}

		payload, err := json.Marshal(newRunSnapshot(run, period, rows))
		if err != nil {
			return fmt.Errorf("failed to encode pay run snapshot: %w", err)
		}
		if _, err := s.repos.PayRuns.CreateSnapshot(ctx, payroll.RunSnapshot{
			PayRunID:  run.ID,
			Payload:   payload,
			CreatedBy: actor,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		// Challans cover the month, so every finalized run ending in it counts,
		// this one included.
		monthRows, err := s.repos.Payrolls.ListFinalizedPayrollsByMonth(ctx, run.CompanyID, period.EndDate.Year(), period.EndDate.Month())
		if err != nil {
			return err
		}
		contributions := make([]challan.Contribution, 0, len(monthRows))
		for _, r := range monthRows {
			contributions = append(contributions, challan.Contribution{
				ProvidentFund:   r.ProvidentFund,
				ProfessionalTax: r.ProfessionalTax,
				IncomeTax:       r.IncomeTax,
			})
		}
		challans, err = s.challans.Generate(ctx, challan.GenerateInput{
			CompanyID:     run.CompanyID,
			PayRunID:      run.ID,
			PeriodEnd:     period.EndDate,
			Contributions: contributions,
		})
		if err != nil {
			return err
		}

		return s.repos.Periods.UpdatePeriodStatus(ctx, period.ID, claims.CompanyID, payroll.PeriodStatusAfter(next))
	})
	s.metrics.Transition(string(payroll.OpFinalize), outcomeOf(err))
	if err != nil {
		var ve *payroll.ValidationError
		if errors.As(err, &ve) {
			s.metrics.FinalizeBlocked(len(ve.Issues))
			slog.WarnContext(ctx, "finalize refused",
				"pay_run_id", payRunID,
				"company_id", claims.CompanyID,
				"issues", len(ve.Issues),
			)
		}
		return payroll.FinalizeResponse{}, err
	}

	slog.InfoContext(ctx, "payrun finalized",
		"pay_run_id", run.ID,
		"company_id", run.CompanyID,
		"challans", len(challans),
	)

	resp := payroll.FinalizeResponse{
		PayRun:   payroll.NewPayRunResponse(run),
		Challans: make([]challan.ChallanResponse, 0, len(challans)),
	}
	for _, c := range challans {
		resp.Challans = append(resp.Challans, challan.NewChallanResponse(c))
	}
	return resp, nil
}

func newRunSnapshot(run payroll.PayRun, period payroll.PayrollPeriod, rows []payroll.Payroll) runSnapshot {
	snap := runSnapshot{
		PayRun:   payroll.NewPayRunResponse(run),
		Period:   payroll.NewPeriodResponse(period),
		Payrolls: make([]payroll.PayrollResponse, 0, len(rows)),
	}
	for _, r := range rows {
		r.Status = payroll.PayrollStatusFinalized
		snap.Payrolls = append(snap.Payrolls, payroll.NewPayrollResponse(r))
	}
	return snap
}

// setRowStatus moves every row of the run to status and audits each change.
func (s *PayrollServiceImpl) setRowStatus(ctx context.Context, run payroll.PayRun, rows []payroll.Payroll, status payroll.PayrollStatus, actor *string, at time.Time) error {
	if err := s.repos.Payrolls.SetPayrollStatusByPayRun(ctx, run.ID, run.CompanyID, status); err != nil {
		return err
	}

	var logs []payroll.AuditLog
	for _, r := range rows {
		next := r
		next.Status = status
		logs = append(logs, auditLogs(r.ID, DiffPayroll(r, next), actor, at)...)
	}
	if len(logs) == 0 {
		return nil
	}
	return s.repos.Audit.AppendAuditLogs(ctx, logs)
}

// ========== ROLLBACK ==========

// Rollback reopens a finalized run for correction. The reason is kept in
// the rollback log. Challans already derived stay in place and are
// refreshed by the next finalize while still due.
func (s *PayrollServiceImpl) Rollback(ctx context.Context, payRunID string, req payroll.RollbackRequest) (payroll.PayRunResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayRunResponse{}, err
	}

	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayRunResponse{}, err
	}

	var run payroll.PayRun
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		run, err = s.repos.PayRuns.LockPayRun(ctx, payRunID, claims.CompanyID, payroll.LockForUpdate)
		if err != nil {
			return err
		}
		next, err := run.Transition(payroll.OpRollback)
		if err != nil {
			return err
		}

		now := s.now()
		actor := actorOf(claims)

		if _, err := s.repos.PayRuns.CreateRollbackLog(ctx, payroll.RollbackLog{
			PayRunID:     run.ID,
			RolledBackBy: actor,
			Reason:       strings.TrimSpace(req.Reason),
			RolledBackAt: now,
		}); err != nil {
			return err
		}

		rows, err := s.repos.Payrolls.ListPayrollsByPayRun(ctx, run.ID, claims.CompanyID)
		if err != nil {
			return err
		}
		if err := s.setRowStatus(ctx, run, rows, payroll.PayrollStatusInProgress, actor, now); err != nil {
			return err
		}

		run.Status = next
		run.FinalizedAt = nil
		run.FinalizedBy = nil
		if err := s.repos.PayRuns.UpdatePayRun(ctx, run); err != nil {
			return err
		}
		return s.repos.Periods.UpdatePeriodStatus(ctx, run.PayrollPeriodID, claims.CompanyID, payroll.PeriodStatusAfter(next))
	})
	s.metrics.Transition(string(payroll.OpRollback), outcomeOf(err))
	if err != nil {
		return payroll.PayRunResponse{}, err
	}

	slog.InfoContext(ctx, "payrun rolled back",
		"pay_run_id", run.ID,
		"company_id", run.CompanyID,
		"reason", strings.TrimSpace(req.Reason),
	)
	return payroll.NewPayRunResponse(run), nil
}
