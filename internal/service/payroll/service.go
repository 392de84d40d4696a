package payroll

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/benefit"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/challan"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/tax"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/lock"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/metrics"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
)

// Repositories groups the stores the payroll service reads and writes.
type Repositories struct {
	Settings   payroll.SettingsRepository
	Components payroll.ComponentRepository
	Periods    payroll.PeriodRepository
	PayRuns    payroll.PayRunRepository
	Payrolls   payroll.PayrollRepository
	Audit      payroll.AuditRepository

	Employees  employee.EmployeeRepository
	Attendance attendance.AttendanceRepository
	Leave      leave.LeaveRequestRepository
	Benefits   benefit.EnrollmentRepository
}

type Options struct {
	// Workers bounds the number of employees computed in parallel.
	Workers             int
	DefaultJurisdiction string
	Now                 func() time.Time
}

type PayrollServiceImpl struct {
	tx       database.Transactor
	repos    Repositories
	tax      tax.TaxService
	challans challan.Generator
	locker   lock.Locker
	metrics  *metrics.Metrics

	workers             int
	defaultJurisdiction string
	now                 func() time.Time
}

func NewPayrollService(
	tx database.Transactor,
	repos Repositories,
	taxService tax.TaxService,
	challans challan.Generator,
	locker lock.Locker,
	m *metrics.Metrics,
	opts Options,
) payroll.PayrollService {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if locker == nil {
		locker = lock.Noop{}
	}
	return &PayrollServiceImpl{
		tx:                  tx,
		repos:               repos,
		tax:                 taxService,
		challans:            challans,
		locker:              locker,
		metrics:             m,
		workers:             opts.Workers,
		defaultJurisdiction: opts.DefaultJurisdiction,
		now:                 opts.Now,
	}
}

func actorOf(claims jwt.Claims) *string {
	if claims.UserID == "" {
		return nil
	}
	id := claims.UserID
	return &id
}

// ========== SETTINGS ==========

func (s *PayrollServiceImpl) settingsFor(ctx context.Context, companyID string) (payroll.PayrollSettings, error) {
	settings, err := s.repos.Settings.GetSettings(ctx, companyID)
	if err != nil {
		if errors.Is(err, payroll.ErrPayrollSettingsNotFound) {
			return payroll.DefaultSettings(companyID, s.defaultJurisdiction), nil
		}
		return payroll.PayrollSettings{}, err
	}
	return settings, nil
}

func (s *PayrollServiceImpl) GetSettings(ctx context.Context) (payroll.PayrollSettingsResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayrollSettingsResponse{}, err
	}

	settings, err := s.settingsFor(ctx, claims.CompanyID)
	if err != nil {
		return payroll.PayrollSettingsResponse{}, err
	}
	return payroll.NewPayrollSettingsResponse(settings), nil
}

func (s *PayrollServiceImpl) UpdateSettings(ctx context.Context, req payroll.UpdatePayrollSettingsRequest) (payroll.PayrollSettingsResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollSettingsResponse{}, err
	}

	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayrollSettingsResponse{}, err
	}

	current, err := s.settingsFor(ctx, claims.CompanyID)
	if err != nil {
		return payroll.PayrollSettingsResponse{}, err
	}

	// Apply updates
	if req.HousingAllowanceRate != nil {
		current.HousingAllowanceRate = *req.HousingAllowanceRate
	}
	if req.TransportAllowance != nil {
		current.TransportAllowance = *req.TransportAllowance
	}
	if req.OvertimeMultiplier != nil {
		current.OvertimeMultiplier = *req.OvertimeMultiplier
	}
	if req.WorkingDaysPerMonth != nil {
		current.WorkingDaysPerMonth = *req.WorkingDaysPerMonth
	}
	if req.StandardHoursPerDay != nil {
		current.StandardHoursPerDay = *req.StandardHoursPerDay
	}
	if req.TaxJurisdiction != nil {
		current.TaxJurisdiction = strings.TrimSpace(*req.TaxJurisdiction)
	}

	updated, err := s.repos.Settings.UpsertSettings(ctx, current)
	if err != nil {
		return payroll.PayrollSettingsResponse{}, err
	}
	return payroll.NewPayrollSettingsResponse(updated), nil
}

// ========== COMPONENTS ==========

func (s *PayrollServiceImpl) CreateComponent(ctx context.Context, req payroll.CreateComponentRequest) (payroll.ComponentResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.ComponentResponse{}, err
	}

	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.ComponentResponse{}, err
	}

	component := req.ToComponent(claims.CompanyID)
	if _, err := component.Rule(); err != nil {
		return payroll.ComponentResponse{}, err
	}

	created, err := s.repos.Components.CreateComponent(ctx, component)
	if err != nil {
		return payroll.ComponentResponse{}, err
	}
	return payroll.NewComponentResponse(created), nil
}

func (s *PayrollServiceImpl) ListComponents(ctx context.Context) ([]payroll.ComponentResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	components, err := s.repos.Components.ListComponents(ctx, claims.CompanyID)
	if err != nil {
		return nil, err
	}

	responses := make([]payroll.ComponentResponse, 0, len(components))
	for _, c := range components {
		responses = append(responses, payroll.NewComponentResponse(c))
	}
	return responses, nil
}

func (s *PayrollServiceImpl) DeleteComponent(ctx context.Context, id string) error {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return err
	}
	return s.repos.Components.SoftDeleteComponent(ctx, id, claims.CompanyID)
}

// ========== PERIODS & PAY RUNS ==========

func (s *PayrollServiceImpl) CreatePeriod(ctx context.Context, req payroll.CreatePeriodRequest) (payroll.PeriodResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PeriodResponse{}, err
	}

	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.PeriodResponse{}, err
	}

	start, _ := validator.IsValidDate(req.StartDate)
	end, _ := validator.IsValidDate(req.EndDate)

	period, err := s.repos.Periods.CreatePeriod(ctx, payroll.PayrollPeriod{
		CompanyID: claims.CompanyID,
		Name:      strings.TrimSpace(req.Name),
		StartDate: start,
		EndDate:   end,
		Status:    payroll.PeriodStatusDraft,
		CreatedBy: actorOf(claims),
	})
	if err != nil {
		return payroll.PeriodResponse{}, err
	}
	return payroll.NewPeriodResponse(period), nil
}

func (s *PayrollServiceImpl) ListPeriods(ctx context.Context) ([]payroll.PeriodResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	periods, err := s.repos.Periods.ListPeriods(ctx, claims.CompanyID)
	if err != nil {
		return nil, err
	}

	responses := make([]payroll.PeriodResponse, 0, len(periods))
	for _, p := range periods {
		responses = append(responses, payroll.NewPeriodResponse(p))
	}
	return responses, nil
}

func (s *PayrollServiceImpl) CreatePayRun(ctx context.Context, periodID string) (payroll.PayRunResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayRunResponse{}, err
	}

	period, err := s.repos.Periods.GetPeriodByID(ctx, periodID, claims.CompanyID)
	if err != nil {
		return payroll.PayRunResponse{}, err
	}

	run, err := s.repos.PayRuns.CreatePayRun(ctx, payroll.PayRun{
		CompanyID:       claims.CompanyID,
		PayrollPeriodID: period.ID,
		Status:          payroll.PayRunStatusDraft,
		CreatedBy:       actorOf(claims),
	})
	if err != nil {
		return payroll.PayRunResponse{}, err
	}
	return payroll.NewPayRunResponse(run), nil
}

func (s *PayrollServiceImpl) GetPayRun(ctx context.Context, id string) (payroll.PayRunResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayRunResponse{}, err
	}

	run, err := s.repos.PayRuns.GetPayRunByID(ctx, id, claims.CompanyID)
	if err != nil {
		return payroll.PayRunResponse{}, err
	}
	return payroll.NewPayRunResponse(run), nil
}

func (s *PayrollServiceImpl) ListPayRuns(ctx context.Context) ([]payroll.PayRunResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	runs, err := s.repos.PayRuns.ListPayRuns(ctx, claims.CompanyID)
	if err != nil {
		return nil, err
	}

	responses := make([]payroll.PayRunResponse, 0, len(runs))
	for _, r := range runs {
		responses = append(responses, payroll.NewPayRunResponse(r))
	}
	return responses, nil
}
