package payroll

import "context"

type PayrollService interface {
	// Settings
	GetSettings(ctx context.Context) (PayrollSettingsResponse, error)
	UpdateSettings(ctx context.Context, req UpdatePayrollSettingsRequest) (PayrollSettingsResponse, error)

	// Components
	CreateComponent(ctx context.Context, req CreateComponentRequest) (ComponentResponse, error)
	ListComponents(ctx context.Context) ([]ComponentResponse, error)
	DeleteComponent(ctx context.Context, id string) error

	// Periods and pay runs
	CreatePeriod(ctx context.Context, req CreatePeriodRequest) (PeriodResponse, error)
	ListPeriods(ctx context.Context) ([]PeriodResponse, error)
	CreatePayRun(ctx context.Context, periodID string) (PayRunResponse, error)
	GetPayRun(ctx context.Context, id string) (PayRunResponse, error)
	ListPayRuns(ctx context.Context) ([]PayRunResponse, error)

	// Lifecycle
	Generate(ctx context.Context, payRunID string) (PayRunResponse, error)
	Finalize(ctx context.Context, payRunID string) (FinalizeResponse, error)
	Rollback(ctx context.Context, payRunID string, req RollbackRequest) (PayRunResponse, error)

	// Payroll rows
	GetPayroll(ctx context.Context, id string) (PayrollResponse, error)
	ListPayrolls(ctx context.Context, payRunID string) ([]PayrollResponse, error)
	UpdatePayroll(ctx context.Context, id string, req UpdatePayrollRequest) (PayrollResponse, error)
	ApprovePayroll(ctx context.Context, id string) (PayrollResponse, error)
	RecalculatePayroll(ctx context.Context, id string) (PayrollResponse, error)
	ListAuditLogs(ctx context.Context, payrollID string) ([]AuditLogResponse, error)

	// Downstream reads
	GetDisbursements(ctx context.Context, payRunID string) (DisbursementResponse, error)
	GetSummary(ctx context.Context, payRunID string) (RunSummaryResponse, error)
}
