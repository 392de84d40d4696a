package payroll

import (
	"context"
	"time"
)

// LockMode selects the row lock taken on a pay run.
type LockMode int

const (
	// LockForShare blocks status changes while a row edit is in flight.
	LockForShare LockMode = iota
	// LockForUpdate serialises lifecycle transitions.
	LockForUpdate
)

// Every method takes companyID so one company cannot reach another's rows.

type SettingsRepository interface {
	GetSettings(ctx context.Context, companyID string) (PayrollSettings, error)
	UpsertSettings(ctx context.Context, settings PayrollSettings) (PayrollSettings, error)
}

type ComponentRepository interface {
	CreateComponent(ctx context.Context, component SalaryComponent) (SalaryComponent, error)
	GetComponentByID(ctx context.Context, id string, companyID string) (SalaryComponent, error)
	// ListComponents excludes soft-deleted components.
	ListComponents(ctx context.Context, companyID string) ([]SalaryComponent, error)
	SoftDeleteComponent(ctx context.Context, id string, companyID string) error
}

type PeriodRepository interface {
	CreatePeriod(ctx context.Context, period PayrollPeriod) (PayrollPeriod, error)
	GetPeriodByID(ctx context.Context, id string, companyID string) (PayrollPeriod, error)
	ListPeriods(ctx context.Context, companyID string) ([]PayrollPeriod, error)
	UpdatePeriodStatus(ctx context.Context, id string, companyID string, status PeriodStatus) error
}

type PayRunRepository interface {
	CreatePayRun(ctx context.Context, run PayRun) (PayRun, error)
	GetPayRunByID(ctx context.Context, id string, companyID string) (PayRun, error)
	ListPayRuns(ctx context.Context, companyID string) ([]PayRun, error)
	// LockPayRun reads the run with a row lock held until the surrounding
	// transaction ends. Must be called inside a transaction.
	LockPayRun(ctx context.Context, id string, companyID string, mode LockMode) (PayRun, error)
	UpdatePayRun(ctx context.Context, run PayRun) error

	CreateRollbackLog(ctx context.Context, log RollbackLog) (RollbackLog, error)
	ListRollbackLogs(ctx context.Context, payRunID string) ([]RollbackLog, error)
	CreateSnapshot(ctx context.Context, snapshot RunSnapshot) (RunSnapshot, error)
}

type PayrollRepository interface {
	// UpsertPayrolls writes rows keyed by (employee, period); an existing row
	// is overwritten in place, never duplicated.
	UpsertPayrolls(ctx context.Context, rows []Payroll) ([]Payroll, error)
	GetPayrollByID(ctx context.Context, id string, companyID string) (Payroll, error)
	ListPayrollsByPayRun(ctx context.Context, payRunID string, companyID string) ([]Payroll, error)
	// ListFinalizedPayrollsByMonth returns the rows of every finalized pay
	// run whose period ends in month of year.
	ListFinalizedPayrollsByMonth(ctx context.Context, companyID string, year int, month time.Month) ([]Payroll, error)
	UpdatePayroll(ctx context.Context, row Payroll) error
	SetPayrollStatusByPayRun(ctx context.Context, payRunID string, companyID string, status PayrollStatus) error
}

type AuditRepository interface {
	AppendAuditLogs(ctx context.Context, logs []AuditLog) error
	// ListAuditLogs returns entries oldest first.
	ListAuditLogs(ctx context.Context, payrollID string) ([]AuditLog, error)
}
