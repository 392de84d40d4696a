package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayrollSettings - Company payroll configuration
type PayrollSettings struct {
	ID                   string
	CompanyID            string
	HousingAllowanceRate decimal.Decimal // percent of basic
	TransportAllowance   decimal.Decimal
	OvertimeMultiplier   decimal.Decimal
	WorkingDaysPerMonth  int
	StandardHoursPerDay  int
	TaxJurisdiction      string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// DefaultSettings is what a company gets until it saves its own settings.
func DefaultSettings(companyID, jurisdiction string) PayrollSettings {
	return PayrollSettings{
		CompanyID:            companyID,
		HousingAllowanceRate: decimal.NewFromInt(40),
		TransportAllowance:   decimal.NewFromInt(1600),
		OvertimeMultiplier:   decimal.RequireFromString("1.5"),
		WorkingDaysPerMonth:  26,
		StandardHoursPerDay:  8,
		TaxJurisdiction:      jurisdiction,
	}
}

// ComponentKind enum
type ComponentKind string

const (
	ComponentKindEarning   ComponentKind = "earning"
	ComponentKindDeduction ComponentKind = "deduction"
)

// CalculationType enum
type CalculationType string

const (
	CalculationTypeFixed      CalculationType = "fixed"
	CalculationTypePercentage CalculationType = "percentage"
)

// PercentageBase enum
type PercentageBase string

const (
	PercentageOfBasic PercentageBase = "basic"
	PercentageOfGross PercentageBase = "gross"
)

// SalaryComponent - company-wide earning or deduction rule
type SalaryComponent struct {
	ID              string
	CompanyID       string
	Name            string
	Kind            ComponentKind
	CalculationType CalculationType
	PercentageOf    *PercentageBase
	Value           decimal.Decimal // amount for fixed, percent for percentage
	IsTaxable       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

// PeriodStatus enum
type PeriodStatus string

const (
	PeriodStatusDraft      PeriodStatus = "draft"
	PeriodStatusProcessing PeriodStatus = "processing"
	PeriodStatusApproved   PeriodStatus = "approved"
	PeriodStatusPaid       PeriodStatus = "paid"
)

// PayrollPeriod - named, inclusive date window
type PayrollPeriod struct {
	ID        string
	CompanyID string
	Name      string
	StartDate time.Time
	EndDate   time.Time
	Status    PeriodStatus
	CreatedBy *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CalendarDays counts the days in the window, both ends included.
func (p PayrollPeriod) CalendarDays() int {
	return int(p.EndDate.Sub(p.StartDate).Hours()/24) + 1
}

// PayRun - one batch execution for one period of one company
type PayRun struct {
	ID              string
	CompanyID       string
	PayrollPeriodID string
	Status          PayRunStatus
	TotalEmployees  int
	CreatedBy       *string
	FinalizedAt     *time.Time
	FinalizedBy     *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PayrollStatus enum
type PayrollStatus string

const (
	PayrollStatusInProgress PayrollStatus = "in_progress"
	PayrollStatusFinalized  PayrollStatus = "finalized"
)

// Figures is the computed part of a payroll row.
type Figures struct {
	BasicSalary        decimal.Decimal
	HousingAllowance   decimal.Decimal
	TransportAllowance decimal.Decimal
	OtherAllowances    decimal.Decimal
	Bonus              decimal.Decimal
	ComponentEarnings  decimal.Decimal
	OvertimeHours      decimal.Decimal
	OvertimeAmount     decimal.Decimal
	EarningsBreakdown  map[string]decimal.Decimal // {"Transport": 1600}

	ProvidentFund       decimal.Decimal
	ProfessionalTax     decimal.Decimal
	IncomeTax           decimal.Decimal
	BenefitDeductions   decimal.Decimal
	ComponentDeductions decimal.Decimal
	DeductionsBreakdown map[string]decimal.Decimal

	GrossSalary     decimal.Decimal
	TotalDeductions decimal.Decimal
	NetSalary       decimal.Decimal

	PayableDays int
	LOPDays     int
}

// Payroll - one employee's result for one pay run
type Payroll struct {
	ID              string
	PayRunID        string
	PayrollPeriodID string
	CompanyID       string
	EmployeeID      string
	Figures
	Status     PayrollStatus
	ApprovedBy *string
	ApprovedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Joined fields
	EmployeeName *string
	EmployeeCode *string
}

// AuditLog - one changed field on a payroll row. Append-only.
type AuditLog struct {
	ID        string
	PayrollID string
	Field     string
	OldValue  string
	NewValue  string
	ChangedBy *string
	ChangedAt time.Time
}

// RollbackLog - one reopening of a finalized pay run. Append-only.
type RollbackLog struct {
	ID           string
	PayRunID     string
	RolledBackBy *string
	Reason       string
	RolledBackAt time.Time
}

// RunSnapshot - immutable copy of a pay run's rows taken at finalize.
type RunSnapshot struct {
	ID        string
	PayRunID  string
	Payload   []byte
	CreatedBy *string
	CreatedAt time.Time
}
