package payroll

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/challan"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// ========== SETTINGS DTOs ==========

type PayrollSettingsResponse struct {
	ID                   string          `json:"id,omitempty"`
	CompanyID            string          `json:"company_id"`
	HousingAllowanceRate decimal.Decimal `json:"housing_allowance_rate"`
	TransportAllowance   decimal.Decimal `json:"transport_allowance"`
	OvertimeMultiplier   decimal.Decimal `json:"overtime_multiplier"`
	WorkingDaysPerMonth  int             `json:"working_days_per_month"`
	StandardHoursPerDay  int             `json:"standard_hours_per_day"`
	TaxJurisdiction      string          `json:"tax_jurisdiction"`
}

func NewPayrollSettingsResponse(s PayrollSettings) PayrollSettingsResponse {
	return PayrollSettingsResponse{
		ID:                   s.ID,
		CompanyID:            s.CompanyID,
		HousingAllowanceRate: s.HousingAllowanceRate,
		TransportAllowance:   s.TransportAllowance,
		OvertimeMultiplier:   s.OvertimeMultiplier,
		WorkingDaysPerMonth:  s.WorkingDaysPerMonth,
		StandardHoursPerDay:  s.StandardHoursPerDay,
		TaxJurisdiction:      s.TaxJurisdiction,
	}
}

type UpdatePayrollSettingsRequest struct {
	HousingAllowanceRate *decimal.Decimal `json:"housing_allowance_rate,omitempty"`
	TransportAllowance   *decimal.Decimal `json:"transport_allowance,omitempty"`
	OvertimeMultiplier   *decimal.Decimal `json:"overtime_multiplier,omitempty"`
	WorkingDaysPerMonth  *int             `json:"working_days_per_month,omitempty" validate:"omitempty,min=1,max=31"`
	StandardHoursPerDay  *int             `json:"standard_hours_per_day,omitempty" validate:"omitempty,min=1,max=24"`
	TaxJurisdiction      *string          `json:"tax_jurisdiction,omitempty" validate:"omitempty,min=1,max=20"`
}

func (r *UpdatePayrollSettingsRequest) Validate() error {
	var errs validator.ValidationErrors
	if err := validator.Struct(r); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			errs = append(errs, ve...)
		} else {
			return err
		}
	}

	if r.HousingAllowanceRate != nil && (r.HousingAllowanceRate.IsNegative() || r.HousingAllowanceRate.GreaterThan(decimal.NewFromInt(100))) {
		errs = append(errs, validator.ValidationError{Field: "housing_allowance_rate", Message: "must be between 0 and 100"})
	}
	if r.TransportAllowance != nil && r.TransportAllowance.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "transport_allowance", Message: "must be non-negative"})
	}
	if r.OvertimeMultiplier != nil && r.OvertimeMultiplier.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "overtime_multiplier", Message: "must be non-negative"})
	}

	return errs.OrNil()
}

// ========== COMPONENT DTOs ==========

type CreateComponentRequest struct {
	Name            string          `json:"name" validate:"required,max=100"`
	Kind            string          `json:"kind" validate:"required,oneof=earning deduction"`
	CalculationType string          `json:"calculation_type" validate:"required,oneof=fixed percentage"`
	PercentageOf    *string         `json:"percentage_of,omitempty" validate:"omitempty,oneof=basic gross"`
	Value           decimal.Decimal `json:"value" validate:"gte=0"`
	IsTaxable       *bool           `json:"is_taxable,omitempty"`
}

func (r *CreateComponentRequest) Validate() error {
	var errs validator.ValidationErrors
	if err := validator.Struct(r); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			errs = append(errs, ve...)
		} else {
			return err
		}
	}

	if validator.IsEmpty(r.Name) && len(errs) == 0 {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "is required"})
	}
	switch CalculationType(r.CalculationType) {
	case CalculationTypePercentage:
		if r.PercentageOf == nil {
			errs = append(errs, validator.ValidationError{Field: "percentage_of", Message: "is required for percentage components"})
		}
		if r.Value.GreaterThan(decimal.NewFromInt(100)) {
			errs = append(errs, validator.ValidationError{Field: "value", Message: "percentage must not exceed 100"})
		}
	case CalculationTypeFixed:
		if r.PercentageOf != nil {
			errs = append(errs, validator.ValidationError{Field: "percentage_of", Message: "is not allowed for fixed components"})
		}
	}

	return errs.OrNil()
}

func (r *CreateComponentRequest) ToComponent(companyID string) SalaryComponent {
	c := SalaryComponent{
		CompanyID:       companyID,
		Name:            strings.TrimSpace(r.Name),
		Kind:            ComponentKind(r.Kind),
		CalculationType: CalculationType(r.CalculationType),
		Value:           r.Value,
		IsTaxable:       true,
	}
	if r.PercentageOf != nil {
		base := PercentageBase(*r.PercentageOf)
		c.PercentageOf = &base
	}
	if r.IsTaxable != nil {
		c.IsTaxable = *r.IsTaxable
	}
	return c
}

type ComponentResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Kind            ComponentKind   `json:"kind"`
	CalculationType CalculationType `json:"calculation_type"`
	PercentageOf    *PercentageBase `json:"percentage_of,omitempty"`
	Value           decimal.Decimal `json:"value"`
	IsTaxable       bool            `json:"is_taxable"`
	CreatedAt       time.Time       `json:"created_at"`
}

func NewComponentResponse(c SalaryComponent) ComponentResponse {
	return ComponentResponse{
		ID:              c.ID,
		Name:            c.Name,
		Kind:            c.Kind,
		CalculationType: c.CalculationType,
		PercentageOf:    c.PercentageOf,
		Value:           c.Value,
		IsTaxable:       c.IsTaxable,
		CreatedAt:       c.CreatedAt,
	}
}

// ========== PERIOD & PAY RUN DTOs ==========

type CreatePeriodRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

func (r *CreatePeriodRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	start, _ := validator.IsValidDate(r.StartDate)
	end, _ := validator.IsValidDate(r.EndDate)
	if end.Before(start) {
		return validator.ValidationErrors{{Field: "end_date", Message: "must not be before start_date"}}
	}
	return nil
}

type PeriodResponse struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	StartDate string       `json:"start_date"`
	EndDate   string       `json:"end_date"`
	Status    PeriodStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

func NewPeriodResponse(p PayrollPeriod) PeriodResponse {
	return PeriodResponse{
		ID:        p.ID,
		Name:      p.Name,
		StartDate: p.StartDate.Format(dateLayout),
		EndDate:   p.EndDate.Format(dateLayout),
		Status:    p.Status,
		CreatedAt: p.CreatedAt,
	}
}

type PayRunResponse struct {
	ID              string       `json:"id"`
	PayrollPeriodID string       `json:"payroll_period_id"`
	Status          PayRunStatus `json:"status"`
	TotalEmployees  int          `json:"total_employees"`
	CreatedBy       *string      `json:"created_by,omitempty"`
	FinalizedAt     *time.Time   `json:"finalized_at,omitempty"`
	FinalizedBy     *string      `json:"finalized_by,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func NewPayRunResponse(r PayRun) PayRunResponse {
	return PayRunResponse{
		ID:              r.ID,
		PayrollPeriodID: r.PayrollPeriodID,
		Status:          r.Status,
		TotalEmployees:  r.TotalEmployees,
		CreatedBy:       r.CreatedBy,
		FinalizedAt:     r.FinalizedAt,
		FinalizedBy:     r.FinalizedBy,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type FinalizeResponse struct {
	PayRun   PayRunResponse            `json:"pay_run"`
	Challans []challan.ChallanResponse `json:"challans"`
}

type RollbackRequest struct {
	Reason string `json:"reason"`
}

func (r *RollbackRequest) Validate() error {
	if validator.IsEmpty(r.Reason) {
		return validator.ValidationErrors{{Field: "reason", Message: "is required"}}
	}
	if len(r.Reason) > 1000 {
		return validator.ValidationErrors{{Field: "reason", Message: "must be at most 1000 characters"}}
	}
	return nil
}

// ========== PAYROLL ROW DTOs ==========

// UpdatePayrollRequest carries the editable inputs of a payroll row.
type UpdatePayrollRequest struct {
	OtherAllowances *decimal.Decimal `json:"other_allowances,omitempty"`
	Bonus           *decimal.Decimal `json:"bonus,omitempty"`
}

func (r *UpdatePayrollRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.OtherAllowances == nil && r.Bonus == nil {
		errs = append(errs, validator.ValidationError{Field: "body", Message: "at least one of other_allowances or bonus is required"})
	}
	if r.OtherAllowances != nil && r.OtherAllowances.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "other_allowances", Message: "must be non-negative"})
	}
	if r.Bonus != nil && r.Bonus.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "bonus", Message: "must be non-negative"})
	}

	return errs.OrNil()
}

type PayrollResponse struct {
	ID                  string                     `json:"id"`
	PayRunID            string                     `json:"pay_run_id"`
	PayrollPeriodID     string                     `json:"payroll_period_id"`
	EmployeeID          string                     `json:"employee_id"`
	EmployeeName        *string                    `json:"employee_name,omitempty"`
	EmployeeCode        *string                    `json:"employee_code,omitempty"`
	BasicSalary         decimal.Decimal            `json:"basic_salary"`
	HousingAllowance    decimal.Decimal            `json:"housing_allowance"`
	TransportAllowance  decimal.Decimal            `json:"transport_allowance"`
	OtherAllowances     decimal.Decimal            `json:"other_allowances"`
	Bonus               decimal.Decimal            `json:"bonus"`
	ComponentEarnings   decimal.Decimal            `json:"component_earnings"`
	OvertimeHours       decimal.Decimal            `json:"overtime_hours"`
	OvertimeAmount      decimal.Decimal            `json:"overtime_amount"`
	EarningsBreakdown   map[string]decimal.Decimal `json:"earnings_breakdown"`
	ProvidentFund       decimal.Decimal            `json:"provident_fund"`
	ProfessionalTax     decimal.Decimal            `json:"professional_tax"`
	IncomeTax           decimal.Decimal            `json:"income_tax"`
	BenefitDeductions   decimal.Decimal            `json:"benefit_deductions"`
	ComponentDeductions decimal.Decimal            `json:"component_deductions"`
	DeductionsBreakdown map[string]decimal.Decimal `json:"deductions_breakdown"`
	GrossSalary         decimal.Decimal            `json:"gross_salary"`
	TotalDeductions     decimal.Decimal            `json:"total_deductions"`
	NetSalary           decimal.Decimal            `json:"net_salary"`
	PayableDays         int                        `json:"payable_days"`
	LOPDays             int                        `json:"lop_days"`
	Status              PayrollStatus              `json:"status"`
	ApprovedBy          *string                    `json:"approved_by,omitempty"`
	ApprovedAt          *time.Time                 `json:"approved_at,omitempty"`
	UpdatedAt           time.Time                  `json:"updated_at"`
}

func NewPayrollResponse(p Payroll) PayrollResponse {
	return PayrollResponse{
		ID:                  p.ID,
		PayRunID:            p.PayRunID,
		PayrollPeriodID:     p.PayrollPeriodID,
		EmployeeID:          p.EmployeeID,
		EmployeeName:        p.EmployeeName,
		EmployeeCode:        p.EmployeeCode,
		BasicSalary:         p.BasicSalary,
		HousingAllowance:    p.HousingAllowance,
		TransportAllowance:  p.TransportAllowance,
		OtherAllowances:     p.OtherAllowances,
		Bonus:               p.Bonus,
		ComponentEarnings:   p.ComponentEarnings,
		OvertimeHours:       p.OvertimeHours,
		OvertimeAmount:      p.OvertimeAmount,
		EarningsBreakdown:   p.EarningsBreakdown,
		ProvidentFund:       p.ProvidentFund,
		ProfessionalTax:     p.ProfessionalTax,
		IncomeTax:           p.IncomeTax,
		BenefitDeductions:   p.BenefitDeductions,
		ComponentDeductions: p.ComponentDeductions,
		DeductionsBreakdown: p.DeductionsBreakdown,
		GrossSalary:         p.GrossSalary,
		TotalDeductions:     p.TotalDeductions,
		NetSalary:           p.NetSalary,
		PayableDays:         p.PayableDays,
		LOPDays:             p.LOPDays,
		Status:              p.Status,
		ApprovedBy:          p.ApprovedBy,
		ApprovedAt:          p.ApprovedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

type AuditLogResponse struct {
	ID        string    `json:"id"`
	Field     string    `json:"field"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	ChangedBy *string   `json:"changed_by,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

func NewAuditLogResponse(l AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:        l.ID,
		Field:     l.Field,
		OldValue:  l.OldValue,
		NewValue:  l.NewValue,
		ChangedBy: l.ChangedBy,
		ChangedAt: l.ChangedAt,
	}
}

// ========== DOWNSTREAM DTOs ==========

type DisbursementItem struct {
	PayrollID         string          `json:"payroll_id"`
	EmployeeID        string          `json:"employee_id"`
	EmployeeCode      string          `json:"employee_code"`
	EmployeeName      string          `json:"employee_name"`
	BankName          string          `json:"bank_name"`
	AccountHolderName *string         `json:"account_holder_name,omitempty"`
	AccountNumber     string          `json:"account_number"`
	RoutingCode       string          `json:"routing_code"`
	NetSalary         decimal.Decimal `json:"net_salary"`
}

type DisbursementResponse struct {
	PayRunID string             `json:"pay_run_id"`
	Period   PeriodResponse     `json:"period"`
	Items    []DisbursementItem `json:"items"`
	Total    decimal.Decimal    `json:"total"`
}

type RunSummaryResponse struct {
	PayRunID          string          `json:"pay_run_id"`
	Status            PayRunStatus    `json:"status"`
	TotalEmployees    int             `json:"total_employees"`
	GrossSalary       decimal.Decimal `json:"gross_salary"`
	TotalDeductions   decimal.Decimal `json:"total_deductions"`
	NetSalary         decimal.Decimal `json:"net_salary"`
	ProvidentFund     decimal.Decimal `json:"provident_fund"`
	ProfessionalTax   decimal.Decimal `json:"professional_tax"`
	IncomeTax         decimal.Decimal `json:"income_tax"`
	BenefitDeductions decimal.Decimal `json:"benefit_deductions"`
	ApprovedRows      int             `json:"approved_rows"`
}
