package payroll

import (
	"fmt"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/benefit"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/tax"
	"github.com/shopspring/decimal"
)

// CalculationInput is everything one employee's payroll depends on. The tax
// engine is passed in rather than looked up so Compute stays pure.
type CalculationInput struct {
	Employee    employee.Employee
	Period      payroll.PayrollPeriod
	Settings    payroll.PayrollSettings
	Components  []payroll.SalaryComponent
	Attendance  []attendance.Attendance
	Leaves      []leave.ApprovedLeave
	Enrollments []benefit.Enrollment

	// Editable inputs carried over from the existing row
	OtherAllowances decimal.Decimal
	Bonus           decimal.Decimal

	Tax *tax.Engine
}

// Compute returns the figures of one payroll row.
func Compute(in CalculationInput) (payroll.Figures, error) {
	if in.Tax == nil {
		return payroll.Figures{}, &tax.ConfigurationError{
			Jurisdiction: in.Settings.TaxJurisdiction,
			Reason:       "no active tax configuration",
		}
	}

	hoursPerMonth := in.Settings.WorkingDaysPerMonth * in.Settings.StandardHoursPerDay
	if hoursPerMonth <= 0 {
		return payroll.Figures{}, fmt.Errorf("invalid payroll settings: working days %d, standard hours %d",
			in.Settings.WorkingDaysPerMonth, in.Settings.StandardHoursPerDay)
	}

	basic := in.Employee.Basic().Round(2)

	components, err := ResolveComponents(basic, in.Components)
	if err != nil {
		return payroll.Figures{}, err
	}

	att := ResolveAttendance(in.Period, in.Attendance, in.Leaves, in.Settings.StandardHoursPerDay*60)

	housing := percentOf(basic, in.Settings.HousingAllowanceRate)
	transport := in.Settings.TransportAllowance.Round(2)

	hourlyRate := basic.Div(decimal.NewFromInt(int64(hoursPerMonth))).Mul(in.Settings.OvertimeMultiplier)
	overtime := hourlyRate.Mul(att.OvertimeHours).Round(2)

	other := in.OtherAllowances.Round(2)
	bonus := in.Bonus.Round(2)

	gross := basic.
		Add(housing).
		Add(transport).
		Add(other).
		Add(bonus).
		Add(components.Earnings).
		Add(overtime)

	// Non-taxable component earnings are left out of the taxed income.
	assessment := in.Tax.Compute(gross.Sub(components.NonTaxableEarnings))

	cfg := in.Tax.Configuration()
	providentFund := percentOf(basic, cfg.ProvidentFundRate)
	professionalTax := cfg.ProfessionalTax.Round(2)
	benefits := SumBenefitDeductions(in.Enrollments, in.Period.EndDate)

	totalDeductions := providentFund.
		Add(professionalTax).
		Add(assessment.Total).
		Add(components.Deductions).
		Add(benefits)

	return payroll.Figures{
		BasicSalary:         basic,
		HousingAllowance:    housing,
		TransportAllowance:  transport,
		OtherAllowances:     other,
		Bonus:               bonus,
		ComponentEarnings:   components.Earnings,
		OvertimeHours:       att.OvertimeHours,
		OvertimeAmount:      overtime,
		EarningsBreakdown:   components.EarningsBreakdown,
		ProvidentFund:       providentFund,
		ProfessionalTax:     professionalTax,
		IncomeTax:           assessment.Total,
		BenefitDeductions:   benefits,
		ComponentDeductions: components.Deductions,
		DeductionsBreakdown: components.DeductionsBreakdown,
		GrossSalary:         gross,
		TotalDeductions:     totalDeductions,
		NetSalary:           gross.Sub(totalDeductions),
		PayableDays:         att.PayableDays,
		LOPDays:             att.LOPDays,
	}, nil
}

// ApplyEditableInputs swaps the row's other allowances and bonus for the
// given values and re-derives gross and net. Deductions are not recomputed,
// so net moves by exactly the change in the edited inputs.
func ApplyEditableInputs(row payroll.Payroll, otherAllowances, bonus *decimal.Decimal) payroll.Payroll {
	next := row
	if otherAllowances != nil {
		next.OtherAllowances = otherAllowances.Round(2)
	}
	if bonus != nil {
		next.Bonus = bonus.Round(2)
	}

	next.GrossSalary = row.GrossSalary.
		Sub(row.OtherAllowances).
		Sub(row.Bonus).
		Add(next.OtherAllowances).
		Add(next.Bonus)
	next.NetSalary = next.GrossSalary.Sub(next.TotalDeductions)

	return next
}
