package payroll

import (
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ComponentResult holds the evaluated salary components of one employee.
type ComponentResult struct {
	Earnings            decimal.Decimal
	Deductions          decimal.Decimal
	NonTaxableEarnings  decimal.Decimal
	EarningsBreakdown   map[string]decimal.Decimal
	DeductionsBreakdown map[string]decimal.Decimal
}

func (r *ComponentResult) add(c payroll.SalaryComponent, amount decimal.Decimal) {
	switch c.Kind {
	case payroll.ComponentKindDeduction:
		r.Deductions = r.Deductions.Add(amount)
		r.DeductionsBreakdown[c.Name] = r.DeductionsBreakdown[c.Name].Add(amount)
	default:
		r.Earnings = r.Earnings.Add(amount)
		r.EarningsBreakdown[c.Name] = r.EarningsBreakdown[c.Name].Add(amount)
		if !c.IsTaxable {
			r.NonTaxableEarnings = r.NonTaxableEarnings.Add(amount)
		}
	}
}

// ResolveComponents evaluates components in two passes. Pass one handles
// fixed amounts and percentages of basic. Pass two applies percentages of
// gross, where gross is basic plus the pass one earnings.
func ResolveComponents(basic decimal.Decimal, components []payroll.SalaryComponent) (ComponentResult, error) {
	result := ComponentResult{
		Earnings:            decimal.Zero,
		Deductions:          decimal.Zero,
		NonTaxableEarnings:  decimal.Zero,
		EarningsBreakdown:   map[string]decimal.Decimal{},
		DeductionsBreakdown: map[string]decimal.Decimal{},
	}

	type deferred struct {
		component payroll.SalaryComponent
		rate      decimal.Decimal
	}
	var grossBased []deferred

	for _, c := range components {
		rule, err := c.Rule()
		if err != nil {
			return ComponentResult{}, err
		}
		switch r := rule.(type) {
		case payroll.FixedAmount:
			result.add(c, r.Amount.Round(2))
		case payroll.PercentOfBasic:
			result.add(c, percentOf(basic, r.Rate))
		case payroll.PercentOfGross:
			grossBased = append(grossBased, deferred{component: c, rate: r.Rate})
		}
	}

	gross := basic.Add(result.Earnings)
	for _, d := range grossBased {
		result.add(d.component, percentOf(gross, d.rate))
	}

	return result, nil
}

func percentOf(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate).Div(hundred).Round(2)
}
