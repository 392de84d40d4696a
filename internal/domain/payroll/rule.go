package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Rule is the evaluation strategy of a salary component. The set of
// implementations is closed: FixedAmount, PercentOfBasic, PercentOfGross.
type Rule interface {
	isRule()
}

type FixedAmount struct {
	Amount decimal.Decimal
}

// PercentOfBasic applies Rate percent to the basic salary.
type PercentOfBasic struct {
	Rate decimal.Decimal
}

// PercentOfGross applies Rate percent to basic plus fixed and basic-based
// earnings.
type PercentOfGross struct {
	Rate decimal.Decimal
}

func (FixedAmount) isRule()    {}
func (PercentOfBasic) isRule() {}
func (PercentOfGross) isRule() {}

// NewRule maps stored component columns onto a Rule.
func NewRule(calc CalculationType, of *PercentageBase, value decimal.Decimal) (Rule, error) {
	switch calc {
	case CalculationTypeFixed:
		if of != nil {
			return nil, fmt.Errorf("%w: fixed component cannot have a percentage base", ErrInvalidRule)
		}
		return FixedAmount{Amount: value}, nil
	case CalculationTypePercentage:
		if of == nil {
			return nil, fmt.Errorf("%w: percentage component needs a percentage base", ErrInvalidRule)
		}
		switch *of {
		case PercentageOfBasic:
			return PercentOfBasic{Rate: value}, nil
		case PercentageOfGross:
			return PercentOfGross{Rate: value}, nil
		default:
			return nil, fmt.Errorf("%w: unknown percentage base %q", ErrInvalidRule, *of)
		}
	default:
		return nil, fmt.Errorf("%w: unknown calculation type %q", ErrInvalidRule, calc)
	}
}

func (c SalaryComponent) Rule() (Rule, error) {
	r, err := NewRule(c.CalculationType, c.PercentageOf, c.Value)
	if err != nil {
		return nil, fmt.Errorf("component %q: %w", c.Name, err)
	}
	return r, nil
}
