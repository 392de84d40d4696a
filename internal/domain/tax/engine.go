package tax

import (
	"github.com/shopspring/decimal"
)

// Engine computes progressive tax for one validated configuration.
type Engine struct {
	config Configuration
	slabs  []Slab
}

// SlabApplication is the share of income that fell into one slab.
type SlabApplication struct {
	Min           decimal.Decimal  `json:"min"`
	Max           *decimal.Decimal `json:"max,omitempty"`
	Rate          decimal.Decimal  `json:"rate"`
	TaxableAmount decimal.Decimal  `json:"taxable_amount"`
	Tax           decimal.Decimal  `json:"tax"`
}

type Assessment struct {
	Income        decimal.Decimal   `json:"income"`
	TaxableIncome decimal.Decimal   `json:"taxable_income"`
	Applied       []SlabApplication `json:"applied"`
	SlabTax       decimal.Decimal   `json:"slab_tax"`
	Surcharge     decimal.Decimal   `json:"surcharge"`
	Cess          decimal.Decimal   `json:"cess"`
	Total         decimal.Decimal   `json:"total"`
}

// NewEngine validates cfg's slabs again so a configuration that bypassed the
// save path still cannot produce a silent zero.
func NewEngine(cfg Configuration) (*Engine, error) {
	sorted, err := ValidateSlabs(cfg.Slabs)
	if err != nil {
		if ce, ok := err.(*ConfigurationError); ok {
			ce.Jurisdiction = cfg.Jurisdiction
		}
		return nil, err
	}
	return &Engine{config: cfg, slabs: sorted}, nil
}

func (e *Engine) Configuration() Configuration {
	return e.config
}

// Compute walks the slabs in ascending order, taxing each band's share of
// the income at the band rate. Every figure is rounded to 2 decimal places.
func (e *Engine) Compute(income decimal.Decimal) Assessment {
	taxable := income.Sub(e.config.StandardDeduction)
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}

	result := Assessment{
		Income:        income.Round(2),
		TaxableIncome: taxable.Round(2),
	}

	remaining := taxable
	slabTax := decimal.Zero
	for _, s := range e.slabs {
		if !remaining.IsPositive() {
			break
		}
		amount := remaining
		if !s.OpenEnded() && s.Width().LessThan(amount) {
			amount = s.Width()
		}
		tax := amount.Mul(s.Rate).Div(hundred)
		slabTax = slabTax.Add(tax)
		remaining = remaining.Sub(amount)

		result.Applied = append(result.Applied, SlabApplication{
			Min:           s.Min,
			Max:           s.Max,
			Rate:          s.Rate,
			TaxableAmount: amount.Round(2),
			Tax:           tax.Round(2),
		})
	}

	surcharge := decimal.Zero
	if e.config.SurchargeRate.IsPositive() && taxable.GreaterThan(e.config.SurchargeThreshold) {
		surcharge = slabTax.Mul(e.config.SurchargeRate).Div(hundred)
	}
	cess := slabTax.Add(surcharge).Mul(e.config.CessRate).Div(hundred)

	result.SlabTax = slabTax.Round(2)
	result.Surcharge = surcharge.Round(2)
	result.Cess = cess.Round(2)
	result.Total = slabTax.Add(surcharge).Add(cess).Round(2)
	return result
}
