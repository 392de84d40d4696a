package tax

import (
	"time"

	"github.com/shopspring/decimal"
)

// Configuration is one jurisdiction's statutory rate card. At most one
// configuration per jurisdiction is active.
type Configuration struct {
	ID                 string
	CompanyID          string
	Jurisdiction       string
	Name               string
	IsActive           bool
	StandardDeduction  decimal.Decimal
	ProfessionalTax    decimal.Decimal // fixed amount per payroll
	ProvidentFundRate  decimal.Decimal // percent of basic
	CessRate           decimal.Decimal // percent of slab tax plus surcharge
	SurchargeThreshold decimal.Decimal
	SurchargeRate      decimal.Decimal // percent of slab tax
	Slabs              []Slab
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Slab is a marginal-rate income band. A nil Max marks the open-ended top band.
type Slab struct {
	Min  decimal.Decimal
	Max  *decimal.Decimal
	Rate decimal.Decimal
}

func (s Slab) OpenEnded() bool {
	return s.Max == nil
}

// Width is the band size; only meaningful for bounded slabs.
func (s Slab) Width() decimal.Decimal {
	if s.Max == nil {
		return decimal.Zero
	}
	return s.Max.Sub(s.Min)
}
