package tax

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type SlabRequest struct {
	Min  decimal.Decimal  `json:"min" validate:"gte=0"`
	Max  *decimal.Decimal `json:"max,omitempty"`
	Rate decimal.Decimal  `json:"rate" validate:"gte=0,lte=100"`
}

type SaveConfigurationRequest struct {
	Jurisdiction       string          `json:"jurisdiction" validate:"required,max=20"`
	Name               string          `json:"name" validate:"required,max=100"`
	IsActive           bool            `json:"is_active"`
	StandardDeduction  decimal.Decimal `json:"standard_deduction" validate:"gte=0"`
	ProfessionalTax    decimal.Decimal `json:"professional_tax" validate:"gte=0"`
	ProvidentFundRate  decimal.Decimal `json:"provident_fund_rate" validate:"gte=0,lte=100"`
	CessRate           decimal.Decimal `json:"cess_rate" validate:"gte=0,lte=100"`
	SurchargeThreshold decimal.Decimal `json:"surcharge_threshold" validate:"gte=0"`
	SurchargeRate      decimal.Decimal `json:"surcharge_rate" validate:"gte=0,lte=100"`
	Slabs              []SlabRequest   `json:"slabs" validate:"required,min=1,dive"`
}

func (r *SaveConfigurationRequest) Validate() error {
	return validator.Struct(r)
}

func (r *SaveConfigurationRequest) ToConfiguration(companyID string) Configuration {
	slabs := make([]Slab, 0, len(r.Slabs))
	for _, s := range r.Slabs {
		slabs = append(slabs, Slab{Min: s.Min, Max: s.Max, Rate: s.Rate})
	}
	return Configuration{
		CompanyID:          companyID,
		Jurisdiction:       r.Jurisdiction,
		Name:               r.Name,
		IsActive:           r.IsActive,
		StandardDeduction:  r.StandardDeduction,
		ProfessionalTax:    r.ProfessionalTax,
		ProvidentFundRate:  r.ProvidentFundRate,
		CessRate:           r.CessRate,
		SurchargeThreshold: r.SurchargeThreshold,
		SurchargeRate:      r.SurchargeRate,
		Slabs:              slabs,
	}
}

type SlabResponse struct {
	Min  decimal.Decimal  `json:"min"`
	Max  *decimal.Decimal `json:"max"`
	Rate decimal.Decimal  `json:"rate"`
}

type ConfigurationResponse struct {
	ID                 string          `json:"id"`
	CompanyID          string          `json:"company_id"`
	Jurisdiction       string          `json:"jurisdiction"`
	Name               string          `json:"name"`
	IsActive           bool            `json:"is_active"`
	StandardDeduction  decimal.Decimal `json:"standard_deduction"`
	ProfessionalTax    decimal.Decimal `json:"professional_tax"`
	ProvidentFundRate  decimal.Decimal `json:"provident_fund_rate"`
	CessRate           decimal.Decimal `json:"cess_rate"`
	SurchargeThreshold decimal.Decimal `json:"surcharge_threshold"`
	SurchargeRate      decimal.Decimal `json:"surcharge_rate"`
	Slabs              []SlabResponse  `json:"slabs"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func NewConfigurationResponse(c Configuration) ConfigurationResponse {
	slabs := make([]SlabResponse, 0, len(c.Slabs))
	for _, s := range c.Slabs {
		slabs = append(slabs, SlabResponse{Min: s.Min, Max: s.Max, Rate: s.Rate})
	}
	return ConfigurationResponse{
		ID:                 c.ID,
		CompanyID:          c.CompanyID,
		Jurisdiction:       c.Jurisdiction,
		Name:               c.Name,
		IsActive:           c.IsActive,
		StandardDeduction:  c.StandardDeduction,
		ProfessionalTax:    c.ProfessionalTax,
		ProvidentFundRate:  c.ProvidentFundRate,
		CessRate:           c.CessRate,
		SurchargeThreshold: c.SurchargeThreshold,
		SurchargeRate:      c.SurchargeRate,
		Slabs:              slabs,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}
