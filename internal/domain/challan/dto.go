package challan

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type ListFilter struct {
	Month *int `validate:"omitempty,min=1,max=12"`
	Year  *int `validate:"omitempty,min=2000,max=9999"`
}

func (f *ListFilter) Validate() error {
	return validator.Struct(f)
}

type MarkPaidRequest struct {
	Reference string `json:"reference" validate:"required,max=100"`
}

func (r *MarkPaidRequest) Validate() error {
	return validator.Struct(r)
}

type ChallanResponse struct {
	ID             string          `json:"id"`
	ObligationType ObligationType  `json:"obligation_type"`
	PeriodMonth    int             `json:"period_month"`
	PeriodYear     int             `json:"period_year"`
	Amount         decimal.Decimal `json:"amount"`
	DueDate        string          `json:"due_date"`
	Status         Status          `json:"status"`
	PayRunID       *string         `json:"pay_run_id,omitempty"`
	Reference      *string         `json:"reference,omitempty"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
}

func NewChallanResponse(c StatutoryChallan) ChallanResponse {
	return ChallanResponse{
		ID:             c.ID,
		ObligationType: c.ObligationType,
		PeriodMonth:    c.PeriodMonth,
		PeriodYear:     c.PeriodYear,
		Amount:         c.Amount,
		DueDate:        c.DueDate.Format("2006-01-02"),
		Status:         c.Status,
		PayRunID:       c.PayRunID,
		Reference:      c.Reference,
		PaidAt:         c.PaidAt,
	}
}
