package challan

import (
	"time"

	"github.com/shopspring/decimal"
)

// ObligationType enum
type ObligationType string

const (
	ObligationProvidentFund   ObligationType = "provident_fund"
	ObligationProfessionalTax ObligationType = "professional_tax"
	ObligationIncomeTax       ObligationType = "income_tax"
)

// ObligationTypes in the order challans are generated.
var ObligationTypes = []ObligationType{
	ObligationProvidentFund,
	ObligationProfessionalTax,
	ObligationIncomeTax,
}

// Status enum. Statuses only move forward: due, paid, overdue.
type Status string

const (
	StatusDue     Status = "due"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

func (s Status) rank() int {
	switch s {
	case StatusDue:
		return 1
	case StatusPaid:
		return 2
	case StatusOverdue:
		return 3
	default:
		return 0
	}
}

// CanAdvanceTo reports whether moving from s to next goes forward.
func (s Status) CanAdvanceTo(next Status) bool {
	return s.rank() > 0 && next.rank() > s.rank()
}

// StatutoryChallan - one liability per (company, obligation, month, year)
type StatutoryChallan struct {
	ID             string
	CompanyID      string
	ObligationType ObligationType
	PeriodMonth    int
	PeriodYear     int
	Amount         decimal.Decimal
	DueDate        time.Time
	Status         Status
	PayRunID       *string
	Reference      *string
	PaidAt         *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Contribution is one payroll row's statutory deductions.
type Contribution struct {
	ProvidentFund   decimal.Decimal
	ProfessionalTax decimal.Decimal
	IncomeTax       decimal.Decimal
}

// GenerateInput describes a finalized pay run. Contributions cover every
// finalized run of the company whose period ends in the same month.
type GenerateInput struct {
	CompanyID     string
	PayRunID      string
	PeriodEnd     time.Time
	Contributions []Contribution
}

// Totals sums the contributions per obligation type.
func (in GenerateInput) Totals() map[ObligationType]decimal.Decimal {
	totals := map[ObligationType]decimal.Decimal{
		ObligationProvidentFund:   decimal.Zero,
		ObligationProfessionalTax: decimal.Zero,
		ObligationIncomeTax:       decimal.Zero,
	}
	for _, c := range in.Contributions {
		totals[ObligationProvidentFund] = totals[ObligationProvidentFund].Add(c.ProvidentFund)
		totals[ObligationProfessionalTax] = totals[ObligationProfessionalTax].Add(c.ProfessionalTax)
		totals[ObligationIncomeTax] = totals[ObligationIncomeTax].Add(c.IncomeTax)
	}
	return totals
}

// DueDateFor returns day dueDay of the month after periodEnd, clamped to
// the length of that month.
func DueDateFor(periodEnd time.Time, dueDay int) time.Time {
	firstOfNext := time.Date(periodEnd.Year(), periodEnd.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	lastDay := firstOfNext.AddDate(0, 1, -1).Day()
	if dueDay < 1 {
		dueDay = 1
	}
	if dueDay > lastDay {
		dueDay = lastDay
	}
	return time.Date(firstOfNext.Year(), firstOfNext.Month(), dueDay, 0, 0, 0, 0, time.UTC)
}
