package payroll

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/benefit"
	"github.com/shopspring/decimal"
)

// SumBenefitDeductions totals the employee-side monthly cost of every
// enrollment active on asOf.
func SumBenefitDeductions(enrollments []benefit.Enrollment, asOf time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, e := range enrollments {
		if e.ActiveOn(asOf) {
			total = total.Add(e.EmployeeMonthlyCost)
		}
	}
	return total.Round(2)
}
