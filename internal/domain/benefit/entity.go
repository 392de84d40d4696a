package benefit

import (
	"time"

	"github.com/shopspring/decimal"
)

type EnrollmentStatus string

const (
	EnrollmentStatusPending    EnrollmentStatus = "pending"
	EnrollmentStatusActive     EnrollmentStatus = "active"
	EnrollmentStatusSuspended  EnrollmentStatus = "suspended"
	EnrollmentStatusTerminated EnrollmentStatus = "terminated"
)

type Enrollment struct {
	ID                  string
	CompanyID           string
	EmployeeID          string
	PlanName            string
	EmployeeMonthlyCost decimal.Decimal
	EmployerMonthlyCost decimal.Decimal
	Status              EnrollmentStatus
	EffectiveDate       time.Time
	EndDate             *time.Time
}

// ActiveOn reports whether the enrollment contributes a deduction on asOf.
func (e Enrollment) ActiveOn(asOf time.Time) bool {
	if e.Status != EnrollmentStatusActive {
		return false
	}
	if e.EffectiveDate.After(asOf) {
		return false
	}
	return e.EndDate == nil || !e.EndDate.Before(asOf)
}
