package employee

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Employee is the slice of the employee directory payroll needs: identity,
// pay basis and bank details.
type Employee struct {
	ID                    string
	CompanyID             string
	EmployeeCode          string
	FullName              string
	EmploymentStatus      EmploymentStatus
	BankName              string
	BankAccountHolderName *string
	BankAccountNumber     string
	BankRoutingCode       string
	BaseSalary            *decimal.Decimal
	CreatedAt             time.Time
	UpdatedAt             time.Time
	DeletedAt             *time.Time
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

// Basic returns the configured base salary, or zero when none is set.
func (e Employee) Basic() decimal.Decimal {
	if e.BaseSalary == nil {
		return decimal.Zero
	}
	return *e.BaseSalary
}

func (e Employee) HasBankAccount() bool {
	return strings.TrimSpace(e.BankAccountNumber) != ""
}

func (e Employee) HasRoutingCode() bool {
	return strings.TrimSpace(e.BankRoutingCode) != ""
}
