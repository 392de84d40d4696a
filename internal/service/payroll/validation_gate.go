package payroll

import (
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
)

const (
	IssueBasicSalary = "Basic salary must be greater than zero"
	IssueNetSalary   = "Net salary must be greater than zero"
	IssueGrossBelow  = "Gross salary is less than total deductions"
	IssuePayableDays = "Payable days must be greater than zero"
	IssueBankAccount = "Bank account number missing"
	IssueRoutingCode = "Bank routing/IFSC code missing"
)

// ValidateRun checks every row of a pay run and returns the issues of each
// failing employee, in row order. An empty result means the run may be
// finalized. Rows whose employee is missing from employees fail the bank
// account check.
func ValidateRun(rows []payroll.Payroll, employees map[string]employee.Employee) []payroll.EmployeeIssues {
	var result []payroll.EmployeeIssues

	for _, row := range rows {
		var issues []string

		if !row.BasicSalary.IsPositive() {
			issues = append(issues, IssueBasicSalary)
		}
		if !row.NetSalary.IsPositive() {
			issues = append(issues, IssueNetSalary)
		}
		if row.GrossSalary.LessThan(row.TotalDeductions) {
			issues = append(issues, IssueGrossBelow)
		}
		if row.PayableDays <= 0 {
			issues = append(issues, IssuePayableDays)
		}

		// One bank issue per employee: the routing code only matters once
		// there is an account to route to.
		emp, ok := employees[row.EmployeeID]
		switch {
		case !ok || !emp.HasBankAccount():
			issues = append(issues, IssueBankAccount)
		case !emp.HasRoutingCode():
			issues = append(issues, IssueRoutingCode)
		}

		if len(issues) == 0 {
			continue
		}
		result = append(result, payroll.EmployeeIssues{
			EmployeeID:   row.EmployeeID,
			EmployeeName: emp.FullName,
			PayrollID:    row.ID,
			Issues:       issues,
		})
	}

	return result
}
