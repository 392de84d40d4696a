package payroll

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// FieldChange is one differing field between two versions of a payroll row.
type FieldChange struct {
	Field    string
	OldValue string
	NewValue string
}

type auditedField struct {
	name  string
	value func(p payroll.Payroll) string
}

func money(get func(p payroll.Payroll) decimal.Decimal) func(p payroll.Payroll) string {
	return func(p payroll.Payroll) string { return get(p).StringFixed(2) }
}

// auditedFields is the fixed order in which changes are reported.
var auditedFields = []auditedField{
	{"basic_salary", money(func(p payroll.Payroll) decimal.Decimal { return p.BasicSalary })},
	{"housing_allowance", money(func(p payroll.Payroll) decimal.Decimal { return p.HousingAllowance })},
	{"transport_allowance", money(func(p payroll.Payroll) decimal.Decimal { return p.TransportAllowance })},
	{"other_allowances", money(func(p payroll.Payroll) decimal.Decimal { return p.OtherAllowances })},
	{"bonus", money(func(p payroll.Payroll) decimal.Decimal { return p.Bonus })},
	{"component_earnings", money(func(p payroll.Payroll) decimal.Decimal { return p.ComponentEarnings })},
	{"overtime_hours", money(func(p payroll.Payroll) decimal.Decimal { return p.OvertimeHours })},
	{"overtime_amount", money(func(p payroll.Payroll) decimal.Decimal { return p.OvertimeAmount })},
	{"earnings_breakdown", func(p payroll.Payroll) string { return breakdownString(p.EarningsBreakdown) }},
	{"provident_fund", money(func(p payroll.Payroll) decimal.Decimal { return p.ProvidentFund })},
	{"professional_tax", money(func(p payroll.Payroll) decimal.Decimal { return p.ProfessionalTax })},
	{"income_tax", money(func(p payroll.Payroll) decimal.Decimal { return p.IncomeTax })},
	{"benefit_deductions", money(func(p payroll.Payroll) decimal.Decimal { return p.BenefitDeductions })},
	{"component_deductions", money(func(p payroll.Payroll) decimal.Decimal { return p.ComponentDeductions })},
	{"deductions_breakdown", func(p payroll.Payroll) string { return breakdownString(p.DeductionsBreakdown) }},
	{"gross_salary", money(func(p payroll.Payroll) decimal.Decimal { return p.GrossSalary })},
	{"total_deductions", money(func(p payroll.Payroll) decimal.Decimal { return p.TotalDeductions })},
	{"net_salary", money(func(p payroll.Payroll) decimal.Decimal { return p.NetSalary })},
	{"payable_days", func(p payroll.Payroll) string { return strconv.Itoa(p.PayableDays) }},
	{"lop_days", func(p payroll.Payroll) string { return strconv.Itoa(p.LOPDays) }},
	{"status", func(p payroll.Payroll) string { return string(p.Status) }},
	{"approved_by", func(p payroll.Payroll) string { return stringOrEmpty(p.ApprovedBy) }},
	{"approved_at", func(p payroll.Payroll) string { return timeOrEmpty(p.ApprovedAt) }},
}

// DiffPayroll compares two versions of a row field by field. Decimals are
// compared by value, so 1600 and 1600.00 are equal.
func DiffPayroll(prev, next payroll.Payroll) []FieldChange {
	var changes []FieldChange
	for _, f := range auditedFields {
		before, after := f.value(prev), f.value(next)
		if before != after {
			changes = append(changes, FieldChange{Field: f.name, OldValue: before, NewValue: after})
		}
	}
	return changes
}

// auditLogs turns the changes of one row into audit entries.
func auditLogs(payrollID string, changes []FieldChange, actor *string, at time.Time) []payroll.AuditLog {
	logs := make([]payroll.AuditLog, 0, len(changes))
	for _, c := range changes {
		logs = append(logs, payroll.AuditLog{
			PayrollID: payrollID,
			Field:     c.Field,
			OldValue:  c.OldValue,
			NewValue:  c.NewValue,
			ChangedBy: actor,
			ChangedAt: at,
		})
	}
	return logs
}

func breakdownString(m map[string]decimal.Decimal) string {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if v.IsZero() {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+m[k].StringFixed(2))
	}
	return strings.Join(parts, ";")
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func timeOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
