package payroll

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffPayroll_NoChanges(t *testing.T) {
	row := validRow("p1", "e1")
	row.EarningsBreakdown = map[string]decimal.Decimal{"Transport": d("1600")}

	same := row
	same.BasicSalary = d("50000.00")
	same.EarningsBreakdown = map[string]decimal.Decimal{"Transport": d("1600.00")}

	assert.Empty(t, DiffPayroll(row, same))
}

func TestDiffPayroll_ReportsChangedFieldsInOrder(t *testing.T) {
	row := validRow("p1", "e1")
	next := ApplyEditableInputs(row, nil, dp("1000"))
	next.Status = payroll.PayrollStatusFinalized

	changes := DiffPayroll(row, next)

	require.Len(t, changes, 4)
	assert.Equal(t, FieldChange{Field: "bonus", OldValue: "0.00", NewValue: "1000.00"}, changes[0])
	assert.Equal(t, FieldChange{Field: "gross_salary", OldValue: "60000.00", NewValue: "61000.00"}, changes[1])
	assert.Equal(t, FieldChange{Field: "net_salary", OldValue: "52000.00", NewValue: "53000.00"}, changes[2])
	assert.Equal(t, FieldChange{Field: "status", OldValue: "", NewValue: "finalized"}, changes[3])
}

func TestDiffPayroll_Breakdown(t *testing.T) {
	row := validRow("p1", "e1")
	next := row
	next.DeductionsBreakdown = map[string]decimal.Decimal{"Loan": d("1500"), "Canteen": d("250")}

	changes := DiffPayroll(row, next)

	require.Len(t, changes, 1)
	assert.Equal(t, "deductions_breakdown", changes[0].Field)
	assert.Equal(t, "", changes[0].OldValue)
	assert.Equal(t, "Canteen=250.00;Loan=1500.00", changes[0].NewValue)
}

func TestDiffPayroll_Approval(t *testing.T) {
	row := validRow("p1", "e1")
	approver := "user-9"
	approvedAt := time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC)
	next := row
	next.ApprovedBy = &approver
	next.ApprovedAt = &approvedAt

	changes := DiffPayroll(row, next)

	require.Len(t, changes, 2)
	assert.Equal(t, FieldChange{Field: "approved_by", OldValue: "", NewValue: "user-9"}, changes[0])
	assert.Equal(t, FieldChange{Field: "approved_at", OldValue: "", NewValue: "2025-03-01T08:30:00Z"}, changes[1])
}

func TestAuditLogs(t *testing.T) {
	actor := "user-1"
	now := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)

	logs := auditLogs("p1", []FieldChange{{Field: "bonus", OldValue: "0.00", NewValue: "10.00"}}, &actor, now)

	require.Len(t, logs, 1)
	assert.Equal(t, payroll.AuditLog{
		PayrollID: "p1",
		Field:     "bonus",
		OldValue:  "0.00",
		NewValue:  "10.00",
		ChangedBy: &actor,
		ChangedAt: now,
	}, logs[0])
}
