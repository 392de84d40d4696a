package challan

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestStatus_CanAdvanceTo(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusDue, StatusPaid, true},
		{StatusDue, StatusOverdue, true},
		{StatusPaid, StatusOverdue, true},
		{StatusPaid, StatusDue, false},
		{StatusOverdue, StatusPaid, false},
		{StatusOverdue, StatusDue, false},
		{StatusDue, StatusDue, false},
		{Status("bogus"), StatusPaid, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.from.CanAdvanceTo(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestDueDateFor(t *testing.T) {
	assert.Equal(t, time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC),
		DueDateFor(time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), 15))
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		DueDateFor(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), 15))
	// clamped to month length
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		DueDateFor(time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), 31))
}

func TestGenerateInput_Totals(t *testing.T) {
	in := GenerateInput{Contributions: []Contribution{
		{ProvidentFund: decimal.NewFromInt(7200), ProfessionalTax: decimal.NewFromInt(200), IncomeTax: decimal.Zero},
		{ProvidentFund: decimal.NewFromInt(3600), ProfessionalTax: decimal.NewFromInt(200), IncomeTax: decimal.NewFromInt(150)},
	}}

	totals := in.Totals()
	assert.True(t, totals[ObligationProvidentFund].Equal(decimal.NewFromInt(10800)))
	assert.True(t, totals[ObligationProfessionalTax].Equal(decimal.NewFromInt(400)))
	assert.True(t, totals[ObligationIncomeTax].Equal(decimal.NewFromInt(150)))
}
