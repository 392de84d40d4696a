package tax

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func indiaSlabs() []Slab {
	return []Slab{
		{Min: d("0"), Max: dp("250000"), Rate: d("0")},
		{Min: d("250000"), Max: dp("500000"), Rate: d("5")},
		{Min: d("500000"), Max: nil, Rate: d("20")},
	}
}

func newTestEngine(t *testing.T, mutate func(*Configuration)) *Engine {
	t.Helper()
	cfg := Configuration{Jurisdiction: "IN", Slabs: indiaSlabs()}
	if mutate != nil {
		mutate(&cfg)
	}
	engine, err := NewEngine(cfg)
	require.NoError(t, err)
	return engine
}

func TestEngine_Compute(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Configuration)
		income string
		want   string
	}{
		{name: "under first ceiling", income: "78000", want: "0"},
		{name: "zero income", income: "0", want: "0"},
		{name: "second slab", income: "300000", want: "2500"},
		{name: "open-ended slab", income: "600000", want: "32500"},
		{name: "fractional rounds to cents", income: "250000.33", want: "0.02"},
		{
			name:   "standard deduction lowers taxable income",
			mutate: func(c *Configuration) { c.StandardDeduction = d("50000") },
			income: "300000",
			want:   "0",
		},
		{
			name:   "deduction larger than income",
			mutate: func(c *Configuration) { c.StandardDeduction = d("100000") },
			income: "40000",
			want:   "0",
		},
		{
			name: "surcharge and cess",
			mutate: func(c *Configuration) {
				c.SurchargeThreshold = d("500000")
				c.SurchargeRate = d("10")
				c.CessRate = d("4")
			},
			income: "600000",
			want:   "37180",
		},
		{
			name: "surcharge below threshold",
			mutate: func(c *Configuration) {
				c.SurchargeThreshold = d("500000")
				c.SurchargeRate = d("10")
			},
			income: "400000",
			want:   "7500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(t, tt.mutate)
			got := engine.Compute(d(tt.income))
			assert.True(t, got.Total.Equal(d(tt.want)), "total = %s, want %s", got.Total, tt.want)
		})
	}
}

func TestEngine_SurchargeBreakdown(t *testing.T) {
	engine := newTestEngine(t, func(c *Configuration) {
		c.SurchargeThreshold = d("500000")
		c.SurchargeRate = d("10")
		c.CessRate = d("4")
	})

	got := engine.Compute(d("600000"))
	assert.True(t, got.SlabTax.Equal(d("32500")))
	assert.True(t, got.Surcharge.Equal(d("3250")))
	assert.True(t, got.Cess.Equal(d("1430")))
	require.Len(t, got.Applied, 3)
	assert.True(t, got.Applied[2].TaxableAmount.Equal(d("100000")))
}

func TestEngine_Monotonic(t *testing.T) {
	engine := newTestEngine(t, func(c *Configuration) {
		c.StandardDeduction = d("50000")
		c.SurchargeThreshold = d("700000")
		c.SurchargeRate = d("10")
		c.CessRate = d("4")
	})

	prev := decimal.Zero
	for income := int64(0); income <= 1_500_000; income += 12_345 {
		got := engine.Compute(decimal.NewFromInt(income)).Total
		assert.False(t, got.LessThan(prev), "tax(%d) = %s < previous %s", income, got, prev)
		prev = got
	}
}

func TestEngine_AppliedAmountsCoverIncomeUpToBound(t *testing.T) {
	bounded := []Slab{
		{Min: d("0"), Max: dp("100"), Rate: d("0")},
		{Min: d("100"), Max: dp("200"), Rate: d("10")},
	}
	engine, err := NewEngine(Configuration{Slabs: bounded})
	require.NoError(t, err)

	bound, ok := UpperBound(engine.slabs)
	require.True(t, ok)

	for _, income := range []string{"0", "50", "150", "200", "250"} {
		got := engine.Compute(d(income))
		sum := decimal.Zero
		for _, a := range got.Applied {
			sum = sum.Add(a.TaxableAmount)
		}
		assert.True(t, sum.Equal(decimal.Min(d(income), bound)), "income %s: applied %s", income, sum)
	}
}

func TestNewEngine_RejectsBrokenSlabs(t *testing.T) {
	_, err := NewEngine(Configuration{Jurisdiction: "IN"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)

	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "IN", ce.Jurisdiction)
}
