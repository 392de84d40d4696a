package tax

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ValidateSlabs checks that slabs form a single ordered ladder starting at
// zero: bounded bands with min < max, each band starting where the previous
// one ended, and only the last band open-ended. It returns the slabs sorted
// by Min.
func ValidateSlabs(slabs []Slab) ([]Slab, error) {
	if len(slabs) == 0 {
		return nil, configError("slab set is empty")
	}

	sorted := make([]Slab, len(slabs))
	copy(sorted, slabs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Min.LessThan(sorted[j].Min)
	})

	if !sorted[0].Min.IsZero() {
		return nil, configError("first slab must start at 0, got %s", sorted[0].Min)
	}

	for i, s := range sorted {
		if s.Rate.IsNegative() || s.Rate.GreaterThan(hundred) {
			return nil, configError("slab %d rate %s is outside 0-100", i+1, s.Rate)
		}
		if s.OpenEnded() {
			if i != len(sorted)-1 {
				return nil, configError("slab %d is open-ended but is not the last slab", i+1)
			}
			continue
		}
		if !s.Max.GreaterThan(s.Min) {
			return nil, configError("slab %d has inverted range %s-%s", i+1, s.Min, s.Max)
		}
		if i+1 < len(sorted) {
			next := sorted[i+1]
			switch {
			case next.Min.LessThan(*s.Max):
				return nil, configError("slab %d overlaps slab %d", i+2, i+1)
			case next.Min.GreaterThan(*s.Max):
				return nil, configError("gap between %s and %s", s.Max, next.Min)
			}
		}
	}

	return sorted, nil
}

// UpperBound is the top of the ladder; ok is false when the last band is
// open-ended.
func UpperBound(sorted []Slab) (bound decimal.Decimal, ok bool) {
	if len(sorted) == 0 {
		return decimal.Zero, true
	}
	last := sorted[len(sorted)-1]
	if last.OpenEnded() {
		return decimal.Zero, false
	}
	return *last.Max, true
}
