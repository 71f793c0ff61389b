// Package decay implements the demurrage compounding arithmetic.
//
// Factors are fixed-point values at types.RateDecimals precision. Every
// multiplication floors its result, so the same inputs always produce the
// same factor regardless of platform.
package decay

import (
	"time"

	"github.com/xraph/demurrage/schedule"
	"github.com/xraph/demurrage/types"
)

// CompoundFactor returns (1 - rate)^periods, computed one period at a time
// with floor truncation after each multiplication.
//
//	CompoundFactor(types.Percent(1), 1) == 990000 // 0.99
//	CompoundFactor(types.Percent(1), 2) == 980100 // 0.9801
func CompoundFactor(rate types.Rate, periods int64) types.Rate {
	factor := int64(types.RateScale)
	if rate == 0 || periods <= 0 {
		return types.RateScale
	}

	keep := int64(rate.Complement())
	scale := int64(types.RateScale)
	for i := int64(0); i < periods && factor > 0; i++ {
		factor = factor * keep / scale
	}
	return types.Rate(factor)
}

// Apply decays amount through each segment in order.
func Apply(amount types.Amount, segments []schedule.Segment) types.Amount {
	for _, seg := range segments {
		amount = amount.MulRate(CompoundFactor(seg.Rate, seg.Periods))
	}
	return amount
}

// Balance returns what raw, last realized at lastUpdated, is worth at now.
// It is the single decay computation shared by reads and realizations.
func Balance(raw types.Amount, lastUpdated, now time.Time, s *schedule.Schedule) types.Amount {
	return Apply(raw, s.SegmentsBetween(lastUpdated, now))
}
