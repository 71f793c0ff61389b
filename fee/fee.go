// Package fee computes transfer and withdrawal fees.
package fee

import "github.com/xraph/demurrage/types"

// Compute returns floor(amount * rate). The result is never negative and
// never exceeds amount for a valid rate.
func Compute(amount types.Amount, rate types.Rate) types.Amount {
	if !amount.IsPositive() || rate <= 0 {
		return types.Zero
	}
	if rate > types.RateScale {
		rate = types.RateScale
	}
	return amount.MulRate(rate)
}
