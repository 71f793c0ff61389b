package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RateDecimals is the fixed precision of every rate and decay factor.
const RateDecimals = 6

// RateScale is the fixed-point representation of 1.
const RateScale Rate = 1_000_000

// Rate is a fraction at RateDecimals precision: Rate(10000) is 1%.
// Decay factors share the representation, so RateScale is a factor of 1.
type Rate int64

// Percent returns a whole-percent rate, e.g. Percent(2) = 0.02.
func Percent(p int64) Rate { return Rate(p * int64(RateScale) / 100) }

// ParseRate parses a decimal fraction such as "0.01".
func ParseRate(s string) (Rate, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("rate: parse %q: %w", s, err)
	}
	scaled := d.Shift(RateDecimals)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("rate: parse %q: more than %d decimals", s, RateDecimals)
	}
	r := Rate(scaled.IntPart())
	if !r.Valid() {
		return 0, fmt.Errorf("rate: parse %q: outside [0, 1]", s)
	}
	return r, nil
}

// Valid reports whether the rate lies within [0, 1].
func (r Rate) Valid() bool { return r >= 0 && r <= RateScale }

// Complement returns 1 - r.
func (r Rate) Complement() Rate { return RateScale - r }

// Decimal returns the rate as a decimal fraction.
func (r Rate) Decimal() decimal.Decimal { return decimal.New(int64(r), -RateDecimals) }

// String formats the rate as a decimal fraction, e.g. "0.99".
func (r Rate) String() string { return r.Decimal().String() }
