package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Decimals is the number of decimal places of one whole token.
// An Amount counts base units, so Tokens(1) holds 10^18 units.
const Decimals = 18

// Amount is a non-fractional count of the token's smallest unit.
// All arithmetic is integral; every operation that scales an amount
// floors the result back to a whole number of units.
//
// Examples:
//   - Tokens(200) = 200 whole tokens
//   - Units(1) = the smallest representable amount
//
//nolint:recvcheck // Value receivers for arithmetic, pointer receivers for UnmarshalJSON/Scan.
type Amount struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Amount{}

// Units creates an Amount from a count of base units.
func Units(n int64) Amount { return Amount{d: decimal.NewFromInt(n)} }

// Tokens creates an Amount holding n whole tokens.
func Tokens(n int64) Amount { return Amount{d: decimal.New(n, Decimals)} }

// ParseAmount parses a base-unit count such as "200000000000000000000".
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("amount: parse %q: %w", s, err)
	}
	if !d.IsInteger() {
		return Zero, fmt.Errorf("amount: parse %q: fractional base units", s)
	}
	return Amount{d: d.Truncate(0)}, nil
}

// ParseTokens parses a whole-token quantity such as "1.5" into base units.
func ParseTokens(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("amount: parse tokens %q: %w", s, err)
	}
	units := d.Shift(Decimals)
	if !units.IsInteger() {
		return Zero, fmt.Errorf("amount: parse tokens %q: more than %d decimals", s, Decimals)
	}
	return Amount{d: units.Truncate(0)}, nil
}

// Arithmetic operations

// Add returns a + other.
func (a Amount) Add(other Amount) Amount { return Amount{d: a.d.Add(other.d)} }

// Sub returns a - other. The result may be negative; callers that debit
// balances check sufficiency before subtracting.
func (a Amount) Sub(other Amount) Amount { return Amount{d: a.d.Sub(other.d)} }

// MulRate returns floor(a * r).
func (a Amount) MulRate(r Rate) Amount {
	return Amount{d: a.d.Mul(decimal.NewFromInt(int64(r))).Shift(-RateDecimals).Floor()}
}

// Comparison methods

// Cmp compares a and other and returns -1, 0 or +1.
func (a Amount) Cmp(other Amount) int { return a.d.Cmp(other.d) }

// Equal reports whether both amounts hold the same number of units.
func (a Amount) Equal(other Amount) bool { return a.d.Equal(other.d) }

// LessThan reports whether a < other.
func (a Amount) LessThan(other Amount) bool { return a.d.LessThan(other.d) }

// GreaterThan reports whether a > other.
func (a Amount) GreaterThan(other Amount) bool { return a.d.GreaterThan(other.d) }

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool { return a.d.IsZero() }

// IsPositive reports whether the amount is greater than zero.
func (a Amount) IsPositive() bool { return a.d.IsPositive() }

// IsNegative reports whether the amount is below zero.
func (a Amount) IsNegative() bool { return a.d.IsNegative() }

// Formatting methods

// Decimal returns the base-unit count as a decimal.
func (a Amount) Decimal() decimal.Decimal { return a.d }

// WholeTokens returns the number of whole tokens, rounded down.
func (a Amount) WholeTokens() int64 { return a.d.Shift(-Decimals).Floor().IntPart() }

// TokenString formats the amount in whole tokens, e.g. "98.01".
func (a Amount) TokenString() string { return a.d.Shift(-Decimals).String() }

// String returns the base-unit count.
func (a Amount) String() string { return a.d.String() }

// MarshalJSON encodes the base-unit count as a JSON string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.d.String())
}

// UnmarshalJSON accepts a base-unit count as a JSON string or number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		s = string(data)
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements driver.Valuer. Amounts are stored as decimal text.
func (a Amount) Value() (driver.Value, error) {
	return a.d.String(), nil
}

// Scan implements sql.Scanner.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = Zero
		return nil
	case int64:
		*a = Units(v)
		return nil
	case string:
		parsed, err := ParseAmount(v)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	case []byte:
		parsed, err := ParseAmount(string(v))
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	default:
		return fmt.Errorf("amount: cannot scan %T into Amount", src)
	}
}

// Sum adds all values.
func Sum(values ...Amount) Amount {
	total := Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
