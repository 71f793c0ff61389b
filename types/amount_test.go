package types

import (
	"encoding/json"
	"testing"
)

func TestAmountConstructors(t *testing.T) {
	tests := []struct {
		name   string
		amount Amount
		units  string
		tokens string
	}{
		{"Tokens", Tokens(200), "200000000000000000000", "200"},
		{"Units", Units(1), "1", "0.000000000000000001"},
		{"Zero", Zero, "0", "0"},
		{"Fractional tokens", mustParseTokens(t, "98.01"), "98010000000000000000", "98.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.amount.String(); got != tt.units {
				t.Errorf("String: got %s, want %s", got, tt.units)
			}
			if got := tt.amount.TokenString(); got != tt.tokens {
				t.Errorf("TokenString: got %s, want %s", got, tt.tokens)
			}
		})
	}
}

func TestAmountArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Amount
		expected Amount
	}{
		{"Add", func() Amount { return Tokens(100).Add(Tokens(200)) }, Tokens(300)},
		{"Sub", func() Amount { return Tokens(500).Sub(Tokens(200)) }, Tokens(300)},
		{"MulRate one percent", func() Amount { return Tokens(100).MulRate(Percent(1)) }, Tokens(1)},
		{"MulRate floors", func() Amount { return Units(199).MulRate(Percent(1)) }, Units(1)},
		{"MulRate below one unit", func() Amount { return Units(99).MulRate(Percent(1)) }, Zero},
		{"MulRate full", func() Amount { return Tokens(7).MulRate(RateScale) }, Tokens(7)},
		{"Sum", func() Amount { return Sum(Tokens(1), Tokens(2), Units(3)) }, Tokens(3).Add(Units(3))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.op()
			if !result.Equal(tt.expected) {
				t.Errorf("Got %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestAmountComparison(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Amount
		less    bool
		greater bool
		equal   bool
	}{
		{"Equal", Tokens(1), Units(1_000_000_000_000_000_000), false, false, true},
		{"Less", Tokens(50), Tokens(100), true, false, false},
		{"Greater", Tokens(200), Tokens(100), false, true, false},
		{"Zero equal", Units(0), Zero, false, false, true},
		{"Negative less", Zero.Sub(Units(1)), Zero, true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.LessThan(tt.b); got != tt.less {
				t.Errorf("LessThan: got %v, want %v", got, tt.less)
			}
			if got := tt.a.GreaterThan(tt.b); got != tt.greater {
				t.Errorf("GreaterThan: got %v, want %v", got, tt.greater)
			}
			if got := tt.a.Equal(tt.b); got != tt.equal {
				t.Errorf("Equal: got %v, want %v", got, tt.equal)
			}
		})
	}
}

func TestWholeTokens(t *testing.T) {
	a := mustParseTokens(t, "941.480")
	if got := a.WholeTokens(); got != 941 {
		t.Errorf("WholeTokens: got %d, want 941", got)
	}
}

func TestParseAmountRejectsFractions(t *testing.T) {
	if _, err := ParseAmount("1.5"); err == nil {
		t.Error("expected error for fractional base units")
	}
	if _, err := ParseAmount("abc"); err == nil {
		t.Error("expected error for garbage input")
	}
	if _, err := ParseTokens("0.0000000000000000001"); err == nil {
		t.Error("expected error for more than 18 decimals")
	}
}

func TestAmountJSON(t *testing.T) {
	data, err := json.Marshal(Tokens(2))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"2000000000000000000"` {
		t.Errorf("marshal: got %s", data)
	}

	var a Amount
	if err := json.Unmarshal([]byte(`123`), &a); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if !a.Equal(Units(123)) {
		t.Errorf("unmarshal number: got %v, want 123", a)
	}
}

func TestAmountScan(t *testing.T) {
	var a Amount
	if err := a.Scan([]byte("42")); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !a.Equal(Units(42)) {
		t.Errorf("scan: got %v, want 42", a)
	}
	if err := a.Scan(3.5); err == nil {
		t.Error("expected error scanning float64")
	}
}

func mustParseTokens(t *testing.T, s string) Amount {
	t.Helper()
	a, err := ParseTokens(s)
	if err != nil {
		t.Fatalf("ParseTokens(%q): %v", s, err)
	}
	return a
}
