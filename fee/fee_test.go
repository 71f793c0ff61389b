package fee

import (
	"testing"

	"github.com/xraph/demurrage/types"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name   string
		amount types.Amount
		rate   types.Rate
		want   types.Amount
	}{
		{"one percent of 100", types.Tokens(100), types.Percent(1), types.Tokens(1)},
		{"one percent of 200", types.Tokens(200), types.Percent(1), types.Tokens(2)},
		{"floors fractional units", types.Units(150), types.Percent(1), types.Units(1)},
		{"below one unit", types.Units(99), types.Percent(1), types.Zero},
		{"zero rate", types.Tokens(100), 0, types.Zero},
		{"zero amount", types.Zero, types.Percent(1), types.Zero},
		{"negative amount", types.Zero.Sub(types.Tokens(1)), types.Percent(1), types.Zero},
		{"rate above one is capped", types.Tokens(3), 2 * types.RateScale, types.Tokens(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.amount, tt.rate)
			if !got.Equal(tt.want) {
				t.Errorf("Compute: got %s, want %s", got, tt.want)
			}
			if got.GreaterThan(tt.amount) && tt.amount.IsPositive() {
				t.Errorf("Compute: fee %s exceeds amount %s", got, tt.amount)
			}
		})
	}
}
