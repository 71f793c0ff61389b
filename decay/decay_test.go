package decay

import (
	"testing"
	"time"

	"github.com/xraph/demurrage/schedule"
	"github.com/xraph/demurrage/types"
)

func TestCompoundFactor(t *testing.T) {
	tests := []struct {
		name    string
		rate    types.Rate
		periods int64
		want    types.Rate
	}{
		{"one period at 1%", types.Percent(1), 1, 990000},
		{"two periods at 1%", types.Percent(1), 2, 980100},
		{"six periods at 1%", types.Percent(1), 6, 941480},
		{"one period at 2%", types.Percent(2), 1, 980000},
		{"no periods", types.Percent(1), 0, types.RateScale},
		{"zero rate", 0, 1000, types.RateScale},
		{"full rate", types.RateScale, 1, 0},
		{"long horizon reaches zero", types.Percent(50), 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompoundFactor(tt.rate, tt.periods); got != tt.want {
				t.Errorf("CompoundFactor(%s, %d): got %d, want %d", tt.rate, tt.periods, got, tt.want)
			}
		})
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		amount   types.Amount
		segments []schedule.Segment
		whole    int64
	}{
		{"no segments", types.Tokens(10), nil, 10},
		{"one month", types.Tokens(200), []schedule.Segment{{Rate: types.Percent(1), Periods: 1}}, 198},
		{"six months", types.Tokens(1000), []schedule.Segment{{Rate: types.Percent(1), Periods: 6}}, 941},
		{"rate change", types.Tokens(1000), []schedule.Segment{
			{Rate: types.Percent(1), Periods: 2},
			{Rate: types.Percent(2), Periods: 1},
		}, 960},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Apply(tt.amount, tt.segments).WholeTokens(); got != tt.whole {
				t.Errorf("Apply: got %d whole tokens, want %d", got, tt.whole)
			}
		})
	}
}

func TestBalanceUsesSchedule(t *testing.T) {
	s, err := schedule.New(types.Percent(1), schedule.DefaultPeriodLength)
	if err != nil {
		t.Fatalf("schedule.New: %v", err)
	}
	t0 := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

	got := Balance(types.Tokens(200), t0, t0.Add(schedule.DefaultPeriodLength), s)
	if !got.Equal(types.Tokens(198)) {
		t.Errorf("Balance after one period: got %s, want 198 tokens", got.TokenString())
	}

	if got := Balance(types.Tokens(200), t0, t0.Add(-time.Hour), s); !got.Equal(types.Tokens(200)) {
		t.Errorf("Balance backwards in time: got %s, want unchanged", got.TokenString())
	}
}

func BenchmarkCompoundFactor(b *testing.B) {
	for i := 0; i < b.N; i++ {
		CompoundFactor(types.Percent(1), 120)
	}
}
