package types

import "testing"

func TestParseRate(t *testing.T) {
	tests := []struct {
		in      string
		want    Rate
		wantErr bool
	}{
		{"0.01", 10000, false},
		{"0.02", 20000, false},
		{"1", RateScale, false},
		{"0", 0, false},
		{"0.0000001", 0, true},
		{"1.5", 0, true},
		{"-0.01", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRate(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseRate(%q): expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRate(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseRate(%q): got %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestRateFormatting(t *testing.T) {
	if got := Rate(990000).String(); got != "0.99" {
		t.Errorf("String: got %s, want 0.99", got)
	}
	if got := Percent(1).Complement(); got != 990000 {
		t.Errorf("Complement: got %d, want 990000", got)
	}
}
