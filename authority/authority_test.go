package authority_test

import (
	"testing"

	"github.com/xraph/demurrage/authority"
)

func TestOwner(t *testing.T) {
	tests := []struct {
		name   string
		owner  authority.Owner
		caller string
		want   bool
	}{
		{"owner", "alice", "alice", true},
		{"stranger", "alice", "bob", false},
		{"empty owner", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.owner.IsAuthorized(tt.caller); got != tt.want {
				t.Errorf("IsAuthorized(%q): got %v, want %v", tt.caller, got, tt.want)
			}
		})
	}
}
