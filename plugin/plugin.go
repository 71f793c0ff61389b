// Package plugin provides an extensible plugin system for the demurrage ledger.
// Plugins hook into lifecycle and ledger events to extend functionality.
package plugin

import (
	"context"

	"github.com/xraph/demurrage/journal"
	"github.com/xraph/demurrage/schedule"
	"github.com/xraph/demurrage/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the ledger starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l interface{}) error
}

// OnShutdown is called when the ledger stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Ledger event hooks
// ──────────────────────────────────────────────────

// OnMinted is called after a mint commits.
type OnMinted interface {
	Plugin
	OnMinted(ctx context.Context, e *journal.Entry) error
}

// OnTransferred is called after a transfer commits.
type OnTransferred interface {
	Plugin
	OnTransferred(ctx context.Context, e *journal.Entry) error
}

// OnWithdrawn is called after a withdrawal commits.
type OnWithdrawn interface {
	Plugin
	OnWithdrawn(ctx context.Context, e *journal.Entry) error
}

// OnRateUpdated is called after a rate checkpoint is registered.
type OnRateUpdated interface {
	Plugin
	OnRateUpdated(ctx context.Context, c *schedule.Checkpoint) error
}

// OnDecayRealized is called when a committed operation collapsed pending
// decay into a holder's stored balance.
type OnDecayRealized interface {
	Plugin
	OnDecayRealized(ctx context.Context, holder string, decayed types.Amount) error
}

// OnOperationFailed is called when a ledger operation aborts.
type OnOperationFailed interface {
	Plugin
	OnOperationFailed(ctx context.Context, op string, err error) error
}
