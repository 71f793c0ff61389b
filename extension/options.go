package extension

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/demurrage"
	"github.com/xraph/demurrage/collateral"
	"github.com/xraph/demurrage/plugin"
	"github.com/xraph/demurrage/store"
)

// Option configures the demurrage Forge extension.
type Option func(*Extension)

// WithStore sets the store for the ledger engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDB builds the store around db. The backend is chosen by the
// GroveDriver config field.
func WithGroveDB(db *grove.DB, driver string) Option {
	return func(e *Extension) {
		e.groveDB = db
		e.config.GroveDriver = driver
	}
}

// WithCollateral sets the collateral asset. It must act on behalf of the
// configured vault.
func WithCollateral(asset collateral.Asset) Option {
	return func(e *Extension) {
		e.collateral = asset
	}
}

// WithLedgerOption passes a demurrage.Option through to the underlying engine.
func WithLedgerOption(opt demurrage.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a ledger plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, demurrage.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableRoutes prevents HTTP handler construction.
func WithDisableRoutes() Option {
	return func(e *Extension) { e.config.DisableRoutes = true }
}

// WithDisableMigrate skips store migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithBasePath sets the URL prefix for ledger routes.
func WithBasePath(path string) Option {
	return func(e *Extension) { e.config.BasePath = path }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithPeriodLength sets the decay period length.
func WithPeriodLength(d time.Duration) Option {
	return func(e *Extension) { e.config.PeriodLength = d }
}

// WithDemurrageRate sets the genesis decay rate, e.g. "0.01".
func WithDemurrageRate(rate string) Option {
	return func(e *Extension) { e.config.DemurrageRate = rate }
}

// WithOwner sets the principal allowed to change the demurrage rate.
func WithOwner(owner string) Option {
	return func(e *Extension) { e.config.Owner = owner }
}

// WithDecayCollection credits realized decay to the fee collector.
func WithDecayCollection() Option {
	return func(e *Extension) { e.config.CollectDecay = true }
}
