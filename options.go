package demurrage

import (
	"log/slog"
	"time"

	"github.com/xraph/demurrage/authority"
	"github.com/xraph/demurrage/clock"
	"github.com/xraph/demurrage/plugin"
	"github.com/xraph/demurrage/types"
)

// Defaults applied by New.
const (
	DefaultVault             = "vault"
	DefaultFeeCollector      = "fee-collector"
	DefaultDemurrageRate     = types.Rate(10_000) // 1% per period
	DefaultTransferFeeRate   = types.Rate(10_000) // 1%
	DefaultWithdrawalFeeRate = types.Rate(10_000) // 1%
)

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(l *Ledger) {
		l.clock = c
	}
}

// WithAuthority sets who may change the demurrage rate.
func WithAuthority(a authority.Authority) Option {
	return func(l *Ledger) {
		l.authority = a
	}
}

// WithOwner makes principal the sole rate-setting authority.
func WithOwner(principal string) Option {
	return WithAuthority(authority.Owner(principal))
}

// WithVault sets the address that holds the collateral.
func WithVault(addr string) Option {
	return func(l *Ledger) {
		l.vault = addr
	}
}

// WithFeeCollector sets the holder that receives fees.
func WithFeeCollector(holder string) Option {
	return func(l *Ledger) {
		l.feeCollector = holder
	}
}

// WithPeriodLength sets the length of one decay period.
func WithPeriodLength(d time.Duration) Option {
	return func(l *Ledger) {
		l.periodLength = d
	}
}

// WithGenesisRate sets the demurrage rate in force before any checkpoint.
func WithGenesisRate(r types.Rate) Option {
	return func(l *Ledger) {
		l.genesisRate = r
	}
}

// WithTransferFeeRate sets the fee rate charged on transfers.
func WithTransferFeeRate(r types.Rate) Option {
	return func(l *Ledger) {
		l.transferFeeRate = r
	}
}

// WithWithdrawalFeeRate sets the fee rate charged on withdrawals.
func WithWithdrawalFeeRate(r types.Rate) Option {
	return func(l *Ledger) {
		l.withdrawalFeeRate = r
	}
}

// WithDecayCollection credits the decay realized from every holder to the
// fee collector, keeping the token supply equal to the collateral reserves.
func WithDecayCollection() Option {
	return func(l *Ledger) {
		l.collectDecay = true
	}
}
