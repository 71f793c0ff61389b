package extension

import "time"

// Config holds the demurrage extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.demurrage" or "demurrage" keys).
type Config struct {
	// DisableRoutes prevents HTTP handler construction.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate skips store migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for ledger routes (default: "/demurrage").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// PeriodLength is the length of one decay period (default: 744h, 31 days).
	PeriodLength time.Duration `json:"period_length" mapstructure:"period_length" yaml:"period_length"`

	// DemurrageRate is the genesis decay rate per period as a decimal
	// fraction (default: "0.01").
	DemurrageRate string `json:"demurrage_rate" mapstructure:"demurrage_rate" yaml:"demurrage_rate"`

	// TransferFeeRate is charged on top of every transfer (default: "0.01").
	TransferFeeRate string `json:"transfer_fee_rate" mapstructure:"transfer_fee_rate" yaml:"transfer_fee_rate"`

	// WithdrawalFeeRate is charged on top of every withdrawal (default: "0.01").
	WithdrawalFeeRate string `json:"withdrawal_fee_rate" mapstructure:"withdrawal_fee_rate" yaml:"withdrawal_fee_rate"`

	// Vault is the collateral address holding reserves (default: "vault").
	Vault string `json:"vault" mapstructure:"vault" yaml:"vault"`

	// FeeCollector receives every fee (default: "fee-collector").
	FeeCollector string `json:"fee_collector" mapstructure:"fee_collector" yaml:"fee_collector"`

	// Owner is the only principal allowed to change the demurrage rate.
	Owner string `json:"owner" mapstructure:"owner" yaml:"owner"`

	// CollectDecay credits realized decay to the fee collector instead of
	// burning it.
	CollectDecay bool `json:"collect_decay" mapstructure:"collect_decay" yaml:"collect_decay"`

	// CollateralSymbol names the in-process collateral token used when no
	// asset is supplied with WithCollateral (default: "EURC").
	CollateralSymbol string `json:"collateral_symbol" mapstructure:"collateral_symbol" yaml:"collateral_symbol"`

	// GroveDriver selects the store built around a grove.DB passed with
	// WithGroveDB: "postgres", "sqlite" or "mongo".
	GroveDriver string `json:"grove_driver" mapstructure:"grove_driver" yaml:"grove_driver"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath:          "/demurrage",
		PeriodLength:      31 * 24 * time.Hour,
		DemurrageRate:     "0.01",
		TransferFeeRate:   "0.01",
		WithdrawalFeeRate: "0.01",
		Vault:             "vault",
		FeeCollector:      "fee-collector",
		CollateralSymbol:  "EURC",
	}
}
