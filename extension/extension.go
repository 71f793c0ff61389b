// Package extension provides the Forge extension adapter for the demurrage
// ledger.
//
// It implements the forge.Extension interface to integrate the ledger
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.demurrage" or
// "demurrage" keys.
package extension

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/demurrage"
	"github.com/xraph/demurrage/api"
	"github.com/xraph/demurrage/collateral"
	collateralmem "github.com/xraph/demurrage/collateral/memory"
	"github.com/xraph/demurrage/store"
	"github.com/xraph/demurrage/store/memory"
	"github.com/xraph/demurrage/store/mongo"
	"github.com/xraph/demurrage/store/postgres"
	"github.com/xraph/demurrage/store/sqlite"
	"github.com/xraph/demurrage/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "demurrage"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Collateral-pegged ledger token with demurrage"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the demurrage ledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *demurrage.Ledger
	store      store.Store
	groveDB    *grove.DB
	collateral collateral.Asset
	token      *collateralmem.Token
	ledgerOpts []demurrage.Option
}

// New creates a new demurrage Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Ledger instance.
// This is nil until Register is called.
func (e *Extension) Engine() *demurrage.Ledger { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the ledger engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	s, err := e.resolveStore()
	if err != nil {
		return err
	}
	e.store = s

	if e.resolveCollateral() {
		e.Logger().Warn("demurrage: no collateral asset configured, using an in-process token",
			forge.F("symbol", e.config.CollateralSymbol),
		)
	}

	opts, err := e.buildLedgerOpts()
	if err != nil {
		return err
	}

	backing := e.store
	if e.config.DisableMigrate {
		backing = noMigrate{e.store}
	}
	e.engine = demurrage.New(backing, e.collateral, opts...)

	return vessel.Provide(fapp.Container(), func() (*demurrage.Ledger, error) {
		return e.engine, nil
	})
}

// CollateralToken returns the in-process collateral token the extension
// created because no asset was supplied with WithCollateral. Fund holders
// with Mint and approve the vault through Caller. It is nil when an asset
// was supplied.
func (e *Extension) CollateralToken() *collateralmem.Token { return e.token }

// resolveCollateral falls back to an in-process token bound to the vault and
// reports whether it did.
func (e *Extension) resolveCollateral() bool {
	if e.collateral != nil {
		return false
	}
	e.token = collateralmem.New(e.config.CollateralSymbol)
	e.collateral = e.token.Caller(e.config.Vault)
	return true
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("demurrage: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("demurrage: store not initialized")
	}
	return e.store.Ping(ctx)
}

// Handler returns the ledger HTTP API mounted at BasePath, or nil when
// routes are disabled or the extension is not registered.
func (e *Extension) Handler() http.Handler {
	if e.config.DisableRoutes || e.engine == nil {
		return nil
	}
	r := chi.NewRouter()
	r.Mount(e.config.BasePath, api.New(e.engine, api.WithVersion(ExtensionVersion)))
	return r
}

// resolveStore picks the store: an explicit one, one built around a grove
// database, or an in-memory store.
func (e *Extension) resolveStore() (store.Store, error) {
	if e.store != nil {
		return e.store, nil
	}
	if e.groveDB == nil {
		return memory.New(), nil
	}

	switch e.config.GroveDriver {
	case "postgres", "pg":
		return postgres.New(e.groveDB), nil
	case "sqlite":
		return sqlite.New(e.groveDB), nil
	case "mongo", "mongodb":
		return mongo.New(e.groveDB), nil
	default:
		return nil, fmt.Errorf("demurrage: unsupported grove driver %q", e.config.GroveDriver)
	}
}

// buildLedgerOpts constructs demurrage.Option values from the resolved config.
func (e *Extension) buildLedgerOpts() ([]demurrage.Option, error) {
	demurrageRate, err := parseRate("demurrage_rate", e.config.DemurrageRate)
	if err != nil {
		return nil, err
	}
	transferFee, err := parseRate("transfer_fee_rate", e.config.TransferFeeRate)
	if err != nil {
		return nil, err
	}
	withdrawalFee, err := parseRate("withdrawal_fee_rate", e.config.WithdrawalFeeRate)
	if err != nil {
		return nil, err
	}

	opts := make([]demurrage.Option, 0, len(e.ledgerOpts)+8)
	opts = append(opts,
		demurrage.WithPeriodLength(e.config.PeriodLength),
		demurrage.WithGenesisRate(demurrageRate),
		demurrage.WithTransferFeeRate(transferFee),
		demurrage.WithWithdrawalFeeRate(withdrawalFee),
		demurrage.WithVault(e.config.Vault),
		demurrage.WithFeeCollector(e.config.FeeCollector),
		demurrage.WithOwner(e.config.Owner),
	)
	if e.config.CollectDecay {
		opts = append(opts, demurrage.WithDecayCollection())
	}

	// Append any pass-through ledger options.
	opts = append(opts, e.ledgerOpts...)

	return opts, nil
}

func parseRate(field, v string) (types.Rate, error) {
	r, err := types.ParseRate(v)
	if err != nil {
		return 0, demurrage.ValidationError{Field: field, Message: err.Error()}
	}
	return r, nil
}

// noMigrate leaves schema management to the operator.
type noMigrate struct {
	store.Store
}

func (noMigrate) Migrate(context.Context) error { return nil }

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("demurrage: configuration is required but not found in config files; " +
				"ensure 'extensions.demurrage' or 'demurrage' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("demurrage: configuration loaded",
		forge.F("disable_routes", e.config.DisableRoutes),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("base_path", e.config.BasePath),
		forge.F("period_length", e.config.PeriodLength),
		forge.F("demurrage_rate", e.config.DemurrageRate),
		forge.F("transfer_fee_rate", e.config.TransferFeeRate),
		forge.F("withdrawal_fee_rate", e.config.WithdrawalFeeRate),
		forge.F("collect_decay", e.config.CollectDecay),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	for _, key := range []string{"extensions.demurrage", "demurrage"} {
		if !cm.IsSet(key) {
			continue
		}
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("demurrage: failed to bind config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		e.Logger().Debug("demurrage: loaded config from file",
			forge.F("key", key),
		)
		return cfg, true
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.BasePath == "" {
		cfg.BasePath = defaults.BasePath
	}
	if cfg.PeriodLength == 0 {
		cfg.PeriodLength = defaults.PeriodLength
	}
	if cfg.DemurrageRate == "" {
		cfg.DemurrageRate = defaults.DemurrageRate
	}
	if cfg.TransferFeeRate == "" {
		cfg.TransferFeeRate = defaults.TransferFeeRate
	}
	if cfg.WithdrawalFeeRate == "" {
		cfg.WithdrawalFeeRate = defaults.WithdrawalFeeRate
	}
	if cfg.Vault == "" {
		cfg.Vault = defaults.Vault
	}
	if cfg.FeeCollector == "" {
		cfg.FeeCollector = defaults.FeeCollector
	}
	if cfg.CollateralSymbol == "" {
		cfg.CollateralSymbol = defaults.CollateralSymbol
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableRoutes {
		yamlConfig.DisableRoutes = true
	}
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.CollectDecay {
		yamlConfig.CollectDecay = true
	}

	// String and duration fields: YAML takes precedence.
	fill := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
		}
	}
	fill(&yamlConfig.BasePath, programmaticConfig.BasePath)
	fill(&yamlConfig.DemurrageRate, programmaticConfig.DemurrageRate)
	fill(&yamlConfig.TransferFeeRate, programmaticConfig.TransferFeeRate)
	fill(&yamlConfig.WithdrawalFeeRate, programmaticConfig.WithdrawalFeeRate)
	fill(&yamlConfig.Vault, programmaticConfig.Vault)
	fill(&yamlConfig.FeeCollector, programmaticConfig.FeeCollector)
	fill(&yamlConfig.Owner, programmaticConfig.Owner)
	fill(&yamlConfig.CollateralSymbol, programmaticConfig.CollateralSymbol)
	fill(&yamlConfig.GroveDriver, programmaticConfig.GroveDriver)
	if yamlConfig.PeriodLength == 0 && programmaticConfig.PeriodLength != 0 {
		yamlConfig.PeriodLength = programmaticConfig.PeriodLength
	}

	// Fill remaining zeros with defaults.
	return mergeWithDefaults(yamlConfig)
}
