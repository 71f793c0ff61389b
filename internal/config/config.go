// Package config loads the demurraged daemon configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xraph/demurrage/types"
)

// Config holds all daemon configuration.
type Config struct {
	Server struct {
		Listen          string        `yaml:"listen"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Ledger struct {
		PeriodLength      time.Duration `yaml:"period_length"`
		DemurrageRate     string        `yaml:"demurrage_rate"`
		TransferFeeRate   string        `yaml:"transfer_fee_rate"`
		WithdrawalFeeRate string        `yaml:"withdrawal_fee_rate"`
		Vault             string        `yaml:"vault"`
		FeeCollector      string        `yaml:"fee_collector"`
		Owner             string        `yaml:"owner"`
		CollectDecay      bool          `yaml:"collect_decay"`
	} `yaml:"ledger"`
	Collateral struct {
		Symbol string `yaml:"symbol"`

		// Balances seeds the in-process collateral token, holder to whole
		// tokens, e.g. {"leen": "200"}.
		Balances map[string]string `yaml:"balances"`
	} `yaml:"collateral"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	// Environment variable overrides
	if v := os.Getenv("DEMURRAGE_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("DEMURRAGE_OWNER"); v != "" {
		cfg.Ledger.Owner = v
	}
	if v := os.Getenv("DEMURRAGE_RATE"); v != "" {
		cfg.Ledger.DemurrageRate = v
	}
	if v := os.Getenv("DEMURRAGE_PERIOD"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("DEMURRAGE_PERIOD: %w", err)
		}
		cfg.Ledger.PeriodLength = d
	}
	if v := os.Getenv("DEMURRAGE_COLLECT_DECAY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("DEMURRAGE_COLLECT_DECAY: %w", err)
		}
		cfg.Ledger.CollectDecay = b
	}
	if v := os.Getenv("DEMURRAGE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	// Defaults
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = "127.0.0.1:8645"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 5 * time.Second
	}
	if cfg.Ledger.PeriodLength == 0 {
		cfg.Ledger.PeriodLength = 31 * 24 * time.Hour
	}
	if cfg.Ledger.DemurrageRate == "" {
		cfg.Ledger.DemurrageRate = "0.01"
	}
	if cfg.Ledger.TransferFeeRate == "" {
		cfg.Ledger.TransferFeeRate = "0.01"
	}
	if cfg.Ledger.WithdrawalFeeRate == "" {
		cfg.Ledger.WithdrawalFeeRate = "0.01"
	}
	if cfg.Ledger.Vault == "" {
		cfg.Ledger.Vault = "vault"
	}
	if cfg.Ledger.FeeCollector == "" {
		cfg.Ledger.FeeCollector = "fee-collector"
	}
	if cfg.Collateral.Symbol == "" {
		cfg.Collateral.Symbol = "EURC"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	return cfg, nil
}

// Validate checks that all required fields are set and well formed.
func (c *Config) Validate() error {
	if c.Ledger.Owner == "" {
		return fmt.Errorf("ledger.owner is required")
	}
	if c.Ledger.PeriodLength <= 0 {
		return fmt.Errorf("ledger.period_length must be positive")
	}
	for field, v := range map[string]string{
		"ledger.demurrage_rate":      c.Ledger.DemurrageRate,
		"ledger.transfer_fee_rate":   c.Ledger.TransferFeeRate,
		"ledger.withdrawal_fee_rate": c.Ledger.WithdrawalFeeRate,
	} {
		if _, err := types.ParseRate(v); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}
	for holder, v := range c.Collateral.Balances {
		if _, err := types.ParseTokens(v); err != nil {
			return fmt.Errorf("collateral.balances.%s: %w", holder, err)
		}
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// Rates returns the parsed demurrage, transfer fee and withdrawal fee rates.
// Call Validate first.
func (c *Config) Rates() (demurrage, transfer, withdrawal types.Rate) {
	demurrage, _ = types.ParseRate(c.Ledger.DemurrageRate)      //nolint:errcheck // validated
	transfer, _ = types.ParseRate(c.Ledger.TransferFeeRate)      //nolint:errcheck // validated
	withdrawal, _ = types.ParseRate(c.Ledger.WithdrawalFeeRate) //nolint:errcheck // validated
	return demurrage, transfer, withdrawal
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// Logger builds the daemon logger.
func (c *Config) Logger() *slog.Logger {
	level, err := c.LogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
