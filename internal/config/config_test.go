package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/demurrage/types"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demurrage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8645", cfg.Server.Listen)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 31*24*time.Hour, cfg.Ledger.PeriodLength)
	assert.Equal(t, "0.01", cfg.Ledger.DemurrageRate)
	assert.Equal(t, "vault", cfg.Ledger.Vault)
	assert.Equal(t, "fee-collector", cfg.Ledger.FeeCollector)
	assert.Equal(t, "EURC", cfg.Collateral.Symbol)
	assert.Equal(t, "info", cfg.Log.Level)

	// owner has no default
	assert.ErrorContains(t, cfg.Validate(), "ledger.owner")
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  listen: ":9000"
ledger:
  owner: treasury
  demurrage_rate: "0.02"
  period_length: 24h
  collect_decay: true
collateral:
  symbol: USDC
  balances:
    leen: "200"
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":9000", cfg.Server.Listen)
	assert.Equal(t, "treasury", cfg.Ledger.Owner)
	assert.Equal(t, 24*time.Hour, cfg.Ledger.PeriodLength)
	assert.True(t, cfg.Ledger.CollectDecay)
	assert.Equal(t, "USDC", cfg.Collateral.Symbol)
	assert.Equal(t, map[string]string{"leen": "200"}, cfg.Collateral.Balances)

	demurrage, transfer, withdrawal := cfg.Rates()
	assert.Equal(t, types.Percent(2), demurrage)
	assert.Equal(t, types.Percent(1), transfer)
	assert.Equal(t, types.Percent(1), withdrawal)

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "ledger:\n  owner: treasury\n")
	t.Setenv("DEMURRAGE_LISTEN", ":7000")
	t.Setenv("DEMURRAGE_OWNER", "council")
	t.Setenv("DEMURRAGE_RATE", "0.05")
	t.Setenv("DEMURRAGE_PERIOD", "1h")
	t.Setenv("DEMURRAGE_COLLECT_DECAY", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Listen)
	assert.Equal(t, "council", cfg.Ledger.Owner)
	assert.Equal(t, "0.05", cfg.Ledger.DemurrageRate)
	assert.Equal(t, time.Hour, cfg.Ledger.PeriodLength)
	assert.True(t, cfg.Ledger.CollectDecay)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	assert.ErrorContains(t, err, "parse config")

	t.Setenv("DEMURRAGE_PERIOD", "monthly")
	_, err = Load("")
	assert.ErrorContains(t, err, "DEMURRAGE_PERIOD")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"rate above one", func(c *Config) { c.Ledger.DemurrageRate = "1.5" }, "ledger.demurrage_rate"},
		{"garbage fee", func(c *Config) { c.Ledger.TransferFeeRate = "a lot" }, "ledger.transfer_fee_rate"},
		{"negative period", func(c *Config) { c.Ledger.PeriodLength = -time.Hour }, "ledger.period_length"},
		{"bad seed balance", func(c *Config) { c.Collateral.Balances = map[string]string{"leen": "x"} }, "collateral.balances.leen"},
		{"bad log level", func(c *Config) { c.Log.Level = "chatty" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			cfg.Ledger.Owner = "treasury"
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
