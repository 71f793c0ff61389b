package cli

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	collateralmem "github.com/xraph/demurrage/collateral/memory"
	"github.com/xraph/demurrage/internal/config"
	"github.com/xraph/demurrage/types"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "demurraged dev")
}

func TestFactor(t *testing.T) {
	out, err := run(t, "factor", "--rate", "0.01", "--periods", "6", "--amount", "1000")
	require.NoError(t, err)
	assert.Contains(t, out, "factor: 0.94148")
	assert.Contains(t, out, "balance: 941.48")

	_, err = run(t, "factor", "--rate", "2", "--periods", "1", "--amount", "")
	assert.ErrorContains(t, err, "--rate")

	_, err = run(t, "factor", "--rate", "0.01", "--periods", "-1")
	assert.ErrorContains(t, err, "--periods")
}

func TestSeededLedgerMints(t *testing.T) {
	ctx := context.Background()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Ledger.Owner = "treasury"
	cfg.Collateral.Balances = map[string]string{"leen": "200", "ana": "50.5"}
	require.NoError(t, cfg.Validate())

	token := collateralmem.New(cfg.Collateral.Symbol)
	require.NoError(t, seedCollateral(ctx, token, cfg))
	assert.True(t, token.Allowance("leen", "vault").Equal(types.Tokens(200)))

	var logs bytes.Buffer
	l := newLedger(cfg, token, slog.New(slog.NewJSONHandler(&logs, nil)))
	require.NoError(t, l.Start(ctx))
	t.Cleanup(func() { _ = l.Stop() })

	require.NoError(t, l.Mint(ctx, "leen", types.Tokens(200)))
	b, err := l.BalanceOf(ctx, "leen")
	require.NoError(t, err)
	assert.Equal(t, int64(200), b.WholeTokens())

	half, err := types.ParseTokens("50.5")
	require.NoError(t, err)
	require.NoError(t, l.Mint(ctx, "ana", half))

	reserves, err := l.Reserves(ctx)
	require.NoError(t, err)
	assert.Equal(t, "250.5", reserves.TokenString())

	assert.Contains(t, logs.String(), `"action":"token.minted"`)
}
