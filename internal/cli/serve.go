package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xraph/demurrage"
	"github.com/xraph/demurrage/api"
	audithook "github.com/xraph/demurrage/audit_hook"
	collateralmem "github.com/xraph/demurrage/collateral/memory"
	"github.com/xraph/demurrage/internal/config"
	"github.com/xraph/demurrage/store/memory"
	"github.com/xraph/demurrage/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger := cfg.Logger()

	token := collateralmem.New(cfg.Collateral.Symbol)
	if err := seedCollateral(cmd.Context(), token, cfg); err != nil {
		return err
	}

	ledger := newLedger(cfg, token, logger)
	if err := ledger.Start(cmd.Context()); err != nil {
		return fmt.Errorf("start ledger: %w", err)
	}
	defer ledger.Stop() //nolint:errcheck // best-effort on exit

	httpServer := &http.Server{
		Addr:    cfg.Server.Listen,
		Handler: api.New(ledger, api.WithLogger(logger), api.WithVersion(VersionString())),
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		logger.Info("demurraged serving",
			slog.String("addr", cfg.Server.Listen),
			slog.String("collateral", cfg.Collateral.Symbol),
			slog.String("rate", cfg.Ledger.DemurrageRate),
			slog.Duration("period", cfg.Ledger.PeriodLength),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serve: %w", err)
	case <-done:
	}
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(ctx)
}

// newLedger builds an in-memory ledger vaulting collateral in token.
func newLedger(cfg *config.Config, token *collateralmem.Token, logger *slog.Logger) *demurrage.Ledger {
	rate, transferFee, withdrawalFee := cfg.Rates()
	opts := []demurrage.Option{
		demurrage.WithLogger(logger),
		demurrage.WithOwner(cfg.Ledger.Owner),
		demurrage.WithVault(cfg.Ledger.Vault),
		demurrage.WithFeeCollector(cfg.Ledger.FeeCollector),
		demurrage.WithPeriodLength(cfg.Ledger.PeriodLength),
		demurrage.WithGenesisRate(rate),
		demurrage.WithTransferFeeRate(transferFee),
		demurrage.WithWithdrawalFeeRate(withdrawalFee),
		demurrage.WithPlugin(audithook.New(auditLog(logger), audithook.WithLogger(logger))),
	}
	if cfg.Ledger.CollectDecay {
		opts = append(opts, demurrage.WithDecayCollection())
	}
	return demurrage.New(memory.New(), token.Caller(cfg.Ledger.Vault), opts...)
}

// seedCollateral funds every configured holder and approves the vault for
// the full amount, so a holder can mint right away.
func seedCollateral(ctx context.Context, token *collateralmem.Token, cfg *config.Config) error {
	holders := make([]string, 0, len(cfg.Collateral.Balances))
	for holder := range cfg.Collateral.Balances {
		holders = append(holders, holder)
	}
	sort.Strings(holders)

	for _, holder := range holders {
		amount, err := types.ParseTokens(cfg.Collateral.Balances[holder])
		if err != nil {
			return fmt.Errorf("collateral.balances.%s: %w", holder, err)
		}
		token.Mint(holder, amount)
		if err := token.Caller(holder).Approve(ctx, cfg.Ledger.Vault, amount); err != nil {
			return fmt.Errorf("approve %s: %w", holder, err)
		}
	}
	return nil
}

// auditLog records audit events as structured log lines.
func auditLog(logger *slog.Logger) audithook.Recorder {
	return audithook.RecorderFunc(func(ctx context.Context, e *audithook.AuditEvent) error {
		level := slog.LevelInfo
		if e.Outcome != audithook.OutcomeSuccess {
			level = slog.LevelWarn
		}
		logger.LogAttrs(ctx, level, "audit",
			slog.String("action", e.Action),
			slog.String("resource", e.Resource),
			slog.String("resource_id", e.ResourceID),
			slog.String("severity", e.Severity),
			slog.Any("metadata", e.Metadata),
		)
		return nil
	})
}
