package demurrage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xraph/demurrage/account"
	"github.com/xraph/demurrage/authority"
	"github.com/xraph/demurrage/clock"
	"github.com/xraph/demurrage/collateral"
	"github.com/xraph/demurrage/decay"
	"github.com/xraph/demurrage/fee"
	"github.com/xraph/demurrage/id"
	"github.com/xraph/demurrage/journal"
	"github.com/xraph/demurrage/plugin"
	"github.com/xraph/demurrage/schedule"
	"github.com/xraph/demurrage/store"
	"github.com/xraph/demurrage/types"
)

// Ledger is the demurrage ledger engine.
//
// Mutating operations are applied one at a time. Each one realizes pending
// decay for every holder it touches, checks and stages its balance changes,
// and only then talks to the collateral asset.
type Ledger struct {
	store      store.Store
	collateral collateral.Asset
	plugins    *plugin.Registry
	logger     *slog.Logger
	clock      clock.Clock
	authority  authority.Authority

	mu       sync.Mutex
	schedule atomic.Pointer[schedule.Schedule]

	// Configuration
	vault             string
	feeCollector      string
	periodLength      time.Duration
	genesisRate       types.Rate
	transferFeeRate   types.Rate
	withdrawalFeeRate types.Rate
	collectDecay      bool
}

// New creates a Ledger over s, backed by asset. The asset must act on
// behalf of the vault address.
func New(s store.Store, asset collateral.Asset, opts ...Option) *Ledger {
	l := &Ledger{
		store:             s,
		collateral:        asset,
		plugins:           plugin.NewRegistry(),
		logger:            slog.Default(),
		clock:             clock.System{},
		authority:         authority.Owner(""),
		vault:             DefaultVault,
		feeCollector:      DefaultFeeCollector,
		periodLength:      schedule.DefaultPeriodLength,
		genesisRate:       DefaultDemurrageRate,
		transferFeeRate:   DefaultTransferFeeRate,
		withdrawalFeeRate: DefaultWithdrawalFeeRate,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Start migrates the store, loads the rate schedule and initializes plugins.
func (l *Ledger) Start(ctx context.Context) error {
	if !l.transferFeeRate.Valid() || !l.withdrawalFeeRate.Valid() {
		return ValidationError{Field: "fee_rate", Message: "must lie within [0, 1]"}
	}
	if l.vault == "" || l.feeCollector == "" {
		return ValidationError{Field: "vault", Message: "vault and fee collector must be set"}
	}

	if err := l.store.Migrate(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
	}

	checkpoints, err := l.store.ListCheckpoints(ctx)
	if err != nil {
		return fmt.Errorf("load checkpoints: %w", err)
	}
	sched, err := schedule.Load(l.genesisRate, l.periodLength, checkpoints)
	if err != nil {
		return err
	}
	l.schedule.Store(sched)

	l.plugins.EmitInit(ctx, l)

	l.logger.Info("demurrage ledger started",
		"vault", l.vault,
		"fee_collector", l.feeCollector,
		"period", l.periodLength,
		"genesis_rate", l.genesisRate,
		"checkpoints", len(checkpoints),
		"transfer_fee", l.transferFeeRate,
		"withdrawal_fee", l.withdrawalFeeRate,
	)

	return nil
}

// Stop shuts down plugins and closes the store.
func (l *Ledger) Stop() error {
	ctx := context.Background()
	l.plugins.EmitShutdown(ctx)

	return l.store.Close()
}

func (l *Ledger) ready() (*schedule.Schedule, error) {
	sched := l.schedule.Load()
	if sched == nil {
		return nil, ErrNotStarted
	}
	return sched, nil
}

// ──────────────────────────────────────────────────
// Reads
// ──────────────────────────────────────────────────

// BalanceOf returns holder's balance with decay applied up to now. It never
// writes. An unknown holder has a zero balance; the error only reports a
// store failure.
func (l *Ledger) BalanceOf(ctx context.Context, holder string) (types.Amount, error) {
	sched, err := l.ready()
	if err != nil {
		return types.Zero, err
	}

	a, err := l.store.GetAccount(ctx, holder)
	if errors.Is(err, ErrAccountNotFound) {
		return types.Zero, nil
	}
	if err != nil {
		return types.Zero, fmt.Errorf("load account %q: %w", holder, err)
	}

	return decay.Balance(a.RawBalance, a.LastUpdated, l.clock.Now(), sched), nil
}

// Account returns holder's stored record without applying pending decay.
func (l *Ledger) Account(ctx context.Context, holder string) (*account.Account, error) {
	return l.store.GetAccount(ctx, holder)
}

// ActiveRate returns the demurrage rate in force now.
func (l *Ledger) ActiveRate() (types.Rate, error) {
	sched, err := l.ready()
	if err != nil {
		return 0, err
	}
	return sched.ActiveRateAt(l.clock.Now()), nil
}

// Checkpoints returns every registered rate checkpoint in order.
func (l *Ledger) Checkpoints() ([]schedule.Checkpoint, error) {
	sched, err := l.ready()
	if err != nil {
		return nil, err
	}
	return sched.Checkpoints(), nil
}

// TotalSupply returns the sum of every holder's decayed balance.
func (l *Ledger) TotalSupply(ctx context.Context) (types.Amount, error) {
	sched, err := l.ready()
	if err != nil {
		return types.Zero, err
	}

	const page = 500
	now := l.clock.Now()
	total := types.Zero
	for offset := 0; ; offset += page {
		accounts, err := l.store.ListAccounts(ctx, account.ListOpts{Limit: page, Offset: offset})
		if err != nil {
			return types.Zero, fmt.Errorf("list accounts: %w", err)
		}
		for _, a := range accounts {
			total = total.Add(decay.Balance(a.RawBalance, a.LastUpdated, now, sched))
		}
		if len(accounts) < page {
			return total, nil
		}
	}
}

// Reserves returns the collateral held by the vault.
func (l *Ledger) Reserves(ctx context.Context) (types.Amount, error) {
	return l.collateral.BalanceOf(ctx, l.vault)
}

// History queries the journal.
func (l *Ledger) History(ctx context.Context, opts journal.QueryOpts) ([]*journal.Entry, error) {
	return l.store.QueryEntries(ctx, opts)
}

// Entry returns one journal entry.
func (l *Ledger) Entry(ctx context.Context, entryID id.EntryID) (*journal.Entry, error) {
	return l.store.GetEntry(ctx, entryID)
}

// Vault returns the address that holds the collateral.
func (l *Ledger) Vault() string { return l.vault }

// FeeCollector returns the holder that receives fees.
func (l *Ledger) FeeCollector() string { return l.feeCollector }

// TransferFeeRate returns the fee rate charged on transfers.
func (l *Ledger) TransferFeeRate() types.Rate { return l.transferFeeRate }

// WithdrawalFeeRate returns the fee rate charged on withdrawals.
func (l *Ledger) WithdrawalFeeRate() types.Rate { return l.withdrawalFeeRate }

// PeriodLength returns the length of one decay period.
func (l *Ledger) PeriodLength() time.Duration { return l.periodLength }

// ──────────────────────────────────────────────────
// Mutations
// ──────────────────────────────────────────────────

// Mint pulls amount of collateral from holder into the vault and credits the
// same amount of ledger tokens. Holder must have approved the vault first.
// Minting is free of fees.
func (l *Ledger) Mint(ctx context.Context, holder string, amount types.Amount) error {
	tx, e, err := l.mint(ctx, holder, amount)
	if err != nil {
		return l.fail(ctx, "mint", err)
	}

	l.logger.Debug("minted", "holder", holder, "amount", amount)
	l.publish(ctx, tx)
	l.plugins.EmitMinted(ctx, e)
	return nil
}

func (l *Ledger) mint(ctx context.Context, holder string, amount types.Amount) (*txn, *journal.Entry, error) {
	if err := checkRequest(holder, amount); err != nil {
		return nil, nil, err
	}
	sched, err := l.ready()
	if err != nil {
		return nil, nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tx := l.begin(sched)
	acct, err := l.touch(ctx, tx, holder)
	if err != nil {
		return nil, nil, err
	}
	if err := l.collect(ctx, tx); err != nil {
		return nil, nil, err
	}

	if err := l.collateral.TransferFrom(ctx, holder, l.vault, amount); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrCollateralTransferFailed, err)
	}

	acct.RawBalance = acct.RawBalance.Add(amount)

	if err := l.save(ctx, tx); err != nil {
		if rerr := l.collateral.Transfer(ctx, holder, amount); rerr != nil {
			l.logger.Error("collateral refund after failed mint",
				"holder", holder,
				"amount", amount,
				"error", rerr,
			)
			return nil, nil, errors.Join(err, rerr)
		}
		return nil, nil, err
	}

	e := journal.Minted(holder, amount, tx.now)
	l.record(ctx, e)
	return tx, e, nil
}

// Transfer moves amount from sender to recipient. Sender pays the transfer
// fee on top, credited to the fee collector.
func (l *Ledger) Transfer(ctx context.Context, sender, recipient string, amount types.Amount) error {
	tx, e, err := l.transfer(ctx, sender, recipient, amount)
	if err != nil {
		return l.fail(ctx, "transfer", err)
	}

	l.logger.Debug("transferred",
		"sender", sender,
		"recipient", recipient,
		"amount", amount,
		"fee", e.Fee,
	)
	l.publish(ctx, tx)
	l.plugins.EmitTransferred(ctx, e)
	return nil
}

func (l *Ledger) transfer(ctx context.Context, sender, recipient string, amount types.Amount) (*txn, *journal.Entry, error) {
	if err := checkRequest(sender, amount); err != nil {
		return nil, nil, err
	}
	if recipient == "" {
		return nil, nil, ErrInvalidHolder
	}
	sched, err := l.ready()
	if err != nil {
		return nil, nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tx := l.begin(sched)
	from, err := l.touch(ctx, tx, sender)
	if err != nil {
		return nil, nil, err
	}
	to, err := l.touch(ctx, tx, recipient)
	if err != nil {
		return nil, nil, err
	}
	collector, err := l.touch(ctx, tx, l.feeCollector)
	if err != nil {
		return nil, nil, err
	}
	if err := l.collect(ctx, tx); err != nil {
		return nil, nil, err
	}

	f := fee.Compute(amount, l.transferFeeRate)
	debit := amount.Add(f)
	if from.RawBalance.LessThan(debit) {
		return nil, nil, fmt.Errorf("%w: %s holds %s, needs %s", ErrInsufficientBalance, sender, from.RawBalance, debit)
	}

	from.RawBalance = from.RawBalance.Sub(debit)
	to.RawBalance = to.RawBalance.Add(amount)
	collector.RawBalance = collector.RawBalance.Add(f)

	if err := l.save(ctx, tx); err != nil {
		return nil, nil, err
	}

	e := journal.Transferred(sender, recipient, amount, f, tx.now)
	l.record(ctx, e)
	return tx, e, nil
}

// Withdraw redeems amount of ledger tokens for the same amount of collateral.
// The withdrawal fee is charged in ledger tokens on top of amount, so the
// holder receives the full amount of collateral.
func (l *Ledger) Withdraw(ctx context.Context, holder string, amount types.Amount) error {
	tx, e, err := l.withdraw(ctx, holder, amount)
	if err != nil {
		return l.fail(ctx, "withdraw", err)
	}

	l.logger.Debug("withdrawn", "holder", holder, "amount", amount, "fee", e.Fee)
	l.publish(ctx, tx)
	l.plugins.EmitWithdrawn(ctx, e)
	return nil
}

func (l *Ledger) withdraw(ctx context.Context, holder string, amount types.Amount) (*txn, *journal.Entry, error) {
	if err := checkRequest(holder, amount); err != nil {
		return nil, nil, err
	}
	sched, err := l.ready()
	if err != nil {
		return nil, nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tx := l.begin(sched)
	acct, err := l.touch(ctx, tx, holder)
	if err != nil {
		return nil, nil, err
	}
	collector, err := l.touch(ctx, tx, l.feeCollector)
	if err != nil {
		return nil, nil, err
	}
	if err := l.collect(ctx, tx); err != nil {
		return nil, nil, err
	}

	f := fee.Compute(amount, l.withdrawalFeeRate)
	debit := amount.Add(f)
	if acct.RawBalance.LessThan(debit) {
		return nil, nil, fmt.Errorf("%w: %s holds %s, needs %s", ErrInsufficientBalance, holder, acct.RawBalance, debit)
	}

	acct.RawBalance = acct.RawBalance.Sub(debit)
	collector.RawBalance = collector.RawBalance.Add(f)

	if err := l.save(ctx, tx); err != nil {
		return nil, nil, err
	}

	if err := l.collateral.Transfer(ctx, holder, amount); err != nil {
		cause := fmt.Errorf("%w: %w", ErrCollateralTransferFailed, err)
		if rerr := l.restore(ctx, tx); rerr != nil {
			l.logger.Error("restore after failed withdrawal",
				"holder", holder,
				"amount", amount,
				"error", rerr,
			)
			return nil, nil, errors.Join(cause, rerr)
		}
		return nil, nil, cause
	}

	e := journal.Withdrawn(holder, amount, f, tx.now)
	l.record(ctx, e)
	return tx, e, nil
}

// UpdateDemurrageRate registers rate to take effect at effectiveAt. Only the
// authority may call it. Balances are not touched: every holder picks the
// new rate up lazily, and only for periods from effectiveAt onward.
func (l *Ledger) UpdateDemurrageRate(ctx context.Context, caller string, rate types.Rate, effectiveAt time.Time) (*schedule.Checkpoint, error) {
	c, err := l.updateRate(ctx, caller, rate, effectiveAt)
	if err != nil {
		return nil, l.fail(ctx, "update_rate", err)
	}

	l.logger.Info("demurrage rate updated",
		"rate", rate,
		"effective_at", c.EffectiveAt,
		"checkpoint", c.ID.String(),
	)
	l.plugins.EmitRateUpdated(ctx, c)
	return c, nil
}

func (l *Ledger) updateRate(ctx context.Context, caller string, rate types.Rate, effectiveAt time.Time) (*schedule.Checkpoint, error) {
	if !l.authority.IsAuthorized(caller) {
		return nil, fmt.Errorf("%w: %q may not change the demurrage rate", ErrPermissionDenied, caller)
	}
	sched, err := l.ready()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if err := sched.Validate(rate, effectiveAt, now); err != nil {
		return nil, err
	}

	c := &schedule.Checkpoint{
		ID:          id.NewCheckpointID(),
		Rate:        rate,
		EffectiveAt: effectiveAt.UTC(),
		CreatedAt:   now,
	}
	if err := l.store.AppendCheckpoint(ctx, c); err != nil {
		return nil, fmt.Errorf("append checkpoint: %w", err)
	}
	if err := sched.Add(*c, now); err != nil {
		return nil, err
	}

	l.record(ctx, journal.RateUpdated(caller, rate, c.EffectiveAt, now))
	return c, nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func checkRequest(holder string, amount types.Amount) error {
	if holder == "" {
		return ErrInvalidHolder
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrInvalidAmount, amount)
	}
	return nil
}

// record writes e to the journal. The journal is an audit trail, so a
// failed write is logged and does not undo the committed operation.
func (l *Ledger) record(ctx context.Context, e *journal.Entry) {
	if err := l.store.AppendEntry(ctx, e); err != nil {
		l.logger.Warn("journal append failed",
			"kind", e.Kind,
			"entry", e.ID.String(),
			"error", err,
		)
	}
}

// publish reports the decay an operation realized.
func (l *Ledger) publish(ctx context.Context, tx *txn) {
	for _, holder := range tx.order {
		if lost, ok := tx.decayed[holder]; ok {
			l.plugins.EmitDecayRealized(ctx, holder, lost)
		}
	}
}

func (l *Ledger) fail(ctx context.Context, op string, err error) error {
	l.logger.Debug("operation rejected", "op", op, "error", err)
	l.plugins.EmitOperationFailed(ctx, op, err)
	return err
}
