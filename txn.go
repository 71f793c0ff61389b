package demurrage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/demurrage/account"
	"github.com/xraph/demurrage/decay"
	"github.com/xraph/demurrage/schedule"
	"github.com/xraph/demurrage/types"
)

// txn stages the accounts one operation touches. Every account is realized
// when first loaded and is shared by pointer afterwards, so an operation that
// names the same holder twice sees a single balance.
type txn struct {
	now      time.Time
	sched    *schedule.Schedule
	accounts map[string]*account.Account
	original map[string]*account.Account
	decayed  map[string]types.Amount
	order    []string
}

func (l *Ledger) begin(sched *schedule.Schedule) *txn {
	return &txn{
		now:      l.clock.Now().UTC(),
		sched:    sched,
		accounts: make(map[string]*account.Account),
		original: make(map[string]*account.Account),
		decayed:  make(map[string]types.Amount),
	}
}

// touch loads and realizes holder's account.
func (l *Ledger) touch(ctx context.Context, tx *txn, holder string) (*account.Account, error) {
	if a, ok := tx.accounts[holder]; ok {
		return a, nil
	}

	a, err := l.store.GetAccount(ctx, holder)
	switch {
	case errors.Is(err, ErrAccountNotFound):
		a = account.New(holder, tx.now)
		tx.original[holder] = a.Clone()
	case err != nil:
		return nil, fmt.Errorf("load account %q: %w", holder, err)
	default:
		tx.original[holder] = a.Clone()
	}

	if lost := realize(a, tx.now, tx.sched); lost.IsPositive() {
		tx.decayed[holder] = lost
	}
	tx.accounts[holder] = a
	tx.order = append(tx.order, holder)
	return a, nil
}

// realize collapses pending decay into a's raw balance and returns how much
// it removed. LastUpdated never moves backward.
func realize(a *account.Account, now time.Time, sched *schedule.Schedule) types.Amount {
	if !now.After(a.LastUpdated) {
		return types.Zero
	}

	decayed := decay.Balance(a.RawBalance, a.LastUpdated, now, sched)
	lost := a.RawBalance.Sub(decayed)
	a.RawBalance = decayed
	a.LastUpdated = now
	a.Touch(now)
	return lost
}

// collect credits the decay realized from other holders to the fee
// collector when decay collection is on.
func (l *Ledger) collect(ctx context.Context, tx *txn) error {
	if !l.collectDecay {
		return nil
	}

	total := types.Zero
	for holder, lost := range tx.decayed {
		if holder != l.feeCollector {
			total = total.Add(lost)
		}
	}
	if total.IsZero() {
		return nil
	}

	collector, err := l.touch(ctx, tx, l.feeCollector)
	if err != nil {
		return err
	}
	collector.RawBalance = collector.RawBalance.Add(total)
	return nil
}

func (l *Ledger) save(ctx context.Context, tx *txn) error {
	accounts := make([]*account.Account, 0, len(tx.order))
	for _, holder := range tx.order {
		accounts = append(accounts, tx.accounts[holder])
	}
	if err := l.store.SaveAccounts(ctx, accounts...); err != nil {
		return fmt.Errorf("save accounts: %w", err)
	}
	return nil
}

// restore writes back every account as it was before tx touched it.
func (l *Ledger) restore(ctx context.Context, tx *txn) error {
	accounts := make([]*account.Account, 0, len(tx.order))
	for _, holder := range tx.order {
		accounts = append(accounts, tx.original[holder])
	}
	if err := l.store.SaveAccounts(ctx, accounts...); err != nil {
		return fmt.Errorf("restore accounts: %w", err)
	}
	return nil
}
