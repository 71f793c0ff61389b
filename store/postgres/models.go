package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/demurrage/account"
	"github.com/xraph/demurrage/id"
	"github.com/xraph/demurrage/journal"
	"github.com/xraph/demurrage/schedule"
	"github.com/xraph/demurrage/types"
)

// ==================== Account models ====================

type accountModel struct {
	grove.BaseModel `grove:"table:demurrage_accounts"`

	ID          string    `grove:"id,pk"`
	Holder      string    `grove:"holder"`
	RawBalance  string    `grove:"raw_balance"`
	LastUpdated time.Time `grove:"last_updated"`
	CreatedAt   time.Time `grove:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"`
}

func toAccountModel(a *account.Account) accountModel {
	return accountModel{
		ID:          a.ID.String(),
		Holder:      a.Holder,
		RawBalance:  a.RawBalance.String(),
		LastUpdated: a.LastUpdated.UTC(),
		CreatedAt:   a.CreatedAt.UTC(),
		UpdatedAt:   a.UpdatedAt.UTC(),
	}
}

func fromAccountModel(m *accountModel) (*account.Account, error) {
	accountID, err := id.ParseAccountID(m.ID)
	if err != nil {
		return nil, err
	}
	balance, err := types.ParseAmount(m.RawBalance)
	if err != nil {
		return nil, err
	}
	return &account.Account{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt.UTC(),
			UpdatedAt: m.UpdatedAt.UTC(),
		},
		ID:          accountID,
		Holder:      m.Holder,
		RawBalance:  balance,
		LastUpdated: m.LastUpdated.UTC(),
	}, nil
}

// ==================== Checkpoint models ====================

type checkpointModel struct {
	grove.BaseModel `grove:"table:demurrage_checkpoints"`

	ID          string    `grove:"id,pk"`
	Rate        int64     `grove:"rate"`
	EffectiveAt time.Time `grove:"effective_at"`
	CreatedAt   time.Time `grove:"created_at"`
}

func toCheckpointModel(c *schedule.Checkpoint) *checkpointModel {
	return &checkpointModel{
		ID:          c.ID.String(),
		Rate:        int64(c.Rate),
		EffectiveAt: c.EffectiveAt.UTC(),
		CreatedAt:   c.CreatedAt.UTC(),
	}
}

func fromCheckpointModel(m *checkpointModel) (*schedule.Checkpoint, error) {
	checkpointID, err := id.ParseCheckpointID(m.ID)
	if err != nil {
		return nil, err
	}
	return &schedule.Checkpoint{
		ID:          checkpointID,
		Rate:        types.Rate(m.Rate),
		EffectiveAt: m.EffectiveAt.UTC(),
		CreatedAt:   m.CreatedAt.UTC(),
	}, nil
}

// ==================== Journal models ====================

type entryModel struct {
	grove.BaseModel `grove:"table:demurrage_journal"`

	ID           string     `grove:"id,pk"`
	Kind         string     `grove:"kind"`
	Holder       string     `grove:"holder"`
	Counterparty string     `grove:"counterparty"`
	Amount       string     `grove:"amount"`
	Fee          string     `grove:"fee"`
	Rate         int64      `grove:"rate"`
	EffectiveAt  *time.Time `grove:"effective_at"`
	OccurredAt   time.Time  `grove:"occurred_at"`
}

func toEntryModel(e *journal.Entry) *entryModel {
	m := &entryModel{
		ID:           e.ID.String(),
		Kind:         string(e.Kind),
		Holder:       e.Holder,
		Counterparty: e.Counterparty,
		Amount:       e.Amount.String(),
		Fee:          e.Fee.String(),
		Rate:         int64(e.Rate),
		OccurredAt:   e.OccurredAt.UTC(),
	}
	if !e.EffectiveAt.IsZero() {
		t := e.EffectiveAt.UTC()
		m.EffectiveAt = &t
	}
	return m
}

func fromEntryModel(m *entryModel) (*journal.Entry, error) {
	entryID, err := id.ParseEntryID(m.ID)
	if err != nil {
		return nil, err
	}
	amount, err := types.ParseAmount(m.Amount)
	if err != nil {
		return nil, err
	}
	fee, err := types.ParseAmount(m.Fee)
	if err != nil {
		return nil, err
	}

	e := &journal.Entry{
		ID:           entryID,
		Kind:         journal.Kind(m.Kind),
		Holder:       m.Holder,
		Counterparty: m.Counterparty,
		Amount:       amount,
		Fee:          fee,
		Rate:         types.Rate(m.Rate),
		OccurredAt:   m.OccurredAt.UTC(),
	}
	if m.EffectiveAt != nil {
		e.EffectiveAt = m.EffectiveAt.UTC()
	}
	return e, nil
}
