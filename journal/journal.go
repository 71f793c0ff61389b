// Package journal records the ledger's observable events.
package journal

import (
	"time"

	"github.com/xraph/demurrage/id"
	"github.com/xraph/demurrage/types"
)

// Kind identifies what an entry records.
type Kind string

const (
	KindMinted      Kind = "minted"
	KindTransferred Kind = "transferred"
	KindWithdrawn   Kind = "withdrawn"
	KindRateUpdated Kind = "rate_updated"
)

// Entry is one committed event. Holder is the account the event originates
// from (the minter, sender, or withdrawer, or the rate setter for a rate
// update); Counterparty is the recipient of a transfer.
type Entry struct {
	ID           id.EntryID   `json:"id"`
	Kind         Kind         `json:"kind"`
	Holder       string       `json:"holder,omitempty"`
	Counterparty string       `json:"counterparty,omitempty"`
	Amount       types.Amount `json:"amount"`
	Fee          types.Amount `json:"fee"`
	Rate         types.Rate   `json:"rate,omitempty"`
	EffectiveAt  time.Time    `json:"effective_at,omitzero"`
	OccurredAt   time.Time    `json:"occurred_at"`
}

// Minted records a deposit of collateral for new tokens.
func Minted(holder string, amount types.Amount, at time.Time) *Entry {
	return &Entry{ID: id.NewEntryID(), Kind: KindMinted, Holder: holder, Amount: amount, OccurredAt: at.UTC()}
}

// Transferred records a holder-to-holder transfer.
func Transferred(sender, recipient string, amount, fee types.Amount, at time.Time) *Entry {
	return &Entry{
		ID:           id.NewEntryID(),
		Kind:         KindTransferred,
		Holder:       sender,
		Counterparty: recipient,
		Amount:       amount,
		Fee:          fee,
		OccurredAt:   at.UTC(),
	}
}

// Withdrawn records a redemption of tokens for collateral.
func Withdrawn(holder string, amount, fee types.Amount, at time.Time) *Entry {
	return &Entry{ID: id.NewEntryID(), Kind: KindWithdrawn, Holder: holder, Amount: amount, Fee: fee, OccurredAt: at.UTC()}
}

// RateUpdated records a newly registered rate checkpoint.
func RateUpdated(caller string, rate types.Rate, effectiveAt, at time.Time) *Entry {
	return &Entry{
		ID:          id.NewEntryID(),
		Kind:        KindRateUpdated,
		Holder:      caller,
		Rate:        rate,
		EffectiveAt: effectiveAt.UTC(),
		OccurredAt:  at.UTC(),
	}
}

// Involves reports whether holder sent or received in e.
func (e *Entry) Involves(holder string) bool {
	return e.Holder == holder || e.Counterparty == holder
}

// QueryOpts filters journal queries. Zero values match everything.
type QueryOpts struct {
	Holder string
	Kind   Kind
	Since  time.Time
	Limit  int
	Offset int
}
