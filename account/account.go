// Package account defines the per-holder balance record.
package account

import (
	"time"

	"github.com/xraph/demurrage/id"
	"github.com/xraph/demurrage/types"
)

// Account is a holder's stored balance. RawBalance was exact at LastUpdated;
// any decay after LastUpdated is pending until the next realization.
type Account struct {
	types.Entity
	ID          id.AccountID `json:"id"`
	Holder      string       `json:"holder"`
	RawBalance  types.Amount `json:"raw_balance"`
	LastUpdated time.Time    `json:"last_updated"`
}

// New returns an empty account for holder, realized at now.
func New(holder string, now time.Time) *Account {
	now = now.UTC()
	return &Account{
		Entity:      types.NewEntity(now),
		ID:          id.NewAccountID(),
		Holder:      holder,
		RawBalance:  types.Zero,
		LastUpdated: now,
	}
}

// Clone returns a copy that shares nothing mutable with a.
func (a *Account) Clone() *Account {
	c := *a
	return &c
}

// ListOpts controls account listing.
type ListOpts struct {
	Limit  int
	Offset int
}
