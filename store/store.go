// Package store defines the persistence contract of the demurrage ledger.
package store

import (
	"context"

	"github.com/xraph/demurrage/account"
	"github.com/xraph/demurrage/id"
	"github.com/xraph/demurrage/journal"
	"github.com/xraph/demurrage/schedule"
)

// Store is the unified storage interface for ledger state.
//
// Accounts are keyed by holder. SaveAccounts upserts every given account;
// the ledger passes all accounts an operation touched in one call.
// Checkpoints and journal entries are append-only.
type Store interface {
	// Account methods
	GetAccount(ctx context.Context, holder string) (*account.Account, error)
	ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error)
	SaveAccounts(ctx context.Context, accounts ...*account.Account) error

	// Checkpoint methods
	AppendCheckpoint(ctx context.Context, c *schedule.Checkpoint) error
	ListCheckpoints(ctx context.Context) ([]*schedule.Checkpoint, error)

	// Journal methods
	AppendEntry(ctx context.Context, e *journal.Entry) error
	GetEntry(ctx context.Context, entryID id.EntryID) (*journal.Entry, error)
	QueryEntries(ctx context.Context, opts journal.QueryOpts) ([]*journal.Entry, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
