package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the demurrage store (SQLite).
var Migrations = migrate.NewGroup("demurrage")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_demurrage_accounts",
			Version: "20240301000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS demurrage_accounts (
    id           TEXT PRIMARY KEY,
    holder       TEXT NOT NULL,
    raw_balance  TEXT NOT NULL DEFAULT '0',
    last_updated DATETIME NOT NULL,
    created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
    updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_demurrage_accounts_holder ON demurrage_accounts (holder);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS demurrage_accounts`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_demurrage_checkpoints",
			Version: "20240301000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS demurrage_checkpoints (
    id           TEXT PRIMARY KEY,
    rate         INTEGER NOT NULL,
    effective_at DATETIME NOT NULL,
    created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_demurrage_checkpoints_effective ON demurrage_checkpoints (effective_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS demurrage_checkpoints`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_demurrage_journal",
			Version: "20240301000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS demurrage_journal (
    id           TEXT PRIMARY KEY,
    kind         TEXT NOT NULL,
    holder       TEXT NOT NULL DEFAULT '',
    counterparty TEXT NOT NULL DEFAULT '',
    amount       TEXT NOT NULL DEFAULT '0',
    fee          TEXT NOT NULL DEFAULT '0',
    rate         INTEGER NOT NULL DEFAULT 0,
    effective_at DATETIME,
    occurred_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_demurrage_journal_holder ON demurrage_journal (holder, occurred_at);
CREATE INDEX IF NOT EXISTS idx_demurrage_journal_counterparty ON demurrage_journal (counterparty, occurred_at);
CREATE INDEX IF NOT EXISTS idx_demurrage_journal_kind ON demurrage_journal (kind, occurred_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS demurrage_journal`)
				return err
			},
		},
	)
}
