// Package demurrage provides a collateral-backed ledger token whose idle
// balances decay over time.
//
// Demurrage is designed as a library, not a service. Import it directly into
// your Go application, or run cmd/demurraged for a ready-made HTTP daemon.
// It provides:
//
//   - Holdings pegged 1:1 to a collateral asset held in a vault
//   - Per-period compound decay of every balance, applied lazily
//   - Fees on transfer and withdrawal, paid to a fee collector
//   - Governed rate changes through future-dated checkpoints
//   - An append-only journal of every ledger movement
//   - Pluggable stores (memory, PostgreSQL, SQLite, MongoDB via Grove)
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/demurrage"
//	    "github.com/xraph/demurrage/store/memory"
//	)
//
//	l := demurrage.New(memory.New(), asset, demurrage.WithOwner("treasury"))
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// The asset is a collateral.Asset bound to the ledger's vault. Before
// minting, a holder approves the vault to pull collateral:
//
//	err := l.Mint(ctx, "leen", demurrage.Tokens(200))
//
// # Decay
//
// Time is cut into periods of fixed length (31 days by default) counted from
// the Unix epoch. Each period boundary a balance crosses multiplies it by
// 1 - rate, where rate is the demurrage rate in force for that period. A
// balance of 1000 at 1% is worth 941.48 after six periods.
//
// Decay is never swept eagerly. Every account stores the raw balance and the
// time it was last realized; BalanceOf computes the decayed value on read and
// any mutation writes it back first.
//
// # Fees
//
// Transfers and withdrawals charge a flat rate (1% by default) rounded down
// to the smallest unit. The fee comes on top: sending 100 costs the sender
// 101 and the recipient receives 100. A withdrawal pays out the full amount
// in collateral and takes the fee in ledger tokens.
//
// # Rate Changes
//
// The owner registers a new rate with UpdateDemurrageRate. The change takes
// effect at a future instant and periods already elapsed keep the rate that
// applied to them.
//
// # TypeID
//
// Persisted records use TypeID for globally unique, type-safe identifiers:
//
//	acct_01h2xcejqtf2nbrexx3vqjhp41  // Account
//	rck_01h2xcejqtf2nbrexx3vqjhp41   // Rate checkpoint
//	jrnl_01h455vb4pex5vsknk084sn02q  // Journal entry
package demurrage
