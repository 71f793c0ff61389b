// Package collateral defines the reference asset that backs the ledger.
//
// An Asset is bound to a caller: TransferFrom spends an allowance granted to
// that caller, Transfer and Approve move or authorize the caller's own funds.
// The ledger holds an Asset bound to its vault.
package collateral

import (
	"context"
	"errors"

	"github.com/xraph/demurrage/types"
)

// Asset is a fungible token with allowance semantics.
type Asset interface {
	// TransferFrom moves amount from `from` to `to`, spending the caller's
	// allowance on `from`.
	TransferFrom(ctx context.Context, from, to string, amount types.Amount) error

	// Transfer moves amount from the caller to `to`.
	Transfer(ctx context.Context, to string, amount types.Amount) error

	// BalanceOf returns the balance held by addr.
	BalanceOf(ctx context.Context, addr string) (types.Amount, error)

	// Approve lets spender move up to amount of the caller's funds.
	Approve(ctx context.Context, spender string, amount types.Amount) error
}

// Failure causes reported by asset implementations.
var (
	ErrInsufficientAllowance = errors.New("collateral: insufficient allowance")
	ErrInsufficientFunds     = errors.New("collateral: insufficient funds")
	ErrInvalidAmount         = errors.New("collateral: invalid amount")
)
