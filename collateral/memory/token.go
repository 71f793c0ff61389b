// Package memory provides an in-process collateral token.
//
// Token keeps balances and allowances in maps. Use Caller to obtain an
// Asset that acts on behalf of one address.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/xraph/demurrage/collateral"
	"github.com/xraph/demurrage/types"
)

// Token is an in-memory fungible token.
type Token struct {
	mu         sync.RWMutex
	symbol     string
	balances   map[string]types.Amount
	allowances map[string]map[string]types.Amount
}

// New creates an empty token.
func New(symbol string) *Token {
	return &Token{
		symbol:     symbol,
		balances:   make(map[string]types.Amount),
		allowances: make(map[string]map[string]types.Amount),
	}
}

// Symbol returns the token symbol.
func (t *Token) Symbol() string { return t.symbol }

// Mint creates amount out of thin air for addr. It exists to fund test and
// demo accounts.
func (t *Token) Mint(addr string, amount types.Amount) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances[addr] = t.balances[addr].Add(amount)
}

// Allowance returns what spender may still move out of owner's balance.
func (t *Token) Allowance(owner, spender string) types.Amount {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.allowances[owner][spender]
}

// Caller returns an Asset bound to addr.
func (t *Token) Caller(addr string) collateral.Asset {
	return &boundAsset{token: t, caller: addr}
}

func (t *Token) move(from, to string, amount types.Amount) error {
	if t.balances[from].LessThan(amount) {
		return fmt.Errorf("%w: %s holds %s, needs %s", collateral.ErrInsufficientFunds, from, t.balances[from], amount)
	}
	t.balances[from] = t.balances[from].Sub(amount)
	t.balances[to] = t.balances[to].Add(amount)
	return nil
}

type boundAsset struct {
	token  *Token
	caller string
}

var _ collateral.Asset = (*boundAsset)(nil)

func (b *boundAsset) TransferFrom(_ context.Context, from, to string, amount types.Amount) error {
	if amount.IsNegative() {
		return collateral.ErrInvalidAmount
	}
	if amount.IsZero() {
		return nil
	}

	t := b.token
	t.mu.Lock()
	defer t.mu.Unlock()

	allowed := t.allowances[from][b.caller]
	if allowed.LessThan(amount) {
		return fmt.Errorf("%w: %s allows %s %s, needs %s", collateral.ErrInsufficientAllowance, from, b.caller, allowed, amount)
	}
	if err := t.move(from, to, amount); err != nil {
		return err
	}
	t.allowances[from][b.caller] = allowed.Sub(amount)
	return nil
}

func (b *boundAsset) Transfer(_ context.Context, to string, amount types.Amount) error {
	if amount.IsNegative() {
		return collateral.ErrInvalidAmount
	}

	t := b.token
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.move(b.caller, to, amount)
}

func (b *boundAsset) BalanceOf(_ context.Context, addr string) (types.Amount, error) {
	t := b.token
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.balances[addr], nil
}

func (b *boundAsset) Approve(_ context.Context, spender string, amount types.Amount) error {
	if amount.IsNegative() {
		return collateral.ErrInvalidAmount
	}

	t := b.token
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.allowances[b.caller] == nil {
		t.allowances[b.caller] = make(map[string]types.Amount)
	}
	t.allowances[b.caller][spender] = amount
	return nil
}
