package demurrage

import (
	"github.com/xraph/demurrage/decay"
	"github.com/xraph/demurrage/types"
)

// Re-export common types so callers don't have to import the types package.

// Amount is re-exported from types package.
type Amount = types.Amount

// Rate is re-exported from types package.
type Rate = types.Rate

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export Amount and Rate constructors
var (
	Tokens      = types.Tokens
	Units       = types.Units
	ParseAmount = types.ParseAmount
	ParseTokens = types.ParseTokens
	Percent     = types.Percent
	ParseRate   = types.ParseRate
	Zero        = types.Zero
	Sum         = types.Sum
)

// CompoundFactor returns (1 - rate)^periods.
var CompoundFactor = decay.CompoundFactor
