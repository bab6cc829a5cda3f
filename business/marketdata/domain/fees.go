// Package domain contains the core domain types for the marketdata context.
package domain

import "github.com/shopspring/decimal"

// Fees holds taker fees for one venue as fractions (0.001 = 0.1%).
type Fees struct {
	TakerBuy  decimal.Decimal
	TakerSell decimal.Decimal
}

// FeeTable resolves venue fees. Unknown venues fall back to the default,
// never to an error. Built once at startup and immutable afterwards.
type FeeTable struct {
	venues map[string]Fees
	def    Fees
}

// NewFeeTable creates a fee table with the given default fees.
func NewFeeTable(def Fees, venues map[string]Fees) *FeeTable {
	copied := make(map[string]Fees, len(venues))
	for venue, fees := range venues {
		copied[venue] = fees
	}
	return &FeeTable{venues: copied, def: def}
}

// For returns the fees for a venue, falling back to the default.
func (t *FeeTable) For(venue string) Fees {
	if fees, ok := t.venues[venue]; ok {
		return fees
	}
	return t.def
}

// Default returns the fallback fees.
func (t *FeeTable) Default() Fees {
	return t.def
}
