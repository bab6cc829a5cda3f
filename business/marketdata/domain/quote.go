// Package domain contains the core domain types for the marketdata context.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/cex-arb/internal/apperror"
)

// Symbol represents a trading pair as plain currency codes.
type Symbol struct {
	Base  string // e.g., BTC
	Quote string // e.g., USDT
}

// ParseSymbol parses "BASE/QUOTE" into a Symbol.
func ParseSymbol(s string) (Symbol, error) {
	base, quote, ok := strings.Cut(s, "/")
	if !ok || base == "" || quote == "" {
		return Symbol{}, apperror.Validation(apperror.CodeInvalidFormat,
			fmt.Sprintf("symbol %q, want BASE/QUOTE", s))
	}
	return Symbol{Base: strings.ToUpper(base), Quote: strings.ToUpper(quote)}, nil
}

// MustParseSymbol parses a symbol or panics. For tests and static tables.
func MustParseSymbol(s string) Symbol {
	sym, err := ParseSymbol(s)
	if err != nil {
		panic(err)
	}
	return sym
}

// String returns the symbol as "BASE/QUOTE".
func (s Symbol) String() string {
	return s.Base + "/" + s.Quote
}

// IsZero reports whether the symbol is unset.
func (s Symbol) IsZero() bool {
	return s.Base == "" && s.Quote == ""
}

// Quote is an immutable top-of-book snapshot from one venue.
type Quote struct {
	Venue     string
	Symbol    Symbol
	Bid       decimal.Decimal
	Ask       decimal.Decimal
	BidQty    decimal.Decimal
	AskQty    decimal.Decimal
	Timestamp time.Time
}

// Validate checks that the quote can ever produce a result.
// Non-positive prices and crossed books are structural, not transient.
func (q Quote) Validate() error {
	if q.Venue == "" {
		return apperror.Structural(apperror.CodeInvalidQuote, "missing venue")
	}
	if q.Symbol.IsZero() {
		return apperror.Structural(apperror.CodeInvalidQuote, "missing symbol")
	}
	if !q.Bid.IsPositive() || !q.Ask.IsPositive() {
		return apperror.Structural(apperror.CodeInvalidQuote,
			fmt.Sprintf("%s %s: non-positive bid/ask %s/%s", q.Venue, q.Symbol, q.Bid, q.Ask))
	}
	if q.Bid.GreaterThan(q.Ask) {
		return apperror.Structural(apperror.CodeInvalidQuote,
			fmt.Sprintf("%s %s: crossed book bid %s > ask %s", q.Venue, q.Symbol, q.Bid, q.Ask))
	}
	return nil
}

// Mid returns the mid-market price.
func (q Quote) Mid() decimal.Decimal {
	return q.Bid.Add(q.Ask).Div(decimal.NewFromInt(2))
}

// Age returns how old the quote is at the given instant.
func (q Quote) Age(now time.Time) time.Duration {
	return now.Sub(q.Timestamp)
}

// IsStale reports whether the quote is older than maxAge at the given instant.
func (q Quote) IsStale(now time.Time, maxAge time.Duration) bool {
	return q.Age(now) > maxAge
}
