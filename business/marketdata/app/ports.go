// Package app contains application services and port definitions for the marketdata context.
package app

import (
	"context"

	"github.com/fd1az/cex-arb/business/marketdata/domain"
)

// QuoteProvider fetches top-of-book quotes from one venue.
type QuoteProvider interface {
	// Name returns the venue identifier, e.g. "bybit".
	Name() string

	// FetchQuotes returns quotes for the requested symbols. Symbols the
	// venue does not list are simply absent from the result.
	FetchQuotes(ctx context.Context, symbols []domain.Symbol) ([]domain.Quote, error)

	// Close releases venue resources.
	Close() error
}
