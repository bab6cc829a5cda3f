// Package binance implements the QuoteProvider interface for the Binance
// exchange. Quotes stream over WebSocket bookTicker channels with a REST
// fallback for stale or missing data.
package binance

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// WebSocket request/response messages

// WSRequest is a WebSocket subscription request.
type WSRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}

// WSResponse is a WebSocket subscription response.
type WSResponse struct {
	Result json.RawMessage `json:"result"`
	ID     int64           `json:"id"`
}

// StreamEvent is the base wrapper for combined stream messages.
type StreamEvent struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// BookTickerEvent represents a best bid/ask update.
// Stream: <symbol>@bookTicker
type BookTickerEvent struct {
	UpdateID int64  `json:"u"` // Order book updateId
	Symbol   string `json:"s"` // Symbol
	BidPrice string `json:"b"` // Best bid price
	BidQty   string `json:"B"` // Best bid qty
	AskPrice string `json:"a"` // Best ask price
	AskQty   string `json:"A"` // Best ask qty
}

// ParseBidPrice parses the best bid price.
func (e *BookTickerEvent) ParseBidPrice() (decimal.Decimal, error) {
	return decimal.NewFromString(e.BidPrice)
}

// ParseAskPrice parses the best ask price.
func (e *BookTickerEvent) ParseAskPrice() (decimal.Decimal, error) {
	return decimal.NewFromString(e.AskPrice)
}

// ParseBidQty parses the best bid quantity.
func (e *BookTickerEvent) ParseBidQty() (decimal.Decimal, error) {
	return decimal.NewFromString(e.BidQty)
}

// ParseAskQty parses the best ask quantity.
func (e *BookTickerEvent) ParseAskQty() (decimal.Decimal, error) {
	return decimal.NewFromString(e.AskQty)
}

// BookTickerREST is the REST response for /api/v3/ticker/bookTicker.
// Same shape as the stream event with long field names.
type BookTickerREST struct {
	Symbol   string `json:"symbol"`
	BidPrice string `json:"bidPrice"`
	BidQty   string `json:"bidQty"`
	AskPrice string `json:"askPrice"`
	AskQty   string `json:"askQty"`
}

// ToEvent converts the REST shape to the stream event shape so both paths
// feed the same cache update.
func (r *BookTickerREST) ToEvent() *BookTickerEvent {
	return &BookTickerEvent{
		Symbol:   r.Symbol,
		BidPrice: r.BidPrice,
		BidQty:   r.BidQty,
		AskPrice: r.AskPrice,
		AskQty:   r.AskQty,
	}
}

// cachedQuote is one symbol's latest top of book.
type cachedQuote struct {
	bid, ask       decimal.Decimal
	bidQty, askQty decimal.Decimal
	updated        time.Time
}

// BookTickerStream returns the bookTicker stream name for a symbol.
func BookTickerStream(symbol string) string {
	return lowercase(symbol) + "@bookTicker"
}

func lowercase(s string) string {
	// Simple ASCII lowercase for symbols
	b := []byte(s)
	for i := range b {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 32
		}
	}
	return string(b)
}
