package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseSymbol(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantBase  string
		wantQuote string
		wantErr   bool
	}{
		{name: "simple", input: "BTC/USDT", wantBase: "BTC", wantQuote: "USDT"},
		{name: "lowercase_normalized", input: "eth/btc", wantBase: "ETH", wantQuote: "BTC"},
		{name: "missing_separator", input: "BTCUSDT", wantErr: true},
		{name: "empty_base", input: "/USDT", wantErr: true},
		{name: "empty_quote", input: "BTC/", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sym, err := ParseSymbol(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseSymbol(%q) expected error, got %v", tt.input, sym)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSymbol(%q) unexpected error: %v", tt.input, err)
			}
			if sym.Base != tt.wantBase || sym.Quote != tt.wantQuote {
				t.Errorf("ParseSymbol(%q) = %s/%s, want %s/%s",
					tt.input, sym.Base, sym.Quote, tt.wantBase, tt.wantQuote)
			}
		})
	}
}

func TestSymbol_String(t *testing.T) {
	sym := Symbol{Base: "ETH", Quote: "USDT"}
	if got := sym.String(); got != "ETH/USDT" {
		t.Errorf("String() = %q, want %q", got, "ETH/USDT")
	}
}

func makeQuote(venue, symbol, bid, ask string) Quote {
	return Quote{
		Venue:     venue,
		Symbol:    MustParseSymbol(symbol),
		Bid:       decimal.RequireFromString(bid),
		Ask:       decimal.RequireFromString(ask),
		BidQty:    decimal.NewFromInt(1),
		AskQty:    decimal.NewFromInt(1),
		Timestamp: time.Now(),
	}
}

func TestQuote_Validate(t *testing.T) {
	tests := []struct {
		name    string
		quote   Quote
		wantErr bool
	}{
		{name: "valid", quote: makeQuote("bybit", "BTC/USDT", "64000.5", "64001.5")},
		{name: "equal_bid_ask", quote: makeQuote("bybit", "BTC/USDT", "64000", "64000")},
		{name: "zero_bid", quote: makeQuote("bybit", "BTC/USDT", "0", "64001"), wantErr: true},
		{name: "negative_ask", quote: makeQuote("bybit", "BTC/USDT", "64000", "-1"), wantErr: true},
		{name: "crossed_book", quote: makeQuote("bybit", "BTC/USDT", "64002", "64001"), wantErr: true},
		{name: "missing_venue", quote: makeQuote("", "BTC/USDT", "64000", "64001"), wantErr: true},
		{
			name: "missing_symbol",
			quote: Quote{
				Venue: "bybit",
				Bid:   decimal.NewFromInt(1),
				Ask:   decimal.NewFromInt(2),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.quote.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestQuote_Mid(t *testing.T) {
	q := makeQuote("bybit", "ETH/USDT", "3400", "3402")
	want := decimal.RequireFromString("3401")
	if !q.Mid().Equal(want) {
		t.Errorf("Mid() = %s, want %s", q.Mid(), want)
	}
}

func TestQuote_IsStale(t *testing.T) {
	now := time.Now()
	q := makeQuote("bybit", "BTC/USDT", "64000", "64001")
	q.Timestamp = now.Add(-3 * time.Second)

	if q.IsStale(now, 5*time.Second) {
		t.Error("quote aged 3s should not be stale with 5s bound")
	}
	if !q.IsStale(now, 2*time.Second) {
		t.Error("quote aged 3s should be stale with 2s bound")
	}
	// Exactly at the bound is not stale.
	q.Timestamp = now.Add(-5 * time.Second)
	if q.IsStale(now, 5*time.Second) {
		t.Error("quote aged exactly the bound should not be stale")
	}
}

func TestFeeTable_For(t *testing.T) {
	def := Fees{
		TakerBuy:  decimal.RequireFromString("0.001"),
		TakerSell: decimal.RequireFromString("0.001"),
	}
	bybit := Fees{
		TakerBuy:  decimal.RequireFromString("0.0006"),
		TakerSell: decimal.RequireFromString("0.0006"),
	}
	table := NewFeeTable(def, map[string]Fees{"bybit": bybit})

	if got := table.For("bybit"); !got.TakerBuy.Equal(bybit.TakerBuy) {
		t.Errorf("For(bybit).TakerBuy = %s, want %s", got.TakerBuy, bybit.TakerBuy)
	}
	// Unknown venue resolves to the default, never an error.
	if got := table.For("unknown"); !got.TakerSell.Equal(def.TakerSell) {
		t.Errorf("For(unknown).TakerSell = %s, want %s", got.TakerSell, def.TakerSell)
	}
}

func TestSnapshot_AddAndLookup(t *testing.T) {
	snap := NewSnapshot(time.Now())
	if !snap.IsEmpty() {
		t.Fatal("new snapshot should be empty")
	}

	snap.Add(makeQuote("bybit", "BTC/USDT", "64000", "64001"))
	snap.Add(makeQuote("bitget", "BTC/USDT", "64010", "64011"))
	snap.Add(makeQuote("bybit", "ETH/USDT", "3400", "3401"))

	if snap.Size() != 3 {
		t.Errorf("Size() = %d, want 3", snap.Size())
	}

	btc := snap.BySymbol(MustParseSymbol("BTC/USDT"))
	if len(btc) != 2 {
		t.Fatalf("expected 2 venues for BTC/USDT, got %d", len(btc))
	}

	venues := snap.Venues()
	if len(venues) != 2 || venues[0] != "bitget" || venues[1] != "bybit" {
		t.Errorf("Venues() = %v, want [bitget bybit]", venues)
	}

	byVenue := snap.ByVenue("bybit")
	if len(byVenue) != 2 {
		t.Errorf("ByVenue(bybit) has %d symbols, want 2", len(byVenue))
	}

	// Re-adding the same venue/symbol replaces, not appends.
	snap.Add(makeQuote("bybit", "BTC/USDT", "64005", "64006"))
	if snap.Size() != 3 {
		t.Errorf("Size() after replace = %d, want 3", snap.Size())
	}
	got := snap.BySymbol(MustParseSymbol("BTC/USDT"))["bybit"]
	if !got.Bid.Equal(decimal.RequireFromString("64005")) {
		t.Errorf("replaced quote bid = %s, want 64005", got.Bid)
	}
}
