package domain

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	marketDomain "github.com/fd1az/cex-arb/business/marketdata/domain"
)

func TestGraph_AddQuote(t *testing.T) {
	g := NewGraph()
	sym := marketDomain.MustParseSymbol("BTC/USDT")
	g.AddQuote(sym, decimal.RequireFromString("64000"), decimal.RequireFromString("64010"))

	if g.EdgeCount() != 2 {
		t.Fatalf("EdgeCount() = %d, want 2", g.EdgeCount())
	}

	// USDT->BTC buys at the ask.
	buys := g.Neighbors("USDT")
	if len(buys) != 1 {
		t.Fatalf("expected 1 edge from USDT, got %d", len(buys))
	}
	buy := buys[0]
	if buy.To != "BTC" || buy.Action != ActionBuy {
		t.Errorf("USDT edge = %+v, want buy edge to BTC", buy)
	}
	if !buy.Price.Equal(decimal.RequireFromString("64010")) {
		t.Errorf("buy price = %s, want ask 64010", buy.Price)
	}
	// Weight is -ln(1/ask) = ln(ask).
	wantWeight := math.Log(64010)
	if math.Abs(buy.Weight-wantWeight) > 1e-9 {
		t.Errorf("buy weight = %f, want %f", buy.Weight, wantWeight)
	}

	// BTC->USDT sells at the bid.
	sells := g.Neighbors("BTC")
	if len(sells) != 1 {
		t.Fatalf("expected 1 edge from BTC, got %d", len(sells))
	}
	sell := sells[0]
	if sell.To != "USDT" || sell.Action != ActionSell {
		t.Errorf("BTC edge = %+v, want sell edge to USDT", sell)
	}
	if !sell.Price.Equal(decimal.RequireFromString("64000")) {
		t.Errorf("sell price = %s, want bid 64000", sell.Price)
	}
	wantWeight = -math.Log(64000)
	if math.Abs(sell.Weight-wantWeight) > 1e-9 {
		t.Errorf("sell weight = %f, want %f", sell.Weight, wantWeight)
	}
}

func TestGraph_AddQuote_SkipsNonPositiveSides(t *testing.T) {
	tests := []struct {
		name      string
		bid, ask  string
		wantEdges int
	}{
		{name: "both_positive", bid: "100", ask: "101", wantEdges: 2},
		{name: "zero_bid", bid: "0", ask: "101", wantEdges: 1},
		{name: "zero_ask", bid: "100", ask: "0", wantEdges: 1},
		{name: "both_zero", bid: "0", ask: "0", wantEdges: 0},
		{name: "negative_bid", bid: "-1", ask: "101", wantEdges: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGraph()
			g.AddQuote(marketDomain.MustParseSymbol("ETH/USDT"),
				decimal.RequireFromString(tt.bid), decimal.RequireFromString(tt.ask))
			if g.EdgeCount() != tt.wantEdges {
				t.Errorf("EdgeCount() = %d, want %d", g.EdgeCount(), tt.wantEdges)
			}
		})
	}
}

func TestGraph_Currencies(t *testing.T) {
	g := NewGraph()
	g.AddQuote(marketDomain.MustParseSymbol("BTC/USDT"),
		decimal.RequireFromString("64000"), decimal.RequireFromString("64010"))
	g.AddQuote(marketDomain.MustParseSymbol("ETH/BTC"),
		decimal.RequireFromString("0.053"), decimal.RequireFromString("0.0531"))

	got := g.Currencies()
	want := []string{"BTC", "ETH", "USDT"}
	if len(got) != len(want) {
		t.Fatalf("Currencies() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Currencies()[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	if !g.HasCurrency("USDT") {
		t.Error("HasCurrency(USDT) = false, want true")
	}
	if g.HasCurrency("DOGE") {
		t.Error("HasCurrency(DOGE) = true, want false")
	}
}

func TestEdge_Rate(t *testing.T) {
	sym := marketDomain.MustParseSymbol("ETH/USDT")
	buy := Edge{Symbol: sym, Action: ActionBuy, Price: decimal.RequireFromString("2000")}
	if !buy.Rate().Equal(decimal.RequireFromString("0.0005")) {
		t.Errorf("buy Rate() = %s, want 0.0005", buy.Rate())
	}

	sell := Edge{Symbol: sym, Action: ActionSell, Price: decimal.RequireFromString("2000")}
	if !sell.Rate().Equal(decimal.RequireFromString("2000")) {
		t.Errorf("sell Rate() = %s, want 2000", sell.Rate())
	}
}

// A round-trip through a symbol at equal bid/ask must multiply to 1:
// the log weights cancel exactly.
func TestGraph_WeightsCancelOnRoundTrip(t *testing.T) {
	g := NewGraph()
	g.AddQuote(marketDomain.MustParseSymbol("ETH/USDT"),
		decimal.RequireFromString("2000"), decimal.RequireFromString("2000"))

	buy := g.Neighbors("USDT")[0]
	sell := g.Neighbors("ETH")[0]
	if sum := buy.Weight + sell.Weight; math.Abs(sum) > 1e-12 {
		t.Errorf("round-trip weight sum = %g, want 0", sum)
	}
}
