package app

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/cex-arb/business/arbitrage/domain"
	marketDomain "github.com/fd1az/cex-arb/business/marketdata/domain"
)

func spreadOpp(id string, rate string) domain.SpreadOpportunity {
	return domain.SpreadOpportunity{
		Timestamp:  time.Now(),
		Symbol:     marketDomain.MustParseSymbol("BTC/USDT"),
		BuyVenue:   id,
		SellVenue:  "other",
		ProfitRate: decimal.RequireFromString(rate),
	}
}

func cycleOpp(netPct string) domain.CycleOpportunity {
	return domain.CycleOpportunity{
		Timestamp:  time.Now(),
		Venue:      "bybit",
		Path:       []string{"USDT", "BTC", "ETH", "USDT"},
		NetRatePct: decimal.RequireFromString(netPct),
	}
}

func TestRank_MixedKindsSortedByNetRate(t *testing.T) {
	opps := []domain.Opportunity{
		spreadOpp("a", "0.002"),
		cycleOpp("0.9"), // 0.9% -> 0.009 as a fraction
		spreadOpp("b", "0.015"),
	}

	got := Rank(opps, decimal.Zero)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	wantRates := []string{"0.015", "0.009", "0.002"}
	for i, w := range wantRates {
		if !got[i].NetProfitRate().Equal(decimal.RequireFromString(w)) {
			t.Errorf("got[%d].NetProfitRate() = %s, want %s", i, got[i].NetProfitRate(), w)
		}
	}
	if got[1].Kind() != domain.KindCycle {
		t.Errorf("got[1].Kind() = %v, want cycle", got[1].Kind())
	}
}

func TestRank_ThresholdIsStrict(t *testing.T) {
	threshold := decimal.RequireFromString("0.005")
	opps := []domain.Opportunity{
		spreadOpp("at", "0.005"),
		spreadOpp("above", "0.0051"),
		spreadOpp("below", "0.0049"),
	}

	got := Rank(opps, threshold)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1 (only strictly above threshold)", len(got))
	}
	sp := got[0].(domain.SpreadOpportunity)
	if sp.BuyVenue != "above" {
		t.Errorf("kept %q, want the opportunity strictly above the threshold", sp.BuyVenue)
	}
}

func TestRank_TiesKeepInputOrder(t *testing.T) {
	opps := []domain.Opportunity{
		spreadOpp("first", "0.01"),
		spreadOpp("second", "0.01"),
		spreadOpp("third", "0.01"),
	}

	got := Rank(opps, decimal.Zero)
	order := []string{"first", "second", "third"}
	for i, want := range order {
		sp := got[i].(domain.SpreadOpportunity)
		if sp.BuyVenue != want {
			t.Errorf("got[%d] = %q, want %q", i, sp.BuyVenue, want)
		}
	}
}

func TestRank_DoesNotModifyInput(t *testing.T) {
	opps := []domain.Opportunity{
		spreadOpp("low", "0.001"),
		spreadOpp("high", "0.02"),
	}

	Rank(opps, decimal.Zero)
	if opps[0].(domain.SpreadOpportunity).BuyVenue != "low" {
		t.Error("input slice was reordered")
	}
}

func TestRank_Empty(t *testing.T) {
	if got := Rank(nil, decimal.Zero); len(got) != 0 {
		t.Errorf("Rank(nil) = %d results, want 0", len(got))
	}
}
