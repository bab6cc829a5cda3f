// Package app contains application services and port definitions for the arbitrage context.
package app

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/cex-arb/business/arbitrage/domain"
	marketDomain "github.com/fd1az/cex-arb/business/marketdata/domain"
)

// SpreadAnalyzer finds cross-venue spreads worth more than the threshold.
type SpreadAnalyzer struct {
	fees          *marketDomain.FeeTable
	minProfitRate decimal.Decimal // fraction, strict >
	maxNotional   decimal.Decimal // in quote currency
}

// NewSpreadAnalyzer creates a SpreadAnalyzer.
func NewSpreadAnalyzer(fees *marketDomain.FeeTable, minProfitRate, maxNotional decimal.Decimal) *SpreadAnalyzer {
	return &SpreadAnalyzer{
		fees:          fees,
		minProfitRate: minProfitRate,
		maxNotional:   maxNotional,
	}
}

// Analyze evaluates every symbol and every ordered venue pair in the snapshot.
// Both directions of a pair are independent opportunities. Missing or invalid
// quotes silently skip the pair; an empty snapshot yields an empty slice.
func (a *SpreadAnalyzer) Analyze(snap *marketDomain.Snapshot) []domain.SpreadOpportunity {
	if snap == nil || snap.IsEmpty() {
		return nil
	}

	var opps []domain.SpreadOpportunity
	for _, sym := range snap.Symbols() {
		byVenue := snap.BySymbol(sym)
		if len(byVenue) < 2 {
			continue
		}
		venues := sortedVenues(byVenue)
		for _, buyVenue := range venues {
			for _, sellVenue := range venues {
				if buyVenue == sellVenue {
					continue
				}
				if opp, ok := a.evaluate(byVenue[buyVenue], byVenue[sellVenue], snap.Taken); ok {
					opps = append(opps, opp)
				}
			}
		}
	}
	return opps
}

// evaluate prices buying at buy.Ask and selling at sell.Bid with taker fees.
func (a *SpreadAnalyzer) evaluate(buy, sell marketDomain.Quote, taken time.Time) (domain.SpreadOpportunity, bool) {
	if buy.Validate() != nil || sell.Validate() != nil {
		return domain.SpreadOpportunity{}, false
	}
	if !buy.AskQty.IsPositive() || !sell.BidQty.IsPositive() {
		return domain.SpreadOpportunity{}, false
	}

	one := decimal.NewFromInt(1)
	buyFees := a.fees.For(buy.Venue)
	sellFees := a.fees.For(sell.Venue)

	buyCost := buy.Ask.Mul(one.Add(buyFees.TakerBuy))
	sellRevenue := sell.Bid.Mul(one.Sub(sellFees.TakerSell))
	profitRate := sellRevenue.Sub(buyCost).Div(buyCost)

	if !profitRate.GreaterThan(a.minProfitRate) {
		return domain.SpreadOpportunity{}, false
	}

	maxQty := a.maxNotional.Div(buy.Ask)
	if buy.AskQty.LessThan(maxQty) {
		maxQty = buy.AskQty
	}
	if sell.BidQty.LessThan(maxQty) {
		maxQty = sell.BidQty
	}

	return domain.SpreadOpportunity{
		Timestamp:   taken,
		Symbol:      buy.Symbol,
		BuyVenue:    buy.Venue,
		SellVenue:   sell.Venue,
		BuyPrice:    buy.Ask,
		SellPrice:   sell.Bid,
		ProfitRate:  profitRate,
		MaxQuantity: maxQty,
	}, true
}

// sortedVenues keeps round output deterministic.
func sortedVenues(byVenue map[string]marketDomain.Quote) []string {
	venues := make([]string, 0, len(byVenue))
	for venue := range byVenue {
		venues = append(venues, venue)
	}
	sort.Strings(venues)
	return venues
}
