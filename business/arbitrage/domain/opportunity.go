// Package domain contains the core domain types for the arbitrage context.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	marketDomain "github.com/fd1az/cex-arb/business/marketdata/domain"
)

// Kind discriminates opportunity types.
type Kind string

const (
	KindSpread Kind = "spread"
	KindCycle  Kind = "cycle"
)

// Opportunity is anything the ranker can order by net profitability.
// NetProfitRate is a fraction: 0.002 means 0.2%.
type Opportunity interface {
	Kind() Kind
	NetProfitRate() decimal.Decimal
	Describe() string
}

// SpreadOpportunity is a buy-on-A, sell-on-B opportunity for one symbol.
type SpreadOpportunity struct {
	Timestamp   time.Time
	Symbol      marketDomain.Symbol
	BuyVenue    string
	SellVenue   string
	BuyPrice    decimal.Decimal // ask on the buy venue
	SellPrice   decimal.Decimal // bid on the sell venue
	ProfitRate  decimal.Decimal // net fraction after taker fees
	MaxQuantity decimal.Decimal // bounded by top-of-book depth and notional cap
}

func (o SpreadOpportunity) Kind() Kind { return KindSpread }

func (o SpreadOpportunity) NetProfitRate() decimal.Decimal { return o.ProfitRate }

// Direction returns "buyVenue->sellVenue".
func (o SpreadOpportunity) Direction() string {
	return o.BuyVenue + "->" + o.SellVenue
}

func (o SpreadOpportunity) Describe() string {
	return fmt.Sprintf("%s %s buy@%s sell@%s net %s%%",
		o.Symbol, o.Direction(), o.BuyPrice, o.SellPrice,
		o.ProfitRate.Mul(decimal.NewFromInt(100)).Round(4))
}

// CycleLeg is one conversion inside a cycle.
type CycleLeg struct {
	From   string
	To     string
	Symbol marketDomain.Symbol
	Action Action
	Price  decimal.Decimal
}

// CycleOpportunity is a closed currency cycle on a single venue.
// Rates are percentages: GrossRatePct 1.5 means 1.5%.
type CycleOpportunity struct {
	Timestamp      time.Time
	Venue          string
	Path           []string // currencies, first == last
	Legs           []CycleLeg
	GrossRatePct   decimal.Decimal
	FeeEstimatePct decimal.Decimal
	NetRatePct     decimal.Decimal
}

func (o CycleOpportunity) Kind() Kind { return KindCycle }

func (o CycleOpportunity) NetProfitRate() decimal.Decimal {
	return o.NetRatePct.Div(decimal.NewFromInt(100))
}

// Length returns the number of legs (edges) in the cycle.
func (o CycleOpportunity) Length() int {
	return len(o.Legs)
}

func (o CycleOpportunity) Describe() string {
	return fmt.Sprintf("%s cycle %s gross %s%% net %s%%",
		o.Venue, strings.Join(o.Path, "->"),
		o.GrossRatePct.Round(4), o.NetRatePct.Round(4))
}
