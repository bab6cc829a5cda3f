// Package domain contains the core domain types for the arbitrage context.
package domain

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	marketDomain "github.com/fd1az/cex-arb/business/marketdata/domain"
)

// Action is the trade action attached to a graph edge.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Edge is a directed conversion between two currencies.
// Weight is -ln(rate); a negative-weight cycle is a profitable loop.
type Edge struct {
	From   string
	To     string
	Symbol marketDomain.Symbol
	Action Action
	Price  decimal.Decimal // ask for buys, bid for sells
	Weight float64
}

// Rate returns the conversion rate this edge applies to one unit of From.
func (e Edge) Rate() decimal.Decimal {
	if e.Action == ActionBuy {
		return decimal.NewFromInt(1).Div(e.Price)
	}
	return e.Price
}

// Graph is a directed currency graph rebuilt from scratch every round.
type Graph struct {
	adj   map[string][]Edge
	edges int
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{adj: make(map[string][]Edge)}
}

// AddQuote adds the two edges a quote induces:
// QUOTE->BASE buying at the ask, BASE->QUOTE selling at the bid.
// Quotes with a non-positive side contribute no edge for that side.
func (g *Graph) AddQuote(sym marketDomain.Symbol, bid, ask decimal.Decimal) {
	if ask.IsPositive() {
		askF, _ := ask.Float64()
		g.addEdge(Edge{
			From:   sym.Quote,
			To:     sym.Base,
			Symbol: sym,
			Action: ActionBuy,
			Price:  ask,
			Weight: math.Log(askF), // -ln(1/ask)
		})
	}
	if bid.IsPositive() {
		bidF, _ := bid.Float64()
		g.addEdge(Edge{
			From:   sym.Base,
			To:     sym.Quote,
			Symbol: sym,
			Action: ActionSell,
			Price:  bid,
			Weight: -math.Log(bidF),
		})
	}
}

func (g *Graph) addEdge(e Edge) {
	g.adj[e.From] = append(g.adj[e.From], e)
	g.edges++
}

// Neighbors returns the outgoing edges from a currency. May be nil.
func (g *Graph) Neighbors(currency string) []Edge {
	return g.adj[currency]
}

// HasCurrency reports whether a currency has any outgoing edge.
func (g *Graph) HasCurrency(currency string) bool {
	return len(g.adj[currency]) > 0
}

// Currencies returns the sorted currencies with outgoing edges.
func (g *Graph) Currencies() []string {
	out := make([]string, 0, len(g.adj))
	for c := range g.adj {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// EdgeCount returns the total number of edges.
func (g *Graph) EdgeCount() int {
	return g.edges
}
