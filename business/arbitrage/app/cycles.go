// Package app contains application services and port definitions for the arbitrage context.
package app

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/cex-arb/business/arbitrage/domain"
)

// CycleEngineConfig bounds the search and sets the profitability estimate.
type CycleEngineConfig struct {
	StartCurrencies []string
	MaxCycleLength  int             // edges, inclusive; cycles shorter than 3 edges are ignored
	PerLegFeePct    decimal.Decimal // flat percent charged per edge
	MinNetRatePct   decimal.Decimal // percent, strict >
}

// CycleEngine searches the currency graph for profitable closed cycles.
type CycleEngine struct {
	cfg CycleEngineConfig
}

// NewCycleEngine creates a CycleEngine.
func NewCycleEngine(cfg CycleEngineConfig) *CycleEngine {
	return &CycleEngine{cfg: cfg}
}

// Search runs a depth-first search from every configured start currency.
// A start currency absent from the graph yields nothing, not an error.
// Results are filtered by net rate but ordered by gross rate descending,
// matching how the estimates are consumed downstream.
func (e *CycleEngine) Search(venue string, g *domain.Graph, now time.Time) []domain.CycleOpportunity {
	if g == nil || g.EdgeCount() == 0 {
		return nil
	}

	var found []domain.CycleOpportunity
	for _, start := range e.cfg.StartCurrencies {
		if !g.HasCurrency(start) {
			continue
		}
		visited := map[string]bool{start: true}
		e.dfs(venue, g, start, start, nil, visited, now, &found)
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].GrossRatePct.GreaterThan(found[j].GrossRatePct)
	})
	return found
}

func (e *CycleEngine) dfs(
	venue string,
	g *domain.Graph,
	start, current string,
	path []domain.Edge,
	visited map[string]bool,
	now time.Time,
	found *[]domain.CycleOpportunity,
) {
	if len(path) >= e.cfg.MaxCycleLength {
		return
	}
	for _, edge := range g.Neighbors(current) {
		if edge.To == start {
			if len(path)+1 >= 3 {
				if opp, ok := e.evaluate(venue, append(path, edge), now); ok {
					*found = append(*found, opp)
				}
			}
			continue
		}
		if visited[edge.To] {
			continue
		}
		visited[edge.To] = true
		e.dfs(venue, g, start, edge.To, append(path, edge), visited, now, found)
		delete(visited, edge.To)
	}
}

// evaluate prices a closed cycle. The conversion ratio multiplies 1/price for
// buys and price for sells; fees are a flat per-leg estimate.
func (e *CycleEngine) evaluate(venue string, cycle []domain.Edge, now time.Time) (domain.CycleOpportunity, bool) {
	one := decimal.NewFromInt(1)
	hundred := decimal.NewFromInt(100)

	ratio := one
	path := make([]string, 0, len(cycle)+1)
	legs := make([]domain.CycleLeg, 0, len(cycle))
	for _, edge := range cycle {
		if edge.Action == domain.ActionBuy {
			ratio = ratio.Div(edge.Price)
		} else {
			ratio = ratio.Mul(edge.Price)
		}
		path = append(path, edge.From)
		legs = append(legs, domain.CycleLeg{
			From:   edge.From,
			To:     edge.To,
			Symbol: edge.Symbol,
			Action: edge.Action,
			Price:  edge.Price,
		})
	}
	path = append(path, cycle[len(cycle)-1].To)

	gross := ratio.Sub(one).Mul(hundred)
	feeEstimate := e.cfg.PerLegFeePct.Mul(decimal.NewFromInt(int64(len(cycle))))
	net := gross.Sub(feeEstimate)

	if !net.GreaterThan(e.cfg.MinNetRatePct) {
		return domain.CycleOpportunity{}, false
	}

	return domain.CycleOpportunity{
		Timestamp:      now,
		Venue:          venue,
		Path:           path,
		Legs:           legs,
		GrossRatePct:   gross,
		FeeEstimatePct: feeEstimate,
		NetRatePct:     net,
	}, true
}
