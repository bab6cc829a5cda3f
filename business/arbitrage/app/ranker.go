// Package app contains application services and port definitions for the arbitrage context.
package app

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/fd1az/cex-arb/business/arbitrage/domain"
)

// Rank filters opportunities strictly above the threshold and stable-sorts
// them by net profit rate descending. Ties keep their input order, so
// upstream determinism carries through. The input slice is not modified.
func Rank(opps []domain.Opportunity, minNetProfitRate decimal.Decimal) []domain.Opportunity {
	ranked := make([]domain.Opportunity, 0, len(opps))
	for _, opp := range opps {
		if opp.NetProfitRate().GreaterThan(minNetProfitRate) {
			ranked = append(ranked, opp)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].NetProfitRate().GreaterThan(ranked[j].NetProfitRate())
	})
	return ranked
}
