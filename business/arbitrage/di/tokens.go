// Package di contains dependency injection tokens for the arbitrage context.
package di

import (
	"github.com/fd1az/cex-arb/business/arbitrage/app"
	"github.com/fd1az/cex-arb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Detector = di.NewToken[*app.Detector]("arbitrage.Detector")
)

// Private dependency tokens - internal to arbitrage module
var (
	SpreadAnalyzer = di.NewToken[*app.SpreadAnalyzer]("arbitrage:spreadAnalyzer")
	CycleEngine    = di.NewToken[*app.CycleEngine]("arbitrage:cycleEngine")
	Simulator      = di.NewToken[*app.Simulator]("arbitrage:simulator")
)

// Helper functions for type-safe access
func GetDetector(c di.ServiceRegistry) *app.Detector {
	return di.GetToken(c, Detector)
}

func GetSimulator(c di.ServiceRegistry) *app.Simulator {
	return di.GetToken(c, Simulator)
}
