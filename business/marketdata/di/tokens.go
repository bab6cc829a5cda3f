// Package di contains dependency injection tokens for the marketdata context.
package di

import (
	"github.com/fd1az/cex-arb/business/marketdata/app"
	"github.com/fd1az/cex-arb/business/marketdata/domain"
	"github.com/fd1az/cex-arb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	MarketService = di.NewToken[*app.Service]("marketdata.Service")
	FeeTable      = di.NewToken[*domain.FeeTable]("marketdata.FeeTable")
)

// Private dependency tokens - internal to marketdata module
var (
	BybitProvider   = di.NewToken[app.QuoteProvider]("marketdata:bybitProvider")
	BitgetProvider  = di.NewToken[app.QuoteProvider]("marketdata:bitgetProvider")
	BinanceProvider = di.NewToken[app.QuoteProvider]("marketdata:binanceProvider")
)

// Helper functions for type-safe access
func GetMarketService(c di.ServiceRegistry) *app.Service {
	return di.GetToken(c, MarketService)
}

func GetFeeTable(c di.ServiceRegistry) *domain.FeeTable {
	return di.GetToken(c, FeeTable)
}
