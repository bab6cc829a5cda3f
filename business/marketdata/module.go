// Package marketdata implements the market data bounded context: venue
// connectivity and snapshot assembly.
package marketdata

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/cex-arb/business/marketdata/app"
	"github.com/fd1az/cex-arb/business/marketdata/domain"
	marketDI "github.com/fd1az/cex-arb/business/marketdata/di"
	"github.com/fd1az/cex-arb/business/marketdata/infra/binance"
	"github.com/fd1az/cex-arb/business/marketdata/infra/bitget"
	"github.com/fd1az/cex-arb/business/marketdata/infra/bybit"
	"github.com/fd1az/cex-arb/internal/config"
	"github.com/fd1az/cex-arb/internal/di"
	"github.com/fd1az/cex-arb/internal/logger"
	"github.com/fd1az/cex-arb/internal/monolith"
)

// Module implements the marketdata bounded context.
type Module struct{}

// RegisterServices registers all marketdata services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, marketDI.FeeTable, func(sr di.ServiceRegistry) *domain.FeeTable {
		cfg := sr.Get("config").(*config.Config)
		return buildFeeTable(cfg.Fees)
	})

	di.RegisterToken(c, marketDI.BybitProvider, func(sr di.ServiceRegistry) app.QuoteProvider {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		provider, err := bybit.NewProvider(bybit.Config{
			BaseURL: cfg.Venues.Bybit.BaseURL,
			Timeout: cfg.Venues.Bybit.Timeout,
		}, log)
		if err != nil {
			panic("failed to create bybit provider: " + err.Error())
		}
		return provider
	})

	di.RegisterToken(c, marketDI.BitgetProvider, func(sr di.ServiceRegistry) app.QuoteProvider {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		provider, err := bitget.NewProvider(bitget.Config{
			BaseURL: cfg.Venues.Bitget.BaseURL,
			Timeout: cfg.Venues.Bitget.Timeout,
		}, log)
		if err != nil {
			panic("failed to create bitget provider: " + err.Error())
		}
		return provider
	})

	di.RegisterToken(c, marketDI.BinanceProvider, func(sr di.ServiceRegistry) app.QuoteProvider {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		providerCfg := binance.DefaultProviderConfig(parseSymbols(cfg.Market.Symbols))
		if cfg.Venues.Binance.WebSocketURL != "" {
			providerCfg.WebSocketURL = cfg.Venues.Binance.WebSocketURL
		}
		if cfg.Venues.Binance.BaseURL != "" {
			providerCfg.HTTPURL = cfg.Venues.Binance.BaseURL
		}
		if cfg.Venues.Binance.StaleTimeout > 0 {
			providerCfg.StaleTimeout = cfg.Venues.Binance.StaleTimeout
		}

		provider, err := binance.NewProvider(providerCfg, log)
		if err != nil {
			panic("failed to create binance provider: " + err.Error())
		}
		return provider
	})

	// Snapshot service (public - exposed to other modules)
	di.RegisterToken(c, marketDI.MarketService, func(sr di.ServiceRegistry) *app.Service {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		svc := app.NewService(cfg.Market.MaxQuoteAge, log)
		if cfg.Venues.Bybit.Enabled {
			svc.Register(di.GetToken(sr, marketDI.BybitProvider), cfg.Venues.Bybit.RequestsPerMinute)
		}
		if cfg.Venues.Bitget.Enabled {
			svc.Register(di.GetToken(sr, marketDI.BitgetProvider), cfg.Venues.Bitget.RequestsPerMinute)
		}
		if cfg.Venues.Binance.Enabled {
			// Streaming venue serves from local state, no pacing needed.
			svc.Register(di.GetToken(sr, marketDI.BinanceProvider), 0)
		}
		return svc
	})

	return nil
}

// Startup connects the streaming venue. REST venues need no warm-up.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	if mono.Config().Venues.Binance.Enabled {
		provider := di.GetToken(mono.Services(), marketDI.BinanceProvider)
		if connector, ok := provider.(interface{ Connect(context.Context) error }); ok {
			connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			if err := connector.Connect(connectCtx); err != nil {
				log.Warn(ctx, "binance connection failed, will retry in background", "error", err)
				go retryConnect(ctx, connector, log)
			}
		}
	}

	log.Info(ctx, "marketdata module started")
	return nil
}

func retryConnect(ctx context.Context, connector interface{ Connect(context.Context) error }, log logger.LoggerInterface) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
			if err := connector.Connect(ctx); err != nil {
				log.Warn(ctx, "binance retry failed", "error", err)
				continue
			}
			log.Info(ctx, "binance connected successfully")
			return
		}
	}
}

func buildFeeTable(cfg config.FeesConfig) *domain.FeeTable {
	def := domain.Fees{
		TakerBuy:  decimal.NewFromFloat(cfg.Default.TakerBuy),
		TakerSell: decimal.NewFromFloat(cfg.Default.TakerSell),
	}
	venues := make(map[string]domain.Fees, len(cfg.Venues))
	for venue, fees := range cfg.Venues {
		venues[venue] = domain.Fees{
			TakerBuy:  decimal.NewFromFloat(fees.TakerBuy),
			TakerSell: decimal.NewFromFloat(fees.TakerSell),
		}
	}
	return domain.NewFeeTable(def, venues)
}

func parseSymbols(raw []string) []domain.Symbol {
	symbols := make([]domain.Symbol, 0, len(raw))
	for _, s := range raw {
		// Config validation already rejected malformed symbols.
		symbols = append(symbols, domain.MustParseSymbol(s))
	}
	return symbols
}
