// Package arbitrage implements the arbitrage bounded context for opportunity detection.
package arbitrage

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fd1az/cex-arb/business/arbitrage/app"
	arbitrageDI "github.com/fd1az/cex-arb/business/arbitrage/di"
	"github.com/fd1az/cex-arb/business/arbitrage/infra"
	marketDI "github.com/fd1az/cex-arb/business/marketdata/di"
	marketDomain "github.com/fd1az/cex-arb/business/marketdata/domain"
	"github.com/fd1az/cex-arb/internal/config"
	"github.com/fd1az/cex-arb/internal/di"
	"github.com/fd1az/cex-arb/internal/logger"
	"github.com/fd1az/cex-arb/internal/monolith"
)

// Module implements the arbitrage bounded context. It holds the optional
// adapters created during Startup so Close can release them.
type Module struct {
	ledger    *infra.PostgresLedger
	publisher *infra.RedisPublisher
}

// RegisterServices registers all arbitrage services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, arbitrageDI.SpreadAnalyzer, func(sr di.ServiceRegistry) *app.SpreadAnalyzer {
		cfg := sr.Get("config").(*config.Config)
		fees := marketDI.GetFeeTable(sr)
		return app.NewSpreadAnalyzer(fees,
			cfg.Spread.MinProfitRateDecimal(),
			cfg.Spread.MaxNotionalDecimal())
	})

	di.RegisterToken(c, arbitrageDI.CycleEngine, func(sr di.ServiceRegistry) *app.CycleEngine {
		cfg := sr.Get("config").(*config.Config)
		return app.NewCycleEngine(app.CycleEngineConfig{
			StartCurrencies: cfg.Cycles.StartCurrencies,
			MaxCycleLength:  cfg.Cycles.MaxCycleLength,
			PerLegFeePct:    cfg.Cycles.PerLegFeePctDecimal(),
			MinNetRatePct:   cfg.Cycles.MinNetRatePctDecimal(),
		})
	})

	di.RegisterToken(c, arbitrageDI.Simulator, func(sr di.ServiceRegistry) *app.Simulator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		fees := marketDI.GetFeeTable(sr)
		return app.NewSimulator(
			decimal.NewFromFloat(cfg.Simulator.InitialBalance),
			fees,
			app.SimulatorConfig{
				Slippage:       decimal.NewFromFloat(cfg.Simulator.Slippage),
				MaxDailyTrades: cfg.Simulator.MaxDailyTrades,
				MaxNotional:    decimal.NewFromFloat(cfg.Simulator.MaxNotional),
			},
			log)
	})

	// Detector (public - exposed to main)
	di.RegisterToken(c, arbitrageDI.Detector, func(sr di.ServiceRegistry) *app.Detector {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		detector, err := app.NewDetector(
			marketDI.GetMarketService(sr),
			di.GetToken(sr, arbitrageDI.SpreadAnalyzer),
			di.GetToken(sr, arbitrageDI.CycleEngine),
			di.GetToken(sr, arbitrageDI.Simulator),
			app.DetectorConfig{
				Symbols:          parseSymbols(cfg.Market.Symbols),
				Interval:         cfg.Market.ScanInterval,
				RankThreshold:    cfg.Spread.MinProfitRateDecimal(),
				CyclesEnabled:    cfg.Cycles.Enabled,
				SimulatorEnabled: cfg.Simulator.Enabled,
			},
			log)
		if err != nil {
			panic("failed to create detector: " + err.Error())
		}

		if cfg.Market.TUIMode {
			detector.AddReporter(infra.NewTUIReporter())
		} else {
			detector.AddReporter(infra.NewConsoleReporter())
		}
		return detector
	})

	return nil
}

// Startup wires the optional adapters: trade ledger, opportunity
// publisher, and alerter. Each is independent; a failure disables that
// adapter and the detector runs without it.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	log := mono.Logger()
	detector := arbitrageDI.GetDetector(mono.Services())

	if dsn := cfg.Storage.PostgresDSN; dsn != "" {
		ledger, err := infra.NewPostgresLedger(ctx, dsn, log)
		if err != nil {
			log.Warn(ctx, "trade ledger unavailable, persistence disabled", "error", err)
		} else {
			m.ledger = ledger
			detector.SetLedger(ledger)
			log.Info(ctx, "trade ledger connected")
			m.seedTradeHistory(ctx, mono, ledger)
		}
	}

	if addr := cfg.Redis.Addr; addr != "" {
		publisher, err := infra.NewRedisPublisher(ctx, infra.RedisConfig{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, log)
		if err != nil {
			log.Warn(ctx, "redis unavailable, publishing disabled", "error", err)
		} else {
			m.publisher = publisher
			detector.SetPublisher(publisher)
			log.Info(ctx, "opportunity publisher connected", "addr", addr)
		}
	}

	if cfg.Telegram.Enabled {
		detector.SetAlerter(infra.NewTelegramAlerter(
			cfg.Telegram.BotToken,
			cfg.Telegram.ChatID,
			decimal.NewFromFloat(cfg.Telegram.MinProfitRate),
			cfg.Telegram.Cooldown,
			log))
		log.Info(ctx, "telegram alerts enabled")
	}

	log.Info(ctx, "arbitrage module started")
	return nil
}

// historySeedLimit bounds how many persisted trades are loaded back into
// the account history on startup.
const historySeedLimit = 50

// seedTradeHistory replays persisted trades into the simulator's account
// history so a restart keeps its trade feed. Failure only costs the seed.
func (m *Module) seedTradeHistory(ctx context.Context, mono monolith.Monolith, ledger *infra.PostgresLedger) {
	log := mono.Logger()

	recent, err := ledger.RecentTrades(ctx, historySeedLimit)
	if err != nil {
		log.Warn(ctx, "could not load persisted trades", "error", err)
		return
	}
	if len(recent) == 0 {
		return
	}

	// RecentTrades returns newest first; the history is kept oldest first.
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	arbitrageDI.GetSimulator(mono.Services()).SeedHistory(recent)
	log.Info(ctx, "trade history seeded", "count", len(recent))
}

func parseSymbols(raw []string) []marketDomain.Symbol {
	symbols := make([]marketDomain.Symbol, 0, len(raw))
	for _, s := range raw {
		// Config validation already rejected malformed symbols.
		symbols = append(symbols, marketDomain.MustParseSymbol(s))
	}
	return symbols
}

// Close releases the adapters created during Startup.
func (m *Module) Close() {
	if m.ledger != nil {
		m.ledger.Close()
	}
	if m.publisher != nil {
		_ = m.publisher.Close()
	}
}
