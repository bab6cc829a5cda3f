// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Market    MarketConfig    `mapstructure:"market"`
	Venues    VenuesConfig    `mapstructure:"venues"`
	Fees      FeesConfig      `mapstructure:"fees"`
	Spread    SpreadConfig    `mapstructure:"spread"`
	Cycles    CyclesConfig    `mapstructure:"cycles"`
	Simulator SimulatorConfig `mapstructure:"simulator"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// MarketConfig holds symbol universe and snapshot policy.
type MarketConfig struct {
	Symbols      []string      `mapstructure:"symbols"` // "BTC/USDT" form
	MaxQuoteAge  time.Duration `mapstructure:"max_quote_age"`
	ScanInterval time.Duration `mapstructure:"scan_interval"`
	TUIMode      bool          `mapstructure:"-"` // Set at runtime, not from config file
}

// VenuesConfig holds per-venue connectivity settings.
type VenuesConfig struct {
	Bybit   RESTVenueConfig `mapstructure:"bybit"`
	Bitget  RESTVenueConfig `mapstructure:"bitget"`
	Binance BinanceConfig   `mapstructure:"binance"`
}

// RESTVenueConfig holds settings for a polled REST venue.
type RESTVenueConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// BinanceConfig holds the streaming venue settings.
type BinanceConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	WebSocketURL string        `mapstructure:"websocket_url"` // wss://stream.binance.com:9443
	BaseURL      string        `mapstructure:"base_url"`
	StaleTimeout time.Duration `mapstructure:"stale_timeout"`
}

// FeesConfig holds per-venue taker fees as fractions (0.001 = 0.1%).
type FeesConfig struct {
	Default VenueFees            `mapstructure:"default"`
	Venues  map[string]VenueFees `mapstructure:"venues"`
}

// VenueFees holds taker fees for one venue.
type VenueFees struct {
	TakerBuy  float64 `mapstructure:"taker_buy"`
	TakerSell float64 `mapstructure:"taker_sell"`
}

// SpreadConfig holds cross-venue spread analysis settings.
type SpreadConfig struct {
	MinProfitRate float64 `mapstructure:"min_profit_rate"` // fraction, strict >
	MaxNotional   float64 `mapstructure:"max_notional"`    // quote currency
}

// CyclesConfig holds triangular cycle search settings.
type CyclesConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	StartCurrencies []string `mapstructure:"start_currencies"`
	MaxCycleLength  int      `mapstructure:"max_cycle_length"` // edges, inclusive
	PerLegFeePct    float64  `mapstructure:"per_leg_fee_pct"`  // percent per edge
	MinNetRatePct   float64  `mapstructure:"min_net_rate_pct"` // percent, strict >
}

// SimulatorConfig holds paper-trading settings.
type SimulatorConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	InitialBalance float64 `mapstructure:"initial_balance"`
	Slippage       float64 `mapstructure:"slippage"` // fraction
	MaxDailyTrades int     `mapstructure:"max_daily_trades"`
	MaxNotional    float64 `mapstructure:"max_notional"`
}

// TelegramConfig holds notification settings.
type TelegramConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	BotToken      string        `mapstructure:"bot_token"`
	ChatID        string        `mapstructure:"chat_id"`
	MinProfitRate float64       `mapstructure:"min_profit_rate"`
	Cooldown      time.Duration `mapstructure:"cooldown"`
}

// StorageConfig holds the trade ledger settings. Empty DSN disables persistence.
type StorageConfig struct {
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// RedisConfig holds the opportunity publisher settings. Empty addr disables it.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// MinProfitRateDecimal returns the spread threshold as decimal.Decimal.
func (c *SpreadConfig) MinProfitRateDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinProfitRate)
}

// MaxNotionalDecimal returns the notional cap as decimal.Decimal.
func (c *SpreadConfig) MaxNotionalDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MaxNotional)
}

// PerLegFeePctDecimal returns the flat per-edge fee estimate as decimal.Decimal.
func (c *CyclesConfig) PerLegFeePctDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.PerLegFeePct)
}

// MinNetRatePctDecimal returns the cycle threshold as decimal.Decimal.
func (c *CyclesConfig) MinNetRatePctDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinNetRatePct)
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("CEXARB")
	v.AutomaticEnv()

	// Bind env vars to config keys
	bindEnvVars(v)

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "CEXARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "CEXARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "CEXARB_LOG_LEVEL", "LOG_LEVEL")

	// Market
	v.BindEnv("market.symbols", "CEXARB_SYMBOLS")
	v.BindEnv("market.scan_interval", "CEXARB_SCAN_INTERVAL")

	// Venues
	v.BindEnv("venues.binance.websocket_url", "CEXARB_BINANCE_WS_URL", "BINANCE_WS_URL")
	v.BindEnv("venues.binance.base_url", "CEXARB_BINANCE_BASE_URL")
	v.BindEnv("venues.bybit.base_url", "CEXARB_BYBIT_BASE_URL")
	v.BindEnv("venues.bitget.base_url", "CEXARB_BITGET_BASE_URL")

	// Thresholds
	v.BindEnv("spread.min_profit_rate", "CEXARB_MIN_PROFIT_RATE")
	v.BindEnv("cycles.min_net_rate_pct", "CEXARB_MIN_NET_RATE_PCT")

	// Telegram
	v.BindEnv("telegram.bot_token", "CEXARB_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("telegram.chat_id", "CEXARB_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID")

	// Storage
	v.BindEnv("storage.postgres_dsn", "CEXARB_POSTGRES_DSN", "DATABASE_URL")
	v.BindEnv("redis.addr", "CEXARB_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("redis.password", "CEXARB_REDIS_PASSWORD", "REDIS_PASSWORD")

	// Telemetry
	v.BindEnv("telemetry.enabled", "CEXARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "CEXARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "CEXARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "cex-arb")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Market defaults
	v.SetDefault("market.symbols", []string{"BTC/USDT", "ETH/USDT", "ETH/BTC"})
	v.SetDefault("market.max_quote_age", "5s")
	v.SetDefault("market.scan_interval", "3s")

	// Venue defaults
	v.SetDefault("venues.bybit.enabled", true)
	v.SetDefault("venues.bybit.base_url", "https://api.bybit.com")
	v.SetDefault("venues.bybit.timeout", "5s")
	v.SetDefault("venues.bybit.requests_per_minute", 120)
	v.SetDefault("venues.bitget.enabled", true)
	v.SetDefault("venues.bitget.base_url", "https://api.bitget.com")
	v.SetDefault("venues.bitget.timeout", "5s")
	v.SetDefault("venues.bitget.requests_per_minute", 120)
	v.SetDefault("venues.binance.enabled", true)
	v.SetDefault("venues.binance.websocket_url", "wss://stream.binance.com:9443")
	v.SetDefault("venues.binance.base_url", "https://api.binance.com")
	v.SetDefault("venues.binance.stale_timeout", "5s")

	// Fee defaults (taker, fraction)
	v.SetDefault("fees.default.taker_buy", 0.001)
	v.SetDefault("fees.default.taker_sell", 0.001)

	// Spread defaults
	v.SetDefault("spread.min_profit_rate", 0.001)
	v.SetDefault("spread.max_notional", 100)

	// Cycle defaults
	v.SetDefault("cycles.enabled", true)
	v.SetDefault("cycles.start_currencies", []string{"USDT"})
	v.SetDefault("cycles.max_cycle_length", 4)
	v.SetDefault("cycles.per_leg_fee_pct", 0.1)
	v.SetDefault("cycles.min_net_rate_pct", 0.1)

	// Simulator defaults
	v.SetDefault("simulator.enabled", true)
	v.SetDefault("simulator.initial_balance", 1000)
	v.SetDefault("simulator.slippage", 0.0005)
	v.SetDefault("simulator.max_daily_trades", 20)
	v.SetDefault("simulator.max_notional", 100)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.min_profit_rate", 0.002)
	v.SetDefault("telegram.cooldown", "1m")

	// Redis defaults
	v.SetDefault("redis.channel", "cexarb:opportunities")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "cex-arb")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration. Failures here are fatal at startup.
func (c *Config) Validate() error {
	if len(c.Market.Symbols) == 0 {
		return fmt.Errorf("market.symbols cannot be empty")
	}
	for _, s := range c.Market.Symbols {
		if !strings.Contains(s, "/") {
			return fmt.Errorf("invalid symbol %q, want BASE/QUOTE", s)
		}
	}
	if c.Market.ScanInterval <= 0 {
		return fmt.Errorf("market.scan_interval must be positive")
	}
	if c.Market.MaxQuoteAge <= 0 {
		return fmt.Errorf("market.max_quote_age must be positive")
	}
	if c.Spread.MinProfitRate < 0 {
		return fmt.Errorf("spread.min_profit_rate cannot be negative")
	}
	if c.Spread.MaxNotional <= 0 {
		return fmt.Errorf("spread.max_notional must be positive")
	}
	if c.Cycles.Enabled {
		if c.Cycles.MaxCycleLength < 3 {
			return fmt.Errorf("cycles.max_cycle_length must be at least 3")
		}
		if len(c.Cycles.StartCurrencies) == 0 {
			return fmt.Errorf("cycles.start_currencies cannot be empty")
		}
		if c.Cycles.PerLegFeePct < 0 {
			return fmt.Errorf("cycles.per_leg_fee_pct cannot be negative")
		}
	}
	if c.Simulator.Enabled {
		if c.Simulator.InitialBalance <= 0 {
			return fmt.Errorf("simulator.initial_balance must be positive")
		}
		if c.Simulator.MaxDailyTrades <= 0 {
			return fmt.Errorf("simulator.max_daily_trades must be positive")
		}
		if c.Simulator.Slippage < 0 || c.Simulator.Slippage >= 1 {
			return fmt.Errorf("simulator.slippage must be in [0, 1)")
		}
	}
	if c.Fees.Default.TakerBuy < 0 || c.Fees.Default.TakerSell < 0 {
		return fmt.Errorf("fees cannot be negative")
	}
	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id are required when telegram is enabled")
	}
	if !c.Venues.Bybit.Enabled && !c.Venues.Bitget.Enabled && !c.Venues.Binance.Enabled {
		return fmt.Errorf("at least one venue must be enabled")
	}
	return nil
}
