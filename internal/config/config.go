// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	CoinAPI   CoinAPIConfig   `mapstructure:"coinapi"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Health    HealthConfig    `mapstructure:"health"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	TUIMode     bool   `mapstructure:"-"` // set at runtime from flags
}

// EngineConfig drives the detection loop.
type EngineConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	StartVenue   string        `mapstructure:"start_venue"`
	MinReturnBps float64       `mapstructure:"min_return_bps"`
	TradeAmount  float64       `mapstructure:"trade_amount"`
	Execute      bool          `mapstructure:"execute"`
}

// TradeAmountDecimal returns the notional traded around a cycle.
func (c *EngineConfig) TradeAmountDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.TradeAmount)
}

// PricingConfig selects the rate provider and the venues quoted.
type PricingConfig struct {
	Provider    string        `mapstructure:"provider"`
	Base        string        `mapstructure:"base"`
	Quote       string        `mapstructure:"quote"`
	Venues      []VenueConfig `mapstructure:"venues"`
	CacheMaxAge time.Duration `mapstructure:"cache_max_age"`
}

// VenueConfig describes one venue's fee schedule. StaticRate is only read by
// the static provider.
type VenueConfig struct {
	ID            string  `mapstructure:"id"`
	TradingFeePct float64 `mapstructure:"trading_fee_pct"`
	WithdrawalFee float64 `mapstructure:"withdrawal_fee"`
	StaticRate    float64 `mapstructure:"static_rate"`
}

// VenueIDs returns the configured venue identifiers in config order.
func (c *PricingConfig) VenueIDs() []string {
	ids := make([]string, len(c.Venues))
	for i, v := range c.Venues {
		ids[i] = v.ID
	}
	return ids
}

// CoinAPIConfig holds CoinAPI REST settings.
type CoinAPIConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// RedisConfig holds the latest-rate cache settings.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// PostgresConfig holds the opportunity journal settings.
type PostgresConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
	TraceProvider  string `mapstructure:"trace_provider"`
}

// HealthConfig holds the health server settings.
type HealthConfig struct {
	Port int `mapstructure:"port"`
}

// Load loads configuration from .env, file and environment variables.
func Load(configPath string) (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("ARB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
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

func bindEnvVars(v *viper.Viper) error {
	bindings := map[string][]string{
		"app.name":        {"ARB_APP_NAME", "SERVICE_NAME"},
		"app.environment": {"ARB_ENVIRONMENT", "ENVIRONMENT"},
		"app.log_level":   {"ARB_LOG_LEVEL", "LOG_LEVEL"},

		"engine.poll_interval":  {"ARB_POLL_INTERVAL"},
		"engine.start_venue":    {"ARB_START_VENUE"},
		"engine.min_return_bps": {"ARB_MIN_RETURN_BPS"},
		"engine.execute":        {"ARB_EXECUTE"},

		"pricing.provider": {"ARB_PRICING_PROVIDER"},
		"pricing.base":     {"ARB_PRICING_BASE"},
		"pricing.quote":    {"ARB_PRICING_QUOTE"},

		"coinapi.base_url": {"ARB_COINAPI_URL", "COINAPI_URL"},
		"coinapi.api_key":  {"ARB_COINAPI_KEY", "COINAPI_KEY"},

		"redis.enabled":  {"ARB_REDIS_ENABLED"},
		"redis.addr":     {"ARB_REDIS_ADDR", "REDIS_ADDR"},
		"redis.password": {"ARB_REDIS_PASSWORD", "REDIS_PASSWORD"},

		"postgres.enabled": {"ARB_POSTGRES_ENABLED"},
		"postgres.dsn":     {"ARB_POSTGRES_DSN", "DATABASE_URL"},

		"telemetry.enabled":        {"ARB_OTEL_ENABLED", "OTEL_ENABLED"},
		"telemetry.service_name":   {"ARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME"},
		"telemetry.otlp_endpoint":  {"ARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"},
		"telemetry.trace_provider": {"ARB_TRACE_PROVIDER"},

		"health.port": {"ARB_HEALTH_PORT"},
	}

	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return err
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "cycle-arb")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("engine.poll_interval", "10s")
	v.SetDefault("engine.fetch_timeout", "5s")
	v.SetDefault("engine.min_return_bps", 0)
	v.SetDefault("engine.trade_amount", 1)
	v.SetDefault("engine.execute", false)

	v.SetDefault("pricing.provider", "coinapi")
	v.SetDefault("pricing.base", "BTC")
	v.SetDefault("pricing.quote", "USD")
	v.SetDefault("pricing.venues", []map[string]any{
		{"id": "BITSTAMP", "trading_fee_pct": 0.40, "withdrawal_fee": 0},
		{"id": "COINBASE", "trading_fee_pct": 0.60, "withdrawal_fee": 0},
		{"id": "KRAKEN", "trading_fee_pct": 0.26, "withdrawal_fee": 0},
	})
	v.SetDefault("pricing.cache_max_age", "0s")

	v.SetDefault("coinapi.base_url", "https://rest.coinapi.io")
	v.SetDefault("coinapi.requests_per_minute", 100)
	v.SetDefault("coinapi.timeout", "5s")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.ttl", "5m")

	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.max_conns", 4)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "cycle-arb")
	v.SetDefault("telemetry.prometheus_port", 9090)
	v.SetDefault("telemetry.trace_provider", "empty")

	v.SetDefault("health.port", 8081)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Engine.PollInterval <= 0 {
		return fmt.Errorf("engine.poll_interval must be positive")
	}
	if c.Engine.TradeAmount < 0 {
		return fmt.Errorf("engine.trade_amount cannot be negative")
	}
	if len(c.Pricing.Venues) == 0 {
		return fmt.Errorf("pricing.venues cannot be empty")
	}

	seen := make(map[string]bool, len(c.Pricing.Venues))
	for i, v := range c.Pricing.Venues {
		if strings.TrimSpace(v.ID) == "" {
			return fmt.Errorf("pricing.venues[%d].id is required", i)
		}
		if seen[v.ID] {
			return fmt.Errorf("duplicate venue id: %s", v.ID)
		}
		seen[v.ID] = true
		if v.TradingFeePct < 0 || v.WithdrawalFee < 0 {
			return fmt.Errorf("venue %s: fees cannot be negative", v.ID)
		}
	}

	switch c.Pricing.Provider {
	case "coinapi":
		if c.CoinAPI.APIKey == "" {
			return fmt.Errorf("coinapi.api_key is required when pricing.provider=coinapi")
		}
	case "static":
	default:
		return fmt.Errorf("unknown pricing.provider: %q", c.Pricing.Provider)
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	if c.Postgres.Enabled && c.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required when postgres is enabled")
	}
	return nil
}
