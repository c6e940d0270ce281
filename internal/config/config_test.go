package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Engine: EngineConfig{PollInterval: time.Second, TradeAmount: 1},
		Pricing: PricingConfig{
			Provider: "static",
			Venues: []VenueConfig{
				{ID: "A", TradingFeePct: 0.1, StaticRate: 100},
				{ID: "B", TradingFeePct: 0.2, StaticRate: 101},
			},
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "zero_poll_interval",
			mutate:  func(c *Config) { c.Engine.PollInterval = 0 },
			wantErr: "poll_interval",
		},
		{
			name:    "no_venues",
			mutate:  func(c *Config) { c.Pricing.Venues = nil },
			wantErr: "venues cannot be empty",
		},
		{
			name:    "duplicate_venue",
			mutate:  func(c *Config) { c.Pricing.Venues[1].ID = "A" },
			wantErr: "duplicate venue",
		},
		{
			name:    "empty_venue_id",
			mutate:  func(c *Config) { c.Pricing.Venues[0].ID = " " },
			wantErr: "id is required",
		},
		{
			name:    "negative_fee",
			mutate:  func(c *Config) { c.Pricing.Venues[0].WithdrawalFee = -1 },
			wantErr: "fees cannot be negative",
		},
		{
			name:    "coinapi_without_key",
			mutate:  func(c *Config) { c.Pricing.Provider = "coinapi" },
			wantErr: "api_key",
		},
		{
			name: "coinapi_with_key",
			mutate: func(c *Config) {
				c.Pricing.Provider = "coinapi"
				c.CoinAPI.APIKey = "k"
			},
		},
		{
			name:    "unknown_provider",
			mutate:  func(c *Config) { c.Pricing.Provider = "binance" },
			wantErr: "unknown pricing.provider",
		},
		{
			name:    "redis_without_addr",
			mutate:  func(c *Config) { c.Redis.Enabled = true },
			wantErr: "redis.addr",
		},
		{
			name:    "postgres_without_dsn",
			mutate:  func(c *Config) { c.Postgres.Enabled = true },
			wantErr: "postgres.dsn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
engine:
  poll_interval: 2s
  start_venue: KRAKEN
pricing:
  provider: static
  venues:
    - id: KRAKEN
      trading_fee_pct: 0.26
      static_rate: 100
    - id: BITSTAMP
      trading_fee_pct: 0.4
      static_rate: 101
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ARB_MIN_RETURN_BPS", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Engine.PollInterval != 2*time.Second {
		t.Errorf("poll_interval = %v", cfg.Engine.PollInterval)
	}
	if cfg.Engine.StartVenue != "KRAKEN" {
		t.Errorf("start_venue = %q", cfg.Engine.StartVenue)
	}
	if cfg.Engine.MinReturnBps != 5 {
		t.Errorf("min_return_bps = %v, want 5 from env", cfg.Engine.MinReturnBps)
	}
	if got := cfg.Pricing.VenueIDs(); len(got) != 2 || got[0] != "KRAKEN" {
		t.Errorf("venues = %v", got)
	}
	if cfg.Health.Port != 8081 {
		t.Errorf("health.port default = %d", cfg.Health.Port)
	}
	if cfg.CoinAPI.BaseURL != "https://rest.coinapi.io" {
		t.Errorf("coinapi.base_url default = %q", cfg.CoinAPI.BaseURL)
	}
}

func TestLoad_DefaultsRequireKey(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("COINAPI_KEY", "")
	t.Setenv("ARB_COINAPI_KEY", "")

	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "api_key") {
		t.Fatalf("Load() error = %v, want api_key validation failure", err)
	}

	t.Setenv("COINAPI_KEY", "from-env")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CoinAPI.APIKey != "from-env" {
		t.Errorf("api key = %q", cfg.CoinAPI.APIKey)
	}
	if len(cfg.Pricing.Venues) != 3 || cfg.Pricing.Venues[0].ID != "BITSTAMP" {
		t.Errorf("default venues = %+v", cfg.Pricing.Venues)
	}
}
