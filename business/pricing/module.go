// Package pricing implements the pricing bounded context: per-venue rates for
// one pair, fetched concurrently with an optional Redis fallback.
package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/fd1az/cycle-arb/business/pricing/app"
	pricingDI "github.com/fd1az/cycle-arb/business/pricing/di"
	"github.com/fd1az/cycle-arb/business/pricing/infra/coinapi"
	"github.com/fd1az/cycle-arb/business/pricing/infra/redis"
	"github.com/fd1az/cycle-arb/business/pricing/infra/static"
	"github.com/fd1az/cycle-arb/internal/config"
	"github.com/fd1az/cycle-arb/internal/di"
	"github.com/fd1az/cycle-arb/internal/logger"
	"github.com/fd1az/cycle-arb/internal/monolith"
)

const redisConnectTimeout = 5 * time.Second

// Module implements the pricing bounded context.
type Module struct {
	redis *redis.Client
}

// RegisterServices registers all pricing services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, pricingDI.RateProvider, func(sr di.ServiceRegistry) app.RateProvider {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		provider, err := newRateProvider(cfg, log)
		if err != nil {
			panic("failed to create rate provider: " + err.Error())
		}
		return provider
	})

	di.RegisterToken(c, pricingDI.RedisClient, func(sr di.ServiceRegistry) *redis.Client {
		cfg := sr.Get("config").(*config.Config)
		if !cfg.Redis.Enabled {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), redisConnectTimeout)
		defer cancel()

		client, err := redis.New(ctx, redis.ClientConfig{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			panic("failed to connect redis: " + err.Error())
		}
		return client
	})

	di.RegisterToken(c, pricingDI.RateCache, func(sr di.ServiceRegistry) app.RateCache {
		client := pricingDI.GetRedisClient(sr)
		if client == nil {
			return nil
		}
		cfg := sr.Get("config").(*config.Config)
		return redis.NewRateCache(client, cfg.Redis.TTL)
	})

	// Register PricingService (public - exposed to other modules)
	di.RegisterToken(c, pricingDI.PricingService, func(sr di.ServiceRegistry) *app.PricingService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		svc, err := app.NewPricingService(
			pricingDI.GetRateProvider(sr),
			pricingDI.GetRateCache(sr),
			app.ServiceConfig{
				Venues:       cfg.Pricing.VenueIDs(),
				FetchTimeout: cfg.Engine.FetchTimeout,
				CacheMaxAge:  cfg.Pricing.CacheMaxAge,
			},
			log,
		)
		if err != nil {
			panic("failed to create pricing service: " + err.Error())
		}
		return svc
	})

	return nil
}

func newRateProvider(cfg *config.Config, log logger.LoggerInterface) (app.RateProvider, error) {
	switch cfg.Pricing.Provider {
	case "coinapi":
		return coinapi.NewProvider(coinapi.Config{
			BaseURL:           cfg.CoinAPI.BaseURL,
			APIKey:            cfg.CoinAPI.APIKey,
			RequestsPerMinute: cfg.CoinAPI.RequestsPerMinute,
			Timeout:           cfg.CoinAPI.Timeout,
		}, log)
	case "static":
		rates := make(map[string]float64, len(cfg.Pricing.Venues))
		for _, v := range cfg.Pricing.Venues {
			rates[v.ID] = v.StaticRate
		}
		return static.NewProvider(rates)
	default:
		return nil, fmt.Errorf("unknown pricing provider %q", cfg.Pricing.Provider)
	}
}

// Startup resolves the pricing service and registers health checks.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	svc := pricingDI.GetPricingService(mono.Services())

	if client := pricingDI.GetRedisClient(mono.Services()); client != nil {
		m.redis = client
		mono.Health().RegisterCheck("redis", func(ctx context.Context) (bool, string) {
			if err := client.Ping(ctx); err != nil {
				return false, err.Error()
			}
			return true, "ok"
		})
		log.Info(ctx, "redis rate cache enabled", "addr", mono.Config().Redis.Addr)
	}

	log.Info(ctx, "pricing module started",
		"provider", pricingDI.GetRateProvider(mono.Services()).Name(),
		"venues", svc.Venues())
	return nil
}

// Close releases the Redis connection.
func (m *Module) Close(_ context.Context) error {
	if m.redis == nil {
		return nil
	}
	return m.redis.Close()
}
