// Package di contains dependency injection tokens for the pricing context.
package di

import (
	"github.com/fd1az/cycle-arb/business/pricing/app"
	"github.com/fd1az/cycle-arb/business/pricing/infra/redis"
	"github.com/fd1az/cycle-arb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	PricingService = di.NewToken[*app.PricingService]("pricing.PricingService")
)

// Private dependency tokens - internal to pricing module
var (
	RateProvider = di.NewToken[app.RateProvider]("pricing:rateProvider")
	RateCache    = di.NewToken[app.RateCache]("pricing:rateCache")
	RedisClient  = di.NewToken[*redis.Client]("pricing:redisClient")
)

// Helper functions for type-safe access
func GetPricingService(c di.ServiceRegistry) *app.PricingService {
	return di.GetToken(c, PricingService)
}

func GetRateProvider(c di.ServiceRegistry) app.RateProvider {
	return di.GetToken(c, RateProvider)
}

// GetRateCache returns nil when Redis is disabled.
func GetRateCache(c di.ServiceRegistry) app.RateCache {
	return di.GetToken(c, RateCache)
}

// GetRedisClient returns nil when Redis is disabled.
func GetRedisClient(c di.ServiceRegistry) *redis.Client {
	return di.GetToken(c, RedisClient)
}
