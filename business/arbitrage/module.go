// Package arbitrage implements the arbitrage bounded context: cyclic
// opportunity detection over the venue rate graph.
package arbitrage

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/cycle-arb/business/arbitrage/app"
	arbitrageDI "github.com/fd1az/cycle-arb/business/arbitrage/di"
	"github.com/fd1az/cycle-arb/business/arbitrage/domain"
	"github.com/fd1az/cycle-arb/business/arbitrage/infra"
	"github.com/fd1az/cycle-arb/business/arbitrage/infra/postgres"
	pricingDI "github.com/fd1az/cycle-arb/business/pricing/di"
	pricingDomain "github.com/fd1az/cycle-arb/business/pricing/domain"
	"github.com/fd1az/cycle-arb/internal/config"
	"github.com/fd1az/cycle-arb/internal/di"
	"github.com/fd1az/cycle-arb/internal/logger"
	"github.com/fd1az/cycle-arb/internal/monolith"
)

const (
	postgresConnectTimeout = 5 * time.Second
	// A detector is unhealthy after this many poll intervals without a
	// successful pass.
	staleIntervals = 3
)

// Module implements the arbitrage bounded context.
type Module struct {
	postgres *postgres.Client
}

// RegisterServices registers all arbitrage services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, arbitrageDI.QuoteSource, func(sr di.ServiceRegistry) app.QuoteSource {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		pair, err := pricingDomain.NewPair(cfg.Pricing.Base, cfg.Pricing.Quote)
		if err != nil {
			panic("invalid pricing pair: " + err.Error())
		}

		fees := make(map[string]infra.VenueFees, len(cfg.Pricing.Venues))
		for _, v := range cfg.Pricing.Venues {
			fees[v.ID] = infra.VenueFees{TradingFeePct: v.TradingFeePct, WithdrawalFee: v.WithdrawalFee}
		}

		return infra.NewPricingQuoteSource(pricingDI.GetPricingService(sr), pair, fees, log)
	})

	di.RegisterToken(c, arbitrageDI.Engine, func(sr di.ServiceRegistry) *app.Engine {
		cfg := sr.Get("config").(*config.Config)
		evaluator := app.NewOpportunityEvaluator(cfg.Engine.TradeAmountDecimal())
		return app.NewEngine(evaluator, domain.VenueID(cfg.Engine.StartVenue))
	})

	di.RegisterToken(c, arbitrageDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		cfg := sr.Get("config").(*config.Config)
		if cfg.App.TUIMode {
			return infra.NewTUIReporter()
		}
		return infra.NewConsoleReporter(os.Stdout)
	})

	di.RegisterToken(c, arbitrageDI.Executor, func(sr di.ServiceRegistry) app.Executor {
		log := sr.Get("logger").(logger.LoggerInterface)
		return infra.NewPaperExecutor(log)
	})

	di.RegisterToken(c, arbitrageDI.PostgresClient, func(sr di.ServiceRegistry) *postgres.Client {
		cfg := sr.Get("config").(*config.Config)
		if !cfg.Postgres.Enabled {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), postgresConnectTimeout)
		defer cancel()

		client, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			MaxConns: cfg.Postgres.MaxConns,
		})
		if err != nil {
			panic("failed to connect postgres: " + err.Error())
		}
		return client
	})

	di.RegisterToken(c, arbitrageDI.OpportunityStore, func(sr di.ServiceRegistry) app.OpportunityStore {
		client := arbitrageDI.GetPostgresClient(sr)
		if client == nil {
			return nil
		}
		return postgres.NewOpportunityStore(client)
	})

	// Register Detector (public - started by main)
	di.RegisterToken(c, arbitrageDI.Detector, func(sr di.ServiceRegistry) *app.Detector {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		opts := []app.DetectorOption{app.WithExecutor(arbitrageDI.GetExecutor(sr))}
		if store := arbitrageDI.GetOpportunityStore(sr); store != nil {
			opts = append(opts, app.WithStore(store))
		}

		detector, err := app.NewDetector(
			arbitrageDI.GetQuoteSource(sr),
			arbitrageDI.GetEngine(sr),
			arbitrageDI.GetReporter(sr),
			app.DetectorConfig{
				PollInterval: cfg.Engine.PollInterval,
				MinReturnBps: decimal.NewFromFloat(cfg.Engine.MinReturnBps),
				Execute:      cfg.Engine.Execute,
			},
			log,
			opts...,
		)
		if err != nil {
			panic("failed to create detector: " + err.Error())
		}
		return detector
	})

	return nil
}

// Startup prepares storage and registers health checks. The detector loop
// itself is started by the caller.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()
	services := mono.Services()

	if client := arbitrageDI.GetPostgresClient(services); client != nil {
		m.postgres = client
		if store, ok := arbitrageDI.GetOpportunityStore(services).(*postgres.OpportunityStore); ok {
			if err := store.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("failed to prepare opportunity journal: %w", err)
			}
		}
		mono.Health().RegisterCheck("postgres", func(ctx context.Context) (bool, string) {
			if err := client.Ping(ctx); err != nil {
				return false, err.Error()
			}
			return true, "ok"
		})
		log.Info(ctx, "opportunity journal enabled")
	}

	detector := arbitrageDI.GetDetector(services)
	started := time.Now()
	mono.Health().RegisterCheck("detector", detectorCheck(detector, cfg.Engine.PollInterval, started))

	log.Info(ctx, "arbitrage module started",
		"start_venue", cfg.Engine.StartVenue,
		"poll_interval", cfg.Engine.PollInterval.String(),
		"execute", cfg.Engine.Execute)
	return nil
}

type lastSuccessor interface {
	LastSuccess() time.Time
}

func detectorCheck(d lastSuccessor, poll time.Duration, started time.Time) func(context.Context) (bool, string) {
	limit := staleIntervals * poll
	return func(context.Context) (bool, string) {
		last := d.LastSuccess()
		if last.IsZero() {
			if time.Since(started) > limit {
				return false, "no successful scan yet"
			}
			return true, "warming up"
		}
		if age := time.Since(last); age > limit {
			return false, fmt.Sprintf("last successful scan %s ago", age.Round(time.Second))
		}
		return true, "ok"
	}
}

// Close releases the Postgres pool.
func (m *Module) Close(_ context.Context) error {
	if m.postgres != nil {
		m.postgres.Close()
	}
	return nil
}
