// Package di contains dependency injection tokens for the arbitrage context.
package di

import (
	"github.com/fd1az/cycle-arb/business/arbitrage/app"
	"github.com/fd1az/cycle-arb/business/arbitrage/infra/postgres"
	"github.com/fd1az/cycle-arb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Detector = di.NewToken[*app.Detector]("arbitrage.Detector")
)

// Private dependency tokens - internal to arbitrage module
var (
	Engine           = di.NewToken[*app.Engine]("arbitrage:engine")
	QuoteSource      = di.NewToken[app.QuoteSource]("arbitrage:quoteSource")
	Reporter         = di.NewToken[app.Reporter]("arbitrage:reporter")
	Executor         = di.NewToken[app.Executor]("arbitrage:executor")
	OpportunityStore = di.NewToken[app.OpportunityStore]("arbitrage:opportunityStore")
	PostgresClient   = di.NewToken[*postgres.Client]("arbitrage:postgresClient")
)

// Helper functions for type-safe access
func GetDetector(c di.ServiceRegistry) *app.Detector {
	return di.GetToken(c, Detector)
}

func GetEngine(c di.ServiceRegistry) *app.Engine {
	return di.GetToken(c, Engine)
}

func GetQuoteSource(c di.ServiceRegistry) app.QuoteSource {
	return di.GetToken(c, QuoteSource)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}

func GetExecutor(c di.ServiceRegistry) app.Executor {
	return di.GetToken(c, Executor)
}

// GetOpportunityStore returns nil when Postgres is disabled.
func GetOpportunityStore(c di.ServiceRegistry) app.OpportunityStore {
	return di.GetToken(c, OpportunityStore)
}

// GetPostgresClient returns nil when Postgres is disabled.
func GetPostgresClient(c di.ServiceRegistry) *postgres.Client {
	return di.GetToken(c, PostgresClient)
}
