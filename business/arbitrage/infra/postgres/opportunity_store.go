package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/cycle-arb/business/arbitrage/app"
	"github.com/fd1az/cycle-arb/business/arbitrage/domain"
	"github.com/fd1az/cycle-arb/internal/apperror"
)

const tracerName = "postgres"

var _ app.OpportunityStore = (*OpportunityStore)(nil)

// execer is the subset of pgxpool.Pool the store needs.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const createOpportunitiesTable = `
	CREATE TABLE IF NOT EXISTS arb_opportunities (
		id              UUID PRIMARY KEY,
		detected_at     TIMESTAMPTZ NOT NULL,
		cycle           TEXT[] NOT NULL,
		hops            INT NOT NULL,
		total_weight    DOUBLE PRECISION NOT NULL,
		start_rate      DOUBLE PRECISION NOT NULL,
		multiplier      NUMERIC NOT NULL,
		return_bps      NUMERIC NOT NULL,
		profit_per_unit NUMERIC NOT NULL,
		trade_amount    NUMERIC NOT NULL,
		profit_total    NUMERIC NOT NULL,
		orders          JSONB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS arb_opportunities_detected_at_idx
		ON arb_opportunities (detected_at DESC);`

const insertOpportunity = `
	INSERT INTO arb_opportunities (
		id, detected_at, cycle, hops, total_weight, start_rate,
		multiplier, return_bps, profit_per_unit, trade_amount, profit_total,
		orders
	) VALUES (
		$1, $2, $3, $4, $5, $6,
		$7, $8, $9, $10, $11,
		$12
	)
	ON CONFLICT (id) DO NOTHING`

type orderRow struct {
	Venue  string `json:"venue"`
	Side   string `json:"side"`
	Amount string `json:"amount"`
}

// OpportunityStore implements app.OpportunityStore.
type OpportunityStore struct {
	db     execer
	tracer trace.Tracer
}

// NewOpportunityStore creates a store on the client's pool.
func NewOpportunityStore(c *Client) *OpportunityStore {
	return newOpportunityStore(c.pool)
}

func newOpportunityStore(db execer) *OpportunityStore {
	return &OpportunityStore{db: db, tracer: otel.Tracer(tracerName)}
}

// EnsureSchema creates the journal table if it does not exist.
func (s *OpportunityStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createOpportunitiesTable); err != nil {
		return apperror.New(apperror.CodeStoreFailed,
			apperror.WithCause(err),
			apperror.WithContext("create arb_opportunities"))
	}
	return nil
}

// Save inserts opp. Saving the same id twice is a no-op.
func (s *OpportunityStore) Save(ctx context.Context, opp *domain.Opportunity) error {
	ctx, span := s.tracer.Start(ctx, "postgres.save_opportunity",
		trace.WithAttributes(
			attribute.String("id", opp.ID),
			attribute.Int("hops", opp.Cycle.Hops()),
		),
	)
	defer span.End()

	if opp.Profit == nil {
		return apperror.New(apperror.CodeInvalidInput,
			apperror.WithMessage("opportunity has no profit estimate"),
			apperror.WithContext(opp.ID))
	}

	cycle := make([]string, len(opp.Cycle.Venues))
	for i, v := range opp.Cycle.Venues {
		cycle[i] = string(v)
	}

	orders := make([]orderRow, len(opp.Orders))
	for i, o := range opp.Orders {
		orders[i] = orderRow{Venue: string(o.Venue), Side: o.Side.String(), Amount: o.Amount.String()}
	}
	ordersJSON, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("postgres: encode orders %s: %w", opp.ID, err)
	}

	_, err = s.db.Exec(ctx, insertOpportunity,
		opp.ID, opp.DetectedAt, cycle, opp.Cycle.Hops(), opp.Cycle.TotalWeight, opp.StartRate,
		opp.Profit.Multiplier, opp.Profit.ReturnBps, opp.Profit.PerUnit, opp.TradeAmount, opp.Profit.Total,
		ordersJSON,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return apperror.New(apperror.CodeStoreFailed,
			apperror.WithCause(err),
			apperror.WithContext(opp.ID))
	}

	return nil
}
