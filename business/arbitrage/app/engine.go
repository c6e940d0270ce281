package app

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/cycle-arb/business/arbitrage/domain"
)

const tracerName = "arbitrage"

// Outcome classifies an engine run.
type Outcome string

const (
	OutcomeOpportunity        Outcome = "opportunity"
	OutcomeNoCycle            Outcome = "no_cycle"
	OutcomeInsufficientVenues Outcome = "insufficient_venues"
	OutcomeFailed             Outcome = "failed"
)

// Result is what one engine run produced. Opportunity is set only for
// OutcomeOpportunity.
type Result struct {
	Outcome     Outcome
	Opportunity *domain.Opportunity
	Excluded    []domain.RejectedVenue
	Venues      int
	Edges       int
	StartVenue  domain.VenueID
}

// Engine runs graph build, cycle detection and evaluation over a snapshot.
// It is synchronous and keeps no state between runs.
type Engine struct {
	evaluator  *OpportunityEvaluator
	startVenue domain.VenueID
	build      GraphBuilder
	tracer     trace.Tracer
}

// GraphBuilder turns a snapshot into a rate graph.
type GraphBuilder func(*domain.QuoteSnapshot) (*domain.RateGraph, []domain.RejectedVenue, error)

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithGraphBuilder replaces domain.BuildRateGraph.
func WithGraphBuilder(b GraphBuilder) EngineOption {
	return func(e *Engine) { e.build = b }
}

// NewEngine creates an Engine. startVenue picks the Bellman-Ford source; when
// empty or not in the graph the first venue by id is used.
func NewEngine(evaluator *OpportunityEvaluator, startVenue domain.VenueID, opts ...EngineOption) *Engine {
	e := &Engine{
		evaluator:  evaluator,
		startVenue: startVenue,
		build:      domain.BuildRateGraph,
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate processes one snapshot. A graph that cannot be built returns the
// error with Outcome set to OutcomeFailed; fewer than two valid venues and an
// absent cycle are ordinary outcomes.
func (e *Engine) Evaluate(ctx context.Context, s *domain.QuoteSnapshot) (*Result, error) {
	_, span := e.tracer.Start(ctx, "engine.evaluate",
		trace.WithAttributes(attribute.Int("snapshot.venues", s.Len())),
	)
	defer span.End()

	g, excluded, err := e.build(s)
	res := &Result{Outcome: OutcomeFailed, Excluded: excluded}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "graph build failed")
		return res, err
	}

	res.Venues = g.Len()
	res.Edges = g.EdgeCount()
	span.SetAttributes(
		attribute.Int("graph.venues", res.Venues),
		attribute.Int("graph.edges", res.Edges),
		attribute.Int("graph.excluded", len(excluded)),
	)

	if g.Len() < 2 {
		res.Outcome = OutcomeInsufficientVenues
		span.SetAttributes(attribute.String("outcome", string(res.Outcome)))
		return res, nil
	}

	start := 0
	if i, ok := g.Index(e.startVenue); ok {
		start = i
	}
	res.StartVenue = g.Venue(start)

	cycle, found, err := domain.FindNegativeCycle(g, start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cycle detection failed")
		return res, err
	}

	opp, err := e.evaluator.Evaluate(cycle, found, s)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation failed")
		return res, err
	}

	if opp == nil {
		res.Outcome = OutcomeNoCycle
	} else {
		res.Outcome = OutcomeOpportunity
		res.Opportunity = opp
		span.SetAttributes(
			attribute.String("cycle", opp.Cycle.String()),
			attribute.Float64("cycle.multiplier", opp.Cycle.Multiplier()),
		)
	}
	span.SetAttributes(attribute.String("outcome", string(res.Outcome)))

	return res, nil
}
