package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/cycle-arb/business/arbitrage/domain"
	"github.com/fd1az/cycle-arb/internal/apperror"
	"github.com/fd1az/cycle-arb/internal/logger"
)

const meterName = "arbitrage"

// DetectorConfig holds configuration for the arbitrage detector.
type DetectorConfig struct {
	PollInterval time.Duration
	MinReturnBps decimal.Decimal
	Execute      bool
}

type detectorMetrics struct {
	scans          metric.Int64Counter
	opportunities  metric.Int64Counter
	buildFailures  metric.Int64Counter
	venuesExcluded metric.Int64Counter
	scanDuration   metric.Float64Histogram
	cycleReturnBps metric.Float64Histogram
}

// Detector polls the quote source and runs the engine once per interval.
// A failed pass is logged and retried on the next tick.
type Detector struct {
	source   QuoteSource
	engine   *Engine
	reporter Reporter
	store    OpportunityStore
	executor Executor
	config   DetectorConfig
	logger   logger.LoggerInterface

	tracer  trace.Tracer
	metrics *detectorMetrics

	mu          sync.RWMutex
	lastScan    ScanSummary
	lastSuccess time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// DetectorOption configures optional collaborators.
type DetectorOption func(*Detector)

// WithStore journals every detected opportunity.
func WithStore(s OpportunityStore) DetectorOption {
	return func(d *Detector) { d.store = s }
}

// WithExecutor hands qualifying opportunities to an order executor.
func WithExecutor(e Executor) DetectorOption {
	return func(d *Detector) { d.executor = e }
}

// NewDetector creates a new arbitrage Detector.
func NewDetector(
	source QuoteSource,
	engine *Engine,
	reporter Reporter,
	config DetectorConfig,
	log logger.LoggerInterface,
	opts ...DetectorOption,
) (*Detector, error) {
	if config.PollInterval <= 0 {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithMessage("poll interval must be positive"))
	}

	d := &Detector{
		source:   source,
		engine:   engine,
		reporter: reporter,
		config:   config,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}

	if err := d.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return d, nil
}

func (d *Detector) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	d.metrics = &detectorMetrics{}

	d.metrics.scans, err = meter.Int64Counter(
		"arb_scans_total",
		metric.WithDescription("Detection passes by outcome"),
	)
	if err != nil {
		return err
	}

	d.metrics.opportunities, err = meter.Int64Counter(
		"arb_opportunities_total",
		metric.WithDescription("Negative cycles reported"),
	)
	if err != nil {
		return err
	}

	d.metrics.buildFailures, err = meter.Int64Counter(
		"arb_graph_build_failures_total",
		metric.WithDescription("Passes skipped because the rate graph could not be built"),
	)
	if err != nil {
		return err
	}

	d.metrics.venuesExcluded, err = meter.Int64Counter(
		"arb_venues_excluded_total",
		metric.WithDescription("Venues dropped for invalid quotes"),
	)
	if err != nil {
		return err
	}

	d.metrics.scanDuration, err = meter.Float64Histogram(
		"arb_scan_duration_ms",
		metric.WithDescription("Detection pass latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	d.metrics.cycleReturnBps, err = meter.Float64Histogram(
		"arb_cycle_return_bps",
		metric.WithDescription("Compounded return of detected cycles in basis points"),
	)
	if err != nil {
		return err
	}

	return nil
}

// quoteSourceName labels the quote source in connection status updates.
const quoteSourceName = "quotes"

// Start begins the detection loop. The first pass runs immediately.
func (d *Detector) Start(ctx context.Context) error {
	d.logger.Info(ctx, "starting arbitrage detector", "poll_interval", d.config.PollInterval.String())

	if err := d.reporter.Start(ctx); err != nil {
		return err
	}

	ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})

	go d.run(ctx)

	return nil
}

func (d *Detector) run(ctx context.Context) {
	defer close(d.done)

	ticker := time.NewTicker(d.config.PollInterval)
	defer ticker.Stop()

	d.Scan(ctx)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info(ctx, "detector stopping", "reason", ctx.Err())
			return
		case <-ticker.C:
			d.Scan(ctx)
		}
	}
}

// Stop gracefully shuts down the detector.
func (d *Detector) Stop() error {
	d.logger.Info(context.Background(), "stopping arbitrage detector")
	if d.cancel != nil {
		d.cancel()
		<-d.done
	}
	return d.reporter.Stop()
}

// Scan runs one detection pass and returns its summary.
func (d *Detector) Scan(ctx context.Context) ScanSummary {
	ctx, span := d.tracer.Start(ctx, "detector.scan")
	defer span.End()

	start := time.Now()
	summary := ScanSummary{At: start, Outcome: OutcomeFailed}

	defer func() {
		summary.Duration = time.Since(start)
		d.metrics.scanDuration.Record(ctx, float64(summary.Duration.Microseconds())/1000)
		d.metrics.scans.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(summary.Outcome))))
		span.SetAttributes(attribute.String("outcome", string(summary.Outcome)))

		d.mu.Lock()
		d.lastScan = summary
		if summary.Err == nil {
			d.lastSuccess = summary.At
		}
		d.mu.Unlock()

		d.reporter.ReportScan(summary)
	}()

	snapshot, err := d.source.Snapshot(ctx)
	d.reporter.UpdateConnectionStatus(quoteSourceName, err == nil, time.Since(start))
	if err != nil {
		summary.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, "quote fetch failed")
		d.logger.Warn(ctx, "quote fetch failed, retrying next interval", "error", err)
		return summary
	}
	d.reporter.UpdateQuotes(snapshot)

	if spread, ok := domain.SummarizeSpread(snapshot); ok {
		summary.Spread = &spread
		d.logger.Debug(ctx, "venue spread",
			"buy_venue", spread.BuyVenue,
			"buy_rate", spread.BuyRate.String(),
			"sell_venue", spread.SellVenue,
			"sell_rate", spread.SellRate.String(),
			"spread_bps", spread.BasisPoints.StringFixed(2),
		)
	}

	res, err := d.engine.Evaluate(ctx, snapshot)
	if res != nil {
		summary.Outcome = res.Outcome
		summary.Venues = res.Venues
		summary.Edges = res.Edges
		summary.Excluded = res.Excluded
		d.recordExcluded(ctx, res.Excluded)
	}
	if err != nil {
		summary.Outcome = OutcomeFailed
		summary.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation failed")
		if apperror.GetCode(err) == apperror.CodeInvalidEdgeWeight {
			d.metrics.buildFailures.Add(ctx, 1)
		}
		d.logger.Warn(ctx, "skipping detection pass, retrying next interval",
			"error", err,
			"code", string(apperror.GetCode(err)),
		)
		return summary
	}

	switch res.Outcome {
	case OutcomeInsufficientVenues:
		d.logger.Info(ctx, "not enough valid venues to form a cycle",
			"venues", res.Venues,
			"code", string(apperror.CodeInsufficientVenues),
		)
	case OutcomeNoCycle:
		d.logger.Debug(ctx, "no arbitrage cycle", "venues", res.Venues, "start_venue", res.StartVenue)
	case OutcomeOpportunity:
		summary.Opportunity = res.Opportunity
		d.handleOpportunity(ctx, res.Opportunity)
	}

	return summary
}

func (d *Detector) recordExcluded(ctx context.Context, excluded []domain.RejectedVenue) {
	if len(excluded) == 0 {
		return
	}
	d.metrics.venuesExcluded.Add(ctx, int64(len(excluded)))
	for _, r := range excluded {
		d.logger.Warn(ctx, "venue excluded from graph", "venue", r.Venue, "error", r.Err)
	}
}

func (d *Detector) handleOpportunity(ctx context.Context, opp *domain.Opportunity) {
	bps, _ := opp.Profit.ReturnBps.Float64()
	d.metrics.opportunities.Add(ctx, 1)
	d.metrics.cycleReturnBps.Record(ctx, bps)

	d.logger.Info(ctx, "arbitrage cycle detected",
		"id", opp.ID,
		"cycle", opp.Cycle.String(),
		"multiplier", opp.Profit.Multiplier.String(),
		"return_bps", opp.Profit.ReturnBps.StringFixed(4),
		"profit_per_unit", opp.Profit.PerUnit.StringFixed(6),
	)

	d.reporter.Report(opp)

	if d.store != nil {
		if err := d.store.Save(ctx, opp); err != nil {
			d.logger.Error(ctx, "failed to journal opportunity", "id", opp.ID, "error", err)
		}
	}

	if !d.config.Execute || d.executor == nil {
		return
	}
	if opp.Profit.ReturnBps.LessThan(d.config.MinReturnBps) {
		d.logger.Info(ctx, "opportunity below execution threshold",
			"id", opp.ID,
			"return_bps", opp.Profit.ReturnBps.StringFixed(4),
			"min_return_bps", d.config.MinReturnBps.String(),
		)
		return
	}

	d.execute(ctx, opp)
}

func (d *Detector) execute(ctx context.Context, opp *domain.Opportunity) {
	var failed []error
	for i, order := range opp.Orders {
		if err := d.executor.PlaceOrder(ctx, order); err != nil {
			failed = append(failed, err)
			d.logger.Error(ctx, "order failed",
				"id", opp.ID,
				"step", i+1,
				"venue", order.Venue,
				"side", order.Side.String(),
				"error", err,
			)
		}
	}
	if len(failed) > 0 {
		d.logger.Warn(ctx, "cycle executed with failures", "id", opp.ID, "failed", len(failed), "error", errors.Join(failed...))
		return
	}
	d.logger.Info(ctx, "cycle executed", "id", opp.ID, "orders", len(opp.Orders))
}

// LastScan returns the summary of the most recent pass.
func (d *Detector) LastScan() ScanSummary {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastScan
}

// LastSuccess returns when a pass last completed without error.
func (d *Detector) LastSuccess() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastSuccess
}
