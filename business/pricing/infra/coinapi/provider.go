// Package coinapi implements RateProvider against the CoinAPI exchange rate
// endpoint.
package coinapi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/cycle-arb/business/pricing/app"
	"github.com/fd1az/cycle-arb/business/pricing/domain"
	"github.com/fd1az/cycle-arb/internal/apperror"
	"github.com/fd1az/cycle-arb/internal/circuitbreaker"
	"github.com/fd1az/cycle-arb/internal/logger"
	"github.com/fd1az/cycle-arb/internal/ratelimit"
)

const (
	tracerName = "coinapi"
	meterName  = "coinapi"
)

var _ app.RateProvider = (*Provider)(nil)

// Config holds provider settings.
type Config struct {
	BaseURL           string
	APIKey            string
	RequestsPerMinute int // 0 disables client-side limiting
	Timeout           time.Duration
}

type providerMetrics struct {
	ratesTotal  metric.Int64Counter
	rateLatency metric.Float64Histogram
	rateErrors  metric.Int64Counter
}

// Provider fetches per-exchange rates from CoinAPI. Each exchange gets its own
// circuit breaker so one failing venue does not block the others.
type Provider struct {
	client  *client
	limiter *ratelimit.Limiter
	logger  logger.LoggerInterface
	now     func() time.Time

	mu       sync.Mutex
	breakers map[string]*circuitbreaker.CircuitBreaker[*ExchangeRateResponse]

	tracer  trace.Tracer
	metrics *providerMetrics
}

// NewProvider creates a new CoinAPI provider.
func NewProvider(cfg Config, log logger.LoggerInterface) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithMessage("coinapi api key is required"))
	}

	tracer := otel.Tracer(tracerName)
	c, err := newClient(cfg.BaseURL, cfg.APIKey, cfg.Timeout, tracer)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		client:   c,
		limiter:  ratelimit.New(cfg.RequestsPerMinute),
		logger:   log,
		now:      time.Now,
		breakers: make(map[string]*circuitbreaker.CircuitBreaker[*ExchangeRateResponse]),
		tracer:   tracer,
	}

	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return p, nil
}

func (p *Provider) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	p.metrics = &providerMetrics{}

	p.metrics.ratesTotal, err = meter.Int64Counter(
		"coinapi_rates_total",
		metric.WithDescription("Total exchange rate requests"),
	)
	if err != nil {
		return err
	}

	p.metrics.rateLatency, err = meter.Float64Histogram(
		"coinapi_rate_latency_ms",
		metric.WithDescription("Exchange rate request latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	p.metrics.rateErrors, err = meter.Int64Counter(
		"coinapi_rate_errors_total",
		metric.WithDescription("Total exchange rate errors"),
	)
	return err
}

// Name implements app.RateProvider.
func (p *Provider) Name() string { return domain.SourceCoinAPI }

// GetRate returns pair's rate on venue.
func (p *Provider) GetRate(ctx context.Context, venue string, pair domain.Pair) (domain.VenueRate, error) {
	ctx, span := p.tracer.Start(ctx, "coinapi.get_rate",
		trace.WithAttributes(
			attribute.String("venue", venue),
			attribute.String("pair", pair.String()),
		),
	)
	defer span.End()

	start := time.Now()
	venueAttr := metric.WithAttributes(attribute.String("venue", venue))
	p.metrics.ratesTotal.Add(ctx, 1, venueAttr)

	fail := func(err error) (domain.VenueRate, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.metrics.rateErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("venue", venue),
			attribute.String("code", string(apperror.GetCode(err))),
		))
		return domain.VenueRate{}, err
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return fail(apperror.New(apperror.CodeCoinAPIRateLimited,
			apperror.WithCause(err),
			apperror.WithContext(venue)))
	}

	resp, err := p.breaker(venue).Execute(func() (*ExchangeRateResponse, error) {
		return p.client.exchangeRate(ctx, venue, pair.Base, pair.Quote)
	})
	if err != nil {
		return fail(err)
	}

	if !resp.Rate.IsPositive() {
		return fail(apperror.New(apperror.CodeInvalidRate,
			apperror.WithContext(fmt.Sprintf("%s %s=%s", venue, pair, resp.Rate))))
	}

	observed := resp.Time
	if observed.IsZero() {
		observed = p.now()
	}

	p.metrics.rateLatency.Record(ctx, float64(time.Since(start).Milliseconds()), venueAttr)
	span.SetAttributes(attribute.String("rate", resp.Rate.String()))
	span.SetStatus(codes.Ok, "rate fetched")

	p.logger.Debug(ctx, "coinapi rate fetched",
		"venue", venue,
		"pair", pair.String(),
		"rate", resp.Rate.String())

	return domain.VenueRate{
		Venue:      venue,
		Pair:       pair,
		Rate:       resp.Rate,
		ObservedAt: observed,
		Source:     domain.SourceCoinAPI,
	}, nil
}

func (p *Provider) breaker(venue string) *circuitbreaker.CircuitBreaker[*ExchangeRateResponse] {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cb, ok := p.breakers[venue]; ok {
		return cb
	}

	cfg := circuitbreaker.DefaultConfig("coinapi-" + venue)
	// A 4xx is our request's fault, not the venue's.
	cfg.IsSuccessful = func(err error) bool {
		return err == nil || (apperror.GetCode(err) == apperror.CodeCoinAPIError && !apperror.IsRetryable(err))
	}
	cfg.OnStateChange = func(name string, from, to gobreaker.State) {
		p.logger.Warn(context.Background(), "circuit breaker state changed",
			"breaker", name,
			"from", from.String(),
			"to", to.String())
	}

	cb := circuitbreaker.New[*ExchangeRateResponse](cfg)
	p.breakers[venue] = cb
	return cb
}
