package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/cycle-arb/business/pricing/domain"
	"github.com/fd1az/cycle-arb/internal/apperror"
	"github.com/fd1az/cycle-arb/internal/logger"
)

const (
	tracerName = "pricing"
	meterName  = "pricing"
)

// ServiceConfig controls the fan-out.
type ServiceConfig struct {
	Venues       []string
	FetchTimeout time.Duration // per venue
	CacheMaxAge  time.Duration // 0 disables cache fallback
}

// PricingService fetches a pair's rate on every configured venue concurrently.
type PricingService struct {
	provider RateProvider
	cache    RateCache
	config   ServiceConfig
	logger   logger.LoggerInterface
	now      func() time.Time

	tracer        trace.Tracer
	fetchFailures metric.Int64Counter
}

// NewPricingService creates a new PricingService. cache may be nil.
func NewPricingService(provider RateProvider, cache RateCache, cfg ServiceConfig, log logger.LoggerInterface) (*PricingService, error) {
	failures, err := otel.Meter(meterName).Int64Counter(
		"pricing_fetch_failures_total",
		metric.WithDescription("Venue rate fetches that failed"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return &PricingService{
		provider:      provider,
		cache:         cache,
		config:        cfg,
		logger:        log,
		now:           time.Now,
		tracer:        otel.Tracer(tracerName),
		fetchFailures: failures,
	}, nil
}

// Venues returns the configured venues.
func (s *PricingService) Venues() []string {
	out := make([]string, len(s.config.Venues))
	copy(out, s.config.Venues)
	return out
}

// FetchRates queries all venues in parallel, each bounded by FetchTimeout.
// A failed venue is recorded in the snapshot's Failures and otherwise
// ignored; an error is returned only when every venue failed.
func (s *PricingService) FetchRates(ctx context.Context, pair domain.Pair) (*domain.RateSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "pricing.fetch_rates",
		trace.WithAttributes(
			attribute.String("pair", pair.String()),
			attribute.String("provider", s.provider.Name()),
			attribute.Int("venues", len(s.config.Venues)),
		),
	)
	defer span.End()

	var (
		mu       sync.Mutex
		rates    = make([]domain.VenueRate, 0, len(s.config.Venues))
		failures = make(map[string]error)
		g        errgroup.Group
	)

	for _, venue := range s.config.Venues {
		g.Go(func() error {
			rate, err := s.fetchOne(ctx, venue, pair)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[venue] = err
				return nil
			}
			rates = append(rates, rate)
			return nil
		})
	}
	_ = g.Wait()

	snapshot := domain.NewRateSnapshot(pair, s.now(), rates, failures)
	span.SetAttributes(
		attribute.Int("rates", len(snapshot.Rates)),
		attribute.Int("failures", len(failures)),
	)

	if len(snapshot.Rates) == 0 && len(s.config.Venues) > 0 {
		err := apperror.New(apperror.CodeQuoteFetchFailed,
			apperror.WithMessage(fmt.Sprintf("no venue returned a rate for %s", pair)),
		)
		span.SetStatus(codes.Error, "all venues failed")
		return snapshot, err
	}

	return snapshot, nil
}

func (s *PricingService) fetchOne(ctx context.Context, venue string, pair domain.Pair) (domain.VenueRate, error) {
	fetchCtx := ctx
	if s.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.config.FetchTimeout)
		defer cancel()
	}

	rate, err := s.provider.GetRate(fetchCtx, venue, pair)
	if err == nil {
		s.storeRate(ctx, rate)
		return rate, nil
	}

	s.fetchFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("venue", venue),
		attribute.String("code", string(apperror.GetCode(err))),
	))
	s.logger.Warn(ctx, "venue rate fetch failed", "venue", venue, "pair", pair.String(), "error", err)

	if cached, ok := s.fromCache(ctx, venue, pair); ok {
		return cached, nil
	}
	return domain.VenueRate{}, err
}

func (s *PricingService) storeRate(ctx context.Context, rate domain.VenueRate) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Store(ctx, rate); err != nil {
		s.logger.Warn(ctx, "rate cache write failed", "venue", rate.Venue, "error", err)
	}
}

func (s *PricingService) fromCache(ctx context.Context, venue string, pair domain.Pair) (domain.VenueRate, bool) {
	if s.cache == nil || s.config.CacheMaxAge <= 0 {
		return domain.VenueRate{}, false
	}

	cached, err := s.cache.Latest(ctx, venue, pair)
	if err != nil {
		if apperror.GetCode(err) != apperror.CodeCacheMiss {
			s.logger.Warn(ctx, "rate cache read failed", "venue", venue, "error", err)
		}
		return domain.VenueRate{}, false
	}

	age := cached.Age(s.now())
	if age > s.config.CacheMaxAge {
		s.logger.Debug(ctx, "cached rate too old", "venue", venue, "age", age.String())
		return domain.VenueRate{}, false
	}

	s.logger.Info(ctx, "using cached rate", "venue", venue, "age", age.String())
	cached.Source = domain.SourceCache
	return cached, true
}
