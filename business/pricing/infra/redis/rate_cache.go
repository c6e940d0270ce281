package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/cycle-arb/business/pricing/app"
	"github.com/fd1az/cycle-arb/business/pricing/domain"
	"github.com/fd1az/cycle-arb/internal/apperror"
)

const tracerName = "redis"

var _ app.RateCache = (*RateCache)(nil)

// RateCache stores each venue's latest rate as a hash.
//
// Key schema:
//
//	rate:{BASE-QUOTE}:{venue}  fields "rate", "ts" (unix nanos), "source"
type RateCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewRateCache creates a RateCache. A zero ttl keeps entries forever.
func NewRateCache(c *Client, ttl time.Duration) *RateCache {
	return &RateCache{
		rdb:    c.rdb,
		ttl:    ttl,
		tracer: otel.Tracer(tracerName),
	}
}

func rateKey(venue string, pair domain.Pair) string {
	return "rate:" + pair.String() + ":" + venue
}

// Store implements app.RateCache.
func (rc *RateCache) Store(ctx context.Context, r domain.VenueRate) error {
	key := rateKey(r.Venue, r.Pair)
	ctx, span := rc.tracer.Start(ctx, "redis.store_rate",
		trace.WithAttributes(attribute.String("key", key)),
	)
	defer span.End()

	pipe := rc.rdb.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"rate":   r.Rate.String(),
		"ts":     strconv.FormatInt(r.ObservedAt.UnixNano(), 10),
		"source": r.Source,
	})
	if rc.ttl > 0 {
		pipe.Expire(ctx, key, rc.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return apperror.New(apperror.CodeCacheFailed,
			apperror.WithCause(err),
			apperror.WithContext(key))
	}
	return nil
}

// Latest implements app.RateCache. A missing key returns CACHE_MISS.
func (rc *RateCache) Latest(ctx context.Context, venue string, pair domain.Pair) (domain.VenueRate, error) {
	key := rateKey(venue, pair)
	ctx, span := rc.tracer.Start(ctx, "redis.latest_rate",
		trace.WithAttributes(attribute.String("key", key)),
	)
	defer span.End()

	vals, err := rc.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.VenueRate{}, apperror.New(apperror.CodeCacheFailed,
			apperror.WithCause(err),
			apperror.WithContext(key))
	}
	if len(vals) == 0 {
		span.SetAttributes(attribute.Bool("hit", false))
		return domain.VenueRate{}, apperror.New(apperror.CodeCacheMiss, apperror.WithContext(key))
	}
	span.SetAttributes(attribute.Bool("hit", true))

	rate, err := decimal.NewFromString(vals["rate"])
	if err != nil {
		return domain.VenueRate{}, apperror.New(apperror.CodeCacheFailed,
			apperror.WithCause(err),
			apperror.WithContext(key+" rate"))
	}
	ts, err := strconv.ParseInt(vals["ts"], 10, 64)
	if err != nil {
		return domain.VenueRate{}, apperror.New(apperror.CodeCacheFailed,
			apperror.WithCause(err),
			apperror.WithContext(key+" ts"))
	}

	return domain.VenueRate{
		Venue:      venue,
		Pair:       pair,
		Rate:       rate,
		ObservedAt: time.Unix(0, ts).UTC(),
		Source:     vals["source"],
	}, nil
}
