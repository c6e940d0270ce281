package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/cycle-arb/business/pricing/domain"
	"github.com/fd1az/cycle-arb/internal/apperror"
	"github.com/fd1az/cycle-arb/internal/logger"
)

// mockLogger implements logger.LoggerInterface for testing.
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

var _ logger.LoggerInterface = (*mockLogger)(nil)

var (
	btcUSD  = domain.Pair{Base: "BTC", Quote: "USD"}
	nowTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
)

type fakeProvider struct {
	rates map[string]float64
	fail  map[string]error
	block map[string]bool // wait for ctx cancellation
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) GetRate(ctx context.Context, venue string, pair domain.Pair) (domain.VenueRate, error) {
	if f.block[venue] {
		<-ctx.Done()
		return domain.VenueRate{}, ctx.Err()
	}
	if err := f.fail[venue]; err != nil {
		return domain.VenueRate{}, err
	}
	return domain.VenueRate{
		Venue:      venue,
		Pair:       pair,
		Rate:       decimal.NewFromFloat(f.rates[venue]),
		ObservedAt: nowTime,
		Source:     "fake",
	}, nil
}

type memCache struct {
	mu     sync.Mutex
	stored map[string]domain.VenueRate
}

func newMemCache() *memCache {
	return &memCache{stored: map[string]domain.VenueRate{}}
}

func (c *memCache) Store(_ context.Context, r domain.VenueRate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stored[r.Venue] = r
	return nil
}

func (c *memCache) Latest(_ context.Context, venue string, _ domain.Pair) (domain.VenueRate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.stored[venue]
	if !ok {
		return domain.VenueRate{}, apperror.New(apperror.CodeCacheMiss)
	}
	return r, nil
}

func newService(t *testing.T, p RateProvider, c RateCache, cfg ServiceConfig) *PricingService {
	t.Helper()
	svc, err := NewPricingService(p, c, cfg, &mockLogger{})
	if err != nil {
		t.Fatalf("NewPricingService() error = %v", err)
	}
	svc.now = func() time.Time { return nowTime }
	return svc
}

func TestPricingService_FetchRates(t *testing.T) {
	venues := []string{"BITSTAMP", "COINBASE", "KRAKEN"}

	tests := []struct {
		name         string
		provider     *fakeProvider
		wantVenues   []string
		wantFailures []string
		wantErr      bool
	}{
		{
			name:       "all_venues_succeed",
			provider:   &fakeProvider{rates: map[string]float64{"BITSTAMP": 64210, "COINBASE": 64350, "KRAKEN": 64190}},
			wantVenues: []string{"BITSTAMP", "COINBASE", "KRAKEN"},
		},
		{
			name: "one_venue_fails",
			provider: &fakeProvider{
				rates: map[string]float64{"BITSTAMP": 64210, "KRAKEN": 64190},
				fail:  map[string]error{"COINBASE": errors.New("503")},
			},
			wantVenues:   []string{"BITSTAMP", "KRAKEN"},
			wantFailures: []string{"COINBASE"},
		},
		{
			name: "one_venue_times_out",
			provider: &fakeProvider{
				rates: map[string]float64{"BITSTAMP": 64210, "COINBASE": 64350},
				block: map[string]bool{"KRAKEN": true},
			},
			wantVenues:   []string{"BITSTAMP", "COINBASE"},
			wantFailures: []string{"KRAKEN"},
		},
		{
			name: "all_venues_fail",
			provider: &fakeProvider{fail: map[string]error{
				"BITSTAMP": errors.New("x"), "COINBASE": errors.New("y"), "KRAKEN": errors.New("z"),
			}},
			wantFailures: []string{"BITSTAMP", "COINBASE", "KRAKEN"},
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(t, tt.provider, nil, ServiceConfig{Venues: venues, FetchTimeout: 20 * time.Millisecond})

			snap, err := svc.FetchRates(context.Background(), btcUSD)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FetchRates() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && apperror.GetCode(err) != apperror.CodeQuoteFetchFailed {
				t.Errorf("code = %s", apperror.GetCode(err))
			}

			if len(snap.Rates) != len(tt.wantVenues) {
				t.Fatalf("rates = %v, want venues %v", snap.Rates, tt.wantVenues)
			}
			for i, v := range tt.wantVenues {
				if snap.Rates[i].Venue != v {
					t.Errorf("Rates[%d].Venue = %s, want %s", i, snap.Rates[i].Venue, v)
				}
			}
			if len(snap.Failures) != len(tt.wantFailures) {
				t.Errorf("failures = %v, want %v", snap.Failures, tt.wantFailures)
			}
			for _, v := range tt.wantFailures {
				if snap.Failures[v] == nil {
					t.Errorf("missing failure for %s", v)
				}
			}
			if !snap.TakenAt.Equal(nowTime) || snap.Pair != btcUSD {
				t.Errorf("snapshot metadata = %v %v", snap.TakenAt, snap.Pair)
			}
		})
	}
}

func TestPricingService_CacheFallback(t *testing.T) {
	venues := []string{"BITSTAMP", "KRAKEN"}

	tests := []struct {
		name       string
		maxAge     time.Duration
		cachedAge  time.Duration
		wantKraken bool
		wantSource string
	}{
		{name: "fresh_cache_used", maxAge: time.Minute, cachedAge: 10 * time.Second, wantKraken: true, wantSource: domain.SourceCache},
		{name: "stale_cache_ignored", maxAge: time.Minute, cachedAge: 2 * time.Minute},
		{name: "fallback_disabled", maxAge: 0, cachedAge: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := newMemCache()
			_ = cache.Store(context.Background(), domain.VenueRate{
				Venue: "KRAKEN", Pair: btcUSD, Rate: decimal.NewFromInt(64000),
				ObservedAt: nowTime.Add(-tt.cachedAge), Source: domain.SourceCoinAPI,
			})

			p := &fakeProvider{
				rates: map[string]float64{"BITSTAMP": 64210},
				fail:  map[string]error{"KRAKEN": errors.New("down")},
			}
			svc := newService(t, p, cache, ServiceConfig{Venues: venues, CacheMaxAge: tt.maxAge})

			snap, err := svc.FetchRates(context.Background(), btcUSD)
			if err != nil {
				t.Fatalf("FetchRates() error = %v", err)
			}

			r, ok := snap.Rate("KRAKEN")
			if ok != tt.wantKraken {
				t.Fatalf("KRAKEN present = %v, want %v", ok, tt.wantKraken)
			}
			if ok && r.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", r.Source, tt.wantSource)
			}
			if !ok && snap.Failures["KRAKEN"] == nil {
				t.Error("KRAKEN failure should be recorded")
			}
		})
	}
}

func TestPricingService_WriteThrough(t *testing.T) {
	cache := newMemCache()
	p := &fakeProvider{rates: map[string]float64{"BITSTAMP": 64210, "KRAKEN": 64190}}
	svc := newService(t, p, cache, ServiceConfig{Venues: []string{"BITSTAMP", "KRAKEN"}})

	if _, err := svc.FetchRates(context.Background(), btcUSD); err != nil {
		t.Fatalf("FetchRates() error = %v", err)
	}

	for _, v := range []string{"BITSTAMP", "KRAKEN"} {
		r, err := cache.Latest(context.Background(), v, btcUSD)
		if err != nil {
			t.Errorf("cache missing %s: %v", v, err)
			continue
		}
		if r.Source != "fake" {
			t.Errorf("%s cached with source %q", v, r.Source)
		}
	}
}
