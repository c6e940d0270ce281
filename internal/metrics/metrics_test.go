package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestNewMetricProvider_Prometheus(t *testing.T) {
	ctx := context.Background()

	mp, err := NewMetricProvider(ctx,
		WithServiceName("cycle-arb-test"),
		WithProviderConfig(NewPrometheusConfig()),
	)
	if err != nil {
		t.Fatalf("NewMetricProvider() error = %v", err)
	}
	t.Cleanup(func() { _ = mp.Shutdown(ctx) })

	counter, err := otel.Meter("metrics_test").Int64Counter("metrics_test_events_total")
	if err != nil {
		t.Fatalf("counter: %v", err)
	}
	counter.Add(ctx, 3)

	srv := NewPrometheusServer(nil, WithPort("0"))
	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "metrics_test_events_total") {
		t.Errorf("scrape output missing counter:\n%s", rec.Body.String())
	}
}

func TestWithPort(t *testing.T) {
	tests := []struct {
		name string
		opts []PromOptionFn
		want string
	}{
		{name: "default_port", want: ":2223"},
		{name: "custom_port", opts: []PromOptionFn{WithPort("9464")}, want: ":9464"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewPrometheusServer(nil, tt.opts...)
			if srv.server.Addr != tt.want {
				t.Errorf("addr = %q, want %q", srv.server.Addr, tt.want)
			}
		})
	}
}
