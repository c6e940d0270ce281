package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fd1az/cycle-arb/internal/logger"
)

func TestServer_Endpoints(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		path       string
		wantStatus int
	}{
		{
			name:       "live_always_ok",
			checks:     map[string]CheckFunc{"redis": failing},
			path:       "/live",
			wantStatus: http.StatusOK,
		},
		{
			name:       "ready_with_passing_checks",
			checks:     map[string]CheckFunc{"redis": passing, "scan": passing},
			path:       "/ready",
			wantStatus: http.StatusOK,
		},
		{
			name:       "ready_with_failing_check",
			checks:     map[string]CheckFunc{"redis": passing, "postgres": failing},
			path:       "/ready",
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "health_degraded",
			checks:     map[string]CheckFunc{"postgres": failing},
			path:       "/health",
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "health_no_checks",
			path:       "/health",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(0, "test", logger.NewNop())
			for name, fn := range tt.checks {
				s.RegisterCheck(name, fn)
			}

			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestServer_HealthBody(t *testing.T) {
	s := NewServer(0, "v1.2.3", logger.NewNop())
	s.RegisterCheck("postgres", failing)
	s.RegisterCheck("redis", passing)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var status Status
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != "degraded" || status.Version != "v1.2.3" {
		t.Errorf("status = %+v", status)
	}
	if status.Checks["postgres"].Message != "down" {
		t.Errorf("postgres check = %+v", status.Checks["postgres"])
	}
	if !status.Checks["redis"].Healthy {
		t.Error("redis should be healthy")
	}
}

func passing(context.Context) (bool, string) { return true, "" }
func failing(context.Context) (bool, string) { return false, "down" }
