package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestNew_Burst(t *testing.T) {
	tests := []struct {
		name      string
		rpm       int
		wantBurst int
	}{
		{name: "coinapi_free_tier", rpm: 100, wantBurst: 10},
		{name: "tiny_rate_min_burst", rpm: 5, wantBurst: 1},
		{name: "disabled", rpm: 0, wantBurst: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.rpm).Burst(); got != tt.wantBurst {
				t.Errorf("Burst() = %d, want %d", got, tt.wantBurst)
			}
		})
	}
}

func TestLimiter_AllowExhaustsBurst(t *testing.T) {
	l := NewWithBurst(0.001, 2)
	if !l.Allow() || !l.Allow() {
		t.Fatal("expected burst of 2")
	}
	if l.Allow() {
		t.Error("third call should be limited")
	}
}

func TestLimiter_WaitRespectsContext(t *testing.T) {
	l := NewWithBurst(0.001, 1)
	l.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx); err == nil {
		t.Error("expected context error while waiting for a token")
	}
}

func TestNew_DisabledNeverBlocks(t *testing.T) {
	l := New(0)
	for i := 0; i < 100; i++ {
		if !l.Allow() {
			t.Fatalf("disabled limiter refused call %d", i)
		}
	}
}
