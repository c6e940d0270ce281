package domain

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewProfitEstimate(t *testing.T) {
	tests := []struct {
		name           string
		multiplier     float64
		startRate      float64
		amount         string
		wantBps        string
		wantPerUnit    string
		wantTotal      string
		wantProfitable bool
	}{
		{
			name:           "one_percent_on_100",
			multiplier:     1.01,
			startRate:      100,
			amount:         "2",
			wantBps:        "100",
			wantPerUnit:    "1",
			wantTotal:      "2",
			wantProfitable: true,
		},
		{
			name:           "ten_bps_on_btc",
			multiplier:     1.001,
			startRate:      64000,
			amount:         "0.5",
			wantBps:        "10",
			wantPerUnit:    "64",
			wantTotal:      "32",
			wantProfitable: true,
		},
		{
			name:        "break_even",
			multiplier:  1,
			startRate:   100,
			amount:      "1",
			wantBps:     "0",
			wantPerUnit: "0",
			wantTotal:   "0",
		},
		{
			name:        "loss",
			multiplier:  0.995,
			startRate:   200,
			amount:      "1",
			wantBps:     "-50",
			wantPerUnit: "-1",
			wantTotal:   "-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Cycle{Venues: []VenueID{"A", "B", "A"}, TotalWeight: -math.Log(tt.multiplier)}
			p := NewProfitEstimate(c, tt.startRate, decimal.RequireFromString(tt.amount))

			assertDecimal(t, "ReturnBps", p.ReturnBps, tt.wantBps)
			assertDecimal(t, "PerUnit", p.PerUnit, tt.wantPerUnit)
			assertDecimal(t, "Total", p.Total, tt.wantTotal)
			if p.IsProfitable != tt.wantProfitable {
				t.Errorf("IsProfitable = %v, want %v", p.IsProfitable, tt.wantProfitable)
			}
		})
	}
}

func TestNewOpportunity(t *testing.T) {
	c := Cycle{Venues: []VenueID{"A", "B", "C", "A"}, TotalWeight: -math.Log(1.002)}
	amount := decimal.RequireFromString("0.25")

	opp := NewOpportunity(c, 100, amount, testTime)

	if opp.ID == "" {
		t.Error("ID should be set")
	}
	if !opp.DetectedAt.Equal(testTime) {
		t.Errorf("DetectedAt = %v", opp.DetectedAt)
	}
	if !opp.IsProfitable() {
		t.Error("IsProfitable() = false")
	}
	assertDecimal(t, "PerUnit", opp.Profit.PerUnit, "0.2")

	wantOrders := []Order{
		{Venue: "A", Side: SideBuy}, {Venue: "B", Side: SideSell},
		{Venue: "B", Side: SideBuy}, {Venue: "C", Side: SideSell},
		{Venue: "C", Side: SideBuy}, {Venue: "A", Side: SideSell},
	}
	if len(opp.Orders) != len(wantOrders) {
		t.Fatalf("len(Orders) = %d, want %d", len(opp.Orders), len(wantOrders))
	}
	for i, want := range wantOrders {
		got := opp.Orders[i]
		if got.Venue != want.Venue || got.Side != want.Side || !got.Amount.Equal(amount) {
			t.Errorf("Orders[%d] = %+v, want %s %s %s", i, got, want.Side, want.Venue, amount)
		}
	}

	if len(opp.ExecutionSteps) != 3 {
		t.Fatalf("len(ExecutionSteps) = %d", len(opp.ExecutionSteps))
	}
	for i, s := range opp.ExecutionSteps {
		if s.Number != i+1 {
			t.Errorf("step %d numbered %d", i, s.Number)
		}
	}

	other := NewOpportunity(c, 100, amount, testTime)
	if other.ID == opp.ID {
		t.Error("opportunity IDs should be unique")
	}
}

func assertDecimal(t *testing.T, field string, got decimal.Decimal, want string) {
	t.Helper()
	w := decimal.RequireFromString(want)
	if !got.Round(6).Equal(w) {
		t.Errorf("%s = %s, want %s", field, got, w)
	}
}
