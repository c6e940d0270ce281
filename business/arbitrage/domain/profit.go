package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

var bpsFactor = decimal.NewFromInt(10000)

// ProfitEstimate is the diagnostic profit figure for a cycle.
type ProfitEstimate struct {
	Multiplier   decimal.Decimal // compounded rate around the loop
	ReturnBps    decimal.Decimal // (Multiplier-1) * 10000
	PerUnit      decimal.Decimal // quote currency per base unit traded
	Total        decimal.Decimal // PerUnit * trade amount
	IsProfitable bool
}

// NewProfitEstimate derives the estimate from the cycle weight and the start
// venue's rate.
func NewProfitEstimate(c Cycle, startRate float64, tradeAmount decimal.Decimal) ProfitEstimate {
	mult := c.Multiplier()
	if math.IsNaN(mult) || math.IsInf(mult, 0) {
		mult = 0
	}

	multiplier := decimal.NewFromFloat(mult)
	gain := multiplier.Sub(decimal.NewFromInt(1))
	perUnit := gain.Mul(decimal.NewFromFloat(startRate))

	return ProfitEstimate{
		Multiplier:   multiplier,
		ReturnBps:    gain.Mul(bpsFactor),
		PerUnit:      perUnit,
		Total:        perUnit.Mul(tradeAmount),
		IsProfitable: mult > 1,
	}
}
