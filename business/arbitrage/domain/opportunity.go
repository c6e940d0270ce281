package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExecutionStep represents a step in the arbitrage execution plan.
type ExecutionStep struct {
	Number      int
	Description string
}

// Order is one instruction for the execution collaborator.
type Order struct {
	Venue  VenueID
	Side   Side
	Amount decimal.Decimal
}

// Opportunity is a detected cycle plus what is needed to act on it.
type Opportunity struct {
	ID             string
	DetectedAt     time.Time
	Cycle          Cycle
	StartRate      float64
	TradeAmount    decimal.Decimal
	Profit         *ProfitEstimate
	Orders         []Order
	ExecutionSteps []ExecutionStep
}

// NewOpportunity builds the report for c. startRate is the rate of the
// cycle's start venue in the snapshot it was detected on.
func NewOpportunity(c Cycle, startRate float64, tradeAmount decimal.Decimal, detectedAt time.Time) *Opportunity {
	profit := NewProfitEstimate(c, startRate, tradeAmount)

	legs := c.Legs()
	orders := make([]Order, 0, 2*len(legs))
	steps := make([]ExecutionStep, 0, len(legs))
	for i, leg := range legs {
		orders = append(orders,
			Order{Venue: leg.From, Side: SideBuy, Amount: tradeAmount},
			Order{Venue: leg.To, Side: SideSell, Amount: tradeAmount},
		)
		steps = append(steps, ExecutionStep{
			Number:      i + 1,
			Description: fmt.Sprintf("Buy %s on %s, sell on %s", tradeAmount.String(), leg.From, leg.To),
		})
	}

	return &Opportunity{
		ID:             uuid.NewString(),
		DetectedAt:     detectedAt,
		Cycle:          c,
		StartRate:      startRate,
		TradeAmount:    tradeAmount,
		Profit:         &profit,
		Orders:         orders,
		ExecutionSteps: steps,
	}
}

// IsProfitable returns true if the compounded multiplier exceeds 1.
func (o *Opportunity) IsProfitable() bool {
	return o.Profit != nil && o.Profit.IsProfitable
}
