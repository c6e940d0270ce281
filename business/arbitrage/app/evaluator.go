package app

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/cycle-arb/business/arbitrage/domain"
	"github.com/fd1az/cycle-arb/internal/apperror"
)

// OpportunityEvaluator turns a detector result into an opportunity report.
type OpportunityEvaluator struct {
	tradeAmount decimal.Decimal
	now         func() time.Time
}

// NewOpportunityEvaluator creates an evaluator sizing every opportunity at
// tradeAmount base units.
func NewOpportunityEvaluator(tradeAmount decimal.Decimal) *OpportunityEvaluator {
	return &OpportunityEvaluator{
		tradeAmount: tradeAmount,
		now:         time.Now,
	}
}

// Evaluate returns nil without error when found is false. The profit figure
// uses the start venue's rate from s, the snapshot the cycle was detected on.
func (e *OpportunityEvaluator) Evaluate(c domain.Cycle, found bool, s *domain.QuoteSnapshot) (*domain.Opportunity, error) {
	if !found {
		return nil, nil
	}

	q, ok := s.Quote(c.Start())
	if !ok {
		return nil, apperror.New(apperror.CodeOpportunityEvaluationError,
			apperror.WithMessage(fmt.Sprintf("start venue %q missing from snapshot", c.Start())),
			apperror.WithContext(c.String()),
		)
	}

	return domain.NewOpportunity(c, q.Rate, e.tradeAmount, e.now()), nil
}
