package infra

import (
	"context"
	"sync"

	"github.com/fd1az/cycle-arb/business/arbitrage/app"
	"github.com/fd1az/cycle-arb/business/arbitrage/domain"
	"github.com/fd1az/cycle-arb/internal/apperror"
	"github.com/fd1az/cycle-arb/internal/logger"
)

var _ app.Executor = (*PaperExecutor)(nil)

// PaperExecutor records orders instead of sending them to a venue.
type PaperExecutor struct {
	logger logger.LoggerInterface

	mu     sync.Mutex
	orders []domain.Order
}

// NewPaperExecutor creates a new PaperExecutor.
func NewPaperExecutor(log logger.LoggerInterface) *PaperExecutor {
	return &PaperExecutor{logger: log}
}

// PlaceOrder implements app.Executor.
func (e *PaperExecutor) PlaceOrder(ctx context.Context, order domain.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if order.Venue == "" || !order.Amount.IsPositive() {
		return apperror.New(apperror.CodeOrderRejected,
			apperror.WithContext(string(order.Venue)+" "+order.Side.String()+" "+order.Amount.String()))
	}

	e.mu.Lock()
	e.orders = append(e.orders, order)
	e.mu.Unlock()

	e.logger.Info(ctx, "paper order placed",
		"venue", order.Venue,
		"side", order.Side.String(),
		"amount", order.Amount.String())
	return nil
}

// Orders returns the orders placed so far.
func (e *PaperExecutor) Orders() []domain.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.Order, len(e.orders))
	copy(out, e.orders)
	return out
}
