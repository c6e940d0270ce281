package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/cycle-arb/business/arbitrage/domain"
	"github.com/fd1az/cycle-arb/internal/apperror"
)

type execCall struct {
	sql  string
	args []any
}

type fakeExecer struct {
	calls []execCall
	err   error
}

func (f *fakeExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	if f.err != nil {
		return pgconn.CommandTag{}, f.err
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func testOpportunity() *domain.Opportunity {
	c := domain.Cycle{Venues: []domain.VenueID{"BITSTAMP", "KRAKEN", "BITSTAMP"}, TotalWeight: -0.002}
	return domain.NewOpportunity(c, 64210, decimal.NewFromInt(2), time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
}

func TestOpportunityStore_Save(t *testing.T) {
	db := &fakeExecer{}
	store := newOpportunityStore(db)
	opp := testOpportunity()

	require.NoError(t, store.Save(context.Background(), opp))
	require.Len(t, db.calls, 1)

	call := db.calls[0]
	assert.True(t, strings.Contains(call.sql, "INSERT INTO arb_opportunities"))
	require.Len(t, call.args, 12)

	assert.Equal(t, opp.ID, call.args[0])
	assert.Equal(t, []string{"BITSTAMP", "KRAKEN", "BITSTAMP"}, call.args[2])
	assert.Equal(t, 2, call.args[3])
	assert.Equal(t, opp.Profit.ReturnBps, call.args[7])

	var orders []orderRow
	require.NoError(t, json.Unmarshal(call.args[11].([]byte), &orders))
	require.Len(t, orders, 4)
	assert.Equal(t, orderRow{Venue: "BITSTAMP", Side: "buy", Amount: "2"}, orders[0])
	assert.Equal(t, orderRow{Venue: "KRAKEN", Side: "sell", Amount: "2"}, orders[1])
}

func TestOpportunityStore_SaveError(t *testing.T) {
	store := newOpportunityStore(&fakeExecer{err: errors.New("connection reset")})

	err := store.Save(context.Background(), testOpportunity())
	assert.Equal(t, apperror.CodeStoreFailed, apperror.GetCode(err))
}

func TestOpportunityStore_SaveWithoutProfit(t *testing.T) {
	db := &fakeExecer{}
	store := newOpportunityStore(db)

	opp := testOpportunity()
	opp.Profit = nil

	err := store.Save(context.Background(), opp)
	assert.Equal(t, apperror.CodeInvalidInput, apperror.GetCode(err))
	assert.Empty(t, db.calls)
}

func TestOpportunityStore_EnsureSchema(t *testing.T) {
	db := &fakeExecer{}
	store := newOpportunityStore(db)

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.Len(t, db.calls, 1)
	assert.Contains(t, db.calls[0].sql, "CREATE TABLE IF NOT EXISTS arb_opportunities")

	failing := newOpportunityStore(&fakeExecer{err: errors.New("permission denied")})
	assert.Equal(t, apperror.CodeStoreFailed, apperror.GetCode(failing.EnsureSchema(context.Background())))
}
