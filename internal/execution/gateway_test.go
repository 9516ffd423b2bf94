package execution

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeMind/internal/domain/models"
)

type fakeExchange struct {
	calls int
	data  map[string]any
	err   error
}

func (f *fakeExchange) SubmitOrder(_ context.Context, _ *models.OrderIntent) (map[string]any, error) {
	f.calls++
	return f.data, f.err
}

func testVerdict() *models.Verdict {
	return &models.Verdict{
		Direction:       models.DirectionLong,
		Confidence:      0.8,
		Reason:          "breakout retest",
		EntryPrice:      2500,
		CandleTimestamp: 1700000000000,
	}
}

func TestGatewayDryRunUsesLedger(t *testing.T) {
	ex := &fakeExchange{}
	ledger := newTestLedger(t, 100)
	g := NewGateway(ex, ledger, nil, testLogger(t), 1000, true)

	rec, err := g.Execute(context.Background(), longIntent(0.001, 2500), testVerdict(), time.Now())
	require.NoError(t, err)

	assert.True(t, rec.Simulated)
	assert.False(t, rec.Failed)
	assert.Equal(t, "simulation", rec.OrderData["mode"])
	assert.Equal(t, int64(1700000000000), rec.CandleTimestamp)
	assert.Equal(t, 0, ex.calls, "dry run must never reach the exchange")
	assert.InDelta(t, 75.0, ledger.Capital(), 1e-9)
}

func TestGatewayLiveRoutesToExchange(t *testing.T) {
	ex := &fakeExchange{data: map[string]any{"orderId": float64(42)}}
	ledger := newTestLedger(t, 100)
	g := NewGateway(ex, ledger, nil, testLogger(t), 1000, false)

	rec, err := g.Execute(context.Background(), longIntent(0.001, 2500), testVerdict(), time.Now())
	require.NoError(t, err)

	assert.False(t, rec.Simulated)
	assert.Equal(t, 1, ex.calls)
	assert.Equal(t, float64(42), rec.OrderData["orderId"])
	assert.InDelta(t, 100.0, ledger.Capital(), 1e-9, "live orders do not touch the paper balance")
}

func TestGatewaySubmitFailure(t *testing.T) {
	ex := &fakeExchange{err: fmt.Errorf("insufficient margin")}
	g := NewGateway(ex, newTestLedger(t, 100), nil, testLogger(t), 1000, false)

	rec, err := g.Execute(context.Background(), longIntent(0.001, 2500), testVerdict(), time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrExecutionFailed))

	require.NotNil(t, rec, "a failed submit still yields a record")
	assert.True(t, rec.Failed)
	assert.Contains(t, rec.Reason, "insufficient margin")
}

func TestGatewayValidationRejectsBadIntents(t *testing.T) {
	ex := &fakeExchange{}
	g := NewGateway(ex, newTestLedger(t, 100), nil, testLogger(t), 2, true)

	cases := map[string]*models.OrderIntent{
		"empty_symbol":    {Direction: models.DirectionLong, Quantity: 1, EntryPrice: 100, Leverage: 10},
		"none_direction":  {Symbol: "ETHUSDT", Direction: models.DirectionNone, Quantity: 1, EntryPrice: 100, Leverage: 10},
		"zero_quantity":   {Symbol: "ETHUSDT", Direction: models.DirectionLong, Quantity: 0, EntryPrice: 100, Leverage: 10},
		"excess_quantity": {Symbol: "ETHUSDT", Direction: models.DirectionLong, Quantity: 5, EntryPrice: 100, Leverage: 10},
		"zero_entry":      {Symbol: "ETHUSDT", Direction: models.DirectionLong, Quantity: 1, EntryPrice: 0, Leverage: 10},
		"zero_leverage":   {Symbol: "ETHUSDT", Direction: models.DirectionLong, Quantity: 1, EntryPrice: 100, Leverage: 0},
		"excess_leverage": {Symbol: "ETHUSDT", Direction: models.DirectionLong, Quantity: 1, EntryPrice: 100, Leverage: 300},
	}
	for name, intent := range cases {
		t.Run(name, func(t *testing.T) {
			rec, err := g.Execute(context.Background(), intent, testVerdict(), time.Now())
			assert.True(t, errors.Is(err, models.ErrExecutionFailed))
			assert.True(t, rec.Failed)
		})
	}
	assert.Equal(t, 0, ex.calls, "invalid intents never reach a submit path")
}

func TestGatewayAccountView(t *testing.T) {
	ledger := newTestLedger(t, 100)
	g := NewGateway(&fakeExchange{}, ledger, nil, testLogger(t), 1000, true)

	acct := g.Account()
	assert.Equal(t, 100.0, acct.Capital)
	assert.Equal(t, 0.0, acct.OpenROI)

	_, err := g.Execute(context.Background(), longIntent(0.001, 2500), testVerdict(), time.Now())
	require.NoError(t, err)
	ledger.MarkToMarket(5000)

	acct = g.Account()
	assert.InDelta(t, 75.0, acct.Capital, 1e-9)
	assert.InDelta(t, 10.0, acct.OpenROI, 1e-9)
}
