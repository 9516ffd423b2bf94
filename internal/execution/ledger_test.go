package execution

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeMind/internal/domain/models"
	"TradeMind/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	lgr, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return lgr
}

func newTestLedger(t *testing.T, capital float64) *SimLedger {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "ledger.json")
	l := NewSimLedger(path, capital, testLogger(t))
	require.NoError(t, l.Load())
	return l
}

func longIntent(qty, entry float64) *models.OrderIntent {
	return &models.OrderIntent{
		Symbol:     "ETHUSDT",
		Direction:  models.DirectionLong,
		Quantity:   qty,
		EntryPrice: entry,
		Leverage:   10,
	}
}

func TestLedgerFreshStart(t *testing.T) {
	l := newTestLedger(t, 100)
	assert.Equal(t, 100.0, l.Capital())
	assert.Equal(t, 0.0, l.OpenROI())
}

func TestLedgerOpenDeductsMargin(t *testing.T) {
	l := newTestLedger(t, 100)

	// notional = 10 * 0.001 * 2500 = 25
	data, err := l.Open(longIntent(0.001, 2500), time.Now())
	require.NoError(t, err)

	assert.Equal(t, "simulation", data["mode"])
	assert.InDelta(t, 25.0, data["margin"].(float64), 1e-9)
	assert.InDelta(t, 75.0, l.Capital(), 1e-9)
	assert.Equal(t, 0, data["replenish"].(int))
}

func TestLedgerCloseRealizesPnL(t *testing.T) {
	l := newTestLedger(t, 100)
	_, err := l.Open(longIntent(0.001, 2500), time.Now())
	require.NoError(t, err)

	// long 0.001 from 2500 to 2600: pnl = 0.1, margin 25 returns
	l.Close(2600)
	assert.InDelta(t, 100.1, l.Capital(), 1e-9)
	assert.Equal(t, 0.0, l.OpenROI())
}

func TestLedgerShortPnLSign(t *testing.T) {
	l := newTestLedger(t, 100)
	intent := longIntent(0.001, 2500)
	intent.Direction = models.DirectionShort
	_, err := l.Open(intent, time.Now())
	require.NoError(t, err)

	// short profits on the way down
	l.Close(2400)
	assert.InDelta(t, 100.1, l.Capital(), 1e-9)
}

func TestLedgerFlipClosesExistingPosition(t *testing.T) {
	l := newTestLedger(t, 100)
	_, err := l.Open(longIntent(0.001, 2500), time.Now())
	require.NoError(t, err)

	// opening a short at 2600 settles the long there first
	short := longIntent(0.001, 2600)
	short.Direction = models.DirectionShort
	_, err = l.Open(short, time.Now())
	require.NoError(t, err)

	// 100 + 0.1 long pnl - 26 new margin
	assert.InDelta(t, 74.1, l.Capital(), 1e-9)

	snap := l.Snapshot()
	pos, ok := snap["position"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, models.DirectionShort, pos["direction"])
}

func TestLedgerReplenishesWhenStarved(t *testing.T) {
	l := newTestLedger(t, 100)

	// bleed the account with losing round trips of margin 90
	_, err := l.Open(longIntent(0.0036, 2500), time.Now())
	require.NoError(t, err)
	l.Close(0)
	assert.InDelta(t, 91.0, l.Capital(), 1e-9)

	_, err = l.Open(longIntent(0.0036, 2500), time.Now())
	require.NoError(t, err)
	l.Close(0)
	assert.InDelta(t, 82.0, l.Capital(), 1e-9)

	// 82 cannot cover margin 90, the ledger tops back up to 100 first
	data, err := l.Open(longIntent(0.0036, 2500), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, data["replenish"].(int))
	assert.InDelta(t, 10.0, l.Capital(), 1e-9)

	// margin above even the replenished capital is an error
	_, err = l.Open(longIntent(1, 2500), time.Now())
	assert.Error(t, err)
}

func TestLedgerOpenROI(t *testing.T) {
	l := newTestLedger(t, 100)
	_, err := l.Open(longIntent(0.001, 2500), time.Now())
	require.NoError(t, err)

	// +2.5 pnl on 25 margin = +10%
	l.MarkToMarket(5000)
	assert.InDelta(t, 10.0, l.OpenROI(), 1e-9)

	l.MarkToMarket(2000)
	assert.InDelta(t, -2.0, l.OpenROI(), 1e-9)
}

func TestLedgerSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	lgr := testLogger(t)

	l := NewSimLedger(path, 100, lgr)
	require.NoError(t, l.Load())
	_, err := l.Open(longIntent(0.001, 2500), time.Now())
	require.NoError(t, err)

	restored := NewSimLedger(path, 100, lgr)
	require.NoError(t, restored.Load())
	assert.InDelta(t, 75.0, restored.Capital(), 1e-9)

	snap := restored.Snapshot()
	_, hasPosition := snap["position"]
	assert.True(t, hasPosition)
}
