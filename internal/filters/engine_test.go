package filters

import (
	"context"
	"testing"
	"time"

	"github.com/creasty/defaults"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeMind/internal/domain/models"
	"TradeMind/pkg/config"
)

func defaultFilters(t *testing.T) config.FiltersConfig {
	t.Helper()
	var fc config.FiltersConfig
	require.NoError(t, defaults.Set(&fc))
	return fc
}

func flatCandles(n int, close float64) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{
			OpenTime: int64(i+1) * 60000,
			Open:     close - 4,
			High:     close + 1,
			Low:      close - 9,
			Close:    close,
			Volume:   20000,
		}
	}
	return out
}

func TestEngineStampsAllResults(t *testing.T) {
	engine := NewEngine(NewRegistry(defaultFilters(t)), nil)
	now := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	state := models.MarketState{
		Symbol:  "ETHUSDT",
		Candles: flatCandles(50, 100),
	}
	results := engine.Evaluate(context.Background(), state, now)

	require.Len(t, results, len(engine.Filters()))
	for i, r := range results {
		assert.Equal(t, engine.Filters()[i].Name(), r.FilterName)
		assert.Equal(t, now, r.ModuleTimestamp)
		assert.Equal(t, state.CandleTimestamp(), r.CandleTimestamp)
		assert.NotNil(t, r.Metrics)
	}
}

func TestEngineDeterministic(t *testing.T) {
	engine := NewEngine(NewRegistry(defaultFilters(t)), nil)
	now := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	state := models.MarketState{
		Symbol:  "ETHUSDT",
		Candles: flatCandles(50, 100),
		Book: models.BookSnapshot{
			Bids: []models.BookLevel{{Price: 99.9, Qty: 5}, {Price: 99.8, Qty: 4}},
			Asks: []models.BookLevel{{Price: 100.1, Qty: 6}, {Price: 100.2, Qty: 3}},
		},
		MarkPrice: 100,
	}

	first := engine.Evaluate(context.Background(), state, now)
	second := engine.Evaluate(context.Background(), state, now)
	assert.Equal(t, first, second)
}

func TestEngineShortfallDegradesWithoutError(t *testing.T) {
	engine := NewEngine(NewRegistry(defaultFilters(t)), nil)
	now := time.Now().UTC()

	// two candles is below every lookback
	state := models.MarketState{
		Symbol:  "ETHUSDT",
		Candles: flatCandles(2, 100),
	}
	results := engine.Evaluate(context.Background(), state, now)

	require.Len(t, results, len(engine.Filters()))
	for _, r := range results {
		assert.Equal(t, models.FlagNone, r.Flag, "filter %s should degrade to NONE", r.FilterName)
	}
}

func TestAverageTrueRangeExcludesLatest(t *testing.T) {
	candles := flatCandles(6, 100)
	// blow up the latest candle; ATR over the previous 5 must not see it
	candles[5].High = 500
	candles[5].Low = 0

	atr := averageTrueRange(candles, 5)
	assert.InDelta(t, 10.0, atr, 0.0001)
}
