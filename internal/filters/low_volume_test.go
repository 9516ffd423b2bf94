package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"TradeMind/internal/domain/models"
	"TradeMind/pkg/config"
)

func volCandles(volumes ...float64) []models.Candle {
	out := make([]models.Candle, len(volumes))
	for i, v := range volumes {
		out[i] = models.Candle{OpenTime: int64(i+1) * 60000, Open: 100, High: 101, Low: 99, Close: 100, Volume: v}
	}
	return out
}

func TestLowVolumeGuard(t *testing.T) {
	f := NewLowVolume(config.LowVolumeConfig{Candles: 3, MinVolume: 15000})

	t.Run("all_below_triggers", func(t *testing.T) {
		r := f.Evaluate(models.MarketState{Candles: volCandles(1000, 2000, 500)})
		assert.Equal(t, models.FlagTrigger, r.Flag)
		assert.Equal(t, 500.0, r.Metrics["lowest_seen"])
	})

	t.Run("latest_below_warns", func(t *testing.T) {
		r := f.Evaluate(models.MarketState{Candles: volCandles(20000, 18000, 500)})
		assert.Equal(t, models.FlagWarn, r.Flag)
	})

	t.Run("healthy_tape", func(t *testing.T) {
		r := f.Evaluate(models.MarketState{Candles: volCandles(20000, 18000, 16000)})
		assert.Equal(t, models.FlagNone, r.Flag)
		assert.Equal(t, 0.0, r.Score)
	})

	t.Run("shortfall", func(t *testing.T) {
		r := f.Evaluate(models.MarketState{Candles: volCandles(1000)})
		assert.Equal(t, models.FlagNone, r.Flag)
		assert.NotEmpty(t, r.Reason)
	})
}

func TestTrendConfirmation(t *testing.T) {
	f := NewTrendConfirmation(config.TrendConfig{Candles: 4})

	closes := func(values ...float64) []models.Candle {
		out := make([]models.Candle, len(values))
		for i, v := range values {
			out[i] = models.Candle{OpenTime: int64(i+1) * 60000, Open: v - 1, High: v + 1, Low: v - 2, Close: v}
		}
		return out
	}

	t.Run("monotonic_up_warns", func(t *testing.T) {
		r := f.Evaluate(models.MarketState{Candles: closes(100, 101, 102, 103)})
		assert.Equal(t, models.FlagWarn, r.Flag)
		assert.Equal(t, 1.0, r.Metrics["direction"])
		assert.Equal(t, 1.0, r.Score)
	})

	t.Run("monotonic_down_warns", func(t *testing.T) {
		r := f.Evaluate(models.MarketState{Candles: closes(103, 102, 101, 100)})
		assert.Equal(t, models.FlagWarn, r.Flag)
		assert.Equal(t, -1.0, r.Metrics["direction"])
	})

	t.Run("mixed_is_none", func(t *testing.T) {
		r := f.Evaluate(models.MarketState{Candles: closes(100, 102, 101, 103)})
		assert.Equal(t, models.FlagNone, r.Flag)
		assert.Equal(t, 0.0, r.Metrics["direction"])
	})
}
