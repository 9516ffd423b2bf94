package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeMind/internal/domain/models"
	"TradeMind/pkg/config"
)

func ctsConfig() config.CTSConfig {
	return config.CTSConfig{Lookback: 5, NarrowRatio: 0.5, WickMultiplier: 2.0}
}

// wide bars with range 10 so the lookback ATR is 10
func ctsBase(n int) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{
			OpenTime: int64(i+1) * 60000,
			Open:     96,
			High:     105,
			Low:      95,
			Close:    104,
			Volume:   20000,
		}
	}
	return out
}

func TestCTSShortfall(t *testing.T) {
	f := NewCTS(ctsConfig())
	r := f.Evaluate(models.MarketState{Candles: ctsBase(3)})

	assert.Equal(t, models.FlagNone, r.Flag)
	assert.NotEmpty(t, r.Reason)
	assert.Equal(t, 3.0, r.Metrics["candles_have"])
	assert.Equal(t, 6.0, r.Metrics["candles_need"])
}

func TestCTSTriggerOnNarrowRejection(t *testing.T) {
	f := NewCTS(ctsConfig())
	candles := ctsBase(6)
	// narrow bar: range 1.9 against ATR 10, upper wick 18x the body
	candles[5] = models.Candle{
		OpenTime: 6 * 60000,
		Open:     100,
		High:     101.9,
		Low:      100,
		Close:    100.1,
		Volume:   20000,
	}

	r := f.Evaluate(models.MarketState{Candles: candles})
	require.Equal(t, models.FlagTrigger, r.Flag)
	assert.InDelta(t, 10.0, r.Metrics["atr"], 0.001)
	assert.InDelta(t, 0.19, r.Metrics["range_ratio"], 0.001)
	assert.GreaterOrEqual(t, r.Metrics["wick_ratio"], 2.0)
	assert.Greater(t, r.Score, 0.0)
}

func TestCTSWarnOnNarrowWithoutWick(t *testing.T) {
	f := NewCTS(ctsConfig())
	candles := ctsBase(6)
	// narrow full-body bar, no rejection wick
	candles[5] = models.Candle{
		OpenTime: 6 * 60000,
		Open:     100,
		High:     101.9,
		Low:      100,
		Close:    101.9,
		Volume:   20000,
	}

	r := f.Evaluate(models.MarketState{Candles: candles})
	assert.Equal(t, models.FlagWarn, r.Flag)
}

func TestCTSNoneOnWideBar(t *testing.T) {
	f := NewCTS(ctsConfig())
	r := f.Evaluate(models.MarketState{Candles: ctsBase(6)})
	assert.Equal(t, models.FlagNone, r.Flag)
}

func TestCTSFlatWindow(t *testing.T) {
	f := NewCTS(ctsConfig())
	candles := make([]models.Candle, 6)
	for i := range candles {
		candles[i] = models.Candle{OpenTime: int64(i+1) * 60000, Open: 100, High: 100, Low: 100, Close: 100}
	}

	r := f.Evaluate(models.MarketState{Candles: candles})
	assert.Equal(t, models.FlagNone, r.Flag)
	assert.Equal(t, 0.0, r.Metrics["atr"])
}
