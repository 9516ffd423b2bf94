package filters

import (
	"fmt"

	"TradeMind/internal/domain/models"
	"TradeMind/pkg/config"
)

// Compression detects a narrow-range cluster: the high-low band of the
// lookback window as a percentage of the average close. A band tighter
// than the threshold marks a compression zone a breakout can spring from.
type Compression struct {
	cfg config.CompressionConfig
}

func NewCompression(cfg config.CompressionConfig) *Compression {
	return &Compression{cfg: cfg}
}

func (f *Compression) Name() string { return "compression" }

func (f *Compression) Evaluate(state models.MarketState) models.FilterResult {
	need := f.cfg.Lookback
	if len(state.Candles) < need {
		return shortfall(
			fmt.Sprintf("need %d candles, have %d", need, len(state.Candles)),
			len(state.Candles), need,
		)
	}

	window := state.Candles[len(state.Candles)-need:]
	maxHigh, minLow, sumClose := window[0].High, window[0].Low, 0.0
	for _, c := range window {
		if c.High > maxHigh {
			maxHigh = c.High
		}
		if c.Low < minLow {
			minLow = c.Low
		}
		sumClose += c.Close
	}
	avgClose := sumClose / float64(need)
	if avgClose <= 0 {
		return models.FilterResult{
			Flag:    models.FlagNone,
			Reason:  "non-positive closes in window",
			Metrics: map[string]float64{},
		}
	}

	bandPct := (maxHigh - minLow) / avgClose * 100

	flag := models.FlagNone
	switch {
	case bandPct < f.cfg.ThresholdPct:
		flag = models.FlagTrigger
	case bandPct < f.cfg.ThresholdPct*1.5:
		flag = models.FlagWarn
	}

	return models.FilterResult{
		Score: round4(clamp01(1 - bandPct/f.cfg.ThresholdPct)),
		Flag:  flag,
		Metrics: map[string]float64{
			"band_pct":      round4(bandPct),
			"threshold_pct": f.cfg.ThresholdPct,
			"band_high":     maxHigh,
			"band_low":      minLow,
		},
	}
}
