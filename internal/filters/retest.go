package filters

import (
	"fmt"
	"math"

	"TradeMind/internal/domain/models"
	"TradeMind/pkg/config"
)

// Retest checks that the latest close is near enough to the breakout level
// (the highest high of the lookback window, excluding the live candle) for
// a valid retest entry. An entry drifting beyond max_distance_pct is
// chasing, not retesting.
type Retest struct {
	cfg config.RetestConfig
}

func NewRetest(cfg config.RetestConfig) *Retest { return &Retest{cfg: cfg} }

func (f *Retest) Name() string { return "retest_entry" }

func (f *Retest) Evaluate(state models.MarketState) models.FilterResult {
	need := f.cfg.Lookback + 1
	if len(state.Candles) < need {
		return shortfall(
			fmt.Sprintf("need %d candles, have %d", need, len(state.Candles)),
			len(state.Candles), need,
		)
	}

	window := state.Candles[len(state.Candles)-need : len(state.Candles)-1]
	level := window[0].High
	for _, c := range window {
		if c.High > level {
			level = c.High
		}
	}
	entry := state.Candles[len(state.Candles)-1].Close
	if level <= 0 || entry <= 0 {
		return models.FilterResult{
			Flag:    models.FlagNone,
			Reason:  "zero or negative price in window",
			Metrics: map[string]float64{"breakout_level": level, "entry_price": entry},
		}
	}

	distance := math.Abs(entry-level) / level

	flag := models.FlagNone
	if distance > f.cfg.MaxDistancePct {
		flag = models.FlagTrigger
	}

	return models.FilterResult{
		Score: round4(clamp01(1 - distance/f.cfg.MaxDistancePct)),
		Flag:  flag,
		Metrics: map[string]float64{
			"breakout_level": level,
			"entry_price":    entry,
			"distance_pct":   round4(distance * 100),
			"max_pct":        round4(f.cfg.MaxDistancePct * 100),
		},
	}
}
