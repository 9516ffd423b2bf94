package filters

import (
	"fmt"
	"math"

	"TradeMind/internal/domain/models"
	"TradeMind/pkg/config"
)

// Breakout flags entries originating inside the breakout zone: when the
// latest close still sits within zone_threshold of the origin price of the
// current move, the breakout has not cleared its own compression cluster.
type Breakout struct {
	cfg config.BreakoutConfig
}

func NewBreakout(cfg config.BreakoutConfig) *Breakout { return &Breakout{cfg: cfg} }

func (f *Breakout) Name() string { return "breakout_zone_origin" }

func (f *Breakout) Evaluate(state models.MarketState) models.FilterResult {
	need := f.cfg.Lookback
	if len(state.Candles) < need {
		return shortfall(
			fmt.Sprintf("need %d candles, have %d", need, len(state.Candles)),
			len(state.Candles), need,
		)
	}

	origin := state.Candles[len(state.Candles)-need].Open
	entry := state.Candles[len(state.Candles)-1].Close
	if origin <= 0 || entry <= 0 {
		return models.FilterResult{
			Flag:    models.FlagNone,
			Reason:  "zero or negative price in window",
			Metrics: map[string]float64{"origin_price": origin, "entry_price": entry},
		}
	}

	distance := math.Abs(entry-origin) / origin
	inside := distance <= f.cfg.ZoneThreshold

	flag := models.FlagNone
	if inside {
		flag = models.FlagTrigger
	}

	return models.FilterResult{
		Score: round4(clamp01(1 - distance/f.cfg.ZoneThreshold)),
		Flag:  flag,
		Metrics: map[string]float64{
			"origin_price": origin,
			"entry_price":  entry,
			"distance_pct": round4(distance * 100),
			"zone_low":     round4(origin * (1 - f.cfg.ZoneThreshold)),
			"zone_high":    round4(origin * (1 + f.cfg.ZoneThreshold)),
		},
	}
}
