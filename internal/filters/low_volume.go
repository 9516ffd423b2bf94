package filters

import (
	"fmt"

	"TradeMind/internal/domain/models"
	"TradeMind/pkg/config"
)

// LowVolume guards against dead tape: when every one of the last N candles
// printed below the minimum volume there is nothing to trade against.
type LowVolume struct {
	cfg config.LowVolumeConfig
}

func NewLowVolume(cfg config.LowVolumeConfig) *LowVolume { return &LowVolume{cfg: cfg} }

func (f *LowVolume) Name() string { return "low_volume_guard" }

func (f *LowVolume) Evaluate(state models.MarketState) models.FilterResult {
	need := f.cfg.Candles
	if len(state.Candles) < need {
		return shortfall(
			fmt.Sprintf("need %d candles, have %d", need, len(state.Candles)),
			len(state.Candles), need,
		)
	}

	window := state.Candles[len(state.Candles)-need:]
	allBelow := true
	minSeen := window[0].Volume
	for _, c := range window {
		if c.Volume >= f.cfg.MinVolume {
			allBelow = false
		}
		if c.Volume < minSeen {
			minSeen = c.Volume
		}
	}
	latest := window[len(window)-1].Volume

	flag := models.FlagNone
	switch {
	case allBelow:
		flag = models.FlagTrigger
	case latest < f.cfg.MinVolume:
		flag = models.FlagWarn
	}

	return models.FilterResult{
		Score: round4(clamp01(1 - latest/f.cfg.MinVolume)),
		Flag:  flag,
		Metrics: map[string]float64{
			"latest_volume": round4(latest),
			"min_volume":    f.cfg.MinVolume,
			"lowest_seen":   round4(minSeen),
		},
	}
}
