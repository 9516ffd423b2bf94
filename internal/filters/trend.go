package filters

import (
	"fmt"

	"TradeMind/internal/domain/models"
	"TradeMind/pkg/config"
)

// TrendConfirmation scores the short-term trend from the closes of the
// last N candles: +1 per rising step, -1 per falling step, normalized. A
// fully monotonic run is reported as WARN so the adjudicator sees a
// confirmed directional push.
type TrendConfirmation struct {
	cfg config.TrendConfig
}

func NewTrendConfirmation(cfg config.TrendConfig) *TrendConfirmation {
	return &TrendConfirmation{cfg: cfg}
}

func (f *TrendConfirmation) Name() string { return "trend_confirmation" }

func (f *TrendConfirmation) Evaluate(state models.MarketState) models.FilterResult {
	need := f.cfg.Candles
	if len(state.Candles) < need {
		return shortfall(
			fmt.Sprintf("need %d candles, have %d", need, len(state.Candles)),
			len(state.Candles), need,
		)
	}

	window := state.Candles[len(state.Candles)-need:]
	up, down := 0, 0
	for i := 1; i < len(window); i++ {
		switch {
		case window[i].Close > window[i-1].Close:
			up++
		case window[i].Close < window[i-1].Close:
			down++
		}
	}
	steps := len(window) - 1
	net := float64(up-down) / float64(steps)

	direction := 0.0
	flag := models.FlagNone
	if up == steps {
		direction = 1
		flag = models.FlagWarn
	} else if down == steps {
		direction = -1
		flag = models.FlagWarn
	}

	score := net
	if score < 0 {
		score = -score
	}

	return models.FilterResult{
		Score: round4(score),
		Flag:  flag,
		Metrics: map[string]float64{
			"direction":  direction,
			"up_steps":   float64(up),
			"down_steps": float64(down),
			"net":        round4(net),
		},
	}
}
