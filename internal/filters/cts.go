package filters

import (
	"fmt"

	"TradeMind/internal/domain/models"
	"TradeMind/pkg/config"
)

// CTS is the compression trap sensor. It classifies the most recent candle
// as narrow when its range falls below narrow_ratio x ATR of the lookback
// window, and checks the wick-to-body ratio against the rejection
// multiplier. Narrow + rejection wick is the trap signature.
type CTS struct {
	cfg config.CTSConfig
}

func NewCTS(cfg config.CTSConfig) *CTS { return &CTS{cfg: cfg} }

func (f *CTS) Name() string { return "cts" }

func (f *CTS) Evaluate(state models.MarketState) models.FilterResult {
	need := f.cfg.Lookback + 1 // latest candle plus the ATR window
	if len(state.Candles) < need {
		return shortfall(
			fmt.Sprintf("need %d candles for lookback %d, have %d", need, f.cfg.Lookback, len(state.Candles)),
			len(state.Candles), need,
		)
	}

	latest := state.Candles[len(state.Candles)-1]
	atr := averageTrueRange(state.Candles, f.cfg.Lookback)
	if atr <= 0 {
		return models.FilterResult{
			Flag:    models.FlagNone,
			Reason:  "flat lookback window, ATR is zero",
			Metrics: map[string]float64{"atr": 0},
		}
	}

	rangeRatio := latest.Range() / atr
	narrow := rangeRatio < f.cfg.NarrowRatio

	wick := latest.UpperWick()
	if lw := latest.LowerWick(); lw > wick {
		wick = lw
	}
	body := latest.Body()
	wickRatio := 0.0
	if body > 0 {
		wickRatio = wick / body
	} else if wick > 0 {
		// doji: all range is wick, treat as maximal rejection
		wickRatio = f.cfg.WickMultiplier
	}

	flag := models.FlagNone
	if narrow {
		flag = models.FlagWarn
		if wickRatio >= f.cfg.WickMultiplier {
			flag = models.FlagTrigger
		}
	}

	metrics := map[string]float64{
		"atr":         round4(atr),
		"range_ratio": round4(rangeRatio),
		"wick_ratio":  round4(wickRatio),
	}
	return models.FilterResult{
		Score:   round4(clamp01(1 - rangeRatio)),
		Flag:    flag,
		Metrics: metrics,
	}
}
