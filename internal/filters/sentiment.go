package filters

import (
	"math"

	"TradeMind/internal/domain/models"
)

// SentimentDivergence flags price action that conflicts with funding
// sentiment: price rising on negative funding, or falling on positive
// funding, marks a weak move likely to mean-revert.
type SentimentDivergence struct{}

func NewSentimentDivergence() *SentimentDivergence { return &SentimentDivergence{} }

func (f *SentimentDivergence) Name() string { return "sentiment_divergence" }

func (f *SentimentDivergence) Evaluate(state models.MarketState) models.FilterResult {
	if len(state.Candles) < 2 {
		return shortfall("need 2 candles for a price change", len(state.Candles), 2)
	}
	if state.FundingRate == 0 {
		return models.FilterResult{
			Flag:    models.FlagNone,
			Reason:  "no funding rate available",
			Metrics: map[string]float64{},
		}
	}

	prev := state.Candles[len(state.Candles)-2].Close
	last := state.Candles[len(state.Candles)-1].Close
	if prev <= 0 {
		return models.FilterResult{
			Flag:    models.FlagNone,
			Reason:  "non-positive previous close",
			Metrics: map[string]float64{},
		}
	}
	change := (last - prev) / prev

	divergent := (change > 0 && state.FundingRate < 0) || (change < 0 && state.FundingRate > 0)

	flag := models.FlagNone
	score := 0.0
	if divergent {
		flag = models.FlagTrigger
		score = round4(clamp01(math.Abs(change) * 100))
	}

	return models.FilterResult{
		Score: score,
		Flag:  flag,
		Metrics: map[string]float64{
			"funding_rate":     state.FundingRate,
			"price_change_pct": round4(change * 100),
		},
	}
}
