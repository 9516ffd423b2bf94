package filters

import (
	"math"

	"TradeMind/internal/domain/models"
	"TradeMind/pkg/config"
)

// OrderbookReversal weighs the strongest bid and ask walls near the mark
// price as potential reversal zones. A wall scores by how much of the local
// pressure it absorbs (70%) and how close it sits to the mark (30%); the
// dominant side's score, doubled and capped at 1, is the zone strength.
type OrderbookReversal struct {
	cfg config.OrderbookReversalConfig
}

func NewOrderbookReversal(cfg config.OrderbookReversalConfig) *OrderbookReversal {
	return &OrderbookReversal{cfg: cfg}
}

func (f *OrderbookReversal) Name() string { return "orderbook_reversal" }

func (f *OrderbookReversal) Evaluate(state models.MarketState) models.FilterResult {
	if len(state.Book.Bids) == 0 || len(state.Book.Asks) == 0 || state.MarkPrice <= 0 {
		return models.FilterResult{
			Flag:    models.FlagNone,
			Reason:  "market state is missing order book depth",
			Metrics: map[string]float64{},
		}
	}

	mark := state.MarkPrice
	lo := mark * (1 - f.cfg.DistancePct/100)
	hi := mark * (1 + f.cfg.DistancePct/100)

	bidWall, bidPressure := strongestWall(state.Book.Bids, func(p float64) bool { return p >= lo })
	askWall, askPressure := strongestWall(state.Book.Asks, func(p float64) bool { return p <= hi })

	totalPressure := bidPressure + askPressure
	if totalPressure <= 0 {
		return models.FilterResult{
			Flag:    models.FlagNone,
			Reason:  "no liquidity inside the scan distance",
			Metrics: map[string]float64{"scan_low": lo, "scan_high": hi},
		}
	}

	wallScore := func(w models.BookLevel) float64 {
		if w.Qty <= 0 {
			return 0
		}
		absorption := w.Qty / totalPressure
		distance := 1 - math.Abs(mark-w.Price)/mark
		return absorption*0.7 + distance*0.3
	}

	bidScore := wallScore(bidWall)
	askScore := wallScore(askWall)

	score := 0.0
	wall := models.BookLevel{}
	reason := ""
	switch {
	case bidScore > askScore:
		score = math.Min(round4(bidScore*2), 1.0)
		wall = bidWall
		reason = "support wall below mark"
	case askScore > bidScore:
		score = math.Min(round4(askScore*2), 1.0)
		wall = askWall
		reason = "resistance wall above mark"
	}

	flag := models.FlagNone
	switch {
	case score >= f.cfg.TriggerScore:
		flag = models.FlagTrigger
	case score >= f.cfg.WarnScore:
		flag = models.FlagWarn
	default:
		reason = "detected wall is weak or distant"
	}

	return models.FilterResult{
		Score:  score,
		Flag:   flag,
		Reason: reason,
		Metrics: map[string]float64{
			"wall_price":     wall.Price,
			"wall_qty":       round4(wall.Qty),
			"bid_score":      round4(bidScore),
			"ask_score":      round4(askScore),
			"total_pressure": round4(totalPressure),
		},
	}
}

// strongestWall returns the largest level inside the scan distance and the
// summed pressure of that side within it.
func strongestWall(levels []models.BookLevel, within func(price float64) bool) (models.BookLevel, float64) {
	var wall models.BookLevel
	pressure := 0.0
	for _, lv := range levels {
		if !within(lv.Price) {
			break
		}
		pressure += lv.Qty
		if lv.Qty > wall.Qty {
			wall = lv
		}
	}
	return wall, pressure
}
