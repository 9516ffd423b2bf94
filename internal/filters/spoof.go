package filters

import (
	"TradeMind/internal/domain/models"
	"TradeMind/pkg/config"
)

// Spoof scans both book sides near the mark price for spoof-shaped
// liquidity: a steep volume drop down the ladder, or a single level dwarfing
// the best level by the configured multiplier. It also reports the raw
// bid/ask imbalance inside the scan distance.
type Spoof struct {
	cfg config.SpoofConfig
}

func NewSpoof(cfg config.SpoofConfig) *Spoof { return &Spoof{cfg: cfg} }

func (f *Spoof) Name() string { return "spoof" }

func (f *Spoof) Evaluate(state models.MarketState) models.FilterResult {
	if len(state.Book.Bids) < 2 || len(state.Book.Asks) < 2 || state.MarkPrice <= 0 {
		return models.FilterResult{
			Flag:   models.FlagNone,
			Reason: "order book snapshot too thin to scan",
			Metrics: map[string]float64{
				"bid_levels": float64(len(state.Book.Bids)),
				"ask_levels": float64(len(state.Book.Asks)),
			},
		}
	}

	lo := state.MarkPrice * (1 - f.cfg.DistancePct/100)
	hi := state.MarkPrice * (1 + f.cfg.DistancePct/100)

	bidVol, bidMult := f.scanSide(state.Book.Bids, func(p float64) bool { return p >= lo })
	askVol, askMult := f.scanSide(state.Book.Asks, func(p float64) bool { return p <= hi })

	imbalance := 0.0
	if askVol > 0 {
		imbalance = bidVol / askVol
	}

	drop := ladderDrop(state.Book.Bids, f.cfg.Depth)
	if d := ladderDrop(state.Book.Asks, f.cfg.Depth); d > drop {
		drop = d
	}

	maxMult := bidMult
	if askMult > maxMult {
		maxMult = askMult
	}

	flag := models.FlagNone
	switch {
	case maxMult >= f.cfg.LevelMultiplier || drop >= f.cfg.VolumeDropPct:
		flag = models.FlagTrigger
	case imbalance >= 2 || (imbalance > 0 && imbalance <= 0.5):
		flag = models.FlagWarn
	}

	return models.FilterResult{
		Score: round4(clamp01(maxMult / f.cfg.LevelMultiplier)),
		Flag:  flag,
		Metrics: map[string]float64{
			"bid_volume":       round4(bidVol),
			"ask_volume":       round4(askVol),
			"imbalance":        round4(imbalance),
			"level_multiplier": round4(maxMult),
			"ladder_drop_pct":  round4(drop),
		},
	}
}

// scanSide sums the volume of levels within the scan distance and returns
// the largest level-over-best multiplier seen among them.
func (f *Spoof) scanSide(levels []models.BookLevel, within func(price float64) bool) (vol, mult float64) {
	best := levels[0].Qty
	for _, lv := range levels {
		if !within(lv.Price) {
			break // levels are sorted best-first
		}
		vol += lv.Qty
		if best > 0 && lv.Qty/best > mult {
			mult = lv.Qty / best
		}
	}
	return vol, mult
}

// ladderDrop returns the percentage fall-off between the first and last of
// the top depth levels of one side.
func ladderDrop(levels []models.BookLevel, depth int) float64 {
	if depth > len(levels) {
		depth = len(levels)
	}
	if depth < 2 {
		return 0
	}
	first, last := levels[0].Qty, levels[depth-1].Qty
	if first <= 0 {
		return 0
	}
	return (first - last) / first * 100
}
