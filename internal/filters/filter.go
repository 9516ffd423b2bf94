package filters

import (
	"context"
	"math"
	"sync"
	"time"

	"TradeMind/internal/domain/models"
	"TradeMind/internal/domain/repository"
	"TradeMind/pkg/config"
)

// Filter is one independent market filter. Evaluate must be a pure function
// of the snapshot and the filter's own configuration slice: no shared state,
// no side effects, no dependence on evaluation order. Insufficient history
// degrades to FlagNone with a reason, never an error.
type Filter interface {
	Name() string
	Evaluate(state models.MarketState) models.FilterResult
}

// NewRegistry builds the static filter table. The set is fixed at startup;
// there is no runtime dispatch by name.
func NewRegistry(cfg config.FiltersConfig) []Filter {
	return []Filter{
		NewCTS(cfg.CTS),
		NewCompression(cfg.Compression),
		NewSpoof(cfg.Spoof),
		NewOrderbookReversal(cfg.OrderbookReversal),
		NewBreakout(cfg.Breakout),
		NewRetest(cfg.Retest),
		NewLowVolume(cfg.LowVolume),
		NewSentimentDivergence(),
		NewTrendConfirmation(cfg.Trend),
	}
}

// Engine fans filter evaluation out over the shared immutable snapshot and
// join-barriers on all results before returning them in registry order.
type Engine struct {
	filters []Filter
	metrics repository.Metrics
}

// NewEngine creates an engine over a registry.
func NewEngine(filters []Filter, metrics repository.Metrics) *Engine {
	return &Engine{filters: filters, metrics: metrics}
}

// Filters returns the registry, in evaluation order.
func (e *Engine) Filters() []Filter { return e.filters }

// Evaluate runs every filter against one snapshot. All results carry the
// same candle timestamp and the supplied module timestamp, so two calls
// with identical inputs produce identical output.
func (e *Engine) Evaluate(ctx context.Context, state models.MarketState, now time.Time) []models.FilterResult {
	results := make([]models.FilterResult, len(e.filters))
	candleTS := state.CandleTimestamp()

	var wg sync.WaitGroup
	for i, f := range e.filters {
		wg.Add(1)
		go func(i int, f Filter) {
			defer wg.Done()
			start := time.Now()
			r := f.Evaluate(state)
			r.FilterName = f.Name()
			r.ModuleTimestamp = now
			r.CandleTimestamp = candleTS
			if r.Metrics == nil {
				r.Metrics = map[string]float64{}
			}
			results[i] = r
			if e.metrics != nil {
				e.metrics.RecordFilter(f.Name(), string(r.Flag))
				e.metrics.RecordLatency("filter_"+f.Name(), time.Since(start).Seconds())
			}
		}(i, f)
	}
	wg.Wait()

	_ = ctx
	return results
}

// shortfall builds the fail-soft result a filter returns when the window
// is shorter than its configured lookback.
func shortfall(reason string, have, need int) models.FilterResult {
	return models.FilterResult{
		Score:  0,
		Flag:   models.FlagNone,
		Reason: reason,
		Metrics: map[string]float64{
			"candles_have": float64(have),
			"candles_need": float64(need),
		},
	}
}

// averageTrueRange computes the ATR of the last n candles of the series,
// excluding the final candle (which is the one being classified). Requires
// len(candles) >= n+1; the caller checks.
func averageTrueRange(candles []models.Candle, n int) float64 {
	end := len(candles) - 1 // exclude latest
	sum := 0.0
	for i := end - n; i < end; i++ {
		c := candles[i]
		tr := c.Range()
		if i > 0 {
			prevClose := candles[i-1].Close
			if d := math.Abs(c.High - prevClose); d > tr {
				tr = d
			}
			if d := math.Abs(c.Low - prevClose); d > tr {
				tr = d
			}
		}
		sum += tr
	}
	return sum / float64(n)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
