package models

import "time"

// Candle represents one fixed-interval OHLCV bar.
type Candle struct {
	OpenTime int64   `json:"open_time"` // ms epoch of bar open
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
}

// Range returns the full high-low span of the candle.
func (c Candle) Range() float64 {
	return c.High - c.Low
}

// Body returns the absolute open-close distance.
func (c Candle) Body() float64 {
	if c.Close >= c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

// UpperWick returns the distance between the high and the body top.
func (c Candle) UpperWick() float64 {
	top := c.Open
	if c.Close > top {
		top = c.Close
	}
	return c.High - top
}

// LowerWick returns the distance between the body bottom and the low.
func (c Candle) LowerWick() float64 {
	bottom := c.Open
	if c.Close < bottom {
		bottom = c.Close
	}
	return bottom - c.Low
}

// BookLevel is a single (price, qty) entry on one side of the book.
type BookLevel struct {
	Price float64 `json:"price"`
	Qty   float64 `json:"qty"`
}

// BookSnapshot is one full depth snapshot. It is replaced wholesale on
// refresh and never mutated in place.
type BookSnapshot struct {
	Bids       []BookLevel `json:"bids"` // best first
	Asks       []BookLevel `json:"asks"` // best first
	CapturedAt time.Time   `json:"captured_at"`
}

// BestBid returns the top bid level, if any.
func (s BookSnapshot) BestBid() (BookLevel, bool) {
	if len(s.Bids) == 0 {
		return BookLevel{}, false
	}
	return s.Bids[0], true
}

// BestAsk returns the top ask level, if any.
func (s BookSnapshot) BestAsk() (BookLevel, bool) {
	if len(s.Asks) == 0 {
		return BookLevel{}, false
	}
	return s.Asks[0], true
}

// MarketState is the immutable data snapshot one evaluation cycle runs
// against. All filters in a cycle see the same value.
type MarketState struct {
	Symbol      string       `json:"symbol"`
	Candles     []Candle     `json:"candles"` // oldest first, newest last
	Book        BookSnapshot `json:"book"`
	MarkPrice   float64      `json:"mark_price"`
	FundingRate float64      `json:"funding_rate"`
	Volume      float64      `json:"volume"` // latest 1m volume metric
}

// LastCandle returns the most recent candle, if the window is non-empty.
func (m MarketState) LastCandle() (Candle, bool) {
	if len(m.Candles) == 0 {
		return Candle{}, false
	}
	return m.Candles[len(m.Candles)-1], true
}

// CandleTimestamp returns the open time of the most recent candle, or 0.
func (m MarketState) CandleTimestamp() int64 {
	if c, ok := m.LastCandle(); ok {
		return c.OpenTime
	}
	return 0
}
