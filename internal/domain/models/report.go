package models

import "time"

// Flag is the categorical severity a filter assigns to its finding.
type Flag string

const (
	FlagNone    Flag = "NONE"
	FlagWarn    Flag = "WARN"
	FlagTrigger Flag = "TRIGGER"
)

// Direction is the trade side of a verdict or order.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
	DirectionNone  Direction = "NONE"
)

// ParseDirection maps a raw adjudicator direction string onto the enum.
// Unknown values return false so the caller can treat the payload as malformed.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case DirectionLong, DirectionShort, DirectionNone:
		return Direction(s), true
	default:
		return DirectionNone, false
	}
}

// FilterResult is the immutable output of one filter for one cycle.
type FilterResult struct {
	FilterName      string             `json:"filter_name"`
	Score           float64            `json:"score"`
	Flag            Flag               `json:"flag"`
	Metrics         map[string]float64 `json:"metrics"`
	Reason          string             `json:"reason,omitempty"`
	ModuleTimestamp time.Time          `json:"module_timestamp"`
	CandleTimestamp int64              `json:"candle_timestamp"`
}

// PreAnalysisReport is the exact payload submitted to the decision service.
// It is a value object: compiling twice from the same inputs yields a
// byte-identical JSON encoding.
type PreAnalysisReport struct {
	Symbol          string         `json:"symbol"`
	CandleTimestamp int64          `json:"candle_timestamp"`
	CompiledAt      time.Time      `json:"compiled_at"`
	Filters         []FilterResult `json:"filters"`
}

// Verdict is the adjudicator's decision for one cycle. At most one exists
// per cycle; decision failures are recorded as a NONE verdict with the
// failure kind in Reason. Decision keeps the service's raw verdict label
// next to the parsed direction; failure rows carry "NONE".
type Verdict struct {
	Direction       Direction `json:"direction"`
	Decision        string    `json:"verdict"`
	Confidence      float64   `json:"confidence"`
	Reason          string    `json:"reason"`
	EntryPrice      float64   `json:"entry_price"`
	ModuleTimestamp time.Time `json:"module_timestamp"`
	CandleTimestamp int64     `json:"candle_timestamp"`
}

// RiskSnapshot captures the risk configuration an order was sized under.
type RiskSnapshot struct {
	Leverage       int     `json:"leverage"`
	RiskCapPercent float64 `json:"risk_cap_percent"`
	MaxROILimit    float64 `json:"max_roi_limit"`
	AccountCapital float64 `json:"account_capital"`
}

// OrderIntent is the sized order derived from a verdict. It is never
// persisted directly; it folds into the TradeRecord.
type OrderIntent struct {
	Symbol     string       `json:"symbol"`
	Direction  Direction    `json:"direction"`
	Quantity   float64      `json:"quantity"`
	EntryPrice float64      `json:"entry_price"`
	Leverage   int          `json:"leverage"`
	Risk       RiskSnapshot `json:"risk"`
}

// Notional returns leverage x quantity x entry price.
func (o OrderIntent) Notional() float64 {
	return float64(o.Leverage) * o.Quantity * o.EntryPrice
}

// TradeRecord is the terminal artifact of a cycle that reached execution.
type TradeRecord struct {
	Direction       Direction      `json:"direction"`
	Quantity        float64        `json:"quantity"`
	EntryPrice      float64        `json:"entry_price"`
	Simulated       bool           `json:"simulated"`
	Failed          bool           `json:"failed"`
	Reason          string         `json:"reason"`
	OrderData       map[string]any `json:"order_data"`
	AIVerdict       Verdict        `json:"ai_verdict"`
	ModuleTimestamp time.Time      `json:"module_timestamp"`
	CandleTimestamp int64          `json:"candle_timestamp"`
}
