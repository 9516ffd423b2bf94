package repository

import (
	"context"
	"time"

	"TradeMind/internal/domain/models"
)

// MarketStream is the exchange data feed: kline closes, depth snapshots
// and ticker updates for one symbol.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan MarketEvent, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// MarketEvent is one update pushed by the stream. Exactly one field is set.
type MarketEvent struct {
	Candle *models.Candle
	Book   *models.BookSnapshot
	Ticker *TickerUpdate
}

// TickerUpdate carries mark price / funding / rolling volume refreshes.
type TickerUpdate struct {
	MarkPrice   float64
	FundingRate float64
	Volume      float64
}

// MemoryStore is the append-only audit sink. Every filter result, verdict
// and trade record produced by a cycle is written exactly once.
type MemoryStore interface {
	Init(ctx context.Context) error // ensure tables
	SaveFilterResult(ctx context.Context, r *models.FilterResult) error
	SaveVerdict(ctx context.Context, v *models.Verdict) error
	SaveTradeRecord(ctx context.Context, t *models.TradeRecord) error
	RecentFilterResults(ctx context.Context, limit int) ([]models.FilterResult, error)
	RecentVerdicts(ctx context.Context, limit int) ([]models.Verdict, error)
	RecentTradeRecords(ctx context.Context, limit int) ([]models.TradeRecord, error)
	Prune(ctx context.Context, olderThan time.Time) error
	Health(ctx context.Context) error
	Close() error
}

// AuditPublisher mirrors persisted rows onto an event stream for the
// monitoring bot. A nil publisher disables mirroring.
type AuditPublisher interface {
	PublishFilterResult(ctx context.Context, r *models.FilterResult) error
	PublishVerdict(ctx context.Context, v *models.Verdict) error
	PublishTradeRecord(ctx context.Context, t *models.TradeRecord) error
	Close() error
}

// Metrics records operational metrics.
type Metrics interface {
	RecordCycle(outcome string)
	RecordFilter(name, flag string)
	RecordLatency(op string, seconds float64)
	RecordError(kind string)
	RecordSimBalance(balance float64)
	RecordLastPrice(symbol string, price float64)
}
