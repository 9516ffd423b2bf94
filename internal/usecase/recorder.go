package usecase

import (
	"context"

	"TradeMind/internal/domain/models"
	"TradeMind/internal/domain/repository"
	"TradeMind/pkg/logger"
	"TradeMind/pkg/queue"
)

// Retry job message types. The consumer side registers one job per type and
// replays the row into the store.
const (
	JobPersistFilterResult = "persist.filter_result"
	JobPersistVerdict      = "persist.verdict"
	JobPersistTradeRecord  = "persist.trade_record"
)

// CycleRecorder is the single write path for cycle artifacts. Every row goes
// to the memory store; rows that fail to land are queued for replay instead
// of aborting the cycle, and persisted rows are mirrored to the audit stream
// best effort. Trading never blocks on persistence.
type CycleRecorder struct {
	store   repository.MemoryStore
	audit   repository.AuditPublisher // nil disables mirroring
	retry   queue.QueueService        // nil disables replay
	metrics repository.Metrics
	logger  *logger.Logger
}

func NewCycleRecorder(
	store repository.MemoryStore,
	audit repository.AuditPublisher,
	retry queue.QueueService,
	metrics repository.Metrics,
	lgr *logger.Logger,
) *CycleRecorder {
	return &CycleRecorder{
		store:   store,
		audit:   audit,
		retry:   retry,
		metrics: metrics,
		logger:  lgr,
	}
}

// RecordFilterResults persists one cycle's filter rows.
func (r *CycleRecorder) RecordFilterResults(ctx context.Context, results []models.FilterResult) {
	for i := range results {
		res := results[i]
		if err := r.store.SaveFilterResult(ctx, &res); err != nil {
			r.fallback(ctx, JobPersistFilterResult, res, err)
			continue
		}
		if r.audit != nil {
			if err := r.audit.PublishFilterResult(ctx, &res); err != nil {
				r.logger.Warn("audit mirror failed",
					logger.String("kind", "filter_result"),
					logger.Error(err))
			}
		}
	}
}

// RecordVerdict persists the cycle's verdict row.
func (r *CycleRecorder) RecordVerdict(ctx context.Context, v *models.Verdict) {
	if err := r.store.SaveVerdict(ctx, v); err != nil {
		r.fallback(ctx, JobPersistVerdict, *v, err)
		return
	}
	if r.audit != nil {
		if err := r.audit.PublishVerdict(ctx, v); err != nil {
			r.logger.Warn("audit mirror failed",
				logger.String("kind", "verdict"),
				logger.Error(err))
		}
	}
}

// RecordTrade persists the cycle's trade row.
func (r *CycleRecorder) RecordTrade(ctx context.Context, t *models.TradeRecord) {
	if err := r.store.SaveTradeRecord(ctx, t); err != nil {
		r.fallback(ctx, JobPersistTradeRecord, *t, err)
		return
	}
	if r.audit != nil {
		if err := r.audit.PublishTradeRecord(ctx, t); err != nil {
			r.logger.Warn("audit mirror failed",
				logger.String("kind", "trade_record"),
				logger.Error(err))
		}
	}
}

// fallback queues a failed row for replay. If the queue is down too the row
// is lost from storage but survives in the log output.
func (r *CycleRecorder) fallback(ctx context.Context, msgType string, payload interface{}, cause error) {
	if r.metrics != nil {
		r.metrics.RecordError("persist")
	}
	r.logger.Error("persist failed",
		logger.String("kind", msgType),
		logger.Error(cause))

	if r.retry == nil {
		return
	}
	if err := r.retry.PublishMessage(ctx, msgType, payload); err != nil {
		r.logger.Error("retry enqueue failed",
			logger.String("kind", msgType),
			logger.Error(err),
			logger.Any("row", payload))
	}
}
