package repository

import (
	"context"

	"TradeMind/internal/domain/models"
	"TradeMind/internal/domain/repository"
	"TradeMind/pkg/queue"
)

// Replay jobs drain rows that failed their first insert back into the
// memory store. The queue's own retry/backoff handles a store that stays
// down; rows that exhaust retries end up in the dead letter list.

type FilterResultReplayJob struct {
	store repository.MemoryStore
}

func NewFilterResultReplayJob(store repository.MemoryStore) *FilterResultReplayJob {
	return &FilterResultReplayJob{store: store}
}

func (j *FilterResultReplayJob) Name() string { return "filter-result-replay" }
func (j *FilterResultReplayJob) Type() string { return "persist.filter_result" }

func (j *FilterResultReplayJob) Handle(ctx context.Context, payload interface{}) error {
	row, err := queue.ParsePayload[models.FilterResult](payload)
	if err != nil {
		return err
	}
	return j.store.SaveFilterResult(ctx, row)
}

type VerdictReplayJob struct {
	store repository.MemoryStore
}

func NewVerdictReplayJob(store repository.MemoryStore) *VerdictReplayJob {
	return &VerdictReplayJob{store: store}
}

func (j *VerdictReplayJob) Name() string { return "verdict-replay" }
func (j *VerdictReplayJob) Type() string { return "persist.verdict" }

func (j *VerdictReplayJob) Handle(ctx context.Context, payload interface{}) error {
	row, err := queue.ParsePayload[models.Verdict](payload)
	if err != nil {
		return err
	}
	return j.store.SaveVerdict(ctx, row)
}

type TradeRecordReplayJob struct {
	store repository.MemoryStore
}

func NewTradeRecordReplayJob(store repository.MemoryStore) *TradeRecordReplayJob {
	return &TradeRecordReplayJob{store: store}
}

func (j *TradeRecordReplayJob) Name() string { return "trade-record-replay" }
func (j *TradeRecordReplayJob) Type() string { return "persist.trade_record" }

func (j *TradeRecordReplayJob) Handle(ctx context.Context, payload interface{}) error {
	row, err := queue.ParsePayload[models.TradeRecord](payload)
	if err != nil {
		return err
	}
	return j.store.SaveTradeRecord(ctx, row)
}
