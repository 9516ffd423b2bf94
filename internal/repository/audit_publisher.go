package repository

import (
	"context"
	"strconv"

	"TradeMind/internal/domain/models"
	"TradeMind/internal/domain/repository"
	pkgkafka "TradeMind/pkg/kafka"
)

// KafkaAuditPublisher mirrors persisted rows onto the audit topic. Messages
// are keyed by candle timestamp so all artifacts of one cycle land in the
// same partition, in order.
type KafkaAuditPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaAuditPublisher(producer *pkgkafka.Producer, topic string) repository.AuditPublisher {
	return &KafkaAuditPublisher{producer: producer, topic: topic}
}

func (p *KafkaAuditPublisher) PublishFilterResult(ctx context.Context, r *models.FilterResult) error {
	return p.publish(ctx, r.CandleTimestamp, "filter_result", r)
}

func (p *KafkaAuditPublisher) PublishVerdict(ctx context.Context, v *models.Verdict) error {
	return p.publish(ctx, v.CandleTimestamp, "verdict", v)
}

func (p *KafkaAuditPublisher) PublishTradeRecord(ctx context.Context, t *models.TradeRecord) error {
	return p.publish(ctx, t.CandleTimestamp, "trade_record", t)
}

func (p *KafkaAuditPublisher) publish(ctx context.Context, candleTS int64, kind string, payload any) error {
	key := []byte(strconv.FormatInt(candleTS, 10))
	return p.producer.Publish(ctx, p.topic, key, map[string]any{
		"kind": kind,
		"data": payload,
	})
}

func (p *KafkaAuditPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
