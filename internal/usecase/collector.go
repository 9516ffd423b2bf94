package usecase

import (
	"context"
	"sync"
	"time"

	"TradeMind/internal/domain/repository"
	"TradeMind/internal/marketstate"
	"TradeMind/pkg/logger"
)

// MarketCollector drains the exchange stream into the in-memory market
// state. It owns the stream lifecycle: connect, subscribe, reconnect with
// backoff on stream errors, and close on shutdown. The trading scheduler
// never touches the stream directly; it only reads snapshots of the store.
type MarketCollector struct {
	stream  repository.MarketStream
	store   *marketstate.Store
	metrics repository.Metrics
	logger  *logger.Logger

	reconnectDelay time.Duration
	wg             sync.WaitGroup
}

func NewMarketCollector(
	stream repository.MarketStream,
	store *marketstate.Store,
	metrics repository.Metrics,
	lgr *logger.Logger,
	reconnectDelay time.Duration,
) *MarketCollector {
	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}
	return &MarketCollector{
		stream:         stream,
		store:          store,
		metrics:        metrics,
		logger:         lgr,
		reconnectDelay: reconnectDelay,
	}
}

// Start connects, subscribes and launches the consume loop. It returns once
// the stream is live; consumption continues until ctx is cancelled.
func (c *MarketCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}

	c.wg.Add(1)
	go c.consume(ctx)

	c.logger.Info("market collector started", logger.String("symbol", c.store.Symbol()))
	return nil
}

func (c *MarketCollector) consume(ctx context.Context) {
	defer c.wg.Done()

	events, errs := c.stream.Read(ctx)

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-events:
			if !ok {
				c.logger.Warn("market stream closed, reconnecting")
				if !c.reconnect(ctx) {
					return
				}
				events, errs = c.stream.Read(ctx)
				continue
			}
			c.apply(ev)

		case err, ok := <-errs:
			if !ok {
				continue
			}
			c.logger.Error("market stream error", logger.Error(err))
			if c.metrics != nil {
				c.metrics.RecordError("stream")
			}
			if !c.reconnect(ctx) {
				return
			}
			events, errs = c.stream.Read(ctx)
		}
	}
}

func (c *MarketCollector) apply(ev repository.MarketEvent) {
	c.store.Apply(ev)

	if c.metrics != nil && ev.Ticker != nil && ev.Ticker.MarkPrice > 0 {
		c.metrics.RecordLastPrice(c.store.Symbol(), ev.Ticker.MarkPrice)
	}
}

// reconnect retries until it succeeds or ctx is cancelled.
func (c *MarketCollector) reconnect(ctx context.Context) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.reconnectDelay):
		}

		if err := c.stream.Reconnect(ctx); err != nil {
			c.logger.Error("stream reconnect failed", logger.Error(err))
			if c.metrics != nil {
				c.metrics.RecordError("reconnect")
			}
			continue
		}
		if err := c.stream.Subscribe(ctx); err != nil {
			c.logger.Error("resubscribe failed", logger.Error(err))
			continue
		}

		c.logger.Info("market stream reconnected")
		return true
	}
}

// Shutdown closes the stream and waits for the consume loop to drain.
func (c *MarketCollector) Shutdown() error {
	err := c.stream.Close()
	c.wg.Wait()
	c.logger.Info("market collector stopped")
	return err
}
