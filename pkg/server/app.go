package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TradeMind/internal/domain/repository"
	"TradeMind/internal/domain/service"
	"TradeMind/internal/marketstate"
	"TradeMind/internal/service/exchange"
	"TradeMind/internal/usecase"
	pkgch "TradeMind/pkg/clickhouse"
	"TradeMind/pkg/config"
	xhttp "TradeMind/pkg/http"
	applogger "TradeMind/pkg/logger"
	pkgqueue "TradeMind/pkg/queue"
)

// App owns the process lifecycle: backfill, collector, retry queue,
// scheduler and HTTP server come up in that order and drain in reverse on
// SIGINT/SIGTERM.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	market     *marketstate.Store
	rest       *exchange.RESTClient
	collector  *usecase.MarketCollector
	scheduler  *usecase.Scheduler
	retryQueue *pkgqueue.RedisQueue
	audit      repository.AuditPublisher
	alerts     service.AlertSender
	memory     repository.MemoryStore
	chClient   *pkgch.Client
	httpServer *xhttp.Server
}

// alertLogBridge adapts the peer alert sender to the log collector's
// publisher, so bursts of error logs reach the monitoring bot aggregated.
type alertLogBridge struct {
	alerts service.AlertSender
}

func (b alertLogBridge) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return b.alerts.Send(ctx, "error", topic, map[string]any{"logs": payload})
}

func New(
	cfg *config.Config,
	lgr *applogger.Logger,
	market *marketstate.Store,
	rest *exchange.RESTClient,
	collector *usecase.MarketCollector,
	scheduler *usecase.Scheduler,
	retryQueue *pkgqueue.RedisQueue,
	audit repository.AuditPublisher,
	alerts service.AlertSender,
	memory repository.MemoryStore,
	chClient *pkgch.Client,
	handler xhttp.Handler,
) *App {
	httpServer := xhttp.NewServer(handler,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	)
	return &App{
		cfg:        cfg,
		logger:     lgr,
		market:     market,
		rest:       rest,
		collector:  collector,
		scheduler:  scheduler,
		retryQueue: retryQueue,
		audit:      audit,
		alerts:     alerts,
		memory:     memory,
		chClient:   chClient,
		httpServer: httpServer,
	}
}

// Run starts everything and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.alerts != nil && a.cfg.Peers.AlertURL != "" {
		a.logger.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          "error-logs",
			Publisher:      alertLogBridge{alerts: a.alerts},
		})
	}

	// Seed the candle window before the first cycle so the filters have
	// their full lookbacks from the start.
	candles, err := a.rest.FetchKlines(ctx, a.cfg.Trading.Symbol, a.cfg.Trading.CandleWindowMax)
	if err != nil {
		a.logger.Warn("kline backfill failed, starting cold", applogger.Error(err))
	} else {
		a.market.Backfill(candles)
	}

	if err := a.collector.Start(ctx); err != nil {
		return err
	}

	if a.retryQueue != nil {
		if err := a.retryQueue.Start(); err != nil {
			a.logger.Warn("retry queue unavailable", applogger.Error(err))
		}
	}

	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		if err := a.scheduler.Run(ctx); err != nil {
			a.logger.Error("scheduler error", applogger.Error(err))
		}
	}()

	go a.retentionLoop(ctx)

	if err := a.httpServer.Start(); err != nil {
		return err
	}
	a.logger.Info("trademind running",
		applogger.String("symbol", a.cfg.Trading.Symbol),
		applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	cancel()
	<-schedDone // scheduler drains the cycle in flight

	return a.shutdown()
}

// retentionLoop prunes rows past the retention horizon once a day. The
// table TTL does the same server side; the sweep keeps retention working
// on clusters where TTL merges lag.
func (a *App) retentionLoop(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().AddDate(0, 0, -a.cfg.ClickHouse.RetentionDays)
			if err := a.memory.Prune(ctx, cutoff); err != nil {
				a.logger.Warn("retention prune failed", applogger.Error(err))
			}
		}
	}
}

func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.collector.Shutdown(); err != nil {
		a.logger.Warn("collector stop error", applogger.Error(err))
	}
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Warn("http shutdown error", applogger.Error(err))
	}
	if a.retryQueue != nil {
		if err := a.retryQueue.Stop(shutdownCtx); err != nil {
			a.logger.Warn("retry queue stop error", applogger.Error(err))
		}
	}
	if a.audit != nil {
		if err := a.audit.Close(); err != nil {
			a.logger.Warn("audit publisher close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	a.logger.RemoveCollector()

	a.logger.Info("shutdown complete")
	return nil
}
