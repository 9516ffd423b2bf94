package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"TradeMind/internal/domain/repository"
	"TradeMind/internal/domain/service"
	"TradeMind/internal/execution"
	"TradeMind/internal/marketstate"
	"TradeMind/internal/service/ratelimit"
	"TradeMind/internal/usecase"
	pkgcache "TradeMind/pkg/cache"
	xhttp "TradeMind/pkg/http"
	xlogger "TradeMind/pkg/logger"
)

// historyTTL bounds how stale the history endpoints may serve. One candle
// closes per minute; 15s keeps the dashboard near-live without hitting
// ClickHouse on every poll.
const historyTTL = 15 * time.Second

// StatusHandler serves the operator-facing read API: engine state, peer
// health and the recent rows of the append-only memory. It never mutates
// anything; the trading loop is not drivable over HTTP.
type StatusHandler struct {
	logger    *xlogger.Logger
	scheduler *usecase.Scheduler
	market    *marketstate.Store
	stream    repository.MarketStream
	memory    repository.MemoryStore
	ledger    *execution.SimLedger
	peers     service.HealthChecker
	cache     pkgcache.Service
	limiter   *ratelimit.Limiter
}

func NewStatusHandler(
	lgr *xlogger.Logger,
	scheduler *usecase.Scheduler,
	market *marketstate.Store,
	stream repository.MarketStream,
	memory repository.MemoryStore,
	ledger *execution.SimLedger,
	peers service.HealthChecker,
	cache pkgcache.Service,
) *StatusHandler {
	return &StatusHandler{
		logger:    lgr,
		scheduler: scheduler,
		market:    market,
		stream:    stream,
		memory:    memory,
		ledger:    ledger,
		peers:     peers,
		cache:     cache,
		limiter:   ratelimit.New(),
	}
}

func (h *StatusHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health) // liveness alias, unthrottled

	g := e.Group("/api", h.rateLimit)
	g.GET("/status", h.Status)
	g.GET("/health", h.Health)
	g.GET("/account", h.Account)
	g.GET("/history/filters", h.FilterHistory)
	g.GET("/history/verdicts", h.VerdictHistory)
	g.GET("/history/trades", h.TradeHistory)
}

// rateLimit caps each caller at 5 req/s with a burst of 10.
func (h *StatusHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !h.limiter.Allow(c.RealIP(), 10, 5) {
			return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limit exceeded")
		}
		return next(c)
	}
}

func (h *StatusHandler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]any{
		"state":            h.scheduler.State(),
		"cycles":           h.scheduler.Cycles(),
		"last_candle":      h.scheduler.LastCandle(),
		"candle_count":     h.market.CandleCount(),
		"stream_connected": h.stream.IsConnected(),
		"symbol":           h.market.Symbol(),
	})
}

func (h *StatusHandler) Health(c echo.Context) error {
	ctx := c.Request().Context()

	healthy := true
	storage := "ok"
	if err := h.memory.Health(ctx); err != nil {
		healthy = false
		storage = err.Error()
	}

	peerStatus := map[string]string{}
	if h.peers != nil {
		for url, err := range h.peers.Check(ctx) {
			if err != nil {
				peerStatus[url] = err.Error()
				continue
			}
			peerStatus[url] = "ok"
		}
	}

	body := map[string]any{
		"healthy": healthy && h.stream.IsConnected(),
		"storage": storage,
		"stream":  h.stream.IsConnected(),
		"peers":   peerStatus,
	}
	if !healthy {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, body)
	}
	return xhttp.SuccessResponse(c, body)
}

func (h *StatusHandler) Account(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.ledger.Snapshot())
}

type historyRequest struct {
	Limit int `query:"limit" default:"50" validate:"min=1,max=500"`
}

// history serves one cached history endpoint.
func (h *StatusHandler) history(c echo.Context, kind string, query func(limit int) (any, int64, error)) error {
	req := &historyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	key := pkgcache.GenerateKeyWithParams("history:"+kind, req.Limit)

	if h.cache != nil {
		var cached any
		if err := h.cache.Get(ctx, key, &cached); err == nil {
			c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
			return xhttp.SuccessResponse(c, cached)
		}
	}

	rows, total, err := query(req.Limit)
	if err != nil {
		h.logger.Error("history query failed",
			xlogger.String("kind", kind),
			xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}

	body := &xhttp.ListDataResponse{Rows: rows, Total: total}
	if h.cache != nil {
		_ = h.cache.Set(ctx, key, body, historyTTL)
	}
	return xhttp.SuccessResponse(c, body)
}

func (h *StatusHandler) FilterHistory(c echo.Context) error {
	return h.history(c, "filters", func(limit int) (any, int64, error) {
		rows, err := h.memory.RecentFilterResults(c.Request().Context(), limit)
		return rows, int64(len(rows)), err
	})
}

func (h *StatusHandler) VerdictHistory(c echo.Context) error {
	return h.history(c, "verdicts", func(limit int) (any, int64, error) {
		rows, err := h.memory.RecentVerdicts(c.Request().Context(), limit)
		return rows, int64(len(rows)), err
	})
}

func (h *StatusHandler) TradeHistory(c echo.Context) error {
	return h.history(c, "trades", func(limit int) (any, int64, error) {
		rows, err := h.memory.RecentTradeRecords(c.Request().Context(), limit)
		return rows, int64(len(rows)), err
	})
}
