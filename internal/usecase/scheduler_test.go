package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/creasty/defaults"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeMind/internal/domain/models"
	"TradeMind/internal/execution"
	"TradeMind/internal/filters"
	"TradeMind/internal/marketstate"
	"TradeMind/internal/risk"
	"TradeMind/pkg/config"
)

type fakeDecision struct {
	verdict *models.Verdict
	err     error
	reports []*models.PreAnalysisReport
}

func (d *fakeDecision) Decide(_ context.Context, report *models.PreAnalysisReport) (*models.Verdict, error) {
	d.reports = append(d.reports, report)
	if d.err != nil {
		return nil, d.err
	}
	v := *d.verdict
	return &v, nil
}

type fakeLiveExchange struct{}

func (fakeLiveExchange) SubmitOrder(context.Context, *models.OrderIntent) (map[string]any, error) {
	return nil, fmt.Errorf("live exchange must not be reached in dry run")
}

type schedulerHarness struct {
	scheduler *Scheduler
	market    *marketstate.Store
	store     *fakeStore
	decision  *fakeDecision
	now       time.Time
}

func (h *schedulerHarness) tick(ctx context.Context) {
	h.scheduler.Tick(ctx)
}

func (h *schedulerHarness) advance(d time.Duration) {
	h.now = h.now.Add(d)
}

func (h *schedulerHarness) pushCandle(openTime int64) {
	h.market.Backfill([]models.Candle{{
		OpenTime: openTime,
		Open:     2495,
		High:     2505,
		Low:      2490,
		Close:    2500,
		Volume:   20000,
	}})
}

func newSchedulerHarness(t *testing.T, decision *fakeDecision, mutate func(*config.Config)) *schedulerHarness {
	t.Helper()

	cfg := &config.Config{}
	require.NoError(t, defaults.Set(cfg))
	cfg.Environment = "test"
	cfg.AI.URL = "http://localhost:9100"
	cfg.Trading.UseTimeFilter = false
	cfg.Trading.CooldownDelay = 30 * time.Second
	cfg.Trading.SimulationStatePath = filepath.Join(t.TempDir(), "ledger.json")
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	lgr := testLogger(t)
	market := marketstate.New(cfg.Trading.Symbol, cfg.Trading.CandleWindowMax)
	store := &fakeStore{}

	ledger := execution.NewSimLedger(cfg.Trading.SimulationStatePath, cfg.Trading.SimulationInitialCapital, lgr)
	require.NoError(t, ledger.Load())
	gateway := execution.NewGateway(fakeLiveExchange{}, ledger, nil, lgr, cfg.Trading.MaxQuantity, true)

	h := &schedulerHarness{
		scheduler: NewScheduler(
			cfg,
			market,
			filters.NewEngine(filters.NewRegistry(cfg.Filters), nil),
			decision,
			risk.NewSizer(cfg),
			gateway,
			NewCycleRecorder(store, nil, nil, nil, lgr),
			nil,
			nil,
			lgr,
		),
		market:   market,
		store:    store,
		decision: decision,
		now:      time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
	}
	h.scheduler.SetClock(func() time.Time { return h.now })
	return h
}

func TestSchedulerIdleWhenNotAutonomous(t *testing.T) {
	h := newSchedulerHarness(t, &fakeDecision{}, func(c *config.Config) {
		c.Trading.AutonomousMode = false
	})
	h.pushCandle(1000)

	h.tick(context.Background())
	assert.Equal(t, StateIdle, h.scheduler.State())
	assert.Equal(t, uint64(0), h.scheduler.Cycles())
	assert.Empty(t, h.decision.reports)
}

func TestSchedulerAwaitsWindow(t *testing.T) {
	h := newSchedulerHarness(t, &fakeDecision{}, func(c *config.Config) {
		c.Trading.UseTimeFilter = true
		c.Trading.TradeWindows = "6-7"
	})
	h.pushCandle(1000)
	h.now = time.Date(2026, 8, 25, 8, 0, 0, 0, time.UTC)

	h.tick(context.Background())
	assert.Equal(t, StateAwaitingWindow, h.scheduler.State())
	assert.Equal(t, uint64(0), h.scheduler.Cycles())
}

func TestSchedulerIdleWithoutCandles(t *testing.T) {
	h := newSchedulerHarness(t, &fakeDecision{}, nil)

	h.tick(context.Background())
	assert.Equal(t, StateIdle, h.scheduler.State())
	assert.Equal(t, uint64(0), h.scheduler.Cycles())
}

func TestSchedulerOneCyclePerCandle(t *testing.T) {
	decision := &fakeDecision{verdict: &models.Verdict{Direction: models.DirectionNone, Reason: "no setup"}}
	h := newSchedulerHarness(t, decision, nil)
	ctx := context.Background()

	h.pushCandle(1000)
	h.tick(ctx)
	require.Equal(t, uint64(1), h.scheduler.Cycles())
	assert.Equal(t, int64(1000), h.scheduler.LastCandle())

	// same candle, no second cycle
	h.advance(5 * time.Second)
	h.tick(ctx)
	assert.Equal(t, uint64(1), h.scheduler.Cycles())
	assert.Len(t, decision.reports, 1)

	// a fresh candle starts the next cycle once the cooldown elapsed
	h.pushCandle(61000)
	h.advance(time.Minute)
	h.tick(ctx)
	assert.Equal(t, uint64(2), h.scheduler.Cycles())
	assert.Equal(t, int64(61000), h.scheduler.LastCandle())
}

func TestSchedulerRejectedVerdictCoolsDown(t *testing.T) {
	decision := &fakeDecision{verdict: &models.Verdict{Direction: models.DirectionNone, Reason: "no setup"}}
	h := newSchedulerHarness(t, decision, nil)
	ctx := context.Background()

	h.pushCandle(1000)
	h.tick(ctx)

	assert.Equal(t, StateCooldown, h.scheduler.State())
	require.Len(t, h.store.verdicts, 1)
	assert.Equal(t, models.DirectionNone, h.store.verdicts[0].Direction)
	assert.Empty(t, h.store.trades, "a declined verdict never reaches execution")
	assert.NotEmpty(t, h.store.filters, "filter rows persist before adjudication")

	// a fresh candle inside the cooldown does not start a cycle
	h.pushCandle(61000)
	h.advance(5 * time.Second)
	h.tick(ctx)
	assert.Equal(t, uint64(1), h.scheduler.Cycles())
	assert.Equal(t, StateCooldown, h.scheduler.State())

	// past the cooldown it is picked up
	h.advance(time.Minute)
	h.tick(ctx)
	assert.Equal(t, uint64(2), h.scheduler.Cycles())
}

func TestSchedulerDecisionFailureRecordsNoneVerdict(t *testing.T) {
	decision := &fakeDecision{err: fmt.Errorf("%w: 502 bad gateway", models.ErrDecisionService)}
	h := newSchedulerHarness(t, decision, nil)

	h.pushCandle(1000)
	h.tick(context.Background())

	require.Len(t, h.store.verdicts, 1)
	v := h.store.verdicts[0]
	assert.Equal(t, models.DirectionNone, v.Direction)
	assert.Equal(t, "NONE", v.Decision)
	assert.Equal(t, "decision_service_error", v.Reason)
	assert.Equal(t, int64(1000), v.CandleTimestamp)
	assert.Empty(t, h.store.trades)
	assert.Equal(t, StateCooldown, h.scheduler.State())

	// still cooling down, no retry
	h.advance(5 * time.Second)
	h.tick(context.Background())
	assert.Equal(t, uint64(1), h.scheduler.Cycles())
	assert.Equal(t, StateCooldown, h.scheduler.State())

	// the candle is consumed, a failed decision is not retried after cooldown
	h.advance(time.Minute)
	h.tick(context.Background())
	assert.Equal(t, uint64(1), h.scheduler.Cycles())
	assert.Equal(t, StateIdle, h.scheduler.State())
}

func TestSchedulerDecisionTimeoutKind(t *testing.T) {
	decision := &fakeDecision{err: fmt.Errorf("%w: deadline", models.ErrDecisionTimeout)}
	h := newSchedulerHarness(t, decision, nil)

	h.pushCandle(1000)
	h.tick(context.Background())

	require.Len(t, h.store.verdicts, 1)
	assert.Equal(t, "decision_timeout", h.store.verdicts[0].Reason)
	assert.Equal(t, StateCooldown, h.scheduler.State())
}

func TestSchedulerExecutesAndCoolsDown(t *testing.T) {
	decision := &fakeDecision{verdict: &models.Verdict{
		Direction:  models.DirectionLong,
		Confidence: 0.9,
		Reason:     "breakout confirmed",
		EntryPrice: 2500,
	}}
	h := newSchedulerHarness(t, decision, nil)
	ctx := context.Background()

	h.pushCandle(1000)
	h.tick(ctx)

	require.Len(t, h.store.trades, 1)
	trade := h.store.trades[0]
	assert.True(t, trade.Simulated)
	assert.False(t, trade.Failed)
	assert.Equal(t, models.DirectionLong, trade.Direction)
	assert.Equal(t, StateCooldown, h.scheduler.State())

	// new candle inside the cooldown does not trade
	h.pushCandle(61000)
	h.advance(5 * time.Second)
	h.tick(ctx)
	assert.Equal(t, uint64(1), h.scheduler.Cycles())
	assert.Equal(t, StateCooldown, h.scheduler.State())

	// past the cooldown the same candle is picked up
	h.advance(time.Minute)
	h.tick(ctx)
	assert.Equal(t, uint64(2), h.scheduler.Cycles())
}

func TestSchedulerVerdictTimestamps(t *testing.T) {
	decision := &fakeDecision{verdict: &models.Verdict{Direction: models.DirectionNone, Reason: "no setup"}}
	h := newSchedulerHarness(t, decision, nil)

	h.pushCandle(1000)
	h.tick(context.Background())

	require.Len(t, h.store.verdicts, 1)
	assert.Equal(t, h.now, h.store.verdicts[0].ModuleTimestamp)
	assert.Equal(t, int64(1000), h.store.verdicts[0].CandleTimestamp)
	for _, f := range h.store.filters {
		assert.Equal(t, h.now, f.ModuleTimestamp)
		assert.Equal(t, int64(1000), f.CandleTimestamp)
	}
}
