package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"TradeMind/internal/domain/models"
	"TradeMind/internal/domain/repository"
	"TradeMind/internal/domain/service"
	"TradeMind/internal/execution"
	"TradeMind/internal/filters"
	"TradeMind/internal/marketstate"
	"TradeMind/internal/risk"
	"TradeMind/pkg/config"
	"TradeMind/pkg/logger"
)

// State is the scheduler's externally visible phase.
type State string

const (
	StateIdle             State = "IDLE"
	StateAwaitingWindow   State = "AWAITING_WINDOW"
	StateEvaluating       State = "EVALUATING"
	StateAwaitingDecision State = "AWAITING_DECISION"
	StateExecuting        State = "EXECUTING"
	StateCooldown         State = "COOLDOWN"
)

// Scheduler drives the trading loop: one snapshot per tick, at most one
// cycle in flight, at most one cycle per closed candle. A cycle runs
// evaluate -> persist -> adjudicate -> size -> execute; any gate that
// declines ends the cycle as a normal outcome. Shutdown drains the cycle in
// flight, it never interrupts an order submit.
type Scheduler struct {
	cfg      *config.Config
	store    *marketstate.Store
	engine   *filters.Engine
	decision service.DecisionService
	sizer    *risk.Sizer
	gateway  *execution.Gateway
	recorder *CycleRecorder
	alerts   service.AlertSender
	metrics  repository.Metrics
	logger   *logger.Logger
	clock    func() time.Time

	mu            sync.Mutex
	state         State
	lastCandle    int64
	cooldownUntil time.Time
	cycles        uint64
	wg            sync.WaitGroup
}

func NewScheduler(
	cfg *config.Config,
	store *marketstate.Store,
	engine *filters.Engine,
	decision service.DecisionService,
	sizer *risk.Sizer,
	gateway *execution.Gateway,
	recorder *CycleRecorder,
	alerts service.AlertSender,
	metrics repository.Metrics,
	lgr *logger.Logger,
) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		store:    store,
		engine:   engine,
		decision: decision,
		sizer:    sizer,
		gateway:  gateway,
		recorder: recorder,
		alerts:   alerts,
		metrics:  metrics,
		logger:   lgr,
		clock:    time.Now,
		state:    StateIdle,
	}
}

// Run ticks the scheduler until ctx is cancelled, then drains.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Trading.CycleInterval)
	defer ticker.Stop()

	s.logger.Info("scheduler started",
		logger.String("symbol", s.cfg.Trading.Symbol),
		logger.Bool("autonomous", s.cfg.Trading.AutonomousMode),
		logger.Bool("dry_run", s.cfg.Trading.DryRun))

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			s.logger.Info("scheduler stopped", logger.Any("cycles", s.Cycles()))
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs at most one cycle. Every skip path is a deliberate state, so
// the status API always shows why the engine is not trading.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.clock()

	if !s.cfg.Trading.AutonomousMode {
		s.setState(StateIdle)
		return
	}

	s.mu.Lock()
	if s.state == StateEvaluating || s.state == StateAwaitingDecision || s.state == StateExecuting {
		s.mu.Unlock()
		return
	}
	if now.Before(s.cooldownUntil) {
		s.state = StateCooldown
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if s.cfg.Trading.UseTimeFilter && !s.cfg.TradeWindows().Contains(now.UTC().Hour()) {
		s.setState(StateAwaitingWindow)
		return
	}

	snapshot := s.store.Snapshot()
	candleTS := snapshot.CandleTimestamp()
	if candleTS == 0 {
		s.setState(StateIdle)
		return
	}

	s.mu.Lock()
	if candleTS == s.lastCandle {
		s.state = StateIdle
		s.mu.Unlock()
		return
	}
	s.lastCandle = candleTS // one cycle per closed candle, success or not
	s.state = StateEvaluating
	s.mu.Unlock()

	s.wg.Add(1)
	defer s.wg.Done()
	s.runCycle(ctx, snapshot, now)
}

func (s *Scheduler) runCycle(ctx context.Context, snapshot models.MarketState, now time.Time) {
	start := s.clock()
	outcome := "no_trade"
	defer func() {
		s.mu.Lock()
		s.cycles++
		// cycles that never reached adjudication release the in-flight guard
		if s.state != StateCooldown {
			s.state = StateIdle
		}
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.RecordCycle(outcome)
			s.metrics.RecordLatency("cycle", s.clock().Sub(start).Seconds())
		}
	}()

	s.gateway.Ledger().MarkToMarket(snapshot.MarkPrice)

	results := s.engine.Evaluate(ctx, snapshot, now)
	s.recorder.RecordFilterResults(ctx, results)

	report, err := CompileReport(snapshot.Symbol, results, now)
	if err != nil {
		outcome = "compile_failed"
		s.logger.Error("report compilation failed", logger.Error(err))
		return
	}

	s.setState(StateAwaitingDecision)
	verdict, decErr := s.adjudicate(ctx, report)
	verdict.ModuleTimestamp = now
	verdict.CandleTimestamp = report.CandleTimestamp
	s.recorder.RecordVerdict(ctx, verdict)

	if decErr != nil {
		outcome = "decision_failed"
		s.startCooldown()
		s.alert(ctx, "warning", "adjudication failed", map[string]any{
			"reason": verdict.Reason,
			"candle": report.CandleTimestamp,
		})
		return
	}

	intent, err := s.sizer.Size(verdict, s.gateway.Account(), s.clock())
	if err != nil {
		if errors.Is(err, models.ErrRejected) {
			outcome = "rejected"
			s.startCooldown()
			s.logger.Info("verdict rejected", logger.Error(err))
			return
		}
		outcome = "sizing_failed"
		s.logger.Error("sizing failed", logger.Error(err))
		return
	}

	s.setState(StateExecuting)

	// A submit in flight must finish even if shutdown starts mid-cycle.
	exCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	rec, execErr := s.gateway.Execute(exCtx, intent, verdict, s.clock())
	s.recorder.RecordTrade(exCtx, rec)

	if execErr != nil {
		outcome = "execution_failed"
		s.alert(exCtx, "error", "order execution failed", map[string]any{
			"reason": rec.Reason,
			"candle": rec.CandleTimestamp,
		})
	} else {
		outcome = "executed"
		s.alert(exCtx, "info", "trade executed", map[string]any{
			"direction": rec.Direction,
			"quantity":  rec.Quantity,
			"entry":     rec.EntryPrice,
			"simulated": rec.Simulated,
		})
	}

	s.startCooldown()
}

// startCooldown arms the inter-cycle delay. Every adjudicated outcome waits
// it out, whether the cycle traded, was rejected or lost the decision
// service; only the cooldown path leads back to the next evaluation.
func (s *Scheduler) startCooldown() {
	s.mu.Lock()
	s.cooldownUntil = s.clock().Add(s.cfg.Trading.CooldownDelay)
	s.state = StateCooldown
	s.mu.Unlock()
}

// adjudicate calls the decision service under the configured deadline.
// Failures come back as a NONE verdict carrying the failure kind, so every
// cycle that compiled a report also persists a verdict row.
func (s *Scheduler) adjudicate(ctx context.Context, report *models.PreAnalysisReport) (*models.Verdict, error) {
	dctx, cancel := context.WithTimeout(ctx, s.cfg.AI.Timeout)
	defer cancel()

	verdict, err := s.decision.Decide(dctx, report)
	if err == nil {
		return verdict, nil
	}

	kind := "decision_service_error"
	if errors.Is(err, models.ErrDecisionTimeout) {
		kind = "decision_timeout"
	}
	s.logger.Error("decision service failed",
		logger.String("kind", kind),
		logger.Error(err))
	if s.metrics != nil {
		s.metrics.RecordError(kind)
	}
	return &models.Verdict{
		Direction: models.DirectionNone,
		Decision:  string(models.DirectionNone),
		Reason:    kind,
	}, err
}

func (s *Scheduler) alert(ctx context.Context, severity, msg string, fields map[string]any) {
	if s.alerts == nil {
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.alerts.Send(actx, severity, msg, fields); err != nil {
		s.logger.Warn("alert delivery failed", logger.Error(err))
	}
}

func (s *Scheduler) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// State returns the current phase.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastCandle returns the open time of the last candle a cycle consumed.
func (s *Scheduler) LastCandle() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCandle
}

// Cycles returns the number of completed cycles.
func (s *Scheduler) Cycles() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycles
}

// SetClock overrides the time source. Tests only.
func (s *Scheduler) SetClock(clock func() time.Time) { s.clock = clock }
