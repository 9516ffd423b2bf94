package execution

import (
	"context"
	"fmt"
	"time"

	"TradeMind/internal/domain/models"
	"TradeMind/internal/domain/repository"
	"TradeMind/internal/domain/service"
	"TradeMind/internal/risk"
	"TradeMind/pkg/logger"
)

// maxLeverage is the exchange-side ceiling; anything above it is rejected
// before a submit is attempted.
const maxLeverage = 250

// Gateway routes sized orders to the simulated ledger or the live exchange.
// Both routes share the same validation pre-pass, so dry run exercises the
// identical code path up to the final submit.
type Gateway struct {
	exchange    service.Exchange
	ledger      *SimLedger
	metrics     repository.Metrics
	logger      *logger.Logger
	maxQuantity float64
	dryRun      bool
}

func NewGateway(
	exchange service.Exchange,
	ledger *SimLedger,
	metrics repository.Metrics,
	lgr *logger.Logger,
	maxQuantity float64,
	dryRun bool,
) *Gateway {
	return &Gateway{
		exchange:    exchange,
		ledger:      ledger,
		metrics:     metrics,
		logger:      lgr,
		maxQuantity: maxQuantity,
		dryRun:      dryRun,
	}
}

// Account returns the sizing view of the account. The simulated ledger is
// the account of record in both modes; in live mode it mirrors exposure for
// the ROI limit check.
func (g *Gateway) Account() risk.AccountState {
	return risk.AccountState{
		Capital: g.ledger.Capital(),
		OpenROI: g.ledger.OpenROI(),
	}
}

// Ledger exposes the paper account for the status API.
func (g *Gateway) Ledger() *SimLedger { return g.ledger }

// Execute submits one sized order. It always returns a trade record; on
// failure the record carries Failed=true and the error wraps
// models.ErrExecutionFailed. A failed submit never retries.
func (g *Gateway) Execute(ctx context.Context, intent *models.OrderIntent, verdict *models.Verdict, now time.Time) (*models.TradeRecord, error) {
	rec := &models.TradeRecord{
		Direction:       intent.Direction,
		Quantity:        intent.Quantity,
		EntryPrice:      intent.EntryPrice,
		Simulated:       g.dryRun,
		AIVerdict:       *verdict,
		ModuleTimestamp: now,
		CandleTimestamp: verdict.CandleTimestamp,
	}

	if err := g.validateIntent(intent); err != nil {
		rec.Failed = true
		rec.Reason = err.Error()
		return rec, fmt.Errorf("%w: %v", models.ErrExecutionFailed, err)
	}

	var (
		orderData map[string]any
		err       error
	)
	if g.dryRun {
		orderData, err = g.ledger.Open(intent, now)
		if g.metrics != nil {
			g.metrics.RecordSimBalance(g.ledger.Capital())
		}
	} else {
		orderData, err = g.exchange.SubmitOrder(ctx, intent)
	}

	if err != nil {
		rec.Failed = true
		rec.Reason = err.Error()
		g.logger.Error("order execution failed",
			logger.String("direction", string(intent.Direction)),
			logger.Bool("simulated", g.dryRun),
			logger.Error(err))
		return rec, fmt.Errorf("%w: %v", models.ErrExecutionFailed, err)
	}

	rec.OrderData = orderData
	rec.Reason = verdict.Reason
	g.logger.Info("order executed",
		logger.String("direction", string(intent.Direction)),
		logger.Float64("quantity", intent.Quantity),
		logger.Float64("entry", intent.EntryPrice),
		logger.Bool("simulated", g.dryRun))
	return rec, nil
}

// validateIntent is the shared pre-submit check for both execution modes.
func (g *Gateway) validateIntent(intent *models.OrderIntent) error {
	if intent.Symbol == "" {
		return fmt.Errorf("empty symbol")
	}
	if intent.Direction != models.DirectionLong && intent.Direction != models.DirectionShort {
		return fmt.Errorf("invalid direction %q", intent.Direction)
	}
	if intent.Quantity <= 0 {
		return fmt.Errorf("non-positive quantity %f", intent.Quantity)
	}
	if g.maxQuantity > 0 && intent.Quantity > g.maxQuantity {
		return fmt.Errorf("quantity %f above limit %f", intent.Quantity, g.maxQuantity)
	}
	if intent.EntryPrice <= 0 {
		return fmt.Errorf("non-positive entry price %f", intent.EntryPrice)
	}
	if intent.Leverage < 1 || intent.Leverage > maxLeverage {
		return fmt.Errorf("leverage %d outside 1-%d", intent.Leverage, maxLeverage)
	}
	return nil
}
