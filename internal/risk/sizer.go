package risk

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"TradeMind/internal/domain/models"
	"TradeMind/pkg/config"
)

// quantityScale is the number of decimal places order quantities are
// truncated to. Truncation, not rounding: the sized notional must never
// exceed the risk cap.
const quantityScale = 6

// AccountState is the sizing view of the account at decision time.
type AccountState struct {
	Capital float64 // free capital the margin is drawn from
	OpenROI float64 // account-wide unrealized ROI, percent
}

// Sizer turns an adjudicator verdict into a capped order intent, or rejects
// it. All rejections wrap models.ErrRejected with the specific reason; a
// rejection is a normal cycle outcome, not a failure.
type Sizer struct {
	symbol        string
	leverage      int
	riskCap       float64
	maxROILimit   float64
	floor         float64
	maxQuantity   float64
	useTimeFilter bool
	windows       config.Windows
}

func NewSizer(cfg *config.Config) *Sizer {
	return &Sizer{
		symbol:        cfg.Trading.Symbol,
		leverage:      cfg.Trading.Leverage,
		riskCap:       cfg.Trading.RiskCapPercent,
		maxROILimit:   cfg.Trading.MaxROILimit,
		floor:         cfg.Trading.ConfidenceFloor,
		maxQuantity:   cfg.Trading.MaxQuantity,
		useTimeFilter: cfg.Trading.UseTimeFilter,
		windows:       cfg.TradeWindows(),
	}
}

// Size validates the verdict against the risk gates and computes the order
// quantity. The window gate is re-checked here with the decision-time clock:
// a verdict that arrives after its window closed must not execute.
func (s *Sizer) Size(v *models.Verdict, acct AccountState, now time.Time) (*models.OrderIntent, error) {
	if v.Direction == models.DirectionNone {
		return nil, fmt.Errorf("%w: adjudicator declined to trade", models.ErrRejected)
	}
	if v.Confidence < s.floor {
		return nil, fmt.Errorf("%w: confidence %.2f below floor %.2f",
			models.ErrRejected, v.Confidence, s.floor)
	}
	if v.EntryPrice <= 0 {
		return nil, fmt.Errorf("%w: no usable entry price", models.ErrRejected)
	}
	if s.useTimeFilter && !s.windows.Contains(now.UTC().Hour()) {
		return nil, fmt.Errorf("%w: hour %d outside trade windows",
			models.ErrRejected, now.UTC().Hour())
	}
	if s.maxROILimit > 0 && acct.OpenROI >= s.maxROILimit {
		return nil, fmt.Errorf("%w: account ROI %.2f%% at limit %.2f%%",
			models.ErrRejected, acct.OpenROI, s.maxROILimit)
	}
	if acct.Capital <= 0 {
		return nil, fmt.Errorf("%w: no free capital", models.ErrRejected)
	}

	qty := s.quantity(acct.Capital, v.EntryPrice)
	if qty <= 0 {
		return nil, fmt.Errorf("%w: sized quantity is zero at entry %.4f",
			models.ErrRejected, v.EntryPrice)
	}
	if qty > s.maxQuantity {
		qty = s.maxQuantity
	}

	return &models.OrderIntent{
		Symbol:     s.symbol,
		Direction:  v.Direction,
		Quantity:   qty,
		EntryPrice: v.EntryPrice,
		Leverage:   s.leverage,
		Risk: models.RiskSnapshot{
			Leverage:       s.leverage,
			RiskCapPercent: s.riskCap,
			MaxROILimit:    s.maxROILimit,
			AccountCapital: acct.Capital,
		},
	}, nil
}

// quantity computes capital * risk_cap / (leverage * entry), truncated.
// With this sizing, leverage * quantity * entry never exceeds the capped
// margin, whatever the inputs.
func (s *Sizer) quantity(capital, entry float64) float64 {
	margin := decimal.NewFromFloat(capital).Mul(decimal.NewFromFloat(s.riskCap))
	denom := decimal.NewFromInt(int64(s.leverage)).Mul(decimal.NewFromFloat(entry))
	if denom.IsZero() {
		return 0
	}
	q, _ := margin.Div(denom).Truncate(quantityScale).Float64()
	return q
}
