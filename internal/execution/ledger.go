package execution

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"TradeMind/internal/domain/models"
	"TradeMind/pkg/logger"
)

// Position is the single open simulated position.
type Position struct {
	Direction  models.Direction `json:"direction"`
	Quantity   decimal.Decimal  `json:"quantity"`
	EntryPrice decimal.Decimal  `json:"entry_price"`
	Leverage   int              `json:"leverage"`
	Margin     decimal.Decimal  `json:"margin"`
	OpenedAt   time.Time        `json:"opened_at"`
}

type ledgerState struct {
	Balance        decimal.Decimal `json:"balance"`
	RealizedPnL    decimal.Decimal `json:"realized_pnl"`
	ReplenishCount int             `json:"replenish_count"`
	Position       *Position       `json:"position,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// SimLedger is the paper-trading account. All balances are decimals; the
// state survives restarts via a JSON file written atomically after every
// mutation. When the free balance cannot cover a margin the ledger tops
// itself back up to the initial capital, so simulation never starves.
type SimLedger struct {
	mu sync.Mutex

	path    string
	initial decimal.Decimal
	state   ledgerState
	mark    decimal.Decimal
	logger  *logger.Logger
}

func NewSimLedger(path string, initialCapital float64, lgr *logger.Logger) *SimLedger {
	return &SimLedger{
		path:    path,
		initial: decimal.NewFromFloat(initialCapital),
		logger:  lgr,
	}
}

// Load restores state from disk, or starts a fresh ledger at the initial
// capital when no state file exists yet.
func (l *SimLedger) Load() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		l.state = ledgerState{Balance: l.initial, UpdatedAt: time.Now().UTC()}
		return l.persistLocked()
	}
	if err != nil {
		return fmt.Errorf("read ledger state: %w", err)
	}
	if err := json.Unmarshal(b, &l.state); err != nil {
		return fmt.Errorf("parse ledger state: %w", err)
	}
	if l.state.Position != nil {
		l.mark = l.state.Position.EntryPrice
	}
	return nil
}

// Open closes any existing position at the intent's entry price and opens
// the new one, deducting its margin from the balance.
func (l *SimLedger) Open(intent *models.OrderIntent, now time.Time) (map[string]any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := decimal.NewFromFloat(intent.EntryPrice)

	if l.state.Position != nil {
		l.closeLocked(entry)
	}

	margin := decimal.NewFromFloat(intent.Notional())
	if l.state.Balance.LessThan(margin) {
		l.state.Balance = l.initial
		l.state.ReplenishCount++
		l.logger.Warn("simulation balance replenished",
			logger.String("balance", l.initial.String()),
			logger.Int("count", l.state.ReplenishCount))
		if l.state.Balance.LessThan(margin) {
			return nil, fmt.Errorf("margin %s exceeds replenished capital %s",
				margin.String(), l.initial.String())
		}
	}

	l.state.Balance = l.state.Balance.Sub(margin)
	l.state.Position = &Position{
		Direction:  intent.Direction,
		Quantity:   decimal.NewFromFloat(intent.Quantity),
		EntryPrice: entry,
		Leverage:   intent.Leverage,
		Margin:     margin,
		OpenedAt:   now.UTC(),
	}
	l.mark = entry
	l.state.UpdatedAt = now.UTC()

	if err := l.persistLocked(); err != nil {
		return nil, err
	}

	return map[string]any{
		"mode":      "simulation",
		"margin":    margin.InexactFloat64(),
		"balance":   l.state.Balance.InexactFloat64(),
		"replenish": l.state.ReplenishCount,
	}, nil
}

// Close settles the open position at the given price. No-op without one.
func (l *SimLedger) Close(price float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.Position == nil {
		return
	}
	l.closeLocked(decimal.NewFromFloat(price))
	l.state.UpdatedAt = time.Now().UTC()
	if err := l.persistLocked(); err != nil {
		l.logger.Error("ledger persist failed", logger.Error(err))
	}
}

func (l *SimLedger) closeLocked(exit decimal.Decimal) {
	p := l.state.Position
	pnl := exit.Sub(p.EntryPrice).Mul(p.Quantity)
	if p.Direction == models.DirectionShort {
		pnl = pnl.Neg()
	}
	l.state.Balance = l.state.Balance.Add(p.Margin).Add(pnl)
	l.state.RealizedPnL = l.state.RealizedPnL.Add(pnl)
	l.state.Position = nil
	l.logger.Info("simulated position closed",
		logger.String("pnl", pnl.StringFixed(4)),
		logger.String("balance", l.state.Balance.StringFixed(4)))
}

// MarkToMarket records the latest price used for unrealized ROI.
func (l *SimLedger) MarkToMarket(price float64) {
	if price <= 0 {
		return
	}
	l.mu.Lock()
	l.mark = decimal.NewFromFloat(price)
	l.mu.Unlock()
}

// Capital returns the free balance.
func (l *SimLedger) Capital() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Balance.InexactFloat64()
}

// OpenROI returns the unrealized ROI of the open position in percent of its
// margin, or 0 without a position.
func (l *SimLedger) OpenROI() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := l.state.Position
	if p == nil || p.Margin.IsZero() {
		return 0
	}
	mark := l.mark
	if mark.IsZero() {
		mark = p.EntryPrice
	}
	pnl := mark.Sub(p.EntryPrice).Mul(p.Quantity)
	if p.Direction == models.DirectionShort {
		pnl = pnl.Neg()
	}
	roi, _ := pnl.Div(p.Margin).Mul(decimal.NewFromInt(100)).Float64()
	return roi
}

// Snapshot returns a read-only view for the status API.
func (l *SimLedger) Snapshot() map[string]any {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := map[string]any{
		"balance":         l.state.Balance.InexactFloat64(),
		"realized_pnl":    l.state.RealizedPnL.InexactFloat64(),
		"replenish_count": l.state.ReplenishCount,
		"updated_at":      l.state.UpdatedAt,
	}
	if p := l.state.Position; p != nil {
		out["position"] = map[string]any{
			"direction":   p.Direction,
			"quantity":    p.Quantity.InexactFloat64(),
			"entry_price": p.EntryPrice.InexactFloat64(),
			"leverage":    p.Leverage,
			"margin":      p.Margin.InexactFloat64(),
			"opened_at":   p.OpenedAt,
		}
	}
	return out
}

// persistLocked writes the state file atomically. Caller holds the lock.
func (l *SimLedger) persistLocked() error {
	b, err := json.MarshalIndent(l.state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger state: %w", err)
	}
	tmp := l.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("ledger state dir: %w", err)
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write ledger state: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("swap ledger state: %w", err)
	}
	return nil
}
