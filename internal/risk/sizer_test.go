package risk

import (
	"errors"
	"testing"
	"time"

	"github.com/creasty/defaults"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeMind/internal/domain/models"
	"TradeMind/pkg/config"
)

func sizerConfig(t *testing.T, mutate func(*config.Config)) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	require.NoError(t, defaults.Set(cfg))
	cfg.Environment = "test"
	cfg.AI.URL = "http://localhost:9100"
	cfg.Trading.TradeWindows = "6-7,9-11,21-22"
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func inWindow() time.Time {
	return time.Date(2026, 8, 25, 6, 30, 0, 0, time.UTC)
}

func longVerdict(confidence, entry float64) *models.Verdict {
	return &models.Verdict{
		Direction:  models.DirectionLong,
		Confidence: confidence,
		EntryPrice: entry,
		Reason:     "setup confirmed",
	}
}

func TestSizerNotionalNeverExceedsRiskCap(t *testing.T) {
	s := NewSizer(sizerConfig(t, nil)) // leverage 10, risk cap 0.25

	cases := []struct {
		capital float64
		entry   float64
	}{
		{10, 2500},
		{100, 1999.37},
		{1234.56, 0.0731},
		{7, 64000},
	}
	for _, tc := range cases {
		intent, err := s.Size(longVerdict(0.9, tc.entry), AccountState{Capital: tc.capital}, inWindow())
		require.NoError(t, err, "capital %f entry %f", tc.capital, tc.entry)
		assert.LessOrEqual(t, intent.Notional(), tc.capital*0.25+1e-9,
			"capital %f entry %f", tc.capital, tc.entry)
		assert.Greater(t, intent.Quantity, 0.0)
		assert.Equal(t, 10, intent.Leverage)
		assert.Equal(t, tc.capital, intent.Risk.AccountCapital)
	}
}

func TestSizerRejections(t *testing.T) {
	s := NewSizer(sizerConfig(t, nil))
	acct := AccountState{Capital: 100}

	t.Run("none_direction", func(t *testing.T) {
		v := &models.Verdict{Direction: models.DirectionNone, Confidence: 0.9}
		_, err := s.Size(v, acct, inWindow())
		assert.True(t, errors.Is(err, models.ErrRejected))
	})

	t.Run("confidence_below_floor", func(t *testing.T) {
		_, err := s.Size(longVerdict(0.59, 2500), acct, inWindow())
		assert.True(t, errors.Is(err, models.ErrRejected))
	})

	t.Run("missing_entry_price", func(t *testing.T) {
		_, err := s.Size(longVerdict(0.9, 0), acct, inWindow())
		assert.True(t, errors.Is(err, models.ErrRejected))
	})

	t.Run("outside_trade_window", func(t *testing.T) {
		late := time.Date(2026, 8, 25, 8, 0, 0, 0, time.UTC)
		_, err := s.Size(longVerdict(0.9, 2500), acct, late)
		assert.True(t, errors.Is(err, models.ErrRejected))
	})

	t.Run("no_free_capital", func(t *testing.T) {
		_, err := s.Size(longVerdict(0.9, 2500), AccountState{Capital: 0}, inWindow())
		assert.True(t, errors.Is(err, models.ErrRejected))
	})
}

func TestSizerROILimit(t *testing.T) {
	s := NewSizer(sizerConfig(t, func(c *config.Config) {
		c.Trading.MaxROILimit = 50
	}))
	acct := AccountState{Capital: 100, OpenROI: 55}

	_, err := s.Size(longVerdict(0.9, 2500), acct, inWindow())
	assert.True(t, errors.Is(err, models.ErrRejected))

	// below the limit sizing proceeds
	acct.OpenROI = 40
	_, err = s.Size(longVerdict(0.9, 2500), acct, inWindow())
	assert.NoError(t, err)
}

func TestSizerTimeFilterDisabled(t *testing.T) {
	s := NewSizer(sizerConfig(t, func(c *config.Config) {
		c.Trading.UseTimeFilter = false
	}))

	late := time.Date(2026, 8, 25, 8, 0, 0, 0, time.UTC)
	_, err := s.Size(longVerdict(0.9, 2500), AccountState{Capital: 100}, late)
	assert.NoError(t, err)
}

func TestSizerMaxQuantityCap(t *testing.T) {
	s := NewSizer(sizerConfig(t, func(c *config.Config) {
		c.Trading.MaxQuantity = 0.0005
	}))

	intent, err := s.Size(longVerdict(0.9, 100), AccountState{Capital: 1000}, inWindow())
	require.NoError(t, err)
	assert.Equal(t, 0.0005, intent.Quantity)
}

func TestSizerDustQuantityRejected(t *testing.T) {
	s := NewSizer(sizerConfig(t, nil))

	// margin so small the truncated quantity collapses to zero
	_, err := s.Size(longVerdict(0.9, 1e9), AccountState{Capital: 0.01}, inWindow())
	assert.True(t, errors.Is(err, models.ErrRejected))
}
