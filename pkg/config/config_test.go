package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
environment: test
ai:
  url: http://localhost:9100
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "ETHUSDT", cfg.Trading.Symbol)
	assert.Equal(t, 10, cfg.Trading.Leverage)
	assert.Equal(t, 0.25, cfg.Trading.RiskCapPercent)
	assert.Equal(t, 0.6, cfg.Trading.ConfidenceFloor)
	assert.Equal(t, 500, cfg.Trading.CandleWindowMax)
	assert.Equal(t, 15*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 30, cfg.ClickHouse.RetentionDays)
	assert.True(t, cfg.Trading.DryRun)
	assert.True(t, cfg.Trading.AutonomousMode)

	// legacy start/end hour fallback produces one 0-23 window
	w := cfg.TradeWindows()
	require.Len(t, w, 1)
	assert.True(t, w.Contains(0))
	assert.True(t, w.Contains(23))
}

func TestLoadTradeWindowsSpec(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML+`
trading:
  trade_windows: "6-7,21-22"
  start_hour: 3
  end_hour: 4
`))
	require.NoError(t, err)

	// trade_windows wins over the legacy hour pair
	w := cfg.TradeWindows()
	assert.True(t, w.Contains(6))
	assert.True(t, w.Contains(22))
	assert.False(t, w.Contains(3))
	assert.False(t, w.Contains(4))
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("TRADING_SYMBOL", "BTCUSDT")
	t.Setenv("LEVERAGE", "25")
	t.Setenv("RISK_CAP_PERCENT", "0.1")
	t.Setenv("TRADE_WINDOWS", "9-11")
	t.Setenv("AI_CLIENT_TIMEOUT", "20")
	t.Setenv("DRY_RUN_MODE", "true")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML+`
trading:
  symbol: ETHUSDT
  start_hour: 0
  end_hour: 23
`))
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", cfg.Trading.Symbol)
	assert.Equal(t, 25, cfg.Trading.Leverage)
	assert.Equal(t, 0.1, cfg.Trading.RiskCapPercent)
	assert.Equal(t, 20*time.Second, cfg.AI.Timeout)

	w := cfg.TradeWindows()
	assert.True(t, w.Contains(10))
	assert.False(t, w.Contains(12))
}

func TestValidateRejections(t *testing.T) {
	t.Run("missing_ai_url", func(t *testing.T) {
		_, err := Load(writeConfig(t, "environment: test\n"))
		assert.Error(t, err)
	})

	t.Run("ai_timeout_below_floor", func(t *testing.T) {
		_, err := Load(writeConfig(t, minimalYAML+`
  timeout: 2s
`))
		assert.Error(t, err)
	})

	t.Run("ai_timeout_above_cap", func(t *testing.T) {
		_, err := Load(writeConfig(t, minimalYAML+`
  timeout: 2m
`))
		assert.Error(t, err)
	})

	t.Run("leverage_out_of_bounds", func(t *testing.T) {
		_, err := Load(writeConfig(t, minimalYAML+`
trading:
  leverage: 500
`))
		assert.Error(t, err)
	})

	t.Run("risk_cap_above_one", func(t *testing.T) {
		_, err := Load(writeConfig(t, minimalYAML+`
trading:
  risk_cap_percent: 1.5
`))
		assert.Error(t, err)
	})

	t.Run("live_mode_needs_credentials", func(t *testing.T) {
		_, err := Load(writeConfig(t, minimalYAML+`
trading:
  dry_run: false
`))
		assert.Error(t, err)
	})

	t.Run("kafka_enabled_without_brokers", func(t *testing.T) {
		_, err := Load(writeConfig(t, minimalYAML+`
kafka:
  enabled: true
`))
		assert.Error(t, err)
	})

	t.Run("bad_trade_windows", func(t *testing.T) {
		_, err := Load(writeConfig(t, minimalYAML+`
trading:
  trade_windows: "25-30"
`))
		assert.Error(t, err)
	})
}
