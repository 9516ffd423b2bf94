package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"` // console or json
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Exchange struct {
		APIKey         string        `yaml:"api_key"`
		APISecret      string        `yaml:"api_secret"`
		RESTURL        string        `yaml:"rest_url"`
		WebSocketURL   string        `yaml:"websocket_url"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"20s"`
	} `yaml:"exchange"`
	AI struct {
		URL     string        `yaml:"url"`
		APIKey  string        `yaml:"api_key"`
		Timeout time.Duration `yaml:"timeout" default:"15s"` // hard cap per cycle, 5s..60s
	} `yaml:"ai"`
	Peers struct {
		HealthURLs []string      `yaml:"health_urls"`
		AlertURL   string        `yaml:"alert_url"`
		Timeout    time.Duration `yaml:"timeout" default:"5s"`
	} `yaml:"peers"`
	Trading struct {
		Symbol          string  `yaml:"symbol" default:"ETHUSDT"`
		Leverage        int     `yaml:"leverage" default:"10" validate:"min=1,max=250"`
		RiskCapPercent  float64 `yaml:"risk_cap_percent" default:"0.25" validate:"gt=0,lte=1"`
		MaxROILimit     float64 `yaml:"max_roi_limit" default:"0" validate:"gte=0"` // 0 = unlimited
		ConfidenceFloor float64 `yaml:"confidence_floor" default:"0.6" validate:"gte=0,lte=1"`
		MaxQuantity     float64 `yaml:"max_quantity" default:"1000" validate:"gt=0"`

		AutonomousMode bool `yaml:"autonomous_mode" default:"true"`
		DryRun         bool `yaml:"dry_run" default:"true"`

		UseTimeFilter bool   `yaml:"use_time_filter" default:"true"`
		TradeWindows  string `yaml:"trade_windows"` // e.g. "6-7,9-11,21-22" UTC hours
		StartHour     int    `yaml:"start_hour" default:"0" validate:"min=0,max=23"`  // legacy fallback
		EndHour       int    `yaml:"end_hour" default:"23" validate:"min=0,max=23"`   // legacy fallback

		CandleWindowMax int           `yaml:"candle_window_max" default:"500" validate:"min=100,max=1000"`
		CycleInterval   time.Duration `yaml:"cycle_interval" default:"5s"`
		CooldownDelay   time.Duration `yaml:"cooldown_delay" default:"30s"`

		SimulationInitialCapital float64 `yaml:"simulation_initial_capital" default:"10" validate:"gt=0"`
		SimulationStatePath      string  `yaml:"simulation_state_path" default:"./simulation_state.json"`
	} `yaml:"trading"`
	Filters FiltersConfig `yaml:"filters"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"trademind"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
		RetentionDays    int           `yaml:"retention_days" default:"30" validate:"min=1"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"trademind.audit"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"gzip"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"500ms"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db" default:"0"`
	} `yaml:"redis"`

	// parsed trade windows, built during Validate
	windows Windows
}

// FiltersConfig holds per-filter thresholds. Each filter owns its slice.
type FiltersConfig struct {
	CTS               CTSConfig               `yaml:"cts"`
	Compression       CompressionConfig       `yaml:"compression"`
	Spoof             SpoofConfig             `yaml:"spoof"`
	OrderbookReversal OrderbookReversalConfig `yaml:"orderbook_reversal"`
	Breakout          BreakoutConfig          `yaml:"breakout"`
	Retest            RetestConfig            `yaml:"retest"`
	LowVolume         LowVolumeConfig         `yaml:"low_volume"`
	Trend             TrendConfig             `yaml:"trend"`
}

type CTSConfig struct {
	Lookback       int     `yaml:"lookback" default:"20" validate:"min=5,max=500"`
	NarrowRatio    float64 `yaml:"narrow_ratio" default:"0.5" validate:"gt=0,lte=1"`
	WickMultiplier float64 `yaml:"wick_multiplier" default:"2.0" validate:"gt=0"`
}

type CompressionConfig struct {
	Lookback     int     `yaml:"lookback" default:"5" validate:"min=5,max=500"`
	ThresholdPct float64 `yaml:"threshold_pct" default:"0.5" validate:"gt=0"`
}

type SpoofConfig struct {
	Depth           int     `yaml:"depth" default:"5" validate:"min=2,max=50"`
	VolumeDropPct   float64 `yaml:"volume_drop_pct" default:"10" validate:"gt=0,lte=100"`
	DistancePct     float64 `yaml:"distance_pct" default:"0.5" validate:"gt=0,lte=10"`
	LevelMultiplier float64 `yaml:"level_multiplier" default:"4" validate:"gt=1"`
}

type OrderbookReversalConfig struct {
	DistancePct  float64 `yaml:"distance_pct" default:"1.0" validate:"gt=0,lte=10"`
	TriggerScore float64 `yaml:"trigger_score" default:"0.75" validate:"gt=0,lte=1"`
	WarnScore    float64 `yaml:"warn_score" default:"0.5" validate:"gt=0,lte=1"`
}

type BreakoutConfig struct {
	Lookback      int     `yaml:"lookback" default:"30" validate:"min=5,max=500"`
	ZoneThreshold float64 `yaml:"zone_threshold" default:"0.01" validate:"gt=0,lte=0.2"`
}

type RetestConfig struct {
	Lookback       int     `yaml:"lookback" default:"30" validate:"min=5,max=500"`
	MaxDistancePct float64 `yaml:"max_distance_pct" default:"0.015" validate:"gt=0,lte=0.2"`
}

type LowVolumeConfig struct {
	Candles   int     `yaml:"candles" default:"3" validate:"min=1,max=100"`
	MinVolume float64 `yaml:"min_volume" default:"15000" validate:"gt=0"`
}

type TrendConfig struct {
	Candles int `yaml:"candles" default:"3" validate:"min=2,max=100"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

func (c *Config) applyEnv() {
	setStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setFloat := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			*dst = strings.EqualFold(v, "true") || v == "1"
		}
	}

	setStr("EXCHANGE_API_KEY", &c.Exchange.APIKey)
	setStr("EXCHANGE_API_SECRET", &c.Exchange.APISecret)
	setStr("EXCHANGE_REST_URL", &c.Exchange.RESTURL)
	setStr("EXCHANGE_WS_URL", &c.Exchange.WebSocketURL)

	setStr("AI_PROVIDER_URL", &c.AI.URL)
	setStr("AI_PROVIDER_API_KEY", &c.AI.APIKey)
	if v := os.Getenv("AI_CLIENT_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.AI.Timeout = time.Duration(n) * time.Second
		}
	}

	setStr("TRADING_SYMBOL", &c.Trading.Symbol)
	setInt("LEVERAGE", &c.Trading.Leverage)
	setFloat("RISK_CAP_PERCENT", &c.Trading.RiskCapPercent)
	setFloat("MAX_ROI_LIMIT", &c.Trading.MaxROILimit)
	setBool("AUTONOMOUS_MODE_ENABLED", &c.Trading.AutonomousMode)
	setBool("DRY_RUN_MODE", &c.Trading.DryRun)
	setBool("USE_TIME_OF_DAY_FILTER", &c.Trading.UseTimeFilter)
	setStr("TRADE_WINDOWS", &c.Trading.TradeWindows)
	setInt("TRADING_START_HOUR", &c.Trading.StartHour)
	setInt("TRADING_END_HOUR", &c.Trading.EndHour)
	setInt("KLINE_DEQUE_MAXLEN", &c.Trading.CandleWindowMax)
	setFloat("SIMULATION_INITIAL_CAPITAL", &c.Trading.SimulationInitialCapital)
	setStr("SIMULATION_STATE_FILE_PATH", &c.Trading.SimulationStatePath)

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	setStr("KAFKA_TOPIC", &c.Kafka.Topic)
	setStr("REDIS_ADDR", &c.Redis.Addr)
	if v := os.Getenv("PEER_HEALTH_URLS"); v != "" {
		c.Peers.HealthURLs = strings.Split(v, ",")
	}
	setStr("ALERT_URL", &c.Peers.AlertURL)
}

// Validate checks all bounds. Any violation is fatal at startup.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config bounds: %w", err)
	}
	if c.AI.URL == "" {
		return fmt.Errorf("ai.url is required")
	}
	if c.AI.Timeout < 5*time.Second || c.AI.Timeout > 60*time.Second {
		return fmt.Errorf("ai.timeout must be between 5s and 60s, got %s", c.AI.Timeout)
	}
	if !c.Trading.DryRun && (c.Exchange.APIKey == "" || c.Exchange.APISecret == "") {
		return fmt.Errorf("exchange credentials are required in live mode")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}

	// TRADE_WINDOWS wins when set; the legacy start/end hour pair is only
	// consulted as a fallback.
	spec := c.Trading.TradeWindows
	if spec == "" {
		spec = fmt.Sprintf("%d-%d", c.Trading.StartHour, c.Trading.EndHour)
	}
	w, err := ParseWindows(spec)
	if err != nil {
		return fmt.Errorf("trade windows: %w", err)
	}
	c.windows = w

	return nil
}

// TradeWindows returns the parsed allowed UTC hour ranges.
func (c *Config) TradeWindows() Windows {
	return c.windows
}
