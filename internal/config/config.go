// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Broker describes broker connectivity and which client implementation to use.
type Broker struct {
	Provider string `yaml:"provider"` // "alpaca" or "paper"
	BaseURL  string `yaml:"base_url"`
	DataURL  string `yaml:"data_url"`
	StreamURL string `yaml:"stream_url"`
}

// Data configures the historical bar provider feeding each trading cycle.
type Data struct {
	Provider        string `yaml:"provider"` // "alpaca" or "stub"
	Interval        string `yaml:"interval"`
	LookbackDays    int    `yaml:"lookback_days"`
	CacheDir        string `yaml:"cache_dir"`
	CacheTTLMinutes int    `yaml:"cache_ttl_minutes"`
}

// Strategy groups the tunable knobs of pair selection and signal generation.
type Strategy struct {
	ZThreshold    float64 `yaml:"z_threshold"`
	RollingWindow int     `yaml:"rolling_window"`
	KalmanCov     float64 `yaml:"kalman_cov"`
	PValThreshold float64 `yaml:"pval_threshold"`
	MaxPairs      int     `yaml:"max_pairs"`
	MinLength     int     `yaml:"min_length"`
}

// Execution encodes order construction and sizing policy for the executor.
type Execution struct {
	OrderType           string  `yaml:"order_type"` // "MARKET" or "LIMIT"
	PegDistance         float64 `yaml:"peg_distance"`
	SplitNotional       bool    `yaml:"split_notional"`
	Notional            float64 `yaml:"notional"`
	CloseQty            float64 `yaml:"close_qty"`
	MaxNotionalPerTrade float64 `yaml:"max_notional_per_trade"`
}

// Ledger locates the durable position store and trade event log.
type Ledger struct {
	PositionsPath string `yaml:"positions_path"`
	TradeLogPath  string `yaml:"trade_log_path"`
	FillsPath     string `yaml:"fills_path"`
}

// Telegram identifies the chat the notifier posts to; the token comes from the environment.
type Telegram struct {
	ChatID int64 `yaml:"chat_id"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App                    App       `yaml:"app"`
	Broker                 Broker    `yaml:"broker"`
	Data                   Data      `yaml:"data"`
	Universe               []string  `yaml:"universe"`
	Strategy               Strategy  `yaml:"strategy"`
	Execution              Execution `yaml:"execution"`
	Ledger                 Ledger    `yaml:"ledger"`
	Telegram               Telegram  `yaml:"telegram"`
	Mode                   string    `yaml:"mode"` // "polling" or "streaming"
	PollingIntervalMinutes int       `yaml:"polling_interval_minutes"`
	BestParamsPath         string    `yaml:"best_params_path"`
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	config.applyDefaults()
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Strategy.ZThreshold <= 0 {
		c.Strategy.ZThreshold = 1.5
	}
	if c.Strategy.RollingWindow <= 0 {
		c.Strategy.RollingWindow = 60
	}
	if c.Strategy.KalmanCov <= 0 {
		c.Strategy.KalmanCov = 0.005
	}
	if c.Strategy.PValThreshold <= 0 {
		c.Strategy.PValThreshold = 1.0
	}
	if c.Strategy.MaxPairs <= 0 {
		c.Strategy.MaxPairs = 10
	}
	if c.Strategy.MinLength <= 0 {
		c.Strategy.MinLength = 30
	}
	if c.Data.LookbackDays <= 0 {
		c.Data.LookbackDays = 90
	}
	if c.Data.Interval == "" {
		c.Data.Interval = "1h"
	}
	if c.PollingIntervalMinutes <= 0 {
		c.PollingIntervalMinutes = 60
	}
	if c.Execution.OrderType == "" {
		c.Execution.OrderType = "MARKET"
	}
	if c.Execution.Notional <= 0 {
		c.Execution.Notional = 50
	}
	if c.Execution.CloseQty <= 0 {
		c.Execution.CloseQty = 1
	}
	if c.Mode == "" {
		c.Mode = "polling"
	}
}
