package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	path := filepath.Join("testdata", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "pairsplus-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if len(cfg.Universe) != 10 || cfg.Universe[0] != "AAPL" {
		t.Fatalf("unexpected universe: %+v", cfg.Universe)
	}
	if cfg.Broker.Provider != "paper" {
		t.Fatalf("unexpected broker provider: %s", cfg.Broker.Provider)
	}
	if cfg.Data.Provider != "stub" {
		t.Fatalf("unexpected data provider: %s", cfg.Data.Provider)
	}
	if cfg.Data.LookbackDays != 90 {
		t.Fatalf("unexpected lookback days: %d", cfg.Data.LookbackDays)
	}
	if cfg.Strategy.ZThreshold != 1.5 {
		t.Fatalf("unexpected z threshold: %.2f", cfg.Strategy.ZThreshold)
	}
	if cfg.Strategy.RollingWindow != 60 {
		t.Fatalf("unexpected rolling window: %d", cfg.Strategy.RollingWindow)
	}
	if cfg.Strategy.KalmanCov != 0.005 {
		t.Fatalf("unexpected kalman cov: %.4f", cfg.Strategy.KalmanCov)
	}
	if cfg.Strategy.MaxPairs != 5 {
		t.Fatalf("unexpected max pairs: %d", cfg.Strategy.MaxPairs)
	}
	if cfg.Execution.OrderType != "LIMIT" {
		t.Fatalf("unexpected order type: %s", cfg.Execution.OrderType)
	}
	if cfg.Execution.PegDistance != 0.05 {
		t.Fatalf("unexpected peg distance: %.2f", cfg.Execution.PegDistance)
	}
	if !cfg.Execution.SplitNotional {
		t.Fatalf("expected split notional enabled")
	}
	if cfg.Execution.MaxNotionalPerTrade != 100 {
		t.Fatalf("unexpected max notional per trade: %.2f", cfg.Execution.MaxNotionalPerTrade)
	}
	if cfg.Ledger.PositionsPath != "positions.json" {
		t.Fatalf("unexpected positions path: %s", cfg.Ledger.PositionsPath)
	}
	if cfg.Telegram.ChatID != 123456789 {
		t.Fatalf("unexpected telegram chat id: %d", cfg.Telegram.ChatID)
	}
	if cfg.Mode != "polling" {
		t.Fatalf("unexpected mode: %s", cfg.Mode)
	}
	if cfg.PollingIntervalMinutes != 60 {
		t.Fatalf("unexpected polling interval: %d", cfg.PollingIntervalMinutes)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "minimal.yaml")
	if err := os.WriteFile(path, []byte("app:\n  name: tiny\n"), 0o644); err != nil {
		t.Fatalf("write minimal config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Strategy.ZThreshold != 1.5 {
		t.Fatalf("expected default z threshold 1.5, got %.2f", cfg.Strategy.ZThreshold)
	}
	if cfg.Strategy.MaxPairs != 10 {
		t.Fatalf("expected default max pairs 10, got %d", cfg.Strategy.MaxPairs)
	}
	if cfg.Strategy.MinLength != 30 {
		t.Fatalf("expected default min length 30, got %d", cfg.Strategy.MinLength)
	}
	if cfg.PollingIntervalMinutes != 60 {
		t.Fatalf("expected default polling interval 60, got %d", cfg.PollingIntervalMinutes)
	}
	if cfg.Mode != "polling" {
		t.Fatalf("expected default mode polling, got %s", cfg.Mode)
	}
}

func TestBestParamsOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "best_hyperparams.json")
	body := []byte(`{"z_threshold": 2.25, "rolling_window": 45, "kalman_cov": 0.001}`)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write best params: %v", err)
	}

	bp, err := LoadBestParams(path)
	if err != nil {
		t.Fatalf("LoadBestParams returned error: %v", err)
	}
	if bp == nil {
		t.Fatalf("expected params, got nil")
	}

	cfg := &Config{}
	cfg.applyDefaults()
	bp.ApplyTo(cfg)

	if cfg.Strategy.ZThreshold != 2.25 {
		t.Fatalf("z threshold not overridden: %.2f", cfg.Strategy.ZThreshold)
	}
	if cfg.Strategy.RollingWindow != 45 {
		t.Fatalf("rolling window not overridden: %d", cfg.Strategy.RollingWindow)
	}
	if cfg.Strategy.KalmanCov != 0.001 {
		t.Fatalf("kalman cov not overridden: %.4f", cfg.Strategy.KalmanCov)
	}
	// lookback_days absent in the file: configured value survives
	if cfg.Data.LookbackDays != 90 {
		t.Fatalf("lookback days should keep default, got %d", cfg.Data.LookbackDays)
	}
}

func TestBestParamsMissingFile(t *testing.T) {
	bp, err := LoadBestParams(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if bp != nil {
		t.Fatalf("expected nil params for missing file")
	}
}
