package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// BestParams mirrors the JSON file written by the offline tuning job.
// Pointer fields distinguish "absent" from a literal zero.
type BestParams struct {
	ZThreshold    *float64 `json:"z_threshold"`
	RollingWindow *int     `json:"rolling_window"`
	KalmanCov     *float64 `json:"kalman_cov"`
	LookbackDays  *int     `json:"lookback_days"`
}

// LoadBestParams reads a tuned hyperparameter file. A missing file is not an
// error; the caller keeps its configured values.
func LoadBestParams(path string) (*BestParams, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read best params: %w", err)
	}
	var bp BestParams
	if err := json.Unmarshal(data, &bp); err != nil {
		return nil, fmt.Errorf("decode best params: %w", err)
	}
	return &bp, nil
}

// ApplyTo overrides the strategy and data knobs present in the tuned file.
func (bp *BestParams) ApplyTo(cfg *Config) {
	if bp == nil || cfg == nil {
		return
	}
	if bp.ZThreshold != nil {
		cfg.Strategy.ZThreshold = *bp.ZThreshold
	}
	if bp.RollingWindow != nil {
		cfg.Strategy.RollingWindow = *bp.RollingWindow
	}
	if bp.KalmanCov != nil {
		cfg.Strategy.KalmanCov = *bp.KalmanCov
	}
	if bp.LookbackDays != nil {
		cfg.Data.LookbackDays = *bp.LookbackDays
	}
}
