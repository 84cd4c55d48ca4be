// Binary backtest ranks the scanned pairs by the crude directional PnL of
// holding the latest signal over the lookback window.
package main

import (
	"context"
	"flag"
	"sort"
	"time"

	"github.com/Ianhayes66/pairsplus-bot/internal/analytics"
	"github.com/Ianhayes66/pairsplus-bot/internal/config"
	"github.com/Ianhayes66/pairsplus-bot/internal/marketdata"
	"github.com/Ianhayes66/pairsplus-bot/internal/metrics"
	"github.com/Ianhayes66/pairsplus-bot/internal/pairs"
	sig "github.com/Ianhayes66/pairsplus-bot/internal/signal"
	"github.com/Ianhayes66/pairsplus-bot/internal/strategy"
	"github.com/Ianhayes66/pairsplus-bot/internal/util"
)

type result struct {
	pair   pairs.Pair
	action sig.Action
	z      float64
	pnl    float64
	hl     float64
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := util.NewLogger("info")
		bootLog.Fatal().Err(err).Str("path", *configPath).Msg("load config")
	}
	log := util.NewLogger(cfg.App.LogLevel)

	if bp, err := config.LoadBestParams(cfg.BestParamsPath); err == nil {
		bp.ApplyTo(cfg)
	}

	var provider marketdata.Provider = marketdata.StubProvider{}
	if cfg.Data.Provider == "alpaca" {
		secrets, err := config.LoadSecrets()
		if err != nil {
			log.Fatal().Err(err).Msg("load secrets")
		}
		provider = &marketdata.AlpacaProvider{
			BaseURL:   cfg.Broker.DataURL,
			APIKey:    secrets.AlpacaKey,
			APISecret: secrets.AlpacaSecret,
		}
	}
	if cfg.Data.CacheDir != "" {
		provider = marketdata.CachedProvider{
			Inner: provider,
			Dir:   cfg.Data.CacheDir,
			TTL:   time.Duration(cfg.Data.CacheTTLMinutes) * time.Minute,
		}
	}

	panel, err := provider.Fetch(context.Background(), cfg.Universe, cfg.Data.Interval, cfg.Data.LookbackDays)
	if err != nil {
		log.Fatal().Err(err).Msg("fetch panel")
	}

	gen := strategy.Generator{
		ZThreshold:    cfg.Strategy.ZThreshold,
		RollingWindow: cfg.Strategy.RollingWindow,
		NoiseCov:      cfg.Strategy.KalmanCov,
	}
	opts := pairs.Options{
		MaxPairs:      cfg.Strategy.MaxPairs,
		PValThreshold: cfg.Strategy.PValThreshold,
		MinLength:     cfg.Strategy.MinLength,
	}

	var results []result
	equity := 0.0
	for _, p := range pairs.Find(panel, opts) {
		sa, sb, ok := marketdata.AlignSeries(panel.Column(p.A), panel.Column(p.B), cfg.Strategy.MinLength)
		if !ok {
			continue
		}
		spread := marketdata.Spread(sa, sb)
		signal := gen.FromSpread(p.A, p.B, spread)
		pnl := analytics.SimulatePnL(spread, signal.Action)
		equity += pnl
		results = append(results, result{
			pair:   p,
			action: signal.Action,
			z:      signal.Z,
			pnl:    pnl,
			hl:     analytics.HalfLife(spread),
		})
	}
	metrics.EquityValue.Set(equity)

	sort.Slice(results, func(i, j int) bool { return results[i].pnl > results[j].pnl })
	for rank, r := range results {
		log.Info().
			Int("rank", rank+1).
			Str("pair", r.pair.Key()).
			Float64("pval", r.pair.PValue).
			Str("action", r.action.String()).
			Float64("z", r.z).
			Float64("pnl", r.pnl).
			Float64("half_life", r.hl).
			Msg("backtest result")
	}
	log.Info().Int("pairs", len(results)).Float64("total_pnl", equity).Msg("backtest complete")
}
