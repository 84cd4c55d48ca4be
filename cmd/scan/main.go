// Binary scan runs the cointegration pair scan once and reports diagnostics
// for every pair it finds, without trading anything.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ianhayes66/pairsplus-bot/internal/analytics"
	"github.com/Ianhayes66/pairsplus-bot/internal/config"
	"github.com/Ianhayes66/pairsplus-bot/internal/marketdata"
	"github.com/Ianhayes66/pairsplus-bot/internal/pairs"
	"github.com/Ianhayes66/pairsplus-bot/internal/strategy"
	"github.com/Ianhayes66/pairsplus-bot/internal/util"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	rolling := flag.Int("rolling", 0, "also scan every window of this many rows (0 disables)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := util.NewLogger("info")
		bootLog.Fatal().Err(err).Str("path", *configPath).Msg("load config")
	}
	log := util.NewLogger(cfg.App.LogLevel)

	provider := buildProvider(cfg, log)
	ctx := context.Background()

	panel, err := provider.Fetch(ctx, cfg.Universe, cfg.Data.Interval, cfg.Data.LookbackDays)
	if err != nil {
		log.Fatal().Err(err).Msg("fetch panel")
	}
	log.Info().Int("rows", panel.Len()).Int("tickers", len(panel.Tickers)).Msg("panel loaded")

	opts := pairs.Options{
		MaxPairs:      cfg.Strategy.MaxPairs,
		PValThreshold: cfg.Strategy.PValThreshold,
		MinLength:     cfg.Strategy.MinLength,
	}
	found := pairs.Find(panel, opts)
	log.Info().Int("pairs", len(found)).Msg("scan complete")

	for rank, p := range found {
		sa, sb, ok := marketdata.AlignSeries(panel.Column(p.A), panel.Column(p.B), cfg.Strategy.MinLength)
		if !ok {
			continue
		}
		spread := marketdata.Spread(sa, sb)

		event := log.Info().
			Int("rank", rank+1).
			Str("pair", p.Key()).
			Float64("pval", p.PValue).
			Float64("half_life", analytics.HalfLife(spread))
		if _, beta, err := strategy.HedgeRatio(sa.Values, sb.Values); err == nil {
			event = event.Float64("hedge_ratio", beta)
		}
		event.Msg("cointegrated pair")
	}

	if *rolling > 0 {
		windows := pairs.FindRolling(panel, *rolling, opts)
		hits := map[string]int{}
		for _, wp := range windows {
			hits[wp.Key()]++
		}
		for key, count := range hits {
			log.Info().Str("pair", key).Int("windows", count).Msg("rolling stability")
		}
	}
}

// buildProvider mirrors the live binary's data wiring: alpaca when
// configured and credentialed, the deterministic stub otherwise, with the
// CSV cache layered on when a cache dir is set.
func buildProvider(cfg *config.Config, log zerolog.Logger) marketdata.Provider {
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
	return provider
}
