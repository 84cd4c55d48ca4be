// Binary live runs the pairs trading engine against the configured broker,
// either on a polling schedule or per live bar.
package main

import (
	"context"
	"flag"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ianhayes66/pairsplus-bot/internal/broker"
	"github.com/Ianhayes66/pairsplus-bot/internal/config"
	"github.com/Ianhayes66/pairsplus-bot/internal/engine"
	"github.com/Ianhayes66/pairsplus-bot/internal/execution"
	"github.com/Ianhayes66/pairsplus-bot/internal/ledger"
	"github.com/Ianhayes66/pairsplus-bot/internal/marketdata"
	"github.com/Ianhayes66/pairsplus-bot/internal/metrics"
	"github.com/Ianhayes66/pairsplus-bot/internal/notify"
	"github.com/Ianhayes66/pairsplus-bot/internal/pairs"
	"github.com/Ianhayes66/pairsplus-bot/internal/risk"
	sig "github.com/Ianhayes66/pairsplus-bot/internal/signal"
	"github.com/Ianhayes66/pairsplus-bot/internal/strategy"
	"github.com/Ianhayes66/pairsplus-bot/internal/util"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := util.NewLogger("info")
		bootLog.Fatal().Err(err).Str("path", *configPath).Msg("load config")
	}
	log := util.NewLogger(cfg.App.LogLevel)

	secrets := loadSecrets(cfg, log)

	if bp, err := config.LoadBestParams(cfg.BestParamsPath); err != nil {
		log.Warn().Err(err).Msg("tuned params unreadable, using configured values")
	} else if bp != nil {
		bp.ApplyTo(cfg)
		log.Info().Str("path", cfg.BestParamsPath).Msg("applied tuned params")
	}

	if cfg.App.MetricsAddr != "" {
		_ = metrics.Serve(cfg.App.MetricsAddr)
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	notifier := buildNotifier(cfg, secrets, log)
	provider := buildProvider(cfg, secrets)
	client := buildBroker(cfg, secrets)

	positionsPath := cfg.Ledger.PositionsPath
	if positionsPath == "" {
		positionsPath = "positions.json"
	}
	led := ledger.New(ledger.FileStore{Path: positionsPath})
	if err := led.Load(); err != nil {
		log.Fatal().Err(err).Msg("load positions")
	}
	log.Info().Int("open", led.Len()).Str("path", positionsPath).Msg("ledger loaded")

	var tradeLog *ledger.TradeLog
	if cfg.Ledger.TradeLogPath != "" {
		tradeLog, err = ledger.NewTradeLog(cfg.Ledger.TradeLogPath)
		if err != nil {
			log.Fatal().Err(err).Msg("open trade log")
		}
		defer tradeLog.Close()
	}

	exec := &execution.Executor{
		Client:        client,
		Log:           log,
		OrderType:     broker.OrderType(cfg.Execution.OrderType),
		PegDistance:   cfg.Execution.PegDistance,
		SplitNotional: cfg.Execution.SplitNotional,
	}
	if cfg.Ledger.FillsPath != "" {
		rec, err := execution.NewJSONLRecorder(cfg.Ledger.FillsPath)
		if err != nil {
			log.Fatal().Err(err).Msg("open fills recorder")
		}
		defer rec.Close()
		exec.Recorder = rec
	}

	eng := &engine.Engine{
		Provider: provider,
		Generator: strategy.Generator{
			ZThreshold:    cfg.Strategy.ZThreshold,
			RollingWindow: cfg.Strategy.RollingWindow,
			NoiseCov:      cfg.Strategy.KalmanCov,
		},
		PairOpts: pairs.Options{
			MaxPairs:      cfg.Strategy.MaxPairs,
			PValThreshold: cfg.Strategy.PValThreshold,
			MinLength:     cfg.Strategy.MinLength,
		},
		Ledger:       led,
		Executor:     exec,
		Notifier:     notifier,
		TradeLog:     tradeLog,
		Limits:       risk.Limits{MaxNotionalPerTrade: cfg.Execution.MaxNotionalPerTrade},
		Universe:     cfg.Universe,
		Interval:     cfg.Data.Interval,
		LookbackDays: cfg.Data.LookbackDays,
		Notional:     cfg.Execution.Notional,
		CloseQty:     cfg.Execution.CloseQty,
		Log:          log,
	}

	log.Info().Str("mode", cfg.Mode).Strs("universe", cfg.Universe).Msg("engine started")
	notifier.Send("pairs bot started in " + cfg.Mode + " mode")

	switch cfg.Mode {
	case "streaming":
		stream := &marketdata.Stream{
			URL:       cfg.Broker.StreamURL,
			APIKey:    secrets.AlpacaKey,
			APISecret: secrets.AlpacaSecret,
			Symbols:   cfg.Universe,
			Log:       log,
		}
		bars := make(chan sig.Bar, 1024)
		go func() {
			if err := stream.Run(ctx, bars); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("bar stream stopped")
				cancel()
			}
		}()
		runner := &engine.Streamer{Engine: eng, Bars: bars, Log: log}
		if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("streaming driver stopped")
		}
	default:
		runner := &engine.Poller{
			Engine:   eng,
			Interval: time.Duration(cfg.PollingIntervalMinutes) * time.Minute,
			Log:      log,
		}
		if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("polling driver stopped")
		}
	}

	log.Info().Msg("shutting down")
}

// loadSecrets tolerates missing broker credentials when neither the data
// provider nor the broker needs them.
func loadSecrets(cfg *config.Config, log zerolog.Logger) *config.Secrets {
	secrets, err := config.LoadSecrets()
	if err != nil {
		if cfg.Data.Provider == "alpaca" || cfg.Broker.Provider == "alpaca" || cfg.Mode == "streaming" {
			log.Fatal().Err(err).Msg("load secrets")
		}
		log.Warn().Err(err).Msg("running without broker credentials")
		return &config.Secrets{TelegramToken: os.Getenv("TELEGRAM_TOKEN")}
	}
	return secrets
}

func buildNotifier(cfg *config.Config, secrets *config.Secrets, log zerolog.Logger) notify.Notifier {
	tg, err := notify.NewTelegram(secrets.TelegramToken, cfg.Telegram.ChatID, log)
	if err != nil {
		log.Warn().Err(err).Msg("telegram unavailable, notifications disabled")
		return notify.Noop{}
	}
	if tg == nil {
		return notify.Noop{}
	}
	log.Info().Int64("chat_id", cfg.Telegram.ChatID).Msg("telegram notifier ready")
	return tg
}

func buildProvider(cfg *config.Config, secrets *config.Secrets) marketdata.Provider {
	var provider marketdata.Provider
	switch cfg.Data.Provider {
	case "alpaca":
		provider = &marketdata.AlpacaProvider{
			BaseURL:   cfg.Broker.DataURL,
			APIKey:    secrets.AlpacaKey,
			APISecret: secrets.AlpacaSecret,
		}
	default:
		provider = marketdata.StubProvider{}
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

func buildBroker(cfg *config.Config, secrets *config.Secrets) broker.Client {
	switch cfg.Broker.Provider {
	case "alpaca":
		return &broker.AlpacaClient{
			BaseURL:   cfg.Broker.BaseURL,
			DataURL:   cfg.Broker.DataURL,
			APIKey:    secrets.AlpacaKey,
			APISecret: secrets.AlpacaSecret,
		}
	default:
		return broker.NewPaperClient(100_000)
	}
}
