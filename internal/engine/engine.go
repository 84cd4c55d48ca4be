// Package engine wires data, pair discovery, signals, the ledger, and order
// execution into one trading cycle, plus the drivers that repeat it.
package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Ianhayes66/pairsplus-bot/internal/execution"
	"github.com/Ianhayes66/pairsplus-bot/internal/ledger"
	"github.com/Ianhayes66/pairsplus-bot/internal/marketdata"
	"github.com/Ianhayes66/pairsplus-bot/internal/metrics"
	"github.com/Ianhayes66/pairsplus-bot/internal/notify"
	"github.com/Ianhayes66/pairsplus-bot/internal/pairs"
	"github.com/Ianhayes66/pairsplus-bot/internal/risk"
	sig "github.com/Ianhayes66/pairsplus-bot/internal/signal"
	"github.com/Ianhayes66/pairsplus-bot/internal/strategy"
)

// Engine runs one full trading cycle: fetch the panel, scan for cointegrated
// pairs, generate a signal per pair, and reconcile each signal against the
// position ledger through the executor. Failures inside one pair never stop
// the others; only a failed data fetch aborts the cycle.
type Engine struct {
	Provider  marketdata.Provider
	Generator strategy.Generator
	PairOpts  pairs.Options
	Ledger    *ledger.Ledger
	Executor  *execution.Executor
	Notifier  notify.Notifier
	TradeLog  *ledger.TradeLog
	Limits    risk.Limits

	Universe     []string
	Interval     string
	LookbackDays int
	Notional     float64
	CloseQty     float64

	Log zerolog.Logger
}

// RunCycle executes one cycle end to end. The returned error is non-nil only
// when the market data fetch failed; per-pair trading errors are logged,
// counted, and contained.
func (e *Engine) RunCycle(ctx context.Context) error {
	metrics.CyclesTotal.Inc()

	panel, err := e.Provider.Fetch(ctx, e.Universe, e.Interval, e.LookbackDays)
	if err != nil {
		metrics.ErrorsTotal.Inc()
		e.Log.Error().Err(err).Msg("market data fetch failed, skipping cycle")
		e.send(fmt.Sprintf("cycle skipped: data fetch failed: %v", err))
		return fmt.Errorf("fetch panel: %w", err)
	}

	found := pairs.Find(panel, e.PairOpts)
	e.Log.Info().Int("pairs", len(found)).Int("rows", panel.Len()).Msg("cycle scan complete")

	for _, pair := range found {
		if err := e.tradePair(ctx, panel, pair); err != nil {
			metrics.ErrorsTotal.Inc()
			e.Log.Error().Err(err).Str("pair", pair.Key()).Msg("pair cycle failed")
		}
	}
	return nil
}

// tradePair generates the pair's signal and applies the ledger transition it
// calls for, if any.
func (e *Engine) tradePair(ctx context.Context, panel *marketdata.Panel, pair pairs.Pair) error {
	sa, sb, ok := marketdata.AlignSeries(panel.Column(pair.A), panel.Column(pair.B), e.PairOpts.MinLength)
	if !ok {
		return fmt.Errorf("pair %s no longer alignable", pair.Key())
	}
	spread := marketdata.Spread(sa, sb)
	signal := e.Generator.FromSpread(pair.A, pair.B, spread)

	open := e.Ledger.IsOpen(pair.A, pair.B)
	switch {
	case signal.Action != sig.ActionNone && !open:
		return e.enter(ctx, signal)
	case signal.Action == sig.ActionNone && open:
		return e.exit(ctx, signal)
	default:
		e.Log.Debug().Str("pair", pair.Key()).Str("action", signal.Action.String()).Bool("open", open).Msg("no transition")
		return nil
	}
}

// enter places both legs and, only once the orders went through, records the
// position. A rejected or failed entry leaves the ledger flat.
func (e *Engine) enter(ctx context.Context, s sig.Signal) error {
	if !e.Limits.Allow(e.Notional) {
		e.Log.Warn().Str("pair", s.A+"_"+s.B).Float64("notional", e.Notional).Msg("entry blocked by notional limit")
		return nil
	}

	longSym, shortSym := s.A, s.B
	side := ledger.SideLongSpread
	if s.Action == sig.ActionShortSpread {
		longSym, shortSym = s.B, s.A
		side = ledger.SideShortSpread
	}

	if err := e.Executor.PlacePairTrade(ctx, longSym, shortSym, e.Notional); err != nil {
		e.send(fmt.Sprintf("entry failed for (%s, %s): %v", s.A, s.B, err))
		return fmt.Errorf("enter %s/%s: %w", s.A, s.B, err)
	}
	if err := e.Ledger.Open(s.A, s.B, side); err != nil {
		e.send(fmt.Sprintf("entry for (%s, %s) filled but not recorded: %v", s.A, s.B, err))
		return fmt.Errorf("record entry %s/%s: %w", s.A, s.B, err)
	}

	metrics.EntriesTotal.Inc()
	if e.TradeLog != nil {
		if err := e.TradeLog.Entry(s.A, s.B, side, s.Z); err != nil {
			e.Log.Warn().Err(err).Msg("trade log entry failed")
		}
	}
	e.Log.Info().Str("pair", s.A+"_"+s.B).Str("side", string(side)).Float64("z", s.Z).Msg("entered pair")
	e.send(fmt.Sprintf("ENTRY %s (%s, %s) z=%.2f", side, s.A, s.B, s.Z))
	return nil
}

// exit unwinds both legs of the open position and clears the ledger entry.
func (e *Engine) exit(ctx context.Context, s sig.Signal) error {
	side, ok := e.Ledger.Side(s.A, s.B)
	if !ok {
		return ledger.ErrNotOpen
	}

	longSym, shortSym := s.A, s.B
	if side == ledger.SideShortSpread {
		longSym, shortSym = s.B, s.A
	}

	if err := e.Executor.ClosePairTrade(ctx, longSym, shortSym, e.CloseQty); err != nil {
		e.send(fmt.Sprintf("exit failed for (%s, %s): %v", s.A, s.B, err))
		return fmt.Errorf("exit %s/%s: %w", s.A, s.B, err)
	}
	if err := e.Ledger.Close(s.A, s.B); err != nil {
		e.send(fmt.Sprintf("exit for (%s, %s) filled but not recorded: %v", s.A, s.B, err))
		return fmt.Errorf("record exit %s/%s: %w", s.A, s.B, err)
	}

	metrics.ExitsTotal.Inc()
	if e.TradeLog != nil {
		if err := e.TradeLog.Exit(s.A, s.B); err != nil {
			e.Log.Warn().Err(err).Msg("trade log exit failed")
		}
	}
	e.Log.Info().Str("pair", s.A+"_"+s.B).Str("side", string(side)).Msg("exited pair")
	e.send(fmt.Sprintf("EXIT (%s, %s)", s.A, s.B))
	return nil
}

func (e *Engine) send(msg string) {
	if e.Notifier == nil {
		return
	}
	e.Notifier.Send(msg)
}
