package integration

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ianhayes66/pairsplus-bot/internal/broker"
	"github.com/Ianhayes66/pairsplus-bot/internal/engine"
	"github.com/Ianhayes66/pairsplus-bot/internal/execution"
	"github.com/Ianhayes66/pairsplus-bot/internal/ledger"
	"github.com/Ianhayes66/pairsplus-bot/internal/marketdata"
	"github.com/Ianhayes66/pairsplus-bot/internal/strategy"
)

// fixedProvider serves whatever panel the test currently points it at.
type fixedProvider struct {
	panel *marketdata.Panel
}

func (f *fixedProvider) Fetch(context.Context, []string, string, int) (*marketdata.Panel, error) {
	return f.panel, nil
}

// cointegratedPanel builds two columns sharing a trending walk, AAA carrying
// a small stationary wiggle plus an optional dislocation on the final bar.
func cointegratedPanel(rows int, spike float64) *marketdata.Panel {
	start := time.Date(2025, 3, 3, 14, 0, 0, 0, time.UTC)
	times := make([]time.Time, rows)
	aaa := make([]float64, rows)
	bbb := make([]float64, rows)
	for i := 0; i < rows; i++ {
		t := float64(i)
		times[i] = start.Add(time.Duration(i) * time.Hour)
		walk := 100.0 + 0.1*t + math.Sin(t/9.0)
		bbb[i] = walk
		aaa[i] = walk + 0.2*math.Sin(t/3.0)
	}
	aaa[rows-1] += spike
	return marketdata.NewPanel(times, map[string][]float64{"AAA": aaa, "BBB": bbb})
}

// Full live flow against the file-backed ledger and trade log: a dislocated
// spread opens a short-spread position with real orders into the paper
// broker, the next cycle sees the spread reverted and closes it, and both
// transitions survive on disk.
func TestLiveFlowEntersAndExits(t *testing.T) {
	dir := t.TempDir()
	positionsPath := filepath.Join(dir, "positions.json")
	tradeLogPath := filepath.Join(dir, "trades.log")

	tradeLog, err := ledger.NewTradeLog(tradeLogPath)
	if err != nil {
		t.Fatalf("NewTradeLog returned error: %v", err)
	}
	defer tradeLog.Close()

	led := ledger.New(ledger.FileStore{Path: positionsPath})
	if err := led.Load(); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	paper := broker.NewPaperClient(10_000)
	paper.SetPrice("AAA", 110)
	paper.SetPrice("BBB", 108)

	provider := &fixedProvider{panel: cointegratedPanel(80, 5.0)}
	eng := &engine.Engine{
		Provider:  provider,
		Generator: strategy.Generator{ZThreshold: 1.5, RollingWindow: 10, NoiseCov: 0.005},
		Ledger:    led,
		Executor: &execution.Executor{
			Client:     paper,
			Log:        zerolog.Nop(),
			OrderType:  broker.Market,
			RetryPause: time.Millisecond,
		},
		TradeLog:     tradeLog,
		Universe:     []string{"AAA", "BBB"},
		Interval:     "1h",
		LookbackDays: 10,
		Notional:     10,
		CloseQty:     1,
		Log:          zerolog.Nop(),
	}

	// cycle 1: spread dislocated, the engine enters short the spread
	if err := eng.RunCycle(context.Background()); err != nil {
		t.Fatalf("entry cycle returned error: %v", err)
	}
	positions := readPositions(t, positionsPath)
	if positions["AAA_BBB"] != string(ledger.SideShortSpread) {
		t.Fatalf("expected persisted SHORT_SPREAD, got %v", positions)
	}
	if paper.Position("AAA") >= 0 || paper.Position("BBB") <= 0 {
		t.Fatalf("expected sell AAA / buy BBB, got %.4f / %.4f",
			paper.Position("AAA"), paper.Position("BBB"))
	}

	// cycle 2: spread back in band, the engine exits
	provider.panel = cointegratedPanel(80, 0)
	eng.Generator.ZThreshold = 4.0 // keep the in-band wiggle from re-entering
	if err := eng.RunCycle(context.Background()); err != nil {
		t.Fatalf("exit cycle returned error: %v", err)
	}
	if len(readPositions(t, positionsPath)) != 0 {
		t.Fatalf("expected empty position file after exit")
	}

	data, err := os.ReadFile(tradeLogPath)
	if err != nil {
		t.Fatalf("read trade log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 trade log lines, got %d: %q", len(lines), lines)
	}
	if !strings.Contains(lines[0], "ENTRY | Pair: (AAA, BBB) | Side: SHORT_SPREAD") {
		t.Fatalf("entry line malformed: %q", lines[0])
	}
	if !strings.Contains(lines[1], "EXIT | Pair: (AAA, BBB) | Side: CLOSE | Z: N/A") {
		t.Fatalf("exit line malformed: %q", lines[1])
	}

	// a fresh ledger over the same file agrees the book is flat
	reloaded := ledger.New(ledger.FileStore{Path: positionsPath})
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reload ledger: %v", err)
	}
	if reloaded.Len() != 0 {
		t.Fatalf("reloaded ledger should be flat, has %d positions", reloaded.Len())
	}
}

func readPositions(t *testing.T, path string) map[string]string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read positions: %v", err)
	}
	out := map[string]string{}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode positions: %v", err)
	}
	return out
}
