package ledger

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TradeLog appends one line per entry/exit event: timestamp, event kind,
// pair, side, and z-score. The z is "N/A" on exits, which carry no signal.
type TradeLog struct {
	mu   sync.Mutex
	file *os.File
}

// NewTradeLog opens (or creates) the trade log for appending.
func NewTradeLog(path string) (*TradeLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create trade log dir: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trade log: %w", err)
	}
	return &TradeLog{file: file}, nil
}

// Entry records a position entry with its triggering z-score.
func (t *TradeLog) Entry(a, b string, side Side, z float64) error {
	return t.write("ENTRY", a, b, string(side), z)
}

// Exit records a position exit; z is not applicable.
func (t *TradeLog) Exit(a, b string) error {
	return t.write("EXIT", a, b, "CLOSE", math.NaN())
}

func (t *TradeLog) write(event, a, b, side string, z float64) error {
	zs := "N/A"
	if !math.IsNaN(z) {
		zs = fmt.Sprintf("%.4f", z)
	}
	line := fmt.Sprintf("%s | %s | Pair: (%s, %s) | Side: %s | Z: %s\n",
		time.Now().UTC().Format("2006-01-02 15:04:05"), event, a, b, side, zs)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return fmt.Errorf("trade log closed")
	}
	if _, err := t.file.WriteString(line); err != nil {
		return fmt.Errorf("append trade log: %w", err)
	}
	return nil
}

// Close releases the file handle.
func (t *TradeLog) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file = nil
	return err
}
