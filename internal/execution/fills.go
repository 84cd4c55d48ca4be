package execution

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Ianhayes66/pairsplus-bot/internal/broker"
)

// Fill records one successfully submitted order for later analysis.
type Fill struct {
	Ts       time.Time `json:"ts"`
	Symbol   string    `json:"symbol"`
	Side     string    `json:"side"`
	Type     string    `json:"type"`
	Qty      float64   `json:"qty,omitempty"`
	Notional float64   `json:"notional,omitempty"`
	Limit    string    `json:"limit,omitempty"`
}

func newFill(req broker.OrderRequest) Fill {
	f := Fill{
		Ts:       time.Now().UTC(),
		Symbol:   req.Symbol,
		Side:     string(req.Side),
		Type:     string(req.Type),
		Qty:      req.Qty,
		Notional: req.Notional,
	}
	if req.Type == broker.Limit {
		f.Limit = req.LimitPrice.StringFixed(2)
	}
	return f
}

// FillRecorder captures submitted orders for later inspection.
type FillRecorder interface {
	Record(Fill)
}

// JSONLRecorder appends fills as JSON lines.
type JSONLRecorder struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewJSONLRecorder creates/opens the target file and returns a recorder.
func NewJSONLRecorder(path string) (*JSONLRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLRecorder{file: file, enc: json.NewEncoder(file)}, nil
}

// Record writes a single fill to the underlying JSONL file.
func (r *JSONLRecorder) Record(fill Fill) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.enc.Encode(fill)
}

// Close flushes and closes the file handle.
func (r *JSONLRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
