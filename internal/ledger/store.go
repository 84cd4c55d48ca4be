// Package ledger owns the durable record of open pair positions and the
// append-only trade event log.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store persists the whole position map. Every change rewrites the full
// record; there is no append log, so the file on disk always matches the
// committed in-memory state.
type Store interface {
	Load() (map[string]string, error)
	Save(map[string]string) error
}

// FileStore keeps the position map as a single JSON object on disk.
type FileStore struct {
	Path string
}

// Load reads the position map; a missing file means no open positions.
func (f FileStore) Load() (map[string]string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read positions: %w", err)
	}
	out := map[string]string{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode positions: %w", err)
	}
	return out, nil
}

// Save rewrites the entire position file.
func (f FileStore) Save(positions map[string]string) error {
	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create positions dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(positions, "", "  ")
	if err != nil {
		return fmt.Errorf("encode positions: %w", err)
	}
	if err := os.WriteFile(f.Path, data, 0o644); err != nil {
		return fmt.Errorf("write positions: %w", err)
	}
	return nil
}

// MemStore is an in-memory Store for tests. FailSaves makes every Save fail,
// exercising the persistence-failure path.
type MemStore struct {
	Positions map[string]string
	FailSaves bool
	SaveCalls int
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{Positions: map[string]string{}}
}

// Load returns a copy of the stored map.
func (m *MemStore) Load() (map[string]string, error) {
	out := make(map[string]string, len(m.Positions))
	for k, v := range m.Positions {
		out[k] = v
	}
	return out, nil
}

// Save replaces the stored map.
func (m *MemStore) Save(positions map[string]string) error {
	m.SaveCalls++
	if m.FailSaves {
		return fmt.Errorf("simulated save failure")
	}
	out := make(map[string]string, len(positions))
	for k, v := range positions {
		out[k] = v
	}
	m.Positions = out
	return nil
}
