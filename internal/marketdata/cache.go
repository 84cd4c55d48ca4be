package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CachedProvider wraps another provider with a CSV file cache so repeated
// cycles inside the TTL reuse the last fetched panel instead of hitting the
// network again.
type CachedProvider struct {
	Inner Provider
	Dir   string
	TTL   time.Duration
}

// Fetch returns the cached panel when it is fresh enough, otherwise fetches
// through and rewrites the cache file. Cache write failures are ignored; the
// fetched panel is still returned.
func (c CachedProvider) Fetch(ctx context.Context, tickers []string, interval string, lookbackDays int) (*Panel, error) {
	path := c.cachePath(tickers, interval)
	if info, err := os.Stat(path); err == nil && time.Since(info.ModTime()) < c.TTL {
		if panel, err := readPanelCSV(path); err == nil {
			return panel, nil
		}
	}

	panel, err := c.Inner.Fetch(ctx, tickers, interval, lookbackDays)
	if err != nil {
		return nil, err
	}
	_ = writePanelCSV(path, panel)
	return panel, nil
}

func (c CachedProvider) cachePath(tickers []string, interval string) string {
	sorted := append([]string(nil), tickers...)
	sort.Strings(sorted)
	name := fmt.Sprintf("bars_%s_%s.csv", strings.Join(sorted, "_"), interval)
	return filepath.Join(c.Dir, name)
}

func writePanelCSV(path string, p *Panel) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := append([]string{"time"}, p.Tickers...)
	if err := w.Write(header); err != nil {
		return err
	}
	for i, ts := range p.Times {
		row := make([]string, 0, len(header))
		row = append(row, ts.UTC().Format(time.RFC3339))
		for _, ticker := range p.Tickers {
			v := p.Prices[ticker][i]
			if math.IsNaN(v) {
				row = append(row, "")
			} else {
				row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func readPanelCSV(path string) (*Panel, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("cache file %s has no data rows", path)
	}

	header := rows[0]
	if len(header) < 2 || header[0] != "time" {
		return nil, fmt.Errorf("cache file %s has bad header", path)
	}
	tickers := header[1:]

	times := make([]time.Time, 0, len(rows)-1)
	prices := make(map[string][]float64, len(tickers))
	for _, t := range tickers {
		prices[t] = make([]float64, 0, len(rows)-1)
	}
	for _, row := range rows[1:] {
		ts, err := time.Parse(time.RFC3339, row[0])
		if err != nil {
			return nil, fmt.Errorf("parse cache timestamp: %w", err)
		}
		times = append(times, ts)
		for i, t := range tickers {
			cell := row[i+1]
			if cell == "" {
				prices[t] = append(prices[t], math.NaN())
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("parse cache price: %w", err)
			}
			prices[t] = append(prices[t], v)
		}
	}
	return NewPanel(times, prices), nil
}
