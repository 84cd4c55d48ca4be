// Package metrics exposes the bot's prometheus counters and the /metrics server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "trade_cycles_total", Help: "Number of trading cycles run"},
	)
	EntriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "trade_entries_total", Help: "Number of new pair trades entered"},
	)
	ExitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "trade_exits_total", Help: "Number of pair trades exited"},
	)
	ErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "trade_errors_total", Help: "Number of errors caught during trading"},
	)
	OrderAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_attempted_total", Help: "Broker order submissions attempted"},
		[]string{"symbol", "side"},
	)
	EquityValue = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "equity_value", Help: "Simulated equity curve"},
	)
)

func init() {
	prometheus.MustRegister(CyclesTotal, EntriesTotal, ExitsTotal, ErrorsTotal, OrderAttemptsTotal, EquityValue)
}

// Serve starts the prometheus endpoint in the background and returns the server handle.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
