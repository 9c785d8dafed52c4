package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ObservationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "observations_total", Help: "Count of price observations delivered by sources"},
		[]string{"source"},
	)
	MalformedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "malformed_records_total", Help: "Wire records skipped because they could not be parsed"},
		[]string{"source"},
	)
	ReconnectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "reconnects_total", Help: "Reconnect attempts scheduled by streaming sources"},
		[]string{"source"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_total", Help: "Actionable signals produced by strategies"},
		[]string{"strategy", "signal"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Orders submitted"},
		[]string{"symbol", "side"},
	)
	StrategyErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "strategy_errors_total", Help: "Strategy evaluations that panicked"},
		[]string{"strategy"},
	)
	HistoryLength = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "history_length", Help: "Observations currently held in the rolling history"},
	)
)

func init() {
	prometheus.MustRegister(ObservationsTotal, MalformedTotal, ReconnectsTotal, SignalsTotal, OrdersTotal, StrategyErrorsTotal, HistoryLength)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
