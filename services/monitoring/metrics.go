// Package monitoring exposes Prometheus metrics for the backtest service.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	BacktestsTotal   *prometheus.CounterVec
	BacktestErrors   *prometheus.CounterVec
	BacktestDuration *prometheus.HistogramVec
	BarsProcessed    prometheus.Counter
}

// NewMetrics builds and registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		BacktestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backtest_runs_total",
				Help: "Completed backtest runs by strategy",
			},
			[]string{"strategy"},
		),
		BacktestErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backtest_errors_total",
				Help: "Failed backtest requests by reason",
			},
			[]string{"reason"},
		),
		BacktestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backtest_duration_seconds",
				Help:    "Wall time of one backtest run",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"strategy"},
		),
		BarsProcessed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "backtest_bars_processed_total",
				Help: "Bars replayed across all runs",
			},
		),
	}
	m.registry.MustRegister(m.BacktestsTotal, m.BacktestErrors, m.BacktestDuration, m.BarsProcessed)
	return m
}

// ObserveRun records one completed run.
func (m *Metrics) ObserveRun(strategy string, bars int, d time.Duration) {
	m.BacktestsTotal.WithLabelValues(strategy).Inc()
	m.BacktestDuration.WithLabelValues(strategy).Observe(d.Seconds())
	m.BarsProcessed.Add(float64(bars))
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
