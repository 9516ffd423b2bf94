package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cyclesTotal  *prometheus.CounterVec
	filterFlags  *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	lastPrice    *prometheus.GaugeVec
	simBalance   prometheus.Gauge
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		cyclesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trademind_cycles_total",
				Help: "Total trading cycles by outcome",
			},
			[]string{"outcome"},
		),
		filterFlags: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trademind_filter_flags_total",
				Help: "Filter evaluations by filter and flag",
			},
			[]string{"filter", "flag"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trademind_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "trademind_last_price",
				Help: "Last observed price for a symbol",
			},
			[]string{"symbol"},
		),
		simBalance: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "trademind_sim_balance",
				Help: "Free balance of the simulated account",
			},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trademind_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordCycle records one completed trading cycle.
func (r *Recorder) RecordCycle(outcome string) {
	r.cyclesTotal.WithLabelValues(outcome).Inc()
}

// RecordFilter records one filter evaluation.
func (r *Recorder) RecordFilter(name, flag string) {
	r.filterFlags.WithLabelValues(name, flag).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordSimBalance records the simulated account balance.
func (r *Recorder) RecordSimBalance(balance float64) {
	r.simBalance.Set(balance)
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
