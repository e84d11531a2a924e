package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cyclesTotal *prometheus.CounterVec
	alertsTotal *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	lastPrice   *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
	msgsSent    *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		cyclesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketsentry_cycles_total",
				Help: "Ingestion cycles by outcome (completed, skipped)",
			},
			[]string{"outcome"},
		),
		alertsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketsentry_alerts_total",
				Help: "Alert events emitted per symbol",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketsentry_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketsentry_last_price",
				Help: "Last observed price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketsentry_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		msgsSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketsentry_messages_sent_total",
				Help: "Samples forwarded per backend and symbol",
			},
			[]string{"backend", "symbol"},
		),
	}
}

// RecordCycle records an ingestion cycle outcome.
func (r *Recorder) RecordCycle(outcome string) {
	r.cyclesTotal.WithLabelValues(outcome).Inc()
}

// RecordAlert records an emitted alert.
func (r *Recorder) RecordAlert(symbol string) {
	r.alertsTotal.WithLabelValues(symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordMessageSent counts a sample forwarded to a backend.
func (r *Recorder) RecordMessageSent(backend, symbol string) {
	r.msgsSent.WithLabelValues(backend, symbol).Inc()
}
