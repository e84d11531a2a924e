package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	applogger "MarketSentry/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketsentry_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketsentry_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"path", "method", "status"},
	)

	httpInFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "marketsentry_http_in_flight_requests",
			Help: "Current number of in-flight HTTP requests",
		},
		[]string{"path", "method"},
	)

	metricsRegisterOnce sync.Once
)

// Metrics records per-request counters, latency, and in-flight gauges as a
// net/http middleware. The path label is the raw URL path; this API's routes
// are few and parameterized only by symbol, so cardinality stays bounded.
func Metrics(l *applogger.Logger, slowThreshold time.Duration) func(http.Handler) http.Handler {
	metricsRegisterOnce.Do(func() {
		prometheus.MustRegister(httpRequestsTotal, httpRequestDuration, httpInFlight)
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			method := r.Method

			httpInFlight.WithLabelValues(path, method).Inc()
			start := time.Now()

			rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			elapsed := time.Since(start)
			status := strconv.Itoa(rw.status)

			httpRequestsTotal.WithLabelValues(path, method, status).Inc()
			httpRequestDuration.WithLabelValues(path, method, status).Observe(elapsed.Seconds())
			httpInFlight.WithLabelValues(path, method).Dec()

			if l == nil {
				return
			}
			if rw.status >= 500 {
				l.Error("http request failed",
					applogger.String("path", path),
					applogger.String("method", method),
					applogger.String("status", status),
					applogger.Duration("duration", elapsed),
				)
				return
			}
			if slowThreshold > 0 && elapsed >= slowThreshold {
				l.Warn("http request slow",
					applogger.String("path", path),
					applogger.String("method", method),
					applogger.String("status", status),
					applogger.Duration("duration", elapsed),
				)
			}
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
