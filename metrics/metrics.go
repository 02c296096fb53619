// Package metrics records request counters and response size histograms for
// the range server in Prometheus format.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics implements http.Recorder.
type PrometheusMetrics struct {
	namespace string

	// requestsTotal counts finished requests by method and status code
	requestsTotal *prometheus.CounterVec
	// durationSeconds tracks time to last body byte by method
	durationSeconds *prometheus.HistogramVec
	// responseBytes tracks body bytes written by status code
	responseBytes *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. It returns an
// error if any collector name is already taken in reg.
func New(namespace string, reg prometheus.Registerer) (*PrometheusMetrics, error) {
	m := &PrometheusMetrics{namespace: namespace}

	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total object requests by method and status.",
		},
		[]string{"method", "status"},
	)

	m.durationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time to write the full response.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// 1KB .. 1GB
	m.responseBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "response_bytes",
			Help:      "Response body sizes by status.",
			Buckets:   prometheus.ExponentialBuckets(1024, 10, 7),
		},
		[]string{"status"},
	)

	for _, c := range []prometheus.Collector{m.requestsTotal, m.durationSeconds, m.responseBytes} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	return m, nil
}

// ObserveRequest records one finished request.
func (m *PrometheusMetrics) ObserveRequest(method string, status int, bytes int64, duration time.Duration) {
	code := strconv.Itoa(status)
	m.requestsTotal.WithLabelValues(method, code).Inc()
	m.durationSeconds.WithLabelValues(method).Observe(duration.Seconds())
	m.responseBytes.WithLabelValues(code).Observe(float64(bytes))
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
