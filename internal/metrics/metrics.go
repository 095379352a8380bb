// Package metrics exposes Prometheus instrumentation for the serve
// command: computation outcomes and HTTP handler latency.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var histogramBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Metrics holds the collectors on a private registry so repeated
// construction in tests never collides.
type Metrics struct {
	registry *prometheus.Registry

	computations        *prometheus.CounterVec
	computationDuration *prometheus.HistogramVec
	requestTotal        *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.computations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "impact",
		Name:      "computations_total",
		Help:      "Count of impact computations by device kind and outcome",
	}, []string{"kind", "outcome"})

	m.computationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "impact",
		Name:      "computation_duration_seconds",
		Help:      "Latency distribution of impact computations",
		Buckets:   histogramBuckets,
	}, []string{"kind"})

	m.requestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "impact",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Count of processed HTTP requests",
	}, []string{"method", "route", "status"})

	m.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "impact",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution of HTTP handlers",
		Buckets:   histogramBuckets,
	}, []string{"method", "route", "status"})

	m.registry.MustRegister(m.computations, m.computationDuration, m.requestTotal, m.requestDuration)
	return m
}

// Handler serves the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordComputation counts one finished computation.
func (m *Metrics) RecordComputation(kind, outcome string, duration time.Duration) {
	m.computations.With(prometheus.Labels{"kind": kind, "outcome": outcome}).Inc()
	m.computationDuration.With(prometheus.Labels{"kind": kind}).Observe(duration.Seconds())
}

// Instrument wraps an HTTP handler with request counting and latency
// observation under a stable route label.
func (m *Metrics) Instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &responseRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)
		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		labels := prometheus.Labels{
			"method": req.Method,
			"route":  route,
			"status": strconv.Itoa(status),
		}
		m.requestTotal.With(labels).Inc()
		m.requestDuration.With(labels).Observe(time.Since(start).Seconds())
	}
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (rr *responseRecorder) WriteHeader(code int) {
	rr.status = code
	rr.ResponseWriter.WriteHeader(code)
}

func (rr *responseRecorder) Write(b []byte) (int, error) {
	if rr.status == 0 {
		rr.status = http.StatusOK
	}
	return rr.ResponseWriter.Write(b)
}
