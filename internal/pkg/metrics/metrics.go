package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus registry and the payroll collectors. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	transitions      *prometheus.CounterVec
	generateDuration prometheus.Histogram
	generatedRows    prometheus.Counter
	finalizeIssues   prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payroll_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payroll_http_request_duration_seconds",
			Help:    "HTTP request duration by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payroll_payrun_transitions_total",
			Help: "Pay run lifecycle operations by outcome.",
		}, []string{"operation", "outcome"}),
		generateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "payroll_generate_duration_seconds",
			Help:    "Wall time of a pay run generation.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		generatedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "payroll_generated_rows_total",
			Help: "Payroll rows written by generation.",
		}),
		finalizeIssues: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "payroll_finalize_issues_total",
			Help: "Validation issues that blocked a finalize.",
		}),
	}
	registry.MustRegister(
		m.requestsTotal, m.requestDuration,
		m.transitions, m.generateDuration, m.generatedRows, m.finalizeIssues,
		collectors.NewGoCollector(),
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler serves /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Transition counts a lifecycle operation; outcome is "ok" or an error class.
func (m *Metrics) Transition(operation, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) Generated(d time.Duration, rows int) {
	if m == nil {
		return
	}
	m.generateDuration.Observe(d.Seconds())
	m.generatedRows.Add(float64(rows))
}

func (m *Metrics) FinalizeBlocked(issues int) {
	if m == nil {
		return
	}
	m.finalizeIssues.Add(float64(issues))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
