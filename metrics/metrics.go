// Package metrics exposes Prometheus collectors for the export service:
// HTTP requests, upstream scheduling API calls, cache lookups and runs.
// Every method is safe on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "payroll_export"

// Metrics holds the registry and every collector.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	upstreamCalls    *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec
	runs             *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	runWarnings      prometheus.Counter
	lastRunPay       prometheus.Gauge
}

// New builds a private registry with every collector registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		upstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Scheduling API calls by endpoint and outcome.",
		}, []string{"endpoint", "status"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Scheduling API call duration by endpoint.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by layer and result.",
		}, []string{"layer", "result"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Payroll runs by trigger and status.",
		}, []string{"trigger", "status"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Payroll run duration by trigger.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"trigger"}),
		runWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_warnings_total",
			Help:      "Warnings raised by completed payroll runs.",
		}),
		lastRunPay: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_total_pay_gbp",
			Help:      "Total pay of the most recent successful run.",
		}),
	}
	registry.MustRegister(
		m.requestsTotal, m.requestDuration,
		m.upstreamCalls, m.upstreamDuration,
		m.cacheLookups,
		m.runs, m.runDuration, m.runWarnings, m.lastRunPay,
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

// Registerer exposes the registry for extra collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// Gatherer exposes the registry for tests and the job server.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// =============================================================================
// HTTP
// =============================================================================

// Middleware records route and status for every request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
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
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}

// =============================================================================
// UPSTREAM AND CACHE
// =============================================================================

// ObserveUpstream records one scheduling API call. status is the HTTP code,
// or "error" for transport failures.
func (m *Metrics) ObserveUpstream(endpoint, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.upstreamCalls.WithLabelValues(endpoint, status).Inc()
	m.upstreamDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// CacheLookup records a hit or miss in a cache layer ("run" or "redis").
func (m *Metrics) CacheLookup(layer string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(layer, result).Inc()
}

// =============================================================================
// RUNS
// =============================================================================

// RunTracker instruments one payroll run.
type RunTracker struct {
	metrics *Metrics
	trigger string
	start   time.Time
}

// TrackRun starts timing a run.
func (m *Metrics) TrackRun(trigger string) *RunTracker {
	return &RunTracker{metrics: m, trigger: trigger, start: time.Now()}
}

// End records the outcome and returns err untouched.
func (t *RunTracker) End(err error, warnings int, totalPay float64) error {
	if t == nil || t.metrics == nil {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
	} else {
		t.metrics.runWarnings.Add(float64(warnings))
		t.metrics.lastRunPay.Set(totalPay)
	}
	t.metrics.runs.WithLabelValues(t.trigger, status).Inc()
	t.metrics.runDuration.WithLabelValues(t.trigger).Observe(time.Since(t.start).Seconds())
	return err
}
