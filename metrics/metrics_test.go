package metrics_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-export/metrics"
)

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMiddlewareRecordsRouteAndStatus(t *testing.T) {
	m := metrics.New()
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rc := chi.NewRouteContext()
	rc.RoutePatterns = append(rc.RoutePatterns, "/api/runs")
	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	body := scrape(t, m)
	assert.Contains(t, body, `payroll_export_http_requests_total{code="418",route="/api/runs"} 1`)
}

func TestUpstreamAndCacheCounters(t *testing.T) {
	m := metrics.New()

	m.ObserveUpstream("shifts", "200", 20*time.Millisecond)
	m.ObserveUpstream("shifts", "503", 5*time.Millisecond)
	m.CacheLookup("run", true)
	m.CacheLookup("redis", false)

	body := scrape(t, m)
	assert.Contains(t, body, `payroll_export_upstream_requests_total{endpoint="shifts",status="503"} 1`)
	assert.Contains(t, body, `payroll_export_cache_lookups_total{layer="run",result="hit"} 1`)
	assert.Contains(t, body, `payroll_export_cache_lookups_total{layer="redis",result="miss"} 1`)
}

func TestRunTracker(t *testing.T) {
	m := metrics.New()

	require.NoError(t, m.TrackRun("api").End(nil, 3, 1234.5))
	boom := errors.New("boom")
	assert.Equal(t, boom, m.TrackRun("queue").End(boom, 0, 0))

	body := scrape(t, m)
	assert.Contains(t, body, `payroll_export_runs_total{status="success",trigger="api"} 1`)
	assert.Contains(t, body, `payroll_export_runs_total{status="failure",trigger="queue"} 1`)
	assert.Contains(t, body, `payroll_export_run_warnings_total 3`)
	assert.Contains(t, body, `payroll_export_last_run_total_pay_gbp 1234.5`)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *metrics.Metrics

	m.ObserveUpstream("users", "200", time.Second)
	m.CacheLookup("run", true)
	assert.NoError(t, m.TrackRun("cli").End(nil, 1, 1))

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
