package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/pay-runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", m.Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/pay-runs/abc", nil))

	m.Transition("finalize", "ok")
	m.Generated(1500*time.Millisecond, 3)
	m.FinalizeBlocked(2)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	out := string(body)
	assert.True(t, strings.Contains(out, `payroll_http_requests_total{code="418",route="/pay-runs/{id}"} 1`))
	assert.True(t, strings.Contains(out, `payroll_payrun_transitions_total{operation="finalize",outcome="ok"} 1`))
	assert.True(t, strings.Contains(out, `payroll_generated_rows_total 3`))
	assert.True(t, strings.Contains(out, `payroll_finalize_issues_total 2`))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Transition("generate", "ok")
	m.Generated(time.Second, 1)
	m.FinalizeBlocked(1)

	called := false
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
