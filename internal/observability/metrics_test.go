package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/odyssey-erp/odyssey-commerce/internal/jobs"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMetricsHandlerExposesJobMetrics(t *testing.T) {
	metrics := NewMetrics()
	jm := jobmetrics.NewMetrics(metrics.Registerer())
	require.NoError(t, jm.Track("cashflow:sync").End(nil))

	body := scrape(t, metrics)
	require.Contains(t, body, `odyssey_jobs_total{job="cashflow:sync",status="success"} 1`)
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTeapot, rr.Code)

	body := scrape(t, metrics)
	require.Contains(t, body, `http_requests_total{code="418",route="/test"} 1`)
	require.Contains(t, body, `http_request_duration_seconds_bucket{route="/test"`)
}

func TestDomainCounters(t *testing.T) {
	metrics := NewMetrics()
	metrics.OrderCreated()
	metrics.OrderCreated()
	metrics.StockConflict()
	metrics.Derivation("created")
	metrics.CompletionEffect(nil)
	metrics.CompletionEffect(errors.New("store down"))

	body := scrape(t, metrics)
	require.Contains(t, body, "odyssey_orders_created_total 2")
	require.Contains(t, body, "odyssey_stock_conflicts_total 1")
	require.Contains(t, body, `odyssey_cashflow_derivations_total{result="created"} 1`)
	require.Contains(t, body, `odyssey_cashflow_derivations_total{result="trigger_failed"} 1`)
	require.False(t, strings.Contains(body, `result="ok"`))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.OrderCreated()
	metrics.StockConflict()
	metrics.CompletionEffect(errors.New("x"))

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
