package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-commerce/internal/cashflow"
	cashflowhttp "github.com/odyssey-erp/odyssey-commerce/internal/cashflow/http"
	"github.com/odyssey-erp/odyssey-commerce/internal/catalog"
	"github.com/odyssey-erp/odyssey-commerce/internal/hr"
	"github.com/odyssey-erp/odyssey-commerce/internal/inventory"
	"github.com/odyssey-erp/odyssey-commerce/internal/observability"
	"github.com/odyssey-erp/odyssey-commerce/internal/orders"
	"github.com/odyssey-erp/odyssey-commerce/internal/rbac"
	"github.com/odyssey-erp/odyssey-commerce/internal/store/memory"
	"github.com/odyssey-erp/odyssey-commerce/internal/users"
)

type server struct {
	handler http.Handler
	store   *memory.Store
}

func newServer(t *testing.T, ready func(*http.Request) error) server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &Config{StoreDriver: StoreDriverMemory, RateLimitPerMinute: 1000, LogLevel: "info"}
	store := memory.NewStore()
	store.PutUser(users.User{ID: "u-cust", Username: "erin"})
	stores := MemoryStores(store, logger)
	metrics := observability.NewMetrics()
	svcs := NewServices(cfg, stores, nil, metrics, logger)
	mw := rbac.Middleware{Logger: logger}

	return server{store: store, handler: NewRouter(RouterParams{
		Logger:           logger,
		Config:           cfg,
		RBACMiddleware:   mw,
		CatalogHandler:   catalog.NewHandler(logger, svcs.Catalog, mw),
		InventoryHandler: inventory.NewHandler(logger, svcs.Inventory, mw),
		OrdersHandler:    orders.NewHandler(logger, svcs.Orders, mw),
		CashflowHandler:  cashflowhttp.NewHandler(logger, svcs.Cashflow, svcs.Engine, mw),
		HRHandler:        hr.NewHandler(logger, svcs.HR, mw),
		Metrics:          metrics,
		Ready:            ready,
	})}
}

func (s server) do(t *testing.T, method, path, userID, role, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(rbac.HeaderUserID, userID)
		req.Header.Set(rbac.HeaderUserRole, role)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	ok := newServer(t, nil)
	rec := ok.do(t, http.MethodGet, "/healthz", "", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	down := newServer(t, func(*http.Request) error { return errors.New("db down") })
	assert.Equal(t, http.StatusServiceUnavailable, down.do(t, http.MethodGet, "/healthz", "", "", "").Code)
}

func TestOrderToCashflowFlow(t *testing.T) {
	s := newServer(t, nil)

	rec := s.do(t, http.MethodPost, "/products/", "u-admin", "admin", `{"name":{"en":"Kettle"},"categoryId":"kitchen","price":30,"stockQuantity":2}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var product catalog.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &product))

	order := `{"products":[{"productId":"` + product.ID + `","quantity":2}],"paymentMethod":"paypal","totalPrice":60}`
	rec = s.do(t, http.MethodPost, "/orders/", "u-cust", "customer", order)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var placed orders.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placed))

	rec = s.do(t, http.MethodPost, "/orders/", "u-cust", "customer", order)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "stock is exhausted")

	rec = s.do(t, http.MethodPut, "/orders/"+placed.ID, "u-cust", "customer", `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 3, s.store.Transactions().Count())

	rec = s.do(t, http.MethodGet, "/cashflow/dashboard", "u-admin", "admin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var dash cashflow.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	assert.Equal(t, 60.0, dash.TotalInflows)
	assert.Equal(t, 34.0, dash.TotalOutflows)
	assert.Equal(t, 26.0, dash.CurrentBalance)

	rec = s.do(t, http.MethodGet, "/metrics", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "odyssey_orders_created_total 1")
	assert.Contains(t, body, `odyssey_cashflow_derivations_total{result="created"} 1`)

	low := s.do(t, http.MethodGet, "/inventory/low-stock", "u-admin", "admin", "")
	assert.Equal(t, http.StatusOK, low.Code)
}

func TestMemoryStoresPing(t *testing.T) {
	stores := MemoryStores(memory.NewStore(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.NoError(t, stores.Ping(context.Background()))
	stores.Close()
}
