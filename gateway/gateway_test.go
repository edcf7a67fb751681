package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/cloudkitchen/pkg/catalog"
	"github.com/example/cloudkitchen/pkg/checkout"
	"github.com/example/cloudkitchen/pkg/config"
	"github.com/example/cloudkitchen/pkg/dashboard"
	"github.com/example/cloudkitchen/pkg/export"
	"github.com/example/cloudkitchen/pkg/orders"
	"github.com/example/cloudkitchen/pkg/pricing"
	"github.com/example/cloudkitchen/pkg/repository"
	"github.com/example/cloudkitchen/pkg/terminal"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type fixture struct {
	gateway  *Gateway
	exporter *export.FileExporter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := config.Default()
	logger := zap.NewNop()
	kv := repository.NewMemoryRepository()
	history := orders.NewHistory(kv, cfg.Storage.Key(cfg.Storage.OrdersKey), logger)
	exporter := export.NewFileExporter(t.TempDir(), cfg.Pricing.Currency, logger)

	registry := terminal.NewRegistry(actor.NewActorSystem(), terminal.Deps{
		Store:      kv,
		History:    history,
		Calculator: pricing.Default(),
		Exporter:   exporter,
		Logger:     logger,
	}, terminal.Options{Storage: cfg.Storage, Dwell: time.Minute})
	t.Cleanup(registry.Stop)

	dash := dashboard.New(history, nil, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = repository.Dispatch(ctx, kv, registry.HandleChange, dash.HandleChange)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	g := NewGateway(cfg, logger, Services{
		Terminals: registry,
		Dashboard: dash,
		Catalog:   catalog.Default(),
		Reports:   exporter,
		Store:     kv,
	})
	g.SetupRoutes()

	return &fixture{gateway: g, exporter: exporter}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	f.gateway.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	decode(t, w, &resp)
	return resp.Error
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	f.gateway.svc.Store = pinger{err: errors.New("down")}
	w = f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCatalog(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/catalog", "")
	require.Equal(t, http.StatusOK, w.Code)
	var all []categoryResponse
	decode(t, w, &all)
	assert.Len(t, all, 8)

	w = f.do(t, http.MethodGet, "/api/v1/catalog/pizza", "")
	require.Equal(t, http.StatusOK, w.Code)
	var pizza categoryResponse
	decode(t, w, &pizza)
	assert.Len(t, pizza.Items, 2)

	w = f.do(t, http.MethodGet, "/api/v1/catalog/sushi", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCartEndpoints(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/terminals/t1/cart/items", `{"name":"Margherita Pizza"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var view checkout.View
	decode(t, w, &view)
	assert.Equal(t, 1, view.Count)
	assert.Equal(t, "338.82", view.Totals.Total.StringFixed(2))

	w = f.do(t, http.MethodPatch, "/api/v1/terminals/t1/cart/items/Margherita%20Pizza", `{"delta":2}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &view)
	assert.Equal(t, 3, view.Count)

	w = f.do(t, http.MethodDelete, "/api/v1/terminals/t1/cart/items/Margherita%20Pizza", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &view)
	assert.Empty(t, view.Items)

	w = f.do(t, http.MethodPost, "/api/v1/terminals/t1/cart/items", `{"name":"Pineapple Pizza"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/terminals/t1/cart/items", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/terminals/bad.id/cart", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutEndpoints(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/terminals/t1/orders", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Your cart is empty.", errorOf(t, w))

	f.do(t, http.MethodPost, "/api/v1/terminals/t1/cart/items", `{"name":"Veg Biryani"}`)
	w = f.do(t, http.MethodPost, "/api/v1/terminals/t1/orders", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var placed orderResponse
	decode(t, w, &placed)
	assert.GreaterOrEqual(t, placed.Order.OrderID, 100000)
	require.NotNil(t, placed.View.Summary)

	w = f.do(t, http.MethodGet, "/api/v1/terminals/t1/summary", "")
	require.Equal(t, http.StatusOK, w.Code)
	var summary checkout.Summary
	decode(t, w, &summary)
	assert.Equal(t, placed.Order.OrderID, summary.OrderID)

	w = f.do(t, http.MethodDelete, "/api/v1/terminals/t1/summary", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/terminals/t1/summary", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	w = f.do(t, http.MethodDelete, "/api/v1/terminals/t1/summary", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestExportSummary(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodPost, "/api/v1/terminals/t1/cart/items", `{"name":"Mojito"}`)
	f.do(t, http.MethodPost, "/api/v1/terminals/t1/orders", "")

	w := f.do(t, http.MethodPost, "/api/v1/terminals/t1/summary/export", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp exportResponse
	decode(t, w, &resp)
	assert.Nil(t, resp.View.Summary)
	assert.Empty(t, resp.View.Items)

	entries, err := os.ReadDir(f.exporter.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "OrderSummary_"))
}

func TestDashboardEndpoints(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodPost, "/api/v1/terminals/t1/cart/items", `{"name":"Margherita Pizza"}`)
	f.do(t, http.MethodPost, "/api/v1/terminals/t1/orders", "")

	w := f.do(t, http.MethodGet, "/api/v1/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code)
	var view dashboard.View
	decode(t, w, &view)
	assert.Equal(t, dashboard.PeriodToday, view.Period)
	assert.Equal(t, 1, view.Summary.TotalOrders)
	assert.Equal(t, "338.82", view.Summary.TotalRevenue.StringFixed(2))

	w = f.do(t, http.MethodGet, "/api/v1/dashboard?period=custom&from=2026-10-01", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please select both start and end dates", errorOf(t, w))

	w = f.do(t, http.MethodGet, "/api/v1/dashboard?period=custom&from=yesterday&to=today", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/dashboard/export?period=all", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var exported map[string]string
	decode(t, w, &exported)
	assert.Contains(t, exported["file"], "Sales_Report_")
}

func TestClearOrders(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodPost, "/api/v1/terminals/t1/cart/items", `{"name":"Mojito"}`)
	f.do(t, http.MethodPost, "/api/v1/terminals/t1/orders", "")

	w := f.do(t, http.MethodDelete, "/api/v1/orders", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodDelete, "/api/v1/orders?confirm=true", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/dashboard?period=all", "")
	var view dashboard.View
	decode(t, w, &view)
	assert.Equal(t, 0, view.Summary.TotalOrders)
}

func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimPrefix(line, "event:")
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimPrefix(line, "data:")
		case line == "" && event != "":
			return event, data
		}
	}
}

func TestDashboardStream(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.gateway.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/dashboard/stream?period=all", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	r := bufio.NewReader(resp.Body)
	event, data := readEvent(t, r)
	assert.Equal(t, "dashboard", event)
	assert.Contains(t, data, `"totalOrders":0`)

	f.do(t, http.MethodPost, "/api/v1/terminals/t1/cart/items", `{"name":"Mojito"}`)
	f.do(t, http.MethodPost, "/api/v1/terminals/t1/orders", "")

	event, data = readEvent(t, r)
	assert.Equal(t, "dashboard", event)
	assert.Contains(t, data, `"totalOrders":1`)
}
