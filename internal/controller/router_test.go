package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cassiomorais/qrpay/internal/checkout"
	"github.com/cassiomorais/qrpay/internal/controller"
	"github.com/cassiomorais/qrpay/internal/domain/cart"
	domainErrors "github.com/cassiomorais/qrpay/internal/domain/errors"
	"github.com/cassiomorais/qrpay/internal/domain/order"
	"github.com/cassiomorais/qrpay/internal/domain/payment"
	"github.com/cassiomorais/qrpay/internal/domain/product"
	"github.com/cassiomorais/qrpay/internal/infrastructure/config"
	"github.com/cassiomorais/qrpay/internal/infrastructure/observability"
	"github.com/cassiomorais/qrpay/internal/kv"
	"github.com/cassiomorais/qrpay/internal/ledger"
	"github.com/cassiomorais/qrpay/internal/qrflow"
	"github.com/cassiomorais/qrpay/internal/session"
	"github.com/cassiomorais/qrpay/internal/testutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	router      http.Handler
	coordinator *testutil.MockCoordinator
	saga        *testutil.MockCheckout
	payments    *testutil.MockPaymentClient
	orders      *testutil.MockOrderClient
	products    *testutil.MockProductClient
	ledger      *ledger.Ledger
	cart        *cart.Cart
	sessions    *session.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		coordinator: &testutil.MockCoordinator{},
		saga:        &testutil.MockCheckout{},
		payments:    &testutil.MockPaymentClient{},
		orders:      &testutil.MockOrderClient{},
		products:    &testutil.MockProductClient{},
		ledger:      ledger.New(kv.NewMemoryStore(), nil, zerolog.Nop()),
		cart:        cart.New(),
		sessions:    session.New(context.Background(), kv.NewMemoryStore(), zerolog.Nop()),
	}
	f.router = controller.NewRouter(controller.RouterDeps{
		Coordinator: f.coordinator,
		Saga:        f.saga,
		Payments:    f.payments,
		Orders:      f.orders,
		Products:    f.products,
		Ledger:      f.ledger,
		Cart:        f.cart,
		Sessions:    f.sessions,
		Metrics:     observability.NewMetrics("test", prometheus.NewRegistry()),
		CORSConfig:  config.CORSConfig{AllowedOrigins: []string{"*"}},
		Logger:      zerolog.Nop(),
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestRouter_InitiateQR(t *testing.T) {
	f := newFixture(t)
	var initiated int64
	f.coordinator.InitiateFn = func(ctx context.Context, userID int64) error {
		initiated = userID
		return nil
	}
	f.coordinator.SnapshotFn = func() qrflow.Snapshot {
		return qrflow.Snapshot{State: payment.StatePolling, TransactionID: 321, PollAttempt: 1}
	}

	w := f.do(t, http.MethodPost, "/api/v1/qr/initiate", map[string]any{"userId": 42})

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, int64(42), initiated)

	var snap qrflow.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, payment.StatePolling, snap.State)
	assert.Equal(t, int64(321), snap.TransactionID)
}

func TestRouter_InitiateQR_ValidationError(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/qr/initiate", map[string]any{"userId": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp controller.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp.Code)
}

func TestRouter_InitiateQR_PollInProgress(t *testing.T) {
	f := newFixture(t)
	f.coordinator.InitiateFn = func(ctx context.Context, userID int64) error {
		return domainErrors.ErrPollInProgress
	}

	w := f.do(t, http.MethodPost, "/api/v1/qr/initiate", map[string]any{"userId": 42})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRouter_QRStateAndClear(t *testing.T) {
	f := newFixture(t)
	f.coordinator.SnapshotFn = func() qrflow.Snapshot {
		return qrflow.Snapshot{State: payment.StateExpired, Countdown: payment.Countdown{Expired: true}}
	}

	w := f.do(t, http.MethodGet, "/api/v1/qr", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var cleared bool
	f.coordinator.ClearFn = func() { cleared = true }
	w = f.do(t, http.MethodDelete, "/api/v1/qr", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, cleared)
}

func TestRouter_Checkout(t *testing.T) {
	f := newFixture(t)
	f.saga.CheckoutFn = func(ctx context.Context, req checkout.Request) (*checkout.Result, error) {
		return &checkout.Result{
			Order:     order.Order{ID: "srv-900", Status: order.StatusPaid},
			Source:    checkout.SourceRemote,
			PaymentID: 123,
		}, nil
	}

	w := f.do(t, http.MethodPost, "/api/v1/checkout", map[string]any{"qrCode": "PAYMENT_123_x"})
	assert.Equal(t, http.StatusCreated, w.Code)

	var result checkout.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, checkout.SourceRemote, result.Source)
	assert.Equal(t, "srv-900", result.Order.ID)

	require.Len(t, f.saga.Requests, 1)
	assert.Equal(t, "PAYMENT_123_x", f.saga.Requests[0].QRCode)
}

func TestRouter_Checkout_InvalidQR(t *testing.T) {
	f := newFixture(t)
	f.saga.CheckoutFn = func(ctx context.Context, req checkout.Request) (*checkout.Result, error) {
		return nil, domainErrors.ErrInvalidQRFormat
	}

	w := f.do(t, http.MethodPost, "/api/v1/checkout", map[string]any{"qrCode": "garbage"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp controller.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_qr_format", resp.Code)
}

func TestRouter_Checkout_InFlight(t *testing.T) {
	f := newFixture(t)
	f.saga.CheckoutFn = func(ctx context.Context, req checkout.Request) (*checkout.Result, error) {
		return nil, domainErrors.ErrCheckoutInFlight
	}

	w := f.do(t, http.MethodPost, "/api/v1/checkout", map[string]any{"qrCode": "PAYMENT_123_x"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRouter_CartLifecycle(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"productId": 1, "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)

	var resp controller.CartResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 2, resp.TotalItems)
	assert.InDelta(t, 99.98, resp.TotalAmount, 0.001)

	w = f.do(t, http.MethodPut, "/api/v1/cart/items/1", map[string]any{"quantity": 1})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.TotalItems)

	w = f.do(t, http.MethodDelete, "/api/v1/cart/items/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Items)
}

func TestRouter_CartAdd_UnknownProduct(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"productId": 999, "quantity": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_ProductsFallBackToLocalCatalog(t *testing.T) {
	f := newFixture(t)
	f.products.ListFn = func(ctx context.Context) ([]product.Product, error) {
		return nil, stderrors.New("connection refused")
	}
	// Local fallback reflects ledger counters.
	_, err := f.ledger.DecreaseStock(context.Background(), 1, 10)
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/api/v1/products", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var products []product.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	require.Len(t, products, 6)
	assert.Equal(t, 40, products[0].Stock)
}

func TestRouter_LocalOrders(t *testing.T) {
	f := newFixture(t)
	created, err := f.ledger.AddOrder(context.Background(), order.Order{Total: 10, Currency: "USD", Status: order.StatusPaid})
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/api/v1/orders/local", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var orders []order.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &orders))
	require.Len(t, orders, 1)

	w = f.do(t, http.MethodPatch, "/api/v1/orders/local/"+created.ID+"/status", map[string]any{"status": "shipped"})
	require.Equal(t, http.StatusOK, w.Code)
	var updated order.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, order.StatusShipped, updated.Status)

	// Terminal states reject further transitions.
	w = f.do(t, http.MethodPatch, "/api/v1/orders/local/"+created.ID+"/status", map[string]any{"status": "cancelled"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/orders/local/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_PaymentPassthrough(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/payments/123/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/payments/abc/confirm", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/payments", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_Session(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPut, "/api/v1/session", map[string]any{
		"accessToken":  "tok",
		"refreshToken": "ref",
		"userId":       7,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp controller.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Authenticated)
	assert.Equal(t, int64(7), resp.UserID)

	w = f.do(t, http.MethodDelete, "/api/v1/session", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/session", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Authenticated)
}

func TestRouter_Health(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
