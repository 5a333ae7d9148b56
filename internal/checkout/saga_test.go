package checkout_test

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/cassiomorais/qrpay/internal/apiclient"
	"github.com/cassiomorais/qrpay/internal/checkout"
	"github.com/cassiomorais/qrpay/internal/domain/cart"
	"github.com/cassiomorais/qrpay/internal/domain/errors"
	"github.com/cassiomorais/qrpay/internal/domain/order"
	"github.com/cassiomorais/qrpay/internal/domain/product"
	"github.com/cassiomorais/qrpay/internal/kv"
	"github.com/cassiomorais/qrpay/internal/ledger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentStub struct {
	processFn func(ctx context.Context, req apiclient.ProcessPaymentRequest) (*apiclient.Payment, error)
	confirmFn func(ctx context.Context, transactionID int64) (*apiclient.Payment, error)

	mu           sync.Mutex
	processIDs   []int64
	processCalls []apiclient.ProcessPaymentRequest
	confirmCalls []int64
}

func (s *paymentStub) Process(ctx context.Context, transactionID int64, req apiclient.ProcessPaymentRequest) (*apiclient.Payment, error) {
	s.mu.Lock()
	s.processIDs = append(s.processIDs, transactionID)
	s.processCalls = append(s.processCalls, req)
	s.mu.Unlock()
	if s.processFn != nil {
		return s.processFn(ctx, req)
	}
	return &apiclient.Payment{ID: transactionID, Status: "processed"}, nil
}

func (s *paymentStub) Confirm(ctx context.Context, transactionID int64) (*apiclient.Payment, error) {
	s.mu.Lock()
	s.confirmCalls = append(s.confirmCalls, transactionID)
	s.mu.Unlock()
	if s.confirmFn != nil {
		return s.confirmFn(ctx, transactionID)
	}
	return &apiclient.Payment{ID: transactionID, Status: "confirmed"}, nil
}

type orderStub struct {
	createFn func(ctx context.Context, req apiclient.CreateOrderRequest) (*order.Order, error)
	updateFn func(ctx context.Context, id string, status order.Status) (*order.Order, error)

	mu            sync.Mutex
	createCalls   []apiclient.CreateOrderRequest
	statusUpdates []order.Status
}

func (s *orderStub) Create(ctx context.Context, req apiclient.CreateOrderRequest) (*order.Order, error) {
	s.mu.Lock()
	s.createCalls = append(s.createCalls, req)
	s.mu.Unlock()
	if s.createFn != nil {
		return s.createFn(ctx, req)
	}
	return &order.Order{ID: "srv-900", Status: order.StatusPending}, nil
}

func (s *orderStub) UpdateStatus(ctx context.Context, id string, status order.Status) (*order.Order, error) {
	s.mu.Lock()
	s.statusUpdates = append(s.statusUpdates, status)
	s.mu.Unlock()
	if s.updateFn != nil {
		return s.updateFn(ctx, id, status)
	}
	return &order.Order{ID: id, Status: status}, nil
}

type productStub struct {
	listCalls int
	listErr   error
}

func (s *productStub) List(ctx context.Context) ([]product.Product, error) {
	s.listCalls++
	return product.Catalog(), s.listErr
}

func fixture(t *testing.T) (*checkout.Saga, *paymentStub, *orderStub, *productStub, *ledger.Ledger, *cart.Cart) {
	t.Helper()
	payments := &paymentStub{}
	orders := &orderStub{}
	products := &productStub{}
	led := ledger.New(kv.NewMemoryStore(), nil, zerolog.Nop())
	crt := cart.New()
	s := checkout.New(
		checkout.Config{MerchantID: "MERCHANT_STORE_01", Currency: "USD"},
		payments, orders, products, led, crt, nil, zerolog.Nop(),
	)
	return s, payments, orders, products, led, crt
}

func addLines(t *testing.T, crt *cart.Cart) {
	t.Helper()
	hub, ok := product.ByID(2) // 39.99, stock 30
	require.True(t, ok)
	sleeve, ok := product.ByID(6) // 24.99, stock 60
	require.True(t, ok)
	crt.Add(hub, 1)
	crt.Add(sleeve, 1)
	// Total: 39.99 + 24.99 = 64.98
}

func TestCheckout_RemoteOrderPath(t *testing.T) {
	s, payments, orders, products, led, crt := fixture(t)
	addLines(t, crt)

	result, err := s.Checkout(context.Background(), checkout.Request{QRCode: "PAYMENT_123_1748779200"})
	require.NoError(t, err)

	assert.Equal(t, checkout.SourceRemote, result.Source)
	assert.Equal(t, "srv-900", result.Order.ID)
	assert.Equal(t, int64(123), result.PaymentID)
	assert.Equal(t, order.StatusPaid, result.Order.Status)

	// Exactly one remote order, carrying the parsed payment id.
	require.Len(t, orders.createCalls, 1)
	assert.Equal(t, int64(123), orders.createCalls[0].PaymentID)
	assert.Equal(t, "MERCHANT_STORE_01", orders.createCalls[0].MerchantID)
	require.Len(t, orders.createCalls[0].Items, 2)

	// Payment processed against the parsed id with the cart total, then
	// confirmed.
	require.Len(t, payments.processCalls, 1)
	assert.Equal(t, []int64{123}, payments.processIDs)
	assert.InDelta(t, 64.98, payments.processCalls[0].Amount, 0.001)
	assert.Equal(t, "MERCHANT_STORE_01", payments.processCalls[0].MerchantID)
	assert.Equal(t, []int64{123}, payments.confirmCalls)

	// Marked paid and stock refreshed remotely.
	assert.Equal(t, []order.Status{order.StatusPaid}, orders.statusUpdates)
	assert.Equal(t, 1, products.listCalls)

	// The cart cleared, the local ledger untouched.
	assert.True(t, crt.IsEmpty())
	localOrders, err := led.Orders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, localOrders)
}

func TestCheckout_LocalFallbackPath(t *testing.T) {
	s, payments, orders, _, led, crt := fixture(t)
	addLines(t, crt)
	orders.createFn = func(ctx context.Context, req apiclient.CreateOrderRequest) (*order.Order, error) {
		return nil, stderrors.New("connection refused")
	}

	result, err := s.Checkout(context.Background(), checkout.Request{QRCode: "PAYMENT_123_1748779200"})
	require.NoError(t, err)

	assert.Equal(t, checkout.SourceLocal, result.Source)
	assert.Equal(t, order.StatusPaid, result.Order.Status)
	require.NotNil(t, result.Order.PaymentID)
	assert.Equal(t, int64(123), *result.Order.PaymentID)

	// Payment still processed and confirmed before the fallback.
	require.Len(t, payments.processCalls, 1)
	require.Len(t, payments.confirmCalls, 1)

	// Exactly one local order and no remote one.
	localOrders, err := led.Orders(context.Background())
	require.NoError(t, err)
	require.Len(t, localOrders, 1)
	assert.Equal(t, result.Order.ID, localOrders[0].ID)
	require.Len(t, orders.statusUpdates, 0)

	// Local inventory decreased by the cart quantities.
	stock, err := led.Stock(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 29, stock)
	stock, err = led.Stock(context.Background(), 6)
	require.NoError(t, err)
	assert.Equal(t, 59, stock)

	assert.True(t, crt.IsEmpty())
}

func TestCheckout_ParseFailureMakesNoNetworkCall(t *testing.T) {
	s, payments, orders, _, _, crt := fixture(t)
	addLines(t, crt)

	for _, code := range []string{"", "PAYMENT_abc_xyz", "ORDER_123_x"} {
		_, err := s.Checkout(context.Background(), checkout.Request{QRCode: code})
		require.ErrorIs(t, err, errors.ErrInvalidQRFormat, "code %q", code)
	}

	assert.Empty(t, payments.processCalls)
	assert.Empty(t, orders.createCalls)
	assert.False(t, crt.IsEmpty())
}

func TestCheckout_EmptyCartRejected(t *testing.T) {
	s, payments, _, _, _, _ := fixture(t)

	_, err := s.Checkout(context.Background(), checkout.Request{QRCode: "PAYMENT_123_x"})
	require.ErrorIs(t, err, errors.ErrEmptyCart)
	assert.Empty(t, payments.processCalls)
}

func TestCheckout_ProcessFailureLeavesCartIntact(t *testing.T) {
	s, payments, orders, _, led, crt := fixture(t)
	addLines(t, crt)
	payments.processFn = func(ctx context.Context, req apiclient.ProcessPaymentRequest) (*apiclient.Payment, error) {
		return nil, &apiclient.RemoteError{StatusCode: 422, Message: "Insufficient funds"}
	}

	_, err := s.Checkout(context.Background(), checkout.Request{QRCode: "PAYMENT_123_x"})
	require.Error(t, err)

	var re *apiclient.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "Insufficient funds", re.Message)

	// No confirmation, no order anywhere, cart untouched and re-enterable.
	assert.Empty(t, payments.confirmCalls)
	assert.Empty(t, orders.createCalls)
	localOrders, _ := led.Orders(context.Background())
	assert.Empty(t, localOrders)
	assert.False(t, crt.IsEmpty())

	// The saga is re-enterable after the failure.
	payments.processFn = nil
	_, err = s.Checkout(context.Background(), checkout.Request{QRCode: "PAYMENT_123_x"})
	require.NoError(t, err)
}

func TestCheckout_ConfirmFailureIsNotReversed(t *testing.T) {
	s, payments, orders, _, led, crt := fixture(t)
	addLines(t, crt)
	payments.confirmFn = func(ctx context.Context, transactionID int64) (*apiclient.Payment, error) {
		return nil, stderrors.New("gateway timeout")
	}

	_, err := s.Checkout(context.Background(), checkout.Request{QRCode: "PAYMENT_123_x"})
	require.ErrorIs(t, err, errors.ErrConfirmPending)

	// Processing happened and is left alone: no order persisted anywhere,
	// no cart mutation.
	require.Len(t, payments.processCalls, 1)
	assert.Empty(t, orders.createCalls)
	localOrders, _ := led.Orders(context.Background())
	assert.Empty(t, localOrders)
	assert.False(t, crt.IsEmpty())
}

func TestCheckout_ReentryWhileInFlightRejected(t *testing.T) {
	s, payments, _, _, _, crt := fixture(t)
	addLines(t, crt)

	processing := make(chan struct{})
	release := make(chan struct{})
	payments.processFn = func(ctx context.Context, req apiclient.ProcessPaymentRequest) (*apiclient.Payment, error) {
		close(processing)
		<-release
		return &apiclient.Payment{ID: 123, Status: "processed"}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.Checkout(context.Background(), checkout.Request{QRCode: "PAYMENT_123_x"})
		done <- err
	}()

	<-processing
	_, err := s.Checkout(context.Background(), checkout.Request{QRCode: "PAYMENT_123_x"})
	require.ErrorIs(t, err, errors.ErrCheckoutInFlight)

	close(release)
	require.NoError(t, <-done)

	// Exactly one submission went out.
	assert.Len(t, payments.processCalls, 1)
}

func TestCheckout_RemoteStatusUpdateFailureKeepsRemotePath(t *testing.T) {
	s, _, orders, _, led, crt := fixture(t)
	addLines(t, crt)
	orders.updateFn = func(ctx context.Context, id string, status order.Status) (*order.Order, error) {
		return nil, stderrors.New("boom")
	}

	result, err := s.Checkout(context.Background(), checkout.Request{QRCode: "PAYMENT_123_x"})
	require.NoError(t, err)

	// A failed paid transition does not demote the sale to the local path.
	assert.Equal(t, checkout.SourceRemote, result.Source)
	localOrders, _ := led.Orders(context.Background())
	assert.Empty(t, localOrders)
}
