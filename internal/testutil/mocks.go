package testutil

import (
	"context"
	"sync"

	"github.com/cassiomorais/qrpay/internal/apiclient"
	"github.com/cassiomorais/qrpay/internal/checkout"
	"github.com/cassiomorais/qrpay/internal/domain/order"
	"github.com/cassiomorais/qrpay/internal/domain/product"
	"github.com/cassiomorais/qrpay/internal/qrflow"
)

// --- QR coordinator mock ---

// MockCoordinator is a func-field mock of the QR coordinator port.
type MockCoordinator struct {
	InitiateFn func(ctx context.Context, userID int64) error
	RetryFn    func(ctx context.Context) error
	ClearFn    func()
	SnapshotFn func() qrflow.Snapshot
}

func (m *MockCoordinator) Initiate(ctx context.Context, userID int64) error {
	if m.InitiateFn != nil {
		return m.InitiateFn(ctx, userID)
	}
	return nil
}

func (m *MockCoordinator) Retry(ctx context.Context) error {
	if m.RetryFn != nil {
		return m.RetryFn(ctx)
	}
	return nil
}

func (m *MockCoordinator) Clear() {
	if m.ClearFn != nil {
		m.ClearFn()
	}
}

func (m *MockCoordinator) Snapshot() qrflow.Snapshot {
	if m.SnapshotFn != nil {
		return m.SnapshotFn()
	}
	return qrflow.Snapshot{}
}

// --- Checkout saga mock ---

// MockCheckout is a func-field mock of the checkout port.
type MockCheckout struct {
	CheckoutFn func(ctx context.Context, req checkout.Request) (*checkout.Result, error)

	mu       sync.Mutex
	Requests []checkout.Request
}

func (m *MockCheckout) Checkout(ctx context.Context, req checkout.Request) (*checkout.Result, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	if m.CheckoutFn != nil {
		return m.CheckoutFn(ctx, req)
	}
	return &checkout.Result{Source: checkout.SourceRemote}, nil
}

// --- Payment client mock ---

// MockPaymentClient is a func-field mock of the payment passthrough port.
type MockPaymentClient struct {
	GetFn     func(ctx context.Context, transactionID int64) (*apiclient.Payment, error)
	ListFn    func(ctx context.Context) ([]apiclient.Payment, error)
	ConfirmFn func(ctx context.Context, transactionID int64) (*apiclient.Payment, error)
	CancelFn  func(ctx context.Context, transactionID int64) (*apiclient.Payment, error)
	RefundFn  func(ctx context.Context, transactionID int64) (*apiclient.Payment, error)
}

func (m *MockPaymentClient) Get(ctx context.Context, id int64) (*apiclient.Payment, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}
	return &apiclient.Payment{ID: id}, nil
}

func (m *MockPaymentClient) List(ctx context.Context) ([]apiclient.Payment, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	return nil, nil
}

func (m *MockPaymentClient) Confirm(ctx context.Context, id int64) (*apiclient.Payment, error) {
	if m.ConfirmFn != nil {
		return m.ConfirmFn(ctx, id)
	}
	return &apiclient.Payment{ID: id, Status: "confirmed"}, nil
}

func (m *MockPaymentClient) Cancel(ctx context.Context, id int64) (*apiclient.Payment, error) {
	if m.CancelFn != nil {
		return m.CancelFn(ctx, id)
	}
	return &apiclient.Payment{ID: id, Status: "cancelled"}, nil
}

func (m *MockPaymentClient) Refund(ctx context.Context, id int64) (*apiclient.Payment, error) {
	if m.RefundFn != nil {
		return m.RefundFn(ctx, id)
	}
	return &apiclient.Payment{ID: id, Status: "refunded"}, nil
}

// --- Order client mock ---

// MockOrderClient is a func-field mock of the order service port.
type MockOrderClient struct {
	ListFn         func(ctx context.Context) ([]order.Order, error)
	GetFn          func(ctx context.Context, id string) (*order.Order, error)
	UpdateStatusFn func(ctx context.Context, id string, status order.Status) (*order.Order, error)
}

func (m *MockOrderClient) List(ctx context.Context) ([]order.Order, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	return nil, nil
}

func (m *MockOrderClient) Get(ctx context.Context, id string) (*order.Order, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}
	return &order.Order{ID: id}, nil
}

func (m *MockOrderClient) UpdateStatus(ctx context.Context, id string, status order.Status) (*order.Order, error) {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, id, status)
	}
	return &order.Order{ID: id, Status: status}, nil
}

// --- Product client mock ---

// MockProductClient is a func-field mock of the product service port.
type MockProductClient struct {
	ListFn        func(ctx context.Context) ([]product.Product, error)
	GetFn         func(ctx context.Context, id int64) (*product.Product, error)
	UpdateStockFn func(ctx context.Context, id int64, stock int) (*product.Product, error)
}

func (m *MockProductClient) List(ctx context.Context) ([]product.Product, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	return product.Catalog(), nil
}

func (m *MockProductClient) Get(ctx context.Context, id int64) (*product.Product, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}
	if p, ok := product.ByID(id); ok {
		return &p, nil
	}
	return nil, &apiclient.RemoteError{StatusCode: 404, Message: "product not found"}
}

func (m *MockProductClient) UpdateStock(ctx context.Context, id int64, stock int) (*product.Product, error) {
	if m.UpdateStockFn != nil {
		return m.UpdateStockFn(ctx, id, stock)
	}
	p, ok := product.ByID(id)
	if !ok {
		return nil, &apiclient.RemoteError{StatusCode: 404, Message: "product not found"}
	}
	p.Stock = stock
	return &p, nil
}
