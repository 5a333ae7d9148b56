// Package checkout drives the merchant side of a sale: consume a presented
// QR payload, process and confirm the payment, then durably record the
// order. Order persistence is remote-first with a local ledger fallback, so
// a completed payment is never silently lost when the order service is
// down.
package checkout

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cassiomorais/qrpay/internal/apiclient"
	"github.com/cassiomorais/qrpay/internal/domain/cart"
	"github.com/cassiomorais/qrpay/internal/domain/errors"
	"github.com/cassiomorais/qrpay/internal/domain/order"
	"github.com/cassiomorais/qrpay/internal/domain/payment"
	"github.com/cassiomorais/qrpay/internal/domain/product"
	"github.com/cassiomorais/qrpay/internal/ledger"
	"github.com/cassiomorais/qrpay/pkg/saga"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// PaymentService is the slice of the payment client the saga needs.
type PaymentService interface {
	Process(ctx context.Context, transactionID int64, req apiclient.ProcessPaymentRequest) (*apiclient.Payment, error)
	Confirm(ctx context.Context, transactionID int64) (*apiclient.Payment, error)
}

// OrderService records orders with the remote order service.
type OrderService interface {
	Create(ctx context.Context, req apiclient.CreateOrderRequest) (*order.Order, error)
	UpdateStatus(ctx context.Context, id string, status order.Status) (*order.Order, error)
}

// ProductService refreshes stock levels after a remote sale.
type ProductService interface {
	List(ctx context.Context) ([]product.Product, error)
}

// Metrics receives checkout outcomes.
type Metrics interface {
	CheckoutCompleted(source string)
	CheckoutFailed(step string)
}

type noopMetrics struct{}

func (noopMetrics) CheckoutCompleted(string) {}
func (noopMetrics) CheckoutFailed(string)    {}

// Source tags which ledger produced the order of record.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Result is a completed checkout. Exactly one ledger owns the order.
type Result struct {
	Order     order.Order `json:"order"`
	Source    Source      `json:"source"`
	PaymentID int64       `json:"paymentId"`
}

// Request is one checkout attempt over the current cart.
type Request struct {
	QRCode         string
	CustomerUserID *int64
	Description    string
}

// Config identifies the merchant.
type Config struct {
	MerchantID string
	Currency   string
}

// Saga runs checkouts one at a time. A second invocation while one is in
// flight is rejected, never double-submitted.
type Saga struct {
	cfg      Config
	payments PaymentService
	orders   OrderService
	products ProductService
	ledger   *ledger.Ledger
	cart     *cart.Cart
	breaker  *gobreaker.CircuitBreaker[*order.Order]
	metrics  Metrics
	log      zerolog.Logger
	pending  atomic.Bool
}

// New creates a checkout saga over the given cart. metrics may be nil.
func New(cfg Config, payments PaymentService, orders OrderService, products ProductService, led *ledger.Ledger, crt *cart.Cart, metrics Metrics, log zerolog.Logger) *Saga {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	log = log.With().Str("component", "checkout").Logger()
	breaker := gobreaker.NewCircuitBreaker[*order.Order](gobreaker.Settings{
		Name:        "order-service",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	})
	return &Saga{
		cfg:      cfg,
		payments: payments,
		orders:   orders,
		products: products,
		ledger:   led,
		cart:     crt,
		breaker:  breaker,
		metrics:  metrics,
		log:      log,
	}
}

// Checkout runs the full sale for a presented QR payload. The cart is
// cleared exactly once, on success. Once payment processing has been
// issued the saga runs to completion or reports failure; there is no abort.
func (s *Saga) Checkout(ctx context.Context, req Request) (*Result, error) {
	if !s.pending.CompareAndSwap(false, true) {
		return nil, errors.ErrCheckoutInFlight
	}
	defer s.pending.Store(false)

	// Validation happens before any network call.
	paymentID, err := payment.ParseQRPaymentID(req.QRCode)
	if err != nil {
		s.metrics.CheckoutFailed("parse")
		return nil, err
	}
	items := s.cart.Items()
	if len(items) == 0 {
		s.metrics.CheckoutFailed("parse")
		return nil, errors.ErrEmptyCart
	}
	total := s.cart.TotalAmount()

	var result Result
	flow := saga.New("checkout",
		saga.WithStepHook(func(step string, err error) {
			if err != nil {
				s.metrics.CheckoutFailed(step)
			}
		}),
	).Then(saga.Step{
		Name: "process-payment",
		Run: func(ctx context.Context) error {
			_, err := s.payments.Process(ctx, paymentID, apiclient.ProcessPaymentRequest{
				QRCode:      req.QRCode,
				Amount:      total,
				Currency:    s.cfg.Currency,
				MerchantID:  s.cfg.MerchantID,
				Description: req.Description,
			})
			if err != nil {
				return fmt.Errorf("process payment %d: %w", paymentID, err)
			}
			return nil
		},
	}).Then(saga.Step{
		Name: "confirm-payment",
		Run: func(ctx context.Context) error {
			if _, err := s.payments.Confirm(ctx, paymentID); err != nil {
				// The payment stays processed but unconfirmed; there is no
				// compensating action. The passthrough confirm endpoint
				// exists for manual reconciliation.
				s.log.Error().Err(err).Int64("payment_id", paymentID).Msg("Confirmation failed after processing, payment needs reconciliation")
				return fmt.Errorf("confirm payment %d: %w", paymentID, stderrors.Join(errors.ErrConfirmPending, err))
			}
			return nil
		},
	}).Then(saga.Step{
		Name: "persist-order",
		Run: func(ctx context.Context) error {
			persisted, err := s.persistOrder(ctx, paymentID, req.CustomerUserID, items, total)
			if err != nil {
				return err
			}
			result = *persisted
			return nil
		},
	}).Then(saga.Step{
		Name: "finalize",
		Run: func(ctx context.Context) error {
			s.cart.Clear()
			return nil
		},
	})

	if err := flow.Execute(ctx); err != nil {
		return nil, err
	}

	s.metrics.CheckoutCompleted(string(result.Source))
	s.log.Info().
		Int64("payment_id", paymentID).
		Str("order_id", result.Order.ID).
		Str("source", string(result.Source)).
		Float64("total", total).
		Msg("Checkout completed")
	return &result, nil
}

// persistOrder records the sale remote-first. Any remote failure redirects
// into the local ledger; exactly one of the two paths produces the order of
// record.
func (s *Saga) persistOrder(ctx context.Context, paymentID int64, customerUserID *int64, items []cart.Line, total float64) (*Result, error) {
	remote, err := s.breaker.Execute(func() (*order.Order, error) {
		return s.orders.Create(ctx, apiclient.CreateOrderRequest{
			MerchantID:     s.cfg.MerchantID,
			CustomerUserID: customerUserID,
			PaymentID:      paymentID,
			Items:          orderItems(items),
		})
	})
	if err == nil {
		if _, err := s.orders.UpdateStatus(ctx, remote.ID, order.StatusPaid); err != nil {
			// The order exists remotely; a failed status update is not worth
			// abandoning the sale over.
			s.log.Warn().Err(err).Str("order_id", remote.ID).Msg("Could not mark remote order paid")
		} else {
			remote.Status = order.StatusPaid
		}
		if _, err := s.products.List(ctx); err != nil {
			s.log.Warn().Err(err).Msg("Could not refresh product stock after sale")
		}
		return &Result{Order: *remote, Source: SourceRemote, PaymentID: paymentID}, nil
	}

	s.log.Warn().Err(err).Int64("payment_id", paymentID).Msg("Order service unavailable, recording sale in local ledger")
	return s.persistLocal(ctx, paymentID, customerUserID, items, total)
}

func (s *Saga) persistLocal(ctx context.Context, paymentID int64, customerUserID *int64, items []cart.Line, total float64) (*Result, error) {
	// Decrements are best effort across lines: a line that exceeds current
	// stock is skipped rather than rolling back the ones already applied.
	for _, line := range items {
		ok, err := s.ledger.DecreaseStock(ctx, line.Product.ID, line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("decrease local stock for product %d: %w", line.Product.ID, err)
		}
		if !ok {
			s.log.Warn().Int64("product_id", line.Product.ID).Int("quantity", line.Quantity).Msg("Local stock exhausted, selling through anyway")
		}
	}

	local, err := s.ledger.AddOrder(ctx, order.Order{
		Items:          orderLines(items),
		Total:          total,
		Currency:       s.cfg.Currency,
		Status:         order.StatusPaid,
		PaymentID:      &paymentID,
		CustomerUserID: customerUserID,
	})
	if err != nil {
		return nil, fmt.Errorf("record order in local ledger: %w", err)
	}
	return &Result{Order: local, Source: SourceLocal, PaymentID: paymentID}, nil
}

func orderItems(lines []cart.Line) []apiclient.CreateOrderItem {
	out := make([]apiclient.CreateOrderItem, 0, len(lines))
	for _, line := range lines {
		out = append(out, apiclient.CreateOrderItem{ProductID: line.Product.ID, Quantity: line.Quantity})
	}
	return out
}

func orderLines(lines []cart.Line) []order.Item {
	out := make([]order.Item, 0, len(lines))
	for _, line := range lines {
		out = append(out, order.Item{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			UnitPrice: line.Product.Price,
			Quantity:  line.Quantity,
		})
	}
	return out
}
