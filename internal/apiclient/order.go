package apiclient

import (
	"context"
	"fmt"
	"time"

	"github.com/cassiomorais/qrpay/internal/domain/order"
	"github.com/cassiomorais/qrpay/internal/session"
	"github.com/cassiomorais/qrpay/pkg/retry"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// CreateOrderItem is one line of an order creation request.
type CreateOrderItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// CreateOrderRequest records a completed sale with the order service.
type CreateOrderRequest struct {
	MerchantID     string            `json:"merchantId"`
	CustomerUserID *int64            `json:"customerUserId,omitempty"`
	PaymentID      int64             `json:"paymentId"`
	Items          []CreateOrderItem `json:"items"`
}

// OrderClient talks to the order service.
type OrderClient struct {
	http *resty.Client
	log  zerolog.Logger
}

// NewOrderClient creates an OrderClient for the given base URL.
func NewOrderClient(baseURL string, timeout time.Duration, tokens session.TokenSource, log zerolog.Logger) *OrderClient {
	log = log.With().Str("client", "order").Logger()
	return &OrderClient{http: newClient(baseURL, timeout, tokens, log), log: log}
}

// Create records an order. Not retried: the gateway falls back to the local
// ledger instead of risking duplicates.
func (c *OrderClient) Create(ctx context.Context, req CreateOrderRequest) (*order.Order, error) {
	var out order.Order
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/orders")
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if resp.IsError() {
		return nil, remoteErr(resp)
	}
	return &out, nil
}

// UpdateStatus moves a remote order to a new status.
func (c *OrderClient) UpdateStatus(ctx context.Context, id string, status order.Status) (*order.Order, error) {
	var out order.Order
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"status": string(status)}).
		SetResult(&out).
		SetPathParam("id", id).
		Patch("/orders/{id}/status")
	if err != nil {
		return nil, fmt.Errorf("update order %s status: %w", id, err)
	}
	if resp.IsError() {
		return nil, remoteErr(resp)
	}
	return &out, nil
}

// List returns the merchant's remote orders, retried because reads are
// idempotent.
func (c *OrderClient) List(ctx context.Context) ([]order.Order, error) {
	cfg := retry.DefaultConfig()
	cfg.OnRetry = func(attempt uint, err error) {
		c.log.Warn().Uint("attempt", attempt).Err(err).Msg("Retrying order list")
	}
	return retry.DoWithResult(ctx, cfg, func() ([]order.Order, error) {
		var out []order.Order
		resp, err := c.http.R().
			SetContext(ctx).
			SetResult(&out).
			Get("/orders")
		if err != nil {
			return nil, fmt.Errorf("list orders: %w", err)
		}
		if resp.IsError() {
			return nil, remoteErr(resp)
		}
		return out, nil
	})
}

// Get fetches a single remote order.
func (c *OrderClient) Get(ctx context.Context, id string) (*order.Order, error) {
	var out order.Order
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetPathParam("id", id).
		Get("/orders/{id}")
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	if resp.IsError() {
		return nil, remoteErr(resp)
	}
	return &out, nil
}
