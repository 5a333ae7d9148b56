package apiclient

import (
	"context"
	"fmt"
	"time"

	"github.com/cassiomorais/qrpay/internal/session"
	"github.com/cassiomorais/qrpay/pkg/retry"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// QRCode is the code attached to a payment once the payment service has
// generated it.
type QRCode struct {
	Code      string     `json:"code"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Payment is the payment service's record of a transaction.
type Payment struct {
	ID          int64   `json:"id"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Status      string  `json:"status"`
	Description string  `json:"description,omitempty"`
	QRCode      *QRCode `json:"qrCode,omitempty"`
}

// InitiatePaymentRequest starts QR generation for a user.
type InitiatePaymentRequest struct {
	UserID int64 `json:"userId"`
}

// InitiatePaymentResponse carries the transaction id to poll.
type InitiatePaymentResponse struct {
	TransactionID int64 `json:"transactionId"`
}

// ProcessPaymentRequest charges a presented QR code.
type ProcessPaymentRequest struct {
	QRCode      string  `json:"qrCode"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	MerchantID  string  `json:"merchantId"`
	Description string  `json:"description,omitempty"`
}

// PaymentClient talks to the payment service.
type PaymentClient struct {
	http *resty.Client
	log  zerolog.Logger
}

// NewPaymentClient creates a PaymentClient for the given base URL.
func NewPaymentClient(baseURL string, timeout time.Duration, tokens session.TokenSource, log zerolog.Logger) *PaymentClient {
	log = log.With().Str("client", "payment").Logger()
	return &PaymentClient{http: newClient(baseURL, timeout, tokens, log), log: log}
}

// Initiate asks the payment service to start QR generation. The QR code is
// not in the reply; callers poll Status for it.
func (c *PaymentClient) Initiate(ctx context.Context, req InitiatePaymentRequest) (*InitiatePaymentResponse, error) {
	var out InitiatePaymentResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/payments")
	if err != nil {
		return nil, fmt.Errorf("initiate payment: %w", err)
	}
	if resp.IsError() {
		return nil, remoteErr(resp)
	}
	return &out, nil
}

// Status fetches a payment, including its QR code once generated. The call
// is retried because status reads are idempotent.
func (c *PaymentClient) Status(ctx context.Context, transactionID int64) (*Payment, error) {
	cfg := retry.Config{
		MaxAttempts:  2,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		OnRetry: func(attempt uint, err error) {
			c.log.Warn().Uint("attempt", attempt).Err(err).Msg("Retrying payment status")
		},
	}
	return retry.DoWithResult(ctx, cfg, func() (*Payment, error) {
		return c.get(ctx, transactionID)
	})
}

// Get fetches a payment without retries.
func (c *PaymentClient) Get(ctx context.Context, transactionID int64) (*Payment, error) {
	return c.get(ctx, transactionID)
}

func (c *PaymentClient) get(ctx context.Context, transactionID int64) (*Payment, error) {
	var out Payment
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetPathParam("id", fmt.Sprintf("%d", transactionID)).
		Get("/payments/{id}")
	if err != nil {
		return nil, fmt.Errorf("get payment %d: %w", transactionID, err)
	}
	if resp.IsError() {
		return nil, remoteErr(resp)
	}
	return &out, nil
}

// List returns the payments visible to the current session.
func (c *PaymentClient) List(ctx context.Context) ([]Payment, error) {
	var out []Payment
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/payments")
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	if resp.IsError() {
		return nil, remoteErr(resp)
	}
	return out, nil
}

// Process charges a presented QR code against the payment it was issued
// for. Not retried: a duplicate submission would double charge.
func (c *PaymentClient) Process(ctx context.Context, transactionID int64, req ProcessPaymentRequest) (*Payment, error) {
	var out Payment
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetPathParam("id", fmt.Sprintf("%d", transactionID)).
		Post("/payments/{id}/process")
	if err != nil {
		return nil, fmt.Errorf("process payment %d: %w", transactionID, err)
	}
	if resp.IsError() {
		return nil, remoteErr(resp)
	}
	return &out, nil
}

// Confirm finalizes a processed payment.
func (c *PaymentClient) Confirm(ctx context.Context, transactionID int64) (*Payment, error) {
	return c.action(ctx, transactionID, "confirm")
}

// Cancel voids a pending payment.
func (c *PaymentClient) Cancel(ctx context.Context, transactionID int64) (*Payment, error) {
	return c.action(ctx, transactionID, "cancel")
}

// Refund reverses a confirmed payment.
func (c *PaymentClient) Refund(ctx context.Context, transactionID int64) (*Payment, error) {
	return c.action(ctx, transactionID, "refund")
}

func (c *PaymentClient) action(ctx context.Context, transactionID int64, verb string) (*Payment, error) {
	var out Payment
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetPathParam("id", fmt.Sprintf("%d", transactionID)).
		Post("/payments/{id}/" + verb)
	if err != nil {
		return nil, fmt.Errorf("%s payment %d: %w", verb, transactionID, err)
	}
	if resp.IsError() {
		return nil, remoteErr(resp)
	}
	return &out, nil
}
