package apiclient

import (
	"context"
	"fmt"
	"time"

	"github.com/cassiomorais/qrpay/internal/domain/product"
	"github.com/cassiomorais/qrpay/internal/session"
	"github.com/cassiomorais/qrpay/pkg/retry"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// ProductClient talks to the product service.
type ProductClient struct {
	http *resty.Client
	log  zerolog.Logger
}

// NewProductClient creates a ProductClient for the given base URL.
func NewProductClient(baseURL string, timeout time.Duration, tokens session.TokenSource, log zerolog.Logger) *ProductClient {
	log = log.With().Str("client", "product").Logger()
	return &ProductClient{http: newClient(baseURL, timeout, tokens, log), log: log}
}

// List returns the remote catalog, retried because reads are idempotent.
func (c *ProductClient) List(ctx context.Context) ([]product.Product, error) {
	cfg := retry.DefaultConfig()
	cfg.OnRetry = func(attempt uint, err error) {
		c.log.Warn().Uint("attempt", attempt).Err(err).Msg("Retrying product list")
	}
	return retry.DoWithResult(ctx, cfg, func() ([]product.Product, error) {
		var out []product.Product
		resp, err := c.http.R().
			SetContext(ctx).
			SetResult(&out).
			Get("/products")
		if err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}
		if resp.IsError() {
			return nil, remoteErr(resp)
		}
		return out, nil
	})
}

// Get fetches a single product.
func (c *ProductClient) Get(ctx context.Context, id int64) (*product.Product, error) {
	var out product.Product
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetPathParam("id", fmt.Sprintf("%d", id)).
		Get("/products/{id}")
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	if resp.IsError() {
		return nil, remoteErr(resp)
	}
	return &out, nil
}

// UpdateStock sets a product's remote stock level.
func (c *ProductClient) UpdateStock(ctx context.Context, id int64, stock int) (*product.Product, error) {
	var out product.Product
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]int{"stock": stock}).
		SetResult(&out).
		SetPathParam("id", fmt.Sprintf("%d", id)).
		Patch("/products/{id}/stock")
	if err != nil {
		return nil, fmt.Errorf("update product %d stock: %w", id, err)
	}
	if resp.IsError() {
		return nil, remoteErr(resp)
	}
	return &out, nil
}
