package controller

import (
	"context"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/cassiomorais/qrpay/internal/apiclient"
	"github.com/cassiomorais/qrpay/internal/domain/errors"
	"github.com/cassiomorais/qrpay/internal/domain/product"
	"github.com/cassiomorais/qrpay/internal/ledger"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// ProductReader is the slice of the product client the controllers need.
type ProductReader interface {
	List(ctx context.Context) ([]product.Product, error)
	Get(ctx context.Context, id int64) (*product.Product, error)
	UpdateStock(ctx context.Context, id int64, stock int) (*product.Product, error)
}

// ProductController serves the catalog remote-first, overlaying the local
// ledger's counters when the product service is unreachable.
type ProductController struct {
	products ProductReader
	ledger   *ledger.Ledger
	log      zerolog.Logger
}

// NewProductController creates a ProductController.
func NewProductController(products ProductReader, led *ledger.Ledger, log zerolog.Logger) *ProductController {
	return &ProductController{products: products, ledger: led, log: log.With().Str("controller", "product").Logger()}
}

// List handles GET /api/v1/products
func (h *ProductController) List(w http.ResponseWriter, r *http.Request) {
	remote, err := h.products.List(r.Context())
	if err == nil {
		writeJSON(w, http.StatusOK, remote)
		return
	}
	h.log.Warn().Err(err).Msg("Product service unavailable, serving local catalog")

	local, lerr := h.localCatalog(r.Context())
	if lerr != nil {
		writeError(w, lerr)
		return
	}
	writeJSON(w, http.StatusOK, local)
}

// Get handles GET /api/v1/products/{id}
func (h *ProductController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid product id", Code: "invalid_id"})
		return
	}

	remote, rerr := h.products.Get(r.Context(), id)
	if rerr == nil {
		writeJSON(w, http.StatusOK, remote)
		return
	}
	var remoteErr *apiclient.RemoteError
	if stderrors.As(rerr, &remoteErr) && remoteErr.StatusCode == http.StatusNotFound {
		writeError(w, errors.ErrProductNotFound)
		return
	}
	h.log.Warn().Err(rerr).Int64("product_id", id).Msg("Product service unavailable, serving local catalog entry")

	p, ok := product.ByID(id)
	if !ok {
		writeError(w, errors.ErrProductNotFound)
		return
	}
	stock, serr := h.ledger.Stock(r.Context(), id)
	if serr == nil {
		p.Stock = stock
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdateStock handles PATCH /api/v1/products/{id}/stock
func (h *ProductController) UpdateStock(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid product id", Code: "invalid_id"})
		return
	}

	var req UpdateStockRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.products.UpdateStock(r.Context(), id, req.Stock)
	if err != nil {
		writeError(w, err)
		return
	}

	// Keep the fallback counters aligned with the remote truth.
	if err := h.ledger.SetStock(r.Context(), id, req.Stock); err != nil {
		h.log.Warn().Err(err).Int64("product_id", id).Msg("Could not mirror stock into local ledger")
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *ProductController) localCatalog(ctx context.Context) ([]product.Product, error) {
	inv, err := h.ledger.Inventory(ctx)
	if err != nil {
		return nil, err
	}
	catalog := product.Catalog()
	for i := range catalog {
		if stock, ok := inv[catalog[i].ID]; ok {
			catalog[i].Stock = stock
		}
	}
	return catalog, nil
}
