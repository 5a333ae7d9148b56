package controller

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/cassiomorais/qrpay/internal/apiclient"
	"github.com/cassiomorais/qrpay/internal/domain/cart"
	"github.com/cassiomorais/qrpay/internal/domain/errors"
	"github.com/cassiomorais/qrpay/internal/domain/product"
	"github.com/cassiomorais/qrpay/internal/ledger"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// CartController manages the session cart.
type CartController struct {
	cart     *cart.Cart
	products ProductReader
	ledger   *ledger.Ledger
	log      zerolog.Logger
}

// NewCartController creates a CartController.
func NewCartController(crt *cart.Cart, products ProductReader, led *ledger.Ledger, log zerolog.Logger) *CartController {
	return &CartController{cart: crt, products: products, ledger: led, log: log.With().Str("controller", "cart").Logger()}
}

// Get handles GET /api/v1/cart
func (h *CartController) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, cartResponse(h.cart))
}

// AddItem handles POST /api/v1/cart/items
func (h *CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddCartItemRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.lookupProduct(r, req.ProductID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cart.Add(*p, req.Quantity)
	writeJSON(w, http.StatusOK, cartResponse(h.cart))
}

// UpdateItem handles PUT /api/v1/cart/items/{productId}
func (h *CartController) UpdateItem(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid product id", Code: "invalid_id"})
		return
	}

	var req UpdateCartItemRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	h.cart.SetQuantity(productID, req.Quantity)
	writeJSON(w, http.StatusOK, cartResponse(h.cart))
}

// RemoveItem handles DELETE /api/v1/cart/items/{productId}
func (h *CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid product id", Code: "invalid_id"})
		return
	}

	h.cart.Remove(productID)
	writeJSON(w, http.StatusOK, cartResponse(h.cart))
}

// Clear handles DELETE /api/v1/cart
func (h *CartController) Clear(w http.ResponseWriter, r *http.Request) {
	h.cart.Clear()
	writeJSON(w, http.StatusOK, cartResponse(h.cart))
}

// lookupProduct snapshots a product remote-first so the cart line carries
// current stock, degrading to the seeded catalog with ledger counters.
func (h *CartController) lookupProduct(r *http.Request, id int64) (*product.Product, error) {
	remote, err := h.products.Get(r.Context(), id)
	if err == nil {
		return remote, nil
	}
	var remoteErr *apiclient.RemoteError
	if stderrors.As(err, &remoteErr) && remoteErr.StatusCode == http.StatusNotFound {
		return nil, errors.ErrProductNotFound
	}
	h.log.Warn().Err(err).Int64("product_id", id).Msg("Product service unavailable, snapshotting from local catalog")

	p, ok := product.ByID(id)
	if !ok {
		return nil, errors.ErrProductNotFound
	}
	if stock, serr := h.ledger.Stock(r.Context(), id); serr == nil {
		p.Stock = stock
	}
	return &p, nil
}
