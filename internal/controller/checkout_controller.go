package controller

import (
	"context"
	"net/http"

	"github.com/cassiomorais/qrpay/internal/checkout"
)

// CheckoutRunner runs one checkout over the current cart.
type CheckoutRunner interface {
	Checkout(ctx context.Context, req checkout.Request) (*checkout.Result, error)
}

// CheckoutController exposes the checkout saga over HTTP.
type CheckoutController struct {
	saga CheckoutRunner
}

// NewCheckoutController creates a CheckoutController.
func NewCheckoutController(saga CheckoutRunner) *CheckoutController {
	return &CheckoutController{saga: saga}
}

// Checkout handles POST /api/v1/checkout
func (h *CheckoutController) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.saga.Checkout(r.Context(), checkout.Request{
		QRCode:         req.QRCode,
		CustomerUserID: req.CustomerUserID,
		Description:    req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}
