package controller

import (
	"context"
	"net/http"
	"strconv"

	"github.com/cassiomorais/qrpay/internal/apiclient"
	"github.com/go-chi/chi/v5"
)

// PaymentReader is the slice of the payment client the controller needs.
// Confirm doubles as the manual reconciliation action for payments left
// processed-but-unconfirmed by a failed checkout.
type PaymentReader interface {
	Get(ctx context.Context, transactionID int64) (*apiclient.Payment, error)
	List(ctx context.Context) ([]apiclient.Payment, error)
	Confirm(ctx context.Context, transactionID int64) (*apiclient.Payment, error)
	Cancel(ctx context.Context, transactionID int64) (*apiclient.Payment, error)
	Refund(ctx context.Context, transactionID int64) (*apiclient.Payment, error)
}

// PaymentController passes payment reads and lifecycle actions through to
// the payment service.
type PaymentController struct {
	payments PaymentReader
}

// NewPaymentController creates a PaymentController.
func NewPaymentController(payments PaymentReader) *PaymentController {
	return &PaymentController{payments: payments}
}

// Get handles GET /api/v1/payments/{id}
func (h *PaymentController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := paymentID(w, r)
	if !ok {
		return
	}
	p, err := h.payments.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// List handles GET /api/v1/payments
func (h *PaymentController) List(w http.ResponseWriter, r *http.Request) {
	payments, err := h.payments.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if payments == nil {
		payments = []apiclient.Payment{}
	}
	writeJSON(w, http.StatusOK, payments)
}

// Confirm handles POST /api/v1/payments/{id}/confirm
func (h *PaymentController) Confirm(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.payments.Confirm)
}

// Cancel handles POST /api/v1/payments/{id}/cancel
func (h *PaymentController) Cancel(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.payments.Cancel)
}

// Refund handles POST /api/v1/payments/{id}/refund
func (h *PaymentController) Refund(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.payments.Refund)
}

func (h *PaymentController) action(w http.ResponseWriter, r *http.Request, fn func(context.Context, int64) (*apiclient.Payment, error)) {
	id, ok := paymentID(w, r)
	if !ok {
		return
	}
	p, err := fn(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func paymentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid payment id", Code: "invalid_id"})
		return 0, false
	}
	return id, true
}
