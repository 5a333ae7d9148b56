package controller

import (
	"context"
	"net/http"

	"github.com/cassiomorais/qrpay/internal/domain/order"
	"github.com/cassiomorais/qrpay/internal/ledger"
	"github.com/go-chi/chi/v5"
)

// OrderReader is the slice of the order client the controller needs.
type OrderReader interface {
	List(ctx context.Context) ([]order.Order, error)
	Get(ctx context.Context, id string) (*order.Order, error)
	UpdateStatus(ctx context.Context, id string, status order.Status) (*order.Order, error)
}

// OrderController serves the two order views. Remote orders and local
// ledger orders are owned by different systems and are never merged.
type OrderController struct {
	orders OrderReader
	ledger *ledger.Ledger
}

// NewOrderController creates an OrderController.
func NewOrderController(orders OrderReader, led *ledger.Ledger) *OrderController {
	return &OrderController{orders: orders, ledger: led}
}

// ListLocal handles GET /api/v1/orders/local
func (h *OrderController) ListLocal(w http.ResponseWriter, r *http.Request) {
	orders, err := h.ledger.Orders(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// GetLocal handles GET /api/v1/orders/local/{id}
func (h *OrderController) GetLocal(w http.ResponseWriter, r *http.Request) {
	o, err := h.ledger.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// UpdateLocalStatus handles PATCH /api/v1/orders/local/{id}/status
func (h *OrderController) UpdateLocalStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrderStatusRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.ledger.UpdateOrderStatus(r.Context(), id, order.Status(req.Status)); err != nil {
		writeError(w, err)
		return
	}

	o, err := h.ledger.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// ListRemote handles GET /api/v1/orders/remote
func (h *OrderController) ListRemote(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// GetRemote handles GET /api/v1/orders/remote/{id}
func (h *OrderController) GetRemote(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// UpdateRemoteStatus handles PATCH /api/v1/orders/remote/{id}/status
func (h *OrderController) UpdateRemoteStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrderStatusRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), order.Status(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
