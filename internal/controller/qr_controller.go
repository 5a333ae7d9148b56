package controller

import (
	"context"
	"net/http"

	"github.com/cassiomorais/qrpay/internal/qrflow"
)

// QRCoordinator is the slice of the QR lifecycle coordinator the controller
// needs.
type QRCoordinator interface {
	Initiate(ctx context.Context, userID int64) error
	Retry(ctx context.Context) error
	Clear()
	Snapshot() qrflow.Snapshot
}

// QRController exposes the QR lifecycle over HTTP.
type QRController struct {
	coordinator QRCoordinator
}

// NewQRController creates a QRController.
func NewQRController(coordinator QRCoordinator) *QRController {
	return &QRController{coordinator: coordinator}
}

// Initiate handles POST /api/v1/qr/initiate
func (h *QRController) Initiate(w http.ResponseWriter, r *http.Request) {
	var req InitiateQRRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.coordinator.Initiate(r.Context(), req.UserID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, h.coordinator.Snapshot())
}

// State handles GET /api/v1/qr
func (h *QRController) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.coordinator.Snapshot())
}

// Retry handles POST /api/v1/qr/retry
func (h *QRController) Retry(w http.ResponseWriter, r *http.Request) {
	if err := h.coordinator.Retry(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.coordinator.Snapshot())
}

// Clear handles DELETE /api/v1/qr
func (h *QRController) Clear(w http.ResponseWriter, r *http.Request) {
	h.coordinator.Clear()
	writeJSON(w, http.StatusOK, h.coordinator.Snapshot())
}
