package controller

import (
	"github.com/cassiomorais/qrpay/internal/domain/cart"
)

// --- Request DTOs ---

// InitiateQRRequest starts QR generation for a user.
type InitiateQRRequest struct {
	UserID int64 `json:"userId" validate:"required,gt=0"`
}

// CheckoutRequest submits a presented QR payload against the current cart.
type CheckoutRequest struct {
	QRCode         string `json:"qrCode" validate:"required"`
	CustomerUserID *int64 `json:"customerUserId,omitempty"`
	Description    string `json:"description,omitempty"`
}

// AddCartItemRequest puts a product in the cart.
type AddCartItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"gte=0"`
}

// UpdateCartItemRequest changes a line's quantity; zero removes it.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// UpdateOrderStatusRequest moves an order to a new status.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending paid shipped cancelled"`
}

// UpdateStockRequest sets a product's remote stock level.
type UpdateStockRequest struct {
	Stock int `json:"stock" validate:"gte=0"`
}

// SetSessionRequest stores a token pair for the gateway session.
type SetSessionRequest struct {
	AccessToken  string `json:"accessToken" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
	UserID       int64  `json:"userId,omitempty"`
}

// --- Response DTOs ---

// CartResponse is the cart with its derived totals.
type CartResponse struct {
	Items       []cart.Line `json:"items"`
	TotalItems  int         `json:"totalItems"`
	TotalAmount float64     `json:"totalAmount"`
}

// SessionResponse describes the current session.
type SessionResponse struct {
	Authenticated bool  `json:"authenticated"`
	UserID        int64 `json:"userId,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func cartResponse(c *cart.Cart) CartResponse {
	return CartResponse{
		Items:       c.Items(),
		TotalItems:  c.TotalItems(),
		TotalAmount: c.TotalAmount(),
	}
}
