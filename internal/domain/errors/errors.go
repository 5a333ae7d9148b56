package errors

import (
	"errors"
	"fmt"
)

var (
	// QR lifecycle errors
	ErrInvalidUserID     = errors.New("user id must be a positive integer")
	ErrPollInProgress    = errors.New("a payment intent is already being polled")
	ErrPollTimeout       = errors.New("timed out waiting for QR code")
	ErrNoActiveIntent    = errors.New("no active payment intent")
	ErrIntentNotExpired  = errors.New("payment intent has not expired")
	ErrCoordinatorClosed = errors.New("coordinator is closed")

	// Checkout errors
	ErrInvalidQRFormat   = errors.New("invalid QR format, expected PAYMENT_<id>_...")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrCheckoutInFlight  = errors.New("a checkout is already in progress")
	ErrConfirmPending    = errors.New("payment processed but confirmation failed")
	ErrInvalidCustomerID = errors.New("customer user id must be a positive integer")

	// Order errors
	ErrOrderNotFound          = errors.New("order not found")
	ErrInvalidStateTransition = errors.New("invalid order status transition")

	// Ledger errors
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrProductNotFound   = errors.New("product not found")

	// Session errors
	ErrNotAuthenticated = errors.New("not authenticated")

	// Generic
	ErrInvalidInput = errors.New("invalid input")
)

// DomainError wraps errors with a stable code and a human-readable message.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error.
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error. It never reaches the
// network: callers report it immediately and leave state unchanged.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
