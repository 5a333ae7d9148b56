package order

import (
	"time"

	"github.com/cassiomorais/qrpay/internal/domain/errors"
)

// Status is an order status. Transitions are monotone: pending → paid →
// shipped, or pending|paid → cancelled. Shipped and cancelled are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusCancelled Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusPaid, StatusCancelled},
	StatusPaid:      {StatusShipped, StatusCancelled},
	StatusShipped:   {},
	StatusCancelled: {},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Item is one order line.
type Item struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
}

// Order is a completed or pending sale. An order is owned exclusively by
// whichever ledger created it, the remote order service or the local
// fallback; the two are never merged for the same sale.
type Order struct {
	ID             string    `json:"id"`
	Items          []Item    `json:"items"`
	Total          float64   `json:"total"`
	Currency       string    `json:"currency"`
	Status         Status    `json:"status"`
	PaymentID      *int64    `json:"paymentId,omitempty"`
	CustomerUserID *int64    `json:"customerUserId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// CanTransitionTo checks whether the order may move to the given status.
func (o *Order) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[o.Status] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionTo moves the order to a new status, enforcing monotonicity.
func (o *Order) TransitionTo(next Status) error {
	if !o.CanTransitionTo(next) {
		return errors.NewDomainError(
			"invalid_transition",
			"cannot transition order from "+string(o.Status)+" to "+string(next),
			errors.ErrInvalidStateTransition,
		)
	}
	o.Status = next
	return nil
}

// IsTerminal reports whether the order can no longer change status.
func (o *Order) IsTerminal() bool {
	return o.Status == StatusShipped || o.Status == StatusCancelled
}
