// Package ledger is the local fallback for the remote order service: a
// durable order list and inventory counter map, used only when that service
// is unreachable so a completed sale is never silently lost.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cassiomorais/qrpay/internal/domain/errors"
	"github.com/cassiomorais/qrpay/internal/domain/order"
	"github.com/cassiomorais/qrpay/internal/domain/product"
	"github.com/cassiomorais/qrpay/internal/kv"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	inventoryKey = "merchant:inventory"
	ordersKey    = "merchant:orders"
)

// Ledger reads and writes the two fallback documents as whole snapshots.
// It is designed for a single active session; concurrent writers in separate
// processes are not supported.
type Ledger struct {
	store kv.Store
	now   func() time.Time
	log   zerolog.Logger
}

// New creates a Ledger on the given snapshot store. now may be nil, in
// which case the wall clock is used.
func New(store kv.Store, now func() time.Time, log zerolog.Logger) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{store: store, now: now, log: log.With().Str("component", "ledger").Logger()}
}

// --- Inventory ---

func (l *Ledger) loadInventory(ctx context.Context) (map[int64]int, error) {
	doc, err := l.store.Read(ctx, inventoryKey)
	if err == kv.ErrNotFound {
		// First use: seed from the demo catalog.
		inv := make(map[int64]int)
		for _, p := range product.Catalog() {
			inv[p.ID] = p.Stock
		}
		return inv, nil
	}
	if err != nil {
		return nil, err
	}
	var inv map[int64]int
	if err := json.Unmarshal(doc, &inv); err != nil {
		return nil, fmt.Errorf("decode inventory document: %w", err)
	}
	return inv, nil
}

func (l *Ledger) saveInventory(ctx context.Context, inv map[int64]int) error {
	doc, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("encode inventory document: %w", err)
	}
	return l.store.Write(ctx, inventoryKey, doc)
}

// Stock returns the remaining stock for a product, falling back to the
// seeded catalog value for products the document has never recorded.
func (l *Ledger) Stock(ctx context.Context, productID int64) (int, error) {
	inv, err := l.loadInventory(ctx)
	if err != nil {
		return 0, err
	}
	if qty, ok := inv[productID]; ok {
		return qty, nil
	}
	if p, ok := product.ByID(productID); ok {
		return p.Stock, nil
	}
	return 0, nil
}

// SetStock overwrites a product's stock, clamped at zero.
func (l *Ledger) SetStock(ctx context.Context, productID int64, qty int) error {
	if qty < 0 {
		qty = 0
	}
	inv, err := l.loadInventory(ctx)
	if err != nil {
		return err
	}
	inv[productID] = qty
	return l.saveInventory(ctx, inv)
}

// DecreaseStock is the sole inventory decrementer. It returns false and
// leaves the document untouched when the requested quantity exceeds the
// current stock.
func (l *Ledger) DecreaseStock(ctx context.Context, productID int64, by int) (bool, error) {
	inv, err := l.loadInventory(ctx)
	if err != nil {
		return false, err
	}
	current, ok := inv[productID]
	if !ok {
		if p, found := product.ByID(productID); found {
			current = p.Stock
		}
	}
	if current < by {
		return false, nil
	}
	inv[productID] = current - by
	if err := l.saveInventory(ctx, inv); err != nil {
		return false, err
	}
	return true, nil
}

// Inventory returns a snapshot of the full counter map, seeded values
// included.
func (l *Ledger) Inventory(ctx context.Context) (map[int64]int, error) {
	inv, err := l.loadInventory(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range product.Catalog() {
		if _, ok := inv[p.ID]; !ok {
			inv[p.ID] = p.Stock
		}
	}
	return inv, nil
}

// --- Orders ---

func (l *Ledger) loadOrders(ctx context.Context) ([]order.Order, error) {
	doc, err := l.store.Read(ctx, ordersKey)
	if err == kv.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var orders []order.Order
	if err := json.Unmarshal(doc, &orders); err != nil {
		return nil, fmt.Errorf("decode orders document: %w", err)
	}
	return orders, nil
}

func (l *Ledger) saveOrders(ctx context.Context, orders []order.Order) error {
	doc, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("encode orders document: %w", err)
	}
	return l.store.Write(ctx, ordersKey, doc)
}

// Orders returns all locally recorded orders, oldest first.
func (l *Ledger) Orders(ctx context.Context) ([]order.Order, error) {
	return l.loadOrders(ctx)
}

// GetOrder returns a single order by id.
func (l *Ledger) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	orders, err := l.loadOrders(ctx)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].ID == id {
			return &orders[i], nil
		}
	}
	return nil, errors.ErrOrderNotFound
}

// AddOrder assigns a unique id and creation timestamp, appends the order to
// the document, and returns the stored record.
func (l *Ledger) AddOrder(ctx context.Context, o order.Order) (order.Order, error) {
	orders, err := l.loadOrders(ctx)
	if err != nil {
		return order.Order{}, err
	}
	now := l.now()
	o.ID = newOrderID(now)
	o.CreatedAt = now
	orders = append(orders, o)
	if err := l.saveOrders(ctx, orders); err != nil {
		return order.Order{}, err
	}
	l.log.Info().Str("order_id", o.ID).Float64("total", o.Total).Msg("Order recorded in local ledger")
	return o, nil
}

// UpdateOrderStatus rewrites the single matching record in place, enforcing
// the monotone status transitions. Unknown ids are a no-op.
func (l *Ledger) UpdateOrderStatus(ctx context.Context, id string, status order.Status) error {
	orders, err := l.loadOrders(ctx)
	if err != nil {
		return err
	}
	for i := range orders {
		if orders[i].ID != id {
			continue
		}
		if err := orders[i].TransitionTo(status); err != nil {
			return err
		}
		return l.saveOrders(ctx, orders)
	}
	return nil
}

// newOrderID builds a time-based id with a random suffix, unique enough for
// a single-session store.
func newOrderID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("ord-%d-%s", now.UnixMilli(), suffix)
}
