package cart

import (
	"sync"

	"github.com/cassiomorais/qrpay/internal/domain/product"
)

// Line is one cart entry: a product snapshot and a quantity. Quantity never
// exceeds the product's last-known stock.
type Line struct {
	Product  product.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Cart holds the lines of the session driving a checkout. It is owned by
// that session and cleared exactly once, atomically with saga success.
type Cart struct {
	mu    sync.Mutex
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add puts qty units of p in the cart, merging with an existing line and
// capping the resulting quantity at p.Stock. Adding to a product with no
// stock is a no-op.
func (c *Cart) Add(p product.Product, qty int) {
	if qty <= 0 {
		qty = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].Product.ID == p.ID {
			c.lines[i].Product = p
			c.lines[i].Quantity = capAtStock(c.lines[i].Quantity+qty, p.Stock)
			return
		}
	}
	qty = capAtStock(qty, p.Stock)
	if qty <= 0 {
		return
	}
	c.lines = append(c.lines, Line{Product: p, Quantity: qty})
}

// SetQuantity sets the quantity of a line, capping at the stored product
// snapshot's stock. A quantity of zero or less removes the line.
func (c *Cart) SetQuantity(productID int64, qty int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if qty <= 0 {
		c.removeLocked(productID)
		return
	}
	for i := range c.lines {
		if c.lines[i].Product.ID == productID {
			c.lines[i].Quantity = capAtStock(qty, c.lines[i].Product.Stock)
			return
		}
	}
}

// Remove drops the line for the given product, if present.
func (c *Cart) Remove(productID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(productID)
}

func (c *Cart) removeLocked(productID int64) {
	for i := range c.lines {
		if c.lines[i].Product.ID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// Items returns a copy of the cart lines in insertion order.
func (c *Cart) Items() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}

// TotalItems returns the summed quantity across lines.
func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, l := range c.lines {
		total += l.Quantity
	}
	return total
}

// TotalAmount returns the cart total.
func (c *Cart) TotalAmount() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0.0
	for _, l := range c.lines {
		total += l.Product.Price * float64(l.Quantity)
	}
	return total
}

func capAtStock(qty, stock int) int {
	if qty > stock {
		return stock
	}
	return qty
}
