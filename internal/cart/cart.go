// Package cart holds a customer's in-memory shopping cart. Lines keep a
// snapshot of the product taken when it was added.
package cart

import (
	"sync"

	"github.com/shopspring/decimal"

	"storefront/internal/apperr"
)

// MaxQuantity bounds the quantity of a single line.
const MaxQuantity = 999

var (
	ErrLineIndex = apperr.New(apperr.Validation, apperr.CodeCartLine)
	ErrQuantity  = apperr.New(apperr.Validation, apperr.CodeCartQuantity)
)

// Product is the catalog snapshot a line is built from.
type Product struct {
	ID          string
	Category    string
	Description string
	Price       decimal.Decimal
}

// Line is one product and quantity pairing. Quantity is always at least 1.
type Line struct {
	ProductID   string          `json:"product_id"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is an ordered list of lines, safe for concurrent use.
type Cart struct {
	mu    sync.Mutex
	lines []Line
}

func New() *Cart {
	return &Cart{}
}

// Add increments the line of p, or appends a new line with quantity 1.
func (c *Cart) Add(p Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.find(p.ID); i >= 0 {
		c.lines[i].Quantity++
		return
	}
	c.lines = append(c.lines, lineOf(p, 1))
}

// AddN adds n units of p in one step. The cart is unchanged when n is below
// 1 or the line would grow past MaxQuantity.
func (c *Cart) AddN(p Product, n int) error {
	if n < 1 {
		return ErrQuantity
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.find(p.ID)
	have := 0
	if i >= 0 {
		have = c.lines[i].Quantity
	}
	if n > MaxQuantity-have {
		return apperr.Wrapf(ErrQuantity, "line of %s would exceed %d", p.ID, MaxQuantity)
	}
	if i >= 0 {
		c.lines[i].Quantity += n
		return nil
	}
	c.lines = append(c.lines, lineOf(p, n))
	return nil
}

func (c *Cart) find(productID string) int {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func lineOf(p Product, quantity int) Line {
	return Line{
		ProductID:   p.ID,
		Category:    p.Category,
		Description: p.Description,
		Price:       p.Price,
		Quantity:    quantity,
	}
}

// SetQuantity replaces the quantity of the line at index. Quantity must lie
// in 1..MaxQuantity.
func (c *Cart) SetQuantity(index, quantity int) error {
	if quantity < 1 || quantity > MaxQuantity {
		return ErrQuantity
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.lines) {
		return ErrLineIndex
	}
	c.lines[index].Quantity = quantity
	return nil
}

func (c *Cart) Remove(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.lines) {
		return ErrLineIndex
	}
	c.lines = append(c.lines[:index], c.lines[index+1:]...)
	return nil
}

// Total is recomputed from the current lines on every call.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return total(c.lines)
}

func (c *Cart) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
}

// Lines returns a copy of the current lines.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Count is the number of units in the cart.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Total sums price × quantity over lines.
func Total(lines []Line) decimal.Decimal {
	return total(lines)
}

func total(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

// Registry keeps one cart per customer for the lifetime of the process.
type Registry struct {
	mu    sync.Mutex
	carts map[uint64]*Cart
}

func NewRegistry() *Registry {
	return &Registry{carts: make(map[uint64]*Cart)}
}

// For returns the cart of customerID, creating it on first use.
func (r *Registry) For(customerID uint64) *Cart {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.carts[customerID]
	if !ok {
		c = New()
		r.carts[customerID] = c
	}
	return c
}

// Drop forgets the cart of customerID.
func (r *Registry) Drop(customerID uint64) {
	r.mu.Lock()
	delete(r.carts, customerID)
	r.mu.Unlock()
}
