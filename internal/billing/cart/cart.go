// Package cart owns the in-progress order lines. The cart is deliberately
// permissive: edits overwrite fields without validation and negative or zero
// values flow through to pricing untouched.
package cart

import (
	"strings"

	"github.com/bagshop/billing/internal/billing/api"
)

// Line associates a product with a quantity and the unit price captured when
// the product was added. The price stays pinned on merge; it does not re-sync
// to later catalog changes.
type Line struct {
	BagID     string
	Quantity  int
	UnitPrice float64
}

// Cart aggregates order lines in insertion order. It is owned by a single
// operator flow and is not safe for concurrent use.
type Cart struct {
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{lines: []Line{}}
}

// AddProduct merges the product into the cart: an existing line with the same
// bag id gets its quantity incremented in place, otherwise a new line is
// appended with quantity 1 and the product's current sale price.
func (c *Cart) AddProduct(bag api.Bag) {
	id := strings.TrimSpace(bag.ID)
	for i := range c.lines {
		if c.lines[i].BagID == id {
			c.lines[i].Quantity++
			return
		}
	}
	c.lines = append(c.lines, Line{
		BagID:     id,
		Quantity:  1,
		UnitPrice: bag.SalePrice,
	})
}

// AppendBlankLine appends a line defaulting to the first catalog product.
// With no catalog loaded the line is empty with a zero price, which is valid.
func (c *Cart) AppendBlankLine(catalog []api.Bag) {
	line := Line{Quantity: 1}
	if len(catalog) > 0 {
		line.BagID = strings.TrimSpace(catalog[0].ID)
		line.UnitPrice = catalog[0].SalePrice
	}
	c.lines = append(c.lines, line)
}

// SetBagID overwrites the product reference of the line at index i. Reports
// whether the index was in range.
func (c *Cart) SetBagID(i int, id string) bool {
	if i < 0 || i >= len(c.lines) {
		return false
	}
	c.lines[i].BagID = id
	return true
}

// SetQuantity overwrites the quantity of the line at index i.
func (c *Cart) SetQuantity(i, quantity int) bool {
	if i < 0 || i >= len(c.lines) {
		return false
	}
	c.lines[i].Quantity = quantity
	return true
}

// SetUnitPrice overwrites the unit price of the line at index i.
func (c *Cart) SetUnitPrice(i int, price float64) bool {
	if i < 0 || i >= len(c.lines) {
		return false
	}
	c.lines[i].UnitPrice = price
	return true
}

// Remove deletes the line at index i, preserving the order of the rest.
func (c *Cart) Remove(i int) bool {
	if i < 0 || i >= len(c.lines) {
		return false
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	return true
}

// Reset clears all lines. Invoked after a successful order submission.
func (c *Cart) Reset() {
	c.lines = c.lines[:0]
}

// Line returns a copy of the line at index i.
func (c *Cart) Line(i int) (Line, bool) {
	if i < 0 || i >= len(c.lines) {
		return Line{}, false
	}
	return c.lines[i], true
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	dup := make([]Line, len(c.lines))
	copy(dup, c.lines)
	return dup
}

// Len reports the number of lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// Items converts the lines into the order payload representation.
func (c *Cart) Items() []api.OrderItem {
	items := make([]api.OrderItem, 0, len(c.lines))
	for _, line := range c.lines {
		items = append(items, api.OrderItem{
			BagID:     line.BagID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	return items
}
