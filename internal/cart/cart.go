package cart

import (
	"sort"
	"strings"
	"time"

	"github.com/wovenshop/storefront/internal/promo"
)

// Line is one entry in a cart: a product, an optional variant selection, and a
// quantity. The unit price is snapshotted at add time.
type Line struct {
	Key              string            `json:"key"`
	ProductID        string            `json:"productId"`
	StoreID          string            `json:"storeId"`
	StoreName        string            `json:"storeName,omitempty"`
	Name             string            `json:"name"`
	UnitPrice        int64             `json:"unitPrice"`
	Image            string            `json:"image,omitempty"`
	Quantity         int               `json:"quantity"`
	Variant          map[string]string `json:"variant,omitempty"`
	ProductCreatedAt *time.Time        `json:"productCreatedAt,omitempty"`
}

// LineKey derives the stable identity of a line from the product and its
// variant selection. Variant attributes are sorted so the same selection maps
// to the same key regardless of map iteration order.
func LineKey(productID string, variant map[string]string) string {
	if len(variant) == 0 {
		return productID
	}
	keys := make([]string, 0, len(variant))
	for k := range variant {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+":"+variant[k])
	}
	return productID + "::" + strings.Join(parts, "|")
}

// Cart owns the ordered list of lines a shopper intends to purchase plus at
// most one applied discount. It is a plain value owned by the calling session;
// persistence is a collaborator's job.
type Cart struct {
	lines   []Line
	applied *promo.Applied
}

// AddItem merges the item into the cart. Lines with the same product and
// variant selection collapse into one, summing quantities.
func (c *Cart) AddItem(item Line, qty int) {
	if qty <= 0 {
		qty = 1
	}
	item.Key = LineKey(item.ProductID, item.Variant)
	for i := range c.lines {
		if c.lines[i].Key == item.Key {
			c.lines[i].Quantity += qty
			return
		}
	}
	item.Quantity = qty
	c.lines = append(c.lines, item)
}

// RemoveItem deletes the line with the given key. No-op when absent.
func (c *Cart) RemoveItem(key string) {
	for i := range c.lines {
		if c.lines[i].Key == key {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// SetQuantity overwrites a line's quantity. A quantity of zero or less removes
// the line; zero-quantity lines are never retained.
func (c *Cart) SetQuantity(key string, qty int) {
	if qty <= 0 {
		c.RemoveItem(key)
		return
	}
	for i := range c.lines {
		if c.lines[i].Key == key {
			c.lines[i].Quantity = qty
			return
		}
	}
}

// Clear empties the cart and drops any applied discount.
func (c *Cart) Clear() {
	c.lines = nil
	c.applied = nil
}

// Lines returns the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// ItemCount is the sum of all line quantities.
func (c *Cart) ItemCount() int {
	var n int
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Subtotal is the sum of unit price times quantity over all lines.
func (c *Cart) Subtotal() int64 {
	var total int64
	for _, l := range c.lines {
		total += l.UnitPrice * int64(l.Quantity)
	}
	return total
}

// ApplyDiscount attaches the evaluated discount to the cart.
func (c *Cart) ApplyDiscount(d promo.Applied) {
	copied := d
	c.applied = &copied
}

// RemoveDiscount drops the applied discount if any.
func (c *Cart) RemoveDiscount() {
	c.applied = nil
}

// Discount returns the applied discount, or nil.
func (c *Cart) Discount() *promo.Applied {
	if c.applied == nil {
		return nil
	}
	copied := *c.applied
	return &copied
}

// DiscountAmount is the snapshotted amount of the applied discount, clamped to
// the current subtotal.
func (c *Cart) DiscountAmount() int64 {
	if c.applied == nil {
		return 0
	}
	amount := c.applied.Amount
	if subtotal := c.Subtotal(); amount > subtotal {
		amount = subtotal
	}
	if amount < 0 {
		return 0
	}
	return amount
}

// Total is subtotal minus discount, floored at zero.
func (c *Cart) Total() int64 {
	total := c.Subtotal() - c.DiscountAmount()
	if total < 0 {
		return 0
	}
	return total
}

// PromoLines projects the cart into the shape the promotion evaluator consumes.
func (c *Cart) PromoLines() []promo.Line {
	out := make([]promo.Line, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, promo.Line{ProductID: l.ProductID, ProductCreatedAt: l.ProductCreatedAt})
	}
	return out
}
