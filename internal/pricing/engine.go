package pricing

// Money is a monetary value in minor units.
type Money = int64

// Item describes a line used for totals calculation.
type Item struct {
	Qty       int
	UnitPrice Money
}

// Summary aggregates computed pricing components.
type Summary struct {
	Subtotal Money `json:"subtotal"`
	Discount Money `json:"discount"`
	Shipping Money `json:"shipping"`
	Total    Money `json:"total"`
}

// Compute calculates order totals. The discount is clamped to the subtotal and
// the shipping fee is zeroed when the applied promotion waives it; the total
// never goes below zero.
func Compute(items []Item, discount Money, shipping Money, freeShipping bool) Summary {
	var subtotal Money
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		subtotal += Money(it.Qty) * it.UnitPrice
	}
	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		discount = 0
	}
	if shipping < 0 {
		shipping = 0
	}
	if freeShipping {
		shipping = 0
	}
	total := subtotal - discount + shipping
	if total < 0 {
		total = 0
	}
	return Summary{
		Subtotal: subtotal,
		Discount: discount,
		Shipping: shipping,
		Total:    total,
	}
}
