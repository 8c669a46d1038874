package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wovenshop/storefront/internal/promo"
)

func TestLineKeyStableAcrossMapOrder(t *testing.T) {
	a := LineKey("P1", map[string]string{"Size": "M", "Color": "Red"})
	b := LineKey("P1", map[string]string{"Color": "Red", "Size": "M"})
	assert.Equal(t, a, b)
	assert.Equal(t, "P1::Color:Red|Size:M", a)
	assert.Equal(t, "P1", LineKey("P1", nil))
}

func TestAddItemMergesSameVariant(t *testing.T) {
	var c Cart
	c.AddItem(Line{ProductID: "P1", UnitPrice: 100, Variant: map[string]string{"Size": "M"}}, 2)
	c.AddItem(Line{ProductID: "P1", UnitPrice: 100, Variant: map[string]string{"Size": "M"}}, 3)

	lines := c.Lines()
	assert.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
	assert.Equal(t, 5, c.ItemCount())
}

func TestAddItemDistinctVariantsStaySeparate(t *testing.T) {
	var c Cart
	c.AddItem(Line{ProductID: "P1", UnitPrice: 100, Variant: map[string]string{"Size": "M"}}, 1)
	c.AddItem(Line{ProductID: "P1", UnitPrice: 100, Variant: map[string]string{"Size": "L"}}, 1)
	assert.Len(t, c.Lines(), 2)
}

func TestSubtotalInvariant(t *testing.T) {
	var c Cart
	c.AddItem(Line{ProductID: "P1", UnitPrice: 250}, 2)
	c.AddItem(Line{ProductID: "P2", UnitPrice: 100}, 3)
	assert.Equal(t, int64(250*2+100*3), c.Subtotal())
}

func TestSetQuantityZeroEqualsRemove(t *testing.T) {
	var a, b Cart
	a.AddItem(Line{ProductID: "P1", UnitPrice: 100}, 2)
	b.AddItem(Line{ProductID: "P1", UnitPrice: 100}, 2)

	key := LineKey("P1", nil)
	a.SetQuantity(key, 0)
	b.RemoveItem(key)

	assert.Equal(t, 0, a.ItemCount())
	assert.Equal(t, 0, b.ItemCount())
	assert.Empty(t, a.Lines())
	assert.Empty(t, b.Lines())
}

func TestRemoveItemAbsentIsNoop(t *testing.T) {
	var c Cart
	c.AddItem(Line{ProductID: "P1", UnitPrice: 100}, 1)
	c.RemoveItem("missing")
	assert.Equal(t, 1, c.ItemCount())
}

func TestClearDropsLinesAndDiscount(t *testing.T) {
	var c Cart
	c.AddItem(Line{ProductID: "P1", UnitPrice: 100}, 1)
	c.ApplyDiscount(promo.Applied{Code: "SAVE", Amount: 50})
	c.Clear()
	assert.Equal(t, 0, c.ItemCount())
	assert.Nil(t, c.Discount())
	assert.Equal(t, int64(0), c.Total())
}

func TestTotalFlooredAtZero(t *testing.T) {
	var c Cart
	c.AddItem(Line{ProductID: "P1", UnitPrice: 100}, 1)
	// A stale snapshot larger than the subtotal must not drive the total negative.
	c.ApplyDiscount(promo.Applied{Code: "BIG", Kind: promo.KindFixed, Value: 500, Amount: 500})
	assert.Equal(t, int64(100), c.DiscountAmount())
	assert.Equal(t, int64(0), c.Total())
}

func TestPercentageDiscountTotals(t *testing.T) {
	var c Cart
	c.AddItem(Line{ProductID: "P1", UnitPrice: 1_000}, 2)
	c.ApplyDiscount(promo.Applied{Code: "SAVE10", Kind: promo.KindPercentage, Value: 10, Amount: 200})
	assert.Equal(t, int64(2_000), c.Subtotal())
	assert.Equal(t, int64(200), c.DiscountAmount())
	assert.Equal(t, int64(1_800), c.Total())
}
