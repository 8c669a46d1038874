package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wovenshop/storefront/internal/promo"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var c Cart
	c.AddItem(Line{ProductID: "P1", StoreID: "s1", Name: "Tee", UnitPrice: 1_500, Variant: map[string]string{"Size": "M"}}, 2)
	c.AddItem(Line{ProductID: "P2", StoreID: "s1", Name: "Mug", UnitPrice: 800}, 1)
	c.ApplyDiscount(promo.Applied{Code: "SAVE10", Kind: promo.KindPercentage, Value: 10, Amount: 380})

	data, err := Encode(&c)
	require.NoError(t, err)

	restored, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, c.Lines(), restored.Lines())
	assert.Equal(t, c.ItemCount(), restored.ItemCount())
	assert.Equal(t, c.Subtotal(), restored.Subtotal())
	assert.Equal(t, c.Discount(), restored.Discount())
}

func TestDecodeRepairsMalformedRecords(t *testing.T) {
	data := []byte(`{"items":[
		{"productId":"P1","name":"Tee","unitPrice":"not-a-number","quantity":2},
		{"productId":"P2","unitPrice":500,"quantity":"3"},
		{"productId":"","unitPrice":100,"quantity":1},
		{"productId":"P3","unitPrice":100,"quantity":0},
		{"productId":"P4","unitPrice":-50,"quantity":1}
	]}`)

	c, err := Decode(data)
	require.NoError(t, err)

	lines := c.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, int64(0), lines[0].UnitPrice, "non-numeric price coerces to zero")
	assert.Equal(t, 3, lines[1].Quantity, "string quantity is repaired")
	assert.Equal(t, int64(0), lines[2].UnitPrice, "negative price coerces to zero")
}

func TestDecodeLegacyBareArray(t *testing.T) {
	data := []byte(`[{"productId":"P1","unitPrice":100,"quantity":1}]`)
	c, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 1, c.ItemCount())
}

func TestDecodeGarbageFails(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)
}

func TestDecodeEmptyYieldsEmptyCart(t *testing.T) {
	c, err := Decode(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, c.ItemCount())
}

func TestDecodeRecomputesLineKeys(t *testing.T) {
	data := []byte(`{"items":[{"key":"tampered","productId":"P1","unitPrice":100,"quantity":1,"variant":{"Size":"M"}}]}`)
	c, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, c.Lines(), 1)
	assert.Equal(t, LineKey("P1", map[string]string{"Size": "M"}), c.Lines()[0].Key)
}
