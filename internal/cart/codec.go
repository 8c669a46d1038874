package cart

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/wovenshop/storefront/internal/promo"
)

// storedCart is the durable representation: the line array plus the applied
// discount snapshot.
type storedCart struct {
	Items    []json.RawMessage `json:"items"`
	Discount *promo.Applied    `json:"discount,omitempty"`
}

// looseLine tolerates partially-typed records written by older clients. Fields
// that fail to coerce fall back to their zero value instead of rejecting the
// whole cart.
type looseLine struct {
	ProductID        string            `json:"productId"`
	StoreID          string            `json:"storeId"`
	StoreName        string            `json:"storeName"`
	Name             string            `json:"name"`
	UnitPrice        any               `json:"unitPrice"`
	Image            string            `json:"image"`
	Quantity         any               `json:"quantity"`
	Variant          map[string]string `json:"variant"`
	ProductCreatedAt *time.Time        `json:"productCreatedAt"`
}

// Encode serialises the cart for durable storage.
func Encode(c *Cart) ([]byte, error) {
	stored := storedCart{Discount: c.Discount()}
	for _, line := range c.Lines() {
		raw, err := json.Marshal(line)
		if err != nil {
			return nil, err
		}
		stored.Items = append(stored.Items, raw)
	}
	return json.Marshal(stored)
}

// Decode rebuilds a cart from durable storage. Malformed records are repaired
// at this single boundary: non-numeric prices coerce to zero, lines without a
// product or a positive quantity are dropped, and line keys are recomputed
// rather than trusted. Only data that is not JSON at all is an error.
func Decode(data []byte) (Cart, error) {
	var c Cart
	if len(data) == 0 {
		return c, nil
	}
	var stored storedCart
	if err := json.Unmarshal(data, &stored); err != nil {
		// Older carts were stored as a bare line array.
		if arrErr := json.Unmarshal(data, &stored.Items); arrErr != nil {
			return Cart{}, err
		}
	}
	for _, raw := range stored.Items {
		var loose looseLine
		if err := json.Unmarshal(raw, &loose); err != nil {
			continue
		}
		if loose.ProductID == "" {
			continue
		}
		qty := int(coerceInt64(loose.Quantity))
		if qty < 1 {
			continue
		}
		price := coerceInt64(loose.UnitPrice)
		if price < 0 {
			price = 0
		}
		c.AddItem(Line{
			ProductID:        loose.ProductID,
			StoreID:          loose.StoreID,
			StoreName:        loose.StoreName,
			Name:             loose.Name,
			UnitPrice:        price,
			Image:            loose.Image,
			Variant:          loose.Variant,
			ProductCreatedAt: loose.ProductCreatedAt,
		}, qty)
	}
	if stored.Discount != nil {
		c.ApplyDiscount(*stored.Discount)
	}
	return c, nil
}

func coerceInt64(v any) int64 {
	switch val := v.(type) {
	case float64:
		return int64(val)
	case string:
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return int64(f)
		}
		return 0
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		return 0
	default:
		return 0
	}
}
