package catalog

import (
	"errors"
	"time"
)

// ErrNotFound is the repository sentinel for a missing product or store.
var ErrNotFound = errors.New("catalog: not found")

// Store is the owning tenant of a catalog.
type Store struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Variant is a concrete selectable combination of product attributes, e.g.
// {Size: M, Color: Red}, optionally overriding price and carrying its own stock.
type Variant struct {
	ID    string            `json:"id"`
	Attrs map[string]string `json:"attrs"`
	Price *int64            `json:"price,omitempty"`
	Stock int               `json:"stock"`
}

// Product is a sellable item in a store's catalog. CreatedAt drives the
// promotion engine's new-products-only condition.
type Product struct {
	ID                string    `json:"id"`
	StoreID           string    `json:"storeId"`
	Name              string    `json:"name"`
	Slug              string    `json:"slug"`
	Description       string    `json:"description,omitempty"`
	Price             int64     `json:"price"`
	Image             string    `json:"image,omitempty"`
	Stock             int       `json:"stock"`
	LowStockThreshold int       `json:"lowStockThreshold"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
	Variants          []Variant `json:"variants,omitempty"`
}

// MatchVariant finds the variant whose attributes equal the requested
// selection. Returns nil when the selection names no stored variant.
func (p Product) MatchVariant(selection map[string]string) *Variant {
	if len(selection) == 0 {
		return nil
	}
	for i := range p.Variants {
		if attrsEqual(p.Variants[i].Attrs, selection) {
			return &p.Variants[i]
		}
	}
	return nil
}

// UnitPrice is the effective price for a variant selection, falling back to
// the base product price.
func (p Product) UnitPrice(selection map[string]string) int64 {
	if v := p.MatchVariant(selection); v != nil && v.Price != nil {
		return *v.Price
	}
	return p.Price
}

func attrsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
