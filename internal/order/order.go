package order

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is the repository sentinel for a missing order.
var ErrNotFound = errors.New("order: not found")

// Status tracks an order through its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusFulfilled Status = "fulfilled"
	StatusCancelled Status = "cancelled"
)

// Item is a purchased line, snapshotted at checkout time so later catalog
// edits cannot change what the shopper paid.
type Item struct {
	ID        uuid.UUID         `json:"id"`
	OrderID   uuid.UUID         `json:"orderId"`
	ProductID string            `json:"productId"`
	Name      string            `json:"name"`
	Variant   map[string]string `json:"variant,omitempty"`
	UnitPrice int64             `json:"unitPrice"`
	Quantity  int               `json:"quantity"`
}

// Order is a placed order with its computed totals.
type Order struct {
	ID          uuid.UUID  `json:"id"`
	StoreID     string     `json:"storeId"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Address     string     `json:"address,omitempty"`
	Subtotal    int64      `json:"subtotal"`
	Discount    int64      `json:"discount"`
	Shipping    int64      `json:"shipping"`
	Total       int64      `json:"total"`
	PromoCode   string     `json:"promoCode,omitempty"`
	PromotionID *uuid.UUID `json:"promotionId,omitempty"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	Items       []Item     `json:"items,omitempty"`
}
