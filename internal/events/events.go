package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Topic names a kind of domain event.
type Topic string

const (
	TopicOrderCreated  Topic = "order.created"
	TopicPromoRedeemed Topic = "promo.redeemed"
	TopicLowStock      Topic = "inventory.low_stock"
)

// Event is a persisted domain event. Payload is the JSON encoding of a
// topic-specific struct.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	StoreID   string          `json:"storeId"`
	Topic     Topic           `json:"topic"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

// OrderCreated is the payload for TopicOrderCreated.
type OrderCreated struct {
	OrderID   uuid.UUID `json:"orderId"`
	Email     string    `json:"email"`
	ItemCount int       `json:"itemCount"`
	Subtotal  int64     `json:"subtotal"`
	Discount  int64     `json:"discount"`
	Total     int64     `json:"total"`
	PromoCode string    `json:"promoCode,omitempty"`
}

// PromoRedeemed is the payload for TopicPromoRedeemed.
type PromoRedeemed struct {
	PromotionID uuid.UUID `json:"promotionId"`
	Code        string    `json:"code"`
	OrderID     uuid.UUID `json:"orderId"`
	Amount      int64     `json:"amount"`
}

// LowStock is the payload for TopicLowStock.
type LowStock struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Stock       int    `json:"stock"`
	Threshold   int    `json:"threshold"`
}
