package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wovenshop/storefront/internal/catalog"
	"github.com/wovenshop/storefront/internal/common"
	"github.com/wovenshop/storefront/internal/events"
	"github.com/wovenshop/storefront/internal/promo"
)

// StoreDirectory resolves a store's contact details for seller notifications.
type StoreDirectory interface {
	GetStore(ctx context.Context, storeID string) (catalog.Store, error)
}

// Notifier translates domain events into transactional email. Delivery is
// best effort; failures are logged and never retried here.
type Notifier struct {
	Email  common.EmailSender
	Stores StoreDirectory
	Logger *zerolog.Logger
}

// Register subscribes the notifier to the topics it handles.
func (n *Notifier) Register(bus *events.Bus) {
	bus.Subscribe(events.TopicOrderCreated, n.OnOrderCreated)
	bus.Subscribe(events.TopicLowStock, n.OnLowStock)
}

// OnOrderCreated emails the shopper an order confirmation.
func (n *Notifier) OnOrderCreated(_ context.Context, e events.Event) {
	var payload events.OrderCreated
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		n.logWarn(err, e, "decode order.created payload")
		return
	}
	if payload.Email == "" {
		return
	}
	body := fmt.Sprintf(
		"Thanks for your order!\n\nOrder %s\nItems: %d\nSubtotal: %s\nDiscount: -%s\nTotal: %s\n",
		payload.OrderID, payload.ItemCount,
		promo.FormatAmount(payload.Subtotal),
		promo.FormatAmount(payload.Discount),
		promo.FormatAmount(payload.Total),
	)
	if payload.PromoCode != "" {
		body += fmt.Sprintf("Promo code applied: %s\n", payload.PromoCode)
	}
	if err := n.Email.Send(payload.Email, "Your order is confirmed", body); err != nil {
		n.logWarn(err, e, "send order confirmation")
	}
}

// OnLowStock emails the store owner about a product running low.
func (n *Notifier) OnLowStock(ctx context.Context, e events.Event) {
	var payload events.LowStock
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		n.logWarn(err, e, "decode inventory.low_stock payload")
		return
	}
	if n.Stores == nil {
		return
	}
	st, err := n.Stores.GetStore(ctx, e.StoreID)
	if err != nil || st.Email == "" {
		return
	}
	body := fmt.Sprintf(
		"Stock alert for %q: %d left (threshold %d).\nRestock it from your dashboard.\n",
		payload.ProductName, payload.Stock, payload.Threshold,
	)
	if err := n.Email.Send(st.Email, "Low stock: "+payload.ProductName, body); err != nil {
		n.logWarn(err, e, "send low stock alert")
	}
}

func (n *Notifier) logWarn(err error, e events.Event, msg string) {
	if n.Logger != nil {
		n.Logger.Warn().Err(err).Str("topic", string(e.Topic)).Str("store_id", e.StoreID).Msg(msg)
	}
}
