package notify

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wovenshop/storefront/internal/catalog"
	"github.com/wovenshop/storefront/internal/events"
)

type recordingSender struct {
	sent []struct{ To, Subject, Body string }
}

func (r *recordingSender) Send(to, subject, body string) error {
	r.sent = append(r.sent, struct{ To, Subject, Body string }{to, subject, body})
	return nil
}

type staticDirectory struct {
	store catalog.Store
}

func (d staticDirectory) GetStore(_ context.Context, storeID string) (catalog.Store, error) {
	if d.store.ID != storeID {
		return catalog.Store{}, catalog.ErrNotFound
	}
	return d.store, nil
}

func TestOrderConfirmationEmail(t *testing.T) {
	sender := &recordingSender{}
	n := &Notifier{Email: sender}
	bus := &events.Bus{}
	n.Register(bus)

	require.NoError(t, bus.Publish(context.Background(), "s1", events.TopicOrderCreated, events.OrderCreated{
		OrderID:   uuid.New(),
		Email:     "shopper@example.com",
		ItemCount: 2,
		Subtotal:  2_000,
		Discount:  200,
		Total:     1_800,
		PromoCode: "SAVE10",
	}))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "shopper@example.com", sender.sent[0].To)
	assert.Contains(t, sender.sent[0].Body, "18.00")
	assert.Contains(t, sender.sent[0].Body, "SAVE10")
}

func TestLowStockEmailGoesToStoreOwner(t *testing.T) {
	sender := &recordingSender{}
	n := &Notifier{
		Email:  sender,
		Stores: staticDirectory{store: catalog.Store{ID: "s1", Name: "Woven Goods", Email: "owner@example.com"}},
	}
	bus := &events.Bus{}
	n.Register(bus)

	require.NoError(t, bus.Publish(context.Background(), "s1", events.TopicLowStock, events.LowStock{
		ProductID: "P1", ProductName: "Scarf", Stock: 2, Threshold: 5,
	}))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "owner@example.com", sender.sent[0].To)
	assert.Contains(t, sender.sent[0].Subject, "Scarf")
}

func TestLowStockSkipsUnknownStore(t *testing.T) {
	sender := &recordingSender{}
	n := &Notifier{Email: sender, Stores: staticDirectory{}}
	bus := &events.Bus{}
	n.Register(bus)

	require.NoError(t, bus.Publish(context.Background(), "s1", events.TopicLowStock, events.LowStock{ProductID: "P1"}))
	assert.Empty(t, sender.sent)
}
