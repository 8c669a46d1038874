package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	events []Event
	err    error
}

func (m *memStore) Insert(_ context.Context, e Event) (Event, error) {
	if m.err != nil {
		return Event{}, m.err
	}
	e.ID = uuid.New()
	e.CreatedAt = time.Now().UTC()
	m.events = append(m.events, e)
	return e, nil
}

func TestBusPersistsAndDelivers(t *testing.T) {
	store := &memStore{}
	bus := &Bus{Store: store}

	var got []Event
	bus.Subscribe(TopicOrderCreated, func(_ context.Context, e Event) {
		got = append(got, e)
	})

	orderID := uuid.New()
	err := bus.Publish(context.Background(), "s1", TopicOrderCreated, OrderCreated{OrderID: orderID, Total: 1_800})
	require.NoError(t, err)

	require.Len(t, store.events, 1)
	require.Len(t, got, 1)
	assert.NotEqual(t, uuid.Nil, got[0].ID, "delivered event carries the persisted id")

	var payload OrderCreated
	require.NoError(t, json.Unmarshal(got[0].Payload, &payload))
	assert.Equal(t, orderID, payload.OrderID)
	assert.Equal(t, int64(1_800), payload.Total)
}

func TestBusDeliversOnPersistenceFailure(t *testing.T) {
	bus := &Bus{Store: &memStore{err: errors.New("db down")}}

	delivered := false
	bus.Subscribe(TopicLowStock, func(context.Context, Event) { delivered = true })

	err := bus.Publish(context.Background(), "s1", TopicLowStock, LowStock{ProductID: "P1", Stock: 1, Threshold: 5})
	require.NoError(t, err)
	assert.True(t, delivered)
}

func TestBusIgnoresUnsubscribedTopics(t *testing.T) {
	bus := &Bus{}
	bus.Subscribe(TopicOrderCreated, func(context.Context, Event) {
		t.Fatal("wrong topic delivered")
	})
	require.NoError(t, bus.Publish(context.Background(), "s1", TopicPromoRedeemed, PromoRedeemed{Code: "SAVE10"}))
}
