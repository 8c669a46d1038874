package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

// Store persists events before they fan out.
type Store interface {
	Insert(ctx context.Context, e Event) (Event, error)
}

// HandlerFunc consumes a published event. Handlers run synchronously on the
// publisher's goroutine and must not block for long.
type HandlerFunc func(ctx context.Context, e Event)

// Bus persists domain events and fans them out to in-process subscribers.
// Subscriber failures never surface to the publisher.
type Bus struct {
	Store  Store
	Logger *zerolog.Logger

	mu   sync.RWMutex
	subs map[Topic][]HandlerFunc
}

// Subscribe registers a handler for a topic.
func (b *Bus) Subscribe(topic Topic, h HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[Topic][]HandlerFunc)
	}
	b.subs[topic] = append(b.subs[topic], h)
}

// Publish persists an event and delivers it to subscribers. A persistence
// failure is logged and delivery still happens; events are advisory, not a
// source of truth.
func (b *Bus) Publish(ctx context.Context, storeID string, topic Topic, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	e := Event{StoreID: storeID, Topic: topic, Payload: data}
	if b.Store != nil {
		stored, err := b.Store.Insert(ctx, e)
		if err != nil {
			b.logWarn(err, topic, "event persistence failed")
		} else {
			e = stored
		}
	}

	b.mu.RLock()
	handlers := b.subs[topic]
	b.mu.RUnlock()
	for _, h := range handlers {
		h(ctx, e)
	}
	return nil
}

func (b *Bus) logWarn(err error, topic Topic, msg string) {
	if b.Logger != nil {
		b.Logger.Warn().Err(err).Str("topic", string(topic)).Msg(msg)
	}
}
