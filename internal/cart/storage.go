package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Storage is the durable session storage collaborator. Implementations keep a
// serialized cart per key; the in-memory cart stays authoritative for the
// session when storage misbehaves.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// RedisStorage persists carts in Redis with a sliding TTL so abandoned carts
// eventually expire.
type RedisStorage struct {
	Client *redis.Client
	TTL    time.Duration
}

func (s RedisStorage) ttl() time.Duration {
	if s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

// Load implements Storage.
func (s RedisStorage) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if s.Client == nil {
		return nil, false, errors.New("cart storage: redis client not configured")
	}
	data, err := s.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	// Touch the TTL so active sessions keep their cart.
	_ = s.Client.Expire(ctx, key, s.ttl()).Err()
	return data, true, nil
}

// Save implements Storage.
func (s RedisStorage) Save(ctx context.Context, key string, data []byte) error {
	if s.Client == nil {
		return errors.New("cart storage: redis client not configured")
	}
	return s.Client.Set(ctx, key, data, s.ttl()).Err()
}

// Delete implements Storage.
func (s RedisStorage) Delete(ctx context.Context, key string) error {
	if s.Client == nil {
		return errors.New("cart storage: redis client not configured")
	}
	return s.Client.Del(ctx, key).Err()
}

// MemoryStorage keeps carts in process memory. Used in tests and as a
// fallback when Redis is not configured.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStorage constructs an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: map[string][]byte{}}
}

// Load implements Storage.
func (s *MemoryStorage) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

// Save implements Storage.
func (s *MemoryStorage) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]byte, len(data))
	copy(copied, data)
	s.data[key] = copied
	return nil
}

// Delete implements Storage.
func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
