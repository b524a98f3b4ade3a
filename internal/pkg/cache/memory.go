package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

type memoryCache struct {
	items       *ttlcache.Cache[string, string]
	serviceName string
}

// NewMemoryCache returns a process-local Cache for runs without Redis.
// Expired keys read as missing; reads do not extend a key's lifetime.
func NewMemoryCache(serviceName string) Cache {
	return &memoryCache{
		items:       ttlcache.New[string, string](ttlcache.WithDisableTouchOnHit[string, string]()),
		serviceName: serviceName,
	}
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		s = fmt.Sprint(v)
	}
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	m.items.Set(key, s, ttl)
	return nil
}

func (m *memoryCache) Get(ctx context.Context, key string) (string, error) {
	item := m.items.Get(key)
	if item == nil {
		return "", nil
	}
	return item.Value(), nil
}

func (m *memoryCache) Delete(ctx context.Context, key string) error {
	m.items.Delete(key)
	return nil
}

func (m *memoryCache) GenerateKey(operation, key string) string {
	return fmt.Sprintf("%s:%s:%s", m.serviceName, operation, key)
}
