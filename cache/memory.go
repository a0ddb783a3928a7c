package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/maypok86/otter/v2"
)

type memoryCache struct {
	cache *otter.Cache[string, []byte]
}

// NewMemory returns an in-process cache bounded by capacity entries. Entries
// expire ttl after they were written.
func NewMemory(capacity int, ttl time.Duration) (Cache, error) {
	if capacity <= 0 {
		capacity = 10000
	}
	opts := &otter.Options[string, []byte]{
		MaximumSize: capacity,
	}
	if ttl > 0 {
		opts.ExpiryCalculator = otter.ExpiryWriting[string, []byte](ttl)
	}
	c, err := otter.New(opts)
	if err != nil {
		return nil, fmt.Errorf("build otter cache: %w", err)
	}
	return &memoryCache{cache: c}, nil
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.cache.GetIfPresent(key)
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte) error {
	m.cache.Set(key, value)
	return nil
}

func (m *memoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.cache.Invalidate(k)
	}
	return nil
}

func (m *memoryCache) Close() error {
	m.cache.InvalidateAll()
	return nil
}
