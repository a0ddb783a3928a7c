// Package cache is a small byte-oriented cache used for read-heavy lookups
// (vendor and meal details). Values are encoded with MessagePack.
package cache

import (
	"context"
	"fmt"

	"campus-eats-api/config"

	"github.com/vmihailenco/msgpack/v5"
)

// Cache stores encoded values by key. A miss is reported through the bool
// result, never as an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// New builds the backend selected by cfg.Backend.
func New(cfg config.CacheConfig) (Cache, error) {
	switch cfg.Backend {
	case "memory", "":
		return NewMemory(cfg.Capacity, cfg.TTL)
	case "redis":
		return NewRedis(cfg.RedisAddr, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// GetValue decodes the cached value for key into dest.
func GetValue(ctx context.Context, c Cache, key string, dest any) (bool, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := msgpack.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

// SetValue encodes value and stores it under key.
func SetValue(ctx context.Context, c Cache, key string, value any) error {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.Set(ctx, key, data)
}

func VendorKey(id uint) string { return fmt.Sprintf("vendor:%d", id) }
func MealKey(id uint) string   { return fmt.Sprintf("meal:%d", id) }
