package cache

import (
	"context"
	"testing"
	"time"

	"campus-eats-api/config"
	"campus-eats-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemory(100, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	meal := models.Meal{ID: 4, VendorID: 2, Name: "Jollof Rice", Price: 6.5, IsVeg: true}
	require.NoError(t, SetValue(ctx, c, MealKey(meal.ID), meal))

	var got models.Meal
	ok, err := GetValue(ctx, c, MealKey(4), &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, meal.Name, got.Name)
	assert.Equal(t, meal.Price, got.Price)
	assert.True(t, got.IsVeg)

	require.NoError(t, c.Delete(ctx, MealKey(4)))
	ok, err = GetValue(ctx, c, MealKey(4), &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetValueDecodeError(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemory(10, 0)
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "bad", []byte{0xc1}))
	var v models.Vendor
	_, err = GetValue(ctx, c, "bad", &v)
	assert.Error(t, err)
}

func TestNewSelectsBackend(t *testing.T) {
	c, err := New(config.CacheConfig{Backend: "memory", Capacity: 5})
	require.NoError(t, err)
	assert.IsType(t, &memoryCache{}, c)

	c, err = New(config.CacheConfig{Backend: "redis", RedisAddr: "localhost:0"})
	require.NoError(t, err)
	assert.IsType(t, &redisCache{}, c)
	assert.NoError(t, c.Close())

	_, err = New(config.CacheConfig{Backend: "memcached"})
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "vendor:3", VendorKey(3))
	assert.Equal(t, "meal:9", MealKey(9))
}
