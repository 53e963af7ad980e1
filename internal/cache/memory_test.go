package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheSetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryCache()

	_, err := c.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Nanosecond))
	time.Sleep(5 * time.Millisecond)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, c.Delete(ctx, "k"))

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
