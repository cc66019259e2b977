package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 30*time.Second))
	v, ok, _ := c.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	now = now.Add(30 * time.Second)
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok, "entry expires at ttl")

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, c.Delete(ctx, "a", "b"))
	_, ok, _ = c.Get(ctx, "a")
	assert.False(t, ok)
}
