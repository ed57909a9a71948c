package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "k", payload{Name: "x", Count: 3}, time.Minute))

	var got payload
	hit, err := c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, payload{Name: "x", Count: 3}, got)
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryCache()

	var got payload
	hit, err := c.GetJSON(context.Background(), "absent", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemoryCacheExpiry(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.Now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "k", payload{Name: "x"}, 15*time.Minute))

	now = now.Add(14 * time.Minute)
	var got payload
	hit, _ := c.GetJSON(ctx, "k", &got)
	assert.True(t, hit, "entry must survive until the TTL")

	now = now.Add(2 * time.Minute)
	hit, _ = c.GetJSON(ctx, "k", &got)
	assert.False(t, hit, "expired entry must read as a miss")
}

func TestMemoryCacheDel(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "k", payload{}, time.Minute))
	require.NoError(t, c.Del(ctx, "k"))

	var got payload
	hit, _ := c.GetJSON(ctx, "k", &got)
	assert.False(t, hit)
}
