package cache

import (
	"context"
	"time"
)

// Cache is the JSON blob cache behind trend reports and other expensive
// LLM-derived results. Implementations must treat corrupt entries as misses.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
