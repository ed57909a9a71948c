package ratelimit

import (
	"math"
	"sync"
	"time"
)

type Result struct {
	Allowed bool
	// RetryAfter is whole seconds until the window resets. Set only on
	// rejection, always in (0, window].
	RetryAfter int
}

type entry struct {
	count   int
	resetAt time.Time
}

// Limiter is a fixed-window counter keyed by caller identity. State lives in
// process memory only: on restart, or across replicas, windows start fresh.
type Limiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string]*entry

	now func() time.Time // overridable in tests
}

func New(max int, window time.Duration) *Limiter {
	return &Limiter{
		max:     max,
		window:  window,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Check records one attempt for key and reports whether it is allowed.
func (l *Limiter) Check(key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok || !now.Before(e.resetAt) {
		l.entries[key] = &entry{count: 1, resetAt: now.Add(l.window)}
		return Result{Allowed: true}
	}

	if e.count >= l.max {
		retry := int(math.Ceil(e.resetAt.Sub(now).Seconds()))
		if retry < 1 {
			retry = 1
		}
		return Result{Allowed: false, RetryAfter: retry}
	}

	e.count++
	return Result{Allowed: true}
}
