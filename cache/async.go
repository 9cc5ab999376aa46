package cache

import (
	"context"
	"errors"
	"sync"
)

// ErrKnownMiss is returned by GetOrFetch for keys previously recorded as
// resolving to nothing.
var ErrKnownMiss = errors.New("cache: key known to resolve to nothing")

// inflight tracks one in-progress fetch so concurrent requests for the
// same key coalesce instead of duplicating work.
type inflight[V any] struct {
	done  chan struct{}
	value V
	err   error
}

// Async wraps a Bounded cache with per-key fetch coalescing: at most one
// expensive fetch runs per key, and concurrent callers wait for its
// result. Safe for concurrent use.
type Async[K comparable, V any] struct {
	cache *Bounded[K, V]

	mu      sync.Mutex // protects calls
	calls   map[K]*inflight[V]
	fetches int // fetches started, for tests and diagnostics
}

// NewAsync creates an Async cache with the given capacity.
func NewAsync[K comparable, V any](capacity int) *Async[K, V] {
	return &Async[K, V]{
		cache: NewBounded[K, V](capacity),
		calls: make(map[K]*inflight[V]),
	}
}

// GetOrFetch returns the cached value for key, or runs fetch to resolve
// it. Concurrent calls for the same key share one fetch. A fetch error
// is recorded as a miss and returned to every waiter; later calls get
// ErrKnownMiss without re-fetching. Waiters whose context ends before
// the shared fetch completes return their context error; the fetch
// itself keeps running for the remaining callers.
func (a *Async[K, V]) GetOrFetch(ctx context.Context, key K, fetch func(context.Context) (V, error)) (V, error) {
	var zero V

	if v, hit, miss := a.cache.Get(key); hit {
		return v, nil
	} else if miss {
		return zero, ErrKnownMiss
	}

	a.mu.Lock()
	if call, ok := a.calls[key]; ok {
		a.mu.Unlock()
		select {
		case <-call.done:
			return call.value, call.err
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	call := &inflight[V]{done: make(chan struct{})}
	a.calls[key] = call
	a.fetches++
	a.mu.Unlock()

	value, err := fetch(ctx)
	if err != nil {
		a.cache.MarkMiss(key)
		call.err = err
	} else {
		a.cache.Put(key, value)
		call.value = value
	}

	a.mu.Lock()
	delete(a.calls, key)
	a.mu.Unlock()
	close(call.done)

	return call.value, call.err
}

// Fetches reports how many fetches have been started.
func (a *Async[K, V]) Fetches() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fetches
}
