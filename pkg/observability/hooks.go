// Package observability provides hooks for instrumenting index lookups
// and cache operations.
//
// The core packages stay free of any metrics or tracing dependency:
// they emit events through the interfaces here, and main (or a test)
// may register an implementation at startup. The defaults are no-ops.
package observability

import (
	"context"
	"sync"
	"time"
)

// HTTPEventSink receives events from index HTTP requests.
type HTTPEventSink interface {
	// OnRequest records an outgoing request.
	OnRequest(ctx context.Context, method, url string)

	// OnResponse records a completed request.
	OnResponse(ctx context.Context, method, url string, statusCode int, duration time.Duration)

	// OnError records a transport-level failure (timeout, refused connection).
	OnError(ctx context.Context, method, url string, err error)
}

// CacheEventSink receives events from cache operations.
type CacheEventSink interface {
	// OnHit records a cache hit.
	OnHit(ctx context.Context, key string)

	// OnMiss records a cache miss.
	OnMiss(ctx context.Context, key string)

	// OnSet records a cache write.
	OnSet(ctx context.Context, key string, size int)
}

// NoopHTTPEvents is a no-op implementation of HTTPEventSink.
type NoopHTTPEvents struct{}

func (NoopHTTPEvents) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPEvents) OnResponse(context.Context, string, string, int, time.Duration) {}
func (NoopHTTPEvents) OnError(context.Context, string, string, error)                 {}

// NoopCacheEvents is a no-op implementation of CacheEventSink.
type NoopCacheEvents struct{}

func (NoopCacheEvents) OnHit(context.Context, string)      {}
func (NoopCacheEvents) OnMiss(context.Context, string)     {}
func (NoopCacheEvents) OnSet(context.Context, string, int) {}

var (
	httpEvents  HTTPEventSink  = NoopHTTPEvents{}
	cacheEvents CacheEventSink = NoopCacheEvents{}
	mu          sync.RWMutex
)

// SetHTTPEvents registers a custom HTTP event sink.
// Call once at startup before any lookups.
func SetHTTPEvents(s HTTPEventSink) {
	mu.Lock()
	defer mu.Unlock()
	if s != nil {
		httpEvents = s
	}
}

// SetCacheEvents registers a custom cache event sink.
// Call once at startup before any cache operations.
func SetCacheEvents(s CacheEventSink) {
	mu.Lock()
	defer mu.Unlock()
	if s != nil {
		cacheEvents = s
	}
}

// HTTPEvents returns the registered HTTP event sink.
func HTTPEvents() HTTPEventSink {
	mu.RLock()
	defer mu.RUnlock()
	return httpEvents
}

// CacheEvents returns the registered cache event sink.
func CacheEvents() CacheEventSink {
	mu.RLock()
	defer mu.RUnlock()
	return cacheEvents
}
