package observability

import (
	"context"
	"testing"
	"time"
)

type countingCacheEvents struct {
	hits, misses, sets int
}

func (c *countingCacheEvents) OnHit(context.Context, string)      { c.hits++ }
func (c *countingCacheEvents) OnMiss(context.Context, string)     { c.misses++ }
func (c *countingCacheEvents) OnSet(context.Context, string, int) { c.sets++ }

func TestSetCacheEvents(t *testing.T) {
	defer SetCacheEvents(NoopCacheEvents{})

	sink := &countingCacheEvents{}
	SetCacheEvents(sink)

	ctx := context.Background()
	CacheEvents().OnHit(ctx, "k")
	CacheEvents().OnMiss(ctx, "k")
	CacheEvents().OnSet(ctx, "k", 10)

	if sink.hits != 1 || sink.misses != 1 || sink.sets != 1 {
		t.Errorf("sink = %+v", sink)
	}
}

func TestSetNilKeepsPrevious(t *testing.T) {
	SetHTTPEvents(nil)
	if HTTPEvents() == nil {
		t.Fatal("nil sink should be ignored")
	}

	// Defaults are no-ops and safe to call.
	HTTPEvents().OnRequest(context.Background(), "GET", "https://pypi.org")
	HTTPEvents().OnResponse(context.Background(), "GET", "https://pypi.org", 200, time.Millisecond)
}
