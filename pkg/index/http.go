package index

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pipstale/pipstale/pkg/cache"
	"github.com/pipstale/pipstale/pkg/observability"
)

// httpClient is the transport shared by the JSON and Simple clients.
// It handles per-request timeouts, retry with backoff for transient
// failures, status-code mapping onto the package's sentinel errors,
// and optional response caching.
type httpClient struct {
	http    *http.Client
	backend cache.Cache
	ttl     time.Duration
}

func newHTTPClient(timeout time.Duration, backend cache.Cache, ttl time.Duration) *httpClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if backend == nil {
		backend = cache.NewNullCache()
	}
	return &httpClient{
		http:    &http.Client{Timeout: timeout},
		backend: backend,
		ttl:     ttl,
	}
}

// get fetches url, consulting the cache first. The accept header is
// sent on the request; the response body is returned as raw bytes.
func (c *httpClient) get(ctx context.Context, url, accept string) ([]byte, error) {
	if data, ok, _ := c.backend.Get(ctx, url); ok {
		return data, nil
	}

	var body []byte
	fetch := func() error {
		var err error
		body, err = c.fetch(ctx, url, accept)
		return err
	}
	if err := cache.RetryWithBackoff(ctx, fetch); err != nil {
		return nil, err
	}

	_ = c.backend.Set(ctx, url, body, c.ttl)
	return body, nil
}

func (c *httpClient) fetch(ctx context.Context, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	observability.HTTPEvents().OnRequest(ctx, http.MethodGet, url)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTPEvents().OnError(ctx, http.MethodGet, url, err)
		return nil, cache.Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	defer resp.Body.Close()
	observability.HTTPEvents().OnResponse(ctx, http.MethodGet, url, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 500:
		return cache.Retryable(fmt.Errorf("%w: status %d", ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
