package index

import (
	"context"
	"fmt"
)

// FallbackClient tries a primary lookup strategy and falls back to a
// secondary on any failure: network error, missing package, or a
// malformed response. Only when both fail does the caller see an
// error, carrying both reasons.
type FallbackClient struct {
	primary, secondary Client
}

// NewFallbackClient composes two lookup strategies.
func NewFallbackClient(primary, secondary Client) *FallbackClient {
	return &FallbackClient{primary: primary, secondary: secondary}
}

// Lookup implements Client.
func (c *FallbackClient) Lookup(ctx context.Context, name string) (*Result, error) {
	res, primaryErr := c.primary.Lookup(ctx, name)
	if primaryErr == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		return nil, primaryErr
	}

	res, secondaryErr := c.secondary.Lookup(ctx, name)
	if secondaryErr == nil {
		return res, nil
	}
	return nil, fmt.Errorf("json api: %v; simple api: %w", primaryErr, secondaryErr)
}
