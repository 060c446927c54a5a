// Package index looks up published versions of Python packages.
//
// Two index API shapes are supported behind one Client contract: the
// JSON API (one request returns full metadata including every release)
// and the Simple API (PEP 503 HTML listing distribution files, from
// whose names versions are extracted). A fallback client composes the
// two, trying JSON first, so call sites never branch on strategy.
//
// Lookup failures are per-package and never fatal: callers downgrade
// them to a result status and continue with the rest of the manifest.
package index

import (
	"context"
	"errors"
	"time"

	"github.com/pipstale/pipstale/pkg/cache"
)

// Default PyPI endpoints.
const (
	DefaultJSONRepo   = "https://pypi.org/pypi"
	DefaultSimpleRepo = "https://pypi.org/simple"
)

// DefaultTimeout bounds each index request.
const DefaultTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when the index does not know the package.
	ErrNotFound = errors.New("package not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection
	// errors, unexpected status codes).
	ErrNetwork = errors.New("network error")

	// ErrMalformed is returned when the index responds with something
	// that cannot be interpreted.
	ErrMalformed = errors.New("malformed index response")
)

// Result is the version set published for one package.
type Result struct {
	// Versions holds every published version string, unordered and
	// unvalidated; the resolver decides what parses and what wins.
	Versions []string

	// InfoURL is a best-effort changelog or project link. Only the
	// JSON API can provide one.
	InfoURL string
}

// Client fetches the published version set for a package. The name is
// expected in PEP 503 canonical form.
type Client interface {
	Lookup(ctx context.Context, name string) (*Result, error)
}

// Options selects and configures the lookup strategy.
type Options struct {
	JSONRepo   string // JSON API base URL ("" for default)
	SimpleRepo string // Simple API base URL ("" for default)
	JSONOnly   bool   // disable the Simple fallback
	SimpleOnly bool   // use only the Simple API
	Timeout    time.Duration

	// Cache stores raw responses across runs. Nil disables caching.
	Cache    cache.Cache
	CacheTTL time.Duration
}

// New builds a Client per the options: JSON with Simple fallback by
// default, or a single strategy when restricted. JSONOnly and
// SimpleOnly are mutually exclusive; SimpleOnly wins if both are set
// since callers validate flags before getting here.
func New(opts Options) Client {
	h := newHTTPClient(opts.Timeout, opts.Cache, opts.CacheTTL)
	switch {
	case opts.SimpleOnly:
		return NewSimpleClient(h, opts.SimpleRepo)
	case opts.JSONOnly:
		return NewJSONClient(h, opts.JSONRepo)
	default:
		return NewFallbackClient(
			NewJSONClient(h, opts.JSONRepo),
			NewSimpleClient(h, opts.SimpleRepo),
		)
	}
}
