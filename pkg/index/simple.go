package index

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// SimpleClient queries the Simple API (PEP 503): GET {repo}/{name}/
// returns an HTML page of anchor tags naming distribution files, from
// which version strings are extracted by pattern.
type SimpleClient struct {
	http *httpClient
	repo string
}

// NewSimpleClient creates a Simple API client for the given repository
// base URL ("" for the PyPI default).
func NewSimpleClient(h *httpClient, repo string) *SimpleClient {
	if repo == "" {
		repo = DefaultSimpleRepo
	}
	return &SimpleClient{http: h, repo: strings.TrimRight(repo, "/")}
}

// anchorRE captures the text of each anchor tag on a project page.
var anchorRE = regexp.MustCompile(`<a[^>]*>([^<]+)</a>`)

// distSuffixes are the archive extensions the extractor understands,
// checked in order so ".tar.gz" wins over a hypothetical ".gz".
var distSuffixes = []string{".tar.gz", ".tar.bz2", ".zip", ".whl", ".egg"}

// Lookup fetches the project page for name and extracts a version from
// every distribution filename it can interpret.
func (c *SimpleClient) Lookup(ctx context.Context, name string) (*Result, error) {
	body, err := c.http.get(ctx, fmt.Sprintf("%s/%s/", c.repo, name), "text/html")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	res := &Result{}
	for _, m := range anchorRE.FindAllStringSubmatch(string(body), -1) {
		v, ok := versionFromFilename(name, strings.TrimSpace(m[1]))
		if !ok || seen[v] {
			continue
		}
		seen[v] = true
		res.Versions = append(res.Versions, v)
	}

	if len(res.Versions) == 0 {
		return nil, fmt.Errorf("%w: no versions on project page", ErrMalformed)
	}
	return res, nil
}

// versionFromFilename extracts the version from a distribution
// filename such as "requests-2.31.0.tar.gz" or
// "requests-2.31.0-py3-none-any.whl". The canonical package name must
// prefix the filename; wheels keep only the segment before the build
// and python tags.
func versionFromFilename(canonical, filename string) (string, bool) {
	lower := strings.ToLower(filename)

	var wheel bool
	var base string
	for _, suffix := range distSuffixes {
		if trimmed, ok := strings.CutSuffix(lower, suffix); ok {
			base = trimmed
			wheel = suffix == ".whl" || suffix == ".egg"
			break
		}
	}
	if base == "" {
		return "", false
	}

	// Wheel filenames spell the distribution with underscores.
	rest, ok := strings.CutPrefix(strings.ReplaceAll(base, "_", "-"), canonical+"-")
	if !ok {
		return "", false
	}
	if wheel {
		rest, _, _ = strings.Cut(rest, "-")
	}
	if rest == "" {
		return "", false
	}
	return rest, true
}
