package index

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// JSONClient queries the JSON API: a single GET of {repo}/{name}/json
// returns full metadata, including every published release.
type JSONClient struct {
	http *httpClient
	repo string
}

// NewJSONClient creates a JSON API client for the given repository
// base URL ("" for the PyPI default). A trailing slash is tolerated.
func NewJSONClient(h *httpClient, repo string) *JSONClient {
	if repo == "" {
		repo = DefaultJSONRepo
	}
	return &JSONClient{http: h, repo: strings.TrimRight(repo, "/")}
}

type jsonResponse struct {
	Info     jsonInfo                   `json:"info"`
	Releases map[string]json.RawMessage `json:"releases"`
}

type jsonInfo struct {
	Version     string         `json:"version"`
	ProjectURLs map[string]any `json:"project_urls"`
	DocsURL     string         `json:"docs_url"`
	ProjectURL  string         `json:"project_url"`
	HomePage    string         `json:"home_page"`
	PackageURL  string         `json:"package_url"`
}

// Lookup fetches the version set for name from the JSON API.
func (c *JSONClient) Lookup(ctx context.Context, name string) (*Result, error) {
	body, err := c.http.get(ctx, fmt.Sprintf("%s/%s/json", c.repo, name), "application/json")
	if err != nil {
		return nil, err
	}

	var data jsonResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	res := &Result{InfoURL: infoLink(data.Info)}
	for v := range data.Releases {
		res.Versions = append(res.Versions, v)
	}
	if len(res.Versions) == 0 {
		if data.Info.Version == "" {
			return nil, fmt.Errorf("%w: no version information", ErrMalformed)
		}
		res.Versions = []string{data.Info.Version}
	}
	return res, nil
}

// infoLink picks the most useful project link the metadata offers.
// Changelog-style URLs win over generic homepages.
func infoLink(info jsonInfo) string {
	for _, key := range []string{"Changelog", "Changes"} {
		if u, ok := info.ProjectURLs[key].(string); ok && u != "" {
			return u
		}
	}
	for _, u := range []string{info.DocsURL, info.ProjectURL, info.HomePage, info.PackageURL} {
		if u != "" {
			return u
		}
	}
	return ""
}
