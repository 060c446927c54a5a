package index

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/pipstale/pipstale/pkg/cache"
)

func testHTTP() *httpClient {
	return newHTTPClient(5*time.Second, nil, 0)
}

func jsonBody(versions []string, projectURLs map[string]any) []byte {
	releases := make(map[string]json.RawMessage, len(versions))
	for _, v := range versions {
		releases[v] = json.RawMessage("[]")
	}
	latest := ""
	if len(versions) > 0 {
		latest = versions[len(versions)-1]
	}
	body, _ := json.Marshal(map[string]any{
		"info": map[string]any{
			"version":      latest,
			"project_urls": projectURLs,
		},
		"releases": releases,
	})
	return body
}

func TestJSONClientLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/requests/json" {
			http.NotFound(w, r)
			return
		}
		w.Write(jsonBody([]string{"2.25.0", "2.28.1", "2.31.0"}, map[string]any{
			"Changelog": "https://example.com/changelog",
		}))
	}))
	defer server.Close()

	c := NewJSONClient(testHTTP(), server.URL)
	res, err := c.Lookup(context.Background(), "requests")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	sort.Strings(res.Versions)
	want := []string{"2.25.0", "2.28.1", "2.31.0"}
	if len(res.Versions) != len(want) {
		t.Fatalf("versions = %v, want %v", res.Versions, want)
	}
	for i := range want {
		if res.Versions[i] != want[i] {
			t.Errorf("versions = %v, want %v", res.Versions, want)
			break
		}
	}
	if res.InfoURL != "https://example.com/changelog" {
		t.Errorf("info url = %q", res.InfoURL)
	}
}

func TestJSONClientNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	c := NewJSONClient(testHTTP(), server.URL)
	_, err := c.Lookup(context.Background(), "leftpad")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestJSONClientMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not json"))
	}))
	defer server.Close()

	c := NewJSONClient(testHTTP(), server.URL)
	_, err := c.Lookup(context.Background(), "requests")
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestJSONClientNoReleasesUsesInfoVersion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"info": {"version": "1.2.3"}}`))
	}))
	defer server.Close()

	c := NewJSONClient(testHTTP(), server.URL)
	res, err := c.Lookup(context.Background(), "tiny")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(res.Versions) != 1 || res.Versions[0] != "1.2.3" {
		t.Errorf("versions = %v", res.Versions)
	}
}

func TestInfoLinkPrecedence(t *testing.T) {
	tests := []struct {
		name string
		info jsonInfo
		want string
	}{
		{
			name: "changelog wins",
			info: jsonInfo{
				ProjectURLs: map[string]any{"Changelog": "https://c", "Changes": "https://x"},
				HomePage:    "https://h",
			},
			want: "https://c",
		},
		{
			name: "changes second",
			info: jsonInfo{ProjectURLs: map[string]any{"Changes": "https://x"}, HomePage: "https://h"},
			want: "https://x",
		},
		{
			name: "homepage fallback",
			info: jsonInfo{HomePage: "https://h"},
			want: "https://h",
		},
		{
			name: "nothing",
			info: jsonInfo{},
			want: "",
		},
	}
	for _, tt := range tests {
		if got := infoLink(tt.info); got != tt.want {
			t.Errorf("%s: infoLink = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestHTTPClientCachesResponses(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write(jsonBody([]string{"1.0"}, nil))
	}))
	defer server.Close()

	backend, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	h := newHTTPClient(5*time.Second, backend, time.Hour)
	c := NewJSONClient(h, server.URL)

	for i := 0; i < 3; i++ {
		if _, err := c.Lookup(context.Background(), "requests"); err != nil {
			t.Fatalf("Lookup %d: %v", i, err)
		}
	}
	if requests != 1 {
		t.Errorf("server saw %d requests, want 1 (cached)", requests)
	}
}
