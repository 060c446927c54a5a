package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/pipstale/pipstale/pkg/index"
	"github.com/pipstale/pipstale/pkg/manifest"
)

// reqLine parses a single declaration into a requirement line.
func reqLine(t *testing.T, decl string) *manifest.Line {
	t.Helper()
	var warnings []manifest.Warning
	f := manifest.ParseBytes("requirements.txt", []byte(decl+"\n"), &warnings)
	reqs := f.Requirements()
	if len(reqs) != 1 {
		t.Fatalf("parsed %d requirements from %q", len(reqs), decl)
	}
	return reqs[0]
}

func fetched(versions ...string) *index.Result {
	return &index.Result{Versions: versions}
}

func TestEvaluateStatus(t *testing.T) {
	tests := []struct {
		name   string
		decl   string
		res    *index.Result
		status Status
		change ChangeKind
		latest string
	}{
		{
			name:   "pinned at latest",
			decl:   "requests==2.31.0",
			res:    fetched("2.25.0", "2.28.1", "2.31.0"),
			status: StatusUpToDate,
			latest: "2.31.0",
		},
		{
			name:   "minor behind",
			decl:   "requests==2.25.0",
			res:    fetched("2.25.0", "2.28.1", "2.31.0"),
			status: StatusOutdated,
			change: ChangeMinor,
			latest: "2.31.0",
		},
		{
			name:   "major behind",
			decl:   "django==3.2.0",
			res:    fetched("3.2.0", "4.2.1"),
			status: StatusOutdated,
			change: ChangeMajor,
			latest: "4.2.1",
		},
		{
			name:   "patch behind",
			decl:   "flask==2.3.0",
			res:    fetched("2.3.0", "2.3.3"),
			status: StatusOutdated,
			change: ChangePatch,
			latest: "2.3.3",
		},
		{
			name:   "unpinned",
			decl:   "flask",
			res:    fetched("2.3.0"),
			status: StatusUnpinned,
			latest: "2.3.0",
		},
		{
			name:   "minimum bound behind",
			decl:   "uvicorn>=0.23.0",
			res:    fetched("0.23.0", "0.24.0"),
			status: StatusOutdated,
			change: ChangeMinor,
			latest: "0.24.0",
		},
		{
			name:   "epoch bump is major",
			decl:   "pytz==2023.3",
			res:    fetched("2023.3", "1!0.1"),
			status: StatusOutdated,
			change: ChangeMajor,
			latest: "1!0.1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(reqLine(t, tt.decl), tt.res)
			if got.Status != tt.status {
				t.Fatalf("status = %v, want %v (err %v)", got.Status, tt.status, got.Err)
			}
			if got.Status == StatusOutdated && got.Change != tt.change {
				t.Errorf("change = %v, want %v", got.Change, tt.change)
			}
			if got.Latest != tt.latest {
				t.Errorf("latest = %q, want %q", got.Latest, tt.latest)
			}
		})
	}
}

func TestEvaluateSkipsPrereleases(t *testing.T) {
	got := Evaluate(reqLine(t, "requests==2.31.0"), fetched("2.31.0", "2.32.0rc1"))
	if got.Status != StatusUpToDate {
		t.Errorf("status = %v, want up-to-date; release candidates are not updates", got.Status)
	}
	if got.Latest != "2.31.0" {
		t.Errorf("latest = %q", got.Latest)
	}
}

func TestEvaluatePrereleaseOnlyPackage(t *testing.T) {
	got := Evaluate(reqLine(t, "experimental==0.1.0b1"), fetched("0.1.0b1", "0.1.0b2"))
	if got.Status != StatusOutdated {
		t.Fatalf("status = %v, want outdated", got.Status)
	}
	if got.Latest != "0.1.0b2" {
		t.Errorf("latest = %q", got.Latest)
	}
	if got.Change != ChangePatch {
		t.Errorf("change = %v, want patch", got.Change)
	}
}

func TestEvaluatePinAheadOfIndex(t *testing.T) {
	got := Evaluate(reqLine(t, "internal==9.0.0"), fetched("1.0.0", "2.0.0"))
	if got.Status != StatusLookupFailed {
		t.Fatalf("status = %v, want lookup-failed", got.Status)
	}
	if got.Err == nil {
		t.Error("expected a reason")
	}
}

func TestEvaluateUninterpretableVersions(t *testing.T) {
	got := Evaluate(reqLine(t, "weird==1.0"), fetched("not-a-version", "also-bad"))
	if got.Status != StatusLookupFailed {
		t.Fatalf("status = %v, want lookup-failed", got.Status)
	}
}

func TestEvaluateCompatibleWithinBound(t *testing.T) {
	got := Evaluate(reqLine(t, "celery~=5.2.0"), fetched("5.2.0", "5.2.7", "5.3.4"))
	if got.Status != StatusOutdated {
		t.Fatalf("status = %v, want outdated", got.Status)
	}
	if got.Latest != "5.3.4" {
		t.Errorf("latest = %q", got.Latest)
	}
	if got.Compatible != "5.2.7" {
		t.Errorf("compatible = %q, want 5.2.7", got.Compatible)
	}
}

func TestResolveLookupFailure(t *testing.T) {
	r := New(failingClient{})
	got := r.Resolve(context.Background(), reqLine(t, "leftpad==1.0.0"))
	if got.Status != StatusLookupFailed {
		t.Fatalf("status = %v, want lookup-failed", got.Status)
	}
	if !errors.Is(got.Err, index.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", got.Err)
	}
}

func TestResolveCarriesInfoURL(t *testing.T) {
	r := New(staticClient{res: &index.Result{
		Versions: []string{"1.0.0", "2.0.0"},
		InfoURL:  "https://example.com/changelog",
	}})
	got := r.Resolve(context.Background(), reqLine(t, "pkg==1.0.0"))
	if got.InfoURL != "https://example.com/changelog" {
		t.Errorf("info url = %q", got.InfoURL)
	}
}

type failingClient struct{}

func (failingClient) Lookup(context.Context, string) (*index.Result, error) {
	return nil, index.ErrNotFound
}

type staticClient struct{ res *index.Result }

func (c staticClient) Lookup(context.Context, string) (*index.Result, error) {
	return c.res, nil
}
