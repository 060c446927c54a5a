// Package resolve turns a declared requirement plus a published
// version set into a single classification: up to date, outdated (and
// by how much), unpinned, or lookup failed.
//
// All per-package failures stop here. A lookup or parse problem
// becomes a result with StatusLookupFailed and a reason; nothing below
// the CLI ever aborts a run because one package misbehaved.
package resolve

import (
	"context"
	"fmt"

	"github.com/pipstale/pipstale/pkg/index"
	"github.com/pipstale/pipstale/pkg/manifest"
	"github.com/pipstale/pipstale/pkg/pep440"
)

// Status classifies one requirement after resolution.
type Status int

const (
	// StatusUpToDate means the pinned version is the latest published.
	StatusUpToDate Status = iota

	// StatusOutdated means a newer version is published.
	StatusOutdated

	// StatusUnpinned means the declaration carries no version.
	StatusUnpinned

	// StatusLookupFailed means no opinion could be formed: the index
	// lookup failed, or no published version was interpretable.
	StatusLookupFailed
)

func (s Status) String() string {
	switch s {
	case StatusUpToDate:
		return "up-to-date"
	case StatusOutdated:
		return "outdated"
	case StatusUnpinned:
		return "unpinned"
	case StatusLookupFailed:
		return "lookup-failed"
	default:
		return "unknown"
	}
}

// ChangeKind is the magnitude of an available update.
type ChangeKind int

const (
	ChangeNone ChangeKind = iota
	ChangePatch
	ChangeMinor
	ChangeMajor
)

func (k ChangeKind) String() string {
	switch k {
	case ChangePatch:
		return "patch"
	case ChangeMinor:
		return "minor"
	case ChangeMajor:
		return "major"
	default:
		return "none"
	}
}

// Result is the outcome for one requirement line. Exactly one Result
// exists per declared requirement; it is never mutated after creation.
type Result struct {
	Line *manifest.Line

	// Latest is the newest published version, "" when unknown.
	// Pre-releases are only considered when nothing else exists.
	Latest string

	// Compatible is the newest version satisfying the line's
	// specifier, "" when none does or the line is unpinned.
	Compatible string

	// InfoURL is a changelog/project link when the index offered one.
	InfoURL string

	Status Status

	// Change is only meaningful when Status is StatusOutdated.
	Change ChangeKind

	// Err carries the reason when Status is StatusLookupFailed.
	Err error
}

// Name returns the canonical package name for the result.
func (r Result) Name() string { return r.Line.Req.Canonical }

// Resolver looks up and classifies requirements one at a time.
type Resolver struct {
	client index.Client
}

// New creates a Resolver backed by the given index client.
func New(client index.Client) *Resolver {
	return &Resolver{client: client}
}

// Resolve looks up the line's package and classifies it. Lookup
// failures are folded into the result, never returned.
func (r *Resolver) Resolve(ctx context.Context, line *manifest.Line) Result {
	res, err := r.client.Lookup(ctx, line.Req.Canonical)
	if err != nil {
		return Result{Line: line, Status: StatusLookupFailed, Err: err}
	}
	return Evaluate(line, res)
}

// Evaluate classifies a requirement against a fetched version set.
// It is pure: same inputs, same result.
func Evaluate(line *manifest.Line, fetched *index.Result) Result {
	out := Result{Line: line, InfoURL: fetched.InfoURL}

	published := make([]pep440.Version, 0, len(fetched.Versions))
	for _, s := range fetched.Versions {
		if v, err := pep440.Parse(s); err == nil {
			published = append(published, v)
		}
	}
	if len(published) == 0 {
		out.Status = StatusLookupFailed
		out.Err = fmt.Errorf("none of %d published versions are interpretable", len(fetched.Versions))
		return out
	}

	latest, _ := latestOf(published)
	out.Latest = latest.String()

	req := line.Req
	if !req.Pinned() {
		out.Status = StatusUnpinned
		return out
	}

	pinned, err := pep440.Parse(req.Version)
	if err != nil {
		// The parser validates pins, so this only happens for lines
		// built by hand; degrade rather than guess.
		out.Status = StatusLookupFailed
		out.Err = fmt.Errorf("cannot interpret pinned version %q", req.Version)
		return out
	}

	if c, err := pep440.ParseConstraint(req.Specifier); err == nil {
		if best, ok := pep440.MaxSatisfying(published, &c); ok {
			out.Compatible = best.String()
		}
	}

	switch cmp := pep440.Compare(latest, pinned); {
	case cmp == 0:
		out.Status = StatusUpToDate
	case cmp < 0:
		out.Status = StatusLookupFailed
		out.Err = fmt.Errorf("pinned version %s is ahead of latest published %s", req.Version, out.Latest)
	default:
		out.Status = StatusOutdated
		out.Change = classify(pinned, latest)
	}
	return out
}

// latestOf picks the newest final release, falling back to the newest
// of anything published when no final release exists.
func latestOf(published []pep440.Version) (pep440.Version, bool) {
	finals := make([]pep440.Version, 0, len(published))
	for _, v := range published {
		if v.IsFinal() {
			finals = append(finals, v)
		}
	}
	if best, ok := pep440.Max(finals); ok {
		return best, true
	}
	return pep440.Max(published)
}

// classify grades the gap between the pinned and latest versions: the
// leading release component decides major, the second minor, and any
// lower-order difference (including pre-release-only gaps) is patch.
func classify(pinned, latest pep440.Version) ChangeKind {
	if pinned.Component(0) != latest.Component(0) || pinned.Epoch != latest.Epoch {
		return ChangeMajor
	}
	if pinned.Component(1) != latest.Component(1) {
		return ChangeMinor
	}
	return ChangePatch
}
