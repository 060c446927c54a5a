// Package report arranges resolution results for display: grouped by
// severity, sorted by name, rendered as plain text through a set of
// caller-supplied style hooks so the CLI can color it (or not).
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pipstale/pipstale/pkg/manifest"
	"github.com/pipstale/pipstale/pkg/resolve"
)

// Report is a stable arrangement of one run's findings. Building it
// twice from the same inputs yields the same report.
type Report struct {
	Major    []resolve.Result
	Minor    []resolve.Result
	Patch    []resolve.Result
	Unpinned []resolve.Result
	UpToDate []resolve.Result
	Failed   []resolve.Result

	Skipped  []*manifest.Line
	Warnings []manifest.Warning
}

// Build groups and sorts results. Skipped lines and parse warnings are
// carried through for verbose output.
func Build(results []resolve.Result, skipped []*manifest.Line, warnings []manifest.Warning) *Report {
	r := &Report{Skipped: skipped, Warnings: warnings}
	for _, res := range results {
		switch res.Status {
		case resolve.StatusOutdated:
			switch res.Change {
			case resolve.ChangeMajor:
				r.Major = append(r.Major, res)
			case resolve.ChangeMinor:
				r.Minor = append(r.Minor, res)
			default:
				r.Patch = append(r.Patch, res)
			}
		case resolve.StatusUnpinned:
			r.Unpinned = append(r.Unpinned, res)
		case resolve.StatusUpToDate:
			r.UpToDate = append(r.UpToDate, res)
		case resolve.StatusLookupFailed:
			r.Failed = append(r.Failed, res)
		}
	}
	for _, group := range [][]resolve.Result{r.Major, r.Minor, r.Patch, r.Unpinned, r.UpToDate, r.Failed} {
		sort.Slice(group, func(i, j int) bool { return group[i].Name() < group[j].Name() })
	}
	return r
}

// Actionable returns the results an update run could act on, in
// render order: major, minor, patch, then unpinned.
func (r *Report) Actionable() []resolve.Result {
	out := make([]resolve.Result, 0, r.OutdatedCount()+len(r.Unpinned))
	out = append(out, r.Major...)
	out = append(out, r.Minor...)
	out = append(out, r.Patch...)
	out = append(out, r.Unpinned...)
	return out
}

// OutdatedCount is the number of packages with an available update.
func (r *Report) OutdatedCount() int {
	return len(r.Major) + len(r.Minor) + len(r.Patch)
}

// Clean reports whether nothing needs attention.
func (r *Report) Clean() bool {
	return r.OutdatedCount() == 0 && len(r.Unpinned) == 0 && len(r.Failed) == 0
}

// Styles lets the caller color rendered output. Every hook receives a
// fragment and returns it decorated; Plain() is the no-op set.
type Styles struct {
	Header func(string) string
	Name   func(string) string
	Good   func(string) string
	Warn   func(string) string
	Bad    func(string) string
	Dim    func(string) string
	Link   func(string) string
}

// Plain returns styles that pass text through unchanged.
func Plain() Styles {
	id := func(s string) string { return s }
	return Styles{Header: id, Name: id, Good: id, Warn: id, Bad: id, Dim: id, Link: id}
}

// Options controls what Render includes.
type Options struct {
	// Verbose adds the up-to-date and skipped sections.
	Verbose bool

	// PinWarn renders unpinned packages at warning severity instead
	// of as informational notes.
	PinWarn bool

	// ShowInfo appends changelog/project links where known.
	ShowInfo bool
}

// Render writes the report as text. It never fails the run: findings
// are output, not errors.
func (r *Report) Render(w io.Writer, st Styles, opts Options) {
	width := r.nameWidth()

	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "%s %s\n", st.Warn("!"), st.Dim(warn.String()))
	}

	r.renderGroup(w, st, opts, "major updates", st.Bad, r.Major, width)
	r.renderGroup(w, st, opts, "minor updates", st.Warn, r.Minor, width)
	r.renderGroup(w, st, opts, "patch updates", st.Warn, r.Patch, width)

	if len(r.Unpinned) > 0 {
		sev := st.Dim
		icon := "›"
		if opts.PinWarn {
			sev = st.Warn
			icon = "!"
		}
		fmt.Fprintf(w, "%s\n", st.Header("unpinned"))
		for _, res := range r.Unpinned {
			fmt.Fprintf(w, "  %s %s %s\n",
				sev(icon), pad(st.Name(res.Name()), res.Name(), width),
				st.Dim("(latest "+res.Latest+")"))
		}
	}

	if opts.Verbose && len(r.Skipped) > 0 {
		fmt.Fprintf(w, "%s\n", st.Header("skipped"))
		for _, l := range r.Skipped {
			fmt.Fprintf(w, "  %s %s\n", st.Dim("›"), st.Dim(l.Location()+": "+strings.TrimSpace(l.Raw)))
		}
	}

	if opts.Verbose && len(r.UpToDate) > 0 {
		fmt.Fprintf(w, "%s\n", st.Header("up to date"))
		for _, res := range r.UpToDate {
			fmt.Fprintf(w, "  %s %s %s\n",
				st.Good("✓"), pad(st.Name(res.Name()), res.Name(), width), st.Dim(res.Latest))
		}
	}

	if len(r.Failed) > 0 {
		fmt.Fprintf(w, "%s\n", st.Header("lookup failed"))
		for _, res := range r.Failed {
			reason := "unknown"
			if res.Err != nil {
				reason = res.Err.Error()
			}
			fmt.Fprintf(w, "  %s %s %s\n",
				st.Bad("✗"), pad(st.Name(res.Name()), res.Name(), width), st.Dim(reason))
		}
	}

	r.renderSummary(w, st, opts)
}

func (r *Report) renderGroup(w io.Writer, st Styles, opts Options, header string, sev func(string) string, group []resolve.Result, width int) {
	if len(group) == 0 {
		return
	}
	fmt.Fprintf(w, "%s\n", st.Header(header))
	for _, res := range group {
		line := fmt.Sprintf("  %s %s %s %s %s",
			sev("✗"), pad(st.Name(res.Name()), res.Name(), width),
			res.Line.Req.Version, st.Dim("→"), sev(res.Latest))
		if res.Compatible != "" && res.Compatible != res.Latest {
			line += " " + st.Dim("(compatible "+res.Compatible+")")
		}
		if opts.ShowInfo && res.InfoURL != "" {
			line += " " + st.Link(res.InfoURL)
		}
		fmt.Fprintln(w, line)
	}
}

func (r *Report) renderSummary(w io.Writer, st Styles, opts Options) {
	if r.Clean() {
		if len(r.UpToDate) > 0 || opts.Verbose {
			fmt.Fprintf(w, "%s all %d packages up to date\n", st.Good("✓"), len(r.UpToDate))
		} else {
			fmt.Fprintf(w, "%s nothing to check\n", st.Good("✓"))
		}
		return
	}
	var parts []string
	if n := r.OutdatedCount(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d outdated", n))
	}
	if n := len(r.Unpinned); n > 0 {
		parts = append(parts, fmt.Sprintf("%d unpinned", n))
	}
	if n := len(r.Failed); n > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", n))
	}
	fmt.Fprintln(w, st.Dim(strings.Join(parts, " · ")))
}

// nameWidth is the widest package name across every rendered group,
// used to align version columns.
func (r *Report) nameWidth() int {
	width := 0
	for _, group := range [][]resolve.Result{r.Major, r.Minor, r.Patch, r.Unpinned, r.UpToDate, r.Failed} {
		for _, res := range group {
			if n := len(res.Name()); n > width {
				width = n
			}
		}
	}
	return width
}

// pad right-pads styled text based on the unstyled width, so ANSI
// escape sequences do not break column alignment.
func pad(styled, plain string, width int) string {
	if len(plain) >= width {
		return styled
	}
	return styled + strings.Repeat(" ", width-len(plain))
}
