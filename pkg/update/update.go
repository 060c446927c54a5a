// Package update applies resolved version bumps back to requirements
// files. Each proposal is confirmed through a Prompter, with "all" and
// "quit" short-circuits, then the touched files are written in one
// pass at the end.
package update

import (
	"context"
	"fmt"

	"github.com/pipstale/pipstale/pkg/manifest"
	"github.com/pipstale/pipstale/pkg/resolve"
)

// Decision is a prompter's answer for one proposal.
type Decision int

const (
	// DecisionYes applies this proposal.
	DecisionYes Decision = iota

	// DecisionNo skips this proposal.
	DecisionNo

	// DecisionAll applies this and every remaining proposal unasked.
	DecisionAll

	// DecisionQuit skips this and every remaining proposal. Bumps
	// already accepted are still written.
	DecisionQuit
)

// Proposal is one suggested rewrite: pin (or re-pin) a requirement to
// a target version.
type Proposal struct {
	Result resolve.Result

	// Target is the version the line would be rewritten to.
	Target string
}

// Name returns the canonical package name for prompts and summaries.
func (p Proposal) Name() string { return p.Result.Name() }

// Current is the version currently declared, "" when unpinned.
func (p Proposal) Current() string { return p.Result.Line.Req.Version }

// Prompter asks the user about one proposal at a time.
type Prompter interface {
	Confirm(ctx context.Context, p Proposal) (Decision, error)
}

// Options controls which proposals are offered and how.
type Options struct {
	// IncludeUnpinned also proposes pinning packages that declare no
	// version at all.
	IncludeUnpinned bool

	// Auto accepts every proposal without prompting.
	Auto bool
}

// Summary is what a run did.
type Summary struct {
	Applied []Proposal
	Skipped []Proposal

	// Quit reports whether the user stopped the run early.
	Quit bool
}

// Proposals selects the results worth offering: every outdated pin,
// plus unpinned packages when asked for. Results arrive grouped and
// sorted from the report, and the order is preserved.
func Proposals(results []resolve.Result, includeUnpinned bool) []Proposal {
	var out []Proposal
	for _, res := range results {
		switch res.Status {
		case resolve.StatusOutdated:
			out = append(out, Proposal{Result: res, Target: res.Latest})
		case resolve.StatusUnpinned:
			if includeUnpinned {
				out = append(out, Proposal{Result: res, Target: res.Latest})
			}
		}
	}
	return out
}

// Run walks the proposals, asks the prompter about each, rewrites the
// accepted lines, and writes every touched file once at the end. A
// prompter error aborts before anything is written.
func Run(ctx context.Context, file *manifest.File, proposals []Proposal, prompter Prompter, opts Options) (Summary, error) {
	var sum Summary
	applyAll := opts.Auto

	for _, p := range proposals {
		if sum.Quit {
			sum.Skipped = append(sum.Skipped, p)
			continue
		}

		decision := DecisionYes
		if !applyAll {
			var err error
			decision, err = prompter.Confirm(ctx, p)
			if err != nil {
				return sum, fmt.Errorf("confirm %s: %w", p.Name(), err)
			}
		}

		switch decision {
		case DecisionAll:
			applyAll = true
			fallthrough
		case DecisionYes:
			if err := p.Result.Line.SetVersion(p.Target); err != nil {
				return sum, err
			}
			sum.Applied = append(sum.Applied, p)
		case DecisionQuit:
			sum.Quit = true
			sum.Skipped = append(sum.Skipped, p)
		default:
			sum.Skipped = append(sum.Skipped, p)
		}
	}

	if len(sum.Applied) > 0 {
		if err := file.Write(); err != nil {
			return sum, err
		}
	}
	return sum, nil
}
