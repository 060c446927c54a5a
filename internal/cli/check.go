package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pipstale/pipstale/pkg/manifest"
	"github.com/pipstale/pipstale/pkg/report"
	"github.com/pipstale/pipstale/pkg/resolve"
)

// checkOptions collects the check command's flags.
type checkOptions struct {
	indexOptions
	pinWarn  bool
	showInfo bool
}

// checkCommand creates the check command.
func (c *CLI) checkCommand() *cobra.Command {
	var opts checkOptions

	cmd := &cobra.Command{
		Use:   "check [requirements.txt]",
		Short: "Report packages with newer releases",
		Long: `Check the packages declared in a requirements file against the
package index and report which pins have newer releases.

Updates are grouped by how far behind the pin is (major, minor,
patch), with unpinned packages and failed lookups listed separately.
Findings are output, not errors: the exit code stays zero.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "requirements.txt"
			if len(args) == 1 {
				path = args[0]
			}
			rep, _, err := c.runCheck(cmd, path, &opts.indexOptions)
			if err != nil {
				return err
			}
			rep.Render(cmd.OutOrStdout(), reportStyles(c.plain()), report.Options{
				Verbose:  c.Verbose,
				PinWarn:  opts.pinWarn,
				ShowInfo: opts.showInfo,
			})
			return nil
		},
	}

	registerIndexFlags(cmd, &opts.indexOptions)
	cmd.Flags().BoolVarP(&opts.pinWarn, "pin-warn", "p", false, "treat unpinned packages as warnings")
	cmd.Flags().BoolVarP(&opts.showInfo, "info", "i", false, "show changelog/project links for updates")

	return cmd
}

// runCheck parses the requirements file and resolves every declared
// package against the index. Cancellation aborts between lookups.
func (c *CLI) runCheck(cmd *cobra.Command, path string, opts *indexOptions) (*report.Report, *manifest.File, error) {
	ctx := cmd.Context()

	f, warnings, err := manifest.Parse(path)
	if err != nil {
		return nil, nil, err
	}

	client, err := c.newIndexClient(cmd, opts)
	if err != nil {
		return nil, nil, err
	}
	resolver := resolve.New(client)

	reqs := f.Requirements()
	c.Logger.Debug("parsed requirements", "file", path, "packages", len(reqs), "warnings", len(warnings))

	var spinner *Spinner
	if !c.plain() {
		spinner = newSpinnerWithContext(ctx, fmt.Sprintf("Checking %d packages...", len(reqs)))
		spinner.Start()
	}

	track := newProgress(c.Logger)
	results := make([]resolve.Result, 0, len(reqs))
	for _, line := range reqs {
		if ctx.Err() != nil {
			if spinner != nil {
				spinner.StopWithError("Check interrupted")
			}
			return nil, nil, ctx.Err()
		}
		c.Logger.Debug("checking", "package", line.Req.Canonical)
		results = append(results, resolver.Resolve(ctx, line))
	}
	if spinner != nil {
		spinner.Stop()
	}
	track.done(fmt.Sprintf("Checked %d packages", len(reqs)))

	return report.Build(results, f.Skipped(), warnings), f, nil
}
