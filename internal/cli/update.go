package cli

import (
	"github.com/spf13/cobra"

	"github.com/pipstale/pipstale/pkg/report"
	"github.com/pipstale/pipstale/pkg/update"
)

// updateOptions collects the update command's flags.
type updateOptions struct {
	indexOptions
	unpinned bool
	auto     bool
}

// updateCommand creates the update command.
func (c *CLI) updateCommand() *cobra.Command {
	var opts updateOptions

	cmd := &cobra.Command{
		Use:   "update [requirements.txt]",
		Short: "Rewrite outdated pins to the latest releases",
		Long: `Check the requirements file, then walk through the outdated pins and
rewrite the accepted ones in place. Each bump is confirmed
individually; answer "all" to accept the rest unasked or "quit" to
stop. Accepted bumps are kept even when the run stops early.

Comments, markers and formatting on rewritten lines are preserved.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "requirements.txt"
			if len(args) == 1 {
				path = args[0]
			}

			rep, file, err := c.runCheck(cmd, path, &opts.indexOptions)
			if err != nil {
				return err
			}
			rep.Render(cmd.OutOrStdout(), reportStyles(c.plain()), report.Options{
				Verbose:  c.Verbose,
				ShowInfo: true,
			})

			proposals := update.Proposals(rep.Actionable(), opts.unpinned)
			if len(proposals) == 0 {
				return nil
			}

			sum, err := update.Run(cmd.Context(), file, proposals, c.newPrompter(), update.Options{
				IncludeUnpinned: opts.unpinned,
				Auto:            opts.auto,
			})
			if err != nil {
				return err
			}

			if len(sum.Applied) > 0 {
				printSuccess("Updated %d of %d packages", len(sum.Applied), len(proposals))
				for _, p := range sum.Applied {
					printDetail("%s %s -> %s", p.Name(), orNew(p.Current()), p.Target)
				}
			} else {
				printInfo("Nothing updated")
			}
			if sum.Quit {
				printDetail("stopped early, %d proposals left", len(sum.Skipped))
			}
			return nil
		},
	}

	registerIndexFlags(cmd, &opts.indexOptions)
	cmd.Flags().BoolVarP(&opts.unpinned, "unpinned", "p", false, "also pin packages that declare no version")
	cmd.Flags().BoolVarP(&opts.auto, "auto", "a", false, "accept every update without prompting")

	return cmd
}

// orNew substitutes a placeholder for the empty current version of an
// unpinned package.
func orNew(current string) string {
	if current == "" {
		return "(unpinned)"
	}
	return current
}
