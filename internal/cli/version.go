package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pipstale/pipstale/pkg/buildinfo"
)

// versionCommand creates the version command. It prints the same
// build information as the --version flag.
func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
}
