package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// version needs no configuration
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "landing-detect %s\n", a.info.Version)
			fmt.Fprintf(out, "  Build time: %s\n", a.info.Date)
			fmt.Fprintf(out, "  Git commit: %s\n", a.info.Commit)
		},
	}
}
