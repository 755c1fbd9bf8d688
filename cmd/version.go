package cmd

import (
	"github.com/spf13/cobra"
)

// version is overridden at build time via -ldflags.
var version = "dev"

var versionCmd = newVersionCmd()

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the sqint version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("sqint %s\n", version)
		},
	}
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
