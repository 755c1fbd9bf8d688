package cmd

import (
	"github.com/spf13/cobra"

	m "github.com/0x1david/sqint/internal/model"
)

// dialectsCmd lists the supported SQL dialects.
var dialectsCmd = newDialectsCmd()

func newDialectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List the supported SQL dialects",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, d := range m.Dialects() {
				cmd.Println(string(d))
			}
		},
	}
}

func init() {
	rootCmd.AddCommand(dialectsCmd)
}
