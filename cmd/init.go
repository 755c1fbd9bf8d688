package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/0x1david/sqint/internal/config"
)

var initForceFlag bool

// initCmd writes a commented starter configuration.
var initCmd = newInitCmd()

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default sqint.toml to the current directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(config.FileName); err == nil && !initForceFlag {
				return fmt.Errorf("%s already exists (use --force to overwrite)", config.FileName)
			}

			if err := os.WriteFile(config.FileName, config.DefaultTOML, 0o644); err != nil {
				return err
			}

			cmd.Printf("wrote %s\n", config.FileName)

			return nil
		},
	}

	cmd.Flags().BoolVarP(&initForceFlag, "force", "f", false, "overwrite an existing configuration file")

	return cmd
}

func init() {
	rootCmd.AddCommand(initCmd)
}
