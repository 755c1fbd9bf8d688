package controller

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// NewReporter picks a reporter for the command's output: colored when the
// output is an interactive terminal, plain text for pipes and files. noColor
// forces plain output either way.
func NewReporter(cmd *cobra.Command, noColor bool) Reporter {
	if !noColor && IsTTY(cmd.OutOrStdout()) {
		return NewStyledReporter(cmd.OutOrStdout())
	}

	return NewSimpleReporter(cmd)
}

// IsTTY reports whether the writer is an interactive terminal.
func IsTTY(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
