package controller

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "github.com/0x1david/sqint/internal/model"
)

// SimpleReporter prints plain text through the cobra command's writer. It is
// the output used for pipes, files and CI logs.
type SimpleReporter struct {
	cmd *cobra.Command
}

// NewSimpleReporter creates a plain-text reporter.
func NewSimpleReporter(cmd *cobra.Command) *SimpleReporter {
	return &SimpleReporter{cmd: cmd}
}

// Report writes one line per issue followed by a summary.
func (s *SimpleReporter) Report(result *m.RunResult, opts ReportOptions) error {
	issues := visibleIssues(result, opts)

	for _, issue := range issues {
		s.printf("%s\n", issue.String())
	}

	if opts.Stats {
		s.printStats(result)
	}

	s.printf("%s\n", summaryLine(result, len(issues)))

	return nil
}

// printStats renders a per-file breakdown table.
func (s *SimpleReporter) printStats(result *m.RunResult) {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"File", "Issues", "Status"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_LEFT})

	total := 0

	for _, fr := range result.Files {
		status := "ok"

		switch {
		case fr.Failed:
			status = "failed"
		case len(fr.Issues) > 0:
			status = "issues"
		}

		table.Append([]string{string(fr.File), fmt.Sprintf("%d", len(fr.Issues)), status})

		total += len(fr.Issues)
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Files %d", len(result.Files)),
		fmt.Sprintf("%d", total),
		"",
	})

	table.Render()
	s.printf("\n%s\n", buf.String())
}

func summaryLine(result *m.RunResult, shown int) string {
	failed := len(result.FailedFiles())

	line := fmt.Sprintf("%d issue(s) across %d file(s) in %dms", shown, len(result.Files), result.ElapsedMS)
	if failed > 0 {
		line += fmt.Sprintf(", %d file(s) could not be analyzed", failed)
	}

	return line
}

func (s *SimpleReporter) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
