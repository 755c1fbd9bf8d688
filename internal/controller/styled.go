package controller

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	m "github.com/0x1david/sqint/internal/model"
)

// StyledReporter renders issues with color for interactive terminals.
type StyledReporter struct {
	out io.Writer

	pathStyle    lipgloss.Style
	errorStyle   lipgloss.Style
	warnStyle    lipgloss.Style
	summaryStyle lipgloss.Style
}

// NewStyledReporter creates a color reporter writing to out.
func NewStyledReporter(out io.Writer) *StyledReporter {
	return &StyledReporter{
		out:          out,
		pathStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		errorStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		warnStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		summaryStyle: lipgloss.NewStyle().Faint(true),
	}
}

// Report writes one colored line per issue followed by a summary.
func (s *StyledReporter) Report(result *m.RunResult, opts ReportOptions) error {
	issues := visibleIssues(result, opts)

	for _, issue := range issues {
		severity := s.warnStyle.Render(string(issue.Severity))
		if issue.Severity == m.SeverityError {
			severity = s.errorStyle.Render(string(issue.Severity))
		}

		location := s.pathStyle.Render(
			fmt.Sprintf("%s:%d:%d", issue.File, issue.Span.StartLine, issue.Span.StartCol))

		fmt.Fprintf(s.out, "%s: %s: %s\n", location, severity, issue.Message)
	}

	if opts.Stats {
		s.printStats(result)
	}

	fmt.Fprintf(s.out, "%s\n", s.summaryStyle.Render(summaryLine(result, len(issues))))

	return nil
}

func (s *StyledReporter) printStats(result *m.RunResult) {
	for _, fr := range result.Files {
		switch {
		case fr.Failed:
			fmt.Fprintf(s.out, "%s %s\n", s.errorStyle.Render("✗"), fr.File)
		case len(fr.Issues) > 0:
			fmt.Fprintf(s.out, "%s %s (%d)\n", s.warnStyle.Render("!"), fr.File, len(fr.Issues))
		default:
			fmt.Fprintf(s.out, "  %s\n", fr.File)
		}
	}
}
