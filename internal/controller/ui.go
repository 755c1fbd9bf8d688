// Package controller renders analysis results for the CLI and owns the
// process exit-code policy.
package controller

import (
	m "github.com/0x1david/sqint/internal/model"
)

// Exit codes: clean, issues found, run-level failure.
const (
	ExitClean  = 0
	ExitIssues = 1
	ExitFatal  = 2
)

// ReportOptions are presentation-level policies. They filter and truncate
// what is shown, never what was analyzed.
type ReportOptions struct {
	ErrorsOnly bool // drop warning-severity issues from the output
	MaxIssues  int  // 0 means unlimited
	Stats      bool // append a per-file summary table
}

// Reporter renders one run's results.
type Reporter interface {
	Report(result *m.RunResult, opts ReportOptions) error
}

// ExitCode maps a run result to the process exit code: any error-severity
// issue fails the run.
func ExitCode(result *m.RunResult) int {
	for _, issue := range result.Issues() {
		if issue.Severity == m.SeverityError {
			return ExitIssues
		}
	}

	return ExitClean
}

// visibleIssues applies the presentation policies to the merged sequence.
func visibleIssues(result *m.RunResult, opts ReportOptions) []m.Issue {
	issues := result.Issues()

	if opts.ErrorsOnly {
		kept := issues[:0]

		for _, issue := range issues {
			if issue.Severity == m.SeverityError {
				kept = append(kept, issue)
			}
		}

		issues = kept
	}

	if opts.MaxIssues > 0 && len(issues) > opts.MaxIssues {
		issues = issues[:opts.MaxIssues]
	}

	return issues
}
