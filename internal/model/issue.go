package model

import "fmt"

// Severity grades an issue.
type Severity string

const (
	// SeverityError marks defects that should fail a lint run.
	SeverityError Severity = "error"
	// SeverityWarning marks findings that should not fail a run.
	SeverityWarning Severity = "warning"
)

// Category names the rule family an issue belongs to.
type Category string

const (
	// CategorySyntax covers SQL syntax defects found by the validator.
	CategorySyntax Category = "sql-syntax"
	// CategoryHostParse covers Python files that could not be parsed at all.
	CategoryHostParse Category = "host-parse"
	// CategoryRead covers files that could not be read from disk.
	CategoryRead Category = "read"
)

// Issue is a single finding attributed to a span in the original source.
type Issue struct {
	File     Path
	Span     Span
	Severity Severity
	Category Category
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", i.File, i.Span.StartLine, i.Span.StartCol, i.Severity, i.Message)
}

// FileResult holds the analysis outcome for a single file. Failed is true
// when the file could not be analyzed at all (host parse or read failure);
// the failure is also present in Issues so the reporter can surface it, but
// a failed file is distinct from a clean zero-issue file.
type FileResult struct {
	File   Path
	Issues []Issue
	Failed bool
}

// RunResult is the merged outcome of one analysis run, ordered by the file
// selector's path order and by span start within each file.
type RunResult struct {
	Files     []FileResult
	ElapsedMS int64
}

// Issues flattens the run into a single ordered issue sequence.
func (r *RunResult) Issues() []Issue {
	var out []Issue
	for _, fr := range r.Files {
		out = append(out, fr.Issues...)
	}

	return out
}

// FailedFiles returns the paths of files that could not be analyzed.
func (r *RunResult) FailedFiles() []Path {
	var out []Path

	for _, fr := range r.Files {
		if fr.Failed {
			out = append(out, fr.File)
		}
	}

	return out
}
