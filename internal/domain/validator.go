package domain

import (
	"strings"

	m "github.com/0x1david/sqint/internal/model"
	"github.com/0x1david/sqint/internal/sqlang"
)

// Validator checks normalized query text against one dialect grammar and
// turns grammar offsets back into original-source spans.
type Validator struct {
	grammar *sqlang.Grammar
}

// NewValidator builds the grammar for the configured dialect. An unknown
// dialect is misconfiguration and must abort the run before any file is
// dispatched; callers treat this error as fatal.
func NewValidator(dialect m.Dialect) (*Validator, error) {
	g, err := sqlang.For(dialect)
	if err != nil {
		return nil, err
	}

	return &Validator{grammar: g}, nil
}

// Validate parses the normalized text and emits one error Issue per failing
// statement. Offsets reported against the normalized text are first mapped
// back to the original literal, then into file coordinates via the site span.
func (v *Validator) Validate(q m.NormalizedQuery) []m.Issue {
	errs := v.grammar.Check(q.Text)
	if len(errs) == 0 {
		return nil
	}

	issues := make([]m.Issue, 0, len(errs))

	for _, e := range errs {
		origStart := q.Map.ToOriginal(e.Start)
		origEnd := q.Map.ToOriginal(e.End)

		issues = append(issues, m.Issue{
			File:     q.Site.File,
			Span:     literalSpan(q.Site, origStart, origEnd),
			Severity: m.SeverityError,
			Category: m.CategorySyntax,
			Message:  e.Msg,
		})
	}

	return issues
}

// literalSpan converts byte offsets within the literal text into a file
// span, anchored at the literal's own start position. Multi-line literals
// advance the line by the newlines preceding the offset.
func literalSpan(site m.CandidateSite, start, end int) m.Span {
	startLine, startCol := advance(site, start)
	endLine, endCol := advance(site, end)

	return m.Span{
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   endLine,
		EndCol:    endCol,
		StartByte: site.Span.StartByte + start,
		EndByte:   site.Span.StartByte + end,
	}
}

func advance(site m.CandidateSite, offset int) (line, col int) {
	if offset > len(site.Text) {
		offset = len(site.Text)
	}

	prefix := site.Text[:offset]
	newlines := strings.Count(prefix, "\n")

	if newlines == 0 {
		return site.Span.StartLine, site.Span.StartCol + offset
	}

	lastNL := strings.LastIndexByte(prefix, '\n')

	return site.Span.StartLine + newlines, offset - lastNL
}
