package domain

import (
	"fmt"

	"github.com/gobwas/glob"

	m "github.com/0x1david/sqint/internal/model"
)

// compiledPattern pairs a compiled glob with its source text so a decision
// can report which pattern fired.
type compiledPattern struct {
	text string
	g    glob.Glob
}

// Matcher decides whether a candidate literal site is query-bearing by
// matching its surrounding identifiers against configured glob patterns.
// Matching is case-sensitive and always covers the whole identifier.
type Matcher struct {
	variables []compiledPattern
	functions []compiledPattern
}

// NewMatcher compiles the variable-context and function-context patterns.
// A malformed pattern is a configuration defect and fails construction.
func NewMatcher(variableContexts, functionContexts []string) (*Matcher, error) {
	vars, err := compilePatterns(variableContexts)
	if err != nil {
		return nil, fmt.Errorf("variable context: %w", err)
	}

	funcs, err := compilePatterns(functionContexts)
	if err != nil {
		return nil, fmt.Errorf("function context: %w", err)
	}

	return &Matcher{variables: vars, functions: funcs}, nil
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	compiled := make([]compiledPattern, 0, len(patterns))

	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}

		compiled = append(compiled, compiledPattern{text: p, g: g})
	}

	return compiled, nil
}

// Match evaluates the site's context names in a fixed order: assignment
// target, call name, keyword name, method name. Only the first ground that
// fires is recorded; a site matching on several grounds still proceeds to
// validation exactly once. An unmatched site is simply not query-bearing.
func (mt *Matcher) Match(site m.CandidateSite) m.MatchDecision {
	decision := m.MatchDecision{Site: site}

	grounds := []struct {
		kind     m.ContextKind
		names    []string
		patterns []compiledPattern
	}{
		{m.ContextVariable, []string{site.Context.Assignment}, mt.variables},
		{m.ContextPositionalArg, []string{site.Context.Call}, mt.functions},
		{m.ContextKeywordArg, []string{site.Context.Keyword}, mt.functions},
		{m.ContextMethodArg, methodNames(site.Context), mt.functions},
	}

	for _, ground := range grounds {
		for _, name := range ground.names {
			if name == "" {
				continue
			}

			for _, p := range ground.patterns {
				if p.g.Match(name) {
					decision.Matched = true
					decision.Kind = ground.kind
					decision.Pattern = p.text

					return decision
				}
			}
		}
	}

	return decision
}

// methodNames lists the identifiers the class-method ground is tested
// against: the bare method name, and the Receiver.Method form when the
// enclosing class is statically known, so a pattern can scope a method name
// to one class.
func methodNames(ctx m.SiteContext) []string {
	if ctx.Method == "" {
		return nil
	}

	if ctx.Receiver == "" {
		return []string{ctx.Method}
	}

	return []string{ctx.Method, ctx.Receiver + "." + ctx.Method}
}
