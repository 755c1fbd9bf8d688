// Package model defines the data structures flowing through the analysis pipeline.
package model

// Path represents a file system path.
type Path string

// Span is a region of source text. Lines and columns are 1-based; byte
// offsets are 0-based and refer to the original file contents.
type Span struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
	StartByte int
	EndByte   int
}

// Before reports whether s starts strictly before other in source order.
func (s Span) Before(other Span) bool {
	if s.StartByte != other.StartByte {
		return s.StartByte < other.StartByte
	}

	return s.EndByte < other.EndByte
}

// ContextKind is the syntactic relationship between a string literal and the
// identifier that classified it as query-bearing.
type ContextKind string

const (
	// ContextVariable marks a literal assigned to a named variable.
	ContextVariable ContextKind = "variable-assignment"
	// ContextPositionalArg marks a literal passed positionally to a call.
	ContextPositionalArg ContextKind = "positional-call-argument"
	// ContextKeywordArg marks a literal bound to a keyword argument.
	ContextKeywordArg ContextKind = "keyword-call-argument"
	// ContextMethodArg marks a literal appearing inside a matched method.
	ContextMethodArg ContextKind = "class-method-argument"
)

// SiteContext captures every identifier surrounding a literal that the
// matcher may test against configured patterns. Empty fields mean the
// corresponding context does not exist at the site.
type SiteContext struct {
	Assignment string // nearest simple assignment target
	Call       string // nearest enclosing call's callee name
	Keyword    string // keyword the literal is bound to, if any
	Method     string // nearest enclosing function/method name
	Receiver   string // receiver class name when statically evident
}

// CandidateSite is a string literal plus its surrounding context, before any
// query-likelihood decision is made. Sites are immutable once emitted by the
// walker.
type CandidateSite struct {
	File    Path
	Text    string
	Span    Span
	Context SiteContext
}

// MatchDecision is the matcher's verdict for one candidate site. Kind and
// Pattern are only meaningful when Matched is true and record the first
// ground that matched in the fixed evaluation order.
type MatchDecision struct {
	Site    CandidateSite
	Matched bool
	Kind    ContextKind
	Pattern string
}
