package adapter

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	m "github.com/0x1david/sqint/internal/model"
)

// HostParseError means a Python file is not syntactically valid and cannot be
// analyzed. It is fatal for that file only and carries the position of the
// first defect the grammar could isolate.
type HostParseError struct {
	File m.Path
	Span m.Span
	Msg  string
}

func (e *HostParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Span.StartLine, e.Span.StartCol, e.Msg)
}

// PythonFileAdapter turns Python source into candidate literal sites.
type PythonFileAdapter interface {
	// ExtractSites parses src and yields every string literal long enough to
	// be a candidate, with its surrounding identifiers recorded. A file that
	// does not parse returns a *HostParseError.
	ExtractSites(ctx context.Context, path m.Path, src []byte) ([]m.CandidateSite, error)
}

// TreeSitterPythonAdapter extracts sites with a tree-sitter Python grammar.
// Each call builds its own parser, so one adapter instance is safe for
// concurrent use across workers.
type TreeSitterPythonAdapter struct {
	minLength int
}

// NewTreeSitterPythonAdapter creates an adapter that drops literals shorter
// than minLength bytes before they ever reach the matcher.
func NewTreeSitterPythonAdapter(minLength int) *TreeSitterPythonAdapter {
	return &TreeSitterPythonAdapter{minLength: minLength}
}

// ExtractSites implements PythonFileAdapter.
func (a *TreeSitterPythonAdapter) ExtractSites(ctx context.Context, path m.Path, src []byte) ([]m.CandidateSite, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		bad := firstErrorNode(root)

		return nil, &HostParseError{
			File: path,
			Span: nodeSpan(bad),
			Msg:  "invalid Python syntax",
		}
	}

	w := &siteWalker{path: path, src: src, minLength: a.minLength}
	w.walk(root, m.SiteContext{})

	return w.sites, nil
}

// firstErrorNode locates the shallowest ERROR or missing node; the root is
// returned when the grammar cannot isolate one.
func firstErrorNode(root *sitter.Node) *sitter.Node {
	var found *sitter.Node

	var visit func(n *sitter.Node) bool
	visit = func(n *sitter.Node) bool {
		if n.IsError() || n.IsMissing() {
			found = n

			return true
		}

		if !n.HasError() {
			return false
		}

		for i := 0; i < int(n.ChildCount()); i++ {
			if visit(n.Child(i)) {
				return true
			}
		}

		return false
	}

	if visit(root) {
		return found
	}

	return root
}

func nodeSpan(n *sitter.Node) m.Span {
	return m.Span{
		StartLine: int(n.StartPoint().Row) + 1,
		StartCol:  int(n.StartPoint().Column) + 1,
		EndLine:   int(n.EndPoint().Row) + 1,
		EndCol:    int(n.EndPoint().Column) + 1,
		StartByte: int(n.StartByte()),
		EndByte:   int(n.EndByte()),
	}
}

// siteWalker accumulates candidate sites during one depth-first pass.
type siteWalker struct {
	path      m.Path
	src       []byte
	minLength int
	sites     []m.CandidateSite
}

// walk visits n with the context identifiers accumulated so far. The context
// is passed by value, so it narrows naturally on the way back up.
func (w *siteWalker) walk(n *sitter.Node, ctx m.SiteContext) {
	switch n.Type() {
	case "class_definition":
		name := w.fieldText(n, "name")
		inner := ctx
		inner.Receiver = name

		if body := n.ChildByFieldName("body"); body != nil {
			w.walk(body, inner)
		}

		return

	case "function_definition":
		inner := ctx
		inner.Method = w.fieldText(n, "name")

		if body := n.ChildByFieldName("body"); body != nil {
			w.walk(body, inner)
		}

		return

	case "assignment", "augmented_assignment":
		left := n.ChildByFieldName("left")
		right := n.ChildByFieldName("right")

		if right == nil {
			return
		}

		inner := ctx
		if left != nil && left.Type() == "identifier" {
			inner.Assignment = w.text(left)
		}

		w.walk(right, inner)

		return

	case "call":
		inner := ctx
		inner.Call = w.calleeName(n.ChildByFieldName("function"))

		if args := n.ChildByFieldName("arguments"); args != nil {
			w.walkArguments(args, inner)
		}

		return

	case "string", "concatenated_string", "binary_operator", "parenthesized_expression":
		if text, span, ok := w.literal(n); ok {
			w.emit(text, span, ctx)

			return
		}
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		w.walk(n.NamedChild(i), ctx)
	}
}

// walkArguments visits a call's argument_list, binding keyword names to the
// subtrees they cover.
func (w *siteWalker) walkArguments(args *sitter.Node, ctx m.SiteContext) {
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)

		if arg.Type() == "keyword_argument" {
			inner := ctx
			inner.Keyword = w.fieldText(arg, "name")

			if value := arg.ChildByFieldName("value"); value != nil {
				w.walk(value, inner)
			}

			continue
		}

		w.walk(arg, ctx)
	}
}

func (w *siteWalker) emit(text string, span m.Span, ctx m.SiteContext) {
	if len(text) < w.minLength {
		return
	}

	w.sites = append(w.sites, m.CandidateSite{
		File:    w.path,
		Text:    text,
		Span:    span,
		Context: ctx,
	})
}

// literal resolves n to a constant string when every part of it is a plain
// string literal. Adjacent literals and "+"-joined literals become one
// logical literal whose span covers the full extent. Interpolated f-strings
// are not constants and never become candidates.
func (w *siteWalker) literal(n *sitter.Node) (string, m.Span, bool) {
	switch n.Type() {
	case "string":
		return w.stringContent(n)

	case "concatenated_string":
		return w.joined(n, 0, int(n.NamedChildCount())-1)

	case "binary_operator":
		if op := n.ChildByFieldName("operator"); op == nil || w.text(op) != "+" {
			return "", m.Span{}, false
		}

		left := n.ChildByFieldName("left")
		right := n.ChildByFieldName("right")

		lText, lSpan, ok := w.literal(left)
		if !ok {
			return "", m.Span{}, false
		}

		rText, rSpan, ok := w.literal(right)
		if !ok {
			return "", m.Span{}, false
		}

		return lText + rText, joinSpans(lSpan, rSpan), true

	case "parenthesized_expression":
		if n.NamedChildCount() != 1 {
			return "", m.Span{}, false
		}

		return w.literal(n.NamedChild(0))
	}

	return "", m.Span{}, false
}

// joined concatenates the named children of a concatenated_string node.
func (w *siteWalker) joined(n *sitter.Node, first, last int) (string, m.Span, bool) {
	if last < first {
		return "", m.Span{}, false
	}

	var (
		text string
		span m.Span
	)

	for i := first; i <= last; i++ {
		part, partSpan, ok := w.literal(n.NamedChild(i))
		if !ok {
			return "", m.Span{}, false
		}

		if i == first {
			span = partSpan
		} else {
			span = joinSpans(span, partSpan)
		}

		text += part
	}

	return text, span, true
}

// stringContent returns the cooked text between a string's opening and
// closing delimiters, decoding escape sequences the way the interpreter
// would unless the literal carries the r prefix. The span is anchored just
// past the opening quote so error offsets line up with file columns.
func (w *siteWalker) stringContent(n *sitter.Node) (string, m.Span, bool) {
	var opening, closing *sitter.Node

	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)

		switch child.Type() {
		case "string_start":
			opening = child
		case "string_end":
			closing = child
		case "interpolation":
			return "", m.Span{}, false
		}
	}

	if opening == nil || closing == nil {
		return "", m.Span{}, false
	}

	start := int(opening.EndByte())
	end := int(closing.StartByte())

	span := m.Span{
		StartLine: int(opening.EndPoint().Row) + 1,
		StartCol:  int(opening.EndPoint().Column) + 1,
		EndLine:   int(closing.StartPoint().Row) + 1,
		EndCol:    int(closing.StartPoint().Column) + 1,
		StartByte: start,
		EndByte:   end,
	}

	text := string(w.src[start:end])
	if !isRawPrefix(w.text(opening)) {
		text = unescape(text)
	}

	return text, span, true
}

// isRawPrefix reports whether a string_start delimiter carries the r prefix,
// which disables escape processing.
func isRawPrefix(delim string) bool {
	return strings.ContainsAny(delim, "rR")
}

// unescape decodes the escape sequences Python recognizes inside a non-raw
// string literal. An escape Python does not recognize keeps its backslash,
// matching the cooked value the interpreter produces.
func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	var sb strings.Builder

	sb.Grow(len(s))

	for i := 0; i < len(s); {
		if s[i] != '\\' || i+1 == len(s) {
			sb.WriteByte(s[i])
			i++

			continue
		}

		switch c := s[i+1]; c {
		case '\n':
			// escaped newline is a line continuation
			i += 2
		case '\\', '\'', '"':
			sb.WriteByte(c)
			i += 2
		case 'n':
			sb.WriteByte('\n')
			i += 2
		case 't':
			sb.WriteByte('\t')
			i += 2
		case 'r':
			sb.WriteByte('\r')
			i += 2
		case 'a':
			sb.WriteByte('\a')
			i += 2
		case 'b':
			sb.WriteByte('\b')
			i += 2
		case 'f':
			sb.WriteByte('\f')
			i += 2
		case 'v':
			sb.WriteByte('\v')
			i += 2
		case 'x':
			v, n := hexValue(s[i+2:], 2)
			if n != 2 {
				sb.WriteByte('\\')
				i++

				continue
			}

			sb.WriteByte(byte(v))
			i += 4
		case 'u':
			v, n := hexValue(s[i+2:], 4)
			if n != 4 {
				sb.WriteByte('\\')
				i++

				continue
			}

			sb.WriteRune(rune(v))
			i += 6
		case 'U':
			v, n := hexValue(s[i+2:], 8)
			if n != 8 || v > utf8.MaxRune {
				sb.WriteByte('\\')
				i++

				continue
			}

			sb.WriteRune(rune(v))
			i += 10
		case '0', '1', '2', '3', '4', '5', '6', '7':
			v, n := 0, 0
			for n < 3 && i+1+n < len(s) && s[i+1+n] >= '0' && s[i+1+n] <= '7' {
				v = v*8 + int(s[i+1+n]-'0')
				n++
			}

			sb.WriteByte(byte(v))
			i += 1 + n
		default:
			sb.WriteByte('\\')
			i++
		}
	}

	return sb.String()
}

// hexValue reads up to want hex digits from the front of s, returning the
// accumulated value and how many digits were consumed.
func hexValue(s string, want int) (int, int) {
	v, n := 0, 0

	for n < want && n < len(s) {
		switch d := s[n]; {
		case d >= '0' && d <= '9':
			v = v*16 + int(d-'0')
		case d >= 'a' && d <= 'f':
			v = v*16 + int(d-'a'+10)
		case d >= 'A' && d <= 'F':
			v = v*16 + int(d-'A'+10)
		default:
			return v, n
		}

		n++
	}

	return v, n
}

func joinSpans(a, b m.Span) m.Span {
	return m.Span{
		StartLine: a.StartLine,
		StartCol:  a.StartCol,
		EndLine:   b.EndLine,
		EndCol:    b.EndCol,
		StartByte: a.StartByte,
		EndByte:   b.EndByte,
	}
}

// calleeName extracts the identifier a call dispatches through. For dotted
// calls like cursor.execute the final attribute is the name users configure
// patterns against.
func (w *siteWalker) calleeName(fn *sitter.Node) string {
	if fn == nil {
		return ""
	}

	switch fn.Type() {
	case "identifier":
		return w.text(fn)
	case "attribute":
		return w.fieldText(fn, "attribute")
	}

	return ""
}

func (w *siteWalker) fieldText(n *sitter.Node, field string) string {
	child := n.ChildByFieldName(field)
	if child == nil {
		return ""
	}

	return w.text(child)
}

func (w *siteWalker) text(n *sitter.Node) string {
	return string(w.src[n.StartByte():n.EndByte()])
}
