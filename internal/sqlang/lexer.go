package sqlang

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokQuotedIdent
	tokNumber
	tokString
	tokOperator
	tokPunct // ( ) , ; .
)

type token struct {
	kind  tokenKind
	text  string
	start int
	end   int
}

// upper returns the token text upper-cased for keyword comparison.
func (t token) upper() string {
	return strings.ToUpper(t.text)
}

// multi-character operators, longest first so scanning is greedy.
var operators = []string{
	"<=>", "::", "||", "<>", "!=", "<=", ">=", "->>", "->", "#>>", "#>",
	"<<", ">>", "+", "-", "*", "/", "%", "=", "<", ">", "|", "&", "^", "~",
	"?", ":", "@", "!",
}

// tokenize scans src into tokens under the given dialect rules. It returns a
// SyntaxError for lexical defects (unterminated strings, identifiers or
// block comments, characters no dialect rule admits).
func tokenize(src string, r rules) ([]token, *SyntaxError) {
	var toks []token

	i := 0
	n := len(src)

	for i < n {
		c := src[i]

		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++

		case c == '-' && i+1 < n && src[i+1] == '-':
			i = skipLine(src, i)

		case c == '#' && r.hashComments:
			i = skipLine(src, i)

		case c == '/' && i+1 < n && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return nil, &SyntaxError{Msg: "unterminated block comment", Start: i, End: n}
			}

			i += 2 + end + 2

		case c == '\'':
			tok, next, err := scanString(src, i, '\'', r.backslashEscapes)
			if err != nil {
				return nil, err
			}

			toks = append(toks, tok)
			i = next

		case c == '"':
			kind := tokQuotedIdent
			if r.doubleQuoteString {
				kind = tokString
			}

			tok, next, err := scanString(src, i, '"', r.backslashEscapes)
			if err != nil {
				return nil, err
			}

			tok.kind = kind
			toks = append(toks, tok)
			i = next

		case c == '`' && r.backtickIdents:
			tok, next, err := scanString(src, i, '`', false)
			if err != nil {
				return nil, err
			}

			tok.kind = tokQuotedIdent
			toks = append(toks, tok)
			i = next

		case c == '[' && r.bracketIdents:
			end := strings.IndexByte(src[i+1:], ']')
			if end < 0 {
				return nil, &SyntaxError{Msg: "unterminated bracketed identifier", Start: i, End: n}
			}

			toks = append(toks, token{kind: tokQuotedIdent, text: src[i+1 : i+1+end], start: i, end: i + end + 2})
			i += end + 2

		case c == '$' && r.dollarStrings && isDollarQuote(src, i):
			tok, next, err := scanDollarString(src, i)
			if err != nil {
				return nil, err
			}

			toks = append(toks, tok)
			i = next

		case c >= '0' && c <= '9' || (c == '.' && i+1 < n && src[i+1] >= '0' && src[i+1] <= '9'):
			tok, next := scanNumber(src, i)
			toks = append(toks, tok)
			i = next

		case isIdentStart(rune(c)) || c >= utf8.RuneSelf:
			start := i
			for i < n {
				rn, sz := utf8.DecodeRuneInString(src[i:])
				if !isIdentPart(rn) {
					break
				}

				i += sz
			}

			toks = append(toks, token{kind: tokIdent, text: src[start:i], start: start, end: i})

		case c == '(' || c == ')' || c == ',' || c == ';' || c == '.':
			toks = append(toks, token{kind: tokPunct, text: string(c), start: i, end: i + 1})
			i++

		default:
			op := matchOperator(src[i:])
			if op == "" {
				return nil, &SyntaxError{Msg: "unexpected character " + quoteRune(src[i:]), Start: i, End: i + 1}
			}

			toks = append(toks, token{kind: tokOperator, text: op, start: i, end: i + len(op)})
			i += len(op)
		}
	}

	toks = append(toks, token{kind: tokEOF, start: n, end: n})

	return toks, nil
}

func skipLine(src string, i int) int {
	if nl := strings.IndexByte(src[i:], '\n'); nl >= 0 {
		return i + nl + 1
	}

	return len(src)
}

// scanString scans a quoted run starting at i, where src[i] == quote.
// A doubled quote always escapes itself; backslash escapes are dialect-gated.
func scanString(src string, i int, quote byte, backslash bool) (token, int, *SyntaxError) {
	start := i
	i++

	var sb strings.Builder

	for i < len(src) {
		c := src[i]

		switch {
		case c == '\\' && backslash && i+1 < len(src):
			sb.WriteByte(src[i+1])
			i += 2

		case c == quote && i+1 < len(src) && src[i+1] == quote:
			sb.WriteByte(quote)
			i += 2

		case c == quote:
			return token{kind: tokString, text: sb.String(), start: start, end: i + 1}, i + 1, nil

		default:
			sb.WriteByte(c)
			i++
		}
	}

	return token{}, 0, &SyntaxError{Msg: "unterminated quoted literal", Start: start, End: len(src)}
}

// isDollarQuote reports whether src[i:] opens a $tag$ delimiter.
func isDollarQuote(src string, i int) bool {
	j := i + 1
	for j < len(src) && (isIdentPart(rune(src[j])) && src[j] != '$') {
		j++
	}

	return j < len(src) && src[j] == '$'
}

func scanDollarString(src string, i int) (token, int, *SyntaxError) {
	start := i

	j := i + 1
	for j < len(src) && src[j] != '$' {
		j++
	}

	delim := src[i : j+1] // includes both dollars

	bodyStart := j + 1

	end := strings.Index(src[bodyStart:], delim)
	if end < 0 {
		return token{}, 0, &SyntaxError{Msg: "unterminated dollar-quoted literal", Start: start, End: len(src)}
	}

	next := bodyStart + end + len(delim)

	return token{kind: tokString, text: src[bodyStart : bodyStart+end], start: start, end: next}, next, nil
}

func scanNumber(src string, i int) (token, int) {
	start := i
	n := len(src)

	for i < n && src[i] >= '0' && src[i] <= '9' {
		i++
	}

	if i < n && src[i] == '.' {
		i++
		for i < n && src[i] >= '0' && src[i] <= '9' {
			i++
		}
	}

	if i < n && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < n && (src[j] == '+' || src[j] == '-') {
			j++
		}

		if j < n && src[j] >= '0' && src[j] <= '9' {
			i = j
			for i < n && src[i] >= '0' && src[i] <= '9' {
				i++
			}
		}
	}

	return token{kind: tokNumber, text: src[start:i], start: start, end: i}, i
}

func matchOperator(s string) string {
	for _, op := range operators {
		if strings.HasPrefix(s, op) {
			return op
		}
	}

	return ""
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// quoteRune renders the first rune of s for an error message.
func quoteRune(s string) string {
	r, _ := utf8.DecodeRuneInString(s)

	return "'" + string(r) + "'"
}
