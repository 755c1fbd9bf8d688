// Package sqlang implements a dialect-parameterized SQL tokenizer and
// statement-level parser used to validate embedded query text. It parses for
// syntactic validity only; it builds no AST and resolves no names.
package sqlang

import (
	"errors"
	"fmt"

	m "github.com/0x1david/sqint/internal/model"
)

// ErrUnsupportedDialect is returned when no grammar exists for a configured
// dialect. It indicates misconfiguration and is fatal for the whole run.
var ErrUnsupportedDialect = errors.New("unsupported SQL dialect")

// rules captures the lexical and clause-level differences between dialects.
// The parser core is shared; a dialect is just a rules value.
type rules struct {
	name m.Dialect

	backtickIdents    bool // `ident`
	bracketIdents     bool // [ident]
	doubleQuoteString bool // "..." lexes as a string, not an identifier
	hashComments      bool // # line comments
	dollarStrings     bool // $$...$$ and $tag$...$tag$
	backslashEscapes  bool // \' inside string literals
	topClause         bool // SELECT TOP n
	limitClause       bool // LIMIT n [OFFSET n]
}

// dialectTable is the closed dialect registry: adding a dialect means adding
// one model constant and one entry here.
var dialectTable = map[m.Dialect]rules{
	m.DialectGeneric: {
		backtickIdents: true, bracketIdents: true, hashComments: true,
		dollarStrings: true, backslashEscapes: true, topClause: true,
		limitClause: true,
	},
	m.DialectAnsi: {},
	m.DialectPostgreSQL: {
		dollarStrings: true, limitClause: true,
	},
	m.DialectMySQL: {
		backtickIdents: true, doubleQuoteString: true, hashComments: true,
		backslashEscapes: true, limitClause: true,
	},
	m.DialectSQLite: {
		backtickIdents: true, bracketIdents: true, limitClause: true,
	},
	m.DialectMsSQL: {
		bracketIdents: true, topClause: true,
	},
	m.DialectOracle: {},
	m.DialectBigQuery: {
		backtickIdents: true, doubleQuoteString: true, hashComments: true,
		backslashEscapes: true, limitClause: true,
	},
	m.DialectClickHouse: {
		backtickIdents: true, backslashEscapes: true, limitClause: true,
	},
	m.DialectDuckDB: {
		dollarStrings: true, limitClause: true,
	},
	m.DialectHive: {
		backtickIdents: true, doubleQuoteString: true, backslashEscapes: true,
		limitClause: true,
	},
	m.DialectRedshift: {
		dollarStrings: true, limitClause: true,
	},
	m.DialectSnowflake: {
		dollarStrings: true, limitClause: true,
	},
}

// Grammar is a dialect-bound validator. A Grammar is immutable and safe for
// concurrent use.
type Grammar struct {
	rules rules
}

// For returns the grammar for the given dialect, or ErrUnsupportedDialect.
func For(d m.Dialect) (*Grammar, error) {
	r, ok := dialectTable[d]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDialect, d)
	}

	r.name = d

	return &Grammar{rules: r}, nil
}

// SyntaxError is one syntax defect located by byte offset in the checked
// text. Start and End delimit the offending region.
type SyntaxError struct {
	Msg   string
	Start int
	End   int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s (offset %d)", e.Msg, e.Start)
}

// Check validates text as a sequence of SQL statements. It returns one
// SyntaxError per failing statement: the tokenizer splits statements at
// top-level semicolons, so a malformed statement never suppresses
// validation of its siblings. A nil result means the text is valid.
func (g *Grammar) Check(text string) []*SyntaxError {
	toks, lexErr := tokenize(text, g.rules)
	if lexErr != nil {
		return []*SyntaxError{lexErr}
	}

	p := &parser{toks: toks, rules: g.rules, src: text}

	return p.parseAll()
}
