package sqlang

import "fmt"

// reserved words that can never begin or continue an expression. Keeping the
// set small makes common column names (name, value, date, ...) parse as
// identifiers.
var reserved = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "GROUP": true, "BY": true,
	"HAVING": true, "ORDER": true, "LIMIT": true, "OFFSET": true,
	"FETCH": true, "UNION": true, "EXCEPT": true, "INTERSECT": true,
	"JOIN": true, "INNER": true, "LEFT": true, "RIGHT": true, "FULL": true,
	"CROSS": true, "OUTER": true, "ON": true, "USING": true, "AS": true,
	"AND": true, "OR": true, "NOT": true, "IN": true, "IS": true,
	"BETWEEN": true, "LIKE": true, "ILIKE": true, "CASE": true,
	"WHEN": true, "THEN": true, "ELSE": true, "END": true, "CAST": true,
	"EXISTS": true, "DISTINCT": true, "ALL": true, "INSERT": true,
	"INTO": true, "VALUES": true, "UPDATE": true, "SET": true,
	"DELETE": true, "CREATE": true, "TABLE": true, "INDEX": true,
	"VIEW": true, "DROP": true, "ALTER": true, "TRUNCATE": true,
	"ASC": true, "DESC": true, "RETURNING": true, "WITH": true,
}

type parser struct {
	toks  []token
	pos   int
	rules rules
	src   string
}

// parseAll validates every statement in the token stream, recovering at
// top-level semicolons so each malformed statement yields exactly one error.
func (p *parser) parseAll() []*SyntaxError {
	var errs []*SyntaxError

	for {
		for p.is(";") {
			p.next()
		}

		if p.peek().kind == tokEOF {
			return errs
		}

		if err := p.parseStatement(); err != nil {
			errs = append(errs, err)
			p.recover()

			continue
		}

		if !p.is(";") && p.peek().kind != tokEOF {
			errs = append(errs, p.errHere("expected end of statement"))
			p.recover()
		}
	}
}

// recover skips tokens until the next statement boundary: a semicolon
// outside any parenthesis.
func (p *parser) recover() {
	depth := 0

	for {
		t := p.peek()

		switch {
		case t.kind == tokEOF:
			return
		case t.text == "(":
			depth++
		case t.text == ")":
			if depth > 0 {
				depth--
			}
		case t.text == ";" && depth == 0:
			return
		}

		p.next()
	}
}

func (p *parser) parseStatement() *SyntaxError {
	switch p.peek().upper() {
	case "SELECT", "WITH":
		return p.parseSelect()
	case "INSERT":
		return p.parseInsert()
	case "UPDATE":
		return p.parseUpdate()
	case "DELETE":
		return p.parseDelete()
	case "CREATE":
		return p.parseCreate()
	case "DROP":
		return p.parseDrop()
	case "ALTER":
		return p.parseAlter()
	case "TRUNCATE":
		return p.parseTruncate()
	default:
		return p.errHere("expected a SQL statement")
	}
}

// --- token helpers ---

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}

	return t
}

// is reports whether the current token's upper-cased text equals s.
func (p *parser) is(s string) bool { return p.peek().upper() == s }

// accept consumes the current token when it equals s.
func (p *parser) accept(s string) bool {
	if p.is(s) {
		p.next()

		return true
	}

	return false
}

// expect consumes a token equal to s or fails.
func (p *parser) expect(s string) *SyntaxError {
	if p.accept(s) {
		return nil
	}

	return p.errHere(fmt.Sprintf("expected %s", s))
}

func (p *parser) errHere(msg string) *SyntaxError {
	t := p.peek()
	if t.kind == tokEOF {
		return &SyntaxError{Msg: msg + ", found end of statement", Start: t.start, End: t.end}
	}

	return &SyntaxError{Msg: fmt.Sprintf("%s, found %q", msg, t.text), Start: t.start, End: t.end}
}

// --- statements ---

func (p *parser) parseSelect() *SyntaxError {
	if p.accept("WITH") {
		if err := p.parseCTEs(); err != nil {
			return err
		}
	}

	if err := p.parseSelectBody(); err != nil {
		return err
	}

	for p.is("UNION") || p.is("EXCEPT") || p.is("INTERSECT") {
		p.next()

		if !p.accept("ALL") {
			p.accept("DISTINCT")
		}

		if err := p.parseSelectBody(); err != nil {
			return err
		}
	}

	return p.parseSelectTail()
}

func (p *parser) parseCTEs() *SyntaxError {
	p.accept("RECURSIVE")

	for {
		if err := p.expectIdent("common table expression name"); err != nil {
			return err
		}

		if p.accept("(") {
			if err := p.parseIdentList(); err != nil {
				return err
			}

			if err := p.expect(")"); err != nil {
				return err
			}
		}

		if err := p.expect("AS"); err != nil {
			return err
		}

		if err := p.expect("("); err != nil {
			return err
		}

		if err := p.parseSelect(); err != nil {
			return err
		}

		if err := p.expect(")"); err != nil {
			return err
		}

		if !p.accept(",") {
			return nil
		}
	}
}

func (p *parser) parseSelectBody() *SyntaxError {
	if p.is("(") {
		p.next()

		if err := p.parseSelect(); err != nil {
			return err
		}

		return p.expect(")")
	}

	if err := p.expect("SELECT"); err != nil {
		return err
	}

	if !p.accept("ALL") {
		p.accept("DISTINCT")
	}

	if p.rules.topClause && p.accept("TOP") {
		if p.peek().kind != tokNumber {
			return p.errHere("expected a row count after TOP")
		}

		p.next()
	}

	if err := p.parseSelectList(); err != nil {
		return err
	}

	if p.accept("FROM") {
		if err := p.parseTableRefs(); err != nil {
			return err
		}
	}

	if p.accept("WHERE") {
		if err := p.parseExpr(); err != nil {
			return err
		}
	}

	if p.accept("GROUP") {
		if err := p.expect("BY"); err != nil {
			return err
		}

		if err := p.parseExprList(); err != nil {
			return err
		}
	}

	if p.accept("HAVING") {
		if err := p.parseExpr(); err != nil {
			return err
		}
	}

	return nil
}

// parseSelectTail handles ORDER BY / LIMIT / OFFSET / FETCH, which bind to
// the whole (possibly set-combined) query.
func (p *parser) parseSelectTail() *SyntaxError {
	if p.accept("ORDER") {
		if err := p.expect("BY"); err != nil {
			return err
		}

		for {
			if err := p.parseExpr(); err != nil {
				return err
			}

			if !p.accept("ASC") {
				p.accept("DESC")
			}

			if p.accept("NULLS") {
				if !p.accept("FIRST") && !p.accept("LAST") {
					return p.errHere("expected FIRST or LAST after NULLS")
				}
			}

			if !p.accept(",") {
				break
			}
		}
	}

	if p.is("LIMIT") {
		if !p.rules.limitClause {
			return p.errHere("LIMIT is not supported by this dialect")
		}

		p.next()

		if err := p.parseExpr(); err != nil {
			return err
		}

		if p.accept(",") {
			// MySQL LIMIT offset, count form.
			if err := p.parseExpr(); err != nil {
				return err
			}
		}
	}

	if p.accept("OFFSET") {
		if err := p.parseExpr(); err != nil {
			return err
		}

		if !p.accept("ROWS") {
			p.accept("ROW")
		}
	}

	if p.accept("FETCH") {
		if !p.accept("FIRST") && !p.accept("NEXT") {
			return p.errHere("expected FIRST or NEXT after FETCH")
		}

		if err := p.parseExpr(); err != nil {
			return err
		}

		if !p.accept("ROWS") {
			p.accept("ROW")
		}

		if err := p.expect("ONLY"); err != nil {
			return err
		}
	}

	return nil
}

func (p *parser) parseSelectList() *SyntaxError {
	for {
		if err := p.parseSelectItem(); err != nil {
			return err
		}

		if !p.accept(",") {
			return nil
		}
	}
}

func (p *parser) parseSelectItem() *SyntaxError {
	if p.accept("*") {
		return nil
	}

	if err := p.parseExpr(); err != nil {
		return err
	}

	if p.accept("AS") {
		return p.expectIdent("column alias")
	}

	// Bare alias: an unreserved identifier directly after the expression.
	if t := p.peek(); t.kind == tokIdent && !reserved[t.upper()] || t.kind == tokQuotedIdent {
		p.next()
	}

	return nil
}

func (p *parser) parseTableRefs() *SyntaxError {
	for {
		if err := p.parseTableRef(); err != nil {
			return err
		}

		if !p.accept(",") {
			return nil
		}
	}
}

func (p *parser) parseTableRef() *SyntaxError {
	if err := p.parseTableFactor(); err != nil {
		return err
	}

	for {
		switch {
		case p.is("JOIN") || p.is("INNER") || p.is("CROSS"):
			p.accept("INNER")
			p.accept("CROSS")

			if err := p.expect("JOIN"); err != nil {
				return err
			}
		case p.is("LEFT") || p.is("RIGHT") || p.is("FULL"):
			p.next()
			p.accept("OUTER")

			if err := p.expect("JOIN"); err != nil {
				return err
			}
		default:
			return nil
		}

		if err := p.parseTableFactor(); err != nil {
			return err
		}

		if p.accept("ON") {
			if err := p.parseExpr(); err != nil {
				return err
			}
		} else if p.accept("USING") {
			if err := p.expect("("); err != nil {
				return err
			}

			if err := p.parseIdentList(); err != nil {
				return err
			}

			if err := p.expect(")"); err != nil {
				return err
			}
		}
	}
}

func (p *parser) parseTableFactor() *SyntaxError {
	if p.accept("(") {
		if p.is("SELECT") || p.is("WITH") {
			if err := p.parseSelect(); err != nil {
				return err
			}
		} else if err := p.parseTableRefs(); err != nil {
			return err
		}

		if err := p.expect(")"); err != nil {
			return err
		}
	} else {
		if err := p.parseQualifiedName(); err != nil {
			return err
		}

		// Table-valued function: name(args).
		if p.accept("(") {
			if !p.is(")") {
				if err := p.parseExprList(); err != nil {
					return err
				}
			}

			if err := p.expect(")"); err != nil {
				return err
			}
		}
	}

	if p.accept("AS") {
		return p.expectIdent("table alias")
	}

	if t := p.peek(); t.kind == tokIdent && !reserved[t.upper()] || t.kind == tokQuotedIdent {
		p.next()
	}

	return nil
}

func (p *parser) parseInsert() *SyntaxError {
	p.next() // INSERT

	if p.accept("OR") {
		if !p.accept("REPLACE") && !p.accept("IGNORE") && !p.accept("ABORT") && !p.accept("ROLLBACK") && !p.accept("FAIL") {
			return p.errHere("expected a conflict action after INSERT OR")
		}
	}

	p.accept("IGNORE") // MySQL INSERT IGNORE

	if err := p.expect("INTO"); err != nil {
		return err
	}

	if err := p.parseQualifiedName(); err != nil {
		return err
	}

	if p.accept("(") {
		if err := p.parseIdentList(); err != nil {
			return err
		}

		if err := p.expect(")"); err != nil {
			return err
		}
	}

	switch {
	case p.accept("VALUES"):
		for {
			if err := p.expect("("); err != nil {
				return err
			}

			if err := p.parseExprList(); err != nil {
				return err
			}

			if err := p.expect(")"); err != nil {
				return err
			}

			if !p.accept(",") {
				break
			}
		}
	case p.is("SELECT") || p.is("WITH"):
		if err := p.parseSelect(); err != nil {
			return err
		}
	case p.accept("DEFAULT"):
		if err := p.expect("VALUES"); err != nil {
			return err
		}
	default:
		return p.errHere("expected VALUES or a query")
	}

	return p.parseReturning()
}

func (p *parser) parseUpdate() *SyntaxError {
	p.next() // UPDATE

	if err := p.parseQualifiedName(); err != nil {
		return err
	}

	if err := p.expect("SET"); err != nil {
		return err
	}

	for {
		if err := p.parseQualifiedName(); err != nil {
			return err
		}

		if err := p.expectOperator("="); err != nil {
			return err
		}

		if err := p.parseExpr(); err != nil {
			return err
		}

		if !p.accept(",") {
			break
		}
	}

	if p.accept("FROM") {
		if err := p.parseTableRefs(); err != nil {
			return err
		}
	}

	if p.accept("WHERE") {
		if err := p.parseExpr(); err != nil {
			return err
		}
	}

	return p.parseReturning()
}

func (p *parser) parseDelete() *SyntaxError {
	p.next() // DELETE

	if err := p.expect("FROM"); err != nil {
		return err
	}

	if err := p.parseQualifiedName(); err != nil {
		return err
	}

	if p.accept("USING") {
		if err := p.parseTableRefs(); err != nil {
			return err
		}
	}

	if p.accept("WHERE") {
		if err := p.parseExpr(); err != nil {
			return err
		}
	}

	return p.parseReturning()
}

func (p *parser) parseReturning() *SyntaxError {
	if !p.accept("RETURNING") {
		return nil
	}

	if p.accept("*") {
		return nil
	}

	return p.parseExprList()
}

func (p *parser) parseCreate() *SyntaxError {
	p.next() // CREATE

	if p.accept("OR") {
		if err := p.expect("REPLACE"); err != nil {
			return err
		}
	}

	if !p.accept("TEMP") {
		p.accept("TEMPORARY")
	}

	p.accept("UNIQUE")

	switch {
	case p.accept("TABLE"):
		if err := p.parseIfNotExists(); err != nil {
			return err
		}

		if err := p.parseQualifiedName(); err != nil {
			return err
		}

		if p.is("AS") {
			p.next()

			return p.parseSelect()
		}

		if err := p.expect("("); err != nil {
			return err
		}

		// Column and constraint definitions vary too much across dialects
		// to enumerate; require balanced, non-empty parenthesized content.
		return p.skipBalanced()
	case p.accept("INDEX"):
		if err := p.parseIfNotExists(); err != nil {
			return err
		}

		if err := p.parseQualifiedName(); err != nil {
			return err
		}

		if err := p.expect("ON"); err != nil {
			return err
		}

		if err := p.parseQualifiedName(); err != nil {
			return err
		}

		if err := p.expect("("); err != nil {
			return err
		}

		if err := p.parseExprList(); err != nil {
			return err
		}

		return p.expect(")")
	case p.accept("VIEW"):
		if err := p.parseIfNotExists(); err != nil {
			return err
		}

		if err := p.parseQualifiedName(); err != nil {
			return err
		}

		if err := p.expect("AS"); err != nil {
			return err
		}

		return p.parseSelect()
	default:
		return p.errHere("expected TABLE, INDEX or VIEW")
	}
}

func (p *parser) parseIfNotExists() *SyntaxError {
	if !p.accept("IF") {
		return nil
	}

	if err := p.expect("NOT"); err != nil {
		return err
	}

	return p.expect("EXISTS")
}

// skipBalanced consumes tokens after an already-consumed "(" up to its
// matching ")", requiring non-empty content.
func (p *parser) skipBalanced() *SyntaxError {
	if p.is(")") {
		return p.errHere("expected at least one column definition")
	}

	depth := 1

	for depth > 0 {
		t := p.next()

		switch {
		case t.kind == tokEOF:
			return p.errHere("expected )")
		case t.text == "(":
			depth++
		case t.text == ")":
			depth--
		}
	}

	return nil
}

func (p *parser) parseDrop() *SyntaxError {
	p.next() // DROP

	if !p.accept("TABLE") && !p.accept("INDEX") && !p.accept("VIEW") {
		return p.errHere("expected TABLE, INDEX or VIEW")
	}

	if p.accept("IF") {
		if err := p.expect("EXISTS"); err != nil {
			return err
		}
	}

	for {
		if err := p.parseQualifiedName(); err != nil {
			return err
		}

		if !p.accept(",") {
			break
		}
	}

	if !p.accept("CASCADE") {
		p.accept("RESTRICT")
	}

	return nil
}

// parseAlter validates the target name, then accepts any balanced token run
// up to the statement boundary: ALTER bodies are the least portable part of
// every dialect.
func (p *parser) parseAlter() *SyntaxError {
	p.next() // ALTER

	if err := p.expect("TABLE"); err != nil {
		return err
	}

	if err := p.parseQualifiedName(); err != nil {
		return err
	}

	if p.is(";") || p.peek().kind == tokEOF {
		return p.errHere("expected an alteration")
	}

	depth := 0

	for {
		t := p.peek()

		switch {
		case t.kind == tokEOF:
			return nil
		case t.text == "(":
			depth++
		case t.text == ")":
			if depth == 0 {
				return p.errHere("expected ;")
			}

			depth--
		case t.text == ";" && depth == 0:
			return nil
		}

		p.next()
	}
}

func (p *parser) parseTruncate() *SyntaxError {
	p.next() // TRUNCATE
	p.accept("TABLE")

	return p.parseQualifiedName()
}

// --- shared pieces ---

func (p *parser) expectIdent(what string) *SyntaxError {
	t := p.peek()
	if t.kind == tokQuotedIdent || (t.kind == tokIdent && !reserved[t.upper()]) {
		p.next()

		return nil
	}

	return p.errHere("expected " + what)
}

func (p *parser) expectOperator(op string) *SyntaxError {
	t := p.peek()
	if t.kind == tokOperator && t.text == op {
		p.next()

		return nil
	}

	return p.errHere(fmt.Sprintf("expected %s", op))
}

func (p *parser) parseIdentList() *SyntaxError {
	for {
		if err := p.expectIdent("an identifier"); err != nil {
			return err
		}

		if !p.accept(",") {
			return nil
		}
	}
}

// parseQualifiedName parses ident{.ident}, allowing quoted parts.
func (p *parser) parseQualifiedName() *SyntaxError {
	if err := p.expectIdent("a name"); err != nil {
		return err
	}

	for p.accept(".") {
		if p.accept("*") {
			return nil
		}

		if err := p.expectIdent("a name after '.'"); err != nil {
			return err
		}
	}

	return nil
}

func (p *parser) parseExprList() *SyntaxError {
	for {
		if err := p.parseExpr(); err != nil {
			return err
		}

		if !p.accept(",") {
			return nil
		}
	}
}
