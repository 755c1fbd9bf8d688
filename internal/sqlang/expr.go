package sqlang

// Expression grammar, precedence-climbing: OR < AND < NOT < comparison <
// additive < multiplicative < unary < postfix cast < primary. No tree is
// built; each level only consumes tokens or fails.

func (p *parser) parseExpr() *SyntaxError {
	return p.parseOr()
}

func (p *parser) parseOr() *SyntaxError {
	if err := p.parseAnd(); err != nil {
		return err
	}

	for p.accept("OR") {
		if err := p.parseAnd(); err != nil {
			return err
		}
	}

	return nil
}

func (p *parser) parseAnd() *SyntaxError {
	if err := p.parseNot(); err != nil {
		return err
	}

	for p.accept("AND") {
		if err := p.parseNot(); err != nil {
			return err
		}
	}

	return nil
}

func (p *parser) parseNot() *SyntaxError {
	for p.accept("NOT") {
	}

	return p.parseComparison()
}

func (p *parser) parseComparison() *SyntaxError {
	if err := p.parseAdditive(); err != nil {
		return err
	}

	for {
		t := p.peek()

		switch {
		case t.kind == tokOperator && isComparisonOp(t.text):
			p.next()

			if p.accept("ANY") || p.accept("SOME") || p.accept("ALL") {
				if err := p.expect("("); err != nil {
					return err
				}

				if err := p.parseSubqueryOrExpr(); err != nil {
					return err
				}

				if err := p.expect(")"); err != nil {
					return err
				}

				continue
			}

			if err := p.parseAdditive(); err != nil {
				return err
			}

		case t.upper() == "IS":
			p.next()
			p.accept("NOT")

			switch {
			case p.accept("NULL"):
			case p.accept("TRUE"):
			case p.accept("FALSE"):
			case p.accept("DISTINCT"):
				if err := p.expect("FROM"); err != nil {
					return err
				}

				if err := p.parseAdditive(); err != nil {
					return err
				}
			default:
				return p.errHere("expected NULL, TRUE, FALSE or DISTINCT FROM after IS")
			}

		case t.upper() == "NOT" && p.peekAheadComparisonKeyword():
			p.next()

		case t.upper() == "LIKE" || t.upper() == "ILIKE":
			p.next()

			if err := p.parseAdditive(); err != nil {
				return err
			}

			if p.accept("ESCAPE") {
				if err := p.parseAdditive(); err != nil {
					return err
				}
			}

		case t.upper() == "IN":
			p.next()

			if err := p.expect("("); err != nil {
				return err
			}

			if err := p.parseSubqueryOrExprList(); err != nil {
				return err
			}

			if err := p.expect(")"); err != nil {
				return err
			}

		case t.upper() == "BETWEEN":
			p.next()

			if err := p.parseAdditive(); err != nil {
				return err
			}

			if err := p.expect("AND"); err != nil {
				return err
			}

			if err := p.parseAdditive(); err != nil {
				return err
			}

		default:
			return nil
		}
	}
}

// peekAheadComparisonKeyword reports whether the token after the current one
// continues a negated comparison (NOT LIKE, NOT IN, NOT BETWEEN, NOT ILIKE).
func (p *parser) peekAheadComparisonKeyword() bool {
	if p.pos+1 >= len(p.toks) {
		return false
	}

	switch p.toks[p.pos+1].upper() {
	case "LIKE", "ILIKE", "IN", "BETWEEN":
		return true
	}

	return false
}

func isComparisonOp(s string) bool {
	switch s {
	case "=", "<>", "!=", "<", "<=", ">", ">=", "<=>":
		return true
	}

	return false
}

func (p *parser) parseAdditive() *SyntaxError {
	if err := p.parseMultiplicative(); err != nil {
		return err
	}

	for {
		t := p.peek()
		if t.kind != tokOperator || !isAdditiveOp(t.text) {
			return nil
		}

		p.next()

		if err := p.parseMultiplicative(); err != nil {
			return err
		}
	}
}

func isAdditiveOp(s string) bool {
	switch s {
	case "+", "-", "||", "&", "|", "^", "<<", ">>", "->", "->>", "#>", "#>>":
		return true
	}

	return false
}

func (p *parser) parseMultiplicative() *SyntaxError {
	if err := p.parseUnary(); err != nil {
		return err
	}

	for {
		t := p.peek()
		if t.kind != tokOperator || (t.text != "*" && t.text != "/" && t.text != "%") {
			return nil
		}

		p.next()

		if err := p.parseUnary(); err != nil {
			return err
		}
	}
}

func (p *parser) parseUnary() *SyntaxError {
	for {
		t := p.peek()
		if t.kind == tokOperator && (t.text == "-" || t.text == "+" || t.text == "~") {
			p.next()

			continue
		}

		break
	}

	if err := p.parsePrimary(); err != nil {
		return err
	}

	// Postfix :: cast, repeatable: expr::text::varchar.
	for p.peek().kind == tokOperator && p.peek().text == "::" {
		p.next()

		if err := p.parseTypeName(); err != nil {
			return err
		}
	}

	return nil
}

func (p *parser) parsePrimary() *SyntaxError {
	t := p.peek()

	switch {
	case t.kind == tokNumber || t.kind == tokString:
		p.next()

		return nil

	case t.kind == tokOperator && (t.text == "?" || t.text == ":" || t.text == "@"):
		// Bare or named parameter markers that survived normalization.
		p.next()

		if nt := p.peek(); (t.text == ":" || t.text == "@") && (nt.kind == tokIdent || nt.kind == tokNumber) {
			p.next()
		}

		return nil

	case t.upper() == "NULL" || t.upper() == "TRUE" || t.upper() == "FALSE" ||
		t.upper() == "DEFAULT" || t.upper() == "CURRENT_TIMESTAMP" ||
		t.upper() == "CURRENT_DATE" || t.upper() == "CURRENT_TIME":
		p.next()

		return nil

	case t.upper() == "INTERVAL":
		p.next()

		if p.peek().kind != tokString && p.peek().kind != tokNumber {
			return p.errHere("expected an interval literal")
		}

		p.next()

		// Optional unit keyword(s): INTERVAL 1 DAY, INTERVAL '1' YEAR TO MONTH.
		for p.peek().kind == tokIdent && !reserved[p.peek().upper()] {
			p.next()

			if p.accept("TO") {
				continue
			}
		}

		return nil

	case t.upper() == "CASE":
		return p.parseCase()

	case t.upper() == "CAST":
		p.next()

		if err := p.expect("("); err != nil {
			return err
		}

		if err := p.parseExpr(); err != nil {
			return err
		}

		if err := p.expect("AS"); err != nil {
			return err
		}

		if err := p.parseTypeName(); err != nil {
			return err
		}

		return p.expect(")")

	case t.upper() == "EXISTS":
		p.next()

		if err := p.expect("("); err != nil {
			return err
		}

		if err := p.parseSelect(); err != nil {
			return err
		}

		return p.expect(")")

	case t.text == "(":
		p.next()

		if p.is("SELECT") || p.is("WITH") {
			if err := p.parseSelect(); err != nil {
				return err
			}
		} else if err := p.parseExprList(); err != nil { // row value or grouping
			return err
		}

		return p.expect(")")

	case t.kind == tokQuotedIdent || (t.kind == tokIdent && !reserved[t.upper()]):
		return p.parseNameOrCall()
	}

	return p.errHere("expected an expression")
}

func (p *parser) parseCase() *SyntaxError {
	p.next() // CASE

	if !p.is("WHEN") {
		if err := p.parseExpr(); err != nil {
			return err
		}
	}

	if !p.is("WHEN") {
		return p.errHere("expected WHEN")
	}

	for p.accept("WHEN") {
		if err := p.parseExpr(); err != nil {
			return err
		}

		if err := p.expect("THEN"); err != nil {
			return err
		}

		if err := p.parseExpr(); err != nil {
			return err
		}
	}

	if p.accept("ELSE") {
		if err := p.parseExpr(); err != nil {
			return err
		}
	}

	return p.expect("END")
}

// parseNameOrCall parses a possibly qualified name with an optional call
// suffix and window clause: schema.fn(DISTINCT a, b ORDER BY c) OVER (...).
func (p *parser) parseNameOrCall() *SyntaxError {
	p.next() // first name part

	for p.accept(".") {
		if p.accept("*") {
			return nil
		}

		if err := p.expectIdent("a name after '.'"); err != nil {
			return err
		}
	}

	if !p.accept("(") {
		return nil
	}

	if !p.is(")") {
		if p.accept("*") {
			// count(*)
		} else {
			if !p.accept("ALL") {
				p.accept("DISTINCT")
			}

			if err := p.parseExprList(); err != nil {
				return err
			}

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

					if !p.accept(",") {
						break
					}
				}
			}
		}
	}

	if err := p.expect(")"); err != nil {
		return err
	}

	if p.accept("FILTER") {
		if err := p.expect("("); err != nil {
			return err
		}

		if err := p.expect("WHERE"); err != nil {
			return err
		}

		if err := p.parseExpr(); err != nil {
			return err
		}

		if err := p.expect(")"); err != nil {
			return err
		}
	}

	if p.accept("OVER") {
		if p.is("(") {
			p.next()

			return p.skipWindowSpec()
		}

		return p.expectIdent("a window name")
	}

	return nil
}

// skipWindowSpec consumes a balanced window definition after its "(".
// PARTITION BY / ORDER BY / frame clauses differ per dialect; balance is the
// only portable check.
func (p *parser) skipWindowSpec() *SyntaxError {
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

// parseTypeName parses a type, allowing qualified names and length or
// precision arguments: varchar(255), numeric(10, 2), pg_catalog.text.
func (p *parser) parseTypeName() *SyntaxError {
	if p.accept("DOUBLE") {
		p.accept("PRECISION")
	} else {
		if err := p.expectIdent("a type name"); err != nil {
			return err
		}

		for p.accept(".") {
			if err := p.expectIdent("a type name after '.'"); err != nil {
				return err
			}
		}

		// Multi-word types: TIMESTAMP WITH TIME ZONE, CHARACTER VARYING.
		p.accept("VARYING")

		if p.accept("WITH") || p.accept("WITHOUT") {
			if err := p.expect("TIME"); err != nil {
				return err
			}

			if err := p.expect("ZONE"); err != nil {
				return err
			}
		}
	}

	if p.accept("(") {
		for {
			if p.peek().kind != tokNumber && p.peek().kind != tokIdent {
				return p.errHere("expected a type argument")
			}

			p.next()

			if !p.accept(",") {
				break
			}
		}

		if err := p.expect(")"); err != nil {
			return err
		}
	}

	return nil
}

func (p *parser) parseSubqueryOrExpr() *SyntaxError {
	if p.is("SELECT") || p.is("WITH") {
		return p.parseSelect()
	}

	return p.parseExpr()
}

func (p *parser) parseSubqueryOrExprList() *SyntaxError {
	if p.is("SELECT") || p.is("WITH") {
		return p.parseSelect()
	}

	return p.parseExprList()
}
