package parser

import (
	"github.com/federatedsql/multidb/expr"
	"github.com/federatedsql/multidb/lexer"
	"github.com/federatedsql/multidb/naming"
	"github.com/federatedsql/multidb/perr"
	"github.com/federatedsql/multidb/token"
)

// Parser drives a CmpLexer through the grammar of spec §4.3.
type Parser struct {
	cl *lexer.CmpLexer
}

// New builds a Parser over SQL source text.
func New(src string) *Parser {
	return &Parser{cl: lexer.NewCmp(lexer.New(src))}
}

// ParseSelect parses one top-level SELECT statement, then requires an
// optional ';' and the End token (spec §4.3 "End-of-query check").
func (p *Parser) ParseSelect() (*Select, error) {
	if err := p.rejectUnsupportedStatement(); err != nil {
		return nil, err
	}
	sel, err := p.selectStmt()
	if err != nil {
		return nil, err
	}
	p.cl.Optional().Match(lexer.Sym(";"))
	if !p.cl.Check(lexer.K(token.End)) {
		return nil, &perr.FatalSyntaxError{Msg: "expected end of query", Pos: p.cl.Interval.Start}
	}
	return sel, nil
}

// rejectUnsupportedStatement recognizes the statement kinds the original
// parser.py raises NotSupported for at the top level (INSERT/UPDATE/DELETE)
// rather than letting the SELECT grammar simply fail to match them.
func (p *Parser) rejectUnsupportedStatement() error {
	for _, kw := range []string{"INSERT", "UPDATE", "DELETE"} {
		if t, _ := p.cl.Optional().Match(lexer.KW(kw)); t != nil {
			return &perr.NotSupportedError{Msg: kw + " statements"}
		}
	}
	return nil
}

func (p *Parser) selectStmt() (*Select, error) {
	if _, err := p.cl.Match(lexer.KW("SELECT")); err != nil {
		return nil, err
	}
	list, err := p.selectList()
	if err != nil {
		return nil, err
	}
	from, where, err := p.tableExpression()
	if err != nil {
		return nil, err
	}
	return &Select{List: list, From: from, Where: where}, nil
}

func (p *Parser) selectList() ([]SelectItem, error) {
	if star, _ := p.cl.Optional().Match(lexer.Sym("*")); star != nil {
		return []SelectItem{{Star: true}}, nil
	}
	var items []SelectItem
	item, err := p.selectSublist()
	if err != nil {
		return nil, err
	}
	items = append(items, item)
	for {
		comma, _ := p.cl.Optional().Match(lexer.Sym(","))
		if comma == nil {
			break
		}
		next, err := p.selectSublist()
		if err != nil {
			return nil, err
		}
		items = append(items, next)
	}
	return items, nil
}

// selectSublist chooses between "table.*" and a derived column expression.
func (p *Parser) selectSublist() (SelectItem, error) {
	return choose(p.cl,
		func() (SelectItem, error) {
			name, err := p.cl.Match(lexer.K(token.Identifier))
			if err != nil {
				return SelectItem{}, &perr.SyntaxError{Msg: "not a qualified asterisk", Pos: p.cl.Interval.Start}
			}
			if _, err := p.cl.Match(lexer.Sym(".")); err != nil {
				return SelectItem{}, &perr.SyntaxError{Msg: "not a qualified asterisk", Pos: p.cl.Interval.Start}
			}
			if _, err := p.cl.Match(lexer.Sym("*")); err != nil {
				return SelectItem{}, &perr.SyntaxError{Msg: "not a qualified asterisk", Pos: p.cl.Interval.Start}
			}
			return SelectItem{TableStar: name.Text}, nil
		},
		func() (SelectItem, error) {
			e, err := p.valueExpression()
			if err != nil {
				return SelectItem{}, err
			}
			alias := ""
			p.cl.Optional().Match(lexer.KW("AS"))
			if !p.cl.CurrentIsReservedWord() {
				if id, _ := p.cl.Optional().Match(lexer.K(token.Identifier)); id != nil {
					alias = id.Text
				}
			}
			return SelectItem{Expr: e, Alias: alias}, nil
		},
	)
}

func (p *Parser) valueExpression() (expr.Expr, error) {
	return choose(p.cl,
		func() (expr.Expr, error) { return p.booleanValueExpression() },
		func() (expr.Expr, error) { return p.numericValueExpression() },
	)
}

// --- numeric ---

func (p *Parser) numericValueExpression() (expr.Expr, error) {
	l, err := p.term()
	if err != nil {
		return nil, err
	}
	if t, _ := p.cl.Optional().Match(lexer.Sym("+")); t != nil {
		r, err := p.numericValueExpression()
		if err != nil {
			return nil, err
		}
		return expr.Numeric{Op: expr.OpAdd, L: l, R: r}, nil
	}
	if t, _ := p.cl.Optional().Match(lexer.Sym("-")); t != nil {
		r, err := p.numericValueExpression()
		if err != nil {
			return nil, err
		}
		return expr.Numeric{Op: expr.OpSub, L: l, R: r}, nil
	}
	return l, nil
}

func (p *Parser) term() (expr.Expr, error) {
	l, err := p.factor()
	if err != nil {
		return nil, err
	}
	if t, _ := p.cl.Optional().Match(lexer.Sym("*")); t != nil {
		r, err := p.term()
		if err != nil {
			return nil, err
		}
		return expr.Numeric{Op: expr.OpMul, L: l, R: r}, nil
	}
	if t, _ := p.cl.Optional().Match(lexer.Sym("/")); t != nil {
		r, err := p.term()
		if err != nil {
			return nil, err
		}
		return expr.Numeric{Op: expr.OpDiv, L: l, R: r}, nil
	}
	return l, nil
}

func (p *Parser) factor() (expr.Expr, error) {
	sign := 0
	if t, _ := p.cl.Optional().Match(lexer.Sym("-")); t != nil {
		sign = -1
	} else if t, _ := p.cl.Optional().Match(lexer.Sym("+")); t != nil {
		sign = 1
	}
	prim, err := p.numericPrimary()
	if err != nil {
		return nil, err
	}
	if sign != 0 {
		return expr.UnarySign{Base: expr.Base{Sign: sign}, Child: prim}, nil
	}
	return prim, nil
}

func (p *Parser) numericPrimary() (expr.Expr, error) {
	return choose(p.cl,
		func() (expr.Expr, error) {
			t, err := p.cl.Match(lexer.K(token.Int))
			if err != nil {
				return nil, &perr.SyntaxError{Msg: "not an int literal", Pos: p.cl.Interval.Start}
			}
			v, derr := t.Value()
			if derr != nil {
				return nil, &perr.DecodeError{Kind: token.Int, Err: derr}
			}
			return expr.Int{Value: v.(int64)}, nil
		},
		func() (expr.Expr, error) {
			t, err := p.cl.Match(lexer.K(token.Float))
			if err != nil {
				return nil, &perr.SyntaxError{Msg: "not a float literal", Pos: p.cl.Interval.Start}
			}
			v, derr := t.Value()
			if derr != nil {
				return nil, &perr.DecodeError{Kind: token.Float, Err: derr}
			}
			return expr.Float{Value: v.(float64)}, nil
		},
		func() (expr.Expr, error) {
			if _, err := p.cl.Match(lexer.Sym("(")); err != nil {
				return nil, &perr.SyntaxError{Msg: "not parenthesized", Pos: p.cl.Interval.Start}
			}
			e, err := p.valueExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.cl.Match(lexer.Sym(")")); err != nil {
				return nil, err
			}
			return e, nil
		},
		func() (expr.Expr, error) { return p.columnRef() },
		// String/datetime value expressions are recognized, not built: the
		// original parser.py raises NotSupported for both rather than
		// producing an AST node, since neither the rewriter nor the join
		// executor operates on string/temporal values.
		func() (expr.Expr, error) {
			t, err := p.cl.Match(lexer.K(token.Datetime))
			if err != nil {
				return nil, &perr.SyntaxError{Msg: "not a datetime literal", Pos: p.cl.Interval.Start}
			}
			if _, derr := t.Value(); derr != nil {
				return nil, &perr.DecodeError{Kind: token.Datetime, Err: derr}
			}
			return nil, &perr.NotSupportedError{Msg: "datetime value expressions"}
		},
		func() (expr.Expr, error) {
			t, err := p.cl.Match(lexer.K(token.Date))
			if err != nil {
				return nil, &perr.SyntaxError{Msg: "not a date literal", Pos: p.cl.Interval.Start}
			}
			if _, derr := t.Value(); derr != nil {
				return nil, &perr.DecodeError{Kind: token.Date, Err: derr}
			}
			return nil, &perr.NotSupportedError{Msg: "date value expressions"}
		},
		func() (expr.Expr, error) {
			t, err := p.cl.Match(lexer.K(token.String))
			if err != nil {
				return nil, &perr.SyntaxError{Msg: "not a string literal", Pos: p.cl.Interval.Start}
			}
			if _, derr := t.Value(); derr != nil {
				return nil, &perr.DecodeError{Kind: token.String, Err: derr}
			}
			return nil, &perr.NotSupportedError{Msg: "string value expressions"}
		},
	)
}

func (p *Parser) columnRef() (expr.Expr, error) {
	chain, err := p.namingChain(1, 5)
	if err != nil {
		return nil, &perr.SyntaxError{Msg: "not a column reference", Pos: p.cl.Interval.Start}
	}
	return expr.Column{ChainParts: chain.Data()}, nil
}

// --- boolean ---

func (p *Parser) booleanValueExpression() (expr.Expr, error) {
	l, err := p.booleanTerm()
	if err != nil {
		return nil, err
	}
	if t, _ := p.cl.Optional().Match(lexer.KW("OR")); t != nil {
		r, err := p.booleanValueExpression()
		if err != nil {
			return nil, err
		}
		return expr.Bool{Op: expr.OpOr, L: l, R: r}, nil
	}
	return l, nil
}

func (p *Parser) booleanTerm() (expr.Expr, error) {
	l, err := p.booleanFactor()
	if err != nil {
		return nil, err
	}
	if t, _ := p.cl.Optional().Match(lexer.KW("AND")); t != nil {
		r, err := p.booleanTerm()
		if err != nil {
			return nil, err
		}
		return expr.Bool{Op: expr.OpAnd, L: l, R: r}, nil
	}
	return l, nil
}

func (p *Parser) booleanFactor() (expr.Expr, error) {
	not := false
	if t, _ := p.cl.Optional().Match(lexer.KW("NOT")); t != nil {
		not = true
	}
	e, err := p.booleanTest()
	if err != nil {
		return nil, err
	}
	if not {
		return expr.Not{Child: e}, nil
	}
	return e, nil
}

func (p *Parser) booleanTest() (expr.Expr, error) {
	e, err := p.booleanPrimary()
	if err != nil {
		return nil, err
	}
	if t, _ := p.cl.Optional().Match(lexer.KW("IS")); t != nil {
		not := false
		if n, _ := p.cl.Optional().Match(lexer.KW("NOT")); n != nil {
			not = true
		}
		tv, err := p.truthValue()
		if err != nil {
			return nil, err
		}
		if not {
			tv = expr.NotTV(tv)
		}
		return expr.Is{Left: e, Right: tv}, nil
	}
	return e, nil
}

func (p *Parser) truthValue() (expr.TV, error) {
	if t, _ := p.cl.Optional().Match(lexer.KW("TRUE")); t != nil {
		return expr.TVTrue, nil
	}
	if t, _ := p.cl.Optional().Match(lexer.KW("FALSE")); t != nil {
		return expr.TVFalse, nil
	}
	if _, err := p.cl.Match(lexer.KW("NULL")); err != nil {
		return expr.TVNull, err
	}
	return expr.TVNull, nil
}

func (p *Parser) booleanPrimary() (expr.Expr, error) {
	return choose(p.cl,
		func() (expr.Expr, error) { return p.comparisonPredicate() },
		func() (expr.Expr, error) {
			if _, err := p.cl.Match(lexer.Sym("(")); err != nil {
				return nil, &perr.SyntaxError{Msg: "not parenthesized", Pos: p.cl.Interval.Start}
			}
			e, err := p.valueExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.cl.Match(lexer.Sym(")")); err != nil {
				return nil, err
			}
			return e, nil
		},
		func() (expr.Expr, error) { return p.nonparenthesizedPrimary() },
	)
}

func (p *Parser) nonparenthesizedPrimary() (expr.Expr, error) {
	return choose(p.cl,
		func() (expr.Expr, error) {
			if _, err := p.cl.Match(lexer.KW("TRUE")); err != nil {
				return nil, &perr.SyntaxError{Msg: "not TRUE", Pos: p.cl.Interval.Start}
			}
			return expr.BoolLit{Value: true}, nil
		},
		func() (expr.Expr, error) {
			if _, err := p.cl.Match(lexer.KW("FALSE")); err != nil {
				return nil, &perr.SyntaxError{Msg: "not FALSE", Pos: p.cl.Interval.Start}
			}
			return expr.BoolLit{Value: false}, nil
		},
		func() (expr.Expr, error) {
			if _, err := p.cl.Match(lexer.KW("NULL")); err != nil {
				return nil, &perr.SyntaxError{Msg: "not NULL", Pos: p.cl.Interval.Start}
			}
			return expr.NullLit{}, nil
		},
		func() (expr.Expr, error) { return p.columnRef() },
	)
}

func (p *Parser) comparisonPredicate() (expr.Expr, error) {
	l, err := p.operand()
	if err != nil {
		return nil, err
	}
	op, err := p.compOp()
	if err != nil {
		return nil, err
	}
	r, err := p.operand()
	if err != nil {
		return nil, err
	}
	return expr.Comparison{L: l, R: r, Op: op}, nil
}

func (p *Parser) operand() (expr.Expr, error) {
	return choose(p.cl,
		func() (expr.Expr, error) { return p.numericValueExpression() },
		func() (expr.Expr, error) { return p.columnRef() },
	)
}

func (p *Parser) compOp() (expr.CompOp, error) {
	pairs := []struct {
		sym string
		op  expr.CompOp
	}{
		{"<>", expr.Neq}, {"<=", expr.Leq}, {">=", expr.Geq},
		{"=", expr.Eq}, {"<", expr.Lt}, {">", expr.Gt},
	}
	for _, pr := range pairs {
		if t, _ := p.cl.Optional().Match(lexer.Sym(pr.sym)); t != nil {
			return pr.op, nil
		}
	}
	return 0, &perr.SyntaxError{Msg: "expected comparison operator", Pos: p.cl.Interval.Start}
}

// --- table expression / from / joins ---

func (p *Parser) tableExpression() (FromItem, expr.Expr, error) {
	from, err := p.fromClause()
	if err != nil {
		return nil, nil, err
	}
	var where expr.Expr
	if t, _ := p.cl.Optional().Match(lexer.KW("WHERE")); t != nil {
		where, err = p.booleanValueExpression()
		if err != nil {
			return nil, nil, err
		}
	}
	if t, _ := p.cl.Optional().Match(lexer.KW("GROUP")); t != nil {
		return nil, nil, &perr.NotSupportedError{Msg: "GROUP BY"}
	}
	if t, _ := p.cl.Optional().Match(lexer.KW("HAVING")); t != nil {
		return nil, nil, &perr.NotSupportedError{Msg: "HAVING"}
	}
	return from, where, nil
}

func (p *Parser) fromClause() (FromItem, error) {
	if _, err := p.cl.Match(lexer.KW("FROM")); err != nil {
		return nil, err
	}
	items := []FromItem{}
	first, err := p.tableReference()
	if err != nil {
		return nil, err
	}
	items = append(items, first)
	for {
		t, _ := p.cl.Optional().Match(lexer.Sym(","))
		if t == nil {
			break
		}
		next, err := p.tableReference()
		if err != nil {
			return nil, err
		}
		items = append(items, next)
	}
	if len(items) == 1 {
		return items[0], nil
	}
	// Multiple comma-separated FROM entries parse as an implicit cross-join
	// chain, which the binder and join executor treat exactly like an
	// explicit CROSS JOIN.
	acc := items[0]
	for _, it := range items[1:] {
		acc = &Join{Kind: JoinCross, Left: acc, Right: it}
	}
	return acc, nil
}

// tableReference parses `join_factor joined_table*` and folds the
// right-recursive joined_table list into a left-associative tree (spec
// scenario #6: `t JOIN u ON x JOIN v ON y` becomes `Join(Join(t,u,x),v,y)`).
func (p *Parser) tableReference() (FromItem, error) {
	acc, err := p.joinFactor()
	if err != nil {
		return nil, err
	}
	for {
		next, ok, err := p.joinedTable(acc)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		acc = next
	}
	return acc, nil
}

func (p *Parser) joinFactor() (FromItem, error) {
	return choose(p.cl,
		func() (FromItem, error) {
			if _, err := p.cl.Match(lexer.Sym("(")); err != nil {
				return nil, &perr.SyntaxError{Msg: "not parenthesized table reference", Pos: p.cl.Interval.Start}
			}
			t, err := p.tableReference()
			if err != nil {
				return nil, err
			}
			if _, err := p.cl.Match(lexer.Sym(")")); err != nil {
				return nil, err
			}
			return t, nil
		},
		func() (FromItem, error) {
			chain, err := p.namingChain(1, 4)
			if err != nil {
				return nil, &perr.SyntaxError{Msg: "not a table reference", Pos: p.cl.Interval.Start}
			}
			return &TableRef{Chain: chain}, nil
		},
	)
}

func (p *Parser) joinedTable(left FromItem) (FromItem, bool, error) {
	if t, _ := p.cl.Optional().Match(lexer.KW("NATURAL")); t != nil {
		if _, err := p.cl.Match(lexer.KW("JOIN")); err != nil {
			return nil, false, err
		}
		return nil, false, &perr.NotSupportedError{Msg: "NATURAL JOIN"}
	}
	if t, _ := p.cl.Optional().Match(lexer.KW("UNION")); t != nil {
		if _, err := p.cl.Match(lexer.KW("JOIN")); err != nil {
			return nil, false, err
		}
		return nil, false, &perr.NotSupportedError{Msg: "UNION JOIN"}
	}
	if t, _ := p.cl.Optional().Match(lexer.KW("CROSS")); t != nil {
		if _, err := p.cl.Match(lexer.KW("JOIN")); err != nil {
			return nil, false, err
		}
		right, err := p.joinFactor()
		if err != nil {
			return nil, false, err
		}
		return &Join{Kind: JoinCross, Left: left, Right: right}, true, nil
	}

	kind := JoinPlain
	matchedType := false
	for _, kw := range []struct {
		word string
		kind JoinKind
	}{{"INNER", JoinInner}, {"LEFT", JoinLeft}, {"RIGHT", JoinRight}, {"FULL", JoinFull}} {
		if t, _ := p.cl.Optional().Match(lexer.KW(kw.word)); t != nil {
			kind = kw.kind
			matchedType = true
			p.cl.Optional().Match(lexer.KW("OUTER"))
			break
		}
	}

	t, _ := p.cl.Optional().Match(lexer.KW("JOIN"))
	if t == nil {
		if matchedType {
			return nil, false, &perr.FatalSyntaxError{Msg: "expected JOIN after join type", Pos: p.cl.Interval.Start}
		}
		return nil, false, nil
	}
	right, err := p.joinFactor()
	if err != nil {
		return nil, false, err
	}
	if _, err := p.cl.Match(lexer.KW("ON")); err != nil {
		return nil, false, err
	}
	on, err := p.booleanValueExpression()
	if err != nil {
		return nil, false, err
	}
	if kind == JoinPlain {
		kind = JoinInner
	}
	return &Join{Kind: kind, Left: left, Right: right, On: on}, true, nil
}

// namingChain parses IDENT ('.' IDENT){0,max-1} [AS IDENT], requiring
// between min and max total parts.
func (p *Parser) namingChain(min, max int) (naming.Chain, error) {
	first, err := p.cl.Match(lexer.K(token.Identifier))
	if err != nil {
		return naming.Chain{}, err
	}
	parts := []string{first.Text}
	for len(parts) < max {
		dot, _ := p.cl.Optional().Match(lexer.Sym("."))
		if dot == nil {
			break
		}
		id, err := p.cl.Match(lexer.K(token.Identifier))
		if err != nil {
			return naming.Chain{}, err
		}
		parts = append(parts, id.Text)
	}
	if len(parts) < min {
		return naming.Chain{}, &perr.SyntaxError{Msg: "naming chain too short", Pos: p.cl.Interval.Start}
	}
	c := naming.New(parts...)
	p.cl.Optional().Match(lexer.KW("AS"))
	if !p.cl.CurrentIsReservedWord() {
		if alias, _ := p.cl.Optional().Match(lexer.K(token.Identifier)); alias != nil {
			c = c.As(alias.Text)
		}
	}
	return c, nil
}
