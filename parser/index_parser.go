package parser

import (
	"strings"

	"github.com/federatedsql/multidb/expr"
	"github.com/federatedsql/multidb/lexer"
	"github.com/federatedsql/multidb/naming"
	"github.com/federatedsql/multidb/perr"
	"github.com/federatedsql/multidb/token"
)

// IndexColumn is one entry of a parsed CREATE INDEX column list: either a
// plain column name or a parenthesized expression, plus its ordering and
// null-placement modifiers.
type IndexColumn struct {
	Name       string    // "" when Expr is set
	Expr       expr.Expr // non-nil for a `(expression)` column spec
	Collate    string    // "" if absent
	OpClass    string    // "" if absent
	Descending bool
	NullsFirst bool
	NullsLast  bool
}

// IndexDef is the result of parsing a PostgreSQL CREATE INDEX statement
// (spec §4.4, C8): the table it names, its columns in order, whether it is
// UNIQUE, and its access method.
type IndexDef struct {
	Name    string
	Table   naming.Chain
	Columns []IndexColumn
	Unique  bool
	Method  string
}

// ParseIndexDef parses one `CREATE [UNIQUE] INDEX ... ON ... (...)`
// statement. It reuses the lexer/CmpLexer machinery of the main parser but
// is invoked standalone against a pg_indexes `indexdef` string rather than
// composed with the SELECT grammar, since index definitions never appear
// inside a query.
func ParseIndexDef(src string) (*IndexDef, error) {
	cl := lexer.NewCmp(lexer.New(src))

	if _, err := cl.Match(lexer.KW("CREATE")); err != nil {
		return nil, err
	}
	unique := false
	if t, _ := cl.Optional().Match(lexer.KW("UNIQUE")); t != nil {
		unique = true
	}
	if _, err := cl.Match(lexer.KW("INDEX")); err != nil {
		return nil, err
	}
	if t, _ := cl.Optional().Match(lexer.KW("IF")); t != nil {
		if _, err := cl.Match(lexer.KW("NOT")); err != nil {
			return nil, err
		}
		if _, err := cl.Match(lexer.KW("EXISTS")); err != nil {
			return nil, err
		}
	}
	nameTok, err := cl.Match(lexer.K(token.Identifier))
	if err != nil {
		return nil, err
	}
	if _, err := cl.Match(lexer.KW("ON")); err != nil {
		return nil, err
	}
	cl.Optional().Match(lexer.KW("ONLY"))

	table, err := parseIndexNamingChain(cl)
	if err != nil {
		return nil, err
	}

	method := ""
	if t, _ := cl.Optional().Match(lexer.KW("USING")); t != nil {
		m, err := cl.Match(lexer.K(token.Identifier))
		if err != nil {
			return nil, err
		}
		method = m.Text
	}

	if _, err := cl.Match(lexer.Sym("(")); err != nil {
		return nil, err
	}
	var cols []IndexColumn
	col, err := parseIndexColumnSpec(cl)
	if err != nil {
		return nil, err
	}
	cols = append(cols, col)
	for {
		comma, _ := cl.Optional().Match(lexer.Sym(","))
		if comma == nil {
			break
		}
		col, err := parseIndexColumnSpec(cl)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	if _, err := cl.Match(lexer.Sym(")")); err != nil {
		return nil, err
	}

	return &IndexDef{
		Name:    nameTok.Text,
		Table:   table,
		Columns: cols,
		Unique:  unique,
		Method:  strings.ToLower(method),
	}, nil
}

func parseIndexNamingChain(cl *lexer.CmpLexer) (naming.Chain, error) {
	first, err := cl.Match(lexer.K(token.Identifier))
	if err != nil {
		return naming.Chain{}, err
	}
	parts := []string{first.Text}
	for {
		dot, _ := cl.Optional().Match(lexer.Sym("."))
		if dot == nil {
			break
		}
		id, err := cl.Match(lexer.K(token.Identifier))
		if err != nil {
			return naming.Chain{}, err
		}
		parts = append(parts, id.Text)
	}
	return naming.New(parts...), nil
}

// parseIndexColumnSpec parses `(<id> | '(' expression ')') [COLLATE id]
// [opclass] [ASC|DESC] [NULLS {FIRST|LAST}]`.
func parseIndexColumnSpec(cl *lexer.CmpLexer) (IndexColumn, error) {
	var out IndexColumn

	if paren, _ := cl.Optional().Match(lexer.Sym("(")); paren != nil {
		p := &Parser{cl: cl}
		e, err := p.valueExpression()
		if err != nil {
			return out, err
		}
		if _, err := cl.Match(lexer.Sym(")")); err != nil {
			return out, err
		}
		out.Expr = e
	} else {
		id, err := cl.Match(lexer.K(token.Identifier))
		if err != nil {
			return out, &perr.SyntaxError{Msg: "expected column name or expression", Pos: cl.Interval.Start}
		}
		out.Name = id.Text
	}

	if t, _ := cl.Optional().Match(lexer.KW("COLLATE")); t != nil {
		id, err := cl.Match(lexer.K(token.Identifier))
		if err != nil {
			return out, err
		}
		out.Collate = id.Text
	}

	// An operator class, when present, is a bare identifier with no
	// introducing keyword; it can only be distinguished from ASC/DESC/NULLS
	// by not matching any of those keywords.
	if !cl.Check(lexer.KW("ASC"), lexer.KW("DESC"), lexer.KW("NULLS"), lexer.Sym(","), lexer.Sym(")")) {
		if id, _ := cl.Optional().Match(lexer.K(token.Identifier)); id != nil {
			out.OpClass = id.Text
		}
	}

	if t, _ := cl.Optional().Match(lexer.KW("ASC")); t != nil {
		out.Descending = false
	} else if t, _ := cl.Optional().Match(lexer.KW("DESC")); t != nil {
		out.Descending = true
	}

	if t, _ := cl.Optional().Match(lexer.KW("NULLS")); t != nil {
		if f, _ := cl.Optional().Match(lexer.KW("FIRST")); f != nil {
			out.NullsFirst = true
		} else if l, _ := cl.Match(lexer.KW("LAST")); l != nil {
			out.NullsLast = true
		}
	}

	return out, nil
}
