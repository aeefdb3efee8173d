// Package parser implements the recursive-descent SQL:1999-subset parser
// (C7) with its bounded-backtracking combinator, plus the PostgreSQL
// CREATE INDEX sub-parser (C8).
package parser

import (
	"github.com/federatedsql/multidb/expr"
	"github.com/federatedsql/multidb/naming"
)

// Select is the parsed (not yet bound) form of a SELECT statement.
type Select struct {
	List  []SelectItem
	From  FromItem
	Where expr.Expr // nil if no WHERE clause
}

// SelectItem is one entry of the select list.
type SelectItem struct {
	Star      bool   // "*"
	TableStar string // "table.*"; "" unless this form
	Expr      expr.Expr
	Alias     string
}

// FromItem is either a bare table reference or a join tree node.
type FromItem interface{ fromNode() }

// TableRef names a single table by its dotted naming chain, with an
// optional alias.
type TableRef struct {
	Chain naming.Chain
}

func (*TableRef) fromNode() {}

// JoinKind distinguishes the join operators the grammar accepts.
type JoinKind int

const (
	JoinCross JoinKind = iota
	JoinPlain          // bare JOIN, no INNER/LEFT/RIGHT/FULL keyword — treated as inner
	JoinInner
	JoinLeft
	JoinRight
	JoinFull
)

// Join is one node of the (left-associative, per scenario #6) join tree
// built by table_reference's fold over joined_table*.
type Join struct {
	Kind        JoinKind
	Left, Right FromItem
	On          expr.Expr // nil for JoinCross
}

func (*Join) fromNode() {}
