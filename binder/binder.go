// Package binder implements name resolution and predicate validation
// (C11): it turns a parser.Select's unresolved naming chains and Column
// references into a BoundSelect pointing at concrete *schema.Table /
// *schema.Column values, folds every predicate through Convolve, and
// builds the PDNF acceptance mask the join executor consumes.
//
// Grounded on multidb/dml.py's Select class: check_table/check_all_tables
// (table resolution through the four alias granularities),
// validate_select_list, validate_expression, validate_where.
package binder

import (
	"fmt"

	"github.com/federatedsql/multidb/expr"
	"github.com/federatedsql/multidb/naming"
	"github.com/federatedsql/multidb/parser"
	"github.com/federatedsql/multidb/perr"
	"github.com/federatedsql/multidb/schema"
)

// Environment is the control center's table-resolution surface: the four
// alias granularities (spec §4.6's dbms/db/schema/table alias maps) plus
// table construction. Kept as an interface so binder never imports
// control (which imports binder to drive Bind).
type Environment interface {
	DBMSAlias(name string) (dbms string, ok bool)
	DBAlias(name string) (dbms, db string, ok bool)
	SchemaAlias(name string) (dbms, db, schemaName string, ok bool)
	TableAlias(name string) (dbms, db, schemaName, table string, ok bool)
	OpenTable(dbms, db, schemaName, table string) (*schema.Table, error)
}

// BoundFrom mirrors parser.FromItem with naming chains resolved to tables.
type BoundFrom interface{ boundFromNode() }

// BoundTable is a single resolved table reference.
type BoundTable struct{ Table *schema.Table }

func (*BoundTable) boundFromNode() {}

// BoundJoin mirrors parser.Join, with On reduced to a PDNF once it is
// known to be a boolean condition (spec §4.6's "join condition only
// boolean expression or column" check).
type BoundJoin struct {
	Kind        parser.JoinKind
	Left, Right BoundFrom
	On          expr.Expr
	OnPDNF      *expr.PDNF
}

func (*BoundJoin) boundFromNode() {}

// BoundItem is one resolved select-list entry.
type BoundItem struct {
	Expr  expr.Expr
	Alias string
}

// BoundSelect is the output of Bind: every table reference resolved,
// every column reference replaced by its *schema.Column (wrapped back
// into expr.Column.Bound), and predicates convolved and PDNF-built.
type BoundSelect struct {
	List      []BoundItem
	From      BoundFrom
	Where     expr.Expr
	WherePDNF *expr.PDNF      // non-nil if Where is a boolean expression
	Tables    []*schema.Table // every table referenced, in FROM order
}

// Binder carries the per-query resolution state (spec's alias_table,
// alias_selection, name_to_table, full_table_list).
type Binder struct {
	env Environment

	nameToTable    map[string]*schema.Table
	aliasTable     map[string]*schema.Table
	aliasSelection map[string]expr.Expr
	tables         []*schema.Table
	fromUsed       map[string]bool // full table names already bound as a FROM item
}

// New constructs a Binder for one query against env.
func New(env Environment) *Binder {
	return &Binder{
		env:            env,
		nameToTable:    make(map[string]*schema.Table),
		aliasTable:     make(map[string]*schema.Table),
		aliasSelection: make(map[string]expr.Expr),
		fromUsed:       make(map[string]bool),
	}
}

// Bind resolves sel's FROM clause, select list, and WHERE clause.
// Grounded on Select.validate's three-step order (validate_from,
// validate_select_list, validate_where) — tables must be resolved and
// their columns' name_to_column maps available before expressions can be.
func (b *Binder) Bind(sel *parser.Select) (*BoundSelect, error) {
	from, err := b.bindFrom(sel.From)
	if err != nil {
		return nil, err
	}

	list, err := b.bindSelectList(sel.List)
	if err != nil {
		return nil, err
	}

	out := &BoundSelect{List: list, From: from, Tables: b.tables}

	if sel.Where != nil {
		if !isPredicateLike(sel.Where) {
			return nil, &perr.SemanticError{Msg: "WHERE condition must be a boolean expression or column"}
		}
		where, err := b.validateExpression(sel.Where.Convolve(), false)
		if err != nil {
			return nil, err
		}

		// Push single-table conjuncts down onto their Table's Filters (spec
		// §4.7 "subject to its pushed-down filters (single-table predicates
		// only)"), AND-ed together into one filter per table; whatever can't
		// be attributed to exactly one table stays as the query-level
		// residual.
		var residual []expr.Expr
		var filtered []*schema.Table
		perTable := make(map[*schema.Table]expr.Expr)
		for _, conjunct := range splitConjuncts(where) {
			tbls := referencedTables(conjunct)
			if len(tbls) == 1 {
				if prev, ok := perTable[tbls[0]]; ok {
					perTable[tbls[0]] = expr.Bool{Op: expr.OpAnd, L: prev, R: conjunct}
				} else {
					perTable[tbls[0]] = conjunct
					filtered = append(filtered, tbls[0])
				}
			} else {
				residual = append(residual, conjunct)
			}
		}
		for _, tbl := range filtered {
			tbl.AddFilter(perTable[tbl])
		}

		if len(residual) > 0 {
			combined := residual[0]
			for _, r := range residual[1:] {
				combined = expr.Bool{Op: expr.OpAnd, L: combined, R: r}
			}
			out.Where = combined
			if isBoolean(combined) {
				pdnf := expr.BuildPDNF(combined)
				out.WherePDNF = &pdnf
			}
		}
	}

	return out, nil
}

// splitConjuncts flattens the top-level AND structure of a convolved
// boolean expression into its conjuncts, so each can be attributed to a
// table independently.
func splitConjuncts(e expr.Expr) []expr.Expr {
	if b, ok := e.(expr.Bool); ok && b.Op == expr.OpAnd {
		return append(splitConjuncts(b.L), splitConjuncts(b.R)...)
	}
	return []expr.Expr{e}
}

// referencedTables collects the distinct *schema.Table values touched by
// every bound expr.Column leaf in e.
func referencedTables(e expr.Expr) []*schema.Table {
	seen := make(map[*schema.Table]bool)
	var out []*schema.Table
	var walk func(expr.Expr)
	walk = func(n expr.Expr) {
		switch v := n.(type) {
		case expr.Column:
			if col, ok := v.Bound.(*schema.Column); ok && !seen[col.Table] {
				seen[col.Table] = true
				out = append(out, col.Table)
			}
		case expr.UnarySign:
			walk(v.Child)
		case expr.Numeric:
			walk(v.L)
			walk(v.R)
		case expr.Not:
			walk(v.Child)
		case expr.Is:
			walk(v.Left)
		case expr.Bool:
			walk(v.L)
			walk(v.R)
		case expr.Comparison:
			walk(v.L)
			walk(v.R)
		}
	}
	walk(e)
	return out
}

// bindFrom walks the FROM tree resolving every TableRef and, for each
// QualifiedJoin, validating and convolving its ON condition. Grounded on
// check_all_tables's recursive left/right walk.
func (b *Binder) bindFrom(item parser.FromItem) (BoundFrom, error) {
	switch n := item.(type) {
	case *parser.TableRef:
		_, tbl, err := b.checkTable(n.Chain, false)
		if err != nil {
			return nil, err
		}
		return &BoundTable{Table: tbl}, nil

	case *parser.Join:
		left, err := b.bindFrom(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := b.bindFrom(n.Right)
		if err != nil {
			return nil, err
		}
		bj := &BoundJoin{Kind: n.Kind, Left: left, Right: right}
		if n.On != nil {
			if !isPredicateLike(n.On) {
				return nil, &perr.SemanticError{Msg: "JOIN condition must be a boolean expression or column"}
			}
			on, err := b.validateExpression(n.On.Convolve(), false)
			if err != nil {
				return nil, err
			}
			bj.On = on
			if isBoolean(on) {
				pdnf := expr.BuildPDNF(on)
				bj.OnPDNF = &pdnf
			}
		}
		return bj, nil

	default:
		return nil, &perr.UnreachableError{Msg: fmt.Sprintf("unknown FromItem %T", item)}
	}
}

// checkTable resolves a table naming chain through the four alias
// granularities (spec §4.6's table), constructing and caching the
// *schema.Table on first reference. onlyGet mirrors check_table's
// only_get=True mode used when resolving a column's table-name prefix: it
// must already be present in FROM, never constructed fresh.
func (b *Binder) checkTable(chain naming.Chain, onlyGet bool) (naming.Chain, *schema.Table, error) {
	parts := chain.Data()
	alias := chain.ShortName()

	var dbms, db, schemaName, table string

	switch len(parts) {
	case 4:
		dbms, db, schemaName, table = parts[0], parts[1], parts[2], parts[3]
	case 3:
		var ok bool
		dbms, db, ok = b.env.DBAlias(parts[0])
		if !ok {
			return naming.Chain{}, nil, &perr.SemanticError{Msg: "alias db " + parts[0] + " not found"}
		}
		schemaName, table = parts[1], parts[2]
	case 2:
		var ok bool
		dbms, db, schemaName, ok = b.envSchemaAlias(parts[0])
		if !ok {
			return naming.Chain{}, nil, &perr.SemanticError{Msg: "alias schema " + parts[0] + " not found"}
		}
		table = parts[1]
	case 1:
		// The alias_table fast path only applies to column-prefix lookups
		// (onlyGet): a FROM-position bare name must always resolve through
		// the table-alias map, since alias_table is itself populated by
		// earlier FROM bindings in this same query, and a hit there at
		// FROM-position is exactly the duplicate-use case (spec §4.6).
		if onlyGet {
			if tbl, ok := b.aliasTable[parts[0]]; ok {
				id := tbl.Identity()
				return naming.New(id[:]...), tbl, nil
			}
		}
		var ok bool
		dbms, db, schemaName, table, ok = b.env.TableAlias(parts[0])
		if !ok {
			return naming.Chain{}, nil, &perr.SemanticError{Msg: "alias table " + parts[0] + " not found"}
		}
	default:
		return naming.Chain{}, nil, &perr.SemanticError{Msg: "wrong naming chain for table: " + chain.String()}
	}

	fullName := naming.New(dbms, db, schemaName, table)
	key := fullName.String()

	tbl, exists := b.nameToTable[key]

	if onlyGet {
		if !exists {
			return naming.Chain{}, nil, &perr.SemanticError{Msg: "table " + chain.String() + " not found in FROM"}
		}
		return fullName, tbl, nil
	}

	// A FROM-position reference to a full name already bound in this FROM
	// clause is the "multi-use not supported" case (spec §4.6); this must
	// be checked independently of nameToTable, since that cache is also
	// legitimately consulted when resolving a column's table prefix.
	if b.fromUsed[key] {
		return naming.Chain{}, nil, &perr.SemanticError{Msg: "many use of table " + chain.String() + " not supported"}
	}
	b.fromUsed[key] = true

	if !exists {
		if resolved, ok := b.env.DBMSAlias(dbms); ok {
			dbms = resolved
		}
		newTbl, err := b.env.OpenTable(dbms, db, schemaName, table)
		if err != nil {
			return naming.Chain{}, nil, err
		}
		b.nameToTable[key] = newTbl
		tbl = newTbl
	}

	b.tables = append(b.tables, tbl)

	if alias != "" {
		if _, dup := b.aliasTable[alias]; dup {
			return naming.Chain{}, nil, &perr.SemanticError{Msg: "duplicate alias table " + alias}
		}
		b.aliasTable[alias] = tbl
	} else if _, dup := b.aliasTable[key]; !dup {
		b.aliasTable[key] = tbl
	}

	return fullName, tbl, nil
}

func (b *Binder) envSchemaAlias(name string) (dbms, db, schemaName string, ok bool) {
	return b.env.SchemaAlias(name)
}

// bindSelectList resolves "*", "table.*", and expression select items,
// marking every touched column Visible (grounded on validate_select_list).
func (b *Binder) bindSelectList(items []parser.SelectItem) ([]BoundItem, error) {
	var out []BoundItem

	for _, item := range items {
		switch {
		case item.Star:
			for _, tbl := range b.tables {
				for _, col := range tbl.Columns {
					if err := col.MarkVisible(); err != nil {
						return nil, err
					}
					out = append(out, BoundItem{Expr: columnExpr(col), Alias: col.Name})
				}
			}

		case item.TableStar != "":
			_, tbl, err := b.checkTable(naming.New(item.TableStar), true)
			if err != nil {
				return nil, err
			}
			for _, col := range tbl.Columns {
				if err := col.MarkVisible(); err != nil {
					return nil, err
				}
				out = append(out, BoundItem{Expr: columnExpr(col), Alias: col.Name})
			}

		default:
			shortName := ""
			if c, ok := item.Expr.(expr.Column); ok {
				chain := naming.New(c.ChainParts...).As(c.Alias)
				shortName = chain.ShortName()
			} else if item.Alias != "" {
				shortName = item.Alias
			}

			bound, err := b.validateExpression(item.Expr.Convolve(), true)
			if err != nil {
				return nil, err
			}
			if shortName != "" {
				b.aliasSelection[shortName] = bound
			}
			alias := shortName
			if alias == "" {
				alias = item.Alias
			}
			out = append(out, BoundItem{Expr: bound, Alias: alias})
		}
	}

	return out, nil
}

// validateExpression recursively resolves every expr.Column leaf to its
// *schema.Column, wrapped back into an expr.Column with Bound set (the Go
// analog of multidb/dml.py's validate_expression, which substitutes the
// column object itself in place of the reference), and recurses through
// numeric/boolean/comparison structure. Grounded on
// Select.validate_expression, extended per spec §3's usage marks: visible
// selects between "a selected expression sets each participating column's
// visible = true" (select-list context, visible=true) and "count_used"
// (predicate/join context, visible=false).
func (b *Binder) validateExpression(e expr.Expr, visible bool) (expr.Expr, error) {
	switch n := e.(type) {
	case expr.Column:
		if _, ok := n.Bound.(*schema.Column); ok {
			return n, nil // already resolved (e.g. revisited via Convolve)
		}
		tuple := append([]string(nil), n.ChainParts...)
		if len(tuple) < 2 || len(tuple) > 5 {
			return nil, &perr.SemanticError{Msg: "column reference must be qualified: " + naming.New(tuple...).String()}
		}
		tableParts, columnName := tuple[:len(tuple)-1], tuple[len(tuple)-1]
		_, tbl, err := b.checkTable(naming.New(tableParts...), true)
		if err != nil {
			return n, nil // matches the Python original's "not found -> return expression unresolved" leniency
		}
		col, ok := tbl.Column(columnName)
		if !ok {
			return nil, &perr.SemanticError{Msg: "column " + columnName + " not found"}
		}
		if visible {
			err = col.MarkVisible()
		} else {
			err = col.MarkPredicateUse()
		}
		if err != nil {
			return nil, err
		}
		return columnExpr(col), nil

	case expr.UnarySign:
		child, err := b.validateExpression(n.Child, visible)
		if err != nil {
			return nil, err
		}
		n.Child = child
		return n, nil

	case expr.Numeric:
		l, err := b.validateExpression(n.L, visible)
		if err != nil {
			return nil, err
		}
		r, err := b.validateExpression(n.R, visible)
		if err != nil {
			return nil, err
		}
		n.L, n.R = l, r
		return n, nil

	case expr.Not:
		child, err := b.validateExpression(n.Child, visible)
		if err != nil {
			return nil, err
		}
		n.Child = child
		return n, nil

	case expr.Is:
		left, err := b.validateExpression(n.Left, visible)
		if err != nil {
			return nil, err
		}
		n.Left = left
		return n, nil

	case expr.Bool:
		l, err := b.validateExpression(n.L, visible)
		if err != nil {
			return nil, err
		}
		r, err := b.validateExpression(n.R, visible)
		if err != nil {
			return nil, err
		}
		n.L, n.R = l, r
		return n, nil

	case expr.Comparison:
		l, err := b.validateExpression(n.L, visible)
		if err != nil {
			return nil, err
		}
		r, err := b.validateExpression(n.R, visible)
		if err != nil {
			return nil, err
		}
		n.L, n.R = l, r
		return n, nil

	default:
		return e, nil
	}
}

// columnExpr wraps a resolved *schema.Column back into an expr.Column
// (Bound set) so the rewriter and join executor have one uniform Expr
// leaf type to match on.
func columnExpr(col *schema.Column) expr.Expr {
	return expr.Column{ChainParts: []string{col.Table.Name, col.Name}, Bound: col}
}

func isPredicateLike(e expr.Expr) bool {
	switch e.(type) {
	case expr.Bool, expr.Not, expr.Is, expr.Comparison, expr.Column, expr.BoolLit:
		return true
	default:
		return false
	}
}

func isBoolean(e expr.Expr) bool {
	switch e.(type) {
	case expr.Bool, expr.Not, expr.Is, expr.Comparison:
		return true
	default:
		return false
	}
}
